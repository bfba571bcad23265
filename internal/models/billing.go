package models

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// WingMonthConfig holds the shared-cost inputs for one wing and month:
// electricity tariff, per-flat sweeping charge, and the common motor meter
// readings whose cost is split across opted-in tenants.
type WingMonthConfig struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	MonthKey        string    `gorm:"type:varchar(7);not null;uniqueIndex:idx_wing_month_configs_key" json:"month_key"`
	Wing            string    `gorm:"not null;uniqueIndex:idx_wing_month_configs_key" json:"wing"`
	ElectricityRate float64   `gorm:"type:decimal(10,2)" json:"electricity_rate"`
	SweepingPerFlat float64   `gorm:"type:decimal(10,2)" json:"sweeping_per_flat"`
	MotorPrev       float64   `gorm:"type:decimal(10,2)" json:"motor_prev"`
	MotorNew        float64   `gorm:"type:decimal(10,2)" json:"motor_new"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// TableName specifies the table name for WingMonthConfig
func (WingMonthConfig) TableName() string {
	return "wing_month_configs"
}

// MotorUnits returns motor consumption for the month. Deliberately not
// clamped at zero: a meter rollback produces a negative shared allocation,
// which operators review manually.
func (c *WingMonthConfig) MotorUnits() float64 {
	return c.MotorNew - c.MotorPrev
}

// MeterReading records one tenancy's electricity meter readings for a month,
// plus whether the tenancy participates in shared costs for that period.
type MeterReading struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	MonthKey     string    `gorm:"type:varchar(7);not null;uniqueIndex:idx_meter_readings_key" json:"month_key"`
	TenancyID    uint      `gorm:"not null;uniqueIndex:idx_meter_readings_key" json:"tenancy_id"`
	Wing         string    `gorm:"not null;index" json:"wing"`
	PrevReading  float64   `gorm:"type:decimal(10,2)" json:"prev_reading"`
	NewReading   float64   `gorm:"type:decimal(10,2)" json:"new_reading"`
	Included     bool      `gorm:"default:true" json:"included"`
	OverrideRent *float64  `gorm:"type:decimal(10,2)" json:"override_rent"`
	Notes        *string   `json:"notes"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`

	// Associations
	Tenancy Tenancy `gorm:"foreignKey:TenancyID" json:"-"`
}

// TableName specifies the table name for MeterReading
func (MeterReading) TableName() string {
	return "meter_readings"
}

// BillLine is one tenancy's bill for a month. The full row set for a
// (month, wing) is regenerated on each billing run; reruns replace, they
// never append.
type BillLine struct {
	ID                uint       `gorm:"primaryKey" json:"id"`
	MonthKey          string     `gorm:"type:varchar(7);not null;uniqueIndex:idx_bill_lines_key" json:"month_key"`
	TenancyID         uint       `gorm:"not null;uniqueIndex:idx_bill_lines_key" json:"tenancy_id"`
	Wing              string     `gorm:"not null;index" json:"wing"`
	RentAmount        float64    `gorm:"type:decimal(10,2)" json:"rent_amount"`
	ElectricityUnits  float64    `gorm:"type:decimal(10,2)" json:"electricity_units"`
	ElectricityAmount float64    `gorm:"type:decimal(10,2)" json:"electricity_amount"`
	MotorShareAmount  float64    `gorm:"type:decimal(10,2)" json:"motor_share_amount"`
	SweepAmount       float64    `gorm:"type:decimal(10,2)" json:"sweep_amount"`
	TotalAmount       float64    `gorm:"type:decimal(10,2)" json:"total_amount"`
	PayableDate       *time.Time `gorm:"type:date" json:"payable_date"`
	AmountPaid        *float64   `gorm:"type:decimal(10,2)" json:"amount_paid"`
	IsPaid            *bool      `json:"is_paid"`
	CreatedAt         time.Time  `gorm:"index" json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`

	// Associations
	Tenancy  Tenancy   `gorm:"foreignKey:TenancyID" json:"tenancy,omitempty"`
	Payments []Payment `gorm:"foreignKey:BillLineID" json:"payments,omitempty"`
}

// TableName specifies the table name for BillLine
func (BillLine) TableName() string {
	return "bill_lines"
}

// HasExplicitState returns true if both stored payment fields are present;
// such rows are authoritative and skip re-derivation.
func (b *BillLine) HasExplicitState() bool {
	return b.IsPaid != nil && b.AmountPaid != nil
}

// BillLineResponse is the JSON response format for bill lines
type BillLineResponse struct {
	ID                uint       `json:"id"`
	MonthKey          string     `json:"month_key"`
	TenancyID         uint       `json:"tenancy_id"`
	Wing              string     `json:"wing"`
	RentAmount        float64    `json:"rent_amount"`
	ElectricityUnits  float64    `json:"electricity_units"`
	ElectricityAmount float64    `json:"electricity_amount"`
	MotorShareAmount  float64    `json:"motor_share_amount"`
	SweepAmount       float64    `json:"sweep_amount"`
	TotalAmount       float64    `json:"total_amount"`
	PayableDate       *time.Time `json:"payable_date"`
	AmountPaid        float64    `json:"amount_paid"`
	IsPaid            bool       `json:"is_paid"`
	Remaining         float64    `json:"remaining"`

	TenantName string `json:"tenant_name,omitempty"`
	UnitName   string `json:"unit_name,omitempty"`
}

// NormalizeMonthKey canonicalizes a month key to zero-padded YYYY-MM so
// "2024-5" and "2024-05" refer to the same billing period.
func NormalizeMonthKey(key string) (string, error) {
	parts := strings.SplitN(strings.TrimSpace(key), "-", 2)
	if len(parts) != 2 {
		return "", fmt.Errorf("invalid month key %q", key)
	}
	year, err := strconv.Atoi(parts[0])
	if err != nil || len(parts[0]) != 4 {
		return "", fmt.Errorf("invalid month key %q", key)
	}
	month, err := strconv.Atoi(parts[1])
	if err != nil || month < 1 || month > 12 {
		return "", fmt.Errorf("invalid month key %q", key)
	}
	return fmt.Sprintf("%04d-%02d", year, month), nil
}

// NormalizeWing canonicalizes a wing name case-insensitively so "a" and
// "A" refer to the same wing.
func NormalizeWing(wing string) string {
	return strings.ToUpper(strings.TrimSpace(wing))
}

// MonthStart returns the first day of the month identified by a normalized
// month key.
func MonthStart(monthKey string) (time.Time, error) {
	return time.Parse("2006-01", monthKey)
}
