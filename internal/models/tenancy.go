package models

import (
	"time"

	"gorm.io/gorm"
)

// Tenancy represents a tenant occupying a unit for a period. A tenant can
// appear in several tenancies over time; at most one per (tenant, unit) is
// active, older ones are ended on supersession or vacate.
type Tenancy struct {
	ID            uint       `gorm:"primaryKey" json:"id"`
	TenantID      uint       `gorm:"not null;index" json:"tenant_id"`
	UnitID        uint       `gorm:"not null;index" json:"unit_id"`
	GRN           *string    `gorm:"column:grn;index" json:"grn"`
	Status        string     `gorm:"default:active;not null;index" json:"status"`
	DefaultRent   float64    `gorm:"type:decimal(10,2);default:0" json:"default_rent"`
	PayableDay    int        `gorm:"default:5" json:"payable_day"`
	LateFeePerDay float64    `gorm:"type:decimal(10,2);default:0" json:"late_fee_per_day"`
	StartDate     *time.Time `gorm:"type:date" json:"start_date"`
	EndDate       *time.Time `gorm:"type:date" json:"end_date"`
	Note          *string    `json:"note"`
	CreatedAt     time.Time  `gorm:"index" json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`

	// Associations
	Tenant    Tenant         `gorm:"foreignKey:TenantID" json:"tenant,omitempty"`
	Unit      Unit           `gorm:"foreignKey:UnitID" json:"unit,omitempty"`
	Revisions []RentRevision `gorm:"foreignKey:TenancyID" json:"revisions,omitempty"`
}

// TableName specifies the table name for Tenancy
func (Tenancy) TableName() string {
	return "tenancies"
}

// Tenancy status constants
const (
	TenancyStatusActive = "active"
	TenancyStatusEnded  = "ended"
)

// BeforeCreate hook for setting defaults
func (t *Tenancy) BeforeCreate(tx *gorm.DB) error {
	if t.Status == "" {
		t.Status = TenancyStatusActive
	}
	if t.PayableDay == 0 {
		t.PayableDay = 5
	}
	return nil
}

// IsActive returns true if the tenancy is active
func (t *Tenancy) IsActive() bool {
	return t.Status == TenancyStatusActive
}

// MayEnd returns true if the tenancy can be ended
func (t *Tenancy) MayEnd() bool {
	return t.Status == TenancyStatusActive
}

// MayReopen returns true if an ended tenancy can be reopened
func (t *Tenancy) MayReopen() bool {
	return t.Status == TenancyStatusEnded
}

// WingName returns the wing of the tenancy's unit, if loaded
func (t *Tenancy) WingName() string {
	if t.Unit.ID != 0 {
		return t.Unit.Wing
	}
	return ""
}

// TenancyResponse is the JSON response format for tenancies
type TenancyResponse struct {
	ID            uint       `json:"id"`
	TenantID      uint       `json:"tenant_id"`
	UnitID        uint       `json:"unit_id"`
	GRN           *string    `json:"grn"`
	Status        string     `json:"status"`
	DefaultRent   float64    `json:"default_rent"`
	PayableDay    int        `json:"payable_day"`
	LateFeePerDay float64    `json:"late_fee_per_day"`
	StartDate     *time.Time `json:"start_date"`
	EndDate       *time.Time `json:"end_date"`
	Note          *string    `json:"note"`

	TenantName string `json:"tenant_name,omitempty"`
	UnitName   string `json:"unit_name,omitempty"`
	Wing       string `json:"wing,omitempty"`
}

// ToResponse converts Tenancy to TenancyResponse
func (t *Tenancy) ToResponse() TenancyResponse {
	resp := TenancyResponse{
		ID:            t.ID,
		TenantID:      t.TenantID,
		UnitID:        t.UnitID,
		GRN:           t.GRN,
		Status:        t.Status,
		DefaultRent:   t.DefaultRent,
		PayableDay:    t.PayableDay,
		LateFeePerDay: t.LateFeePerDay,
		StartDate:     t.StartDate,
		EndDate:       t.EndDate,
		Note:          t.Note,
	}
	if t.Tenant.ID != 0 {
		resp.TenantName = t.Tenant.FullName
	}
	if t.Unit.ID != 0 {
		resp.UnitName = t.Unit.Name
		resp.Wing = t.Unit.Wing
	}
	return resp
}
