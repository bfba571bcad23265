package models

import "time"

// Tenant represents a person renting one or more units
type Tenant struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	FullName    string     `gorm:"not null" json:"full_name"`
	Phone       string     `gorm:"index" json:"phone"`
	Email       *string    `json:"email"`
	Identity    *string    `gorm:"index" json:"identity"`
	Address     *string    `json:"address"`
	Note        *string    `json:"note"`
	DiscardedAt *time.Time `gorm:"index" json:"-"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`

	// Associations
	Tenancies []Tenancy `gorm:"foreignKey:TenantID" json:"tenancies,omitempty"`
}

// TableName specifies the table name for Tenant
func (Tenant) TableName() string {
	return "tenants"
}

// Landlord represents a property owner units are billed under
type Landlord struct {
	ID       uint    `gorm:"primaryKey" json:"id"`
	FullName string  `gorm:"not null" json:"full_name"`
	Phone    string  `json:"phone"`
	Note     *string `json:"note"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the table name for Landlord
func (Landlord) TableName() string {
	return "landlords"
}
