package models

import "time"

// Unit represents a rentable flat within a wing of the property
type Unit struct {
	ID         uint    `gorm:"primaryKey" json:"id"`
	Name       string  `gorm:"not null" json:"name"`
	Wing       string  `gorm:"not null;index" json:"wing"`
	Floor      *int    `json:"floor"`
	LandlordID *uint   `gorm:"index" json:"landlord_id"`
	Note       *string `json:"note"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Associations
	Landlord  *Landlord `gorm:"foreignKey:LandlordID" json:"landlord,omitempty"`
	Tenancies []Tenancy `gorm:"foreignKey:UnitID" json:"tenancies,omitempty"`
}

// TableName specifies the table name for Unit
func (Unit) TableName() string {
	return "units"
}
