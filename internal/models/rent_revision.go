package models

import "time"

// RentRevision records the rent amount a tenancy pays starting from an
// effective month. At most one row exists per (tenancy, effective month);
// saving again for the same month overwrites instead of appending. The
// applicable rent for a billing month is the revision with the greatest
// effective month not after it, ties broken by newest creation.
type RentRevision struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	TenancyID      uint      `gorm:"not null;uniqueIndex:idx_rent_revisions_tenancy_month" json:"tenancy_id"`
	EffectiveMonth string    `gorm:"type:varchar(7);not null;uniqueIndex:idx_rent_revisions_tenancy_month" json:"effective_month"`
	RentAmount     float64   `gorm:"type:decimal(10,2);not null" json:"rent_amount"`
	Note           *string   `json:"note"`
	CreatedAt      time.Time `gorm:"index" json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`

	// Associations
	Tenancy Tenancy `gorm:"foreignKey:TenancyID" json:"-"`
}

// TableName specifies the table name for RentRevision
func (RentRevision) TableName() string {
	return "rent_revisions"
}

// AppliesTo returns true if the revision is in effect for the given month
// key. Month keys are zero-padded YYYY-MM so string comparison is safe.
func (r *RentRevision) AppliesTo(monthKey string) bool {
	return r.EffectiveMonth <= monthKey
}
