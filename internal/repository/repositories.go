package repository

import (
	"gorm.io/gorm"
)

// Repositories holds all repository instances
type Repositories struct {
	User         UserRepository
	RefreshToken RefreshTokenRepository
	Notification NotificationRepository
	Tenant       TenantRepository
	Unit         UnitRepository
	Tenancy      TenancyRepository
	RentRevision RentRevisionRepository
	Billing      BillingRepository
	Payment      PaymentRepository
}

// NewRepositories creates all repository instances
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		User:         NewUserRepository(db),
		RefreshToken: NewRefreshTokenRepository(db),
		Notification: NewNotificationRepository(db),
		Tenant:       NewTenantRepository(db),
		Unit:         NewUnitRepository(db),
		Tenancy:      NewTenancyRepository(db),
		RentRevision: NewRentRevisionRepository(db),
		Billing:      NewBillingRepository(db),
		Payment:      NewPaymentRepository(db),
	}
}
