package services

import (
	"time"

	"github.com/rentora/rentora-api/internal/cache"
	"github.com/rentora/rentora-api/internal/config"
	"github.com/rentora/rentora-api/internal/jobs"
	"github.com/rentora/rentora-api/internal/repository"
	"github.com/rentora/rentora-api/internal/storage"
)

// Services holds all service instances
type Services struct {
	Auth         *AuthService
	User         *UserService
	Tenant       *TenantService
	Unit         *UnitService
	Tenancy      *TenancyService
	Rent         *RentService
	Lookup       *LookupService
	Billing      *BillingService
	Payment      *PaymentService
	Notification *NotificationService
	Report       *ReportService
	Export       *ExportService
	Job          *JobService
}

// NewServices creates all service instances
func NewServices(repos *repository.Repositories, worker *jobs.Worker, store *storage.LocalStorage, cfg *config.Config) *Services {
	notificationSvc := NewNotificationService(repos.Notification, repos.User)
	imageSvc := NewImageService()

	lookupCache := cache.New(time.Duration(cfg.LookupCacheTTLMinutes) * time.Minute)
	lookupSvc := NewLookupService(repos.Tenancy, lookupCache)

	rentSvc := NewRentService(repos.RentRevision, repos.Tenancy)
	billingSvc := NewBillingService(repos.Billing, lookupSvc, rentSvc, cfg.DefaultPayableDay)

	return &Services{
		Auth:         NewAuthService(repos.User, repos.RefreshToken, cfg),
		User:         NewUserService(repos.User),
		Tenant:       NewTenantService(repos.Tenant),
		Unit:         NewUnitService(repos.Unit),
		Tenancy:      NewTenancyService(repos.Tenancy, repos.Tenant, repos.Unit, rentSvc, notificationSvc),
		Rent:         rentSvc,
		Lookup:       lookupSvc,
		Billing:      billingSvc,
		Payment:      NewPaymentService(repos.Payment, repos.Billing, notificationSvc, store, imageSvc),
		Notification: notificationSvc,
		Report:       NewReportService(repos.Billing, repos.Payment),
		Export:       NewExportService(repos.Billing),
		Job:          NewJobService(worker),
	}
}
