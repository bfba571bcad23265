package handlers

import (
	"errors"
	"net/http"

	"github.com/rentora/rentora-api/internal/services"
	"github.com/rentora/rentora-api/internal/storage"
)

// Handlers holds all handler instances
type Handlers struct {
	Health       *HealthHandler
	Auth         *AuthHandler
	User         *UserHandler
	Tenant       *TenantHandler
	Unit         *UnitHandler
	Tenancy      *TenancyHandler
	Billing      *BillingHandler
	Payment      *PaymentHandler
	Notification *NotificationHandler
	Report       *ReportHandler
	Job          *JobHandler
}

// NewHandlers creates all handler instances
func NewHandlers(svcs *services.Services, store *storage.LocalStorage) *Handlers {
	return &Handlers{
		Health:       NewHealthHandler(),
		Auth:         NewAuthHandler(svcs.Auth),
		User:         NewUserHandler(svcs.User),
		Tenant:       NewTenantHandler(svcs.Tenant),
		Unit:         NewUnitHandler(svcs.Unit),
		Tenancy:      NewTenancyHandler(svcs.Tenancy, svcs.Rent),
		Billing:      NewBillingHandler(svcs.Billing, svcs.Export, svcs.Report),
		Payment:      NewPaymentHandler(svcs.Payment, store),
		Notification: NewNotificationHandler(svcs.Notification),
		Report:       NewReportHandler(svcs.Report, svcs.Export),
		Job:          NewJobHandler(svcs.Job),
	}
}

// errorStatus maps service errors to HTTP status codes
func errorStatus(err error) int {
	switch {
	case errors.Is(err, services.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, services.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrInvalidState), errors.Is(err, services.ErrDuplicate):
		return http.StatusUnprocessableEntity
	case errors.Is(err, services.ErrUnauthorized):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}
