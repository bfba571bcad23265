package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rentora/rentora-api/internal/models"
	"github.com/rentora/rentora-api/internal/repository"
	"github.com/rentora/rentora-api/internal/statemachine"
	"github.com/rentora/rentora-api/pkg/logger"
	"gorm.io/gorm"
)

// TenancyService manages tenancy lifecycle: move-in, rent setup, vacate,
// and supersession when a tenant re-occupies a unit.
type TenancyService struct {
	tenancyRepo     repository.TenancyRepository
	tenantRepo      repository.TenantRepository
	unitRepo        repository.UnitRepository
	rentSvc         *RentService
	notificationSvc *NotificationService
}

// NewTenancyService creates a new tenancy service
func NewTenancyService(tenancyRepo repository.TenancyRepository, tenantRepo repository.TenantRepository, unitRepo repository.UnitRepository, rentSvc *RentService, notificationSvc *NotificationService) *TenancyService {
	return &TenancyService{
		tenancyRepo:     tenancyRepo,
		tenantRepo:      tenantRepo,
		unitRepo:        unitRepo,
		rentSvc:         rentSvc,
		notificationSvc: notificationSvc,
	}
}

// CreateTenancyInput is the payload for creating a tenancy
type CreateTenancyInput struct {
	TenantID      uint    `json:"tenant_id" binding:"required"`
	UnitID        uint    `json:"unit_id" binding:"required"`
	GRN           *string `json:"grn"`
	DefaultRent   float64 `json:"default_rent"`
	PayableDay    int     `json:"payable_day"`
	LateFeePerDay float64 `json:"late_fee_per_day"`
	StartDate     *string `json:"start_date"` // YYYY-MM-DD
	Note          *string `json:"note"`
	// RentAmount, when set, seeds the revision history at EffectiveMonth
	// (defaulting to the start date's month, else the current month)
	RentAmount     *float64 `json:"rent_amount"`
	EffectiveMonth *string  `json:"effective_month"`
}

// UpdateTenancyInput is the payload for updating a tenancy
type UpdateTenancyInput struct {
	GRN            *string  `json:"grn"`
	DefaultRent    *float64 `json:"default_rent"`
	PayableDay     *int     `json:"payable_day"`
	LateFeePerDay  *float64 `json:"late_fee_per_day"`
	Note           *string  `json:"note"`
	RentAmount     *float64 `json:"rent_amount"`
	EffectiveMonth *string  `json:"effective_month"`
}

// Create saves a new tenancy. An existing active tenancy for the same
// tenant and unit is ended first, so at most one stays active per pair.
// A rent amount in the payload seeds the revision history.
func (s *TenancyService) Create(ctx context.Context, input *CreateTenancyInput) (*models.Tenancy, error) {
	if _, err := s.tenantRepo.FindByID(ctx, input.TenantID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: tenant %d", ErrNotFound, input.TenantID)
		}
		return nil, err
	}
	if _, err := s.unitRepo.FindByID(ctx, input.UnitID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: unit %d", ErrNotFound, input.UnitID)
		}
		return nil, err
	}

	var startDate *time.Time
	if input.StartDate != nil && *input.StartDate != "" {
		parsed, err := time.Parse("2006-01-02", *input.StartDate)
		if err != nil {
			return nil, fmt.Errorf("%w: start date must be YYYY-MM-DD", ErrInvalidInput)
		}
		startDate = &parsed
	}

	// Supersede a still-active tenancy for the same tenant and unit
	if existing, err := s.tenancyRepo.FindActiveByTenantAndUnit(ctx, input.TenantID, input.UnitID); err == nil {
		if err := s.endTenancy(ctx, existing, startDate); err != nil {
			return nil, err
		}
		logger.Info("Superseded previous tenancy", "tenancy_id", existing.ID, "tenant_id", input.TenantID, "unit_id", input.UnitID)
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	tenancy := &models.Tenancy{
		TenantID:      input.TenantID,
		UnitID:        input.UnitID,
		GRN:           input.GRN,
		Status:        models.TenancyStatusActive,
		DefaultRent:   input.DefaultRent,
		PayableDay:    input.PayableDay,
		LateFeePerDay: input.LateFeePerDay,
		StartDate:     startDate,
		Note:          input.Note,
	}
	if err := s.tenancyRepo.Create(ctx, tenancy); err != nil {
		return nil, err
	}

	if input.RentAmount != nil {
		month := s.revisionMonth(input.EffectiveMonth, startDate)
		if _, err := s.rentSvc.UpsertRevision(ctx, tenancy.ID, &UpsertRevisionInput{
			EffectiveMonth: month,
			RentAmount:     *input.RentAmount,
		}); err != nil {
			return nil, err
		}
	}

	return s.tenancyRepo.FindByID(ctx, tenancy.ID)
}

// Update modifies tenancy fields. A rent amount in the payload writes a
// revision for the given (or current) month rather than mutating history.
func (s *TenancyService) Update(ctx context.Context, id uint, input *UpdateTenancyInput) (*models.Tenancy, error) {
	tenancy, err := s.findByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.GRN != nil {
		tenancy.GRN = input.GRN
	}
	if input.DefaultRent != nil {
		tenancy.DefaultRent = *input.DefaultRent
	}
	if input.PayableDay != nil {
		if *input.PayableDay < 1 || *input.PayableDay > 28 {
			return nil, fmt.Errorf("%w: payable day must be between 1 and 28", ErrInvalidInput)
		}
		tenancy.PayableDay = *input.PayableDay
	}
	if input.LateFeePerDay != nil {
		tenancy.LateFeePerDay = *input.LateFeePerDay
	}
	if input.Note != nil {
		tenancy.Note = input.Note
	}

	if err := s.tenancyRepo.Update(ctx, tenancy); err != nil {
		return nil, err
	}

	if input.RentAmount != nil {
		month := s.revisionMonth(input.EffectiveMonth, nil)
		if _, err := s.rentSvc.UpsertRevision(ctx, tenancy.ID, &UpsertRevisionInput{
			EffectiveMonth: month,
			RentAmount:     *input.RentAmount,
		}); err != nil {
			return nil, err
		}
	}

	return s.tenancyRepo.FindByID(ctx, id)
}

// End vacates a tenancy
func (s *TenancyService) End(ctx context.Context, id uint, endDate *time.Time) (*models.Tenancy, error) {
	tenancy, err := s.findByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.endTenancy(ctx, tenancy, endDate); err != nil {
		return nil, err
	}

	s.notificationSvc.NotifyAdmins(ctx,
		"Tenancy ended",
		fmt.Sprintf("Tenancy #%d (%s) has ended", tenancy.ID, tenancy.Tenant.FullName),
		models.NotificationTypeTenancyEnded)

	return tenancy, nil
}

// Reopen reverts an ended tenancy back to active, for data corrections
func (s *TenancyService) Reopen(ctx context.Context, id uint) (*models.Tenancy, error) {
	tenancy, err := s.findByID(ctx, id)
	if err != nil {
		return nil, err
	}

	machine := statemachine.NewTenancyFSM(tenancy)
	if err := machine.Reopen(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidState, err)
	}
	tenancy.EndDate = nil

	if err := s.tenancyRepo.Update(ctx, tenancy); err != nil {
		return nil, err
	}
	return tenancy, nil
}

// SetRent writes a rent revision for a tenancy
func (s *TenancyService) SetRent(ctx context.Context, id uint, input *UpsertRevisionInput) (*models.RentRevision, error) {
	return s.rentSvc.UpsertRevision(ctx, id, input)
}

// FindByID returns a tenancy with its tenant and unit
func (s *TenancyService) FindByID(ctx context.Context, id uint) (*models.Tenancy, error) {
	return s.findByID(ctx, id)
}

// List returns tenancies matching the query with pagination
func (s *TenancyService) List(ctx context.Context, query *repository.TenancyQuery) ([]models.Tenancy, int64, error) {
	return s.tenancyRepo.List(ctx, query)
}

func (s *TenancyService) findByID(ctx context.Context, id uint) (*models.Tenancy, error) {
	tenancy, err := s.tenancyRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: tenancy %d", ErrNotFound, id)
		}
		return nil, err
	}
	return tenancy, nil
}

func (s *TenancyService) endTenancy(ctx context.Context, tenancy *models.Tenancy, endDate *time.Time) error {
	machine := statemachine.NewTenancyFSM(tenancy)
	if err := machine.End(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidState, err)
	}
	if endDate == nil {
		now := time.Now()
		endDate = &now
	}
	tenancy.EndDate = endDate
	return s.tenancyRepo.Update(ctx, tenancy)
}

// revisionMonth picks the month a payload rent applies from: the explicit
// month, else the start date's month, else the current month
func (s *TenancyService) revisionMonth(explicit *string, startDate *time.Time) string {
	if explicit != nil && *explicit != "" {
		return *explicit
	}
	if startDate != nil {
		return startDate.Format("2006-01")
	}
	return time.Now().Format("2006-01")
}
