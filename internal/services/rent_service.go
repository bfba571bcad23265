package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"regexp"

	"github.com/rentora/rentora-api/internal/models"
	"github.com/rentora/rentora-api/internal/repository"
	"gorm.io/gorm"
)

// monthKeyPattern validates revision months on write. Reads are lenient
// (keys get normalized), writes are strict so malformed months never enter
// the revision history.
var monthKeyPattern = regexp.MustCompile(`^\d{4}-\d{2}$`)

// RentService manages the rent revision history of tenancies and resolves
// the rent in force for any given month.
type RentService struct {
	revisionRepo repository.RentRevisionRepository
	tenancyRepo  repository.TenancyRepository
}

// NewRentService creates a new rent service
func NewRentService(revisionRepo repository.RentRevisionRepository, tenancyRepo repository.TenancyRepository) *RentService {
	return &RentService{
		revisionRepo: revisionRepo,
		tenancyRepo:  tenancyRepo,
	}
}

// UpsertRevisionInput is the payload for creating or replacing a revision
type UpsertRevisionInput struct {
	EffectiveMonth string  `json:"effective_month" binding:"required"`
	RentAmount     float64 `json:"rent_amount"`
	Note           *string `json:"note"`
}

// ResolveEffectiveRent returns the rent in force for a tenancy as of a
// month: the revision with the greatest effective month not after asOfMonth,
// ties broken by newest creation. Returns nil (not an error) when no
// revision applies yet.
func (s *RentService) ResolveEffectiveRent(ctx context.Context, tenancyID uint, asOfMonth string) (*float64, error) {
	monthKey, err := models.NormalizeMonthKey(asOfMonth)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	revision, err := s.revisionRepo.FindEffective(ctx, tenancyID, monthKey)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	amount := revision.RentAmount
	return &amount, nil
}

// UpsertRevision records a rent change for a tenancy starting at an
// effective month. A second save for the same (tenancy, month) overwrites
// the stored revision; the history never accumulates duplicates for one
// month.
func (s *RentService) UpsertRevision(ctx context.Context, tenancyID uint, input *UpsertRevisionInput) (*models.RentRevision, error) {
	if !monthKeyPattern.MatchString(input.EffectiveMonth) {
		return nil, fmt.Errorf("%w: effective month must be YYYY-MM, got %q", ErrInvalidInput, input.EffectiveMonth)
	}
	if math.IsNaN(input.RentAmount) || input.RentAmount < 0 {
		return nil, fmt.Errorf("%w: rent amount must be a non-negative number", ErrInvalidInput)
	}

	if _, err := s.tenancyRepo.FindByID(ctx, tenancyID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: tenancy %d", ErrNotFound, tenancyID)
		}
		return nil, err
	}

	revision := &models.RentRevision{
		TenancyID:      tenancyID,
		EffectiveMonth: input.EffectiveMonth,
		RentAmount:     input.RentAmount,
		Note:           input.Note,
	}
	if err := s.revisionRepo.Upsert(ctx, revision); err != nil {
		return nil, err
	}

	// Re-read so the caller sees the stored row (the upsert does not fill
	// the id when it lands on an existing month).
	return s.revisionRepo.FindByTenancyAndMonth(ctx, tenancyID, input.EffectiveMonth)
}

// ListRevisions returns a tenancy's revision history, newest month first
func (s *RentService) ListRevisions(ctx context.Context, tenancyID uint) ([]models.RentRevision, error) {
	return s.revisionRepo.ListByTenancy(ctx, tenancyID)
}

// DeleteRevision removes a revision from the history
func (s *RentService) DeleteRevision(ctx context.Context, id uint) error {
	if _, err := s.revisionRepo.FindByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: revision %d", ErrNotFound, id)
		}
		return err
	}
	return s.revisionRepo.Delete(ctx, id)
}
