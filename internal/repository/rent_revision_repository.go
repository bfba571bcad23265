package repository

import (
	"context"

	"github.com/rentora/rentora-api/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// RentRevisionRepository defines the interface for rent revision data access
type RentRevisionRepository interface {
	FindByID(ctx context.Context, id uint) (*models.RentRevision, error)
	// FindEffective returns the revision in force for a tenancy as of a
	// month key: greatest effective month not after asOfMonth, newest
	// creation first on a tie.
	FindEffective(ctx context.Context, tenancyID uint, asOfMonth string) (*models.RentRevision, error)
	// Upsert writes a revision using (tenancy_id, effective_month) as the
	// natural key. A later save for the same month overwrites the stored
	// row instead of appending a duplicate.
	Upsert(ctx context.Context, revision *models.RentRevision) error
	FindByTenancyAndMonth(ctx context.Context, tenancyID uint, effectiveMonth string) (*models.RentRevision, error)
	ListByTenancy(ctx context.Context, tenancyID uint) ([]models.RentRevision, error)
	Delete(ctx context.Context, id uint) error
}

type rentRevisionRepository struct {
	db *gorm.DB
}

// NewRentRevisionRepository creates a new rent revision repository
func NewRentRevisionRepository(db *gorm.DB) RentRevisionRepository {
	return &rentRevisionRepository{db: db}
}

func (r *rentRevisionRepository) FindByID(ctx context.Context, id uint) (*models.RentRevision, error) {
	var revision models.RentRevision
	err := r.db.WithContext(ctx).First(&revision, id).Error
	if err != nil {
		return nil, err
	}
	return &revision, nil
}

func (r *rentRevisionRepository) FindEffective(ctx context.Context, tenancyID uint, asOfMonth string) (*models.RentRevision, error) {
	var revision models.RentRevision
	err := r.db.WithContext(ctx).
		Where("tenancy_id = ? AND effective_month <= ?", tenancyID, asOfMonth).
		Order("effective_month DESC, created_at DESC").
		First(&revision).Error
	if err != nil {
		return nil, err
	}
	return &revision, nil
}

func (r *rentRevisionRepository) Upsert(ctx context.Context, revision *models.RentRevision) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "tenancy_id"}, {Name: "effective_month"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"rent_amount", "note", "updated_at",
			}),
		}).
		Create(revision).Error
}

func (r *rentRevisionRepository) FindByTenancyAndMonth(ctx context.Context, tenancyID uint, effectiveMonth string) (*models.RentRevision, error) {
	var revision models.RentRevision
	err := r.db.WithContext(ctx).
		Where("tenancy_id = ? AND effective_month = ?", tenancyID, effectiveMonth).
		First(&revision).Error
	if err != nil {
		return nil, err
	}
	return &revision, nil
}

func (r *rentRevisionRepository) ListByTenancy(ctx context.Context, tenancyID uint) ([]models.RentRevision, error) {
	var revisions []models.RentRevision
	err := r.db.WithContext(ctx).
		Where("tenancy_id = ?", tenancyID).
		Order("effective_month DESC, created_at DESC").
		Find(&revisions).Error
	return revisions, err
}

func (r *rentRevisionRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&models.RentRevision{}, id).Error
}
