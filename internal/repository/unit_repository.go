package repository

import (
	"context"

	"github.com/rentora/rentora-api/internal/models"
	"gorm.io/gorm"
)

// UnitRepository defines the interface for unit data access
type UnitRepository interface {
	FindByID(ctx context.Context, id uint) (*models.Unit, error)
	Create(ctx context.Context, unit *models.Unit) error
	Update(ctx context.Context, unit *models.Unit) error
	Delete(ctx context.Context, id uint) error
	FindByWing(ctx context.Context, wing string) ([]models.Unit, error)
	FindAll(ctx context.Context) ([]models.Unit, error)
	ListWings(ctx context.Context) ([]string, error)
}

type unitRepository struct {
	db *gorm.DB
}

// NewUnitRepository creates a new unit repository
func NewUnitRepository(db *gorm.DB) UnitRepository {
	return &unitRepository{db: db}
}

func (r *unitRepository) FindByID(ctx context.Context, id uint) (*models.Unit, error) {
	var unit models.Unit
	err := r.db.WithContext(ctx).
		Preload("Landlord").
		First(&unit, id).Error
	if err != nil {
		return nil, err
	}
	return &unit, nil
}

func (r *unitRepository) Create(ctx context.Context, unit *models.Unit) error {
	unit.Wing = models.NormalizeWing(unit.Wing)
	return r.db.WithContext(ctx).Create(unit).Error
}

func (r *unitRepository) Update(ctx context.Context, unit *models.Unit) error {
	unit.Wing = models.NormalizeWing(unit.Wing)
	return r.db.WithContext(ctx).Save(unit).Error
}

func (r *unitRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&models.Unit{}, id).Error
}

func (r *unitRepository) FindByWing(ctx context.Context, wing string) ([]models.Unit, error) {
	var units []models.Unit
	err := r.db.WithContext(ctx).
		Where("wing = ?", models.NormalizeWing(wing)).
		Order("name ASC").
		Find(&units).Error
	return units, err
}

func (r *unitRepository) FindAll(ctx context.Context) ([]models.Unit, error) {
	var units []models.Unit
	err := r.db.WithContext(ctx).
		Preload("Landlord").
		Order("wing ASC, name ASC").
		Find(&units).Error
	return units, err
}

func (r *unitRepository) ListWings(ctx context.Context) ([]string, error) {
	var wings []string
	err := r.db.WithContext(ctx).
		Model(&models.Unit{}).
		Distinct("wing").
		Order("wing ASC").
		Pluck("wing", &wings).Error
	return wings, err
}
