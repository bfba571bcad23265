package repository

import (
	"context"
	"strings"

	"github.com/rentora/rentora-api/internal/models"
	"gorm.io/gorm"
)

// TenancyRepository defines the interface for tenancy data access
type TenancyRepository interface {
	FindByID(ctx context.Context, id uint) (*models.Tenancy, error)
	Create(ctx context.Context, tenancy *models.Tenancy) error
	Update(ctx context.Context, tenancy *models.Tenancy) error
	Delete(ctx context.Context, id uint) error
	List(ctx context.Context, query *TenancyQuery) ([]models.Tenancy, int64, error)
	FindAllWithUnit(ctx context.Context) ([]models.Tenancy, error)
	FindActiveByTenantAndUnit(ctx context.Context, tenantID, unitID uint) (*models.Tenancy, error)
}

// TenancyQuery extends ListQuery with tenancy-specific filters
type TenancyQuery struct {
	*ListQuery
	TenantID uint
	UnitID   uint
	Wing     string
	Status   string
}

type tenancyRepository struct {
	db *gorm.DB
}

// NewTenancyRepository creates a new tenancy repository
func NewTenancyRepository(db *gorm.DB) TenancyRepository {
	return &tenancyRepository{db: db}
}

func (r *tenancyRepository) FindByID(ctx context.Context, id uint) (*models.Tenancy, error) {
	var tenancy models.Tenancy
	err := r.db.WithContext(ctx).
		Joins("Tenant").
		Joins("Unit").
		First(&tenancy, id).Error
	if err != nil {
		return nil, err
	}
	return &tenancy, nil
}

func (r *tenancyRepository) Create(ctx context.Context, tenancy *models.Tenancy) error {
	return r.db.WithContext(ctx).Create(tenancy).Error
}

func (r *tenancyRepository) Update(ctx context.Context, tenancy *models.Tenancy) error {
	return r.db.WithContext(ctx).Save(tenancy).Error
}

func (r *tenancyRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&models.Tenancy{}, id).Error
}

func (r *tenancyRepository) List(ctx context.Context, query *TenancyQuery) ([]models.Tenancy, int64, error) {
	var tenancies []models.Tenancy
	var total int64

	db := r.db.WithContext(ctx).Model(&models.Tenancy{}).
		Joins("Tenant").
		Joins("Unit")

	if query.TenantID > 0 {
		db = db.Where("tenancies.tenant_id = ?", query.TenantID)
	}
	if query.UnitID > 0 {
		db = db.Where("tenancies.unit_id = ?", query.UnitID)
	}
	if query.Wing != "" {
		db = db.Where(`"Unit".wing = ?`, models.NormalizeWing(query.Wing))
	}
	if query.Status != "" {
		db = db.Where("tenancies.status = ?", strings.ToLower(query.Status))
	}
	if query.Search != "" {
		term := "%" + query.Search + "%"
		db = db.Where(`"Tenant".full_name ILIKE ? OR tenancies.grn ILIKE ?`, term, term)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := db.
		Order("tenancies.created_at DESC").
		Offset((query.Page - 1) * query.PerPage).
		Limit(query.PerPage).
		Find(&tenancies).Error
	return tenancies, total, err
}

// FindAllWithUnit loads the full tenancy roster with tenant and unit rows.
// Billing entry matching works off this set, usually via the lookup cache.
func (r *tenancyRepository) FindAllWithUnit(ctx context.Context) ([]models.Tenancy, error) {
	var tenancies []models.Tenancy
	err := r.db.WithContext(ctx).
		Joins("Tenant").
		Joins("Unit").
		Order("tenancies.id ASC").
		Find(&tenancies).Error
	return tenancies, err
}

func (r *tenancyRepository) FindActiveByTenantAndUnit(ctx context.Context, tenantID, unitID uint) (*models.Tenancy, error) {
	var tenancy models.Tenancy
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND unit_id = ? AND status = ?", tenantID, unitID, models.TenancyStatusActive).
		First(&tenancy).Error
	if err != nil {
		return nil, err
	}
	return &tenancy, nil
}
