package repository

import (
	"context"

	"github.com/rentora/rentora-api/internal/models"
	"gorm.io/gorm"
)

// TenantRepository defines the interface for tenant data access
type TenantRepository interface {
	FindByID(ctx context.Context, id uint) (*models.Tenant, error)
	Create(ctx context.Context, tenant *models.Tenant) error
	Update(ctx context.Context, tenant *models.Tenant) error
	Delete(ctx context.Context, id uint) error
	List(ctx context.Context, query *ListQuery) ([]models.Tenant, int64, error)
	FindAll(ctx context.Context) ([]models.Tenant, error)
}

type tenantRepository struct {
	db *gorm.DB
}

// NewTenantRepository creates a new tenant repository
func NewTenantRepository(db *gorm.DB) TenantRepository {
	return &tenantRepository{db: db}
}

func (r *tenantRepository) FindByID(ctx context.Context, id uint) (*models.Tenant, error) {
	var tenant models.Tenant
	err := r.db.WithContext(ctx).
		Where("discarded_at IS NULL").
		Preload("Tenancies", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at DESC")
		}).
		First(&tenant, id).Error
	if err != nil {
		return nil, err
	}
	return &tenant, nil
}

func (r *tenantRepository) Create(ctx context.Context, tenant *models.Tenant) error {
	return r.db.WithContext(ctx).Create(tenant).Error
}

func (r *tenantRepository) Update(ctx context.Context, tenant *models.Tenant) error {
	return r.db.WithContext(ctx).Save(tenant).Error
}

func (r *tenantRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).
		Model(&models.Tenant{}).
		Where("id = ?", id).
		Update("discarded_at", gorm.Expr("NOW()")).Error
}

func (r *tenantRepository) List(ctx context.Context, query *ListQuery) ([]models.Tenant, int64, error) {
	var tenants []models.Tenant
	var total int64

	db := r.db.WithContext(ctx).Model(&models.Tenant{}).
		Where("discarded_at IS NULL")

	if query.Search != "" {
		term := "%" + query.Search + "%"
		db = db.Where("full_name ILIKE ? OR phone ILIKE ?", term, term)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := db.
		Order("full_name ASC").
		Offset((query.Page - 1) * query.PerPage).
		Limit(query.PerPage).
		Find(&tenants).Error
	return tenants, total, err
}

func (r *tenantRepository) FindAll(ctx context.Context) ([]models.Tenant, error) {
	var tenants []models.Tenant
	err := r.db.WithContext(ctx).
		Where("discarded_at IS NULL").
		Find(&tenants).Error
	return tenants, err
}
