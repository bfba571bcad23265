package repository

import (
	"context"
	"time"

	"github.com/rentora/rentora-api/internal/models"
	"gorm.io/gorm"
)

// PaymentRepository defines the interface for payment data access
type PaymentRepository interface {
	FindByID(ctx context.Context, id uint) (*models.Payment, error)
	FindByBillLine(ctx context.Context, billLineID uint) ([]models.Payment, error)
	Create(ctx context.Context, payment *models.Payment) error
	Update(ctx context.Context, payment *models.Payment) error
	Delete(ctx context.Context, id uint) error
	SumByBillLine(ctx context.Context, billLineID uint) (float64, error)
	List(ctx context.Context, query *PaymentQuery) ([]models.Payment, int64, error)
	// BillLineIDsWithPaymentsSince returns distinct bill line ids touched
	// by payments created after the given time; used by the nightly
	// reconciliation sweep.
	BillLineIDsWithPaymentsSince(ctx context.Context, since time.Time) ([]uint, error)
}

// PaymentQuery extends ListQuery with payment-specific filters
type PaymentQuery struct {
	*ListQuery
	BillLineID uint
	TenantID   uint
	Mode       string
	StartDate  string
	EndDate    string
}

type paymentRepository struct {
	db *gorm.DB
}

// NewPaymentRepository creates a new payment repository
func NewPaymentRepository(db *gorm.DB) PaymentRepository {
	return &paymentRepository{db: db}
}

func (r *paymentRepository) FindByID(ctx context.Context, id uint) (*models.Payment, error) {
	var payment models.Payment
	err := r.db.WithContext(ctx).
		Preload("Tenant").
		First(&payment, id).Error
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

func (r *paymentRepository) FindByBillLine(ctx context.Context, billLineID uint) ([]models.Payment, error) {
	var payments []models.Payment
	err := r.db.WithContext(ctx).
		Where("bill_line_id = ?", billLineID).
		Order("payment_date ASC, id ASC").
		Find(&payments).Error
	return payments, err
}

func (r *paymentRepository) Create(ctx context.Context, payment *models.Payment) error {
	return r.db.WithContext(ctx).Create(payment).Error
}

func (r *paymentRepository) Update(ctx context.Context, payment *models.Payment) error {
	return r.db.WithContext(ctx).Save(payment).Error
}

func (r *paymentRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&models.Payment{}, id).Error
}

func (r *paymentRepository) SumByBillLine(ctx context.Context, billLineID uint) (float64, error) {
	var result struct {
		Total float64
	}
	err := r.db.WithContext(ctx).
		Model(&models.Payment{}).
		Select("COALESCE(SUM(amount), 0) as total").
		Where("bill_line_id = ?", billLineID).
		Scan(&result).Error
	return result.Total, err
}

func (r *paymentRepository) List(ctx context.Context, query *PaymentQuery) ([]models.Payment, int64, error) {
	var payments []models.Payment
	var total int64

	db := r.db.WithContext(ctx).Model(&models.Payment{})

	if query.BillLineID > 0 {
		db = db.Where("bill_line_id = ?", query.BillLineID)
	}
	if query.TenantID > 0 {
		db = db.Where("tenant_id = ?", query.TenantID)
	}
	if query.Mode != "" {
		db = db.Where("mode = ?", query.Mode)
	}
	if query.StartDate != "" {
		db = db.Where("payment_date >= ?", query.StartDate)
	}
	if query.EndDate != "" {
		db = db.Where("payment_date <= ?", query.EndDate)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := db.
		Preload("Tenant").
		Order("payment_date DESC, id DESC").
		Offset((query.Page - 1) * query.PerPage).
		Limit(query.PerPage).
		Find(&payments).Error
	return payments, total, err
}

func (r *paymentRepository) BillLineIDsWithPaymentsSince(ctx context.Context, since time.Time) ([]uint, error) {
	var ids []uint
	err := r.db.WithContext(ctx).
		Model(&models.Payment{}).
		Distinct("bill_line_id").
		Where("created_at >= ?", since).
		Pluck("bill_line_id", &ids).Error
	return ids, err
}
