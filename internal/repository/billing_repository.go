package repository

import (
	"context"

	"github.com/rentora/rentora-api/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// BillingRepository defines the interface for wing/month billing data access
type BillingRepository interface {
	// ReplaceWingMonth persists the result of a billing run for one
	// (monthKey, wing). The stored reading and bill line set for that key
	// is fully superseded: rows for tenancies in the new set are upserted
	// in place (preserving their ids and payment links), rows for
	// tenancies no longer in the set are deleted. Keys must already be
	// normalized by the caller.
	ReplaceWingMonth(ctx context.Context, config *models.WingMonthConfig, readings []models.MeterReading, lines []models.BillLine) error
	GetConfig(ctx context.Context, monthKey, wing string) (*models.WingMonthConfig, error)
	FindBillLines(ctx context.Context, monthKey, wing string) ([]models.BillLine, error)
	FindBillLineByID(ctx context.Context, id uint) (*models.BillLine, error)
	FindReadings(ctx context.Context, monthKey, wing string) ([]models.MeterReading, error)
	ListBillLines(ctx context.Context, query *BillLineQuery) ([]models.BillLine, int64, error)
	UpdatePaymentState(ctx context.Context, billLineID uint, amountPaid float64, isPaid bool) error
	ListMonths(ctx context.Context) ([]string, error)
}

// BillLineQuery extends ListQuery with bill-specific filters
type BillLineQuery struct {
	*ListQuery
	MonthKey  string
	Wing      string
	TenancyID uint
	// Unpaid restricts to lines not marked paid
	Unpaid bool
}

type billingRepository struct {
	db *gorm.DB
}

// NewBillingRepository creates a new billing repository
func NewBillingRepository(db *gorm.DB) BillingRepository {
	return &billingRepository{db: db}
}

func (r *billingRepository) ReplaceWingMonth(ctx context.Context, config *models.WingMonthConfig, readings []models.MeterReading, lines []models.BillLine) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.
			Clauses(clause.OnConflict{
				Columns: []clause.Column{{Name: "month_key"}, {Name: "wing"}},
				DoUpdates: clause.AssignmentColumns([]string{
					"electricity_rate", "sweeping_per_flat", "motor_prev", "motor_new", "updated_at",
				}),
			}).
			Create(config).Error; err != nil {
			return err
		}

		keptIDs := make([]uint, 0, len(lines))
		for i := range lines {
			if err := tx.
				Clauses(clause.OnConflict{
					Columns: []clause.Column{{Name: "month_key"}, {Name: "tenancy_id"}},
					DoUpdates: clause.AssignmentColumns([]string{
						"wing", "rent_amount", "electricity_units", "electricity_amount",
						"motor_share_amount", "sweep_amount", "total_amount",
						"payable_date", "amount_paid", "is_paid", "updated_at",
					}),
				}).
				Create(&lines[i]).Error; err != nil {
				return err
			}
			keptIDs = append(keptIDs, lines[i].TenancyID)
		}

		// Drop stale lines from a prior run for this wing/month
		stale := tx.Where("month_key = ? AND wing = ?", config.MonthKey, config.Wing)
		if len(keptIDs) > 0 {
			stale = stale.Where("tenancy_id NOT IN ?", keptIDs)
		}
		if err := stale.Delete(&models.BillLine{}).Error; err != nil {
			return err
		}

		readingIDs := make([]uint, 0, len(readings))
		for i := range readings {
			if err := tx.
				Clauses(clause.OnConflict{
					Columns: []clause.Column{{Name: "month_key"}, {Name: "tenancy_id"}},
					DoUpdates: clause.AssignmentColumns([]string{
						"wing", "prev_reading", "new_reading", "included",
						"override_rent", "notes", "updated_at",
					}),
				}).
				Create(&readings[i]).Error; err != nil {
				return err
			}
			readingIDs = append(readingIDs, readings[i].TenancyID)
		}

		staleReadings := tx.Where("month_key = ? AND wing = ?", config.MonthKey, config.Wing)
		if len(readingIDs) > 0 {
			staleReadings = staleReadings.Where("tenancy_id NOT IN ?", readingIDs)
		}
		return staleReadings.Delete(&models.MeterReading{}).Error
	})
}

func (r *billingRepository) GetConfig(ctx context.Context, monthKey, wing string) (*models.WingMonthConfig, error) {
	var config models.WingMonthConfig
	err := r.db.WithContext(ctx).
		Where("month_key = ? AND wing = ?", monthKey, wing).
		First(&config).Error
	if err != nil {
		return nil, err
	}
	return &config, nil
}

func (r *billingRepository) FindBillLines(ctx context.Context, monthKey, wing string) ([]models.BillLine, error) {
	var lines []models.BillLine
	err := r.db.WithContext(ctx).
		Where("month_key = ? AND wing = ?", monthKey, wing).
		Preload("Payments").
		Preload("Tenancy.Tenant").
		Preload("Tenancy.Unit").
		Order("tenancy_id ASC").
		Find(&lines).Error
	return lines, err
}

func (r *billingRepository) FindBillLineByID(ctx context.Context, id uint) (*models.BillLine, error) {
	var line models.BillLine
	err := r.db.WithContext(ctx).
		Preload("Payments", func(db *gorm.DB) *gorm.DB {
			return db.Order("payment_date ASC, id ASC")
		}).
		Preload("Tenancy.Tenant").
		Preload("Tenancy.Unit").
		First(&line, id).Error
	if err != nil {
		return nil, err
	}
	return &line, nil
}

func (r *billingRepository) FindReadings(ctx context.Context, monthKey, wing string) ([]models.MeterReading, error) {
	var readings []models.MeterReading
	err := r.db.WithContext(ctx).
		Where("month_key = ? AND wing = ?", monthKey, wing).
		Order("tenancy_id ASC").
		Find(&readings).Error
	return readings, err
}

func (r *billingRepository) ListBillLines(ctx context.Context, query *BillLineQuery) ([]models.BillLine, int64, error) {
	var lines []models.BillLine
	var total int64

	db := r.db.WithContext(ctx).Model(&models.BillLine{})

	if query.MonthKey != "" {
		db = db.Where("month_key = ?", query.MonthKey)
	}
	if query.Wing != "" {
		db = db.Where("wing = ?", query.Wing)
	}
	if query.TenancyID > 0 {
		db = db.Where("tenancy_id = ?", query.TenancyID)
	}
	if query.Unpaid {
		db = db.Where("is_paid IS NOT TRUE")
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := db.
		Preload("Payments").
		Preload("Tenancy.Tenant").
		Order("month_key DESC, wing ASC, tenancy_id ASC").
		Offset((query.Page - 1) * query.PerPage).
		Limit(query.PerPage).
		Find(&lines).Error
	return lines, total, err
}

func (r *billingRepository) UpdatePaymentState(ctx context.Context, billLineID uint, amountPaid float64, isPaid bool) error {
	return r.db.WithContext(ctx).
		Model(&models.BillLine{}).
		Where("id = ?", billLineID).
		Updates(map[string]interface{}{
			"amount_paid": amountPaid,
			"is_paid":     isPaid,
		}).Error
}

func (r *billingRepository) ListMonths(ctx context.Context) ([]string, error) {
	var months []string
	err := r.db.WithContext(ctx).
		Model(&models.BillLine{}).
		Distinct("month_key").
		Order("month_key DESC").
		Pluck("month_key", &months).Error
	return months, err
}
