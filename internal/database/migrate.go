package database

import (
	"fmt"

	"github.com/rentora/rentora-api/internal/models"
	"gorm.io/gorm"
)

// Migrate creates or updates the database schema for all models
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.User{},
		&models.RefreshToken{},
		&models.Notification{},
		&models.Tenant{},
		&models.Landlord{},
		&models.Unit{},
		&models.Tenancy{},
		&models.RentRevision{},
		&models.WingMonthConfig{},
		&models.MeterReading{},
		&models.BillLine{},
		&models.Payment{},
	)
	if err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	return nil
}
