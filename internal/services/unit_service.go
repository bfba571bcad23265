package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rentora/rentora-api/internal/models"
	"github.com/rentora/rentora-api/internal/repository"
	"gorm.io/gorm"
)

// UnitService manages the property's units and wings
type UnitService struct {
	unitRepo repository.UnitRepository
}

// NewUnitService creates a new unit service
func NewUnitService(unitRepo repository.UnitRepository) *UnitService {
	return &UnitService{unitRepo: unitRepo}
}

// UnitInput is the payload for creating or updating a unit
type UnitInput struct {
	Name       string  `json:"name" binding:"required"`
	Wing       string  `json:"wing" binding:"required"`
	Floor      *int    `json:"floor"`
	LandlordID *uint   `json:"landlord_id"`
	Note       *string `json:"note"`
}

// Create saves a new unit
func (s *UnitService) Create(ctx context.Context, input *UnitInput) (*models.Unit, error) {
	if strings.TrimSpace(input.Name) == "" || models.NormalizeWing(input.Wing) == "" {
		return nil, fmt.Errorf("%w: unit name and wing are required", ErrInvalidInput)
	}

	unit := &models.Unit{
		Name:       strings.TrimSpace(input.Name),
		Wing:       input.Wing,
		Floor:      input.Floor,
		LandlordID: input.LandlordID,
		Note:       input.Note,
	}
	if err := s.unitRepo.Create(ctx, unit); err != nil {
		return nil, err
	}
	return unit, nil
}

// Update modifies a unit
func (s *UnitService) Update(ctx context.Context, id uint, input *UnitInput) (*models.Unit, error) {
	unit, err := s.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if name := strings.TrimSpace(input.Name); name != "" {
		unit.Name = name
	}
	if input.Wing != "" {
		unit.Wing = input.Wing
	}
	unit.Floor = input.Floor
	unit.LandlordID = input.LandlordID
	unit.Note = input.Note

	if err := s.unitRepo.Update(ctx, unit); err != nil {
		return nil, err
	}
	return unit, nil
}

// FindByID returns a unit by id
func (s *UnitService) FindByID(ctx context.Context, id uint) (*models.Unit, error) {
	unit, err := s.unitRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: unit %d", ErrNotFound, id)
		}
		return nil, err
	}
	return unit, nil
}

// FindByWing returns the units of one wing
func (s *UnitService) FindByWing(ctx context.Context, wing string) ([]models.Unit, error) {
	return s.unitRepo.FindByWing(ctx, models.NormalizeWing(wing))
}

// FindAll returns every unit
func (s *UnitService) FindAll(ctx context.Context) ([]models.Unit, error) {
	return s.unitRepo.FindAll(ctx)
}

// ListWings returns the distinct wing names of the property
func (s *UnitService) ListWings(ctx context.Context) ([]string, error) {
	return s.unitRepo.ListWings(ctx)
}

// Delete removes a unit
func (s *UnitService) Delete(ctx context.Context, id uint) error {
	if _, err := s.FindByID(ctx, id); err != nil {
		return err
	}
	return s.unitRepo.Delete(ctx, id)
}
