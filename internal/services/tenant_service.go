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

// TenantService manages tenant records
type TenantService struct {
	tenantRepo repository.TenantRepository
}

// NewTenantService creates a new tenant service
func NewTenantService(tenantRepo repository.TenantRepository) *TenantService {
	return &TenantService{tenantRepo: tenantRepo}
}

// TenantInput is the payload for creating or updating a tenant
type TenantInput struct {
	FullName string  `json:"full_name" binding:"required"`
	Phone    string  `json:"phone"`
	Email    *string `json:"email"`
	Identity *string `json:"identity"`
	Address  *string `json:"address"`
	Note     *string `json:"note"`
}

// Create saves a new tenant
func (s *TenantService) Create(ctx context.Context, input *TenantInput) (*models.Tenant, error) {
	name := strings.TrimSpace(input.FullName)
	if name == "" {
		return nil, fmt.Errorf("%w: tenant name is required", ErrInvalidInput)
	}

	tenant := &models.Tenant{
		FullName: name,
		Phone:    input.Phone,
		Email:    input.Email,
		Identity: input.Identity,
		Address:  input.Address,
		Note:     input.Note,
	}
	if err := s.tenantRepo.Create(ctx, tenant); err != nil {
		return nil, err
	}
	return tenant, nil
}

// Update modifies a tenant record
func (s *TenantService) Update(ctx context.Context, id uint, input *TenantInput) (*models.Tenant, error) {
	tenant, err := s.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if name := strings.TrimSpace(input.FullName); name != "" {
		tenant.FullName = name
	}
	tenant.Phone = input.Phone
	tenant.Email = input.Email
	tenant.Identity = input.Identity
	tenant.Address = input.Address
	tenant.Note = input.Note

	if err := s.tenantRepo.Update(ctx, tenant); err != nil {
		return nil, err
	}
	return tenant, nil
}

// FindByID returns a tenant by id
func (s *TenantService) FindByID(ctx context.Context, id uint) (*models.Tenant, error) {
	tenant, err := s.tenantRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: tenant %d", ErrNotFound, id)
		}
		return nil, err
	}
	return tenant, nil
}

// List returns tenants matching the query with pagination
func (s *TenantService) List(ctx context.Context, query *repository.ListQuery) ([]models.Tenant, int64, error) {
	return s.tenantRepo.List(ctx, query)
}

// Delete soft-deletes a tenant; their tenancy and billing history stays
func (s *TenantService) Delete(ctx context.Context, id uint) error {
	if _, err := s.FindByID(ctx, id); err != nil {
		return err
	}
	return s.tenantRepo.Delete(ctx, id)
}
