package services

import (
	"context"
	"testing"
	"time"

	"github.com/rentora/rentora-api/internal/cache"
	"github.com/rentora/rentora-api/internal/models"
	"github.com/rentora/rentora-api/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingTenancyRepo struct {
	repository.TenancyRepository
	tenancies []models.Tenancy
	calls     int
}

func (c *countingTenancyRepo) FindAllWithUnit(ctx context.Context) ([]models.Tenancy, error) {
	c.calls++
	return c.tenancies, nil
}

func TestLookupService_IndexIsCached(t *testing.T) {
	grn := "GRN-1"
	repo := &countingTenancyRepo{tenancies: []models.Tenancy{
		{ID: 1, TenantID: 10, GRN: &grn},
		{ID: 2, TenantID: 10},
	}}
	svc := NewLookupService(repo, cache.New(time.Minute))

	idx, err := svc.Index(context.Background())
	require.NoError(t, err)
	assert.Len(t, idx.ByID, 2)
	assert.Len(t, idx.ByTenant[10], 2)
	assert.Len(t, idx.ByGRN[grn], 1)

	_, err = svc.Index(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, repo.calls, "second read must come from the cache")
}

func TestLookupService_IndexRebuildsAfterExpiry(t *testing.T) {
	repo := &countingTenancyRepo{tenancies: []models.Tenancy{{ID: 1, TenantID: 10}}}
	clock := &fakeLookupClock{now: time.Now()}
	svc := NewLookupService(repo, cache.NewWithClock(time.Minute, clock))

	_, err := svc.Index(context.Background())
	require.NoError(t, err)

	clock.now = clock.now.Add(2 * time.Minute)
	_, err = svc.Index(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, repo.calls)
}

type fakeLookupClock struct {
	now time.Time
}

func (f *fakeLookupClock) Now() time.Time { return f.now }
