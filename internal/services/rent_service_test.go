package services

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/rentora/rentora-api/internal/models"
	"github.com/rentora/rentora-api/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// fakeRevisionRepo keeps revisions in memory and reproduces the lookup
// contract of the real repository: greatest effective month not after the
// asked month, newest creation first on ties, overwrite on (tenancy, month).
type fakeRevisionRepo struct {
	repository.RentRevisionRepository
	revisions []models.RentRevision
	nextID    uint
}

func (f *fakeRevisionRepo) FindEffective(ctx context.Context, tenancyID uint, asOfMonth string) (*models.RentRevision, error) {
	var matches []models.RentRevision
	for _, r := range f.revisions {
		if r.TenancyID == tenancyID && r.EffectiveMonth <= asOfMonth {
			matches = append(matches, r)
		}
	}
	if len(matches) == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	sort.Slice(matches, func(i, j int) bool {
		if matches[i].EffectiveMonth != matches[j].EffectiveMonth {
			return matches[i].EffectiveMonth > matches[j].EffectiveMonth
		}
		return matches[i].CreatedAt.After(matches[j].CreatedAt)
	})
	rev := matches[0]
	return &rev, nil
}

func (f *fakeRevisionRepo) Upsert(ctx context.Context, revision *models.RentRevision) error {
	for i := range f.revisions {
		if f.revisions[i].TenancyID == revision.TenancyID && f.revisions[i].EffectiveMonth == revision.EffectiveMonth {
			f.revisions[i].RentAmount = revision.RentAmount
			f.revisions[i].Note = revision.Note
			return nil
		}
	}
	f.nextID++
	revision.ID = f.nextID
	revision.CreatedAt = time.Now()
	f.revisions = append(f.revisions, *revision)
	return nil
}

func (f *fakeRevisionRepo) FindByTenancyAndMonth(ctx context.Context, tenancyID uint, effectiveMonth string) (*models.RentRevision, error) {
	for i := range f.revisions {
		if f.revisions[i].TenancyID == tenancyID && f.revisions[i].EffectiveMonth == effectiveMonth {
			rev := f.revisions[i]
			return &rev, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeRevisionRepo) ListByTenancy(ctx context.Context, tenancyID uint) ([]models.RentRevision, error) {
	var out []models.RentRevision
	for _, r := range f.revisions {
		if r.TenancyID == tenancyID {
			out = append(out, r)
		}
	}
	return out, nil
}

type fakeTenancyRepo struct {
	repository.TenancyRepository
	tenancies []models.Tenancy
}

func (f *fakeTenancyRepo) FindByID(ctx context.Context, id uint) (*models.Tenancy, error) {
	for i := range f.tenancies {
		if f.tenancies[i].ID == id {
			t := f.tenancies[i]
			return &t, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeTenancyRepo) FindAllWithUnit(ctx context.Context) ([]models.Tenancy, error) {
	return f.tenancies, nil
}

func newRentServiceForTest(revRepo *fakeRevisionRepo, tenancies ...models.Tenancy) *RentService {
	return NewRentService(revRepo, &fakeTenancyRepo{tenancies: tenancies})
}

func TestRentService_ResolveEffectiveRent(t *testing.T) {
	revRepo := &fakeRevisionRepo{}
	svc := newRentServiceForTest(revRepo, models.Tenancy{ID: 1, Status: models.TenancyStatusActive})

	ctx := context.Background()
	_, err := svc.UpsertRevision(ctx, 1, &UpsertRevisionInput{EffectiveMonth: "2024-01", RentAmount: 5000})
	require.NoError(t, err)
	_, err = svc.UpsertRevision(ctx, 1, &UpsertRevisionInput{EffectiveMonth: "2024-06", RentAmount: 6000})
	require.NoError(t, err)

	tests := []struct {
		asOf string
		want *float64
	}{
		{"2023-12", nil},
		{"2024-01", floatPtr(5000)},
		{"2024-05", floatPtr(5000)},
		{"2024-06", floatPtr(6000)},
		{"2024-07", floatPtr(6000)},
		{"2025-01", floatPtr(6000)},
	}
	for _, tt := range tests {
		got, err := svc.ResolveEffectiveRent(ctx, 1, tt.asOf)
		require.NoError(t, err, tt.asOf)
		if tt.want == nil {
			assert.Nil(t, got, "as of %s", tt.asOf)
		} else {
			require.NotNil(t, got, "as of %s", tt.asOf)
			assert.Equal(t, *tt.want, *got, "as of %s", tt.asOf)
		}
	}
}

func TestRentService_ResolveEffectiveRent_NormalizesMonth(t *testing.T) {
	revRepo := &fakeRevisionRepo{}
	svc := newRentServiceForTest(revRepo, models.Tenancy{ID: 1, Status: models.TenancyStatusActive})

	ctx := context.Background()
	_, err := svc.UpsertRevision(ctx, 1, &UpsertRevisionInput{EffectiveMonth: "2024-05", RentAmount: 4500})
	require.NoError(t, err)

	// unpadded month refers to the same period
	got, err := svc.ResolveEffectiveRent(ctx, 1, "2024-5")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 4500.0, *got)
}

func TestRentService_UpsertRevision_OverwritesSameMonth(t *testing.T) {
	revRepo := &fakeRevisionRepo{}
	svc := newRentServiceForTest(revRepo, models.Tenancy{ID: 1, Status: models.TenancyStatusActive})

	ctx := context.Background()
	_, err := svc.UpsertRevision(ctx, 1, &UpsertRevisionInput{EffectiveMonth: "2024-03", RentAmount: 5000})
	require.NoError(t, err)
	rev, err := svc.UpsertRevision(ctx, 1, &UpsertRevisionInput{EffectiveMonth: "2024-03", RentAmount: 5500})
	require.NoError(t, err)
	assert.Equal(t, 5500.0, rev.RentAmount)

	history, err := svc.ListRevisions(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, history, 1)

	got, err := svc.ResolveEffectiveRent(ctx, 1, "2024-03")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 5500.0, *got)
}

func TestRentService_UpsertRevision_Validation(t *testing.T) {
	revRepo := &fakeRevisionRepo{}
	svc := newRentServiceForTest(revRepo, models.Tenancy{ID: 1, Status: models.TenancyStatusActive})
	ctx := context.Background()

	_, err := svc.UpsertRevision(ctx, 1, &UpsertRevisionInput{EffectiveMonth: "2024-3", RentAmount: 5000})
	assert.True(t, errors.Is(err, ErrInvalidInput), "unpadded month must be rejected on write")

	_, err = svc.UpsertRevision(ctx, 1, &UpsertRevisionInput{EffectiveMonth: "March 2024", RentAmount: 5000})
	assert.True(t, errors.Is(err, ErrInvalidInput))

	_, err = svc.UpsertRevision(ctx, 1, &UpsertRevisionInput{EffectiveMonth: "2024-03", RentAmount: -1})
	assert.True(t, errors.Is(err, ErrInvalidInput))

	_, err = svc.UpsertRevision(ctx, 99, &UpsertRevisionInput{EffectiveMonth: "2024-03", RentAmount: 5000})
	assert.True(t, errors.Is(err, ErrNotFound))
}

func floatPtr(v float64) *float64 { return &v }
