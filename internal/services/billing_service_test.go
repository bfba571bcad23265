package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rentora/rentora-api/internal/cache"
	"github.com/rentora/rentora-api/internal/models"
	"github.com/rentora/rentora-api/internal/money"
	"github.com/rentora/rentora-api/internal/repository"
	"github.com/rentora/rentora-api/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// fakeBillingRepo captures what a billing run persists
type fakeBillingRepo struct {
	repository.BillingRepository
	config   *models.WingMonthConfig
	lines    []models.BillLine
	readings []models.MeterReading
	replaced int
}

func (f *fakeBillingRepo) ReplaceWingMonth(ctx context.Context, config *models.WingMonthConfig, readings []models.MeterReading, lines []models.BillLine) error {
	f.config = config
	f.readings = readings
	f.lines = lines
	f.replaced++
	return nil
}

func (f *fakeBillingRepo) FindBillLines(ctx context.Context, monthKey, wing string) ([]models.BillLine, error) {
	return f.lines, nil
}

func (f *fakeBillingRepo) GetConfig(ctx context.Context, monthKey, wing string) (*models.WingMonthConfig, error) {
	if f.config == nil || f.config.MonthKey != monthKey || f.config.Wing != wing {
		return nil, gorm.ErrRecordNotFound
	}
	return f.config, nil
}

func makeTenancy(id, tenantID, unitID uint, wing, status string, defaultRent float64, grn string) models.Tenancy {
	t := models.Tenancy{
		ID:          id,
		TenantID:    tenantID,
		UnitID:      unitID,
		Status:      status,
		DefaultRent: defaultRent,
		PayableDay:  5,
		Tenant:      models.Tenant{ID: tenantID, FullName: "Tenant"},
		Unit:        models.Unit{ID: unitID, Name: "Unit", Wing: wing},
	}
	if grn != "" {
		t.GRN = &grn
	}
	return t
}

func newBillingServiceForTest(billingRepo *fakeBillingRepo, revRepo *fakeRevisionRepo, tenancies ...models.Tenancy) *BillingService {
	logger.Setup("test")
	tenancyRepo := &fakeTenancyRepo{tenancies: tenancies}
	lookupSvc := NewLookupService(tenancyRepo, cache.New(time.Minute))
	rentSvc := NewRentService(revRepo, tenancyRepo)
	return NewBillingService(billingRepo, lookupSvc, rentSvc, 5)
}

func uintPtr(v uint) *uint { return &v }

func TestBillingService_Generate_TwoTenants(t *testing.T) {
	billingRepo := &fakeBillingRepo{}
	revRepo := &fakeRevisionRepo{}
	// tenancy 1 takes rent from a revision, tenancy 2 from its default rent
	svc := newBillingServiceForTest(billingRepo, revRepo,
		makeTenancy(1, 10, 100, "A", models.TenancyStatusActive, 0, ""),
		makeTenancy(2, 20, 200, "A", models.TenancyStatusActive, 5000, ""),
	)
	require.NoError(t, revRepo.Upsert(context.Background(), &models.RentRevision{
		TenancyID: 1, EffectiveMonth: "2024-01", RentAmount: 5000,
	}))

	result, err := svc.Generate(context.Background(), &GenerateBillingInput{
		MonthKey: "2024-05",
		Wing:     "A",
		Config: BillingConfigInput{
			ElectricityRate: 10,
			SweepingPerFlat: 50,
			MotorPrev:       1000,
			MotorNew:        1050,
		},
		Entries: []BillingEntryInput{
			{TenancyID: uintPtr(1), PrevReading: 100, NewReading: 150, Included: true},
			{TenancyID: uintPtr(2), PrevReading: 120, NewReading: 160, Included: true},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, 2, result.IncludedCount)
	assert.Equal(t, 0, result.DroppedCount)
	require.Len(t, result.BillLines, 2)

	// 50 motor units at rate 10 split two ways: 250 each
	first := result.BillLines[0]
	assert.Equal(t, uint(1), first.TenancyID)
	assert.Equal(t, 5000.0, first.RentAmount)
	assert.Equal(t, 50.0, first.ElectricityUnits)
	assert.Equal(t, 500.0, first.ElectricityAmount)
	assert.Equal(t, 250.0, first.MotorShareAmount)
	assert.Equal(t, 50.0, first.SweepAmount)
	assert.Equal(t, 5800.0, first.TotalAmount)
	require.NotNil(t, first.IsPaid)
	assert.False(t, *first.IsPaid)
	assert.Nil(t, first.AmountPaid)
	require.NotNil(t, first.PayableDate)
	assert.Equal(t, "2024-05-05", first.PayableDate.Format("2006-01-02"))

	second := result.BillLines[1]
	assert.Equal(t, uint(2), second.TenancyID)
	assert.Equal(t, 5000.0, second.RentAmount)
	assert.Equal(t, 400.0, second.ElectricityAmount)
	assert.Equal(t, 250.0, second.MotorShareAmount)
	assert.Equal(t, 5700.0, second.TotalAmount)

	require.Len(t, billingRepo.readings, 2)
	assert.Equal(t, 1, billingRepo.replaced)
}

func TestBillingService_Generate_MotorShareSumsToCost(t *testing.T) {
	billingRepo := &fakeBillingRepo{}
	svc := newBillingServiceForTest(billingRepo, &fakeRevisionRepo{},
		makeTenancy(1, 10, 100, "A", models.TenancyStatusActive, 1000, ""),
		makeTenancy(2, 20, 200, "A", models.TenancyStatusActive, 1000, ""),
		makeTenancy(3, 30, 300, "A", models.TenancyStatusActive, 1000, ""),
	)

	result, err := svc.Generate(context.Background(), &GenerateBillingInput{
		MonthKey: "2024-05",
		Wing:     "A",
		Config: BillingConfigInput{
			ElectricityRate: 7.5,
			MotorPrev:       100,
			MotorNew:        133, // 33 units at 7.5 = 247.50 over 3 tenants
		},
		Entries: []BillingEntryInput{
			{TenancyID: uintPtr(1), Included: true},
			{TenancyID: uintPtr(2), Included: true},
			{TenancyID: uintPtr(3), Included: true},
		},
	})
	require.NoError(t, err)
	require.Len(t, result.BillLines, 3)

	sum := 0.0
	for _, line := range result.BillLines {
		sum += line.MotorShareAmount
	}
	motorCost := 33 * 7.5
	// per-share rounding may drift the sum by at most half a cent per share
	assert.InDelta(t, motorCost, sum, 0.005*3)
}

func TestBillingService_Generate_ExcludedTenancy(t *testing.T) {
	billingRepo := &fakeBillingRepo{}
	svc := newBillingServiceForTest(billingRepo, &fakeRevisionRepo{},
		makeTenancy(1, 10, 100, "A", models.TenancyStatusActive, 5000, ""),
		makeTenancy(2, 20, 200, "A", models.TenancyStatusActive, 4000, ""),
	)

	result, err := svc.Generate(context.Background(), &GenerateBillingInput{
		MonthKey: "2024-05",
		Wing:     "A",
		Config: BillingConfigInput{
			ElectricityRate: 10,
			SweepingPerFlat: 50,
			MotorPrev:       0,
			MotorNew:        10,
		},
		Entries: []BillingEntryInput{
			{TenancyID: uintPtr(1), PrevReading: 100, NewReading: 150, Included: true},
			{TenancyID: uintPtr(2), PrevReading: 0, NewReading: 0, Included: false},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, result.IncludedCount)
	require.Len(t, result.BillLines, 2)

	// whole motor cost lands on the single included tenancy
	assert.Equal(t, 100.0, result.BillLines[0].MotorShareAmount)

	excluded := result.BillLines[1]
	assert.Equal(t, uint(2), excluded.TenancyID)
	assert.Equal(t, 4000.0, excluded.RentAmount, "rent is still recorded for excluded tenancies")
	assert.Zero(t, excluded.ElectricityAmount)
	assert.Zero(t, excluded.MotorShareAmount)
	assert.Zero(t, excluded.SweepAmount)
	assert.Zero(t, excluded.TotalAmount)
	require.NotNil(t, excluded.IsPaid)
	assert.True(t, *excluded.IsPaid, "a zero-total line is settled")
	assert.Nil(t, excluded.PayableDate)
}

func TestBillingService_Generate_NegativeMotorUnits(t *testing.T) {
	billingRepo := &fakeBillingRepo{}
	svc := newBillingServiceForTest(billingRepo, &fakeRevisionRepo{},
		makeTenancy(1, 10, 100, "A", models.TenancyStatusActive, 5000, ""),
	)

	// meter rollback: new reading below previous
	result, err := svc.Generate(context.Background(), &GenerateBillingInput{
		MonthKey: "2024-05",
		Wing:     "A",
		Config: BillingConfigInput{
			ElectricityRate: 10,
			MotorPrev:       1050,
			MotorNew:        1000,
		},
		Entries: []BillingEntryInput{
			{TenancyID: uintPtr(1), Included: true},
		},
	})
	require.NoError(t, err)
	require.Len(t, result.BillLines, 1)
	assert.Equal(t, -500.0, result.BillLines[0].MotorShareAmount)
	assert.Equal(t, 4500.0, result.BillLines[0].TotalAmount)
}

func TestBillingService_Generate_TenantMeterRollbackClampsToZero(t *testing.T) {
	billingRepo := &fakeBillingRepo{}
	svc := newBillingServiceForTest(billingRepo, &fakeRevisionRepo{},
		makeTenancy(1, 10, 100, "A", models.TenancyStatusActive, 5000, ""),
	)

	// rolled-back tenant meter: units floor at zero, never a credit
	result, err := svc.Generate(context.Background(), &GenerateBillingInput{
		MonthKey: "2024-05",
		Wing:     "A",
		Config: BillingConfigInput{
			ElectricityRate: 10,
			SweepingPerFlat: 50,
		},
		Entries: []BillingEntryInput{
			{TenancyID: uintPtr(1), PrevReading: 150, NewReading: 100, Included: true},
		},
	})
	require.NoError(t, err)
	require.Len(t, result.BillLines, 1)

	line := result.BillLines[0]
	assert.Zero(t, line.ElectricityUnits)
	assert.Zero(t, line.ElectricityAmount)
	assert.Equal(t, 5050.0, line.TotalAmount)
}

func TestBillingService_Generate_Idempotent(t *testing.T) {
	billingRepo := &fakeBillingRepo{}
	svc := newBillingServiceForTest(billingRepo, &fakeRevisionRepo{},
		makeTenancy(1, 10, 100, "A", models.TenancyStatusActive, 5000, ""),
		makeTenancy(2, 20, 200, "A", models.TenancyStatusActive, 4000, ""),
	)

	input := &GenerateBillingInput{
		MonthKey: "2024-05",
		Wing:     "A",
		Config: BillingConfigInput{
			ElectricityRate: 10,
			SweepingPerFlat: 50,
			MotorPrev:       1000,
			MotorNew:        1050,
		},
		Entries: []BillingEntryInput{
			{TenancyID: uintPtr(1), PrevReading: 100, NewReading: 150, Included: true},
			{TenancyID: uintPtr(2), PrevReading: 120, NewReading: 160, Included: true},
		},
	}

	first, err := svc.Generate(context.Background(), input)
	require.NoError(t, err)
	second, err := svc.Generate(context.Background(), input)
	require.NoError(t, err)

	assert.Equal(t, 2, billingRepo.replaced)
	assert.Equal(t, first.BillLines, second.BillLines)
	assert.Equal(t, first.Config, second.Config)
}

func TestBillingService_Generate_RerunSupersedesStoredLines(t *testing.T) {
	billingRepo := &fakeBillingRepo{}
	svc := newBillingServiceForTest(billingRepo, &fakeRevisionRepo{},
		makeTenancy(1, 10, 100, "A", models.TenancyStatusActive, 5000, ""),
	)

	input := &GenerateBillingInput{
		MonthKey: "2024-05",
		Wing:     "A",
		Config:   BillingConfigInput{ElectricityRate: 10},
		Entries: []BillingEntryInput{
			{TenancyID: uintPtr(1), PrevReading: 100, NewReading: 150, Included: true},
		},
	}
	_, err := svc.Generate(context.Background(), input)
	require.NoError(t, err)
	require.Len(t, billingRepo.lines, 1)
	assert.Equal(t, 500.0, billingRepo.lines[0].ElectricityAmount)

	// rerun with a corrected rate replaces the stored set, no stale line
	input.Config.ElectricityRate = 12
	result, err := svc.Generate(context.Background(), input)
	require.NoError(t, err)

	assert.Equal(t, 2, billingRepo.replaced)
	require.Len(t, billingRepo.lines, 1)
	assert.Equal(t, 600.0, billingRepo.lines[0].ElectricityAmount)
	assert.Equal(t, 12.0, billingRepo.config.ElectricityRate)
	require.Len(t, result.BillLines, 1)
	assert.Equal(t, 600.0, result.BillLines[0].ElectricityAmount)
}

func TestBillingService_Generate_UnresolvedEntryDropped(t *testing.T) {
	billingRepo := &fakeBillingRepo{}
	svc := newBillingServiceForTest(billingRepo, &fakeRevisionRepo{},
		makeTenancy(1, 10, 100, "A", models.TenancyStatusActive, 5000, ""),
	)

	unknown := "GRN-UNKNOWN"
	result, err := svc.Generate(context.Background(), &GenerateBillingInput{
		MonthKey: "2024-05",
		Wing:     "A",
		Config:   BillingConfigInput{ElectricityRate: 10},
		Entries: []BillingEntryInput{
			{TenancyID: uintPtr(1), Included: true},
			{GRN: &unknown, Included: true},
		},
	})
	require.NoError(t, err, "an unresolved entry must not fail the run")
	assert.Equal(t, 1, result.DroppedCount)
	assert.Len(t, result.BillLines, 1)
	assert.Equal(t, 1, result.IncludedCount, "dropped entries do not count toward the motor split")
}

func TestBillingService_Generate_DuplicateEntriesLastWins(t *testing.T) {
	billingRepo := &fakeBillingRepo{}
	svc := newBillingServiceForTest(billingRepo, &fakeRevisionRepo{},
		makeTenancy(1, 10, 100, "A", models.TenancyStatusActive, 5000, ""),
	)

	result, err := svc.Generate(context.Background(), &GenerateBillingInput{
		MonthKey: "2024-05",
		Wing:     "A",
		Config:   BillingConfigInput{ElectricityRate: 10},
		Entries: []BillingEntryInput{
			{TenancyID: uintPtr(1), PrevReading: 0, NewReading: 10, Included: true},
			{TenancyID: uintPtr(1), PrevReading: 0, NewReading: 30, Included: true},
		},
	})
	require.NoError(t, err)
	require.Len(t, result.BillLines, 1)
	assert.Equal(t, 300.0, result.BillLines[0].ElectricityAmount)
	assert.Equal(t, 1, result.IncludedCount)
}

func TestBillingService_Generate_EntryResolutionPrecedence(t *testing.T) {
	grn := "GRN-7"
	// tenant 10 has an ended tenancy in wing A and an active one in wing B;
	// billing wing A by tenant reference must land on the wing A tenancy
	ended := makeTenancy(1, 10, 100, "A", models.TenancyStatusEnded, 5000, grn)
	active := makeTenancy(2, 10, 200, "B", models.TenancyStatusActive, 6000, "")

	billingRepo := &fakeBillingRepo{}
	svc := newBillingServiceForTest(billingRepo, &fakeRevisionRepo{}, ended, active)

	result, err := svc.Generate(context.Background(), &GenerateBillingInput{
		MonthKey: "2024-05",
		Wing:     "A",
		Config:   BillingConfigInput{ElectricityRate: 10},
		Entries: []BillingEntryInput{
			{TenantID: uintPtr(10), Included: true},
		},
	})
	require.NoError(t, err)
	require.Len(t, result.BillLines, 1)
	assert.Equal(t, uint(1), result.BillLines[0].TenancyID)

	// same roster, resolved via GRN
	result, err = svc.Generate(context.Background(), &GenerateBillingInput{
		MonthKey: "2024-06",
		Wing:     "A",
		Config:   BillingConfigInput{ElectricityRate: 10},
		Entries: []BillingEntryInput{
			{GRN: &grn, Included: true},
		},
	})
	require.NoError(t, err)
	require.Len(t, result.BillLines, 1)
	assert.Equal(t, uint(1), result.BillLines[0].TenancyID)
}

func TestBillingService_Generate_NormalizesKeyAndWing(t *testing.T) {
	billingRepo := &fakeBillingRepo{}
	svc := newBillingServiceForTest(billingRepo, &fakeRevisionRepo{},
		makeTenancy(1, 10, 100, "A", models.TenancyStatusActive, 5000, ""),
	)

	_, err := svc.Generate(context.Background(), &GenerateBillingInput{
		MonthKey: "2024-5",
		Wing:     " a ",
		Config:   BillingConfigInput{ElectricityRate: 10},
		Entries: []BillingEntryInput{
			{TenancyID: uintPtr(1), Included: true},
		},
	})
	require.NoError(t, err)
	require.NotNil(t, billingRepo.config)
	assert.Equal(t, "2024-05", billingRepo.config.MonthKey)
	assert.Equal(t, "A", billingRepo.config.Wing)
}

func TestBillingService_Generate_InvalidInput(t *testing.T) {
	svc := newBillingServiceForTest(&fakeBillingRepo{}, &fakeRevisionRepo{})

	_, err := svc.Generate(context.Background(), &GenerateBillingInput{MonthKey: "May 2024", Wing: "A"})
	assert.True(t, errors.Is(err, ErrInvalidInput))

	_, err = svc.Generate(context.Background(), &GenerateBillingInput{MonthKey: "2024-05", Wing: "   "})
	assert.True(t, errors.Is(err, ErrInvalidInput))

	bad := -10.0
	_, err = svc.Generate(context.Background(), &GenerateBillingInput{
		MonthKey: "2024-05", Wing: "A",
		Entries: []BillingEntryInput{{TenancyID: uintPtr(1), OverrideRent: &bad}},
	})
	assert.True(t, errors.Is(err, ErrInvalidInput))
}

func TestBillingService_Generate_OverrideRentWins(t *testing.T) {
	billingRepo := &fakeBillingRepo{}
	revRepo := &fakeRevisionRepo{}
	svc := newBillingServiceForTest(billingRepo, revRepo,
		makeTenancy(1, 10, 100, "A", models.TenancyStatusActive, 5000, ""),
	)
	require.NoError(t, revRepo.Upsert(context.Background(), &models.RentRevision{
		TenancyID: 1, EffectiveMonth: "2024-01", RentAmount: 5500,
	}))

	override := 4200.0
	result, err := svc.Generate(context.Background(), &GenerateBillingInput{
		MonthKey: "2024-05",
		Wing:     "A",
		Config:   BillingConfigInput{ElectricityRate: 10},
		Entries: []BillingEntryInput{
			{TenancyID: uintPtr(1), Included: true, OverrideRent: &override},
		},
	})
	require.NoError(t, err)
	require.Len(t, result.BillLines, 1)
	assert.Equal(t, 4200.0, result.BillLines[0].RentAmount)
}

func TestBillingService_Generate_TotalRoundsToWholeUnit(t *testing.T) {
	billingRepo := &fakeBillingRepo{}
	svc := newBillingServiceForTest(billingRepo, &fakeRevisionRepo{},
		makeTenancy(1, 10, 100, "A", models.TenancyStatusActive, 5000.40, ""),
	)

	result, err := svc.Generate(context.Background(), &GenerateBillingInput{
		MonthKey: "2024-05",
		Wing:     "A",
		Config:   BillingConfigInput{ElectricityRate: 10.5, SweepingPerFlat: 50.25},
		Entries: []BillingEntryInput{
			{TenancyID: uintPtr(1), PrevReading: 0, NewReading: 10.3, Included: true},
		},
	})
	require.NoError(t, err)
	require.Len(t, result.BillLines, 1)

	line := result.BillLines[0]
	// components keep cents, the grand total is a whole amount
	assert.Equal(t, money.Round2(10.3*10.5), line.ElectricityAmount)
	assert.Equal(t, line.TotalAmount, money.RoundWhole(line.TotalAmount))
	expected := money.RoundWhole(5000.40 + line.ElectricityAmount + 50.25)
	assert.Equal(t, expected, line.TotalAmount)
}

func TestBillingService_Generate_PayableDateClamped(t *testing.T) {
	billingRepo := &fakeBillingRepo{}
	tenancy := makeTenancy(1, 10, 100, "A", models.TenancyStatusActive, 5000, "")
	tenancy.PayableDay = 31
	svc := newBillingServiceForTest(billingRepo, &fakeRevisionRepo{}, tenancy)

	result, err := svc.Generate(context.Background(), &GenerateBillingInput{
		MonthKey: "2024-02",
		Wing:     "A",
		Config:   BillingConfigInput{ElectricityRate: 10},
		Entries: []BillingEntryInput{
			{TenancyID: uintPtr(1), Included: true},
		},
	})
	require.NoError(t, err)
	require.Len(t, result.BillLines, 1)
	require.NotNil(t, result.BillLines[0].PayableDate)
	assert.Equal(t, "2024-02-29", result.BillLines[0].PayableDate.Format("2006-01-02"))
}
