package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/rentora/rentora-api/internal/models"
	"github.com/rentora/rentora-api/internal/money"
	"github.com/rentora/rentora-api/internal/repository"
	"github.com/rentora/rentora-api/pkg/logger"
	"gorm.io/gorm"
)

// BillingService computes and persists monthly bills for one wing at a
// time: rent from the revision history, metered electricity, an equal motor
// share across opted-in tenants, and a flat sweeping charge.
type BillingService struct {
	billingRepo repository.BillingRepository
	lookupSvc   *LookupService
	rentSvc     *RentService
	defaultDay  int
}

// NewBillingService creates a new billing service. defaultPayableDay is
// used for tenancies without their own payable day.
func NewBillingService(billingRepo repository.BillingRepository, lookupSvc *LookupService, rentSvc *RentService, defaultPayableDay int) *BillingService {
	return &BillingService{
		billingRepo: billingRepo,
		lookupSvc:   lookupSvc,
		rentSvc:     rentSvc,
		defaultDay:  defaultPayableDay,
	}
}

// BillingConfigInput holds the shared-cost inputs for a billing run
type BillingConfigInput struct {
	ElectricityRate float64 `json:"electricity_rate"`
	SweepingPerFlat float64 `json:"sweeping_per_flat"`
	MotorPrev       float64 `json:"motor_prev"`
	MotorNew        float64 `json:"motor_new"`
}

// BillingEntryInput is one row of the billing sheet as submitted. The
// tenancy it belongs to may be referenced three ways; see matchEntry for
// the resolution order.
type BillingEntryInput struct {
	TenancyID    *uint    `json:"tenancy_id"`
	TenantID     *uint    `json:"tenant_id"`
	GRN          *string  `json:"grn"`
	PrevReading  float64  `json:"prev_reading"`
	NewReading   float64  `json:"new_reading"`
	Included     bool     `json:"included"`
	OverrideRent *float64 `json:"override_rent"`
	Notes        *string  `json:"notes"`
}

// GenerateBillingInput is the full payload of a billing run
type GenerateBillingInput struct {
	MonthKey string              `json:"month_key" binding:"required"`
	Wing     string              `json:"wing" binding:"required"`
	Config   BillingConfigInput  `json:"config"`
	Entries  []BillingEntryInput `json:"entries"`
}

// GenerateBillingResult is what a billing run produced
type GenerateBillingResult struct {
	Config        models.WingMonthConfig `json:"config"`
	BillLines     []models.BillLine      `json:"bill_lines"`
	IncludedCount int                    `json:"included_count"`
	DroppedCount  int                    `json:"dropped_count"`
}

// resolvedEntry pairs a sheet entry with the tenancy it matched
type resolvedEntry struct {
	tenancy *models.Tenancy
	entry   BillingEntryInput
}

// Generate runs billing for one (month, wing): resolves each sheet entry to
// a tenancy, computes the per-tenancy amounts, and replaces any previously
// stored run for the same key. Entries that resolve to no tenancy are
// dropped with a warning rather than failing the whole run.
func (s *BillingService) Generate(ctx context.Context, input *GenerateBillingInput) (*GenerateBillingResult, error) {
	monthKey, err := models.NormalizeMonthKey(input.MonthKey)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	wing := models.NormalizeWing(input.Wing)
	if wing == "" {
		return nil, fmt.Errorf("%w: wing is required", ErrInvalidInput)
	}
	if err := validateConfig(&input.Config); err != nil {
		return nil, err
	}
	for i := range input.Entries {
		if r := input.Entries[i].OverrideRent; r != nil && (math.IsNaN(*r) || *r < 0) {
			return nil, fmt.Errorf("%w: override rent must be a non-negative number", ErrInvalidInput)
		}
	}

	idx, err := s.lookupSvc.Index(ctx)
	if err != nil {
		return nil, err
	}

	resolved, dropped := s.resolveEntries(idx, monthKey, wing, input.Entries)

	includedCount := 0
	for _, re := range resolved {
		if re.entry.Included {
			includedCount++
		}
	}

	config := &models.WingMonthConfig{
		MonthKey:        monthKey,
		Wing:            wing,
		ElectricityRate: input.Config.ElectricityRate,
		SweepingPerFlat: input.Config.SweepingPerFlat,
		MotorPrev:       input.Config.MotorPrev,
		MotorNew:        input.Config.MotorNew,
	}

	motorUnits := config.MotorUnits()
	if motorUnits < 0 {
		logger.Warn("Negative motor consumption, allocating as-is",
			"month_key", monthKey, "wing", wing,
			"motor_prev", config.MotorPrev, "motor_new", config.MotorNew)
	}
	motorPerTenant := 0.0
	if includedCount > 0 {
		motorPerTenant = money.Round2(motorUnits * config.ElectricityRate / float64(includedCount))
	}

	lines := make([]models.BillLine, 0, len(resolved))
	readings := make([]models.MeterReading, 0, len(resolved))
	for _, re := range resolved {
		line, err := s.buildLine(ctx, monthKey, wing, config, re, motorPerTenant)
		if err != nil {
			return nil, err
		}
		lines = append(lines, line)
		readings = append(readings, models.MeterReading{
			MonthKey:     monthKey,
			TenancyID:    re.tenancy.ID,
			Wing:         wing,
			PrevReading:  re.entry.PrevReading,
			NewReading:   re.entry.NewReading,
			Included:     re.entry.Included,
			OverrideRent: re.entry.OverrideRent,
			Notes:        re.entry.Notes,
		})
	}

	if err := s.billingRepo.ReplaceWingMonth(ctx, config, readings, lines); err != nil {
		return nil, err
	}

	stored, err := s.billingRepo.FindBillLines(ctx, monthKey, wing)
	if err != nil {
		return nil, err
	}

	logger.Info("Billing generated",
		"month_key", monthKey, "wing", wing,
		"lines", len(stored), "included", includedCount, "dropped", dropped)

	return &GenerateBillingResult{
		Config:        *config,
		BillLines:     stored,
		IncludedCount: includedCount,
		DroppedCount:  dropped,
	}, nil
}

// buildLine computes one tenancy's bill. Excluded tenancies get zeroed
// charges and are marked settled, but their resolved rent is still recorded
// for the record.
func (s *BillingService) buildLine(ctx context.Context, monthKey, wing string, config *models.WingMonthConfig, re resolvedEntry, motorPerTenant float64) (models.BillLine, error) {
	rent, err := s.rentForLine(ctx, re.tenancy, re.entry.OverrideRent, monthKey)
	if err != nil {
		return models.BillLine{}, err
	}

	line := models.BillLine{
		MonthKey:   monthKey,
		TenancyID:  re.tenancy.ID,
		Wing:       wing,
		RentAmount: money.Round2(rent),
	}

	if re.entry.Included {
		// Unlike the motor meter, a tenant meter rollback never credits
		// the bill: units floor at zero.
		units := math.Max(re.entry.NewReading-re.entry.PrevReading, 0)
		line.ElectricityUnits = money.Round2(units)
		line.ElectricityAmount = money.Round2(units * config.ElectricityRate)
		line.MotorShareAmount = motorPerTenant
		line.SweepAmount = money.Round2(config.SweepingPerFlat)
		line.TotalAmount = money.RoundWhole(line.RentAmount + line.ElectricityAmount + line.MotorShareAmount + line.SweepAmount)
		line.PayableDate = s.payableDate(monthKey, re.tenancy)
	}

	// Freshly generated lines carry a derived paid flag but no explicit
	// paid amount; reconciliation fills both once payments arrive.
	isPaid := line.TotalAmount <= 0
	line.IsPaid = &isPaid
	return line, nil
}

// rentForLine picks the rent for a bill line: sheet override, else the
// revision in force for the month, else the tenancy's default rent.
func (s *BillingService) rentForLine(ctx context.Context, tenancy *models.Tenancy, override *float64, monthKey string) (float64, error) {
	if override != nil {
		return *override, nil
	}
	resolved, err := s.rentSvc.ResolveEffectiveRent(ctx, tenancy.ID, monthKey)
	if err != nil {
		return 0, err
	}
	if resolved != nil {
		return *resolved, nil
	}
	return tenancy.DefaultRent, nil
}

// payableDate places the due date inside the billed month, clamped to the
// month's last day for tenancies payable on the 29th or later.
func (s *BillingService) payableDate(monthKey string, tenancy *models.Tenancy) *time.Time {
	start, err := models.MonthStart(monthKey)
	if err != nil {
		return nil
	}
	day := tenancy.PayableDay
	if day <= 0 {
		day = s.defaultDay
	}
	lastDay := start.AddDate(0, 1, -1).Day()
	if day > lastDay {
		day = lastDay
	}
	due := time.Date(start.Year(), start.Month(), day, 0, 0, 0, 0, time.UTC)
	return &due
}

// resolveEntries matches sheet entries to tenancies. When two entries land
// on the same tenancy the later one wins. Returns matches ordered by
// tenancy id and the count of dropped entries.
func (s *BillingService) resolveEntries(idx *RosterIndex, monthKey, wing string, entries []BillingEntryInput) ([]resolvedEntry, int) {
	byTenancy := make(map[uint]resolvedEntry)
	dropped := 0
	for _, entry := range entries {
		tenancy := matchEntry(idx, wing, entry)
		if tenancy == nil {
			dropped++
			logger.Warn("Billing entry matched no tenancy, dropping",
				"month_key", monthKey, "wing", wing,
				"tenancy_id", ptrVal(entry.TenancyID),
				"tenant_id", ptrVal(entry.TenantID),
				"grn", strVal(entry.GRN))
			continue
		}
		byTenancy[tenancy.ID] = resolvedEntry{tenancy: tenancy, entry: entry}
	}

	resolved := make([]resolvedEntry, 0, len(byTenancy))
	for _, re := range byTenancy {
		resolved = append(resolved, re)
	}
	sort.Slice(resolved, func(i, j int) bool {
		return resolved[i].tenancy.ID < resolved[j].tenancy.ID
	})
	return resolved, dropped
}

// entryResolver returns candidate tenancies for an entry, or nil when the
// reference it handles is absent or unknown
type entryResolver func(idx *RosterIndex, entry BillingEntryInput) []*models.Tenancy

// entryResolvers, in precedence order: an explicit tenancy reference beats
// a tenant reference, which beats a GRN key. Only the first resolver that
// yields candidates is consulted.
var entryResolvers = []entryResolver{
	resolveByTenancyID,
	resolveByTenantID,
	resolveByGRN,
}

func resolveByTenancyID(idx *RosterIndex, entry BillingEntryInput) []*models.Tenancy {
	if entry.TenancyID == nil {
		return nil
	}
	if t, ok := idx.ByID[*entry.TenancyID]; ok {
		return []*models.Tenancy{t}
	}
	return nil
}

func resolveByTenantID(idx *RosterIndex, entry BillingEntryInput) []*models.Tenancy {
	if entry.TenantID == nil {
		return nil
	}
	return idx.ByTenant[*entry.TenantID]
}

func resolveByGRN(idx *RosterIndex, entry BillingEntryInput) []*models.Tenancy {
	if entry.GRN == nil || *entry.GRN == "" {
		return nil
	}
	return idx.ByGRN[*entry.GRN]
}

// matchEntry resolves an entry to a single tenancy. Among the candidates of
// the winning resolver, an active tenancy in the billed wing is preferred,
// then any tenancy in the wing; candidates outside the wing never match.
func matchEntry(idx *RosterIndex, wing string, entry BillingEntryInput) *models.Tenancy {
	for _, resolve := range entryResolvers {
		candidates := resolve(idx, entry)
		if len(candidates) == 0 {
			continue
		}
		var inWing *models.Tenancy
		for _, t := range candidates {
			if models.NormalizeWing(t.WingName()) != wing {
				continue
			}
			if t.IsActive() {
				return t
			}
			if inWing == nil {
				inWing = t
			}
		}
		return inWing
	}
	return nil
}

// GetWingMonth returns the stored config and bill lines for a (month, wing)
func (s *BillingService) GetWingMonth(ctx context.Context, monthKey, wing string) (*models.WingMonthConfig, []models.BillLine, error) {
	monthKey, err := models.NormalizeMonthKey(monthKey)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	wing = models.NormalizeWing(wing)

	config, err := s.billingRepo.GetConfig(ctx, monthKey, wing)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, fmt.Errorf("%w: no billing for %s wing %s", ErrNotFound, monthKey, wing)
		}
		return nil, nil, err
	}

	lines, err := s.billingRepo.FindBillLines(ctx, monthKey, wing)
	if err != nil {
		return nil, nil, err
	}
	return config, lines, nil
}

// GetReadings returns the stored meter readings for a (month, wing)
func (s *BillingService) GetReadings(ctx context.Context, monthKey, wing string) ([]models.MeterReading, error) {
	monthKey, err := models.NormalizeMonthKey(monthKey)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return s.billingRepo.FindReadings(ctx, monthKey, models.NormalizeWing(wing))
}

// ListMonths returns every month with stored bills, newest first
func (s *BillingService) ListMonths(ctx context.Context) ([]string, error) {
	return s.billingRepo.ListMonths(ctx)
}

// FindBillLine returns a bill line by id
func (s *BillingService) FindBillLine(ctx context.Context, id uint) (*models.BillLine, error) {
	line, err := s.billingRepo.FindBillLineByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: bill line %d", ErrNotFound, id)
		}
		return nil, err
	}
	return line, nil
}

// ListBillLines returns bill lines matching the query with pagination
func (s *BillingService) ListBillLines(ctx context.Context, query *repository.BillLineQuery) ([]models.BillLine, int64, error) {
	if query.MonthKey != "" {
		normalized, err := models.NormalizeMonthKey(query.MonthKey)
		if err != nil {
			return nil, 0, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		query.MonthKey = normalized
	}
	if query.Wing != "" {
		query.Wing = models.NormalizeWing(query.Wing)
	}
	return s.billingRepo.ListBillLines(ctx, query)
}

func validateConfig(config *BillingConfigInput) error {
	for _, v := range []float64{config.ElectricityRate, config.SweepingPerFlat, config.MotorPrev, config.MotorNew} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: billing config values must be finite numbers", ErrInvalidInput)
		}
	}
	if config.ElectricityRate < 0 || config.SweepingPerFlat < 0 {
		return fmt.Errorf("%w: rates must be non-negative", ErrInvalidInput)
	}
	return nil
}

func ptrVal(v *uint) uint {
	if v == nil {
		return 0
	}
	return *v
}

func strVal(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}
