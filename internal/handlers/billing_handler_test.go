package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rentora/rentora-api/internal/cache"
	"github.com/rentora/rentora-api/internal/models"
	"github.com/rentora/rentora-api/internal/repository"
	"github.com/rentora/rentora-api/internal/services"
	"github.com/rentora/rentora-api/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type mockBillingRepo struct {
	repository.BillingRepository
	lines []models.BillLine
}

func (m *mockBillingRepo) ReplaceWingMonth(ctx context.Context, config *models.WingMonthConfig, readings []models.MeterReading, lines []models.BillLine) error {
	m.lines = lines
	return nil
}

func (m *mockBillingRepo) FindBillLines(ctx context.Context, monthKey, wing string) ([]models.BillLine, error) {
	return m.lines, nil
}

type mockTenancyRepo struct {
	repository.TenancyRepository
	tenancies []models.Tenancy
}

func (m *mockTenancyRepo) FindAllWithUnit(ctx context.Context) ([]models.Tenancy, error) {
	return m.tenancies, nil
}

type mockRevisionRepo struct {
	repository.RentRevisionRepository
}

func (m *mockRevisionRepo) FindEffective(ctx context.Context, tenancyID uint, asOfMonth string) (*models.RentRevision, error) {
	return nil, gorm.ErrRecordNotFound
}

func newBillingHandlerForTest(tenancies []models.Tenancy) (*BillingHandler, *mockBillingRepo) {
	logger.Setup("test")

	billingRepo := &mockBillingRepo{}
	tenancyRepo := &mockTenancyRepo{tenancies: tenancies}
	lookupSvc := services.NewLookupService(tenancyRepo, cache.New(time.Minute))
	rentSvc := services.NewRentService(&mockRevisionRepo{}, tenancyRepo)
	billingSvc := services.NewBillingService(billingRepo, lookupSvc, rentSvc, 5)
	return NewBillingHandler(billingSvc, nil, nil), billingRepo
}

func handlerTenancy(id, tenantID, unitID uint, wing string, defaultRent float64) models.Tenancy {
	return models.Tenancy{
		ID:          id,
		TenantID:    tenantID,
		UnitID:      unitID,
		Status:      models.TenancyStatusActive,
		DefaultRent: defaultRent,
		PayableDay:  5,
		Tenant:      models.Tenant{ID: tenantID, FullName: "Tenant"},
		Unit:        models.Unit{ID: unitID, Name: "Unit", Wing: wing},
	}
}

func TestBillingHandler_Generate(t *testing.T) {
	gin.SetMode(gin.TestMode)

	handler, repo := newBillingHandlerForTest([]models.Tenancy{
		handlerTenancy(1, 10, 100, "A", 5000),
		handlerTenancy(2, 20, 200, "A", 4500),
	})

	body := map[string]interface{}{
		"month_key": "2024-05",
		"wing":      "A",
		"config": map[string]interface{}{
			"electricity_rate":  10.0,
			"sweeping_per_flat": 50.0,
			"motor_prev":        1000.0,
			"motor_new":         1050.0,
		},
		"entries": []map[string]interface{}{
			{"tenancy_id": 1, "prev_reading": 100, "new_reading": 150, "included": true},
			{"tenancy_id": 2, "prev_reading": 120, "new_reading": 160, "included": true},
		},
	}

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	jsonBytes, _ := json.Marshal(body)
	c.Request, _ = http.NewRequest("POST", "/billing/generate", bytes.NewBuffer(jsonBytes))
	c.Request.Header.Set("Content-Type", "application/json")

	handler.Generate(c)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Len(t, repo.lines, 2)

	var result services.GenerateBillingResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.Equal(t, 2, result.IncludedCount)
	assert.Equal(t, 0, result.DroppedCount)
	assert.Len(t, result.BillLines, 2)
}

func TestBillingHandler_Generate_InvalidMonth(t *testing.T) {
	gin.SetMode(gin.TestMode)

	handler, _ := newBillingHandlerForTest(nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest("POST", "/billing/generate",
		bytes.NewBufferString(`{"month_key": "May 2024", "wing": "A", "config": {}, "entries": []}`))
	c.Request.Header.Set("Content-Type", "application/json")

	handler.Generate(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
