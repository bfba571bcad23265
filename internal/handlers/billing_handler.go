package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rentora/rentora-api/internal/models"
	"github.com/rentora/rentora-api/internal/repository"
	"github.com/rentora/rentora-api/internal/services"
)

type BillingHandler struct {
	billingService *services.BillingService
	exportService  *services.ExportService
	reportService  *services.ReportService
}

func NewBillingHandler(billingService *services.BillingService, exportService *services.ExportService, reportService *services.ReportService) *BillingHandler {
	return &BillingHandler{
		billingService: billingService,
		exportService:  exportService,
		reportService:  reportService,
	}
}

// @Summary Generate Billing
// @Description Compute and persist the bill lines for a wing and month. Re-posting the same wing and month replaces the previous run.
// @Tags Billing
// @Accept json
// @Produce json
// @Param request body services.GenerateBillingInput true "Billing Sheet"
// @Success 200 {object} services.GenerateBillingResult
// @Failure 400 {object} map[string]string
// @Security BearerAuth
// @Router /billing/generate [post]
func (h *BillingHandler) Generate(c *gin.Context) {
	var input services.GenerateBillingInput
	if err := BindNestedOrFlat(c, "billing", &input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.billingService.Generate(c.Request.Context(), &input)
	if err != nil {
		c.JSON(errorStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, result)
}

// @Summary Get Wing Month
// @Description Get the stored config and bill lines for a wing and month, with derived payment state per line
// @Tags Billing
// @Produce json
// @Param month_key path string true "Month key (YYYY-MM)"
// @Param wing path string true "Wing"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]string
// @Security BearerAuth
// @Router /billing/{month_key}/{wing} [get]
func (h *BillingHandler) WingMonth(c *gin.Context) {
	monthKey := c.Param("month_key")
	wing := c.Param("wing")

	config, lines, err := h.billingService.GetWingMonth(c.Request.Context(), monthKey, wing)
	if err != nil {
		c.JSON(errorStatus(err), gin.H{"error": err.Error()})
		return
	}

	responses := make([]models.BillLineResponse, 0, len(lines))
	for i := range lines {
		responses = append(responses, services.ToBillLineResponse(&lines[i]))
	}

	c.JSON(http.StatusOK, gin.H{
		"config":     config,
		"bill_lines": responses,
	})
}

// @Summary Get Meter Readings
// @Description Get the stored electricity readings for a wing and month
// @Tags Billing
// @Produce json
// @Param month_key path string true "Month key (YYYY-MM)"
// @Param wing path string true "Wing"
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /billing/{month_key}/{wing}/readings [get]
func (h *BillingHandler) Readings(c *gin.Context) {
	readings, err := h.billingService.GetReadings(c.Request.Context(), c.Param("month_key"), c.Param("wing"))
	if err != nil {
		c.JSON(errorStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"readings": readings})
}

// @Summary List Billed Months
// @Description Get the distinct months that have billing runs, newest first
// @Tags Billing
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /billing/months [get]
func (h *BillingHandler) Months(c *gin.Context) {
	months, err := h.billingService.ListMonths(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"months": months})
}

// @Summary List Bill Lines
// @Description Get a paginated list of bill lines across months and wings
// @Tags Billing
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param per_page query int false "Items per page" default(20)
// @Param month_key query string false "Filter by month key"
// @Param wing query string false "Filter by wing"
// @Param tenancy_id query int false "Filter by tenancy"
// @Param unpaid query bool false "Only lines not settled"
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /billing/lines [get]
func (h *BillingHandler) Lines(c *gin.Context) {
	query := &repository.BillLineQuery{ListQuery: repository.NewListQuery()}
	query.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	query.PerPage, _ = strconv.Atoi(c.DefaultQuery("per_page", "20"))
	query.MonthKey = c.Query("month_key")
	query.Wing = c.Query("wing")
	if v, err := strconv.ParseUint(c.Query("tenancy_id"), 10, 32); err == nil {
		query.TenancyID = uint(v)
	}
	query.Unpaid = c.Query("unpaid") == "true"

	lines, total, err := h.billingService.ListBillLines(c.Request.Context(), query)
	if err != nil {
		c.JSON(errorStatus(err), gin.H{"error": err.Error()})
		return
	}

	responses := make([]models.BillLineResponse, 0, len(lines))
	for i := range lines {
		responses = append(responses, services.ToBillLineResponse(&lines[i]))
	}

	c.JSON(http.StatusOK, gin.H{
		"bill_lines": responses,
		"pagination": gin.H{
			"page":     query.Page,
			"per_page": query.PerPage,
			"total":    total,
		},
	})
}

// @Summary Get Bill Line
// @Description Get a single bill line with derived payment state
// @Tags Billing
// @Produce json
// @Param bill_line_id path int true "Bill Line ID"
// @Success 200 {object} models.BillLineResponse
// @Failure 404 {object} map[string]string
// @Security BearerAuth
// @Router /billing/lines/{bill_line_id} [get]
func (h *BillingHandler) ShowLine(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("bill_line_id"), 10, 32)
	line, err := h.billingService.FindBillLine(c.Request.Context(), uint(id))
	if err != nil {
		c.JSON(errorStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"bill_line": services.ToBillLineResponse(line)})
}

// @Summary Export Billing Sheet
// @Description Download the billing sheet for a wing and month as XLSX
// @Tags Billing
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param month_key path string true "Month key (YYYY-MM)"
// @Param wing path string true "Wing"
// @Success 200 {file} binary
// @Security BearerAuth
// @Router /billing/{month_key}/{wing}/export [get]
func (h *BillingHandler) ExportXLSX(c *gin.Context) {
	data, filename, err := h.exportService.ExportBillingXLSX(c.Request.Context(), c.Param("month_key"), c.Param("wing"))
	if err != nil {
		c.JSON(errorStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
}

// @Summary Bill Statement PDF
// @Description Download a printable statement for a single bill line
// @Tags Billing
// @Produce application/pdf
// @Param bill_line_id path int true "Bill Line ID"
// @Success 200 {file} binary
// @Security BearerAuth
// @Router /billing/lines/{bill_line_id}/statement [get]
func (h *BillingHandler) StatementPDF(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("bill_line_id"), 10, 32)
	buf, err := h.reportService.GenerateStatementPDF(c.Request.Context(), uint(id))
	if err != nil {
		c.JSON(errorStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=statement_%d.pdf", id))
	c.Data(http.StatusOK, "application/pdf", buf.Bytes())
}
