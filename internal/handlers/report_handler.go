package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rentora/rentora-api/internal/services"
)

type ReportHandler struct {
	reportService *services.ReportService
	exportService *services.ExportService
}

func NewReportHandler(reportService *services.ReportService, exportService *services.ExportService) *ReportHandler {
	return &ReportHandler{reportService: reportService, exportService: exportService}
}

// @Summary Dues Report CSV
// @Description Download the outstanding dues for a month as CSV, optionally restricted to a wing
// @Tags Reports
// @Produce text/csv
// @Param month_key path string true "Month key (YYYY-MM)"
// @Param wing query string false "Filter by wing"
// @Success 200 {file} binary
// @Security BearerAuth
// @Router /reports/dues/{month_key} [get]
func (h *ReportHandler) DuesCSV(c *gin.Context) {
	monthKey := c.Param("month_key")
	buf, err := h.reportService.GenerateDuesCSV(c.Request.Context(), monthKey, c.Query("wing"))
	if err != nil {
		c.JSON(errorStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=dues_%s.csv", monthKey))
	c.Data(http.StatusOK, "text/csv", buf.Bytes())
}

// @Summary Collection Report PDF
// @Description Download the per-wing collection summary for a month as PDF
// @Tags Reports
// @Produce application/pdf
// @Param month_key path string true "Month key (YYYY-MM)"
// @Success 200 {file} binary
// @Security BearerAuth
// @Router /reports/collection/{month_key} [get]
func (h *ReportHandler) CollectionPDF(c *gin.Context) {
	data, filename, err := h.exportService.ExportCollectionPDF(c.Request.Context(), c.Param("month_key"))
	if err != nil {
		c.JSON(errorStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	c.Data(http.StatusOK, "application/pdf", data)
}
