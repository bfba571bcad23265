package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rentora/rentora-api/internal/repository"
	"github.com/rentora/rentora-api/internal/services"
	"github.com/rentora/rentora-api/internal/storage"
	"github.com/rentora/rentora-api/pkg/logger"
)

type PaymentHandler struct {
	paymentService *services.PaymentService
	storage        *storage.LocalStorage
}

func NewPaymentHandler(paymentService *services.PaymentService, store *storage.LocalStorage) *PaymentHandler {
	return &PaymentHandler{paymentService: paymentService, storage: store}
}

// @Summary List Payments
// @Description Get a paginated list of payments
// @Tags Payments
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param per_page query int false "Items per page" default(20)
// @Param bill_line_id query int false "Filter by bill line"
// @Param tenant_id query int false "Filter by tenant"
// @Param mode query string false "Filter by payment mode"
// @Param start_date query string false "From payment date (YYYY-MM-DD)"
// @Param end_date query string false "To payment date (YYYY-MM-DD)"
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /payments [get]
func (h *PaymentHandler) Index(c *gin.Context) {
	query := &repository.PaymentQuery{ListQuery: repository.NewListQuery()}
	query.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	query.PerPage, _ = strconv.Atoi(c.DefaultQuery("per_page", "20"))
	if v, err := strconv.ParseUint(c.Query("bill_line_id"), 10, 32); err == nil {
		query.BillLineID = uint(v)
	}
	if v, err := strconv.ParseUint(c.Query("tenant_id"), 10, 32); err == nil {
		query.TenantID = uint(v)
	}
	query.Mode = c.Query("mode")
	query.StartDate = c.Query("start_date")
	query.EndDate = c.Query("end_date")

	payments, total, err := h.paymentService.ListPayments(c.Request.Context(), query)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"payments": payments,
		"pagination": gin.H{
			"page":     query.Page,
			"per_page": query.PerPage,
			"total":    total,
		},
	})
}

// @Summary Get Payment
// @Description Get a payment by ID
// @Tags Payments
// @Produce json
// @Param payment_id path int true "Payment ID"
// @Success 200 {object} models.Payment
// @Failure 404 {object} map[string]string
// @Security BearerAuth
// @Router /payments/{payment_id} [get]
func (h *PaymentHandler) Show(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("payment_id"), 10, 32)
	payment, err := h.paymentService.FindPayment(c.Request.Context(), uint(id))
	if err != nil {
		c.JSON(errorStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"payment": payment})
}

// @Summary Record Payment
// @Description Record a payment against a bill line and reconcile its paid state. Accepts JSON or a multipart form with an optional receipt file.
// @Tags Payments
// @Accept json
// @Accept multipart/form-data
// @Produce json
// @Param request body services.RecordPaymentInput true "Payment"
// @Success 201 {object} models.Payment
// @Failure 400 {object} map[string]string
// @Security BearerAuth
// @Router /payments [post]
func (h *PaymentHandler) Create(c *gin.Context) {
	var input services.RecordPaymentInput

	isMultipart := strings.HasPrefix(c.GetHeader("Content-Type"), "multipart/form-data")
	if isMultipart {
		if err := h.bindMultipart(c, &input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	} else if err := BindNestedOrFlat(c, "payment", &input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// Nested route carries the bill line in the path
	if param := c.Param("bill_line_id"); param != "" {
		id, err := strconv.ParseUint(param, 10, 32)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid bill line ID"})
			return
		}
		input.BillLineID = uint(id)
	}

	payment, err := h.paymentService.RecordPayment(c.Request.Context(), &input)
	if err != nil {
		c.JSON(errorStatus(err), gin.H{"error": err.Error()})
		return
	}

	// Receipt upload is best-effort; the recorded payment stands even if
	// storing the file fails.
	if isMultipart {
		if file, header, err := c.Request.FormFile("receipt"); err == nil {
			defer file.Close()
			if err := h.paymentService.AttachReceipt(c.Request.Context(), payment.ID, file, header); err != nil {
				logger.Warn("Failed to attach receipt", "payment_id", payment.ID, "error", err)
			}
		}
	}

	c.JSON(http.StatusCreated, gin.H{"payment": payment})
}

func (h *PaymentHandler) bindMultipart(c *gin.Context, input *services.RecordPaymentInput) error {
	if err := c.Request.ParseMultipartForm(storage.MaxFileSize()); err != nil {
		return err
	}
	billLineID, err := strconv.ParseUint(c.PostForm("bill_line_id"), 10, 32)
	if err != nil {
		return err
	}
	amount, err := strconv.ParseFloat(c.PostForm("amount"), 64)
	if err != nil {
		return err
	}
	input.BillLineID = uint(billLineID)
	input.Amount = amount
	input.Mode = c.PostForm("mode")
	if v := c.PostForm("reference"); v != "" {
		input.Reference = &v
	}
	if v := c.PostForm("payment_date"); v != "" {
		input.PaymentDate = &v
	}
	if v := c.PostForm("notes"); v != "" {
		input.Notes = &v
	}
	return nil
}

// @Summary Upload Receipt
// @Description Attach or replace the receipt file of a payment (PDF or image, max 10MB)
// @Tags Payments
// @Accept multipart/form-data
// @Produce json
// @Param payment_id path int true "Payment ID"
// @Param receipt formData file true "Receipt file"
// @Success 200 {object} map[string]string
// @Failure 400 {object} map[string]string
// @Security BearerAuth
// @Router /payments/{payment_id}/receipt [post]
func (h *PaymentHandler) UploadReceipt(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("payment_id"), 10, 32)

	file, header, err := c.Request.FormFile("receipt")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Receipt file is required"})
		return
	}
	defer file.Close()

	if header.Size > storage.MaxFileSize() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "File exceeds the 10MB limit"})
		return
	}
	if !storage.IsValidContentType(header.Header.Get("Content-Type")) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Only PDF and image files are allowed"})
		return
	}

	if err := h.paymentService.AttachReceipt(c.Request.Context(), uint(id), file, header); err != nil {
		c.JSON(errorStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Receipt uploaded"})
}

// @Summary Download Receipt
// @Description Download the receipt file of a payment
// @Tags Payments
// @Produce application/octet-stream
// @Param payment_id path int true "Payment ID"
// @Success 200 {file} binary
// @Failure 404 {object} map[string]string
// @Security BearerAuth
// @Router /payments/{payment_id}/receipt [get]
func (h *PaymentHandler) DownloadReceipt(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("payment_id"), 10, 32)
	path, err := h.paymentService.GetReceiptPath(c.Request.Context(), uint(id))
	if err != nil {
		c.JSON(errorStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.File(path)
}

// @Summary Delete Payment
// @Description Delete a payment and re-reconcile its bill line
// @Tags Payments
// @Produce json
// @Param payment_id path int true "Payment ID"
// @Success 200 {object} map[string]string
// @Security BearerAuth
// @Router /payments/{payment_id} [delete]
func (h *PaymentHandler) Delete(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("payment_id"), 10, 32)
	if err := h.paymentService.DeletePayment(c.Request.Context(), uint(id)); err != nil {
		c.JSON(errorStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Payment deleted"})
}
