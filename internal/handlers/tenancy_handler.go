package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rentora/rentora-api/internal/repository"
	"github.com/rentora/rentora-api/internal/services"
)

type TenancyHandler struct {
	tenancyService *services.TenancyService
	rentService    *services.RentService
}

func NewTenancyHandler(tenancyService *services.TenancyService, rentService *services.RentService) *TenancyHandler {
	return &TenancyHandler{tenancyService: tenancyService, rentService: rentService}
}

// @Summary List Tenancies
// @Description Get a paginated list of tenancies with tenant and unit details
// @Tags Tenancies
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param per_page query int false "Items per page" default(20)
// @Param tenant_id query int false "Filter by tenant"
// @Param unit_id query int false "Filter by unit"
// @Param wing query string false "Filter by wing"
// @Param status query string false "Filter by status (active/ended)"
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /tenancies [get]
func (h *TenancyHandler) Index(c *gin.Context) {
	query := &repository.TenancyQuery{ListQuery: repository.NewListQuery()}
	query.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	query.PerPage, _ = strconv.Atoi(c.DefaultQuery("per_page", "20"))
	if v, err := strconv.ParseUint(c.Query("tenant_id"), 10, 32); err == nil {
		query.TenantID = uint(v)
	}
	if v, err := strconv.ParseUint(c.Query("unit_id"), 10, 32); err == nil {
		query.UnitID = uint(v)
	}
	query.Wing = c.Query("wing")
	query.Status = c.Query("status")

	tenancies, total, err := h.tenancyService.List(c.Request.Context(), query)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"tenancies": tenancies,
		"pagination": gin.H{
			"page":     query.Page,
			"per_page": query.PerPage,
			"total":    total,
		},
	})
}

// @Summary Get Tenancy
// @Description Get a tenancy by ID
// @Tags Tenancies
// @Produce json
// @Param tenancy_id path int true "Tenancy ID"
// @Success 200 {object} models.Tenancy
// @Failure 404 {object} map[string]string
// @Security BearerAuth
// @Router /tenancies/{tenancy_id} [get]
func (h *TenancyHandler) Show(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("tenancy_id"), 10, 32)
	tenancy, err := h.tenancyService.FindByID(c.Request.Context(), uint(id))
	if err != nil {
		c.JSON(errorStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"tenancy": tenancy})
}

// @Summary Create Tenancy
// @Description Occupy a unit with a tenant. An active tenancy for the same pair is ended first.
// @Tags Tenancies
// @Accept json
// @Produce json
// @Param request body services.CreateTenancyInput true "Tenancy"
// @Success 201 {object} models.Tenancy
// @Failure 422 {object} map[string]string
// @Security BearerAuth
// @Router /tenancies [post]
func (h *TenancyHandler) Create(c *gin.Context) {
	var input services.CreateTenancyInput
	if err := BindNestedOrFlat(c, "tenancy", &input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if input.TenantID == 0 || input.UnitID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "tenant_id and unit_id are required"})
		return
	}

	tenancy, err := h.tenancyService.Create(c.Request.Context(), &input)
	if err != nil {
		c.JSON(errorStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"tenancy": tenancy})
}

// @Summary Update Tenancy
// @Description Update tenancy terms. A rent amount in the payload writes a revision instead of mutating history.
// @Tags Tenancies
// @Accept json
// @Produce json
// @Param tenancy_id path int true "Tenancy ID"
// @Param request body services.UpdateTenancyInput true "Tenancy"
// @Success 200 {object} models.Tenancy
// @Security BearerAuth
// @Router /tenancies/{tenancy_id} [put]
func (h *TenancyHandler) Update(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("tenancy_id"), 10, 32)
	var input services.UpdateTenancyInput
	if err := BindNestedOrFlat(c, "tenancy", &input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	tenancy, err := h.tenancyService.Update(c.Request.Context(), uint(id), &input)
	if err != nil {
		c.JSON(errorStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"tenancy": tenancy})
}

type EndTenancyRequest struct {
	EndDate *string `json:"end_date"` // YYYY-MM-DD, defaults to today
}

// @Summary End Tenancy
// @Description Mark a tenancy as ended; its billing history stays intact
// @Tags Tenancies
// @Accept json
// @Produce json
// @Param tenancy_id path int true "Tenancy ID"
// @Param request body EndTenancyRequest false "End Date"
// @Success 200 {object} models.Tenancy
// @Failure 422 {object} map[string]string
// @Security BearerAuth
// @Router /tenancies/{tenancy_id}/end [post]
func (h *TenancyHandler) End(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("tenancy_id"), 10, 32)

	var req EndTenancyRequest
	_ = c.ShouldBindJSON(&req) // body is optional

	var endDate *time.Time
	if req.EndDate != nil {
		parsed, err := time.Parse("2006-01-02", *req.EndDate)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "end_date must be YYYY-MM-DD"})
			return
		}
		endDate = &parsed
	}

	tenancy, err := h.tenancyService.End(c.Request.Context(), uint(id), endDate)
	if err != nil {
		c.JSON(errorStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"tenancy": tenancy})
}

// @Summary Reopen Tenancy
// @Description Reactivate an ended tenancy
// @Tags Tenancies
// @Produce json
// @Param tenancy_id path int true "Tenancy ID"
// @Success 200 {object} models.Tenancy
// @Failure 422 {object} map[string]string
// @Security BearerAuth
// @Router /tenancies/{tenancy_id}/reopen [post]
func (h *TenancyHandler) Reopen(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("tenancy_id"), 10, 32)
	tenancy, err := h.tenancyService.Reopen(c.Request.Context(), uint(id))
	if err != nil {
		c.JSON(errorStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"tenancy": tenancy})
}

// @Summary Set Rent
// @Description Record a rent revision effective from a given month. Re-posting the same month overwrites it.
// @Tags Tenancies
// @Accept json
// @Produce json
// @Param tenancy_id path int true "Tenancy ID"
// @Param request body services.UpsertRevisionInput true "Revision"
// @Success 200 {object} models.RentRevision
// @Failure 400 {object} map[string]string
// @Security BearerAuth
// @Router /tenancies/{tenancy_id}/rent [post]
func (h *TenancyHandler) SetRent(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("tenancy_id"), 10, 32)
	var input services.UpsertRevisionInput
	if err := BindNestedOrFlat(c, "revision", &input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	revision, err := h.tenancyService.SetRent(c.Request.Context(), uint(id), &input)
	if err != nil {
		c.JSON(errorStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"revision": revision})
}

// @Summary List Rent Revisions
// @Description Get the rent revision history of a tenancy, newest first
// @Tags Tenancies
// @Produce json
// @Param tenancy_id path int true "Tenancy ID"
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /tenancies/{tenancy_id}/rent [get]
func (h *TenancyHandler) RentRevisions(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("tenancy_id"), 10, 32)
	revisions, err := h.rentService.ListRevisions(c.Request.Context(), uint(id))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"revisions": revisions})
}

// @Summary Get Effective Rent
// @Description Resolve the rent in force for a tenancy as of a month
// @Tags Tenancies
// @Produce json
// @Param tenancy_id path int true "Tenancy ID"
// @Param month query string true "Month key (YYYY-MM)"
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /tenancies/{tenancy_id}/rent/effective [get]
func (h *TenancyHandler) EffectiveRent(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("tenancy_id"), 10, 32)
	month := c.Query("month")
	if month == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "month query parameter is required"})
		return
	}

	rent, err := h.rentService.ResolveEffectiveRent(c.Request.Context(), uint(id), month)
	if err != nil {
		c.JSON(errorStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"tenancy_id": uint(id), "month": month, "rent": rent})
}

// @Summary Delete Rent Revision
// @Description Delete a rent revision by ID
// @Tags Tenancies
// @Produce json
// @Param tenancy_id path int true "Tenancy ID"
// @Param revision_id path int true "Revision ID"
// @Success 200 {object} map[string]string
// @Security BearerAuth
// @Router /tenancies/{tenancy_id}/rent/{revision_id} [delete]
func (h *TenancyHandler) DeleteRentRevision(c *gin.Context) {
	revisionID, _ := strconv.ParseUint(c.Param("revision_id"), 10, 32)
	if err := h.rentService.DeleteRevision(c.Request.Context(), uint(revisionID)); err != nil {
		c.JSON(errorStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Revision deleted"})
}
