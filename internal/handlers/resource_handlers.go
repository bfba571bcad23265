package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rentora/rentora-api/internal/repository"
	"github.com/rentora/rentora-api/internal/services"
)

// Handlers for the simple CRUD resources: tenants and units.

type TenantHandler struct {
	tenantService *services.TenantService
}

func NewTenantHandler(tenantService *services.TenantService) *TenantHandler {
	return &TenantHandler{tenantService: tenantService}
}

// @Summary List Tenants
// @Description Get a paginated list of tenants
// @Tags Tenants
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param per_page query int false "Items per page" default(20)
// @Param search query string false "Search by name or phone"
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /tenants [get]
func (h *TenantHandler) Index(c *gin.Context) {
	query := repository.NewListQuery()
	query.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	query.PerPage, _ = strconv.Atoi(c.DefaultQuery("per_page", "20"))
	query.Search = c.Query("search")

	tenants, total, err := h.tenantService.List(c.Request.Context(), query)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"tenants": tenants,
		"pagination": gin.H{
			"page":     query.Page,
			"per_page": query.PerPage,
			"total":    total,
		},
	})
}

// @Summary Get Tenant
// @Description Get a tenant by ID
// @Tags Tenants
// @Produce json
// @Param tenant_id path int true "Tenant ID"
// @Success 200 {object} models.Tenant
// @Failure 404 {object} map[string]string
// @Security BearerAuth
// @Router /tenants/{tenant_id} [get]
func (h *TenantHandler) Show(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("tenant_id"), 10, 32)
	tenant, err := h.tenantService.FindByID(c.Request.Context(), uint(id))
	if err != nil {
		c.JSON(errorStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"tenant": tenant})
}

// @Summary Create Tenant
// @Description Create a new tenant
// @Tags Tenants
// @Accept json
// @Produce json
// @Param request body services.TenantInput true "Tenant"
// @Success 201 {object} models.Tenant
// @Security BearerAuth
// @Router /tenants [post]
func (h *TenantHandler) Create(c *gin.Context) {
	var input services.TenantInput
	if err := BindNestedOrFlat(c, "tenant", &input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	tenant, err := h.tenantService.Create(c.Request.Context(), &input)
	if err != nil {
		c.JSON(errorStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"tenant": tenant})
}

// @Summary Update Tenant
// @Description Update a tenant
// @Tags Tenants
// @Accept json
// @Produce json
// @Param tenant_id path int true "Tenant ID"
// @Param request body services.TenantInput true "Tenant"
// @Success 200 {object} models.Tenant
// @Security BearerAuth
// @Router /tenants/{tenant_id} [put]
func (h *TenantHandler) Update(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("tenant_id"), 10, 32)
	var input services.TenantInput
	if err := BindNestedOrFlat(c, "tenant", &input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	tenant, err := h.tenantService.Update(c.Request.Context(), uint(id), &input)
	if err != nil {
		c.JSON(errorStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"tenant": tenant})
}

// @Summary Delete Tenant
// @Description Soft-delete a tenant; billing history is preserved
// @Tags Tenants
// @Produce json
// @Param tenant_id path int true "Tenant ID"
// @Success 200 {object} map[string]string
// @Security BearerAuth
// @Router /tenants/{tenant_id} [delete]
func (h *TenantHandler) Delete(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("tenant_id"), 10, 32)
	if err := h.tenantService.Delete(c.Request.Context(), uint(id)); err != nil {
		c.JSON(errorStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Tenant deleted"})
}

type UnitHandler struct {
	unitService *services.UnitService
}

func NewUnitHandler(unitService *services.UnitService) *UnitHandler {
	return &UnitHandler{unitService: unitService}
}

// @Summary List Units
// @Description Get all units, optionally filtered by wing
// @Tags Units
// @Produce json
// @Param wing query string false "Filter by wing"
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /units [get]
func (h *UnitHandler) Index(c *gin.Context) {
	var err error
	var units interface{}
	if wing := c.Query("wing"); wing != "" {
		units, err = h.unitService.FindByWing(c.Request.Context(), wing)
	} else {
		units, err = h.unitService.FindAll(c.Request.Context())
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"units": units})
}

// @Summary List Wings
// @Description Get the distinct wings of the property
// @Tags Units
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /units/wings [get]
func (h *UnitHandler) Wings(c *gin.Context) {
	wings, err := h.unitService.ListWings(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"wings": wings})
}

// @Summary Get Unit
// @Description Get a unit by ID
// @Tags Units
// @Produce json
// @Param unit_id path int true "Unit ID"
// @Success 200 {object} models.Unit
// @Failure 404 {object} map[string]string
// @Security BearerAuth
// @Router /units/{unit_id} [get]
func (h *UnitHandler) Show(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("unit_id"), 10, 32)
	unit, err := h.unitService.FindByID(c.Request.Context(), uint(id))
	if err != nil {
		c.JSON(errorStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"unit": unit})
}

// @Summary Create Unit
// @Description Create a new unit
// @Tags Units
// @Accept json
// @Produce json
// @Param request body services.UnitInput true "Unit"
// @Success 201 {object} models.Unit
// @Security BearerAuth
// @Router /units [post]
func (h *UnitHandler) Create(c *gin.Context) {
	var input services.UnitInput
	if err := BindNestedOrFlat(c, "unit", &input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	unit, err := h.unitService.Create(c.Request.Context(), &input)
	if err != nil {
		c.JSON(errorStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"unit": unit})
}

// @Summary Update Unit
// @Description Update a unit
// @Tags Units
// @Accept json
// @Produce json
// @Param unit_id path int true "Unit ID"
// @Param request body services.UnitInput true "Unit"
// @Success 200 {object} models.Unit
// @Security BearerAuth
// @Router /units/{unit_id} [put]
func (h *UnitHandler) Update(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("unit_id"), 10, 32)
	var input services.UnitInput
	if err := BindNestedOrFlat(c, "unit", &input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	unit, err := h.unitService.Update(c.Request.Context(), uint(id), &input)
	if err != nil {
		c.JSON(errorStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"unit": unit})
}

// @Summary Delete Unit
// @Description Delete a unit
// @Tags Units
// @Produce json
// @Param unit_id path int true "Unit ID"
// @Success 200 {object} map[string]string
// @Security BearerAuth
// @Router /units/{unit_id} [delete]
func (h *UnitHandler) Delete(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("unit_id"), 10, 32)
	if err := h.unitService.Delete(c.Request.Context(), uint(id)); err != nil {
		c.JSON(errorStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Unit deleted"})
}
