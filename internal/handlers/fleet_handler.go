package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"fleet-service/internal/middleware"
	"fleet-service/internal/services"
)

// FleetHandler serves the scoped CRUD endpoints for drivers, trucks,
// trailers and maintenance.
type FleetHandler struct {
	fleetService *services.FleetService
}

// NewFleetHandler creates a new fleet handler
func NewFleetHandler(fleetService *services.FleetService) *FleetHandler {
	return &FleetHandler{fleetService: fleetService}
}

// --- Drivers ---

// CreateDriver handles POST /api/v1/drivers
func (h *FleetHandler) CreateDriver(c *gin.Context) {
	var input services.DriverInput
	if err := c.ShouldBindJSON(&input); err != nil {
		ErrorResponse(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	driver, err := h.fleetService.CreateDriver(c.Request.Context(), middleware.GetPrincipal(c), &input)
	if err != nil {
		ServiceErrorResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusCreated, "Driver created", driver)
}

// GetDriver handles GET /api/v1/drivers/:id
func (h *FleetHandler) GetDriver(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	driver, err := h.fleetService.GetDriver(c.Request.Context(), middleware.GetPrincipal(c), id)
	if err != nil {
		ServiceErrorResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "Driver loaded", driver)
}

// ListDrivers handles GET /api/v1/drivers
func (h *FleetHandler) ListDrivers(c *gin.Context) {
	drivers, err := h.fleetService.ListDrivers(c.Request.Context(), middleware.GetPrincipal(c))
	if err != nil {
		ServiceErrorResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "Drivers loaded", drivers)
}

// UpdateDriver handles PUT /api/v1/drivers/:id
func (h *FleetHandler) UpdateDriver(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var input services.DriverInput
	if err := c.ShouldBindJSON(&input); err != nil {
		ErrorResponse(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	driver, err := h.fleetService.UpdateDriver(c.Request.Context(), middleware.GetPrincipal(c), id, &input)
	if err != nil {
		ServiceErrorResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "Driver updated", driver)
}

// DeactivateDriver handles DELETE /api/v1/drivers/:id
func (h *FleetHandler) DeactivateDriver(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if err := h.fleetService.DeactivateDriver(c.Request.Context(), middleware.GetPrincipal(c), id); err != nil {
		ServiceErrorResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "Driver deactivated", nil)
}

// --- Trucks ---

// CreateTruck handles POST /api/v1/trucks
func (h *FleetHandler) CreateTruck(c *gin.Context) {
	var input services.TruckInput
	if err := c.ShouldBindJSON(&input); err != nil {
		ErrorResponse(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	truck, err := h.fleetService.CreateTruck(c.Request.Context(), middleware.GetPrincipal(c), &input)
	if err != nil {
		ServiceErrorResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusCreated, "Truck created", truck)
}

// GetTruck handles GET /api/v1/trucks/:id
func (h *FleetHandler) GetTruck(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	truck, err := h.fleetService.GetTruck(c.Request.Context(), middleware.GetPrincipal(c), id)
	if err != nil {
		ServiceErrorResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "Truck loaded", truck)
}

// ListTrucks handles GET /api/v1/trucks
func (h *FleetHandler) ListTrucks(c *gin.Context) {
	trucks, err := h.fleetService.ListTrucks(c.Request.Context(), middleware.GetPrincipal(c))
	if err != nil {
		ServiceErrorResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "Trucks loaded", trucks)
}

// UpdateTruck handles PUT /api/v1/trucks/:id
func (h *FleetHandler) UpdateTruck(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var input services.TruckInput
	if err := c.ShouldBindJSON(&input); err != nil {
		ErrorResponse(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	truck, err := h.fleetService.UpdateTruck(c.Request.Context(), middleware.GetPrincipal(c), id, &input)
	if err != nil {
		ServiceErrorResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "Truck updated", truck)
}

// --- Trailers ---

// CreateTrailer handles POST /api/v1/trailers
func (h *FleetHandler) CreateTrailer(c *gin.Context) {
	var input services.TrailerInput
	if err := c.ShouldBindJSON(&input); err != nil {
		ErrorResponse(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	trailer, err := h.fleetService.CreateTrailer(c.Request.Context(), middleware.GetPrincipal(c), &input)
	if err != nil {
		ServiceErrorResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusCreated, "Trailer created", trailer)
}

// GetTrailer handles GET /api/v1/trailers/:id
func (h *FleetHandler) GetTrailer(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	trailer, err := h.fleetService.GetTrailer(c.Request.Context(), middleware.GetPrincipal(c), id)
	if err != nil {
		ServiceErrorResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "Trailer loaded", trailer)
}

// ListTrailers handles GET /api/v1/trailers
func (h *FleetHandler) ListTrailers(c *gin.Context) {
	trailers, err := h.fleetService.ListTrailers(c.Request.Context(), middleware.GetPrincipal(c))
	if err != nil {
		ServiceErrorResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "Trailers loaded", trailers)
}

// UpdateTrailer handles PUT /api/v1/trailers/:id
func (h *FleetHandler) UpdateTrailer(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var input services.TrailerInput
	if err := c.ShouldBindJSON(&input); err != nil {
		ErrorResponse(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	trailer, err := h.fleetService.UpdateTrailer(c.Request.Context(), middleware.GetPrincipal(c), id, &input)
	if err != nil {
		ServiceErrorResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "Trailer updated", trailer)
}

// --- Maintenance ---

// CreateMaintenanceRecord handles POST /api/v1/maintenance
func (h *FleetHandler) CreateMaintenanceRecord(c *gin.Context) {
	var input services.MaintenanceInput
	if err := c.ShouldBindJSON(&input); err != nil {
		ErrorResponse(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	record, err := h.fleetService.CreateMaintenanceRecord(c.Request.Context(), middleware.GetPrincipal(c), &input)
	if err != nil {
		ServiceErrorResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusCreated, "Maintenance record created", record)
}

// GetMaintenanceRecord handles GET /api/v1/maintenance/:id
func (h *FleetHandler) GetMaintenanceRecord(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	record, err := h.fleetService.GetMaintenanceRecord(c.Request.Context(), middleware.GetPrincipal(c), id)
	if err != nil {
		ServiceErrorResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "Maintenance record loaded", record)
}

// ListMaintenanceRecords handles GET /api/v1/maintenance
func (h *FleetHandler) ListMaintenanceRecords(c *gin.Context) {
	records, err := h.fleetService.ListMaintenanceRecords(c.Request.Context(), middleware.GetPrincipal(c))
	if err != nil {
		ServiceErrorResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "Maintenance records loaded", records)
}

// --- Maintenance categories ---

// categoryRequest is the body for CreateMaintenanceCategory.
type categoryRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}

// ListMaintenanceCategories handles GET /api/v1/maintenance-categories
func (h *FleetHandler) ListMaintenanceCategories(c *gin.Context) {
	categories, err := h.fleetService.ListMaintenanceCategories(c.Request.Context(), middleware.GetPrincipal(c))
	if err != nil {
		ServiceErrorResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "Maintenance categories loaded", categories)
}

// CreateMaintenanceCategory handles POST /api/v1/maintenance-categories
func (h *FleetHandler) CreateMaintenanceCategory(c *gin.Context) {
	var body categoryRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		ErrorResponse(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	category, err := h.fleetService.CreateMaintenanceCategory(c.Request.Context(), middleware.GetPrincipal(c), body.Name, body.Description)
	if err != nil {
		ServiceErrorResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusCreated, "Maintenance category created", category)
}
