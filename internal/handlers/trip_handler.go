package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"fleet-service/internal/metrics"
	"fleet-service/internal/middleware"
	"fleet-service/internal/services"
)

// TripHandler serves the trip lifecycle endpoints
type TripHandler struct {
	tripService *services.TripService
	metrics     *metrics.Metrics
}

// NewTripHandler creates a new trip handler
func NewTripHandler(tripService *services.TripService, m *metrics.Metrics) *TripHandler {
	return &TripHandler{tripService: tripService, metrics: m}
}

func parseIDParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "Invalid id parameter", err)
		return uuid.Nil, false
	}
	return id, true
}

// Create handles POST /api/v1/trips
func (h *TripHandler) Create(c *gin.Context) {
	var input services.CreateTripInput
	if err := c.ShouldBindJSON(&input); err != nil {
		ErrorResponse(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	trip, err := h.tripService.Create(c.Request.Context(), middleware.GetPrincipal(c), &input)
	if err != nil {
		ServiceErrorResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusCreated, "Trip scheduled", trip)
}

// Get handles GET /api/v1/trips/:id
func (h *TripHandler) Get(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	trip, err := h.tripService.Get(c.Request.Context(), middleware.GetPrincipal(c), id)
	if err != nil {
		ServiceErrorResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "Trip loaded", trip)
}

// List handles GET /api/v1/trips
func (h *TripHandler) List(c *gin.Context) {
	filter := &services.ListTripsFilter{Status: c.Query("status")}
	if companyID := c.Query("company_id"); companyID != "" {
		id, err := uuid.Parse(companyID)
		if err != nil {
			ErrorResponse(c, http.StatusBadRequest, "Invalid company_id filter", err)
			return
		}
		filter.CompanyID = &id
	}
	if driverID := c.Query("driver_id"); driverID != "" {
		id, err := uuid.Parse(driverID)
		if err != nil {
			ErrorResponse(c, http.StatusBadRequest, "Invalid driver_id filter", err)
			return
		}
		filter.DriverID = &id
	}

	trips, err := h.tripService.List(c.Request.Context(), middleware.GetPrincipal(c), filter)
	if err != nil {
		ServiceErrorResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "Trips loaded", trips)
}

// startTripRequest is the optional body for Start.
type startTripRequest struct {
	StartMileage *float64 `json:"start_mileage"`
}

// Start handles POST /api/v1/trips/:id/start
func (h *TripHandler) Start(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var body startTripRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&body); err != nil {
			ErrorResponse(c, http.StatusBadRequest, "Invalid request body", err)
			return
		}
	}

	trip, err := h.tripService.Start(c.Request.Context(), middleware.GetPrincipal(c), id, body.StartMileage)
	if err != nil {
		ServiceErrorResponse(c, err)
		return
	}

	if h.metrics != nil {
		h.metrics.TripTransitions.WithLabelValues("start").Inc()
	}
	SuccessResponse(c, http.StatusOK, "Trip started", trip)
}

// Complete handles POST /api/v1/trips/:id/complete
func (h *TripHandler) Complete(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var input services.CompleteTripInput
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&input); err != nil {
			ErrorResponse(c, http.StatusBadRequest, "Invalid request body", err)
			return
		}
	}

	trip, err := h.tripService.Complete(c.Request.Context(), middleware.GetPrincipal(c), id, &input)
	if err != nil {
		ServiceErrorResponse(c, err)
		return
	}

	if h.metrics != nil {
		h.metrics.TripTransitions.WithLabelValues("complete").Inc()
	}
	SuccessResponse(c, http.StatusOK, "Trip completed", trip)
}

// Cancel handles POST /api/v1/trips/:id/cancel
func (h *TripHandler) Cancel(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	trip, err := h.tripService.Cancel(c.Request.Context(), middleware.GetPrincipal(c), id)
	if err != nil {
		ServiceErrorResponse(c, err)
		return
	}

	if h.metrics != nil {
		h.metrics.TripTransitions.WithLabelValues("cancel").Inc()
	}
	SuccessResponse(c, http.StatusOK, "Trip cancelled", trip)
}

// FileInspection handles POST /api/v1/trips/:id/inspections
func (h *TripHandler) FileInspection(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var input services.FileInspectionInput
	if err := c.ShouldBindJSON(&input); err != nil {
		ErrorResponse(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	inspection, err := h.tripService.FileInspection(c.Request.Context(), middleware.GetPrincipal(c), id, &input)
	if err != nil {
		ServiceErrorResponse(c, err)
		return
	}

	if h.metrics != nil {
		h.metrics.InspectionsFiled.WithLabelValues(input.Type).Inc()
	}
	SuccessResponse(c, http.StatusCreated, "Inspection filed", inspection)
}

// ListInspections handles GET /api/v1/trips/:id/inspections
func (h *TripHandler) ListInspections(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	inspections, err := h.tripService.ListInspections(c.Request.Context(), middleware.GetPrincipal(c), id)
	if err != nil {
		ServiceErrorResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "Inspections loaded", inspections)
}
