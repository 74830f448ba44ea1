package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"fleet-service/internal/middleware"
	"fleet-service/internal/services"
)

// DashboardHandler serves the compliance dashboard
type DashboardHandler struct {
	complianceService *services.ComplianceService
}

// NewDashboardHandler creates a new dashboard handler
func NewDashboardHandler(complianceService *services.ComplianceService) *DashboardHandler {
	return &DashboardHandler{complianceService: complianceService}
}

// Compliance handles GET /api/v1/dashboard/compliance
func (h *DashboardHandler) Compliance(c *gin.Context) {
	snapshot, err := h.complianceService.Dashboard(c.Request.Context(), middleware.GetPrincipal(c))
	if err != nil {
		ServiceErrorResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "Compliance dashboard loaded", snapshot)
}
