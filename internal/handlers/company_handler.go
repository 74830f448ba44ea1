package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"fleet-service/internal/middleware"
	"fleet-service/internal/services"
)

// CompanyHandler serves the company CRUD endpoints
type CompanyHandler struct {
	companyService *services.CompanyService
}

// NewCompanyHandler creates a new company handler
func NewCompanyHandler(companyService *services.CompanyService) *CompanyHandler {
	return &CompanyHandler{companyService: companyService}
}

// Create handles POST /api/v1/companies
func (h *CompanyHandler) Create(c *gin.Context) {
	var input services.CompanyInput
	if err := c.ShouldBindJSON(&input); err != nil {
		ErrorResponse(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	company, err := h.companyService.Create(c.Request.Context(), middleware.GetPrincipal(c), &input)
	if err != nil {
		ServiceErrorResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusCreated, "Company created", company)
}

// Get handles GET /api/v1/companies/:id
func (h *CompanyHandler) Get(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	company, err := h.companyService.Get(c.Request.Context(), middleware.GetPrincipal(c), id)
	if err != nil {
		ServiceErrorResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "Company loaded", company)
}

// List handles GET /api/v1/companies
func (h *CompanyHandler) List(c *gin.Context) {
	companies, err := h.companyService.List(c.Request.Context(), middleware.GetPrincipal(c))
	if err != nil {
		ServiceErrorResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "Companies loaded", companies)
}

// Update handles PUT /api/v1/companies/:id
func (h *CompanyHandler) Update(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var input services.CompanyInput
	if err := c.ShouldBindJSON(&input); err != nil {
		ErrorResponse(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	company, err := h.companyService.Update(c.Request.Context(), middleware.GetPrincipal(c), id, &input)
	if err != nil {
		ServiceErrorResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "Company updated", company)
}

// Deactivate handles DELETE /api/v1/companies/:id
func (h *CompanyHandler) Deactivate(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if err := h.companyService.Deactivate(c.Request.Context(), middleware.GetPrincipal(c), id); err != nil {
		ServiceErrorResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "Company deactivated", nil)
}
