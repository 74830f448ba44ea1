package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"fleet-service/internal/middleware"
	"fleet-service/internal/services"
)

// AuthHandler serves tenant signup, login and the principal summary
type AuthHandler struct {
	accountService *services.AccountService
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(accountService *services.AccountService) *AuthHandler {
	return &AuthHandler{accountService: accountService}
}

// Signup handles POST /api/v1/auth/signup
func (h *AuthHandler) Signup(c *gin.Context) {
	var input services.SignupInput
	if err := c.ShouldBindJSON(&input); err != nil {
		ErrorResponse(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	out, err := h.accountService.Signup(c.Request.Context(), &input)
	if err != nil {
		ServiceErrorResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusCreated, "Tenant created successfully", out)
}

// Login handles POST /api/v1/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var input services.LoginInput
	if err := c.ShouldBindJSON(&input); err != nil {
		ErrorResponse(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	out, err := h.accountService.Login(c.Request.Context(), &input)
	if err != nil {
		ServiceErrorResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "Login successful", out)
}

// Me handles GET /api/v1/auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	p := middleware.GetPrincipal(c)
	if p == nil || p.User == nil {
		ErrorResponse(c, http.StatusUnauthorized, "Authentication required", nil)
		return
	}

	summary := gin.H{
		"user": p.User,
	}
	if p.Membership != nil {
		summary["membership"] = p.Membership
		summary["role"] = p.Role()
		summary["company_ids"] = p.CompanyIDs()
	}
	SuccessResponse(c, http.StatusOK, "Principal loaded", summary)
}
