package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"fleet-service/internal/metrics"
	"fleet-service/internal/services"
)

// PasswordResetHandler serves the credential reset endpoints. All three
// are public; the token is the credential.
type PasswordResetHandler struct {
	resetService *services.PasswordResetService
	metrics      *metrics.Metrics
}

// NewPasswordResetHandler creates a new password reset handler
func NewPasswordResetHandler(resetService *services.PasswordResetService, m *metrics.Metrics) *PasswordResetHandler {
	return &PasswordResetHandler{resetService: resetService, metrics: m}
}

// Request handles POST /api/v1/password-resets. The response is the
// same whether the email exists, is unknown, or is rate limited, so the
// endpoint cannot be used to enumerate accounts.
func (h *PasswordResetHandler) Request(c *gin.Context) {
	var input services.RequestResetInput
	if err := c.ShouldBindJSON(&input); err != nil {
		ErrorResponse(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	input.IPAddress = c.ClientIP()
	input.UserAgent = c.Request.UserAgent()

	err := h.resetService.Request(c.Request.Context(), &input)
	if err != nil && !errors.Is(err, services.ErrRateLimited) {
		ServiceErrorResponse(c, err)
		return
	}

	if h.metrics != nil {
		h.metrics.PasswordResets.Inc()
	}
	SuccessResponse(c, http.StatusOK, "If the email is registered, a reset link has been sent", nil)
}

// Validate handles GET /api/v1/password-resets/:token
func (h *PasswordResetHandler) Validate(c *gin.Context) {
	if err := h.resetService.Validate(c.Request.Context(), c.Param("token")); err != nil {
		ServiceErrorResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "Token is valid", nil)
}

// Reset handles POST /api/v1/password-resets/:token
func (h *PasswordResetHandler) Reset(c *gin.Context) {
	var input services.ResetInput
	if err := c.ShouldBindJSON(&input); err != nil {
		ErrorResponse(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	input.Token = c.Param("token")

	if err := h.resetService.Reset(c.Request.Context(), &input); err != nil {
		ServiceErrorResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "Password updated successfully", nil)
}
