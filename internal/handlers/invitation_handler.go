package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"fleet-service/internal/metrics"
	"fleet-service/internal/middleware"
	"fleet-service/internal/services"
)

// InvitationHandler serves the invitation lifecycle endpoints. Issue is
// authenticated; validate and accept are public, the token itself is
// the credential.
type InvitationHandler struct {
	invitationService *services.InvitationService
	metrics           *metrics.Metrics
}

// NewInvitationHandler creates a new invitation handler
func NewInvitationHandler(invitationService *services.InvitationService, m *metrics.Metrics) *InvitationHandler {
	return &InvitationHandler{invitationService: invitationService, metrics: m}
}

// Issue handles POST /api/v1/invitations
func (h *InvitationHandler) Issue(c *gin.Context) {
	var input services.IssueInvitationInput
	if err := c.ShouldBindJSON(&input); err != nil {
		ErrorResponse(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	out, err := h.invitationService.Issue(c.Request.Context(), middleware.GetPrincipal(c), &input)
	if err != nil {
		ServiceErrorResponse(c, err)
		return
	}

	if h.metrics != nil {
		h.metrics.InvitationsIssued.Inc()
	}
	SuccessResponse(c, http.StatusCreated, "Invitation issued", out)
}

// Validate handles GET /api/v1/invitations/:token
func (h *InvitationHandler) Validate(c *gin.Context) {
	info, err := h.invitationService.Validate(c.Request.Context(), c.Param("token"))
	if err != nil {
		ServiceErrorResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "Invitation is valid", info)
}

// Accept handles POST /api/v1/invitations/:token/accept
func (h *InvitationHandler) Accept(c *gin.Context) {
	var input services.RedeemInvitationInput
	if err := c.ShouldBindJSON(&input); err != nil {
		ErrorResponse(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	out, err := h.invitationService.Redeem(c.Request.Context(), c.Param("token"), &input)
	if err != nil {
		ServiceErrorResponse(c, err)
		return
	}

	if h.metrics != nil {
		h.metrics.InvitationsRedeemed.Inc()
	}
	SuccessResponse(c, http.StatusCreated, "Account created", out)
}
