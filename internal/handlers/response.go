package handlers

import (
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"fleet-service/internal/authz"
	"fleet-service/internal/middleware"
	"fleet-service/internal/services"
)

// ErrorResponse sends a standardized error response
// Internal errors are logged but not exposed to clients
func ErrorResponse(c *gin.Context, statusCode int, message string, err error) {
	requestID := middleware.GetRequestID(c)

	if err != nil {
		log.Printf("[ERROR] [%s] %s: %v", requestID, message, err)
	}

	response := gin.H{
		"success":    false,
		"message":    message,
		"request_id": requestID,
		"timestamp":  time.Now().UTC().Format(time.RFC3339),
	}
	if gin.Mode() == gin.DebugMode && err != nil {
		response["error_details"] = err.Error()
	}

	c.JSON(statusCode, response)
}

// SuccessResponse sends a standardized success response
func SuccessResponse(c *gin.Context, statusCode int, message string, data interface{}) {
	response := gin.H{
		"success":    true,
		"message":    message,
		"request_id": middleware.GetRequestID(c),
		"timestamp":  time.Now().UTC().Format(time.RFC3339),
	}
	if data != nil {
		response["data"] = data
	}

	c.JSON(statusCode, response)
}

// ServiceErrorResponse maps a service-layer error onto its HTTP status.
// Unknown errors are treated as internal and not exposed.
func ServiceErrorResponse(c *gin.Context, err error) {
	switch {
	case errors.Is(err, authz.ErrUnauthenticated):
		ErrorResponse(c, http.StatusUnauthorized, "Authentication required", nil)
	case errors.Is(err, services.ErrInvalidCredentials):
		ErrorResponse(c, http.StatusUnauthorized, "Invalid username or password", nil)
	case errors.Is(err, authz.ErrNoMembership),
		errors.Is(err, authz.ErrInsufficientRole),
		errors.Is(err, services.ErrForbidden),
		errors.Is(err, services.ErrRoleNotPermitted),
		errors.Is(err, services.ErrCompanyAccessDenied):
		ErrorResponse(c, http.StatusForbidden, "Operation not permitted", nil)
	case errors.Is(err, services.ErrNotFound),
		errors.Is(err, services.ErrTokenNotFound):
		ErrorResponse(c, http.StatusNotFound, "Resource not found", nil)
	case errors.Is(err, services.ErrTokenExpired):
		ErrorResponse(c, http.StatusGone, "Token has expired", nil)
	case errors.Is(err, services.ErrTokenAlreadyUsed):
		ErrorResponse(c, http.StatusConflict, "Token has already been used", nil)
	case errors.Is(err, services.ErrEmailAlreadyRegistered):
		ErrorResponse(c, http.StatusConflict, "Email already has an account", nil)
	case errors.Is(err, services.ErrUsernameTaken):
		ErrorResponse(c, http.StatusConflict, "Username is already taken", nil)
	case errors.Is(err, services.ErrDuplicatePendingInvitation):
		ErrorResponse(c, http.StatusConflict, "A pending invitation already exists for this email", nil)
	case errors.Is(err, services.ErrDriverAlreadyLinked):
		ErrorResponse(c, http.StatusConflict, "Driver already has a linked account", nil)
	case errors.Is(err, services.ErrGuardNotSatisfied):
		ErrorResponse(c, http.StatusUnprocessableEntity, "State transition guard not satisfied", nil)
	case errors.Is(err, services.ErrRateLimited):
		ErrorResponse(c, http.StatusTooManyRequests, "Too many requests", nil)
	default:
		if validationErr, ok := services.IsValidationError(err); ok {
			ErrorResponse(c, http.StatusBadRequest, validationErr.Error(), nil)
			return
		}
		if conflictErr, ok := services.IsConflictError(err); ok {
			ErrorResponse(c, http.StatusConflict, conflictErr.Message, nil)
			return
		}
		ErrorResponse(c, http.StatusInternalServerError, "Internal server error", err)
	}
}
