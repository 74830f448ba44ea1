package middleware

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"fleet-service/internal/auth"
	"fleet-service/internal/authz"
	"fleet-service/internal/repository"
)

// Context keys
const (
	RequestIDKey = "request_id"
	PrincipalKey = "principal"
)

// RequestID middleware generates or extracts correlation IDs for request tracing
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}

		c.Set(RequestIDKey, requestID)
		c.Header("X-Request-ID", requestID)

		c.Next()
	}
}

// GetRequestID extracts the request ID from gin context
func GetRequestID(c *gin.Context) string {
	if id, exists := c.Get(RequestIDKey); exists {
		return id.(string)
	}
	return ""
}

// StructuredLogger middleware logs requests with structured fields
func StructuredLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		entry := logger.WithFields(logrus.Fields{
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"status":     c.Writer.Status(),
			"duration":   time.Since(start).String(),
			"ip":         c.ClientIP(),
			"request_id": GetRequestID(c),
		})
		if len(c.Errors) > 0 {
			entry.Error(c.Errors.String())
		} else {
			entry.Info("request completed")
		}
	}
}

// Principal authenticates the request from its Bearer token and loads
// the caller's user and membership into the context. Routes behind this
// middleware always see an authenticated principal; membership is still
// optional at this point, RequireRole gates on it.
func Principal(issuer *auth.TokenIssuer, membershipRepo *repository.MembershipRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			abortWithError(c, 401, "authentication required")
			return
		}

		userID, err := issuer.Parse(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			abortWithError(c, 401, "invalid or expired token")
			return
		}

		user, err := membershipRepo.GetUserByID(c.Request.Context(), userID)
		if err != nil {
			abortWithError(c, 500, "failed to load account")
			return
		}
		if user == nil || user.Status != "active" {
			abortWithError(c, 401, "account not found or inactive")
			return
		}

		membership, err := membershipRepo.GetMembershipForUser(c.Request.Context(), userID)
		if err != nil {
			abortWithError(c, 500, "failed to load membership")
			return
		}

		c.Set(PrincipalKey, &authz.Principal{User: user, Membership: membership})
		c.Next()
	}
}

// GetPrincipal extracts the authenticated principal from gin context,
// nil when the route is not behind Principal().
func GetPrincipal(c *gin.Context) *authz.Principal {
	if v, exists := c.Get(PrincipalKey); exists {
		if p, ok := v.(*authz.Principal); ok {
			return p
		}
	}
	return nil
}

// RequireRole gates a route on a minimum membership role
func RequireRole(minimum string) gin.HandlerFunc {
	return func(c *gin.Context) {
		p := GetPrincipal(c)
		if err := authz.RequireRole(p, minimum); err != nil {
			switch err {
			case authz.ErrUnauthenticated:
				abortWithError(c, 401, "authentication required")
			default:
				abortWithError(c, 403, "insufficient permissions")
			}
			return
		}
		c.Next()
	}
}

func abortWithError(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, gin.H{
		"success":    false,
		"message":    message,
		"request_id": GetRequestID(c),
		"timestamp":  time.Now().UTC(),
	})
}
