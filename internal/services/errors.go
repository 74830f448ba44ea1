package services

import (
	"errors"
	"fmt"
)

// Sentinel errors for the service layer. Handlers map these onto HTTP
// statuses; none of them are retried automatically.
var (
	// ErrNotFound covers missing resources generally.
	ErrNotFound = errors.New("resource not found")

	// ErrForbidden covers company mismatches and caller entitlement
	// failures beyond the plain role gate.
	ErrForbidden = errors.New("operation not permitted")

	// Token lifecycle failures.
	ErrTokenNotFound    = errors.New("token not found")
	ErrTokenExpired     = errors.New("token has expired")
	ErrTokenAlreadyUsed = errors.New("token has already been used")

	// Invitation issuance failures.
	ErrRoleNotPermitted           = errors.New("inviter role does not permit the target role")
	ErrCompanyAccessDenied        = errors.New("company outside inviter's membership")
	ErrEmailAlreadyRegistered     = errors.New("email already has an account")
	ErrUsernameTaken              = errors.New("username already taken")
	ErrDuplicatePendingInvitation = errors.New("a pending invitation already exists for this email")
	ErrDriverAlreadyLinked        = errors.New("driver already has a linked account")

	// ErrGuardNotSatisfied is the state machine's precondition failure:
	// wrong current state, or a missing inspection gate.
	ErrGuardNotSatisfied = errors.New("state transition guard not satisfied")

	// ErrRateLimited caps password reset issuance.
	ErrRateLimited = errors.New("too many requests")

	// ErrInvalidCredentials covers both unknown usernames and wrong
	// passwords; the two must stay indistinguishable.
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// ValidationError represents a validation failure on a named field.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// NewValidationError creates a new validation error
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// IsValidationError checks if an error is a ValidationError
func IsValidationError(err error) (*ValidationError, bool) {
	var validationErr *ValidationError
	if errors.As(err, &validationErr) {
		return validationErr, true
	}
	return nil, false
}

// ConflictError represents a resource conflict (e.g., already exists)
type ConflictError struct {
	Resource string `json:"resource"`
	Message  string `json:"message"`
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s conflict: %s", e.Resource, e.Message)
}

// NewConflictError creates a new conflict error
func NewConflictError(resource, message string) *ConflictError {
	return &ConflictError{Resource: resource, Message: message}
}

// IsConflictError checks if an error is a ConflictError
func IsConflictError(err error) (*ConflictError, bool) {
	var conflictErr *ConflictError
	if errors.As(err, &conflictErr) {
		return conflictErr, true
	}
	return nil, false
}
