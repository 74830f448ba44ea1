package authz

import (
	"errors"

	"github.com/google/uuid"
	"fleet-service/internal/models"
)

// Sentinel failures of the scoping engine. All three are terminal for a
// request - they surface as 401/403/empty results, never panics.
var (
	ErrUnauthenticated  = errors.New("authentication required")
	ErrNoMembership     = errors.New("principal has no membership")
	ErrInsufficientRole = errors.New("insufficient role")
)

// Principal is an authenticated account together with its membership,
// companies preloaded. A nil *Principal means unauthenticated.
type Principal struct {
	User       *models.User
	Membership *models.Membership
}

// UserID returns the principal's user id, or uuid.Nil if
// unauthenticated.
func (p *Principal) UserID() uuid.UUID {
	if p == nil || p.User == nil {
		return uuid.Nil
	}
	return p.User.ID
}

// TenantID returns the principal's tenant id, or uuid.Nil without a
// membership.
func (p *Principal) TenantID() uuid.UUID {
	if p == nil || p.Membership == nil {
		return uuid.Nil
	}
	return p.Membership.TenantID
}

// Role returns the principal's membership role, or "" without one.
func (p *Principal) Role() string {
	if p == nil || p.Membership == nil {
		return ""
	}
	return p.Membership.Role
}

// CompanyIDs returns the principal's visible company ids. Empty for an
// unauthenticated principal or one without a membership.
func (p *Principal) CompanyIDs() []uuid.UUID {
	if p == nil || p.Membership == nil {
		return nil
	}
	return p.Membership.CompanyIDs()
}

// HasCompany reports whether the principal's membership includes the
// given company.
func (p *Principal) HasCompany(companyID uuid.UUID) bool {
	if p == nil || p.Membership == nil {
		return false
	}
	return p.Membership.HasCompany(companyID)
}

// DriverID returns the linked driver record id for a driver-role
// principal, or nil.
func (p *Principal) DriverID() *uuid.UUID {
	if p == nil || p.Membership == nil {
		return nil
	}
	return p.Membership.DriverID
}

// RequireRole enforces a minimum-role gate against the ordered role
// hierarchy (admin > user > driver).
func RequireRole(p *Principal, minimum string) error {
	if p == nil || p.User == nil {
		return ErrUnauthenticated
	}
	if p.Membership == nil {
		return ErrNoMembership
	}
	if !models.RoleAtLeast(p.Membership.Role, minimum) {
		return ErrInsufficientRole
	}
	return nil
}
