package authz

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"fleet-service/internal/models"
)

func TestRequireRole_Hierarchy(t *testing.T) {
	testCases := []struct {
		role    string
		minimum string
		wantErr error
	}{
		{models.RoleAdmin, models.RoleAdmin, nil},
		{models.RoleAdmin, models.RoleUser, nil},
		{models.RoleAdmin, models.RoleDriver, nil},
		{models.RoleUser, models.RoleAdmin, ErrInsufficientRole},
		{models.RoleUser, models.RoleUser, nil},
		{models.RoleUser, models.RoleDriver, nil},
		{models.RoleDriver, models.RoleAdmin, ErrInsufficientRole},
		{models.RoleDriver, models.RoleUser, ErrInsufficientRole},
		{models.RoleDriver, models.RoleDriver, nil},
	}

	for _, tc := range testCases {
		t.Run(tc.role+"_needs_"+tc.minimum, func(t *testing.T) {
			p := principalWith(tc.role, uuid.New())
			err := RequireRole(p, tc.minimum)
			if tc.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tc.wantErr)
			}
		})
	}
}

func TestRequireRole_Unauthenticated(t *testing.T) {
	assert.ErrorIs(t, RequireRole(nil, models.RoleDriver), ErrUnauthenticated)

	var p *Principal
	assert.ErrorIs(t, RequireRole(p, models.RoleDriver), ErrUnauthenticated)
}

func TestRequireRole_NoMembership(t *testing.T) {
	p := &Principal{User: &models.User{ID: uuid.New()}}
	assert.ErrorIs(t, RequireRole(p, models.RoleDriver), ErrNoMembership)
}

func TestPrincipal_NilSafety(t *testing.T) {
	var p *Principal

	assert.Equal(t, uuid.Nil, p.UserID())
	assert.Equal(t, uuid.Nil, p.TenantID())
	assert.Equal(t, "", p.Role())
	assert.Empty(t, p.CompanyIDs())
	assert.False(t, p.HasCompany(uuid.New()))
	assert.Nil(t, p.DriverID())
}

func TestPrincipal_CompanyAccess(t *testing.T) {
	mine := uuid.New()
	other := uuid.New()
	p := principalWith(models.RoleUser, mine)

	assert.True(t, p.HasCompany(mine))
	assert.False(t, p.HasCompany(other))
	assert.Equal(t, []uuid.UUID{mine}, p.CompanyIDs())
}
