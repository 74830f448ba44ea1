package models

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInvitationToken_Validity(t *testing.T) {
	now := time.Now()

	token := &InvitationToken{ExpiresAt: now.Add(24 * time.Hour)}
	assert.True(t, token.IsValid(now))
	assert.False(t, token.IsExpired(now))

	token.Used = true
	assert.False(t, token.IsValid(now), "a used token is terminal")

	expired := &InvitationToken{ExpiresAt: now.Add(-time.Minute)}
	assert.False(t, expired.IsValid(now))
	assert.True(t, expired.IsExpired(now))
}

func TestInvitationToken_PayloadRoundTrip(t *testing.T) {
	companyID := uuid.New()
	driverID := uuid.New()

	payload, err := NewJSONB(InvitationPayload{
		Role:       RoleDriver,
		CompanyIDs: []uuid.UUID{companyID},
		FirstName:  "Alex",
		Driver: InvitationDriverOptions{
			Mode:     DriverLinkExisting,
			DriverID: &driverID,
		},
	})
	require.NoError(t, err)

	token := &InvitationToken{Payload: payload}
	decoded, err := token.DecodePayload()
	require.NoError(t, err)

	assert.Equal(t, RoleDriver, decoded.Role)
	assert.Equal(t, []uuid.UUID{companyID}, decoded.CompanyIDs)
	assert.Equal(t, "Alex", decoded.FirstName)
	assert.Equal(t, DriverLinkExisting, decoded.Driver.Mode)
	require.NotNil(t, decoded.Driver.DriverID)
	assert.Equal(t, driverID, *decoded.Driver.DriverID)
}

func TestPasswordResetToken_Validity(t *testing.T) {
	now := time.Now()

	token := &PasswordResetToken{ExpiresAt: now.Add(time.Hour)}
	assert.True(t, token.IsValid(now))

	token.Used = true
	assert.False(t, token.IsValid(now))

	expired := &PasswordResetToken{ExpiresAt: now.Add(-time.Second)}
	assert.False(t, expired.IsValid(now))
}

func TestRoleAtLeast(t *testing.T) {
	assert.True(t, RoleAtLeast(RoleAdmin, RoleDriver))
	assert.True(t, RoleAtLeast(RoleUser, RoleUser))
	assert.False(t, RoleAtLeast(RoleDriver, RoleUser))
	assert.False(t, RoleAtLeast("", RoleDriver))
	assert.False(t, RoleAtLeast("owner", RoleDriver))
}

func TestMembership_CompanyHelpers(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	m := &Membership{Companies: []Company{{ID: a}, {ID: b}}}

	assert.ElementsMatch(t, []uuid.UUID{a, b}, m.CompanyIDs())
	assert.True(t, m.HasCompany(a))
	assert.False(t, m.HasCompany(uuid.New()))

	empty := &Membership{}
	assert.Empty(t, empty.CompanyIDs())
	assert.False(t, empty.HasCompany(a))
}
