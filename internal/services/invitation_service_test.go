package services

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"fleet-service/internal/models"
)

func TestCanIssueRole(t *testing.T) {
	testCases := []struct {
		inviter string
		target  string
		allowed bool
	}{
		{models.RoleAdmin, models.RoleAdmin, true},
		{models.RoleAdmin, models.RoleUser, true},
		{models.RoleAdmin, models.RoleDriver, true},
		{models.RoleUser, models.RoleAdmin, false},
		{models.RoleUser, models.RoleUser, false},
		{models.RoleUser, models.RoleDriver, true},
		{models.RoleDriver, models.RoleAdmin, false},
		{models.RoleDriver, models.RoleUser, false},
		{models.RoleDriver, models.RoleDriver, false},
	}

	for _, tc := range testCases {
		t.Run(tc.inviter+"_invites_"+tc.target, func(t *testing.T) {
			assert.Equal(t, tc.allowed, CanIssueRole(tc.inviter, tc.target))
		})
	}
}

func TestCanIssueRole_UnknownRoles(t *testing.T) {
	assert.False(t, CanIssueRole(models.RoleAdmin, "superadmin"))
	assert.False(t, CanIssueRole(models.RoleAdmin, ""))
	assert.False(t, CanIssueRole("", models.RoleDriver))
	assert.False(t, CanIssueRole("owner", models.RoleDriver))
}

func TestGenerateInvitationToken(t *testing.T) {
	token, err := generateInvitationToken()
	assert.NoError(t, err)
	// 32 bytes in unpadded URL-safe base64.
	assert.Len(t, token, 43)
	assert.NotContains(t, token, "=")

	other, err := generateInvitationToken()
	assert.NoError(t, err)
	assert.NotEqual(t, token, other)
}
