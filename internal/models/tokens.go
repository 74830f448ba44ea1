package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Token expiry windows.
const (
	DefaultInvitationExpiry    = 7 * 24 * time.Hour
	DefaultPasswordResetExpiry = 1 * time.Hour
)

// PasswordResetRateLimit caps reset token issuance per user within
// PasswordResetRateWindow.
const (
	PasswordResetRateLimit  = 3
	PasswordResetRateWindow = 1 * time.Hour
)

// DriverLink selects how invitation redemption attaches a driver
// record to the new account.
const (
	DriverLinkNone     = "none"
	DriverLinkExisting = "link_existing"
	DriverLinkCreate   = "create_new"
)

// InvitationDriverOptions is the driver-linkage portion of an
// invitation payload.
type InvitationDriverOptions struct {
	Mode     string     `json:"mode"` // none, link_existing, create_new
	DriverID *uuid.UUID `json:"driver_id,omitempty"`
	Phone    string     `json:"phone,omitempty"`
	State    string     `json:"state,omitempty"`
}

// InvitationPayload is the pending-account payload carried by an
// invitation token.
type InvitationPayload struct {
	Role       string                  `json:"role"`
	CompanyIDs []uuid.UUID             `json:"company_ids"`
	FirstName  string                  `json:"first_name,omitempty"`
	LastName   string                  `json:"last_name,omitempty"`
	Driver     InvitationDriverOptions `json:"driver"`
}

// InvitationToken is a single-use, expiring bearer token that creates
// an account under the issuing tenant. The token value is an opaque
// secret and must never be logged. At most one unused, unexpired token
// exists per target email.
type InvitationToken struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:uuid_generate_v4()"`
	Token     string    `json:"-" gorm:"unique;not null;size:64;index"`
	Email     string    `json:"email" gorm:"not null;index" validate:"required,email"`
	TenantID  uuid.UUID `json:"tenant_id" gorm:"type:uuid;not null;index"`
	CompanyID uuid.UUID `json:"company_id" gorm:"type:uuid;not null"`
	InvitedBy uuid.UUID `json:"invited_by" gorm:"type:uuid;not null"`
	Payload   JSONB     `json:"payload" gorm:"type:jsonb;not null;default:'{}'"`

	Used      bool       `json:"used" gorm:"default:false;index"`
	ExpiresAt time.Time  `json:"expires_at" gorm:"not null;index"`
	UsedAt    *time.Time `json:"used_at"`
	CreatedAt time.Time  `json:"created_at"`
}

// TableName specifies the table name for InvitationToken
func (InvitationToken) TableName() string {
	return "invitation_tokens"
}

// IsValid is the derived Valid predicate: unused and unexpired at now.
func (t *InvitationToken) IsValid(now time.Time) bool {
	return !t.Used && now.Before(t.ExpiresAt)
}

// IsExpired reports whether the token's expiry has passed.
func (t *InvitationToken) IsExpired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}

// DecodePayload unmarshals the structured payload.
func (t *InvitationToken) DecodePayload() (*InvitationPayload, error) {
	var p InvitationPayload
	if err := json.Unmarshal([]byte(t.Payload), &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// PasswordResetToken shares the invitation token's state shape but
// carries no payload. Token holds the SHA-256 hash of the raw value;
// the raw value is only ever sent to the requesting email.
type PasswordResetToken struct {
	ID     uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:uuid_generate_v4()"`
	Token  string    `json:"-" gorm:"unique;not null;size:64;index"`
	UserID uuid.UUID `json:"user_id" gorm:"type:uuid;not null;index"`
	Email  string    `json:"email" gorm:"not null;index"`

	Used      bool       `json:"used" gorm:"default:false;index"`
	ExpiresAt time.Time  `json:"expires_at" gorm:"not null;index"`
	UsedAt    *time.Time `json:"used_at"`

	RequestedIP    string `json:"requested_ip" gorm:"size:45"`
	RequestedAgent string `json:"requested_agent"`

	CreatedAt time.Time `json:"created_at" gorm:"index"`
}

// TableName specifies the table name for PasswordResetToken
func (PasswordResetToken) TableName() string {
	return "password_reset_tokens"
}

// IsValid is the derived Valid predicate: unused and unexpired at now.
func (t *PasswordResetToken) IsValid(now time.Time) bool {
	return !t.Used && now.Before(t.ExpiresAt)
}

func (t *InvitationToken) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	if t.ExpiresAt.IsZero() {
		t.ExpiresAt = time.Now().Add(DefaultInvitationExpiry)
	}
	return nil
}

func (t *PasswordResetToken) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	if t.ExpiresAt.IsZero() {
		t.ExpiresAt = time.Now().Add(DefaultPasswordResetExpiry)
	}
	return nil
}
