package services

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"fleet-service/internal/clients"
	"fleet-service/internal/models"
	"fleet-service/internal/repository"
)

// PasswordResetService issues and consumes short-lived password reset
// tokens. Only the sha256 of a token is stored; the raw value exists in
// the reset email alone.
type PasswordResetService struct {
	db                 *gorm.DB
	membershipRepo     *repository.MembershipRepository
	notificationClient *clients.NotificationClient
}

// NewPasswordResetService creates a new password reset service
func NewPasswordResetService(db *gorm.DB, membershipRepo *repository.MembershipRepository, notificationClient *clients.NotificationClient) *PasswordResetService {
	return &PasswordResetService{
		db:                 db,
		membershipRepo:     membershipRepo,
		notificationClient: notificationClient,
	}
}

// RequestResetInput carries the reset request plus the client metadata
// recorded alongside the token.
type RequestResetInput struct {
	Email     string `json:"email" validate:"required,email"`
	IPAddress string `json:"-"`
	UserAgent string `json:"-"`
}

// Request issues a reset token for the given email. A request for an
// unknown email is a silent no-op so the endpoint does not reveal which
// addresses have accounts; the handler must answer identically either
// way. Requests beyond the per-window limit return ErrRateLimited,
// which the handler also masks.
func (s *PasswordResetService) Request(ctx context.Context, input *RequestResetInput) error {
	user, err := s.membershipRepo.GetUserByEmail(ctx, input.Email)
	if err != nil {
		return fmt.Errorf("failed to lookup user: %w", err)
	}
	if user == nil {
		log.Printf("[PasswordResetService] Reset requested for unknown email %s, ignoring", maskEmail(input.Email))
		return nil
	}

	// Rate limit: count tokens issued for this user inside the window,
	// consumed or not.
	windowStart := time.Now().Add(-models.PasswordResetRateWindow)
	var issued int64
	if err := s.db.WithContext(ctx).Model(&models.PasswordResetToken{}).
		Where("user_id = ? AND created_at > ?", user.ID, windowStart).
		Count(&issued).Error; err != nil {
		return fmt.Errorf("failed to count recent tokens: %w", err)
	}
	if issued >= models.PasswordResetRateLimit {
		log.Printf("[PasswordResetService] Rate limit hit for user %s", user.ID)
		return ErrRateLimited
	}

	raw, err := generateResetToken()
	if err != nil {
		return fmt.Errorf("failed to generate reset token: %w", err)
	}

	record := &models.PasswordResetToken{
		Token:          hashResetToken(raw),
		UserID:         user.ID,
		ExpiresAt:      time.Now().Add(models.DefaultPasswordResetExpiry),
		RequestedIP:    input.IPAddress,
		RequestedAgent: input.UserAgent,
	}
	if err := s.db.WithContext(ctx).Create(record).Error; err != nil {
		return fmt.Errorf("failed to create reset token: %w", err)
	}

	if s.notificationClient != nil {
		if err := s.notificationClient.SendPasswordResetEmail(ctx, &clients.PasswordResetEmailData{
			Email:     user.Email,
			FirstName: user.FirstName,
			Token:     raw,
			ExpiresIn: "1 hour",
		}); err != nil {
			log.Printf("[PasswordResetService] Failed to send reset email to %s: %v", maskEmail(user.Email), err)
		}
	}
	return nil
}

// Validate checks a raw reset token without consuming it.
func (s *PasswordResetService) Validate(ctx context.Context, raw string) error {
	record, err := s.findToken(ctx, raw)
	if err != nil {
		return err
	}
	if record.Used {
		return ErrTokenAlreadyUsed
	}
	if !record.IsValid(time.Now()) {
		return ErrTokenExpired
	}
	return nil
}

// ResetInput carries the token and the replacement password.
type ResetInput struct {
	Token       string `json:"token" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=8"`
}

// Reset consumes a token and replaces the user's password. The used
// flag is flipped with a compare-and-set inside the transaction so a
// token can be spent at most once.
func (s *PasswordResetService) Reset(ctx context.Context, input *ResetInput) error {
	if len(input.NewPassword) < 8 {
		return NewValidationError("new_password", "password must be at least 8 characters")
	}

	record, err := s.findToken(ctx, input.Token)
	if err != nil {
		return err
	}
	if record.Used {
		return ErrTokenAlreadyUsed
	}
	if !record.IsValid(time.Now()) {
		return ErrTokenExpired
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(input.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now()
		res := tx.Model(&models.PasswordResetToken{}).
			Where("id = ? AND used = false", record.ID).
			Updates(map[string]interface{}{"used": true, "used_at": now})
		if res.Error != nil {
			return fmt.Errorf("failed to mark token used: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrTokenAlreadyUsed
		}

		if err := tx.Model(&models.User{}).
			Where("id = ?", record.UserID).
			Update("password", string(hashed)).Error; err != nil {
			return fmt.Errorf("failed to update password: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	log.Printf("[PasswordResetService] Password reset completed for user %s", record.UserID)
	return nil
}

func (s *PasswordResetService) findToken(ctx context.Context, raw string) (*models.PasswordResetToken, error) {
	var record models.PasswordResetToken
	if err := s.db.WithContext(ctx).Where("token = ?", hashResetToken(raw)).First(&record).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrTokenNotFound
		}
		return nil, fmt.Errorf("failed to lookup reset token: %w", err)
	}
	return &record, nil
}

// generateResetToken returns a 256-bit random token in hex.
func generateResetToken() (string, error) {
	tokenBytes := make([]byte, 32)
	if _, err := rand.Read(tokenBytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(tokenBytes), nil
}

// hashResetToken returns the hex sha256 stored in place of the raw
// token.
func hashResetToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

// maskEmail obscures the local part of an address for log lines.
func maskEmail(email string) string {
	at := strings.Index(email, "@")
	if at <= 1 {
		return "***"
	}
	return email[:1] + "***" + email[at:]
}
