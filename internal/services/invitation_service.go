package services

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"fleet-service/internal/authz"
	"fleet-service/internal/clients"
	"fleet-service/internal/models"
	natsclient "fleet-service/internal/nats"
	"fleet-service/internal/repository"
)

// InvitationService issues and redeems the single-use tokens that
// create accounts under a tenant's company hierarchy.
type InvitationService struct {
	db                 *gorm.DB
	membershipRepo     *repository.MembershipRepository
	notificationClient *clients.NotificationClient
	events             *natsclient.Client
}

// NewInvitationService creates a new invitation service
func NewInvitationService(db *gorm.DB, membershipRepo *repository.MembershipRepository, notificationClient *clients.NotificationClient, events *natsclient.Client) *InvitationService {
	return &InvitationService{
		db:                 db,
		membershipRepo:     membershipRepo,
		notificationClient: notificationClient,
		events:             events,
	}
}

// CanIssueRole reports whether an inviter role may issue an invitation
// for the target role: admin may issue any role, user may issue only
// driver, driver may issue none.
func CanIssueRole(inviterRole, targetRole string) bool {
	if !models.IsValidRole(targetRole) {
		return false
	}
	switch inviterRole {
	case models.RoleAdmin:
		return true
	case models.RoleUser:
		return targetRole == models.RoleDriver
	default:
		return false
	}
}

// IssueInvitationInput carries the pending-account details for Issue.
type IssueInvitationInput struct {
	Email      string                         `json:"email" validate:"required,email"`
	Role       string                         `json:"role" validate:"required,oneof=admin user driver"`
	CompanyIDs []uuid.UUID                    `json:"company_ids" validate:"required,min=1"`
	FirstName  string                         `json:"first_name"`
	LastName   string                         `json:"last_name"`
	Driver     models.InvitationDriverOptions `json:"driver"`
}

// IssueInvitationOutput is the caller-visible result of Issue. Token is
// a bearer secret; it goes to the invited email and the issuing caller
// only.
type IssueInvitationOutput struct {
	Token          string    `json:"token"`
	ActivationPath string    `json:"activation_path"`
	ExpiresAt      time.Time `json:"expires_at"`
}

// Issue creates an invitation token for a pending account. The
// permission matrix is checked before anything else; company access,
// email availability and the single-pending-invite invariant follow.
// Email delivery is fire-and-forget.
func (s *InvitationService) Issue(ctx context.Context, inviter *authz.Principal, input *IssueInvitationInput) (*IssueInvitationOutput, error) {
	if inviter == nil || inviter.Membership == nil {
		return nil, authz.ErrUnauthenticated
	}

	// Role permission gate comes first, before any data-dependent check.
	if !CanIssueRole(inviter.Role(), input.Role) {
		return nil, ErrRoleNotPermitted
	}

	if input.Email == "" {
		return nil, NewValidationError("email", "email is required")
	}
	if len(input.CompanyIDs) == 0 {
		return nil, NewValidationError("company_ids", "at least one company is required")
	}
	for _, id := range input.CompanyIDs {
		if !inviter.HasCompany(id) {
			return nil, ErrCompanyAccessDenied
		}
	}

	exists, err := s.membershipRepo.EmailExists(ctx, input.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}
	if exists {
		return nil, ErrEmailAlreadyRegistered
	}

	// Single-pending-invite invariant: at most one unused, unexpired
	// token per target email.
	var pending int64
	if err := s.db.WithContext(ctx).Model(&models.InvitationToken{}).
		Where("email = ? AND used = false AND expires_at > ?", input.Email, time.Now()).
		Count(&pending).Error; err != nil {
		return nil, fmt.Errorf("failed to check pending invitations: %w", err)
	}
	if pending > 0 {
		return nil, ErrDuplicatePendingInvitation
	}

	if err := s.validateDriverOptions(ctx, input); err != nil {
		return nil, err
	}

	token, err := generateInvitationToken()
	if err != nil {
		return nil, fmt.Errorf("failed to generate invitation token: %w", err)
	}

	payload, err := models.NewJSONB(models.InvitationPayload{
		Role:       input.Role,
		CompanyIDs: input.CompanyIDs,
		FirstName:  input.FirstName,
		LastName:   input.LastName,
		Driver:     input.Driver,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode invitation payload: %w", err)
	}

	record := &models.InvitationToken{
		Token:     token,
		Email:     input.Email,
		TenantID:  inviter.TenantID(),
		CompanyID: input.CompanyIDs[0],
		InvitedBy: inviter.UserID(),
		Payload:   payload,
		ExpiresAt: time.Now().Add(models.DefaultInvitationExpiry),
	}
	if err := s.db.WithContext(ctx).Create(record).Error; err != nil {
		return nil, fmt.Errorf("failed to create invitation: %w", err)
	}

	s.logActivity(ctx, inviter.TenantID(), inviter.UserID(), "invitation.issued", "invitation", &record.ID, map[string]interface{}{
		"email": input.Email,
		"role":  input.Role,
	})

	// Email delivery must never fail the issue operation.
	if s.notificationClient != nil {
		if err := s.notificationClient.SendInvitationEmail(ctx, &clients.InvitationEmailData{
			Email:     input.Email,
			FirstName: input.FirstName,
			Role:      input.Role,
			Token:     token,
			ExpiresIn: "7 days",
		}); err != nil {
			log.Printf("[InvitationService] Failed to send invitation email to %s: %v", maskEmail(input.Email), err)
		}
	}
	if s.events != nil {
		s.events.PublishInvitationIssued(record.TenantID.String(), input.Role)
	}

	return &IssueInvitationOutput{
		Token:          token,
		ActivationPath: fmt.Sprintf("/invitations/%s/accept", token),
		ExpiresAt:      record.ExpiresAt,
	}, nil
}

// validateDriverOptions checks the driver-linkage portion of an
// invitation at issue time.
func (s *InvitationService) validateDriverOptions(ctx context.Context, input *IssueInvitationInput) error {
	switch input.Driver.Mode {
	case "", models.DriverLinkNone, models.DriverLinkCreate:
		return nil
	case models.DriverLinkExisting:
		if input.Driver.DriverID == nil {
			return NewValidationError("driver.driver_id", "driver_id is required for link_existing")
		}
		var driver models.Driver
		if err := s.db.WithContext(ctx).Where("id = ?", *input.Driver.DriverID).First(&driver).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return NewValidationError("driver.driver_id", "driver not found")
			}
			return fmt.Errorf("failed to load driver: %w", err)
		}
		inCompanies := false
		for _, id := range input.CompanyIDs {
			if driver.CompanyID == id {
				inCompanies = true
				break
			}
		}
		if !inCompanies {
			return ErrCompanyAccessDenied
		}
		if driver.HasLinkedAccount() {
			return ErrDriverAlreadyLinked
		}
		return nil
	default:
		return NewValidationError("driver.mode", "unknown driver link mode")
	}
}

// InvitationInfo is the non-secret view of a token for the validate
// endpoint.
type InvitationInfo struct {
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	FirstName string    `json:"first_name,omitempty"`
	LastName  string    `json:"last_name,omitempty"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Validate looks up a token and reports its pending-account details if
// it is still redeemable.
func (s *InvitationService) Validate(ctx context.Context, token string) (*InvitationInfo, error) {
	record, err := s.findToken(ctx, token)
	if err != nil {
		return nil, err
	}
	if record.Used {
		return nil, ErrTokenAlreadyUsed
	}
	if record.IsExpired(time.Now()) {
		return nil, ErrTokenExpired
	}

	payload, err := record.DecodePayload()
	if err != nil {
		return nil, fmt.Errorf("failed to decode invitation payload: %w", err)
	}
	return &InvitationInfo{
		Email:     record.Email,
		Role:      payload.Role,
		FirstName: payload.FirstName,
		LastName:  payload.LastName,
		ExpiresAt: record.ExpiresAt,
	}, nil
}

// RedeemInvitationInput carries the credentials for the new account.
type RedeemInvitationInput struct {
	Username string `json:"username" validate:"required,min=3"`
	Password string `json:"password" validate:"required,min=8"`
}

// RedeemInvitationOutput reports the created account. Warnings carries
// the outcome of the optional driver-link sub-step when it was a no-op.
type RedeemInvitationOutput struct {
	User       *models.User       `json:"user"`
	Membership *models.Membership `json:"membership"`
	Warnings   []string           `json:"warnings,omitempty"`
}

// Redeem converts a valid token into a concrete account: user,
// membership and optional driver linkage, all in one transaction. The
// used flag is flipped with a compare-and-set so exactly one concurrent
// redeemer wins; the loser observes ErrTokenAlreadyUsed. The optional
// driver-link sub-step downgrades to a warning instead of failing the
// redemption.
func (s *InvitationService) Redeem(ctx context.Context, token string, input *RedeemInvitationInput) (*RedeemInvitationOutput, error) {
	record, err := s.findToken(ctx, token)
	if err != nil {
		return nil, err
	}
	if record.Used {
		return nil, ErrTokenAlreadyUsed
	}
	if record.IsExpired(time.Now()) {
		return nil, ErrTokenExpired
	}

	if len(input.Username) < 3 {
		return nil, NewValidationError("username", "username must be at least 3 characters")
	}
	if len(input.Password) < 8 {
		return nil, NewValidationError("password", "password must be at least 8 characters")
	}

	payload, err := record.DecodePayload()
	if err != nil {
		return nil, fmt.Errorf("failed to decode invitation payload: %w", err)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	out := &RedeemInvitationOutput{}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Compare-and-set on the used flag serializes concurrent
		// redemptions: the row lock holds the loser until the winner
		// commits, and its update then matches zero rows.
		now := time.Now()
		res := tx.Model(&models.InvitationToken{}).
			Where("id = ? AND used = false", record.ID).
			Updates(map[string]interface{}{"used": true, "used_at": now})
		if res.Error != nil {
			return fmt.Errorf("failed to mark token used: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrTokenAlreadyUsed
		}

		taken, err := s.usernameExistsTx(tx, input.Username)
		if err != nil {
			return err
		}
		if taken {
			return ErrUsernameTaken
		}

		user := &models.User{
			Username:  input.Username,
			Email:     record.Email,
			Password:  string(hashed),
			FirstName: payload.FirstName,
			LastName:  payload.LastName,
			Status:    "active",
		}
		if err := tx.Create(user).Error; err != nil {
			return fmt.Errorf("failed to create user: %w", err)
		}

		companies, err := s.companiesTx(tx, payload.CompanyIDs)
		if err != nil {
			return err
		}

		membership := &models.Membership{
			UserID:    user.ID,
			TenantID:  record.TenantID,
			Role:      payload.Role,
			Companies: companies,
		}
		if err := tx.Create(membership).Error; err != nil {
			return fmt.Errorf("failed to create membership: %w", err)
		}

		// Optional driver linkage. Lenient by design: a no-op link is a
		// warning, never a redemption failure.
		if warning := s.linkDriverTx(tx, payload, user, membership); warning != "" {
			out.Warnings = append(out.Warnings, warning)
		}

		if err := tx.Save(membership).Error; err != nil {
			return fmt.Errorf("failed to update membership: %w", err)
		}

		out.User = user
		out.Membership = membership
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logActivity(ctx, record.TenantID, out.User.ID, "invitation.accepted", "invitation", &record.ID, map[string]interface{}{
		"role": payload.Role,
	})
	if s.events != nil {
		s.events.PublishInvitationAccepted(record.TenantID.String(), payload.Role)
	}

	return out, nil
}

// linkDriverTx performs the driver-link sub-step inside the redemption
// transaction. It returns a warning message for soft failures and ""
// on success or when no linkage was requested.
func (s *InvitationService) linkDriverTx(tx *gorm.DB, payload *models.InvitationPayload, user *models.User, membership *models.Membership) string {
	switch payload.Driver.Mode {
	case "", models.DriverLinkNone:
		return ""

	case models.DriverLinkExisting:
		if payload.Driver.DriverID == nil {
			return "driver link skipped: no driver id in invitation payload"
		}
		var driver models.Driver
		if err := tx.Where("id = ?", *payload.Driver.DriverID).First(&driver).Error; err != nil {
			log.Printf("[InvitationService] Driver link skipped, driver %s not found", *payload.Driver.DriverID)
			return "driver link skipped: driver record no longer exists"
		}
		if driver.HasLinkedAccount() {
			log.Printf("[InvitationService] Driver %s already linked to an account, link step is a no-op", driver.ID)
			return "driver already has a linked account; link step skipped"
		}
		driver.UserID = &user.ID
		if err := tx.Save(&driver).Error; err != nil {
			log.Printf("[InvitationService] Failed to link driver %s: %v", driver.ID, err)
			return "driver link failed; account created without linkage"
		}
		membership.DriverID = &driver.ID
		return ""

	case models.DriverLinkCreate:
		if len(payload.CompanyIDs) == 0 {
			return "driver creation skipped: invitation carries no companies"
		}
		driver := &models.Driver{
			CompanyID: payload.CompanyIDs[0],
			UserID:    &user.ID,
			FirstName: payload.FirstName,
			LastName:  payload.LastName,
			Phone:     payload.Driver.Phone,
			State:     payload.Driver.State,
			IsActive:  true,
		}
		if err := tx.Create(driver).Error; err != nil {
			log.Printf("[InvitationService] Failed to create driver during redemption: %v", err)
			return "driver creation failed; account created without a driver record"
		}
		membership.DriverID = &driver.ID
		return ""

	default:
		return "driver link skipped: unknown link mode in payload"
	}
}

func (s *InvitationService) findToken(ctx context.Context, token string) (*models.InvitationToken, error) {
	var record models.InvitationToken
	if err := s.db.WithContext(ctx).Where("token = ?", token).First(&record).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrTokenNotFound
		}
		return nil, fmt.Errorf("failed to lookup token: %w", err)
	}
	return &record, nil
}

func (s *InvitationService) usernameExistsTx(tx *gorm.DB, username string) (bool, error) {
	var count int64
	if err := tx.Model(&models.User{}).Where("username = ?", username).Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check username: %w", err)
	}
	return count > 0, nil
}

func (s *InvitationService) companiesTx(tx *gorm.DB, ids []uuid.UUID) ([]models.Company, error) {
	var companies []models.Company
	if err := tx.Where("id IN ?", ids).Find(&companies).Error; err != nil {
		return nil, fmt.Errorf("failed to load companies: %w", err)
	}
	if len(companies) != len(ids) {
		return nil, ErrCompanyAccessDenied
	}
	return companies, nil
}

func (s *InvitationService) logActivity(ctx context.Context, tenantID, userID uuid.UUID, action, resourceType string, resourceID *uuid.UUID, details map[string]interface{}) {
	entry := &models.ActivityLog{
		TenantID:     tenantID,
		UserID:       userID,
		Action:       action,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		Details:      models.MustNewJSONB(details),
	}
	if err := s.membershipRepo.LogActivity(ctx, entry); err != nil {
		log.Printf("[InvitationService] Warning: failed to log activity %s: %v", action, err)
	}
}

// generateInvitationToken returns a 256-bit random token in URL-safe
// base64.
func generateInvitationToken() (string, error) {
	tokenBytes := make([]byte, 32)
	if _, err := rand.Read(tokenBytes); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(tokenBytes), nil
}
