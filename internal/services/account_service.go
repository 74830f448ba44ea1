package services

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"fleet-service/internal/auth"
	"fleet-service/internal/models"
	"fleet-service/internal/repository"
)

// AccountService handles tenant signup and credential login.
type AccountService struct {
	db             *gorm.DB
	membershipRepo *repository.MembershipRepository
	tokenIssuer    *auth.TokenIssuer
}

// NewAccountService creates a new account service
func NewAccountService(db *gorm.DB, membershipRepo *repository.MembershipRepository, tokenIssuer *auth.TokenIssuer) *AccountService {
	return &AccountService{
		db:             db,
		membershipRepo: membershipRepo,
		tokenIssuer:    tokenIssuer,
	}
}

// SignupInput carries the tenant signup form.
type SignupInput struct {
	TenantName  string `json:"tenant_name" validate:"required"`
	DomainKey   string `json:"domain_key" validate:"required"`
	AppCode     string `json:"app_code" validate:"required"`
	CompanyName string `json:"company_name" validate:"required"`
	Username    string `json:"username" validate:"required,min=3"`
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required,min=8"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
}

// SignupOutput reports the provisioned tenant and its first admin.
type SignupOutput struct {
	Tenant     *models.Tenant     `json:"tenant"`
	Company    *models.Company    `json:"company"`
	User       *models.User       `json:"user"`
	Membership *models.Membership `json:"membership"`
}

// Signup provisions a tenant: the tenant record, its first company, the
// admin account and its membership, all in one transaction. Membership
// creation is an explicit step of this operation, not a side effect of
// user creation.
func (s *AccountService) Signup(ctx context.Context, input *SignupInput) (*SignupOutput, error) {
	if input.TenantName == "" || input.CompanyName == "" {
		return nil, NewValidationError("tenant_name", "tenant and company names are required")
	}
	if input.DomainKey == "" || input.AppCode == "" {
		return nil, NewValidationError("domain_key", "domain key and app code are required")
	}
	if len(input.Username) < 3 {
		return nil, NewValidationError("username", "username must be at least 3 characters")
	}
	if len(input.Password) < 8 {
		return nil, NewValidationError("password", "password must be at least 8 characters")
	}
	if !strings.Contains(input.Email, "@") {
		return nil, NewValidationError("email", "a valid email is required")
	}

	emailTaken, err := s.membershipRepo.EmailExists(ctx, input.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}
	if emailTaken {
		return nil, ErrEmailAlreadyRegistered
	}
	usernameTaken, err := s.membershipRepo.UsernameExists(ctx, input.Username)
	if err != nil {
		return nil, fmt.Errorf("failed to check username: %w", err)
	}
	if usernameTaken {
		return nil, ErrUsernameTaken
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	slug, err := s.membershipRepo.GenerateUniqueSlug(ctx, input.CompanyName)
	if err != nil {
		return nil, fmt.Errorf("failed to generate company slug: %w", err)
	}

	out := &SignupOutput{}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing int64
		if err := tx.Model(&models.Tenant{}).
			Where("domain_key = ? OR app_code = ?", input.DomainKey, input.AppCode).
			Count(&existing).Error; err != nil {
			return fmt.Errorf("failed to check tenant uniqueness: %w", err)
		}
		if existing > 0 {
			return NewConflictError("tenant", "domain key or app code is already taken")
		}

		tenant := &models.Tenant{
			Name:      input.TenantName,
			DomainKey: input.DomainKey,
			AppCode:   input.AppCode,
			IsActive:  true,
		}
		if err := tx.Create(tenant).Error; err != nil {
			return fmt.Errorf("failed to create tenant: %w", err)
		}

		company := &models.Company{
			TenantID: &tenant.ID,
			Name:     input.CompanyName,
			Slug:     slug,
			IsActive: true,
		}
		if err := tx.Create(company).Error; err != nil {
			return fmt.Errorf("failed to create company: %w", err)
		}

		user := &models.User{
			Username:  input.Username,
			Email:     input.Email,
			Password:  string(hashed),
			FirstName: input.FirstName,
			LastName:  input.LastName,
			Status:    "active",
		}
		if err := tx.Create(user).Error; err != nil {
			return fmt.Errorf("failed to create user: %w", err)
		}

		membership := &models.Membership{
			UserID:    user.ID,
			TenantID:  tenant.ID,
			Role:      models.RoleAdmin,
			Companies: []models.Company{*company},
		}
		if err := tx.Create(membership).Error; err != nil {
			return fmt.Errorf("failed to create membership: %w", err)
		}

		out.Tenant = tenant
		out.Company = company
		out.User = user
		out.Membership = membership
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Printf("[AccountService] Tenant %s provisioned with admin user %s", out.Tenant.ID, out.User.ID)
	return out, nil
}

// LoginInput carries the credential pair.
type LoginInput struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// LoginOutput carries the issued session token.
type LoginOutput struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      *models.User `json:"user"`
}

// Login verifies a credential pair and issues a JWT. Unknown usernames
// and wrong passwords are indistinguishable to the caller.
func (s *AccountService) Login(ctx context.Context, input *LoginInput) (*LoginOutput, error) {
	user, err := s.membershipRepo.GetUserByUsername(ctx, input.Username)
	if err != nil {
		return nil, fmt.Errorf("failed to lookup user: %w", err)
	}
	if user == nil || user.Status != "active" {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(input.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	membership, err := s.membershipRepo.GetMembershipForUser(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load membership: %w", err)
	}
	var tenantID uuid.UUID
	role := ""
	if membership != nil {
		tenantID = membership.TenantID
		role = membership.Role
	}

	token, expiresAt, err := s.tokenIssuer.Issue(user.ID, tenantID, role)
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}
	return &LoginOutput{Token: token, ExpiresAt: expiresAt, User: user}, nil
}
