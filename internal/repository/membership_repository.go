package repository

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"fleet-service/internal/models"
	"gorm.io/gorm"
)

// MembershipRepository handles account, membership and company database
// operations.
type MembershipRepository struct {
	db *gorm.DB
}

// NewMembershipRepository creates a new membership repository
func NewMembershipRepository(db *gorm.DB) *MembershipRepository {
	return &MembershipRepository{db: db}
}

// ============================================================================
// User Operations
// ============================================================================

// GetUserByID retrieves a user by id.
func (r *MembershipRepository) GetUserByID(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("id = ?", userID).First(&user).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}

// GetUserByUsername retrieves a user by username. Returns nil, nil when
// no such user exists.
func (r *MembershipRepository) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user by username: %w", err)
	}
	return &user, nil
}

// GetUserByEmail retrieves a user by email. Returns nil, nil when no
// such user exists.
func (r *MembershipRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}
	return &user, nil
}

// UsernameExists reports whether a username is already taken.
func (r *MembershipRepository) UsernameExists(ctx context.Context, username string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.User{}).
		Where("username = ?", username).Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check username: %w", err)
	}
	return count > 0, nil
}

// EmailExists reports whether an email already has an account.
func (r *MembershipRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.User{}).
		Where("email = ?", email).Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check email: %w", err)
	}
	return count > 0, nil
}

// ============================================================================
// Membership Operations
// ============================================================================

// GetMembershipForUser retrieves a user's membership with its tenant
// and companies preloaded. Returns nil, nil when the user has no
// membership.
func (r *MembershipRepository) GetMembershipForUser(ctx context.Context, userID uuid.UUID) (*models.Membership, error) {
	var membership models.Membership
	if err := r.db.WithContext(ctx).
		Preload("Tenant").
		Preload("Companies").
		Where("user_id = ?", userID).
		First(&membership).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get membership: %w", err)
	}
	return &membership, nil
}

// CreateMembership creates a membership record. The caller is
// responsible for running this inside the account-creation transaction
// so an account never exists without its membership.
func (r *MembershipRepository) CreateMembership(ctx context.Context, membership *models.Membership) error {
	if err := r.db.WithContext(ctx).Create(membership).Error; err != nil {
		return fmt.Errorf("failed to create membership: %w", err)
	}
	return nil
}

// ============================================================================
// Company Operations
// ============================================================================

// GetCompanyByID retrieves a company by id.
func (r *MembershipRepository) GetCompanyByID(ctx context.Context, companyID uuid.UUID) (*models.Company, error) {
	var company models.Company
	if err := r.db.WithContext(ctx).Where("id = ?", companyID).First(&company).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get company: %w", err)
	}
	return &company, nil
}

// GetCompaniesByIDs retrieves the companies with the given ids.
func (r *MembershipRepository) GetCompaniesByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Company, error) {
	var companies []models.Company
	if len(ids) == 0 {
		return companies, nil
	}
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&companies).Error; err != nil {
		return nil, fmt.Errorf("failed to get companies: %w", err)
	}
	return companies, nil
}

// IsSlugAvailable checks whether a company slug is free.
func (r *MembershipRepository) IsSlugAvailable(ctx context.Context, slug string, excludeCompanyID *uuid.UUID) (bool, error) {
	query := r.db.WithContext(ctx).Model(&models.Company{}).Where("slug = ?", slug)
	if excludeCompanyID != nil {
		query = query.Where("id != ?", *excludeCompanyID)
	}
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check slug availability: %w", err)
	}
	return count == 0, nil
}

// GenerateUniqueSlug derives an available slug from a company name,
// appending a numeric suffix on collision.
func (r *MembershipRepository) GenerateUniqueSlug(ctx context.Context, name string) (string, error) {
	base := normalizeSlug(name)
	if base == "" {
		base = "company"
	}
	if len(base) > 50 {
		base = base[:50]
	}

	available, err := r.IsSlugAvailable(ctx, base, nil)
	if err != nil {
		return "", err
	}
	if available {
		return base, nil
	}

	for i := 1; i <= 99; i++ {
		candidate := fmt.Sprintf("%s-%d", base, i)
		if len(candidate) > 50 {
			candidate = fmt.Sprintf("%s-%d", base[:50-len(fmt.Sprintf("-%d", i))], i)
		}
		available, err := r.IsSlugAvailable(ctx, candidate, nil)
		if err != nil {
			return "", err
		}
		if available {
			return candidate, nil
		}
	}

	return "", fmt.Errorf("could not generate a unique slug for %q", name)
}

// normalizeSlug converts a string to a valid slug format
func normalizeSlug(input string) string {
	slug := strings.ToLower(input)
	reg := regexp.MustCompile("[^a-z0-9]+")
	slug = reg.ReplaceAllString(slug, "-")
	slug = strings.Trim(slug, "-")
	reg = regexp.MustCompile("-+")
	slug = reg.ReplaceAllString(slug, "-")
	return slug
}

// ============================================================================
// Activity Log Operations
// ============================================================================

// LogActivity creates an activity log entry
func (r *MembershipRepository) LogActivity(ctx context.Context, entry *models.ActivityLog) error {
	if err := r.db.WithContext(ctx).Create(entry).Error; err != nil {
		return fmt.Errorf("failed to log activity: %w", err)
	}
	return nil
}
