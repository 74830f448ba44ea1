package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"fleet-service/internal/authz"
	"fleet-service/internal/models"
	"fleet-service/internal/repository"
)

// CompanyService manages the companies under a tenant. Mutations are
// admin only; reads return the caller's own companies, never the full
// tenant.
type CompanyService struct {
	db             *gorm.DB
	membershipRepo *repository.MembershipRepository
}

// NewCompanyService creates a new company service
func NewCompanyService(db *gorm.DB, membershipRepo *repository.MembershipRepository) *CompanyService {
	return &CompanyService{db: db, membershipRepo: membershipRepo}
}

// CompanyInput carries the writable company fields.
type CompanyInput struct {
	Name     string `json:"name" validate:"required"`
	IsActive *bool  `json:"is_active"`
}

// Create adds a company under the caller's tenant and attaches it to
// the caller's membership so the creator can see what it just made.
func (s *CompanyService) Create(ctx context.Context, p *authz.Principal, input *CompanyInput) (*models.Company, error) {
	if err := authz.RequireRole(p, models.RoleAdmin); err != nil {
		return nil, err
	}
	if input.Name == "" {
		return nil, NewValidationError("name", "company name is required")
	}

	slug, err := s.membershipRepo.GenerateUniqueSlug(ctx, input.Name)
	if err != nil {
		return nil, fmt.Errorf("failed to generate slug: %w", err)
	}

	tenantID := p.TenantID()
	company := &models.Company{
		TenantID: &tenantID,
		Name:     input.Name,
		Slug:     slug,
		IsActive: true,
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(company).Error; err != nil {
			return fmt.Errorf("failed to create company: %w", err)
		}
		if err := tx.Model(p.Membership).Association("Companies").Append(company); err != nil {
			return fmt.Errorf("failed to attach company to membership: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return company, nil
}

// Get returns one of the caller's companies.
func (s *CompanyService) Get(ctx context.Context, p *authz.Principal, id uuid.UUID) (*models.Company, error) {
	var company models.Company
	if err := s.db.WithContext(ctx).
		Scopes(authz.Scope(p, authz.KindCompany)).
		Where("id = ?", id).
		First(&company).Error; err != nil {
		return nil, translateLookupError(err, "company")
	}
	return &company, nil
}

// List returns the caller's companies.
func (s *CompanyService) List(ctx context.Context, p *authz.Principal) ([]models.Company, error) {
	var companies []models.Company
	if err := s.db.WithContext(ctx).
		Scopes(authz.Scope(p, authz.KindCompany)).
		Order("name").
		Find(&companies).Error; err != nil {
		return nil, fmt.Errorf("failed to list companies: %w", err)
	}
	return companies, nil
}

// Update renames or re-enables one of the caller's companies. The slug
// is immutable; routing depends on it.
func (s *CompanyService) Update(ctx context.Context, p *authz.Principal, id uuid.UUID, input *CompanyInput) (*models.Company, error) {
	if err := authz.RequireRole(p, models.RoleAdmin); err != nil {
		return nil, err
	}
	company, err := s.Get(ctx, p, id)
	if err != nil {
		return nil, err
	}

	if input.Name != "" {
		company.Name = input.Name
	}
	if input.IsActive != nil {
		company.IsActive = *input.IsActive
	}
	if err := s.db.WithContext(ctx).Save(company).Error; err != nil {
		return nil, fmt.Errorf("failed to update company: %w", err)
	}
	return company, nil
}

// Deactivate soft-disables a company. Companies referenced by drivers,
// vehicles or trips are never hard-deleted.
func (s *CompanyService) Deactivate(ctx context.Context, p *authz.Principal, id uuid.UUID) error {
	if err := authz.RequireRole(p, models.RoleAdmin); err != nil {
		return err
	}
	company, err := s.Get(ctx, p, id)
	if err != nil {
		return err
	}
	return s.db.WithContext(ctx).Model(company).Update("is_active", false).Error
}
