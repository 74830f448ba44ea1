package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Tenant represents a top-level customer organization.
// DomainKey and AppCode are immutable after creation - request routing
// depends on them.
type Tenant struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:uuid_generate_v4()"`
	Name      string    `json:"name" gorm:"not null" validate:"required,min=2,max=255"`
	DomainKey string    `json:"domain_key" gorm:"unique;not null;size:255" validate:"required"`
	AppCode   string    `json:"app_code" gorm:"unique;not null;size:50" validate:"required"`
	IsActive  bool      `json:"is_active" gorm:"default:true"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Companies []Company `json:"companies,omitempty" gorm:"foreignKey:TenantID"`
}

// Company is a division under a tenant and the unit of data scoping.
// TenantID is nullable only for legacy rows created before tenancy was
// introduced. Companies are soft-disabled via IsActive, never deleted
// while drivers/vehicles/trips reference them.
type Company struct {
	ID        uuid.UUID  `json:"id" gorm:"type:uuid;primary_key;default:uuid_generate_v4()"`
	TenantID  *uuid.UUID `json:"tenant_id" gorm:"type:uuid;index"`
	Name      string     `json:"name" gorm:"not null" validate:"required,min=2,max=255"`
	Slug      string     `json:"slug" gorm:"unique;not null;size:50" validate:"required,min=3,max=50"`
	IsActive  bool       `json:"is_active" gorm:"default:true"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`

	Tenant *Tenant `json:"tenant,omitempty" gorm:"foreignKey:TenantID"`
}

// User is an authentication identity. Tenancy, companies and role live
// on the user's single Membership record.
type User struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:uuid_generate_v4()"`
	Username  string    `json:"username" gorm:"unique;not null;size:150" validate:"required,min=3,max=150"`
	Email     string    `json:"email" gorm:"unique;not null;index" validate:"required,email"`
	Password  string    `json:"-" gorm:"not null"` // bcrypt hash, hidden from JSON
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Status    string    `json:"status" gorm:"default:'active';index" validate:"oneof=active inactive suspended"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Membership *Membership `json:"membership,omitempty" gorm:"foreignKey:UserID"`
}

// Membership role constants, ordered admin > user > driver for
// capability checks.
const (
	RoleAdmin  = "admin"
	RoleUser   = "user"
	RoleDriver = "driver"
)

// roleRank orders roles for minimum-role gates. Unknown roles rank 0
// and never satisfy a gate.
var roleRank = map[string]int{
	RoleDriver: 1,
	RoleUser:   2,
	RoleAdmin:  3,
}

// RoleAtLeast reports whether role meets the minimum role. Unknown
// roles never do.
func RoleAtLeast(role, minimum string) bool {
	r, ok := roleRank[role]
	if !ok {
		return false
	}
	m, ok := roleRank[minimum]
	if !ok {
		return false
	}
	return r >= m
}

// IsValidRole reports whether role is one of the known membership roles.
func IsValidRole(role string) bool {
	_, ok := roleRank[role]
	return ok
}

// Membership joins a user to its tenant, companies and role. Each user
// owns exactly one membership; every company in Companies must belong
// to TenantID. A driver-role membership may reference the Driver record
// it operates as.
type Membership struct {
	ID       uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:uuid_generate_v4()"`
	UserID   uuid.UUID `json:"user_id" gorm:"type:uuid;not null;uniqueIndex"`
	TenantID uuid.UUID `json:"tenant_id" gorm:"type:uuid;not null;index"`
	Role     string    `json:"role" gorm:"size:50;not null;default:'user'" validate:"oneof=admin user driver"`

	// DriverID links a driver-role membership to its Driver record.
	DriverID *uuid.UUID `json:"driver_id,omitempty" gorm:"type:uuid;index"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Tenant    *Tenant   `json:"tenant,omitempty" gorm:"foreignKey:TenantID"`
	Companies []Company `json:"companies,omitempty" gorm:"many2many:membership_companies"`
}

// CompanyIDs returns the ids of the membership's companies.
func (m *Membership) CompanyIDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(m.Companies))
	for _, c := range m.Companies {
		ids = append(ids, c.ID)
	}
	return ids
}

// HasCompany reports whether the membership includes the given company.
func (m *Membership) HasCompany(companyID uuid.UUID) bool {
	for _, c := range m.Companies {
		if c.ID == companyID {
			return true
		}
	}
	return false
}

// ActivityLog is the audit trail for scoped operations (invitations,
// trip transitions, inspections, password resets).
type ActivityLog struct {
	ID           uuid.UUID  `json:"id" gorm:"type:uuid;primary_key;default:uuid_generate_v4()"`
	TenantID     uuid.UUID  `json:"tenant_id" gorm:"type:uuid;not null;index"`
	UserID       uuid.UUID  `json:"user_id" gorm:"type:uuid;index"`
	Action       string     `json:"action" gorm:"size:100;not null;index"` // e.g. 'invitation.issued', 'trip.started'
	ResourceType string     `json:"resource_type" gorm:"size:50"`
	ResourceID   *uuid.UUID `json:"resource_id" gorm:"type:uuid"`
	Details      JSONB      `json:"details" gorm:"type:jsonb;default:'{}'"`
	IPAddress    string     `json:"ip_address" gorm:"size:45"`
	UserAgent    string     `json:"user_agent"`
	CreatedAt    time.Time  `json:"created_at" gorm:"index"`
}

// TableName specifies the table name for ActivityLog
func (ActivityLog) TableName() string {
	return "activity_log"
}

// BeforeCreate hooks

func (t *Tenant) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

func (c *Company) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

func (m *Membership) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}
