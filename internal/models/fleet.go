package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Driver is an operational driver record owned by exactly one company.
// UserID links the driver to its account (set during invitation
// redemption); a driver without an account is still a valid compliance
// subject.
type Driver struct {
	ID        uuid.UUID  `json:"id" gorm:"type:uuid;primary_key;default:uuid_generate_v4()"`
	CompanyID uuid.UUID  `json:"company_id" gorm:"type:uuid;not null;index"`
	UserID    *uuid.UUID `json:"user_id,omitempty" gorm:"type:uuid;index"`

	FirstName string `json:"first_name" gorm:"size:50;not null" validate:"required"`
	LastName  string `json:"last_name" gorm:"size:50;not null" validate:"required"`
	Phone     string `json:"phone" gorm:"size:15"`
	State     string `json:"state" gorm:"size:2"`

	CDLNumber            string     `json:"cdl_number" gorm:"size:20"`
	LicenseExpiryDate    *time.Time `json:"license_expiry_date"`
	MedicalCertExpiry    *time.Time `json:"medical_cert_expiry"`
	AnnualVMRDate        *time.Time `json:"annual_vmr_date"`
	HireDate             *time.Time `json:"hire_date"`
	EmployeeVerification bool       `json:"employee_verification" gorm:"default:false"`
	IsActive             bool       `json:"is_active" gorm:"default:true"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Company *Company `json:"company,omitempty" gorm:"foreignKey:CompanyID"`
}

// HasLinkedAccount reports whether the driver already has a user
// account attached.
func (d *Driver) HasLinkedAccount() bool {
	return d.UserID != nil && *d.UserID != uuid.Nil
}

// Truck is a powered vehicle owned by exactly one company.
type Truck struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:uuid_generate_v4()"`
	CompanyID uuid.UUID `json:"company_id" gorm:"type:uuid;not null;index"`

	UnitNumber   string `json:"unit_number" gorm:"size:50;not null" validate:"required"`
	Make         string `json:"make" gorm:"size:50"`
	Model        string `json:"model" gorm:"size:50"`
	Year         int    `json:"year"`
	VIN          string `json:"vin" gorm:"size:17"`
	LicensePlate string `json:"license_plate" gorm:"size:20"`

	RegistrationExpiry *time.Time `json:"registration_expiry"`
	InsuranceExpiry    *time.Time `json:"insurance_expiry"`
	IsActive           bool       `json:"is_active" gorm:"default:true"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Company *Company `json:"company,omitempty" gorm:"foreignKey:CompanyID"`
}

// Trailer is an unpowered vehicle owned by exactly one company.
type Trailer struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:uuid_generate_v4()"`
	CompanyID uuid.UUID `json:"company_id" gorm:"type:uuid;not null;index"`

	UnitNumber   string `json:"unit_number" gorm:"size:50;not null" validate:"required"`
	TrailerType  string `json:"trailer_type" gorm:"size:50"`
	Year         int    `json:"year"`
	VIN          string `json:"vin" gorm:"size:17"`
	LicensePlate string `json:"license_plate" gorm:"size:20"`

	RegistrationExpiry *time.Time `json:"registration_expiry"`
	InsuranceExpiry    *time.Time `json:"insurance_expiry"`
	IsActive           bool       `json:"is_active" gorm:"default:true"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Company *Company `json:"company,omitempty" gorm:"foreignKey:CompanyID"`
}

// MaintenanceCategory is global reference data, visible to any
// authenticated principal.
type MaintenanceCategory struct {
	ID          uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:uuid_generate_v4()"`
	Name        string    `json:"name" gorm:"unique;not null;size:100" validate:"required"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TableName specifies the table name for MaintenanceCategory
func (MaintenanceCategory) TableName() string {
	return "maintenance_categories"
}

// MaintenanceRecord documents service performed on a truck or a
// trailer. Exactly one of TruckID/TrailerID is set; the record reaches
// its owning company only through that vehicle.
type MaintenanceRecord struct {
	ID         uuid.UUID  `json:"id" gorm:"type:uuid;primary_key;default:uuid_generate_v4()"`
	TruckID    *uuid.UUID `json:"truck_id,omitempty" gorm:"type:uuid;index"`
	TrailerID  *uuid.UUID `json:"trailer_id,omitempty" gorm:"type:uuid;index"`
	CategoryID uuid.UUID  `json:"category_id" gorm:"type:uuid;not null;index"`

	Description   string     `json:"description" gorm:"not null" validate:"required"`
	PerformedAt   time.Time  `json:"performed_at"`
	Cost          float64    `json:"cost"`
	OdometerMiles *float64   `json:"odometer_miles,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Truck    *Truck               `json:"truck,omitempty" gorm:"foreignKey:TruckID"`
	Trailer  *Trailer             `json:"trailer,omitempty" gorm:"foreignKey:TrailerID"`
	Category *MaintenanceCategory `json:"category,omitempty" gorm:"foreignKey:CategoryID"`
}

// HasVehicle reports whether the record references exactly one vehicle.
func (m *MaintenanceRecord) HasVehicle() bool {
	return (m.TruckID != nil) != (m.TrailerID != nil)
}

// BeforeCreate hooks

func (d *Driver) BeforeCreate(tx *gorm.DB) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	return nil
}

func (t *Truck) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

func (t *Trailer) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

func (c *MaintenanceCategory) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

func (m *MaintenanceRecord) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	if m.PerformedAt.IsZero() {
		m.PerformedAt = time.Now()
	}
	return nil
}
