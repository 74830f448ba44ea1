package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"fleet-service/internal/authz"
	"fleet-service/internal/models"
)

// FleetService is the scoped CRUD layer over drivers, trucks, trailers
// and maintenance. Reads apply the caller's visibility predicate;
// mutations additionally require role user and above plus company
// access.
type FleetService struct {
	db *gorm.DB
}

// NewFleetService creates a new fleet service
func NewFleetService(db *gorm.DB) *FleetService {
	return &FleetService{db: db}
}

// --- Drivers ---

// DriverInput carries the writable driver fields.
type DriverInput struct {
	CompanyID            uuid.UUID  `json:"company_id" validate:"required"`
	FirstName            string     `json:"first_name" validate:"required"`
	LastName             string     `json:"last_name" validate:"required"`
	Phone                string     `json:"phone"`
	State                string     `json:"state"`
	CDLNumber            string     `json:"cdl_number"`
	LicenseExpiryDate    *time.Time `json:"license_expiry_date"`
	MedicalCertExpiry    *time.Time `json:"medical_cert_expiry"`
	AnnualVMRDate        *time.Time `json:"annual_vmr_date"`
	HireDate             *time.Time `json:"hire_date"`
	EmployeeVerification bool       `json:"employee_verification"`
	IsActive             *bool      `json:"is_active"`
}

// CreateDriver creates a driver under one of the caller's companies.
func (s *FleetService) CreateDriver(ctx context.Context, p *authz.Principal, input *DriverInput) (*models.Driver, error) {
	if err := s.requireCompanyMutation(p, input.CompanyID); err != nil {
		return nil, err
	}
	if input.FirstName == "" || input.LastName == "" {
		return nil, NewValidationError("first_name", "driver first and last name are required")
	}

	driver := &models.Driver{
		CompanyID:            input.CompanyID,
		FirstName:            input.FirstName,
		LastName:             input.LastName,
		Phone:                input.Phone,
		State:                input.State,
		CDLNumber:            input.CDLNumber,
		LicenseExpiryDate:    input.LicenseExpiryDate,
		MedicalCertExpiry:    input.MedicalCertExpiry,
		AnnualVMRDate:        input.AnnualVMRDate,
		HireDate:             input.HireDate,
		EmployeeVerification: input.EmployeeVerification,
		IsActive:             true,
	}
	if input.IsActive != nil {
		driver.IsActive = *input.IsActive
	}
	if err := s.db.WithContext(ctx).Create(driver).Error; err != nil {
		return nil, fmt.Errorf("failed to create driver: %w", err)
	}
	return driver, nil
}

// GetDriver returns a driver visible to the caller.
func (s *FleetService) GetDriver(ctx context.Context, p *authz.Principal, id uuid.UUID) (*models.Driver, error) {
	var driver models.Driver
	if err := s.scoped(ctx, p, authz.KindDriver).Where("id = ?", id).First(&driver).Error; err != nil {
		return nil, translateLookupError(err, "driver")
	}
	return &driver, nil
}

// ListDrivers returns the caller's visible drivers.
func (s *FleetService) ListDrivers(ctx context.Context, p *authz.Principal) ([]models.Driver, error) {
	var drivers []models.Driver
	if err := s.scoped(ctx, p, authz.KindDriver).Order("last_name, first_name").Find(&drivers).Error; err != nil {
		return nil, fmt.Errorf("failed to list drivers: %w", err)
	}
	return drivers, nil
}

// UpdateDriver updates a visible driver in place.
func (s *FleetService) UpdateDriver(ctx context.Context, p *authz.Principal, id uuid.UUID, input *DriverInput) (*models.Driver, error) {
	driver, err := s.GetDriver(ctx, p, id)
	if err != nil {
		return nil, err
	}
	if err := s.requireCompanyMutation(p, driver.CompanyID); err != nil {
		return nil, err
	}
	if input.CompanyID != uuid.Nil && input.CompanyID != driver.CompanyID {
		if err := s.requireCompanyMutation(p, input.CompanyID); err != nil {
			return nil, err
		}
		driver.CompanyID = input.CompanyID
	}

	if input.FirstName != "" {
		driver.FirstName = input.FirstName
	}
	if input.LastName != "" {
		driver.LastName = input.LastName
	}
	driver.Phone = input.Phone
	driver.State = input.State
	driver.CDLNumber = input.CDLNumber
	driver.LicenseExpiryDate = input.LicenseExpiryDate
	driver.MedicalCertExpiry = input.MedicalCertExpiry
	driver.AnnualVMRDate = input.AnnualVMRDate
	driver.HireDate = input.HireDate
	driver.EmployeeVerification = input.EmployeeVerification
	if input.IsActive != nil {
		driver.IsActive = *input.IsActive
	}

	if err := s.db.WithContext(ctx).Save(driver).Error; err != nil {
		return nil, fmt.Errorf("failed to update driver: %w", err)
	}
	return driver, nil
}

// DeactivateDriver soft-disables a driver. Records are never hard
// deleted while trips reference them.
func (s *FleetService) DeactivateDriver(ctx context.Context, p *authz.Principal, id uuid.UUID) error {
	driver, err := s.GetDriver(ctx, p, id)
	if err != nil {
		return err
	}
	if err := s.requireCompanyMutation(p, driver.CompanyID); err != nil {
		return err
	}
	return s.db.WithContext(ctx).Model(driver).Update("is_active", false).Error
}

// --- Trucks ---

// TruckInput carries the writable truck fields.
type TruckInput struct {
	CompanyID          uuid.UUID  `json:"company_id" validate:"required"`
	UnitNumber         string     `json:"unit_number" validate:"required"`
	Make               string     `json:"make"`
	Model              string     `json:"model"`
	Year               int        `json:"year"`
	VIN                string     `json:"vin"`
	LicensePlate       string     `json:"license_plate"`
	RegistrationExpiry *time.Time `json:"registration_expiry"`
	InsuranceExpiry    *time.Time `json:"insurance_expiry"`
	IsActive           *bool      `json:"is_active"`
}

// CreateTruck creates a truck under one of the caller's companies.
func (s *FleetService) CreateTruck(ctx context.Context, p *authz.Principal, input *TruckInput) (*models.Truck, error) {
	if err := s.requireCompanyMutation(p, input.CompanyID); err != nil {
		return nil, err
	}
	if input.UnitNumber == "" {
		return nil, NewValidationError("unit_number", "unit number is required")
	}

	truck := &models.Truck{
		CompanyID:          input.CompanyID,
		UnitNumber:         input.UnitNumber,
		Make:               input.Make,
		Model:              input.Model,
		Year:               input.Year,
		VIN:                input.VIN,
		LicensePlate:       input.LicensePlate,
		RegistrationExpiry: input.RegistrationExpiry,
		InsuranceExpiry:    input.InsuranceExpiry,
		IsActive:           true,
	}
	if input.IsActive != nil {
		truck.IsActive = *input.IsActive
	}
	if err := s.db.WithContext(ctx).Create(truck).Error; err != nil {
		return nil, fmt.Errorf("failed to create truck: %w", err)
	}
	return truck, nil
}

// GetTruck returns a truck visible to the caller.
func (s *FleetService) GetTruck(ctx context.Context, p *authz.Principal, id uuid.UUID) (*models.Truck, error) {
	var truck models.Truck
	if err := s.scoped(ctx, p, authz.KindTruck).Where("id = ?", id).First(&truck).Error; err != nil {
		return nil, translateLookupError(err, "truck")
	}
	return &truck, nil
}

// ListTrucks returns the caller's visible trucks.
func (s *FleetService) ListTrucks(ctx context.Context, p *authz.Principal) ([]models.Truck, error) {
	var trucks []models.Truck
	if err := s.scoped(ctx, p, authz.KindTruck).Order("unit_number").Find(&trucks).Error; err != nil {
		return nil, fmt.Errorf("failed to list trucks: %w", err)
	}
	return trucks, nil
}

// UpdateTruck updates a visible truck in place.
func (s *FleetService) UpdateTruck(ctx context.Context, p *authz.Principal, id uuid.UUID, input *TruckInput) (*models.Truck, error) {
	truck, err := s.GetTruck(ctx, p, id)
	if err != nil {
		return nil, err
	}
	if err := s.requireCompanyMutation(p, truck.CompanyID); err != nil {
		return nil, err
	}

	if input.UnitNumber != "" {
		truck.UnitNumber = input.UnitNumber
	}
	truck.Make = input.Make
	truck.Model = input.Model
	truck.Year = input.Year
	truck.VIN = input.VIN
	truck.LicensePlate = input.LicensePlate
	truck.RegistrationExpiry = input.RegistrationExpiry
	truck.InsuranceExpiry = input.InsuranceExpiry
	if input.IsActive != nil {
		truck.IsActive = *input.IsActive
	}

	if err := s.db.WithContext(ctx).Save(truck).Error; err != nil {
		return nil, fmt.Errorf("failed to update truck: %w", err)
	}
	return truck, nil
}

// --- Trailers ---

// TrailerInput carries the writable trailer fields.
type TrailerInput struct {
	CompanyID          uuid.UUID  `json:"company_id" validate:"required"`
	UnitNumber         string     `json:"unit_number" validate:"required"`
	TrailerType        string     `json:"trailer_type"`
	Year               int        `json:"year"`
	VIN                string     `json:"vin"`
	LicensePlate       string     `json:"license_plate"`
	RegistrationExpiry *time.Time `json:"registration_expiry"`
	InsuranceExpiry    *time.Time `json:"insurance_expiry"`
	IsActive           *bool      `json:"is_active"`
}

// CreateTrailer creates a trailer under one of the caller's companies.
func (s *FleetService) CreateTrailer(ctx context.Context, p *authz.Principal, input *TrailerInput) (*models.Trailer, error) {
	if err := s.requireCompanyMutation(p, input.CompanyID); err != nil {
		return nil, err
	}
	if input.UnitNumber == "" {
		return nil, NewValidationError("unit_number", "unit number is required")
	}

	trailer := &models.Trailer{
		CompanyID:          input.CompanyID,
		UnitNumber:         input.UnitNumber,
		TrailerType:        input.TrailerType,
		Year:               input.Year,
		VIN:                input.VIN,
		LicensePlate:       input.LicensePlate,
		RegistrationExpiry: input.RegistrationExpiry,
		InsuranceExpiry:    input.InsuranceExpiry,
		IsActive:           true,
	}
	if input.IsActive != nil {
		trailer.IsActive = *input.IsActive
	}
	if err := s.db.WithContext(ctx).Create(trailer).Error; err != nil {
		return nil, fmt.Errorf("failed to create trailer: %w", err)
	}
	return trailer, nil
}

// GetTrailer returns a trailer visible to the caller.
func (s *FleetService) GetTrailer(ctx context.Context, p *authz.Principal, id uuid.UUID) (*models.Trailer, error) {
	var trailer models.Trailer
	if err := s.scoped(ctx, p, authz.KindTrailer).Where("id = ?", id).First(&trailer).Error; err != nil {
		return nil, translateLookupError(err, "trailer")
	}
	return &trailer, nil
}

// ListTrailers returns the caller's visible trailers.
func (s *FleetService) ListTrailers(ctx context.Context, p *authz.Principal) ([]models.Trailer, error) {
	var trailers []models.Trailer
	if err := s.scoped(ctx, p, authz.KindTrailer).Order("unit_number").Find(&trailers).Error; err != nil {
		return nil, fmt.Errorf("failed to list trailers: %w", err)
	}
	return trailers, nil
}

// UpdateTrailer updates a visible trailer in place.
func (s *FleetService) UpdateTrailer(ctx context.Context, p *authz.Principal, id uuid.UUID, input *TrailerInput) (*models.Trailer, error) {
	trailer, err := s.GetTrailer(ctx, p, id)
	if err != nil {
		return nil, err
	}
	if err := s.requireCompanyMutation(p, trailer.CompanyID); err != nil {
		return nil, err
	}

	if input.UnitNumber != "" {
		trailer.UnitNumber = input.UnitNumber
	}
	trailer.TrailerType = input.TrailerType
	trailer.Year = input.Year
	trailer.VIN = input.VIN
	trailer.LicensePlate = input.LicensePlate
	trailer.RegistrationExpiry = input.RegistrationExpiry
	trailer.InsuranceExpiry = input.InsuranceExpiry
	if input.IsActive != nil {
		trailer.IsActive = *input.IsActive
	}

	if err := s.db.WithContext(ctx).Save(trailer).Error; err != nil {
		return nil, fmt.Errorf("failed to update trailer: %w", err)
	}
	return trailer, nil
}

// --- Maintenance ---

// MaintenanceInput carries the writable maintenance record fields.
// Exactly one of TruckID/TrailerID must be set.
type MaintenanceInput struct {
	TruckID       *uuid.UUID `json:"truck_id"`
	TrailerID     *uuid.UUID `json:"trailer_id"`
	CategoryID    uuid.UUID  `json:"category_id" validate:"required"`
	Description   string     `json:"description" validate:"required"`
	PerformedAt   time.Time  `json:"performed_at"`
	Cost          float64    `json:"cost"`
	OdometerMiles *float64   `json:"odometer_miles"`
}

// CreateMaintenanceRecord files a maintenance record against a visible
// truck or trailer.
func (s *FleetService) CreateMaintenanceRecord(ctx context.Context, p *authz.Principal, input *MaintenanceInput) (*models.MaintenanceRecord, error) {
	if err := authz.RequireRole(p, models.RoleUser); err != nil {
		return nil, err
	}
	if (input.TruckID != nil) == (input.TrailerID != nil) {
		return nil, NewValidationError("truck_id", "exactly one of truck_id or trailer_id is required")
	}
	if input.Description == "" {
		return nil, NewValidationError("description", "description is required")
	}

	// The vehicle lookup doubles as the company gate.
	if input.TruckID != nil {
		if _, err := s.GetTruck(ctx, p, *input.TruckID); err != nil {
			return nil, err
		}
	} else {
		if _, err := s.GetTrailer(ctx, p, *input.TrailerID); err != nil {
			return nil, err
		}
	}

	var category models.MaintenanceCategory
	if err := s.db.WithContext(ctx).Where("id = ?", input.CategoryID).First(&category).Error; err != nil {
		return nil, translateLookupError(err, "maintenance category")
	}

	performedAt := input.PerformedAt
	if performedAt.IsZero() {
		performedAt = time.Now()
	}
	record := &models.MaintenanceRecord{
		TruckID:       input.TruckID,
		TrailerID:     input.TrailerID,
		CategoryID:    input.CategoryID,
		Description:   input.Description,
		PerformedAt:   performedAt,
		Cost:          input.Cost,
		OdometerMiles: input.OdometerMiles,
	}
	if err := s.db.WithContext(ctx).Create(record).Error; err != nil {
		return nil, fmt.Errorf("failed to create maintenance record: %w", err)
	}
	return record, nil
}

// GetMaintenanceRecord returns a visible maintenance record.
func (s *FleetService) GetMaintenanceRecord(ctx context.Context, p *authz.Principal, id uuid.UUID) (*models.MaintenanceRecord, error) {
	var record models.MaintenanceRecord
	if err := s.scoped(ctx, p, authz.KindMaintenance).
		Preload("Category").
		Where("id = ?", id).
		First(&record).Error; err != nil {
		return nil, translateLookupError(err, "maintenance record")
	}
	return &record, nil
}

// ListMaintenanceRecords returns the caller's visible maintenance
// records, newest first.
func (s *FleetService) ListMaintenanceRecords(ctx context.Context, p *authz.Principal) ([]models.MaintenanceRecord, error) {
	var records []models.MaintenanceRecord
	if err := s.scoped(ctx, p, authz.KindMaintenance).
		Preload("Category").
		Order("performed_at DESC").
		Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to list maintenance records: %w", err)
	}
	return records, nil
}

// --- Maintenance categories (global reference data) ---

// ListMaintenanceCategories returns the global category list.
func (s *FleetService) ListMaintenanceCategories(ctx context.Context, p *authz.Principal) ([]models.MaintenanceCategory, error) {
	var categories []models.MaintenanceCategory
	if err := s.scoped(ctx, p, authz.KindMaintenanceCategory).Order("name").Find(&categories).Error; err != nil {
		return nil, fmt.Errorf("failed to list maintenance categories: %w", err)
	}
	return categories, nil
}

// CreateMaintenanceCategory creates a global category; admin only.
func (s *FleetService) CreateMaintenanceCategory(ctx context.Context, p *authz.Principal, name, description string) (*models.MaintenanceCategory, error) {
	if err := authz.RequireRole(p, models.RoleAdmin); err != nil {
		return nil, err
	}
	if name == "" {
		return nil, NewValidationError("name", "category name is required")
	}

	var existing int64
	if err := s.db.WithContext(ctx).Model(&models.MaintenanceCategory{}).
		Where("name = ?", name).Count(&existing).Error; err != nil {
		return nil, fmt.Errorf("failed to check category name: %w", err)
	}
	if existing > 0 {
		return nil, NewConflictError("maintenance_category", "a category with this name already exists")
	}

	category := &models.MaintenanceCategory{Name: name, Description: description}
	if err := s.db.WithContext(ctx).Create(category).Error; err != nil {
		return nil, fmt.Errorf("failed to create maintenance category: %w", err)
	}
	return category, nil
}

// --- helpers ---

func (s *FleetService) scoped(ctx context.Context, p *authz.Principal, kind authz.Kind) *gorm.DB {
	return s.db.WithContext(ctx).Scopes(authz.Scope(p, kind))
}

// requireCompanyMutation gates a write: role user and above, targeting
// a company inside the caller's membership.
func (s *FleetService) requireCompanyMutation(p *authz.Principal, companyID uuid.UUID) error {
	if err := authz.RequireRole(p, models.RoleUser); err != nil {
		return err
	}
	if !p.HasCompany(companyID) {
		return ErrCompanyAccessDenied
	}
	return nil
}

func translateLookupError(err error, resource string) error {
	if err == gorm.ErrRecordNotFound {
		return ErrNotFound
	}
	return fmt.Errorf("failed to load %s: %w", resource, err)
}
