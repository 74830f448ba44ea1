package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"fleet-service/internal/authz"
	"fleet-service/internal/models"
	natsclient "fleet-service/internal/nats"
)

// TripService drives the trip state machine and its inspection gates.
// Every read goes through the access scoping engine; transitions use
// compare-and-set updates on status so concurrent callers cannot race a
// trip through the same edge twice.
type TripService struct {
	db     *gorm.DB
	events *natsclient.Client
}

// NewTripService creates a new trip service
func NewTripService(db *gorm.DB, events *natsclient.Client) *TripService {
	return &TripService{db: db, events: events}
}

// CreateTripInput carries the fields for a new scheduled trip.
type CreateTripInput struct {
	CompanyID     uuid.UUID  `json:"company_id" validate:"required"`
	DriverID      uuid.UUID  `json:"driver_id" validate:"required"`
	TruckID       uuid.UUID  `json:"truck_id" validate:"required"`
	TrailerID     *uuid.UUID `json:"trailer_id"`
	Origin        string     `json:"origin"`
	Destination   string     `json:"destination"`
	ScheduledDate *time.Time `json:"scheduled_date"`
	StartMileage  *float64   `json:"start_mileage"`
}

// Create schedules a new trip. The driver and truck must belong to the
// trip's company, and the company must be visible to the caller.
func (s *TripService) Create(ctx context.Context, p *authz.Principal, input *CreateTripInput) (*models.Trip, error) {
	if err := authz.RequireRole(p, models.RoleUser); err != nil {
		return nil, err
	}
	if !p.HasCompany(input.CompanyID) {
		return nil, ErrCompanyAccessDenied
	}

	var driver models.Driver
	if err := s.db.WithContext(ctx).Where("id = ? AND company_id = ?", input.DriverID, input.CompanyID).First(&driver).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, NewValidationError("driver_id", "driver does not belong to the trip's company")
		}
		return nil, fmt.Errorf("failed to load driver: %w", err)
	}
	var truck models.Truck
	if err := s.db.WithContext(ctx).Where("id = ? AND company_id = ?", input.TruckID, input.CompanyID).First(&truck).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, NewValidationError("truck_id", "truck does not belong to the trip's company")
		}
		return nil, fmt.Errorf("failed to load truck: %w", err)
	}
	if input.TrailerID != nil {
		var trailer models.Trailer
		if err := s.db.WithContext(ctx).Where("id = ? AND company_id = ?", *input.TrailerID, input.CompanyID).First(&trailer).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return nil, NewValidationError("trailer_id", "trailer does not belong to the trip's company")
			}
			return nil, fmt.Errorf("failed to load trailer: %w", err)
		}
	}

	trip := &models.Trip{
		CompanyID:     input.CompanyID,
		DriverID:      input.DriverID,
		TruckID:       input.TruckID,
		TrailerID:     input.TrailerID,
		Status:        models.TripStatusScheduled,
		Origin:        input.Origin,
		Destination:   input.Destination,
		ScheduledDate: input.ScheduledDate,
		StartMileage:  input.StartMileage,
	}
	if err := s.db.WithContext(ctx).Create(trip).Error; err != nil {
		return nil, fmt.Errorf("failed to create trip: %w", err)
	}
	return trip, nil
}

// Get returns a trip visible to the caller, with its inspections.
func (s *TripService) Get(ctx context.Context, p *authz.Principal, tripID uuid.UUID) (*models.Trip, error) {
	var trip models.Trip
	err := s.db.WithContext(ctx).
		Scopes(authz.Scope(p, authz.KindTrip)).
		Preload("Inspections").
		Where("id = ?", tripID).
		First(&trip).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load trip: %w", err)
	}
	return &trip, nil
}

// ListTripsFilter narrows List results.
type ListTripsFilter struct {
	Status    string
	CompanyID *uuid.UUID
	DriverID  *uuid.UUID
}

// List returns trips visible to the caller, newest first.
func (s *TripService) List(ctx context.Context, p *authz.Principal, filter *ListTripsFilter) ([]models.Trip, error) {
	query := s.db.WithContext(ctx).
		Scopes(authz.Scope(p, authz.KindTrip)).
		Order("created_at DESC")
	if filter != nil {
		if filter.Status != "" {
			query = query.Where("status = ?", filter.Status)
		}
		if filter.CompanyID != nil {
			query = query.Where("company_id = ?", *filter.CompanyID)
		}
		if filter.DriverID != nil {
			query = query.Where("driver_id = ?", *filter.DriverID)
		}
	}
	var trips []models.Trip
	if err := query.Find(&trips).Error; err != nil {
		return nil, fmt.Errorf("failed to list trips: %w", err)
	}
	return trips, nil
}

// Start moves a trip from scheduled to in_progress. The pre-trip
// inspection gate must already be satisfied.
func (s *TripService) Start(ctx context.Context, p *authz.Principal, tripID uuid.UUID, startMileage *float64) (*models.Trip, error) {
	trip, err := s.loadForTransition(ctx, p, tripID)
	if err != nil {
		return nil, err
	}
	if trip.Status != models.TripStatusScheduled {
		return nil, ErrGuardNotSatisfied
	}
	if !trip.PreTripInspectionCompleted {
		return nil, ErrGuardNotSatisfied
	}

	now := time.Now()
	updates := map[string]interface{}{
		"status":       models.TripStatusInProgress,
		"actual_start": now,
	}
	if startMileage != nil {
		updates["start_mileage"] = *startMileage
	}
	res := s.db.WithContext(ctx).Model(&models.Trip{}).
		Where("id = ? AND status = ?", tripID, models.TripStatusScheduled).
		Updates(updates)
	if res.Error != nil {
		return nil, fmt.Errorf("failed to start trip: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, ErrGuardNotSatisfied
	}

	if s.events != nil {
		s.events.PublishTripStarted(trip.CompanyID.String(), tripID.String())
	}
	return s.Get(ctx, p, tripID)
}

// CompleteTripInput carries the completion fields.
type CompleteTripInput struct {
	EndMileage *float64 `json:"end_mileage"`
}

// Complete moves a trip from in_progress to completed. The post-trip
// inspection gate must be satisfied, and when both mileages are present
// the distance driven is recorded; a negative distance is rejected.
func (s *TripService) Complete(ctx context.Context, p *authz.Principal, tripID uuid.UUID, input *CompleteTripInput) (*models.Trip, error) {
	trip, err := s.loadForTransition(ctx, p, tripID)
	if err != nil {
		return nil, err
	}
	if trip.Status != models.TripStatusInProgress {
		return nil, ErrGuardNotSatisfied
	}
	if !trip.PostTripInspectionCompleted {
		return nil, ErrGuardNotSatisfied
	}

	endMileage := trip.EndMileage
	if input != nil && input.EndMileage != nil {
		endMileage = input.EndMileage
	}
	var milesDriven *float64
	if endMileage != nil && trip.StartMileage != nil {
		if *endMileage < *trip.StartMileage {
			return nil, NewValidationError("end_mileage", "end mileage cannot be lower than start mileage")
		}
		miles := *endMileage - *trip.StartMileage
		milesDriven = &miles
	}

	now := time.Now()
	updates := map[string]interface{}{
		"status":     models.TripStatusCompleted,
		"actual_end": now,
	}
	if endMileage != nil {
		updates["end_mileage"] = *endMileage
	}
	if milesDriven != nil {
		updates["miles_driven"] = *milesDriven
	}
	res := s.db.WithContext(ctx).Model(&models.Trip{}).
		Where("id = ? AND status = ?", tripID, models.TripStatusInProgress).
		Updates(updates)
	if res.Error != nil {
		return nil, fmt.Errorf("failed to complete trip: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, ErrGuardNotSatisfied
	}

	if s.events != nil {
		s.events.PublishTripCompleted(trip.CompanyID.String(), tripID.String())
	}
	return s.Get(ctx, p, tripID)
}

// Cancel moves a trip to cancelled from scheduled or in_progress.
func (s *TripService) Cancel(ctx context.Context, p *authz.Principal, tripID uuid.UUID) (*models.Trip, error) {
	trip, err := s.loadForTransition(ctx, p, tripID)
	if err != nil {
		return nil, err
	}
	if !trip.CanCancel() {
		return nil, ErrGuardNotSatisfied
	}

	res := s.db.WithContext(ctx).Model(&models.Trip{}).
		Where("id = ? AND status IN ?", tripID, []string{models.TripStatusScheduled, models.TripStatusInProgress}).
		Update("status", models.TripStatusCancelled)
	if res.Error != nil {
		return nil, fmt.Errorf("failed to cancel trip: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, ErrGuardNotSatisfied
	}

	if s.events != nil {
		s.events.PublishTripCancelled(trip.CompanyID.String(), tripID.String())
	}
	return s.Get(ctx, p, tripID)
}

// FileInspectionInput carries the checklist for a new inspection.
type FileInspectionInput struct {
	Type                 string `json:"type" validate:"required,oneof=pre_trip post_trip"`
	BrakesOK             bool   `json:"brakes_ok"`
	LightsOK             bool   `json:"lights_ok"`
	TiresOK              bool   `json:"tires_ok"`
	MirrorsOK            bool   `json:"mirrors_ok"`
	HornOK               bool   `json:"horn_ok"`
	CouplingOK           bool   `json:"coupling_ok"`
	EmergencyEquipmentOK bool   `json:"emergency_equipment_ok"`
	FluidLevelsOK        bool   `json:"fluid_levels_ok"`
	Notes                string `json:"notes"`
}

// FileInspection records a pre- or post-trip inspection and flips the
// matching gate flag in the same transaction. At most one inspection of
// each type exists per trip; a second filing is a conflict.
func (s *TripService) FileInspection(ctx context.Context, p *authz.Principal, tripID uuid.UUID, input *FileInspectionInput) (*models.Inspection, error) {
	if !models.IsValidInspectionType(input.Type) {
		return nil, NewValidationError("type", "inspection type must be pre_trip or post_trip")
	}

	trip, err := s.loadForTransition(ctx, p, tripID)
	if err != nil {
		return nil, err
	}
	if trip.IsTerminal() {
		return nil, NewConflictError("inspection", fmt.Sprintf("cannot file inspections on a %s trip", trip.Status))
	}

	userID := p.UserID()
	inspection := &models.Inspection{
		TripID:               tripID,
		Type:                 input.Type,
		BrakesOK:             input.BrakesOK,
		LightsOK:             input.LightsOK,
		TiresOK:              input.TiresOK,
		MirrorsOK:            input.MirrorsOK,
		HornOK:               input.HornOK,
		CouplingOK:           input.CouplingOK,
		EmergencyEquipmentOK: input.EmergencyEquipmentOK,
		FluidLevelsOK:        input.FluidLevelsOK,
		Notes:                input.Notes,
		PerformedByID:        &userID,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing int64
		if err := tx.Model(&models.Inspection{}).
			Where("trip_id = ? AND type = ?", tripID, input.Type).
			Count(&existing).Error; err != nil {
			return fmt.Errorf("failed to check existing inspection: %w", err)
		}
		if existing > 0 {
			return NewConflictError("inspection", fmt.Sprintf("a %s inspection already exists for this trip", input.Type))
		}
		if err := tx.Create(inspection).Error; err != nil {
			return fmt.Errorf("failed to create inspection: %w", err)
		}

		gate := "pre_trip_inspection_completed"
		if input.Type == models.InspectionTypePostTrip {
			gate = "post_trip_inspection_completed"
		}
		if err := tx.Model(&models.Trip{}).
			Where("id = ?", tripID).
			Update(gate, true).Error; err != nil {
			return fmt.Errorf("failed to update inspection gate: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if !inspection.Passed() {
		log.Printf("[TripService] Inspection %s on trip %s filed with failed checklist items", inspection.ID, tripID)
	}
	if s.events != nil {
		s.events.PublishInspectionFiled(trip.CompanyID.String(), tripID.String(), input.Type)
	}
	return inspection, nil
}

// ListInspections returns a visible trip's inspections.
func (s *TripService) ListInspections(ctx context.Context, p *authz.Principal, tripID uuid.UUID) ([]models.Inspection, error) {
	trip, err := s.Get(ctx, p, tripID)
	if err != nil {
		return nil, err
	}
	var inspections []models.Inspection
	if err := s.db.WithContext(ctx).
		Where("trip_id = ?", trip.ID).
		Order("created_at ASC").
		Find(&inspections).Error; err != nil {
		return nil, fmt.Errorf("failed to list inspections: %w", err)
	}
	return inspections, nil
}

// loadForTransition loads a visible trip and checks the caller may act
// on it: the trip's linked-driver principal, or role user and above
// with access to the trip's company.
func (s *TripService) loadForTransition(ctx context.Context, p *authz.Principal, tripID uuid.UUID) (*models.Trip, error) {
	var trip models.Trip
	err := s.db.WithContext(ctx).
		Scopes(authz.Scope(p, authz.KindTrip)).
		Where("id = ?", tripID).
		First(&trip).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load trip: %w", err)
	}

	if p.Role() == models.RoleDriver {
		if p.DriverID() == nil || *p.DriverID() != trip.DriverID {
			return nil, ErrForbidden
		}
		return &trip, nil
	}
	if err := authz.RequireRole(p, models.RoleUser); err != nil {
		return nil, err
	}
	if !p.HasCompany(trip.CompanyID) {
		return nil, ErrForbidden
	}
	return &trip, nil
}
