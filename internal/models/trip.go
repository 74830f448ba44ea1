package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Trip status constants. A trip starts scheduled, moves to in_progress
// and then completed; cancelled is reachable from scheduled or
// in_progress. completed and cancelled are terminal.
const (
	TripStatusScheduled  = "scheduled"
	TripStatusInProgress = "in_progress"
	TripStatusCompleted  = "completed"
	TripStatusCancelled  = "cancelled"
)

// Inspection type constants.
const (
	InspectionTypePreTrip  = "pre_trip"
	InspectionTypePostTrip = "post_trip"
)

// Trip is an operational trip owned by one company. Its transitions are
// gated by inspection completion flags; the flags are set as a side
// effect of filing inspections, never directly by clients.
type Trip struct {
	ID        uuid.UUID  `json:"id" gorm:"type:uuid;primary_key;default:uuid_generate_v4()"`
	CompanyID uuid.UUID  `json:"company_id" gorm:"type:uuid;not null;index"`
	DriverID  uuid.UUID  `json:"driver_id" gorm:"type:uuid;not null;index"`
	TruckID   uuid.UUID  `json:"truck_id" gorm:"type:uuid;not null;index"`
	TrailerID *uuid.UUID `json:"trailer_id,omitempty" gorm:"type:uuid;index"`

	Status string `json:"status" gorm:"size:20;not null;default:'scheduled';index" validate:"oneof=scheduled in_progress completed cancelled"`

	Origin        string     `json:"origin" gorm:"size:255"`
	Destination   string     `json:"destination" gorm:"size:255"`
	ScheduledDate *time.Time `json:"scheduled_date"`
	ActualStart   *time.Time `json:"actual_start"`
	ActualEnd     *time.Time `json:"actual_end"`

	StartMileage *float64 `json:"start_mileage,omitempty"`
	EndMileage   *float64 `json:"end_mileage,omitempty"`
	MilesDriven  *float64 `json:"miles_driven,omitempty"`

	PreTripInspectionCompleted  bool `json:"pre_trip_inspection_completed" gorm:"default:false"`
	PostTripInspectionCompleted bool `json:"post_trip_inspection_completed" gorm:"default:false"`

	CreatedAt time.Time `json:"created_at" gorm:"index"`
	UpdatedAt time.Time `json:"updated_at"`

	Company     *Company     `json:"company,omitempty" gorm:"foreignKey:CompanyID"`
	Driver      *Driver      `json:"driver,omitempty" gorm:"foreignKey:DriverID"`
	Truck       *Truck       `json:"truck,omitempty" gorm:"foreignKey:TruckID"`
	Trailer     *Trailer     `json:"trailer,omitempty" gorm:"foreignKey:TrailerID"`
	Inspections []Inspection `json:"inspections,omitempty" gorm:"foreignKey:TripID"`
}

// IsTerminal reports whether the trip is in a terminal state.
func (t *Trip) IsTerminal() bool {
	return t.Status == TripStatusCompleted || t.Status == TripStatusCancelled
}

// CanStart reports whether the start transition is permitted from the
// trip's current state with its current gates.
func (t *Trip) CanStart() bool {
	return t.Status == TripStatusScheduled && t.PreTripInspectionCompleted
}

// CanComplete reports whether the complete transition is permitted.
func (t *Trip) CanComplete() bool {
	return t.Status == TripStatusInProgress && t.PostTripInspectionCompleted
}

// CanCancel reports whether the cancel transition is permitted.
func (t *Trip) CanCancel() bool {
	return t.Status == TripStatusScheduled || t.Status == TripStatusInProgress
}

// Inspection is a compliance artifact owned by a trip. Immutable once
// created, and at most one inspection of each type exists per trip.
type Inspection struct {
	ID     uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:uuid_generate_v4()"`
	TripID uuid.UUID `json:"trip_id" gorm:"type:uuid;not null;uniqueIndex:idx_inspections_trip_type"`
	Type   string    `json:"type" gorm:"size:20;not null;uniqueIndex:idx_inspections_trip_type" validate:"oneof=pre_trip post_trip"`

	BrakesOK             bool `json:"brakes_ok"`
	LightsOK             bool `json:"lights_ok"`
	TiresOK              bool `json:"tires_ok"`
	MirrorsOK            bool `json:"mirrors_ok"`
	HornOK               bool `json:"horn_ok"`
	CouplingOK           bool `json:"coupling_ok"`
	EmergencyEquipmentOK bool `json:"emergency_equipment_ok"`
	FluidLevelsOK        bool `json:"fluid_levels_ok"`

	Notes         string     `json:"notes"`
	PerformedByID *uuid.UUID `json:"performed_by_id,omitempty" gorm:"type:uuid"`

	CreatedAt time.Time `json:"created_at"`

	Trip *Trip `json:"trip,omitempty" gorm:"foreignKey:TripID"`
}

// Passed reports whether every checklist item passed.
func (i *Inspection) Passed() bool {
	return i.BrakesOK && i.LightsOK && i.TiresOK && i.MirrorsOK &&
		i.HornOK && i.CouplingOK && i.EmergencyEquipmentOK && i.FluidLevelsOK
}

// IsValidInspectionType reports whether t is a known inspection type.
func IsValidInspectionType(t string) bool {
	return t == InspectionTypePreTrip || t == InspectionTypePostTrip
}

func (t *Trip) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	if t.Status == "" {
		t.Status = TripStatusScheduled
	}
	return nil
}

func (i *Inspection) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}
