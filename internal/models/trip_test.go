package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTrip_CanStart(t *testing.T) {
	trip := &Trip{Status: TripStatusScheduled}
	assert.False(t, trip.CanStart(), "start must be gated on the pre-trip inspection")

	trip.PreTripInspectionCompleted = true
	assert.True(t, trip.CanStart())

	trip.Status = TripStatusInProgress
	assert.False(t, trip.CanStart())
	trip.Status = TripStatusCompleted
	assert.False(t, trip.CanStart())
	trip.Status = TripStatusCancelled
	assert.False(t, trip.CanStart())
}

func TestTrip_CanComplete(t *testing.T) {
	trip := &Trip{Status: TripStatusInProgress}
	assert.False(t, trip.CanComplete(), "complete must be gated on the post-trip inspection")

	trip.PostTripInspectionCompleted = true
	assert.True(t, trip.CanComplete())

	trip.Status = TripStatusScheduled
	assert.False(t, trip.CanComplete())
	trip.Status = TripStatusCompleted
	assert.False(t, trip.CanComplete())
}

func TestTrip_CanCancel(t *testing.T) {
	assert.True(t, (&Trip{Status: TripStatusScheduled}).CanCancel())
	assert.True(t, (&Trip{Status: TripStatusInProgress}).CanCancel())
	assert.False(t, (&Trip{Status: TripStatusCompleted}).CanCancel())
	assert.False(t, (&Trip{Status: TripStatusCancelled}).CanCancel())
}

func TestTrip_IsTerminal(t *testing.T) {
	assert.False(t, (&Trip{Status: TripStatusScheduled}).IsTerminal())
	assert.False(t, (&Trip{Status: TripStatusInProgress}).IsTerminal())
	assert.True(t, (&Trip{Status: TripStatusCompleted}).IsTerminal())
	assert.True(t, (&Trip{Status: TripStatusCancelled}).IsTerminal())
}

func TestInspection_Passed(t *testing.T) {
	inspection := &Inspection{
		BrakesOK: true, LightsOK: true, TiresOK: true, MirrorsOK: true,
		HornOK: true, CouplingOK: true, EmergencyEquipmentOK: true, FluidLevelsOK: true,
	}
	assert.True(t, inspection.Passed())

	inspection.BrakesOK = false
	assert.False(t, inspection.Passed())

	assert.False(t, (&Inspection{}).Passed())
}

func TestIsValidInspectionType(t *testing.T) {
	assert.True(t, IsValidInspectionType(InspectionTypePreTrip))
	assert.True(t, IsValidInspectionType(InspectionTypePostTrip))
	assert.False(t, IsValidInspectionType("mid_trip"))
	assert.False(t, IsValidInspectionType(""))
}
