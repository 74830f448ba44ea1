package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"fleet-service/internal/models"
)

func datePtr(t time.Time) *time.Time { return &t }

func TestDriverPoints(t *testing.T) {
	now := time.Now()

	testCases := []struct {
		name     string
		driver   models.Driver
		expected int
	}{
		{
			name: "fully compliant driver",
			driver: models.Driver{
				IsActive:          true,
				LicenseExpiryDate: datePtr(now.Add(90 * 24 * time.Hour)),
				MedicalCertExpiry: datePtr(now.Add(90 * 24 * time.Hour)),
			},
			expected: 5,
		},
		{
			name: "license expiring within horizon earns partial credit",
			driver: models.Driver{
				IsActive:          true,
				LicenseExpiryDate: datePtr(now.Add(10 * 24 * time.Hour)),
				MedicalCertExpiry: datePtr(now.Add(200 * 24 * time.Hour)),
			},
			expected: 4,
		},
		{
			name: "expired license earns nothing",
			driver: models.Driver{
				IsActive:          true,
				LicenseExpiryDate: datePtr(now.Add(-24 * time.Hour)),
				MedicalCertExpiry: datePtr(now.Add(90 * 24 * time.Hour)),
			},
			expected: 3,
		},
		{
			name: "missing documents",
			driver: models.Driver{
				IsActive: true,
			},
			expected: 1,
		},
		{
			name:     "inactive with nothing",
			driver:   models.Driver{},
			expected: 0,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, DriverPoints(&tc.driver, now))
		})
	}
}

func TestDriverCompliant_PartialLicenseFullMedical(t *testing.T) {
	// License valid for 10 more days, medical for 200: 1 + 1 + 2 = 4,
	// which makes the cut.
	now := time.Now()
	driver := models.Driver{
		IsActive:          true,
		LicenseExpiryDate: datePtr(now.Add(10 * 24 * time.Hour)),
		MedicalCertExpiry: datePtr(now.Add(200 * 24 * time.Hour)),
	}
	assert.Equal(t, 4, DriverPoints(&driver, now))
	assert.True(t, DriverCompliant(&driver, now))
}

func TestVehiclePoints(t *testing.T) {
	now := time.Now()
	future := datePtr(now.Add(60 * 24 * time.Hour))
	past := datePtr(now.Add(-24 * time.Hour))

	truck := models.Truck{IsActive: true, RegistrationExpiry: future, InsuranceExpiry: future}
	assert.Equal(t, 3, TruckPoints(&truck, now))

	truck.InsuranceExpiry = past
	assert.Equal(t, 2, TruckPoints(&truck, now))

	trailer := models.Trailer{IsActive: false, RegistrationExpiry: past}
	assert.Equal(t, 0, TrailerPoints(&trailer, now))
}

func TestTripPoints(t *testing.T) {
	assert.Equal(t, 0, TripPoints(&models.Trip{}))
	assert.Equal(t, 1, TripPoints(&models.Trip{PreTripInspectionCompleted: true}))
	assert.Equal(t, 2, TripPoints(&models.Trip{
		PreTripInspectionCompleted:  true,
		PostTripInspectionCompleted: true,
	}))
}

func TestDimensionScores_EmptyCollectionsArePerfect(t *testing.T) {
	now := time.Now()
	assert.Equal(t, 100.0, DriverScore(nil, now))
	assert.Equal(t, 100.0, VehicleScore(nil, nil, now))
	assert.Equal(t, 100.0, OperationsScore(nil))

	scores := ScoreAll(nil, nil, nil, nil, now)
	assert.Equal(t, 100.0, scores.Drivers)
	assert.Equal(t, 100.0, scores.Vehicles)
	assert.Equal(t, 100.0, scores.Operations)
	assert.Equal(t, 100.0, scores.Overall)
}

func TestDimensionScores_Ratio(t *testing.T) {
	now := time.Now()
	future := datePtr(now.Add(90 * 24 * time.Hour))

	drivers := []models.Driver{
		{IsActive: true, LicenseExpiryDate: future, MedicalCertExpiry: future}, // compliant
		{IsActive: true},                    // 1 point
		{IsActive: false},                   // 0 points
		{IsActive: true, LicenseExpiryDate: future, MedicalCertExpiry: future}, // compliant
	}
	assert.Equal(t, 50.0, DriverScore(drivers, now))
}

func TestOperationsScore_RequiresBothGates(t *testing.T) {
	trips := []models.Trip{
		{PreTripInspectionCompleted: true, PostTripInspectionCompleted: true},
		{PreTripInspectionCompleted: true},
		{},
	}
	score := OperationsScore(trips)
	assert.InDelta(t, 33.333, score, 0.01)
}

func TestScoreAll_RangeAndRounding(t *testing.T) {
	now := time.Now()
	trips := []models.Trip{
		{PreTripInspectionCompleted: true, PostTripInspectionCompleted: true},
		{},
		{},
	}
	scores := ScoreAll(nil, nil, nil, trips, now)

	assert.GreaterOrEqual(t, scores.Operations, 0.0)
	assert.LessOrEqual(t, scores.Operations, 100.0)
	// 1/3 rounds to one decimal.
	assert.Equal(t, 33.3, scores.Operations)
	// Mean of 100, 100, 33.333... rounded to one decimal.
	assert.Equal(t, 77.8, scores.Overall)
}

func TestExpiryPoints_Boundaries(t *testing.T) {
	now := time.Now()

	assert.Equal(t, 0, expiryPoints(nil, now))
	assert.Equal(t, 0, expiryPoints(datePtr(now), now))
	assert.Equal(t, 1, expiryPoints(datePtr(now.Add(time.Hour)), now))
	assert.Equal(t, 1, expiryPoints(datePtr(now.Add(29*24*time.Hour)), now))
	assert.Equal(t, 2, expiryPoints(datePtr(now.Add(31*24*time.Hour)), now))
}
