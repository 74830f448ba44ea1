package services

import (
	"math"
	"time"

	"fleet-service/internal/models"
)

// Scoring constants. Drivers earn up to 5 points, vehicles up to 3,
// trips up to 2; the compliance cuts below decide who counts toward the
// dimension ratio.
const (
	// ComplianceHorizon is the look-ahead window for expiring
	// credentials: a document valid but expiring inside the horizon
	// earns partial credit.
	ComplianceHorizon = 30 * 24 * time.Hour

	DriverMaxPoints  = 5
	VehicleMaxPoints = 3
	TripMaxPoints    = 2

	DriverCompliantCut  = 4
	VehicleCompliantCut = 2
	TripCompliantCut    = 2
)

// OperationsWindow bounds the trip set scored by the operations
// dimension to the trailing 30 days of created trips.
const OperationsWindow = 30 * 24 * time.Hour

// expiryPoints scores a dated credential 2/1/0: full credit beyond the
// horizon, partial credit when valid but expiring inside it, none when
// missing or already expired.
func expiryPoints(expiry *time.Time, now time.Time) int {
	if expiry == nil || !expiry.After(now) {
		return 0
	}
	if expiry.After(now.Add(ComplianceHorizon)) {
		return 2
	}
	return 1
}

// currentPoint scores an expiry date 1/0: any unexpired date counts.
func currentPoint(expiry *time.Time, now time.Time) int {
	if expiry != nil && expiry.After(now) {
		return 1
	}
	return 0
}

// DriverPoints scores a driver out of 5: 1 for active status, up to 2
// for license validity, up to 2 for medical certificate validity.
func DriverPoints(d *models.Driver, now time.Time) int {
	points := 0
	if d.IsActive {
		points++
	}
	points += expiryPoints(d.LicenseExpiryDate, now)
	points += expiryPoints(d.MedicalCertExpiry, now)
	return points
}

// DriverCompliant applies the 4-of-5 cut.
func DriverCompliant(d *models.Driver, now time.Time) bool {
	return DriverPoints(d, now) >= DriverCompliantCut
}

// TruckPoints scores a truck out of 3: active status, current
// registration, current insurance.
func TruckPoints(t *models.Truck, now time.Time) int {
	points := 0
	if t.IsActive {
		points++
	}
	points += currentPoint(t.RegistrationExpiry, now)
	points += currentPoint(t.InsuranceExpiry, now)
	return points
}

// TrailerPoints scores a trailer out of 3 under the same rule as
// trucks.
func TrailerPoints(t *models.Trailer, now time.Time) int {
	points := 0
	if t.IsActive {
		points++
	}
	points += currentPoint(t.RegistrationExpiry, now)
	points += currentPoint(t.InsuranceExpiry, now)
	return points
}

// TripPoints scores a trip out of 2: one per completed inspection gate.
func TripPoints(t *models.Trip) int {
	points := 0
	if t.PreTripInspectionCompleted {
		points++
	}
	if t.PostTripInspectionCompleted {
		points++
	}
	return points
}

// ratioScore converts a compliant/total pair into a 0-100 score. An
// empty collection is a perfect score, never a division error.
func ratioScore(compliant, total int) float64 {
	if total == 0 {
		return 100.0
	}
	return 100.0 * float64(compliant) / float64(total)
}

// round1 rounds to one decimal place.
func round1(x float64) float64 {
	return math.Round(x*10) / 10
}

// DriverScore is the driver-dimension score over a scoped driver set.
func DriverScore(drivers []models.Driver, now time.Time) float64 {
	compliant := 0
	for i := range drivers {
		if DriverCompliant(&drivers[i], now) {
			compliant++
		}
	}
	return ratioScore(compliant, len(drivers))
}

// VehicleScore is the vehicle-dimension score over a scoped fleet.
// Trucks and trailers count as one population.
func VehicleScore(trucks []models.Truck, trailers []models.Trailer, now time.Time) float64 {
	compliant := 0
	for i := range trucks {
		if TruckPoints(&trucks[i], now) >= VehicleCompliantCut {
			compliant++
		}
	}
	for i := range trailers {
		if TrailerPoints(&trailers[i], now) >= VehicleCompliantCut {
			compliant++
		}
	}
	return ratioScore(compliant, len(trucks)+len(trailers))
}

// OperationsScore is the operations-dimension score over an
// already-windowed trip set.
func OperationsScore(trips []models.Trip) float64 {
	compliant := 0
	for i := range trips {
		if TripPoints(&trips[i]) >= TripCompliantCut {
			compliant++
		}
	}
	return ratioScore(compliant, len(trips))
}

// ComplianceScores holds the three dimension scores and their mean.
type ComplianceScores struct {
	Drivers    float64 `json:"drivers"`
	Vehicles   float64 `json:"vehicles"`
	Operations float64 `json:"operations"`
	Overall    float64 `json:"overall"`
}

// ScoreAll computes every dimension and the overall mean, each rounded
// to one decimal.
func ScoreAll(drivers []models.Driver, trucks []models.Truck, trailers []models.Trailer, trips []models.Trip, now time.Time) ComplianceScores {
	d := DriverScore(drivers, now)
	v := VehicleScore(trucks, trailers, now)
	o := OperationsScore(trips)
	return ComplianceScores{
		Drivers:    round1(d),
		Vehicles:   round1(v),
		Operations: round1(o),
		Overall:    round1((d + v + o) / 3),
	}
}
