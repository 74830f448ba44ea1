package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"gorm.io/gorm"

	"fleet-service/internal/authz"
	"fleet-service/internal/models"
	redisclient "fleet-service/internal/redis"
)

// ComplianceService assembles the compliance dashboard from
// already-scoped collections. Scoring itself is pure; this service
// only gathers inputs, caches snapshots and shapes the response.
type ComplianceService struct {
	db    *gorm.DB
	cache *redisclient.Client
}

// NewComplianceService creates a new compliance service
func NewComplianceService(db *gorm.DB, cache *redisclient.Client) *ComplianceService {
	return &ComplianceService{db: db, cache: cache}
}

// KeyMetrics summarizes the caller's fleet at a glance.
type KeyMetrics struct {
	TotalDrivers       int     `json:"total_drivers"`
	ActiveDrivers      int     `json:"active_drivers"`
	TotalVehicles      int     `json:"total_vehicles"`
	ActiveVehicles     int     `json:"active_vehicles"`
	ActiveTrips        int     `json:"active_trips"`
	CompletedToday     int     `json:"completed_today"`
	InspectionPassRate float64 `json:"inspection_pass_rate"`
	ComplianceScore    float64 `json:"compliance_score"`
}

// DriverActionItem flags a driver whose credentials need attention.
type DriverActionItem struct {
	ID        string `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Reason    string `json:"reason"`
}

// VehicleActionItem flags a vehicle whose documents have lapsed.
type VehicleActionItem struct {
	ID         string `json:"id"`
	UnitNumber string `json:"unit_number"`
	Kind       string `json:"kind"`
	Reason     string `json:"reason"`
}

// ActionItems collects the per-dimension attention lists.
type ActionItems struct {
	Drivers  []DriverActionItem  `json:"drivers"`
	Vehicles []VehicleActionItem `json:"vehicles"`
}

// DashboardSnapshot is the full compliance dashboard payload.
type DashboardSnapshot struct {
	ComplianceScores ComplianceScores `json:"compliance_scores"`
	Trend            string           `json:"trend"`
	KeyMetrics       KeyMetrics       `json:"key_metrics"`
	ActionItems      ActionItems      `json:"action_items"`
	GeneratedAt      time.Time        `json:"generated_at"`
}

// Dashboard builds the compliance snapshot for the caller's visible
// fleet. Snapshots are cached per principal; the cache is fail-open so
// a Redis outage only costs recomputation.
func (s *ComplianceService) Dashboard(ctx context.Context, p *authz.Principal) (*DashboardSnapshot, error) {
	if p == nil || p.User == nil {
		return nil, authz.ErrUnauthenticated
	}

	cacheKey := p.UserID().String()
	if s.cache != nil {
		var cached DashboardSnapshot
		hit, err := s.cache.GetComplianceSnapshot(ctx, cacheKey, &cached)
		if err != nil {
			log.Printf("[ComplianceService] Snapshot cache read failed: %v", err)
		} else if hit {
			return &cached, nil
		}
	}

	now := time.Now()

	var drivers []models.Driver
	if err := s.db.WithContext(ctx).Scopes(authz.Scope(p, authz.KindDriver)).Find(&drivers).Error; err != nil {
		return nil, fmt.Errorf("failed to load drivers: %w", err)
	}
	var trucks []models.Truck
	if err := s.db.WithContext(ctx).Scopes(authz.Scope(p, authz.KindTruck)).Find(&trucks).Error; err != nil {
		return nil, fmt.Errorf("failed to load trucks: %w", err)
	}
	var trailers []models.Trailer
	if err := s.db.WithContext(ctx).Scopes(authz.Scope(p, authz.KindTrailer)).Find(&trailers).Error; err != nil {
		return nil, fmt.Errorf("failed to load trailers: %w", err)
	}
	var windowTrips []models.Trip
	if err := s.db.WithContext(ctx).
		Scopes(authz.Scope(p, authz.KindTrip)).
		Where("created_at > ?", now.Add(-OperationsWindow)).
		Find(&windowTrips).Error; err != nil {
		return nil, fmt.Errorf("failed to load trips: %w", err)
	}

	scores := ScoreAll(drivers, trucks, trailers, windowTrips, now)

	snapshot := &DashboardSnapshot{
		ComplianceScores: scores,
		Trend:            "stable",
		KeyMetrics:       s.keyMetrics(ctx, p, drivers, trucks, trailers, scores, now),
		ActionItems:      buildActionItems(drivers, trucks, trailers, now),
		GeneratedAt:      now.UTC(),
	}

	if s.cache != nil {
		if err := s.cache.SetComplianceSnapshot(ctx, cacheKey, snapshot); err != nil {
			log.Printf("[ComplianceService] Snapshot cache write failed: %v", err)
		}
	}
	return snapshot, nil
}

func (s *ComplianceService) keyMetrics(ctx context.Context, p *authz.Principal, drivers []models.Driver, trucks []models.Truck, trailers []models.Trailer, scores ComplianceScores, now time.Time) KeyMetrics {
	metrics := KeyMetrics{
		TotalDrivers:    len(drivers),
		TotalVehicles:   len(trucks) + len(trailers),
		ComplianceScore: scores.Overall,
	}
	for i := range drivers {
		if drivers[i].IsActive {
			metrics.ActiveDrivers++
		}
	}
	for i := range trucks {
		if trucks[i].IsActive {
			metrics.ActiveVehicles++
		}
	}
	for i := range trailers {
		if trailers[i].IsActive {
			metrics.ActiveVehicles++
		}
	}

	var activeTrips int64
	if err := s.db.WithContext(ctx).Model(&models.Trip{}).
		Scopes(authz.Scope(p, authz.KindTrip)).
		Where("status = ?", models.TripStatusInProgress).
		Count(&activeTrips).Error; err != nil {
		log.Printf("[ComplianceService] Failed to count active trips: %v", err)
	}
	metrics.ActiveTrips = int(activeTrips)

	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	var completedToday int64
	if err := s.db.WithContext(ctx).Model(&models.Trip{}).
		Scopes(authz.Scope(p, authz.KindTrip)).
		Where("status = ? AND actual_end >= ?", models.TripStatusCompleted, dayStart).
		Count(&completedToday).Error; err != nil {
		log.Printf("[ComplianceService] Failed to count completed trips: %v", err)
	}
	metrics.CompletedToday = int(completedToday)

	var inspections []models.Inspection
	if err := s.db.WithContext(ctx).
		Scopes(authz.Scope(p, authz.KindInspection)).
		Where("created_at > ?", now.Add(-OperationsWindow)).
		Find(&inspections).Error; err != nil {
		log.Printf("[ComplianceService] Failed to load inspections: %v", err)
	}
	passed := 0
	for i := range inspections {
		if inspections[i].Passed() {
			passed++
		}
	}
	metrics.InspectionPassRate = round1(ratioScore(passed, len(inspections)))

	return metrics
}

// buildActionItems lists drivers with credentials expiring inside the
// horizon and vehicles with lapsed registration.
func buildActionItems(drivers []models.Driver, trucks []models.Truck, trailers []models.Trailer, now time.Time) ActionItems {
	items := ActionItems{
		Drivers:  []DriverActionItem{},
		Vehicles: []VehicleActionItem{},
	}
	horizon := now.Add(ComplianceHorizon)

	for i := range drivers {
		d := &drivers[i]
		switch {
		case d.LicenseExpiryDate == nil || !d.LicenseExpiryDate.After(now):
			items.Drivers = append(items.Drivers, DriverActionItem{
				ID: d.ID.String(), FirstName: d.FirstName, LastName: d.LastName,
				Reason: "license expired or missing",
			})
		case d.LicenseExpiryDate.Before(horizon):
			items.Drivers = append(items.Drivers, DriverActionItem{
				ID: d.ID.String(), FirstName: d.FirstName, LastName: d.LastName,
				Reason: "license expiring within 30 days",
			})
		case d.MedicalCertExpiry == nil || d.MedicalCertExpiry.Before(horizon):
			items.Drivers = append(items.Drivers, DriverActionItem{
				ID: d.ID.String(), FirstName: d.FirstName, LastName: d.LastName,
				Reason: "medical certificate needs attention",
			})
		}
	}

	for i := range trucks {
		t := &trucks[i]
		if t.RegistrationExpiry == nil || !t.RegistrationExpiry.After(now) {
			items.Vehicles = append(items.Vehicles, VehicleActionItem{
				ID: t.ID.String(), UnitNumber: t.UnitNumber, Kind: "truck",
				Reason: "registration lapsed",
			})
		}
	}
	for i := range trailers {
		t := &trailers[i]
		if t.RegistrationExpiry == nil || !t.RegistrationExpiry.After(now) {
			items.Vehicles = append(items.Vehicles, VehicleActionItem{
				ID: t.ID.String(), UnitNumber: t.UnitNumber, Kind: "trailer",
				Reason: "registration lapsed",
			})
		}
	}
	return items
}
