package authz

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/utils/tests"

	"fleet-service/internal/models"
)

// dryRunDB builds queries without a live database so the generated
// predicates can be inspected.
func dryRunDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(tests.DummyDialector{}, &gorm.Config{DryRun: true})
	require.NoError(t, err)
	return db
}

func principalWith(role string, companies ...uuid.UUID) *Principal {
	companyModels := make([]models.Company, len(companies))
	for i, id := range companies {
		companyModels[i] = models.Company{ID: id}
	}
	return &Principal{
		User: &models.User{ID: uuid.New()},
		Membership: &models.Membership{
			UserID:    uuid.New(),
			TenantID:  uuid.New(),
			Role:      role,
			Companies: companyModels,
		},
	}
}

func scopeSQL(t *testing.T, p *Principal, kind Kind, table string) string {
	t.Helper()
	db := dryRunDB(t)
	var rows []map[string]interface{}
	stmt := db.Table(table).Scopes(Scope(p, kind)).Find(&rows).Statement
	return stmt.SQL.String()
}

func TestScope_EveryKindIsRegistered(t *testing.T) {
	expected := []Kind{
		KindCompany, KindDriver, KindTruck, KindTrailer,
		KindTrip, KindInspection, KindMaintenance, KindMaintenanceCategory,
	}
	assert.ElementsMatch(t, expected, KnownKinds())
}

func TestScope_UnknownKindPanics(t *testing.T) {
	assert.Panics(t, func() {
		Scope(principalWith(models.RoleAdmin, uuid.New()), Kind("document"))
	})
}

func TestScope_UnauthenticatedSeesNothing(t *testing.T) {
	for _, kind := range KnownKinds() {
		sql := scopeSQL(t, nil, kind, "resources")
		assert.Contains(t, sql, "1 = 0", "kind %s should yield the empty predicate", kind)
	}
}

func TestScope_NoMembershipSeesNothing(t *testing.T) {
	p := &Principal{User: &models.User{ID: uuid.New()}}

	sql := scopeSQL(t, p, KindTrip, "trips")
	assert.Contains(t, sql, "1 = 0")
}

func TestScope_EmptyCompanySetSeesNothing(t *testing.T) {
	p := principalWith(models.RoleAdmin)

	sql := scopeSQL(t, p, KindDriver, "drivers")
	assert.Contains(t, sql, "1 = 0")
}

func TestScope_DirectKindsFilterByCompany(t *testing.T) {
	p := principalWith(models.RoleUser, uuid.New(), uuid.New())

	for _, kind := range []Kind{KindDriver, KindTruck, KindTrailer, KindTrip} {
		sql := scopeSQL(t, p, kind, "resources")
		assert.Contains(t, sql, "company_id IN", "kind %s", kind)
		assert.NotContains(t, sql, "1 = 0")
	}
}

func TestScope_CompanyScopesByPrimaryKey(t *testing.T) {
	p := principalWith(models.RoleAdmin, uuid.New(), uuid.New())

	sql := scopeSQL(t, p, KindCompany, "companies")
	assert.Contains(t, sql, "id IN")
	assert.NotContains(t, sql, "company_id IN")
}

func TestScope_InspectionReachesCompanyThroughTrips(t *testing.T) {
	p := principalWith(models.RoleUser, uuid.New())

	sql := scopeSQL(t, p, KindInspection, "inspections")
	assert.Contains(t, sql, "trip_id IN (SELECT id FROM trips WHERE company_id IN")
}

func TestScope_MaintenanceIsADisjunctionOverVehiclePaths(t *testing.T) {
	p := principalWith(models.RoleUser, uuid.New())

	sql := scopeSQL(t, p, KindMaintenance, "maintenance_records")
	assert.Contains(t, sql, "truck_id IN (SELECT id FROM trucks WHERE company_id IN")
	assert.Contains(t, sql, "trailer_id IN (SELECT id FROM trailers WHERE company_id IN")
	assert.Contains(t, sql, "OR")
}

func TestScope_ReferenceDataIsUnrestrictedForAuthenticated(t *testing.T) {
	p := principalWith(models.RoleDriver, uuid.New())

	sql := scopeSQL(t, p, KindMaintenanceCategory, "maintenance_categories")
	assert.NotContains(t, sql, "1 = 0")
	assert.NotContains(t, sql, "company_id")

	// Reference data still needs a caller.
	unauthSQL := scopeSQL(t, nil, KindMaintenanceCategory, "maintenance_categories")
	assert.Contains(t, unauthSQL, "1 = 0")
}

func TestScope_EmptyCompaniesBeatUnrestrictedOnlyForOwnedKinds(t *testing.T) {
	// A membership with no companies still reads global reference data.
	p := principalWith(models.RoleUser)

	sql := scopeSQL(t, p, KindMaintenanceCategory, "maintenance_categories")
	assert.NotContains(t, sql, "1 = 0")
}
