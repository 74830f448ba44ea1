package authz

import (
	"fmt"

	"gorm.io/gorm"
)

// Kind tags a resource collection for scoping. Every kind the service
// exposes must have an entry in scopeRules; Scope panics on an unknown
// kind so a missing entry fails loudly at startup tests rather than
// leaking data at runtime.
type Kind string

const (
	KindCompany             Kind = "company"
	KindDriver              Kind = "driver"
	KindTruck               Kind = "truck"
	KindTrailer             Kind = "trailer"
	KindTrip                Kind = "trip"
	KindInspection          Kind = "inspection"
	KindMaintenance         Kind = "maintenance_record"
	KindMaintenanceCategory Kind = "maintenance_category"
)

// ruleMode selects how a resource kind reaches its owning company.
type ruleMode int

const (
	// modeDirect: the table has a company_id column.
	modeDirect ruleMode = iota
	// modeSelf: the table IS companies; scope by primary key.
	modeSelf
	// modePaths: company is reachable only transitively; the predicate
	// is a disjunction of the listed clauses, each clause independently
	// scoped to the principal's companies.
	modePaths
	// modeUnrestricted: global reference data, visible to any
	// authenticated principal.
	modeUnrestricted
)

// scopeRule is one row of the kind -> reachability table.
type scopeRule struct {
	mode ruleMode
	// paths holds SQL clauses for modePaths. Each clause must contain
	// exactly one IN-placeholder that receives the company id set.
	paths []string
}

// scopeRules is the explicit per-kind reachability table. Adding a
// resource kind means adding a row here; there is no reflective
// fallback.
var scopeRules = map[Kind]scopeRule{
	KindCompany: {mode: modeSelf},
	KindDriver:  {mode: modeDirect},
	KindTruck:   {mode: modeDirect},
	KindTrailer: {mode: modeDirect},
	KindTrip:    {mode: modeDirect},
	KindInspection: {mode: modePaths, paths: []string{
		"trip_id IN (SELECT id FROM trips WHERE company_id IN ?)",
	}},
	KindMaintenance: {mode: modePaths, paths: []string{
		"truck_id IN (SELECT id FROM trucks WHERE company_id IN ?)",
		"trailer_id IN (SELECT id FROM trailers WHERE company_id IN ?)",
	}},
	KindMaintenanceCategory: {mode: modeUnrestricted},
}

// KnownKinds returns every kind registered in the scope table.
func KnownKinds() []Kind {
	kinds := make([]Kind, 0, len(scopeRules))
	for k := range scopeRules {
		kinds = append(kinds, k)
	}
	return kinds
}

// emptyScope restricts a query to no rows at all.
func emptyScope(db *gorm.DB) *gorm.DB {
	return db.Where("1 = 0")
}

// unrestrictedScope leaves the query untouched.
func unrestrictedScope(db *gorm.DB) *gorm.DB {
	return db
}

// Scope computes the visibility predicate for a principal over a
// resource kind, returned as a GORM scope. An unauthenticated
// principal, a principal without a membership, or one whose membership
// has no companies sees nothing (except unrestricted reference data,
// which still requires authentication).
func Scope(p *Principal, kind Kind) func(*gorm.DB) *gorm.DB {
	rule, ok := scopeRules[kind]
	if !ok {
		panic(fmt.Sprintf("authz: no scope rule registered for kind %q", kind))
	}

	if p == nil || p.User == nil {
		return emptyScope
	}
	if rule.mode == modeUnrestricted {
		return unrestrictedScope
	}
	if p.Membership == nil {
		return emptyScope
	}
	companies := p.CompanyIDs()
	if len(companies) == 0 {
		return emptyScope
	}

	switch rule.mode {
	case modeDirect:
		return func(db *gorm.DB) *gorm.DB {
			return db.Where("company_id IN ?", companies)
		}
	case modeSelf:
		return func(db *gorm.DB) *gorm.DB {
			return db.Where("id IN ?", companies)
		}
	case modePaths:
		clauses := rule.paths
		return func(db *gorm.DB) *gorm.DB {
			cond := db.Session(&gorm.Session{NewDB: true})
			for i, clause := range clauses {
				if i == 0 {
					cond = cond.Where(clause, companies)
				} else {
					cond = cond.Or(clause, companies)
				}
			}
			return db.Where(cond)
		}
	default:
		return emptyScope
	}
}
