// Package store provides the persistence layer behind the classification and
// scoring engine. The engine issues declarative filters and upserts by
// natural key; it never assumes a specific storage technology.
package store

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/parcelworks/landscout/internal/model"
)

// ErrNotFound is returned by Get* methods when no row matches the key.
var ErrNotFound = eris.New("store: not found")

// Bounds is a rectangular coordinate pre-filter. It is a performance
// optimization only; callers apply the exact distance check afterwards.
type Bounds struct {
	MinLat float64
	MaxLat float64
	MinLon float64
	MaxLon float64
}

// ComparableFilter selects comparable records declaratively. Zero values
// mean "no constraint". Archived rows are excluded unless IncludeArchived
// is set.
type ComparableFilter struct {
	StreetName          string
	City                string
	PostalCode          string
	Statuses            []model.PropertyStatus
	SoldSince           *time.Time
	SoldBefore          *time.Time
	HasCoordinate       bool
	RequirePricePerSqft bool
	RequireDOM          bool
	IncludeArchived     bool
	Bounds              *Bounds
	Limit               int
}

// StreetKey identifies one street classification unit.
type StreetKey struct {
	StreetName string
	City       string
}

// OpportunityFilter selects persisted land opportunities.
type OpportunityFilter struct {
	Level      model.UrgencyLevel
	NotAlerted bool
	Limit      int
}

// Store defines the persistence interface shared by every engine component.
type Store interface {
	// Comparables
	UpsertComparable(ctx context.Context, c *model.Comparable) error
	FindComparables(ctx context.Context, filter ComparableFilter) ([]model.Comparable, error)
	CountComparables(ctx context.Context, filter ComparableFilter) (int, error)
	DistinctStreets(ctx context.Context) ([]StreetKey, error)
	DistinctPostalCodes(ctx context.Context) ([]string, error)
	ArchiveSoldBefore(ctx context.Context, cutoff time.Time) (int64, error)

	// Street zones (one row per street+city key)
	UpsertStreetZone(ctx context.Context, z *model.StreetZone) error
	GetStreetZone(ctx context.Context, streetName, city string) (*model.StreetZone, error)
	ListStreetZones(ctx context.Context) ([]model.StreetZone, error)

	// Market heat (one row per postal code)
	UpsertMarketHeat(ctx context.Context, h *model.MarketHeat) error
	GetMarketHeat(ctx context.Context, postalCode string) (*model.MarketHeat, error)
	ListMarketHeat(ctx context.Context) ([]model.MarketHeat, error)

	// Land opportunities (one row per parcel)
	UpsertOpportunity(ctx context.Context, o *model.LandOpportunity) error
	GetOpportunity(ctx context.Context, parcelID string) (*model.LandOpportunity, error)
	ListOpportunities(ctx context.Context, filter OpportunityFilter) ([]model.LandOpportunity, error)
	MarkAlerted(ctx context.Context, opportunityID string, at time.Time) error

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
