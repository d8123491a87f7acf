package geo

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/parcelworks/landscout/internal/model"
	"github.com/parcelworks/landscout/internal/store"
)

// recentSaleWindow is how far back a sale still counts as market evidence.
const recentSaleWindow = 365 * 24 * time.Hour

// Searcher runs proximity and street-level comparable queries against the
// store.
type Searcher struct {
	store store.Store
}

// NewSearcher creates a Searcher over the given store.
func NewSearcher(st store.Store) *Searcher {
	return &Searcher{store: st}
}

// Nearby returns the comparables within radiusMiles of center, sold within
// the last year or currently active. Candidates are pre-filtered with a
// bounding box and then checked with the exact haversine distance.
func (s *Searcher) Nearby(ctx context.Context, center model.Coordinate, radiusMiles float64) ([]model.Comparable, error) {
	bounds := BoundsFor(center, radiusMiles)
	cutoff := time.Now().Add(-recentSaleWindow)

	candidates, err := s.store.FindComparables(ctx, store.ComparableFilter{
		HasCoordinate: true,
		Bounds:        &bounds,
	})
	if err != nil {
		return nil, eris.Wrap(err, "geo: nearby candidates")
	}

	var out []model.Comparable
	for _, c := range candidates {
		if !c.SoldWithin(cutoff) && c.Status != model.StatusActive {
			continue
		}
		coord, ok := c.Coordinate()
		if !ok {
			continue
		}
		if Distance(center, coord) <= radiusMiles {
			out = append(out, c)
		}
	}
	return out, nil
}

// StreetComparables returns the evidence set for classifying one street:
// properties sold within the last year on that street. When fewer than
// minSold sold records exist, the active listings on the street are used
// instead so thin streets still classify on current asking prices.
func (s *Searcher) StreetComparables(ctx context.Context, streetName, city string, minSold int) ([]model.Comparable, error) {
	cutoff := time.Now().Add(-recentSaleWindow)

	sold, err := s.store.FindComparables(ctx, store.ComparableFilter{
		StreetName: streetName,
		City:       city,
		Statuses:   []model.PropertyStatus{model.StatusSold},
		SoldSince:  &cutoff,
	})
	if err != nil {
		return nil, eris.Wrapf(err, "geo: sold comparables for %s/%s", streetName, city)
	}
	if len(sold) >= minSold {
		return sold, nil
	}

	active, err := s.store.FindComparables(ctx, store.ComparableFilter{
		StreetName: streetName,
		City:       city,
		Statuses:   []model.PropertyStatus{model.StatusActive},
	})
	if err != nil {
		return nil, eris.Wrapf(err, "geo: active comparables for %s/%s", streetName, city)
	}
	return active, nil
}
