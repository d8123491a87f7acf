package classify

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/parcelworks/landscout/internal/batch"
	"github.com/parcelworks/landscout/internal/geo"
	"github.com/parcelworks/landscout/internal/model"
	"github.com/parcelworks/landscout/internal/store"
)

// minSoldForStreet is the minimum number of recent sales before the
// classifier stops falling back to active listings.
const minSoldForStreet = 3

// confidenceFullSample is the sample size at which confidence saturates.
const confidenceFullSample = 10

// StreetClassifier derives a color tier for each street from its comparable
// evidence and persists the result.
type StreetClassifier struct {
	searcher *geo.Searcher
	store    store.Store
	ladder   Ladder
}

// NewStreetClassifier creates a classifier using the given ladder.
func NewStreetClassifier(searcher *geo.Searcher, st store.Store, ladder Ladder) *StreetClassifier {
	return &StreetClassifier{searcher: searcher, store: st, ladder: ladder}
}

// Classify computes and persists the zone for one street. It returns
// model.ErrUnavailable when the street has no usable price evidence; in
// that case nothing is written.
func (c *StreetClassifier) Classify(ctx context.Context, streetName, city string) (*model.StreetZone, error) {
	comps, err := c.searcher.StreetComparables(ctx, streetName, city, minSoldForStreet)
	if err != nil {
		return nil, err
	}

	prices := pricesPerSqft(comps)
	if len(prices) == 0 {
		return nil, eris.Wrapf(model.ErrUnavailable, "classify: street %s/%s", streetName, city)
	}

	sort.Float64s(prices)
	zone := &model.StreetZone{
		StreetName:      streetName,
		City:            city,
		MedianPriceSqft: median(prices),
		MinPriceSqft:    prices[0],
		MaxPriceSqft:    prices[len(prices)-1],
		// Sample size counts every comparable on the street, not just the
		// ones with price evidence; confidence tracks it.
		SampleSize: len(comps),
		Confidence: confidence(len(comps)),
	}
	zone.Color = c.ladder.Color(zone.MedianPriceSqft)
	zone.AvgDOM, zone.MinDOM, zone.MaxDOM = domStats(comps)

	if err := c.store.UpsertStreetZone(ctx, zone); err != nil {
		return nil, err
	}

	zap.L().Info("street classified",
		zap.String("street", streetName),
		zap.String("city", city),
		zap.String("color", string(zone.Color)),
		zap.Float64("median_price_sqft", zone.MedianPriceSqft),
		zap.Int("sample_size", zone.SampleSize))
	return zone, nil
}

// ClassifyAll classifies every distinct street in the store. Streets without
// usable evidence count as unavailable; per-street failures never abort the
// run.
func (c *StreetClassifier) ClassifyAll(ctx context.Context) (batch.Summary, error) {
	streets, err := c.store.DistinctStreets(ctx)
	if err != nil {
		return batch.Summary{}, err
	}
	return batch.Run(ctx, "classify streets", streets,
		func(k store.StreetKey) string { return fmt.Sprintf("%s, %s", k.StreetName, k.City) },
		func(ctx context.Context, k store.StreetKey) error {
			_, err := c.Classify(ctx, k.StreetName, k.City)
			return err
		})
}

// pricesPerSqft collects the price-per-sqft evidence, deriving it from price
// and living area when the comparable does not carry it directly.
func pricesPerSqft(comps []model.Comparable) []float64 {
	var prices []float64
	for _, c := range comps {
		if c.PricePerSqft != nil && *c.PricePerSqft > 0 {
			prices = append(prices, *c.PricePerSqft)
			continue
		}
		price, ok := c.Price()
		if !ok || c.Sqft == nil {
			continue
		}
		if pps, ok := model.ComputePricePerSqft(price, *c.Sqft); ok {
			prices = append(prices, pps)
		}
	}
	return prices
}

// median returns the midpoint of a sorted slice, averaging the two middle
// values for even lengths.
func median(sorted []float64) float64 {
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

// confidence grows linearly with sample size and saturates at 1.0.
func confidence(sampleSize int) float64 {
	c := float64(sampleSize) / confidenceFullSample
	if c > 1.0 {
		c = 1.0
	}
	return math.Round(c*100) / 100
}

// domStats aggregates days-on-market over the comparables that carry it.
// All three results are nil when none do.
func domStats(comps []model.Comparable) (avg *float64, min *int, max *int) {
	var total, count int
	for _, c := range comps {
		if c.DaysOnMarket == nil {
			continue
		}
		d := *c.DaysOnMarket
		total += d
		count++
		if min == nil || d < *min {
			min = &d
		}
		if max == nil || d > *max {
			max = &d
		}
	}
	if count == 0 {
		return nil, nil, nil
	}
	a := math.Round(float64(total)/float64(count)*10) / 10
	return &a, min, max
}
