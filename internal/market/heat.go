// Package market classifies postal areas by supply and demand pressure.
package market

import (
	"context"
	"math"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/parcelworks/landscout/internal/batch"
	"github.com/parcelworks/landscout/internal/model"
	"github.com/parcelworks/landscout/internal/store"
)

const (
	// noSalesInventory is the sentinel for an area with listings but no
	// recorded sales velocity.
	noSalesInventory = 999.0

	// minChangeObservations is the minimum sample per window before a
	// price or DOM trend is trusted; below it the change reports 0.0.
	minChangeObservations = 2

	soldWindow   = 90 * 24 * time.Hour
	baselineEnd  = 60 * 24 * time.Hour
	recentWindow = 30 * 24 * time.Hour

	coldInventory         = 12.0
	stableInventory       = 6.0
	overheatedPriceChange = 15.0
)

var recommendations = map[model.MarketStatus]string{
	model.MarketCold:       "Favorable time to buy land. Low competition gives buyers the advantage.",
	model.MarketStable:     "Good time to invest. The market is balanced.",
	model.MarketGrowing:    "Excellent time to buy. The market is growing without overheating.",
	model.MarketOverheated: "AVOID. The market is overheated with a high risk of price correction in the coming months.",
}

// Classifier derives a MarketHeat record per postal code from comparable
// activity and persists it.
type Classifier struct {
	store store.Store
	now   func() time.Time
}

// NewClassifier creates a market heat classifier.
func NewClassifier(st store.Store) *Classifier {
	return &Classifier{store: st, now: time.Now}
}

// ClassifyAll classifies every distinct postal code in the store. Postal
// codes without recent sales count as unavailable; per-code failures never
// abort the run.
func (c *Classifier) ClassifyAll(ctx context.Context) (batch.Summary, error) {
	codes, err := c.store.DistinctPostalCodes(ctx)
	if err != nil {
		return batch.Summary{}, err
	}
	return batch.Run(ctx, "classify market heat", codes,
		func(code string) string { return code },
		func(ctx context.Context, code string) error {
			_, err := c.Classify(ctx, code)
			return err
		})
}

// Classify computes and persists the market heat for one postal code. A
// postal code with zero sales in the last 90 days returns
// model.ErrUnavailable and writes nothing.
func (c *Classifier) Classify(ctx context.Context, postalCode string) (*model.MarketHeat, error) {
	now := c.now()
	soldSince := now.Add(-soldWindow)

	active, err := c.store.CountComparables(ctx, store.ComparableFilter{
		PostalCode: postalCode,
		Statuses:   []model.PropertyStatus{model.StatusActive},
	})
	if err != nil {
		return nil, eris.Wrapf(err, "market: count active for %s", postalCode)
	}

	sold90, err := c.store.CountComparables(ctx, store.ComparableFilter{
		PostalCode: postalCode,
		Statuses:   []model.PropertyStatus{model.StatusSold},
		SoldSince:  &soldSince,
	})
	if err != nil {
		return nil, eris.Wrapf(err, "market: count sold for %s", postalCode)
	}
	if sold90 == 0 {
		return nil, eris.Wrapf(model.ErrUnavailable, "market: postal code %s", postalCode)
	}

	priceChange, err := c.windowChange(ctx, postalCode, now, pricePerSqftOf)
	if err != nil {
		return nil, err
	}
	domChange, err := c.windowChange(ctx, postalCode, now, daysOnMarketOf)
	if err != nil {
		return nil, err
	}

	heat := &model.MarketHeat{
		PostalCode:      postalCode,
		ActiveListings:  active,
		SoldLast90d:     sold90,
		InventoryMonths: inventoryMonths(active, sold90),
		PriceChange90d:  priceChange,
		DOMChange90d:    domChange,
	}
	heat.Status = statusFor(heat.InventoryMonths, heat.PriceChange90d)
	heat.Recommendation = recommendations[heat.Status]

	if err := c.store.UpsertMarketHeat(ctx, heat); err != nil {
		return nil, err
	}

	zap.L().Info("market heat classified",
		zap.String("postal_code", postalCode),
		zap.String("status", string(heat.Status)),
		zap.Float64("inventory_months", heat.InventoryMonths),
		zap.Float64("price_change_90d", heat.PriceChange90d))
	return heat, nil
}

// inventoryMonths is active listings divided by the monthly sales rate.
func inventoryMonths(active, sold90 int) float64 {
	if sold90 == 0 {
		return noSalesInventory
	}
	monthly := float64(sold90) / 3.0
	return math.Round(float64(active)/monthly*10) / 10
}

// statusFor classifies the area. DOM trend is recorded for reporting but
// does not influence the status.
func statusFor(inventory, priceChange float64) model.MarketStatus {
	switch {
	case inventory > coldInventory:
		return model.MarketCold
	case inventory >= stableInventory:
		return model.MarketStable
	case priceChange > overheatedPriceChange:
		return model.MarketOverheated
	default:
		return model.MarketGrowing
	}
}

// windowChange compares the metric's average over two sale windows: the
// baseline (90 to 60 days ago) and the recent month. Both windows need at
// least minChangeObservations values; otherwise the change is exactly 0.0.
func (c *Classifier) windowChange(ctx context.Context, postalCode string, now time.Time, metric func(model.Comparable) (float64, bool)) (float64, error) {
	baselineStart := now.Add(-soldWindow)
	baselineCutoff := now.Add(-baselineEnd)
	recentStart := now.Add(-recentWindow)

	baseline, err := c.soldMetrics(ctx, postalCode, &baselineStart, &baselineCutoff, metric)
	if err != nil {
		return 0, err
	}
	recent, err := c.soldMetrics(ctx, postalCode, &recentStart, nil, metric)
	if err != nil {
		return 0, err
	}

	if len(baseline) < minChangeObservations || len(recent) < minChangeObservations {
		return 0.0, nil
	}

	baseAvg := mean(baseline)
	if baseAvg == 0 {
		return 0.0, nil
	}
	change := (mean(recent) - baseAvg) / baseAvg * 100
	return math.Round(change*100) / 100, nil
}

func (c *Classifier) soldMetrics(ctx context.Context, postalCode string, since, before *time.Time, metric func(model.Comparable) (float64, bool)) ([]float64, error) {
	comps, err := c.store.FindComparables(ctx, store.ComparableFilter{
		PostalCode: postalCode,
		Statuses:   []model.PropertyStatus{model.StatusSold},
		SoldSince:  since,
		SoldBefore: before,
	})
	if err != nil {
		return nil, eris.Wrapf(err, "market: sold window for %s", postalCode)
	}

	var values []float64
	for _, comp := range comps {
		if v, ok := metric(comp); ok {
			values = append(values, v)
		}
	}
	return values, nil
}

func pricePerSqftOf(c model.Comparable) (float64, bool) {
	if c.PricePerSqft == nil {
		return 0, false
	}
	return *c.PricePerSqft, true
}

func daysOnMarketOf(c model.Comparable) (float64, bool) {
	if c.DaysOnMarket == nil {
		return 0, false
	}
	return float64(*c.DaysOnMarket), true
}

func mean(values []float64) float64 {
	var total float64
	for _, v := range values {
		total += v
	}
	return total / float64(len(values))
}
