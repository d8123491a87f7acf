// Package opportunity evaluates candidate land parcels: a filter chain
// rejects unsuitable parcels, the survivors get a weighted urgency score and
// are persisted for follow-up.
package opportunity

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/parcelworks/landscout/internal/config"
	"github.com/parcelworks/landscout/internal/geo"
	"github.com/parcelworks/landscout/internal/model"
	"github.com/parcelworks/landscout/internal/store"
)

const (
	sqftPerAcre      = 43560.0
	recentSaleWindow = 90 * 24 * time.Hour
)

// RejectReason identifies which eligibility filter stopped a parcel.
type RejectReason string

const (
	RejectNoCoordinate      RejectReason = "no_coordinate"
	RejectNoStreetZone      RejectReason = "no_street_zone"
	RejectNoMarketHeat      RejectReason = "no_market_heat"
	RejectNoPrice           RejectReason = "no_price"
	RejectPriceAboveMax     RejectReason = "price_above_max"
	RejectLotTooSmall       RejectReason = "lot_too_small"
	RejectZoneColor         RejectReason = "zone_color_not_allowed"
	RejectMarketStatus      RejectReason = "market_status_not_allowed"
	RejectNoNearbySales     RejectReason = "no_nearby_comparables"
	RejectNearbyPriceTooLow RejectReason = "nearby_price_below_min"
	RejectTooFewRecentSales RejectReason = "too_few_recent_sales"
)

// Rejection is the typed outcome for a parcel that failed the filter chain.
// Rejected parcels are never persisted.
type Rejection struct {
	Reason RejectReason
}

func (r *Rejection) Error() string {
	return fmt.Sprintf("opportunity: parcel rejected: %s", r.Reason)
}

// factor scores by zone color.
var zoneColorScores = map[model.ZoneColor]int{
	model.ZoneGreen:      100,
	model.ZoneLightGreen: 75,
	model.ZoneYellow:     50,
	model.ZoneRed:        0,
}

// factor scores by market status.
var marketHeatScores = map[model.MarketStatus]int{
	model.MarketGrowing:    100,
	model.MarketStable:     80,
	model.MarketCold:       50,
	model.MarketOverheated: 0,
}

// Scorer runs the eligibility filters and urgency scoring for parcels.
type Scorer struct {
	store    store.Store
	searcher *geo.Searcher
	land     config.LandConfig
	urgency  config.UrgencyConfig
	now      func() time.Time
}

// NewScorer creates a parcel scorer.
func NewScorer(st store.Store, searcher *geo.Searcher, land config.LandConfig, urgency config.UrgencyConfig) *Scorer {
	return &Scorer{
		store:    st,
		searcher: searcher,
		land:     land,
		urgency:  urgency,
		now:      time.Now,
	}
}

// Evaluate runs the full chain for one parcel. On success the opportunity is
// persisted (keyed by parcel ID) and returned. A filtered-out parcel returns
// a *Rejection; nothing is written for it.
func (s *Scorer) Evaluate(ctx context.Context, parcel *model.Parcel) (*model.LandOpportunity, error) {
	coord, ok := parcel.Coordinate()
	if !ok {
		return nil, &Rejection{Reason: RejectNoCoordinate}
	}

	zone, err := s.store.GetStreetZone(ctx, parcel.StreetName, parcel.City)
	if err != nil {
		if eris.Is(err, store.ErrNotFound) {
			return nil, &Rejection{Reason: RejectNoStreetZone}
		}
		return nil, err
	}

	heat, err := s.store.GetMarketHeat(ctx, parcel.PostalCode)
	if err != nil {
		if eris.Is(err, store.ErrNotFound) {
			return nil, &Rejection{Reason: RejectNoMarketHeat}
		}
		return nil, err
	}

	price, ok := parcel.Price()
	if !ok {
		return nil, &Rejection{Reason: RejectNoPrice}
	}
	if price > s.land.MaxPrice {
		return nil, &Rejection{Reason: RejectPriceAboveMax}
	}

	if parcel.LotSizeAcres == nil || *parcel.LotSizeAcres < s.land.MinLotSizeAcres {
		return nil, &Rejection{Reason: RejectLotTooSmall}
	}

	if !contains(s.land.AllowedZoneColors, string(zone.Color)) {
		return nil, &Rejection{Reason: RejectZoneColor}
	}
	if !contains(s.land.AllowedMarketStatuses, string(heat.Status)) {
		return nil, &Rejection{Reason: RejectMarketStatus}
	}

	nearby, err := s.searcher.Nearby(ctx, coord, s.land.SearchRadiusMiles)
	if err != nil {
		return nil, err
	}
	if len(nearby) == 0 {
		return nil, &Rejection{Reason: RejectNoNearbySales}
	}

	nearbyAvg := avgPricePerSqft(nearby)
	if nearbyAvg < s.land.MinNearbyPriceSqft {
		return nil, &Rejection{Reason: RejectNearbyPriceTooLow}
	}

	recentSales := countRecentSales(nearby, s.now().Add(-recentSaleWindow))
	if recentSales < s.land.MinRecentSales {
		return nil, &Rejection{Reason: RejectTooFewRecentSales}
	}

	score := s.urgencyScore(zone.Color, heat.Status, nearbyAvg, landPricePerSqft(parcel, price), recentSales)

	opp := &model.LandOpportunity{
		ParcelID:           parcel.ID,
		Address:            parcel.Address,
		ZoneColor:          zone.Color,
		MarketStatus:       heat.Status,
		NearbyAvgPriceSqft: nearbyAvg,
		RecentSalesCount:   recentSales,
		UrgencyScore:       score,
		UrgencyLevel:       s.levelFor(score),
		FilterPassed:       true,
		Notes:              fmt.Sprintf("Parcel in %s zone, %s market", zone.Color, heat.Status),
	}

	if err := s.store.UpsertOpportunity(ctx, opp); err != nil {
		return nil, err
	}

	zap.L().Info("land opportunity scored",
		zap.String("parcel_id", parcel.ID),
		zap.Int("urgency_score", opp.UrgencyScore),
		zap.String("urgency_level", string(opp.UrgencyLevel)),
		zap.String("zone_color", string(opp.ZoneColor)),
		zap.String("market_status", string(opp.MarketStatus)))
	return opp, nil
}

// urgencyScore combines the four factor scores with the configured weights
// and rounds to the nearest integer.
func (s *Scorer) urgencyScore(color model.ZoneColor, status model.MarketStatus, nearbyAvg, landPriceSqft float64, recentSales int) int {
	w := s.urgency.Weights
	total := float64(zoneColorScores[color])*w.ZoneColor +
		float64(marketHeatScores[status])*w.MarketHeat +
		float64(priceOpportunityScore(landPriceSqft, nearbyAvg))*w.PriceOpportunity +
		float64(activityScore(recentSales))*w.RecentSales
	return int(math.Round(total))
}

func (s *Scorer) levelFor(score int) model.UrgencyLevel {
	switch {
	case score >= s.urgency.Levels.Urgent:
		return model.UrgencyUrgent
	case score >= s.urgency.Levels.Good:
		return model.UrgencyGood
	default:
		return model.UrgencyNormal
	}
}

// priceOpportunityScore rewards land priced well below the surrounding
// built housing stock.
func priceOpportunityScore(landPriceSqft, nearbyAvg float64) int {
	if nearbyAvg == 0 {
		return 0
	}
	ratio := landPriceSqft / nearbyAvg
	switch {
	case ratio < 0.5:
		return 100
	case ratio < 0.7:
		return 75
	case ratio < 0.9:
		return 50
	default:
		return 0
	}
}

// activityScore rewards recent sales volume near the parcel.
func activityScore(recentSales int) int {
	switch {
	case recentSales >= 5:
		return 100
	case recentSales >= 3:
		return 75
	case recentSales >= 1:
		return 50
	default:
		return 0
	}
}

// landPricePerSqft derives the parcel's price per square foot. Raw land has
// no living area, so the lot acreage stands in for it.
func landPricePerSqft(p *model.Parcel, price float64) float64 {
	if p.Sqft != nil && *p.Sqft > 0 {
		return price / *p.Sqft
	}
	if p.LotSizeAcres != nil && *p.LotSizeAcres > 0 {
		return price / (*p.LotSizeAcres * sqftPerAcre)
	}
	return 0
}

func avgPricePerSqft(comps []model.Comparable) float64 {
	var total float64
	var count int
	for _, c := range comps {
		if c.PricePerSqft != nil && *c.PricePerSqft > 0 {
			total += *c.PricePerSqft
			count++
		}
	}
	if count == 0 {
		return 0
	}
	return total / float64(count)
}

func countRecentSales(comps []model.Comparable, cutoff time.Time) int {
	var n int
	for _, c := range comps {
		if c.SoldWithin(cutoff) {
			n++
		}
	}
	return n
}

func contains(values []string, v string) bool {
	for _, x := range values {
		if x == v {
			return true
		}
	}
	return false
}
