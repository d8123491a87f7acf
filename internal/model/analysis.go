package model

import (
	"time"

	"github.com/rotisserie/eris"
)

// ErrUnavailable marks a classification that cannot be produced because the
// comparable set is insufficient. It is a typed outcome, not a failure: no
// partial record is persisted and batch runs count it separately.
var ErrUnavailable = eris.New("insufficient comparable data")

// ZoneColor is the categorical price tier for a street or area.
type ZoneColor string

const (
	ZoneGreen      ZoneColor = "green"
	ZoneLightGreen ZoneColor = "light_green"
	ZoneYellow     ZoneColor = "yellow"
	ZoneRed        ZoneColor = "red"
	ZoneUnknown    ZoneColor = "unknown"
)

// MarketStatus is the categorical supply/demand label for a postal area.
type MarketStatus string

const (
	MarketCold       MarketStatus = "cold"
	MarketStable     MarketStatus = "stable"
	MarketGrowing    MarketStatus = "growing"
	MarketOverheated MarketStatus = "overheated"
	MarketUnknown    MarketStatus = "unknown"
)

// UrgencyLevel is the tier derived from a land opportunity's urgency score.
type UrgencyLevel string

const (
	UrgencyNormal UrgencyLevel = "normal"
	UrgencyGood   UrgencyLevel = "good"
	UrgencyUrgent UrgencyLevel = "urgent"
)

// StreetZone holds the classification result for one (street, city) key.
// Exactly one row exists per key; re-classification upserts in place.
type StreetZone struct {
	ID              string    `json:"id"`
	StreetName      string    `json:"street_name"`
	City            string    `json:"city"`
	MedianPriceSqft float64   `json:"median_price_sqft"`
	MinPriceSqft    float64   `json:"min_price_sqft"`
	MaxPriceSqft    float64   `json:"max_price_sqft"`
	AvgDOM          *float64  `json:"avg_dom,omitempty"`
	MinDOM          *int      `json:"min_dom,omitempty"`
	MaxDOM          *int      `json:"max_dom,omitempty"`
	Color           ZoneColor `json:"color"`
	SampleSize      int       `json:"sample_size"`
	Confidence      float64   `json:"confidence"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// MarketHeat holds the market-state classification for one postal code.
type MarketHeat struct {
	ID              string       `json:"id"`
	PostalCode      string       `json:"postal_code"`
	ActiveListings  int          `json:"active_listings"`
	SoldLast90d     int          `json:"sold_last_90d"`
	InventoryMonths float64      `json:"inventory_months"`
	PriceChange90d  float64      `json:"price_change_90d"`
	DOMChange90d    float64      `json:"dom_change_90d"`
	Status          MarketStatus `json:"status"`
	Recommendation  string       `json:"recommendation"`
	UpdatedAt       time.Time    `json:"updated_at"`
}

// Parcel is a candidate land parcel submitted for opportunity evaluation.
type Parcel struct {
	ID           string   `json:"id"`
	Address      string   `json:"address"`
	StreetName   string   `json:"street_name"`
	City         string   `json:"city"`
	State        string   `json:"state"`
	PostalCode   string   `json:"postal_code"`
	Latitude     *float64 `json:"latitude,omitempty"`
	Longitude    *float64 `json:"longitude,omitempty"`
	SalePrice    *float64 `json:"sale_price,omitempty"`
	ListPrice    *float64 `json:"list_price,omitempty"`
	Sqft         *float64 `json:"sqft,omitempty"`
	LotSizeAcres *float64 `json:"lot_size_acres,omitempty"`
	URL          string   `json:"url,omitempty"`
}

// Coordinate returns the parcel's location and whether one is set.
func (p *Parcel) Coordinate() (Coordinate, bool) {
	if p.Latitude == nil || p.Longitude == nil {
		return Coordinate{}, false
	}
	return Coordinate{Lat: *p.Latitude, Lon: *p.Longitude}, true
}

// Price returns the parcel's asking price; the sale price covers parcels
// that just traded. Zero prices count as absent.
func (p *Parcel) Price() (float64, bool) {
	if p.ListPrice != nil && *p.ListPrice > 0 {
		return *p.ListPrice, true
	}
	if p.SalePrice != nil && *p.SalePrice > 0 {
		return *p.SalePrice, true
	}
	return 0, false
}

// LandOpportunity is the persisted evaluation of one parcel. It is keyed by
// parcel ID; re-evaluation updates the same row.
type LandOpportunity struct {
	ID                 string       `json:"id"`
	ParcelID           string       `json:"parcel_id"`
	Address            string       `json:"address"`
	ZoneColor          ZoneColor    `json:"zone_color"`
	MarketStatus       MarketStatus `json:"market_status"`
	NearbyAvgPriceSqft float64      `json:"nearby_avg_price_sqft"`
	RecentSalesCount   int          `json:"recent_sales_count"`
	UrgencyScore       int          `json:"urgency_score"`
	UrgencyLevel       UrgencyLevel `json:"urgency_level"`
	FilterPassed       bool         `json:"filter_passed"`
	Notes              string       `json:"notes,omitempty"`
	AlertSent          bool         `json:"alert_sent"`
	AlertSentAt        *time.Time   `json:"alert_sent_at,omitempty"`
	CreatedAt          time.Time    `json:"created_at"`
	UpdatedAt          time.Time    `json:"updated_at"`
}

// AreaScore is the result of an ad hoc zone scan around a point. It is not
// persisted and its scoring scale is deliberately independent of the land
// opportunity urgency score.
type AreaScore struct {
	Center          Coordinate        `json:"center"`
	RadiusMiles     float64           `json:"radius_miles"`
	Analyzed        int               `json:"analyzed"`
	Counts          map[ZoneColor]int `json:"counts"`
	GreenPercent    float64           `json:"green_percent"`
	LightPercent    float64           `json:"light_green_percent"`
	YellowPercent   float64           `json:"yellow_percent"`
	RedPercent      float64           `json:"red_percent"`
	CombinedPercent float64           `json:"green_zones_percent"`
	Score           int               `json:"score"`
	Recommendation  string            `json:"recommendation"`
	Sufficient      bool              `json:"sufficient"`
}
