// Package model defines the record types shared by the classification and
// scoring engine: comparables, street zones, market heat zones, and land
// opportunities.
package model

import (
	"math"
	"time"
)

// PropertyStatus represents the listing state of a comparable.
type PropertyStatus string

const (
	StatusActive        PropertyStatus = "active"
	StatusSold          PropertyStatus = "sold"
	StatusUnderContract PropertyStatus = "under_contract"
	StatusWithdrawn     PropertyStatus = "withdrawn"
)

// Coordinate is a WGS84 latitude/longitude pair.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Comparable is a property record used as evidence for classifying a street
// or area. It is read-only input to the classifiers; the MLS importer is the
// only writer.
type Comparable struct {
	ID           string         `json:"id"`
	MLSNumber    string         `json:"mls_number"`
	Address      string         `json:"address"`
	StreetName   string         `json:"street_name"`
	City         string         `json:"city"`
	State        string         `json:"state"`
	PostalCode   string         `json:"postal_code"`
	Latitude     *float64       `json:"latitude,omitempty"`
	Longitude    *float64       `json:"longitude,omitempty"`
	SalePrice    *float64       `json:"sale_price,omitempty"`
	ListPrice    *float64       `json:"list_price,omitempty"`
	Sqft         *float64       `json:"sqft,omitempty"`
	PricePerSqft *float64       `json:"price_per_sqft,omitempty"`
	Bedrooms     *int           `json:"bedrooms,omitempty"`
	Bathrooms    *float64       `json:"bathrooms,omitempty"`
	LotSizeAcres *float64       `json:"lot_size_acres,omitempty"`
	Status       PropertyStatus `json:"status"`
	ListDate     *time.Time     `json:"list_date,omitempty"`
	SaleDate     *time.Time     `json:"sale_date,omitempty"`
	DaysOnMarket *int           `json:"days_on_market,omitempty"`
	URL          string         `json:"url,omitempty"`
	Archived     bool           `json:"archived"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

// Coordinate returns the comparable's location and whether one is set.
func (c *Comparable) Coordinate() (Coordinate, bool) {
	if c.Latitude == nil || c.Longitude == nil {
		return Coordinate{}, false
	}
	return Coordinate{Lat: *c.Latitude, Lon: *c.Longitude}, true
}

// Price returns the sale price when present, otherwise the list price.
func (c *Comparable) Price() (float64, bool) {
	if c.SalePrice != nil {
		return *c.SalePrice, true
	}
	if c.ListPrice != nil {
		return *c.ListPrice, true
	}
	return 0, false
}

// SoldWithin reports whether the comparable sold on or after the cutoff.
func (c *Comparable) SoldWithin(cutoff time.Time) bool {
	return c.Status == StatusSold && c.SaleDate != nil && !c.SaleDate.Before(cutoff)
}

// ComputePricePerSqft derives price-per-area. It is defined only when both
// price and living area are positive.
func ComputePricePerSqft(price, sqft float64) (float64, bool) {
	if price <= 0 || sqft <= 0 {
		return 0, false
	}
	return round2(price / sqft), true
}

// ComputeDaysOnMarket derives days-on-market from the list date and the sale
// date (or now, if unsold). The result is never negative.
func ComputeDaysOnMarket(listDate time.Time, saleDate *time.Time, now time.Time) int {
	end := now
	if saleDate != nil {
		end = *saleDate
	}
	days := int(end.Sub(listDate).Hours() / 24)
	if days < 0 {
		return 0
	}
	return days
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
