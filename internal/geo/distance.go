// Package geo provides great-circle distance math and the comparable
// proximity queries built on it.
package geo

import (
	"math"

	"github.com/parcelworks/landscout/internal/model"
	"github.com/parcelworks/landscout/internal/store"
)

// earthRadiusMiles is the mean Earth radius in statute miles.
const earthRadiusMiles = 3959.0

// Approximate degrees-per-mile factors used for the rectangular pre-filter.
// One degree of latitude spans ~69 miles everywhere; one degree of longitude
// ~55 miles at the mid-latitudes this engine targets.
const (
	milesPerDegreeLat = 69.0
	milesPerDegreeLon = 55.0
)

// Distance returns the haversine great-circle distance between two points
// in miles.
func Distance(a, b model.Coordinate) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLon := (b.Lon - a.Lon) * math.Pi / 180

	sinLat := math.Sin(dLat / 2)
	sinLon := math.Sin(dLon / 2)
	h := sinLat*sinLat + math.Cos(lat1)*math.Cos(lat2)*sinLon*sinLon
	return earthRadiusMiles * 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

// BoundsFor returns a bounding box that fully contains the circle of the
// given radius around center. It intentionally over-covers; callers must
// still apply the exact Distance check to each candidate.
func BoundsFor(center model.Coordinate, radiusMiles float64) store.Bounds {
	return store.Bounds{
		MinLat: center.Lat - radiusMiles/milesPerDegreeLat,
		MaxLat: center.Lat + radiusMiles/milesPerDegreeLat,
		MinLon: center.Lon - radiusMiles/milesPerDegreeLon,
		MaxLon: center.Lon + radiusMiles/milesPerDegreeLon,
	}
}
