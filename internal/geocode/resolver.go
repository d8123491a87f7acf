package geocode

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/parcelworks/landscout/internal/config"
	"github.com/parcelworks/landscout/internal/geo"
	"github.com/parcelworks/landscout/internal/model"
	"github.com/parcelworks/landscout/internal/resilience"
)

const (
	maxLookupAttempts = 3
	retryDelay        = 2 * time.Second

	// Jitter spreads fallback coordinates so stacked parcels stay visually
	// distinct on a map.
	zipJitterDegrees    = 0.01
	centerJitterDegrees = 0.05
)

// Request identifies an address to resolve. Address is the full street
// address; the remaining fields feed the fallback chain.
type Request struct {
	Address    string
	StreetName string
	City       string
	PostalCode string
}

// Resolver turns addresses into coordinates. Results come from the cache,
// the geocoding provider, or a positional fallback; a Resolve call never
// leaves a parcel without a coordinate.
type Resolver struct {
	cache  *Cache
	client Client
	cfg    config.GeocodeConfig
	group  singleflight.Group
	titler cases.Caser
}

// NewResolver creates a Resolver over the given cache and client.
func NewResolver(cache *Cache, client Client, cfg config.GeocodeConfig) *Resolver {
	return &Resolver{
		cache:  cache,
		client: client,
		cfg:    cfg,
		titler: cases.Title(language.AmericanEnglish),
	}
}

// Normalize canonicalizes an address for cache keying: surrounding
// whitespace is dropped and each word is title-cased, so "123 main st" and
// "123 Main St " share one cache entry.
func (r *Resolver) Normalize(address string) string {
	return r.titler.String(strings.TrimSpace(address))
}

// Resolve returns a coordinate for the request. Concurrent resolves of the
// same normalized address share a single provider call.
func (r *Resolver) Resolve(ctx context.Context, req Request) (model.Coordinate, error) {
	key := r.Normalize(req.Address)
	if key == "" {
		return model.Coordinate{}, eris.New("geocode: empty address")
	}

	if coord, ok := r.cache.Get(key); ok {
		return coord, nil
	}

	v, err, _ := r.group.Do(key, func() (any, error) {
		// Re-check: another caller may have filled the cache while this
		// one waited on the flight group.
		if coord, ok := r.cache.Get(key); ok {
			return coord, nil
		}
		coord := r.resolveUncached(ctx, key, req)
		r.cache.Put(key, coord)
		// Write-through: a crash must not lose resolved entries, provider
		// calls are far more expensive than the file write.
		if err := r.cache.Flush(); err != nil {
			zap.L().Warn("geocode cache flush failed", zap.Error(err))
		}
		return coord, nil
	})
	if err != nil {
		return model.Coordinate{}, err
	}
	return v.(model.Coordinate), nil
}

// resolveUncached walks the lookup chain: full address, then street+city,
// then postal code centroid with jitter, then the region center with jitter.
func (r *Resolver) resolveUncached(ctx context.Context, key string, req Request) model.Coordinate {
	query := key
	if r.cfg.RegionSuffix != "" && !strings.Contains(strings.ToLower(key), strings.ToLower(r.cfg.RegionSuffix)) {
		query = key + ", " + r.cfg.RegionSuffix
	}
	if coord, ok := r.lookupPlausible(ctx, query); ok {
		return coord
	}

	// Street without the house number often matches when the full address
	// does not.
	if req.StreetName != "" && req.City != "" {
		streetQuery := fmt.Sprintf("%s, %s, %s", req.StreetName, req.City, r.cfg.StateSuffix)
		if coord, ok := r.lookupPlausible(ctx, streetQuery); ok {
			zap.L().Debug("geocode resolved at street precision",
				zap.String("address", key))
			return coord
		}
	}

	if zip := postalPrefix(req.PostalCode); zip != "" {
		zipQuery := fmt.Sprintf("%s, %s", zip, r.cfg.StateSuffix)
		if coord, ok := r.lookupPlausible(ctx, zipQuery); ok {
			zap.L().Debug("geocode resolved at postal code precision",
				zap.String("address", key), zap.String("postal_code", zip))
			return jitter(coord, zipJitterDegrees)
		}
	}

	zap.L().Warn("geocode fell back to region center",
		zap.String("address", key))
	center := model.Coordinate{Lat: r.cfg.CenterLat, Lon: r.cfg.CenterLon}
	return jitter(center, centerJitterDegrees)
}

type lookupResult struct {
	coord   model.Coordinate
	matched bool
}

// lookupRetryConfig retries provider timeouts only, doubling the delay on
// each attempt. Other provider errors skip straight to the fallback chain.
func lookupRetryConfig() resilience.RetryConfig {
	return resilience.RetryConfig{
		MaxAttempts:    maxLookupAttempts,
		InitialBackoff: retryDelay,
		Multiplier:     2.0,
		ShouldRetry:    func(err error) bool { return eris.Is(err, ErrTimeout) },
		OnRetry:        resilience.RetryLogger("nominatim", "lookup"),
	}
}

// lookupPlausible queries the provider, retrying timeouts, and rejects
// results outside the configured validity radius around the region center.
func (r *Resolver) lookupPlausible(ctx context.Context, query string) (model.Coordinate, bool) {
	res, err := resilience.DoVal(ctx, lookupRetryConfig(), func(ctx context.Context) (lookupResult, error) {
		coord, matched, err := r.client.Lookup(ctx, query)
		if err != nil {
			return lookupResult{}, err
		}
		return lookupResult{coord: coord, matched: matched}, nil
	})
	if err != nil {
		zap.L().Warn("geocode lookup failed",
			zap.String("query", query), zap.Error(err))
		return model.Coordinate{}, false
	}
	if !res.matched {
		return model.Coordinate{}, false
	}

	center := model.Coordinate{Lat: r.cfg.CenterLat, Lon: r.cfg.CenterLon}
	if geo.Distance(center, res.coord) > r.cfg.ValidityRadiusMiles {
		zap.L().Warn("geocode result outside validity radius, rejected",
			zap.String("query", query),
			zap.Float64("lat", res.coord.Lat), zap.Float64("lon", res.coord.Lon))
		return model.Coordinate{}, false
	}
	return res.coord, true
}

// postalPrefix returns the 5-digit ZIP prefix, or "" if the code is shorter.
func postalPrefix(code string) string {
	code = strings.TrimSpace(code)
	if len(code) < 5 {
		return ""
	}
	return code[:5]
}

func jitter(coord model.Coordinate, degrees float64) model.Coordinate {
	return model.Coordinate{
		Lat: coord.Lat + (rand.Float64()*2-1)*degrees,
		Lon: coord.Lon + (rand.Float64()*2-1)*degrees,
	}
}

// Flush persists the cache to disk.
func (r *Resolver) Flush() error {
	return r.cache.Flush()
}
