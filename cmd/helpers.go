package main

import (
	"context"
	"net/http"
	"time"

	"github.com/parcelworks/landscout/internal/geocode"
	"github.com/parcelworks/landscout/internal/store"
)

// openStore opens the configured backend with migrations applied. Callers
// own the Close.
func openStore(ctx context.Context) (store.Store, error) {
	return store.Open(ctx, cfg.Store)
}

// newResolver builds the address resolver over the durable cache and the
// Nominatim client. Callers flush the cache when done.
func newResolver() (*geocode.Resolver, error) {
	cache, err := geocode.OpenCache(cfg.Geocode.CachePath)
	if err != nil {
		return nil, err
	}

	client := geocode.NewClient(cfg.Geocode.BaseURL,
		geocode.WithUserAgent(cfg.Geocode.UserAgent),
		geocode.WithRateLimit(cfg.Geocode.RequestsPerSecond),
		geocode.WithHTTPClient(&http.Client{
			Timeout: time.Duration(cfg.Geocode.TimeoutSecs) * time.Second,
		}),
	)

	return geocode.NewResolver(cache, client, cfg.Geocode), nil
}
