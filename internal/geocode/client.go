package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/parcelworks/landscout/internal/model"
)

// ErrTimeout marks a lookup that failed transiently and may be retried.
var ErrTimeout = eris.New("geocode: lookup timed out")

// Client performs forward geocoding lookups.
type Client interface {
	// Lookup resolves a free-form query. matched is false when the provider
	// returned no results.
	Lookup(ctx context.Context, query string) (coord model.Coordinate, matched bool, err error)
}

// Option configures the Nominatim client.
type Option func(*nominatimClient)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *nominatimClient) {
		c.httpClient = hc
	}
}

// WithRateLimit sets the requests-per-second limit. Nominatim's usage
// policy caps anonymous clients at 1 req/s.
func WithRateLimit(rps float64) Option {
	return func(c *nominatimClient) {
		c.limiter = rate.NewLimiter(rate.Limit(rps), 1)
	}
}

// WithUserAgent sets the User-Agent header, required by Nominatim.
func WithUserAgent(ua string) Option {
	return func(c *nominatimClient) {
		c.userAgent = ua
	}
}

type nominatimClient struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewClient creates a Nominatim-backed geocoding Client.
func NewClient(baseURL string, opts ...Option) Client {
	c := &nominatimClient{
		baseURL:    baseURL,
		userAgent:  "landscout/1.0",
		httpClient: &http.Client{Timeout: 10 * time.Second},
		limiter:    rate.NewLimiter(1, 1),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// nominatimResult is one row of Nominatim's /search JSON response.
type nominatimResult struct {
	Lat string `json:"lat"`
	Lon string `json:"lon"`
}

func (c *nominatimClient) Lookup(ctx context.Context, query string) (model.Coordinate, bool, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return model.Coordinate{}, false, eris.Wrap(err, "geocode: rate limit wait")
	}

	u := fmt.Sprintf("%s/search?q=%s&format=json&limit=1", c.baseURL, url.QueryEscape(query))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return model.Coordinate{}, false, eris.Wrap(err, "geocode: build request")
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if isTimeout(err) {
			return model.Coordinate{}, false, ErrTimeout
		}
		return model.Coordinate{}, false, eris.Wrap(err, "geocode: request")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		if resp.StatusCode == http.StatusGatewayTimeout || resp.StatusCode == http.StatusServiceUnavailable {
			return model.Coordinate{}, false, ErrTimeout
		}
		return model.Coordinate{}, false, eris.Errorf("geocode: unexpected status %d", resp.StatusCode)
	}

	var results []nominatimResult
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return model.Coordinate{}, false, eris.Wrap(err, "geocode: decode response")
	}
	if len(results) == 0 {
		return model.Coordinate{}, false, nil
	}

	lat, err := strconv.ParseFloat(results[0].Lat, 64)
	if err != nil {
		return model.Coordinate{}, false, eris.Wrap(err, "geocode: parse latitude")
	}
	lon, err := strconv.ParseFloat(results[0].Lon, 64)
	if err != nil {
		return model.Coordinate{}, false, eris.Wrap(err, "geocode: parse longitude")
	}
	return model.Coordinate{Lat: lat, Lon: lon}, true, nil
}

// isTimeout reports whether the transport error is a timeout worth retrying.
func isTimeout(err error) bool {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	return errors.Is(err, context.DeadlineExceeded)
}
