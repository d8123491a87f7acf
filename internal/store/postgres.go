package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/parcelworks/landscout/internal/db"
	"github.com/parcelworks/landscout/internal/model"
)

// PostgresStore implements Store on a pgx connection pool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// NewPostgres connects to the given database URL and pings it.
func NewPostgres(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}
	pgxCfg.MaxConns = 10
	pgxCfg.MinConns = 2
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS comparables (
	id             TEXT PRIMARY KEY,
	mls_number     TEXT NOT NULL UNIQUE,
	address        TEXT NOT NULL,
	street_name    TEXT NOT NULL,
	city           TEXT NOT NULL,
	state          TEXT NOT NULL DEFAULT '',
	postal_code    TEXT NOT NULL DEFAULT '',
	latitude       DOUBLE PRECISION,
	longitude      DOUBLE PRECISION,
	sale_price     DOUBLE PRECISION,
	list_price     DOUBLE PRECISION,
	sqft           DOUBLE PRECISION,
	price_per_sqft DOUBLE PRECISION,
	bedrooms       INTEGER,
	bathrooms      DOUBLE PRECISION,
	lot_size_acres DOUBLE PRECISION,
	status         TEXT NOT NULL,
	list_date      TIMESTAMPTZ,
	sale_date      TIMESTAMPTZ,
	days_on_market INTEGER,
	url            TEXT NOT NULL DEFAULT '',
	archived       BOOLEAN NOT NULL DEFAULT FALSE,
	created_at     TIMESTAMPTZ NOT NULL,
	updated_at     TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS street_zones (
	id                TEXT PRIMARY KEY,
	street_name       TEXT NOT NULL,
	city              TEXT NOT NULL,
	median_price_sqft DOUBLE PRECISION NOT NULL,
	min_price_sqft    DOUBLE PRECISION NOT NULL,
	max_price_sqft    DOUBLE PRECISION NOT NULL,
	avg_dom           DOUBLE PRECISION,
	min_dom           INTEGER,
	max_dom           INTEGER,
	color             TEXT NOT NULL,
	sample_size       INTEGER NOT NULL,
	confidence        DOUBLE PRECISION NOT NULL,
	updated_at        TIMESTAMPTZ NOT NULL,
	UNIQUE (street_name, city)
);

CREATE TABLE IF NOT EXISTS market_heat (
	id               TEXT PRIMARY KEY,
	postal_code      TEXT NOT NULL UNIQUE,
	active_listings  INTEGER NOT NULL,
	sold_last_90d    INTEGER NOT NULL,
	inventory_months DOUBLE PRECISION NOT NULL,
	price_change_90d DOUBLE PRECISION NOT NULL,
	dom_change_90d   DOUBLE PRECISION NOT NULL,
	status           TEXT NOT NULL,
	recommendation   TEXT NOT NULL DEFAULT '',
	updated_at       TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS land_opportunities (
	id                    TEXT PRIMARY KEY,
	parcel_id             TEXT NOT NULL UNIQUE,
	address               TEXT NOT NULL,
	zone_color            TEXT NOT NULL,
	market_status         TEXT NOT NULL,
	nearby_avg_price_sqft DOUBLE PRECISION NOT NULL,
	recent_sales_count    INTEGER NOT NULL,
	urgency_score         INTEGER NOT NULL,
	urgency_level         TEXT NOT NULL,
	filter_passed         BOOLEAN NOT NULL,
	notes                 TEXT NOT NULL DEFAULT '',
	alert_sent            BOOLEAN NOT NULL DEFAULT FALSE,
	alert_sent_at         TIMESTAMPTZ,
	created_at            TIMESTAMPTZ NOT NULL,
	updated_at            TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_comparables_street_city ON comparables(street_name, city);
CREATE INDEX IF NOT EXISTS idx_comparables_postal ON comparables(postal_code);
CREATE INDEX IF NOT EXISTS idx_comparables_status_sale ON comparables(status, sale_date);
CREATE INDEX IF NOT EXISTS idx_comparables_location ON comparables(latitude, longitude);
CREATE INDEX IF NOT EXISTS idx_opportunities_level ON land_opportunities(urgency_level);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) UpsertComparable(ctx context.Context, c *model.Comparable) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now
	}
	c.UpdatedAt = now

	_, err := s.pool.Exec(ctx, `
		INSERT INTO comparables (
			id, mls_number, address, street_name, city, state, postal_code,
			latitude, longitude, sale_price, list_price, sqft, price_per_sqft,
			bedrooms, bathrooms, lot_size_acres, status, list_date, sale_date,
			days_on_market, url, archived, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14,
			$15, $16, $17, $18, $19, $20, $21, $22, $23, $24)
		ON CONFLICT (mls_number) DO UPDATE SET
			address = EXCLUDED.address,
			street_name = EXCLUDED.street_name,
			city = EXCLUDED.city,
			state = EXCLUDED.state,
			postal_code = EXCLUDED.postal_code,
			latitude = EXCLUDED.latitude,
			longitude = EXCLUDED.longitude,
			sale_price = EXCLUDED.sale_price,
			list_price = EXCLUDED.list_price,
			sqft = EXCLUDED.sqft,
			price_per_sqft = EXCLUDED.price_per_sqft,
			bedrooms = EXCLUDED.bedrooms,
			bathrooms = EXCLUDED.bathrooms,
			lot_size_acres = EXCLUDED.lot_size_acres,
			status = EXCLUDED.status,
			list_date = EXCLUDED.list_date,
			sale_date = EXCLUDED.sale_date,
			days_on_market = EXCLUDED.days_on_market,
			url = EXCLUDED.url,
			archived = EXCLUDED.archived,
			updated_at = EXCLUDED.updated_at`,
		c.ID, c.MLSNumber, c.Address, c.StreetName, c.City, c.State, c.PostalCode,
		c.Latitude, c.Longitude, c.SalePrice, c.ListPrice, c.Sqft, c.PricePerSqft,
		c.Bedrooms, c.Bathrooms, c.LotSizeAcres, string(c.Status), c.ListDate, c.SaleDate,
		c.DaysOnMarket, c.URL, c.Archived, c.CreatedAt, c.UpdatedAt,
	)
	return eris.Wrapf(err, "postgres: upsert comparable %s", c.MLSNumber)
}

// buildComparableWherePg is buildComparableWhere with $n placeholders.
func buildComparableWherePg(filter ComparableFilter) (string, []any) {
	var clauses []string
	var args []any
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if !filter.IncludeArchived {
		clauses = append(clauses, "archived = FALSE")
	}
	if filter.StreetName != "" {
		clauses = append(clauses, "street_name = "+arg(filter.StreetName))
	}
	if filter.City != "" {
		clauses = append(clauses, "city = "+arg(filter.City))
	}
	if filter.PostalCode != "" {
		clauses = append(clauses, "postal_code = "+arg(filter.PostalCode))
	}
	if len(filter.Statuses) > 0 {
		ph := make([]string, len(filter.Statuses))
		for i, st := range filter.Statuses {
			ph[i] = arg(string(st))
		}
		clauses = append(clauses, fmt.Sprintf("status IN (%s)", strings.Join(ph, ", ")))
	}
	if filter.SoldSince != nil {
		clauses = append(clauses, "sale_date >= "+arg(filter.SoldSince.UTC()))
	}
	if filter.SoldBefore != nil {
		clauses = append(clauses, "sale_date < "+arg(filter.SoldBefore.UTC()))
	}
	if filter.HasCoordinate {
		clauses = append(clauses, "latitude IS NOT NULL AND longitude IS NOT NULL")
	}
	if filter.RequirePricePerSqft {
		clauses = append(clauses, "price_per_sqft IS NOT NULL")
	}
	if filter.RequireDOM {
		clauses = append(clauses, "days_on_market IS NOT NULL")
	}
	if filter.Bounds != nil {
		clauses = append(clauses,
			fmt.Sprintf("latitude BETWEEN %s AND %s", arg(filter.Bounds.MinLat), arg(filter.Bounds.MaxLat)),
			fmt.Sprintf("longitude BETWEEN %s AND %s", arg(filter.Bounds.MinLon), arg(filter.Bounds.MaxLon)),
		)
	}

	if len(clauses) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

func (s *PostgresStore) FindComparables(ctx context.Context, filter ComparableFilter) ([]model.Comparable, error) {
	where, args := buildComparableWherePg(filter)
	query := "SELECT " + comparableColumns + " FROM comparables" + where
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: find comparables")
	}
	defer rows.Close()

	var out []model.Comparable
	for rows.Next() {
		c, err := scanComparable(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan comparable")
		}
		out = append(out, *c)
	}
	return out, eris.Wrap(rows.Err(), "postgres: iterate comparables")
}

func (s *PostgresStore) CountComparables(ctx context.Context, filter ComparableFilter) (int, error) {
	where, args := buildComparableWherePg(filter)
	var n int
	err := s.pool.QueryRow(ctx, "SELECT COUNT(*) FROM comparables"+where, args...).Scan(&n)
	return n, eris.Wrap(err, "postgres: count comparables")
}

func (s *PostgresStore) DistinctStreets(ctx context.Context) ([]StreetKey, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT DISTINCT street_name, city FROM comparables WHERE archived = FALSE AND street_name != '' ORDER BY city, street_name`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: distinct streets")
	}
	defer rows.Close()

	var keys []StreetKey
	for rows.Next() {
		var k StreetKey
		if err := rows.Scan(&k.StreetName, &k.City); err != nil {
			return nil, eris.Wrap(err, "postgres: scan street key")
		}
		keys = append(keys, k)
	}
	return keys, eris.Wrap(rows.Err(), "postgres: iterate street keys")
}

func (s *PostgresStore) DistinctPostalCodes(ctx context.Context) ([]string, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT DISTINCT postal_code FROM comparables WHERE archived = FALSE AND postal_code != '' ORDER BY postal_code`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: distinct postal codes")
	}
	defer rows.Close()

	var codes []string
	for rows.Next() {
		var code string
		if err := rows.Scan(&code); err != nil {
			return nil, eris.Wrap(err, "postgres: scan postal code")
		}
		codes = append(codes, code)
	}
	return codes, eris.Wrap(rows.Err(), "postgres: iterate postal codes")
}

func (s *PostgresStore) ArchiveSoldBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx,
		`UPDATE comparables SET archived = TRUE, updated_at = $1 WHERE status = $2 AND sale_date < $3 AND archived = FALSE`,
		time.Now().UTC(), string(model.StatusSold), cutoff.UTC(),
	)
	if err != nil {
		return 0, eris.Wrap(err, "postgres: archive sold comparables")
	}
	return tag.RowsAffected(), nil
}

func (s *PostgresStore) UpsertStreetZone(ctx context.Context, z *model.StreetZone) error {
	if z.ID == "" {
		z.ID = uuid.New().String()
	}
	z.UpdatedAt = time.Now().UTC()

	_, err := s.pool.Exec(ctx, `
		INSERT INTO street_zones (
			id, street_name, city, median_price_sqft, min_price_sqft, max_price_sqft,
			avg_dom, min_dom, max_dom, color, sample_size, confidence, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (street_name, city) DO UPDATE SET
			median_price_sqft = EXCLUDED.median_price_sqft,
			min_price_sqft = EXCLUDED.min_price_sqft,
			max_price_sqft = EXCLUDED.max_price_sqft,
			avg_dom = EXCLUDED.avg_dom,
			min_dom = EXCLUDED.min_dom,
			max_dom = EXCLUDED.max_dom,
			color = EXCLUDED.color,
			sample_size = EXCLUDED.sample_size,
			confidence = EXCLUDED.confidence,
			updated_at = EXCLUDED.updated_at`,
		z.ID, z.StreetName, z.City, z.MedianPriceSqft, z.MinPriceSqft, z.MaxPriceSqft,
		z.AvgDOM, z.MinDOM, z.MaxDOM, string(z.Color), z.SampleSize, z.Confidence, z.UpdatedAt,
	)
	return eris.Wrapf(err, "postgres: upsert street zone %s/%s", z.StreetName, z.City)
}

func (s *PostgresStore) GetStreetZone(ctx context.Context, streetName, city string) (*model.StreetZone, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, street_name, city, median_price_sqft, min_price_sqft, max_price_sqft,
			avg_dom, min_dom, max_dom, color, sample_size, confidence, updated_at
		FROM street_zones WHERE street_name = $1 AND city = $2`,
		streetName, city,
	)
	z, err := scanStreetZone(row)
	if err != nil {
		if eris.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, eris.Wrapf(err, "postgres: get street zone %s/%s", streetName, city)
	}
	return z, nil
}

func (s *PostgresStore) ListStreetZones(ctx context.Context) ([]model.StreetZone, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, street_name, city, median_price_sqft, min_price_sqft, max_price_sqft,
			avg_dom, min_dom, max_dom, color, sample_size, confidence, updated_at
		FROM street_zones ORDER BY city, street_name`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list street zones")
	}
	defer rows.Close()

	var zones []model.StreetZone
	for rows.Next() {
		z, err := scanStreetZone(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan street zone")
		}
		zones = append(zones, *z)
	}
	return zones, eris.Wrap(rows.Err(), "postgres: iterate street zones")
}

func (s *PostgresStore) UpsertMarketHeat(ctx context.Context, h *model.MarketHeat) error {
	if h.ID == "" {
		h.ID = uuid.New().String()
	}
	h.UpdatedAt = time.Now().UTC()

	_, err := s.pool.Exec(ctx, `
		INSERT INTO market_heat (
			id, postal_code, active_listings, sold_last_90d, inventory_months,
			price_change_90d, dom_change_90d, status, recommendation, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (postal_code) DO UPDATE SET
			active_listings = EXCLUDED.active_listings,
			sold_last_90d = EXCLUDED.sold_last_90d,
			inventory_months = EXCLUDED.inventory_months,
			price_change_90d = EXCLUDED.price_change_90d,
			dom_change_90d = EXCLUDED.dom_change_90d,
			status = EXCLUDED.status,
			recommendation = EXCLUDED.recommendation,
			updated_at = EXCLUDED.updated_at`,
		h.ID, h.PostalCode, h.ActiveListings, h.SoldLast90d, h.InventoryMonths,
		h.PriceChange90d, h.DOMChange90d, string(h.Status), h.Recommendation, h.UpdatedAt,
	)
	return eris.Wrapf(err, "postgres: upsert market heat %s", h.PostalCode)
}

func (s *PostgresStore) GetMarketHeat(ctx context.Context, postalCode string) (*model.MarketHeat, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, postal_code, active_listings, sold_last_90d, inventory_months,
			price_change_90d, dom_change_90d, status, recommendation, updated_at
		FROM market_heat WHERE postal_code = $1`,
		postalCode,
	)
	h, err := scanMarketHeat(row)
	if err != nil {
		if eris.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, eris.Wrapf(err, "postgres: get market heat %s", postalCode)
	}
	return h, nil
}

func (s *PostgresStore) ListMarketHeat(ctx context.Context) ([]model.MarketHeat, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, postal_code, active_listings, sold_last_90d, inventory_months,
			price_change_90d, dom_change_90d, status, recommendation, updated_at
		FROM market_heat ORDER BY postal_code`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list market heat")
	}
	defer rows.Close()

	var heats []model.MarketHeat
	for rows.Next() {
		h, err := scanMarketHeat(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan market heat")
		}
		heats = append(heats, *h)
	}
	return heats, eris.Wrap(rows.Err(), "postgres: iterate market heat")
}

func (s *PostgresStore) UpsertOpportunity(ctx context.Context, o *model.LandOpportunity) error {
	if o.ID == "" {
		o.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	if o.CreatedAt.IsZero() {
		o.CreatedAt = now
	}
	o.UpdatedAt = now

	_, err := s.pool.Exec(ctx, `
		INSERT INTO land_opportunities (
			id, parcel_id, address, zone_color, market_status, nearby_avg_price_sqft,
			recent_sales_count, urgency_score, urgency_level, filter_passed, notes,
			alert_sent, alert_sent_at, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		ON CONFLICT (parcel_id) DO UPDATE SET
			address = EXCLUDED.address,
			zone_color = EXCLUDED.zone_color,
			market_status = EXCLUDED.market_status,
			nearby_avg_price_sqft = EXCLUDED.nearby_avg_price_sqft,
			recent_sales_count = EXCLUDED.recent_sales_count,
			urgency_score = EXCLUDED.urgency_score,
			urgency_level = EXCLUDED.urgency_level,
			filter_passed = EXCLUDED.filter_passed,
			notes = EXCLUDED.notes,
			updated_at = EXCLUDED.updated_at`,
		o.ID, o.ParcelID, o.Address, string(o.ZoneColor), string(o.MarketStatus), o.NearbyAvgPriceSqft,
		o.RecentSalesCount, o.UrgencyScore, string(o.UrgencyLevel), o.FilterPassed, o.Notes,
		o.AlertSent, o.AlertSentAt, o.CreatedAt, o.UpdatedAt,
	)
	return eris.Wrapf(err, "postgres: upsert opportunity %s", o.ParcelID)
}

func (s *PostgresStore) GetOpportunity(ctx context.Context, parcelID string) (*model.LandOpportunity, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, parcel_id, address, zone_color, market_status, nearby_avg_price_sqft,
			recent_sales_count, urgency_score, urgency_level, filter_passed, notes,
			alert_sent, alert_sent_at, created_at, updated_at
		FROM land_opportunities WHERE parcel_id = $1`,
		parcelID,
	)
	o, err := scanOpportunity(row)
	if err != nil {
		if eris.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, eris.Wrapf(err, "postgres: get opportunity %s", parcelID)
	}
	return o, nil
}

func (s *PostgresStore) ListOpportunities(ctx context.Context, filter OpportunityFilter) ([]model.LandOpportunity, error) {
	query := `
		SELECT id, parcel_id, address, zone_color, market_status, nearby_avg_price_sqft,
			recent_sales_count, urgency_score, urgency_level, filter_passed, notes,
			alert_sent, alert_sent_at, created_at, updated_at
		FROM land_opportunities WHERE TRUE`
	var args []any

	if filter.Level != "" {
		args = append(args, string(filter.Level))
		query += fmt.Sprintf(" AND urgency_level = $%d", len(args))
	}
	if filter.NotAlerted {
		query += " AND alert_sent = FALSE"
	}
	query += " ORDER BY urgency_score DESC"
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list opportunities")
	}
	defer rows.Close()

	var out []model.LandOpportunity
	for rows.Next() {
		o, err := scanOpportunity(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan opportunity")
		}
		out = append(out, *o)
	}
	return out, eris.Wrap(rows.Err(), "postgres: iterate opportunities")
}

func (s *PostgresStore) MarkAlerted(ctx context.Context, opportunityID string, at time.Time) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE land_opportunities SET alert_sent = TRUE, alert_sent_at = $1, updated_at = $2 WHERE id = $3`,
		at.UTC(), time.Now().UTC(), opportunityID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: mark alerted %s", opportunityID)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
