package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/parcelworks/landscout/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS comparables (
	id             TEXT PRIMARY KEY,
	mls_number     TEXT NOT NULL UNIQUE,
	address        TEXT NOT NULL,
	street_name    TEXT NOT NULL,
	city           TEXT NOT NULL,
	state          TEXT NOT NULL DEFAULT '',
	postal_code    TEXT NOT NULL DEFAULT '',
	latitude       REAL,
	longitude      REAL,
	sale_price     REAL,
	list_price     REAL,
	sqft           REAL,
	price_per_sqft REAL,
	bedrooms       INTEGER,
	bathrooms      REAL,
	lot_size_acres REAL,
	status         TEXT NOT NULL,
	list_date      DATETIME,
	sale_date      DATETIME,
	days_on_market INTEGER,
	url            TEXT NOT NULL DEFAULT '',
	archived       INTEGER NOT NULL DEFAULT 0,
	created_at     DATETIME NOT NULL,
	updated_at     DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS street_zones (
	id                TEXT PRIMARY KEY,
	street_name       TEXT NOT NULL,
	city              TEXT NOT NULL,
	median_price_sqft REAL NOT NULL,
	min_price_sqft    REAL NOT NULL,
	max_price_sqft    REAL NOT NULL,
	avg_dom           REAL,
	min_dom           INTEGER,
	max_dom           INTEGER,
	color             TEXT NOT NULL,
	sample_size       INTEGER NOT NULL,
	confidence        REAL NOT NULL,
	updated_at        DATETIME NOT NULL,
	UNIQUE (street_name, city)
);

CREATE TABLE IF NOT EXISTS market_heat (
	id               TEXT PRIMARY KEY,
	postal_code      TEXT NOT NULL UNIQUE,
	active_listings  INTEGER NOT NULL,
	sold_last_90d    INTEGER NOT NULL,
	inventory_months REAL NOT NULL,
	price_change_90d REAL NOT NULL,
	dom_change_90d   REAL NOT NULL,
	status           TEXT NOT NULL,
	recommendation   TEXT NOT NULL DEFAULT '',
	updated_at       DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS land_opportunities (
	id                    TEXT PRIMARY KEY,
	parcel_id             TEXT NOT NULL UNIQUE,
	address               TEXT NOT NULL,
	zone_color            TEXT NOT NULL,
	market_status         TEXT NOT NULL,
	nearby_avg_price_sqft REAL NOT NULL,
	recent_sales_count    INTEGER NOT NULL,
	urgency_score         INTEGER NOT NULL,
	urgency_level         TEXT NOT NULL,
	filter_passed         INTEGER NOT NULL,
	notes                 TEXT NOT NULL DEFAULT '',
	alert_sent            INTEGER NOT NULL DEFAULT 0,
	alert_sent_at         DATETIME,
	created_at            DATETIME NOT NULL,
	updated_at            DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_comparables_street_city ON comparables(street_name, city);
CREATE INDEX IF NOT EXISTS idx_comparables_postal ON comparables(postal_code);
CREATE INDEX IF NOT EXISTS idx_comparables_status_sale ON comparables(status, sale_date);
CREATE INDEX IF NOT EXISTS idx_comparables_location ON comparables(latitude, longitude);
CREATE INDEX IF NOT EXISTS idx_opportunities_level ON land_opportunities(urgency_level);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) UpsertComparable(ctx context.Context, c *model.Comparable) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now
	}
	c.UpdatedAt = now

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO comparables (
			id, mls_number, address, street_name, city, state, postal_code,
			latitude, longitude, sale_price, list_price, sqft, price_per_sqft,
			bedrooms, bathrooms, lot_size_acres, status, list_date, sale_date,
			days_on_market, url, archived, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (mls_number) DO UPDATE SET
			address = excluded.address,
			street_name = excluded.street_name,
			city = excluded.city,
			state = excluded.state,
			postal_code = excluded.postal_code,
			latitude = excluded.latitude,
			longitude = excluded.longitude,
			sale_price = excluded.sale_price,
			list_price = excluded.list_price,
			sqft = excluded.sqft,
			price_per_sqft = excluded.price_per_sqft,
			bedrooms = excluded.bedrooms,
			bathrooms = excluded.bathrooms,
			lot_size_acres = excluded.lot_size_acres,
			status = excluded.status,
			list_date = excluded.list_date,
			sale_date = excluded.sale_date,
			days_on_market = excluded.days_on_market,
			url = excluded.url,
			archived = excluded.archived,
			updated_at = excluded.updated_at`,
		c.ID, c.MLSNumber, c.Address, c.StreetName, c.City, c.State, c.PostalCode,
		c.Latitude, c.Longitude, c.SalePrice, c.ListPrice, c.Sqft, c.PricePerSqft,
		c.Bedrooms, c.Bathrooms, c.LotSizeAcres, string(c.Status), c.ListDate, c.SaleDate,
		c.DaysOnMarket, c.URL, c.Archived, c.CreatedAt, c.UpdatedAt,
	)
	return eris.Wrapf(err, "sqlite: upsert comparable %s", c.MLSNumber)
}

const comparableColumns = `id, mls_number, address, street_name, city, state, postal_code,
	latitude, longitude, sale_price, list_price, sqft, price_per_sqft,
	bedrooms, bathrooms, lot_size_acres, status, list_date, sale_date,
	days_on_market, url, archived, created_at, updated_at`

// buildComparableWhere translates a ComparableFilter into a WHERE clause with
// '?' placeholders.
func buildComparableWhere(filter ComparableFilter) (string, []any) {
	var clauses []string
	var args []any

	if !filter.IncludeArchived {
		clauses = append(clauses, "archived = 0")
	}
	if filter.StreetName != "" {
		clauses = append(clauses, "street_name = ?")
		args = append(args, filter.StreetName)
	}
	if filter.City != "" {
		clauses = append(clauses, "city = ?")
		args = append(args, filter.City)
	}
	if filter.PostalCode != "" {
		clauses = append(clauses, "postal_code = ?")
		args = append(args, filter.PostalCode)
	}
	if len(filter.Statuses) > 0 {
		ph := make([]string, len(filter.Statuses))
		for i, st := range filter.Statuses {
			ph[i] = "?"
			args = append(args, string(st))
		}
		clauses = append(clauses, fmt.Sprintf("status IN (%s)", strings.Join(ph, ", ")))
	}
	if filter.SoldSince != nil {
		clauses = append(clauses, "sale_date >= ?")
		args = append(args, filter.SoldSince.UTC())
	}
	if filter.SoldBefore != nil {
		clauses = append(clauses, "sale_date < ?")
		args = append(args, filter.SoldBefore.UTC())
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
		clauses = append(clauses, "latitude BETWEEN ? AND ?", "longitude BETWEEN ? AND ?")
		args = append(args, filter.Bounds.MinLat, filter.Bounds.MaxLat, filter.Bounds.MinLon, filter.Bounds.MaxLon)
	}

	if len(clauses) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

func (s *SQLiteStore) FindComparables(ctx context.Context, filter ComparableFilter) ([]model.Comparable, error) {
	where, args := buildComparableWhere(filter)
	query := "SELECT " + comparableColumns + " FROM comparables" + where
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: find comparables")
	}
	defer rows.Close()

	var out []model.Comparable
	for rows.Next() {
		c, err := scanComparable(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan comparable")
		}
		out = append(out, *c)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: iterate comparables")
}

func (s *SQLiteStore) CountComparables(ctx context.Context, filter ComparableFilter) (int, error) {
	where, args := buildComparableWhere(filter)
	var n int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM comparables"+where, args...).Scan(&n)
	return n, eris.Wrap(err, "sqlite: count comparables")
}

func (s *SQLiteStore) DistinctStreets(ctx context.Context) ([]StreetKey, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT DISTINCT street_name, city FROM comparables WHERE archived = 0 AND street_name != '' ORDER BY city, street_name`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: distinct streets")
	}
	defer rows.Close()

	var keys []StreetKey
	for rows.Next() {
		var k StreetKey
		if err := rows.Scan(&k.StreetName, &k.City); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan street key")
		}
		keys = append(keys, k)
	}
	return keys, eris.Wrap(rows.Err(), "sqlite: iterate street keys")
}

func (s *SQLiteStore) DistinctPostalCodes(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT DISTINCT postal_code FROM comparables WHERE archived = 0 AND postal_code != '' ORDER BY postal_code`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: distinct postal codes")
	}
	defer rows.Close()

	var codes []string
	for rows.Next() {
		var code string
		if err := rows.Scan(&code); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan postal code")
		}
		codes = append(codes, code)
	}
	return codes, eris.Wrap(rows.Err(), "sqlite: iterate postal codes")
}

func (s *SQLiteStore) ArchiveSoldBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE comparables SET archived = 1, updated_at = ? WHERE status = ? AND sale_date < ? AND archived = 0`,
		time.Now().UTC(), string(model.StatusSold), cutoff.UTC(),
	)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: archive sold comparables")
	}
	n, err := res.RowsAffected()
	return n, eris.Wrap(err, "sqlite: archive rows affected")
}

func (s *SQLiteStore) UpsertStreetZone(ctx context.Context, z *model.StreetZone) error {
	if z.ID == "" {
		z.ID = uuid.New().String()
	}
	z.UpdatedAt = time.Now().UTC()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO street_zones (
			id, street_name, city, median_price_sqft, min_price_sqft, max_price_sqft,
			avg_dom, min_dom, max_dom, color, sample_size, confidence, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (street_name, city) DO UPDATE SET
			median_price_sqft = excluded.median_price_sqft,
			min_price_sqft = excluded.min_price_sqft,
			max_price_sqft = excluded.max_price_sqft,
			avg_dom = excluded.avg_dom,
			min_dom = excluded.min_dom,
			max_dom = excluded.max_dom,
			color = excluded.color,
			sample_size = excluded.sample_size,
			confidence = excluded.confidence,
			updated_at = excluded.updated_at`,
		z.ID, z.StreetName, z.City, z.MedianPriceSqft, z.MinPriceSqft, z.MaxPriceSqft,
		z.AvgDOM, z.MinDOM, z.MaxDOM, string(z.Color), z.SampleSize, z.Confidence, z.UpdatedAt,
	)
	return eris.Wrapf(err, "sqlite: upsert street zone %s/%s", z.StreetName, z.City)
}

func (s *SQLiteStore) GetStreetZone(ctx context.Context, streetName, city string) (*model.StreetZone, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, street_name, city, median_price_sqft, min_price_sqft, max_price_sqft,
			avg_dom, min_dom, max_dom, color, sample_size, confidence, updated_at
		FROM street_zones WHERE street_name = ? AND city = ?`,
		streetName, city,
	)
	z, err := scanStreetZone(row)
	if err != nil {
		if eris.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, eris.Wrapf(err, "sqlite: get street zone %s/%s", streetName, city)
	}
	return z, nil
}

func (s *SQLiteStore) ListStreetZones(ctx context.Context) ([]model.StreetZone, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, street_name, city, median_price_sqft, min_price_sqft, max_price_sqft,
			avg_dom, min_dom, max_dom, color, sample_size, confidence, updated_at
		FROM street_zones ORDER BY city, street_name`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list street zones")
	}
	defer rows.Close()

	var zones []model.StreetZone
	for rows.Next() {
		z, err := scanStreetZone(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan street zone")
		}
		zones = append(zones, *z)
	}
	return zones, eris.Wrap(rows.Err(), "sqlite: iterate street zones")
}

func (s *SQLiteStore) UpsertMarketHeat(ctx context.Context, h *model.MarketHeat) error {
	if h.ID == "" {
		h.ID = uuid.New().String()
	}
	h.UpdatedAt = time.Now().UTC()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO market_heat (
			id, postal_code, active_listings, sold_last_90d, inventory_months,
			price_change_90d, dom_change_90d, status, recommendation, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (postal_code) DO UPDATE SET
			active_listings = excluded.active_listings,
			sold_last_90d = excluded.sold_last_90d,
			inventory_months = excluded.inventory_months,
			price_change_90d = excluded.price_change_90d,
			dom_change_90d = excluded.dom_change_90d,
			status = excluded.status,
			recommendation = excluded.recommendation,
			updated_at = excluded.updated_at`,
		h.ID, h.PostalCode, h.ActiveListings, h.SoldLast90d, h.InventoryMonths,
		h.PriceChange90d, h.DOMChange90d, string(h.Status), h.Recommendation, h.UpdatedAt,
	)
	return eris.Wrapf(err, "sqlite: upsert market heat %s", h.PostalCode)
}

func (s *SQLiteStore) GetMarketHeat(ctx context.Context, postalCode string) (*model.MarketHeat, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, postal_code, active_listings, sold_last_90d, inventory_months,
			price_change_90d, dom_change_90d, status, recommendation, updated_at
		FROM market_heat WHERE postal_code = ?`,
		postalCode,
	)
	h, err := scanMarketHeat(row)
	if err != nil {
		if eris.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, eris.Wrapf(err, "sqlite: get market heat %s", postalCode)
	}
	return h, nil
}

func (s *SQLiteStore) ListMarketHeat(ctx context.Context) ([]model.MarketHeat, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, postal_code, active_listings, sold_last_90d, inventory_months,
			price_change_90d, dom_change_90d, status, recommendation, updated_at
		FROM market_heat ORDER BY postal_code`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list market heat")
	}
	defer rows.Close()

	var heats []model.MarketHeat
	for rows.Next() {
		h, err := scanMarketHeat(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan market heat")
		}
		heats = append(heats, *h)
	}
	return heats, eris.Wrap(rows.Err(), "sqlite: iterate market heat")
}

func (s *SQLiteStore) UpsertOpportunity(ctx context.Context, o *model.LandOpportunity) error {
	if o.ID == "" {
		o.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	if o.CreatedAt.IsZero() {
		o.CreatedAt = now
	}
	o.UpdatedAt = now

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO land_opportunities (
			id, parcel_id, address, zone_color, market_status, nearby_avg_price_sqft,
			recent_sales_count, urgency_score, urgency_level, filter_passed, notes,
			alert_sent, alert_sent_at, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (parcel_id) DO UPDATE SET
			address = excluded.address,
			zone_color = excluded.zone_color,
			market_status = excluded.market_status,
			nearby_avg_price_sqft = excluded.nearby_avg_price_sqft,
			recent_sales_count = excluded.recent_sales_count,
			urgency_score = excluded.urgency_score,
			urgency_level = excluded.urgency_level,
			filter_passed = excluded.filter_passed,
			notes = excluded.notes,
			updated_at = excluded.updated_at`,
		o.ID, o.ParcelID, o.Address, string(o.ZoneColor), string(o.MarketStatus), o.NearbyAvgPriceSqft,
		o.RecentSalesCount, o.UrgencyScore, string(o.UrgencyLevel), o.FilterPassed, o.Notes,
		o.AlertSent, o.AlertSentAt, o.CreatedAt, o.UpdatedAt,
	)
	return eris.Wrapf(err, "sqlite: upsert opportunity %s", o.ParcelID)
}

func (s *SQLiteStore) GetOpportunity(ctx context.Context, parcelID string) (*model.LandOpportunity, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, parcel_id, address, zone_color, market_status, nearby_avg_price_sqft,
			recent_sales_count, urgency_score, urgency_level, filter_passed, notes,
			alert_sent, alert_sent_at, created_at, updated_at
		FROM land_opportunities WHERE parcel_id = ?`,
		parcelID,
	)
	o, err := scanOpportunity(row)
	if err != nil {
		if eris.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, eris.Wrapf(err, "sqlite: get opportunity %s", parcelID)
	}
	return o, nil
}

func (s *SQLiteStore) ListOpportunities(ctx context.Context, filter OpportunityFilter) ([]model.LandOpportunity, error) {
	query := `
		SELECT id, parcel_id, address, zone_color, market_status, nearby_avg_price_sqft,
			recent_sales_count, urgency_score, urgency_level, filter_passed, notes,
			alert_sent, alert_sent_at, created_at, updated_at
		FROM land_opportunities WHERE 1=1`
	var args []any

	if filter.Level != "" {
		query += ` AND urgency_level = ?`
		args = append(args, string(filter.Level))
	}
	if filter.NotAlerted {
		query += ` AND alert_sent = 0`
	}
	query += ` ORDER BY urgency_score DESC`
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list opportunities")
	}
	defer rows.Close()

	var out []model.LandOpportunity
	for rows.Next() {
		o, err := scanOpportunity(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan opportunity")
		}
		out = append(out, *o)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: iterate opportunities")
}

func (s *SQLiteStore) MarkAlerted(ctx context.Context, opportunityID string, at time.Time) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE land_opportunities SET alert_sent = 1, alert_sent_at = ?, updated_at = ? WHERE id = ?`,
		at.UTC(), time.Now().UTC(), opportunityID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: mark alerted %s", opportunityID)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "sqlite: mark alerted rows affected")
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// scanner abstracts *sql.Row and *sql.Rows for the shared scan helpers.
type scanner interface {
	Scan(dest ...any) error
}

func scanComparable(sc scanner) (*model.Comparable, error) {
	var c model.Comparable
	var status string
	err := sc.Scan(
		&c.ID, &c.MLSNumber, &c.Address, &c.StreetName, &c.City, &c.State, &c.PostalCode,
		&c.Latitude, &c.Longitude, &c.SalePrice, &c.ListPrice, &c.Sqft, &c.PricePerSqft,
		&c.Bedrooms, &c.Bathrooms, &c.LotSizeAcres, &status, &c.ListDate, &c.SaleDate,
		&c.DaysOnMarket, &c.URL, &c.Archived, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	c.Status = model.PropertyStatus(status)
	return &c, nil
}

func scanStreetZone(sc scanner) (*model.StreetZone, error) {
	var z model.StreetZone
	var color string
	err := sc.Scan(
		&z.ID, &z.StreetName, &z.City, &z.MedianPriceSqft, &z.MinPriceSqft, &z.MaxPriceSqft,
		&z.AvgDOM, &z.MinDOM, &z.MaxDOM, &color, &z.SampleSize, &z.Confidence, &z.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	z.Color = model.ZoneColor(color)
	return &z, nil
}

func scanMarketHeat(sc scanner) (*model.MarketHeat, error) {
	var h model.MarketHeat
	var status string
	err := sc.Scan(
		&h.ID, &h.PostalCode, &h.ActiveListings, &h.SoldLast90d, &h.InventoryMonths,
		&h.PriceChange90d, &h.DOMChange90d, &status, &h.Recommendation, &h.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	h.Status = model.MarketStatus(status)
	return &h, nil
}

func scanOpportunity(sc scanner) (*model.LandOpportunity, error) {
	var o model.LandOpportunity
	var color, status, level string
	err := sc.Scan(
		&o.ID, &o.ParcelID, &o.Address, &color, &status, &o.NearbyAvgPriceSqft,
		&o.RecentSalesCount, &o.UrgencyScore, &level, &o.FilterPassed, &o.Notes,
		&o.AlertSent, &o.AlertSentAt, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	o.ZoneColor = model.ZoneColor(color)
	o.MarketStatus = model.MarketStatus(status)
	o.UrgencyLevel = model.UrgencyLevel(level)
	return &o, nil
}
