// Package importer ingests MLS export CSV files into the comparable store,
// geocoding rows that arrive without coordinates.
package importer

import (
	"context"
	"encoding/csv"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/parcelworks/landscout/internal/geocode"
	"github.com/parcelworks/landscout/internal/model"
	"github.com/parcelworks/landscout/internal/store"
)

// redfinColumns maps Redfin export headers onto the canonical column names.
var redfinColumns = map[string]string{
	"ADDRESS":            "Address",
	"CITY":               "City",
	"STATE OR PROVINCE":  "State",
	"ZIP OR POSTAL CODE": "Zip",
	"PRICE":              "ListPrice",
	"BEDS":               "Bedrooms",
	"BATHS":              "Bathrooms",
	"SQUARE FEET":        "Sqft",
	"LOT SIZE":           "LotSize",
	"STATUS":             "Status",
	"MLS#":               "MLSNumber",
	"SOLD DATE":          "SaleDate",
	"DAYS ON MARKET":     "DaysOnMarket",
	"LATITUDE":           "Latitude",
	"LONGITUDE":          "Longitude",
}

var houseNumberRe = regexp.MustCompile(`^\d+\s+`)

// dateLayouts are the formats MLS exports have been seen to use.
var dateLayouts = []string{"2006-01-02", "January-2-2006", "1/2/2006", time.RFC3339}

// Summary counts the outcome of one import.
type Summary struct {
	Rows     int
	Imported int
	Skipped  int
	Geocoded int
	Archived int64
}

// Importer parses MLS CSV exports into comparables.
type Importer struct {
	store            store.Store
	resolver         *geocode.Resolver
	archiveAfterDays int
	defaultCity      string
	defaultState     string
}

// New creates an Importer. resolver may be nil to skip geocoding rows
// without coordinates.
func New(st store.Store, resolver *geocode.Resolver, archiveAfterDays int, defaultCity, defaultState string) *Importer {
	return &Importer{
		store:            st,
		resolver:         resolver,
		archiveAfterDays: archiveAfterDays,
		defaultCity:      defaultCity,
		defaultState:     defaultState,
	}
}

// ImportFile streams the CSV at path into the store. Rows that cannot be
// parsed are skipped and logged, never fatal. After the rows land, sold
// comparables older than the archive window are archived.
func (im *Importer) ImportFile(ctx context.Context, path string) (Summary, error) {
	f, err := os.Open(path)
	if err != nil {
		return Summary{}, eris.Wrapf(err, "importer: open %s", path)
	}
	defer f.Close()

	summary, err := im.importReader(ctx, f)
	if err != nil {
		return summary, err
	}

	cutoff := time.Now().AddDate(0, 0, -im.archiveAfterDays)
	archived, err := im.store.ArchiveSoldBefore(ctx, cutoff)
	if err != nil {
		return summary, err
	}
	summary.Archived = archived

	zap.L().Info("import finished",
		zap.String("file", path),
		zap.Int("rows", summary.Rows),
		zap.Int("imported", summary.Imported),
		zap.Int("skipped", summary.Skipped),
		zap.Int("geocoded", summary.Geocoded),
		zap.Int64("archived", summary.Archived))
	return summary, nil
}

func (im *Importer) importReader(ctx context.Context, r io.Reader) (Summary, error) {
	reader := csv.NewReader(&bomReader{r: r})
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err != nil {
		return Summary{}, eris.Wrap(err, "importer: read header")
	}
	cols, err := columnIndex(header)
	if err != nil {
		return Summary{}, err
	}

	var summary Summary
	for {
		if err := ctx.Err(); err != nil {
			return summary, eris.Wrap(err, "importer: cancelled")
		}

		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return summary, eris.Wrap(err, "importer: read row")
		}
		summary.Rows++

		comp, geocoded, err := im.parseRow(ctx, cols, record)
		if err != nil {
			summary.Skipped++
			zap.L().Debug("import row skipped", zap.Int("row", summary.Rows), zap.Error(err))
			continue
		}
		if geocoded {
			summary.Geocoded++
		}

		if err := im.store.UpsertComparable(ctx, comp); err != nil {
			summary.Skipped++
			zap.L().Warn("import row failed to persist",
				zap.String("mls_number", comp.MLSNumber), zap.Error(err))
			continue
		}
		summary.Imported++
	}
	return summary, nil
}

// columnIndex normalizes the header (Redfin names included) and validates
// the required columns are present.
func columnIndex(header []string) (map[string]int, error) {
	cols := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.TrimSpace(name)
		if canonical, ok := redfinColumns[strings.ToUpper(name)]; ok {
			name = canonical
		}
		cols[name] = i
	}

	for _, required := range []string{"Address", "Sqft", "Status"} {
		if _, ok := cols[required]; !ok {
			return nil, eris.Errorf("importer: missing required column %s", required)
		}
	}
	if _, hasSale := cols["SalePrice"]; !hasSale {
		if _, hasList := cols["ListPrice"]; !hasList {
			return nil, eris.New("importer: no price column (SalePrice or ListPrice)")
		}
	}
	return cols, nil
}

func (im *Importer) parseRow(ctx context.Context, cols map[string]int, record []string) (*model.Comparable, bool, error) {
	get := func(name string) string {
		i, ok := cols[name]
		if !ok || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	mlsNumber := get("MLSNumber")
	if mlsNumber == "" {
		mlsNumber = get("MLS")
	}
	if mlsNumber == "" {
		return nil, false, eris.New("importer: row without MLS number")
	}

	address := get("Address")
	if address == "" {
		return nil, false, eris.New("importer: row without address")
	}

	sqft, ok := parseFloat(get("Sqft"))
	if !ok || sqft <= 0 {
		return nil, false, eris.New("importer: row without living area")
	}

	city := get("City")
	if city == "" {
		city = im.defaultCity
	}
	state := get("State")
	if state == "" {
		state = im.defaultState
	}

	comp := &model.Comparable{
		MLSNumber:  mlsNumber,
		Address:    address,
		StreetName: ExtractStreetName(address),
		City:       city,
		State:      state,
		PostalCode: get("Zip"),
		Sqft:       &sqft,
		Status:     normalizeStatus(get("Status")),
		URL:        get("URL"),
	}

	if v, ok := parseFloat(get("SalePrice")); ok {
		comp.SalePrice = &v
	}
	if v, ok := parseFloat(get("ListPrice")); ok {
		comp.ListPrice = &v
	}
	if v, ok := parseInt(get("Bedrooms")); ok {
		comp.Bedrooms = &v
	}
	if v, ok := parseFloat(get("Bathrooms")); ok {
		comp.Bathrooms = &v
	}
	if v, ok := parseFloat(get("LotSize")); ok {
		comp.LotSizeAcres = &v
	}
	if d, ok := parseDate(get("ListDate")); ok {
		comp.ListDate = &d
	}
	if d, ok := parseDate(get("SaleDate")); ok {
		comp.SaleDate = &d
	}

	geocoded, err := im.fillCoordinate(ctx, comp, get)
	if err != nil {
		return nil, false, err
	}

	// Derived metrics.
	if price, ok := comp.Price(); ok {
		if pps, ok := model.ComputePricePerSqft(price, sqft); ok {
			comp.PricePerSqft = &pps
		}
	}
	if v, ok := parseInt(get("DaysOnMarket")); ok {
		comp.DaysOnMarket = &v
	} else if comp.ListDate != nil {
		dom := model.ComputeDaysOnMarket(*comp.ListDate, comp.SaleDate, time.Now())
		comp.DaysOnMarket = &dom
	}

	return comp, geocoded, nil
}

// fillCoordinate takes the CSV coordinate when present, otherwise resolves
// the address through the geocoder.
func (im *Importer) fillCoordinate(ctx context.Context, comp *model.Comparable, get func(string) string) (bool, error) {
	lat, latOK := parseFloat(get("Latitude"))
	lon, lonOK := parseFloat(get("Longitude"))
	if latOK && lonOK {
		comp.Latitude = &lat
		comp.Longitude = &lon
		return false, nil
	}
	if im.resolver == nil {
		return false, nil
	}

	coord, err := im.resolver.Resolve(ctx, geocode.Request{
		Address:    comp.Address,
		StreetName: comp.StreetName,
		City:       comp.City,
		PostalCode: comp.PostalCode,
	})
	if err != nil {
		return false, eris.Wrapf(err, "importer: geocode %s", comp.Address)
	}
	comp.Latitude = &coord.Lat
	comp.Longitude = &coord.Lon
	return true, nil
}

// ExtractStreetName strips the house number and everything after the first
// comma, leaving the bare street name.
func ExtractStreetName(address string) string {
	address = strings.TrimSpace(address)
	if i := strings.Index(address, ","); i >= 0 {
		address = address[:i]
	}
	return strings.TrimSpace(houseNumberRe.ReplaceAllString(address, ""))
}

// normalizeStatus folds the MLS status vocabulary onto the engine's.
func normalizeStatus(raw string) model.PropertyStatus {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "sold", "closed":
		return model.StatusSold
	case "pending", "under contract", "under_contract":
		return model.StatusUnderContract
	case "withdrawn":
		return model.StatusWithdrawn
	default:
		return model.StatusActive
	}
}

func parseFloat(s string) (float64, bool) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	s = strings.TrimPrefix(s, "$")
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func parseInt(s string) (int, bool) {
	v, ok := parseFloat(s)
	if !ok {
		return 0, false
	}
	return int(v), true
}

func parseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if d, err := time.Parse(layout, s); err == nil {
			return d, true
		}
	}
	return time.Time{}, false
}

// bomReader strips a UTF-8 byte order mark from the start of the stream;
// Redfin exports carry one. The first three bytes are buffered before
// deciding, so a mark split across short reads is still caught.
type bomReader struct {
	r       io.Reader
	pending []byte
	checked bool
}

var utf8BOM = [3]byte{0xEF, 0xBB, 0xBF}

func (b *bomReader) Read(p []byte) (int, error) {
	if !b.checked {
		b.checked = true
		var head [3]byte
		n, _ := io.ReadFull(b.r, head[:])
		if n != 3 || head != utf8BOM {
			b.pending = head[:n]
		}
	}
	if len(b.pending) > 0 {
		n := copy(p, b.pending)
		b.pending = b.pending[n:]
		return n, nil
	}
	return b.r.Read(p)
}
