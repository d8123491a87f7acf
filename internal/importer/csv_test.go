package importer

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/iotest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parcelworks/landscout/internal/model"
	"github.com/parcelworks/landscout/internal/store"
)

func newTestImporter(t *testing.T) (*Importer, store.Store) {
	t.Helper()
	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))
	return New(st, nil, 365, "Asheville", "NC"), st
}

func writeCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "listings.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestImportFile_CanonicalColumns(t *testing.T) {
	im, st := newTestImporter(t)

	recent := time.Now().AddDate(0, 0, -20).Format("2006-01-02")
	path := writeCSV(t, "MLSNumber,Address,City,State,Zip,SalePrice,Sqft,Status,SaleDate,Latitude,Longitude\n"+
		"M1,123 Main St,Asheville,NC,28801,450000,1500,Sold,"+recent+",35.6,-82.55\n"+
		"M2,9 Oak Ave,Asheville,NC,28801,,1200,Active,,35.61,-82.54\n")

	summary, err := im.ImportFile(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Rows)
	assert.Equal(t, 2, summary.Imported)
	assert.Equal(t, 0, summary.Skipped)

	comps, err := st.FindComparables(context.Background(), store.ComparableFilter{})
	require.NoError(t, err)
	require.Len(t, comps, 2)

	byMLS := map[string]model.Comparable{}
	for _, c := range comps {
		byMLS[c.MLSNumber] = c
	}

	sold := byMLS["M1"]
	assert.Equal(t, "Main St", sold.StreetName)
	assert.Equal(t, model.StatusSold, sold.Status)
	require.NotNil(t, sold.PricePerSqft)
	assert.Equal(t, 300.0, *sold.PricePerSqft)
	require.NotNil(t, sold.Latitude)
	assert.Equal(t, 35.6, *sold.Latitude)

	active := byMLS["M2"]
	assert.Equal(t, model.StatusActive, active.Status)
	assert.Nil(t, active.SalePrice)
}

func TestImportFile_RedfinHeaders(t *testing.T) {
	im, st := newTestImporter(t)

	path := writeCSV(t, "MLS#,ADDRESS,CITY,ZIP OR POSTAL CODE,PRICE,SQUARE FEET,STATUS,LATITUDE,LONGITUDE\n"+
		"R1,45 Hill Rd,Candler,28715,\"$350,000\",1400,Active,35.53,-82.69\n")

	summary, err := im.ImportFile(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Imported)

	comps, err := st.FindComparables(context.Background(), store.ComparableFilter{City: "Candler"})
	require.NoError(t, err)
	require.Len(t, comps, 1)
	require.NotNil(t, comps[0].ListPrice)
	assert.Equal(t, 350000.0, *comps[0].ListPrice)
	require.NotNil(t, comps[0].PricePerSqft)
	assert.Equal(t, 250.0, *comps[0].PricePerSqft)
}

func TestImportFile_SkipsBadRows(t *testing.T) {
	im, _ := newTestImporter(t)

	path := writeCSV(t, "MLSNumber,Address,ListPrice,Sqft,Status\n"+
		"OK1,1 Good St,100000,1000,Active\n"+
		",2 NoMLS St,100000,1000,Active\n"+
		"BAD2,3 NoSqft St,100000,,Active\n")

	summary, err := im.ImportFile(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, 3, summary.Rows)
	assert.Equal(t, 1, summary.Imported)
	assert.Equal(t, 2, summary.Skipped)
}

func TestImportFile_MissingRequiredColumn(t *testing.T) {
	im, _ := newTestImporter(t)

	path := writeCSV(t, "MLSNumber,ListPrice,Sqft,Status\nM1,100000,1000,Active\n")
	_, err := im.ImportFile(context.Background(), path)
	assert.Error(t, err)
}

func TestImportFile_ReimportUpdatesStatus(t *testing.T) {
	im, st := newTestImporter(t)
	ctx := context.Background()

	activeCSV := writeCSV(t, "MLSNumber,Address,ListPrice,Sqft,Status,Latitude,Longitude\n"+
		"M1,123 Main St,400000,1500,Active,35.6,-82.55\n")
	_, err := im.ImportFile(ctx, activeCSV)
	require.NoError(t, err)

	recent := time.Now().AddDate(0, 0, -5).Format("2006-01-02")
	soldCSV := writeCSV(t, "MLSNumber,Address,SalePrice,Sqft,Status,SaleDate,Latitude,Longitude\n"+
		"M1,123 Main St,395000,1500,Closed,"+recent+",35.6,-82.55\n")
	_, err = im.ImportFile(ctx, soldCSV)
	require.NoError(t, err)

	comps, err := st.FindComparables(ctx, store.ComparableFilter{})
	require.NoError(t, err)
	require.Len(t, comps, 1)
	assert.Equal(t, model.StatusSold, comps[0].Status)
	require.NotNil(t, comps[0].SalePrice)
	assert.Equal(t, 395000.0, *comps[0].SalePrice)
}

func TestImportFile_ArchivesStaleSolds(t *testing.T) {
	im, st := newTestImporter(t)
	ctx := context.Background()

	old := time.Now().AddDate(-2, 0, 0).Format("2006-01-02")
	path := writeCSV(t, "MLSNumber,Address,SalePrice,Sqft,Status,SaleDate,Latitude,Longitude\n"+
		"OLD1,7 Past Ln,300000,1200,Sold,"+old+",35.6,-82.55\n")

	summary, err := im.ImportFile(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, int64(1), summary.Archived)

	comps, err := st.FindComparables(ctx, store.ComparableFilter{})
	require.NoError(t, err)
	assert.Empty(t, comps)
}

func TestImportFile_StripsBOM(t *testing.T) {
	im, _ := newTestImporter(t)

	path := writeCSV(t, "\xEF\xBB\xBFMLSNumber,Address,ListPrice,Sqft,Status,Latitude,Longitude\n"+
		"M1,123 Main St,400000,1500,Active,35.6,-82.55\n")

	summary, err := im.ImportFile(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Imported)
}

func TestBOMReader_SplitAcrossShortReads(t *testing.T) {
	// One byte per read: the mark never arrives in a single call.
	src := iotest.OneByteReader(strings.NewReader("\xEF\xBB\xBFmls,address\n"))
	data, err := io.ReadAll(&bomReader{r: src})
	require.NoError(t, err)
	assert.Equal(t, "mls,address\n", string(data))
}

func TestBOMReader_PassesShortStreamsThrough(t *testing.T) {
	data, err := io.ReadAll(&bomReader{r: strings.NewReader("ab")})
	require.NoError(t, err)
	assert.Equal(t, "ab", string(data))

	data, err = io.ReadAll(&bomReader{r: strings.NewReader("")})
	require.NoError(t, err)
	assert.Empty(t, data)
}

func TestExtractStreetName(t *testing.T) {
	tests := []struct {
		address string
		want    string
	}{
		{"123 Main Street, Asheville, NC 28801", "Main Street"},
		{"9 Oak Ave", "Oak Ave"},
		{"Ridge Top Rd", "Ridge Top Rd"},
		{"  45 Hill Rd,Candler", "Hill Rd"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ExtractStreetName(tt.address), tt.address)
	}
}

func TestNormalizeStatus(t *testing.T) {
	assert.Equal(t, model.StatusSold, normalizeStatus("Closed"))
	assert.Equal(t, model.StatusSold, normalizeStatus("sold"))
	assert.Equal(t, model.StatusUnderContract, normalizeStatus("Under Contract"))
	assert.Equal(t, model.StatusWithdrawn, normalizeStatus("withdrawn"))
	assert.Equal(t, model.StatusActive, normalizeStatus("Active"))
}
