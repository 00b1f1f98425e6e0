package export

import (
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"review-scraper/pkg/models"
)

func testWriter(dir string) *Writer {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return NewWriter(dir, logrus.NewEntry(log))
}

func TestWrite(t *testing.T) {
	dir := t.TempDir()
	writer := testWriter(dir)

	records := []models.ReviewRecord{
		{
			AppName:      "Checkout Blocks",
			ReviewText:   "Great app, support was quick.",
			ReviewerName: "Acme Store",
			RawDate:      "June 1, 2024",
			Location:     "United States",
			Tenure:       "Over 2 years",
			Rating:       "5",
		},
		{
			AppName:      "Checkout Blocks",
			ReviewText:   "Line one\nline two, with a comma.",
			ReviewerName: "Other Shop",
			RawDate:      "Edited May 12, 2024",
			Location:     "N/A",
			Tenure:       "3 months",
			Rating:       "4",
		},
	}

	path, err := writer.Write("shopify_single_app_reviews_checkout_blocks", records)
	require.NoError(t, err)
	require.NotEmpty(t, path)

	base := filepath.Base(path)
	assert.True(t, strings.HasPrefix(base, "shopify_single_app_reviews_checkout_blocks_"), "unexpected file name %q", base)
	assert.True(t, strings.HasSuffix(base, ".csv"))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, []string{"app_name", "review", "reviewer", "date", "location", "duration", "rating"}, rows[0])
	assert.Equal(t, []string{"Checkout Blocks", "Great app, support was quick.", "Acme Store", "June 1, 2024", "United States", "Over 2 years", "5"}, rows[1])
	// Raw date string is exported verbatim; newlines and commas survive quoting
	assert.Equal(t, "Line one\nline two, with a comma.", rows[2][1])
	assert.Equal(t, "Edited May 12, 2024", rows[2][3])
}

func TestWrite_NoRecordsWritesNothing(t *testing.T) {
	dir := t.TempDir()
	writer := testWriter(dir)

	path, err := writer.Write("shopify_developer_reviews_acme", nil)
	require.NoError(t, err)
	assert.Empty(t, path)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "no file should have been created")
}

func TestWrite_CreatesOutputDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "exports", "nested")
	writer := testWriter(dir)

	path, err := writer.Write("shopify_developer_reviews_acme", []models.ReviewRecord{
		{AppName: "App", ReviewText: "ok", ReviewerName: "Shop", RawDate: "June 1, 2024", Rating: "5"},
	})
	require.NoError(t, err)
	assert.Equal(t, dir, filepath.Dir(path))
}
