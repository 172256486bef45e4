package export

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maltedev/lazada-scraper/internal/models"
)

func TestWriteCSV(t *testing.T) {
	orig := 39.9
	pct := 50.13
	records := []models.ProductRecord{
		{
			ProductName:        "Wireless Mouse",
			Price:              19.9,
			OriginalPrice:      &orig,
			DiscountPercentage: &pct,
			ReviewCount:        1234,
			DiscountTagLine:    "Flash Sale",
			Location:           "Singapore",
			Category:           "electronics",
			ProductURL:         "https://www.lazada.sg/products/mouse-i1.html",
			ScrapedAt:          time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
		},
		{
			ProductName:  "USB Cable",
			Price:        3.5,
			QuantitySold: "500+ sold",
			ProductURL:   "https://www.lazada.sg/products/cable-i2.html",
			ScrapedAt:    time.Date(2025, 6, 1, 12, 0, 1, 0, time.UTC),
		},
	}

	path := filepath.Join(t.TempDir(), "out", "mouse_products.csv")
	require.NoError(t, WriteCSV(records, path))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, header, rows[0])
	assert.Equal(t, []string{
		"Wireless Mouse", "19.90", "39.90", "50.13", "1234",
		"Flash Sale", "Singapore", "", "electronics",
		"https://www.lazada.sg/products/mouse-i1.html", "2025-06-01T12:00:00Z",
	}, rows[1])
	assert.Equal(t, []string{
		"USB Cable", "3.50", "", "", "0",
		"", "", "500+ sold", "",
		"https://www.lazada.sg/products/cable-i2.html", "2025-06-01T12:00:01Z",
	}, rows[2])

	// No temp file left behind.
	_, err = os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err))
}

func TestWriteCSVEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty_products.csv")
	require.NoError(t, WriteCSV(nil, path))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, header, rows[0])
}

func TestFilename(t *testing.T) {
	tests := []struct {
		name     string
		query    string
		expected string
	}{
		{name: "single word", query: "mouse", expected: "mouse_products.csv"},
		{name: "multi word", query: "Wireless Mouse", expected: "wireless_mouse_products.csv"},
		{name: "padded", query: "  laptop  ", expected: "laptop_products.csv"},
		{name: "empty falls back", query: "", expected: "lazada_products.csv"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Filename(tt.query))
		})
	}
}
