// Package export serializes a run's accepted records to a tabular file.
// Writing happens once per run, after all pages are processed.
package export

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/maltedev/lazada-scraper/internal/models"
)

// Column order matches the ProductRecord field semantics consumed by
// downstream analysis tools; do not reorder without coordinating.
var header = []string{
	"product_name",
	"price",
	"original_price",
	"discount_percentage",
	"review_count",
	"discount_tag_line",
	"location",
	"quantity_sold",
	"category",
	"product_url",
	"scraped_at",
}

// WriteCSV writes all records to path, creating parent directories as
// needed. The file is written atomically via a temp file rename.
func WriteCSV(records []models.ProductRecord, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("failed to write header: %w", err)
	}

	for _, rec := range records {
		if err := w.Write(row(rec)); err != nil {
			f.Close()
			os.Remove(tmp)
			return fmt.Errorf("failed to write record: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("failed to flush csv: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to close output file: %w", err)
	}

	return os.Rename(tmp, path)
}

// Filename derives the output file name from the query, mirroring
// "<query>_products.csv".
func Filename(query string) string {
	slug := strings.ToLower(strings.TrimSpace(query))
	slug = strings.ReplaceAll(slug, " ", "_")
	if slug == "" {
		slug = "lazada"
	}
	return slug + "_products.csv"
}

func row(rec models.ProductRecord) []string {
	return []string{
		rec.ProductName,
		strconv.FormatFloat(rec.Price, 'f', 2, 64),
		formatOptFloat(rec.OriginalPrice, 2),
		formatOptFloat(rec.DiscountPercentage, 2),
		strconv.Itoa(rec.ReviewCount),
		rec.DiscountTagLine,
		rec.Location,
		rec.QuantitySold,
		rec.Category,
		rec.ProductURL,
		rec.ScrapedAt.Format(time.RFC3339),
	}
}

func formatOptFloat(v *float64, prec int) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', prec, 64)
}
