package scraper

import (
	"strings"

	"github.com/maltedev/lazada-scraper/internal/models"
)

// Apply filters records in order and deduplicates them against seen, the
// run-wide set of product URLs owned by the caller. First occurrence of
// a URL wins, across pages. Exclude words take precedence over include
// words when both match.
func Apply(records []models.ProductRecord, f models.Filters, seen map[string]struct{}) []models.ProductRecord {
	accepted := make([]models.ProductRecord, 0, len(records))

	for _, rec := range records {
		if !matchesPrice(rec.Price, f) {
			continue
		}
		if !matchesKeywords(rec.ProductName, f) {
			continue
		}
		if _, dup := seen[rec.ProductURL]; dup {
			continue
		}
		seen[rec.ProductURL] = struct{}{}
		accepted = append(accepted, rec)
	}

	return accepted
}

func matchesPrice(price float64, f models.Filters) bool {
	if price < f.MinPrice {
		return false
	}
	if f.MaxPrice > 0 && price > f.MaxPrice {
		return false
	}
	return true
}

func matchesKeywords(name string, f models.Filters) bool {
	lower := strings.ToLower(name)

	for _, word := range f.ExcludeWords {
		if word != "" && strings.Contains(lower, strings.ToLower(word)) {
			return false
		}
	}

	if len(f.IncludeWords) == 0 {
		return true
	}
	for _, word := range f.IncludeWords {
		if word != "" && strings.Contains(lower, strings.ToLower(word)) {
			return true
		}
	}
	return false
}
