// Package models holds the shared data types of the scraper: the
// product record produced by extraction, the page request the
// pagination driver walks, and the summary of a finished run.
package models

import "time"

// ProductRecord is one extracted product listing. Name, price, and URL
// are required; everything else is best-effort.
type ProductRecord struct {
	ProductName        string    `json:"product_name"`
	Price              float64   `json:"price"`
	OriginalPrice      *float64  `json:"original_price,omitempty"`
	DiscountPercentage *float64  `json:"discount_percentage,omitempty"`
	ReviewCount        int       `json:"review_count"`
	DiscountTagLine    string    `json:"discount_tag_line,omitempty"`
	Location           string    `json:"location,omitempty"`
	QuantitySold       string    `json:"quantity_sold,omitempty"`
	Category           string    `json:"category,omitempty"`
	ProductURL         string    `json:"product_url"`
	ScrapedAt          time.Time `json:"scraped_at"`
}

// HasRequiredFields reports whether the record carries the minimum a
// listing must have to be worth keeping.
func (r *ProductRecord) HasRequiredFields() bool {
	return r.ProductName != "" && r.Price > 0 && r.ProductURL != ""
}

// SetOriginalPrice records the pre-discount price and derives the
// discount percentage. An original price at or below the current price
// is a markup anomaly and is dropped entirely.
func (r *ProductRecord) SetOriginalPrice(original float64) {
	if original <= r.Price {
		r.OriginalPrice = nil
		r.DiscountPercentage = nil
		return
	}
	r.OriginalPrice = &original
	pct := 100 * (original - r.Price) / original
	r.DiscountPercentage = &pct
}

// Filters narrows which extracted records a run accepts.
type Filters struct {
	// MinPrice is the inclusive lower bound. Zero means no lower bound.
	MinPrice float64 `json:"min_price"`
	// MaxPrice is the inclusive upper bound. Zero or negative means
	// unbounded.
	MaxPrice float64 `json:"max_price"`
	// IncludeWords accepts a record when any word matches the product
	// name, case-insensitively. Empty means accept all.
	IncludeWords []string `json:"include_words,omitempty"`
	// ExcludeWords rejects a record when any word matches the product
	// name. Exclusion wins over inclusion.
	ExcludeWords []string `json:"exclude_words,omitempty"`
}

// PageRequest addresses one result page of a listing walk.
type PageRequest struct {
	Query    string  `json:"query"`
	BaseURL  string  `json:"base_url"`
	Page     int     `json:"page"`
	Filters  Filters `json:"filters"`
	MaxPages int     `json:"max_pages"`
}

// Next returns the request for the following page.
func (p PageRequest) Next() PageRequest {
	p.Page++
	return p
}

// RunResult summarizes a finished (or aborted) listing walk.
type RunResult struct {
	Query          string          `json:"query"`
	Records        []ProductRecord `json:"records"`
	PagesAttempted int             `json:"pages_attempted"`
	PagesSucceeded int             `json:"pages_succeeded"`
	PagesSkipped   int             `json:"pages_skipped"`
	Aborted        bool            `json:"aborted"`
	StartedAt      time.Time       `json:"started_at"`
	FinishedAt     time.Time       `json:"finished_at"`
}
