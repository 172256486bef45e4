package parser

import (
	"github.com/maltedev/lazada-scraper/internal/models"
)

// Extractor turns a rendered page's HTML into product records. Missing
// fields on individual cards degrade field-by-field; an empty result with
// a nil error is the end-of-results signal for the pagination driver.
type Extractor interface {
	Extract(html, category string) ([]models.ProductRecord, error)
}

// Strategy is one structural matcher for product container fragments.
// Strategies are tried in order; the first one that matches any
// containers on the page wins. The site rotates its class names every
// few months, which is why the fallbacks exist.
type Strategy struct {
	Name      string
	Container string
}

// DefaultStrategies returns the matcher cascade for Lazada result pages,
// primary selector first.
func DefaultStrategies() []Strategy {
	return []Strategy{
		{Name: "primary", Container: `[data-qa-locator="product-item"]`},
		{Name: "grid", Container: `.gridItem--Yd0sa`},
		{Name: "catalog", Container: `.Bm3ON`},
		{Name: "generic", Container: `.product-item`},
	}
}
