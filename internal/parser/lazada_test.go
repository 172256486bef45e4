package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const cardHTML = `
<div data-qa-locator="product-item">
	<a href="/products/wireless-mouse-i12345.html" title="Wireless Mouse 2.4GHz"></a>
	<div data-qa-locator="product-name">Wireless Mouse 2.4GHz</div>
	<span class="ooOxS">S$19.90</span>
	<del>S$39.90</del>
	<span class="qzqFw"></span><span>(1,234)</span>
	<span class="oa6ri">Singapore</span>
</div>`

func TestExtractSingleCard(t *testing.T) {
	parser := NewLazadaParser("https://www.lazada.sg")

	records, err := parser.Extract("<html><body>"+cardHTML+"</body></html>", "electronics")
	require.NoError(t, err)
	require.Len(t, records, 1)

	rec := records[0]
	assert.Equal(t, "Wireless Mouse 2.4GHz", rec.ProductName)
	assert.Equal(t, 19.90, rec.Price)
	assert.Equal(t, "https://www.lazada.sg/products/wireless-mouse-i12345.html", rec.ProductURL)
	assert.Equal(t, "electronics", rec.Category)
	assert.Equal(t, 1234, rec.ReviewCount)
	assert.Equal(t, "Singapore", rec.Location)
	assert.Empty(t, rec.QuantitySold)
	require.NotNil(t, rec.OriginalPrice)
	assert.Equal(t, 39.90, *rec.OriginalPrice)
	require.NotNil(t, rec.DiscountPercentage)
	assert.InDelta(t, 50.13, *rec.DiscountPercentage, 0.1)
	assert.False(t, rec.ScrapedAt.IsZero())
}

func TestExtractFallbackStrategies(t *testing.T) {
	parser := NewLazadaParser("https://www.lazada.sg")

	tests := []struct {
		name      string
		container string
	}{
		{name: "grid markup", container: "gridItem--Yd0sa"},
		{name: "catalog markup", container: "Bm3ON"},
		{name: "generic markup", container: "product-item"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			html := `<html><body><div class="` + tt.container + `">
				<a href="https://www.lazada.sg/products/keyboard-i99.html" title="Mechanical Keyboard"></a>
				<span class="ooOxS">S$89.00</span>
			</div></body></html>`

			records, err := parser.Extract(html, "")
			require.NoError(t, err)
			require.Len(t, records, 1)
			assert.Equal(t, "Mechanical Keyboard", records[0].ProductName)
			assert.Equal(t, 89.0, records[0].Price)
		})
	}
}

func TestExtractSkipsIncompleteCards(t *testing.T) {
	parser := NewLazadaParser("https://www.lazada.sg")

	html := `<html><body>
		<div data-qa-locator="product-item">
			<a href="/products/good-i1.html"></a>
			<div data-qa-locator="product-name">Complete Product</div>
			<span class="ooOxS">S$10.00</span>
		</div>
		<div data-qa-locator="product-item">
			<a href="/products/no-price-i2.html"></a>
			<div data-qa-locator="product-name">Missing Price</div>
		</div>
		<div data-qa-locator="product-item">
			<a href="/products/good-i3.html"></a>
			<div data-qa-locator="product-name">Another Complete Product</div>
			<span class="ooOxS">S$20.00</span>
		</div>
	</body></html>`

	records, err := parser.Extract(html, "")
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "Complete Product", records[0].ProductName)
	assert.Equal(t, "Another Complete Product", records[1].ProductName)
}

func TestExtractNoContainers(t *testing.T) {
	parser := NewLazadaParser("https://www.lazada.sg")

	records, err := parser.Extract("<html><body><p>Nothing here</p></body></html>", "toys")
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestExtractQuantitySoldReclassification(t *testing.T) {
	parser := NewLazadaParser("https://www.lazada.sg")

	html := `<html><body><div data-qa-locator="product-item">
		<a href="/products/cable-i3.html"></a>
		<div data-qa-locator="product-name">USB Cable</div>
		<span class="ooOxS">S$3.50</span>
		<span class="oa6ri">500+ sold</span>
	</div></body></html>`

	records, err := parser.Extract(html, "")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "500+ sold", records[0].QuantitySold)
	assert.Empty(t, records[0].Location)
}

func TestExtractOriginalPriceAnomalyDropped(t *testing.T) {
	parser := NewLazadaParser("https://www.lazada.sg")

	// Original price at or below the current price is not a discount.
	html := `<html><body><div data-qa-locator="product-item">
		<a href="/products/lamp-i4.html"></a>
		<div data-qa-locator="product-name">Desk Lamp</div>
		<span class="ooOxS">S$25.00</span>
		<del>S$20.00</del>
	</div></body></html>`

	records, err := parser.Extract(html, "")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Nil(t, records[0].OriginalPrice)
	assert.Nil(t, records[0].DiscountPercentage)
}

func TestParsePrice(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected float64
	}{
		{name: "singapore dollar", input: "S$19.90", expected: 19.90},
		{name: "plain dollar", input: "$5.00", expected: 5.0},
		{name: "sgd prefix", input: "SGD 1,299.00", expected: 1299.0},
		{name: "thousands separator", input: "S$2,499.99", expected: 2499.99},
		{name: "ringgit", input: "RM45.50", expected: 45.50},
		{name: "no currency", input: "12.34", expected: 12.34},
		{name: "empty", input: "", expected: 0},
		{name: "no number", input: "Free shipping", expected: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ParsePrice(tt.input))
		})
	}
}

func TestParseReviewCount(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected int
	}{
		{name: "plain count", input: "42", expected: 42},
		{name: "parenthesized", input: "(1,234)", expected: 1234},
		{name: "abbreviated thousands", input: "1.2k", expected: 1200},
		{name: "abbreviated uppercase", input: "3K", expected: 3000},
		{name: "star rating leak", input: "4.5", expected: 0},
		{name: "empty", input: "", expected: 0},
		{name: "no digits", input: "No reviews yet", expected: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ParseReviewCount(tt.input))
		})
	}
}
