package parser

import (
	"fmt"
	"log/slog"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/maltedev/lazada-scraper/internal/models"
)

// Selector cascades per field. Lazada serves several markup generations
// depending on the listing type (catalog search, shop page, tag page), so
// every field is tried against each selector in order.
var (
	nameSelectors = []string{
		`[data-qa-locator="product-name"]`,
		`.title--wFj93`,
		`.titleText--f74c8`,
		`.RfADt a`,
	}
	priceSelectors = []string{
		`.ooOxS`,
		`[data-qa-locator="product-price"]`,
		`.price--NVB62`,
		`.currency--GVKjl`,
		`.current-price`,
	}
	originalPriceSelectors = []string{
		`.originPrice--AJxRs`,
		`del`,
		`.was-price`,
		`.old-price`,
		`.original-price`,
	}
	reviewCountSelectors = []string{
		`.qzqFw + span`,
		`.count--iq2as`,
		`.ratingCount--KfjIx`,
		`.rating-count`,
		`.review-count`,
	}
	tagLineSelectors = []string{
		`a.seller-name-v2__detail-name`,
		`[data-qa-locator="seller-name"]`,
		`.shopName--wEhCK`,
		`.WNoq3`,
		`.IcOsH`,
	}
	locationSelectors = []string{
		`span.oa6ri`,
		`div._6uN7R span`,
		`[data-qa-locator="location"]`,
		`.location--LAzqk`,
		`.seller-location`,
	}
)

var (
	whitespaceRe = regexp.MustCompile(`\s+`)
	numberRe     = regexp.MustCompile(`\d+(?:[.,]\d+)*`)
	abbrevRe     = regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*k`)
)

// LazadaParser extracts product records from Lazada result-page HTML.
// It is stateless and safe for reuse across pages.
type LazadaParser struct {
	strategies []Strategy
	base       *url.URL
	logger     *slog.Logger
}

func NewLazadaParser(baseURL string) *LazadaParser {
	base, err := url.Parse(baseURL)
	if err != nil {
		base = &url.URL{Scheme: "https", Host: "www.lazada.sg"}
	}
	return &LazadaParser{
		strategies: DefaultStrategies(),
		base:       base,
		logger:     slog.Default().With("component", "parser"),
	}
}

// Extract parses the page and returns one record per product card that
// carries the required fields (name, price, URL). Optional fields degrade
// to absent values; a card missing a required field is skipped, not an
// error. An empty slice means the page holds no recognizable products.
func (p *LazadaParser) Extract(html, category string) ([]models.ProductRecord, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	cards, strategy := p.findContainers(doc)
	if cards == nil {
		// Indistinguishable from a genuinely exhausted category; logged
		// distinctly so a site-wide markup change shows up in operations.
		p.logger.Warn("no product containers matched any strategy", "category", category)
		return nil, nil
	}

	var records []models.ProductRecord
	cards.Each(func(i int, card *goquery.Selection) {
		rec, ok := p.extractCard(card, category)
		if !ok {
			p.logger.Debug("skipping card with missing required field",
				"strategy", strategy, "index", i)
			return
		}
		records = append(records, rec)
	})

	p.logger.Info("extracted products from page",
		"strategy", strategy, "cards", cards.Length(), "records", len(records))
	return records, nil
}

func (p *LazadaParser) findContainers(doc *goquery.Document) (*goquery.Selection, string) {
	for _, s := range p.strategies {
		sel := doc.Find(s.Container)
		if sel.Length() > 0 {
			return sel, s.Name
		}
	}
	return nil, ""
}

func (p *LazadaParser) extractCard(card *goquery.Selection, category string) (models.ProductRecord, bool) {
	rec := models.ProductRecord{
		Category:  category,
		ScrapedAt: time.Now(),
	}

	rec.ProductName = p.extractName(card)
	if rec.ProductName == "" {
		return rec, false
	}

	priceText := firstText(card, priceSelectors)
	rec.Price = ParsePrice(priceText)
	if rec.Price <= 0 {
		return rec, false
	}

	rec.ProductURL = p.extractURL(card)
	if rec.ProductURL == "" {
		return rec, false
	}

	if origText := firstText(card, originalPriceSelectors); origText != "" {
		rec.SetOriginalPrice(ParsePrice(origText))
	}

	rec.ReviewCount = ParseReviewCount(firstText(card, reviewCountSelectors))
	rec.DiscountTagLine = cleanText(firstText(card, tagLineSelectors))

	location := cleanText(firstText(card, locationSelectors))
	if location == "" {
		location = p.locationFromText(card)
	}
	// Lazada renders "500+ sold" in the same slot as the seller location.
	if strings.Contains(strings.ToLower(location), "sold") {
		rec.QuantitySold = location
	} else {
		rec.Location = location
	}

	return rec, true
}

func (p *LazadaParser) extractName(card *goquery.Selection) string {
	if name := firstText(card, nameSelectors); name != "" {
		return cleanText(name)
	}
	// Older markup puts the full name only in the anchor title attribute.
	if title, ok := card.Find("a[title]").First().Attr("title"); ok {
		return cleanText(title)
	}
	return ""
}

func (p *LazadaParser) extractURL(card *goquery.Selection) string {
	href, ok := card.Find("a[href]").First().Attr("href")
	if !ok || href == "" {
		return ""
	}
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return ""
	}
	abs := p.base.ResolveReference(ref)
	if abs.Host == "" {
		return ""
	}
	return abs.String()
}

// locationFromText scans the card's full text for the location line when
// no selector matched, mirroring how the seller region appears as a bare
// trailing line in some markup generations.
func (p *LazadaParser) locationFromText(card *goquery.Selection) string {
	indicators := []string{"singapore", "overseas", "local", "sold"}
	for _, line := range strings.Split(card.Text(), "\n") {
		lower := strings.ToLower(line)
		for _, ind := range indicators {
			if strings.Contains(lower, ind) {
				return cleanText(line)
			}
		}
	}
	return ""
}

func firstText(card *goquery.Selection, selectors []string) string {
	for _, sel := range selectors {
		text := strings.TrimSpace(card.Find(sel).First().Text())
		if text != "" {
			return text
		}
	}
	return ""
}

func cleanText(text string) string {
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(text, " "))
}

// ParsePrice strips currency symbols and thousand separators and parses
// the remaining decimal. Returns 0 when no number is present.
func ParsePrice(text string) float64 {
	if text == "" {
		return 0
	}
	for _, sym := range []string{"S$", "SGD", "$", "₱", "₹", "฿", "RM"} {
		text = strings.ReplaceAll(text, sym, "")
	}
	match := numberRe.FindString(text)
	if match == "" {
		return 0
	}
	match = strings.ReplaceAll(match, ",", "")
	val, err := strconv.ParseFloat(match, 64)
	if err != nil {
		return 0
	}
	return val
}

// ParseReviewCount parses plain counts ("1,234") and abbreviated ones
// ("1.2k"). The field is informational only, so failure yields 0.
func ParseReviewCount(text string) int {
	if text == "" {
		return 0
	}
	text = strings.Trim(text, "() ")
	if m := abbrevRe.FindStringSubmatch(text); m != nil {
		val, err := strconv.ParseFloat(m[1], 64)
		if err == nil {
			return int(val * 1000)
		}
	}
	match := numberRe.FindString(text)
	if match == "" {
		return 0
	}
	match = strings.ReplaceAll(match, ",", "")
	// "4.5" here is a star rating leaking into the review slot, not a count.
	if strings.Contains(match, ".") {
		return 0
	}
	n, err := strconv.Atoi(match)
	if err != nil || n < 0 {
		return 0
	}
	return n
}
