package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/maltedev/lazada-scraper/internal/browser"
	"github.com/maltedev/lazada-scraper/internal/config"
	"github.com/maltedev/lazada-scraper/internal/export"
	"github.com/maltedev/lazada-scraper/internal/models"
	"github.com/maltedev/lazada-scraper/internal/parser"
	"github.com/maltedev/lazada-scraper/internal/retry"
	"github.com/maltedev/lazada-scraper/internal/scraper"
)

func main() {
	var (
		query        = flag.String("query", "", "search query or category name (required)")
		listingURL   = flag.String("url", "", "explicit listing URL, overrides query resolution")
		pages        = flag.Int("pages", 0, "max pages to scrape, 0 uses the configured default")
		minPrice     = flag.Float64("min-price", 0, "minimum price filter (inclusive)")
		maxPrice     = flag.Float64("max-price", 0, "maximum price filter (inclusive), 0 means unbounded")
		includeWords = flag.String("include-words", "", "comma-separated words the product name must contain")
		excludeWords = flag.String("exclude-words", "", "comma-separated words that reject a product")
		outputDir    = flag.String("output-dir", "output", "directory for the CSV export")
		headless     = flag.Bool("headless", true, "run the browser headless")
		logLevel     = flag.String("log-level", "", "log level: debug, info, warn, error")
	)
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if *logLevel != "" {
		cfg.Logging.Level = *logLevel
	}

	logger := newLogger(cfg.Logging)
	slog.SetDefault(logger)

	if *query == "" && *listingURL == "" {
		logger.Error("either -query or -url is required")
		flag.Usage()
		os.Exit(2)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		logger.Info("interrupt received, finishing current page")
		cancel()
	}()

	opts := browser.DefaultOptions()
	opts.Headless = *headless
	opts.Timeout = cfg.Browser.Timeout
	opts.Locale = cfg.Browser.Locale
	opts.TimezoneID = cfg.Browser.TimezoneID
	opts.AcceptLanguage = cfg.Browser.AcceptLanguage
	opts.ProxyServer = cfg.Browser.ProxyServer
	opts.DelayMin = cfg.Scraper.DelayMin
	opts.DelayMax = cfg.Scraper.DelayMax
	if len(cfg.Scraper.UserAgents) > 0 {
		opts.UserAgents = cfg.Scraper.UserAgents
	}

	session, err := browser.New(opts)
	if err != nil {
		logger.Error("failed to start browser session", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := session.Close(); err != nil {
			logger.Warn("browser session close", "error", err)
		}
	}()

	baseURL := *listingURL
	if baseURL == "" {
		baseURL = config.ResolveListingURL(*query)
	}
	maxPages := *pages
	if maxPages <= 0 {
		maxPages = cfg.Scraper.MaxPages
	}

	req := models.PageRequest{
		Query:    *query,
		BaseURL:  baseURL,
		Page:     1,
		MaxPages: maxPages,
		Filters: models.Filters{
			MinPrice:     *minPrice,
			MaxPrice:     *maxPrice,
			IncludeWords: splitFlag(*includeWords),
			ExcludeWords: splitFlag(*excludeWords),
		},
	}

	engine := scraper.NewEngine(
		session,
		parser.NewLazadaParser(config.BaseURL),
		retry.New(cfg.Scraper.MaxRetries, cfg.Scraper.RetryBaseDelay),
		cfg.Scraper.ConsecutiveSkips,
	)

	logger.Info("run starting",
		"query", req.Query, "url", req.BaseURL, "max_pages", req.MaxPages)

	result, runErr := engine.Run(ctx, req)
	if runErr != nil {
		logger.Warn("run aborted, keeping partial results", "error", runErr)
	}

	if len(result.Records) > 0 {
		path := filepath.Join(*outputDir, export.Filename(req.Query))
		if err := export.WriteCSV(result.Records, path); err != nil {
			logger.Error("failed to write csv", "path", path, "error", err)
			os.Exit(1)
		}
		logger.Info("csv written", "path", path, "records", len(result.Records))
	} else {
		logger.Info("no records to export")
	}

	logger.Info("run finished",
		"records", len(result.Records),
		"pages_attempted", result.PagesAttempted,
		"pages_succeeded", result.PagesSucceeded,
		"pages_skipped", result.PagesSkipped,
		"aborted", result.Aborted,
		"duration", result.FinishedAt.Sub(result.StartedAt).Round(time.Millisecond).String(),
	)

	if runErr != nil {
		os.Exit(1)
	}
}

func newLogger(cfg config.LoggingConfig) *slog.Logger {
	var level slog.Level
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	if cfg.Format == "text" {
		return slog.New(slog.NewTextHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, opts))
}

func splitFlag(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	var words []string
	for _, p := range parts {
		if w := strings.TrimSpace(p); w != "" {
			words = append(words, w)
		}
	}
	return words
}
