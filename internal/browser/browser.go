package browser

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/playwright-community/playwright-go"

	"github.com/maltedev/lazada-scraper/internal/ratelimit"
)

// NavigationError wraps a page that failed to load or render in time.
// It is retryable at the page level.
type NavigationError struct {
	URL string
	Err error
}

func (e *NavigationError) Error() string {
	return fmt.Sprintf("navigation to %s failed: %v", e.URL, e.Err)
}

func (e *NavigationError) Unwrap() error { return e.Err }

// webdriver flag is the first thing Lazada's bot check inspects.
const stealthScript = `Object.defineProperty(navigator, 'webdriver', { get: () => undefined });`

type Options struct {
	Headless       bool
	Timeout        time.Duration
	UserAgents     []string
	ViewportWidth  int
	ViewportHeight int
	AcceptLanguage string
	TimezoneID     string
	Locale         string
	ProxyServer    string
	DelayMin       time.Duration
	DelayMax       time.Duration
}

func DefaultOptions() *Options {
	return &Options{
		Headless:       true,
		Timeout:        45 * time.Second,
		ViewportWidth:  1920,
		ViewportHeight: 1080,
		AcceptLanguage: "en-SG,en;q=0.9",
		TimezoneID:     "Asia/Singapore",
		Locale:         "en-SG",
		DelayMin:       2 * time.Second,
		DelayMax:       5 * time.Second,
		UserAgents: []string{
			"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
			"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/119.0.0.0 Safari/537.36",
			"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
			"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.1 Safari/605.1.15",
			"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
		},
	}
}

// Session owns one browser context and one page for the lifetime of a
// run. Navigation state (cookies, history) is shared across calls, so
// callers must not assume isolation between Open calls.
type Session struct {
	pw         *playwright.Playwright
	browser    playwright.Browser
	context    playwright.BrowserContext
	page       playwright.Page
	limiter    ratelimit.Limiter
	userAgents []string
	timeout    time.Duration
	logger     *slog.Logger
}

// New launches the browser and prepares a single page. A failure here is
// fatal to the run (session failure), unlike per-page navigation errors.
func New(opts *Options) (*Session, error) {
	if opts == nil {
		opts = DefaultOptions()
	}

	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("failed to start playwright: %w", err)
	}

	launchOpts := playwright.BrowserTypeLaunchOptions{
		Headless: &opts.Headless,
		Args: []string{
			"--disable-blink-features=AutomationControlled",
			"--disable-dev-shm-usage",
			"--no-sandbox",
			"--disable-setuid-sandbox",
			"--window-size=1920,1080",
		},
	}
	if opts.ProxyServer != "" {
		launchOpts.Proxy = &playwright.Proxy{Server: opts.ProxyServer}
	}

	browser, err := pw.Chromium.Launch(launchOpts)
	if err != nil {
		pw.Stop()
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	ua := opts.UserAgents[rand.Intn(len(opts.UserAgents))]
	ctx, err := browser.NewContext(playwright.BrowserNewContextOptions{
		UserAgent:         &ua,
		AcceptDownloads:   playwright.Bool(false),
		JavaScriptEnabled: playwright.Bool(true),
		Locale:            &opts.Locale,
		TimezoneId:        &opts.TimezoneID,
		Viewport: &playwright.Size{
			Width:  opts.ViewportWidth,
			Height: opts.ViewportHeight,
		},
		ExtraHttpHeaders: map[string]string{
			"Accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8",
			"Accept-Language": opts.AcceptLanguage,
			"DNT":             "1",
		},
	})
	if err != nil {
		browser.Close()
		pw.Stop()
		return nil, fmt.Errorf("failed to create browser context: %w", err)
	}

	if err := ctx.AddInitScript(playwright.Script{Content: playwright.String(stealthScript)}); err != nil {
		ctx.Close()
		browser.Close()
		pw.Stop()
		return nil, fmt.Errorf("failed to add init script: %w", err)
	}

	page, err := ctx.NewPage()
	if err != nil {
		ctx.Close()
		browser.Close()
		pw.Stop()
		return nil, fmt.Errorf("failed to create page: %w", err)
	}
	page.SetDefaultTimeout(float64(opts.Timeout.Milliseconds()))

	return &Session{
		pw:         pw,
		browser:    browser,
		context:    ctx,
		page:       page,
		limiter:    ratelimit.NewJitterLimiter(opts.DelayMin, opts.DelayMax),
		userAgents: opts.UserAgents,
		timeout:    opts.Timeout,
		logger:     slog.Default().With("component", "browser"),
	}, nil
}

// Open navigates to the target URL and returns the rendered HTML once
// the page's dynamic content has settled. A load or render timeout comes
// back as a NavigationError.
func (s *Session) Open(ctx context.Context, target string) (string, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return "", err
	}

	s.rotateIdentity()

	s.logger.Info("navigating", "url", target)
	_, err := s.page.Goto(target, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
		Timeout:   playwright.Float(float64(s.timeout.Milliseconds())),
	})
	if err != nil {
		return "", &NavigationError{URL: target, Err: err}
	}

	s.dismissPopups()

	// Lazada hydrates the product grid after the document loads; wait for
	// the network to go quiet before snapshotting.
	if err := s.page.WaitForLoadState(playwright.PageWaitForLoadStateOptions{
		State:   playwright.LoadStateNetworkidle,
		Timeout: playwright.Float(float64(s.timeout.Milliseconds())),
	}); err != nil {
		s.logger.Warn("page did not reach network idle", "url", target, "error", err)
	}

	content, err := s.page.Content()
	if err != nil {
		return "", &NavigationError{URL: target, Err: err}
	}
	return content, nil
}

// rotateIdentity picks a fresh user-agent header set for the next
// navigation. Uniform random choice; repeats are fine.
func (s *Session) rotateIdentity() {
	ua := s.userAgents[rand.Intn(len(s.userAgents))]
	if err := s.page.SetExtraHTTPHeaders(map[string]string{
		"User-Agent": ua,
	}); err != nil {
		s.logger.Warn("failed to rotate user agent", "error", err)
	}
}

func (s *Session) dismissPopups() {
	selectors := []string{
		`[data-qa-locator="cookie-accept"]`,
		`.mui-dialog-close`,
		`.close-btn`,
		`[data-qa-locator="popup-close"]`,
	}
	for _, sel := range selectors {
		loc := s.page.Locator(sel).First()
		if count, err := loc.Count(); err != nil || count == 0 {
			continue
		}
		if err := loc.Click(playwright.LocatorClickOptions{
			Timeout: playwright.Float(2000),
		}); err != nil {
			s.logger.Debug("popup dismiss failed", "selector", sel, "error", err)
			continue
		}
		s.logger.Debug("dismissed popup", "selector", sel)
	}
}

// Close releases the page, context, browser and driver. Safe to call on
// every exit path.
func (s *Session) Close() error {
	var errs []error

	if s.page != nil {
		if err := s.page.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close page: %w", err))
		}
	}
	if s.context != nil {
		if err := s.context.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close context: %w", err))
		}
	}
	if s.browser != nil {
		if err := s.browser.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close browser: %w", err))
		}
	}
	if s.pw != nil {
		if err := s.pw.Stop(); err != nil {
			errs = append(errs, fmt.Errorf("failed to stop playwright: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("errors during close: %v", errs)
	}
	return nil
}
