// Package scraper drives a rendered-page session across Lazada result
// pages: fetch, extract, filter, decide whether to continue. Pages are
// strictly sequential because the single browser session's navigation
// state is not shareable across concurrent operations, and the target's
// anti-bot defenses are sensitive to request concurrency.
package scraper

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"strconv"
	"time"

	"github.com/maltedev/lazada-scraper/internal/models"
	"github.com/maltedev/lazada-scraper/internal/parser"
	"github.com/maltedev/lazada-scraper/internal/retry"
)

// Fetcher is the rendered-page source. The production implementation is
// browser.Session; tests inject a fake.
type Fetcher interface {
	Open(ctx context.Context, target string) (string, error)
}

// State of the pagination driver.
type State int

const (
	StateInit State = iota
	StateFetching
	StateExtracting
	StateDeciding
	StateDone
	StateAborted
)

func (s State) String() string {
	switch s {
	case StateInit:
		return "init"
	case StateFetching:
		return "fetching"
	case StateExtracting:
		return "extracting"
	case StateDeciding:
		return "deciding"
	case StateDone:
		return "done"
	case StateAborted:
		return "aborted"
	default:
		return "unknown"
	}
}

// outcome of a single page, consumed by the deciding step.
type outcome int

const (
	pageAccepted outcome = iota
	pageEmpty
	pageSkipped
)

type Engine struct {
	fetcher       Fetcher
	extractor     parser.Extractor
	retrier       *retry.Retrier
	skipThreshold int
	logger        *slog.Logger

	state State
}

func NewEngine(fetcher Fetcher, extractor parser.Extractor, retrier *retry.Retrier, skipThreshold int) *Engine {
	if skipThreshold < 1 {
		skipThreshold = 2
	}
	return &Engine{
		fetcher:       fetcher,
		extractor:     extractor,
		retrier:       retrier,
		skipThreshold: skipThreshold,
		state:         StateInit,
		logger:        slog.Default().With("component", "engine"),
	}
}

// State returns the driver's current state. Terminal states are
// StateDone and StateAborted.
func (e *Engine) State() State { return e.state }

// Run walks result pages starting at req until the category is
// exhausted, the page limit is hit, or too many consecutive pages fail.
// Cancellation aborts the run but still returns everything accumulated
// so far; a partial result always accompanies a non-nil error.
func (e *Engine) Run(ctx context.Context, req models.PageRequest) (*models.RunResult, error) {
	result := &models.RunResult{
		Query:     req.Query,
		StartedAt: time.Now(),
	}
	seen := make(map[string]struct{})
	consecutiveSkips := 0

	if req.Page < 1 {
		req.Page = 1
	}

	for {
		if err := ctx.Err(); err != nil {
			return e.abort(result, err)
		}

		out, err := e.processPage(ctx, req, result, seen)
		if err != nil {
			return e.abort(result, err)
		}

		e.transition(StateDeciding)

		switch out {
		case pageEmpty:
			e.logger.Info("no records on fetched page, treating as end of results",
				"page", req.Page)
			return e.done(result)
		case pageSkipped:
			consecutiveSkips++
			if consecutiveSkips >= e.skipThreshold {
				e.logger.Warn("consecutive page failures reached threshold, treating query as dead",
					"skips", consecutiveSkips, "threshold", e.skipThreshold)
				return e.done(result)
			}
		case pageAccepted:
			consecutiveSkips = 0
		}

		if req.MaxPages > 0 && req.Page >= req.MaxPages {
			e.logger.Info("reached max pages", "pages", req.Page)
			return e.done(result)
		}

		req = req.Next()
	}
}

// processPage runs the fetch and extract phases for one page. A page
// whose retries are exhausted is reported as skipped, never as a run
// failure; only cancellation propagates an error.
func (e *Engine) processPage(ctx context.Context, req models.PageRequest, result *models.RunResult, seen map[string]struct{}) (outcome, error) {
	target := BuildPageURL(req)
	result.PagesAttempted++

	e.transition(StateFetching)
	var html string
	err := e.retrier.Do(ctx, "fetch", func() error {
		var fetchErr error
		html, fetchErr = e.fetcher.Open(ctx, target)
		return fetchErr
	})
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return pageSkipped, err
		}
		e.logger.Warn("page fetch exhausted retries, skipping",
			"page", req.Page, "url", target, "error", err)
		result.PagesSkipped++
		return pageSkipped, nil
	}

	e.transition(StateExtracting)
	var records []models.ProductRecord
	err = e.retrier.Do(ctx, "extract", func() error {
		var exErr error
		records, exErr = e.extractor.Extract(html, req.Query)
		return exErr
	})
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return pageSkipped, err
		}
		e.logger.Warn("page extraction exhausted retries, skipping",
			"page", req.Page, "error", err)
		result.PagesSkipped++
		return pageSkipped, nil
	}

	result.PagesSucceeded++
	if len(records) == 0 {
		return pageEmpty, nil
	}

	accepted := Apply(records, req.Filters, seen)
	result.Records = append(result.Records, accepted...)
	e.logger.Info("page processed",
		"page", req.Page, "extracted", len(records), "accepted", len(accepted))

	return pageAccepted, nil
}

func (e *Engine) transition(next State) {
	e.logger.Debug("state transition", "from", e.state.String(), "to", next.String())
	e.state = next
}

func (e *Engine) done(result *models.RunResult) (*models.RunResult, error) {
	e.transition(StateDone)
	result.FinishedAt = time.Now()
	return result, nil
}

func (e *Engine) abort(result *models.RunResult, err error) (*models.RunResult, error) {
	e.transition(StateAborted)
	result.Aborted = true
	result.FinishedAt = time.Now()
	return result, err
}

// BuildPageURL renders the request as a concrete page URL by setting the
// page query parameter on the base listing URL.
func BuildPageURL(req models.PageRequest) string {
	u, err := url.Parse(req.BaseURL)
	if err != nil {
		return req.BaseURL
	}
	q := u.Query()
	q.Set("page", strconv.Itoa(req.Page))
	u.RawQuery = q.Encode()
	return u.String()
}
