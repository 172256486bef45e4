package jobs

import (
	"context"
	"time"

	"github.com/maltedev/lazada-scraper/internal/models"
)

const pollInterval = 10 * time.Second

// StartWorker polls for pending jobs until ctx is cancelled. Blocks;
// run it in its own goroutine.
func (m *Manager) StartWorker(ctx context.Context) {
	m.logger.Info("job worker started", "poll_interval", pollInterval.String())

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			m.logger.Info("job worker stopping")
			return
		case <-ticker.C:
			m.processNextJob(ctx)
		}
	}
}

// processNextJob claims and runs the oldest pending job, if any.
func (m *Manager) processNextJob(ctx context.Context) {
	query := `
		SELECT id, query, base_url, max_pages, min_price, max_price,
		       include_words, exclude_words
		FROM scrape_jobs
		WHERE status = 'pending'
		ORDER BY created_at
		LIMIT 1
		FOR UPDATE SKIP LOCKED`

	var jobID, searchQuery, baseURL string
	var maxPages int
	var minPrice, maxPrice float64
	var includeWords, excludeWords *string

	err := m.db.QueryRow(ctx, query).Scan(
		&jobID, &searchQuery, &baseURL, &maxPages,
		&minPrice, &maxPrice, &includeWords, &excludeWords,
	)
	if err != nil {
		// No pending jobs.
		return
	}

	m.logger.Info("processing job", "id", jobID, "query", searchQuery)

	if err := m.updateJobStatus(ctx, jobID, "running", nil); err != nil {
		m.logger.Error("failed to update job status", "error", err)
		return
	}

	req := models.PageRequest{
		Query:    searchQuery,
		BaseURL:  baseURL,
		Page:     1,
		MaxPages: maxPages,
		Filters: models.Filters{
			MinPrice:     minPrice,
			MaxPrice:     maxPrice,
			IncludeWords: splitWords(includeWords),
			ExcludeWords: splitWords(excludeWords),
		},
	}

	if err := m.processJob(ctx, jobID, req); err != nil {
		m.logger.Error("job failed", "id", jobID, "error", err)
		m.updateJobStatus(ctx, jobID, "failed", err)
		return
	}

	if err := m.updateJobStatus(ctx, jobID, "completed", nil); err != nil {
		m.logger.Error("failed to mark job as completed", "error", err)
	}
	m.logger.Info("job completed", "id", jobID)
}

// processJob runs the pagination engine for a claimed job and persists
// whatever the run produced, even when the run aborted partway.
func (m *Manager) processJob(ctx context.Context, jobID string, req models.PageRequest) error {
	result, runErr := m.engine.Run(ctx, req)

	if result != nil {
		if err := m.db.SaveRecords(ctx, jobID, result.Records); err != nil {
			m.logger.Error("failed to save records", "job", jobID, "error", err)
		}
		if err := m.updateJobProgress(ctx, jobID, result); err != nil {
			m.logger.Error("failed to update progress", "job", jobID, "error", err)
		}
		for _, rec := range result.Records {
			if err := m.publisher.PublishProductDetected(ctx, jobID, rec); err != nil {
				m.logger.Error("failed to publish product event",
					"job", jobID, "product_url", rec.ProductURL, "error", err)
			}
		}
		if err := m.publisher.PublishRunResult(ctx, jobID, result); err != nil {
			m.logger.Error("failed to publish run event", "job", jobID, "error", err)
		}
	}

	if runErr != nil {
		return runErr
	}

	m.logger.Info("job processing complete",
		"job", jobID,
		"records", len(result.Records),
		"pages_attempted", result.PagesAttempted,
		"pages_skipped", result.PagesSkipped,
	)
	return nil
}
