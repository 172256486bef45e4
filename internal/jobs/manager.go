// Package jobs persists scrape jobs and runs them in the background.
// Jobs queue in postgres; a single worker drains them sequentially
// because runs share one browser session.
package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/maltedev/lazada-scraper/internal/config"
	"github.com/maltedev/lazada-scraper/internal/database"
	"github.com/maltedev/lazada-scraper/internal/events"
	"github.com/maltedev/lazada-scraper/internal/models"
	"github.com/maltedev/lazada-scraper/internal/scraper"
)

var ErrJobNotFound = errors.New("job not found")

type Manager struct {
	db        *database.DB
	engine    *scraper.Engine
	publisher *events.Publisher
	logger    *slog.Logger
}

func NewManager(db *database.DB, engine *scraper.Engine, publisher *events.Publisher, logger *slog.Logger) *Manager {
	return &Manager{
		db:        db,
		engine:    engine,
		publisher: publisher,
		logger:    logger.With("component", "job_manager"),
	}
}

// Job is a queued or finished scrape run.
type Job struct {
	ID             string     `json:"id"`
	Query          string     `json:"query"`
	BaseURL        string     `json:"base_url"`
	MaxPages       int        `json:"max_pages"`
	MinPrice       float64    `json:"min_price"`
	MaxPrice       float64    `json:"max_price"`
	IncludeWords   []string   `json:"include_words,omitempty"`
	ExcludeWords   []string   `json:"exclude_words,omitempty"`
	Status         string     `json:"status"`
	PagesAttempted int        `json:"pages_attempted"`
	PagesSucceeded int        `json:"pages_succeeded"`
	PagesSkipped   int        `json:"pages_skipped"`
	RecordsFound   int        `json:"records_found"`
	Error          string     `json:"error,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	StartedAt      *time.Time `json:"started_at,omitempty"`
	CompletedAt    *time.Time `json:"completed_at,omitempty"`
}

// CreateJobParams carries the caller-supplied job settings.
type CreateJobParams struct {
	Query    string
	BaseURL  string
	MaxPages int
	Filters  models.Filters
}

// CreateJob queues a new scrape job.
func (m *Manager) CreateJob(ctx context.Context, params CreateJobParams) (*Job, error) {
	if params.BaseURL == "" {
		params.BaseURL = config.ResolveListingURL(params.Query)
	}

	job := &Job{
		ID:           uuid.New().String(),
		Query:        params.Query,
		BaseURL:      params.BaseURL,
		MaxPages:     params.MaxPages,
		MinPrice:     params.Filters.MinPrice,
		MaxPrice:     params.Filters.MaxPrice,
		IncludeWords: params.Filters.IncludeWords,
		ExcludeWords: params.Filters.ExcludeWords,
		Status:       "pending",
		CreatedAt:    time.Now(),
	}

	query := `
		INSERT INTO scrape_jobs
		(id, query, base_url, max_pages, min_price, max_price, include_words, exclude_words, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err := m.db.Exec(ctx, query,
		job.ID, job.Query, job.BaseURL, job.MaxPages,
		job.MinPrice, job.MaxPrice,
		joinWords(job.IncludeWords), joinWords(job.ExcludeWords),
		job.Status, job.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create job: %w", err)
	}

	m.logger.Info("job created", "id", job.ID, "query", job.Query)
	return job, nil
}

// GetJob retrieves a job by ID.
func (m *Manager) GetJob(ctx context.Context, jobID string) (*Job, error) {
	query := `
		SELECT id, query, base_url, max_pages, min_price, max_price,
		       include_words, exclude_words, status,
		       pages_attempted, pages_succeeded, pages_skipped, records_found,
		       error, created_at, started_at, completed_at
		FROM scrape_jobs
		WHERE id = $1`

	job, err := scanJob(m.db.QueryRow(ctx, query, jobID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrJobNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get job: %w", err)
	}
	return job, nil
}

// ListJobs returns the most recent jobs, newest first.
func (m *Manager) ListJobs(ctx context.Context) ([]*Job, error) {
	query := `
		SELECT id, query, base_url, max_pages, min_price, max_price,
		       include_words, exclude_words, status,
		       pages_attempted, pages_succeeded, pages_skipped, records_found,
		       error, created_at, started_at, completed_at
		FROM scrape_jobs
		ORDER BY created_at DESC
		LIMIT 100`

	rows, err := m.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}
	defer rows.Close()

	var jobs []*Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			m.logger.Warn("skipping unreadable job row", "error", err)
			continue
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}

// GetJobRecords returns the products a job produced.
func (m *Manager) GetJobRecords(ctx context.Context, jobID string) ([]models.ProductRecord, error) {
	return m.db.GetJobRecords(ctx, jobID)
}

// GetStats returns aggregate job and product statistics.
func (m *Manager) GetStats(ctx context.Context) (*database.Stats, error) {
	return m.db.GetStats(ctx)
}

func (m *Manager) updateJobStatus(ctx context.Context, jobID, status string, jobErr error) error {
	var query string
	var args []interface{}

	switch {
	case status == "running":
		query = `UPDATE scrape_jobs SET status = $1, started_at = $2 WHERE id = $3`
		args = []interface{}{status, time.Now(), jobID}
	case status == "completed":
		query = `UPDATE scrape_jobs SET status = $1, completed_at = $2 WHERE id = $3`
		args = []interface{}{status, time.Now(), jobID}
	case status == "failed" && jobErr != nil:
		query = `UPDATE scrape_jobs SET status = $1, completed_at = $2, error = $3 WHERE id = $4`
		args = []interface{}{status, time.Now(), jobErr.Error(), jobID}
	default:
		query = `UPDATE scrape_jobs SET status = $1 WHERE id = $2`
		args = []interface{}{status, jobID}
	}

	_, execErr := m.db.Exec(ctx, query, args...)
	return execErr
}

func (m *Manager) updateJobProgress(ctx context.Context, jobID string, result *models.RunResult) error {
	query := `
		UPDATE scrape_jobs
		SET pages_attempted = $1, pages_succeeded = $2, pages_skipped = $3, records_found = $4
		WHERE id = $5`
	_, err := m.db.Exec(ctx, query,
		result.PagesAttempted, result.PagesSucceeded, result.PagesSkipped,
		len(result.Records), jobID)
	return err
}

func scanJob(row pgx.Row) (*Job, error) {
	job := &Job{}
	var includeWords, excludeWords, errText *string
	err := row.Scan(
		&job.ID, &job.Query, &job.BaseURL, &job.MaxPages,
		&job.MinPrice, &job.MaxPrice,
		&includeWords, &excludeWords, &job.Status,
		&job.PagesAttempted, &job.PagesSucceeded, &job.PagesSkipped, &job.RecordsFound,
		&errText, &job.CreatedAt, &job.StartedAt, &job.CompletedAt,
	)
	if err != nil {
		return nil, err
	}
	job.IncludeWords = splitWords(includeWords)
	job.ExcludeWords = splitWords(excludeWords)
	if errText != nil {
		job.Error = *errText
	}
	return job, nil
}

func joinWords(words []string) string {
	return strings.Join(words, ",")
}

func splitWords(s *string) []string {
	if s == nil || *s == "" {
		return nil
	}
	return strings.Split(*s, ",")
}
