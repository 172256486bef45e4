package database

import (
	"context"
	"fmt"

	"github.com/maltedev/lazada-scraper/internal/models"
)

// SaveRecords upserts a run's accepted records, keyed by product URL.
// A URL seen by a later job refreshes the stored listing.
func (db *DB) SaveRecords(ctx context.Context, jobID string, records []models.ProductRecord) error {
	query := `
		INSERT INTO products (
			product_url, product_name, price, original_price,
			discount_percentage, review_count, discount_tag_line,
			location, quantity_sold, category, scraped_at, job_id
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (product_url) DO UPDATE SET
			product_name = EXCLUDED.product_name,
			price = EXCLUDED.price,
			original_price = EXCLUDED.original_price,
			discount_percentage = EXCLUDED.discount_percentage,
			review_count = EXCLUDED.review_count,
			discount_tag_line = EXCLUDED.discount_tag_line,
			location = EXCLUDED.location,
			quantity_sold = EXCLUDED.quantity_sold,
			category = EXCLUDED.category,
			scraped_at = EXCLUDED.scraped_at,
			job_id = EXCLUDED.job_id,
			updated_at = NOW()`

	for _, rec := range records {
		_, err := db.pool.Exec(ctx, query,
			rec.ProductURL, rec.ProductName, rec.Price, rec.OriginalPrice,
			rec.DiscountPercentage, rec.ReviewCount, rec.DiscountTagLine,
			rec.Location, rec.QuantitySold, rec.Category, rec.ScrapedAt, jobID,
		)
		if err != nil {
			return fmt.Errorf("failed to insert product %s: %w", rec.ProductURL, err)
		}
	}
	return nil
}

// GetJobRecords returns the records a job produced, in insertion order.
func (db *DB) GetJobRecords(ctx context.Context, jobID string) ([]models.ProductRecord, error) {
	query := `
		SELECT product_url, product_name, price, original_price,
		       discount_percentage, review_count, discount_tag_line,
		       location, quantity_sold, category, scraped_at
		FROM products
		WHERE job_id = $1
		ORDER BY created_at`

	rows, err := db.pool.Query(ctx, query, jobID)
	if err != nil {
		return nil, fmt.Errorf("failed to query job records: %w", err)
	}
	defer rows.Close()

	var records []models.ProductRecord
	for rows.Next() {
		var rec models.ProductRecord
		var tagLine, location, quantitySold, category *string
		err := rows.Scan(
			&rec.ProductURL, &rec.ProductName, &rec.Price, &rec.OriginalPrice,
			&rec.DiscountPercentage, &rec.ReviewCount, &tagLine,
			&location, &quantitySold, &category, &rec.ScrapedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}
		rec.DiscountTagLine = deref(tagLine)
		rec.Location = deref(location)
		rec.QuantitySold = deref(quantitySold)
		rec.Category = deref(category)
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Stats summarizes stored jobs and products for the stats endpoint.
type Stats struct {
	TotalJobs     int     `json:"total_jobs"`
	PendingJobs   int     `json:"pending_jobs"`
	RunningJobs   int     `json:"running_jobs"`
	CompletedJobs int     `json:"completed_jobs"`
	FailedJobs    int     `json:"failed_jobs"`
	TotalProducts int     `json:"total_products"`
	AveragePrice  float64 `json:"average_price"`
	SuccessRate   float64 `json:"success_rate"`
}

func (db *DB) GetStats(ctx context.Context) (*Stats, error) {
	stats := &Stats{}

	jobQuery := `
		SELECT
			COUNT(*),
			COUNT(CASE WHEN status = 'pending' THEN 1 END),
			COUNT(CASE WHEN status = 'running' THEN 1 END),
			COUNT(CASE WHEN status = 'completed' THEN 1 END),
			COUNT(CASE WHEN status = 'failed' THEN 1 END)
		FROM scrape_jobs`

	err := db.pool.QueryRow(ctx, jobQuery).Scan(
		&stats.TotalJobs, &stats.PendingJobs, &stats.RunningJobs,
		&stats.CompletedJobs, &stats.FailedJobs,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get job stats: %w", err)
	}

	if stats.TotalJobs > 0 {
		stats.SuccessRate = float64(stats.CompletedJobs) / float64(stats.TotalJobs) * 100
	}

	productQuery := `SELECT COUNT(*), COALESCE(AVG(price), 0) FROM products`
	if err := db.pool.QueryRow(ctx, productQuery).Scan(&stats.TotalProducts, &stats.AveragePrice); err != nil {
		return nil, fmt.Errorf("failed to get product stats: %w", err)
	}

	return stats, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
