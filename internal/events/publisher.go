// Package events publishes run lifecycle events to a Redis stream so
// downstream analysis tooling can react without polling the database.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/maltedev/lazada-scraper/internal/models"
)

type EventType string

const (
	EventTypeRunCompleted    EventType = "RUN_COMPLETED"
	EventTypeRunAborted      EventType = "RUN_ABORTED"
	EventTypeProductDetected EventType = "PRODUCT_DETECTED"
)

// RunEventPayload is the body of a run lifecycle event.
type RunEventPayload struct {
	EventID        string    `json:"event_id"`
	EventType      string    `json:"event_type"`
	Timestamp      time.Time `json:"timestamp"`
	JobID          string    `json:"job_id,omitempty"`
	Query          string    `json:"query"`
	RecordsFound   int       `json:"records_found"`
	PagesAttempted int       `json:"pages_attempted"`
	PagesSucceeded int       `json:"pages_succeeded"`
	PagesSkipped   int       `json:"pages_skipped"`
	Source         string    `json:"source"`
}

// RedisClient is the subset of the redis client the publisher needs.
type RedisClient interface {
	XAdd(ctx context.Context, args *redis.XAddArgs) *redis.StringCmd
}

type Publisher struct {
	client RedisClient
	stream string
	logger *slog.Logger
}

func NewPublisher(client RedisClient, stream string) *Publisher {
	return &Publisher{
		client: client,
		stream: stream,
		logger: slog.Default().With("component", "event_publisher"),
	}
}

// PublishRunResult emits a RUN_COMPLETED (or RUN_ABORTED) event for a
// finished run. Publishing is best-effort relative to the run itself;
// callers log failures rather than failing the run.
func (p *Publisher) PublishRunResult(ctx context.Context, jobID string, result *models.RunResult) error {
	eventType := EventTypeRunCompleted
	if result.Aborted {
		eventType = EventTypeRunAborted
	}

	payload := RunEventPayload{
		EventID:        uuid.New().String(),
		EventType:      string(eventType),
		Timestamp:      time.Now(),
		JobID:          jobID,
		Query:          result.Query,
		RecordsFound:   len(result.Records),
		PagesAttempted: result.PagesAttempted,
		PagesSucceeded: result.PagesSucceeded,
		PagesSkipped:   result.PagesSkipped,
		Source:         "lazada-scraper",
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	args := &redis.XAddArgs{
		Stream: p.stream,
		Values: map[string]interface{}{
			"data":       string(data),
			"event_type": payload.EventType,
			"event_id":   payload.EventID,
			"timestamp":  fmt.Sprintf("%d", payload.Timestamp.UnixNano()),
		},
	}

	if _, err := p.client.XAdd(ctx, args).Result(); err != nil {
		return fmt.Errorf("failed to publish to redis: %w", err)
	}

	p.logger.Info("run event published",
		"type", payload.EventType,
		"event_id", payload.EventID,
		"query", payload.Query,
		"records", payload.RecordsFound,
	)
	return nil
}

// ProductEventPayload is the body of a per-product event.
type ProductEventPayload struct {
	EventID   string               `json:"event_id"`
	EventType string               `json:"event_type"`
	Timestamp time.Time            `json:"timestamp"`
	JobID     string               `json:"job_id,omitempty"`
	Product   models.ProductRecord `json:"product"`
	Source    string               `json:"source"`
}

// PublishProductDetected emits one event per accepted product record.
func (p *Publisher) PublishProductDetected(ctx context.Context, jobID string, rec models.ProductRecord) error {
	payload := ProductEventPayload{
		EventID:   uuid.New().String(),
		EventType: string(EventTypeProductDetected),
		Timestamp: time.Now(),
		JobID:     jobID,
		Product:   rec,
		Source:    "lazada-scraper",
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	args := &redis.XAddArgs{
		Stream: p.stream,
		Values: map[string]interface{}{
			"data":       string(data),
			"event_type": payload.EventType,
			"event_id":   payload.EventID,
			"timestamp":  fmt.Sprintf("%d", payload.Timestamp.UnixNano()),
		},
	}

	if _, err := p.client.XAdd(ctx, args).Result(); err != nil {
		return fmt.Errorf("failed to publish to redis: %w", err)
	}

	p.logger.Debug("product event published",
		"event_id", payload.EventID, "product_url", rec.ProductURL)
	return nil
}
