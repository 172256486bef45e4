package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maltedev/lazada-scraper/internal/models"
)

type fakeRedis struct {
	args []*redis.XAddArgs
	err  error
}

func (f *fakeRedis) XAdd(ctx context.Context, args *redis.XAddArgs) *redis.StringCmd {
	f.args = append(f.args, args)
	if f.err != nil {
		return redis.NewStringResult("", f.err)
	}
	return redis.NewStringResult("1-0", nil)
}

func TestPublishRunResult(t *testing.T) {
	client := &fakeRedis{}
	pub := NewPublisher(client, "stream:scrape_events")

	result := &models.RunResult{
		Query:          "mouse",
		Records:        []models.ProductRecord{{ProductName: "a"}, {ProductName: "b"}},
		PagesAttempted: 3,
		PagesSucceeded: 2,
		PagesSkipped:   1,
	}

	require.NoError(t, pub.PublishRunResult(context.Background(), "job-1", result))
	require.Len(t, client.args, 1)

	args := client.args[0]
	assert.Equal(t, "stream:scrape_events", args.Stream)

	values, ok := args.Values.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, string(EventTypeRunCompleted), values["event_type"])
	assert.NotEmpty(t, values["event_id"])

	var payload RunEventPayload
	require.NoError(t, json.Unmarshal([]byte(values["data"].(string)), &payload))
	assert.Equal(t, "job-1", payload.JobID)
	assert.Equal(t, "mouse", payload.Query)
	assert.Equal(t, 2, payload.RecordsFound)
	assert.Equal(t, 3, payload.PagesAttempted)
	assert.Equal(t, "lazada-scraper", payload.Source)
}

func TestPublishRunResultAborted(t *testing.T) {
	client := &fakeRedis{}
	pub := NewPublisher(client, "s")

	result := &models.RunResult{Query: "mouse", Aborted: true}
	require.NoError(t, pub.PublishRunResult(context.Background(), "job-2", result))

	values := client.args[0].Values.(map[string]interface{})
	assert.Equal(t, string(EventTypeRunAborted), values["event_type"])
}

func TestPublishProductDetected(t *testing.T) {
	client := &fakeRedis{}
	pub := NewPublisher(client, "s")

	rec := models.ProductRecord{
		ProductName: "Wireless Mouse",
		Price:       19.9,
		ProductURL:  "https://www.lazada.sg/products/mouse-i1.html",
	}
	require.NoError(t, pub.PublishProductDetected(context.Background(), "job-1", rec))
	require.Len(t, client.args, 1)

	values := client.args[0].Values.(map[string]interface{})
	assert.Equal(t, string(EventTypeProductDetected), values["event_type"])

	var payload ProductEventPayload
	require.NoError(t, json.Unmarshal([]byte(values["data"].(string)), &payload))
	assert.Equal(t, "Wireless Mouse", payload.Product.ProductName)
	assert.Equal(t, "job-1", payload.JobID)
}

func TestPublishRunResultRedisFailure(t *testing.T) {
	client := &fakeRedis{err: errors.New("connection refused")}
	pub := NewPublisher(client, "s")

	err := pub.PublishRunResult(context.Background(), "job-3", &models.RunResult{Query: "mouse"})
	assert.Error(t, err)
}
