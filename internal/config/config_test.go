package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8086, cfg.Server.Port)
	assert.Equal(t, 2*time.Second, cfg.Scraper.DelayMin)
	assert.Equal(t, 5*time.Second, cfg.Scraper.DelayMax)
	assert.Equal(t, 3, cfg.Scraper.MaxRetries)
	assert.Equal(t, 10, cfg.Scraper.MaxPages)
	assert.Equal(t, 2, cfg.Scraper.ConsecutiveSkips)
	assert.True(t, cfg.Browser.Headless)
	assert.Equal(t, "Asia/Singapore", cfg.Browser.TimezoneID)
	assert.Equal(t, "stream:scrape_events", cfg.Redis.Stream)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("SCRAPER_MAX_PAGES", "25")
	t.Setenv("SCRAPER_RETRY_BASE_DELAY", "500ms")
	t.Setenv("BROWSER_HEADLESS", "false")
	t.Setenv("SCRAPER_USER_AGENTS", "agent-one,agent-two")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 25, cfg.Scraper.MaxPages)
	assert.Equal(t, 500*time.Millisecond, cfg.Scraper.RetryBaseDelay)
	assert.False(t, cfg.Browser.Headless)
	assert.Equal(t, []string{"agent-one", "agent-two"}, cfg.Scraper.UserAgents)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{
			name: "delay min above max",
			mutate: func(c *Config) {
				c.Scraper.DelayMin = 10 * time.Second
				c.Scraper.DelayMax = time.Second
			},
		},
		{
			name:   "zero retries",
			mutate: func(c *Config) { c.Scraper.MaxRetries = 0 },
		},
		{
			name:   "zero skip threshold",
			mutate: func(c *Config) { c.Scraper.ConsecutiveSkips = 0 },
		},
		{
			name:   "invalid port",
			mutate: func(c *Config) { c.Server.Port = 70000 },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load()
			require.NoError(t, err)
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestResolveListingURL(t *testing.T) {
	tests := []struct {
		name     string
		query    string
		expected string
	}{
		{
			name:     "known category",
			query:    "electronics",
			expected: "https://www.lazada.sg/shop-electronics/",
		},
		{
			name:     "category is case insensitive",
			query:    "  Electronics ",
			expected: "https://www.lazada.sg/shop-electronics/",
		},
		{
			name:     "free text falls through to search",
			query:    "wireless mouse",
			expected: "https://www.lazada.sg/catalog/?q=wireless+mouse",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ResolveListingURL(tt.query))
		})
	}
}
