package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

const BaseURL = "https://www.lazada.sg"

type Config struct {
	Server   ServerConfig
	Scraper  ScraperConfig
	Browser  BrowserConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Logging  LoggingConfig
}

type ServerConfig struct {
	Port            int
	ShutdownTimeout time.Duration
}

type ScraperConfig struct {
	DelayMin          time.Duration
	DelayMax          time.Duration
	MaxRetries        int
	RetryBaseDelay    time.Duration
	MaxPages          int
	ConsecutiveSkips  int
	UserAgents        []string
}

type BrowserConfig struct {
	Headless       bool
	Timeout        time.Duration
	ViewportWidth  int
	ViewportHeight int
	AcceptLanguage string
	TimezoneID     string
	Locale         string
	ProxyServer    string
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	MaxConns int32
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Stream   string
}

type LoggingConfig struct {
	Level  string
	Format string
}

func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port:            getIntOrDefault("SERVER_PORT", 8086),
			ShutdownTimeout: getDurationOrDefault("SERVER_SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Scraper: ScraperConfig{
			DelayMin:         getDurationOrDefault("SCRAPER_DELAY_MIN", 2*time.Second),
			DelayMax:         getDurationOrDefault("SCRAPER_DELAY_MAX", 5*time.Second),
			MaxRetries:       getIntOrDefault("SCRAPER_MAX_RETRIES", 3),
			RetryBaseDelay:   getDurationOrDefault("SCRAPER_RETRY_BASE_DELAY", 3*time.Second),
			MaxPages:         getIntOrDefault("SCRAPER_MAX_PAGES", 10),
			ConsecutiveSkips: getIntOrDefault("SCRAPER_CONSECUTIVE_SKIPS", 2),
			UserAgents:       getStringSliceOrDefault("SCRAPER_USER_AGENTS", nil),
		},
		Browser: BrowserConfig{
			Headless:       getBoolOrDefault("BROWSER_HEADLESS", true),
			Timeout:        getDurationOrDefault("BROWSER_TIMEOUT", 45*time.Second),
			ViewportWidth:  getIntOrDefault("BROWSER_VIEWPORT_WIDTH", 1920),
			ViewportHeight: getIntOrDefault("BROWSER_VIEWPORT_HEIGHT", 1080),
			AcceptLanguage: getEnvOrDefault("BROWSER_ACCEPT_LANGUAGE", "en-SG,en;q=0.9"),
			TimezoneID:     getEnvOrDefault("BROWSER_TIMEZONE", "Asia/Singapore"),
			Locale:         getEnvOrDefault("BROWSER_LOCALE", "en-SG"),
			ProxyServer:    getEnvOrDefault("BROWSER_PROXY", ""),
		},
		Database: DatabaseConfig{
			Host:     getEnvOrDefault("DB_HOST", "localhost"),
			Port:     getIntOrDefault("DB_PORT", 5432),
			User:     getEnvOrDefault("DB_USER", "postgres"),
			Password: getEnvOrDefault("DB_PASSWORD", ""),
			Name:     getEnvOrDefault("DB_NAME", "lazada_scraper"),
			MaxConns: int32(getIntOrDefault("DB_MAX_CONNS", 10)),
		},
		Redis: RedisConfig{
			Addr:     getEnvOrDefault("REDIS_ADDR", "localhost:6379"),
			Password: getEnvOrDefault("REDIS_PASSWORD", ""),
			DB:       getIntOrDefault("REDIS_DB", 0),
			Stream:   getEnvOrDefault("REDIS_STREAM", "stream:scrape_events"),
		},
		Logging: LoggingConfig{
			Level:  getEnvOrDefault("LOG_LEVEL", "info"),
			Format: getEnvOrDefault("LOG_FORMAT", "json"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Scraper.DelayMin > c.Scraper.DelayMax {
		return fmt.Errorf("SCRAPER_DELAY_MIN cannot be greater than SCRAPER_DELAY_MAX")
	}
	if c.Scraper.MaxRetries < 1 {
		return fmt.Errorf("SCRAPER_MAX_RETRIES must be at least 1")
	}
	if c.Scraper.ConsecutiveSkips < 1 {
		return fmt.Errorf("SCRAPER_CONSECUTIVE_SKIPS must be at least 1")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	return nil
}

// categoryURLs maps human category names to Lazada listing URLs. Queries
// that are not known categories fall through to catalog search.
var categoryURLs = map[string]string{
	"electronics":            "https://www.lazada.sg/shop-electronics/",
	"mobiles-tablets":        "https://www.lazada.sg/shop-mobiles-tablets/",
	"computers-laptops":      "https://www.lazada.sg/catalog/?q=Laptops&from=hp_categories&src=all_channel",
	"home-living":            "https://www.lazada.sg/shop-home-living/",
	"health-beauty":          "https://www.lazada.sg/shop-health-beauty/",
	"babies-toys":            "https://www.lazada.sg/catalog/?q=Toys+%26+Games&from=hp_categories&src=all_channel",
	"groceries":              "https://www.lazada.sg/tag/groceries/?q=groceries&catalog_redirect_tag=true",
	"fashion-women":          "https://www.lazada.sg/tag/women-fashion/?q=women+fashion&catalog_redirect_tag=true",
	"fashion-men":            "https://www.lazada.sg/tag/men-fashion/?q=men+fashion&catalog_redirect_tag=true",
	"watches-accessories":    "https://www.lazada.sg/tag/watch-accessories/?q=watch+accessories&catalog_redirect_tag=true",
	"home-fitness-equipment": "https://www.lazada.sg/shop-home-fitness-equipment/",
	"automotive":             "https://www.lazada.sg/shop-automotive/",
}

// ResolveListingURL returns the base listing URL for a query: a category
// URL when the query names a known category, otherwise a catalog search.
func ResolveListingURL(query string) string {
	if u, ok := categoryURLs[strings.ToLower(strings.TrimSpace(query))]; ok {
		return u
	}
	return SearchURL(query)
}

// SearchURL builds a catalog search URL for a free-text query.
func SearchURL(query string) string {
	return fmt.Sprintf("%s/catalog/?q=%s", BaseURL, url.QueryEscape(query))
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getStringSliceOrDefault(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		return strings.Split(value, ",")
	}
	return defaultValue
}
