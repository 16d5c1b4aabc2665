package app

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Config holds runtime configuration for the application.
type Config struct {
	// Listener
	Host            string
	Port            int
	AllowOrigin     string
	TrustProxy      bool
	ShutdownTimeout time.Duration

	// Response cache
	CacheTTL        time.Duration
	CacheMaxEntries int

	// Client rate limit
	RateLimitWindow time.Duration
	RateLimitMax    int

	// Search pipeline
	Providers          []string
	ProviderTimeout    time.Duration
	ProviderRPS        float64
	UserAgent          string
	DomainAllowlist    []string
	DomainDenylist     []string
	PlaceholderOnEmpty bool
	DedupeResults      bool

	// Provider credentials and endpoints
	WikipediaLang    string
	GoogleCSEKey     string
	GoogleCSECX      string
	BingAPIKey       string
	BingMarket       string
	BraveAPIKey      string
	DuckDuckGoRegion string
	SearxURL         string
	SearxKey         string
	SearchFile       string

	// Behavior
	MetricsEnabled bool
	LogFormat      string
	Verbose        bool
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() Config {
	return Config{
		Port:               8080,
		AllowOrigin:        "http://localhost:5500",
		ShutdownTimeout:    10 * time.Second,
		CacheTTL:           600 * time.Second,
		CacheMaxEntries:    500,
		RateLimitWindow:    60 * time.Second,
		RateLimitMax:       60,
		Providers:          []string{"wikipedia", "cse", "bing"},
		ProviderTimeout:    8 * time.Second,
		UserAgent:          "studyhub-search/" + BuildVersion + " (+https://github.com/MikePiotrowski/CCNA-Study-Hub)",
		PlaceholderOnEmpty: true,
		WikipediaLang:      "en",
		MetricsEnabled:     true,
		LogFormat:          "console",
	}
}

// Addr returns the listen address.
func (c Config) Addr() string {
	return c.Host + ":" + strconv.Itoa(c.Port)
}

// ValidateConfig rejects values the server cannot run with.
func ValidateConfig(cfg Config) error {
	if cfg.Port < 0 || cfg.Port > 65535 {
		return fmt.Errorf("config: port %d out of range", cfg.Port)
	}
	if cfg.CacheTTL <= 0 {
		return errors.New("config: cache TTL must be positive")
	}
	if cfg.CacheMaxEntries <= 0 {
		return errors.New("config: cache max entries must be positive")
	}
	if cfg.RateLimitWindow <= 0 || cfg.RateLimitMax <= 0 {
		return errors.New("config: rate limit window and max must be positive")
	}
	if cfg.ProviderTimeout < 0 || cfg.ProviderRPS < 0 {
		return errors.New("config: negative provider limits are not allowed")
	}
	switch cfg.LogFormat {
	case "", "console", "json":
	default:
		return fmt.Errorf("config: unknown log format %q", cfg.LogFormat)
	}
	return nil
}

// splitList splits a comma-separated list, trimming entries and dropping
// empty ones.
func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
