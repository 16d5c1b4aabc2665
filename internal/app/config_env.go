package app

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// ApplyEnvOverrides overrides cfg fields with environment variables that are
// set. Env takes precedence over a config file; flags are applied afterwards
// and win over both. Unparsable numbers are reported rather than ignored.
func ApplyEnvOverrides(cfg *Config) error {
	if cfg == nil {
		return nil
	}

	setString := func(dst *string, keys ...string) {
		for _, k := range keys {
			if v := strings.TrimSpace(os.Getenv(k)); v != "" {
				*dst = v
				return
			}
		}
	}
	setString(&cfg.Host, "LISTEN_HOST")
	setString(&cfg.AllowOrigin, "ALLOW_ORIGIN")
	setString(&cfg.UserAgent, "USER_AGENT")
	setString(&cfg.LogFormat, "LOG_FORMAT")
	setString(&cfg.WikipediaLang, "WIKIPEDIA_LANG")
	setString(&cfg.GoogleCSEKey, "GOOGLE_CSE_KEY", "GOOGLE_API_KEY")
	setString(&cfg.GoogleCSECX, "GOOGLE_CSE_CX", "GOOGLE_SEARCH_ID")
	setString(&cfg.BingAPIKey, "BING_API_KEY")
	setString(&cfg.BingMarket, "BING_MARKET")
	setString(&cfg.BraveAPIKey, "BRAVE_API_KEY")
	setString(&cfg.DuckDuckGoRegion, "DUCKDUCKGO_REGION")
	// Support both SEARX_URL and SEARXNG_URL; prefer SEARX_URL if set
	setString(&cfg.SearxURL, "SEARX_URL", "SEARXNG_URL")
	setString(&cfg.SearxKey, "SEARX_KEY", "SEARXNG_KEY")
	setString(&cfg.SearchFile, "SEARCH_FILE")

	if v, ok := lookup("SEARCH_PROVIDER"); ok {
		cfg.Providers = splitList(v)
	}
	if v, ok := lookup("ALLOWED_DOMAINS"); ok {
		cfg.DomainAllowlist = splitList(v)
	}
	if v, ok := lookup("DENIED_DOMAINS"); ok {
		cfg.DomainDenylist = splitList(v)
	}

	if err := envInt(&cfg.Port, "PORT"); err != nil {
		return err
	}
	if err := envInt(&cfg.CacheMaxEntries, "CACHE_MAX_ENTRIES"); err != nil {
		return err
	}
	if err := envInt(&cfg.RateLimitMax, "RATE_LIMIT_MAX"); err != nil {
		return err
	}
	if err := envUnit(&cfg.CacheTTL, "CACHE_TTL_SECONDS", time.Second); err != nil {
		return err
	}
	if err := envUnit(&cfg.RateLimitWindow, "RATE_LIMIT_WINDOW_MS", time.Millisecond); err != nil {
		return err
	}
	if err := envDuration(&cfg.ProviderTimeout, "PROVIDER_TIMEOUT"); err != nil {
		return err
	}
	if err := envDuration(&cfg.ShutdownTimeout, "SHUTDOWN_TIMEOUT"); err != nil {
		return err
	}
	if v, ok := lookup("PROVIDER_RPS"); ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("env PROVIDER_RPS: %w", err)
		}
		cfg.ProviderRPS = f
	}

	// Booleans override when env present and truthy/falsey
	setBool := func(dst *bool, envKey string) {
		if s := strings.ToLower(strings.TrimSpace(os.Getenv(envKey))); s != "" {
			switch s {
			case "1", "true", "yes", "on":
				*dst = true
			case "0", "false", "no", "off":
				*dst = false
			}
		}
	}
	setBool(&cfg.TrustProxy, "TRUST_PROXY")
	setBool(&cfg.PlaceholderOnEmpty, "PLACEHOLDER_ON_EMPTY")
	setBool(&cfg.DedupeResults, "DEDUPE_RESULTS")
	setBool(&cfg.MetricsEnabled, "METRICS_ENABLED")
	setBool(&cfg.Verbose, "VERBOSE")
	return nil
}

func lookup(key string) (string, bool) {
	v := strings.TrimSpace(os.Getenv(key))
	return v, v != ""
}

func envInt(dst *int, key string) error {
	v, ok := lookup(key)
	if !ok {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("env %s: %w", key, err)
	}
	*dst = n
	return nil
}

// envUnit reads an integer count of unit, e.g. CACHE_TTL_SECONDS=600.
func envUnit(dst *time.Duration, key string, unit time.Duration) error {
	v, ok := lookup(key)
	if !ok {
		return nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return fmt.Errorf("env %s: %w", key, err)
	}
	*dst = time.Duration(n) * unit
	return nil
}

// envDuration accepts Go durations ("8s") or a bare number of seconds.
func envDuration(dst *time.Duration, key string) error {
	v, ok := lookup(key)
	if !ok {
		return nil
	}
	if n, err := strconv.ParseFloat(v, 64); err == nil {
		*dst = time.Duration(n * float64(time.Second))
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("env %s: %w", key, err)
	}
	*dst = d
	return nil
}
