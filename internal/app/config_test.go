package app

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(p, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return p
}

func TestLoadConfigFile_YAML(t *testing.T) {
	p := writeFile(t, "studyhub.yaml", `
server:
  port: 9000
  allowOrigin: https://hub.example
  trustProxy: true
cache:
  ttl: 2m
  maxEntries: 50
rateLimit:
  window: 30s
  max: 10
search:
  providers: [wikipedia, brave]
  timeout: 4s
  placeholderOnEmpty: false
domains:
  allow: [cisco.com]
brave:
  key: secret
metrics: false
log: json
`)
	fc, err := LoadConfigFile(p)
	if err != nil {
		t.Fatalf("LoadConfigFile: %v", err)
	}
	cfg := DefaultConfig()
	ApplyFileConfig(&cfg, fc)

	if cfg.Port != 9000 || cfg.AllowOrigin != "https://hub.example" || !cfg.TrustProxy {
		t.Fatalf("server section not applied: %+v", cfg)
	}
	if cfg.CacheTTL != 2*time.Minute || cfg.CacheMaxEntries != 50 {
		t.Fatalf("cache section not applied: %v %d", cfg.CacheTTL, cfg.CacheMaxEntries)
	}
	if cfg.RateLimitWindow != 30*time.Second || cfg.RateLimitMax != 10 {
		t.Fatalf("rateLimit section not applied")
	}
	if len(cfg.Providers) != 2 || cfg.Providers[1] != "brave" || cfg.ProviderTimeout != 4*time.Second {
		t.Fatalf("search section not applied: %v %v", cfg.Providers, cfg.ProviderTimeout)
	}
	if cfg.PlaceholderOnEmpty || cfg.MetricsEnabled {
		t.Fatalf("explicit false toggles not applied")
	}
	if cfg.BraveAPIKey != "secret" || cfg.LogFormat != "json" {
		t.Fatalf("provider/log settings not applied")
	}
	// untouched values keep defaults
	if cfg.WikipediaLang != "en" || cfg.RateLimitMax == 0 {
		t.Fatalf("defaults lost")
	}
}

func TestLoadConfigFile_JSON(t *testing.T) {
	p := writeFile(t, "studyhub.json", `{"server":{"port":7000},"domains":{"deny":["spam.example"]}}`)
	fc, err := LoadConfigFile(p)
	if err != nil {
		t.Fatalf("LoadConfigFile: %v", err)
	}
	cfg := DefaultConfig()
	ApplyFileConfig(&cfg, fc)
	if cfg.Port != 7000 || len(cfg.DomainDenylist) != 1 {
		t.Fatalf("json config not applied: %+v", cfg)
	}
}

func TestLoadConfigFile_Invalid(t *testing.T) {
	p := writeFile(t, "bad.yaml", "server: [unterminated")
	if _, err := LoadConfigFile(p); err == nil {
		t.Fatalf("expected parse error")
	}
	if _, err := LoadConfigFile(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestValidateConfig(t *testing.T) {
	if err := ValidateConfig(DefaultConfig()); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
	bad := []func(*Config){
		func(c *Config) { c.Port = 70000 },
		func(c *Config) { c.CacheTTL = 0 },
		func(c *Config) { c.CacheMaxEntries = 0 },
		func(c *Config) { c.RateLimitMax = 0 },
		func(c *Config) { c.ProviderRPS = -1 },
		func(c *Config) { c.LogFormat = "xml" },
	}
	for i, mutate := range bad {
		cfg := DefaultConfig()
		mutate(&cfg)
		if err := ValidateConfig(cfg); err == nil {
			t.Fatalf("case %d: expected validation error", i)
		}
	}
}

func TestConfigAddr(t *testing.T) {
	cfg := DefaultConfig()
	if got := cfg.Addr(); got != ":8080" {
		t.Fatalf("Addr=%q", got)
	}
}
