package app

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	yaml "gopkg.in/yaml.v3"
)

// FileConfig represents the single-file configuration schema.
// Nested sections map naturally to flags/env.
type FileConfig struct {
	Server struct {
		Host            string        `yaml:"host" json:"host"`
		Port            int           `yaml:"port" json:"port"`
		AllowOrigin     string        `yaml:"allowOrigin" json:"allowOrigin"`
		TrustProxy      *bool         `yaml:"trustProxy" json:"trustProxy"`
		ShutdownTimeout time.Duration `yaml:"shutdownTimeout" json:"shutdownTimeout"`
	} `yaml:"server" json:"server"`

	Cache struct {
		TTL        time.Duration `yaml:"ttl" json:"ttl"`
		MaxEntries int           `yaml:"maxEntries" json:"maxEntries"`
	} `yaml:"cache" json:"cache"`

	RateLimit struct {
		Window time.Duration `yaml:"window" json:"window"`
		Max    int           `yaml:"max" json:"max"`
	} `yaml:"rateLimit" json:"rateLimit"`

	Search struct {
		Providers          []string      `yaml:"providers" json:"providers"`
		Timeout            time.Duration `yaml:"timeout" json:"timeout"`
		RPS                float64       `yaml:"rps" json:"rps"`
		UA                 string        `yaml:"ua" json:"ua"`
		PlaceholderOnEmpty *bool         `yaml:"placeholderOnEmpty" json:"placeholderOnEmpty"`
		Dedupe             *bool         `yaml:"dedupe" json:"dedupe"`
		File               string        `yaml:"file" json:"file"`
	} `yaml:"search" json:"search"`

	Domains struct {
		Allow []string `yaml:"allow" json:"allow"`
		Deny  []string `yaml:"deny" json:"deny"`
	} `yaml:"domains" json:"domains"`

	Wikipedia struct {
		Lang string `yaml:"lang" json:"lang"`
	} `yaml:"wikipedia" json:"wikipedia"`

	CSE struct {
		Key string `yaml:"key" json:"key"`
		CX  string `yaml:"cx" json:"cx"`
	} `yaml:"cse" json:"cse"`

	Bing struct {
		Key    string `yaml:"key" json:"key"`
		Market string `yaml:"market" json:"market"`
	} `yaml:"bing" json:"bing"`

	Brave struct {
		Key string `yaml:"key" json:"key"`
	} `yaml:"brave" json:"brave"`

	DuckDuckGo struct {
		Region string `yaml:"region" json:"region"`
	} `yaml:"duckduckgo" json:"duckduckgo"`

	Searx struct {
		URL string `yaml:"url" json:"url"`
		Key string `yaml:"key" json:"key"`
	} `yaml:"searx" json:"searx"`

	Metrics *bool  `yaml:"metrics" json:"metrics"`
	Log     string `yaml:"log" json:"log"`
	Verbose bool   `yaml:"verbose" json:"verbose"`
}

// LoadConfigFile reads YAML or JSON into FileConfig.
func LoadConfigFile(path string) (FileConfig, error) {
	var fc FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	switch ext := filepath.Ext(path); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &fc); err != nil {
			return fc, fmt.Errorf("parse yaml: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(b, &fc); err != nil {
			return fc, fmt.Errorf("parse json: %w", err)
		}
	default:
		// Try YAML then JSON
		if err := yaml.Unmarshal(b, &fc); err != nil {
			if jerr := json.Unmarshal(b, &fc); jerr != nil {
				return fc, fmt.Errorf("parse config: %v (yaml) / %v (json)", err, jerr)
			}
		}
	}
	return fc, nil
}

// ApplyFileConfig overlays every value present in fc onto cfg. It runs on top
// of DefaultConfig and below env and flags.
func ApplyFileConfig(cfg *Config, fc FileConfig) {
	if cfg == nil {
		return
	}
	str := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	num := func(dst *int, v int) {
		if v > 0 {
			*dst = v
		}
	}
	dur := func(dst *time.Duration, v time.Duration) {
		if v > 0 {
			*dst = v
		}
	}
	flag := func(dst *bool, v *bool) {
		if v != nil {
			*dst = *v
		}
	}
	list := func(dst *[]string, v []string) {
		if len(v) > 0 {
			*dst = append([]string{}, v...)
		}
	}

	str(&cfg.Host, fc.Server.Host)
	num(&cfg.Port, fc.Server.Port)
	str(&cfg.AllowOrigin, fc.Server.AllowOrigin)
	flag(&cfg.TrustProxy, fc.Server.TrustProxy)
	dur(&cfg.ShutdownTimeout, fc.Server.ShutdownTimeout)

	dur(&cfg.CacheTTL, fc.Cache.TTL)
	num(&cfg.CacheMaxEntries, fc.Cache.MaxEntries)
	dur(&cfg.RateLimitWindow, fc.RateLimit.Window)
	num(&cfg.RateLimitMax, fc.RateLimit.Max)

	list(&cfg.Providers, fc.Search.Providers)
	dur(&cfg.ProviderTimeout, fc.Search.Timeout)
	if fc.Search.RPS > 0 {
		cfg.ProviderRPS = fc.Search.RPS
	}
	str(&cfg.UserAgent, fc.Search.UA)
	flag(&cfg.PlaceholderOnEmpty, fc.Search.PlaceholderOnEmpty)
	flag(&cfg.DedupeResults, fc.Search.Dedupe)
	str(&cfg.SearchFile, fc.Search.File)

	list(&cfg.DomainAllowlist, fc.Domains.Allow)
	list(&cfg.DomainDenylist, fc.Domains.Deny)

	str(&cfg.WikipediaLang, fc.Wikipedia.Lang)
	str(&cfg.GoogleCSEKey, fc.CSE.Key)
	str(&cfg.GoogleCSECX, fc.CSE.CX)
	str(&cfg.BingAPIKey, fc.Bing.Key)
	str(&cfg.BingMarket, fc.Bing.Market)
	str(&cfg.BraveAPIKey, fc.Brave.Key)
	str(&cfg.DuckDuckGoRegion, fc.DuckDuckGo.Region)
	str(&cfg.SearxURL, fc.Searx.URL)
	str(&cfg.SearxKey, fc.Searx.Key)

	flag(&cfg.MetricsEnabled, fc.Metrics)
	str(&cfg.LogFormat, fc.Log)
	if fc.Verbose {
		cfg.Verbose = true
	}
}
