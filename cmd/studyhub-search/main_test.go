package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	apppkg "github.com/MikePiotrowski/CCNA-Study-Hub/internal/app"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"PORT", "CONFIG_FILE", "RATE_LIMIT_MAX", "SEARCH_PROVIDER", "ALLOW_ORIGIN", "LOG_FORMAT"} {
		t.Setenv(k, "")
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	clearEnv(t)
	cfg, version, err := loadConfig([]string{"-env", ""})
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if version {
		t.Fatalf("unexpected version flag")
	}
	def := apppkg.DefaultConfig()
	if cfg.Port != def.Port || cfg.AllowOrigin != def.AllowOrigin || cfg.RateLimitMax != def.RateLimitMax {
		t.Fatalf("defaults not preserved: %+v", cfg)
	}
}

// Flags beat env which beats the config file.
func TestLoadConfig_Precedence(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	file := filepath.Join(dir, "cfg.yaml")
	content := "server:\n  port: 7000\n  allowOrigin: https://file.example\nrateLimit:\n  max: 5\n"
	if err := os.WriteFile(file, []byte(content), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Setenv("RATE_LIMIT_MAX", "9")
	t.Setenv("PORT", "7100")

	cfg, _, err := loadConfig([]string{"-env", "", "-config", file, "-port", "7200", "-providers", "wikipedia, brave"})
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.Port != 7200 {
		t.Fatalf("flag should win: port=%d", cfg.Port)
	}
	if cfg.RateLimitMax != 9 {
		t.Fatalf("env should beat file: max=%d", cfg.RateLimitMax)
	}
	if cfg.AllowOrigin != "https://file.example" {
		t.Fatalf("file should beat default: origin=%q", cfg.AllowOrigin)
	}
	if len(cfg.Providers) != 2 || cfg.Providers[1] != "brave" {
		t.Fatalf("providers=%v", cfg.Providers)
	}
}

func TestLoadConfig_DotenvAndConfigFileEnv(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	file := filepath.Join(dir, "cfg.json")
	if err := os.WriteFile(file, []byte(`{"server":{"allowOrigin":"*"}}`), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	env := filepath.Join(dir, ".env")
	if err := os.WriteFile(env, []byte("CONFIG_FILE="+file+"\nSEARCH_PROVIDER=duckduckgo\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg, _, err := loadConfig([]string{"-env", env})
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.AllowOrigin != "*" {
		t.Fatalf("CONFIG_FILE from dotenv not used: %q", cfg.AllowOrigin)
	}
	if len(cfg.Providers) != 1 || cfg.Providers[0] != "duckduckgo" {
		t.Fatalf("providers=%v", cfg.Providers)
	}
}

func TestLoadConfig_Errors(t *testing.T) {
	clearEnv(t)
	if _, _, err := loadConfig([]string{"-env", "", "-nope"}); err == nil {
		t.Fatalf("expected unknown flag error")
	}
	if _, _, err := loadConfig([]string{"-env", "", "-ratelimit.max", "0"}); err == nil {
		t.Fatalf("expected validation error")
	}
	if _, _, err := loadConfig([]string{"-env", "", "-config", filepath.Join(t.TempDir(), "missing.yaml")}); err == nil {
		t.Fatalf("expected missing config file error")
	}
}

func TestLoadConfig_Version(t *testing.T) {
	_, version, err := loadConfig([]string{"-version"})
	if err != nil || !version {
		t.Fatalf("version=%v err=%v", version, err)
	}
}

func TestSetupLogging_JSON(t *testing.T) {
	prev := log.Logger
	prevLevel := zerolog.GlobalLevel()
	defer func() {
		log.Logger = prev
		zerolog.SetGlobalLevel(prevLevel)
	}()
	var buf bytes.Buffer
	setupLogging(&buf, "json", false)
	log.Debug().Msg("hidden")
	log.Info().Str("k", "v").Msg("shown")
	out := buf.String()
	if strings.Contains(out, "hidden") || !strings.Contains(out, `"k":"v"`) {
		t.Fatalf("unexpected log output: %q", out)
	}
}

func TestRun_StopsOnCancel(t *testing.T) {
	cfg := apppkg.DefaultConfig()
	cfg.Host = "127.0.0.1"
	cfg.Port = 0
	cfg.ShutdownTimeout = time.Second
	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	if err := run(ctx, cfg); err != nil {
		t.Fatalf("run: %v", err)
	}
}
