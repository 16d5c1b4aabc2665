package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/MikePiotrowski/CCNA-Study-Hub/internal/app"
)

func main() {
	// Logging setup
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	cfg, showVersion, err := loadConfig(os.Args[1:])
	if err != nil {
		log.Error().Err(err).Msg("invalid configuration")
		os.Exit(2)
	}
	if showVersion {
		fmt.Printf("studyhub-search %s (%s, %s)\n", app.BuildVersion, app.BuildCommit, app.BuildDate)
		return
	}
	setupLogging(os.Stderr, cfg.LogFormat, cfg.Verbose)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := run(ctx, cfg); err != nil {
		log.Error().Err(err).Msg("run failed")
		os.Exit(1)
	}
}

func setupLogging(out io.Writer, format string, verbose bool) {
	if format == "json" {
		log.Logger = zerolog.New(out).With().Timestamp().Logger()
	} else {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339})
	}
	if verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}

// loadConfig resolves configuration with precedence flags > env > config
// file > defaults. Dotenv files are loaded into the environment first.
func loadConfig(args []string) (app.Config, bool, error) {
	fs := flag.NewFlagSet("studyhub-search", flag.ContinueOnError)
	var (
		configPath  string
		envFiles    string
		version     bool
		host        string
		port        int
		allowOrigin string
		providers   string
		cacheTTL    time.Duration
		cacheMax    int
		rlWindow    time.Duration
		rlMax       int
		timeout     time.Duration
		rps         float64
		allow       string
		deny        string
		trustProxy  bool
		placeholder bool
		dedupe      bool
		metrics     bool
		logFormat   string
		verbose     bool
	)
	def := app.DefaultConfig()
	fs.StringVar(&configPath, "config", "", "Path to YAML or JSON config file (or set CONFIG_FILE)")
	fs.StringVar(&envFiles, "env", ".env", "Comma-separated dotenv files to load; missing files are ignored")
	fs.BoolVar(&version, "version", false, "Print version and exit")
	fs.StringVar(&host, "host", def.Host, "Listen host (empty for all interfaces)")
	fs.IntVar(&port, "port", def.Port, "Listen port")
	fs.StringVar(&allowOrigin, "allow-origin", def.AllowOrigin, "Allowed CORS origin, or * for any")
	fs.StringVar(&providers, "providers", strings.Join(def.Providers, ","), "Default comma-separated provider list")
	fs.DurationVar(&cacheTTL, "cache.ttl", def.CacheTTL, "Response cache TTL")
	fs.IntVar(&cacheMax, "cache.max", def.CacheMaxEntries, "Maximum cached responses")
	fs.DurationVar(&rlWindow, "ratelimit.window", def.RateLimitWindow, "Rate limit window")
	fs.IntVar(&rlMax, "ratelimit.max", def.RateLimitMax, "Requests per client per window")
	fs.DurationVar(&timeout, "provider.timeout", def.ProviderTimeout, "Per-provider call timeout")
	fs.Float64Var(&rps, "provider.rps", def.ProviderRPS, "Outbound requests per second per provider (0 = unlimited)")
	fs.StringVar(&allow, "domains.allow", "", "Comma-separated allow-list of result domains")
	fs.StringVar(&deny, "domains.deny", "", "Comma-separated deny-list of result domains; takes precedence over allow")
	fs.BoolVar(&trustProxy, "trust-proxy", def.TrustProxy, "Key rate limits on X-Forwarded-For")
	fs.BoolVar(&placeholder, "placeholder", def.PlaceholderOnEmpty, "Return a web-search placeholder when no provider has results")
	fs.BoolVar(&dedupe, "dedupe", def.DedupeResults, "Drop duplicate URLs when merging provider results")
	fs.BoolVar(&metrics, "metrics", def.MetricsEnabled, "Expose /metrics")
	fs.StringVar(&logFormat, "log.format", def.LogFormat, "Log format: console or json")
	fs.BoolVar(&verbose, "v", false, "Verbose logging")
	if err := fs.Parse(args); err != nil {
		return app.Config{}, false, err
	}
	if version {
		return def, true, nil
	}

	if err := app.LoadEnvFiles(strings.Split(envFiles, ",")...); err != nil {
		return app.Config{}, false, err
	}
	cfg := app.DefaultConfig()
	if configPath == "" {
		configPath = strings.TrimSpace(os.Getenv("CONFIG_FILE"))
	}
	if configPath != "" {
		fc, err := app.LoadConfigFile(configPath)
		if err != nil {
			return app.Config{}, false, fmt.Errorf("config file: %w", err)
		}
		app.ApplyFileConfig(&cfg, fc)
	}
	if err := app.ApplyEnvOverrides(&cfg); err != nil {
		return app.Config{}, false, err
	}

	// Only flags given on the command line override env and file values
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "host":
			cfg.Host = host
		case "port":
			cfg.Port = port
		case "allow-origin":
			cfg.AllowOrigin = allowOrigin
		case "providers":
			cfg.Providers = splitFlagList(providers)
		case "cache.ttl":
			cfg.CacheTTL = cacheTTL
		case "cache.max":
			cfg.CacheMaxEntries = cacheMax
		case "ratelimit.window":
			cfg.RateLimitWindow = rlWindow
		case "ratelimit.max":
			cfg.RateLimitMax = rlMax
		case "provider.timeout":
			cfg.ProviderTimeout = timeout
		case "provider.rps":
			cfg.ProviderRPS = rps
		case "domains.allow":
			cfg.DomainAllowlist = splitFlagList(allow)
		case "domains.deny":
			cfg.DomainDenylist = splitFlagList(deny)
		case "trust-proxy":
			cfg.TrustProxy = trustProxy
		case "placeholder":
			cfg.PlaceholderOnEmpty = placeholder
		case "dedupe":
			cfg.DedupeResults = dedupe
		case "metrics":
			cfg.MetricsEnabled = metrics
		case "log.format":
			cfg.LogFormat = logFormat
		case "v":
			cfg.Verbose = verbose
		}
	})
	if err := app.ValidateConfig(cfg); err != nil {
		return app.Config{}, false, err
	}
	return cfg, false, nil
}

func splitFlagList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if v := strings.TrimSpace(p); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func run(ctx context.Context, cfg app.Config) error {
	a, err := app.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("init app: %w", err)
	}
	defer a.Close()

	return a.Run(ctx)
}
