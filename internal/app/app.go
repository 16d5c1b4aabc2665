package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/MikePiotrowski/CCNA-Study-Hub/internal/cache"
	"github.com/MikePiotrowski/CCNA-Study-Hub/internal/fetch"
	"github.com/MikePiotrowski/CCNA-Study-Hub/internal/ratelimit"
	"github.com/MikePiotrowski/CCNA-Study-Hub/internal/search"
	"github.com/MikePiotrowski/CCNA-Study-Hub/internal/server"
)

// App owns the long-lived pieces of the proxy: provider registry, response
// cache, client rate limiter and the HTTP server.
type App struct {
	cfg      Config
	registry *search.Registry
	cache    *cache.ResponseCache
	limiter  *ratelimit.Limiter
	server   *server.Server
}

func New(ctx context.Context, cfg Config) (*App, error) {
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}
	a := &App{
		cfg:      cfg,
		registry: BuildRegistry(cfg),
		cache:    cache.New(cache.Options{MaxEntries: cfg.CacheMaxEntries, TTL: cfg.CacheTTL}),
		limiter:  ratelimit.New(ratelimit.Options{Window: cfg.RateLimitWindow, Max: cfg.RateLimitMax}),
	}
	a.server = server.New(server.Options{
		AllowOrigin:      cfg.AllowOrigin,
		DefaultProviders: cfg.Providers,
		Policy: search.DomainPolicy{
			Allowlist: cfg.DomainAllowlist,
			Denylist:  cfg.DomainDenylist,
		},
		ProviderTimeout:    cfg.ProviderTimeout,
		Dedupe:             cfg.DedupeResults,
		PlaceholderOnEmpty: cfg.PlaceholderOnEmpty,
		TrustProxy:         cfg.TrustProxy,
		MetricsEnabled:     cfg.MetricsEnabled,
	}, a.registry, a.cache, a.limiter)

	for _, name := range cfg.Providers {
		p, ok := a.registry.Lookup(name)
		switch {
		case !ok:
			log.Warn().Str("provider", name).Msg("default provider is not known; it will be skipped")
		case !search.IsConfigured(p):
			log.Warn().Str("provider", name).Msg("default provider has no credentials; it will return no results")
		}
	}
	log.Info().
		Strs("providers", cfg.Providers).
		Strs("configured", a.registry.Configured()).
		Dur("cache_ttl", cfg.CacheTTL).
		Int("rate_limit_max", cfg.RateLimitMax).
		Dur("rate_limit_window", cfg.RateLimitWindow).
		Msg("search proxy ready")
	return a, nil
}

// BuildRegistry constructs every known provider from cfg. Each provider gets
// its own fetch client so PROVIDER_RPS applies per upstream.
func BuildRegistry(cfg Config) *search.Registry {
	hc := newUpstreamHTTPClient(cfg.ProviderTimeout + 2*time.Second)
	client := func() *fetch.Client {
		c := fetch.NewRateLimited(hc, cfg.UserAgent, cfg.ProviderRPS)
		c.PerRequestTimeout = cfg.ProviderTimeout
		return c
	}
	return search.NewRegistry(
		&search.Wikipedia{Lang: cfg.WikipediaLang, Client: client()},
		&search.GoogleCSE{APIKey: cfg.GoogleCSEKey, EngineID: cfg.GoogleCSECX, Client: client()},
		&search.Bing{APIKey: cfg.BingAPIKey, Market: cfg.BingMarket, Client: client()},
		&search.Brave{APIKey: cfg.BraveAPIKey, Client: client()},
		&search.DuckDuckGo{Region: cfg.DuckDuckGoRegion, Client: client()},
		&search.SearxNG{BaseURL: cfg.SearxURL, APIKey: cfg.SearxKey, Client: client()},
		&search.FileProvider{Path: cfg.SearchFile},
	)
}

// Handler returns the HTTP handler serving the API.
func (a *App) Handler() http.Handler { return a.server }

// Registry exposes the provider registry.
func (a *App) Registry() *search.Registry { return a.registry }

// Run listens on the configured address and serves until ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", a.cfg.Addr())
	if err != nil {
		return fmt.Errorf("listen %s: %w", a.cfg.Addr(), err)
	}
	return a.Serve(ctx, ln)
}

// Serve serves on ln until ctx is cancelled, then drains in-flight requests
// for up to ShutdownTimeout.
func (a *App) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           a.server,
		ReadHeaderTimeout: 10 * time.Second,
	}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Str("addr", ln.Addr().String()).Msg("listening")
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		timeout := a.cfg.ShutdownTimeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		sctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		log.Info().Msg("shutting down")
		if err := srv.Shutdown(sctx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	})
	return g.Wait()
}

// Close drops cached responses and rate-limit windows.
func (a *App) Close() {
	a.cache.Reset()
	a.limiter.Reset()
}
