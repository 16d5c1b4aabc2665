// Package server exposes the search proxy over HTTP.
package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/MikePiotrowski/CCNA-Study-Hub/internal/aggregate"
	"github.com/MikePiotrowski/CCNA-Study-Hub/internal/cache"
	"github.com/MikePiotrowski/CCNA-Study-Hub/internal/metrics"
	"github.com/MikePiotrowski/CCNA-Study-Hub/internal/ratelimit"
	"github.com/MikePiotrowski/CCNA-Study-Hub/internal/search"
	selecter "github.com/MikePiotrowski/CCNA-Study-Hub/internal/select"
	"github.com/MikePiotrowski/CCNA-Study-Hub/internal/validate"
)

const (
	RouteHealth  = "/api/health"
	RouteSearch  = "/api/search"
	RouteMetrics = "/metrics"

	PlaceholderSource  = "placeholder"
	placeholderSnippet = "Backend providers are not configured yet. This is a placeholder result."

	// isoMillis matches the timestamps browsers produce with toISOString.
	isoMillis = "2006-01-02T15:04:05.000Z"
)

// Options configures the HTTP surface.
type Options struct {
	AllowOrigin        string
	DefaultProviders   []string
	Policy             search.DomainPolicy
	ProviderTimeout    time.Duration
	Dedupe             bool
	PlaceholderOnEmpty bool
	TrustProxy         bool
	MetricsEnabled     bool
	// Now overrides the clock (tests).
	Now func() time.Time
}

// Server routes API requests through validation, cache, fan-out and
// normalization.
type Server struct {
	opts     Options
	registry *search.Registry
	cache    *cache.ResponseCache
	limiter  *ratelimit.Limiter
	handler  http.Handler
}

// New wires a Server. All dependencies are required.
func New(opts Options, reg *search.Registry, c *cache.ResponseCache, l *ratelimit.Limiter) *Server {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	s := &Server{opts: opts, registry: reg, cache: c, limiter: l}

	mux := http.NewServeMux()
	mux.Handle(RouteHealth, getOnly(http.HandlerFunc(s.handleHealth)))
	mux.Handle(RouteSearch, getOnly(s.rateLimit(http.HandlerFunc(s.handleSearch))))
	if opts.MetricsEnabled {
		mux.Handle(RouteMetrics, getOnly(metrics.Handler()))
	}
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "Not Found", "route not found", "NOT_FOUND")
	})

	s.handler = chain(mux,
		requestID,
		accessLog,
		recoverer,
		cors(opts.AllowOrigin),
	)
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

type healthResponse struct {
	OK   bool   `json:"ok"`
	Time string `json:"time"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{OK: true, Time: s.opts.Now().UTC().Format(isoMillis)})
}

type searchResponse struct {
	Query    string          `json:"query"`
	TookMs   int64           `json:"tookMs"`
	Results  []search.Result `json:"results"`
	Provider []string        `json:"provider"`
	Cached   bool            `json:"cached"`
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	started := s.opts.Now()
	q, err := validate.ParseQuery(r.URL.Query(), s.opts.DefaultProviders)
	if err != nil {
		var ve *validate.Error
		if errors.As(err, &ve) {
			log.Debug().Str("field", ve.Field).Str("reason", ve.Message).Msg("rejected search request")
			writeError(w, http.StatusBadRequest, "Bad Request", ve.Message, ve.Code)
			return
		}
		writeError(w, http.StatusBadRequest, "Bad Request", "Invalid query", validate.CodeValidation)
		return
	}

	key := cache.Key(q.Text, q.Limit, q.Providers)
	if hit, ok := s.cache.Get(key); ok {
		metrics.RecordCache(true)
		writeJSON(w, http.StatusOK, searchResponse{Query: q.Text, TookMs: 0, Results: hit, Provider: q.Providers, Cached: true})
		return
	}
	metrics.RecordCache(false)

	out := aggregate.FanOut(r.Context(), s.registry, q.Providers, q.Text, q.Limit, aggregate.Options{
		Timeout: s.opts.ProviderTimeout,
		Dedupe:  s.opts.Dedupe,
	})
	raw := out.Results
	if len(raw) == 0 && s.opts.PlaceholderOnEmpty {
		raw = []search.Result{Placeholder(q.Text)}
	}
	results := selecter.Select(raw, selecter.Options{Policy: s.opts.Policy})
	s.cache.Set(key, results)

	log.Debug().
		Str("query", q.Text).
		Int("limit", q.Limit).
		Strs("providers", q.Providers).
		Strs("contributed", out.Providers()).
		Int("results", len(results)).
		Msg("search served")
	writeJSON(w, http.StatusOK, searchResponse{
		Query:    q.Text,
		TookMs:   s.opts.Now().Sub(started).Milliseconds(),
		Results:  results,
		Provider: q.Providers,
		Cached:   false,
	})
}

// Placeholder is the single result returned when no provider produced
// anything: a link to run the query on a general web search engine.
func Placeholder(query string) search.Result {
	return search.Result{
		Title:   "Search online for: " + query,
		URL:     "https://www.google.com/search?" + url.Values{"q": {query}}.Encode(),
		Snippet: placeholderSnippet,
		Source:  PlaceholderSource,
	}
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

func writeError(w http.ResponseWriter, status int, title, message, code string) {
	writeJSON(w, status, errorResponse{Error: title, Message: message, Code: code})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		log.Warn().Err(err).Msg("write response")
	}
}

func getOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			w.Header().Set("Allow", "GET, HEAD, OPTIONS")
			writeError(w, http.StatusMethodNotAllowed, "Method Not Allowed", r.Method+" is not supported on "+r.URL.Path, "METHOD_NOT_ALLOWED")
			return
		}
		next.ServeHTTP(w, r)
	})
}
