package aggregate

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sourcegraph/conc/iter"

	"github.com/MikePiotrowski/CCNA-Study-Hub/internal/metrics"
	"github.com/MikePiotrowski/CCNA-Study-Hub/internal/search"
)

// DefaultProviderTimeout bounds a single provider call.
const DefaultProviderTimeout = 8 * time.Second

// Options tunes a fan-out.
type Options struct {
	// Timeout bounds each provider call. Zero means DefaultProviderTimeout;
	// negative disables the per-provider bound.
	Timeout time.Duration
	// Dedupe drops repeated URLs (after canonicalization) while merging.
	Dedupe bool
}

// Contribution is what one provider added to a fan-out.
type Contribution struct {
	Provider string
	Results  []search.Result
	// Err is the failure that was turned into an empty contribution.
	Err error
	// Skipped is set for providers that are registered but not configured.
	Skipped bool
	Took    time.Duration
}

// Outcome is the merged result of a fan-out.
type Outcome struct {
	Results       []search.Result
	Contributions []Contribution
}

// Providers returns the names that contributed at least one result.
func (o Outcome) Providers() []string {
	out := make([]string, 0, len(o.Contributions))
	for _, c := range o.Contributions {
		if len(c.Results) > 0 {
			out = append(out, c.Provider)
		}
	}
	return out
}

// FanOut queries every named provider concurrently and waits for all of them.
// A failing, panicking or timed out provider contributes nothing; it never
// fails the batch. Results are concatenated in the order of names, not in
// completion order, then truncated to limit. Names that are not registered
// are skipped.
func FanOut(ctx context.Context, reg *search.Registry, names []string, query string, limit int, opt Options) Outcome {
	providers := make([]search.Provider, 0, len(names))
	for _, n := range names {
		p, ok := reg.Lookup(n)
		if !ok {
			log.Debug().Str("provider", n).Msg("unknown provider; skipping")
			continue
		}
		providers = append(providers, p)
	}
	timeout := opt.Timeout
	if timeout == 0 {
		timeout = DefaultProviderTimeout
	}

	contribs := iter.Map(providers, func(p *search.Provider) Contribution {
		return call(ctx, *p, query, limit, timeout)
	})

	groups := make([][]search.Result, 0, len(contribs))
	for _, c := range contribs {
		groups = append(groups, c.Results)
	}
	var merged []search.Result
	if opt.Dedupe {
		merged = MergeAndNormalize(groups)
	} else {
		merged = Concat(groups)
	}
	if limit >= 0 && len(merged) > limit {
		merged = merged[:limit]
	}
	return Outcome{Results: merged, Contributions: contribs}
}

func call(ctx context.Context, p search.Provider, query string, limit int, timeout time.Duration) (c Contribution) {
	name := p.Name()
	c.Provider = name
	if !search.IsConfigured(p) {
		c.Skipped = true
		metrics.RecordProvider(name, metrics.OutcomeSkipped, 0)
		return c
	}
	start := time.Now()
	defer func() {
		c.Took = time.Since(start)
		if r := recover(); r != nil {
			c.Results = nil
			c.Err = fmt.Errorf("provider %s panicked: %v", name, r)
			log.Warn().Str("provider", name).Interface("panic", r).Msg("provider panicked; contributing no results")
			metrics.RecordProvider(name, metrics.OutcomePanic, c.Took)
		}
	}()

	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	results, err := p.Search(ctx, query, limit)
	c.Took = time.Since(start)
	if err != nil {
		c.Err = err
		log.Warn().Err(err).Str("provider", name).Dur("took", c.Took).Msg("search error")
		metrics.RecordProvider(name, metrics.OutcomeError, c.Took)
		return c
	}
	c.Results = results
	if len(results) == 0 {
		metrics.RecordProvider(name, metrics.OutcomeEmpty, c.Took)
	} else {
		metrics.RecordProvider(name, metrics.OutcomeOK, c.Took)
	}
	return c
}

// Concat joins groups in order.
func Concat(groups [][]search.Result) []search.Result {
	n := 0
	for _, g := range groups {
		n += len(g)
	}
	out := make([]search.Result, 0, n)
	for _, g := range groups {
		out = append(out, g...)
	}
	return out
}

// MergeAndNormalize merges results from multiple providers, canonicalizes URLs,
// trims obvious tracking parameters, and de-duplicates exact URLs. The first
// occurrence wins.
func MergeAndNormalize(groups [][]search.Result) []search.Result {
	seen := map[string]struct{}{}
	out := make([]search.Result, 0, 64)
	for _, g := range groups {
		for _, r := range g {
			if r.URL == "" {
				continue
			}
			u, err := url.Parse(r.URL)
			if err != nil {
				continue
			}
			normalizeURL(u)
			key := u.String()
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			r.URL = key
			out = append(out, r)
		}
	}
	return out
}

func normalizeURL(u *url.URL) {
	u.Fragment = ""
	u.Host = strings.ToLower(u.Host)
	if u.RawQuery == "" {
		return
	}
	q := u.Query()
	// Remove common tracking params
	for _, p := range []string{"utm_source", "utm_medium", "utm_campaign", "utm_term", "utm_content", "utm_id", "gclid", "fbclid"} {
		q.Del(p)
	}
	u.RawQuery = q.Encode()
}
