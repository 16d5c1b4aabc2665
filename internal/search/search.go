package search

import (
	"context"
	"sort"
	"strings"
)

// Result represents a single search hit from any provider. Adapters fill
// Title, URL, Snippet and Source; Domain is derived during normalization.
type Result struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet"`
	Source  string `json:"source"` // provider name for observability
	Domain  string `json:"domain"`
}

// Provider is a minimal interface for search providers.
type Provider interface {
	Search(ctx context.Context, query string, limit int) ([]Result, error)
	Name() string
}

// Configurer is implemented by providers that need credentials or an
// endpoint before they can be queried. Unconfigured providers return no
// results and make no network call.
type Configurer interface {
	Configured() bool
}

// IsConfigured reports whether p can be queried. Providers that do not
// implement Configurer are always considered configured.
func IsConfigured(p Provider) bool {
	if c, ok := p.(Configurer); ok {
		return c.Configured()
	}
	return true
}

// DomainPolicy allows providers to filter or block results/requests by host.
// Implementations should treat Denylist as taking precedence over Allowlist.
type DomainPolicy struct {
	Allowlist []string
	Denylist  []string
}

// Registry maps provider names to adapters.
type Registry struct {
	providers map[string]Provider
}

// NewRegistry registers the given providers under their Name().
func NewRegistry(ps ...Provider) *Registry {
	r := &Registry{providers: make(map[string]Provider, len(ps))}
	for _, p := range ps {
		r.Register(p)
	}
	return r
}

// Register adds or replaces p. Names are case-insensitive.
func (r *Registry) Register(p Provider) {
	if p == nil {
		return
	}
	r.providers[strings.ToLower(p.Name())] = p
}

// Lookup returns the provider registered as name.
func (r *Registry) Lookup(name string) (Provider, bool) {
	p, ok := r.providers[strings.ToLower(strings.TrimSpace(name))]
	return p, ok
}

// Names returns registered provider names in sorted order.
func (r *Registry) Names() []string {
	out := make([]string, 0, len(r.providers))
	for n := range r.providers {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// Configured returns the sorted names of providers that are ready to query.
func (r *Registry) Configured() []string {
	out := make([]string, 0, len(r.providers))
	for _, n := range r.Names() {
		if IsConfigured(r.providers[n]) {
			out = append(out, n)
		}
	}
	return out
}

func clampLimit(limit, max int) int {
	if limit <= 0 || limit > max {
		return max
	}
	return limit
}
