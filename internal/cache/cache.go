package cache

import (
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"

	"github.com/MikePiotrowski/CCNA-Study-Hub/internal/search"
)

const (
	DefaultMaxEntries = 500
	DefaultTTL        = 600 * time.Second
)

// Options configures a ResponseCache. Zero values take the defaults.
type Options struct {
	MaxEntries int
	TTL        time.Duration
}

// ResponseCache holds merged search results keyed by Key. Entries expire a
// fixed TTL after they were stored and the least recently used entry is
// evicted once MaxEntries is reached. Safe for concurrent use; the last
// writer for a key wins.
type ResponseCache struct {
	lru  *expirable.LRU[string, []search.Result]
	opts Options
}

// New creates an empty cache.
func New(opts Options) *ResponseCache {
	if opts.MaxEntries <= 0 {
		opts.MaxEntries = DefaultMaxEntries
	}
	if opts.TTL <= 0 {
		opts.TTL = DefaultTTL
	}
	return &ResponseCache{
		lru:  expirable.NewLRU[string, []search.Result](opts.MaxEntries, nil, opts.TTL),
		opts: opts,
	}
}

// Get returns a copy of the results stored under key. Expired entries are
// reported as absent.
func (c *ResponseCache) Get(key string) ([]search.Result, bool) {
	v, ok := c.lru.Get(key)
	if !ok {
		return nil, false
	}
	return slices.Clone(v), true
}

// Set stores a copy of results under key, replacing any previous value and
// restarting its TTL.
func (c *ResponseCache) Set(key string, results []search.Result) {
	v := slices.Clone(results)
	if v == nil {
		v = []search.Result{}
	}
	c.lru.Add(key, v)
}

// Len reports the number of stored entries, including any expired entries
// not yet swept.
func (c *ResponseCache) Len() int { return c.lru.Len() }

// Reset drops every entry.
func (c *ResponseCache) Reset() { c.lru.Purge() }

// TTL returns the configured entry lifetime.
func (c *ResponseCache) TTL() time.Duration { return c.opts.TTL }

var folder = cases.Fold()

// Key builds the composite cache key from the query text, the effective limit
// and the provider set. Text is whitespace-collapsed, NFC-normalized and
// case-folded; provider names are sorted so their order does not matter.
// Every field is query-escaped so separators in the input cannot shift field
// boundaries.
func Key(text string, limit int, providers []string) string {
	t := strings.Join(strings.Fields(text), " ")
	t = folder.String(norm.NFC.String(t))
	ps := make([]string, 0, len(providers))
	for _, p := range providers {
		if p = strings.ToLower(strings.TrimSpace(p)); p != "" {
			ps = append(ps, p)
		}
	}
	slices.Sort(ps)
	for i, p := range ps {
		ps[i] = url.QueryEscape(p)
	}
	var b strings.Builder
	b.WriteString("q=")
	b.WriteString(url.QueryEscape(t))
	b.WriteString("|l=")
	b.WriteString(strconv.Itoa(limit))
	b.WriteString("|s=")
	b.WriteString(strings.Join(ps, ","))
	return b.String()
}
