package selecter

import (
	"net/url"
	"strings"

	"github.com/MikePiotrowski/CCNA-Study-Hub/internal/extract"
	"github.com/MikePiotrowski/CCNA-Study-Hub/internal/search"
)

const (
	MaxTitleRunes   = 120
	MaxSnippetRunes = 220
	UnknownSource   = "unknown"
)

// Options configures normalization and filtering.
type Options struct {
	// Policy filters by domain. An empty Allowlist means no allow filtering;
	// Denylist takes precedence over Allowlist.
	Policy search.DomainPolicy
}

// Select maps raw provider items into canonical results and applies the
// domain policy. Input order is preserved.
func Select(results []search.Result, opt Options) []search.Result {
	allow := domainSet(opt.Policy.Allowlist)
	deny := domainSet(opt.Policy.Denylist)
	out := make([]search.Result, 0, len(results))
	for _, r := range results {
		n := Normalize(r)
		if _, ok := deny[n.Domain]; ok && n.Domain != "" {
			continue
		}
		if len(allow) > 0 {
			if _, ok := allow[n.Domain]; !ok {
				continue
			}
		}
		out = append(out, n)
	}
	return out
}

// Normalize caps title and snippet lengths, strips markup from the snippet,
// defaults the source and derives the domain.
func Normalize(r search.Result) search.Result {
	r.Title = truncateRunes(strings.TrimSpace(r.Title), MaxTitleRunes)
	r.Snippet = truncateSnippet(extract.StripMarkup(r.Snippet), MaxSnippetRunes)
	r.URL = strings.TrimSpace(r.URL)
	if strings.TrimSpace(r.Source) == "" {
		r.Source = UnknownSource
	}
	r.Domain = Domain(r.URL)
	return r
}

// Domain returns the lower-cased host of rawURL without a leading "www." and
// without a port. Unparsable or host-less URLs yield "".
func Domain(rawURL string) string {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return ""
	}
	return normalizeDomain(u.Hostname())
}

func normalizeDomain(h string) string {
	h = strings.ToLower(strings.TrimSpace(h))
	h = strings.TrimSuffix(h, ".")
	return strings.TrimPrefix(h, "www.")
}

func domainSet(list []string) map[string]struct{} {
	set := make(map[string]struct{}, len(list))
	for _, d := range list {
		if d = normalizeDomain(d); d != "" {
			set[d] = struct{}{}
		}
	}
	return set
}

// truncateSnippet caps an entity-encoded snippet and drops a character
// reference left incomplete by the cut.
func truncateSnippet(s string, max int) string {
	cut := truncateRunes(s, max)
	if len(cut) == len(s) {
		return cut
	}
	if i := strings.LastIndexByte(cut, '&'); i >= 0 && len(cut)-i <= maxEntityLen && !strings.ContainsRune(cut[i:], ';') {
		cut = strings.TrimRight(cut[:i], " ")
	}
	return cut
}

// maxEntityLen is the length of the longest reference extract emits (&amp;).
const maxEntityLen = 5

func truncateRunes(s string, max int) string {
	if max <= 0 {
		return ""
	}
	n := 0
	for i := range s {
		if n == max {
			return s[:i]
		}
		n++
	}
	return s
}
