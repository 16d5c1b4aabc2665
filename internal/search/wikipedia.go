package search

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/MikePiotrowski/CCNA-Study-Hub/internal/fetch"
)

// Wikipedia implements Provider against the MediaWiki full-text search API.
// It needs no credentials.
type Wikipedia struct {
	// Lang selects the wiki edition, e.g. "en" or "de". Default "en".
	Lang string
	// APIURL overrides https://<lang>.wikipedia.org/w/api.php (tests).
	APIURL string
	// ArticleURL overrides https://<lang>.wikipedia.org/wiki/ (tests).
	ArticleURL string
	Client     *fetch.Client
}

func (w *Wikipedia) Name() string { return "wikipedia" }

func (w *Wikipedia) lang() string {
	if l := strings.TrimSpace(w.Lang); l != "" {
		return strings.ToLower(l)
	}
	return "en"
}

func (w *Wikipedia) Search(ctx context.Context, query string, limit int) ([]Result, error) {
	limit = clampLimit(limit, 10)
	api := w.APIURL
	if api == "" {
		api = fmt.Sprintf("https://%s.wikipedia.org/w/api.php", w.lang())
	}
	u, err := url.Parse(api)
	if err != nil {
		return nil, err
	}
	q := u.Query()
	q.Set("action", "query")
	q.Set("list", "search")
	q.Set("srsearch", query)
	q.Set("srlimit", strconv.Itoa(limit))
	q.Set("srprop", "snippet")
	q.Set("format", "json")
	q.Set("utf8", "1")
	u.RawQuery = q.Encode()

	var wr wikiResponse
	if err := clientOr(w.Client).GetJSON(ctx, u.String(), nil, &wr); err != nil {
		return nil, fmt.Errorf("wikipedia: %w", err)
	}
	articleBase := w.ArticleURL
	if articleBase == "" {
		articleBase = fmt.Sprintf("https://%s.wikipedia.org/wiki/", w.lang())
	}
	out := make([]Result, 0, len(wr.Query.Search))
	for _, r := range wr.Query.Search {
		title := strings.TrimSpace(r.Title)
		if title == "" {
			continue
		}
		out = append(out, Result{
			Title:   title,
			URL:     articleBase + url.PathEscape(strings.ReplaceAll(title, " ", "_")),
			Snippet: r.Snippet,
			Source:  w.Name(),
		})
		if len(out) >= limit {
			break
		}
	}
	return out, nil
}

type wikiResponse struct {
	Query struct {
		Search []struct {
			Title   string `json:"title"`
			PageID  int    `json:"pageid"`
			Snippet string `json:"snippet"`
		} `json:"search"`
	} `json:"query"`
}

func clientOr(c *fetch.Client) *fetch.Client {
	if c != nil {
		return c
	}
	return defaultClient
}

var defaultClient = &fetch.Client{UserAgent: DefaultUserAgent}

// DefaultUserAgent identifies the proxy to upstream APIs. Wikimedia requires
// a descriptive agent.
const DefaultUserAgent = "studyhub-search/1.0 (+https://github.com/MikePiotrowski/CCNA-Study-Hub)"
