package search

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/MikePiotrowski/CCNA-Study-Hub/internal/fetch"
)

const braveSearchURL = "https://api.search.brave.com/res/v1/web/search"

// Brave implements Provider against the Brave Search web API.
type Brave struct {
	APIKey  string
	BaseURL string // optional override for tests
	Client  *fetch.Client
}

func (b *Brave) Name() string { return "brave" }

func (b *Brave) Configured() bool { return strings.TrimSpace(b.APIKey) != "" }

func (b *Brave) Search(ctx context.Context, query string, limit int) ([]Result, error) {
	if !b.Configured() {
		return nil, nil
	}
	limit = clampLimit(limit, 20)
	base := b.BaseURL
	if base == "" {
		base = braveSearchURL
	}
	u, err := url.Parse(base)
	if err != nil {
		return nil, err
	}
	q := u.Query()
	q.Set("q", query)
	q.Set("count", strconv.Itoa(limit))
	u.RawQuery = q.Encode()

	h := http.Header{}
	h.Set("X-Subscription-Token", b.APIKey)
	var br braveResponse
	if err := clientOr(b.Client).GetJSON(ctx, u.String(), h, &br); err != nil {
		return nil, fmt.Errorf("brave: %w", err)
	}
	if br.Web == nil {
		return nil, nil
	}
	out := make([]Result, 0, len(br.Web.Results))
	for _, r := range br.Web.Results {
		if strings.TrimSpace(r.URL) == "" {
			continue
		}
		out = append(out, Result{
			Title:   strings.TrimSpace(r.Title),
			URL:     strings.TrimSpace(r.URL),
			Snippet: strings.TrimSpace(r.Description),
			Source:  b.Name(),
		})
		if len(out) >= limit {
			break
		}
	}
	return out, nil
}

type braveResponse struct {
	Web *struct {
		Results []struct {
			Title       string `json:"title"`
			URL         string `json:"url"`
			Description string `json:"description"`
		} `json:"results"`
	} `json:"web,omitempty"`
}
