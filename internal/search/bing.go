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

const bingSearchURL = "https://api.bing.microsoft.com/v7.0/search"

// Bing implements Provider against the Bing Web Search v7 API.
type Bing struct {
	APIKey  string
	Market  string // optional, e.g. "en-US"
	BaseURL string // optional override for tests
	Client  *fetch.Client
}

func (b *Bing) Name() string { return "bing" }

func (b *Bing) Configured() bool { return strings.TrimSpace(b.APIKey) != "" }

func (b *Bing) Search(ctx context.Context, query string, limit int) ([]Result, error) {
	if !b.Configured() {
		return nil, nil
	}
	limit = clampLimit(limit, 50)
	base := b.BaseURL
	if base == "" {
		base = bingSearchURL
	}
	u, err := url.Parse(base)
	if err != nil {
		return nil, err
	}
	q := u.Query()
	q.Set("q", query)
	q.Set("count", strconv.Itoa(limit))
	q.Set("responseFilter", "Webpages")
	q.Set("textFormat", "Raw")
	if b.Market != "" {
		q.Set("mkt", b.Market)
	}
	u.RawQuery = q.Encode()

	h := http.Header{}
	h.Set("Ocp-Apim-Subscription-Key", b.APIKey)
	var br bingResponse
	if err := clientOr(b.Client).GetJSON(ctx, u.String(), h, &br); err != nil {
		return nil, fmt.Errorf("bing: %w", err)
	}
	out := make([]Result, 0, len(br.WebPages.Value))
	for _, v := range br.WebPages.Value {
		if strings.TrimSpace(v.URL) == "" {
			continue
		}
		out = append(out, Result{
			Title:   strings.TrimSpace(v.Name),
			URL:     strings.TrimSpace(v.URL),
			Snippet: strings.TrimSpace(v.Snippet),
			Source:  b.Name(),
		})
		if len(out) >= limit {
			break
		}
	}
	return out, nil
}

type bingResponse struct {
	WebPages struct {
		Value []struct {
			Name    string `json:"name"`
			URL     string `json:"url"`
			Snippet string `json:"snippet"`
		} `json:"value"`
	} `json:"webPages"`
}
