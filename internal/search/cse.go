package search

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/MikePiotrowski/CCNA-Study-Hub/internal/fetch"
)

const googleCSEURL = "https://www.googleapis.com/customsearch/v1"

// GoogleCSE implements Provider against the Google Custom Search JSON API.
type GoogleCSE struct {
	APIKey   string
	EngineID string // the "cx" parameter
	BaseURL  string // optional override for tests
	Client   *fetch.Client
}

func (g *GoogleCSE) Name() string { return "cse" }

func (g *GoogleCSE) Configured() bool {
	return strings.TrimSpace(g.APIKey) != "" && strings.TrimSpace(g.EngineID) != ""
}

func (g *GoogleCSE) Search(ctx context.Context, query string, limit int) ([]Result, error) {
	if !g.Configured() {
		return nil, nil
	}
	limit = clampLimit(limit, 10)
	base := g.BaseURL
	if base == "" {
		base = googleCSEURL
	}
	u, err := url.Parse(base)
	if err != nil {
		return nil, err
	}
	q := u.Query()
	q.Set("key", g.APIKey)
	q.Set("cx", g.EngineID)
	q.Set("q", query)
	q.Set("num", strconv.Itoa(limit))
	u.RawQuery = q.Encode()

	var cr cseResponse
	if err := clientOr(g.Client).GetJSON(ctx, u.String(), nil, &cr); err != nil {
		return nil, fmt.Errorf("cse: %w", err)
	}
	out := make([]Result, 0, len(cr.Items))
	for _, it := range cr.Items {
		if strings.TrimSpace(it.Link) == "" {
			continue
		}
		out = append(out, Result{
			Title:   strings.TrimSpace(it.Title),
			URL:     strings.TrimSpace(it.Link),
			Snippet: strings.TrimSpace(it.Snippet),
			Source:  g.Name(),
		})
		if len(out) >= limit {
			break
		}
	}
	return out, nil
}

type cseResponse struct {
	Items []struct {
		Title       string `json:"title"`
		Link        string `json:"link"`
		DisplayLink string `json:"displayLink"`
		Snippet     string `json:"snippet"`
	} `json:"items"`
}
