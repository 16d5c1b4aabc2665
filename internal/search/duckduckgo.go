package search

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/MikePiotrowski/CCNA-Study-Hub/internal/fetch"
)

const duckDuckGoHTMLURL = "https://html.duckduckgo.com/html"

// ErrDuckDuckGoThrottled is returned when DuckDuckGo answers 202, its
// rate-limit signal.
var ErrDuckDuckGoThrottled = errors.New("duckduckgo: throttled")

// DuckDuckGo implements Provider by scraping the DuckDuckGo HTML endpoint.
// It needs no credentials.
type DuckDuckGo struct {
	BaseURL string // optional override for tests
	Region  string // optional "kl" parameter, e.g. "uk-en"
	Client  *fetch.Client
}

func (d *DuckDuckGo) Name() string { return "duckduckgo" }

func (d *DuckDuckGo) Search(ctx context.Context, query string, limit int) ([]Result, error) {
	limit = clampLimit(limit, 30)
	base := d.BaseURL
	if base == "" {
		base = duckDuckGoHTMLURL
	}
	form := url.Values{}
	form.Set("q", query)
	form.Set("b", "")
	form.Set("kl", d.Region)

	h := http.Header{}
	h.Set("Accept", "text/html,application/xhtml+xml")
	resp, err := clientOr(d.Client).PostForm(ctx, base, form, h)
	if err != nil {
		return nil, fmt.Errorf("duckduckgo: %w", err)
	}
	if resp.StatusCode == http.StatusAccepted {
		return nil, ErrDuckDuckGoThrottled
	}
	return d.parse(resp.Body, limit)
}

func (d *DuckDuckGo) parse(body []byte, limit int) ([]Result, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("duckduckgo: parse html: %w", err)
	}
	out := make([]Result, 0, limit)
	doc.Find(".result").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		a := s.Find(".result__title a").First()
		link, ok := a.Attr("href")
		title := strings.TrimSpace(a.Text())
		if !ok || title == "" {
			return true
		}
		// ad results go through y.js
		if strings.Contains(link, "y.js") {
			return true
		}
		link = unwrapDuckDuckGoLink(link)
		out = append(out, Result{
			Title:   title,
			URL:     link,
			Snippet: strings.TrimSpace(s.Find(".result__snippet").First().Text()),
			Source:  d.Name(),
		})
		return len(out) < limit
	})
	return out, nil
}

// unwrapDuckDuckGoLink resolves //duckduckgo.com/l/?uddg=<target> redirects.
func unwrapDuckDuckGoLink(link string) string {
	if !strings.Contains(link, "uddg=") {
		return link
	}
	u, err := url.Parse(link)
	if err != nil {
		return link
	}
	if target := u.Query().Get("uddg"); target != "" {
		return target
	}
	return link
}
