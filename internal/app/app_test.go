package app

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"
)

func TestBuildRegistry_KnowsEveryProvider(t *testing.T) {
	cfg := DefaultConfig()
	reg := BuildRegistry(cfg)
	want := []string{"bing", "brave", "cse", "duckduckgo", "file", "searxng", "wikipedia"}
	got := reg.Names()
	if fmt.Sprint(got) != fmt.Sprint(want) {
		t.Fatalf("Names=%v, want %v", got, want)
	}
	configured := reg.Configured()
	sort.Strings(configured)
	if fmt.Sprint(configured) != fmt.Sprint([]string{"duckduckgo", "wikipedia"}) {
		t.Fatalf("Configured=%v", configured)
	}

	cfg.BingAPIKey = "k"
	cfg.SearchFile = "results.json"
	if n := len(BuildRegistry(cfg).Configured()); n != 4 {
		t.Fatalf("expected 4 configured providers, got %d", n)
	}
}

func TestNew_RejectsInvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RateLimitMax = -1
	if _, err := New(context.Background(), cfg); err == nil {
		t.Fatalf("expected error")
	}
}

// Serves a search end to end against the file provider and shuts down on
// context cancellation.
func TestApp_ServeAndShutdown(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "results.json")
	data := `[{"title":"OSPF overview","url":"https://www.example.com/ospf","snippet":"<b>OSPF</b> is a link-state protocol"}]`
	if err := os.WriteFile(file, []byte(data), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg := DefaultConfig()
	cfg.Providers = []string{"file"}
	cfg.SearchFile = file
	cfg.ShutdownTimeout = 2 * time.Second

	a, err := New(context.Background(), cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer a.Close()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Serve(ctx, ln) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/api/search?q=ospf")
	if err != nil {
		cancel()
		t.Fatalf("GET: %v", err)
	}
	var body struct {
		Results []struct {
			Title   string `json:"title"`
			Snippet string `json:"snippet"`
			Source  string `json:"source"`
			Domain  string `json:"domain"`
		} `json:"results"`
		Provider []string `json:"provider"`
		Cached   bool     `json:"cached"`
	}
	err = json.NewDecoder(resp.Body).Decode(&body)
	resp.Body.Close()
	if err != nil {
		cancel()
		t.Fatalf("decode: %v", err)
	}
	if len(body.Results) != 1 || body.Results[0].Domain != "example.com" || body.Results[0].Source != "file" {
		t.Fatalf("unexpected results: %+v", body.Results)
	}
	if body.Results[0].Snippet != "OSPF is a link-state protocol" {
		t.Fatalf("snippet not normalized: %q", body.Results[0].Snippet)
	}
	if body.Cached || len(body.Provider) != 1 || body.Provider[0] != "file" {
		t.Fatalf("unexpected envelope: %+v", body)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Serve returned error: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("server did not shut down")
	}
}
