// Command debugsearch runs one query against one or more providers and prints
// the raw and normalized results. Configuration comes from the same env vars
// and dotenv files as the server.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/MikePiotrowski/CCNA-Study-Hub/internal/aggregate"
	"github.com/MikePiotrowski/CCNA-Study-Hub/internal/app"
	"github.com/MikePiotrowski/CCNA-Study-Hub/internal/search"
	selecter "github.com/MikePiotrowski/CCNA-Study-Hub/internal/select"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	var (
		providers string
		limit     int
		timeout   time.Duration
		list      bool
	)
	flag.StringVar(&providers, "providers", "", "Comma-separated providers to query (default: SEARCH_PROVIDER)")
	flag.IntVar(&limit, "limit", 5, "Maximum results")
	flag.DurationVar(&timeout, "timeout", 25*time.Second, "Overall timeout")
	flag.BoolVar(&list, "list", false, "List known providers and whether they are configured")
	flag.Parse()

	loadEnv(".env")
	cfg := app.DefaultConfig()
	if err := app.ApplyEnvOverrides(&cfg); err != nil {
		log.Fatal().Err(err).Msg("bad environment")
	}
	reg := app.BuildRegistry(cfg)
	if list {
		printProviders(os.Stdout, reg)
		return
	}

	q := "What is OSPF?"
	if flag.NArg() > 0 {
		q = strings.Join(flag.Args(), " ")
	}
	names := cfg.Providers
	if strings.TrimSpace(providers) != "" {
		names = strings.Split(providers, ",")
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	out := aggregate.FanOut(ctx, reg, names, q, limit, aggregate.Options{Timeout: cfg.ProviderTimeout})
	report(os.Stdout, out, selecter.Select(out.Results, selecter.Options{}))
}

// loadEnv applies a dotenv file. A file that exists but cannot be read or
// parsed is reported and otherwise ignored.
func loadEnv(path string) error {
	err := app.LoadEnvFiles(path)
	if err != nil {
		log.Warn().Err(err).Str("path", path).Msg("ignoring env file")
	}
	return err
}

func printProviders(w io.Writer, reg *search.Registry) {
	configured := map[string]bool{}
	for _, n := range reg.Configured() {
		configured[n] = true
	}
	for _, n := range reg.Names() {
		fmt.Fprintf(w, "%-12s configured=%v\n", n, configured[n])
	}
}

func report(w io.Writer, out aggregate.Outcome, normalized []search.Result) {
	for _, c := range out.Contributions {
		switch {
		case c.Skipped:
			fmt.Fprintf(w, "[%s] skipped (not configured)\n", c.Provider)
		case c.Err != nil:
			fmt.Fprintf(w, "[%s] err: %v (%s)\n", c.Provider, c.Err, c.Took.Round(time.Millisecond))
		default:
			fmt.Fprintf(w, "[%s] %d results (%s)\n", c.Provider, len(c.Results), c.Took.Round(time.Millisecond))
		}
	}
	for i, r := range normalized {
		fmt.Fprintf(w, "%d. %s - %s [%s via %s]\n", i+1, r.Title, r.URL, r.Domain, r.Source)
	}
}
