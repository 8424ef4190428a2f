package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/polycheck/internal/markets"
	"github.com/sells-group/polycheck/internal/model"
	"github.com/sells-group/polycheck/internal/ratelimit"
	"github.com/sells-group/polycheck/internal/resilience"
	"github.com/sells-group/polycheck/internal/resolver"
	"github.com/sells-group/polycheck/pkg/polymarket"
)

var crawlCmd = &cobra.Command{
	Use:   "crawl",
	Short: "Resolve every person named in active markets",
	Long:  "Fetches active markets, extracts and deduplicates the people they name, resolves each one and prints a summary. Use --market to crawl specific markets by slug.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		env, err := initResolver(ctx, "crawl")
		if err != nil {
			return err
		}
		defer env.Close()

		limit, _ := cmd.Flags().GetInt("limit")
		topN, _ := cmd.Flags().GetInt("top")
		asJSON, _ := cmd.Flags().GetBool("json")
		slugs, _ := cmd.Flags().GetStringSlice("market")

		runID := uuid.New().String()
		log := zap.L().With(zap.String("run_id", runID))
		start := time.Now()

		fetcher := markets.NewFetcher(
			polymarket.NewClient(polymarket.WithBaseURL(cfg.Polymarket.BaseURL)),
			ratelimit.New(ratelimit.Config{
				Name:                 "polymarket",
				MaxRequestsPerSecond: cfg.Polymarket.MaxRequestsPerSecond,
				MaxQueueSize:         cfg.Polymarket.MaxQueueSize,
				OnReject:             env.Metrics.IncrementRejections,
			}),
			resilience.FromRetryConfig(cfg.Retry.MaxRetries, cfg.Retry.BaseDelayMs, cfg.Retry.MaxDelayMs),
			cfg.Polymarket.PageSize,
		)

		var ms []polymarket.Market
		if len(slugs) > 0 {
			ms, err = fetcher.FetchBySlug(ctx, slugs...)
			if err != nil {
				return err
			}
		} else {
			ms, err = fetcher.FetchActive(ctx, limit)
			if err != nil {
				if len(ms) == 0 {
					return err
				}
				log.Warn("crawl: market listing incomplete, continuing", zap.Error(err))
			}
		}

		people := markets.ExtractPeople(ms, topN, cfg.Resolver.DedupThreshold)
		log.Info("crawl: extracted people",
			zap.Int("markets", len(ms)),
			zap.Int("people", len(people)),
		)

		keys := make([]string, len(people))
		for i, p := range people {
			keys[i] = p.DisplayName
		}
		batchSize := env.Resolver.SuggestBatchSize(ctx, keys)

		results := env.Resolver.ResolvePeople(ctx, people, batchSize)

		summary := resolver.Summarize(personResults(results))
		log.Info("crawl complete",
			zap.Int("total", summary.Total),
			zap.Int("birth_dates", summary.BirthDates),
			zap.Int("batch_size", batchSize),
			zap.Duration("elapsed", time.Since(start)),
		)

		if asJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(struct {
				RunID   string                  `json:"run_id"`
				Summary resolver.Summary        `json:"summary"`
				People  []resolver.PersonResult `json:"people"`
			}{runID, summary, results})
		}
		formatSummary(os.Stdout, summary)
		return nil
	},
}

func init() {
	crawlCmd.Flags().Int("limit", 500, "max markets to fetch (0 for all)")
	crawlCmd.Flags().Int("top", markets.DefaultTopN, "leading outcomes considered per market")
	crawlCmd.Flags().Bool("json", false, "print people and results as JSON")
	crawlCmd.Flags().StringSlice("market", nil, "crawl only these market slugs instead of listing active markets")
	rootCmd.AddCommand(crawlCmd)
}

func personResults(prs []resolver.PersonResult) []model.BiographicalResult {
	out := make([]model.BiographicalResult, len(prs))
	for i, pr := range prs {
		out[i] = pr.Result
	}
	return out
}

// formatSummary writes crawl totals and per-layer counts to w.
func formatSummary(out io.Writer, s resolver.Summary) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(w, "People processed:\t%d\n", s.Total)
	_, _ = fmt.Fprintf(w, "Birth dates found:\t%d\n", s.BirthDates)
	_, _ = fmt.Fprintf(w, "Page not found:\t%d\n", s.PageNotFound)
	_, _ = fmt.Fprintf(w, "Page without date:\t%d\n", s.NoBirthDate)
	_, _ = fmt.Fprintf(w, "Lookup failed:\t%d\n", s.Failed)

	sources := make([]string, 0, len(s.BySource))
	for src := range s.BySource {
		sources = append(sources, string(src))
	}
	sort.Strings(sources)
	for _, src := range sources {
		_, _ = fmt.Fprintf(w, "  %s:\t%d\n", src, s.BySource[model.ResultSource(src)])
	}
	_ = w.Flush()
}
