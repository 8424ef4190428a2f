package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/polycheck/internal/model"
	"github.com/sells-group/polycheck/internal/resolver"
)

var resolveCmd = &cobra.Command{
	Use:   "resolve <name> [name...]",
	Short: "Resolve birth dates for one or more names",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initResolver(ctx, "resolve")
		if err != nil {
			return err
		}
		defer env.Close()

		market, _ := cmd.Flags().GetString("market")
		asJSON, _ := cmd.Flags().GetBool("json")
		batchSize, _ := cmd.Flags().GetInt("batch-size")

		runID := uuid.New().String()
		zap.L().Info("resolve started",
			zap.String("run_id", runID),
			zap.Int("names", len(args)),
		)

		var results []model.BiographicalResult
		if market != "" {
			for _, name := range args {
				results = append(results, env.Resolver.Resolve(ctx, name, &resolver.MarketContext{Title: market}))
			}
		} else {
			if batchSize <= 0 {
				batchSize = env.Resolver.SuggestBatchSize(ctx, args)
			}
			results = env.Resolver.ResolveAll(ctx, args, batchSize)
		}

		zap.L().Info("resolve complete", zap.String("run_id", runID))

		if asJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(results)
		}
		formatResults(os.Stdout, results)
		return nil
	},
}

func init() {
	resolveCmd.Flags().String("market", "", "market title recorded with any misses")
	resolveCmd.Flags().Bool("json", false, "print results as JSON")
	resolveCmd.Flags().Int("batch-size", 0, "concurrent lookups (default sized from cache coverage)")
	rootCmd.AddCommand(resolveCmd)
}

// formatResults writes a tabular list of results to w.
func formatResults(out io.Writer, results []model.BiographicalResult) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "NAME\tBIRTH DATE\tCONFIDENCE\tSOURCE\tSTATUS")
	_, _ = fmt.Fprintln(w, "----\t----------\t----------\t------\t------")

	for _, r := range results {
		birth := r.BirthDate.OrZero()
		if birth == "" {
			birth = "-"
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\n",
			r.Name,
			birth,
			r.Confidence,
			r.Source,
			r.Status,
		)
	}
	_ = w.Flush()
}
