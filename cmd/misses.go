package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/polycheck/internal/miss"
	"github.com/sells-group/polycheck/internal/model"
)

var missesCmd = &cobra.Command{
	Use:   "misses",
	Short: "Inspect and correct names the resolver could not date",
}

// -- misses list --

var missesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recorded misses, most frequently seen first",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx, cfg)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		_, _, misses := initLayers(st, cfg)

		reason, _ := cmd.Flags().GetString("reason")
		entityType, _ := cmd.Flags().GetString("type")
		unresolved, _ := cmd.Flags().GetBool("unresolved")
		limit, _ := cmd.Flags().GetInt("limit")
		asJSON, _ := cmd.Flags().GetBool("json")

		entries, err := misses.List(ctx, miss.ListOptions{
			Limit:          limit,
			Reason:         model.MissReason(reason),
			EntityType:     model.EntityType(entityType),
			UnresolvedOnly: unresolved,
		})
		if err != nil {
			return eris.Wrap(err, "misses list")
		}

		if asJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(entries)
		}
		if len(entries) == 0 {
			fmt.Fprintln(os.Stderr, "No misses found.")
			return nil
		}
		formatMisses(os.Stdout, entries)
		return nil
	},
}

// -- misses resolve --

var missesResolveCmd = &cobra.Command{
	Use:   "resolve <name> <birth-date>",
	Short: "Attach a manually researched birth date (YYYY-MM-DD or YYYY) to a miss",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx, cfg)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		_, _, misses := initLayers(st, cfg)

		notes, _ := cmd.Flags().GetString("notes")
		entry, err := misses.ResolveMiss(ctx, args[0], args[1], notes)
		if err != nil {
			return eris.Wrap(err, "misses resolve")
		}

		fmt.Printf("Resolved %s: %s\n", entry.OriginalName, entry.ResolvedBirthDate.OrZero())
		return nil
	},
}

func init() {
	missesListCmd.Flags().String("reason", "", "filter by reason (not-found, no-birthdate, low-confidence, ambiguous, not-a-person)")
	missesListCmd.Flags().String("type", "", "filter by entity type (person, band, organization, role, fictional, unknown)")
	missesListCmd.Flags().Bool("unresolved", false, "only show misses without a manual birth date")
	missesListCmd.Flags().Int("limit", 50, "max number of misses to display")
	missesListCmd.Flags().Bool("json", false, "print entries as JSON")

	missesResolveCmd.Flags().String("notes", "", "free-text note stored with the correction")

	missesCmd.AddCommand(missesListCmd)
	missesCmd.AddCommand(missesResolveCmd)
	rootCmd.AddCommand(missesCmd)
}

// formatMisses writes a tabular list of miss entries to w.
func formatMisses(out io.Writer, entries []model.MissEntry) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "NAME\tREASON\tTYPE\tSEEN\tLAST SEEN\tRESOLVED")
	_, _ = fmt.Fprintln(w, "----\t------\t----\t----\t---------\t--------")

	for _, e := range entries {
		resolved := e.ResolvedBirthDate.OrZero()
		if resolved == "" {
			resolved = "-"
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\t%s\n",
			e.OriginalName,
			e.Reason,
			e.EntityType,
			e.SeenCount,
			e.LastSeenAt.Format("2006-01-02 15:04"),
			resolved,
		)
	}
	_ = w.Flush()
}
