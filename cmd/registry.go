package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/polycheck/internal/model"
)

var registryCmd = &cobra.Command{
	Use:   "registry",
	Short: "Inspect and correct the persistent result registry",
}

// -- registry list --

var registryListCmd = &cobra.Command{
	Use:   "list",
	Short: "List registry entries",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx, cfg)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		reg, _, _ := initLayers(st, cfg)

		entries, err := reg.List(ctx)
		if err != nil {
			return eris.Wrap(err, "registry list")
		}

		asJSON, _ := cmd.Flags().GetBool("json")
		if asJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(entries)
		}
		if len(entries) == 0 {
			fmt.Fprintln(os.Stderr, "Registry is empty.")
			return nil
		}
		formatRegistry(os.Stdout, entries)
		return nil
	},
}

// -- registry delete --

var registryDeleteCmd = &cobra.Command{
	Use:   "delete <name>",
	Short: "Remove an entry and any spelling variants pointing at it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx, cfg)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		reg, _, _ := initLayers(st, cfg)

		if err := reg.Delete(ctx, args[0]); err != nil {
			return eris.Wrap(err, "registry delete")
		}
		fmt.Printf("Deleted %s\n", args[0])
		return nil
	},
}

// -- registry variant --

var registryVariantCmd = &cobra.Command{
	Use:   "variant <variant> <canonical>",
	Short: "Record an alternate spelling for an existing entry",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx, cfg)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		reg, _, _ := initLayers(st, cfg)

		if err := reg.AddNameVariant(ctx, args[0], args[1]); err != nil {
			return eris.Wrap(err, "registry variant")
		}
		fmt.Printf("Linked %s -> %s\n", args[0], args[1])
		return nil
	},
}

func init() {
	registryListCmd.Flags().Bool("json", false, "print entries as JSON")

	registryCmd.AddCommand(registryListCmd)
	registryCmd.AddCommand(registryDeleteCmd)
	registryCmd.AddCommand(registryVariantCmd)
	rootCmd.AddCommand(registryCmd)
}

// formatRegistry writes registry entries to w sorted by key. Variant
// entries show the key they point at instead of a birth date.
func formatRegistry(out io.Writer, entries map[string]model.RegistryEntry) {
	keys := make([]string, 0, len(entries))
	for k := range entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "KEY\tBIRTH DATE\tCONFIDENCE\tACCESSES\tORIGIN")
	_, _ = fmt.Fprintln(w, "---\t----------\t----------\t--------\t------")

	for _, k := range keys {
		e := entries[k]
		birth := e.Result.BirthDateISO.OrZero()
		if e.CanonicalKey != "" {
			birth = "-> " + e.CanonicalKey
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%s\n",
			k,
			birth,
			e.Result.Confidence,
			e.AccessCount,
			e.OriginSource,
		)
	}
	_ = w.Flush()
}
