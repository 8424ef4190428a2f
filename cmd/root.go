package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/polycheck/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "polycheck",
	Short: "Birth date research for prediction market contenders",
	Long:  "Resolves the birth dates of people named in prediction markets through a static table, a persistent registry, a TTL cache and rate-limited Wikipedia lookups.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
