package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pitchforge/pitchforge/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "pitchforge",
	Short: "Reddit-sourced SaaS opportunity pipeline",
	Long:  "Scrapes subreddit discussions, extracts business problems via tiered Claude models, consolidates them into themes, and generates validated opportunity documents.",
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
