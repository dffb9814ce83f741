package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pitchforge/pitchforge/internal/export"
	"github.com/pitchforge/pitchforge/internal/pipeline"
	"github.com/pitchforge/pitchforge/internal/scrape"
	anthropicpkg "github.com/pitchforge/pitchforge/pkg/anthropic"
)

var (
	runSession string
	runAll     bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the analysis pipeline for a scrape session",
	Long:  "Extracts problems from raw leads, consolidates them into themes, defines and validates opportunities, and generates BRD, PRD, and agile plan documents.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		if err := cfg.Validate(); err != nil {
			return err
		}

		sessionID := runSession
		if sessionID == "" && !runAll {
			recorded, err := scrape.ReadSessionFile(cfg.Export.SessionFile)
			if err != nil {
				return err
			}
			if recorded == "" {
				return eris.New("no session recorded; pass --session or --all")
			}
			sessionID = recorded
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return eris.Wrap(err, "migrate store")
		}

		p := pipeline.New(cfg, st,
			anthropicpkg.NewClient(cfg.Anthropic.Key),
			export.NewExporter(cfg.Export.OutputDir),
		)

		summary, err := p.Run(ctx, sessionID)
		if err != nil {
			return eris.Wrap(err, "pipeline run")
		}

		zap.L().Info("pipeline complete",
			zap.String("session", summary.SessionID),
			zap.Int("leads_analyzed", summary.LeadsAnalyzed),
			zap.Int("opportunities", summary.OpportunitiesCreated),
			zap.Int("completed", summary.Completed),
			zap.Int("documents", summary.DocumentsWritten),
			zap.Duration("duration", summary.Duration),
		)

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(summary)
	},
}

func init() {
	runCmd.Flags().StringVar(&runSession, "session", "", "scrape session to process (defaults to the last recorded session)")
	runCmd.Flags().BoolVar(&runAll, "all", false, "process leads from every session")
	rootCmd.AddCommand(runCmd)
}
