package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pitchforge/pitchforge/internal/scrape"
	"github.com/pitchforge/pitchforge/pkg/reddit"
)

var (
	scrapeLimit    int
	scrapeComments bool
)

var scrapeCmd = &cobra.Command{
	Use:   "scrape <subreddit>...",
	Short: "Scrape subreddits into raw leads",
	Long:  "Fetches the newest posts (and optionally comments) from each subreddit and stores them as raw leads under a fresh session.",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return eris.Wrap(err, "migrate store")
		}

		redditCfg := cfg.Reddit
		if scrapeLimit > 0 {
			redditCfg.PostLimit = scrapeLimit
		}
		client := reddit.NewClient(redditCfg.UserAgent, reddit.WithRateLimit(redditCfg.RequestsPerSec))

		result, err := scrape.New(client, st, redditCfg).Run(ctx, args, scrapeComments)
		if err != nil {
			return eris.Wrap(err, "scrape run")
		}

		if err := scrape.WriteSessionFile(cfg.Export.SessionFile, result.SessionID); err != nil {
			zap.L().Warn("failed to record session", zap.Error(err))
		}

		zap.L().Info("scrape complete",
			zap.String("session", result.SessionID),
			zap.Int("posts", result.Posts),
			zap.Int("comments", result.Comments),
			zap.Int("inserted", result.Inserted),
			zap.Int("duplicates", result.Duplicates),
		)

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	},
}

func init() {
	scrapeCmd.Flags().IntVar(&scrapeLimit, "limit", 0, "posts per subreddit (overrides config)")
	scrapeCmd.Flags().BoolVar(&scrapeComments, "comments", false, "also scrape comments for each post")
	rootCmd.AddCommand(scrapeCmd)
}
