package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"example/chessdebrief/app"
	"example/chessdebrief/app/config"
	"example/chessdebrief/app/logger"
	"example/chessdebrief/app/models"
	"example/chessdebrief/app/report"
)

var (
	platform string
	tcType   string
	maxGames int
	outDir   string
)

func main() {
	rootCmd := &cobra.Command{
		Use:          "debrief <username>",
		Short:        "Analyze a player's recent games and write a markdown coaching report",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE:         run,
	}
	rootCmd.Flags().StringVarP(&platform, "platform", "p", string(models.PlatformLichess), "lichess or chess.com")
	rootCmd.Flags().StringVarP(&tcType, "type", "t", "Rapid", "time control: Bullet, Blitz, Rapid, Classical (lichess) or Daily (chess.com)")
	rootCmd.Flags().IntVarP(&maxGames, "games", "n", 20, "number of recent games to analyze (1-50)")
	rootCmd.Flags().StringVarP(&outDir, "out", "o", ".", "directory to write the report to")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger.Init(cfg.Logs.Level, "console")

	coach, err := app.NewAnthropicCoach(cfg.Anthropic)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Minute)
	defer cancel()

	username := args[0]
	tc := models.TimeControl(strings.ToLower(tcType))
	fmt.Fprintf(cmd.OutOrStdout(), "Analyzing %d %s games for %s on %s...\n", maxGames, tc.Label(), username, platform)

	r, games, err := app.Debrief(ctx, coach, username, models.Platform(strings.ToLower(platform)), tc, maxGames)
	if err != nil {
		return err
	}

	printRatings(cmd, r.Ratings)

	now := time.Now()
	path := filepath.Join(outDir, app.ReportFilename(r.Username, r.Platform, tc, now))
	if err := os.WriteFile(path, []byte(app.RenderMarkdown(r, games, now)), 0o644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "\nReport written to %s\n", path)
	return nil
}

func printRatings(cmd *cobra.Command, ratings models.RatingsMap) {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "\nTIME CONTROL\tRATING\tPROG\tGAMES")
	for _, v := range report.RatingViews(ratings) {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\n", v.Label, v.Rating, v.Prog.Symbol, v.Games)
	}
	w.Flush()
}
