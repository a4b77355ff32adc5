package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/vmunix/marquee/internal/config"
	"github.com/vmunix/marquee/internal/store"
)

var pruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete stored movies that have not been refreshed recently",
	Long: `Delete stored movies whose last refresh is older than the retention window.

Opens the configured store directly; the daemon does not need to be running
and no TMDB access token is required. Without --older-than the
cache.retention setting is used.

Examples:
  marquee prune
  marquee prune --older-than 720h --config /etc/marquee/config.toml`,
	Args: cobra.NoArgs,
	RunE: runPruneCmd,
}

func init() {
	rootCmd.AddCommand(pruneCmd)
	pruneCmd.Flags().Duration("older-than", 0, "Retention window (default: cache.retention)")
	pruneCmd.Flags().String("config", "", "Path to config file (default: discovered)")
}

type pruneResult struct {
	Deleted   int64  `json:"deleted"`
	OlderThan string `json:"older_than"`
	Remaining int    `json:"remaining"`
}

func runPruneCmd(cmd *cobra.Command, _ []string) error {
	olderThan, _ := cmd.Flags().GetDuration("older-than")
	configPath, _ := cmd.Flags().GetString("config")

	src, err := config.Locate(configPath)
	if err != nil {
		return err
	}
	cfg, err := config.Load(src.Path, config.WithoutToken())
	if err != nil {
		return err
	}

	return runPrune(cmd.Context(), cmd.OutOrStdout(), cfg, olderThan)
}

func runPrune(ctx context.Context, w io.Writer, cfg *config.Config, olderThan time.Duration) error {
	if olderThan == 0 {
		olderThan = cfg.Cache.Retention
	}
	if olderThan < 0 {
		return fmt.Errorf("--older-than must be positive, got %s", olderThan)
	}

	st, err := store.Open(ctx, store.Options{
		Driver: cfg.Database.Driver,
		Path:   cfg.Database.Path,
		DSN:    cfg.Database.DSN,
	})
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer func() { _ = st.Close() }()

	deleted, err := st.Prune(ctx, olderThan)
	if err != nil {
		return fmt.Errorf("prune: %w", err)
	}
	remaining, err := st.Count(ctx)
	if err != nil {
		return fmt.Errorf("count: %w", err)
	}

	res := pruneResult{Deleted: deleted, OlderThan: olderThan.String(), Remaining: remaining}
	if jsonOutput {
		return printJSON(w, res)
	}
	_, _ = fmt.Fprintf(w, "Deleted %d movies not refreshed in %s (%d remaining)\n", res.Deleted, res.OlderThan, res.Remaining)
	return nil
}
