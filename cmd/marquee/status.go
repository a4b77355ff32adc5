package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show daemon status",
	Args:  cobra.NoArgs,
	RunE:  runStatusCmd,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatusCmd(cmd *cobra.Command, _ []string) error {
	client := NewClient(serverURL)
	status, err := client.Status()
	if err != nil {
		return fmt.Errorf("status check failed: %w", err)
	}

	if jsonOutput {
		return printJSON(cmd.OutOrStdout(), status)
	}

	printStatusHuman(cmd.OutOrStdout(), serverURL, status)
	return nil
}

func printStatusHuman(w io.Writer, server string, s *StatusResponse) {
	_, _ = fmt.Fprintf(w, "Server:     %s (%s)\n", server, s.Status)
	_, _ = fmt.Fprintf(w, "Version:    %s\n", s.Version)
	_, _ = fmt.Fprintf(w, "Store:      %s, %d cached\n", s.Driver, s.CachedEntries)
	_, _ = fmt.Fprintf(w, "Freshness:  %s\n", s.FreshnessWindow)
}
