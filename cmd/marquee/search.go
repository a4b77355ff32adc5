package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vmunix/marquee/pkg/titlematch"
)

var searchCmd = &cobra.Command{
	Use:   "search <title>...",
	Short: "Search movies by title",
	Long: `Search movies by title through the daemon.

Prints the best matching movie and up to five similar movies. Each title is
rated locally against the query.

Examples:
  marquee search "The Matrix"
  marquee search dune --json`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSearchCmd,
}

func init() {
	rootCmd.AddCommand(searchCmd)
}

func runSearchCmd(cmd *cobra.Command, args []string) error {
	query := strings.Join(args, " ")

	client := NewClient(serverURL)
	res, err := client.Search(query)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if jsonOutput {
		return printJSON(cmd.OutOrStdout(), res)
	}

	printSearchHuman(cmd.OutOrStdout(), query, res)
	return nil
}

func printSearchHuman(w io.Writer, query string, res *SearchResponse) {
	if res.Movie == nil {
		_, _ = fmt.Fprintf(w, "No movie found for %q\n", query)
		return
	}

	m := res.Movie
	match := titlematch.Rate(query, m.Title)
	if m.OriginalTitle != "" && m.OriginalTitle != m.Title {
		if alt := titlematch.Rate(query, m.OriginalTitle); alt.Score > match.Score {
			match.Score, match.Level = alt.Score, alt.Level
		}
	}

	year := "unknown"
	if m.ReleaseYear > 0 {
		year = fmt.Sprintf("%d", m.ReleaseYear)
	}

	_, _ = fmt.Fprintf(w, "%s (%s)  [tmdb:%d]\n", m.Title, year, m.ID)
	if m.OriginalTitle != "" && m.OriginalTitle != m.Title {
		_, _ = fmt.Fprintf(w, "  Original:  %s\n", m.OriginalTitle)
	}
	_, _ = fmt.Fprintf(w, "  Match:     %s (%.2f)\n", match.Level, match.Score)
	_, _ = fmt.Fprintf(w, "  Rating:    %.1f (%d votes)\n", m.VoteAverage, m.VoteCount)
	if res.Source != "" {
		_, _ = fmt.Fprintf(w, "  Source:    %s\n", res.Source)
	}
	if m.Overview != "" {
		_, _ = fmt.Fprintf(w, "  Overview:  %s\n", truncate(m.Overview, 200))
	}

	if len(res.SimilarMovies) == 0 {
		return
	}
	_, _ = fmt.Fprintln(w)
	_, _ = fmt.Fprintln(w, "Similar")
	for i, label := range res.SimilarMovies {
		_, _ = fmt.Fprintf(w, "  %d. %s\n", i+1, label)
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
