package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
)

var findCmd = &cobra.Command{
	Use:   "find [flags] [query]...",
	Short: "Find movies in the catalog",
	Long: `List catalog movies. With a query, results are ranked by title similarity.

Examples:
  reelview find
  reelview find "The Matrix"
  reelview find --limit 5 matrix`,
	RunE: runFindCmd,
}

func init() {
	rootCmd.AddCommand(findCmd)
	findCmd.Flags().Int("limit", 20, "Maximum number of results")
}

func runFindCmd(cmd *cobra.Command, args []string) error {
	query := strings.Join(args, " ")
	limit, _ := cmd.Flags().GetInt("limit")

	client := NewClient(serverURL)
	resp, err := client.FindMovies(cmd.Context(), query, limit)
	if err != nil {
		return fmt.Errorf("find failed: %w", err)
	}

	out := cmd.OutOrStdout()
	if jsonOutput {
		return writeJSON(out, resp)
	}
	printFindHuman(out, query, resp)
	return nil
}

func printFindHuman(w io.Writer, query string, r *ListMoviesResponse) {
	if len(r.Items) == 0 {
		if query != "" {
			_, _ = fmt.Fprintf(w, "No movies match %q\n", query)
		} else {
			_, _ = fmt.Fprintln(w, "No movies in catalog")
		}
		return
	}

	if query != "" {
		_, _ = fmt.Fprintf(w, "Found %d movies for %q:\n\n", len(r.Items), query)
	} else {
		_, _ = fmt.Fprintf(w, "%d of %d movies:\n\n", len(r.Items), r.Total)
	}
	_, _ = fmt.Fprintf(w, "  %-12s │ %-36s │ %6s │ %5s\n", "ID", "TITLE", "RATING", "SCORE")
	_, _ = fmt.Fprintln(w, "  ─────────────┼──────────────────────────────────────┼────────┼──────")

	for _, m := range r.Items {
		title := m.Title
		if len([]rune(title)) > 36 {
			title = string([]rune(title)[:33]) + "..."
		}
		rating := "-"
		if m.HasRating() {
			rating = fmt.Sprintf("%.1f", *m.Rating)
		}
		score := ""
		if m.Score != nil {
			score = fmt.Sprintf("%.2f", *m.Score)
		}
		_, _ = fmt.Fprintf(w, "  %-12s │ %-36s │ %6s │ %5s\n", m.ID, title, rating, score)
	}
}
