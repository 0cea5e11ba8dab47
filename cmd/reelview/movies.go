package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vmunix/reelview/internal/movie"
)

var addCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a movie to the catalog",
	Long: `Add a movie record to the catalog.

Examples:
  reelview add --id tt0133093 --title "The Matrix" --rating 8.7 --trailer vKQi3bBA1y8`,
	Args: cobra.NoArgs,
	RunE: runAddCmd,
}

var rmCmd = &cobra.Command{
	Use:     "rm <id>",
	Aliases: []string{"remove"},
	Short:   "Remove a movie from the catalog",
	Args:    cobra.ExactArgs(1),
	RunE:    runRmCmd,
}

func init() {
	rootCmd.AddCommand(addCmd)
	rootCmd.AddCommand(rmCmd)

	registerRecordFlags(addCmd)
}

func registerRecordFlags(cmd *cobra.Command) {
	cmd.Flags().String("id", "", "Movie id (required)")
	cmd.Flags().String("title", "", "Movie title (required)")
	cmd.Flags().String("description", "", "Description")
	cmd.Flags().String("image", "", "Poster image URL")
	cmd.Flags().Float64("rating", 0, "Rating from 0 to 10")
	cmd.Flags().String("trailer", "", "YouTube trailer id")
	_ = cmd.MarkFlagRequired("id")
	_ = cmd.MarkFlagRequired("title")
}

// recordFromFlags builds a record; optional fields stay nil unless the flag was given.
func recordFromFlags(cmd *cobra.Command) movie.Record {
	flags := cmd.Flags()
	id, _ := flags.GetString("id")
	title, _ := flags.GetString("title")
	rec := movie.Record{ID: id, Title: title}

	if flags.Changed("description") {
		v, _ := flags.GetString("description")
		rec.Description = movie.String(v)
	}
	if flags.Changed("image") {
		v, _ := flags.GetString("image")
		rec.Image = movie.String(v)
	}
	if flags.Changed("rating") {
		v, _ := flags.GetFloat64("rating")
		rec.Rating = movie.Float(v)
	}
	if flags.Changed("trailer") {
		v, _ := flags.GetString("trailer")
		rec.TrailerID = movie.String(v)
	}
	return rec
}

func runAddCmd(cmd *cobra.Command, _ []string) error {
	client := NewClient(serverURL)
	added, err := client.AddMovie(cmd.Context(), recordFromFlags(cmd))
	if err != nil {
		return fmt.Errorf("add failed: %w", err)
	}

	if jsonOutput {
		return writeJSON(cmd.OutOrStdout(), added)
	}
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Added %s (%s)\n", added.Title, added.ID)
	return nil
}

func runRmCmd(cmd *cobra.Command, args []string) error {
	client := NewClient(serverURL)
	if err := client.DeleteMovie(cmd.Context(), args[0]); err != nil {
		return fmt.Errorf("remove failed: %w", err)
	}
	if jsonOutput {
		return writeJSON(cmd.OutOrStdout(), map[string]string{"deleted": args[0]})
	}
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", args[0])
	return nil
}
