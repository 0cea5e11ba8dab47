package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/vmunix/reelview/internal/catalog"
	"github.com/vmunix/reelview/internal/loader"
	"github.com/vmunix/reelview/internal/movie"
	"github.com/vmunix/reelview/internal/render"
)

var (
	errMovieNotFound = errors.New("movie not found")
	errStillLoading  = errors.New("movie still loading")
)

var showCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show movie details",
	Long: `Load a movie from the catalog and print its details page.

Examples:
  reelview show tt0133093
  reelview show --embed-host www.youtube-nocookie.com tt0133093
  reelview show --json tt0133093`,
	Args: cobra.ExactArgs(1),
	RunE: runShowCmd,
}

func init() {
	rootCmd.AddCommand(showCmd)
	showCmd.Flags().Duration("timeout", 10*time.Second, "How long to wait for the movie to load")
	showCmd.Flags().String("embed-host", movie.DefaultEmbedHost, "Video host for trailer embeds")
	showCmd.Flags().String("placeholder", movie.DefaultPlaceholder, "Text shown when a movie has no description")
}

func runShowCmd(cmd *cobra.Command, args []string) error {
	timeout, _ := cmd.Flags().GetDuration("timeout")
	embedHost, _ := cmd.Flags().GetString("embed-host")
	placeholder, _ := cmd.Flags().GetString("placeholder")
	opts := render.Options{EmbedHost: embedHost, Placeholder: placeholder}

	state, err := loadMovie(cmd.Context(), serverURL, args[0], timeout)
	if err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	out := cmd.OutOrStdout()
	if jsonOutput {
		if err := writeJSON(out, newShowOutput(state, opts)); err != nil {
			return err
		}
	} else {
		printMovie(out, state, opts)
	}

	switch state.Phase() {
	case movie.PhaseNotFound:
		return fmt.Errorf("%w: %s", errMovieNotFound, args[0])
	case movie.PhaseLoading:
		return fmt.Errorf("%w after %s", errStillLoading, timeout)
	}
	return nil
}

// loadMovie drives a loader for id until it settles or timeout passes.
func loadMovie(ctx context.Context, server, id string, timeout time.Duration) (movie.ViewState, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	// Fetch failures are reported as NotFound; the CLI keeps its own output clean.
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	client := catalog.NewClient(server, catalog.WithCacheTTL(0))

	l := loader.New(client, loader.WithContext(ctx), loader.WithLogger(log))
	defer l.Close()
	l.SetID(id)

	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return l.Wait(waitCtx)
}
