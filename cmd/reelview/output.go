package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/vmunix/reelview/internal/movie"
	"github.com/vmunix/reelview/internal/render"
)

const cardWidth = 60

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))
	filledStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
	emptyStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	mutedStyle   = lipgloss.NewStyle().Italic(true).Foreground(lipgloss.Color("246"))
	buttonStyle  = lipgloss.NewStyle().Bold(true).Padding(0, 2).Border(lipgloss.NormalBorder())
	cardStyle    = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1).Width(cardWidth)
	warningStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("208"))
)

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// showOutput is the --json form of a view state.
type showOutput struct {
	State    string        `json:"state"`
	Movie    *movie.Record `json:"movie,omitempty"`
	Stars    *int          `json:"stars,omitempty"`
	EmbedURL string        `json:"embedUrl,omitempty"`
}

func newShowOutput(state movie.ViewState, opts render.Options) showOutput {
	out := showOutput{State: state.Phase().String()}
	rec, ok := state.Record()
	if !ok {
		return out
	}
	out.Movie = &rec
	if rec.HasRating() {
		n := movie.Stars(*rec.Rating)
		out.Stars = &n
	}
	if rec.HasTrailer() {
		out.EmbedURL = movie.EmbedURL(opts.EmbedHost, *rec.TrailerID)
	}
	return out
}

// printMovie writes the terminal rendition of the same page the web handler serves.
func printMovie(w io.Writer, state movie.ViewState, opts render.Options) {
	page := render.NewPage(state, opts)

	switch {
	case page.Loading():
		_, _ = fmt.Fprintln(w, mutedStyle.Render("Loading..."))
		return
	case page.NotFound():
		_, _ = fmt.Fprintln(w, warningStyle.Render("Movie not found"))
		return
	}

	mv := page.Movie
	var b strings.Builder
	b.WriteString(titleStyle.Render(mv.Title))
	b.WriteString("\n")
	if mv.HasRating {
		b.WriteString(starRow(mv.Stars))
		fmt.Fprintf(&b, " %.1f/10\n", mv.Rating)
	}
	if mv.Image != "" {
		b.WriteString(mutedStyle.Render("Image: " + mv.Image))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(mv.Description)
	b.WriteString("\n")
	if mv.EmbedURL != "" {
		b.WriteString("\nTrailer: " + mv.EmbedURL + "\n")
	}
	b.WriteString("\n")
	b.WriteString(buttonStyle.Render("Download Movie"))

	_, _ = fmt.Fprintln(w, cardStyle.Render(b.String()))
}

func starRow(slots [movie.MaxStars]bool) string {
	var b strings.Builder
	for _, filled := range slots {
		if filled {
			b.WriteString(filledStyle.Render("★"))
		} else {
			b.WriteString(emptyStyle.Render("☆"))
		}
	}
	return b.String()
}
