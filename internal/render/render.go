// Package render turns a movie.ViewState into the movie details HTML page.
package render

import (
	"embed"
	"fmt"
	"html/template"
	"io"

	"github.com/vmunix/reelview/internal/movie"
)

//go:embed templates/*.html
var templateFS embed.FS

// Page is the template view-model for one ViewState.
type Page struct {
	Phase          string
	DocumentTitle  string
	RefreshSeconds int // Loading only; 0 omits the refresh meta tag
	Movie          *MovieView
}

// MovieView holds display-ready fields of a loaded record.
type MovieView struct {
	Title       string
	Description string
	Keywords    string
	Image       string
	HasRating   bool
	Rating      float64
	Stars       [movie.MaxStars]bool
	EmbedURL    string // empty when no trailer
}

// Loading reports whether the page shows the spinner.
func (p Page) Loading() bool { return p.Phase == movie.PhaseLoading.String() }

// NotFound reports whether the page shows the not-found message.
func (p Page) NotFound() bool { return p.Phase == movie.PhaseNotFound.String() }

// Options control how records are presented.
type Options struct {
	EmbedHost      string
	Placeholder    string
	RefreshSeconds int
}

// NewPage builds the view-model for state.
func NewPage(state movie.ViewState, opts Options) Page {
	p := Page{Phase: state.Phase().String()}

	switch state.Phase() {
	case movie.PhaseLoading:
		p.DocumentTitle = "Loading..."
		p.RefreshSeconds = opts.RefreshSeconds
	case movie.PhaseNotFound:
		p.DocumentTitle = "Movie not found"
	case movie.PhaseLoaded:
		rec, _ := state.Record()
		mv := &MovieView{
			Title:       rec.Title,
			Description: rec.DescriptionOr(opts.Placeholder),
			Keywords:    fmt.Sprintf("%s, movie, film", rec.Title),
			Image:       rec.ImageURL(),
		}
		if rec.HasRating() {
			mv.HasRating = true
			mv.Rating = *rec.Rating
			mv.Stars = movie.StarSlots(*rec.Rating)
		}
		if rec.HasTrailer() {
			mv.EmbedURL = movie.EmbedURL(opts.EmbedHost, *rec.TrailerID)
		}
		p.Movie = mv
		p.DocumentTitle = rec.Title + " - Movie Details"
	}
	return p
}

// Renderer executes the page templates.
type Renderer struct {
	tmpl *template.Template
	opts Options
}

// New parses the embedded templates.
func New(opts Options) (*Renderer, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	return &Renderer{tmpl: tmpl, opts: opts}, nil
}

// Render writes the page for state to w.
func (r *Renderer) Render(w io.Writer, state movie.ViewState) error {
	return r.RenderPage(w, NewPage(state, r.opts))
}

// RenderPage writes a prepared page to w.
func (r *Renderer) RenderPage(w io.Writer, p Page) error {
	if err := r.tmpl.ExecuteTemplate(w, "page.html", p); err != nil {
		return fmt.Errorf("render %s page: %w", p.Phase, err)
	}
	return nil
}
