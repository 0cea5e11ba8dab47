// Package movie defines the movie record and the view-model rendered for it.
package movie

import (
	"math"
	"net/url"
	"strings"
)

// DefaultPlaceholder is shown when a record carries no description.
const DefaultPlaceholder = "No description available."

// DefaultEmbedHost is the video provider used for trailer embeds.
const DefaultEmbedHost = "www.youtube.com"

// MaxStars is the number of slots in the star row.
const MaxStars = 5

// Record is the movie document served by the catalog.
// Optional fields are pointers: nil means absent.
type Record struct {
	ID          string   `json:"id,omitempty"`
	Title       string   `json:"title"`
	Description *string  `json:"description,omitempty"`
	Image       *string  `json:"image,omitempty"`
	Rating      *float64 `json:"rating,omitempty"` // 0-10
	TrailerID   *string  `json:"trailerId,omitempty"`
}

// Usable reports whether the record can be displayed.
func (r *Record) Usable() bool {
	return r != nil && strings.TrimSpace(r.Title) != ""
}

// HasDescription reports whether a non-blank description is present.
func (r *Record) HasDescription() bool {
	return r.Description != nil && strings.TrimSpace(*r.Description) != ""
}

// DescriptionOr returns the description, or placeholder when absent.
func (r *Record) DescriptionOr(placeholder string) string {
	if r.HasDescription() {
		return *r.Description
	}
	if placeholder == "" {
		return DefaultPlaceholder
	}
	return placeholder
}

// ImageURL returns the image URI or "".
func (r *Record) ImageURL() string {
	if r.Image == nil {
		return ""
	}
	return strings.TrimSpace(*r.Image)
}

// HasRating reports whether a rating is present. A rating of 0 counts.
func (r *Record) HasRating() bool {
	return r.Rating != nil && !math.IsNaN(*r.Rating)
}

// HasTrailer reports whether a non-blank trailer id is present.
func (r *Record) HasTrailer() bool {
	return r.TrailerID != nil && strings.TrimSpace(*r.TrailerID) != ""
}

// Stars maps a 0-10 rating to filled stars: round(rating/2) clamped to [0,5].
// Halves round up, so 7 gives 4.
func Stars(rating float64) int {
	if math.IsNaN(rating) {
		return 0
	}
	n := int(math.Floor(rating/2 + 0.5))
	if n < 0 {
		return 0
	}
	if n > MaxStars {
		return MaxStars
	}
	return n
}

// StarSlots returns the star row; slot i is filled iff i < Stars(rating).
func StarSlots(rating float64) [MaxStars]bool {
	var slots [MaxStars]bool
	filled := Stars(rating)
	for i := range slots {
		slots[i] = i < filled
	}
	return slots
}

// ValidTrailerID reports whether id is a plain video id: letters, digits,
// '-' and '_'. Such ids appear in the embed URI unchanged.
func ValidTrailerID(id string) bool {
	if id == "" {
		return false
	}
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
		default:
			return false
		}
	}
	return true
}

// EmbedURL builds the trailer embed URI for the given provider host.
// Valid ids are inserted verbatim; anything else from an unvalidated
// catalog is path-escaped.
func EmbedURL(host, trailerID string) string {
	if host == "" {
		host = DefaultEmbedHost
	}
	return "https://" + host + "/embed/" + url.PathEscape(strings.TrimSpace(trailerID))
}

// String returns a pointer to s, for building records.
func String(s string) *string { return &s }

// Float returns a pointer to f, for building records.
func Float(f float64) *float64 { return &f }
