package v1

import (
	"errors"

	"github.com/vmunix/reelview/internal/events"
	"github.com/vmunix/reelview/internal/library"
)

// ErrMissingDependency is returned when a required dependency is nil.
var ErrMissingDependency = errors.New("missing required dependency")

// ServerDeps contains all dependencies for the API server.
// Required dependencies must be non-nil; optional dependencies may be nil.
type ServerDeps struct {
	// Required
	Library *library.Store

	// Optional
	Bus      *events.Bus      // mutation events
	EventLog *events.EventLog // GET /api/events
}

// Validate checks that all required dependencies are provided.
func (d ServerDeps) Validate() error {
	if d.Library == nil {
		return errors.New("library store is required")
	}
	return nil
}
