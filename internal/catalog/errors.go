package catalog

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when the catalog has no usable record for an id.
	ErrNotFound = errors.New("movie not found")

	// ErrMalformed is returned when the response body is not a movie record.
	ErrMalformed = errors.New("malformed movie record")
)

// StatusError reports a non-2xx response other than 404.
type StatusError struct {
	URL        string
	StatusCode int
	Status     string
}

func (e *StatusError) Error() string {
	if e.Status != "" {
		return fmt.Sprintf("catalog API error: %s", e.Status)
	}
	return fmt.Sprintf("catalog API error: HTTP %d", e.StatusCode)
}

// Kind classifies a fetch error for logging.
func Kind(err error) string {
	var se *StatusError
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNotFound):
		return "record_absent"
	case errors.Is(err, ErrMalformed):
		return "malformed_response"
	case errors.As(err, &se):
		return "bad_status"
	default:
		return "network_failure"
	}
}
