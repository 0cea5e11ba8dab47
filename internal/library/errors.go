package library

import (
	"database/sql"
	"errors"
	"strings"
)

var (
	// ErrNotFound indicates the requested movie doesn't exist.
	ErrNotFound = errors.New("not found")

	// ErrDuplicate indicates a movie with the same id already exists.
	ErrDuplicate = errors.New("duplicate entry")

	// ErrInvalid indicates a movie failed validation (missing id/title, rating out of range).
	ErrInvalid = errors.New("invalid movie")
)

// mapSQLiteError converts SQLite errors to the package sentinels.
func mapSQLiteError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	// modernc.org/sqlite wraps errors; check error message for constraint violations
	errStr := err.Error()
	if strings.Contains(errStr, "UNIQUE constraint failed") ||
		strings.Contains(errStr, "PRIMARY KEY constraint failed") {
		return ErrDuplicate
	}
	if strings.Contains(errStr, "CHECK constraint failed") ||
		strings.Contains(errStr, "NOT NULL constraint failed") {
		return ErrInvalid
	}
	return err
}
