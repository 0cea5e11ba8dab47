package library

import (
	"errors"
	"fmt"

	"github.com/vmunix/reelview/internal/movie"
)

// ImportResult counts what ImportMovies changed.
type ImportResult struct {
	Added   int `json:"added"`
	Updated int `json:"updated"`
}

// ImportMovies upserts records in one transaction. Any invalid record aborts the whole import.
func (s *Store) ImportMovies(records []movie.Record) (ImportResult, error) {
	var res ImportResult

	tx, err := s.Begin()
	if err != nil {
		return res, err
	}
	defer func() { _ = tx.Rollback() }()

	for i := range records {
		r := &records[i]
		_, err := tx.GetMovie(r.ID)
		switch {
		case errors.Is(err, ErrNotFound):
			if _, err := tx.AddMovie(r); err != nil {
				return ImportResult{}, fmt.Errorf("import record %d: %w", i, err)
			}
			res.Added++
		case err != nil:
			return ImportResult{}, fmt.Errorf("import record %d: %w", i, err)
		default:
			if _, err := tx.UpdateMovie(r); err != nil {
				return ImportResult{}, fmt.Errorf("import record %d: %w", i, err)
			}
			res.Updated++
		}
	}

	if err := tx.Commit(); err != nil {
		return ImportResult{}, fmt.Errorf("commit import: %w", err)
	}
	return res, nil
}
