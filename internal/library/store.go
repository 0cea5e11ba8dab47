// Package library stores the movie catalog served at /api/movies.
package library

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/vmunix/reelview/internal/movie"
)

// querier abstracts *sql.DB and *sql.Tx for shared query logic.
type querier interface {
	QueryRow(query string, args ...any) *sql.Row
	Query(query string, args ...any) (*sql.Rows, error)
	Exec(query string, args ...any) (sql.Result, error)
}

// Movie is a catalog row: the served record plus bookkeeping timestamps.
type Movie struct {
	movie.Record
	AddedAt   time.Time `json:"addedAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Filter specifies criteria for listing movies.
type Filter struct {
	Title  *string // exact title
	Limit  int     // 0 = no limit
	Offset int
}

// Store provides access to the movie catalog.
type Store struct {
	db *sql.DB
}

// NewStore creates a new library store.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Begin starts a transaction.
func (s *Store) Begin() (*Tx, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	return &Tx{tx: tx}, nil
}

// Tx wraps a database transaction with the same methods as Store.
type Tx struct {
	tx *sql.Tx
}

// Commit commits the transaction.
func (t *Tx) Commit() error { return t.tx.Commit() }

// Rollback aborts the transaction.
func (t *Tx) Rollback() error { return t.tx.Rollback() }

// Validate checks the invariants the catalog enforces on a record.
func Validate(r *movie.Record) error {
	if strings.TrimSpace(r.ID) == "" {
		return fmt.Errorf("%w: id is required", ErrInvalid)
	}
	if strings.ContainsAny(r.ID, "/?#") {
		return fmt.Errorf("%w: id %q contains reserved characters", ErrInvalid, r.ID)
	}
	if strings.TrimSpace(r.Title) == "" {
		return fmt.Errorf("%w: title is required", ErrInvalid)
	}
	if r.Rating != nil && (*r.Rating < 0 || *r.Rating > 10) {
		return fmt.Errorf("%w: rating must be between 0 and 10, got %g", ErrInvalid, *r.Rating)
	}
	if r.HasTrailer() && !movie.ValidTrailerID(*r.TrailerID) {
		return fmt.Errorf("%w: trailer id %q must contain only letters, digits, '-' and '_'", ErrInvalid, *r.TrailerID)
	}
	return nil
}

const movieColumns = "id, title, description, image, rating, trailer_id, added_at, updated_at"

type scanner interface {
	Scan(dest ...any) error
}

func scanMovie(sc scanner) (*Movie, error) {
	var (
		m                              Movie
		description, image, trailerID sql.NullString
		rating                         sql.NullFloat64
	)
	if err := sc.Scan(&m.ID, &m.Title, &description, &image, &rating, &trailerID, &m.AddedAt, &m.UpdatedAt); err != nil {
		return nil, err
	}
	m.Description = nullString(description)
	m.Image = nullString(image)
	m.TrailerID = nullString(trailerID)
	if rating.Valid {
		m.Rating = movie.Float(rating.Float64)
	}
	return &m, nil
}

func nullString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	return movie.String(ns.String)
}

func addMovie(q querier, r *movie.Record) (*Movie, error) {
	if err := Validate(r); err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	_, err := q.Exec(`
		INSERT INTO movies (id, title, description, image, rating, trailer_id, added_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.Title, r.Description, r.Image, r.Rating, r.TrailerID, now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("insert movie %q: %w", r.ID, mapSQLiteError(err))
	}
	return &Movie{Record: *r, AddedAt: now, UpdatedAt: now}, nil
}

// AddMovie inserts a new movie. Returns ErrDuplicate if the id is taken.
func (s *Store) AddMovie(r *movie.Record) (*Movie, error) { return addMovie(s.db, r) }

// AddMovie inserts a new movie within a transaction.
func (t *Tx) AddMovie(r *movie.Record) (*Movie, error) { return addMovie(t.tx, r) }

func getMovie(q querier, id string) (*Movie, error) {
	m, err := scanMovie(q.QueryRow("SELECT "+movieColumns+" FROM movies WHERE id = ?", id))
	if err != nil {
		return nil, fmt.Errorf("get movie %q: %w", id, mapSQLiteError(err))
	}
	return m, nil
}

// GetMovie retrieves a movie by id.
// Returns ErrNotFound if the movie does not exist.
func (s *Store) GetMovie(id string) (*Movie, error) { return getMovie(s.db, id) }

// GetMovie retrieves a movie by id within a transaction.
func (t *Tx) GetMovie(id string) (*Movie, error) { return getMovie(t.tx, id) }

func listMovies(q querier, f Filter) ([]*Movie, int, error) {
	var conditions []string
	var args []any

	if f.Title != nil {
		conditions = append(conditions, "title = ?")
		args = append(args, *f.Title)
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	if err := q.QueryRow("SELECT COUNT(*) FROM movies "+whereClause, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count movies: %w", err)
	}

	query := "SELECT " + movieColumns + " FROM movies " + whereClause + " ORDER BY title, id"
	if f.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", f.Limit, f.Offset)
	}

	rows, err := q.Query(query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list movies: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []*Movie
	for rows.Next() {
		m, err := scanMovie(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan movie: %w", err)
		}
		results = append(results, m)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate movies: %w", err)
	}
	return results, total, nil
}

// ListMovies returns movies matching the filter, ordered by title.
// Returns (results, totalCount, error).
func (s *Store) ListMovies(f Filter) ([]*Movie, int, error) { return listMovies(s.db, f) }

// ListMovies returns movies matching the filter within a transaction.
func (t *Tx) ListMovies(f Filter) ([]*Movie, int, error) { return listMovies(t.tx, f) }

func updateMovie(q querier, r *movie.Record) (*Movie, error) {
	if err := Validate(r); err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	result, err := q.Exec(`
		UPDATE movies SET title = ?, description = ?, image = ?, rating = ?, trailer_id = ?, updated_at = ?
		WHERE id = ?`,
		r.Title, r.Description, r.Image, r.Rating, r.TrailerID, now, r.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("update movie %q: %w", r.ID, mapSQLiteError(err))
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("rows affected: %w", err)
	}
	if rows == 0 {
		return nil, fmt.Errorf("update movie %q: %w", r.ID, ErrNotFound)
	}
	return getMovie(q, r.ID)
}

// UpdateMovie replaces an existing movie's fields.
// Returns ErrNotFound if the movie does not exist.
func (s *Store) UpdateMovie(r *movie.Record) (*Movie, error) { return updateMovie(s.db, r) }

// UpdateMovie replaces an existing movie's fields within a transaction.
func (t *Tx) UpdateMovie(r *movie.Record) (*Movie, error) { return updateMovie(t.tx, r) }

func deleteMovie(q querier, id string) error {
	result, err := q.Exec("DELETE FROM movies WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete movie %q: %w", id, mapSQLiteError(err))
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("delete movie %q: %w", id, ErrNotFound)
	}
	return nil
}

// DeleteMovie removes a movie by id. Returns ErrNotFound if it does not exist.
func (s *Store) DeleteMovie(id string) error { return deleteMovie(s.db, id) }

// DeleteMovie removes a movie by id within a transaction.
func (t *Tx) DeleteMovie(id string) error { return deleteMovie(t.tx, id) }
