package mysql

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/movie-ticket-booking/internal/model"
	"github.com/iliyamo/movie-ticket-booking/internal/store"
)

const movieColumns = `id, title, description, genre, duration_minutes, rating,
	release_date, is_active, created_at, updated_at`

func scanMovie(row interface{ Scan(...interface{}) error }) (*model.Movie, error) {
	var m model.Movie
	var releaseDate sql.NullTime
	err := row.Scan(&m.ID, &m.Title, &m.Description, &m.Genre, &m.DurationMinutes,
		&m.Rating, &releaseDate, &m.IsActive, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if releaseDate.Valid {
		rd := releaseDate.Time
		m.ReleaseDate = &rd
	}
	return &m, nil
}

// CreateMovie inserts a movie and populates generated fields.
func (s *Store) CreateMovie(ctx context.Context, m *model.Movie) error {
	const ins = `INSERT INTO movies (title, description, genre, duration_minutes, rating, release_date, is_active)
	             VALUES (?, ?, ?, ?, ?, ?, ?)`
	var releaseDate interface{}
	if m.ReleaseDate != nil {
		releaseDate = m.ReleaseDate.UTC()
	}
	res, err := s.db.ExecContext(ctx, ins, m.Title, m.Description, m.Genre,
		m.DurationMinutes, m.Rating, releaseDate, m.IsActive)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	m.ID = uint64(id)
	q := `SELECT ` + movieColumns + ` FROM movies WHERE id = ?`
	loaded, err := scanMovie(s.db.QueryRowContext(ctx, q, m.ID))
	if err != nil {
		return err
	}
	*m = *loaded
	return nil
}

// ListActiveMovies returns all active movies ordered by title.
func (s *Store) ListActiveMovies(ctx context.Context) ([]model.Movie, error) {
	q := `SELECT ` + movieColumns + ` FROM movies WHERE is_active = 1 ORDER BY title`
	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	movies := make([]model.Movie, 0)
	for rows.Next() {
		m, err := scanMovie(rows)
		if err != nil {
			return nil, err
		}
		movies = append(movies, *m)
	}
	return movies, rows.Err()
}

// MovieByID is the in-transaction lookup used when assembling a
// booking confirmation.
func (t *tx) MovieByID(ctx context.Context, id uint64) (*model.Movie, error) {
	q := `SELECT ` + movieColumns + ` FROM movies WHERE id = ?`
	m, err := scanMovie(t.tx.QueryRowContext(ctx, q, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, translateErr(err)
	}
	return m, nil
}

func (s *Store) MovieByID(ctx context.Context, id uint64) (*model.Movie, error) {
	q := `SELECT ` + movieColumns + ` FROM movies WHERE id = ?`
	m, err := scanMovie(s.db.QueryRowContext(ctx, q, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, translateErr(err)
	}
	return m, nil
}
