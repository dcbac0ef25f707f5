package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/iliyamo/movie-ticket-booking/internal/model"
	"github.com/iliyamo/movie-ticket-booking/internal/store"
)

const showColumns = `id, movie_id, screen_name, starts_at, total_seats, available_seats,
	price_per_seat_cents, is_active, version, created_at, updated_at`

func scanShow(row interface{ Scan(...interface{}) error }) (*model.Show, error) {
	var s model.Show
	err := row.Scan(&s.ID, &s.MovieID, &s.ScreenName, &s.StartsAt, &s.TotalSeats,
		&s.AvailableSeats, &s.PricePerSeatCents, &s.IsActive, &s.Version,
		&s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// ShowForUpdate locks the show row exclusively and returns its
// current state.  The lock is held until the surrounding transaction
// commits or rolls back.
func (t *tx) ShowForUpdate(ctx context.Context, id uint64) (*model.Show, error) {
	q := `SELECT ` + showColumns + ` FROM shows WHERE id = ? FOR UPDATE`
	s, err := scanShow(t.tx.QueryRowContext(ctx, q, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, translateErr(err)
	}
	return s, nil
}

// AddAvailableSeats adjusts the available-seat counter and bumps the
// show version.  The CHECK-style guard in the WHERE clause refuses to
// drive the counter below zero or above the total; hitting it means a
// caller skipped the availability validation, so it is reported as a
// plain error rather than silently clamped.
func (t *tx) AddAvailableSeats(ctx context.Context, showID uint64, delta int32) error {
	const q = `UPDATE shows
	           SET available_seats = available_seats + ?, version = version + 1
	           WHERE id = ?
	             AND available_seats + ? >= 0
	             AND available_seats + ? <= total_seats`
	res, err := t.tx.ExecContext(ctx, q, delta, showID, delta, delta)
	if err != nil {
		return translateErr(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n != 1 {
		return fmt.Errorf("available seats adjustment by %d rejected for show %d", delta, showID)
	}
	return nil
}

// CreateShow inserts a show together with its seat grid inside one
// transaction.  Rows are labelled A, B, C, ... and seats are numbered
// from 1 within each row.  TotalSeats/AvailableSeats are derived from
// the grid and populated on s.
func (s *Store) CreateShow(ctx context.Context, sh *model.Show, rows, seatsPerRow uint32) error {
	total := rows * seatsPerRow
	dbtx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = dbtx.Rollback()
		}
	}()
	const ins = `INSERT INTO shows (movie_id, screen_name, starts_at, total_seats, available_seats, price_per_seat_cents, is_active)
	             VALUES (?, ?, ?, ?, ?, ?, ?)`
	res, err := dbtx.ExecContext(ctx, ins, sh.MovieID, sh.ScreenName, sh.StartsAt.UTC(),
		total, total, sh.PricePerSeatCents, sh.IsActive)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	sh.ID = uint64(id)
	sh.TotalSeats = total
	sh.AvailableSeats = total

	if total > 0 {
		query := `INSERT INTO seats (show_id, row_label, seat_number) VALUES `
		args := make([]interface{}, 0, int(total)*3)
		first := true
		for r := uint32(0); r < rows; r++ {
			label := rowLabel(r)
			for n := uint32(1); n <= seatsPerRow; n++ {
				if !first {
					query += ","
				}
				first = false
				query += "(?, ?, ?)"
				args = append(args, sh.ID, label, n)
			}
		}
		if _, err := dbtx.ExecContext(ctx, query, args...); err != nil {
			return err
		}
	}

	q := `SELECT ` + showColumns + ` FROM shows WHERE id = ?`
	loaded, err := scanShow(dbtx.QueryRowContext(ctx, q, sh.ID))
	if err != nil {
		return err
	}
	*sh = *loaded
	if err := dbtx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// rowLabel converts a zero-based row index into a spreadsheet-style
// label: A..Z, then AA, AB, ...
func rowLabel(i uint32) string {
	label := ""
	n := i
	for {
		label = string(rune('A'+n%26)) + label
		if n < 26 {
			return label
		}
		n = n/26 - 1
	}
}

// ShowByID retrieves a show without locking it.
func (s *Store) ShowByID(ctx context.Context, id uint64) (*model.Show, error) {
	q := `SELECT ` + showColumns + ` FROM shows WHERE id = ?`
	sh, err := scanShow(s.db.QueryRowContext(ctx, q, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return sh, nil
}

// UpcomingShowsByMovie lists a movie's active shows starting after
// the given instant, soonest first.
func (s *Store) UpcomingShowsByMovie(ctx context.Context, movieID uint64, after time.Time) ([]model.Show, error) {
	q := `SELECT ` + showColumns + ` FROM shows
	      WHERE movie_id = ? AND is_active = 1 AND starts_at > ?
	      ORDER BY starts_at`
	rows, err := s.db.QueryContext(ctx, q, movieID, after.UTC())
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	shows := make([]model.Show, 0)
	for rows.Next() {
		sh, err := scanShow(rows)
		if err != nil {
			return nil, err
		}
		shows = append(shows, *sh)
	}
	return shows, rows.Err()
}
