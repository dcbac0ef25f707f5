package mysql

import (
	"context"

	"github.com/iliyamo/movie-ticket-booking/internal/model"
)

const seatColumns = `id, show_id, row_label, seat_number, is_booked, version, created_at, updated_at`

func scanSeat(row interface{ Scan(...interface{}) error }) (model.Seat, error) {
	var s model.Seat
	err := row.Scan(&s.ID, &s.ShowID, &s.RowLabel, &s.SeatNumber, &s.IsBooked,
		&s.Version, &s.CreatedAt, &s.UpdatedAt)
	return s, err
}

// AvailableSeatsForUpdate locks the unbooked seats among ids.  The
// ORDER BY id is load-bearing: every writer acquires seat locks in
// the same ascending order, which rules out circular waits between
// transactions requesting overlapping seat sets.  Booked or missing
// seats are silently absent from the result.
func (t *tx) AvailableSeatsForUpdate(ctx context.Context, ids []uint64) ([]model.Seat, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	q := `SELECT ` + seatColumns + ` FROM seats
	      WHERE id IN (` + placeholders(len(ids)) + `) AND is_booked = 0
	      ORDER BY id
	      FOR UPDATE`
	return t.querySeats(ctx, q, uint64Args(ids)...)
}

// SeatsForUpdate locks the given seats in ascending id order
// regardless of their booked flag.  Cancellation uses it to pin the
// seats it is about to release.
func (t *tx) SeatsForUpdate(ctx context.Context, ids []uint64) ([]model.Seat, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	q := `SELECT ` + seatColumns + ` FROM seats
	      WHERE id IN (` + placeholders(len(ids)) + `)
	      ORDER BY id
	      FOR UPDATE`
	return t.querySeats(ctx, q, uint64Args(ids)...)
}

func (t *tx) querySeats(ctx context.Context, q string, args ...interface{}) ([]model.Seat, error) {
	rows, err := t.tx.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, translateErr(err)
	}
	defer rows.Close()
	seats := make([]model.Seat, 0, len(args))
	for rows.Next() {
		s, err := scanSeat(rows)
		if err != nil {
			return nil, err
		}
		seats = append(seats, s)
	}
	return seats, rows.Err()
}

// SetSeatsBooked flips the booked flag on the given seats and bumps
// their versions.  The rows must already be locked by this
// transaction.
func (t *tx) SetSeatsBooked(ctx context.Context, ids []uint64, booked bool) error {
	if len(ids) == 0 {
		return nil
	}
	q := `UPDATE seats SET is_booked = ?, version = version + 1
	      WHERE id IN (` + placeholders(len(ids)) + `)`
	args := append([]interface{}{booked}, uint64Args(ids)...)
	_, err := t.tx.ExecContext(ctx, q, args...)
	return translateErr(err)
}

// UnbookedSeatsByShow lists a show's currently unbooked seats ordered
// by row then number, for seat-selection display.
func (s *Store) UnbookedSeatsByShow(ctx context.Context, showID uint64) ([]model.Seat, error) {
	q := `SELECT ` + seatColumns + ` FROM seats
	      WHERE show_id = ? AND is_booked = 0
	      ORDER BY row_label, seat_number`
	rows, err := s.db.QueryContext(ctx, q, showID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	seats := make([]model.Seat, 0)
	for rows.Next() {
		seat, err := scanSeat(rows)
		if err != nil {
			return nil, err
		}
		seats = append(seats, seat)
	}
	return seats, rows.Err()
}
