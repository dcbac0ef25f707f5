package mysql

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/iliyamo/movie-ticket-booking/internal/model"
	"github.com/iliyamo/movie-ticket-booking/internal/store"
)

// InsertBooking persists a booking and its booking_seats join rows,
// populating b.ID and b.CreatedAt from the stored row.
func (t *tx) InsertBooking(ctx context.Context, b *model.Booking, seatIDs []uint64) error {
	const ins = `INSERT INTO bookings
	             (user_id, show_id, booking_reference, total_seats, total_amount_cents,
	              discount_amount_cents, final_amount_cents, promo_code_id, status)
	             VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := t.tx.ExecContext(ctx, ins, b.UserID, b.ShowID, b.BookingReference,
		b.TotalSeats, b.TotalAmountCents, b.DiscountAmountCents, b.FinalAmountCents,
		b.PromoCodeID, b.Status)
	if err != nil {
		return translateErr(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	b.ID = uint64(id)

	if len(seatIDs) > 0 {
		query := `INSERT INTO booking_seats (booking_id, seat_id) VALUES `
		args := make([]interface{}, 0, len(seatIDs)*2)
		for i, sid := range seatIDs {
			if i > 0 {
				query += ","
			}
			query += "(?, ?)"
			args = append(args, b.ID, sid)
		}
		if _, err := t.tx.ExecContext(ctx, query, args...); err != nil {
			return translateErr(err)
		}
	}

	const sel = `SELECT created_at FROM bookings WHERE id = ?`
	return t.tx.QueryRowContext(ctx, sel, b.ID).Scan(&b.CreatedAt)
}

const bookingColumns = `id, user_id, show_id, booking_reference, total_seats,
	total_amount_cents, discount_amount_cents, final_amount_cents, promo_code_id, status, created_at`

func scanBooking(row interface{ Scan(...interface{}) error }) (*model.Booking, error) {
	var b model.Booking
	var promoID sql.NullInt64
	err := row.Scan(&b.ID, &b.UserID, &b.ShowID, &b.BookingReference, &b.TotalSeats,
		&b.TotalAmountCents, &b.DiscountAmountCents, &b.FinalAmountCents,
		&promoID, &b.Status, &b.CreatedAt)
	if err != nil {
		return nil, err
	}
	if promoID.Valid {
		pid := uint64(promoID.Int64)
		b.PromoCodeID = &pid
	}
	return &b, nil
}

// BookingByID loads a booking under an exclusive lock so that two
// concurrent cancellations of the same booking serialize on the row
// and the loser sees the CANCELLED status.
func (t *tx) BookingByID(ctx context.Context, id uint64) (*model.Booking, error) {
	q := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = ? FOR UPDATE`
	b, err := scanBooking(t.tx.QueryRowContext(ctx, q, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, translateErr(err)
	}
	return b, nil
}

// BookingSeatIDs lists the seat ids held by a booking in ascending
// order, matching the global seat lock order.
func (t *tx) BookingSeatIDs(ctx context.Context, bookingID uint64) ([]uint64, error) {
	const q = `SELECT seat_id FROM booking_seats WHERE booking_id = ? ORDER BY seat_id`
	rows, err := t.tx.QueryContext(ctx, q, bookingID)
	if err != nil {
		return nil, translateErr(err)
	}
	defer rows.Close()
	var ids []uint64
	for rows.Next() {
		var id uint64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// SetBookingStatus updates the booking's status.
func (t *tx) SetBookingStatus(ctx context.Context, bookingID uint64, status string) error {
	const q = `UPDATE bookings SET status = ? WHERE id = ?`
	_, err := t.tx.ExecContext(ctx, q, status, bookingID)
	return translateErr(err)
}

const statsQuery = `SELECT COUNT(*), COALESCE(SUM(final_amount_cents), 0)
	FROM bookings WHERE user_id = ? AND status = 'CONFIRMED'`

// ConfirmedBookingStats returns the user's CONFIRMED booking count
// and summed final amounts, read from the live ledger.
func (s *Store) ConfirmedBookingStats(ctx context.Context, userID uint64) (int64, int64, error) {
	var count, spent int64
	err := s.db.QueryRowContext(ctx, statsQuery, userID).Scan(&count, &spent)
	return count, spent, err
}

// ConfirmedBookingStats is the in-transaction variant used by promo
// eligibility checks during booking.
func (t *tx) ConfirmedBookingStats(ctx context.Context, userID uint64) (int64, int64, error) {
	var count, spent int64
	err := t.tx.QueryRowContext(ctx, statsQuery, userID).Scan(&count, &spent)
	return count, spent, translateErr(err)
}

const detailQuery = `SELECT b.id, b.booking_reference, m.title, s.starts_at, s.screen_name,
	       b.total_seats, b.total_amount_cents, b.discount_amount_cents, b.final_amount_cents,
	       p.code, b.status, b.created_at
	FROM bookings b
	JOIN shows s ON s.id = b.show_id
	JOIN movies m ON m.id = s.movie_id
	LEFT JOIN promo_codes p ON p.id = b.promo_code_id`

// BookingsByUser returns the user's bookings with display details,
// most recent first.
func (s *Store) BookingsByUser(ctx context.Context, userID uint64) ([]model.BookingDetail, error) {
	q := detailQuery + ` WHERE b.user_id = ? ORDER BY b.created_at DESC, b.id DESC`
	rows, err := s.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return s.collectDetails(ctx, rows)
}

// AllBookings returns the entire ledger with display details.
func (s *Store) AllBookings(ctx context.Context) ([]model.BookingDetail, error) {
	q := detailQuery + ` ORDER BY b.created_at DESC, b.id DESC`
	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return s.collectDetails(ctx, rows)
}

// collectDetails scans detail rows and then resolves seat labels for
// all bookings in a single IN query, the same batching the listing
// endpoints have always needed to avoid per-booking round trips.
func (s *Store) collectDetails(ctx context.Context, rows *sql.Rows) ([]model.BookingDetail, error) {
	details := make([]model.BookingDetail, 0)
	index := make(map[uint64]int)
	for rows.Next() {
		var d model.BookingDetail
		var startsAt, createdAt time.Time
		var promoCode sql.NullString
		if err := rows.Scan(&d.BookingID, &d.BookingReference, &d.MovieTitle, &startsAt,
			&d.ScreenName, &d.TotalSeats, &d.TotalAmountCents, &d.DiscountAmountCents,
			&d.FinalAmountCents, &promoCode, &d.BookingStatus, &createdAt); err != nil {
			return nil, err
		}
		d.ShowTime = startsAt.UTC().Format(time.RFC3339)
		d.BookingTime = createdAt.UTC().Format(time.RFC3339)
		if promoCode.Valid {
			code := promoCode.String
			d.PromoCodeUsed = &code
		}
		d.SeatNumbers = []string{}
		index[d.BookingID] = len(details)
		details = append(details, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(details) == 0 {
		return details, nil
	}

	ids := make([]uint64, 0, len(details))
	for _, d := range details {
		ids = append(ids, d.BookingID)
	}
	seatQ := `SELECT bs.booking_id, se.row_label, se.seat_number
	          FROM booking_seats bs
	          JOIN seats se ON se.id = bs.seat_id
	          WHERE bs.booking_id IN (` + placeholders(len(ids)) + `)
	          ORDER BY bs.booking_id, se.row_label, se.seat_number`
	srows, err := s.db.QueryContext(ctx, seatQ, uint64Args(ids)...)
	if err != nil {
		return nil, err
	}
	defer srows.Close()
	for srows.Next() {
		var bid uint64
		var seat model.Seat
		if err := srows.Scan(&bid, &seat.RowLabel, &seat.SeatNumber); err != nil {
			return nil, err
		}
		if i, ok := index[bid]; ok {
			details[i].SeatNumbers = append(details[i].SeatNumbers, seat.Label())
		}
	}
	return details, srows.Err()
}
