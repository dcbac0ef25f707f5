// Package store defines the persistence contract the rest of the
// application is written against.  There is one interface method per
// query the service layer needs, grouped by aggregate.  Mutations of
// contended rows (shows, seats, promo uses, bookings) are only
// reachable through Tx, whose operations run inside a single atomic
// unit of work started by Store.WithinTx.  The MySQL implementation
// lives in store/mysql; an in-memory implementation used by tests
// lives in store/memory.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/iliyamo/movie-ticket-booking/internal/model"
)

// ErrNotFound is returned by lookup operations when no row matches.
// Callers translate it into their own not-found semantics.
var ErrNotFound = errors.New("not found")

// ErrEmailExists is returned by CreateUser when the email is already
// registered.
var ErrEmailExists = errors.New("email already exists")

// ErrCodeExists is returned by CreatePromo when the promo code string
// is already taken.
var ErrCodeExists = errors.New("promo code already exists")

// ErrLockTimeout is returned from within a transaction when a row
// lock could not be acquired within the bounded wait.  It signals a
// retryable contention failure, not corruption.
var ErrLockTimeout = errors.New("lock wait timeout")

// Tx exposes the operations available inside one atomic unit of work.
// Every method either takes effect in full at commit or not at all.
// Locking discipline: ShowForUpdate must be called before any seat
// lock on that show, and seat locks are taken in ascending seat-id
// order, so that all writers follow one global lock order.
type Tx interface {
	// UserByID loads a user.  Returns ErrNotFound when absent.
	UserByID(ctx context.Context, id uint64) (*model.User, error)

	// MovieByID loads a movie.  Returns ErrNotFound when absent.
	MovieByID(ctx context.Context, id uint64) (*model.Movie, error)

	// ShowForUpdate acquires an exclusive lock on the show row and
	// returns its current state.  Returns ErrNotFound when absent.
	ShowForUpdate(ctx context.Context, id uint64) (*model.Show, error)

	// AvailableSeatsForUpdate locks, in ascending seat-id order, the
	// seats among ids that exist and are not booked, and returns
	// them.  Seats that are booked or missing are simply absent from
	// the result; the caller detects conflicts by comparing lengths.
	AvailableSeatsForUpdate(ctx context.Context, ids []uint64) ([]model.Seat, error)

	// SeatsForUpdate locks the given seats in ascending seat-id
	// order regardless of their booked flag.  Used by cancellation.
	SeatsForUpdate(ctx context.Context, ids []uint64) ([]model.Seat, error)

	// SetSeatsBooked flips the booked flag on the given seats and
	// bumps their versions.  The rows must already be locked.
	SetSeatsBooked(ctx context.Context, ids []uint64, booked bool) error

	// AddAvailableSeats adjusts a show's available-seat counter by
	// delta (negative when booking) and bumps the show version.  The
	// show row must already be locked.
	AddAvailableSeats(ctx context.Context, showID uint64, delta int32) error

	// ActivePromoForUpdate locks and returns the active promo code
	// with the given code string.  Returns ErrNotFound when no
	// active code matches.  The lock keeps the use counter stable
	// until commit so a cap cannot be oversold.
	ActivePromoForUpdate(ctx context.Context, code string) (*model.PromoCode, error)

	// IncrementPromoUses adds one to a promo's use counter.  The row
	// must already be locked.
	IncrementPromoUses(ctx context.Context, promoID uint64) error

	// ConfirmedBookingStats returns the caller's count of CONFIRMED
	// bookings and the sum of their final amounts in cents.
	ConfirmedBookingStats(ctx context.Context, userID uint64) (count int64, spentCents int64, err error)

	// InsertBooking persists a booking and its booking_seats rows,
	// populating b.ID and b.CreatedAt.
	InsertBooking(ctx context.Context, b *model.Booking, seatIDs []uint64) error

	// BookingByID loads a booking.  Returns ErrNotFound when absent.
	BookingByID(ctx context.Context, id uint64) (*model.Booking, error)

	// BookingSeatIDs lists the seat ids held by a booking.
	BookingSeatIDs(ctx context.Context, bookingID uint64) ([]uint64, error)

	// SetBookingStatus updates a booking's status.
	SetBookingStatus(ctx context.Context, bookingID uint64, status string) error
}

// Store is the full persistence surface.  WithinTx runs fn as one
// atomic unit: a nil return commits, any error rolls everything back
// and is returned unchanged.  The remaining methods are read or
// single-statement operations that need no explicit transaction.
type Store interface {
	WithinTx(ctx context.Context, fn func(tx Tx) error) error

	// Users and sessions.
	CreateUser(ctx context.Context, email, passwordHash, role string) (uint64, error)
	UserByEmail(ctx context.Context, email string) (*model.User, error)
	UserByID(ctx context.Context, id uint64) (*model.User, error)
	StoreRefreshToken(ctx context.Context, userID uint64, tokenHash string, expiresAt time.Time) error
	ValidateRefreshToken(ctx context.Context, tokenHash string) (uint64, error)
	RevokeRefreshToken(ctx context.Context, tokenHash string) error
	RevokeAllRefreshTokens(ctx context.Context, userID uint64) error

	// Catalog.
	CreateMovie(ctx context.Context, m *model.Movie) error
	MovieByID(ctx context.Context, id uint64) (*model.Movie, error)
	ListActiveMovies(ctx context.Context) ([]model.Movie, error)
	CreateShow(ctx context.Context, s *model.Show, rows, seatsPerRow uint32) error
	ShowByID(ctx context.Context, id uint64) (*model.Show, error)
	UpcomingShowsByMovie(ctx context.Context, movieID uint64, after time.Time) ([]model.Show, error)
	UnbookedSeatsByShow(ctx context.Context, showID uint64) ([]model.Seat, error)

	// Booking ledger, read side.
	BookingsByUser(ctx context.Context, userID uint64) ([]model.BookingDetail, error)
	AllBookings(ctx context.Context) ([]model.BookingDetail, error)
	ConfirmedBookingStats(ctx context.Context, userID uint64) (count int64, spentCents int64, err error)

	// Promo administration.
	CreatePromo(ctx context.Context, p *model.PromoCode) error
	ListPromos(ctx context.Context) ([]model.PromoCode, error)
}
