// Package booking implements the seat-reservation core: the
// reservation coordinator, the cancellation handler and the
// promotions engine.  All state mutation happens through the store
// contract inside a single atomic unit of work, so a failure at any
// step leaves no partial effect behind.
package booking

import "errors"

// Failure taxonomy for booking operations.  Handlers distinguish the
// classes with errors.Is and translate them into HTTP codes; detail
// messages are carried by wrapping (fmt.Errorf with %w) so err.Error()
// stays informative.
var (
	// ErrNotFound indicates a referenced user, show or booking does
	// not exist.
	ErrNotFound = errors.New("resource not found")

	// ErrBusinessRule indicates the request violates a booking rule:
	// inactive show, past show time, empty seat selection, seats from
	// another show, double cancellation or an unmet promo condition.
	ErrBusinessRule = errors.New("business rule violation")

	// ErrInsufficientSeats indicates the request asked for more seats
	// than the show currently has available.  The wrapped message
	// reports the actual available count.
	ErrInsufficientSeats = errors.New("insufficient seats")

	// ErrSeatConflict indicates a requested seat was taken by a
	// concurrent booking, or a row lock could not be acquired within
	// the bounded wait.  Safe to retry with a fresh seat selection.
	ErrSeatConflict = errors.New("seat conflict")

	// ErrInvalidPromo indicates the supplied promo code cannot be
	// redeemed: unknown, inactive, expired, exhausted or the user is
	// not eligible.
	ErrInvalidPromo = errors.New("invalid promo code")

	// ErrUnauthorized indicates the caller may not act on the target
	// booking (cancelling another user's booking without admin role).
	ErrUnauthorized = errors.New("unauthorized")
)
