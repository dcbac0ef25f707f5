package booking

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/iliyamo/movie-ticket-booking/internal/model"
	"github.com/iliyamo/movie-ticket-booking/internal/store"
)

// Service orchestrates bookings against the store contract.  It owns
// no state of its own; every operation opens one atomic unit of work
// and either commits all of its effects or none of them.
type Service struct {
	store store.Store
}

// NewService constructs a booking Service.  The store must be non-nil.
func NewService(st store.Store) *Service {
	if st == nil {
		panic("nil store passed to booking.NewService")
	}
	return &Service{store: st}
}

// CreateBooking reserves the requested seats of a show for the user,
// optionally redeeming a promo code, and returns the confirmed
// booking.  The whole attempt runs as one transaction:
//
//  1. resolve the user,
//  2. lock the show row, then validate it (active, in the future,
//     enough seats available),
//  3. lock the requested seats that are still unbooked, in ascending
//     seat-id order; any missing seat means a concurrent booking won,
//  4. verify every locked seat belongs to the locked show,
//  5. price the booking and validate/apply the promo code,
//  6. mark the seats booked, decrement the show's available counter,
//     bump the promo use counter and persist the booking.
//
// Locking the show before its seats and taking seat locks in one
// fixed ascending order keeps concurrent writers deadlock-free: for
// any two attempts with overlapping seat sets, at most one commits.
func (s *Service) CreateBooking(ctx context.Context, userID, showID uint64, seatIDs []uint64, promoCode string) (*model.BookingDetail, error) {
	ids := dedupeSeatIDs(seatIDs)
	if len(ids) == 0 {
		return nil, fmt.Errorf("%w: at least one seat must be selected", ErrBusinessRule)
	}

	var detail *model.BookingDetail
	err := s.store.WithinTx(ctx, func(tx store.Tx) error {
		user, err := tx.UserByID(ctx, userID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return fmt.Errorf("%w: user %d", ErrNotFound, userID)
			}
			return err
		}

		// Lock-then-read: the show row is locked before any of its
		// fields are inspected, so the availability check below is
		// stable until commit.
		show, err := tx.ShowForUpdate(ctx, showID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return fmt.Errorf("%w: show %d", ErrNotFound, showID)
			}
			return err
		}
		now := time.Now().UTC()
		if !show.IsActive {
			return fmt.Errorf("%w: show is not active", ErrBusinessRule)
		}
		if !show.StartsAt.After(now) {
			return fmt.Errorf("%w: cannot book seats for past shows", ErrBusinessRule)
		}
		requested := uint32(len(ids))
		if requested > show.AvailableSeats {
			return fmt.Errorf("%w: only %d seats available, requested %d",
				ErrInsufficientSeats, show.AvailableSeats, requested)
		}

		seats, err := tx.AvailableSeatsForUpdate(ctx, ids)
		if err != nil {
			return err
		}
		if uint32(len(seats)) != requested {
			return fmt.Errorf("%w: one or more selected seats are no longer available", ErrSeatConflict)
		}
		for _, seat := range seats {
			if seat.ShowID != show.ID {
				return fmt.Errorf("%w: invalid seat selection for this show", ErrBusinessRule)
			}
		}

		totalAmount := show.PricePerSeatCents * int64(requested)
		var discountAmount int64
		var promo *model.PromoCode
		if promoCode != "" {
			promo, err = s.validatePromo(ctx, tx, user.ID, promoCode, requested, now)
			if err != nil {
				return err
			}
			discountAmount = discountFor(promo, show.PricePerSeatCents, totalAmount)
		}
		finalAmount := totalAmount - discountAmount

		if err := tx.SetSeatsBooked(ctx, ids, true); err != nil {
			return err
		}
		if err := tx.AddAvailableSeats(ctx, show.ID, -int32(requested)); err != nil {
			return err
		}
		if promo != nil {
			if err := tx.IncrementPromoUses(ctx, promo.ID); err != nil {
				return err
			}
		}

		b := &model.Booking{
			UserID:              user.ID,
			ShowID:              show.ID,
			BookingReference:    newBookingReference(),
			TotalSeats:          requested,
			TotalAmountCents:    totalAmount,
			DiscountAmountCents: discountAmount,
			FinalAmountCents:    finalAmount,
			Status:              model.BookingConfirmed,
		}
		if promo != nil {
			pid := promo.ID
			b.PromoCodeID = &pid
		}
		if err := tx.InsertBooking(ctx, b, ids); err != nil {
			return err
		}

		movie, err := tx.MovieByID(ctx, show.MovieID)
		if err != nil {
			return err
		}
		detail = buildDetail(b, show, movie, seats, promo)
		return nil
	})
	if err != nil {
		return nil, translateLockErr(err)
	}
	return detail, nil
}

// CancelBooking reverses a confirmed booking: seats return to
// unbooked, the show's available counter grows back by the booking's
// seat count and the booking moves to CANCELLED.  Only the booking's
// owner or an admin may cancel.  Cancelling twice is an error, not a
// no-op.  Promo use counters are deliberately not decremented: a
// redemption is spent permanently.  The cancelled booking is returned
// so callers can notify downstream consumers.
//
// Cancellation contends on the same show and seat rows as booking
// and follows the same lock order (show first, then seats ascending).
func (s *Service) CancelBooking(ctx context.Context, bookingID, callerID uint64, callerIsAdmin bool) (*model.Booking, error) {
	var cancelled *model.Booking
	err := s.store.WithinTx(ctx, func(tx store.Tx) error {
		b, err := tx.BookingByID(ctx, bookingID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return fmt.Errorf("%w: booking %d", ErrNotFound, bookingID)
			}
			return err
		}
		if !callerIsAdmin && b.UserID != callerID {
			return fmt.Errorf("%w: you can only cancel your own bookings", ErrUnauthorized)
		}
		if b.Status == model.BookingCancelled {
			return fmt.Errorf("%w: booking is already cancelled", ErrBusinessRule)
		}

		if _, err := tx.ShowForUpdate(ctx, b.ShowID); err != nil {
			return err
		}
		seatIDs, err := tx.BookingSeatIDs(ctx, bookingID)
		if err != nil {
			return err
		}
		if _, err := tx.SeatsForUpdate(ctx, seatIDs); err != nil {
			return err
		}

		if err := tx.SetBookingStatus(ctx, bookingID, model.BookingCancelled); err != nil {
			return err
		}
		if err := tx.SetSeatsBooked(ctx, seatIDs, false); err != nil {
			return err
		}
		if err := tx.AddAvailableSeats(ctx, b.ShowID, int32(b.TotalSeats)); err != nil {
			return err
		}
		b.Status = model.BookingCancelled
		cancelled = b
		return nil
	})
	if err != nil {
		return nil, translateLockErr(err)
	}
	return cancelled, nil
}

// BookingsForUser returns the user's bookings, most recent first.
func (s *Service) BookingsForUser(ctx context.Context, userID uint64) ([]model.BookingDetail, error) {
	return s.store.BookingsByUser(ctx, userID)
}

// AllBookings returns the full booking ledger.  Admin listings only.
func (s *Service) AllBookings(ctx context.Context) ([]model.BookingDetail, error) {
	return s.store.AllBookings(ctx)
}

// dedupeSeatIDs drops zero and duplicate ids, preserving first-seen
// order.  Requesting the same seat twice must not count twice against
// availability.
func dedupeSeatIDs(ids []uint64) []uint64 {
	unique := make([]uint64, 0, len(ids))
	seen := make(map[uint64]struct{}, len(ids))
	for _, id := range ids {
		if id == 0 {
			continue
		}
		if _, ok := seen[id]; !ok {
			seen[id] = struct{}{}
			unique = append(unique, id)
		}
	}
	return unique
}

// translateLockErr folds bounded lock-wait failures from the store
// into the retryable seat-conflict class; everything else passes
// through unchanged.
func translateLockErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, store.ErrLockTimeout) {
		return fmt.Errorf("%w: timed out waiting for a seat lock, retry the booking", ErrSeatConflict)
	}
	return err
}

// buildDetail assembles the client-facing booking representation from
// the rows already loaded under lock.
func buildDetail(b *model.Booking, show *model.Show, movie *model.Movie, seats []model.Seat, promo *model.PromoCode) *model.BookingDetail {
	ordered := make([]model.Seat, len(seats))
	copy(ordered, seats)
	sort.Slice(ordered, func(i, j int) bool {
		if ordered[i].RowLabel != ordered[j].RowLabel {
			return ordered[i].RowLabel < ordered[j].RowLabel
		}
		return ordered[i].SeatNumber < ordered[j].SeatNumber
	})
	labels := make([]string, 0, len(ordered))
	for _, seat := range ordered {
		labels = append(labels, seat.Label())
	}
	d := &model.BookingDetail{
		BookingID:           b.ID,
		BookingReference:    b.BookingReference,
		MovieTitle:          movie.Title,
		ShowTime:            show.StartsAt.UTC().Format(time.RFC3339),
		ScreenName:          show.ScreenName,
		TotalSeats:          b.TotalSeats,
		SeatNumbers:         labels,
		TotalAmountCents:    b.TotalAmountCents,
		DiscountAmountCents: b.DiscountAmountCents,
		FinalAmountCents:    b.FinalAmountCents,
		BookingStatus:       b.Status,
		BookingTime:         b.CreatedAt.UTC().Format(time.RFC3339),
	}
	if promo != nil {
		code := promo.Code
		d.PromoCodeUsed = &code
	}
	return d
}
