package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/iliyamo/movie-ticket-booking/internal/model"
	"github.com/iliyamo/movie-ticket-booking/internal/store"
)

// Loyalty thresholds gating promo redemption.  Both are strict:
// a user qualifies with MORE than five confirmed bookings or MORE
// than 1500.00 in lifetime confirmed spend.
const (
	promoMinBookings   = 5
	promoMinSpendCents = 150000
)

// Eligibility reports a user's loyalty aggregates alongside the
// resulting eligibility verdict.  Exposed read-only for the
// promotions reporting endpoint.
type Eligibility struct {
	Eligible        bool  `json:"eligible"`
	TotalBookings   int64 `json:"total_bookings"`
	TotalSpentCents int64 `json:"total_spent_cents"`
}

// eligibleFor applies the loyalty rule to raw aggregates.
func eligibleFor(bookings, spentCents int64) bool {
	return bookings > promoMinBookings || spentCents > promoMinSpendCents
}

// IsEligible reports whether the user currently qualifies for promo
// redemption.  Aggregates are read from the booking ledger at call
// time; nothing is cached.
func (s *Service) IsEligible(ctx context.Context, userID uint64) (bool, error) {
	count, spent, err := s.store.ConfirmedBookingStats(ctx, userID)
	if err != nil {
		return false, err
	}
	return eligibleFor(count, spent), nil
}

// PromotionEligibility returns the raw aggregates together with the
// eligibility verdict for reporting purposes.
func (s *Service) PromotionEligibility(ctx context.Context, userID uint64) (*Eligibility, error) {
	count, spent, err := s.store.ConfirmedBookingStats(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &Eligibility{
		Eligible:        eligibleFor(count, spent),
		TotalBookings:   count,
		TotalSpentCents: spent,
	}, nil
}

// validatePromo runs the full promo rule chain inside the booking
// transaction and returns the locked promo row on success.  Any
// failure aborts the whole booking attempt; a failed promo must never
// produce a partial booking.  The promo row is locked so its use
// counter cannot be raced past an exhausted cap by a concurrent
// redemption.
func (s *Service) validatePromo(ctx context.Context, tx store.Tx, userID uint64, code string, seatCount uint32, now time.Time) (*model.PromoCode, error) {
	promo, err := tx.ActivePromoForUpdate(ctx, code)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("%w: not found or inactive", ErrInvalidPromo)
		}
		return nil, err
	}
	if now.Before(promo.ValidFrom) || now.After(promo.ValidUntil) {
		return nil, fmt.Errorf("%w: expired", ErrInvalidPromo)
	}
	if promo.MaxUses != nil && promo.CurrentUses >= *promo.MaxUses {
		return nil, fmt.Errorf("%w: usage limit reached", ErrInvalidPromo)
	}
	count, spent, err := tx.ConfirmedBookingStats(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !eligibleFor(count, spent) {
		return nil, fmt.Errorf("%w: not eligible, complete more than %d bookings or spend more than %d to qualify",
			ErrInvalidPromo, promoMinBookings, promoMinSpendCents)
	}
	if promo.DiscountType == model.DiscountFreeSeat && seatCount < 2 {
		return nil, fmt.Errorf("%w: free seat promotion requires booking at least 2 seats", ErrBusinessRule)
	}
	return promo, nil
}

// discountFor computes the discount in cents for a validated promo.
// FREE_SEAT discounts exactly one seat's price; FLAT_DISCOUNT applies
// the promo's fixed value, capped at the booking total so the final
// amount can never go negative.  An unknown type yields zero.
func discountFor(promo *model.PromoCode, pricePerSeatCents, totalAmountCents int64) int64 {
	switch promo.DiscountType {
	case model.DiscountFreeSeat:
		return pricePerSeatCents
	case model.DiscountFlat:
		if promo.DiscountValueCents > totalAmountCents {
			return totalAmountCents
		}
		return promo.DiscountValueCents
	default:
		return 0
	}
}
