package booking_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/movie-ticket-booking/internal/booking"
	"github.com/iliyamo/movie-ticket-booking/internal/model"
)

func TestEligibilityThresholdsAreStrict(t *testing.T) {
	cases := []struct {
		name     string
		bookings int
		amount   int64
		eligible bool
	}{
		{"new user", 0, 0, false},
		{"exactly five bookings", 5, 100, false},
		{"six bookings", 6, 100, true},
		{"exactly threshold spend", 1, 150000, false},
		{"above threshold spend", 1, 150001, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			if tc.bookings > 0 {
				seedConfirmedBookings(t, f.st, f.user, f.show.ID, tc.bookings, tc.amount/int64(tc.bookings))
			}
			ok, err := f.svc.IsEligible(context.Background(), f.user)
			require.NoError(t, err)
			assert.Equal(t, tc.eligible, ok)
		})
	}
}

func TestPromotionEligibilityCountsConfirmedOnly(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	seedConfirmedBookings(t, f.st, f.user, f.show.ID, 2, 150)

	// A cancelled booking must not count towards either aggregate.
	detail, err := f.svc.CreateBooking(ctx, f.user, f.show.ID, f.seatIDs(0), "")
	require.NoError(t, err)
	_, err = f.svc.CancelBooking(ctx, detail.BookingID, f.user, false)
	require.NoError(t, err)

	elig, err := f.svc.PromotionEligibility(ctx, f.user)
	require.NoError(t, err)
	assert.False(t, elig.Eligible)
	assert.Equal(t, int64(2), elig.TotalBookings)
	assert.Equal(t, int64(300), elig.TotalSpentCents)
}

func TestPromoNotEligible(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	seedConfirmedBookings(t, f.st, f.user, f.show.ID, 2, 150)
	addPromo(t, f.st, "WELCOME", model.DiscountFlat, 100, nil)

	_, err := f.svc.CreateBooking(ctx, f.user, f.show.ID, f.seatIDs(0, 1), "WELCOME")
	assert.ErrorIs(t, err, booking.ErrInvalidPromo)

	// A rejected promo aborts the whole booking; no seats were taken.
	assert.Equal(t, uint32(10), f.availableSeats(t))
}

func TestPromoUnknownCode(t *testing.T) {
	f := newFixture(t)
	seedConfirmedBookings(t, f.st, f.user, f.show.ID, 6, 200)

	_, err := f.svc.CreateBooking(context.Background(), f.user, f.show.ID, f.seatIDs(0), "NOPE")
	assert.ErrorIs(t, err, booking.ErrInvalidPromo)
}

func TestPromoOutsideValidityWindow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	seedConfirmedBookings(t, f.st, f.user, f.show.ID, 6, 200)

	expired := model.PromoCode{
		Code:               "EXPIRED",
		DiscountType:       model.DiscountFlat,
		DiscountValueCents: 100,
		ValidFrom:          time.Now().UTC().Add(-48 * time.Hour),
		ValidUntil:         time.Now().UTC().Add(-24 * time.Hour),
		IsActive:           true,
	}
	require.NoError(t, f.st.CreatePromo(ctx, &expired))

	_, err := f.svc.CreateBooking(ctx, f.user, f.show.ID, f.seatIDs(0), "EXPIRED")
	assert.ErrorIs(t, err, booking.ErrInvalidPromo)
}

func TestPromoUsageCap(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	seedConfirmedBookings(t, f.st, f.user, f.show.ID, 6, 200)

	one := uint32(1)
	addPromo(t, f.st, "ONCE", model.DiscountFlat, 100, &one)

	_, err := f.svc.CreateBooking(ctx, f.user, f.show.ID, f.seatIDs(0), "ONCE")
	require.NoError(t, err)

	_, err = f.svc.CreateBooking(ctx, f.user, f.show.ID, f.seatIDs(1), "ONCE")
	assert.ErrorIs(t, err, booking.ErrInvalidPromo)
}

func TestFreeSeatPromoDiscountsOneSeat(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	seedConfirmedBookings(t, f.st, f.user, f.show.ID, 6, 200)
	addPromo(t, f.st, "FREESEAT", model.DiscountFreeSeat, 0, nil)

	detail, err := f.svc.CreateBooking(ctx, f.user, f.show.ID, f.seatIDs(0, 1), "FREESEAT")
	require.NoError(t, err)

	assert.Equal(t, int64(400), detail.TotalAmountCents)
	assert.Equal(t, int64(200), detail.DiscountAmountCents)
	assert.Equal(t, int64(200), detail.FinalAmountCents)
	require.NotNil(t, detail.PromoCodeUsed)
	assert.Equal(t, "FREESEAT", *detail.PromoCodeUsed)
}

func TestFreeSeatPromoRequiresTwoSeats(t *testing.T) {
	f := newFixture(t)
	seedConfirmedBookings(t, f.st, f.user, f.show.ID, 6, 200)
	addPromo(t, f.st, "FREESEAT", model.DiscountFreeSeat, 0, nil)

	_, err := f.svc.CreateBooking(context.Background(), f.user, f.show.ID, f.seatIDs(0), "FREESEAT")
	assert.ErrorIs(t, err, booking.ErrBusinessRule)
	assert.Equal(t, uint32(10), f.availableSeats(t))
}

func TestFlatDiscountCappedAtTotal(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	seedConfirmedBookings(t, f.st, f.user, f.show.ID, 6, 200)
	addPromo(t, f.st, "BIGFLAT", model.DiscountFlat, 1000, nil)

	detail, err := f.svc.CreateBooking(ctx, f.user, f.show.ID, f.seatIDs(0, 1), "BIGFLAT")
	require.NoError(t, err)

	assert.Equal(t, int64(400), detail.TotalAmountCents)
	assert.Equal(t, int64(400), detail.DiscountAmountCents)
	assert.Equal(t, int64(0), detail.FinalAmountCents)
}

func TestPromoUseCounterIncrements(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	seedConfirmedBookings(t, f.st, f.user, f.show.ID, 6, 200)
	addPromo(t, f.st, "FLAT50", model.DiscountFlat, 50, nil)

	_, err := f.svc.CreateBooking(ctx, f.user, f.show.ID, f.seatIDs(0), "FLAT50")
	require.NoError(t, err)

	promos, err := f.st.ListPromos(ctx)
	require.NoError(t, err)
	require.Len(t, promos, 1)
	assert.Equal(t, uint32(1), promos[0].CurrentUses)
}

func TestPromoUseNotReversedByCancellation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	seedConfirmedBookings(t, f.st, f.user, f.show.ID, 6, 200)
	addPromo(t, f.st, "FLAT50", model.DiscountFlat, 50, nil)

	detail, err := f.svc.CreateBooking(ctx, f.user, f.show.ID, f.seatIDs(0), "FLAT50")
	require.NoError(t, err)
	_, err = f.svc.CancelBooking(ctx, detail.BookingID, f.user, false)
	require.NoError(t, err)

	// A redemption is spent permanently.
	promos, err := f.st.ListPromos(ctx)
	require.NoError(t, err)
	require.Len(t, promos, 1)
	assert.Equal(t, uint32(1), promos[0].CurrentUses)
}
