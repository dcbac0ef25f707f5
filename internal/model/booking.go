package model

import "time"

// Booking status values.  A booking is created CONFIRMED and may make
// a single transition to CANCELLED; there are no other states and no
// transition back.
const (
	BookingConfirmed = "CONFIRMED"
	BookingCancelled = "CANCELLED"
)

// Booking records a user's reservation of one or more seats for a
// show.  Bookings are never deleted; cancellation flips the status and
// releases the seats.  The recorded amounts are frozen at booking
// time: later promo code changes must not alter a past booking.
//
// Fields:
//  ID                  – primary key identifier.
//  UserID              – user who made the booking.
//  ShowID              – show being booked.
//  BookingReference    – unique human-readable reference (e.g. BKG3F2A91C0).
//  TotalSeats          – number of seats in the booking.
//  TotalAmountCents    – undiscounted price for all seats.
//  DiscountAmountCents – discount granted by the applied promo (0 if none).
//  FinalAmountCents    – TotalAmountCents minus DiscountAmountCents.
//  PromoCodeID         – promo applied at booking time (nullable).
//  Status              – CONFIRMED or CANCELLED.
//  CreatedAt           – when the booking was committed.
type Booking struct {
	ID                  uint64    // bookings.id
	UserID              uint64    // bookings.user_id
	ShowID              uint64    // bookings.show_id
	BookingReference    string    // bookings.booking_reference
	TotalSeats          uint32    // bookings.total_seats
	TotalAmountCents    int64     // bookings.total_amount_cents
	DiscountAmountCents int64     // bookings.discount_amount_cents
	FinalAmountCents    int64     // bookings.final_amount_cents
	PromoCodeID         *uint64   // bookings.promo_code_id (nullable)
	Status              string    // bookings.status
	CreatedAt           time.Time // bookings.created_at
}

// BookingDetail is the booking representation returned to API
// clients.  It joins the booking with display data from the show,
// movie and seat tables so that listings do not require follow-up
// queries.
type BookingDetail struct {
	BookingID           uint64   `json:"booking_id"`
	BookingReference    string   `json:"booking_reference"`
	MovieTitle          string   `json:"movie_title"`
	ShowTime            string   `json:"show_time"`
	ScreenName          string   `json:"screen_name"`
	TotalSeats          uint32   `json:"total_seats"`
	SeatNumbers         []string `json:"seat_numbers"`
	TotalAmountCents    int64    `json:"total_amount_cents"`
	DiscountAmountCents int64    `json:"discount_amount_cents"`
	FinalAmountCents    int64    `json:"final_amount_cents"`
	PromoCodeUsed       *string  `json:"promo_code_used,omitempty"`
	BookingStatus       string   `json:"booking_status"`
	BookingTime         string   `json:"booking_time"`
}
