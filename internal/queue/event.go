// Package queue defines message payloads exchanged over the message broker.
package queue

// BookingConfirmedEvent is published when a booking is successfully committed.
// It contains enough information for downstream consumers to log, notify, or
// trigger analytics without querying the primary database.
type BookingConfirmedEvent struct {
	BookingID           uint64   `json:"booking_id"`
	BookingReference    string   `json:"booking_reference"`
	UserID              uint64   `json:"user_id"`
	ShowID              uint64   `json:"show_id"`
	MovieTitle          string   `json:"movie_title"`
	ScreenName          string   `json:"screen_name"`
	ShowTime            string   `json:"show_time"`
	SeatLabels          []string `json:"seats"`
	TotalAmountCents    int64    `json:"total_amount_cents"`
	DiscountAmountCents int64    `json:"discount_amount_cents"`
	FinalAmountCents    int64    `json:"final_amount_cents"`
	PromoCode           string   `json:"promo_code,omitempty"`
	ConfirmedAt         string   `json:"confirmed_at"`
}

// BookingCancelledEvent is published after a booking is cancelled and its
// seats have been released back to the show.
type BookingCancelledEvent struct {
	BookingID        uint64 `json:"booking_id"`
	BookingReference string `json:"booking_reference"`
	UserID           uint64 `json:"user_id"`
	ShowID           uint64 `json:"show_id"`
	SeatsReleased    uint32 `json:"seats_released"`
	CancelledAt      string `json:"cancelled_at"`
}
