package model

import "time"

// Show represents a scheduled screening of a movie on a particular
// screen.  The available seat counter is the authoritative capacity
// figure and must always equal TotalSeats minus the number of this
// show's seats with IsBooked set.  It is only mutated under the show
// row lock.
//
// Fields:
//  ID                – primary key identifier.
//  MovieID           – movie being screened.
//  ScreenName        – name of the auditorium/screen.
//  StartsAt          – when the screening begins.
//  TotalSeats        – fixed seat capacity of the show.
//  AvailableSeats    – number of seats currently unbooked.
//  PricePerSeatCents – price of one seat in cents.
//  IsActive          – whether the show accepts bookings.
//  Version           – concurrency version, bumped on every update.
//  CreatedAt         – creation timestamp.
//  UpdatedAt         – last update timestamp.
type Show struct {
	ID                uint64    // shows.id
	MovieID           uint64    // shows.movie_id
	ScreenName        string    // shows.screen_name
	StartsAt          time.Time // shows.starts_at
	TotalSeats        uint32    // shows.total_seats
	AvailableSeats    uint32    // shows.available_seats
	PricePerSeatCents int64     // shows.price_per_seat_cents
	IsActive          bool      // shows.is_active
	Version           uint32    // shows.version
	CreatedAt         time.Time // shows.created_at
	UpdatedAt         time.Time // shows.updated_at
}
