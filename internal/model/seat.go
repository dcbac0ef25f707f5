package model

import (
	"strconv"
	"time"
)

// Seat describes an individually bookable unit of a show's capacity.
// Seats are created together with their show and never move to a
// different show.  The IsBooked flag is only flipped under the seat
// row lock, after the owning show row has been locked.
//
// Fields:
//  ID         – primary key identifier.
//  ShowID     – show to which this seat belongs (immutable).
//  RowLabel   – letter or string designating the row.
//  SeatNumber – number of the seat within the row.
//  IsBooked   – whether an active booking holds this seat.
//  Version    – concurrency version, bumped on every update.
//  CreatedAt  – creation timestamp.
//  UpdatedAt  – last update timestamp.
type Seat struct {
	ID         uint64    // seats.id
	ShowID     uint64    // seats.show_id
	RowLabel   string    // seats.row_label
	SeatNumber uint32    // seats.seat_number
	IsBooked   bool      // seats.is_booked
	Version    uint32    // seats.version
	CreatedAt  time.Time // seats.created_at
	UpdatedAt  time.Time // seats.updated_at
}

// Label renders the human-readable seat label, e.g. "A12".
func (s Seat) Label() string {
	return s.RowLabel + strconv.FormatUint(uint64(s.SeatNumber), 10)
}
