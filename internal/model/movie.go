package model

import "time"

// Movie describes a film that can be scheduled for screenings.  Shows
// reference movies; a movie with no upcoming shows is still kept so
// past bookings can render its title.
//
// Fields:
//  ID              – primary key identifier.
//  Title           – display title of the film.
//  Description     – optional synopsis.
//  Genre           – optional genre label.
//  DurationMinutes – running time in minutes.
//  Rating          – optional certification rating (e.g. PG-13).
//  ReleaseDate     – optional release date.
//  IsActive        – whether the movie is visible for scheduling.
//  CreatedAt       – creation timestamp.
//  UpdatedAt       – last update timestamp.
type Movie struct {
	ID              uint64     // movies.id
	Title           string     // movies.title
	Description     string     // movies.description
	Genre           string     // movies.genre
	DurationMinutes uint32     // movies.duration_minutes
	Rating          string     // movies.rating
	ReleaseDate     *time.Time // movies.release_date (nullable)
	IsActive        bool       // movies.is_active
	CreatedAt       time.Time  // movies.created_at
	UpdatedAt       time.Time  // movies.updated_at
}
