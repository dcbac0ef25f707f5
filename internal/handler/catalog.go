// Package handler exposes HTTP handlers for both authenticated and public endpoints.
// This file defines the movie and show catalog: admins create movies and
// schedule shows, while unauthenticated users browse what is playing and
// which seats are still open.
package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/movie-ticket-booking/internal/model"
	"github.com/iliyamo/movie-ticket-booking/internal/store"
)

// CatalogHandler serves movie and show management plus public browsing.
type CatalogHandler struct {
	Store store.Store
}

func NewCatalogHandler(st store.Store) *CatalogHandler {
	if st == nil {
		panic("nil store passed to NewCatalogHandler")
	}
	return &CatalogHandler{Store: st}
}

type createMovieReq struct {
	Title           string `json:"title"`
	Description     string `json:"description"`
	Genre           string `json:"genre"`
	DurationMinutes uint32 `json:"duration_minutes"`
	Rating          string `json:"rating"`
	ReleaseDate     string `json:"release_date"` // YYYY-MM-DD, optional
}

type createShowReq struct {
	MovieID           uint64 `json:"movie_id"`
	ScreenName        string `json:"screen_name"`
	StartsAt          string `json:"starts_at"` // RFC3339
	Rows              uint32 `json:"rows"`
	SeatsPerRow       uint32 `json:"seats_per_row"`
	PricePerSeatCents int64  `json:"price_per_seat_cents"`
}

// movieResp is the public movie shape; internal bookkeeping fields are
// filtered out.
type movieResp struct {
	ID              uint64 `json:"id"`
	Title           string `json:"title"`
	Description     string `json:"description,omitempty"`
	Genre           string `json:"genre,omitempty"`
	DurationMinutes uint32 `json:"duration_minutes"`
	Rating          string `json:"rating,omitempty"`
	ReleaseDate     string `json:"release_date,omitempty"`
}

type showResp struct {
	ID                uint64 `json:"id"`
	MovieID           uint64 `json:"movie_id"`
	ScreenName        string `json:"screen_name"`
	StartsAt          string `json:"starts_at"`
	TotalSeats        uint32 `json:"total_seats"`
	AvailableSeats    uint32 `json:"available_seats"`
	PricePerSeatCents int64  `json:"price_per_seat_cents"`
}

type seatResp struct {
	ID    uint64 `json:"id"`
	Label string `json:"label"`
}

func toMovieResp(m model.Movie) movieResp {
	r := movieResp{
		ID:              m.ID,
		Title:           m.Title,
		Description:     m.Description,
		Genre:           m.Genre,
		DurationMinutes: m.DurationMinutes,
		Rating:          m.Rating,
	}
	if m.ReleaseDate != nil {
		r.ReleaseDate = m.ReleaseDate.Format("2006-01-02")
	}
	return r
}

func toShowResp(s model.Show) showResp {
	return showResp{
		ID:                s.ID,
		MovieID:           s.MovieID,
		ScreenName:        s.ScreenName,
		StartsAt:          s.StartsAt.UTC().Format(time.RFC3339),
		TotalSeats:        s.TotalSeats,
		AvailableSeats:    s.AvailableSeats,
		PricePerSeatCents: s.PricePerSeatCents,
	}
}

// CreateMovie handles POST /v1/movies.  Admin only.
func (h *CatalogHandler) CreateMovie(c echo.Context) error {
	var req createMovieReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "title is required"})
	}
	if req.DurationMinutes == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "duration_minutes must be positive"})
	}

	m := model.Movie{
		Title:           req.Title,
		Description:     strings.TrimSpace(req.Description),
		Genre:           strings.TrimSpace(req.Genre),
		DurationMinutes: req.DurationMinutes,
		Rating:          strings.TrimSpace(req.Rating),
		IsActive:        true,
	}
	if req.ReleaseDate != "" {
		d, err := time.Parse("2006-01-02", req.ReleaseDate)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "release_date must be YYYY-MM-DD"})
		}
		m.ReleaseDate = &d
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Store.CreateMovie(ctx, &m); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create movie failed"})
	}
	return c.JSON(http.StatusCreated, toMovieResp(m))
}

// ListMovies handles GET /v1/movies.  Public; only active movies are
// returned.
func (h *CatalogHandler) ListMovies(c echo.Context) error {
	movies, err := h.Store.ListActiveMovies(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	out := make([]movieResp, 0, len(movies))
	for _, m := range movies {
		out = append(out, toMovieResp(m))
	}
	return c.JSON(http.StatusOK, echo.Map{"movies": out})
}

// CreateShow handles POST /v1/shows.  Admin only.  The seat grid is
// generated with the show inside one transaction: rows A, B, C... each
// with seats_per_row numbered seats.
func (h *CatalogHandler) CreateShow(c echo.Context) error {
	var req createShowReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if req.MovieID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "movie_id is required"})
	}
	req.ScreenName = strings.TrimSpace(req.ScreenName)
	if req.ScreenName == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "screen_name is required"})
	}
	if req.Rows == 0 || req.SeatsPerRow == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "rows and seats_per_row must be positive"})
	}
	if req.PricePerSeatCents < 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "price_per_seat_cents must not be negative"})
	}
	startsAt, err := time.Parse(time.RFC3339, req.StartsAt)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "starts_at must be RFC3339"})
	}
	if !startsAt.After(time.Now().UTC()) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "starts_at must be in the future"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	// The referenced movie must exist and be active.
	movie, err := h.Store.MovieByID(ctx, req.MovieID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "movie not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if !movie.IsActive {
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": "movie is not active"})
	}

	s := model.Show{
		MovieID:           req.MovieID,
		ScreenName:        req.ScreenName,
		StartsAt:          startsAt.UTC(),
		PricePerSeatCents: req.PricePerSeatCents,
		IsActive:          true,
	}
	if err := h.Store.CreateShow(ctx, &s, req.Rows, req.SeatsPerRow); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create show failed"})
	}
	return c.JSON(http.StatusCreated, toShowResp(s))
}

// ListShows handles GET /v1/movies/:id/shows.  Public; only upcoming
// active shows are listed.
func (h *CatalogHandler) ListShows(c echo.Context) error {
	movieID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || movieID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid movie id"})
	}
	shows, err := h.Store.UpcomingShowsByMovie(c.Request().Context(), movieID, time.Now().UTC())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	out := make([]showResp, 0, len(shows))
	for _, s := range shows {
		out = append(out, toShowResp(s))
	}
	return c.JSON(http.StatusOK, echo.Map{"shows": out})
}

// ListSeats handles GET /v1/shows/:id/seats.  Public; returns the
// seats that are still open for the show.
func (h *CatalogHandler) ListSeats(c echo.Context) error {
	showID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || showID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid show id"})
	}
	ctx := c.Request().Context()
	show, err := h.Store.ShowByID(ctx, showID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "show not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	seats, err := h.Store.UnbookedSeatsByShow(ctx, showID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	out := make([]seatResp, 0, len(seats))
	for _, seat := range seats {
		out = append(out, seatResp{ID: seat.ID, Label: seat.Label()})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"show":  toShowResp(*show),
		"seats": out,
	})
}
