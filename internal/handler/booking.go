package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/movie-ticket-booking/internal/booking"
	"github.com/iliyamo/movie-ticket-booking/internal/middleware"
	"github.com/iliyamo/movie-ticket-booking/internal/model"
	"github.com/iliyamo/movie-ticket-booking/internal/queue"
	queue_publisher "github.com/iliyamo/movie-ticket-booking/internal/service"
)

// BookingHandler exposes the booking endpoints.  All booking state
// changes go through the booking service; the handler only parses the
// request, translates domain errors into HTTP responses and hands
// confirmed events to the broker.  Publishing happens after the
// transaction committed and never fails the request.
type BookingHandler struct {
	Svc *booking.Service
}

func NewBookingHandler(svc *booking.Service) *BookingHandler {
	if svc == nil {
		panic("nil service passed to NewBookingHandler")
	}
	return &BookingHandler{Svc: svc}
}

type createBookingReq struct {
	ShowID    uint64   `json:"show_id"`
	SeatIDs   []uint64 `json:"seat_ids"`
	PromoCode string   `json:"promo_code"`
}

// bookingHTTPError maps booking domain errors onto HTTP responses.
// Conflict-class failures (seat races, sold out) return 409 so clients
// know a retry with different seats may succeed; rule violations and
// rejected promos return 422; everything unexpected is a 500.
func bookingHTTPError(c echo.Context, err error) error {
	msg := err.Error()
	switch {
	case errors.Is(err, booking.ErrNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": msg})
	case errors.Is(err, booking.ErrUnauthorized):
		return c.JSON(http.StatusForbidden, echo.Map{"error": msg})
	case errors.Is(err, booking.ErrInsufficientSeats), errors.Is(err, booking.ErrSeatConflict):
		return c.JSON(http.StatusConflict, echo.Map{"error": msg})
	case errors.Is(err, booking.ErrInvalidPromo), errors.Is(err, booking.ErrBusinessRule):
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": msg})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}
}

// Create handles POST /v1/bookings.  On success it returns the
// confirmed booking with a 201 and publishes a booking.confirmed
// event in the background.
func (h *BookingHandler) Create(c echo.Context) error {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req createBookingReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if req.ShowID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "show_id is required"})
	}
	if len(req.SeatIDs) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "seat_ids is required"})
	}

	detail, err := h.Svc.CreateBooking(c.Request().Context(), userID, req.ShowID, req.SeatIDs, req.PromoCode)
	if err != nil {
		return bookingHTTPError(c, err)
	}

	go publishConfirmed(userID, req.ShowID, detail)

	return c.JSON(http.StatusCreated, detail)
}

func publishConfirmed(userID, showID uint64, d *model.BookingDetail) {
	ev := queue.BookingConfirmedEvent{
		BookingID:           d.BookingID,
		BookingReference:    d.BookingReference,
		UserID:              userID,
		ShowID:              showID,
		MovieTitle:          d.MovieTitle,
		ScreenName:          d.ScreenName,
		ShowTime:            d.ShowTime,
		SeatLabels:          d.SeatNumbers,
		TotalAmountCents:    d.TotalAmountCents,
		DiscountAmountCents: d.DiscountAmountCents,
		FinalAmountCents:    d.FinalAmountCents,
		ConfirmedAt:         d.BookingTime,
	}
	if d.PromoCodeUsed != nil {
		ev.PromoCode = *d.PromoCodeUsed
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = queue_publisher.PublishBookingConfirmed(ctx, ev)
}

// MyBookings handles GET /v1/my-bookings.
func (h *BookingHandler) MyBookings(c echo.Context) error {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	details, err := h.Svc.BookingsForUser(c.Request().Context(), userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"bookings": details})
}

// AllBookings handles GET /v1/bookings.  Admin only, enforced by the
// router.
func (h *BookingHandler) AllBookings(c echo.Context) error {
	details, err := h.Svc.AllBookings(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"bookings": details})
}

// Cancel handles DELETE /v1/bookings/:id.  Customers may cancel their
// own bookings; admins may cancel any.  A booking.cancelled event is
// published once the seats have been released.
func (h *BookingHandler) Cancel(c echo.Context) error {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	bookingID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || bookingID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
	}
	isAdmin := middleware.CurrentRole(c) == model.RoleAdmin

	cancelled, err := h.Svc.CancelBooking(c.Request().Context(), bookingID, userID, isAdmin)
	if err != nil {
		return bookingHTTPError(c, err)
	}

	go publishCancelled(cancelled)

	// The cancellation details (reference, seats released) travel on the
	// booking.cancelled event; the HTTP response carries no body.
	return c.NoContent(http.StatusNoContent)
}

func publishCancelled(b *model.Booking) {
	ev := queue.BookingCancelledEvent{
		BookingID:        b.ID,
		BookingReference: b.BookingReference,
		UserID:           b.UserID,
		ShowID:           b.ShowID,
		SeatsReleased:    b.TotalSeats,
		CancelledAt:      time.Now().UTC().Format(time.RFC3339),
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = queue_publisher.PublishBookingCancelled(ctx, ev)
}
