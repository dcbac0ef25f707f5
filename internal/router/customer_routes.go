package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/movie-ticket-booking/internal/handler"
	"github.com/iliyamo/movie-ticket-booking/internal/middleware"
	"github.com/iliyamo/movie-ticket-booking/internal/model"
)

// RegisterCustomer registers customer-scoped endpoints under /v1.  All
// routes require a valid JWT and the CUSTOMER role.  Customers can book
// seats, list their own bookings and check their promo eligibility.
func RegisterCustomer(e *echo.Echo, bh *handler.BookingHandler, ph *handler.PromoHandler, jwtSecret string) {
	g := e.Group(
		"/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleCustomer),
	)
	g.POST("/bookings", bh.Create)
	g.GET("/my-bookings", bh.MyBookings)
	g.GET("/promotions/eligibility", ph.Eligibility)

	// Cancellation is shared: customers cancel their own bookings, and
	// admins may cancel any booking.  Ownership is enforced by the
	// booking service, not here.
	shared := e.Group(
		"/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleCustomer, model.RoleAdmin),
	)
	shared.DELETE("/bookings/:id", bh.Cancel)
}
