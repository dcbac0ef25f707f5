package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/movie-ticket-booking/internal/handler"
	"github.com/iliyamo/movie-ticket-booking/internal/middleware"
	"github.com/iliyamo/movie-ticket-booking/internal/model"
)

// RegisterAdmin registers ADMIN-scoped endpoints under /v1.
// All routes require a valid JWT and the ADMIN role.
func RegisterAdmin(e *echo.Echo, ch *handler.CatalogHandler, bh *handler.BookingHandler, ph *handler.PromoHandler, jwtSecret string) {
	g := e.Group(
		"/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleAdmin),
	)

	// ---- Catalog ----
	g.POST("/movies", ch.CreateMovie)
	g.POST("/shows", ch.CreateShow)

	// ---- Promotions ----
	g.POST("/promos", ph.Create)
	g.GET("/promos", ph.List)

	// ---- Booking ledger ----
	g.GET("/bookings", bh.AllBookings)
}
