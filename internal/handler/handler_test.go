package handler_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/iliyamo/movie-ticket-booking/internal/booking"
	"github.com/iliyamo/movie-ticket-booking/internal/config"
	"github.com/iliyamo/movie-ticket-booking/internal/handler"
	"github.com/iliyamo/movie-ticket-booking/internal/router"
	"github.com/iliyamo/movie-ticket-booking/internal/store/memory"
)

// server runs the full route table against the in-memory store so the
// tests cover routing, middleware and handlers together.
type server struct {
	e  *echo.Echo
	st *memory.Store
}

func newServer(t *testing.T) *server {
	t.Helper()
	cfg := config.Config{
		Env:            "test",
		Port:           "0",
		JWTSecret:      "test-secret",
		AccessTTLMin:   15,
		RefreshTTLDays: 7,
		BcryptCost:     bcrypt.MinCost,
	}
	st := memory.New()
	svc := booking.NewService(st)

	e := echo.New()
	router.RegisterRoutes(e)
	router.RegisterAuth(e, handler.NewAuthHandler(cfg, st), cfg.JWTSecret)

	ch := handler.NewCatalogHandler(st)
	bh := handler.NewBookingHandler(svc)
	ph := handler.NewPromoHandler(st, svc)
	router.RegisterPublic(e, ch)
	router.RegisterCustomer(e, bh, ph, cfg.JWTSecret)
	router.RegisterAdmin(e, ch, bh, ph, cfg.JWTSecret)

	return &server{e: e, st: st}
}

func (s *server) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, rd)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), out))
}

type authBody struct {
	User struct {
		ID    uint64 `json:"id"`
		Email string `json:"email"`
		Role  string `json:"role"`
	} `json:"user"`
	Access struct {
		Token string `json:"token"`
	} `json:"access"`
	Refresh struct {
		Token string `json:"token"`
	} `json:"refresh"`
}

func (s *server) register(t *testing.T, email, role string) authBody {
	t.Helper()
	rec := s.do(t, http.MethodPost, "/v1/auth/register", "", map[string]string{
		"email": email, "password": "hunter22", "role": role,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var out authBody
	decode(t, rec, &out)
	return out
}

// seedShow creates a movie and a future show through the admin API and
// returns the show id plus its open seat ids.
func (s *server) seedShow(t *testing.T, adminToken string, seatsPerRow uint32, priceCents int64) (uint64, []uint64) {
	t.Helper()
	rec := s.do(t, http.MethodPost, "/v1/movies", adminToken, map[string]interface{}{
		"title":            "Heat",
		"genre":            "Crime",
		"duration_minutes": 170,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var movie struct {
		ID uint64 `json:"id"`
	}
	decode(t, rec, &movie)

	rec = s.do(t, http.MethodPost, "/v1/shows", adminToken, map[string]interface{}{
		"movie_id":             movie.ID,
		"screen_name":          "Screen 1",
		"starts_at":            time.Now().UTC().Add(24 * time.Hour).Format(time.RFC3339),
		"rows":                 1,
		"seats_per_row":        seatsPerRow,
		"price_per_seat_cents": priceCents,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var show struct {
		ID uint64 `json:"id"`
	}
	decode(t, rec, &show)

	rec = s.do(t, http.MethodGet, "/v1/shows/"+itoa(show.ID)+"/seats", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var seatsOut struct {
		Seats []struct {
			ID uint64 `json:"id"`
		} `json:"seats"`
	}
	decode(t, rec, &seatsOut)
	ids := make([]uint64, 0, len(seatsOut.Seats))
	for _, seat := range seatsOut.Seats {
		ids = append(ids, seat.ID)
	}
	return show.ID, ids
}

func itoa(n uint64) string {
	return strconv.FormatUint(n, 10)
}

func TestRegisterLoginAndMe(t *testing.T) {
	s := newServer(t)

	reg := s.register(t, "alice@example.com", "CUSTOMER")
	assert.Equal(t, "CUSTOMER", reg.User.Role)
	assert.NotEmpty(t, reg.Access.Token)
	assert.NotEmpty(t, reg.Refresh.Token)

	rec := s.do(t, http.MethodPost, "/v1/auth/login", "", map[string]string{
		"email": "Alice@Example.com", "password": "hunter22",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var login authBody
	decode(t, rec, &login)

	rec = s.do(t, http.MethodGet, "/v1/me", login.Access.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var me struct {
		UserID uint64 `json:"user_id"`
		Role   string `json:"role"`
	}
	decode(t, rec, &me)
	assert.Equal(t, reg.User.ID, me.UserID)
	assert.Equal(t, "CUSTOMER", me.Role)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	s := newServer(t)
	s.register(t, "alice@example.com", "CUSTOMER")

	rec := s.do(t, http.MethodPost, "/v1/auth/register", "", map[string]string{
		"email": "alice@example.com", "password": "hunter22",
	})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestLoginBadPassword(t *testing.T) {
	s := newServer(t)
	s.register(t, "alice@example.com", "CUSTOMER")

	rec := s.do(t, http.MethodPost, "/v1/auth/login", "", map[string]string{
		"email": "alice@example.com", "password": "wrong",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRefreshRotatesToken(t *testing.T) {
	s := newServer(t)
	reg := s.register(t, "alice@example.com", "CUSTOMER")

	rec := s.do(t, http.MethodPost, "/v1/auth/refresh", "", map[string]string{
		"refresh_token": reg.Refresh.Token,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var refreshed authBody
	decode(t, rec, &refreshed)
	assert.NotEmpty(t, refreshed.Access.Token)
	assert.NotEqual(t, reg.Refresh.Token, refreshed.Refresh.Token)

	// The old refresh token was revoked by the rotation.
	rec = s.do(t, http.MethodPost, "/v1/auth/refresh", "", map[string]string{
		"refresh_token": reg.Refresh.Token,
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLogoutRevokesSessions(t *testing.T) {
	s := newServer(t)
	reg := s.register(t, "alice@example.com", "CUSTOMER")

	rec := s.do(t, http.MethodPost, "/v1/auth/logout", reg.Access.Token, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = s.do(t, http.MethodPost, "/v1/auth/refresh", "", map[string]string{
		"refresh_token": reg.Refresh.Token,
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAdminRoutesRequireAdminRole(t *testing.T) {
	s := newServer(t)
	customer := s.register(t, "alice@example.com", "CUSTOMER")

	rec := s.do(t, http.MethodPost, "/v1/movies", customer.Access.Token, map[string]interface{}{
		"title": "Heat", "duration_minutes": 170,
	})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(t, http.MethodGet, "/v1/bookings", customer.Access.Token, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(t, http.MethodPost, "/v1/movies", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestBookingFlow(t *testing.T) {
	s := newServer(t)
	admin := s.register(t, "admin@example.com", "ADMIN")
	customer := s.register(t, "alice@example.com", "CUSTOMER")

	showID, seatIDs := s.seedShow(t, admin.Access.Token, 10, 200)
	require.Len(t, seatIDs, 10)

	// Guests can browse the catalog.
	rec := s.do(t, http.MethodGet, "/v1/movies", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	// Booking requires authentication.
	rec = s.do(t, http.MethodPost, "/v1/bookings", "", map[string]interface{}{
		"show_id": showID, "seat_ids": seatIDs[:2],
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(t, http.MethodPost, "/v1/bookings", customer.Access.Token, map[string]interface{}{
		"show_id": showID, "seat_ids": seatIDs[:2],
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created struct {
		BookingID        uint64   `json:"booking_id"`
		BookingReference string   `json:"booking_reference"`
		SeatNumbers      []string `json:"seat_numbers"`
		FinalAmountCents int64    `json:"final_amount_cents"`
		BookingStatus    string   `json:"booking_status"`
	}
	decode(t, rec, &created)
	assert.Equal(t, []string{"A1", "A2"}, created.SeatNumbers)
	assert.Equal(t, int64(400), created.FinalAmountCents)
	assert.Equal(t, "CONFIRMED", created.BookingStatus)

	// The booked seats disappeared from the open list.
	rec = s.do(t, http.MethodGet, "/v1/shows/"+itoa(showID)+"/seats", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var seatsOut struct {
		Show struct {
			AvailableSeats uint32 `json:"available_seats"`
		} `json:"show"`
		Seats []struct {
			ID uint64 `json:"id"`
		} `json:"seats"`
	}
	decode(t, rec, &seatsOut)
	assert.Equal(t, uint32(8), seatsOut.Show.AvailableSeats)
	assert.Len(t, seatsOut.Seats, 8)

	rec = s.do(t, http.MethodGet, "/v1/my-bookings", customer.Access.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var mine struct {
		Bookings []json.RawMessage `json:"bookings"`
	}
	decode(t, rec, &mine)
	assert.Len(t, mine.Bookings, 1)

	// Admins see the whole ledger.
	rec = s.do(t, http.MethodGet, "/v1/bookings", admin.Access.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestBookingErrorMapping(t *testing.T) {
	s := newServer(t)
	admin := s.register(t, "admin@example.com", "ADMIN")
	alice := s.register(t, "alice@example.com", "CUSTOMER")
	bob := s.register(t, "bob@example.com", "CUSTOMER")

	showID, seatIDs := s.seedShow(t, admin.Access.Token, 10, 200)

	// Unknown show -> 404.
	rec := s.do(t, http.MethodPost, "/v1/bookings", alice.Access.Token, map[string]interface{}{
		"show_id": 999, "seat_ids": seatIDs[:1],
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// Invalid promo -> 422.
	rec = s.do(t, http.MethodPost, "/v1/bookings", alice.Access.Token, map[string]interface{}{
		"show_id": showID, "seat_ids": seatIDs[:1], "promo_code": "NOPE",
	})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	// Seat race lost -> 409.
	rec = s.do(t, http.MethodPost, "/v1/bookings", alice.Access.Token, map[string]interface{}{
		"show_id": showID, "seat_ids": seatIDs[:2],
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	rec = s.do(t, http.MethodPost, "/v1/bookings", bob.Access.Token, map[string]interface{}{
		"show_id": showID, "seat_ids": seatIDs[:2],
	})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestCancelBookingEndpoint(t *testing.T) {
	s := newServer(t)
	admin := s.register(t, "admin@example.com", "ADMIN")
	alice := s.register(t, "alice@example.com", "CUSTOMER")
	bob := s.register(t, "bob@example.com", "CUSTOMER")

	showID, seatIDs := s.seedShow(t, admin.Access.Token, 10, 200)

	rec := s.do(t, http.MethodPost, "/v1/bookings", alice.Access.Token, map[string]interface{}{
		"show_id": showID, "seat_ids": seatIDs[:2],
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	var created struct {
		BookingID uint64 `json:"booking_id"`
	}
	decode(t, rec, &created)

	// Another customer cannot cancel it.
	rec = s.do(t, http.MethodDelete, "/v1/bookings/"+itoa(created.BookingID), bob.Access.Token, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// The owner can.  Success carries no response body.
	rec = s.do(t, http.MethodDelete, "/v1/bookings/"+itoa(created.BookingID), alice.Access.Token, nil)
	require.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())
	assert.Empty(t, rec.Body.String())

	// Cancelling twice is a rule violation.
	rec = s.do(t, http.MethodDelete, "/v1/bookings/"+itoa(created.BookingID), alice.Access.Token, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	// Admins may cancel anyone's booking.
	rec = s.do(t, http.MethodPost, "/v1/bookings", bob.Access.Token, map[string]interface{}{
		"show_id": showID, "seat_ids": seatIDs[2:4],
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	decode(t, rec, &created)
	rec = s.do(t, http.MethodDelete, "/v1/bookings/"+itoa(created.BookingID), admin.Access.Token, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestPromoAdminAndEligibility(t *testing.T) {
	s := newServer(t)
	admin := s.register(t, "admin@example.com", "ADMIN")
	alice := s.register(t, "alice@example.com", "CUSTOMER")

	rec := s.do(t, http.MethodPost, "/v1/promos", admin.Access.Token, map[string]interface{}{
		"code":                 "flat50",
		"discount_type":        "FLAT_DISCOUNT",
		"discount_value_cents": 50,
		"valid_from":           time.Now().UTC().Add(-time.Hour).Format(time.RFC3339),
		"valid_until":          time.Now().UTC().Add(24 * time.Hour).Format(time.RFC3339),
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var promo struct {
		Code string `json:"code"`
	}
	decode(t, rec, &promo)
	assert.Equal(t, "FLAT50", promo.Code) // codes are stored upper-cased

	// Duplicate code -> 409.
	rec = s.do(t, http.MethodPost, "/v1/promos", admin.Access.Token, map[string]interface{}{
		"code":                 "FLAT50",
		"discount_type":        "FLAT_DISCOUNT",
		"discount_value_cents": 50,
		"valid_from":           time.Now().UTC().Add(-time.Hour).Format(time.RFC3339),
		"valid_until":          time.Now().UTC().Add(24 * time.Hour).Format(time.RFC3339),
	})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = s.do(t, http.MethodGet, "/v1/promos", admin.Access.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, http.MethodGet, "/v1/promotions/eligibility", alice.Access.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var elig struct {
		Eligible        bool  `json:"eligible"`
		TotalBookings   int64 `json:"total_bookings"`
		TotalSpentCents int64 `json:"total_spent_cents"`
	}
	decode(t, rec, &elig)
	assert.False(t, elig.Eligible)
	assert.Zero(t, elig.TotalBookings)
}
