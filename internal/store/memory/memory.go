// Package memory implements the store contract entirely in memory.
// Transactions are serialized by a single mutex and operate on a deep
// copy of the state that is swapped in only on commit, which gives
// the same all-or-nothing visibility as the MySQL implementation.  It
// backs the service and handler tests, including the concurrency
// scenarios, without a database.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/iliyamo/movie-ticket-booking/internal/model"
	"github.com/iliyamo/movie-ticket-booking/internal/store"
)

// Store is the in-memory implementation of store.Store.
type Store struct {
	mu sync.Mutex
	st *state
}

type ids struct {
	user, movie, show, seat, booking, promo uint64
}

type state struct {
	users        map[uint64]model.User
	movies       map[uint64]model.Movie
	shows        map[uint64]model.Show
	seats        map[uint64]model.Seat
	bookings     map[uint64]model.Booking
	bookingSeats map[uint64][]uint64
	promos       map[uint64]model.PromoCode
	refresh      map[string]model.RefreshToken
	ids          ids
}

// New returns an empty in-memory store.
func New() *Store {
	return &Store{st: newState()}
}

func newState() *state {
	return &state{
		users:        map[uint64]model.User{},
		movies:       map[uint64]model.Movie{},
		shows:        map[uint64]model.Show{},
		seats:        map[uint64]model.Seat{},
		bookings:     map[uint64]model.Booking{},
		bookingSeats: map[uint64][]uint64{},
		promos:       map[uint64]model.PromoCode{},
		refresh:      map[string]model.RefreshToken{},
	}
}

func (s *state) clone() *state {
	c := newState()
	for k, v := range s.users {
		c.users[k] = v
	}
	for k, v := range s.movies {
		c.movies[k] = v
	}
	for k, v := range s.shows {
		c.shows[k] = v
	}
	for k, v := range s.seats {
		c.seats[k] = v
	}
	for k, v := range s.bookings {
		c.bookings[k] = v
	}
	for k, v := range s.bookingSeats {
		c.bookingSeats[k] = append([]uint64(nil), v...)
	}
	for k, v := range s.promos {
		c.promos[k] = v
	}
	for k, v := range s.refresh {
		c.refresh[k] = v
	}
	c.ids = s.ids
	return c
}

// tx implements store.Tx against a cloned state.  The clone is only
// published on commit, so an error anywhere discards every mutation.
type tx struct {
	st *state
}

// WithinTx serializes transactions under the store mutex and applies
// fn to a deep copy of the state; the copy replaces the live state
// only when fn returns nil.
func (s *Store) WithinTx(ctx context.Context, fn func(tx store.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	clone := s.st.clone()
	if err := fn(&tx{st: clone}); err != nil {
		return err
	}
	s.st = clone
	return nil
}

// --- Tx operations ---

func (t *tx) UserByID(ctx context.Context, id uint64) (*model.User, error) {
	u, ok := t.st.users[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &u, nil
}

func (t *tx) MovieByID(ctx context.Context, id uint64) (*model.Movie, error) {
	m, ok := t.st.movies[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &m, nil
}

func (t *tx) ShowForUpdate(ctx context.Context, id uint64) (*model.Show, error) {
	sh, ok := t.st.shows[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &sh, nil
}

func (t *tx) AvailableSeatsForUpdate(ctx context.Context, ids []uint64) ([]model.Seat, error) {
	return t.seatsByID(ids, true), nil
}

func (t *tx) SeatsForUpdate(ctx context.Context, ids []uint64) ([]model.Seat, error) {
	return t.seatsByID(ids, false), nil
}

func (t *tx) seatsByID(ids []uint64, unbookedOnly bool) []model.Seat {
	ordered := append([]uint64(nil), ids...)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i] < ordered[j] })
	seats := make([]model.Seat, 0, len(ordered))
	for _, id := range ordered {
		seat, ok := t.st.seats[id]
		if !ok {
			continue
		}
		if unbookedOnly && seat.IsBooked {
			continue
		}
		seats = append(seats, seat)
	}
	return seats
}

func (t *tx) SetSeatsBooked(ctx context.Context, ids []uint64, booked bool) error {
	for _, id := range ids {
		seat, ok := t.st.seats[id]
		if !ok {
			return store.ErrNotFound
		}
		seat.IsBooked = booked
		seat.Version++
		seat.UpdatedAt = time.Now().UTC()
		t.st.seats[id] = seat
	}
	return nil
}

func (t *tx) AddAvailableSeats(ctx context.Context, showID uint64, delta int32) error {
	sh, ok := t.st.shows[showID]
	if !ok {
		return store.ErrNotFound
	}
	next := int64(sh.AvailableSeats) + int64(delta)
	if next < 0 || next > int64(sh.TotalSeats) {
		return store.ErrNotFound
	}
	sh.AvailableSeats = uint32(next)
	sh.Version++
	sh.UpdatedAt = time.Now().UTC()
	t.st.shows[showID] = sh
	return nil
}

func (t *tx) ActivePromoForUpdate(ctx context.Context, code string) (*model.PromoCode, error) {
	for _, p := range t.st.promos {
		if p.IsActive && p.Code == code {
			promo := p
			return &promo, nil
		}
	}
	return nil, store.ErrNotFound
}

func (t *tx) IncrementPromoUses(ctx context.Context, promoID uint64) error {
	p, ok := t.st.promos[promoID]
	if !ok {
		return store.ErrNotFound
	}
	p.CurrentUses++
	t.st.promos[promoID] = p
	return nil
}

func (t *tx) ConfirmedBookingStats(ctx context.Context, userID uint64) (int64, int64, error) {
	return t.st.confirmedStats(userID)
}

func (s *state) confirmedStats(userID uint64) (int64, int64, error) {
	var count, spent int64
	for _, b := range s.bookings {
		if b.UserID == userID && b.Status == model.BookingConfirmed {
			count++
			spent += b.FinalAmountCents
		}
	}
	return count, spent, nil
}

func (t *tx) InsertBooking(ctx context.Context, b *model.Booking, seatIDs []uint64) error {
	t.st.ids.booking++
	b.ID = t.st.ids.booking
	b.CreatedAt = time.Now().UTC()
	t.st.bookings[b.ID] = *b
	t.st.bookingSeats[b.ID] = append([]uint64(nil), seatIDs...)
	return nil
}

func (t *tx) BookingByID(ctx context.Context, id uint64) (*model.Booking, error) {
	b, ok := t.st.bookings[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &b, nil
}

func (t *tx) BookingSeatIDs(ctx context.Context, bookingID uint64) ([]uint64, error) {
	return append([]uint64(nil), t.st.bookingSeats[bookingID]...), nil
}

func (t *tx) SetBookingStatus(ctx context.Context, bookingID uint64, status string) error {
	b, ok := t.st.bookings[bookingID]
	if !ok {
		return store.ErrNotFound
	}
	b.Status = status
	t.st.bookings[bookingID] = b
	return nil
}

// --- Store operations ---

func (s *Store) CreateUser(ctx context.Context, email, passwordHash, role string) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	email = strings.ToLower(strings.TrimSpace(email))
	for _, u := range s.st.users {
		if u.Email == email {
			return 0, store.ErrEmailExists
		}
	}
	s.st.ids.user++
	now := time.Now().UTC()
	u := model.User{
		ID: s.st.ids.user, Email: email, PasswordHash: passwordHash,
		Role: role, IsActive: true, CreatedAt: now, UpdatedAt: now,
	}
	s.st.users[u.ID] = u
	return u.ID, nil
}

func (s *Store) UserByEmail(ctx context.Context, email string) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	email = strings.ToLower(strings.TrimSpace(email))
	for _, u := range s.st.users {
		if u.Email == email {
			user := u
			return &user, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *Store) UserByID(ctx context.Context, id uint64) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.st.users[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &u, nil
}

func (s *Store) StoreRefreshToken(ctx context.Context, userID uint64, tokenHash string, expiresAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.st.refresh[tokenHash] = model.RefreshToken{
		UserID: userID, TokenHash: tokenHash, ExpiresAt: expiresAt, CreatedAt: time.Now().UTC(),
	}
	return nil
}

func (s *Store) ValidateRefreshToken(ctx context.Context, tokenHash string) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rt, ok := s.st.refresh[tokenHash]
	if !ok || rt.RevokedAt != nil || !rt.ExpiresAt.After(time.Now().UTC()) {
		return 0, store.ErrNotFound
	}
	return rt.UserID, nil
}

func (s *Store) RevokeRefreshToken(ctx context.Context, tokenHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rt, ok := s.st.refresh[tokenHash]
	if !ok {
		return nil
	}
	now := time.Now().UTC()
	rt.RevokedAt = &now
	s.st.refresh[tokenHash] = rt
	return nil
}

func (s *Store) RevokeAllRefreshTokens(ctx context.Context, userID uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now().UTC()
	for hash, rt := range s.st.refresh {
		if rt.UserID == userID && rt.RevokedAt == nil {
			rt.RevokedAt = &now
			s.st.refresh[hash] = rt
		}
	}
	return nil
}

func (s *Store) CreateMovie(ctx context.Context, m *model.Movie) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.st.ids.movie++
	m.ID = s.st.ids.movie
	now := time.Now().UTC()
	m.CreatedAt, m.UpdatedAt = now, now
	s.st.movies[m.ID] = *m
	return nil
}

func (s *Store) MovieByID(ctx context.Context, id uint64) (*model.Movie, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.st.movies[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &m, nil
}

func (s *Store) ListActiveMovies(ctx context.Context) ([]model.Movie, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	movies := make([]model.Movie, 0)
	for _, m := range s.st.movies {
		if m.IsActive {
			movies = append(movies, m)
		}
	}
	sort.Slice(movies, func(i, j int) bool { return movies[i].Title < movies[j].Title })
	return movies, nil
}

func (s *Store) CreateShow(ctx context.Context, sh *model.Show, rows, seatsPerRow uint32) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.st.ids.show++
	sh.ID = s.st.ids.show
	sh.TotalSeats = rows * seatsPerRow
	sh.AvailableSeats = sh.TotalSeats
	now := time.Now().UTC()
	sh.CreatedAt, sh.UpdatedAt = now, now
	s.st.shows[sh.ID] = *sh
	for r := uint32(0); r < rows; r++ {
		for n := uint32(1); n <= seatsPerRow; n++ {
			s.st.ids.seat++
			seat := model.Seat{
				ID: s.st.ids.seat, ShowID: sh.ID,
				RowLabel: rowLabel(r), SeatNumber: n,
				CreatedAt: now, UpdatedAt: now,
			}
			s.st.seats[seat.ID] = seat
		}
	}
	return nil
}

func rowLabel(i uint32) string {
	label := ""
	n := i
	for {
		label = string(rune('A'+n%26)) + label
		if n < 26 {
			return label
		}
		n = n/26 - 1
	}
}

func (s *Store) ShowByID(ctx context.Context, id uint64) (*model.Show, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sh, ok := s.st.shows[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &sh, nil
}

func (s *Store) UpcomingShowsByMovie(ctx context.Context, movieID uint64, after time.Time) ([]model.Show, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	shows := make([]model.Show, 0)
	for _, sh := range s.st.shows {
		if sh.MovieID == movieID && sh.IsActive && sh.StartsAt.After(after) {
			shows = append(shows, sh)
		}
	}
	sort.Slice(shows, func(i, j int) bool { return shows[i].StartsAt.Before(shows[j].StartsAt) })
	return shows, nil
}

func (s *Store) UnbookedSeatsByShow(ctx context.Context, showID uint64) ([]model.Seat, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	seats := make([]model.Seat, 0)
	for _, seat := range s.st.seats {
		if seat.ShowID == showID && !seat.IsBooked {
			seats = append(seats, seat)
		}
	}
	sort.Slice(seats, func(i, j int) bool {
		if seats[i].RowLabel != seats[j].RowLabel {
			return seats[i].RowLabel < seats[j].RowLabel
		}
		return seats[i].SeatNumber < seats[j].SeatNumber
	})
	return seats, nil
}

func (s *Store) ConfirmedBookingStats(ctx context.Context, userID uint64) (int64, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.confirmedStats(userID)
}

func (s *Store) BookingsByUser(ctx context.Context, userID uint64) ([]model.BookingDetail, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.details(func(b model.Booking) bool { return b.UserID == userID }), nil
}

func (s *Store) AllBookings(ctx context.Context) ([]model.BookingDetail, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.details(func(model.Booking) bool { return true }), nil
}

func (s *Store) details(match func(model.Booking) bool) []model.BookingDetail {
	bookings := make([]model.Booking, 0)
	for _, b := range s.st.bookings {
		if match(b) {
			bookings = append(bookings, b)
		}
	}
	// Most recent first; id breaks ties for same-instant bookings.
	sort.Slice(bookings, func(i, j int) bool {
		if !bookings[i].CreatedAt.Equal(bookings[j].CreatedAt) {
			return bookings[i].CreatedAt.After(bookings[j].CreatedAt)
		}
		return bookings[i].ID > bookings[j].ID
	})
	details := make([]model.BookingDetail, 0, len(bookings))
	for _, b := range bookings {
		sh := s.st.shows[b.ShowID]
		m := s.st.movies[sh.MovieID]
		d := model.BookingDetail{
			BookingID:           b.ID,
			BookingReference:    b.BookingReference,
			MovieTitle:          m.Title,
			ShowTime:            sh.StartsAt.UTC().Format(time.RFC3339),
			ScreenName:          sh.ScreenName,
			TotalSeats:          b.TotalSeats,
			SeatNumbers:         []string{},
			TotalAmountCents:    b.TotalAmountCents,
			DiscountAmountCents: b.DiscountAmountCents,
			FinalAmountCents:    b.FinalAmountCents,
			BookingStatus:       b.Status,
			BookingTime:         b.CreatedAt.UTC().Format(time.RFC3339),
		}
		seats := make([]model.Seat, 0)
		for _, sid := range s.st.bookingSeats[b.ID] {
			if seat, ok := s.st.seats[sid]; ok {
				seats = append(seats, seat)
			}
		}
		sort.Slice(seats, func(i, j int) bool {
			if seats[i].RowLabel != seats[j].RowLabel {
				return seats[i].RowLabel < seats[j].RowLabel
			}
			return seats[i].SeatNumber < seats[j].SeatNumber
		})
		for _, seat := range seats {
			d.SeatNumbers = append(d.SeatNumbers, seat.Label())
		}
		if b.PromoCodeID != nil {
			if p, ok := s.st.promos[*b.PromoCodeID]; ok {
				code := p.Code
				d.PromoCodeUsed = &code
			}
		}
		details = append(details, d)
	}
	return details
}

func (s *Store) CreatePromo(ctx context.Context, p *model.PromoCode) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.st.promos {
		if existing.Code == p.Code {
			return store.ErrCodeExists
		}
	}
	s.st.ids.promo++
	p.ID = s.st.ids.promo
	p.CreatedAt = time.Now().UTC()
	s.st.promos[p.ID] = *p
	return nil
}

func (s *Store) ListPromos(ctx context.Context) ([]model.PromoCode, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	promos := make([]model.PromoCode, 0, len(s.st.promos))
	for _, p := range s.st.promos {
		promos = append(promos, p)
	}
	sort.Slice(promos, func(i, j int) bool { return promos[i].ID > promos[j].ID })
	return promos, nil
}
