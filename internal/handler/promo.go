package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/movie-ticket-booking/internal/booking"
	"github.com/iliyamo/movie-ticket-booking/internal/middleware"
	"github.com/iliyamo/movie-ticket-booking/internal/model"
	"github.com/iliyamo/movie-ticket-booking/internal/store"
)

// PromoHandler serves promo code administration and the customer-facing
// eligibility check.
type PromoHandler struct {
	Store store.Store
	Svc   *booking.Service
}

func NewPromoHandler(st store.Store, svc *booking.Service) *PromoHandler {
	if st == nil || svc == nil {
		panic("nil dependency passed to NewPromoHandler")
	}
	return &PromoHandler{Store: st, Svc: svc}
}

type createPromoReq struct {
	Code               string  `json:"code"`
	Description        string  `json:"description"`
	DiscountType       string  `json:"discount_type"` // FLAT_DISCOUNT | FREE_SEAT
	DiscountValueCents int64   `json:"discount_value_cents"`
	ValidFrom          string  `json:"valid_from"`  // RFC3339
	ValidUntil         string  `json:"valid_until"` // RFC3339
	MaxUses            *uint32 `json:"max_uses"`    // null = unlimited
}

type promoResp struct {
	ID                 uint64  `json:"id"`
	Code               string  `json:"code"`
	Description        string  `json:"description,omitempty"`
	DiscountType       string  `json:"discount_type"`
	DiscountValueCents int64   `json:"discount_value_cents"`
	ValidFrom          string  `json:"valid_from"`
	ValidUntil         string  `json:"valid_until"`
	MaxUses            *uint32 `json:"max_uses,omitempty"`
	CurrentUses        uint32  `json:"current_uses"`
	IsActive           bool    `json:"is_active"`
}

func toPromoResp(p model.PromoCode) promoResp {
	return promoResp{
		ID:                 p.ID,
		Code:               p.Code,
		Description:        p.Description,
		DiscountType:       p.DiscountType,
		DiscountValueCents: p.DiscountValueCents,
		ValidFrom:          p.ValidFrom.UTC().Format(time.RFC3339),
		ValidUntil:         p.ValidUntil.UTC().Format(time.RFC3339),
		MaxUses:            p.MaxUses,
		CurrentUses:        p.CurrentUses,
		IsActive:           p.IsActive,
	}
}

// Create handles POST /v1/promos.  Admin only.
func (h *PromoHandler) Create(c echo.Context) error {
	var req createPromoReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	req.Code = strings.ToUpper(strings.TrimSpace(req.Code))
	if req.Code == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "code is required"})
	}
	dt := strings.ToUpper(strings.TrimSpace(req.DiscountType))
	if dt != model.DiscountFlat && dt != model.DiscountFreeSeat {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "discount_type must be FLAT_DISCOUNT or FREE_SEAT"})
	}
	if dt == model.DiscountFlat && req.DiscountValueCents <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "discount_value_cents must be positive"})
	}
	validFrom, err := time.Parse(time.RFC3339, req.ValidFrom)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "valid_from must be RFC3339"})
	}
	validUntil, err := time.Parse(time.RFC3339, req.ValidUntil)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "valid_until must be RFC3339"})
	}
	if !validUntil.After(validFrom) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "valid_until must be after valid_from"})
	}
	if req.MaxUses != nil && *req.MaxUses == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "max_uses must be positive or omitted"})
	}

	p := model.PromoCode{
		Code:               req.Code,
		Description:        strings.TrimSpace(req.Description),
		DiscountType:       dt,
		DiscountValueCents: req.DiscountValueCents,
		ValidFrom:          validFrom.UTC(),
		ValidUntil:         validUntil.UTC(),
		MaxUses:            req.MaxUses,
		IsActive:           true,
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Store.CreatePromo(ctx, &p); err != nil {
		if errors.Is(err, store.ErrCodeExists) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "promo code already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create promo failed"})
	}
	return c.JSON(http.StatusCreated, toPromoResp(p))
}

// List handles GET /v1/promos.  Admin only; includes inactive codes.
func (h *PromoHandler) List(c echo.Context) error {
	promos, err := h.Store.ListPromos(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	out := make([]promoResp, 0, len(promos))
	for _, p := range promos {
		out = append(out, toPromoResp(p))
	}
	return c.JSON(http.StatusOK, echo.Map{"promos": out})
}

// Eligibility handles GET /v1/promotions/eligibility.  It reports the
// caller's loyalty aggregates and whether promo codes currently apply
// to them.
func (h *PromoHandler) Eligibility(c echo.Context) error {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	elig, err := h.Svc.PromotionEligibility(c.Request().Context(), userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, elig)
}
