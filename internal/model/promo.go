package model

import "time"

// Discount types recognised by the promotions engine.  The enumeration
// is closed; anything else yields a zero discount.
const (
	DiscountFlat     = "FLAT_DISCOUNT"
	DiscountFreeSeat = "FREE_SEAT"
)

// PromoCode is a time-boxed, usage-capped discount token.  Redemption
// requires loyalty eligibility and increments CurrentUses atomically;
// two concurrent redemptions must not both slip past an exhausted cap.
// Usage is consumed permanently: cancelling a booking does not return
// the use.
//
// Fields:
//  ID                 – primary key identifier.
//  Code               – unique redemption code string.
//  Description        – optional human-readable description.
//  DiscountType       – FLAT_DISCOUNT or FREE_SEAT.
//  DiscountValueCents – flat discount value in cents (FLAT_DISCOUNT only).
//  ValidFrom          – start of the validity window.
//  ValidUntil         – end of the validity window.
//  MaxUses            – optional redemption cap (nil = unlimited).
//  CurrentUses        – number of redemptions so far.
//  IsActive           – whether the code can be redeemed at all.
//  CreatedAt          – creation timestamp.
type PromoCode struct {
	ID                 uint64    // promo_codes.id
	Code               string    // promo_codes.code
	Description        string    // promo_codes.description
	DiscountType       string    // promo_codes.discount_type
	DiscountValueCents int64     // promo_codes.discount_value_cents
	ValidFrom          time.Time // promo_codes.valid_from
	ValidUntil         time.Time // promo_codes.valid_until
	MaxUses            *uint32   // promo_codes.max_uses (nullable)
	CurrentUses        uint32    // promo_codes.current_uses
	IsActive           bool      // promo_codes.is_active
	CreatedAt          time.Time // promo_codes.created_at
}
