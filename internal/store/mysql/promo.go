package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/iliyamo/movie-ticket-booking/internal/model"
	"github.com/iliyamo/movie-ticket-booking/internal/store"
)

const promoColumns = `id, code, description, discount_type, discount_value_cents,
	valid_from, valid_until, max_uses, current_uses, is_active, created_at`

func scanPromo(row interface{ Scan(...interface{}) error }) (*model.PromoCode, error) {
	var p model.PromoCode
	var maxUses sql.NullInt64
	err := row.Scan(&p.ID, &p.Code, &p.Description, &p.DiscountType, &p.DiscountValueCents,
		&p.ValidFrom, &p.ValidUntil, &maxUses, &p.CurrentUses, &p.IsActive, &p.CreatedAt)
	if err != nil {
		return nil, err
	}
	if maxUses.Valid {
		mu := uint32(maxUses.Int64)
		p.MaxUses = &mu
	}
	return &p, nil
}

// ActivePromoForUpdate locks the active promo row matching code.  The
// lock keeps current_uses stable for the cap check, so two concurrent
// redemptions of a nearly exhausted code serialize and the second one
// sees the incremented counter.
func (t *tx) ActivePromoForUpdate(ctx context.Context, code string) (*model.PromoCode, error) {
	q := `SELECT ` + promoColumns + ` FROM promo_codes
	      WHERE code = ? AND is_active = 1
	      FOR UPDATE`
	p, err := scanPromo(t.tx.QueryRowContext(ctx, q, code))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, translateErr(err)
	}
	return p, nil
}

// IncrementPromoUses adds one redemption to the promo.  The guard on
// max_uses backs up the application-level cap check.
func (t *tx) IncrementPromoUses(ctx context.Context, promoID uint64) error {
	const q = `UPDATE promo_codes SET current_uses = current_uses + 1
	           WHERE id = ? AND (max_uses IS NULL OR current_uses < max_uses)`
	res, err := t.tx.ExecContext(ctx, q, promoID)
	if err != nil {
		return translateErr(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n != 1 {
		return fmt.Errorf("promo %d use counter increment rejected", promoID)
	}
	return nil
}

// CreatePromo inserts a new promo code, populating p.ID and
// p.CreatedAt.  A duplicate code surfaces as store.ErrCodeExists.
func (s *Store) CreatePromo(ctx context.Context, p *model.PromoCode) error {
	const ins = `INSERT INTO promo_codes
	             (code, description, discount_type, discount_value_cents, valid_from, valid_until, max_uses, is_active)
	             VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	var maxUses interface{}
	if p.MaxUses != nil {
		maxUses = *p.MaxUses
	}
	res, err := s.db.ExecContext(ctx, ins, p.Code, p.Description, p.DiscountType,
		p.DiscountValueCents, p.ValidFrom.UTC(), p.ValidUntil.UTC(), maxUses, p.IsActive)
	if err != nil {
		if isDupEntry(err) {
			return store.ErrCodeExists
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	p.ID = uint64(id)
	const sel = `SELECT created_at FROM promo_codes WHERE id = ?`
	return s.db.QueryRowContext(ctx, sel, p.ID).Scan(&p.CreatedAt)
}

// ListPromos returns all promo codes, newest first.
func (s *Store) ListPromos(ctx context.Context) ([]model.PromoCode, error) {
	q := `SELECT ` + promoColumns + ` FROM promo_codes ORDER BY created_at DESC, id DESC`
	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	promos := make([]model.PromoCode, 0)
	for rows.Next() {
		p, err := scanPromo(rows)
		if err != nil {
			return nil, err
		}
		promos = append(promos, *p)
	}
	return promos, rows.Err()
}
