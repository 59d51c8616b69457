package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"fyzioakademie/internal/models"
)

type PromoCodeRepository interface {
	GetByCode(ctx context.Context, code string) (*models.PromoCode, error)
	IncrementUsage(ctx context.Context, code string) error
}

type promoCodeRepository struct {
	DB *sql.DB
}

func NewPromoCodeRepository(db *sql.DB) PromoCodeRepository {
	return &promoCodeRepository{DB: db}
}

// GetByCode: регистр не важен, коды храним в верхнем.
func (r *promoCodeRepository) GetByCode(ctx context.Context, code string) (*models.PromoCode, error) {
	const q = `
		SELECT id, code, discount_percent, valid_until, max_uses, used_count, is_active
		FROM promo_codes
		WHERE code = $1
	`
	p := &models.PromoCode{}
	var validUntil sql.NullTime
	var maxUses sql.NullInt64
	err := r.DB.QueryRowContext(ctx, q, strings.ToUpper(strings.TrimSpace(code))).Scan(
		&p.ID, &p.Code, &p.DiscountPercent, &validUntil, &maxUses, &p.UsedCount, &p.IsActive,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("promo get: %w", err)
	}
	if validUntil.Valid {
		p.ValidUntil = &validUntil.Time
	}
	if maxUses.Valid {
		n := int(maxUses.Int64)
		p.MaxUses = &n
	}
	return p, nil
}

func (r *promoCodeRepository) IncrementUsage(ctx context.Context, code string) error {
	const q = `UPDATE promo_codes SET used_count = used_count + 1 WHERE code = $1`
	if _, err := r.DB.ExecContext(ctx, q, strings.ToUpper(strings.TrimSpace(code))); err != nil {
		return fmt.Errorf("promo increment: %w", err)
	}
	return nil
}
