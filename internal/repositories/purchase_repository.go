package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"fyzioakademie/internal/models"
)

type PurchaseRepository interface {
	HasPurchase(ctx context.Context, userID uuid.UUID, courseID int64) (bool, error)
	GetPurchase(ctx context.Context, userID uuid.UUID, courseID int64) (*models.CoursePurchase, error)
	// GrantEntitlement: покупка + зачисление в одной транзакции.
	// created=false если покупка уже была (повторная верификация, вебхук после verify и т.п.).
	GrantEntitlement(ctx context.Context, p *models.CoursePurchase) (created bool, err error)
	RevenueByCourse(ctx context.Context) ([]CourseRevenue, error)
}

type CourseRevenue struct {
	CourseID  int64           `json:"course_id"`
	Title     string          `json:"title"`
	Purchases int             `json:"purchases"`
	Revenue   decimal.Decimal `json:"revenue"`
}

type purchaseRepository struct {
	DB *sql.DB
}

func NewPurchaseRepository(db *sql.DB) PurchaseRepository {
	return &purchaseRepository{DB: db}
}

func (r *purchaseRepository) HasPurchase(ctx context.Context, userID uuid.UUID, courseID int64) (bool, error) {
	const q = `SELECT EXISTS (SELECT 1 FROM course_purchases WHERE user_id = $1 AND course_id = $2)`
	var exists bool
	if err := r.DB.QueryRowContext(ctx, q, userID, courseID).Scan(&exists); err != nil {
		return false, fmt.Errorf("purchase exists: %w", err)
	}
	return exists, nil
}

func (r *purchaseRepository) GetPurchase(ctx context.Context, userID uuid.UUID, courseID int64) (*models.CoursePurchase, error) {
	const q = `
		SELECT id, user_id, course_id, stripe_payment_intent_id, stripe_session_id, amount_paid, currency, created_at
		FROM course_purchases
		WHERE user_id = $1 AND course_id = $2
	`
	p := &models.CoursePurchase{}
	err := r.DB.QueryRowContext(ctx, q, userID, courseID).Scan(
		&p.ID, &p.UserID, &p.CourseID, &p.StripePaymentIntentID, &p.StripeSessionID, &p.AmountPaid, &p.Currency, &p.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("purchase get: %w", err)
	}
	return p, nil
}

func (r *purchaseRepository) GrantEntitlement(ctx context.Context, p *models.CoursePurchase) (bool, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("grant begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var exists bool
	if err := tx.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM course_purchases WHERE user_id = $1 AND course_id = $2)`,
		p.UserID, p.CourseID,
	).Scan(&exists); err != nil {
		return false, fmt.Errorf("grant exists: %w", err)
	}
	if exists {
		return false, tx.Commit()
	}

	// ON CONFLICT закрывает гонку двух параллельных verify: вторая вставка ничего не вернёт.
	const insertPurchase = `
		INSERT INTO course_purchases (user_id, course_id, stripe_payment_intent_id, stripe_session_id, amount_paid, currency)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (user_id, course_id) DO NOTHING
		RETURNING id, created_at
	`
	err = tx.QueryRowContext(ctx, insertPurchase,
		p.UserID, p.CourseID, p.StripePaymentIntentID, p.StripeSessionID, p.AmountPaid, p.Currency,
	).Scan(&p.ID, &p.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return false, tx.Commit()
	}
	if err != nil {
		return false, fmt.Errorf("grant insert purchase: %w", err)
	}

	const upsertEnrollment = `
		INSERT INTO course_enrollments (user_id, course_id, progress_percent, is_completed)
		VALUES ($1, $2, 0, FALSE)
		ON CONFLICT (user_id, course_id) DO NOTHING
	`
	if _, err := tx.ExecContext(ctx, upsertEnrollment, p.UserID, p.CourseID); err != nil {
		return false, fmt.Errorf("grant upsert enrollment: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("grant commit: %w", err)
	}
	return true, nil
}

func (r *purchaseRepository) RevenueByCourse(ctx context.Context) ([]CourseRevenue, error) {
	const q = `
		SELECT c.id, c.title, COUNT(p.id), COALESCE(SUM(p.amount_paid), 0)
		FROM courses c
		LEFT JOIN course_purchases p ON p.course_id = c.id
		GROUP BY c.id, c.title
		ORDER BY COALESCE(SUM(p.amount_paid), 0) DESC, c.id
	`
	rows, err := r.DB.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("revenue by course: %w", err)
	}
	defer rows.Close()

	var out []CourseRevenue
	for rows.Next() {
		var cr CourseRevenue
		if err := rows.Scan(&cr.CourseID, &cr.Title, &cr.Purchases, &cr.Revenue); err != nil {
			return nil, fmt.Errorf("revenue scan: %w", err)
		}
		out = append(out, cr)
	}
	return out, rows.Err()
}
