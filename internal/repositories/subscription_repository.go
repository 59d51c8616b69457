package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"fyzioakademie/internal/models"
)

type SubscriptionRepository interface {
	Create(ctx context.Context, s *models.Subscription) error
	GetByPaymentIntent(ctx context.Context, paymentIntentID string) (*models.Subscription, error)
	// Activate переводит pending → active. false если записи нет или она уже не pending.
	Activate(ctx context.Context, paymentIntentID string, periodEnd *time.Time) (bool, error)
	MarkFailed(ctx context.Context, paymentIntentID string) error
	GetActiveByUser(ctx context.Context, userID uuid.UUID) (*models.Subscription, error)
	CountActive(ctx context.Context) (int, error)
}

type subscriptionRepository struct {
	DB *sql.DB
}

func NewSubscriptionRepository(db *sql.DB) SubscriptionRepository {
	return &subscriptionRepository{DB: db}
}

const subscriptionColumns = `id, user_id, plan_type, status, amount, currency, promo_code,
	stripe_payment_intent_id, stripe_customer_id, current_period_end, created_at`

func scanSubscription(row interface{ Scan(...any) error }) (*models.Subscription, error) {
	s := &models.Subscription{}
	var periodEnd sql.NullTime
	if err := row.Scan(&s.ID, &s.UserID, &s.PlanType, &s.Status, &s.Amount, &s.Currency, &s.PromoCode,
		&s.StripePaymentIntentID, &s.StripeCustomerID, &periodEnd, &s.CreatedAt); err != nil {
		return nil, err
	}
	if periodEnd.Valid {
		s.CurrentPeriodEnd = &periodEnd.Time
	}
	return s, nil
}

func (r *subscriptionRepository) Create(ctx context.Context, s *models.Subscription) error {
	const q = `
		INSERT INTO subscriptions (user_id, plan_type, status, amount, currency, promo_code,
			stripe_payment_intent_id, stripe_customer_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at
	`
	if s.Status == "" {
		s.Status = models.SubscriptionPending
	}
	err := r.DB.QueryRowContext(ctx, q, s.UserID, s.PlanType, s.Status, s.Amount, s.Currency, s.PromoCode,
		s.StripePaymentIntentID, s.StripeCustomerID).Scan(&s.ID, &s.CreatedAt)
	if err != nil {
		return fmt.Errorf("subscription create: %w", err)
	}
	return nil
}

func (r *subscriptionRepository) GetByPaymentIntent(ctx context.Context, paymentIntentID string) (*models.Subscription, error) {
	q := `SELECT ` + subscriptionColumns + ` FROM subscriptions WHERE stripe_payment_intent_id = $1`
	s, err := scanSubscription(r.DB.QueryRowContext(ctx, q, paymentIntentID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("subscription get: %w", err)
	}
	return s, nil
}

func (r *subscriptionRepository) Activate(ctx context.Context, paymentIntentID string, periodEnd *time.Time) (bool, error) {
	const q = `
		UPDATE subscriptions
		SET status = 'active', current_period_end = $2
		WHERE stripe_payment_intent_id = $1 AND status = 'pending'
	`
	res, err := r.DB.ExecContext(ctx, q, paymentIntentID, periodEnd)
	if err != nil {
		return false, fmt.Errorf("subscription activate: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("subscription activate rows: %w", err)
	}
	return n > 0, nil
}

func (r *subscriptionRepository) MarkFailed(ctx context.Context, paymentIntentID string) error {
	const q = `UPDATE subscriptions SET status = 'failed' WHERE stripe_payment_intent_id = $1 AND status = 'pending'`
	if _, err := r.DB.ExecContext(ctx, q, paymentIntentID); err != nil {
		return fmt.Errorf("subscription mark failed: %w", err)
	}
	return nil
}

// GetActiveByUser: самая свежая активная подписка, срок которой не истёк.
func (r *subscriptionRepository) GetActiveByUser(ctx context.Context, userID uuid.UUID) (*models.Subscription, error) {
	q := `SELECT ` + subscriptionColumns + `
		FROM subscriptions
		WHERE user_id = $1 AND status = 'active'
		  AND (current_period_end IS NULL OR current_period_end > NOW())
		ORDER BY created_at DESC
		LIMIT 1`
	s, err := scanSubscription(r.DB.QueryRowContext(ctx, q, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("subscription active: %w", err)
	}
	return s, nil
}

func (r *subscriptionRepository) CountActive(ctx context.Context) (int, error) {
	const q = `
		SELECT COUNT(*) FROM subscriptions
		WHERE status = 'active' AND (current_period_end IS NULL OR current_period_end > NOW())
	`
	var n int
	if err := r.DB.QueryRowContext(ctx, q).Scan(&n); err != nil {
		return 0, fmt.Errorf("subscription count: %w", err)
	}
	return n, nil
}
