package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"fyzioakademie/internal/models"
)

type PendingRegistrationRepository interface {
	// Upsert: новая отправка кода затирает предыдущую запись для этого e-mail.
	Upsert(ctx context.Context, p *models.PendingRegistration) error
	GetByEmail(ctx context.Context, email string) (*models.PendingRegistration, error)
	IncrementAttempts(ctx context.Context, email string) (int, error)
	Delete(ctx context.Context, email string) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

type pendingRegistrationRepository struct {
	DB *sql.DB
}

func NewPendingRegistrationRepository(db *sql.DB) PendingRegistrationRepository {
	return &pendingRegistrationRepository{DB: db}
}

func (r *pendingRegistrationRepository) Upsert(ctx context.Context, p *models.PendingRegistration) error {
	const q = `
		INSERT INTO pending_registrations (email, full_name, password_b64, code_hash, expires_at, attempts, created_at)
		VALUES ($1, $2, $3, $4, $5, 0, $6)
		ON CONFLICT (email) DO UPDATE
		SET full_name = EXCLUDED.full_name,
		    password_b64 = EXCLUDED.password_b64,
		    code_hash = EXCLUDED.code_hash,
		    expires_at = EXCLUDED.expires_at,
		    attempts = 0,
		    created_at = EXCLUDED.created_at
	`
	if _, err := r.DB.ExecContext(ctx, q, p.Email, p.FullName, p.PasswordB64, p.CodeHash, p.ExpiresAt, p.CreatedAt); err != nil {
		return fmt.Errorf("pending registration upsert: %w", err)
	}
	return nil
}

func (r *pendingRegistrationRepository) GetByEmail(ctx context.Context, email string) (*models.PendingRegistration, error) {
	const q = `
		SELECT email, full_name, password_b64, code_hash, expires_at, attempts, created_at
		FROM pending_registrations
		WHERE email = $1
	`
	p := &models.PendingRegistration{}
	err := r.DB.QueryRowContext(ctx, q, email).Scan(&p.Email, &p.FullName, &p.PasswordB64, &p.CodeHash, &p.ExpiresAt, &p.Attempts, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("pending registration get: %w", err)
	}
	return p, nil
}

// IncrementAttempts: +1 попытка, возвращает новое значение attempts.
func (r *pendingRegistrationRepository) IncrementAttempts(ctx context.Context, email string) (int, error) {
	const q = `
		UPDATE pending_registrations
		SET attempts = attempts + 1
		WHERE email = $1
		RETURNING attempts
	`
	var attempts int
	if err := r.DB.QueryRowContext(ctx, q, email).Scan(&attempts); err != nil {
		return 0, fmt.Errorf("pending registration increment attempts: %w", err)
	}
	return attempts, nil
}

func (r *pendingRegistrationRepository) Delete(ctx context.Context, email string) error {
	_, err := r.DB.ExecContext(ctx, `DELETE FROM pending_registrations WHERE email = $1`, email)
	return err
}

func (r *pendingRegistrationRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM pending_registrations WHERE expires_at < $1`, now)
	if err != nil {
		return 0, fmt.Errorf("pending registration cleanup: %w", err)
	}
	return res.RowsAffected()
}
