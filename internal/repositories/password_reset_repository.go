package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"fyzioakademie/internal/models"
)

type PasswordResetRepository interface {
	Upsert(ctx context.Context, pr *models.PasswordResetRequest) error
	GetByEmail(ctx context.Context, email string) (*models.PasswordResetRequest, error)
	IncrementAttempts(ctx context.Context, email string) (int, error)
	Delete(ctx context.Context, email string) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

type passwordResetRepository struct {
	DB *sql.DB
}

func NewPasswordResetRepository(db *sql.DB) PasswordResetRepository {
	return &passwordResetRepository{DB: db}
}

func (r *passwordResetRepository) Upsert(ctx context.Context, pr *models.PasswordResetRequest) error {
	const q = `
		INSERT INTO password_reset_requests (email, user_id, code_hash, expires_at, attempts, created_at)
		VALUES ($1, $2, $3, $4, 0, $5)
		ON CONFLICT (email) DO UPDATE
		SET user_id = EXCLUDED.user_id,
		    code_hash = EXCLUDED.code_hash,
		    expires_at = EXCLUDED.expires_at,
		    attempts = 0,
		    created_at = EXCLUDED.created_at
	`
	if _, err := r.DB.ExecContext(ctx, q, pr.Email, pr.UserID, pr.CodeHash, pr.ExpiresAt, pr.CreatedAt); err != nil {
		return fmt.Errorf("password reset upsert: %w", err)
	}
	return nil
}

func (r *passwordResetRepository) GetByEmail(ctx context.Context, email string) (*models.PasswordResetRequest, error) {
	const q = `
		SELECT email, user_id, code_hash, expires_at, attempts, created_at
		FROM password_reset_requests
		WHERE email = $1
	`
	pr := &models.PasswordResetRequest{}
	if err := r.DB.QueryRowContext(ctx, q, email).Scan(&pr.Email, &pr.UserID, &pr.CodeHash, &pr.ExpiresAt, &pr.Attempts, &pr.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("password reset get: %w", err)
	}
	return pr, nil
}

func (r *passwordResetRepository) IncrementAttempts(ctx context.Context, email string) (int, error) {
	const q = `
		UPDATE password_reset_requests
		SET attempts = attempts + 1
		WHERE email = $1
		RETURNING attempts
	`
	var attempts int
	if err := r.DB.QueryRowContext(ctx, q, email).Scan(&attempts); err != nil {
		return 0, fmt.Errorf("password reset increment attempts: %w", err)
	}
	return attempts, nil
}

func (r *passwordResetRepository) Delete(ctx context.Context, email string) error {
	_, err := r.DB.ExecContext(ctx, `DELETE FROM password_reset_requests WHERE email = $1`, email)
	return err
}

func (r *passwordResetRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM password_reset_requests WHERE expires_at < $1`, now)
	if err != nil {
		return 0, fmt.Errorf("password reset cleanup: %w", err)
	}
	return res.RowsAffected()
}
