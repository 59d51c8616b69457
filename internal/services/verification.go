package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"

	"fyzioakademie/internal/utils"
)

var (
	ErrNoPendingCode   = errors.New("no pending code")
	ErrTooManyAttempts = errors.New("too many attempts")
	ErrCodeExpired     = errors.New("code expired")
	ErrCodeInvalid     = errors.New("code invalid")
)

const (
	CodeTTL            = 15 * time.Minute
	maxConfirmAttempts = 5
	codeDigits         = 6
)

// codeStore: общее у pending_registrations и password_reset_requests.
type codeStore interface {
	IncrementAttempts(ctx context.Context, email string) (int, error)
	Delete(ctx context.Context, email string) error
}

type codeIssuer struct {
	cost int
	now  func() time.Time
}

func newCodeIssuer() codeIssuer {
	return codeIssuer{cost: bcrypt.DefaultCost, now: time.Now}
}

// issue: новый код и его bcrypt-хэш. В БД уходит только хэш.
func (ci codeIssuer) issue() (code, hash string, expiresAt time.Time, err error) {
	code, err = utils.NewNumericCode(codeDigits)
	if err != nil {
		return "", "", time.Time{}, err
	}
	h, err := bcrypt.GenerateFromPassword([]byte(code), ci.cost)
	if err != nil {
		return "", "", time.Time{}, fmt.Errorf("bcrypt generate: %w", err)
	}
	return code, string(h), ci.now().Add(CodeTTL), nil
}

// check: TTL, попытки, сравнение с хэшем. Просроченная или исчерпанная запись удаляется.
func (ci codeIssuer) check(ctx context.Context, store codeStore, email, hash string, expiresAt time.Time, attempts int, code string) error {
	if ci.now().After(expiresAt) {
		if err := store.Delete(ctx, email); err != nil {
			return err
		}
		return ErrCodeExpired
	}
	if attempts >= maxConfirmAttempts {
		if err := store.Delete(ctx, email); err != nil {
			return err
		}
		return ErrTooManyAttempts
	}

	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(code)); err != nil {
		n, incErr := store.IncrementAttempts(ctx, email)
		if incErr != nil {
			return incErr
		}
		if n >= maxConfirmAttempts {
			if err := store.Delete(ctx, email); err != nil {
				return err
			}
			return ErrTooManyAttempts
		}
		return ErrCodeInvalid
	}
	return nil
}
