package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"fyzioakademie/internal/models"
	"fyzioakademie/internal/repositories"
)

type PasswordResetService struct {
	repo   repositories.PasswordResetRepository
	auth   AuthAdmin
	mailer Mailer
	codes  codeIssuer
	log    *zap.Logger
}

func NewPasswordResetService(repo repositories.PasswordResetRepository, auth AuthAdmin, mailer Mailer, log *zap.Logger) *PasswordResetService {
	return &PasswordResetService{repo: repo, auth: auth, mailer: mailer, codes: newCodeIssuer(), log: log}
}

// RequestReset: неизвестный e-mail тоже "успех", чтобы не светить существование аккаунта.
func (s *PasswordResetService) RequestReset(ctx context.Context, email string) error {
	email = normalizeEmail(email)
	if email == "" {
		return fmt.Errorf("email is required")
	}
	user, err := s.auth.FindUserByEmail(ctx, email)
	if err != nil || user == nil {
		s.log.Info("[auth][password-reset] user not found or lookup error",
			zap.String("email", email), zap.Error(err))
		return nil
	}

	code, hash, expiresAt, err := s.codes.issue()
	if err != nil {
		return err
	}
	if err := s.repo.Upsert(ctx, &models.PasswordResetRequest{
		Email:     email,
		UserID:    user.ID.String(),
		CodeHash:  hash,
		ExpiresAt: expiresAt,
		CreatedAt: expiresAt.Add(-CodeTTL),
	}); err != nil {
		return err
	}

	if err := s.mailer.SendPasswordResetCode(ctx, email, code); err != nil {
		s.log.Warn("[auth][password-reset][send] email failed, code logged instead",
			zap.String("email", email),
			zap.String("code", code),
			zap.Error(err))
		return nil
	}
	s.log.Info("[auth][password-reset][send] code sent", zap.String("email", email))
	return nil
}

func (s *PasswordResetService) ResetPassword(ctx context.Context, email, code, newPassword string) error {
	email = normalizeEmail(email)
	if len(strings.TrimSpace(newPassword)) < minPasswordLen {
		return ErrWeakPassword
	}
	pr, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	if pr == nil {
		return ErrNoPendingCode
	}
	if err := s.codes.check(ctx, s.repo, email, pr.CodeHash, pr.ExpiresAt, pr.Attempts, strings.TrimSpace(code)); err != nil {
		s.log.Info("[auth][password-reset][verify] rejected", zap.String("email", email), zap.Error(err))
		return err
	}

	if err := s.auth.UpdatePassword(ctx, pr.UserID, newPassword); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, email); err != nil {
		s.log.Warn("[auth][password-reset][verify] cleanup failed", zap.String("email", email), zap.Error(err))
	}
	s.log.Info("[auth][password-reset][verify] password updated", zap.String("user_id", pr.UserID))
	return nil
}

func (s *PasswordResetService) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	return s.repo.DeleteExpired(ctx, now)
}
