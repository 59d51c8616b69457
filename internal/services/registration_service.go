package services

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"fyzioakademie/internal/models"
	"fyzioakademie/internal/repositories"
	"fyzioakademie/internal/utils"
)

var (
	ErrEmailTaken   = errors.New("user already registered")
	ErrWeakPassword = errors.New("password must be at least 6 characters")
)

const minPasswordLen = 6

// AuthAdmin: admin-операции auth-бэкенда (Supabase).
type AuthAdmin interface {
	CreateUser(ctx context.Context, email, password, fullName string) (*models.AuthUser, error)
	FindUserByEmail(ctx context.Context, email string) (*models.AuthUser, error)
	UpdatePassword(ctx context.Context, userID, password string) error
}

type RegistrationInput struct {
	Email    string
	Password string
	FullName string
}

type RegistrationService struct {
	repo   repositories.PendingRegistrationRepository
	auth   AuthAdmin
	mailer Mailer
	codes  codeIssuer
	log    *zap.Logger
}

func NewRegistrationService(repo repositories.PendingRegistrationRepository, auth AuthAdmin, mailer Mailer, log *zap.Logger) *RegistrationService {
	return &RegistrationService{repo: repo, auth: auth, mailer: mailer, codes: newCodeIssuer(), log: log}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// SendCode: заменяет прежнюю заявку на тот же e-mail.
// Если письмо не ушло, код пишем в лог и всё равно отвечаем успехом.
func (s *RegistrationService) SendCode(ctx context.Context, in RegistrationInput) error {
	email := normalizeEmail(in.Email)
	if email == "" {
		return fmt.Errorf("email is required")
	}
	if len(in.Password) < minPasswordLen {
		return ErrWeakPassword
	}

	code, hash, expiresAt, err := s.codes.issue()
	if err != nil {
		return err
	}
	p := &models.PendingRegistration{
		Email:       email,
		FullName:    strings.TrimSpace(in.FullName),
		PasswordB64: base64.StdEncoding.EncodeToString([]byte(in.Password)),
		CodeHash:    hash,
		ExpiresAt:   expiresAt,
		CreatedAt:   expiresAt.Add(-CodeTTL),
	}
	if err := s.repo.Upsert(ctx, p); err != nil {
		return err
	}

	if err := s.mailer.SendRegistrationCode(ctx, email, p.FullName, code); err != nil {
		s.log.Warn("[auth][register][send] email failed, code logged instead",
			zap.String("email", email),
			zap.String("code", code),
			zap.Error(err))
		return nil
	}
	s.log.Info("[auth][register][send] code sent", zap.String("email", email))
	return nil
}

// Verify: при успехе создаёт аккаунт и удаляет заявку.
func (s *RegistrationService) Verify(ctx context.Context, email, code string) (*models.AuthUser, error) {
	email = normalizeEmail(email)
	p, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, ErrNoPendingCode
	}
	if err := s.codes.check(ctx, s.repo, email, p.CodeHash, p.ExpiresAt, p.Attempts, strings.TrimSpace(code)); err != nil {
		s.log.Info("[auth][register][verify] rejected", zap.String("email", email), zap.Error(err))
		return nil, err
	}

	password, err := base64.StdEncoding.DecodeString(p.PasswordB64)
	if err != nil {
		return nil, fmt.Errorf("decode stored password: %w", err)
	}
	user, err := s.auth.CreateUser(ctx, email, string(password), p.FullName)
	if err != nil {
		if errors.Is(err, utils.ErrAuthUserExists) {
			_ = s.repo.Delete(ctx, email)
			return nil, ErrEmailTaken
		}
		return nil, err
	}
	if err := s.repo.Delete(ctx, email); err != nil {
		s.log.Warn("[auth][register][verify] cleanup failed", zap.String("email", email), zap.Error(err))
	}
	s.log.Info("[auth][register][verify] account created",
		zap.String("email", email),
		zap.String("user_id", user.ID.String()))
	return user, nil
}

// PurgeExpired: для крона.
func (s *RegistrationService) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	return s.repo.DeleteExpired(ctx, now)
}
