package handlers

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"fyzioakademie/internal/models"
	"fyzioakademie/internal/services"
)

type stubRegistration struct {
	sent      []services.RegistrationInput
	sendErr   error
	verifyErr error
}

func (s *stubRegistration) SendCode(_ context.Context, in services.RegistrationInput) error {
	s.sent = append(s.sent, in)
	return s.sendErr
}

func (s *stubRegistration) Verify(_ context.Context, email, _ string) (*models.AuthUser, error) {
	if s.verifyErr != nil {
		return nil, s.verifyErr
	}
	return &models.AuthUser{ID: student.ID, Email: email}, nil
}

type stubReset struct {
	requested []string
	resetErr  error
}

func (s *stubReset) RequestReset(_ context.Context, email string) error {
	s.requested = append(s.requested, email)
	return nil
}

func (s *stubReset) ResetPassword(context.Context, string, string, string) error {
	return s.resetErr
}

func authRouter(reg RegistrationFlow, reset PasswordResetFlow) http.Handler {
	h := NewAuthHandler(reg, reset)
	r := newRouter(nil)
	r.POST("/api/auth/register/send-code", h.SendRegistrationCode)
	r.POST("/api/auth/register/verify", h.VerifyRegistration)
	r.POST("/api/auth/password-reset/send-code", h.SendResetCode)
	r.POST("/api/auth/password-reset/verify", h.ResetPassword)
	return r
}

func TestSendRegistrationCode(t *testing.T) {
	reg := &stubRegistration{}
	r := authRouter(reg, &stubReset{})

	w := doJSON(r, http.MethodPost, "/api/auth/register/send-code",
		map[string]any{"email": "jana@example.cz", "password": "tajne123", "full_name": "Jana"})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, decodeBody(t, w)["success"])
	if assert.Len(t, reg.sent, 1) {
		assert.Equal(t, "Jana", reg.sent[0].FullName)
	}

	w = doJSON(r, http.MethodPost, "/api/auth/register/send-code", map[string]any{"email": "not-an-email", "password": "x"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Len(t, reg.sent, 1)
}

func TestSendRegistrationCode_WeakPassword(t *testing.T) {
	reg := &stubRegistration{sendErr: services.ErrWeakPassword}

	w := doJSON(authRouter(reg, &stubReset{}), http.MethodPost, "/api/auth/register/send-code",
		map[string]any{"email": "jana@example.cz", "password": "123"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestVerifyRegistration_ErrorMapping(t *testing.T) {
	tests := []struct {
		err     error
		status  int
		message string
	}{
		{nil, http.StatusOK, ""},
		{services.ErrNoPendingCode, http.StatusBadRequest, "No pending verification for this email"},
		{services.ErrCodeExpired, http.StatusBadRequest, "Code expired, please request a new one"},
		{services.ErrTooManyAttempts, http.StatusBadRequest, "Too many attempts, please request a new code"},
		{services.ErrCodeInvalid, http.StatusBadRequest, "Invalid code"},
		{services.ErrEmailTaken, http.StatusBadRequest, "User already registered"},
		{errors.New("supabase down"), http.StatusInternalServerError, "Verification failed"},
	}
	for _, tt := range tests {
		r := authRouter(&stubRegistration{verifyErr: tt.err}, &stubReset{})

		w := doJSON(r, http.MethodPost, "/api/auth/register/verify", map[string]any{"email": "jana@example.cz", "code": "123456"})
		assert.Equal(t, tt.status, w.Code)
		if tt.message != "" {
			assert.Equal(t, tt.message, decodeBody(t, w)["error"])
		}
	}
}

func TestPasswordResetFlow(t *testing.T) {
	reset := &stubReset{}
	r := authRouter(&stubRegistration{}, reset)

	w := doJSON(r, http.MethodPost, "/api/auth/password-reset/send-code", map[string]any{"email": "nikdo@example.cz"})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"nikdo@example.cz"}, reset.requested)

	w = doJSON(r, http.MethodPost, "/api/auth/password-reset/verify",
		map[string]any{"email": "nikdo@example.cz", "code": "111111", "new_password": "nove-heslo"})
	assert.Equal(t, http.StatusOK, w.Code)

	reset.resetErr = services.ErrCodeInvalid
	w = doJSON(r, http.MethodPost, "/api/auth/password-reset/verify",
		map[string]any{"email": "nikdo@example.cz", "code": "000000", "new_password": "nove-heslo"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(r, http.MethodPost, "/api/auth/password-reset/verify", map[string]any{"email": "nikdo@example.cz"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
