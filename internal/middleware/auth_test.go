package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fyzioakademie/internal/authz"
	"fyzioakademie/internal/models"
	"fyzioakademie/internal/utils"
)

const testSecret = "super-secret-jwt-token-with-at-least-32-characters"

var testUserID = uuid.MustParse("3f2b8c9d-1e4a-4b6c-8d7e-9f0a1b2c3d4e")

func init() {
	gin.SetMode(gin.TestMode)
}

func signToken(t *testing.T, secret string, method jwt.SigningMethod, mutate func(*SupabaseClaims)) string {
	t.Helper()
	claims := &SupabaseClaims{
		Email: "eva@example.cz",
		Role:  "authenticated",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   testUserID.String(),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	claims.AppMetadata.Role = authz.RoleAdmin
	claims.UserMetadata.FullName = "Eva Nováková"
	if mutate != nil {
		mutate(claims)
	}
	s, err := jwt.NewWithClaims(method, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return s
}

func TestJWTVerifier(t *testing.T) {
	v := NewJWTVerifier(testSecret)
	ctx := context.Background()

	u, err := v.Verify(ctx, signToken(t, testSecret, jwt.SigningMethodHS256, nil))
	require.NoError(t, err)
	assert.Equal(t, testUserID, u.ID)
	assert.Equal(t, "eva@example.cz", u.Email)
	assert.True(t, u.IsAdmin())
	assert.Equal(t, "Eva Nováková", u.FullName)

	tests := map[string]string{
		"wrong secret": signToken(t, "another-secret-another-secret-1234", jwt.SigningMethodHS256, nil),
		"wrong alg":    signToken(t, testSecret, jwt.SigningMethodHS512, nil),
		"expired": signToken(t, testSecret, jwt.SigningMethodHS256, func(c *SupabaseClaims) {
			c.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Hour))
		}),
		"no exp": signToken(t, testSecret, jwt.SigningMethodHS256, func(c *SupabaseClaims) {
			c.ExpiresAt = nil
		}),
		"bad subject": signToken(t, testSecret, jwt.SigningMethodHS256, func(c *SupabaseClaims) {
			c.Subject = "anon"
		}),
		"garbage": "not.a.jwt",
	}
	for name, tok := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := v.Verify(ctx, tok)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func TestJWTVerifier_LeewayOnExpiry(t *testing.T) {
	v := NewJWTVerifier(testSecret)
	tok := signToken(t, testSecret, jwt.SigningMethodHS256, func(c *SupabaseClaims) {
		c.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-30 * time.Second))
	})
	_, err := v.Verify(context.Background(), tok)
	assert.NoError(t, err)
}

type stubLookup struct {
	user *models.AuthUser
	err  error
}

func (s stubLookup) GetUser(context.Context, string) (*models.AuthUser, error) { return s.user, s.err }

func TestRemoteVerifier(t *testing.T) {
	u, err := NewRemoteVerifier(stubLookup{user: &models.AuthUser{ID: testUserID}}).Verify(context.Background(), "x")
	require.NoError(t, err)
	assert.Equal(t, testUserID, u.ID)

	_, err = NewRemoteVerifier(stubLookup{}).Verify(context.Background(), "x")
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = NewRemoteVerifier(stubLookup{err: utils.ErrAuthUnauthorized}).Verify(context.Background(), "x")
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = NewRemoteVerifier(stubLookup{err: errUpstream}).Verify(context.Background(), "x")
	assert.ErrorIs(t, err, errUpstream)
	assert.NotErrorIs(t, err, ErrInvalidToken)
}

var errUpstream = errors.New("auth get user: status=503 body=upstream connect error")

func TestAuthMiddleware_RemoteBackendFailures(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"rejected token", utils.ErrAuthUnauthorized, http.StatusUnauthorized},
		{"backend down", errUpstream, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newProtectedRouter(NewRemoteVerifier(stubLookup{err: tt.err}))
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			req.Header.Set("Authorization", "Bearer some-token")
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, tt.status, w.Code)
		})
	}
}

func newProtectedRouter(v TokenVerifier, extra ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.Use(CORS(""))
	handlers := append([]gin.HandlerFunc{AuthMiddleware(v)}, extra...)
	handlers = append(handlers, func(c *gin.Context) {
		u, ok := CurrentUser(c)
		if !ok {
			c.Status(http.StatusTeapot)
			return
		}
		c.JSON(http.StatusOK, gin.H{"id": u.ID.String()})
	})
	r.GET("/me", handlers...)
	r.OPTIONS("/me", handlers...)
	return r
}

func TestAuthMiddleware(t *testing.T) {
	r := newProtectedRouter(NewJWTVerifier(testSecret))

	tests := []struct {
		name   string
		header string
		status int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"not bearer", "Basic abc", http.StatusUnauthorized},
		{"empty bearer", "Bearer   ", http.StatusUnauthorized},
		{"invalid token", "Bearer nope", http.StatusUnauthorized},
		{"valid", "Bearer " + signToken(t, testSecret, jwt.SigningMethodHS256, nil), http.StatusOK},
		{"lowercase scheme", "bearer " + signToken(t, testSecret, jwt.SigningMethodHS256, nil), http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, tt.status, w.Code)
			if tt.status == http.StatusUnauthorized {
				assert.Contains(t, w.Body.String(), `"error"`)
			}
		})
	}
}

func TestCORSPreflight(t *testing.T) {
	r := newProtectedRouter(NewJWTVerifier(testSecret))
	req := httptest.NewRequest(http.MethodOptions, "/me", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Methods"), "POST")
}

func TestRequireRoles(t *testing.T) {
	r := newProtectedRouter(NewJWTVerifier(testSecret), RequireRoles(authz.RoleAdmin))

	admin := signToken(t, testSecret, jwt.SigningMethodHS256, nil)
	student := signToken(t, testSecret, jwt.SigningMethodHS256, func(c *SupabaseClaims) {
		c.AppMetadata.Role = authz.RoleStudent
	})

	for tok, want := range map[string]int{admin: http.StatusOK, student: http.StatusForbidden} {
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("Authorization", "Bearer "+tok)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, want, w.Code)
	}
}
