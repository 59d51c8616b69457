package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"fyzioakademie/internal/logger"
	"fyzioakademie/internal/models"
	"fyzioakademie/internal/utils"
)

const (
	ContextUserKey   = "auth_user"
	ContextUserIDKey = "user_id"
	jwtLeeway        = 2 * time.Minute
)

var ErrInvalidToken = errors.New("invalid or expired token")

// TokenVerifier: bearer-токен → пользователь.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (*models.AuthUser, error)
}

// SupabaseClaims: формат access-токена GoTrue.
type SupabaseClaims struct {
	Email       string `json:"email"`
	Role        string `json:"role"`
	AppMetadata struct {
		Role string `json:"role"`
	} `json:"app_metadata"`
	UserMetadata struct {
		FullName string `json:"full_name"`
	} `json:"user_metadata"`
	jwt.RegisteredClaims
}

// JWTVerifier: локальная проверка HS256 по JWT secret проекта.
type JWTVerifier struct {
	secret []byte
}

func NewJWTVerifier(secret string) *JWTVerifier {
	return &JWTVerifier{secret: []byte(secret)}
}

func (v *JWTVerifier) Verify(_ context.Context, tokenStr string) (*models.AuthUser, error) {
	claims := &SupabaseClaims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		return v.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(jwtLeeway),
	)
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	id, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, fmt.Errorf("%w: bad subject", ErrInvalidToken)
	}
	return &models.AuthUser{
		ID:       id,
		Email:    claims.Email,
		Role:     claims.AppMetadata.Role,
		FullName: claims.UserMetadata.FullName,
	}, nil
}

// UserLookup: удалённая проверка (GET /auth/v1/user).
type UserLookup interface {
	GetUser(ctx context.Context, accessToken string) (*models.AuthUser, error)
}

type RemoteVerifier struct {
	lookup UserLookup
}

func NewRemoteVerifier(lookup UserLookup) *RemoteVerifier {
	return &RemoteVerifier{lookup: lookup}
}

func (v *RemoteVerifier) Verify(ctx context.Context, token string) (*models.AuthUser, error) {
	u, err := v.lookup.GetUser(ctx, token)
	if err != nil {
		if errors.Is(err, utils.ErrAuthUnauthorized) {
			return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
		}
		// недоступный auth-бэкенд не повод разлогинивать пользователя
		return nil, err
	}
	if u == nil {
		return nil, ErrInvalidToken
	}
	return u, nil
}

func bearerToken(c *gin.Context) string {
	authHeader := strings.TrimSpace(c.GetHeader("Authorization"))
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func AuthMiddleware(v TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		// preflight отвечает CORS
		if c.Request.Method == http.MethodOptions {
			c.Next()
			return
		}

		tokenStr := bearerToken(c)
		if tokenStr == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Missing or invalid Authorization header"})
			return
		}

		user, err := v.Verify(c.Request.Context(), tokenStr)
		if err != nil {
			if !errors.Is(err, ErrInvalidToken) {
				logger.FromGin(c, nil).Error("[auth] token check failed", zap.Error(err))
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Authentication service unavailable"})
				return
			}
			logger.FromGin(c, nil).Info("[auth] token rejected", zap.Error(err))
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			return
		}

		c.Set(ContextUserKey, user)
		c.Set(ContextUserIDKey, user.ID)
		c.Next()
	}
}

// CurrentUser: пользователь, положенный AuthMiddleware.
func CurrentUser(c *gin.Context) (*models.AuthUser, bool) {
	v, ok := c.Get(ContextUserKey)
	if !ok {
		return nil, false
	}
	u, ok := v.(*models.AuthUser)
	return u, ok && u != nil
}
