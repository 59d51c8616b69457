package utils

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"

	"fyzioakademie/internal/models"
)

var (
	ErrAuthUnauthorized = errors.New("auth: invalid or expired token")
	ErrAuthUserExists   = errors.New("auth: user already registered")
)

// SupabaseClient: тонкий клиент к GoTrue (auth) API.
type SupabaseClient struct {
	http       *resty.Client
	anonKey    string
	serviceKey string
}

type supabaseUser struct {
	ID           string         `json:"id"`
	Email        string         `json:"email"`
	AppMetadata  map[string]any `json:"app_metadata"`
	UserMetadata map[string]any `json:"user_metadata"`
}

type supabaseError struct {
	Code             any    `json:"code"`
	ErrorCode        string `json:"error_code"`
	Msg              string `json:"msg"`
	Message          string `json:"message"`
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

func (e *supabaseError) text() string {
	for _, s := range []string{e.Msg, e.Message, e.ErrorDescription, e.Error} {
		if s != "" {
			return s
		}
	}
	return ""
}

func NewSupabaseClient(baseURL, anonKey, serviceKey string) *SupabaseClient {
	c := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetTimeout(10*time.Second).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")
	return &SupabaseClient{http: c, anonKey: anonKey, serviceKey: serviceKey}
}

// request: GoTrue за прокси иногда отдаёт JSON без Content-Type, разбираем как JSON всегда.
func (s *SupabaseClient) request(ctx context.Context) *resty.Request {
	return s.http.R().
		SetContext(ctx).
		ForceContentType("application/json")
}

func (s *SupabaseClient) admin(ctx context.Context) *resty.Request {
	return s.request(ctx).
		SetHeader("apikey", s.serviceKey).
		SetAuthToken(s.serviceKey)
}

// GetUser: проверка bearer-токена через /auth/v1/user.
func (s *SupabaseClient) GetUser(ctx context.Context, accessToken string) (*models.AuthUser, error) {
	var out supabaseUser
	resp, err := s.request(ctx).
		SetHeader("apikey", s.anonKey).
		SetAuthToken(accessToken).
		SetResult(&out).
		Get("/auth/v1/user")
	if err != nil {
		return nil, fmt.Errorf("auth get user: %w", err)
	}
	switch {
	case resp.StatusCode() == http.StatusUnauthorized || resp.StatusCode() == http.StatusForbidden:
		return nil, ErrAuthUnauthorized
	case resp.IsError():
		return nil, fmt.Errorf("auth get user: status=%d body=%s", resp.StatusCode(), resp.String())
	}
	return out.toModel()
}

// CreateUser: аккаунт с уже подтверждённым e-mail (код мы проверили сами).
func (s *SupabaseClient) CreateUser(ctx context.Context, email, password, fullName string) (*models.AuthUser, error) {
	body := map[string]any{
		"email":         email,
		"password":      password,
		"email_confirm": true,
		"user_metadata": map[string]any{"full_name": fullName},
	}
	var out supabaseUser
	var apiErr supabaseError
	resp, err := s.admin(ctx).
		SetBody(body).
		SetResult(&out).
		SetError(&apiErr).
		Post("/auth/v1/admin/users")
	if err != nil {
		return nil, fmt.Errorf("auth create user: %w", err)
	}
	if resp.IsError() {
		msg := strings.ToLower(apiErr.text())
		if apiErr.ErrorCode == "email_exists" || strings.Contains(msg, "already") {
			return nil, ErrAuthUserExists
		}
		return nil, fmt.Errorf("auth create user: status=%d msg=%s", resp.StatusCode(), apiErr.text())
	}
	return out.toModel()
}

// FindUserByEmail: admin API не умеет фильтр по e-mail, листаем страницы.
func (s *SupabaseClient) FindUserByEmail(ctx context.Context, email string) (*models.AuthUser, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	const perPage = 1000
	for page := 1; page <= 50; page++ {
		var out struct {
			Users []supabaseUser `json:"users"`
		}
		resp, err := s.admin(ctx).
			SetQueryParam("page", fmt.Sprint(page)).
			SetQueryParam("per_page", fmt.Sprint(perPage)).
			SetResult(&out).
			Get("/auth/v1/admin/users")
		if err != nil {
			return nil, fmt.Errorf("auth list users: %w", err)
		}
		if resp.IsError() {
			return nil, fmt.Errorf("auth list users: status=%d body=%s", resp.StatusCode(), resp.String())
		}
		for _, u := range out.Users {
			if strings.EqualFold(u.Email, email) {
				return u.toModel()
			}
		}
		if len(out.Users) < perPage {
			return nil, nil
		}
	}
	return nil, nil
}

func (s *SupabaseClient) UpdatePassword(ctx context.Context, userID, password string) error {
	var apiErr supabaseError
	resp, err := s.admin(ctx).
		SetBody(map[string]any{"password": password}).
		SetError(&apiErr).
		Put("/auth/v1/admin/users/" + userID)
	if err != nil {
		return fmt.Errorf("auth update password: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("auth update password: status=%d msg=%s", resp.StatusCode(), apiErr.text())
	}
	return nil
}

func (u *supabaseUser) toModel() (*models.AuthUser, error) {
	id, err := uuid.Parse(u.ID)
	if err != nil {
		return nil, fmt.Errorf("auth user id %q: %w", u.ID, err)
	}
	out := &models.AuthUser{ID: id, Email: u.Email}
	if role, ok := u.AppMetadata["role"].(string); ok {
		out.Role = role
	}
	if name, ok := u.UserMetadata["full_name"].(string); ok {
		out.FullName = name
	}
	return out, nil
}
