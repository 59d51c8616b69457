package models

import (
	"github.com/google/uuid"

	"fyzioakademie/internal/authz"
)

// AuthUser: пользователь из auth-бэкенда (Supabase), своей таблицы users у нас нет.
type AuthUser struct {
	ID       uuid.UUID `json:"id"`
	Email    string    `json:"email"`
	Role     string    `json:"role,omitempty"`
	FullName string    `json:"full_name,omitempty"`
}

func (u *AuthUser) IsAdmin() bool {
	return u != nil && authz.IsAdmin(u.Role)
}
