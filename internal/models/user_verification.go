package models

import "time"

// PendingRegistration: неподтверждённая регистрация, одна на e-mail.
// Код храним только как bcrypt-хэш. Пароль: base64 (нужен в открытом виде при создании аккаунта).
type PendingRegistration struct {
	Email       string    `json:"email"`
	FullName    string    `json:"full_name"`
	PasswordB64 string    `json:"-"`
	CodeHash    string    `json:"-"`
	ExpiresAt   time.Time `json:"expires_at"`
	Attempts    int       `json:"attempts"`
	CreatedAt   time.Time `json:"created_at"`
}
