package authz

// Роли из app_metadata.role auth-бэкенда. Пустая роль = обычный студент.
const (
	RoleAdmin   = "admin"
	RoleStudent = ""
)

func IsAdmin(role string) bool {
	return role == RoleAdmin
}
