package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Role is a platform role code
type Role string

// Platform roles. The backend may send either the code or the display name.
const (
	RoleAdmin          Role = "ADMIN"
	RoleProjectManager Role = "PROJECT_MANAGER"
	RoleResearcher     Role = "RESEARCHER"
)

var roleDisplayNames = map[Role]string{
	RoleAdmin:          "Администратор",
	RoleProjectManager: "Руководитель проекта",
	RoleResearcher:     "Научный сотрудник",
}

// Roles returns all known roles
func Roles() []Role {
	return []Role{RoleAdmin, RoleProjectManager, RoleResearcher}
}

// ParseRole принимает код роли (в любом регистре) или отображаемое имя
func ParseRole(s string) (Role, error) {
	s = strings.TrimSpace(s)
	for _, r := range Roles() {
		if strings.EqualFold(s, string(r)) || s == roleDisplayNames[r] {
			return r, nil
		}
	}
	return "", fmt.Errorf("unknown role %q", s)
}

// DisplayName returns the human-readable role name used by the platform
func (r Role) DisplayName() string {
	if name, ok := roleDisplayNames[r]; ok {
		return name
	}
	return string(r)
}

// Valid reports whether r is one of the known roles
func (r Role) Valid() bool {
	_, ok := roleDisplayNames[r]
	return ok
}

// CanManageBackups reports whether the role may list, create, download and
// restore database backups
func (r Role) CanManageBackups() bool {
	return r == RoleAdmin
}

// ScopesProjectsToManager reports whether the role only sees the projects it manages
func (r Role) ScopesProjectsToManager() bool {
	return r == RoleProjectManager
}

// UnmarshalJSON нормализует и код, и отображаемое имя к коду роли.
// Неизвестные значения сохраняются как есть, чтобы не терять профиль.
func (r *Role) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("role must be a string: %w", err)
	}
	if parsed, err := ParseRole(s); err == nil {
		*r = parsed
		return nil
	}
	*r = Role(s)
	return nil
}

// User представляет профиль пользователя платформы
type User struct {
	CreatedAt    time.Time `json:"-"`        // время создания (только на сервере)
	Username     string    `json:"username"` // уникальный username, он же subject токена
	FullName     string    `json:"fullName"` // ФИО
	Email        string    `json:"email"`    // почта
	Role         Role      `json:"role"`     // роль
	PasswordHash string    `json:"-"`        // argon2id хеш (только на сервере)
	UserID       int64     `json:"userId"`   // числовой ID
}
