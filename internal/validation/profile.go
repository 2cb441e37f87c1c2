package validation

import (
	"fmt"
	"net/mail"
	"strings"

	"github.com/iudanet/labdesk/internal/models"
)

// ValidateEmail проверяет, что строка является голым email адресом
// (без отображаемого имени)
func ValidateEmail(email string) error {
	if email == "" {
		return fmt.Errorf("email cannot be empty")
	}

	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return fmt.Errorf("invalid email address %q", email)
	}

	return nil
}

// ValidateFullName проверяет ФИО пользователя
func ValidateFullName(fullName string) error {
	if strings.TrimSpace(fullName) == "" {
		return fmt.Errorf("full name cannot be empty")
	}
	return nil
}

// ValidateRole проверяет код роли и возвращает нормализованное значение
func ValidateRole(role string) (models.Role, error) {
	r, err := models.ParseRole(role)
	if err != nil {
		return "", fmt.Errorf("invalid role: %w", err)
	}
	return r, nil
}
