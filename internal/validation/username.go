package validation

import (
	"fmt"
	"regexp"
	"unicode/utf8"
)

// UsernamePattern определяет допустимый формат username:
// латинские буквы, цифры, '_', '.', '-'; первый символ буква или цифра
var UsernamePattern = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9_.\-]*$`)

const (
	// MinUsernameLen минимальная длина username
	MinUsernameLen = 3
	// MaxUsernameLen максимальная длина username
	MaxUsernameLen = 32
	// MinPasswordLen минимальная длина пароля
	MinPasswordLen = 8
)

// ValidateUsername проверяет, что username соответствует требованиям.
// Username используется как subject токена и как сегмент пути
// /user/username/{username}.
func ValidateUsername(username string) error {
	if username == "" {
		return fmt.Errorf("username cannot be empty")
	}

	if len(username) < MinUsernameLen {
		return fmt.Errorf("username must be at least %d characters long", MinUsernameLen)
	}

	if len(username) > MaxUsernameLen {
		return fmt.Errorf("username must not exceed %d characters", MaxUsernameLen)
	}

	if !UsernamePattern.MatchString(username) {
		return fmt.Errorf("username can only contain letters (a-z, A-Z), numbers (0-9), '_', '.' and '-', and must start with a letter or number")
	}

	return nil
}

// ValidatePassword проверяет минимальную длину пароля (в символах)
func ValidatePassword(password string) error {
	if password == "" {
		return fmt.Errorf("password cannot be empty")
	}

	if utf8.RuneCountInString(password) < MinPasswordLen {
		return fmt.Errorf("password must be at least %d characters long", MinPasswordLen)
	}

	return nil
}
