package auth

import "errors"

var (
	// ErrNotAuthenticated - в сессии нет пригодного credential
	ErrNotAuthenticated = errors.New("not authenticated")
	// ErrSessionInvalid - сервер отверг credential, сессия сброшена
	ErrSessionInvalid = errors.New("session is no longer valid")
	// ErrAccessDenied - роль пользователя не допускает операцию
	ErrAccessDenied = errors.New("access denied")
)
