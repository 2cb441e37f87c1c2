package api

// SignInRequest представляет запрос на вход по логину и паролю
type SignInRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// SignUpRequest представляет запрос на регистрацию нового пользователя
type SignUpRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	FullName string `json:"fullName"`
	Email    string `json:"email"`
	Role     string `json:"role"` // код роли: ADMIN, PROJECT_MANAGER, RESEARCHER
}

// TokenResponse представляет ответ с bearer токеном
type TokenResponse struct {
	Token string `json:"token"` // подписанный JWT (sub, iat, exp)
}

// ErrorResponse представляет ответ с ошибкой
type ErrorResponse struct {
	Error   string `json:"error"`             // описание ошибки
	Message string `json:"message,omitempty"` // дополнительное сообщение
}
