package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/iudanet/labdesk/internal/crypto"
	"github.com/iudanet/labdesk/internal/models"
	"github.com/iudanet/labdesk/internal/server/storage"
	"github.com/iudanet/labdesk/internal/validation"
	"github.com/iudanet/labdesk/pkg/api"
)

// AuthHandler обрабатывает запросы авторизации
type AuthHandler struct {
	responder
	userStorage storage.UserStorage
	jwtConfig   JWTConfig
	hashParams  crypto.Params
}

// NewAuthHandler создает новый handler для авторизации
func NewAuthHandler(logger *slog.Logger, userStorage storage.UserStorage, jwtConfig JWTConfig, hashParams crypto.Params) *AuthHandler {
	return &AuthHandler{
		responder:   responder{logger: logger},
		userStorage: userStorage,
		jwtConfig:   jwtConfig,
		hashParams:  hashParams,
	}
}

// SignUp обрабатывает POST /api/auth/sign-up
// Регистрация нового пользователя, в ответ выдается токен
func (h *AuthHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	// Парсим request body
	var req api.SignUpRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.WarnContext(ctx, "failed to decode sign-up request", slog.Any("error", err))
		h.sendError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if err := validation.ValidateUsername(req.Username); err != nil {
		h.logger.WarnContext(ctx, "invalid username", slog.String("username", req.Username), slog.Any("error", err))
		h.sendError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := validation.ValidatePassword(req.Password); err != nil {
		h.sendError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := validation.ValidateFullName(req.FullName); err != nil {
		h.sendError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := validation.ValidateEmail(req.Email); err != nil {
		h.sendError(w, err.Error(), http.StatusBadRequest)
		return
	}
	role, err := validation.ValidateRole(req.Role)
	if err != nil {
		h.sendError(w, err.Error(), http.StatusBadRequest)
		return
	}

	passwordHash, err := crypto.HashPassword(req.Password, h.hashParams)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to hash password", slog.Any("error", err))
		h.sendError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	user := &models.User{
		Username:     req.Username,
		PasswordHash: passwordHash,
		FullName:     req.FullName,
		Email:        req.Email,
		Role:         role,
	}

	// Сохраняем в БД
	if err := h.userStorage.CreateUser(ctx, user); err != nil {
		if errors.Is(err, storage.ErrUserAlreadyExists) {
			h.logger.WarnContext(ctx, "user already exists", slog.String("username", req.Username))
			h.sendError(w, "username already taken", http.StatusConflict)
			return
		}
		h.logger.ErrorContext(ctx, "failed to create user", slog.Any("error", err))
		h.sendError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	h.logger.InfoContext(ctx, "user registered successfully",
		slog.String("username", user.Username),
		slog.Int64("user_id", user.UserID),
		slog.String("role", string(user.Role)))

	h.issueToken(w, r, user, http.StatusCreated)
}

// SignIn обрабатывает POST /api/auth
// Аутентификация по логину и паролю
func (h *AuthHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req api.SignInRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.WarnContext(ctx, "failed to decode sign-in request", slog.Any("error", err))
		h.sendError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if req.Username == "" || req.Password == "" {
		h.sendError(w, "username and password are required", http.StatusBadRequest)
		return
	}

	user, err := h.userStorage.GetUserByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			h.logger.WarnContext(ctx, "sign-in failed: user not found", slog.String("username", req.Username))
			h.sendError(w, "invalid credentials", http.StatusUnauthorized)
			return
		}
		h.logger.ErrorContext(ctx, "failed to get user", slog.Any("error", err))
		h.sendError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	if err := crypto.VerifyPassword(req.Password, user.PasswordHash); err != nil {
		if !errors.Is(err, crypto.ErrPasswordMismatch) {
			h.logger.ErrorContext(ctx, "stored password hash is unreadable",
				slog.String("username", req.Username),
				slog.Any("error", err))
		} else {
			h.logger.WarnContext(ctx, "sign-in failed: invalid password", slog.String("username", req.Username))
		}
		h.sendError(w, "invalid credentials", http.StatusUnauthorized)
		return
	}

	h.logger.InfoContext(ctx, "user signed in successfully", slog.String("username", user.Username))

	h.issueToken(w, r, user, http.StatusOK)
}

func (h *AuthHandler) issueToken(w http.ResponseWriter, r *http.Request, user *models.User, statusCode int) {
	token, err := GenerateAccessToken(h.jwtConfig, user.Username, user.Role)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "failed to generate access token", slog.Any("error", err))
		h.sendError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	h.sendJSON(w, api.TokenResponse{Token: token}, statusCode)
}
