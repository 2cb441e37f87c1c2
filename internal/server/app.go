// Package server собирает dev backend: хранилище, handlers, middleware и push hub.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/iudanet/labdesk/internal/config"
	"github.com/iudanet/labdesk/internal/crypto"
	"github.com/iudanet/labdesk/internal/models"
	"github.com/iudanet/labdesk/internal/server/handlers"
	"github.com/iudanet/labdesk/internal/server/middleware"
	"github.com/iudanet/labdesk/internal/server/push"
	"github.com/iudanet/labdesk/internal/server/storage/sqlite"
)

// shutdownTimeout - сколько ждем завершения активных запросов
const shutdownTimeout = 10 * time.Second

// App - собранный dev backend
type App struct {
	cfg        *config.Server
	logger     *slog.Logger
	storage    *sqlite.Storage
	backups    *sqlite.Backups
	hub        *push.Hub
	limiter    *middleware.PathLimiter
	handler    http.Handler
	hashParams crypto.Params
	version    string
}

// Option настраивает App
type Option func(*App)

// WithHashParams задает параметры argon2id (в тестах - дешевые)
func WithHashParams(p crypto.Params) Option {
	return func(a *App) {
		a.hashParams = p
	}
}

// WithVersion задает версию для /api/health
func WithVersion(v string) Option {
	return func(a *App) {
		a.version = v
	}
}

// NewApp открывает хранилище и собирает маршруты
func NewApp(ctx context.Context, cfg *config.Server, logger *slog.Logger, opts ...Option) (*App, error) {
	app := &App{
		cfg:        cfg,
		logger:     logger,
		hashParams: crypto.DefaultParams,
		version:    "dev",
	}
	for _, opt := range opts {
		opt(app)
	}

	store, err := sqlite.New(ctx, cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open storage: %w", err)
	}

	backups, err := sqlite.NewBackups(store, cfg.BackupDir)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to init backups: %w", err)
	}

	app.storage = store
	app.backups = backups
	app.hub = push.NewHub(logger)
	app.limiter = middleware.NewPathLimiter([]middleware.PathRateLimit{
		{Path: "/api/auth", Rate: cfg.RateLimitAuth, Window: time.Minute},
		{Path: "/api/auth/sign-up", Rate: cfg.RateLimitAuth, Window: time.Minute},
	}, cfg.RateLimitDefault, time.Minute, logger)
	app.handler = app.routes()

	return app, nil
}

// Handler возвращает корневой http.Handler
func (a *App) Handler() http.Handler {
	return a.handler
}

// Hub возвращает push hub
func (a *App) Hub() *push.Hub {
	return a.hub
}

func (a *App) routes() http.Handler {
	jwtCfg := handlers.JWTConfig{
		Secret:   []byte(a.cfg.JWTSecret),
		TokenTTL: a.cfg.TokenTTL,
	}

	health := handlers.NewHealthHandler(a.logger, a.storage, a.version)
	auth := handlers.NewAuthHandler(a.logger, a.storage, jwtCfg, a.hashParams)
	users := handlers.NewUserHandler(a.logger, a.storage)
	res := handlers.NewResourceHandler(a.logger, a.storage, a.storage, a.hub)
	backups := handlers.NewBackupHandler(a.logger, a.backups, a.hub)

	// Защищенные маршруты
	protected := http.NewServeMux()
	protected.HandleFunc("GET /api/user/username/{username}", users.GetByUsername)

	// создавать и менять проекты могут администратор и руководители;
	// владельца проекта проверяет сам handler
	managers := middleware.RequireRole(a.logger, models.RoleAdmin, models.RoleProjectManager)
	protected.HandleFunc("GET /api/projects", res.List(handlers.Projects))
	protected.Handle("POST /api/projects", managers(http.HandlerFunc(res.CreateProject)))
	protected.HandleFunc("GET /api/projects/{id}", res.Get(handlers.Projects))
	protected.Handle("PUT /api/projects/{id}", managers(http.HandlerFunc(res.UpdateProject)))
	protected.Handle("DELETE /api/projects/{id}", managers(http.HandlerFunc(res.DeleteProject)))
	protected.HandleFunc("GET /api/projects/{id}/team", res.ListTeam)
	protected.HandleFunc("POST /api/projects/{id}/team", res.AddTeamMember)
	protected.HandleFunc("GET /api/projects/{id}/budget", res.GetBudget)
	protected.HandleFunc("PUT /api/projects/{id}/budget", res.UpdateBudget)

	for _, r := range []struct {
		prefix string
		res    handlers.Resource
	}{
		{"/api/tasks", handlers.Tasks},
		{"/api/funding-sources", handlers.FundingSources},
		{"/api/publications", handlers.Publications},
		{"/api/equipment", handlers.Equipment},
	} {
		protected.HandleFunc("GET "+r.prefix, res.List(r.res))
		protected.HandleFunc("POST "+r.prefix, res.Create(r.res))
		protected.HandleFunc("GET "+r.prefix+"/{id}", res.Get(r.res))
		protected.HandleFunc("PUT "+r.prefix+"/{id}", res.Update(r.res))
		protected.HandleFunc("DELETE "+r.prefix+"/{id}", res.Delete(r.res))
	}

	adminOnly := middleware.RequireRole(a.logger, models.RoleAdmin)
	protected.Handle("GET /api/backup/list", adminOnly(http.HandlerFunc(backups.List)))
	protected.Handle("POST /api/backup", adminOnly(http.HandlerFunc(backups.Create)))
	protected.Handle("GET /api/backup/download", adminOnly(http.HandlerFunc(backups.Download)))
	protected.Handle("POST /api/backup/restore", adminOnly(http.HandlerFunc(backups.Restore)))

	// Публичные маршруты
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/health", health.Health)
	mux.HandleFunc("POST /api/auth", auth.SignIn)
	mux.HandleFunc("POST /api/auth/sign-up", auth.SignUp)
	mux.Handle("GET /ws", a.hub)
	mux.Handle("/api/", middleware.AuthMiddleware(a.logger, jwtCfg)(protected))

	// Цепочка: recovery -> logging -> rate limit -> маршруты
	var h http.Handler = mux
	h = a.limiter.Middleware(h)
	h = middleware.LoggingWithSkip(a.logger, []string{"/api/health"})(h)
	h = middleware.RecoveryMiddleware(a.logger)(h)
	return h
}

// Run слушает адрес из конфигурации до отмены ctx, затем корректно
// останавливает сервер и закрывает push сессии
func (a *App) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              a.cfg.Addr,
		Handler:           a.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.logger.Info("server listening", slog.String("addr", a.cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		a.logger.Info("shutting down server")

		// WebSocket соединения hijacked, Shutdown их не ждет
		a.hub.Close()

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown failed: %w", err)
		}
		return nil
	})

	return g.Wait()
}

// Close освобождает ресурсы
func (a *App) Close() error {
	a.limiter.Stop()
	a.hub.Close()
	return a.storage.Close()
}
