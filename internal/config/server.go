package config

import (
	"fmt"
	"log/slog"
	"time"
)

// Значения по умолчанию для dev backend'а
const (
	DefaultServerAddr = ":8080"
	DefaultServerDB   = "labdesk-server.db"
	DefaultBackupDir  = "backups"
	DefaultTokenTTL   = 24 * time.Hour
)

// Server - настройки dev backend'а
type Server struct {
	Addr      string // LABDESK_SERVER_ADDR
	DBPath    string // LABDESK_SERVER_DB
	BackupDir string // LABDESK_BACKUP_DIR
	JWTSecret string // LABDESK_JWT_SECRET, обязателен
	TokenTTL  time.Duration

	// Rate limiting, запросов в минуту
	RateLimitAuth    int
	RateLimitDefault int

	LogLevel slog.Level
}

// LoadServer читает настройки dev backend'а из окружения
func LoadServer() (*Server, error) {
	ttl, err := getEnvDuration("LABDESK_TOKEN_TTL", DefaultTokenTTL)
	if err != nil {
		return nil, err
	}

	rateAuth, err := getEnvInt("LABDESK_RATE_LIMIT_AUTH", 10)
	if err != nil {
		return nil, err
	}
	rateDefault, err := getEnvInt("LABDESK_RATE_LIMIT_DEFAULT", 300)
	if err != nil {
		return nil, err
	}

	level, err := ParseLogLevel(getEnv("LABDESK_LOG_LEVEL", "info"))
	if err != nil {
		return nil, fmt.Errorf("LABDESK_LOG_LEVEL: %w", err)
	}

	cfg := &Server{
		Addr:             getEnv("LABDESK_SERVER_ADDR", DefaultServerAddr),
		DBPath:           getEnv("LABDESK_SERVER_DB", DefaultServerDB),
		BackupDir:        getEnv("LABDESK_BACKUP_DIR", DefaultBackupDir),
		JWTSecret:        getEnv("LABDESK_JWT_SECRET", ""),
		TokenTTL:         ttl,
		RateLimitAuth:    rateAuth,
		RateLimitDefault: rateDefault,
		LogLevel:         level,
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate проверяет обязательные поля и диапазоны
func (c *Server) Validate() error {
	if len(c.JWTSecret) < 32 {
		return fmt.Errorf("LABDESK_JWT_SECRET must be at least 32 bytes")
	}
	if c.DBPath == "" {
		return fmt.Errorf("server db path cannot be empty")
	}
	if c.BackupDir == "" {
		return fmt.Errorf("backup dir cannot be empty")
	}

	limits := []struct {
		name  string
		value int
	}{
		{"LABDESK_RATE_LIMIT_AUTH", c.RateLimitAuth},
		{"LABDESK_RATE_LIMIT_DEFAULT", c.RateLimitDefault},
	}
	for _, rl := range limits {
		if rl.value < 1 || rl.value > 10000 {
			return fmt.Errorf("%s must be between 1 and 10000, got %d", rl.name, rl.value)
		}
	}

	return nil
}
