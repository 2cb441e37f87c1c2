package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"time"
)

// Значения по умолчанию для консоли
const (
	DefaultAPIURL      = "http://localhost:8080/api"
	DefaultPushURL     = "ws://localhost:8080/ws"
	DefaultClientDB    = "labdesk.db"
	DefaultHTTPTimeout = 30 * time.Second
)

// Client - настройки консоли
type Client struct {
	APIURL      string // LABDESK_API_URL, используется как префикс всех путей
	PushURL     string // LABDESK_PUSH_URL
	DBPath      string // LABDESK_DB, файл bbolt с credential
	HTTPTimeout time.Duration
	LogLevel    slog.Level
}

// LoadClient читает настройки консоли из окружения
func LoadClient() (*Client, error) {
	timeout, err := getEnvDuration("LABDESK_HTTP_TIMEOUT", DefaultHTTPTimeout)
	if err != nil {
		return nil, err
	}

	level, err := ParseLogLevel(getEnv("LABDESK_LOG_LEVEL", "warn"))
	if err != nil {
		return nil, fmt.Errorf("LABDESK_LOG_LEVEL: %w", err)
	}

	cfg := &Client{
		APIURL:      getEnv("LABDESK_API_URL", DefaultAPIURL),
		PushURL:     getEnv("LABDESK_PUSH_URL", DefaultPushURL),
		DBPath:      getEnv("LABDESK_DB", DefaultClientDB),
		HTTPTimeout: timeout,
		LogLevel:    level,
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate проверяет адреса; вызывается повторно после применения флагов
func (c *Client) Validate() error {
	if err := validateURL("api url", c.APIURL, "http", "https"); err != nil {
		return err
	}
	if err := validateURL("push url", c.PushURL, "ws", "wss", "http", "https"); err != nil {
		return err
	}
	if c.DBPath == "" {
		return fmt.Errorf("db path cannot be empty")
	}
	return nil
}

func validateURL(name, raw string, schemes ...string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid %s %q: %w", name, raw, err)
	}
	for _, s := range schemes {
		if u.Scheme == s && u.Host != "" {
			return nil
		}
	}
	return fmt.Errorf("invalid %s %q: expected absolute %v URL", name, raw, schemes)
}
