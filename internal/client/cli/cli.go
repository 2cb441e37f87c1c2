// Package cli - консоль оператора labdesk: cobra команды поверх
// auth.Service, api.Client и session.Store.
package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/iudanet/labdesk/internal/client/api"
	"github.com/iudanet/labdesk/internal/client/auth"
	"github.com/iudanet/labdesk/internal/client/iocli"
	"github.com/iudanet/labdesk/internal/client/session"
	"github.com/iudanet/labdesk/internal/client/storage/boltdb"
	"github.com/iudanet/labdesk/internal/config"
)

// PasswordEnv - переменная окружения с паролем для неинтерактивного входа
const PasswordEnv = "LABDESK_PASSWORD"

const dateLayout = "2006-01-02"

// Cli хранит зависимости, которые собирает корневая команда
type Cli struct {
	io      iocli.IO
	logger  *slog.Logger
	cfg     *config.Client
	storage *boltdb.Storage
	session *session.Store
	client  *api.Client
	auth    *auth.Service
	now     func() time.Time
	version string
}

// New создает консоль поверх переданного ввода-вывода
func New(io iocli.IO, version string) *Cli {
	return &Cli{
		io:      io,
		now:     time.Now,
		version: version,
	}
}

// globalFlags - persistent флаги, перекрывающие окружение
type globalFlags struct {
	apiURL   string
	pushURL  string
	dbPath   string
	logLevel string
}

// Execute выполняет команду и возвращает код выхода процесса
func (c *Cli) Execute(ctx context.Context, args []string) int {
	root := c.rootCommand()
	root.SetArgs(args)

	err := root.ExecuteContext(ctx)
	c.close()

	if err != nil {
		c.failure(err)
		if needsSignIn(err) {
			c.hint("Please sign in: labdesk signin")
		}
		return 1
	}
	return 0
}

// setup собирает зависимости команды: конфиг, сессию, gateway и сервис авторизации
func (c *Cli) setup(ctx context.Context, flags *globalFlags) error {
	cfg, err := config.LoadClient()
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if flags.apiURL != "" {
		cfg.APIURL = flags.apiURL
	}
	if flags.pushURL != "" {
		cfg.PushURL = flags.pushURL
	}
	if flags.dbPath != "" {
		cfg.DBPath = flags.dbPath
	}
	if flags.logLevel != "" {
		level, err := config.ParseLogLevel(flags.logLevel)
		if err != nil {
			return fmt.Errorf("invalid --log-level: %w", err)
		}
		cfg.LogLevel = level
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	c.cfg = cfg
	c.logger = slog.New(slog.NewTextHandler(c.io.ErrWriter(), &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(c.logger)

	st, err := boltdb.New(ctx, cfg.DBPath)
	if err != nil {
		return fmt.Errorf("failed to open session storage: %w", err)
	}
	c.storage = st

	c.session = session.NewStore(st)
	c.client = api.NewClient(cfg.APIURL, c.session, api.WithTimeout(cfg.HTTPTimeout))
	c.auth = auth.NewService(c.client, c.session)

	c.logger.Debug("console ready",
		slog.String("api_url", cfg.APIURL),
		slog.String("push_url", cfg.PushURL),
		slog.String("db", cfg.DBPath))

	return nil
}

func (c *Cli) close() {
	if c.storage == nil {
		return
	}
	if err := c.storage.Close(); err != nil && c.logger != nil {
		c.logger.Warn("failed to close session storage", slog.Any("error", err))
	}
	c.storage = nil
}

// needsSignIn - ошибки, после которых имеет смысл заново войти
func needsSignIn(err error) bool {
	return errors.Is(err, auth.ErrNotAuthenticated) ||
		errors.Is(err, auth.ErrSessionInvalid) ||
		errors.Is(err, api.ErrUnauthorized)
}

// readPassword получает пароль в порядке приоритета:
// переменная окружения, файл, флаг, интерактивный ввод
func (c *Cli) readPassword(flagValue, file, prompt string) (string, error) {
	if env := os.Getenv(PasswordEnv); env != "" {
		return env, nil
	}

	if file != "" {
		data, err := os.ReadFile(file)
		if err != nil {
			return "", fmt.Errorf("failed to read password file: %w", err)
		}
		// Файлы обычно заканчиваются переводом строки
		return strings.TrimRight(string(data), "\r\n"), nil
	}

	if flagValue != "" {
		return flagValue, nil
	}

	return c.io.ReadPassword(prompt)
}

// promptIfEmpty спрашивает значение, если флаг не задан
func (c *Cli) promptIfEmpty(value, prompt string) (string, error) {
	if value != "" {
		return value, nil
	}
	return c.io.ReadInput(prompt)
}

func parseID(s, what string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s id %q", what, s)
	}
	return id, nil
}

func validateDate(flag, value string) error {
	if value == "" {
		return nil
	}
	if _, err := time.Parse(dateLayout, value); err != nil {
		return fmt.Errorf("--%s must be a date in YYYY-MM-DD format", flag)
	}
	return nil
}
