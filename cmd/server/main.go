package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/iudanet/labdesk/internal/config"
	"github.com/iudanet/labdesk/internal/server"
)

var (
	// Version information set via ldflags during build
	Version   = "dev"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

func main() {
	showVersion := flag.Bool("version", false, "Show version information")
	envFile := flag.String("env-file", ".env", "Path to .env file (optional)")
	flag.Parse()

	if *showVersion {
		printVersion()
		os.Exit(0)
	}

	if err := run(*envFile); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(envFile string) error {
	if err := config.LoadEnvFile(envFile); err != nil {
		return err
	}

	cfg, err := config.LoadServer()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("starting labdesk server",
		slog.String("version", Version),
		slog.String("db", cfg.DBPath),
		slog.String("backup_dir", cfg.BackupDir))

	app, err := server.NewApp(ctx, cfg, logger, server.WithVersion(Version))
	if err != nil {
		return err
	}
	defer func() {
		if err := app.Close(); err != nil {
			logger.Error("failed to close app", slog.Any("error", err))
		}
	}()

	if err := app.Run(ctx); err != nil {
		return err
	}

	logger.Info("server stopped")
	return nil
}

func printVersion() {
	fmt.Printf("labdesk server\n")
	fmt.Printf("Version:    %s\n", Version)
	fmt.Printf("Build Date: %s\n", BuildDate)
	fmt.Printf("Git Commit: %s\n", GitCommit)
}
