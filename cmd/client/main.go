package main

import (
	"context"
	"fmt"
	"os"

	"github.com/iudanet/labdesk/internal/client/cli"
	"github.com/iudanet/labdesk/internal/client/iocli"
	"github.com/iudanet/labdesk/internal/config"
)

var (
	// Version information set via ldflags during build
	Version   = "dev"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

func main() {
	// .env в текущей директории, если есть; окружение имеет приоритет
	if err := config.LoadEnvFile(".env"); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	version := fmt.Sprintf("%s (built %s, commit %s)", Version, BuildDate, GitCommit)
	console := cli.New(iocli.NewStdio(), version)

	os.Exit(console.Execute(context.Background(), os.Args[1:]))
}
