package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/alexanderramin/miru/internal/cli"
	"github.com/alexanderramin/miru/internal/config"
	"github.com/alexanderramin/miru/internal/container"
	"github.com/alexanderramin/miru/internal/logging"
	"github.com/mattn/go-isatty"
)

func main() {
	os.Exit(run())
}

func run() int {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	logger := logging.New(cfg.Logging)

	c, err := container.New(ctx, cfg, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	defer c.Close()

	tokenPath := os.Getenv("MIRU_SESSION_FILE")
	if tokenPath == "" {
		if tokenPath, err = cli.DefaultTokenPath(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}
	}

	app := &cli.App{
		Connections: c.Connections,
		Dashboard:   c.Dashboard,
		Prompts:     c.Prompts,
		Auth:        c.Auth,
		Import:      c.Import,
		AI:          c.AI,
		I18n:        c.I18n,
		Lang:        c.I18n.Match(cfg.Locale),
		Tokens:      cli.FileTokenStore{Path: tokenPath},
		Logger:      logger,
		Health:      c,
		HTTP:        cfg.HTTP,
	}

	// Detect interactive terminal for forms and the dashboard.
	app.IsInteractive = func() bool {
		return isatty.IsTerminal(os.Stdin.Fd()) || isatty.IsCygwinTerminal(os.Stdin.Fd())
	}

	if err := cli.Execute(ctx, app, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		return 1
	}
	return 0
}
