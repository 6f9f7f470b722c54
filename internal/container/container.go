// Package container wires the process: database, repositories, session
// store, AI providers and services, built once in a fixed order and
// read-only afterwards.
package container

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/alexanderramin/miru/internal/config"
	"github.com/alexanderramin/miru/internal/db"
	"github.com/alexanderramin/miru/internal/i18n"
	"github.com/alexanderramin/miru/internal/llm"
	"github.com/alexanderramin/miru/internal/repository"
	"github.com/alexanderramin/miru/internal/service"
	"github.com/alexanderramin/miru/internal/session"
	"github.com/redis/go-redis/v9"
)

// Container holds every long-lived dependency.
type Container struct {
	Config *config.Config
	Logger *slog.Logger
	DB     *sql.DB
	Redis  *redis.Client // nil when sessions live in SQLite
	AI     *llm.Manager
	I18n   *i18n.Bundle

	Connections service.ConnectionService
	Dashboard   service.DashboardService
	Prompts     service.PromptService
	Auth        service.AuthService
	Import      service.ImportService

	components map[string]any
}

// New builds the container. On error everything opened so far is closed.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (_ *Container, err error) {
	c := &Container{Config: cfg, Logger: logger}
	defer func() {
		if err != nil {
			c.Close()
		}
	}()

	c.I18n, err = i18n.Load()
	if err != nil {
		return nil, err
	}

	c.DB, err = db.OpenDB(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	conns := repository.NewSQLiteConnectionRepo(c.DB)
	progress := repository.NewSQLiteProgressRepo(c.DB)
	prompts := repository.NewSQLitePromptHistoryRepo(c.DB)
	actions := repository.NewSQLiteActionHistoryRepo(c.DB)
	users := repository.NewSQLiteUserRepo(c.DB)
	resets := repository.NewSQLitePasswordResetRepo(c.DB)
	uow := db.NewSQLiteUnitOfWork(c.DB)

	var sessions repository.SessionRepo = repository.NewSQLiteSessionRepo(c.DB)
	if addr := cfg.Session.RedisAddr; addr != "" {
		c.Redis, err = session.OpenRedis(ctx, addr, cfg.Session.RedisPassword, cfg.Session.RedisDB)
		if err != nil {
			return nil, err
		}
		sessions = session.NewRedisStore(c.Redis)
		logger.Info("session store", "backend", "redis", "addr", addr)
	}

	aiCfg := cfg.AI.LLM()
	var aiObserver llm.Observer = llm.NoopObserver{}
	if aiCfg.LogCalls {
		aiObserver = llm.NewLogObserver(logger)
	}
	c.AI = llm.NewManager(aiCfg, aiObserver)

	obs := service.NewLogUseCaseObserver(logger)
	c.Connections = service.NewConnectionService(conns, progress, users, uow, obs)
	c.Dashboard = service.NewDashboardService(conns, users, obs)
	c.Prompts = service.NewPromptService(conns, prompts, actions, uow, c.AI, obs)
	c.Auth = service.NewAuthService(users, sessions, resets, uow, cfg.Session.TTL, obs)
	c.Import = service.NewImportService(conns, actions, c.AI, obs)

	c.components = map[string]any{
		"config":      c.Config,
		"db":          c.DB,
		"ai":          c.AI,
		"i18n":        c.I18n,
		"sessions":    sessions,
		"connections": c.Connections,
		"dashboard":   c.Dashboard,
		"prompts":     c.Prompts,
		"auth":        c.Auth,
		"import":      c.Import,
	}
	if c.Redis != nil {
		c.components["redis"] = c.Redis
	}
	return c, nil
}

// Lookup returns a component by name.
func (c *Container) Lookup(name string) (any, bool) {
	v, ok := c.components[name]
	return v, ok
}

// Components lists the registered names in sorted order.
func (c *Container) Components() []string {
	names := make([]string, 0, len(c.components))
	for name := range c.components {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Probe checks the stores the process cannot run without.
func (c *Container) Probe(ctx context.Context) error {
	if err := c.DB.PingContext(ctx); err != nil {
		return fmt.Errorf("database: %w", err)
	}
	if c.Redis != nil {
		if err := c.Redis.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("redis: %w", err)
		}
	}
	return nil
}

// Close releases the database and Redis connections.
func (c *Container) Close() error {
	var errs []error
	if c.Redis != nil {
		errs = append(errs, c.Redis.Close())
	}
	if c.DB != nil {
		errs = append(errs, c.DB.Close())
	}
	return errors.Join(errs...)
}
