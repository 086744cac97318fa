// Package app assembles the HelpHub services from configuration. The serve
// and mcp commands and the end-to-end tests share this wiring.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"helphub/internal/agent"
	"helphub/internal/auth"
	"helphub/internal/cache"
	"helphub/internal/chat"
	"helphub/internal/config"
	"helphub/internal/db"
	"helphub/internal/handler"
	"helphub/internal/repository"
	"helphub/internal/router"
	"helphub/internal/service"
	"helphub/internal/tools"
)

// App holds the wired components.
type App struct {
	Config  *config.Config
	Logger  *slog.Logger
	DB      *gorm.DB
	Cache   *cache.Client
	JWT     *auth.JWTService
	Auth    service.AuthService
	Tickets service.TicketService
	Toolbox *tools.Toolbox
	Bridge  *chat.Bridge

	closers []func() error
}

type options struct {
	model chat.Model
}

// Option customizes New.
type Option func(*options)

// WithModel replaces the assistant model.
func WithModel(m chat.Model) Option {
	return func(o *options) { o.model = m }
}

// New opens storage, applies migrations, creates the bootstrap admin when
// none exists and wires every service.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger, opts ...Option) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	gdb, err := db.Open(cfg.DBDriver, cfg.DatabaseDSN, logger)
	if err != nil {
		return nil, fmt.Errorf("database init: %w", err)
	}
	a := &App{Config: cfg, Logger: logger, DB: gdb}
	a.closers = append(a.closers, func() error {
		sqlDB, err := gdb.DB()
		if err != nil {
			return err
		}
		return sqlDB.Close()
	})

	if err := db.Migrate(ctx, gdb, cfg.DBDriver, logger); err != nil {
		_ = a.Close()
		return nil, err
	}

	a.Cache = cache.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB, logger)
	a.closers = append(a.closers, a.Cache.Close)

	userRepo := repository.NewUserRepository(gdb)
	ticketRepo := repository.NewTicketRepository(gdb)

	a.JWT = auth.NewJWTService(cfg.JWTSecret)
	tokenStore := auth.NewTokenStore(a.Cache)
	users := service.NewUserService(userRepo, cfg.UserCacheTTL)
	a.Auth = service.NewAuthService(userRepo, users, a.JWT, tokenStore, cfg.TokenTTL, logger)
	a.Tickets = service.NewTicketService(ticketRepo)
	a.Toolbox = tools.New(a.Tickets)

	created, err := a.Auth.EnsureBootstrapAdmin(ctx, cfg.BootstrapAdminPassword)
	if err != nil {
		_ = a.Close()
		return nil, fmt.Errorf("bootstrap admin: %w", err)
	}
	if created {
		logger.Info("bootstrap admin created", "username", service.BootstrapAdminUsername)
	}

	model := o.model
	if model == nil {
		model, err = a.newModel(ctx)
		if err != nil {
			_ = a.Close()
			return nil, err
		}
	}

	var store chat.SessionStore = chat.NewMemoryStore()
	if a.Cache.Enabled() {
		store = chat.NewRedisStore(a.Cache, cfg.ChatSessionTTL)
	}
	a.Bridge = chat.NewBridge(store, model, a.Tickets, cfg.ChatTimeout, logger)

	return a, nil
}

func (a *App) newModel(ctx context.Context) (chat.Model, error) {
	if a.Config.GeminiAPIKey == "" {
		a.Logger.Warn("GEMINI_API_KEY is not set, chat replies will fail")
		return agent.Unavailable{}, nil
	}
	g, err := agent.NewGemini(ctx, a.Config.GeminiAPIKey, a.Config.GeminiModel, a.Toolbox, a.Config.ChatMaxToolRounds, a.Logger)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, g.Close)
	return g, nil
}

// Echo builds the HTTP server with every route registered.
func (a *App) Echo() (*echo.Echo, error) {
	e := echo.New()
	e.HideBanner = true

	h := router.Handlers{
		Auth:    handler.NewAuthHandler(a.Auth, a.Logger),
		Tickets: handler.NewTicketHandler(a.Tickets, a.Logger),
		Admin:   handler.NewAdminHandler(a.Tickets, a.Logger),
		Chat:    handler.NewChatHandler(a.Bridge, a.Logger),
		Health:  handler.NewHealthHandler(a.DB, a.Cache),
	}
	if err := router.Register(e, a.Config, a.Logger, a.JWT, a.Auth, h); err != nil {
		return nil, err
	}
	return e, nil
}

// Close releases resources in reverse order of acquisition.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
