package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	_ "github.com/lib/pq"
	"healthtrack/clinic-core/internal/audit"
	"healthtrack/clinic-core/internal/auth"
	"healthtrack/clinic-core/internal/clinic"
	"healthtrack/clinic-core/internal/config"
	"healthtrack/clinic-core/internal/dashboard"
	"healthtrack/clinic-core/internal/httpserver"
	"healthtrack/clinic-core/internal/observability"
	"healthtrack/clinic-core/internal/schema"
)

type App struct {
	cfg    config.Config
	log    *slog.Logger
	db     *sql.DB
	server *httpserver.Server
}

func New(cfg config.Config) (*App, error) {
	logger := observability.NewLogger()

	var err error
	var db *sql.DB
	if cfg.DatabaseURL != "" {
		db, err = sql.Open("postgres", cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("open database: %w", err)
		}
		if err := db.Ping(); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("ping database: %w", err)
		}
	}

	var userStore auth.UserStore
	var clinicStore clinic.Store
	if db != nil {
		desc, err := schema.NewDescriptor(cfg.Schema.AppKey, cfg.Schema.Version)
		if err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("build schema descriptor: %w", err)
		}
		manager, err := schema.NewManager(db, desc)
		if err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("create schema manager: %w", err)
		}
		if err := manager.EnsureTables(); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("ensure schema tables: %w", err)
		}
		logger.Info("schema tables ensured", "app_key", desc.AppKey, "version", desc.Version)

		userStore, err = auth.NewPostgresUserStore(db, desc)
		if err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("create postgres user store: %w", err)
		}
		clinicStore, err = clinic.NewPostgresStore(db, desc)
		if err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("create postgres clinic store: %w", err)
		}
	} else {
		userStore, err = auth.NewFileUserStore(cfg.UserStateFile)
		if err != nil {
			return nil, fmt.Errorf("create user store: %w", err)
		}
		clinicStore, err = clinic.NewFileStore(cfg.ClinicStateFile)
		if err != nil {
			return nil, fmt.Errorf("create clinic store: %w", err)
		}
	}

	authService, err := auth.NewService(userStore)
	if err != nil {
		if db != nil {
			_ = db.Close()
		}
		return nil, fmt.Errorf("create auth service: %w", err)
	}

	// Create the bootstrap user only when the username is absent; an
	// existing user keeps whatever credentials and role it has.
	if _, err := userStore.GetByUsername(cfg.Auth.BootstrapUsername); err != nil {
		if errors.Is(err, auth.ErrUserNotFound) {
			if _, err := userStore.Put(auth.User{
				Username: cfg.Auth.BootstrapUsername,
				Password: cfg.Auth.BootstrapPassword,
				Role:     cfg.Auth.BootstrapRole,
			}); err != nil {
				if db != nil {
					_ = db.Close()
				}
				return nil, fmt.Errorf("create bootstrap user: %w", err)
			}
			logger.Info("bootstrap auth user created", "username", cfg.Auth.BootstrapUsername)
		} else {
			if db != nil {
				_ = db.Close()
			}
			return nil, fmt.Errorf("check bootstrap user: %w", err)
		}
	}

	dashboardService, err := dashboard.NewService(clinicStore)
	if err != nil {
		if db != nil {
			_ = db.Close()
		}
		return nil, fmt.Errorf("create dashboard service: %w", err)
	}
	auditLogger := audit.NewLogger(cfg.AuditLogFile)

	server := httpserver.New(cfg.HTTP, httpserver.Deps{
		Auth:            authService,
		Dashboard:       dashboardService,
		Audit:           auditLogger,
		FrontendDistDir: cfg.FrontendDistDir,
	})

	return &App{
		cfg:    cfg,
		log:    logger,
		db:     db,
		server: server,
	}, nil
}

func (a *App) Run(ctx context.Context) error {
	defer func() {
		if a.db != nil {
			_ = a.db.Close()
		}
	}()

	errCh := make(chan error, 1)

	go func() {
		a.log.Info("http server starting", "addr", a.cfg.HTTP.Addr)
		errCh <- a.server.Start()
	}()

	select {
	case <-ctx.Done():
		a.log.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.HTTP.ShutdownTimeout)
		defer cancel()
		if err := a.server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown server: %w", err)
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server exited: %w", err)
	}
}
