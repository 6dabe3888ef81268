// Package server initializes and runs the authentication server. It wires
// the account store, the auth service, and the HTTP API together, and handles
// graceful shutdown on OS signals.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/spetrenko/authkeeper/internal/logging"
	"github.com/spetrenko/authkeeper/internal/server/config"
	"github.com/spetrenko/authkeeper/internal/server/httpapi"
	"github.com/spetrenko/authkeeper/internal/server/repositories/accounts"
	"github.com/spetrenko/authkeeper/internal/server/services"
)

type App struct {
	config      *config.Config
	logger      logging.Logger
	authService *services.AuthService
	db          *sql.DB
}

func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {

	s := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	logger := logging.NewSlogLogger(s)

	var repo accounts.Repository
	var db *sql.DB

	if cfg.DatabaseDSN != "" {
		var err error
		db, err = accounts.OpenPostgres(ctx, cfg.DatabaseDSN)
		if err != nil {
			return nil, fmt.Errorf("db init error: %w", err)
		}
		repo = accounts.NewPostgresRepository(db)
	} else {
		logger.Warn(ctx, "no database DSN configured, using in-memory account store")
		repo = accounts.NewInMemoryRepository()
	}

	auth := services.NewAuthService(repo, cfg)

	return &App{config: cfg, logger: logger, authService: auth, db: db}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {

	s := httpapi.NewServer(app.config.EndpointAddr, app.authService, app.logger)

	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	wg.Wait()

	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error(ctx, err.Error())
		}
	}
}
