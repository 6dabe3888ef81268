package cli

import (
	"bufio"
	"context"
	"database/sql"
	"errors"
	"log"
	"os"

	"github.com/spetrenko/authkeeper/internal/client/api"
	"github.com/spetrenko/authkeeper/internal/client/config"
	"github.com/spetrenko/authkeeper/internal/client/session"
	"github.com/spetrenko/authkeeper/internal/client/storage"
	"github.com/spetrenko/authkeeper/internal/common"
)

type App struct {
	config  *config.Config
	api     *api.Client
	session *session.Manager
	db      *sql.DB
	reader  *bufio.Reader
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {

	db, err := storage.InitDatabase(ctx, c.DatabaseDSN)
	if err != nil {
		log.Printf("error initializing database: %s", err.Error())
		return nil, err
	}

	apiClient := api.NewClient(c.ServerBaseURL, c.RequestTimeout)
	sess := session.NewManager(apiClient, storage.NewSQLiteStore(db))

	return &App{config: c, api: apiClient, session: sess, db: db, reader: bufio.NewReader(os.Stdin)}, nil
}

func (a *App) Run(ctx context.Context) {
	defer a.db.Close()

	// Resume the previous session if a stored refresh token is still valid.
	if err := a.session.Restore(ctx); err != nil {
		if errors.Is(err, api.ErrUnavailable) {
			log.Printf("Server unavailable, session not restored")
		} else if !errors.Is(err, common.ErrSessionEnded) {
			log.Printf("Session not restored: %s", err.Error())
		}
	}

	a.Root(ctx)
}

func (a *App) isLoggedIn() bool {
	return a.session.IsLoggedIn()
}
