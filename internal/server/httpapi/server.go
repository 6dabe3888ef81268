package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/rs/cors"

	"github.com/spetrenko/authkeeper/internal/logging"
	"github.com/spetrenko/authkeeper/internal/server/services"
	"github.com/spetrenko/authkeeper/internal/server/token"
)

// Server serves the five /user routes over HTTP.
type Server struct {
	address string
	auth    *services.AuthService
	issuer  *token.Issuer
	logger  logging.Logger
}

// NewServer constructs the HTTP server around the auth service.
func NewServer(address string, auth *services.AuthService, logger logging.Logger) *Server {
	return &Server{
		address: address,
		auth:    auth,
		issuer:  auth.Issuer(),
		logger:  logger.With("module", "http_server"),
	}
}

// Handler builds the routing table with middleware applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /user/register", s.handleRegister)
	mux.HandleFunc("POST /user/login", s.handleLogin)
	mux.HandleFunc("POST /user/refresh", s.handleRefresh)
	mux.Handle("POST /user/logout", s.requireAccessToken(http.HandlerFunc(s.handleLogout)))
	mux.Handle("GET /user/profile", s.requireAccessToken(http.HandlerFunc(s.handleProfile)))

	c := cors.New(cors.Options{
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
	})

	return s.logRequests(c.Handler(mux))
}

// Run starts the HTTP server and shuts it down gracefully when ctx is
// cancelled.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.address,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", s.address)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
