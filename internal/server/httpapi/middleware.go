package httpapi

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/spetrenko/authkeeper/internal/server/token"
)

type ctxKey string

const subjectKey ctxKey = "subject"

// SubjectFromContext returns the account id injected by requireAccessToken.
func SubjectFromContext(ctx context.Context) (string, bool) {
	subject, ok := ctx.Value(subjectKey).(string)
	return subject, ok
}

// requireAccessToken verifies the Bearer access token and puts its subject
// into the request context. Requests without a valid token get 401 and never
// reach the handler.
func (s *Server) requireAccessToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		bearer, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || bearer == "" {
			writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "unauthorized"})
			return
		}

		claims, err := s.issuer.Verify(bearer, token.Access)
		if err != nil {
			writeError(w, err)
			return
		}

		ctx := context.WithValue(r.Context(), subjectKey, claims.Subject)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// logRequests emits one line per request with method, path, and duration.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Info(r.Context(), "request",
			"method", r.Method, "path", r.URL.Path, "duration", time.Since(start).String())
	})
}
