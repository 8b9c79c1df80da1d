package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"pontual/internal/auth"
	"pontual/internal/cache"
	"pontual/internal/repository"
)

// HTTPServer serves the point-registration JSON API.
type HTTPServer struct {
	repo   *repository.Repository
	auth   *auth.Service
	cache  *cache.SecureCache
	status func(ctx context.Context) string // backend probe, nil when local-only
	apiKey string
	logger *zerolog.Logger
}

// NewHTTPServer wires the handlers. status may be nil when no remote backend
// is configured.
func NewHTTPServer(
	repo *repository.Repository,
	authSvc *auth.Service,
	c *cache.SecureCache,
	status func(ctx context.Context) string,
	apiKey string,
	logger *zerolog.Logger,
) *HTTPServer {
	return &HTTPServer{
		repo:   repo,
		auth:   authSvc,
		cache:  c,
		status: status,
		apiKey: apiKey,
		logger: logger,
	}
}

// Handler builds the route table.
func (s *HTTPServer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/signin", s.handleSignIn)
	mux.HandleFunc("/api/signout", s.handleSignOut)
	mux.HandleFunc("/api/records", s.handleRecords)
	mux.HandleFunc("/api/records/range", s.handleRecordsRange)
	mux.HandleFunc("/api/records/", s.handleRecordByID)
	mux.HandleFunc("/api/cache/info", s.handleCacheInfo)
	mux.HandleFunc("/api/status", s.handleStatus)
	return s.requireAPIKey(mux)
}

// Start runs the API server until ctx is cancelled.
func (s *HTTPServer) Start(ctx context.Context, port int) error {
	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: s.Handler()}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()

	s.logger.Info().Int("port", port).Msg("api server started")
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// requireAPIKey rejects requests without the configured key. An empty key
// disables the check (local development).
func (s *HTTPServer) requireAPIKey(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.apiKey != "" && r.Header.Get("x-api-key") != s.apiKey {
			writeError(w, http.StatusUnauthorized, "invalid api key")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"success": false, "message": message})
}
