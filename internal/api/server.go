// Package api exposes the HTTP surface: auth, profile, grid weeks,
// special periods, stats and the xlsx export.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"weeksuntil/internal/config"
	"weeksuntil/internal/database"
	"weeksuntil/internal/export"
	"weeksuntil/internal/service"

	"github.com/rs/zerolog"
)

type HTTPServer struct {
	cfg      *config.Config
	users    *service.UserService
	grid     *service.GridService
	exporter *export.Generator
	limiter  *rateLimiter
	server   *http.Server
	logger   zerolog.Logger
}

func NewHTTPServer(
	cfg *config.Config,
	users *service.UserService,
	grid *service.GridService,
	exporter *export.Generator,
	logger *zerolog.Logger,
) *HTTPServer {
	base := zerolog.Nop()
	if logger != nil {
		base = logger.With().Str("component", "api").Logger()
	}

	srv := &HTTPServer{
		cfg:      cfg,
		users:    users,
		grid:     grid,
		exporter: exporter,
		limiter:  newRateLimiter(&cfg.API),
		logger:   base,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/health", srv.handleHealth)
	mux.HandleFunc("/api/v1/config", srv.handleConfig)
	mux.HandleFunc("/api/v1/auth/register", srv.handleRegister)
	mux.HandleFunc("/api/v1/auth/login", srv.handleLogin)
	mux.HandleFunc("/api/v1/auth/telegram", srv.handleTelegramAuth)
	mux.HandleFunc("/api/v1/auth/me", srv.withAuth(srv.handleMe))
	mux.HandleFunc("/api/v1/users/me", srv.withAuth(srv.handleUpdateMe))
	mux.HandleFunc("/api/v1/grid/weeks", srv.withAuth(srv.handleWeeks))
	mux.HandleFunc("/api/v1/grid/weeks/", srv.withAuth(srv.handleWeeksByUser))
	mux.HandleFunc("/api/v1/grid/special-periods", srv.withAuth(srv.handlePeriods))
	mux.HandleFunc("/api/v1/grid/special-periods/", srv.withAuth(srv.handlePeriodByID))
	mux.HandleFunc("/api/v1/grid/stats/", srv.withAuth(srv.handleStats))
	mux.HandleFunc("/api/v1/grid/export", srv.withAuth(srv.handleExport))

	handler := srv.loggingMiddleware(srv.rateLimitMiddleware(mux))

	srv.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.API.Port),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      15 * time.Second,
	}

	return srv
}

// Handler returns the full middleware chain, used directly in tests.
func (s *HTTPServer) Handler() http.Handler {
	return s.server.Handler
}

func (s *HTTPServer) Start() error {
	s.logger.Info().Str("addr", s.server.Addr).Msg("http api listening")
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *HTTPServer) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func (s *HTTPServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *HTTPServer) handleConfig(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"bot_name": s.cfg.Telegram.BotName,
	})
}

func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, map[string]string{"error": message})
}

// writeServiceError maps domain errors onto HTTP status codes.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidCredentials),
		errors.Is(err, service.ErrInvalidToken),
		errors.Is(err, service.ErrInvalidTelegramHash):
		writeError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, service.ErrInactiveUser),
		errors.Is(err, service.ErrPermissionDenied),
		errors.Is(err, service.ErrNotCurrentWeek):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, service.ErrIdentityRequired),
		errors.Is(err, service.ErrPasswordRequired),
		errors.Is(err, service.ErrNotMonday):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, database.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, database.ErrEmailTaken),
		errors.Is(err, database.ErrTelegramTaken),
		errors.Is(err, database.ErrEmojiTaken):
		writeError(w, http.StatusConflict, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

func decodeJSON(r *http.Request, dst any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(dst)
}
