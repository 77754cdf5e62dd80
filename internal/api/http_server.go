package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"piscineiro/internal/config"
	"piscineiro/internal/domain"
	"piscineiro/internal/export"
	"piscineiro/internal/metrics"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// HTTPServer exposes the public marketplace API plus a small key-protected
// admin surface.
type HTTPServer struct {
	cfg       config.APIConfig
	bookings  domain.BookingService
	accounts  domain.AccountService
	providers domain.ProviderService
	sessions  domain.SessionRepository
	exporter  *export.Exporter
	auth      *HTTPAuth
	server    *http.Server
	logger    *zerolog.Logger
}

func NewHTTPServer(
	cfg config.APIConfig,
	bookings domain.BookingService,
	accounts domain.AccountService,
	providers domain.ProviderService,
	sessions domain.SessionRepository,
	exporter *export.Exporter,
	logger *zerolog.Logger,
) *HTTPServer {
	srv := &HTTPServer{
		cfg:       cfg,
		bookings:  bookings,
		accounts:  accounts,
		providers: providers,
		sessions:  sessions,
		exporter:  exporter,
		logger:    logger,
	}
	srv.auth = NewHTTPAuth(cfg, accounts, sessions)

	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", srv.handleHealth)
	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("POST /api/v1/clients", srv.handleRegister)
	mux.HandleFunc("POST /api/v1/clients/verify", srv.handleVerifyEmail)
	mux.HandleFunc("POST /api/v1/clients/recover", srv.handlePasswordRecover)
	mux.HandleFunc("POST /api/v1/clients/password", srv.handlePasswordReset)

	mux.HandleFunc("POST /api/v1/sessions", srv.handleLogin)
	mux.HandleFunc("DELETE /api/v1/sessions", srv.auth.RequireSession(srv.handleLogout))

	mux.HandleFunc("GET /api/v1/providers", srv.handleSearchProviders)
	mux.HandleFunc("GET /api/v1/providers/{id}", srv.handleGetProvider)
	mux.HandleFunc("GET /api/v1/providers/{id}/slots", srv.handleProviderSlots)

	mux.HandleFunc("POST /api/v1/appointments", srv.auth.RequireSession(srv.handleCreateAppointment))
	mux.HandleFunc("GET /api/v1/appointments", srv.auth.RequireSession(srv.handleListAppointments))
	mux.HandleFunc("DELETE /api/v1/appointments/{id}", srv.auth.RequireSession(srv.handleCancelAppointment))

	mux.HandleFunc("GET /api/v1/favorites", srv.auth.RequireSession(srv.handleListFavorites))
	mux.HandleFunc("POST /api/v1/favorites/{providerID}", srv.auth.RequireSession(srv.handleAddFavorite))
	mux.HandleFunc("DELETE /api/v1/favorites/{providerID}", srv.auth.RequireSession(srv.handleRemoveFavorite))

	mux.HandleFunc("GET /api/v1/admin/export", srv.auth.RequireAPIKey(permExport, srv.handleExport))

	handler := srv.loggingMiddleware(srv.auth.Throttle(mux))

	srv.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      30 * time.Second,
	}

	return srv
}

func (s *HTTPServer) Start() error {
	if s.server == nil {
		return fmt.Errorf("http server is not initialized")
	}
	s.logger.Info().Str("addr", s.server.Addr).Msg("http api listening")
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *HTTPServer) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Handler exposes the full middleware chain, mainly for tests.
func (s *HTTPServer) Handler() http.Handler {
	return s.server.Handler
}

func (s *HTTPServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *HTTPServer) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(recorder, r)

		metrics.IncHTTP(r.URL.Path)
		s.logger.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", recorder.status).
			Dur("duration", time.Since(start)).
			Msg("http request")
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}
