package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	solanago "github.com/gagliardetto/solana-go"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/solmint/launchpad/service/config"
	"github.com/solmint/launchpad/service/metrics"
)

// Server represents the HTTP server for the launch service.
type Server struct {
	addr     string
	cfg      *config.Config
	store    Store
	funder   Funder
	launcher LaunchStarter
	agentKey solanago.PrivateKey
	metrics  *metrics.Metrics
	logger   *slog.Logger
	server   *http.Server
}

// New creates a new HTTP server with the given dependencies.
// The funder executes funding transfers; the launcher starts launch workflows
// and answers status queries. The metrics is optional - if nil, the metrics
// endpoint won't be available.
func New(addr string, cfg *config.Config, store Store, funder Funder, launcher LaunchStarter, agentKey solanago.PrivateKey, m *metrics.Metrics, logger *slog.Logger) *Server {
	return &Server{
		addr:     addr,
		cfg:      cfg,
		store:    store,
		funder:   funder,
		launcher: launcher,
		agentKey: agentKey,
		metrics:  m,
		logger:   logger,
	}
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	mux := http.NewServeMux()

	auth := requireAPIKey(s.cfg.APIKey, s.logger)

	// Wallet routes
	mux.Handle("POST /api/v1/wallets", auth(handleGenerateWallet(s.store, s.cfg, s.logger)))
	mux.Handle("POST /api/v1/wallets/{id}/fund", auth(handleFundWallet(s.store, s.funder, s.agentKey, s.cfg, s.logger)))

	// Launch routes
	mux.Handle("POST /api/v1/launch", auth(handleLaunchToken(s.store, s.launcher, s.cfg, s.logger)))
	mux.Handle("GET /api/v1/launches/{workflow_id}", handleGetLaunchStatus(s.launcher, s.logger))

	// Token record routes
	mux.Handle("POST /api/v1/tokens", auth(handleCreateToken(s.store, s.logger)))
	mux.Handle("GET /api/v1/tokens/{id}", handleGetToken(s.store, s.logger))
	mux.Handle("GET /api/v1/tokens", handleListTokens(s.store, s.logger))
	mux.Handle("PATCH /api/v1/tokens/{id}", auth(handleUpdateToken(s.store, s.logger)))

	// Health check endpoint
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Prometheus metrics endpoint (if metrics collector is configured)
	if s.metrics != nil {
		mux.Handle("GET /metrics", promhttp.Handler())
		s.logger.Info("Prometheus metrics endpoint enabled")
	}

	// Wrap mux with CORS middleware
	handler := corsMiddleware(mux)

	s.server = &http.Server{
		Addr:         s.addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 5 * time.Minute, // the launch endpoint waits on the workflow
		IdleTimeout:  60 * time.Second,
	}

	s.logger.Info("starting HTTP server", "addr", s.addr)
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server failed: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

// corsMiddleware adds CORS headers to all responses and handles OPTIONS preflight requests.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Access-Control-Max-Age", "3600")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// requireAPIKey returns middleware enforcing bearer authentication with the
// shared API key.
func requireAPIKey(apiKey string, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			token, ok := parseBearerToken(header)
			if !ok || token != apiKey {
				logger.Debug("rejected unauthenticated request",
					"path", r.URL.Path,
					"method", r.Method,
				)
				writeError(w, "unauthorized", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func parseBearerToken(header string) (string, bool) {
	const prefix = "Bearer "
	if len(header) <= len(prefix) || header[:len(prefix)] != prefix {
		return "", false
	}
	return header[len(prefix):], true
}
