package api

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"

	"transit_router/pkg/config"
)

// NewServer creates an HTTP server with all routes and middleware.
// metrics may be nil, in which case /metrics is not served.
func NewServer(cfg config.ServerConfig, handlers *Handlers, metrics *Metrics, logger *log.Logger) *http.Server {
	if logger == nil {
		logger = log.Default()
	}
	r := chi.NewRouter()

	r.Use(requestID)
	r.Use(accessLog(logger))
	r.Use(securityHeaders)
	r.Use(cors(cfg.CORSOrigin))
	r.Use(limitConcurrency(cfg.MaxConcurrent))
	r.Use(recoverer(logger))
	r.Use(timeout(cfg.QueryTimeout))

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/distance", handlers.HandleDistance)
		r.Get("/health", handlers.HandleHealth)
		r.Get("/stats", handlers.HandleStats)
	})
	if metrics != nil {
		r.Method(http.MethodGet, "/metrics", metrics.Handler())
	}

	return &http.Server{
		Addr:         cfg.Addr,
		Handler:      r,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
}

// ListenAndServe starts the server and blocks until ctx is done or a
// shutdown signal arrives.
func ListenAndServe(ctx context.Context, srv *http.Server, logger *log.Logger) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGTERM, os.Interrupt)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Server listening", "addr", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		logger.Info("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}
