package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/running-machin/legal-advice-bot/internal/api"
	"github.com/running-machin/legal-advice-bot/internal/config"
	"github.com/running-machin/legal-advice-bot/internal/identity"
	"github.com/running-machin/legal-advice-bot/internal/middleware"
	"github.com/running-machin/legal-advice-bot/internal/observability"
	"github.com/running-machin/legal-advice-bot/internal/store"
	"github.com/running-machin/legal-advice-bot/web"
)

const limiterSweepInterval = 5 * time.Minute

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the chat web server",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := configFrom(cmd)
	if err != nil {
		return err
	}

	slog.Info("Starting server", "port", cfg.Port, "dev", cfg.IsDevelopment(), "session_backend", cfg.SessionBackend)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	history, err := store.Open(ctx, cfg)
	if err != nil {
		return fmt.Errorf("open session store: %w", err)
	}
	defer func() {
		if closeErr := history.Close(); closeErr != nil {
			slog.Error("Failed to close session store", "error", closeErr)
		}
	}()

	if err := history.Ping(ctx); err != nil {
		return fmt.Errorf("session store health check: %w", err)
	}
	slog.Info("Session store connected")

	metrics := observability.New()
	limiter := middleware.NewRateLimiter(cfg.RateLimit.PerMinute, cfg.RateLimit.Burst)
	handler := api.NewHandler(newPipeline(cfg, history, metrics), history, metrics)

	srv := &http.Server{
		Addr:        ":" + cfg.Port,
		Handler:     newRouter(cfg, handler, limiter, metrics),
		ReadTimeout: 30 * time.Second,
		// Streams stay open while upstream calls run.
		WriteTimeout: 0,
		IdleTimeout:  120 * time.Second,
	}

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		slog.Info("Server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		return store.RunTTLWorker(gCtx, history, cfg.SessionTTL, store.DefaultSweepInterval)
	})

	g.Go(func() error {
		ticker := time.NewTicker(limiterSweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-gCtx.Done():
				return nil
			case <-ticker.C:
				if n := limiter.Sweep(); n > 0 {
					slog.Debug("Evicted idle rate limiters", "count", n)
				}
			}
		}
	})

	g.Go(func() error {
		<-gCtx.Done()
		slog.Info("Shutting down gracefully...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server forced to shutdown: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	slog.Info("Server stopped successfully")
	return nil
}

func newRouter(cfg *config.Config, handler *api.Handler, limiter *middleware.RateLimiter, metrics *observability.Metrics) http.Handler {
	r := chi.NewRouter()

	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/health"))
	r.Use(middleware.CORS(cfg.CORSAllowedOrigins))

	r.Handle("/metrics", metrics.Handler())

	r.Group(func(r chi.Router) {
		r.Use(identity.Middleware(cfg.SessionTTL, cfg.IsDevelopment()))
		r.Use(limiter.Middleware(rateLimitKey))

		handler.RegisterRoutes(r)
		r.Handle("/*", web.Handler())
	})

	return r
}

// rateLimitKey buckets POST requests by session, or by client IP when the
// session was just issued so cookie-less clients share one bucket.
func rateLimitKey(r *http.Request) string {
	if r.Method != http.MethodPost {
		return ""
	}
	if identity.IsNewSession(r.Context()) {
		host, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			host = r.RemoteAddr
		}
		return "ip:" + host
	}
	return "session:" + identity.SessionIDFromContext(r.Context())
}
