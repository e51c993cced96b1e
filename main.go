package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/s1natex/taskboard/internal/config"
	"github.com/s1natex/taskboard/internal/middleware"
	"github.com/s1natex/taskboard/internal/storage"
	"github.com/s1natex/taskboard/internal/tasks"
	"github.com/s1natex/taskboard/internal/telemetry"
)

func main() {
	if err := run(); err != nil {
		slog.Error("fatal", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := newLogger(cfg.LogLevel)
	slog.SetDefault(logger) // for third-party packages that use slog

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.Setup(ctx, telemetry.Options{
		Exporter:     cfg.Tracing.Exporter,
		ServiceName:  "taskboard",
		OTLPEndpoint: cfg.Tracing.OTLPEndpoint,
	})
	if err != nil {
		return err
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTracing(flushCtx)
	}()

	kv, err := openStore(ctx, cfg.Store)
	if err != nil {
		return err
	}
	defer kv.Close()

	ids, err := tasks.NewIDGenerator(cfg.IDStrategy)
	if err != nil {
		return err
	}
	persistence := tasks.NewPersistence(kv,
		tasks.WithKey(cfg.Store.Key),
		tasks.WithPersistenceLogger(logger),
	)
	board := tasks.Open(ctx, persistence,
		tasks.WithIDGenerator(ids),
		tasks.WithLogger(logger),
	)

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           newRouter(board, logger, cfg),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      20 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server_listen",
			slog.String("addr", cfg.ListenAddr),
			slog.String("store", cfg.Store.Driver),
		)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("server_shutdown")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// openStore builds the KV backend named by cfg.Driver.
func openStore(ctx context.Context, cfg config.StoreConfig) (storage.KV, error) {
	switch strings.ToLower(cfg.Driver) {
	case "memory":
		return storage.NewMemory(), nil
	case "file":
		return storage.NewFile(cfg.Path)
	case "sqlite":
		dsn, err := storage.SQLiteFileDSN(cfg.Path)
		if err != nil {
			return nil, fmt.Errorf("sqlite dsn: %w", err)
		}
		s, err := storage.NewSQLite(dsn)
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		if err := s.ApplyMigrations(ctx); err != nil {
			_ = s.Close()
			return nil, fmt.Errorf("migrate sqlite: %w", err)
		}
		return s, nil
	case "redis":
		return storage.DialRedis(ctx, cfg.RedisAddr, cfg.RedisPrefix)
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}

// newRouter wires the ops endpoints, the JSON API, the HTML board, and the middleware stack
func newRouter(board *tasks.Board, logger *slog.Logger, cfg config.Config) *chi.Mux {
	r := chi.NewRouter()

	// ---- Middleware stack (order matters a bit) ----
	// RequestID first so downstream can include it (logger, errors, etc.)
	r.Use(chimw.RequestID)
	r.Use(middleware.TracingMiddleware)
	r.Use(middleware.MetricsMiddleware)
	r.Use(middleware.RequestLogger(logger))

	// Panic recovery sits inside the logger so panics are logged as 500s
	r.Use(chimw.Recoverer)

	// Timeouts: cancel handlers that exceed this duration
	r.Use(chimw.Timeout(15 * time.Second))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-API-Key"},
		ExposedHeaders:   []string{"X-Request-ID", "Trace-Id"},
		AllowCredentials: false,
		MaxAge:           300, // 5 minutes
	}))

	r.Use(middleware.RateLimitMiddleware(middleware.NewLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst)))

	// ---- Routes ----

	r.Get("/health", healthHandler(board))
	r.Handle("/metrics", middleware.MetricsHandler())

	r.Route("/api", func(api chi.Router) {
		mode, _ := middleware.ParseAuthMode(cfg.Auth.Mode) // validated by config
		api.Use(middleware.AuthMiddleware(middleware.AuthConfig{
			Mode:        mode,
			APIKey:      cfg.Auth.APIKey,
			BearerToken: cfg.Auth.BearerToken,
		}))
		tasks.RegisterRoutes(api, board)
	})

	tasks.RegisterPage(r, board, logger)

	return r
}

// healthHandler reports 503 while the last write to storage has failed; the
// board keeps serving from memory meanwhile.
func healthHandler(board *tasks.Board) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := board.Health(); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_ = json.NewEncoder(w).Encode(map[string]string{"status": "degraded", "error": err.Error()})
			return
		}
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	}
}

func newLogger(level string) *slog.Logger {
	var l slog.Level
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		l = slog.LevelDebug
	case "warn", "warning":
		l = slog.LevelWarn
	case "error":
		l = slog.LevelError
	default:
		l = slog.LevelInfo
	}

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: l,
	})
	return slog.New(handler)
}
