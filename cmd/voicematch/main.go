package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/kailas-cloud/voicematch/internal/config"
	"github.com/kailas-cloud/voicematch/internal/db"
	dbBadger "github.com/kailas-cloud/voicematch/internal/db/badger"
	dbRedis "github.com/kailas-cloud/voicematch/internal/db/redis"
	"github.com/kailas-cloud/voicematch/internal/domain/similarity"
	"github.com/kailas-cloud/voicematch/internal/keylock"
	logpkg "github.com/kailas-cloud/voicematch/internal/logger"
	"github.com/kailas-cloud/voicematch/internal/metrics"
	speakerrepo "github.com/kailas-cloud/voicematch/internal/repository/speaker"
	chiTransport "github.com/kailas-cloud/voicematch/internal/transport/chi"
	enrollmentuc "github.com/kailas-cloud/voicematch/internal/usecase/enrollment"
	healthuc "github.com/kailas-cloud/voicematch/internal/usecase/health"
	identificationuc "github.com/kailas-cloud/voicematch/internal/usecase/identification"
	speakeruc "github.com/kailas-cloud/voicematch/internal/usecase/speaker"
	verificationuc "github.com/kailas-cloud/voicematch/internal/usecase/verification"
	"github.com/kailas-cloud/voicematch/internal/version"
)

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting voicematch API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("db_driver", cfg.Database.Driver),
		zap.Strings("db_addrs", cfg.Database.Addrs),
		zap.Int("dimensions", cfg.Matching.Dimensions),
	)

	store, err := openStore(cfg.Database, logger)
	if err != nil {
		logger.Fatal("Failed to create database store", zap.Error(err))
	}
	defer store.Close()

	// Wait for database to be ready
	ctx := context.Background()
	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Database not ready", zap.Error(err))
	}
	logger.Info("Connected to database")

	// Register matching metrics explicitly (no init())
	metrics.RegisterMatchingMetrics()

	mc := cfg.MatchingDefaults()
	metric, err := similarity.ParseMetric(mc.Metric)
	if err != nil {
		logger.Fatal("Invalid similarity metric", zap.Error(err))
	}

	repo := speakerrepo.New(store, cfg.Storage.KeyPrefix)
	locks := keylock.New()

	enrollSvc := enrollmentuc.New(repo, locks, mc.Dimensions).
		WithMetric(metric).
		WithSampleLimits(mc.RequiredSamples, mc.MaxSamples).
		WithLowQualityPercent(mc.LowQualityPercent)
	identSvc, err := identificationuc.New(repo, mc.Dimensions).
		WithMetric(metric).
		WithNoVoiceFloor(mc.NoVoiceFloor).
		WithDefaults(identificationuc.Options{
			UnknownThreshold: mc.UnknownThreshold,
			HighThreshold:    mc.HighThreshold,
			TopN:             mc.TopN,
		})
	if err != nil {
		logger.Fatal("Invalid identification settings", zap.Error(err))
	}
	verifySvc := verificationuc.New(repo, mc.Dimensions).
		WithMetric(metric).
		WithThreshold(mc.VerifyThreshold)
	speakerSvc := speakeruc.New(repo, locks)
	healthSvc := healthuc.New(store, repo)

	server := chiTransport.NewServer(enrollSvc, identSvc, verifySvc, speakerSvc, healthSvc, logger).
		WithPagination(cfg.HTTP.DefaultPageSize, cfg.HTTP.MaxPageSize)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(chiTransport.BearerAuthMiddleware(cfg.Auth.APIKeys))
	r.Use(metrics.Middleware())
	server.Register(r)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// openStore creates the database store for the configured driver.
func openStore(cfg config.DatabaseConfig, logger *zap.Logger) (db.Store, error) {
	switch cfg.Driver {
	case config.DriverValkey, config.DriverRedis:
		// valkey speaks the Redis protocol; one rueidis client serves both.
		s, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Addrs,
			Password: cfg.Password,
		})
		if err != nil {
			return nil, fmt.Errorf("%s store: %w", cfg.Driver, err)
		}
		return s, nil
	case config.DriverBadger:
		s, err := dbBadger.NewStore(dbBadger.Config{
			Dir:      cfg.Dir,
			InMemory: cfg.InMemory,
			Logger:   logger.Named("badger"),
		})
		if err != nil {
			return nil, fmt.Errorf("badger store: %w", err)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
	}
}

// jsonRecoverer is a recovery middleware that returns JSON instead of a plain text stacktrace.
func jsonRecoverer(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					logger.Error("panic recovered",
						zap.Any("panic", rvr),
						zap.Stack("stacktrace"),
					)
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(w).Encode(chiTransport.ErrorResponse{
						Code:    chiTransport.ErrorCodeInternalError,
						Message: "internal error",
					})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// wideEventMiddleware emits a canonical log line per request and propagates X-Request-ID.
func wideEventMiddleware(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// chi.middleware.RequestID already placed request_id in context
			requestID := chiMiddleware.GetReqID(r.Context())
			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			// Canonical log line, one per request
			reqLogger.Info("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.String("route", chi.RouteContext(r.Context()).RoutePattern()),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
				zap.Int64("content_length", r.ContentLength),
				zap.Int("response_bytes", ww.BytesWritten()),
			)
		})
	}
}
