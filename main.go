package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"ms-bulletin/internal/api"
	"ms-bulletin/internal/auth"
	"ms-bulletin/internal/config"
	"ms-bulletin/internal/events"
	"ms-bulletin/internal/logger"
	"ms-bulletin/internal/metrics"
	"ms-bulletin/internal/notify"
	"ms-bulletin/internal/qr"
	"ms-bulletin/internal/sse"
	"ms-bulletin/internal/store"
	"ms-bulletin/internal/store/connect"
)

func main() {
	// Production reads the process environment only.
	var envErr error
	if os.Getenv("APP_ENV") != "production" {
		envErr = godotenv.Load(".env.local")
	}

	cfg := config.Load()
	logger := logger.NewLogger(logger.Options{
		Dir:      cfg.Log.Dir,
		Name:     "bulletin",
		MinLevel: logger.ParseLevel(cfg.Log.Level),
	})
	defer logger.Close()

	logger.Info("APP", "Starting bulletin service initialization")
	if envErr != nil {
		logger.Warn("CONFIG", ".env.local not found, using environment variables")
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal("CONFIG", err.Error())
	}
	if cfg.Auth.AdminHash == "" {
		logger.Warn("CONFIG", "ADMIN_HASH not set, admin login will fail until it is configured")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	loc, err := cfg.Location()
	if err != nil {
		logger.Warn("CONFIG", fmt.Sprintf("Unknown timezone, bucketing in %s: %v", loc, err))
	}
	m := metrics.New()

	// The server starts before the store is reachable; data routes answer
	// 503 until the background connect fills the handle.
	handle := store.NewHandle()
	defer handle.Close()
	connect.Background(ctx, handle,
		connect.FromConfig(cfg.Store, loc, logger),
		cfg.Store.ConnectRetries, cfg.Store.ConnectDelay, logger,
		func(err error) { m.SetStoreReady(err == nil) },
	)

	svc := events.NewEventService(handle, loc, logger)
	svc.OpTimeout = cfg.Store.OpTimeout
	svc.Observer = m

	stream := sse.NewBroadcaster()
	notifiers := events.Notifiers{stream}
	if cfg.Kafka.Enabled {
		if err := notify.EnsureTopicsExist(ctx, cfg.Kafka.Brokers, []string{cfg.Kafka.EventsTopic}, logger); err != nil {
			logger.Warn("KAFKA", fmt.Sprintf("Topic creation might have failed: %v", err))
		}
		producer := notify.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.EventsTopic, logger)
		defer producer.Close()
		notifiers = append(notifiers, producer)
		logger.Info("KAFKA", fmt.Sprintf("Publishing lifecycle notifications to %s", cfg.Kafka.EventsTopic))
	}
	svc.Notifier = notifiers

	var limiter auth.Limiter
	if cfg.Redis.Addr != "" {
		redisClient, err := auth.NewRedisClient(ctx, cfg.Redis.Addr, logger)
		if err != nil {
			logger.Warn("REDIS", "Login throttling disabled")
		} else {
			defer redisClient.Close()
			limiter = auth.NewRedisLimiter(redisClient, cfg.Auth.LoginMaxAttempts, cfg.Auth.LoginWindow)
		}
	}

	codec := auth.NewTokenCodec(cfg.Auth.JWTSecret, auth.TokenTTL)
	if cfg.Auth.JWTSecret == "" {
		logger.Warn("CONFIG", "JWT_SECRET not set, admin tokens cannot be issued")
	}

	srv := &api.Server{
		Events:        svc,
		Guard:         auth.NewGuard(cfg.Auth.AdminHash, codec, limiter, logger),
		Store:         handle,
		QR:            qr.NewGenerator(cfg.Bulletin.PublicBaseURL),
		Stream:        stream,
		Metrics:       m,
		Logger:        logger,
		SecureCookies: cfg.IsProduction(),
		TrustProxy:    cfg.Server.TrustProxy,
	}
	if cfg.IsProduction() {
		srv.CORSOrigins = cfg.Server.CORSOrigins
	}

	server := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      srv.Routes(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		logger.Info("HTTP", fmt.Sprintf("🚀 Bulletin service running on %s", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP", fmt.Sprintf("HTTP server error: %v", err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	logger.Info("APP", "Service started successfully, waiting for shutdown signal")
	<-stop

	logger.Info("APP", "Shutdown signal received, initiating graceful shutdown")
	cancel()
	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()

	if err := server.Shutdown(ctxShutdown); err != nil {
		logger.Error("HTTP", fmt.Sprintf("Server Shutdown Failed: %v", err))
	} else {
		logger.Info("HTTP", "✅ Bulletin service shutdown complete")
	}
}
