package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Harshitk-cp/concierge/internal/api"
	"github.com/Harshitk-cp/concierge/internal/buildconfig"
	"github.com/Harshitk-cp/concierge/internal/config"
	"github.com/Harshitk-cp/concierge/internal/domain"
	"github.com/Harshitk-cp/concierge/internal/knowledge"
	"github.com/Harshitk-cp/concierge/internal/notify"
	"github.com/Harshitk-cp/concierge/internal/service"
	"github.com/Harshitk-cp/concierge/internal/store"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

func main() {
	bootLogger, _ := zap.NewProduction()

	if err := config.Load(); err != nil {
		bootLogger.Fatal("failed to load config", zap.Error(err))
	}

	logger, err := config.NewLogger()
	if err != nil {
		bootLogger.Fatal("failed to build logger", zap.Error(err))
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("starting concierge",
		zap.String("version", buildconfig.Version()),
		zap.String("commit", buildconfig.Commit()),
		zap.String("env", config.Environment()))

	kbPath := config.KnowledgeBasePath()
	kb, err := knowledge.LoadFile(kbPath)
	if err != nil {
		logger.Fatal("failed to load knowledge base", zap.String("path", kbPath), zap.Error(err))
	}
	for _, w := range kb.Check() {
		logger.Warn("knowledge base warning", zap.String("warning", w))
	}
	logger.Info("knowledge base loaded",
		zap.String("path", kbPath),
		zap.Int("communities", len(kb.Communities())))

	ctx := context.Background()

	bookings, closeBookings, err := store.OpenBookings(ctx, config.DatabaseURL())
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	defer closeBookings()

	if err := bookings.EnsureSchema(ctx); err != nil {
		logger.Fatal("failed to prepare bookings table", zap.Error(err))
	}
	logger.Info("connected to database")

	sessions, closeSessions := openSessions(ctx, logger)
	defer closeSessions()

	app := api.NewApp(api.Deps{
		Knowledge: kb,
		Sessions:  sessions,
		Bookings:  bookings,
		Notifier:  newNotifier(logger),
		Logger:    logger,
	})

	app.Expirer.Start()

	addr := config.ServerAddr()
	srv := &http.Server{
		Addr:              addr,
		Handler:           app.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		logger.Info("server starting", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("shutting down server")

	app.Expirer.Stop()

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", zap.Error(err))
	}

	logger.Info("server stopped")
}

func openSessions(ctx context.Context, logger *zap.Logger) (domain.SessionStore, func()) {
	switch backend := config.SessionBackend(); backend {
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     config.RedisAddr(),
			Password: config.RedisPassword(),
			DB:       config.RedisDB(),
		})
		if err := client.Ping(ctx).Err(); err != nil {
			logger.Fatal("failed to connect to redis", zap.String("addr", config.RedisAddr()), zap.Error(err))
		}
		sessions := store.NewRedisSessionStore(client, config.SessionTTL())
		lockTTL := service.ConfirmBudget(config.SinkTimeout(), config.SinkRetries(), service.DefaultRetryDelay) + 5*time.Second
		sessions.SetLockTTL(lockTTL)
		logger.Info("using redis session store",
			zap.String("addr", config.RedisAddr()),
			zap.Duration("lock_ttl", lockTTL))
		return sessions, func() { _ = client.Close() }
	case "memory":
		logger.Info("using in-memory session store")
		return store.NewMemorySessionStore(), func() {}
	default:
		logger.Fatal("unknown SESSION_BACKEND", zap.String("backend", backend))
		return nil, nil
	}
}

func newNotifier(logger *zap.Logger) domain.Notifier {
	if !config.SMTPConfigured() {
		logger.Warn("SMTP not configured, confirmations will only be logged")
		return notify.NewLogNotifier(logger)
	}

	n, err := notify.NewSMTPNotifier(notify.SMTPConfig{
		Host:     config.SMTPHost(),
		Port:     config.SMTPPort(),
		Username: config.SMTPUser(),
		Password: config.SMTPPass(),
		From:     config.FromEmail(),
	}, logger)
	if err != nil {
		logger.Fatal("invalid SMTP configuration", zap.Error(err))
	}
	logger.Info("sending confirmations via SMTP", zap.String("host", config.SMTPHost()))
	return n
}
