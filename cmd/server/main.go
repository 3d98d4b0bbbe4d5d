package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"notiq/internal/config"
	"notiq/internal/domain/notification"
	"notiq/internal/infra/queue"
	"notiq/internal/infra/ratelimit"
	"notiq/internal/infra/store"
	"notiq/internal/router"

	"github.com/redis/go-redis/v9"
)

func main() {
	// Initialize structured logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	slog.Info("configuration loaded", "port", cfg.Server.Port, "mode", cfg.Server.Mode)

	// ==========================================
	// Dependency Injection (Manual Wiring)
	// ==========================================

	// Redis backs the counters, the history ring, and the queue
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Address,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()
	slog.Info("redis client initialized", "address", cfg.Redis.Address)

	// Usage counters + limiter
	counterStore := ratelimit.NewRedisCounterStore(redisClient)
	limiter := notification.NewLimiter(counterStore)

	// Recent-history ring
	historyStore := store.NewRedisHistoryStore(redisClient, cfg.History.Cap)

	// Asynq client (for enqueuing deliver tasks)
	asynqClient := queue.NewClient(cfg.Redis.Address, cfg.Redis.Password, cfg.Redis.DB)
	defer asynqClient.Close()

	enqueuer := queue.NewEnqueuer(asynqClient, cfg.Queue.MaxAttempts)

	// Admission gate
	quotas := quotaTableFromConfig(cfg.Quotas)
	gate := notification.NewGate(limiter, enqueuer, quotas)

	// Handler + Router
	notificationHandler := notification.NewHandler(gate, historyStore)
	r := router.New(cfg, notificationHandler)

	// ==========================================
	// HTTP Server with Graceful Shutdown
	// ==========================================

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		slog.Info("server starting", "address", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server...")

	// Give outstanding requests 10 seconds to complete
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("server exited gracefully")
}

// quotaTableFromConfig builds the per-channel quota table from config.
func quotaTableFromConfig(q config.QuotasConfig) notification.QuotaTable {
	toQuota := func(c config.QuotaConfig) notification.Quota {
		return notification.Quota{
			MaxPerMinute: c.MaxPerMinute,
			MaxPerHour:   c.MaxPerHour,
			MaxPerDay:    c.MaxPerDay,
		}
	}
	return notification.QuotaTable{
		Channels: map[notification.Channel]notification.Quota{
			notification.ChannelEmail: toQuota(q.Email),
			notification.ChannelSMS:   toQuota(q.SMS),
			notification.ChannelInApp: toQuota(q.InApp),
			notification.ChannelPush:  toQuota(q.Push),
		},
		Default: toQuota(q.Default),
	}
}
