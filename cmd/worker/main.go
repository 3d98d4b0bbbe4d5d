package main

import (
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"notiq/internal/config"
	"notiq/internal/domain/notification"
	"notiq/internal/infra/queue"
	"notiq/internal/infra/senders"
	"notiq/internal/infra/store"

	"github.com/hibiken/asynq"
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

	slog.Info("worker configuration loaded")

	// ==========================================
	// Dependency Injection (Manual Wiring)
	// ==========================================

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Address,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()

	// Recent-history ring + failure log
	historyStore := store.NewRedisHistoryStore(redisClient, cfg.History.Cap)

	// Channel senders
	emailSender := senders.NewEmailSender(
		cfg.Senders.Email.APIURL,
		cfg.Senders.Email.APIKey,
		cfg.Senders.Email.FromAddress,
		cfg.Senders.Email.FromName,
	)
	smsSender := senders.NewSMSSender(
		cfg.Senders.SMS.APIURL,
		cfg.Senders.SMS.APIKey,
		cfg.Senders.SMS.FromNumber,
	)
	pushSender := senders.NewPushSender(
		cfg.Senders.Push.APIURL,
		cfg.Senders.Push.APIKey,
	)
	inAppSender := senders.NewInAppSender(redisClient)

	// Dispatch worker
	worker := notification.NewWorker(historyStore, emailSender, smsSender, pushSender, inAppSender)

	// ==========================================
	// Asynq Server (queue consumption)
	// ==========================================

	asynqServer := queue.NewServer(
		cfg.Redis.Address,
		cfg.Redis.Password,
		cfg.Redis.DB,
		cfg.Queue.Concurrency,
		cfg.Queue.RetryBaseDelaySec,
	)

	mux := asynq.NewServeMux()
	mux.HandleFunc(notification.TaskTypeDeliver, worker.ProcessTask)

	// Start the queue consumer in a goroutine
	go func() {
		slog.Info("worker starting",
			"concurrency", cfg.Queue.Concurrency,
			"max_attempts", cfg.Queue.MaxAttempts,
			"redis", cfg.Redis.Address,
		)
		if err := asynqServer.Run(mux); err != nil {
			slog.Error("worker failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// ==========================================
	// Graceful Shutdown
	// ==========================================

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down worker...")
	// Stops new claims; in-flight leases finish or are reclaimed after restart.
	asynqServer.Shutdown()
	slog.Info("worker exited gracefully")
}
