// Package main runs the email delivery worker.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/aura-webinar/storefront/config"
	"github.com/aura-webinar/storefront/internal/emaillogs"
	"github.com/aura-webinar/storefront/internal/notifications"
	"github.com/aura-webinar/storefront/internal/worker"
	"github.com/aura-webinar/storefront/pkg/database"
	"github.com/aura-webinar/storefront/pkg/queue"
	"github.com/aura-webinar/storefront/pkg/redis"
)

func main() {
	logger := newLogger()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}
	if cfg.Email.SMTPHost == "" {
		logger.Fatal("SMTP_HOST is required for the email worker")
	}

	ctx := context.Background()
	pool, err := database.NewPostgresPool(ctx, cfg.Database.DSN(), database.PoolOptions{MaxConns: 4}, logger)
	if err != nil {
		logger.Fatal("database", zap.Error(err))
	}
	defer pool.Close()

	rdb, err := redis.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, logger)
	if err != nil {
		logger.Fatal("redis", zap.Error(err))
	}
	defer rdb.Close()

	sender, err := notifications.NewSMTPSender(notifications.SMTPConfig{
		Host:     cfg.Email.SMTPHost,
		Port:     cfg.Email.SMTPPort,
		Username: cfg.Email.SMTPUser,
		Password: cfg.Email.SMTPPass,
		From:     cfg.Email.FromAddress,
		FromName: cfg.Email.FromName,
		SSL:      cfg.Email.SMTPSSL,
	})
	if err != nil {
		logger.Fatal("smtp", zap.Error(err))
	}

	jobQueue := queue.NewQueue(rdb.Client, logger)
	processor := worker.NewEmailProcessor(jobQueue, sender, emaillogs.NewRepository(pool), logger)

	workerCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan struct{})
	go func() {
		processor.Run(workerCtx)
		close(done)
	}()
	go reportDepth(workerCtx, jobQueue, logger)
	logger.Info("email worker started", zap.String("smtp_host", cfg.Email.SMTPHost))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	cancel()
	select {
	case <-done:
	case <-time.After(queue.PollTimeout + 5*time.Second):
		logger.Warn("worker did not stop in time")
	}
	logger.Info("worker stopped")
}

// reportDepth logs the pending and dead-letter counts once a minute.
func reportDepth(ctx context.Context, q *queue.Queue, logger *zap.Logger) {
	t := time.NewTicker(time.Minute)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			pending, dead, err := q.Depth(ctx)
			if err != nil {
				logger.Warn("queue depth", zap.Error(err))
				continue
			}
			logger.Info("queue depth", zap.Int64("pending", pending), zap.Int64("dead", dead))
		}
	}
}

func newLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}
