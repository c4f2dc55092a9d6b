// Package main runs the storefront HTTP API with graceful shutdown.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/aura-webinar/storefront/config"
	"github.com/aura-webinar/storefront/internal/admin"
	"github.com/aura-webinar/storefront/internal/analytics"
	"github.com/aura-webinar/storefront/internal/auth"
	"github.com/aura-webinar/storefront/internal/checkout"
	"github.com/aura-webinar/storefront/internal/coupons"
	"github.com/aura-webinar/storefront/internal/emaillogs"
	"github.com/aura-webinar/storefront/internal/invoices"
	"github.com/aura-webinar/storefront/internal/leads"
	"github.com/aura-webinar/storefront/internal/notifications"
	"github.com/aura-webinar/storefront/internal/orders"
	"github.com/aura-webinar/storefront/internal/payments"
	"github.com/aura-webinar/storefront/internal/payments/gateway"
	"github.com/aura-webinar/storefront/internal/purchases"
	"github.com/aura-webinar/storefront/internal/registrations"
	"github.com/aura-webinar/storefront/internal/services"
	"github.com/aura-webinar/storefront/internal/settings"
	"github.com/aura-webinar/storefront/internal/webinars"
	"github.com/aura-webinar/storefront/pkg/database"
	"github.com/aura-webinar/storefront/pkg/events"
	"github.com/aura-webinar/storefront/pkg/queue"
	"github.com/aura-webinar/storefront/pkg/redis"
	"github.com/aura-webinar/storefront/pkg/storage"
)

func main() {
	logger := newLogger()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}

	ctx := context.Background()
	pool, err := database.NewPostgresPool(ctx, cfg.Database.DSN(), database.PoolOptions{
		MaxConns:        cfg.Database.MaxConns,
		MinConns:        cfg.Database.MinConns,
		MaxConnLifetime: cfg.Database.MaxConnLifetime,
	}, logger)
	if err != nil {
		logger.Fatal("database", zap.Error(err))
	}
	defer pool.Close()

	if cfg.Database.AutoMigrate {
		if err := database.Migrate(ctx, pool, logger); err != nil {
			logger.Fatal("migrate", zap.Error(err))
		}
	}

	rdb, err := redis.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, logger)
	if err != nil {
		logger.Fatal("redis", zap.Error(err))
	}
	defer rdb.Close()

	var s3Client *storage.S3
	if cfg.AWS.UploadsBucket != "" || cfg.AWS.InvoicesBucket != "" {
		s3Client, err = storage.NewS3(ctx, storage.S3Config{
			Region:               cfg.AWS.Region,
			AccessKeyID:          cfg.AWS.AccessKeyID,
			SecretAccessKey:      cfg.AWS.SecretAccessKey,
			UploadsBucket:        cfg.AWS.UploadsBucket,
			InvoicesBucket:       cfg.AWS.InvoicesBucket,
			PresignExpireMinutes: cfg.AWS.PresignExpireMinutes,
		}, logger)
		if err != nil {
			logger.Warn("s3 disabled", zap.Error(err))
			s3Client = nil
		}
	}

	publisher := events.New(cfg.Kafka.Brokers, cfg.Kafka.Topic, logger)
	defer publisher.Close()

	jobQueue := queue.NewQueue(rdb.Client, logger)
	mailer := notifications.NewDispatcher(jobQueue, logger)
	jwtService := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.ExpireHours)

	userRepo := auth.NewRepository(pool)
	webinarRepo := webinars.NewRepository(pool)
	serviceRepo := services.NewRepository(pool)
	couponRepo := coupons.NewRepository(pool)
	registrationRepo := registrations.NewRepository(pool)
	purchaseRepo := purchases.NewRepository(pool)
	orderRepo := orders.NewRepository(pool)

	couponSvc := coupons.NewService(couponRepo, logger)
	cashfree := gateway.NewCashfreeClient(gateway.Config{
		AppID:      cfg.Payment.AppID,
		SecretKey:  cfg.Payment.SecretKey,
		APIVersion: cfg.Payment.APIVersion,
		BaseURL:    cfg.Payment.BaseURL,
		Timeout:    cfg.Payment.Timeout,
	})
	reconciler := payments.NewReconciler(payments.Deps{
		Orders:   orderRepo,
		Gateway:  cashfree,
		Webinars: webinarRepo,
		Services: serviceRepo,
		Coupons:  couponSvc,
		Mailer:   mailer,
		Events:   publisher,
		Currency: cfg.App.Currency,
		Logger:   logger,
	})
	checkoutSvc := checkout.NewService(checkout.Deps{
		Webinars:      webinarRepo,
		Services:      serviceRepo,
		Registrations: registrationRepo,
		Purchases:     purchaseRepo,
		Orders:        orderRepo,
		Coupons:       couponSvc,
		Gateway:       cashfree,
		Fulfiller:     reconciler,
		Currency:      cfg.App.Currency,
		ReturnURL:     cfg.Payment.ReturnURL,
		NotifyURL:     cfg.Payment.NotifyURL,
		Logger:        logger,
	})

	var archive invoices.Archive
	if s3Client != nil && cfg.AWS.InvoicesBucket != "" {
		archive = s3Client
	}
	invoiceSvc := invoices.NewService(orderRepo, archive, invoices.Config{
		Prefix:   cfg.App.InvoicePrefix,
		Currency: cfg.App.Currency,
		Seller: invoices.Seller{
			Name:    cfg.App.CompanyName,
			Address: cfg.App.CompanyAddr,
			Email:   cfg.App.SupportEmail,
		},
	}, logger)

	adminDeps := admin.Deps{
		Webinars:    webinarRepo,
		Registrants: registrationRepo,
		Mailer:      mailer,
		Users:       userRepo,
		Logger:      logger,
	}
	if s3Client != nil && cfg.AWS.UploadsBucket != "" {
		adminDeps.Uploads = s3Client
	}

	h := handlers{
		auth:          auth.NewHandler(userRepo, jwtService, mailer, cfg.App.BaseURL+"/reset-password", cfg.Server.CookieSecure, logger),
		webinars:      webinars.NewHandler(webinarRepo, logger),
		services:      services.NewHandler(serviceRepo, logger),
		coupons:       coupons.NewHandler(couponSvc, couponRepo, logger),
		checkout:      checkout.NewHandler(checkoutSvc, logger),
		payments:      payments.NewHandler(reconciler, cfg.Payment.SecretKey, cfg.Payment.IsProduction(), logger),
		registrations: registrations.NewHandler(registrationRepo, logger),
		purchases:     purchases.NewHandler(purchaseRepo, logger),
		invoices:      invoices.NewHandler(invoiceSvc, logger),
		emailLogs:     emaillogs.NewHandler(emaillogs.NewRepository(pool), logger),
		leads:         leads.NewHandler(leads.NewRepository(pool), mailer, logger),
		settings:      settings.NewHandler(settings.NewRepository(pool), logger),
		analytics:     analytics.NewHandler(analytics.NewRepository(pool), cfg.App.Currency, logger),
		admin:         admin.NewHandler(adminDeps),
	}
	router := newRouter(cfg, logger, jwtService, rdb, h)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		logger.Info("server listening", zap.String("port", cfg.Server.Port),
			zap.String("payment_env", cfg.Payment.Env), zap.Bool("events", len(cfg.Kafka.Brokers) > 0))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}
	logger.Info("server stopped")
}

func newLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}
