// Package main recounts webinar seats from confirmed registrations. Run it
// from cron to repair drift in available_slots.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/aura-webinar/storefront/config"
	"github.com/aura-webinar/storefront/internal/models"
	"github.com/aura-webinar/storefront/internal/webinars"
	"github.com/aura-webinar/storefront/pkg/database"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var (
		webinarID string
		timeout   time.Duration
	)
	cmd := &cobra.Command{
		Use:          "resync",
		Short:        "Recount available_slots from completed and free registrations",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var id *uuid.UUID
			if webinarID != "" {
				parsed, err := uuid.Parse(webinarID)
				if err != nil {
					return fmt.Errorf("invalid --webinar: %w", err)
				}
				id = &parsed
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()
			return run(ctx, id)
		},
	}
	cmd.Flags().StringVarP(&webinarID, "webinar", "w", "", "recount a single webinar by id")
	cmd.Flags().DurationVarP(&timeout, "timeout", "t", time.Minute, "overall deadline")
	return cmd
}

func run(ctx context.Context, webinarID *uuid.UUID) error {
	logger := newLogger()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	pool, err := database.NewPostgresPool(ctx, cfg.Database.DSN(), database.PoolOptions{MaxConns: 2}, logger)
	if err != nil {
		return fmt.Errorf("database: %w", err)
	}
	defer pool.Close()

	repo := webinars.NewRepository(pool)
	var results []models.SlotResync
	if webinarID != nil {
		one, err := repo.ResyncOne(ctx, *webinarID)
		if err != nil {
			return fmt.Errorf("resync %s: %w", webinarID, err)
		}
		results = append(results, *one)
	} else {
		results, err = repo.ResyncSlots(ctx)
		if err != nil {
			return fmt.Errorf("resync: %w", err)
		}
	}

	changed := 0
	for _, r := range results {
		if !r.Changed() {
			continue
		}
		changed++
		logger.Info("slots corrected",
			zap.String("webinar_id", r.WebinarID.String()),
			zap.String("title", r.Title),
			zap.Int("previous", r.PreviousSlots),
			zap.Int("available", r.AvailableSlots),
			zap.Int("booked", r.Booked))
	}
	logger.Info("resync done", zap.Int("webinars", len(results)), zap.Int("changed", changed))
	return nil
}

func newLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}
