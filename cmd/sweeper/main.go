package main

import (
	"context"
	"time"

	bookingrepo "marea/internal/bookings/repository"
	bookingservice "marea/internal/bookings/service"
	"marea/internal/bookings/validator"
	"marea/internal/events"
	"marea/internal/payments"
	productrepo "marea/internal/products/repository"
	stockrepo "marea/internal/stock/repository"
	"marea/pkg/config"
)

// One-shot expiry sweep, meant to run from cron or a scheduler job.
const JobName = "sweeper"

func main() {
	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)
	defer cancel()

	cfg := config.Load(JobName)
	cfg.SetMongo()
	defer cfg.GracefulShutdown()

	cfg.Log.Info("Starting expiry sweep job")

	publisher, err := events.New(cfg, JobName)
	if err != nil {
		cfg.Log.Fatal("Failed to initialize event publisher", "error", err)
	}
	defer func() {
		if err := publisher.Close(); err != nil {
			cfg.Log.Error("Failed to close event publisher", "error", err)
		}
	}()

	bookingService := bookingservice.NewBookingService(
		bookingrepo.NewMongoBookingRepository(cfg),
		bookingrepo.NewMongoLinkRepository(cfg),
		stockrepo.NewMongoStockRepository(cfg),
		productrepo.NewMongoProductRepository(cfg),
		validator.NewBookingValidator(cfg.Log),
		payments.NewStripeGateway(cfg),
		publisher,
		cfg,
	)

	result, err := bookingService.SweepExpired(ctx)
	if err != nil {
		cfg.Log.Fatal("Expiry sweep failed", "error", err)
	}

	cfg.Log.Info("Expiry sweep finished",
		"checked", result.Checked,
		"expired", result.Expired,
		"released", result.Released,
	)
}
