package main

import (
	bookinghandler "marea/internal/bookings/handler"
	bookingrepo "marea/internal/bookings/repository"
	bookingservice "marea/internal/bookings/service"
	"marea/internal/bookings/validator"
	commissionhandler "marea/internal/commissions/handler"
	commissionrepo "marea/internal/commissions/repository"
	commissionservice "marea/internal/commissions/service"
	"marea/internal/events"
	"marea/internal/payments"
	producthandler "marea/internal/products/handler"
	productrepo "marea/internal/products/repository"
	productservice "marea/internal/products/service"
	stockhandler "marea/internal/stock/handler"
	stockrepo "marea/internal/stock/repository"
	stockservice "marea/internal/stock/service"
	"marea/pkg/app"
	"marea/pkg/config"
	"marea/pkg/contracts"
)

const ServiceName = "rentals"

func main() {
	cfg := config.Load(ServiceName)
	cfg.SetMongo()

	cfg.Log.Info("Starting Rentals service")

	publisher, err := events.New(cfg, ServiceName)
	if err != nil {
		cfg.Log.Fatal("Failed to initialize event publisher", "error", err)
	}
	defer func() {
		if err := publisher.Close(); err != nil {
			cfg.Log.Error("Failed to close event publisher", "error", err)
		}
	}()

	appHandlers, sweepHandler := initHandlers(cfg, publisher)

	serverApp := app.NewApplication(cfg)
	serverApp.SetApp(appHandlers, sweepHandler)
	serverApp.Run()
}

func initHandlers(cfg *config.Config, publisher events.Publisher) ([]contracts.Handler, contracts.Handler) {
	bookingValidator := validator.NewBookingValidator(cfg.Log)

	bookingRepo := bookingrepo.NewMongoBookingRepository(cfg)
	linkRepo := bookingrepo.NewMongoLinkRepository(cfg)
	stockRepo := stockrepo.NewMongoStockRepository(cfg)
	productRepo := productrepo.NewMongoProductRepository(cfg)
	paymentRepo := commissionrepo.NewMongoPaymentRepository(cfg)

	gateway := payments.NewStripeGateway(cfg)

	bookingService := bookingservice.NewBookingService(
		bookingRepo,
		linkRepo,
		stockRepo,
		productRepo,
		bookingValidator,
		gateway,
		publisher,
		cfg,
	)
	linkService := bookingservice.NewLinkService(linkRepo, bookingValidator, cfg)
	stockService := stockservice.NewStockService(stockRepo, publisher, cfg)
	productService := productservice.NewProductService(productRepo, cfg)
	commissionService := commissionservice.NewCommissionService(paymentRepo, bookingRepo, cfg)

	cfg.Log.Info("Rentals services initialized", "database", cfg.MongoDatabaseName)

	appHandlers := []contracts.Handler{
		bookinghandler.NewBookingHandler(bookingService, linkService, cfg.Log),
		bookinghandler.NewPublicHandler(bookingService, linkService, cfg.Log),
		stockhandler.NewStockHandler(stockService, cfg.Log),
		producthandler.NewProductHandler(productService, cfg.Log),
		commissionhandler.NewCommissionHandler(commissionService, cfg.Log),
	}
	sweepHandler := bookinghandler.NewSweepHandler(bookingService, cfg.Log)

	return appHandlers, sweepHandler
}
