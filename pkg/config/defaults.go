package config

import "time"

const (
	DefaultMongoURI          = "mongodb://localhost:27017"
	DefaultMongoDatabaseName = "marea"
	DefaultMongoConnTimeout  = 10 * time.Second

	DefaultPort = "8080"

	// Bookings starting a week or more out get a day to pay or sign; anything
	// nearer gets an hour.
	DefaultHoldFarThresholdDays = 7
	DefaultHoldFarDuration      = 24 * time.Hour
	DefaultHoldNearDuration     = 1 * time.Hour

	DefaultMaxProvisionCells = 500

	CommissionBasisBookingDays  = "booking_days"
	CommissionBasisItemDuration = "item_duration"
	DefaultCommissionBasis      = CommissionBasisBookingDays

	DefaultStripeAPIBase = "https://api.stripe.com"

	DefaultKafkaEnabled = false
	DefaultKafkaTopic   = "marea.bookings"

	DefaultRateLimitRequests = 10
	DefaultRateLimitWindow   = 1 * time.Minute

	DefaultRequestTimeout = 30 * time.Second
	DefaultMaxRequestSize = 1 * 1024 * 1024 // 1MB

	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 15 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 30 * time.Second

	DefaultPaginationLimit = 100

	DefaultLogLevel = "info"
)
