package config

const (
	EnvMongoURI          = "MONGO_URI"
	EnvMongoDatabaseName = "MONGO_DATABASE_NAME"
	EnvMongoConnTimeout  = "MONGO_CONN_TIMEOUT"

	EnvPort     = "PORT"
	EnvLogLevel = "LOG_LEVEL"

	EnvSweepSecret = "SWEEP_SECRET"

	EnvHoldFarThresholdDays = "HOLD_FAR_THRESHOLD_DAYS"
	EnvHoldFarDuration      = "HOLD_FAR_DURATION"
	EnvHoldNearDuration     = "HOLD_NEAR_DURATION"

	EnvMaxProvisionCells = "MAX_PROVISION_CELLS"

	EnvCommissionBasis = "COMMISSION_BASIS"

	EnvStripeAPIBase = "STRIPE_API_BASE"
	EnvStripeAPIKey  = "STRIPE_API_KEY"

	EnvKafkaEnabled = "KAFKA_ENABLED"
	EnvKafkaTopic   = "KAFKA_TOPIC"

	EnvRateLimitRequests = "RATE_LIMIT_REQUESTS"
	EnvRateLimitWindow   = "RATE_LIMIT_WINDOW"

	EnvRequestTimeout = "REQUEST_TIMEOUT"
	EnvMaxRequestSize = "MAX_REQUEST_SIZE"

	EnvReadTimeout     = "READ_TIMEOUT"
	EnvWriteTimeout    = "WRITE_TIMEOUT"
	EnvIdleTimeout     = "IDLE_TIMEOUT"
	EnvShutdownTimeout = "SHUTDOWN_TIMEOUT"
)
