package config

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"time"

	"marea/pkg/client"
	"marea/pkg/logger"
)

type Config struct {
	MongoURI          string
	MongoDatabaseName string
	MongoConnTimeout  time.Duration

	Port string

	// SweepSecret guards the scheduler-facing sweep endpoint. When empty the
	// endpoint is disabled (the one-shot sweeper binary still works).
	SweepSecret string

	// Hold policy: bookings starting HoldFarThresholdDays or more in the
	// future get HoldFarDuration to pay or sign, everything nearer gets
	// HoldNearDuration.
	HoldFarThresholdDays int
	HoldFarDuration      time.Duration
	HoldNearDuration     time.Duration

	// MaxProvisionCells caps the number of (day x product) cells one bulk
	// provisioning request may touch. Requests above the cap fail fast
	// instead of being chunked silently.
	MaxProvisionCells int

	// CommissionBasis selects the commission formula: "booking_days" or
	// "item_duration".
	CommissionBasis string

	StripeAPIBase string
	StripeAPIKey  string

	KafkaEnabled bool
	KafkaTopic   string

	RateLimitRequests int
	RateLimitWindow   time.Duration

	RequestTimeout time.Duration
	MaxRequestSize int

	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	Log    *logger.Logger
	Client *client.Client
}

func Load(serviceName string) *Config {
	cfg := &Config{
		MongoURI:          getEnvStr(EnvMongoURI, DefaultMongoURI),
		MongoDatabaseName: getEnvStr(EnvMongoDatabaseName, DefaultMongoDatabaseName),
		MongoConnTimeout:  getEnvDuration(EnvMongoConnTimeout, DefaultMongoConnTimeout),

		Port: getEnvStr(EnvPort, DefaultPort),

		SweepSecret: getEnvStr(EnvSweepSecret, ""),

		HoldFarThresholdDays: getEnvNum(EnvHoldFarThresholdDays, DefaultHoldFarThresholdDays),
		HoldFarDuration:      getEnvDuration(EnvHoldFarDuration, DefaultHoldFarDuration),
		HoldNearDuration:     getEnvDuration(EnvHoldNearDuration, DefaultHoldNearDuration),

		MaxProvisionCells: getEnvNum(EnvMaxProvisionCells, DefaultMaxProvisionCells),

		CommissionBasis: getEnvStr(EnvCommissionBasis, DefaultCommissionBasis),

		StripeAPIBase: getEnvStr(EnvStripeAPIBase, DefaultStripeAPIBase),
		StripeAPIKey:  getEnvStr(EnvStripeAPIKey, ""),

		KafkaEnabled: getEnvBool(EnvKafkaEnabled, DefaultKafkaEnabled),
		KafkaTopic:   getEnvStr(EnvKafkaTopic, DefaultKafkaTopic),

		RateLimitRequests: getEnvNum(EnvRateLimitRequests, DefaultRateLimitRequests),
		RateLimitWindow:   getEnvDuration(EnvRateLimitWindow, DefaultRateLimitWindow),

		RequestTimeout: getEnvDuration(EnvRequestTimeout, DefaultRequestTimeout),
		MaxRequestSize: getEnvNum(EnvMaxRequestSize, DefaultMaxRequestSize),

		ReadTimeout:     getEnvDuration(EnvReadTimeout, DefaultReadTimeout),
		WriteTimeout:    getEnvDuration(EnvWriteTimeout, DefaultWriteTimeout),
		IdleTimeout:     getEnvDuration(EnvIdleTimeout, DefaultIdleTimeout),
		ShutdownTimeout: getEnvDuration(EnvShutdownTimeout, DefaultShutdownTimeout),

		Log: logger.New(logger.Config{
			Level:     getEnvStr(EnvLogLevel, DefaultLogLevel),
			Format:    logger.JSON,
			AddSource: true,
			Service:   serviceName,
		}),
		Client: client.NewClient(),
	}

	if err := cfg.Validate(); err != nil {
		cfg.Log.Fatal(err.Error())
	}
	cfg.LogConfiguration()
	return cfg
}

func (cfg *Config) SetMongo() {
	cfg.Client.SetMongo(cfg.Log, cfg.MongoURI, cfg.MongoConnTimeout)
}

func (cfg *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(cfg.Port); err != nil || port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("Port must be between 1 and 65535, got: %s", cfg.Port))
	}

	if cfg.MongoURI == "" {
		errors = append(errors, "MongoURI cannot be empty")
	} else if !regexp.MustCompile(`^mongodb(\+srv)?://`).MatchString(cfg.MongoURI) {
		errors = append(errors, fmt.Sprintf("MongoURI must start with 'mongodb://' or 'mongodb+srv://', got: %s", cfg.MongoURI))
	}

	if cfg.MongoDatabaseName == "" {
		errors = append(errors, "MongoDatabaseName cannot be empty")
	}

	if cfg.MongoConnTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("MongoConnTimeout must be positive, got: %s", cfg.MongoConnTimeout))
	}

	if cfg.HoldFarThresholdDays <= 0 {
		errors = append(errors, fmt.Sprintf("HoldFarThresholdDays must be positive, got: %d", cfg.HoldFarThresholdDays))
	}
	if cfg.HoldFarDuration <= 0 {
		errors = append(errors, fmt.Sprintf("HoldFarDuration must be positive, got: %s", cfg.HoldFarDuration))
	}
	if cfg.HoldNearDuration <= 0 {
		errors = append(errors, fmt.Sprintf("HoldNearDuration must be positive, got: %s", cfg.HoldNearDuration))
	}
	if cfg.HoldNearDuration > cfg.HoldFarDuration {
		errors = append(errors, fmt.Sprintf("HoldNearDuration (%s) must be <= HoldFarDuration (%s)", cfg.HoldNearDuration, cfg.HoldFarDuration))
	}

	if cfg.MaxProvisionCells <= 0 {
		errors = append(errors, fmt.Sprintf("MaxProvisionCells must be positive, got: %d", cfg.MaxProvisionCells))
	}

	if cfg.CommissionBasis != CommissionBasisBookingDays && cfg.CommissionBasis != CommissionBasisItemDuration {
		errors = append(errors, fmt.Sprintf("CommissionBasis must be %q or %q, got: %s",
			CommissionBasisBookingDays, CommissionBasisItemDuration, cfg.CommissionBasis))
	}

	if cfg.RateLimitRequests <= 0 {
		errors = append(errors, fmt.Sprintf("RateLimitRequests must be positive, got: %d", cfg.RateLimitRequests))
	}
	if cfg.RateLimitWindow <= 0 {
		errors = append(errors, fmt.Sprintf("RateLimitWindow must be positive, got: %s", cfg.RateLimitWindow))
	}
	if cfg.RequestTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("RequestTimeout must be positive, got: %s", cfg.RequestTimeout))
	}
	if cfg.MaxRequestSize <= 0 {
		errors = append(errors, fmt.Sprintf("MaxRequestSize must be positive, got: %d", cfg.MaxRequestSize))
	}
	if cfg.ReadTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("ReadTimeout must be positive, got: %s", cfg.ReadTimeout))
	}
	if cfg.WriteTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("WriteTimeout must be positive, got: %s", cfg.WriteTimeout))
	}
	if cfg.IdleTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("IdleTimeout must be positive, got: %s", cfg.IdleTimeout))
	}
	if cfg.ShutdownTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("ShutdownTimeout must be positive, got: %s", cfg.ShutdownTimeout))
	}

	if len(errors) > 0 {
		errMsg := "Configuration validation failed:\n"
		for i, err := range errors {
			errMsg += fmt.Sprintf("  %d. %s\n", i+1, err)
		}
		return fmt.Errorf("%s", errMsg)
	}

	return nil
}

func (cfg *Config) LogConfiguration() {
	cfg.Log.Info("Configuration loaded successfully",
		"mongo_uri", redactMongoURI(cfg.MongoURI),
		"mongo_database", cfg.MongoDatabaseName,
		"mongo_conn_timeout", cfg.MongoConnTimeout,
		"port", cfg.Port,
		"sweep_secret_set", cfg.SweepSecret != "",
		"hold_far_threshold_days", cfg.HoldFarThresholdDays,
		"hold_far_duration", cfg.HoldFarDuration,
		"hold_near_duration", cfg.HoldNearDuration,
		"max_provision_cells", cfg.MaxProvisionCells,
		"commission_basis", cfg.CommissionBasis,
		"stripe_api_base", cfg.StripeAPIBase,
		"stripe_key_set", cfg.StripeAPIKey != "",
		"kafka_enabled", cfg.KafkaEnabled,
		"kafka_topic", cfg.KafkaTopic,
		"rate_limit_requests", cfg.RateLimitRequests,
		"rate_limit_window", cfg.RateLimitWindow,
		"request_timeout", cfg.RequestTimeout,
		"max_request_size", cfg.MaxRequestSize,
		"read_timeout", cfg.ReadTimeout,
		"write_timeout", cfg.WriteTimeout,
		"idle_timeout", cfg.IdleTimeout,
		"shutdown_timeout", cfg.ShutdownTimeout,
	)
}

func redactMongoURI(uri string) string {
	credentialRegex := regexp.MustCompile(`(mongodb(\+srv)?://)[^:]+:[^@]+@`)
	return credentialRegex.ReplaceAllString(uri, "${1}***:***@")
}

func getEnvStr(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvNum(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}

func (cfg *Config) GracefulShutdown() {
	cfg.Client.GracefulShutdown()
}

func NormalizePaginationLimit(limit int) int {
	if limit <= 0 {
		limit = 10
	} else if limit > DefaultPaginationLimit {
		limit = DefaultPaginationLimit
	}
	return limit
}

func NormalizeOffset(offset int64) int64 {
	return max(0, offset)
}
