package events

import (
	"context"

	"marea/pkg/config"
	"marea/pkg/kafka"
	kafka_config "marea/pkg/kafka/config"
	kafka_middleware "marea/pkg/kafka/middleware"
	"marea/pkg/model"
)

// Booking lifecycle event types. One booking's events share a partition key
// (the booking ID), so consumers see them in order.
const (
	EventBookingCreated   = "booking.created"
	EventBookingConfirmed = "booking.confirmed"
	EventBookingSigned    = "booking.signed"
	EventBookingCancelled = "booking.cancelled"
	EventBookingExpired   = "booking.expired"
	EventBookingRefunded  = "booking.refunded"
	EventStockProvisioned = "stock.provisioned"
)

// Publisher emits lifecycle events. Publishing is best-effort: callers log
// failures and carry on, the store stays the source of truth.
type Publisher interface {
	BookingEvent(ctx context.Context, eventType string, booking *model.Booking) error
	StockProvisioned(ctx context.Context, req *model.ProvisionRequest, result *model.ProvisionResult, actor string) error
	Close() error
}

type kafkaPublisher struct {
	producer *kafka.Producer
	source   string
}

// NewKafkaPublisher wires a producer against the configured brokers. The
// returned publisher owns the producer and must be closed on shutdown.
func NewKafkaPublisher(cfg *config.Config, serviceName string) (Publisher, error) {
	kafkaCfg, err := kafka_config.Load()
	if err != nil {
		return nil, err
	}

	producer, err := kafka.NewProducer(kafkaCfg, cfg.KafkaTopic, "")
	if err != nil {
		return nil, err
	}
	producer.Use(kafka_middleware.LoggingProducerMiddleware(cfg.Log))

	return &kafkaPublisher{
		producer: producer,
		source:   serviceName,
	}, nil
}

func (p *kafkaPublisher) BookingEvent(ctx context.Context, eventType string, booking *model.Booking) error {
	msg := kafka.NewMessage().
		WithKey(booking.ID).
		WithValue(booking).
		WithEventType(eventType).
		WithSource(p.source).
		WithHeader(kafka.HeaderSchemaVersion, "1").
		Build()

	return p.producer.Publish(ctx, msg)
}

type stockProvisionedPayload struct {
	StartDate  string   `json:"start_date"`
	EndDate    string   `json:"end_date"`
	ProductIDs []string `json:"product_ids"`
	Available  int      `json:"available"`
	Attempted  int      `json:"attempted"`
	Succeeded  int      `json:"succeeded"`
	Actor      string   `json:"actor"`
}

func (p *kafkaPublisher) StockProvisioned(ctx context.Context, req *model.ProvisionRequest, result *model.ProvisionResult, actor string) error {
	msg := kafka.NewMessage().
		WithKey(req.StartDate + "_" + req.EndDate).
		WithValue(stockProvisionedPayload{
			StartDate:  req.StartDate,
			EndDate:    req.EndDate,
			ProductIDs: req.ProductIDs,
			Available:  req.Available,
			Attempted:  result.Attempted,
			Succeeded:  result.Succeeded,
			Actor:      actor,
		}).
		WithEventType(EventStockProvisioned).
		WithSource(p.source).
		WithHeader(kafka.HeaderSchemaVersion, "1").
		Build()

	return p.producer.Publish(ctx, msg)
}

func (p *kafkaPublisher) Close() error {
	return p.producer.Close()
}

// noopPublisher stands in when Kafka is disabled.
type noopPublisher struct{}

func NewNoopPublisher() Publisher {
	return noopPublisher{}
}

func (noopPublisher) BookingEvent(context.Context, string, *model.Booking) error {
	return nil
}

func (noopPublisher) StockProvisioned(context.Context, *model.ProvisionRequest, *model.ProvisionResult, string) error {
	return nil
}

func (noopPublisher) Close() error {
	return nil
}

// New selects the Kafka publisher or the no-op one based on configuration.
func New(cfg *config.Config, serviceName string) (Publisher, error) {
	if !cfg.KafkaEnabled {
		return NewNoopPublisher(), nil
	}
	return NewKafkaPublisher(cfg, serviceName)
}
