package repository

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"marea/pkg/config"
	mongotx "marea/pkg/db/mongo"
	"marea/pkg/model"
)

const (
	CollectionName = "Commission_payments"
)

type mongoPaymentRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
	txManager  mongotx.TransactionManager
}

type PaymentRepository interface {
	Create(ctx context.Context, payment *model.CommissionPayment) error
	FindByPartner(ctx context.Context, partnerID string, limit int, offset int64) ([]*model.CommissionPayment, error)
	CountByPartner(ctx context.Context, partnerID string) (int64, error)
	ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error
}

func NewMongoPaymentRepository(cfg *config.Config) PaymentRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoPaymentRepository{
		cfg:        cfg,
		collection: db.Collection(CollectionName),
		txManager:  mongotx.NewTransactionManager(cfg.Client.Mongo),
	}
}

func (r *mongoPaymentRepository) withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if _, ok := ctx.(mongo.SessionContext); ok {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, timeout)
}

func (r *mongoPaymentRepository) Create(ctx context.Context, payment *model.CommissionPayment) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	payment.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)

	result, err := r.collection.InsertOne(ctx, payment)
	if err != nil {
		return fmt.Errorf("failed to create commission payment: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		payment.ID = oid.Hex()
	}
	return nil
}

func (r *mongoPaymentRepository) FindByPartner(ctx context.Context, partnerID string, limit int, offset int64) ([]*model.CommissionPayment, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(int64(limit)).
		SetSkip(offset)

	cursor, err := r.collection.Find(ctx, bson.M{"partner_id": partnerID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find commission payments: %w", err)
	}
	defer cursor.Close(ctx)

	var payments []*model.CommissionPayment
	if err = cursor.All(ctx, &payments); err != nil {
		return nil, fmt.Errorf("failed to decode commission payments: %w", err)
	}

	return payments, nil
}

func (r *mongoPaymentRepository) CountByPartner(ctx context.Context, partnerID string) (int64, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, bson.M{"partner_id": partnerID})
	if err != nil {
		return 0, fmt.Errorf("failed to count commission payments: %w", err)
	}

	return count, nil
}

func (r *mongoPaymentRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return r.txManager.ExecuteTransaction(ctx, fn)
}
