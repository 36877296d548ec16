package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"marea/pkg/config"
	mongotx "marea/pkg/db/mongo"
	"marea/pkg/model"
)

const (
	CollectionName = "Stock_cells"
)

type mongoStockRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
	txManager  mongotx.TransactionManager
}

type StockRepository interface {
	// FindCell returns the cell for (day, product), or a zero-valued cell if
	// it was never written. Never-written cells behave as available=0.
	FindCell(ctx context.Context, day time.Time, productID string) (*model.StockCell, error)

	// IncrementReserved atomically adds delta to the cell's reserved count,
	// creating the cell lazily. Reservation/release callers must invoke it
	// inside a transaction; it is never a standalone write on those paths.
	IncrementReserved(ctx context.Context, day time.Time, productID string, delta int, actor string) error

	// SetAvailable overwrites the cell's capacity. Staff edits do not
	// coordinate with reserved; setting capacity below current reservations
	// is tolerated.
	SetAvailable(ctx context.Context, day time.Time, productID string, value int, actor string) error

	FindRange(ctx context.Context, from, to time.Time, productIDs []string) ([]*model.StockCell, error)

	ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error
}

func NewMongoStockRepository(cfg *config.Config) StockRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoStockRepository{
		cfg:        cfg,
		collection: db.Collection(CollectionName),
		txManager:  mongotx.NewTransactionManager(cfg.Client.Mongo),
	}
}

// withTimeout wraps the context with a timeout unless already inside a
// transaction, where wrapping the SessionContext would break transaction
// semantics.
func (r *mongoStockRepository) withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if _, ok := ctx.(mongo.SessionContext); ok {
		return ctx, func() {}
	}

	deadline, hasDeadline := ctx.Deadline()
	if !hasDeadline {
		return context.WithTimeout(ctx, timeout)
	}

	remaining := time.Until(deadline)
	if remaining < timeout {
		return context.WithTimeout(ctx, remaining)
	}

	return context.WithTimeout(ctx, timeout)
}

func (r *mongoStockRepository) FindCell(ctx context.Context, day time.Time, productID string) (*model.StockCell, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	id := model.StockCellID(day, productID)

	var cell model.StockCell
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&cell)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return &model.StockCell{
				ID:        id,
				Date:      model.Midnight(day).Format(model.DayFormat),
				ProductID: productID,
			}, nil
		}
		return nil, fmt.Errorf("failed to read stock cell %s: %w", id, err)
	}

	return &cell, nil
}

func (r *mongoStockRepository) IncrementReserved(ctx context.Context, day time.Time, productID string, delta int, actor string) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	id := model.StockCellID(day, productID)

	update := bson.M{
		"$inc": bson.M{"reserved": delta},
		"$set": bson.M{
			"updated_by": actor,
			"updated_at": time.Now().UTC(),
		},
		"$setOnInsert": bson.M{
			"date":       model.Midnight(day).Format(model.DayFormat),
			"product_id": productID,
			"available":  0,
		},
	}

	_, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, update, options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to adjust reserved on stock cell %s: %w", id, err)
	}

	return nil
}

func (r *mongoStockRepository) SetAvailable(ctx context.Context, day time.Time, productID string, value int, actor string) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	id := model.StockCellID(day, productID)

	update := bson.M{
		"$set": bson.M{
			"available":  value,
			"updated_by": actor,
			"updated_at": time.Now().UTC(),
		},
		"$setOnInsert": bson.M{
			"date":       model.Midnight(day).Format(model.DayFormat),
			"product_id": productID,
			"reserved":   0,
		},
	}

	_, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, update, options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to set capacity on stock cell %s: %w", id, err)
	}

	return nil
}

func (r *mongoStockRepository) FindRange(ctx context.Context, from, to time.Time, productIDs []string) ([]*model.StockCell, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	filter := bson.M{
		"date": bson.M{
			"$gte": model.Midnight(from).Format(model.DayFormat),
			"$lte": model.Midnight(to).Format(model.DayFormat),
		},
	}
	if len(productIDs) > 0 {
		filter["product_id"] = bson.M{"$in": productIDs}
	}

	opts := options.Find().SetSort(bson.D{{Key: "date", Value: 1}, {Key: "product_id", Value: 1}})

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query stock cells: %w", err)
	}
	defer cursor.Close(ctx)

	var cells []*model.StockCell
	if err = cursor.All(ctx, &cells); err != nil {
		return nil, fmt.Errorf("failed to decode stock cells: %w", err)
	}

	return cells, nil
}

func (r *mongoStockRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return r.txManager.ExecuteTransaction(ctx, fn)
}
