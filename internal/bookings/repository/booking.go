package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	bookingserrors "marea/internal/bookings/errors"
	"marea/pkg/config"
	mongotx "marea/pkg/db/mongo"
	"marea/pkg/model"
)

const (
	CollectionName = "Bookings"
)

type mongoBookingRepository struct {
	cfg        *config.Config
	db         *mongo.Database
	collection *mongo.Collection
	txManager  mongotx.TransactionManager
}

type BookingRepository interface {
	Create(ctx context.Context, booking *model.Booking) error
	FindByID(ctx context.Context, id string) (*model.Booking, error)
	FindByAccessToken(ctx context.Context, token string) (*model.Booking, error)
	FindAll(ctx context.Context, limit int, offset int64) ([]*model.Booking, error)
	FindByPartner(ctx context.Context, partnerID string, limit int, offset int64) ([]*model.Booking, error)
	Count(ctx context.Context) (int64, error)
	CountByPartner(ctx context.Context, partnerID string) (int64, error)

	// FindExpiredCandidates returns pending bookings whose hold lapsed before
	// now and which have not been paid, signed or already expired.
	FindExpiredCandidates(ctx context.Context, now time.Time) ([]*model.Booking, error)

	MarkExpired(ctx context.Context, id string) error
	MarkStockReleased(ctx context.Context, id string, actor string, at time.Time) error
	SetPayment(ctx context.Context, id string, method, reference string, at time.Time) error
	SetSignature(ctx context.Context, id string, signatureData string, termsAccepted bool, at time.Time) error
	SetCancelled(ctx context.Context, id string, reason string) error
	SetRefund(ctx context.Context, id string, amount float64, method, reference, reason string, at time.Time) error
	IncrementCommissionPaid(ctx context.Context, id string, amount float64) error
	Delete(ctx context.Context, id string) error

	ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error
}

func NewMongoBookingRepository(cfg *config.Config) BookingRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoBookingRepository{
		cfg:        cfg,
		db:         db,
		collection: db.Collection(CollectionName),
		txManager:  mongotx.NewTransactionManager(cfg.Client.Mongo),
	}
}

// withTimeout wraps the context with a timeout if not already in a transaction.
// When inside a transaction (SessionContext), returns the original context
// unchanged with a no-op cancel function, as we cannot wrap SessionContext
// without breaking transaction semantics.
func (r *mongoBookingRepository) withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
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

func (r *mongoBookingRepository) Create(ctx context.Context, booking *model.Booking) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	now := time.Now().UTC().Truncate(time.Millisecond)
	booking.CreatedAt = now
	booking.UpdatedAt = now

	result, err := r.collection.InsertOne(ctx, booking)
	if err != nil {
		return fmt.Errorf("failed to create booking: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		booking.ID = oid.Hex()
	}
	return nil
}

func (r *mongoBookingRepository) FindByID(ctx context.Context, id string) (*model.Booking, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", bookingserrors.ErrInvalidID, id)
	}

	var booking model.Booking
	err = r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&booking)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, bookingserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find booking: %w", err)
	}

	return &booking, nil
}

func (r *mongoBookingRepository) FindByAccessToken(ctx context.Context, token string) (*model.Booking, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	var booking model.Booking
	err := r.collection.FindOne(ctx, bson.M{"access_token": token}).Decode(&booking)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, bookingserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find booking by access token: %w", err)
	}

	return &booking, nil
}

func (r *mongoBookingRepository) FindAll(ctx context.Context, limit int, offset int64) ([]*model.Booking, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(int64(limit)).
		SetSkip(offset)

	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find bookings: %w", err)
	}
	defer cursor.Close(ctx)

	var bookings []*model.Booking
	if err = cursor.All(ctx, &bookings); err != nil {
		return nil, fmt.Errorf("failed to decode bookings: %w", err)
	}

	return bookings, nil
}

func (r *mongoBookingRepository) FindByPartner(ctx context.Context, partnerID string, limit int, offset int64) ([]*model.Booking, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(int64(limit)).
		SetSkip(offset)

	cursor, err := r.collection.Find(ctx, bson.M{"partner_id": partnerID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find bookings by partner: %w", err)
	}
	defer cursor.Close(ctx)

	var bookings []*model.Booking
	if err = cursor.All(ctx, &bookings); err != nil {
		return nil, fmt.Errorf("failed to decode bookings: %w", err)
	}

	return bookings, nil
}

func (r *mongoBookingRepository) Count(ctx context.Context) (int64, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("failed to count bookings: %w", err)
	}

	return count, nil
}

func (r *mongoBookingRepository) CountByPartner(ctx context.Context, partnerID string) (int64, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, bson.M{"partner_id": partnerID})
	if err != nil {
		return 0, fmt.Errorf("failed to count bookings by partner: %w", err)
	}

	return count, nil
}

func (r *mongoBookingRepository) FindExpiredCandidates(ctx context.Context, now time.Time) ([]*model.Booking, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	filter := bson.M{
		"status":          model.StatusPending,
		"expired":         false,
		"paid":            false,
		"signed":          false,
		"hold_expires_at": bson.M{"$ne": nil, "$lte": now},
	}

	opts := options.Find().SetSort(bson.D{{Key: "hold_expires_at", Value: 1}})

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find expired candidates: %w", err)
	}
	defer cursor.Close(ctx)

	var bookings []*model.Booking
	if err = cursor.All(ctx, &bookings); err != nil {
		return nil, fmt.Errorf("failed to decode expired candidates: %w", err)
	}

	return bookings, nil
}

func (r *mongoBookingRepository) MarkExpired(ctx context.Context, id string) error {
	return r.updateByID(ctx, id, bson.M{
		"status":  model.StatusExpired,
		"expired": true,
	})
}

func (r *mongoBookingRepository) MarkStockReleased(ctx context.Context, id string, actor string, at time.Time) error {
	return r.updateByID(ctx, id, bson.M{
		"stock_released":    true,
		"stock_released_at": at,
		"stock_released_by": actor,
	})
}

func (r *mongoBookingRepository) SetPayment(ctx context.Context, id string, method, reference string, at time.Time) error {
	return r.updateByID(ctx, id, bson.M{
		"status":            model.StatusConfirmed,
		"paid":              true,
		"payment_method":    method,
		"payment_reference": reference,
		"paid_at":           at,
	})
}

func (r *mongoBookingRepository) SetSignature(ctx context.Context, id string, signatureData string, termsAccepted bool, at time.Time) error {
	return r.updateByID(ctx, id, bson.M{
		"signed":         true,
		"signature_data": signatureData,
		"terms_accepted": termsAccepted,
		"signed_at":      at,
	})
}

func (r *mongoBookingRepository) SetCancelled(ctx context.Context, id string, reason string) error {
	return r.updateByID(ctx, id, bson.M{
		"status":        model.StatusCancelled,
		"cancel_reason": reason,
	})
}

func (r *mongoBookingRepository) SetRefund(ctx context.Context, id string, amount float64, method, reference, reason string, at time.Time) error {
	return r.updateByID(ctx, id, bson.M{
		"refunded":         true,
		"refund_amount":    amount,
		"refund_method":    method,
		"refund_reference": reference,
		"refund_reason":    reason,
		"refunded_at":      at,
	})
}

func (r *mongoBookingRepository) IncrementCommissionPaid(ctx context.Context, id string, amount float64) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", bookingserrors.ErrInvalidID, id)
	}

	update := bson.M{
		"$inc": bson.M{"commission_paid": amount},
		"$set": bson.M{"updated_at": time.Now().UTC()},
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": objectID}, update)
	if err != nil {
		return fmt.Errorf("failed to increment commission paid: %w", err)
	}
	if result.MatchedCount == 0 {
		return bookingserrors.ErrNotFound
	}

	return nil
}

func (r *mongoBookingRepository) Delete(ctx context.Context, id string) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", bookingserrors.ErrInvalidID, id)
	}

	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": objectID})
	if err != nil {
		return fmt.Errorf("failed to delete booking: %w", err)
	}
	if result.DeletedCount == 0 {
		return bookingserrors.ErrNotFound
	}

	return nil
}

func (r *mongoBookingRepository) updateByID(ctx context.Context, id string, fields bson.M) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", bookingserrors.ErrInvalidID, id)
	}

	fields["updated_at"] = time.Now().UTC()

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": objectID}, bson.M{"$set": fields})
	if err != nil {
		return fmt.Errorf("failed to update booking: %w", err)
	}
	if result.MatchedCount == 0 {
		return bookingserrors.ErrNotFound
	}

	return nil
}

func (r *mongoBookingRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return r.txManager.ExecuteTransaction(ctx, fn)
}
