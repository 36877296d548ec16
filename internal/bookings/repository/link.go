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
	"marea/pkg/model"
)

const (
	LinkCollectionName = "Booking_links"
)

type mongoLinkRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

type LinkRepository interface {
	Create(ctx context.Context, link *model.BookingLink) error
	FindByToken(ctx context.Context, token string) (*model.BookingLink, error)
	FindAll(ctx context.Context, limit int, offset int64) ([]*model.BookingLink, error)
	Count(ctx context.Context) (int64, error)
	SetActive(ctx context.Context, id string, active bool) error
	IncrementVisits(ctx context.Context, token string) error

	// RecordReservation counts a booking against the link and, for single-use
	// links, marks it used in the same atomic update. It fails when the link
	// is inactive or already used, so it must run inside the reservation
	// transaction to roll the booking back alongside it.
	RecordReservation(ctx context.Context, token string, singleUse bool) error
}

func NewMongoLinkRepository(cfg *config.Config) LinkRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoLinkRepository{
		cfg:        cfg,
		collection: db.Collection(LinkCollectionName),
	}
}

func (r *mongoLinkRepository) withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if _, ok := ctx.(mongo.SessionContext); ok {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, timeout)
}

func (r *mongoLinkRepository) Create(ctx context.Context, link *model.BookingLink) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	link.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)

	result, err := r.collection.InsertOne(ctx, link)
	if err != nil {
		return fmt.Errorf("failed to create booking link: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		link.ID = oid.Hex()
	}
	return nil
}

func (r *mongoLinkRepository) FindByToken(ctx context.Context, token string) (*model.BookingLink, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	var link model.BookingLink
	err := r.collection.FindOne(ctx, bson.M{"token": token}).Decode(&link)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, bookingserrors.ErrLinkNotFound
		}
		return nil, fmt.Errorf("failed to find booking link: %w", err)
	}

	return &link, nil
}

func (r *mongoLinkRepository) FindAll(ctx context.Context, limit int, offset int64) ([]*model.BookingLink, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(int64(limit)).
		SetSkip(offset)

	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find booking links: %w", err)
	}
	defer cursor.Close(ctx)

	var links []*model.BookingLink
	if err = cursor.All(ctx, &links); err != nil {
		return nil, fmt.Errorf("failed to decode booking links: %w", err)
	}

	return links, nil
}

func (r *mongoLinkRepository) Count(ctx context.Context) (int64, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("failed to count booking links: %w", err)
	}

	return count, nil
}

func (r *mongoLinkRepository) SetActive(ctx context.Context, id string, active bool) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", bookingserrors.ErrInvalidID, id)
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": objectID}, bson.M{"$set": bson.M{"active": active}})
	if err != nil {
		return fmt.Errorf("failed to update booking link: %w", err)
	}
	if result.MatchedCount == 0 {
		return bookingserrors.ErrLinkNotFound
	}

	return nil
}

func (r *mongoLinkRepository) IncrementVisits(ctx context.Context, token string) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	result, err := r.collection.UpdateOne(ctx, bson.M{"token": token}, bson.M{"$inc": bson.M{"visits": 1}})
	if err != nil {
		return fmt.Errorf("failed to count link visit: %w", err)
	}
	if result.MatchedCount == 0 {
		return bookingserrors.ErrLinkNotFound
	}

	return nil
}

func (r *mongoLinkRepository) RecordReservation(ctx context.Context, token string, singleUse bool) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	filter := bson.M{"token": token, "active": true}
	update := bson.M{"$inc": bson.M{"reservations_created": 1}}
	if singleUse {
		filter["used"] = false
		update["$set"] = bson.M{"used": true}
	}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to consume booking link: %w", err)
	}
	if result.MatchedCount == 0 {
		// Distinguish a spent link from a missing/deactivated one.
		link, findErr := r.FindByToken(ctx, token)
		if findErr != nil {
			return findErr
		}
		if !link.Active {
			return bookingserrors.ErrLinkInactive
		}
		if link.SingleUse && link.Used {
			return bookingserrors.ErrLinkUsed
		}
		return bookingserrors.ErrLinkNotFound
	}

	return nil
}
