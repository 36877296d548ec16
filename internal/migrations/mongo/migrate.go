package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"marea/internal/migrations/mongo/validators"
)

var (
	BookingsIndexes = []mongo.IndexModel{
		// Sweep scan: pending bookings with a lapsed hold.
		{Keys: bson.D{
			{Key: "status", Value: 1},
			{Key: "hold_expires_at", Value: 1},
		}},
		{
			Keys:    bson.D{{Key: "access_token", Value: 1}},
			Options: options.Index().SetUnique(true).SetSparse(true),
		},
		{Keys: bson.D{
			{Key: "partner_id", Value: 1},
			{Key: "created_at", Value: -1},
		}},
		{Keys: bson.D{{Key: "created_at", Value: -1}}},
	}

	StockCellsIndexes = []mongo.IndexModel{
		{Keys: bson.D{
			{Key: "date", Value: 1},
			{Key: "product_id", Value: 1},
		}},
	}

	BookingLinksIndexes = []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "token", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{Keys: bson.D{{Key: "partner_id", Value: 1}}},
	}

	CommissionPaymentsIndexes = []mongo.IndexModel{
		{Keys: bson.D{
			{Key: "partner_id", Value: 1},
			{Key: "created_at", Value: -1},
		}},
	}

	ProductsIndexes = []mongo.IndexModel{
		{Keys: bson.D{{Key: "name", Value: 1}}},
	}
)

func RunMigration(ctx context.Context, client *mongo.Client, dbName string) error {
	db := client.Database(dbName)
	fmt.Printf("🚀 Running Marea Mongo migrations on database: %s\n", dbName)

	collections := map[string]struct {
		Indexes   []mongo.IndexModel
		Validator bson.M
	}{
		"Bookings": {
			Indexes:   BookingsIndexes,
			Validator: validators.BookingValidator,
		},
		"Stock_cells": {
			Indexes:   StockCellsIndexes,
			Validator: validators.StockCellValidator,
		},
		"Booking_links": {
			Indexes:   BookingLinksIndexes,
			Validator: validators.BookingLinkValidator,
		},
		"Commission_payments": {
			Indexes:   CommissionPaymentsIndexes,
			Validator: validators.CommissionPaymentValidator,
		},
		"Products": {
			Indexes:   ProductsIndexes,
			Validator: validators.ProductValidator,
		},
	}

	for name, def := range collections {
		if err := ensureCollection(ctx, db, name, def.Validator); err != nil {
			return fmt.Errorf("failed to ensure collection %s: %w", name, err)
		}
		if err := ensureIndexes(ctx, db, name, def.Indexes); err != nil {
			return fmt.Errorf("failed to ensure indexes for %s: %w", name, err)
		}
	}

	fmt.Println("✅ All migrations applied successfully.")
	return nil
}

func ensureCollection(ctx context.Context, db *mongo.Database, name string, validator bson.M) error {
	existing, err := db.ListCollectionNames(ctx, bson.D{{Key: "name", Value: name}})
	if err != nil {
		return err
	}

	if len(existing) == 0 {
		fmt.Printf("🆕 Creating collection: %s\n", name)
		opts := options.CreateCollection().SetValidator(validator)
		if err := db.CreateCollection(ctx, name, opts); err != nil {
			return fmt.Errorf("failed creating %s: %w", name, err)
		}
	} else {
		fmt.Printf("ℹ️ Collection %s already exists — updating validator if needed\n", name)
		command := bson.D{
			{Key: "collMod", Value: name},
			{Key: "validator", Value: validator},
		}
		if err := db.RunCommand(ctx, command).Err(); err != nil {
			fmt.Printf("⚠️ Warning: failed updating validator for %s: %v\n", name, err)
		}
	}

	return nil
}

func ensureIndexes(ctx context.Context, db *mongo.Database, name string, models []mongo.IndexModel) error {
	coll := db.Collection(name)
	_, err := coll.Indexes().CreateMany(ctx, models)
	if err != nil {
		return err
	}
	fmt.Printf("📚 Ensured indexes for %s\n", name)
	return nil
}
