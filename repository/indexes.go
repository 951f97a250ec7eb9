package repository

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Indexes lists the indexes every collection needs, keyed by collection name.
func Indexes() map[string][]mongo.IndexModel {
	return map[string][]mongo.IndexModel{
		ProductsCollection: {
			{
				Keys:    bson.D{{Key: "name", Value: "text"}, {Key: "description", Value: "text"}},
				Options: options.Index().SetName("product_text"),
			},
			{Keys: bson.D{{Key: "category", Value: 1}, {Key: "price", Value: 1}}},
			{Keys: bson.D{{Key: "createdAt", Value: -1}}},
			{Keys: bson.D{{Key: "name", Value: 1}}, Options: options.Index().SetName("product_name")},
		},
		CartsCollection: {
			{
				Keys: bson.D{{Key: "user", Value: 1}},
				Options: options.Index().SetUnique(true).
					SetPartialFilterExpression(bson.M{"user": bson.M{"$exists": true}}),
			},
			{
				Keys: bson.D{{Key: "sessionId", Value: 1}},
				Options: options.Index().SetUnique(true).
					SetPartialFilterExpression(bson.M{"sessionId": bson.M{"$exists": true}}),
			},
		},
		OrdersCollection: {
			{Keys: bson.D{{Key: "orderNumber", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "user", Value: 1}, {Key: "createdAt", Value: -1}}},
			{Keys: bson.D{{Key: "user", Value: 1}, {Key: "items.product", Value: 1}}},
		},
		ReviewsCollection: {
			{
				Keys:    bson.D{{Key: "product", Value: 1}, {Key: "user", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
		},
		WishlistsCollection: {
			{Keys: bson.D{{Key: "user", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		UsersCollection: {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
			{
				Keys: bson.D{{Key: "verificationToken", Value: 1}},
				Options: options.Index().
					SetPartialFilterExpression(bson.M{"verificationToken": bson.M{"$exists": true}}),
			},
		},
	}
}

// EnsureIndexes creates any missing index. Existing indexes are left alone.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	for name, idx := range Indexes() {
		created, err := db.Collection(name).Indexes().CreateMany(ctx, idx)
		if err != nil {
			return fmt.Errorf("create indexes on %s: %w", name, err)
		}
		log.Debug().Str("collection", name).Strs("indexes", created).Msg("Indexes ensured")
	}
	return nil
}
