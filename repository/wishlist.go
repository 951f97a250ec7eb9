package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"storefront/apperrors"
	"storefront/models"
)

const wishlistNotFound = "Wishlist not found"

type WishlistRepository struct {
	base
}

func NewWishlistRepository(db *mongo.Database, timeout time.Duration) *WishlistRepository {
	return &WishlistRepository{base: newBase(db, WishlistsCollection, timeout)}
}

func (r *WishlistRepository) FindByUser(ctx context.Context, userID primitive.ObjectID) (*models.Wishlist, error) {
	ctx, cancel := r.ctx(ctx)
	defer cancel()

	var w models.Wishlist
	if err := r.coll.FindOne(ctx, bson.M{"user": userID}).Decode(&w); err != nil {
		return nil, mapErr(err, wishlistNotFound, "find wishlist")
	}
	if w.Products == nil {
		w.Products = []models.WishlistItem{}
	}
	return &w, nil
}

func (r *WishlistRepository) Create(ctx context.Context, w *models.Wishlist) error {
	ctx, cancel := r.ctx(ctx)
	defer cancel()

	_, err := r.coll.InsertOne(ctx, w)
	return mapErr(err, wishlistNotFound, "wishlist")
}

func (r *WishlistRepository) Save(ctx context.Context, w *models.Wishlist) error {
	ctx, cancel := r.ctx(ctx)
	defer cancel()

	res, err := r.coll.ReplaceOne(ctx, bson.M{"_id": w.ID}, w)
	if err != nil {
		return mapErr(err, wishlistNotFound, "save wishlist")
	}
	if res.MatchedCount == 0 {
		return apperrors.NotFound(wishlistNotFound)
	}
	return nil
}
