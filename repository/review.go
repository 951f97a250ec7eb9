package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"storefront/apperrors"
	"storefront/models"
)

const (
	reviewNotFound  = "Review not found"
	alreadyReviewed = "You have already reviewed this product"
)

type ReviewRepository struct {
	base
}

func NewReviewRepository(db *mongo.Database, timeout time.Duration) *ReviewRepository {
	return &ReviewRepository{base: newBase(db, ReviewsCollection, timeout)}
}

// FindByProduct returns the product's reviews, newest first.
func (r *ReviewRepository) FindByProduct(ctx context.Context, productID primitive.ObjectID) ([]models.Review, error) {
	ctx, cancel := r.ctx(ctx)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := r.coll.Find(ctx, bson.M{"product": productID}, opts)
	if err != nil {
		return nil, apperrors.Wrap(err, "find reviews")
	}
	reviews := []models.Review{}
	if err := cursor.All(ctx, &reviews); err != nil {
		return nil, apperrors.Wrap(err, "decode reviews")
	}
	return reviews, nil
}

func (r *ReviewRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Review, error) {
	ctx, cancel := r.ctx(ctx)
	defer cancel()

	var rev models.Review
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&rev); err != nil {
		return nil, mapErr(err, reviewNotFound, "find review")
	}
	return &rev, nil
}

// Exists reports whether the user already reviewed the product.
func (r *ReviewRepository) Exists(ctx context.Context, productID, userID primitive.ObjectID) (bool, error) {
	ctx, cancel := r.ctx(ctx)
	defer cancel()

	n, err := r.coll.CountDocuments(ctx, bson.M{"product": productID, "user": userID}, options.Count().SetLimit(1))
	if err != nil {
		return false, apperrors.Wrap(err, "check review")
	}
	return n > 0, nil
}

// Create inserts rev. The unique (product, user) index turns a racing
// duplicate into a Conflict.
func (r *ReviewRepository) Create(ctx context.Context, rev *models.Review) error {
	ctx, cancel := r.ctx(ctx)
	defer cancel()

	if rev.ID.IsZero() {
		rev.ID = primitive.NewObjectID()
	}
	_, err := r.coll.InsertOne(ctx, rev)
	if mongo.IsDuplicateKeyError(err) {
		return apperrors.Conflict(alreadyReviewed)
	}
	return mapErr(err, reviewNotFound, "create review")
}

func (r *ReviewRepository) Update(ctx context.Context, rev *models.Review) error {
	ctx, cancel := r.ctx(ctx)
	defer cancel()

	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": rev.ID}, bson.M{"$set": bson.M{
		"rating":    rev.Rating,
		"title":     rev.Title,
		"comment":   rev.Comment,
		"updatedAt": rev.UpdatedAt,
	}})
	if err != nil {
		return apperrors.Wrap(err, "update review")
	}
	if res.MatchedCount == 0 {
		return apperrors.NotFound(reviewNotFound)
	}
	return nil
}

func (r *ReviewRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	ctx, cancel := r.ctx(ctx)
	defer cancel()

	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return apperrors.Wrap(err, "delete review")
	}
	if res.DeletedCount == 0 {
		return apperrors.NotFound(reviewNotFound)
	}
	return nil
}

// Ratings returns every rating given to the product.
func (r *ReviewRepository) Ratings(ctx context.Context, productID primitive.ObjectID) ([]int, error) {
	ctx, cancel := r.ctx(ctx)
	defer cancel()

	opts := options.Find().SetProjection(bson.M{"rating": 1})
	cursor, err := r.coll.Find(ctx, bson.M{"product": productID}, opts)
	if err != nil {
		return nil, apperrors.Wrap(err, "find ratings")
	}
	var rows []struct {
		Rating int `bson:"rating"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, apperrors.Wrap(err, "decode ratings")
	}
	ratings := make([]int, 0, len(rows))
	for _, row := range rows {
		ratings = append(ratings, row.Rating)
	}
	return ratings, nil
}
