package services

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/apperrors"
	"storefront/models"
)

// ReviewInput holds review fields; nil fields are unchanged on update.
type ReviewInput struct {
	Rating  *int
	Title   *string
	Comment *string
}

func (in ReviewInput) validate(requireAll bool) error {
	if in.Rating == nil {
		if requireAll {
			return apperrors.InvalidInput("Rating is required")
		}
	} else if *in.Rating < models.MinRating || *in.Rating > models.MaxRating {
		return apperrors.InvalidInput("Rating must be between %d and %d", models.MinRating, models.MaxRating)
	}
	if in.Title != nil && utf8.RuneCountInString(strings.TrimSpace(*in.Title)) > models.MaxReviewTitleLength {
		return apperrors.InvalidInput("Title cannot exceed %d characters", models.MaxReviewTitleLength)
	}
	if requireAll && (in.Title == nil || strings.TrimSpace(*in.Title) == "") {
		return apperrors.InvalidInput("Title is required")
	}
	if in.Comment != nil && utf8.RuneCountInString(strings.TrimSpace(*in.Comment)) > models.MaxReviewCommentLength {
		return apperrors.InvalidInput("Comment cannot exceed %d characters", models.MaxReviewCommentLength)
	}
	if requireAll && (in.Comment == nil || strings.TrimSpace(*in.Comment) == "") {
		return apperrors.InvalidInput("Comment is required")
	}
	return nil
}

// ReviewService manages reviews and keeps product ratings in sync.
type ReviewService struct {
	reviews  ReviewStore
	products ProductStore
	orders   OrderStore
	now      Clock
}

func NewReviewService(reviews ReviewStore, products ProductStore, orders OrderStore) *ReviewService {
	return &ReviewService{reviews: reviews, products: products, orders: orders, now: utcNow}
}

func (s *ReviewService) List(ctx context.Context, productID primitive.ObjectID) ([]models.Review, error) {
	return s.reviews.FindByProduct(ctx, productID)
}

// Add creates the caller's review of a product. Verified is set when the
// caller has a shipped or delivered order containing the product.
func (s *ReviewService) Add(ctx context.Context, identity models.Identity, productID primitive.ObjectID, in ReviewInput) (*models.Review, error) {
	uid, err := requireUser(identity)
	if err != nil {
		return nil, err
	}
	if err := in.validate(true); err != nil {
		return nil, err
	}
	if _, err := s.products.FindByID(ctx, productID); err != nil {
		return nil, err
	}
	exists, err := s.reviews.Exists(ctx, productID, uid)
	if err != nil {
		return nil, fmt.Errorf("check review: %w", err)
	}
	if exists {
		return nil, apperrors.Conflict("You have already reviewed this product")
	}
	verified, err := s.orders.HasPurchased(ctx, uid, productID)
	if err != nil {
		return nil, fmt.Errorf("check purchase: %w", err)
	}

	now := s.now()
	review := &models.Review{
		Product:   productID,
		User:      uid,
		Rating:    *in.Rating,
		Title:     strings.TrimSpace(*in.Title),
		Comment:   strings.TrimSpace(*in.Comment),
		Verified:  verified,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.reviews.Create(ctx, review); err != nil {
		return nil, err
	}
	if err := s.recomputeRating(ctx, productID); err != nil {
		return nil, err
	}
	return review, nil
}

// Update changes the caller's own review.
func (s *ReviewService) Update(ctx context.Context, identity models.Identity, id primitive.ObjectID, in ReviewInput) (*models.Review, error) {
	if _, err := requireUser(identity); err != nil {
		return nil, err
	}
	if err := in.validate(false); err != nil {
		return nil, err
	}
	review, err := s.reviews.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !identity.Owns(review.User) {
		return nil, apperrors.Forbidden("Not authorized to update this review")
	}

	if in.Rating != nil {
		review.Rating = *in.Rating
	}
	if in.Title != nil {
		review.Title = strings.TrimSpace(*in.Title)
	}
	if in.Comment != nil {
		review.Comment = strings.TrimSpace(*in.Comment)
	}
	review.UpdatedAt = s.now()
	if err := s.reviews.Update(ctx, review); err != nil {
		return nil, err
	}
	if err := s.recomputeRating(ctx, review.Product); err != nil {
		return nil, err
	}
	return review, nil
}

// Delete removes a review. Owners and admins may delete.
func (s *ReviewService) Delete(ctx context.Context, identity models.Identity, id primitive.ObjectID) error {
	if _, err := requireUser(identity); err != nil {
		return err
	}
	review, err := s.reviews.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if !identity.Owns(review.User) && !identity.IsAdmin() {
		return apperrors.Forbidden("Not authorized to delete this review")
	}
	if err := s.reviews.Delete(ctx, id); err != nil {
		return err
	}
	return s.recomputeRating(ctx, review.Product)
}

// recomputeRating derives the product's rating from all of its reviews.
func (s *ReviewService) recomputeRating(ctx context.Context, productID primitive.ObjectID) error {
	ratings, err := s.reviews.Ratings(ctx, productID)
	if err != nil {
		return fmt.Errorf("load ratings: %w", err)
	}
	summary := models.SummarizeRatings(ratings)
	if err := s.products.SetRating(ctx, productID, summary); err != nil {
		return fmt.Errorf("set rating: %w", err)
	}
	log.Debug().
		Str("product_id", productID.Hex()).
		Float64("average", summary.Average).
		Int("count", summary.Count).
		Msg("Product rating recomputed")
	return nil
}
