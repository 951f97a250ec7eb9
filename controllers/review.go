package controllers

import (
	"context"
	"net/http"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/middleware"
	"storefront/models"
	"storefront/services"
)

// ReviewService is the review API used by ReviewController.
type ReviewService interface {
	List(ctx context.Context, productID primitive.ObjectID) ([]models.Review, error)
	Add(ctx context.Context, identity models.Identity, productID primitive.ObjectID, in services.ReviewInput) (*models.Review, error)
	Update(ctx context.Context, identity models.Identity, id primitive.ObjectID, in services.ReviewInput) (*models.Review, error)
	Delete(ctx context.Context, identity models.Identity, id primitive.ObjectID) error
}

type ReviewRequest struct {
	Rating  *int    `json:"rating"`
	Title   *string `json:"title"`
	Comment *string `json:"comment"`
}

func (req ReviewRequest) input() services.ReviewInput {
	return services.ReviewInput{Rating: req.Rating, Title: req.Title, Comment: req.Comment}
}

type ReviewController struct {
	reviews ReviewService
}

func NewReviewController(reviews ReviewService) *ReviewController {
	return &ReviewController{reviews: reviews}
}

// GetReviews lists the reviews of a product
func (rc *ReviewController) GetReviews(w http.ResponseWriter, r *http.Request) {
	productID, err := objectIDVar(r, "productId", "product")
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	reviews, err := rc.reviews.List(r.Context(), productID)
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	respondWithList(w, reviews)
}

// AddReview creates the caller's review of a product
func (rc *ReviewController) AddReview(w http.ResponseWriter, r *http.Request) {
	productID, err := objectIDVar(r, "productId", "product")
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	var req ReviewRequest
	if err := decodeJSON(r, &req); err != nil {
		respondWithError(w, r, err)
		return
	}
	review, err := rc.reviews.Add(r.Context(), middleware.IdentityFrom(r.Context()), productID, req.input())
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	respondWithData(w, http.StatusCreated, review)
}

func (rc *ReviewController) UpdateReview(w http.ResponseWriter, r *http.Request) {
	id, err := objectIDVar(r, "id", "review")
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	var req ReviewRequest
	if err := decodeJSON(r, &req); err != nil {
		respondWithError(w, r, err)
		return
	}
	review, err := rc.reviews.Update(r.Context(), middleware.IdentityFrom(r.Context()), id, req.input())
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	respondWithData(w, http.StatusOK, review)
}

func (rc *ReviewController) DeleteReview(w http.ResponseWriter, r *http.Request) {
	id, err := objectIDVar(r, "id", "review")
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	if err := rc.reviews.Delete(r.Context(), middleware.IdentityFrom(r.Context()), id); err != nil {
		respondWithError(w, r, err)
		return
	}
	respondWithData(w, http.StatusOK, struct{}{})
}
