package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	MinRating              = 1
	MaxRating              = 5
	MaxReviewTitleLength   = 100
	MaxReviewCommentLength = 500
)

// Review represents a user's review of a product
type Review struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Product   primitive.ObjectID `bson:"product" json:"product"`
	User      primitive.ObjectID `bson:"user" json:"user"`
	Rating    int                `bson:"rating" json:"rating"`
	Title     string             `bson:"title" json:"title"`
	Comment   string             `bson:"comment" json:"comment"`
	Verified  bool               `bson:"verified" json:"verified"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// RatingSummary is the derived rating of a product.
type RatingSummary struct {
	Average float64
	Count   int
}

// SummarizeRatings returns the unrounded mean and the count, matching what
// a $avg over the same ratings stores. No ratings gives 0/0.
func SummarizeRatings(ratings []int) RatingSummary {
	if len(ratings) == 0 {
		return RatingSummary{}
	}
	sum := int64(0)
	for _, r := range ratings {
		sum += int64(r)
	}
	return RatingSummary{Average: float64(sum) / float64(len(ratings)), Count: len(ratings)}
}
