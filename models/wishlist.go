package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type WishlistItem struct {
	Product primitive.ObjectID `bson:"product" json:"product"`
	AddedAt time.Time          `bson:"addedAt" json:"addedAt"`
}

// Wishlist is a user's ordered set of saved products.
type Wishlist struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	User      primitive.ObjectID `bson:"user" json:"user"`
	Products  []WishlistItem     `bson:"products" json:"products"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt" json:"updatedAt"`
}

func NewWishlist(user primitive.ObjectID, now time.Time) *Wishlist {
	return &Wishlist{
		ID:        primitive.NewObjectID(),
		User:      user,
		Products:  []WishlistItem{},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func (w *Wishlist) Contains(product primitive.ObjectID) bool {
	for _, it := range w.Products {
		if it.Product == product {
			return true
		}
	}
	return false
}

// Add appends product and reports false if it was already present.
func (w *Wishlist) Add(product primitive.ObjectID, now time.Time) bool {
	if w.Contains(product) {
		return false
	}
	w.Products = append(w.Products, WishlistItem{Product: product, AddedAt: now})
	w.UpdatedAt = now
	return true
}

// Remove drops product if present.
func (w *Wishlist) Remove(product primitive.ObjectID, now time.Time) {
	for i, it := range w.Products {
		if it.Product == product {
			w.Products = append(w.Products[:i], w.Products[i+1:]...)
			break
		}
	}
	w.UpdatedAt = now
}

func (w *Wishlist) Clear(now time.Time) {
	w.Products = []WishlistItem{}
	w.UpdatedAt = now
}

// ProductIDs returns the saved product ids in insertion order.
func (w *Wishlist) ProductIDs() []primitive.ObjectID {
	ids := make([]primitive.ObjectID, 0, len(w.Products))
	for _, it := range w.Products {
		ids = append(ids, it.Product)
	}
	return ids
}
