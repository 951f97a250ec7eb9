// Package repository stores the storefront aggregates in MongoDB.
package repository

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/mongo"

	"storefront/apperrors"
)

// Collection names.
const (
	ProductsCollection  = "products"
	CartsCollection     = "carts"
	OrdersCollection    = "orders"
	ReviewsCollection   = "reviews"
	WishlistsCollection = "wishlists"
	UsersCollection     = "users"
)

// DefaultTimeout bounds a single store call when none is configured.
const DefaultTimeout = 5 * time.Second

type base struct {
	coll    *mongo.Collection
	timeout time.Duration
}

func newBase(db *mongo.Database, name string, timeout time.Duration) base {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return base{coll: db.Collection(name), timeout: timeout}
}

func (b base) ctx(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, b.timeout)
}

// mapErr translates driver errors into the application taxonomy.
func mapErr(err error, notFoundMsg, op string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return apperrors.NotFound("%s", notFoundMsg)
	case mongo.IsDuplicateKeyError(err):
		return &apperrors.Error{Kind: apperrors.KindConflict, Message: "Duplicate " + op, Err: err}
	default:
		return apperrors.Wrap(err, op)
	}
}
