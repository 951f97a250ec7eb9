// Package services holds the storefront business rules. Stores are
// consumed through the interfaces below and implemented by package repository.
package services

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/apperrors"
	"storefront/models"
)

type ProductStore interface {
	Find(ctx context.Context, q models.ProductQuery) ([]models.Product, int64, error)
	All(ctx context.Context) ([]models.Product, error)
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Product, error)
	FindByIDs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]models.Product, error)
	Create(ctx context.Context, p *models.Product) error
	Update(ctx context.Context, id primitive.ObjectID, upd models.ProductUpdate) (*models.Product, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
	IncrementViews(ctx context.Context, id primitive.ObjectID) (*models.Product, error)
	DecrementStock(ctx context.Context, id primitive.ObjectID, qty int) (bool, error)
	IncrementStock(ctx context.Context, id primitive.ObjectID, qty int) error
	SetRating(ctx context.Context, id primitive.ObjectID, s models.RatingSummary) error
}

type CartStore interface {
	FindByOwner(ctx context.Context, owner models.Identity) (*models.Cart, error)
	Create(ctx context.Context, c *models.Cart) error
	Save(ctx context.Context, c *models.Cart) error
}

type OrderStore interface {
	Create(ctx context.Context, o *models.Order) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Order, error)
	FindByUser(ctx context.Context, userID primitive.ObjectID) ([]models.Order, error)
	FindAll(ctx context.Context) ([]models.Order, error)
	UpdateStatus(ctx context.Context, o *models.Order) error
	Delete(ctx context.Context, id primitive.ObjectID) error
	HasPurchased(ctx context.Context, userID, productID primitive.ObjectID) (bool, error)
}

type ReviewStore interface {
	FindByProduct(ctx context.Context, productID primitive.ObjectID) ([]models.Review, error)
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Review, error)
	Exists(ctx context.Context, productID, userID primitive.ObjectID) (bool, error)
	Create(ctx context.Context, r *models.Review) error
	Update(ctx context.Context, r *models.Review) error
	Delete(ctx context.Context, id primitive.ObjectID) error
	Ratings(ctx context.Context, productID primitive.ObjectID) ([]int, error)
}

type WishlistStore interface {
	FindByUser(ctx context.Context, userID primitive.ObjectID) (*models.Wishlist, error)
	Create(ctx context.Context, w *models.Wishlist) error
	Save(ctx context.Context, w *models.Wishlist) error
}

type UserStore interface {
	Create(ctx context.Context, u *models.User) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	Verify(ctx context.Context, token string) (*models.User, error)
}

// Transactor runs fn as one atomic unit of work.
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// OrderNotifier sends order emails.
type OrderNotifier interface {
	SendOrderConfirmationEmail(toEmail string, order models.Order) error
	SendOrderStatusEmail(toEmail string, order models.Order) error
}

// AccountNotifier sends account emails.
type AccountNotifier interface {
	SendVerificationEmail(toEmail, token string) error
}

// Clock returns the current time. Tests pin it.
type Clock func() time.Time

func utcNow() time.Time { return time.Now().UTC() }

func requireUser(identity models.Identity) (primitive.ObjectID, error) {
	uid, ok := identity.UserID()
	if !ok {
		return primitive.NilObjectID, apperrors.Unauthorized("Not authorized, please log in")
	}
	return uid, nil
}
