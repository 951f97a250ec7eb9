package services

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/apperrors"
	"storefront/models"
)

type WishlistService struct {
	wishlists WishlistStore
	products  ProductStore
	now       Clock
}

func NewWishlistService(wishlists WishlistStore, products ProductStore) *WishlistService {
	return &WishlistService{wishlists: wishlists, products: products, now: utcNow}
}

// Get returns the caller's wishlist, creating it on first access.
func (s *WishlistService) Get(ctx context.Context, identity models.Identity) (*models.Wishlist, error) {
	uid, err := requireUser(identity)
	if err != nil {
		return nil, err
	}
	w, err := s.wishlists.FindByUser(ctx, uid)
	if err == nil {
		return w, nil
	}
	if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, fmt.Errorf("get wishlist: %w", err)
	}
	w = models.NewWishlist(uid, s.now())
	if err := s.wishlists.Create(ctx, w); err != nil {
		if errors.Is(err, apperrors.ErrConflict) {
			return s.wishlists.FindByUser(ctx, uid)
		}
		return nil, fmt.Errorf("create wishlist: %w", err)
	}
	return w, nil
}

func (s *WishlistService) Add(ctx context.Context, identity models.Identity, productID primitive.ObjectID) (*models.Wishlist, error) {
	if _, err := requireUser(identity); err != nil {
		return nil, err
	}
	if _, err := s.products.FindByID(ctx, productID); err != nil {
		return nil, err
	}
	w, err := s.Get(ctx, identity)
	if err != nil {
		return nil, err
	}
	if !w.Add(productID, s.now()) {
		return nil, apperrors.Conflict("Product already in wishlist")
	}
	if err := s.wishlists.Save(ctx, w); err != nil {
		return nil, fmt.Errorf("save wishlist: %w", err)
	}
	return w, nil
}

// Remove drops a product. Removing a product that is not saved is not an error.
func (s *WishlistService) Remove(ctx context.Context, identity models.Identity, productID primitive.ObjectID) (*models.Wishlist, error) {
	w, err := s.Get(ctx, identity)
	if err != nil {
		return nil, err
	}
	if !w.Contains(productID) {
		return w, nil
	}
	w.Remove(productID, s.now())
	if err := s.wishlists.Save(ctx, w); err != nil {
		return nil, fmt.Errorf("save wishlist: %w", err)
	}
	return w, nil
}

func (s *WishlistService) Clear(ctx context.Context, identity models.Identity) (*models.Wishlist, error) {
	w, err := s.Get(ctx, identity)
	if err != nil {
		return nil, err
	}
	w.Clear(s.now())
	if err := s.wishlists.Save(ctx, w); err != nil {
		return nil, fmt.Errorf("save wishlist: %w", err)
	}
	return w, nil
}

// Products loads the saved products that still exist, keyed by id.
func (s *WishlistService) Products(ctx context.Context, w *models.Wishlist) (map[primitive.ObjectID]models.Product, error) {
	return s.products.FindByIDs(ctx, w.ProductIDs())
}
