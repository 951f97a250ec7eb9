package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/apperrors"
	"storefront/models"
)

// CartService manages the cart of a registered user or guest session.
//
// Stock is checked against live product stock at the time of each call and is
// not reserved, so two carts may hold more than the remaining stock between
// them. Checkout re-checks and decrements atomically. Concurrent mutations of
// the same cart are last-writer-wins.
type CartService struct {
	carts    CartStore
	products ProductStore
	now      Clock
}

func NewCartService(carts CartStore, products ProductStore) *CartService {
	return &CartService{carts: carts, products: products, now: utcNow}
}

// GetCart returns the owner's cart, creating an empty one on first access.
func (s *CartService) GetCart(ctx context.Context, owner models.Identity) (*models.Cart, error) {
	if owner.IsZero() {
		return nil, apperrors.Unauthorized("No cart identity")
	}
	cart, err := s.carts.FindByOwner(ctx, owner)
	if err == nil {
		return cart, nil
	}
	if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, fmt.Errorf("get cart: %w", err)
	}

	cart = models.NewCart(owner, s.now())
	if err := s.carts.Create(ctx, cart); err != nil {
		// another request created it first
		if errors.Is(err, apperrors.ErrConflict) {
			return s.carts.FindByOwner(ctx, owner)
		}
		return nil, fmt.Errorf("create cart: %w", err)
	}
	log.Debug().Str("owner", owner.String()).Msg("Cart created")
	return cart, nil
}

// AddItem adds quantity units of (productID, size). The product's quantity
// already in the cart, across all sizes, counts against live stock.
func (s *CartService) AddItem(ctx context.Context, owner models.Identity, productID primitive.ObjectID, quantity int, size float64) (*models.Cart, error) {
	if quantity < 1 {
		return nil, apperrors.InvalidInput("Quantity must be at least 1")
	}
	product, err := s.products.FindByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if !product.HasSize(size) {
		return nil, apperrors.InvalidInput("Selected size not available")
	}

	cart, err := s.GetCart(ctx, owner)
	if err != nil {
		return nil, err
	}
	inCart := cart.QuantityOf(productID, primitive.NilObjectID)
	if inCart+quantity > product.Stock {
		log.Warn().
			Str("owner", owner.String()).
			Str("product_id", productID.Hex()).
			Int("requested", quantity).
			Int("in_cart", inCart).
			Int("stock", product.Stock).
			Msg("Add to cart rejected: insufficient stock")
		return nil, apperrors.InsufficientStock("Insufficient stock")
	}

	cart.AddLine(productID, size, quantity, product.Price)
	if err := s.carts.Save(ctx, cart); err != nil {
		return nil, fmt.Errorf("save cart: %w", err)
	}
	return cart, nil
}

// UpdateItem replaces the quantity of a cart line.
func (s *CartService) UpdateItem(ctx context.Context, owner models.Identity, itemID primitive.ObjectID, quantity int) (*models.Cart, error) {
	if quantity < 1 {
		return nil, apperrors.InvalidInput("Quantity must be at least 1")
	}
	cart, err := s.carts.FindByOwner(ctx, owner)
	if err != nil {
		return nil, err
	}
	i := cart.ItemIndex(itemID)
	if i < 0 {
		return nil, apperrors.NotFound("Item not found in cart")
	}
	item := cart.Items[i]

	product, err := s.products.FindByID(ctx, item.Product)
	if err != nil {
		return nil, err
	}
	if cart.QuantityOf(item.Product, itemID)+quantity > product.Stock {
		return nil, apperrors.InsufficientStock("Insufficient stock")
	}

	cart.Items[i].Quantity = quantity
	cart.Recompute()
	if err := s.carts.Save(ctx, cart); err != nil {
		return nil, fmt.Errorf("save cart: %w", err)
	}
	return cart, nil
}

// RemoveItem drops a line. Removing an unknown line is not an error.
func (s *CartService) RemoveItem(ctx context.Context, owner models.Identity, itemID primitive.ObjectID) (*models.Cart, error) {
	cart, err := s.carts.FindByOwner(ctx, owner)
	if err != nil {
		return nil, err
	}
	cart.RemoveItem(itemID)
	if err := s.carts.Save(ctx, cart); err != nil {
		return nil, fmt.Errorf("save cart: %w", err)
	}
	return cart, nil
}

func (s *CartService) Clear(ctx context.Context, owner models.Identity) (*models.Cart, error) {
	cart, err := s.carts.FindByOwner(ctx, owner)
	if err != nil {
		return nil, err
	}
	cart.Clear()
	if err := s.carts.Save(ctx, cart); err != nil {
		return nil, fmt.Errorf("save cart: %w", err)
	}
	return cart, nil
}

// Products loads the products referenced by the cart, keyed by id.
// Products deleted since they were added are absent.
func (s *CartService) Products(ctx context.Context, cart *models.Cart) (map[primitive.ObjectID]models.Product, error) {
	ids, _ := cart.ProductQuantities()
	return s.products.FindByIDs(ctx, ids)
}
