package controllers

import (
	"context"
	"net/http"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/apperrors"
	"storefront/middleware"
	"storefront/models"
)

// CartService is the cart API used by CartController.
type CartService interface {
	GetCart(ctx context.Context, owner models.Identity) (*models.Cart, error)
	AddItem(ctx context.Context, owner models.Identity, productID primitive.ObjectID, quantity int, size float64) (*models.Cart, error)
	UpdateItem(ctx context.Context, owner models.Identity, itemID primitive.ObjectID, quantity int) (*models.Cart, error)
	RemoveItem(ctx context.Context, owner models.Identity, itemID primitive.ObjectID) (*models.Cart, error)
	Clear(ctx context.Context, owner models.Identity) (*models.Cart, error)
	Products(ctx context.Context, cart *models.Cart) (map[primitive.ObjectID]models.Product, error)
}

type AddToCartRequest struct {
	ProductID string  `json:"productId" validate:"required"`
	Quantity  int     `json:"quantity" validate:"required,min=1"`
	Size      float64 `json:"size" validate:"required,gt=0"`
}

type UpdateCartItemRequest struct {
	Quantity int `json:"quantity" validate:"required,min=1"`
}

// CartItemView is a cart line with its product populated. Product is null
// when the product has been deleted since it was added.
type CartItemView struct {
	ID        primitive.ObjectID `json:"_id"`
	Product   *models.Product    `json:"product"`
	ProductID primitive.ObjectID `json:"productId"`
	Quantity  int                `json:"quantity"`
	Size      float64            `json:"size"`
	Price     float64            `json:"price"`
}

type CartView struct {
	ID         primitive.ObjectID  `json:"_id"`
	User       *primitive.ObjectID `json:"user,omitempty"`
	SessionID  string              `json:"sessionId,omitempty"`
	Items      []CartItemView      `json:"items"`
	TotalPrice float64             `json:"totalPrice"`
	CreatedAt  time.Time           `json:"createdAt"`
	UpdatedAt  time.Time           `json:"updatedAt"`
}

func newCartView(cart *models.Cart, products map[primitive.ObjectID]models.Product) CartView {
	view := CartView{
		ID:         cart.ID,
		Items:      make([]CartItemView, 0, len(cart.Items)),
		TotalPrice: cart.TotalPrice,
		CreatedAt:  cart.CreatedAt,
		UpdatedAt:  cart.UpdatedAt,
	}
	if uid, ok := cart.Owner.UserID(); ok {
		view.User = &uid
	} else if sid, ok := cart.Owner.SessionID(); ok {
		view.SessionID = sid
	}
	for _, it := range cart.Items {
		line := CartItemView{
			ID:        it.ID,
			ProductID: it.Product,
			Quantity:  it.Quantity,
			Size:      it.Size,
			Price:     it.Price,
		}
		if p, ok := products[it.Product]; ok {
			line.Product = &p
		}
		view.Items = append(view.Items, line)
	}
	return view
}

// CartController handles cart requests for users and guest sessions
type CartController struct {
	carts CartService
}

// NewCartController creates a new CartController
func NewCartController(carts CartService) *CartController {
	return &CartController{carts: carts}
}

// respondWithCart populates the cart's products and writes it.
func (cc *CartController) respondWithCart(w http.ResponseWriter, r *http.Request, cart *models.Cart) {
	products, err := cc.carts.Products(r.Context(), cart)
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	respondWithData(w, http.StatusOK, newCartView(cart, products))
}

// GetCart returns the caller's cart, creating it on first access
func (cc *CartController) GetCart(w http.ResponseWriter, r *http.Request) {
	cart, err := cc.carts.GetCart(r.Context(), middleware.IdentityFrom(r.Context()))
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	cc.respondWithCart(w, r, cart)
}

// AddToCart adds a product in a size to the cart
func (cc *CartController) AddToCart(w http.ResponseWriter, r *http.Request) {
	var req AddToCartRequest
	if err := decodeJSON(r, &req); err != nil {
		respondWithError(w, r, err)
		return
	}
	if !validateRequest(w, r, req) {
		return
	}
	productID, err := primitive.ObjectIDFromHex(req.ProductID)
	if err != nil {
		respondWithError(w, r, apperrors.InvalidInput("Invalid product ID"))
		return
	}

	cart, err := cc.carts.AddItem(r.Context(), middleware.IdentityFrom(r.Context()), productID, req.Quantity, req.Size)
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	cc.respondWithCart(w, r, cart)
}

// UpdateCartItem sets the quantity of a cart line
func (cc *CartController) UpdateCartItem(w http.ResponseWriter, r *http.Request) {
	itemID, err := objectIDVar(r, "itemId", "item")
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	var req UpdateCartItemRequest
	if err := decodeJSON(r, &req); err != nil {
		respondWithError(w, r, err)
		return
	}
	if !validateRequest(w, r, req) {
		return
	}

	cart, err := cc.carts.UpdateItem(r.Context(), middleware.IdentityFrom(r.Context()), itemID, req.Quantity)
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	cc.respondWithCart(w, r, cart)
}

// RemoveFromCart drops a cart line
func (cc *CartController) RemoveFromCart(w http.ResponseWriter, r *http.Request) {
	itemID, err := objectIDVar(r, "itemId", "item")
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	cart, err := cc.carts.RemoveItem(r.Context(), middleware.IdentityFrom(r.Context()), itemID)
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	cc.respondWithCart(w, r, cart)
}

// ClearCart empties the cart
func (cc *CartController) ClearCart(w http.ResponseWriter, r *http.Request) {
	cart, err := cc.carts.Clear(r.Context(), middleware.IdentityFrom(r.Context()))
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	respondWithData(w, http.StatusOK, newCartView(cart, nil))
}
