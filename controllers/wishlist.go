package controllers

import (
	"context"
	"net/http"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/middleware"
	"storefront/models"
)

// WishlistService is the wishlist API used by WishlistController.
type WishlistService interface {
	Get(ctx context.Context, identity models.Identity) (*models.Wishlist, error)
	Add(ctx context.Context, identity models.Identity, productID primitive.ObjectID) (*models.Wishlist, error)
	Remove(ctx context.Context, identity models.Identity, productID primitive.ObjectID) (*models.Wishlist, error)
	Clear(ctx context.Context, identity models.Identity) (*models.Wishlist, error)
	Products(ctx context.Context, w *models.Wishlist) (map[primitive.ObjectID]models.Product, error)
}

type WishlistItemView struct {
	Product   *models.Product    `json:"product"`
	ProductID primitive.ObjectID `json:"productId"`
	AddedAt   time.Time          `json:"addedAt"`
}

type WishlistView struct {
	ID        primitive.ObjectID `json:"_id"`
	User      primitive.ObjectID `json:"user"`
	Products  []WishlistItemView `json:"products"`
	CreatedAt time.Time          `json:"createdAt"`
	UpdatedAt time.Time          `json:"updatedAt"`
}

func newWishlistView(w *models.Wishlist, products map[primitive.ObjectID]models.Product) WishlistView {
	view := WishlistView{
		ID:        w.ID,
		User:      w.User,
		Products:  make([]WishlistItemView, 0, len(w.Products)),
		CreatedAt: w.CreatedAt,
		UpdatedAt: w.UpdatedAt,
	}
	for _, it := range w.Products {
		item := WishlistItemView{ProductID: it.Product, AddedAt: it.AddedAt}
		if p, ok := products[it.Product]; ok {
			item.Product = &p
		}
		view.Products = append(view.Products, item)
	}
	return view
}

type WishlistController struct {
	wishlists WishlistService
}

func NewWishlistController(wishlists WishlistService) *WishlistController {
	return &WishlistController{wishlists: wishlists}
}

func (wc *WishlistController) respondWithWishlist(w http.ResponseWriter, r *http.Request, list *models.Wishlist) {
	products, err := wc.wishlists.Products(r.Context(), list)
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	respondWithData(w, http.StatusOK, newWishlistView(list, products))
}

func (wc *WishlistController) GetWishlist(w http.ResponseWriter, r *http.Request) {
	list, err := wc.wishlists.Get(r.Context(), middleware.IdentityFrom(r.Context()))
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	wc.respondWithWishlist(w, r, list)
}

func (wc *WishlistController) AddToWishlist(w http.ResponseWriter, r *http.Request) {
	productID, err := objectIDVar(r, "productId", "product")
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	list, err := wc.wishlists.Add(r.Context(), middleware.IdentityFrom(r.Context()), productID)
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	wc.respondWithWishlist(w, r, list)
}

func (wc *WishlistController) RemoveFromWishlist(w http.ResponseWriter, r *http.Request) {
	productID, err := objectIDVar(r, "productId", "product")
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	list, err := wc.wishlists.Remove(r.Context(), middleware.IdentityFrom(r.Context()), productID)
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	wc.respondWithWishlist(w, r, list)
}

func (wc *WishlistController) ClearWishlist(w http.ResponseWriter, r *http.Request) {
	list, err := wc.wishlists.Clear(r.Context(), middleware.IdentityFrom(r.Context()))
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	respondWithData(w, http.StatusOK, newWishlistView(list, nil))
}
