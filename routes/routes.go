package routes

import (
	"net/http"

	"github.com/gorilla/mux"

	"storefront/controllers"
	"storefront/middleware"
)

// Controllers groups the handlers mounted under /api.
type Controllers struct {
	User     *controllers.UserController
	Product  *controllers.ProductController
	Cart     *controllers.CartController
	Order    *controllers.OrderController
	Review   *controllers.ReviewController
	Wishlist *controllers.WishlistController
	Health   *controllers.HealthController
}

// RegisterRoutes sets up all the routes for the application
func RegisterRoutes(router *mux.Router, auth *middleware.Auth, c Controllers) {
	api := router.PathPrefix("/api").Subrouter()

	protect := func(h http.HandlerFunc) http.Handler { return auth.AuthMiddleware(h) }
	admin := func(h http.HandlerFunc) http.Handler {
		return auth.AuthMiddleware(middleware.AdminMiddleware(h))
	}
	optional := func(h http.HandlerFunc) http.Handler { return auth.OptionalAuthMiddleware(h) }

	api.HandleFunc("/health", c.Health.Health).Methods(http.MethodGet)

	// Auth routes
	api.HandleFunc("/auth/register", c.User.Register).Methods(http.MethodPost)
	api.HandleFunc("/auth/login", c.User.Login).Methods(http.MethodPost)
	api.HandleFunc("/auth/verify", c.User.VerifyEmail).Methods(http.MethodGet)
	api.Handle("/auth/me", protect(c.User.GetProfile)).Methods(http.MethodGet)

	// Product routes; /products/export is registered before /products/{id}
	api.HandleFunc("/products", c.Product.GetProducts).Methods(http.MethodGet)
	api.Handle("/products", admin(c.Product.CreateProduct)).Methods(http.MethodPost)
	api.Handle("/products/export", admin(c.Product.ExportProducts)).Methods(http.MethodGet)
	api.HandleFunc("/products/{id}", c.Product.GetProductByID).Methods(http.MethodGet)
	api.Handle("/products/{id}", admin(c.Product.UpdateProduct)).Methods(http.MethodPut)
	api.Handle("/products/{id}", admin(c.Product.DeleteProduct)).Methods(http.MethodDelete)

	// Review routes
	api.HandleFunc("/products/{productId}/reviews", c.Review.GetReviews).Methods(http.MethodGet)
	api.Handle("/products/{productId}/reviews", protect(c.Review.AddReview)).Methods(http.MethodPost)
	api.Handle("/reviews/{id}", protect(c.Review.UpdateReview)).Methods(http.MethodPut)
	api.Handle("/reviews/{id}", protect(c.Review.DeleteReview)).Methods(http.MethodDelete)

	// Cart routes serve both users and guest sessions
	api.Handle("/cart", optional(c.Cart.GetCart)).Methods(http.MethodGet)
	api.Handle("/cart/add", optional(c.Cart.AddToCart)).Methods(http.MethodPost)
	api.Handle("/cart/update/{itemId}", optional(c.Cart.UpdateCartItem)).Methods(http.MethodPut)
	api.Handle("/cart/remove/{itemId}", optional(c.Cart.RemoveFromCart)).Methods(http.MethodDelete)
	api.Handle("/cart/clear", optional(c.Cart.ClearCart)).Methods(http.MethodDelete)

	// Order routes; /orders/all is registered before /orders/{id}
	api.Handle("/orders", protect(c.Order.CreateOrder)).Methods(http.MethodPost)
	api.Handle("/orders", protect(c.Order.GetOrders)).Methods(http.MethodGet)
	api.Handle("/orders/all", admin(c.Order.GetAllOrders)).Methods(http.MethodGet)
	api.Handle("/orders/{id}", protect(c.Order.GetOrder)).Methods(http.MethodGet)
	api.Handle("/orders/{id}/status", admin(c.Order.UpdateOrderStatus)).Methods(http.MethodPut)

	// Wishlist routes
	api.Handle("/wishlist", protect(c.Wishlist.GetWishlist)).Methods(http.MethodGet)
	api.Handle("/wishlist", protect(c.Wishlist.ClearWishlist)).Methods(http.MethodDelete)
	api.Handle("/wishlist/{productId}", protect(c.Wishlist.AddToWishlist)).Methods(http.MethodPost)
	api.Handle("/wishlist/{productId}", protect(c.Wishlist.RemoveFromWishlist)).Methods(http.MethodDelete)
}
