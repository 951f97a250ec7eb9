package controllers

import (
	"context"
	"net/http"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/middleware"
	"storefront/models"
	"storefront/services"
)

// OrderService is the order API used by OrderController.
type OrderService interface {
	CreateOrder(ctx context.Context, identity models.Identity, in services.PlaceOrderInput) (*models.Order, error)
	ListOrders(ctx context.Context, identity models.Identity) ([]models.Order, error)
	ListAllOrders(ctx context.Context, identity models.Identity) ([]models.Order, error)
	GetOrder(ctx context.Context, identity models.Identity, id primitive.ObjectID) (*models.Order, error)
	UpdateOrderStatus(ctx context.Context, identity models.Identity, id primitive.ObjectID, upd services.StatusUpdate) (*models.Order, error)
}

// CreateOrderRequest is the checkout body. Field checks happen in the
// service so the messages name the missing address fields.
type CreateOrderRequest struct {
	ShippingAddress models.ShippingAddress `json:"shippingAddress"`
	PaymentMethod   string                 `json:"paymentMethod"`
}

type UpdateOrderStatusRequest struct {
	OrderStatus   *string `json:"orderStatus"`
	PaymentStatus *string `json:"paymentStatus"`
}

// OrderController handles order-related requests
type OrderController struct {
	orders OrderService
}

// NewOrderController creates a new OrderController
func NewOrderController(orders OrderService) *OrderController {
	return &OrderController{orders: orders}
}

// CreateOrder places an order from the caller's cart
func (oc *OrderController) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var req CreateOrderRequest
	if err := decodeJSON(r, &req); err != nil {
		respondWithError(w, r, err)
		return
	}

	order, err := oc.orders.CreateOrder(r.Context(), middleware.IdentityFrom(r.Context()), services.PlaceOrderInput{
		ShippingAddress: req.ShippingAddress,
		PaymentMethod:   models.PaymentMethod(req.PaymentMethod),
	})
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	respondWithData(w, http.StatusCreated, order)
}

// GetOrders returns the caller's orders, newest first
func (oc *OrderController) GetOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := oc.orders.ListOrders(r.Context(), middleware.IdentityFrom(r.Context()))
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	respondWithList(w, orders)
}

// GetAllOrders returns every order (Admin only)
func (oc *OrderController) GetAllOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := oc.orders.ListAllOrders(r.Context(), middleware.IdentityFrom(r.Context()))
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	respondWithList(w, orders)
}

// GetOrder returns one order to its owner or an admin
func (oc *OrderController) GetOrder(w http.ResponseWriter, r *http.Request) {
	id, err := objectIDVar(r, "id", "order")
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	order, err := oc.orders.GetOrder(r.Context(), middleware.IdentityFrom(r.Context()), id)
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	respondWithData(w, http.StatusOK, order)
}

// UpdateOrderStatus sets the order and/or payment status (Admin only)
func (oc *OrderController) UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	id, err := objectIDVar(r, "id", "order")
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	var req UpdateOrderStatusRequest
	if err := decodeJSON(r, &req); err != nil {
		respondWithError(w, r, err)
		return
	}

	var upd services.StatusUpdate
	if req.OrderStatus != nil {
		s := models.OrderStatus(*req.OrderStatus)
		upd.OrderStatus = &s
	}
	if req.PaymentStatus != nil {
		s := models.PaymentStatus(*req.PaymentStatus)
		upd.PaymentStatus = &s
	}

	order, err := oc.orders.UpdateOrderStatus(r.Context(), middleware.IdentityFrom(r.Context()), id, upd)
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	respondWithData(w, http.StatusOK, order)
}
