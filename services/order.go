package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/apperrors"
	"storefront/models"
)

// PlaceOrderInput is the checkout request.
type PlaceOrderInput struct {
	ShippingAddress models.ShippingAddress
	PaymentMethod   models.PaymentMethod
}

// StatusUpdate carries the admin status change; nil fields are left as is.
type StatusUpdate struct {
	OrderStatus   *models.OrderStatus
	PaymentStatus *models.PaymentStatus
}

// OrderService turns carts into orders.
//
// Placing an order writes the order, the stock of every product in it and
// the cart. With a Transactor those writes commit together. Without one they
// run in sequence and a failure undoes the earlier writes. In both modes a
// stock decrement only applies while stock covers the quantity, so
// concurrent checkouts cannot oversell.
type OrderService struct {
	orders   OrderStore
	carts    CartStore
	products ProductStore
	users    UserStore
	notifier OrderNotifier
	tx       Transactor
	now      Clock
	async    func(func())
}

// NewOrderService builds the service. tx may be nil when the deployment has
// no transaction support; notifier may be nil to disable emails.
func NewOrderService(orders OrderStore, carts CartStore, products ProductStore, users UserStore, notifier OrderNotifier, tx Transactor) *OrderService {
	return &OrderService{
		orders:   orders,
		carts:    carts,
		products: products,
		users:    users,
		notifier: notifier,
		tx:       tx,
		now:      utcNow,
		async:    func(f func()) { go f() },
	}
}

// stockLine is the total quantity of one product in the order.
type stockLine struct {
	product primitive.ObjectID
	name    string
	qty     int
}

// CreateOrder places an order from the caller's cart.
func (s *OrderService) CreateOrder(ctx context.Context, identity models.Identity, in PlaceOrderInput) (*models.Order, error) {
	uid, err := requireUser(identity)
	if err != nil {
		return nil, err
	}
	if missing := in.ShippingAddress.MissingFields(); len(missing) > 0 {
		return nil, apperrors.InvalidInput("Missing shipping fields: %s", strings.Join(missing, ", "))
	}
	if in.PaymentMethod == "" {
		return nil, apperrors.InvalidInput("Payment method is required")
	}
	if !in.PaymentMethod.Valid() {
		return nil, apperrors.InvalidInput("Invalid payment method: %s", in.PaymentMethod)
	}

	cart, err := s.carts.FindByOwner(ctx, identity)
	if errors.Is(err, apperrors.ErrNotFound) {
		return nil, apperrors.InvalidState("Cart is empty")
	}
	if err != nil {
		return nil, fmt.Errorf("load cart: %w", err)
	}
	if cart.IsEmpty() {
		return nil, apperrors.InvalidState("Cart is empty")
	}

	// Re-check live stock per product before anything is written.
	ids, quantities := cart.ProductQuantities()
	products, err := s.products.FindByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load products: %w", err)
	}
	lines := make([]stockLine, 0, len(ids))
	for _, id := range ids {
		p, ok := products[id]
		if !ok {
			return nil, apperrors.NotFound("Product not found")
		}
		if quantities[id] > p.Stock {
			log.Warn().
				Str("user_id", uid.Hex()).
				Str("product_id", id.Hex()).
				Int("requested", quantities[id]).
				Int("stock", p.Stock).
				Msg("Order rejected: insufficient stock")
			return nil, apperrors.InsufficientStock("Insufficient stock for %s", p.Name)
		}
		lines = append(lines, stockLine{product: id, name: p.Name, qty: quantities[id]})
	}

	items := make([]models.OrderItem, 0, len(cart.Items))
	for _, it := range cart.Items {
		p := products[it.Product]
		items = append(items, models.OrderItem{
			Product:  it.Product,
			Name:     p.Name,
			Quantity: it.Quantity,
			Size:     it.Size,
			Price:    it.Price,
			Image:    p.FirstImage(),
		})
	}

	cart.Recompute()
	now := s.now()
	order := &models.Order{
		ID:              primitive.NewObjectID(),
		User:            uid,
		OrderNumber:     models.NewOrderNumber(now),
		Items:           items,
		ShippingAddress: in.ShippingAddress,
		PaymentMethod:   in.PaymentMethod,
		PaymentStatus:   models.PaymentPending,
		OrderStatus:     models.OrderProcessing,
		TotalAmount:     cart.TotalPrice,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if s.tx != nil {
		err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
			return s.commit(ctx, order, cart, lines)
		})
	} else {
		err = s.commitWithCompensation(ctx, order, cart, lines)
	}
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("order_id", order.ID.Hex()).
		Str("order_number", order.OrderNumber).
		Str("user_id", uid.Hex()).
		Float64("total", order.TotalAmount).
		Msg("Order placed")
	s.notify(uid, *order, OrderNotifier.SendOrderConfirmationEmail)
	return order, nil
}

// commit performs the order writes. Inside a transaction any error aborts all of them.
func (s *OrderService) commit(ctx context.Context, order *models.Order, cart *models.Cart, lines []stockLine) error {
	if err := s.orders.Create(ctx, order); err != nil {
		return fmt.Errorf("create order: %w", err)
	}
	for _, l := range lines {
		ok, err := s.products.DecrementStock(ctx, l.product, l.qty)
		if err != nil {
			return fmt.Errorf("decrement stock: %w", err)
		}
		if !ok {
			return apperrors.InsufficientStock("Insufficient stock for %s", l.name)
		}
	}
	cart.Clear()
	if err := s.carts.Save(ctx, cart); err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}
	return nil
}

// commitWithCompensation performs the order writes one by one and reverts the
// completed ones when a later write fails.
func (s *OrderService) commitWithCompensation(ctx context.Context, order *models.Order, cart *models.Cart, lines []stockLine) error {
	if err := s.orders.Create(ctx, order); err != nil {
		return fmt.Errorf("create order: %w", err)
	}

	var decremented []stockLine
	for _, l := range lines {
		ok, err := s.products.DecrementStock(ctx, l.product, l.qty)
		if err == nil && !ok {
			err = apperrors.InsufficientStock("Insufficient stock for %s", l.name)
		}
		if err != nil {
			s.compensate(ctx, order, decremented)
			return err
		}
		decremented = append(decremented, l)
	}

	items := cart.Items
	cart.Clear()
	if err := s.carts.Save(ctx, cart); err != nil {
		cart.Items = items
		cart.Recompute()
		s.compensate(ctx, order, decremented)
		return fmt.Errorf("clear cart: %w", err)
	}
	return nil
}

// compensate restores stock and removes the order. It runs even if the
// request context is already cancelled.
func (s *OrderService) compensate(ctx context.Context, order *models.Order, decremented []stockLine) {
	ctx = context.WithoutCancel(ctx)
	for _, l := range decremented {
		if err := s.products.IncrementStock(ctx, l.product, l.qty); err != nil {
			log.Error().Err(err).
				Str("order_number", order.OrderNumber).
				Str("product_id", l.product.Hex()).
				Int("quantity", l.qty).
				Msg("Failed to restore stock")
		}
	}
	if err := s.orders.Delete(ctx, order.ID); err != nil {
		log.Error().Err(err).Str("order_number", order.OrderNumber).Msg("Failed to remove uncommitted order")
	}
	log.Warn().Str("order_number", order.OrderNumber).Int("restored", len(decremented)).Msg("Order placement rolled back")
}

// notify sends an order email in the background. Failures are only logged.
func (s *OrderService) notify(userID primitive.ObjectID, order models.Order, send func(OrderNotifier, string, models.Order) error) {
	if s.notifier == nil {
		return
	}
	s.async(func() {
		ctx := context.Background()
		user, err := s.users.FindByID(ctx, userID)
		if err != nil {
			log.Error().Err(err).Str("user_id", userID.Hex()).Msg("Failed to load user for order email")
			return
		}
		if err := send(s.notifier, user.Email, order); err != nil {
			log.Error().Err(err).Str("to", user.Email).Str("order_number", order.OrderNumber).Msg("Failed to send order email")
		}
	})
}

// ListOrders returns the caller's orders, newest first.
func (s *OrderService) ListOrders(ctx context.Context, identity models.Identity) ([]models.Order, error) {
	uid, err := requireUser(identity)
	if err != nil {
		return nil, err
	}
	return s.orders.FindByUser(ctx, uid)
}

// ListAllOrders returns every order. Admin only.
func (s *OrderService) ListAllOrders(ctx context.Context, identity models.Identity) ([]models.Order, error) {
	if !identity.IsAdmin() {
		return nil, apperrors.Forbidden("Admin access required")
	}
	return s.orders.FindAll(ctx)
}

// GetOrder returns an order owned by the caller, or any order for admins.
func (s *OrderService) GetOrder(ctx context.Context, identity models.Identity, id primitive.ObjectID) (*models.Order, error) {
	if _, err := requireUser(identity); err != nil {
		return nil, err
	}
	order, err := s.orders.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !identity.Owns(order.User) && !identity.IsAdmin() {
		return nil, apperrors.Forbidden("Not authorized to access this order")
	}
	return order, nil
}

// UpdateOrderStatus sets the order and/or payment status. Admin only.
// Transitions are not restricted.
func (s *OrderService) UpdateOrderStatus(ctx context.Context, identity models.Identity, id primitive.ObjectID, upd StatusUpdate) (*models.Order, error) {
	if !identity.IsAdmin() {
		return nil, apperrors.Forbidden("Admin access required")
	}
	if upd.OrderStatus == nil && upd.PaymentStatus == nil {
		return nil, apperrors.InvalidInput("orderStatus or paymentStatus is required")
	}
	if upd.OrderStatus != nil && !upd.OrderStatus.Valid() {
		return nil, apperrors.InvalidInput("Invalid order status: %s", *upd.OrderStatus)
	}
	if upd.PaymentStatus != nil && !upd.PaymentStatus.Valid() {
		return nil, apperrors.InvalidInput("Invalid payment status: %s", *upd.PaymentStatus)
	}

	order, err := s.orders.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	order.ApplyStatus(upd.OrderStatus, upd.PaymentStatus, s.now())
	if err := s.orders.UpdateStatus(ctx, order); err != nil {
		return nil, fmt.Errorf("update order status: %w", err)
	}

	log.Info().
		Str("order_number", order.OrderNumber).
		Str("order_status", string(order.OrderStatus)).
		Str("payment_status", string(order.PaymentStatus)).
		Msg("Order status updated")
	s.notify(order.User, *order, OrderNotifier.SendOrderStatusEmail)
	return order, nil
}
