package services

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/apperrors"
	"storefront/models"
)

// In-memory stores. They copy on the way in and out so tests observe only
// what was persisted.

type memProducts struct {
	mu    sync.Mutex
	items map[primitive.ObjectID]models.Product

	// decrementMiss makes DecrementStock report no match for that product,
	// as if another checkout took the stock first.
	decrementMiss map[primitive.ObjectID]bool
	decrementErr  error
}

func newMemProducts(ps ...models.Product) *memProducts {
	m := &memProducts{items: map[primitive.ObjectID]models.Product{}, decrementMiss: map[primitive.ObjectID]bool{}}
	for _, p := range ps {
		m.items[p.ID] = p
	}
	return m
}

func (m *memProducts) get(id primitive.ObjectID) models.Product {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.items[id]
}

func (m *memProducts) Find(_ context.Context, q models.ProductQuery) ([]models.Product, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Product
	for _, p := range m.items {
		if q.Category != "" && string(p.Category) != q.Category {
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	total := int64(len(out))
	start := int(q.Skip())
	if start > len(out) {
		start = len(out)
	}
	end := start + q.Limit
	if end > len(out) {
		end = len(out)
	}
	return out[start:end], total, nil
}

func (m *memProducts) All(ctx context.Context) ([]models.Product, error) {
	items, _, err := m.Find(ctx, models.ProductQuery{Page: 1, Limit: 1000})
	return items, err
}

func (m *memProducts) FindByID(_ context.Context, id primitive.ObjectID) (*models.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.items[id]
	if !ok {
		return nil, apperrors.NotFound("Product not found")
	}
	return &p, nil
}

func (m *memProducts) FindByIDs(_ context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]models.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := map[primitive.ObjectID]models.Product{}
	for _, id := range ids {
		if p, ok := m.items[id]; ok {
			out[id] = p
		}
	}
	return out, nil
}

func (m *memProducts) Create(_ context.Context, p *models.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	m.items[p.ID] = *p
	return nil
}

func (m *memProducts) Update(_ context.Context, id primitive.ObjectID, upd models.ProductUpdate) (*models.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.items[id]
	if !ok {
		return nil, apperrors.NotFound("Product not found")
	}
	upd.Apply(&p)
	m.items[id] = p
	return &p, nil
}

func (m *memProducts) Delete(_ context.Context, id primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.items[id]; !ok {
		return apperrors.NotFound("Product not found")
	}
	delete(m.items, id)
	return nil
}

func (m *memProducts) IncrementViews(_ context.Context, id primitive.ObjectID) (*models.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.items[id]
	if !ok {
		return nil, apperrors.NotFound("Product not found")
	}
	p.Views++
	m.items[id] = p
	return &p, nil
}

func (m *memProducts) DecrementStock(_ context.Context, id primitive.ObjectID, qty int) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.decrementErr != nil {
		return false, m.decrementErr
	}
	p, ok := m.items[id]
	if !ok || p.Stock < qty || m.decrementMiss[id] {
		return false, nil
	}
	p.Stock -= qty
	m.items[id] = p
	return true, nil
}

func (m *memProducts) IncrementStock(_ context.Context, id primitive.ObjectID, qty int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p := m.items[id]
	p.Stock += qty
	m.items[id] = p
	return nil
}

func (m *memProducts) SetRating(_ context.Context, id primitive.ObjectID, s models.RatingSummary) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p := m.items[id]
	p.AverageRating, p.ReviewCount = s.Average, s.Count
	m.items[id] = p
	return nil
}

func (m *memProducts) snapshot() map[primitive.ObjectID]models.Product {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[primitive.ObjectID]models.Product, len(m.items))
	for k, v := range m.items {
		out[k] = v
	}
	return out
}

func (m *memProducts) restore(s map[primitive.ObjectID]models.Product) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items = s
}

type memCarts struct {
	mu      sync.Mutex
	carts   map[string]models.Cart
	saveErr error
	// afterLoad runs once, right after the next FindByOwner returns its copy.
	afterLoad func()
}

func newMemCarts() *memCarts { return &memCarts{carts: map[string]models.Cart{}} }

func cloneCart(c models.Cart) models.Cart {
	c.Items = append([]models.CartItem{}, c.Items...)
	return c
}

func (m *memCarts) FindByOwner(_ context.Context, owner models.Identity) (*models.Cart, error) {
	m.mu.Lock()
	c, ok := m.carts[owner.String()]
	hook := m.afterLoad
	m.afterLoad = nil
	m.mu.Unlock()
	if !ok {
		return nil, apperrors.NotFound("Cart not found")
	}
	c = cloneCart(c)
	if hook != nil {
		hook()
	}
	return &c, nil
}

func (m *memCarts) Create(_ context.Context, c *models.Cart) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.carts[c.Owner.String()]; ok {
		return apperrors.Conflict("Duplicate cart")
	}
	m.carts[c.Owner.String()] = cloneCart(*c)
	return nil
}

func (m *memCarts) Save(_ context.Context, c *models.Cart) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	cur, ok := m.carts[c.Owner.String()]
	if !ok {
		return apperrors.NotFound("Cart not found")
	}
	if !cur.UpdatedAt.Equal(c.UpdatedAt) {
		return apperrors.Conflict("Cart was modified by another request, please retry")
	}
	c.UpdatedAt = cur.UpdatedAt.Add(time.Millisecond)
	c.Recompute()
	m.carts[c.Owner.String()] = cloneCart(*c)
	return nil
}

func (m *memCarts) stored(owner models.Identity) (models.Cart, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.carts[owner.String()]
	return cloneCart(c), ok
}

func (m *memCarts) snapshot() map[string]models.Cart {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]models.Cart, len(m.carts))
	for k, v := range m.carts {
		out[k] = cloneCart(v)
	}
	return out
}

func (m *memCarts) restore(s map[string]models.Cart) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.carts = s
}

type memOrders struct {
	mu        sync.Mutex
	orders    map[primitive.ObjectID]models.Order
	createErr error
	deleted   []primitive.ObjectID
}

func newMemOrders() *memOrders { return &memOrders{orders: map[primitive.ObjectID]models.Order{}} }

func (m *memOrders) Create(_ context.Context, o *models.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	if o.ID.IsZero() {
		o.ID = primitive.NewObjectID()
	}
	m.orders[o.ID] = *o
	return nil
}

func (m *memOrders) FindByID(_ context.Context, id primitive.ObjectID) (*models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return nil, apperrors.NotFound("Order not found")
	}
	return &o, nil
}

func (m *memOrders) filter(keep func(models.Order) bool) []models.Order {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.Order{}
	for _, o := range m.orders {
		if keep(o) {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (m *memOrders) FindByUser(_ context.Context, userID primitive.ObjectID) ([]models.Order, error) {
	return m.filter(func(o models.Order) bool { return o.User == userID }), nil
}

func (m *memOrders) FindAll(_ context.Context) ([]models.Order, error) {
	return m.filter(func(models.Order) bool { return true }), nil
}

func (m *memOrders) UpdateStatus(_ context.Context, o *models.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.orders[o.ID]; !ok {
		return apperrors.NotFound("Order not found")
	}
	m.orders[o.ID] = *o
	return nil
}

func (m *memOrders) Delete(_ context.Context, id primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.orders, id)
	m.deleted = append(m.deleted, id)
	return nil
}

func (m *memOrders) HasPurchased(_ context.Context, userID, productID primitive.ObjectID) (bool, error) {
	for _, o := range m.filter(func(o models.Order) bool { return o.User == userID }) {
		if o.OrderStatus != models.OrderShipped && o.OrderStatus != models.OrderDelivered {
			continue
		}
		for _, it := range o.Items {
			if it.Product == productID {
				return true, nil
			}
		}
	}
	return false, nil
}

func (m *memOrders) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.orders)
}

func (m *memOrders) snapshot() map[primitive.ObjectID]models.Order {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[primitive.ObjectID]models.Order, len(m.orders))
	for k, v := range m.orders {
		out[k] = v
	}
	return out
}

func (m *memOrders) restore(s map[primitive.ObjectID]models.Order) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.orders = s
}

type memReviews struct {
	mu      sync.Mutex
	reviews map[primitive.ObjectID]models.Review
}

func newMemReviews() *memReviews { return &memReviews{reviews: map[primitive.ObjectID]models.Review{}} }

func (m *memReviews) FindByProduct(_ context.Context, productID primitive.ObjectID) ([]models.Review, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.Review{}
	for _, r := range m.reviews {
		if r.Product == productID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memReviews) FindByID(_ context.Context, id primitive.ObjectID) (*models.Review, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.reviews[id]
	if !ok {
		return nil, apperrors.NotFound("Review not found")
	}
	return &r, nil
}

func (m *memReviews) Exists(_ context.Context, productID, userID primitive.ObjectID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.reviews {
		if r.Product == productID && r.User == userID {
			return true, nil
		}
	}
	return false, nil
}

func (m *memReviews) Create(ctx context.Context, r *models.Review) error {
	if ok, _ := m.Exists(ctx, r.Product, r.User); ok {
		return apperrors.Conflict("You have already reviewed this product")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if r.ID.IsZero() {
		r.ID = primitive.NewObjectID()
	}
	m.reviews[r.ID] = *r
	return nil
}

func (m *memReviews) Update(_ context.Context, r *models.Review) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.reviews[r.ID]; !ok {
		return apperrors.NotFound("Review not found")
	}
	m.reviews[r.ID] = *r
	return nil
}

func (m *memReviews) Delete(_ context.Context, id primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.reviews[id]; !ok {
		return apperrors.NotFound("Review not found")
	}
	delete(m.reviews, id)
	return nil
}

func (m *memReviews) Ratings(ctx context.Context, productID primitive.ObjectID) ([]int, error) {
	reviews, _ := m.FindByProduct(ctx, productID)
	out := make([]int, 0, len(reviews))
	for _, r := range reviews {
		out = append(out, r.Rating)
	}
	return out, nil
}

type memWishlists struct {
	mu    sync.Mutex
	lists map[primitive.ObjectID]models.Wishlist
}

func newMemWishlists() *memWishlists {
	return &memWishlists{lists: map[primitive.ObjectID]models.Wishlist{}}
}

func (m *memWishlists) FindByUser(_ context.Context, userID primitive.ObjectID) (*models.Wishlist, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	w, ok := m.lists[userID]
	if !ok {
		return nil, apperrors.NotFound("Wishlist not found")
	}
	w.Products = append([]models.WishlistItem{}, w.Products...)
	return &w, nil
}

func (m *memWishlists) Create(_ context.Context, w *models.Wishlist) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.lists[w.User]; ok {
		return apperrors.Conflict("Duplicate wishlist")
	}
	m.lists[w.User] = *w
	return nil
}

func (m *memWishlists) Save(_ context.Context, w *models.Wishlist) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := *w
	c.Products = append([]models.WishlistItem{}, w.Products...)
	m.lists[w.User] = c
	return nil
}

type memUsers struct {
	mu    sync.Mutex
	users map[primitive.ObjectID]models.User
}

func newMemUsers(us ...models.User) *memUsers {
	m := &memUsers{users: map[primitive.ObjectID]models.User{}}
	for _, u := range us {
		m.users[u.ID] = u
	}
	return m
}

func (m *memUsers) Create(_ context.Context, u *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.users {
		if existing.Email == u.Email {
			return apperrors.Conflict("User already exists")
		}
	}
	if u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
	}
	m.users[u.ID] = *u
	return nil
}

func (m *memUsers) FindByID(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, apperrors.NotFound("User not found")
	}
	return &u, nil
}

func (m *memUsers) FindByEmail(_ context.Context, email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, apperrors.NotFound("User not found")
}

func (m *memUsers) Verify(_ context.Context, token string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, u := range m.users {
		if u.VerificationToken != "" && u.VerificationToken == token {
			u.IsVerified = true
			u.VerificationToken = ""
			m.users[id] = u
			return &u, nil
		}
	}
	return nil, apperrors.NotFound("Invalid or expired verification token")
}

// memTx gives the in-memory stores all-or-nothing semantics.
type memTx struct {
	products *memProducts
	carts    *memCarts
	orders   *memOrders
	calls    int
}

func (t *memTx) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	t.calls++
	p, c, o := t.products.snapshot(), t.carts.snapshot(), t.orders.snapshot()
	if err := fn(ctx); err != nil {
		t.products.restore(p)
		t.carts.restore(c)
		t.orders.restore(o)
		return err
	}
	return nil
}

type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) SendOrderConfirmationEmail(toEmail string, order models.Order) error {
	args := m.Called(toEmail, order)
	return args.Error(0)
}

func (m *MockNotifier) SendOrderStatusEmail(toEmail string, order models.Order) error {
	args := m.Called(toEmail, order)
	return args.Error(0)
}

func (m *MockNotifier) SendVerificationEmail(toEmail, token string) error {
	args := m.Called(toEmail, token)
	return args.Error(0)
}

type stubTokens struct{}

func (stubTokens) GenerateJWT(u models.User) (string, error) { return "token-" + u.ID.Hex(), nil }

func inline(f func()) { f() }
