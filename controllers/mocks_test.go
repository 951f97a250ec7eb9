package controllers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/middleware"
	"storefront/models"
	"storefront/services"
)

type MockCatalogService struct{ mock.Mock }

func (m *MockCatalogService) List(ctx context.Context, q models.ProductQuery) (*services.ProductPage, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.ProductPage), args.Error(1)
}

func (m *MockCatalogService) Get(ctx context.Context, id primitive.ObjectID) (*models.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Product), args.Error(1)
}

func (m *MockCatalogService) Create(ctx context.Context, p *models.Product) (*models.Product, error) {
	args := m.Called(ctx, p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Product), args.Error(1)
}

func (m *MockCatalogService) Update(ctx context.Context, id primitive.ObjectID, upd models.ProductUpdate) (*models.Product, error) {
	args := m.Called(ctx, id, upd)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Product), args.Error(1)
}

func (m *MockCatalogService) Delete(ctx context.Context, id primitive.ObjectID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockCatalogService) Export(ctx context.Context) ([]models.Product, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Product), args.Error(1)
}

type MockCartService struct{ mock.Mock }

func (m *MockCartService) cart(args mock.Arguments) (*models.Cart, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Cart), args.Error(1)
}

func (m *MockCartService) GetCart(ctx context.Context, owner models.Identity) (*models.Cart, error) {
	return m.cart(m.Called(ctx, owner))
}

func (m *MockCartService) AddItem(ctx context.Context, owner models.Identity, productID primitive.ObjectID, quantity int, size float64) (*models.Cart, error) {
	return m.cart(m.Called(ctx, owner, productID, quantity, size))
}

func (m *MockCartService) UpdateItem(ctx context.Context, owner models.Identity, itemID primitive.ObjectID, quantity int) (*models.Cart, error) {
	return m.cart(m.Called(ctx, owner, itemID, quantity))
}

func (m *MockCartService) RemoveItem(ctx context.Context, owner models.Identity, itemID primitive.ObjectID) (*models.Cart, error) {
	return m.cart(m.Called(ctx, owner, itemID))
}

func (m *MockCartService) Clear(ctx context.Context, owner models.Identity) (*models.Cart, error) {
	return m.cart(m.Called(ctx, owner))
}

func (m *MockCartService) Products(ctx context.Context, cart *models.Cart) (map[primitive.ObjectID]models.Product, error) {
	args := m.Called(ctx, cart)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[primitive.ObjectID]models.Product), args.Error(1)
}

type MockOrderService struct{ mock.Mock }

func (m *MockOrderService) order(args mock.Arguments) (*models.Order, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Order), args.Error(1)
}

func (m *MockOrderService) CreateOrder(ctx context.Context, identity models.Identity, in services.PlaceOrderInput) (*models.Order, error) {
	return m.order(m.Called(ctx, identity, in))
}

func (m *MockOrderService) ListOrders(ctx context.Context, identity models.Identity) ([]models.Order, error) {
	args := m.Called(ctx, identity)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Order), args.Error(1)
}

func (m *MockOrderService) ListAllOrders(ctx context.Context, identity models.Identity) ([]models.Order, error) {
	args := m.Called(ctx, identity)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Order), args.Error(1)
}

func (m *MockOrderService) GetOrder(ctx context.Context, identity models.Identity, id primitive.ObjectID) (*models.Order, error) {
	return m.order(m.Called(ctx, identity, id))
}

func (m *MockOrderService) UpdateOrderStatus(ctx context.Context, identity models.Identity, id primitive.ObjectID, upd services.StatusUpdate) (*models.Order, error) {
	return m.order(m.Called(ctx, identity, id, upd))
}

type MockReviewService struct{ mock.Mock }

func (m *MockReviewService) List(ctx context.Context, productID primitive.ObjectID) ([]models.Review, error) {
	args := m.Called(ctx, productID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Review), args.Error(1)
}

func (m *MockReviewService) Add(ctx context.Context, identity models.Identity, productID primitive.ObjectID, in services.ReviewInput) (*models.Review, error) {
	args := m.Called(ctx, identity, productID, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Review), args.Error(1)
}

func (m *MockReviewService) Update(ctx context.Context, identity models.Identity, id primitive.ObjectID, in services.ReviewInput) (*models.Review, error) {
	args := m.Called(ctx, identity, id, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Review), args.Error(1)
}

func (m *MockReviewService) Delete(ctx context.Context, identity models.Identity, id primitive.ObjectID) error {
	return m.Called(ctx, identity, id).Error(0)
}

type MockWishlistService struct{ mock.Mock }

func (m *MockWishlistService) list(args mock.Arguments) (*models.Wishlist, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Wishlist), args.Error(1)
}

func (m *MockWishlistService) Get(ctx context.Context, identity models.Identity) (*models.Wishlist, error) {
	return m.list(m.Called(ctx, identity))
}

func (m *MockWishlistService) Add(ctx context.Context, identity models.Identity, productID primitive.ObjectID) (*models.Wishlist, error) {
	return m.list(m.Called(ctx, identity, productID))
}

func (m *MockWishlistService) Remove(ctx context.Context, identity models.Identity, productID primitive.ObjectID) (*models.Wishlist, error) {
	return m.list(m.Called(ctx, identity, productID))
}

func (m *MockWishlistService) Clear(ctx context.Context, identity models.Identity) (*models.Wishlist, error) {
	return m.list(m.Called(ctx, identity))
}

func (m *MockWishlistService) Products(ctx context.Context, w *models.Wishlist) (map[primitive.ObjectID]models.Product, error) {
	args := m.Called(ctx, w)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[primitive.ObjectID]models.Product), args.Error(1)
}

type MockAuthService struct{ mock.Mock }

func (m *MockAuthService) session(args mock.Arguments) (*services.Session, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.Session), args.Error(1)
}

func (m *MockAuthService) Register(ctx context.Context, name, email, password string) (*services.Session, error) {
	return m.session(m.Called(ctx, name, email, password))
}

func (m *MockAuthService) Login(ctx context.Context, email, password string) (*services.Session, error) {
	return m.session(m.Called(ctx, email, password))
}

func (m *MockAuthService) Verify(ctx context.Context, token string) (*models.User, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockAuthService) Me(ctx context.Context, identity models.Identity) (*models.User, error) {
	args := m.Called(ctx, identity)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

// envelope mirrors controllers.Response with raw data for decoding.
type envelope struct {
	Success bool              `json:"success"`
	Data    json.RawMessage   `json:"data"`
	Message string            `json:"message"`
	Token   string            `json:"token"`
	Count   *int              `json:"count"`
	Total   *int64            `json:"total"`
	Page    *int              `json:"page"`
	Pages   *int              `json:"pages"`
	Errors  map[string]string `json:"errors"`
}

// call runs handler with the given identity and path variables.
func call(t *testing.T, handler http.HandlerFunc, method, target string, body any, identity models.Identity, vars map[string]string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if s, ok := body.(string); ok {
			buf.WriteString(s)
		} else {
			require.NoError(t, json.NewEncoder(&buf).Encode(body))
		}
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	if !identity.IsZero() {
		req = req.WithContext(middleware.WithIdentity(req.Context(), identity))
	}
	if vars != nil {
		req = mux.SetURLVars(req, vars)
	}
	rec := httptest.NewRecorder()
	handler(rec, req)

	var env envelope
	if rec.Header().Get("Content-Type") == "application/json" {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	}
	return rec, env
}
