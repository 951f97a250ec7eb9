package controllers_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/apperrors"
	"storefront/controllers"
	"storefront/models"
	"storefront/services"
)

func TestRegister(t *testing.T) {
	auth := new(MockAuthService)
	uc := controllers.NewUserController(auth)

	user := &models.User{ID: primitive.NewObjectID(), Name: "Ada", Email: "ada@example.com", Password: "hash", VerificationToken: "secret"}
	auth.On("Register", mock.Anything, "Ada", "ada@example.com", "secret123").
		Return(&services.Session{Token: "jwt", User: user}, nil).Once()

	rec, env := call(t, uc.Register, http.MethodPost, "/api/auth/register",
		map[string]string{"name": "Ada", "email": "ada@example.com", "password": "secret123"}, models.Identity{}, nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "jwt", env.Token)
	assert.NotContains(t, string(env.Data), "hash")
	assert.NotContains(t, string(env.Data), "secret")

	rec, env = call(t, uc.Register, http.MethodPost, "/api/auth/register",
		map[string]string{"name": "Ada", "email": "not-an-email", "password": "123"}, models.Identity{}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Please provide a valid email", env.Errors["email"])
	assert.Equal(t, "password must be at least 6 characters", env.Errors["password"])
	auth.AssertExpectations(t)
}

func TestLogin(t *testing.T) {
	auth := new(MockAuthService)
	uc := controllers.NewUserController(auth)

	auth.On("Login", mock.Anything, "ada@example.com", "wrong").Return(nil, apperrors.Unauthorized("Invalid credentials")).Once()
	rec, env := call(t, uc.Login, http.MethodPost, "/api/auth/login",
		map[string]string{"email": "ada@example.com", "password": "wrong"}, models.Identity{}, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Invalid credentials", env.Message)
	auth.AssertExpectations(t)
}

func TestVerifyEmailAndProfile(t *testing.T) {
	auth := new(MockAuthService)
	uc := controllers.NewUserController(auth)
	user := &models.User{ID: primitive.NewObjectID(), Email: "ada@example.com", IsVerified: true, CreatedAt: time.Now()}

	auth.On("Verify", mock.Anything, "tok").Return(user, nil).Once()
	rec, _ := call(t, uc.VerifyEmail, http.MethodGet, "/api/auth/verify?token=tok", nil, models.Identity{}, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	identity := user.Identity()
	auth.On("Me", mock.Anything, identity).Return(user, nil).Once()
	rec, env := call(t, uc.GetProfile, http.MethodGet, "/api/auth/me", nil, identity, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var got models.User
	require.NoError(t, json.Unmarshal(env.Data, &got))
	assert.True(t, got.IsVerified)
	auth.AssertExpectations(t)
}

func TestReviewEndpoints(t *testing.T) {
	reviews := new(MockReviewService)
	rc := controllers.NewReviewController(reviews)
	user := models.Registered(primitive.NewObjectID(), models.RoleUser)
	productID := primitive.NewObjectID()

	reviews.On("Add", mock.Anything, user, productID, mock.MatchedBy(func(in services.ReviewInput) bool {
		return in.Rating != nil && *in.Rating == 5 && in.Title != nil && *in.Title == "Great" && in.Comment != nil
	})).Return(nil, apperrors.Conflict("You have already reviewed this product")).Once()

	rec, env := call(t, rc.AddReview, http.MethodPost, "/",
		map[string]any{"rating": 5, "title": "Great", "comment": "Love them"}, user, map[string]string{"productId": productID.Hex()})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "You have already reviewed this product", env.Message)

	reviews.On("List", mock.Anything, productID).Return([]models.Review{{Rating: 4}, {Rating: 2}}, nil).Once()
	rec, env = call(t, rc.GetReviews, http.MethodGet, "/", nil, models.Identity{}, map[string]string{"productId": productID.Hex()})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 2, *env.Count)

	id := primitive.NewObjectID()
	reviews.On("Delete", mock.Anything, user, id).Return(errors.New("socket closed")).Once()
	rec, env = call(t, rc.DeleteReview, http.MethodDelete, "/", nil, user, map[string]string{"id": id.Hex()})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Server Error", env.Message)
	reviews.AssertExpectations(t)
}

func TestWishlistEndpoints(t *testing.T) {
	wishlists := new(MockWishlistService)
	wc := controllers.NewWishlistController(wishlists)
	uid := primitive.NewObjectID()
	user := models.Registered(uid, models.RoleUser)
	productID := primitive.NewObjectID()

	list := models.NewWishlist(uid, time.Now())
	list.Add(productID, time.Now())

	wishlists.On("Add", mock.Anything, user, productID).Return(list, nil).Once()
	wishlists.On("Products", mock.Anything, list).Return(map[primitive.ObjectID]models.Product{
		productID: {ID: productID, Name: "Chicago"},
	}, nil).Once()

	rec, env := call(t, wc.AddToWishlist, http.MethodPost, "/", nil, user, map[string]string{"productId": productID.Hex()})
	require.Equal(t, http.StatusOK, rec.Code)
	var view controllers.WishlistView
	require.NoError(t, json.Unmarshal(env.Data, &view))
	require.Len(t, view.Products, 1)
	require.NotNil(t, view.Products[0].Product)
	assert.Equal(t, "Chicago", view.Products[0].Product.Name)

	wishlists.On("Add", mock.Anything, user, productID).Return(nil, apperrors.Conflict("Product already in wishlist")).Once()
	rec, env = call(t, wc.AddToWishlist, http.MethodPost, "/", nil, user, map[string]string{"productId": productID.Hex()})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Product already in wishlist", env.Message)
	wishlists.AssertExpectations(t)
}
