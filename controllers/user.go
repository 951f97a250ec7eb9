package controllers

import (
	"context"
	"net/http"

	"storefront/middleware"
	"storefront/models"
	"storefront/services"
)

// AuthService is the account API used by UserController.
type AuthService interface {
	Register(ctx context.Context, name, email, password string) (*services.Session, error)
	Login(ctx context.Context, email, password string) (*services.Session, error)
	Verify(ctx context.Context, token string) (*models.User, error)
	Me(ctx context.Context, identity models.Identity) (*models.User, error)
}

type RegisterRequest struct {
	Name     string `json:"name" validate:"required,max=50"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// UserController handles user-related requests
type UserController struct {
	auth AuthService
}

// NewUserController creates a new UserController
func NewUserController(auth AuthService) *UserController {
	return &UserController{auth: auth}
}

// Register handles user registration
func (uc *UserController) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := decodeJSON(r, &req); err != nil {
		respondWithError(w, r, err)
		return
	}
	if !validateRequest(w, r, req) {
		return
	}

	session, err := uc.auth.Register(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, Response{
		Success: true,
		Token:   session.Token,
		Data:    session.User,
		Message: "User registered successfully. Please check your email to verify your account.",
	})
}

// VerifyEmail handles email verification
func (uc *UserController) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	user, err := uc.auth.Verify(r.Context(), r.URL.Query().Get("token"))
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, Response{
		Success: true,
		Data:    user,
		Message: "Email verified successfully.",
	})
}

// Login handles user authentication
func (uc *UserController) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		respondWithError(w, r, err)
		return
	}
	if !validateRequest(w, r, req) {
		return
	}

	session, err := uc.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, Response{Success: true, Token: session.Token, Data: session.User})
}

// GetProfile retrieves the authenticated user's profile
func (uc *UserController) GetProfile(w http.ResponseWriter, r *http.Request) {
	user, err := uc.auth.Me(r.Context(), middleware.IdentityFrom(r.Context()))
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	respondWithData(w, http.StatusOK, user)
}
