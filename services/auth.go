package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"

	"storefront/apperrors"
	"storefront/models"
)

const MinPasswordLength = 6

// TokenIssuer signs access tokens for users.
type TokenIssuer interface {
	GenerateJWT(user models.User) (string, error)
}

// AuthService registers and authenticates users
type AuthService struct {
	users    UserStore
	tokens   TokenIssuer
	notifier AccountNotifier
	now      Clock
	async    func(func())
}

func NewAuthService(users UserStore, tokens TokenIssuer, notifier AccountNotifier) *AuthService {
	return &AuthService{
		users:    users,
		tokens:   tokens,
		notifier: notifier,
		now:      utcNow,
		async:    func(f func()) { go f() },
	}
}

// Session is a signed token and the user it belongs to.
type Session struct {
	Token string
	User  *models.User
}

// Register creates a customer account and sends a verification email.
func (s *AuthService) Register(ctx context.Context, name, email, password string) (*Session, error) {
	name, email = strings.TrimSpace(name), strings.ToLower(strings.TrimSpace(email))
	if name == "" || email == "" {
		return nil, apperrors.InvalidInput("Name and email are required")
	}
	if utf8.RuneCountInString(password) < MinPasswordLength {
		return nil, apperrors.InvalidInput("Password must be at least %d characters", MinPasswordLength)
	}

	hash, err := HashPassword(password)
	if err != nil {
		return nil, apperrors.Wrap(err, "hash password")
	}
	token, err := uuid.NewV4()
	if err != nil {
		return nil, apperrors.Wrap(err, "verification token")
	}

	user := &models.User{
		Name:              name,
		Email:             email,
		Password:          hash,
		Role:              models.RoleUser,
		VerificationToken: token.String(),
		CreatedAt:         s.now(),
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	log.Info().Str("user_id", user.ID.Hex()).Msg("User registered")

	if s.notifier != nil {
		to, tok := user.Email, user.VerificationToken
		s.async(func() {
			if err := s.notifier.SendVerificationEmail(to, tok); err != nil {
				log.Error().Err(err).Str("to", to).Msg("Failed to send verification email")
			}
		})
	}
	return s.session(user)
}

// Login checks the credentials and issues a token.
func (s *AuthService) Login(ctx context.Context, email, password string) (*Session, error) {
	user, err := s.users.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if errors.Is(err, apperrors.ErrNotFound) {
		return nil, apperrors.Unauthorized("Invalid credentials")
	}
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		log.Warn().Str("user_id", user.ID.Hex()).Msg("Login failed: wrong password")
		return nil, apperrors.Unauthorized("Invalid credentials")
	}
	return s.session(user)
}

// Verify confirms the email address that received token.
func (s *AuthService) Verify(ctx context.Context, token string) (*models.User, error) {
	if strings.TrimSpace(token) == "" {
		return nil, apperrors.InvalidInput("Verification token is required")
	}
	return s.users.Verify(ctx, token)
}

// Me returns the caller's account.
func (s *AuthService) Me(ctx context.Context, identity models.Identity) (*models.User, error) {
	uid, err := requireUser(identity)
	if err != nil {
		return nil, err
	}
	return s.users.FindByID(ctx, uid)
}

func (s *AuthService) session(user *models.User) (*Session, error) {
	token, err := s.tokens.GenerateJWT(*user)
	if err != nil {
		return nil, apperrors.Wrap(err, "issue token")
	}
	return &Session{Token: token, User: user}, nil
}

// HashPassword hashes a password with the cost used for accounts.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
