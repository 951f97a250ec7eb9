package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"storefront/apperrors"
	"storefront/models"
)

func newAuthFixture() (*AuthService, *memUsers, *MockNotifier) {
	users := newMemUsers()
	notifier := new(MockNotifier)
	svc := NewAuthService(users, stubTokens{}, notifier)
	svc.async = inline
	return svc, users, notifier
}

func TestRegisterLoginVerify(t *testing.T) {
	ctx := context.Background()
	svc, users, notifier := newAuthFixture()

	var token string
	notifier.On("SendVerificationEmail", "ada@example.com", mock.AnythingOfType("string")).
		Run(func(args mock.Arguments) { token = args.String(1) }).
		Return(nil).Once()

	session, err := svc.Register(ctx, "Ada", " Ada@Example.com ", "secret123")
	require.NoError(t, err)
	notifier.AssertExpectations(t)

	assert.Equal(t, "ada@example.com", session.User.Email)
	assert.Equal(t, models.RoleUser, session.User.Role)
	assert.False(t, session.User.IsVerified)
	assert.Equal(t, "token-"+session.User.ID.Hex(), session.Token)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(session.User.Password), []byte("secret123")))
	require.NotEmpty(t, token)

	_, err = svc.Login(ctx, "ada@example.com", "wrong")
	assert.True(t, errors.Is(err, apperrors.ErrUnauthorized))
	assert.Equal(t, "Invalid credentials", apperrors.MessageOf(err))

	_, err = svc.Login(ctx, "nobody@example.com", "secret123")
	assert.True(t, errors.Is(err, apperrors.ErrUnauthorized))

	logged, err := svc.Login(ctx, "ada@example.com", "secret123")
	require.NoError(t, err)
	assert.Equal(t, session.User.ID, logged.User.ID)

	verified, err := svc.Verify(ctx, token)
	require.NoError(t, err)
	assert.True(t, verified.IsVerified)

	_, err = svc.Verify(ctx, token)
	assert.True(t, errors.Is(err, apperrors.ErrNotFound), "tokens are single use")

	me, err := svc.Me(ctx, verified.Identity())
	require.NoError(t, err)
	assert.True(t, me.IsVerified)

	stored, _ := users.FindByID(ctx, verified.ID)
	assert.Empty(t, stored.VerificationToken)
}

func TestRegisterRejections(t *testing.T) {
	ctx := context.Background()
	svc, _, notifier := newAuthFixture()
	notifier.On("SendVerificationEmail", mock.Anything, mock.Anything).Return(errors.New("mail down"))

	_, err := svc.Register(ctx, "Ada", "ada@example.com", "secret123")
	require.NoError(t, err, "mail failures do not fail registration")

	tests := []struct {
		name, userName, email, password string
		kind                            error
	}{
		{"duplicate email", "Ada", "ADA@example.com", "secret123", apperrors.ErrConflict},
		{"short password", "Bob", "bob@example.com", "123", apperrors.ErrInvalidInput},
		{"blank name", " ", "carol@example.com", "secret123", apperrors.ErrInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Register(ctx, tt.userName, tt.email, tt.password)
			assert.True(t, errors.Is(err, tt.kind), "got %v", err)
		})
	}

	_, err = svc.Verify(ctx, "  ")
	assert.True(t, errors.Is(err, apperrors.ErrInvalidInput))

	_, err = svc.Me(ctx, models.Guest("sess"))
	assert.True(t, errors.Is(err, apperrors.ErrUnauthorized))
}
