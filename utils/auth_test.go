package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/models"
)

func TestJWTRoundTrip(t *testing.T) {
	m := NewJWTManager("secret", time.Hour)
	user := models.User{ID: primitive.NewObjectID(), Email: "a@b.c", Role: models.RoleAdmin}

	token, err := m.GenerateJWT(user)
	require.NoError(t, err)

	claims, err := m.ParseJWT(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID.Hex(), claims.UserID)
	assert.Equal(t, "admin", claims.Role)

	id, err := claims.Identity()
	require.NoError(t, err)
	assert.True(t, id.Owns(user.ID))
	assert.True(t, id.IsAdmin())
}

func TestJWTRejects(t *testing.T) {
	user := models.User{ID: primitive.NewObjectID(), Role: models.RoleUser}

	other, err := NewJWTManager("other", time.Hour).GenerateJWT(user)
	require.NoError(t, err)
	_, err = NewJWTManager("secret", time.Hour).ParseJWT(other)
	assert.ErrorIs(t, err, ErrInvalidToken)

	expired := NewJWTManager("secret", time.Minute)
	expired.now = func() time.Time { return time.Now().Add(-time.Hour) }
	token, err := expired.GenerateJWT(user)
	require.NoError(t, err)
	_, err = expired.ParseJWT(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = expired.ParseJWT("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestClaimsIdentityBadID(t *testing.T) {
	_, err := (&Claims{UserID: "nope"}).Identity()
	assert.ErrorIs(t, err, ErrInvalidToken)
}
