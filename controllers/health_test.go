package controllers_test

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"storefront/controllers"
	"storefront/models"
)

func TestHealth(t *testing.T) {
	up := controllers.NewHealthController(func(context.Context) error { return nil })
	rec, env := call(t, up.Health, http.MethodGet, "/api/health", nil, models.Identity{}, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, env.Success)

	down := controllers.NewHealthController(func(context.Context) error { return errors.New("no reachable servers") })
	rec, env = call(t, down.Health, http.MethodGet, "/api/health", nil, models.Identity{}, nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "Database unavailable", env.Message)
}
