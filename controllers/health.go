package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
)

// HealthController reports whether the service can reach its database.
type HealthController struct {
	ping func(ctx context.Context) error
}

func NewHealthController(ping func(ctx context.Context) error) *HealthController {
	return &HealthController{ping: ping}
}

func (hc *HealthController) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := hc.ping(ctx); err != nil {
		log.Warn().Err(err).Msg("Health check failed")
		respondWithMessage(w, http.StatusServiceUnavailable, "Database unavailable")
		return
	}
	respondWithMessage(w, http.StatusOK, "OK")
}
