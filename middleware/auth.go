package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"

	"storefront/models"
	"storefront/utils"
)

// Key type for context
type contextKey string

const IdentityContextKey = contextKey("identity")

const (
	SessionHeader = "X-Session-Id"
	SessionCookie = "sid"
)

// TokenParser verifies bearer tokens.
type TokenParser interface {
	ParseJWT(token string) (*utils.Claims, error)
}

// Auth resolves the identity a request acts for.
type Auth struct {
	tokens       TokenParser
	secureCookie bool
}

func NewAuth(tokens TokenParser, secureCookie bool) *Auth {
	return &Auth{tokens: tokens, secureCookie: secureCookie}
}

// WithIdentity attaches identity to ctx.
func WithIdentity(ctx context.Context, identity models.Identity) context.Context {
	return context.WithValue(ctx, IdentityContextKey, identity)
}

// IdentityFrom returns the identity attached by the auth middlewares, or the
// zero identity.
func IdentityFrom(ctx context.Context) models.Identity {
	identity, _ := ctx.Value(IdentityContextKey).(models.Identity)
	return identity
}

// AuthMiddleware requires a valid bearer token and attaches the user identity.
func (a *Auth) AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenStr, ok := bearerToken(r)
		if !ok {
			writeError(w, http.StatusUnauthorized, "Not authorized, no token")
			return
		}
		identity, err := a.identityFromToken(tokenStr)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "Not authorized, token failed")
			return
		}
		next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), identity)))
	})
}

// OptionalAuthMiddleware attaches the user identity when a valid bearer token
// is sent and a guest session identity otherwise. A guest without a session
// gets a new one in the sid cookie and the X-Session-Id response header.
func (a *Auth) OptionalAuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if tokenStr, ok := bearerToken(r); ok {
			identity, err := a.identityFromToken(tokenStr)
			if err == nil {
				next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), identity)))
				return
			}
			log.Debug().Err(err).Msg("Ignoring invalid bearer token, continuing as guest")
		}

		sid := sessionID(r)
		if sid == "" {
			id, err := uuid.NewV4()
			if err != nil {
				log.Error().Err(err).Msg("Failed to create guest session")
				writeError(w, http.StatusInternalServerError, "Server Error")
				return
			}
			sid = id.String()
			http.SetCookie(w, &http.Cookie{
				Name:     SessionCookie,
				Value:    sid,
				Path:     "/",
				HttpOnly: true,
				Secure:   a.secureCookie,
				SameSite: http.SameSiteLaxMode,
			})
		}
		w.Header().Set(SessionHeader, sid)
		next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), models.Guest(sid))))
	})
}

// AdminMiddleware ensures that the user has admin privileges
func AdminMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !IdentityFrom(r.Context()).IsAdmin() {
			writeError(w, http.StatusForbidden, "Forbidden: Admins only")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (a *Auth) identityFromToken(tokenStr string) (models.Identity, error) {
	claims, err := a.tokens.ParseJWT(tokenStr)
	if err != nil {
		return models.Identity{}, err
	}
	return claims.Identity()
}

func bearerToken(r *http.Request) (string, bool) {
	parts := strings.Fields(r.Header.Get("Authorization"))
	if len(parts) != 2 || parts[0] != "Bearer" {
		return "", false
	}
	return parts[1], true
}

func sessionID(r *http.Request) string {
	if sid := strings.TrimSpace(r.Header.Get(SessionHeader)); sid != "" {
		return sid
	}
	if c, err := r.Cookie(SessionCookie); err == nil {
		return c.Value
	}
	return ""
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{"success": false, "message": message})
}
