package controllers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/apperrors"
)

// Response is the envelope of every JSON response.
type Response struct {
	Success bool              `json:"success"`
	Data    any               `json:"data,omitempty"`
	Message string            `json:"message,omitempty"`
	Token   string            `json:"token,omitempty"`
	Count   *int              `json:"count,omitempty"`
	Total   *int64            `json:"total,omitempty"`
	Page    *int              `json:"page,omitempty"`
	Pages   *int              `json:"pages,omitempty"`
	Errors  map[string]string `json:"errors,omitempty"`
}

func respondWithJSON(w http.ResponseWriter, code int, payload Response) {
	response, err := json.Marshal(payload)
	if err != nil {
		log.Error().Err(err).Msg("Failed to marshal JSON response")
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"success":false,"message":"Server Error"}`))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if _, err := w.Write(response); err != nil {
		log.Error().Err(err).Msg("Failed to write JSON response")
	}
}

func respondWithData(w http.ResponseWriter, code int, data any) {
	respondWithJSON(w, code, Response{Success: true, Data: data})
}

// respondWithList adds the item count to the envelope.
func respondWithList[T any](w http.ResponseWriter, items []T) {
	if items == nil {
		items = []T{}
	}
	n := len(items)
	respondWithJSON(w, http.StatusOK, Response{Success: true, Data: items, Count: &n})
}

func respondWithMessage(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, Response{Success: code < 400, Message: message})
}

// respondWithError maps err to a status and writes its client message.
// Unexpected errors are logged and reported as "Server Error".
func respondWithError(w http.ResponseWriter, r *http.Request, err error) {
	code := mapErrorToStatusCode(err)
	message := apperrors.MessageOf(err)
	if code == http.StatusInternalServerError || message == "" {
		log.Error().Err(err).Str("method", r.Method).Str("path", r.URL.Path).Msg("Request failed")
		respondWithMessage(w, http.StatusInternalServerError, "Server Error")
		return
	}
	respondWithMessage(w, code, message)
}

func mapErrorToStatusCode(err error) int {
	switch {
	case errors.Is(err, apperrors.ErrInvalidInput),
		errors.Is(err, apperrors.ErrInvalidState),
		errors.Is(err, apperrors.ErrInsufficientStock),
		errors.Is(err, apperrors.ErrConflict):
		return http.StatusBadRequest
	case errors.Is(err, apperrors.ErrUnauthorized),
		errors.Is(err, apperrors.ErrForbidden):
		return http.StatusUnauthorized
	case errors.Is(err, apperrors.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// decodeJSON reads the request body into dst.
func decodeJSON(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return apperrors.InvalidInput("Request body is required")
		}
		return apperrors.InvalidInput("Invalid input")
	}
	return nil
}

// objectIDVar parses the named path variable as an ObjectID.
func objectIDVar(r *http.Request, name, label string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(mux.Vars(r)[name])
	if err != nil {
		return primitive.NilObjectID, apperrors.InvalidInput("Invalid %s ID", label)
	}
	return id, nil
}
