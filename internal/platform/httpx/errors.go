// Package httpx provides HTTP response utilities.
package httpx

import (
	"errors"
	"net/http"
)

// Sentinel errors for domain layer.
var (
	ErrNotFound     = errors.New("resource not found")
	ErrValidation   = errors.New("validation failed")
	ErrUnauthorized = errors.New("unauthorized")
)

// RespondError maps domain errors to HTTP responses using RFC7807. detail is
// written as given for every status and err itself is never serialised, so
// callers pass a user-facing message and log the cause.
func RespondError(w http.ResponseWriter, err error, detail string) {
	switch {
	case errors.Is(err, ErrNotFound):
		Problem(w, http.StatusNotFound, "No encontrado", detail)
	case errors.Is(err, ErrValidation):
		Problem(w, http.StatusBadRequest, "Parámetro inválido", detail)
	case errors.Is(err, ErrUnauthorized):
		Problem(w, http.StatusUnauthorized, "No autorizado", detail)
	default:
		Problem(w, http.StatusInternalServerError, "Error interno", detail)
	}
}
