package api

import (
	"errors"
	"net/http"

	"github.com/lox/gridcast/internal/forecast"
)

// statusFor maps presenter errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, forecast.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, forecast.ErrSeriesTooShort):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
