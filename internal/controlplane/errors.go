package controlplane

import (
	"errors"
	"net/http"

	"github.com/fentz26/ordertasks/internal/orders"
	"github.com/fentz26/ordertasks/internal/store"
)

// Sentinel errors for control plane operations.
var (
	ErrNotFound     = errors.New("resource not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrConflict     = errors.New("conflict")
)

// statusFor maps service errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, ErrNotFound),
		errors.Is(err, orders.ErrOrderNotFound),
		errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrInvalidInput),
		errors.Is(err, orders.ErrInvalidStatus):
		return http.StatusBadRequest
	case errors.Is(err, ErrConflict),
		errors.Is(err, orders.ErrOrderTrashed),
		errors.Is(err, orders.ErrTransition):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
