package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"canteen-be/internal/checkout"
	"canteen-be/internal/logger"
	"canteen-be/internal/menu"
	"canteen-be/internal/order"

	"go.uber.org/zap"
)

type errorBody struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body != nil {
		_ = json.NewEncoder(w).Encode(body)
	}
}

// writeError maps domain sentinels to HTTP statuses. Unknown errors
// become opaque 500s so internals never leak to clients.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	message := "internal server error"

	switch {
	case errors.Is(err, checkout.ErrCartEmpty),
		errors.Is(err, checkout.ErrInvalidQuantity),
		errors.Is(err, checkout.ErrBelowMinimum),
		errors.Is(err, checkout.ErrPickupTimeRequired),
		errors.Is(err, checkout.ErrPickupOutsideHours),
		errors.Is(err, checkout.ErrPaymentNotCompleted),
		errors.Is(err, menu.ErrItemUnavailable):
		status = http.StatusBadRequest
		message = err.Error()

	case errors.Is(err, checkout.ErrUnauthorized):
		status = http.StatusUnauthorized
		message = err.Error()

	case errors.Is(err, order.ErrUnauthorized),
		errors.Is(err, menu.ErrUnauthorized):
		status = http.StatusForbidden
		message = err.Error()

	case errors.Is(err, order.ErrOrderNotFound),
		errors.Is(err, menu.ErrItemNotFound):
		status = http.StatusNotFound
		message = err.Error()

	case errors.Is(err, order.ErrConflict):
		status = http.StatusConflict
		message = err.Error()

	case errors.Is(err, checkout.ErrReconciliationGap):
		status = http.StatusBadGateway
		message = checkout.ErrReconciliationGap.Error()

	case errors.Is(err, context.DeadlineExceeded):
		status = http.StatusServiceUnavailable
		message = "upstream timeout, please retry"
	}

	if status == http.StatusInternalServerError {
		logger.FromCtx(r.Context()).Error("unhandled request error", zap.Error(err))
	}

	writeJSON(w, status, errorBody{Error: message})
}
