package httpapi

import (
	"errors"
	"fmt"
	"net/http"

	"tableorder/order-svc/internal/auth"
	"tableorder/order-svc/internal/blob"
	"tableorder/order-svc/internal/cart"
	"tableorder/order-svc/internal/docstore"
	"tableorder/order-svc/internal/domain"
	"tableorder/order-svc/internal/service"
)

var (
	errUnauthenticated = errors.New("authentication required")
	errRateLimited     = errors.New("too many requests")
)

func errBadRequest(err error) error {
	return fmt.Errorf("%w: %v", service.ErrValidation, err)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrValidation),
		errors.Is(err, auth.ErrInvalidInput),
		errors.Is(err, domain.ErrInvalidStatus),
		errors.Is(err, cart.ErrEmpty),
		errors.Is(err, blob.ErrInvalidPath),
		errors.Is(err, blob.ErrTooLarge):
		return http.StatusBadRequest
	case errors.Is(err, errUnauthenticated),
		errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, service.ErrForbidden),
		errors.Is(err, auth.ErrRoleMismatch):
		return http.StatusForbidden
	case errors.Is(err, service.ErrNotFound),
		errors.Is(err, docstore.ErrNotFound),
		errors.Is(err, cart.ErrLineNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrDuplicateCategory),
		errors.Is(err, service.ErrCategoryInUse),
		errors.Is(err, auth.ErrEmailTaken),
		errors.Is(err, cart.ErrRestaurantMismatch),
		errors.Is(err, cart.ErrItemUnavailable):
		return http.StatusConflict
	case errors.Is(err, errRateLimited):
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// writeError hides internal failures behind a generic message and logs them.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		h.Log.WithError(err).WithFields(map[string]interface{}{
			"method": r.Method,
			"path":   r.URL.Path,
		}).Error("request failed")
		message = "internal server error"
	}
	writeJSON(w, status, map[string]string{"error": message})
}
