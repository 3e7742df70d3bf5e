package routes

import (
	"net/http"

	"github.com/rotisserie/eris"

	"github.com/hunter-local/newsgraph/pkg/store"
)

// errorStatus maps store errors onto HTTP status codes. Anything outside the
// domain taxonomy is a 500; the transport layer does not retry store outages.
func errorStatus(err error) int {
	switch {
	case eris.Is(err, store.ErrValidation):
		return http.StatusBadRequest
	case eris.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case eris.Is(err, store.ErrConflict):
		return http.StatusConflict
	case eris.Is(err, store.ErrInvalidTransition):
		return http.StatusConflict
	case eris.Is(err, store.ErrInsufficientCredits):
		return http.StatusPaymentRequired
	default:
		return http.StatusInternalServerError
	}
}

// errorMessage keeps the client-facing message useful for 4xx and generic
// for 5xx.
func errorMessage(err error) string {
	if errorStatus(err) == http.StatusInternalServerError {
		return "Internal server error"
	}
	return err.Error()
}
