package httpx

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/ariefcatur/go-order-payments.git/internal/orders"
)

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func message(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"message": msg})
}

// writeError maps the workflow's sentinel errors onto HTTP statuses.
// Anything unrecognized is an internal fault and is not echoed to clients.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, orders.ErrUnauthenticated):
		message(w, http.StatusUnauthorized, "Unauthenticated.")
	case errors.Is(err, orders.ErrNotFound),
		errors.Is(err, orders.ErrPaymentNotFound):
		message(w, http.StatusNotFound, err.Error())
	case errors.Is(err, orders.ErrValidation):
		message(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, orders.ErrInvalidTransition),
		errors.Is(err, orders.ErrOrderNotPayable),
		errors.Is(err, orders.ErrUnknownItemReference),
		errors.Is(err, orders.ErrGatewayConfigInvalid),
		errors.Is(err, orders.ErrGatewayHasPayments),
		errors.Is(err, orders.ErrOrderHasPayment),
		errors.Is(err, orders.ErrGatewayNotImplemented),
		errors.Is(err, orders.ErrMalformedWebhook):
		message(w, http.StatusUnprocessableEntity, err.Error())
	default:
		log.Printf("internal error: %v", err)
		message(w, http.StatusInternalServerError, "internal error")
	}
}

type pageMeta struct {
	CurrentPage int `json:"current_page"`
	PerPage     int `json:"per_page"`
	Total       int `json:"total"`
	LastPage    int `json:"last_page"`
}

func meta(p orders.Page, total int) pageMeta {
	p = p.Normalize()
	last := (total + p.PerPage - 1) / p.PerPage
	if last < 1 {
		last = 1
	}
	return pageMeta{CurrentPage: p.Page, PerPage: p.PerPage, Total: total, LastPage: last}
}
