package httpx

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/ariefcatur/go-order-payments.git/internal/auth"
	"github.com/ariefcatur/go-order-payments.git/internal/orders"
	"github.com/ariefcatur/go-order-payments.git/internal/workflow"
	"github.com/go-chi/chi/v5"
)

type PaymentsHandler struct {
	Svc  *workflow.Service
	Auth *auth.Service
}

func (h *PaymentsHandler) Register(r *chi.Mux) {
	// Webhook stays public; provider feeds cannot authenticate as a user.
	// Transport-level signature checks are each plugin's concern.
	r.Post("/payments/webhook/{gateway}", h.webhook)

	r.Group(func(r chi.Router) {
		r.Use(h.Auth.Middleware)
		r.Post("/orders/{id}/payments/process", h.process)
		r.Get("/payments", h.list)
	})
}

func (h *PaymentsHandler) process(w http.ResponseWriter, r *http.Request) {
	var in workflow.PaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		message(w, http.StatusBadRequest, "invalid json")
		return
	}
	if in.GatewayID == "" {
		message(w, http.StatusBadRequest, "gateway_id is required")
		return
	}
	p, err := h.Svc.ProcessPayment(r.Context(), auth.UserID(r.Context()), chi.URLParam(r, "id"), in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"message": "Payment initialized.",
		"data":    p,
	})
}

func (h *PaymentsHandler) webhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		message(w, http.StatusBadRequest, "unreadable body")
		return
	}
	p, err := h.Svc.ApplyWebhook(r.Context(), chi.URLParam(r, "gateway"), body)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Webhook processed.",
		"data":    p,
	})
}

func (h *PaymentsHandler) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := orders.PaymentFilter{
		OrderID: q.Get("order_id"),
		Page:    pageParams(q.Get("page"), q.Get("per_page")),
	}
	list, total, err := h.Svc.ListPayments(r.Context(), f)
	if err != nil {
		writeError(w, err)
		return
	}
	if list == nil {
		list = []orders.Payment{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"data": list,
		"meta": meta(f.Page, total),
	})
}
