package httpx

import (
	"encoding/json"
	"net/http"

	"github.com/ariefcatur/go-order-payments.git/internal/auth"
	"github.com/ariefcatur/go-order-payments.git/internal/orders"
	"github.com/ariefcatur/go-order-payments.git/internal/workflow"
	"github.com/go-chi/chi/v5"
)

type GatewaysHandler struct {
	Svc  *workflow.Service
	Auth *auth.Service
}

func (h *GatewaysHandler) Register(r *chi.Mux) {
	r.Route("/gateways", func(r chi.Router) {
		r.Use(h.Auth.Middleware)
		r.Get("/", h.list)
		r.Post("/", h.create)
		r.Put("/{id}", h.update)
		r.Delete("/{id}", h.delete)
	})
}

func (h *GatewaysHandler) list(w http.ResponseWriter, r *http.Request) {
	list, err := h.Svc.ListGateways(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	if list == nil {
		list = []orders.Gateway{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": list})
}

func (h *GatewaysHandler) create(w http.ResponseWriter, r *http.Request) {
	var in workflow.GatewayInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		message(w, http.StatusBadRequest, "invalid json")
		return
	}
	gw, err := h.Svc.CreateGateway(r.Context(), in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"message": "Gateway created successfully.",
		"data":    gw,
	})
}

func (h *GatewaysHandler) update(w http.ResponseWriter, r *http.Request) {
	var in workflow.GatewayInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		message(w, http.StatusBadRequest, "invalid json")
		return
	}
	gw, err := h.Svc.UpdateGateway(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Gateway updated successfully.",
		"data":    gw,
	})
}

func (h *GatewaysHandler) delete(w http.ResponseWriter, r *http.Request) {
	if err := h.Svc.DeleteGateway(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Gateway deleted successfully."})
}
