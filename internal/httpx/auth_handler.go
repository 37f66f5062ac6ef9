package httpx

import (
	"encoding/json"
	"net/http"

	"github.com/ariefcatur/go-order-payments.git/internal/auth"
	"github.com/go-chi/chi/v5"
)

type AuthHandler struct {
	Auth *auth.Service
}

func (h *AuthHandler) Register(r *chi.Mux) {
	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", h.register)
		r.Post("/login", h.login)
		r.Group(func(r chi.Router) {
			r.Use(h.Auth.Middleware)
			r.Get("/me", h.me)
			r.Post("/refresh", h.refresh)
			r.Post("/logout", h.logout)
		})
	})
}

func (h *AuthHandler) register(w http.ResponseWriter, r *http.Request) {
	var in auth.RegisterInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		message(w, http.StatusBadRequest, "invalid json")
		return
	}
	tok, err := h.Auth.Register(r.Context(), in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, tok)
}

func (h *AuthHandler) login(w http.ResponseWriter, r *http.Request) {
	var in auth.Credentials
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		message(w, http.StatusBadRequest, "invalid json")
		return
	}
	tok, err := h.Auth.Login(r.Context(), in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tok)
}

func (h *AuthHandler) refresh(w http.ResponseWriter, r *http.Request) {
	tok, err := h.Auth.Refresh(r.Context(), auth.BearerToken(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tok)
}

func (h *AuthHandler) logout(w http.ResponseWriter, r *http.Request) {
	if err := h.Auth.Logout(r.Context(), auth.BearerToken(r)); err != nil {
		writeError(w, err)
		return
	}
	message(w, http.StatusOK, "Successfully logged out")
}

func (h *AuthHandler) me(w http.ResponseWriter, r *http.Request) {
	u, err := h.Auth.Me(r.Context(), auth.UserID(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}
