// internal/accounts/handler.go
package accounts

import (
	"encoding/json"
	"errors"
	"net/http"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// HandleRegisterMember registers an "associado".
func (h *Handler) HandleRegisterMember(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Member
		Password string `json:"sen_associado"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.service.RegisterMember(r.Context(), req.Member, req.Password); err != nil {
		http.Error(w, err.Error(), statusFor(err))
		return
	}

	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"success": true,
		"message": "associado cadastrado",
	})
}

// HandleRegisterMerchant registers a "comércio".
func (h *Handler) HandleRegisterMerchant(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Merchant
		Password string `json:"sen_comercio"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.service.RegisterMerchant(r.Context(), req.Merchant, req.Password); err != nil {
		http.Error(w, err.Error(), statusFor(err))
		return
	}

	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"success": true,
		"message": "comércio cadastrado",
	})
}

// HandleLogin authenticates either role, selected by the "tipo" field.
// Session issuance is out of scope; the caller just gets the account.
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Identifier string `json:"identificador"`
		Password   string `json:"senha"`
		Role       string `json:"tipo"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var user interface{}
	switch req.Role {
	case RoleMember:
		m, err := h.service.AuthenticateMember(r.Context(), req.Identifier, req.Password)
		if err != nil {
			http.Error(w, err.Error(), statusFor(err))
			return
		}
		user = m
	case RoleMerchant:
		m, err := h.service.AuthenticateMerchant(r.Context(), req.Identifier, req.Password)
		if err != nil {
			http.Error(w, err.Error(), statusFor(err))
			return
		}
		user = m
	default:
		http.Error(w, ErrUnknownRole.Error(), http.StatusBadRequest)
		return
	}

	json.NewEncoder(w).Encode(map[string]interface{}{
		"success": true,
		"tipo":    req.Role,
		"user":    user,
	})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, ErrInvalidDocument), errors.Is(err, ErrUnknownRole):
		return http.StatusBadRequest
	case errors.Is(err, ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, ErrAlreadyRegistered):
		return http.StatusConflict
	case errors.Is(err, ErrRateLimited):
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}
