// internal/coupon/handler.go
package coupon

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// HandleIssue creates a batch of coupons for the merchant given by the
// cnpj query parameter.
func (h *Handler) HandleIssue(w http.ResponseWriter, r *http.Request) {
	merchantID := r.URL.Query().Get("cnpj")
	if merchantID == "" {
		http.Error(w, "missing cnpj", http.StatusBadRequest)
		return
	}

	var req struct {
		Title       string  `json:"tit_cupom"`
		StartsOn    string  `json:"dta_inicio_cupom"`
		EndsOn      string  `json:"dta_termino_cupom"`
		DiscountPct float64 `json:"per_desc_cupom"`
		Quantity    int     `json:"qtd_cupons"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	codes, err := h.service.IssueBatch(r.Context(), merchantID, req.Title, req.StartsOn, req.EndsOn, req.DiscountPct, req.Quantity)
	if err != nil {
		http.Error(w, err.Error(), statusFor(err))
		return
	}

	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"success": true,
		"message": fmt.Sprintf("%d cupons criados", len(codes)),
		"cupons":  codes,
	})
}

// HandleMerchantList lists a merchant's coupons under one filter.
func (h *Handler) HandleMerchantList(w http.ResponseWriter, r *http.Request) {
	merchantID := r.URL.Query().Get("cnpj")
	if merchantID == "" {
		http.Error(w, "missing cnpj", http.StatusBadRequest)
		return
	}
	filter := r.URL.Query().Get("filtro")
	if filter == "" {
		filter = FilterActive
	}

	views, err := h.service.ListMerchantCoupons(r.Context(), merchantID, filter)
	if err != nil {
		http.Error(w, err.Error(), statusFor(err))
		return
	}
	json.NewEncoder(w).Encode(views)
}

// HandleRedeem registers the use of a reserved coupon by its merchant.
func (h *Handler) HandleRedeem(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("num_cupom")
	merchantID := r.URL.Query().Get("cnpj")
	if code == "" || merchantID == "" {
		http.Error(w, "missing num_cupom or cnpj", http.StatusBadRequest)
		return
	}

	if err := h.service.Redeem(r.Context(), code, merchantID); err != nil {
		http.Error(w, err.Error(), statusFor(err))
		return
	}
	json.NewEncoder(w).Encode(map[string]interface{}{
		"success": true,
		"message": "uso do cupom registrado",
	})
}

// HandleAvailable lists coupons open for reservation, optionally filtered
// by merchant category.
func (h *Handler) HandleAvailable(w http.ResponseWriter, r *http.Request) {
	views, err := h.service.ListAvailableCoupons(r.Context(), r.URL.Query().Get("categoria"))
	if err != nil {
		http.Error(w, err.Error(), statusFor(err))
		return
	}
	json.NewEncoder(w).Encode(views)
}

// HandleReserve claims a coupon for a member.
func (h *Handler) HandleReserve(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("num_cupom")
	memberID := r.URL.Query().Get("cpf")
	if code == "" || memberID == "" {
		http.Error(w, "missing num_cupom or cpf", http.StatusBadRequest)
		return
	}

	res, err := h.service.Reserve(r.Context(), code, memberID)
	if err != nil {
		http.Error(w, err.Error(), statusFor(err))
		return
	}

	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"success": true,
		"message": "cupom reservado",
		"reserva": res,
	})
}

// HandleMemberList lists a member's reservations under one filter.
func (h *Handler) HandleMemberList(w http.ResponseWriter, r *http.Request) {
	memberID := r.URL.Query().Get("cpf")
	if memberID == "" {
		http.Error(w, "missing cpf", http.StatusBadRequest)
		return
	}
	filter := r.URL.Query().Get("filtro")
	if filter == "" {
		filter = FilterActive
	}

	views, err := h.service.ListMemberReservations(r.Context(), memberID, filter)
	if err != nil {
		http.Error(w, err.Error(), statusFor(err))
		return
	}
	json.NewEncoder(w).Encode(views)
}

// statusFor maps the three surfaced error kinds onto HTTP statuses:
// validation 400, not-found 404, conflict 409. Anything unrecognized is a
// server error.
func statusFor(err error) int {
	switch {
	case errors.Is(err, ErrCouponNotFound), errors.Is(err, ErrMerchantNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrAlreadyReserved), errors.Is(err, ErrAlreadyRedeemed):
		return http.StatusConflict
	case errors.Is(err, ErrOutsideValidity), errors.Is(err, ErrNotReserved),
		errors.Is(err, ErrInvalidDate), errors.Is(err, ErrInvalidPeriod),
		errors.Is(err, ErrInvalidQuantity), errors.Is(err, ErrInvalidFilter):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
