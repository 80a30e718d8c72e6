package coupon

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubService returns canned results so handler tests exercise only the
// HTTP surface.
type stubService struct {
	issueErr   error
	reserveErr error
	redeemErr  error
	listErr    error
}

func (s *stubService) IssueBatch(ctx context.Context, merchantID, title, startsOn, endsOn string, discountPct float64, quantity int) ([]string, error) {
	if s.issueErr != nil {
		return nil, s.issueErr
	}
	codes := make([]string, quantity)
	for i := range codes {
		codes[i] = "AA11BB22CC33"
	}
	return codes, nil
}

func (s *stubService) Reserve(ctx context.Context, code, memberID string) (*Reservation, error) {
	if s.reserveErr != nil {
		return nil, s.reserveErr
	}
	return &Reservation{CouponCode: code, MemberID: memberID, ReservedAt: "2024-01-15 10:00:00"}, nil
}

func (s *stubService) Redeem(ctx context.Context, code, merchantID string) error {
	return s.redeemErr
}

func (s *stubService) ListMerchantCoupons(ctx context.Context, merchantID, filter string) ([]MerchantCouponView, error) {
	return []MerchantCouponView{}, s.listErr
}

func (s *stubService) ListAvailableCoupons(ctx context.Context, categoryID string) ([]CouponView, error) {
	return []CouponView{}, s.listErr
}

func (s *stubService) ListMemberReservations(ctx context.Context, memberID, filter string) ([]ReservationView, error) {
	return []ReservationView{}, s.listErr
}

func TestHandleIssue(t *testing.T) {
	h := NewHandler(&stubService{})

	body := `{"tit_cupom":"Café grátis","dta_inicio_cupom":"2024-01-10","dta_termino_cupom":"2024-01-20","per_desc_cupom":15,"qtd_cupons":3}`
	req := httptest.NewRequest(http.MethodPost, "/api/cupons?cnpj=11222333000181", strings.NewReader(body))
	rr := httptest.NewRecorder()
	h.HandleIssue(rr, req)

	assert.Equal(t, http.StatusCreated, rr.Code)
	assert.Contains(t, rr.Body.String(), `"success":true`)
	assert.Contains(t, rr.Body.String(), "3 cupons criados")
}

func TestHandleIssueRequiresMerchant(t *testing.T) {
	h := NewHandler(&stubService{})

	req := httptest.NewRequest(http.MethodPost, "/api/cupons", strings.NewReader(`{}`))
	rr := httptest.NewRecorder()
	h.HandleIssue(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestHandleReserve(t *testing.T) {
	h := NewHandler(&stubService{})

	req := httptest.NewRequest(http.MethodPost, "/api/cupons/reservar?num_cupom=AA11BB22CC33&cpf=52998224725", nil)
	rr := httptest.NewRecorder()
	h.HandleReserve(rr, req)

	require.Equal(t, http.StatusCreated, rr.Code)
	assert.Contains(t, rr.Body.String(), `"reserva"`)
	assert.Contains(t, rr.Body.String(), "AA11BB22CC33")
}

func TestHandleRedeem(t *testing.T) {
	h := NewHandler(&stubService{})

	req := httptest.NewRequest(http.MethodPost, "/api/cupons/registrar-uso?num_cupom=AA11BB22CC33&cnpj=11222333000181", nil)
	rr := httptest.NewRecorder()
	h.HandleRedeem(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "uso do cupom registrado")
}

func TestErrorStatusMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"coupon not found", ErrCouponNotFound, http.StatusNotFound},
		{"merchant not found", ErrMerchantNotFound, http.StatusNotFound},
		{"already reserved", ErrAlreadyReserved, http.StatusConflict},
		{"already redeemed", ErrAlreadyRedeemed, http.StatusConflict},
		{"outside validity", ErrOutsideValidity, http.StatusBadRequest},
		{"not reserved", ErrNotReserved, http.StatusBadRequest},
		{"invalid date", ErrInvalidDate, http.StatusBadRequest},
		{"invalid period", ErrInvalidPeriod, http.StatusBadRequest},
		{"invalid quantity", ErrInvalidQuantity, http.StatusBadRequest},
		{"invalid filter", ErrInvalidFilter, http.StatusBadRequest},
		{"unexpected", context.DeadlineExceeded, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, statusFor(tt.err))
		})
	}
}

func TestHandleReserveSurfacesConflict(t *testing.T) {
	h := NewHandler(&stubService{reserveErr: ErrAlreadyReserved})

	req := httptest.NewRequest(http.MethodPost, "/api/cupons/reservar?num_cupom=AA11BB22CC33&cpf=52998224725", nil)
	rr := httptest.NewRecorder()
	h.HandleReserve(rr, req)

	assert.Equal(t, http.StatusConflict, rr.Code)
}

func TestListHandlersDefaultFilter(t *testing.T) {
	h := NewHandler(&stubService{})

	req := httptest.NewRequest(http.MethodGet, "/api/cupons?cnpj=11222333000181", nil)
	rr := httptest.NewRecorder()
	h.HandleMerchantList(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "[]\n", rr.Body.String())

	req = httptest.NewRequest(http.MethodGet, "/api/cupons/reservados?cpf=52998224725", nil)
	rr = httptest.NewRecorder()
	h.HandleMemberList(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/cupons/reservados", nil)
	rr = httptest.NewRecorder()
	h.HandleMemberList(rr, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code, "cpf is required")
}
