// internal/coupon/service.go
package coupon

import "context"

// Service defines the interface for the coupon lifecycle service.
type Service interface {
	IssueBatch(ctx context.Context, merchantID, title, startsOn, endsOn string, discountPct float64, quantity int) ([]string, error)
	Reserve(ctx context.Context, code, memberID string) (*Reservation, error)
	Redeem(ctx context.Context, code, merchantID string) error

	ListMerchantCoupons(ctx context.Context, merchantID, filter string) ([]MerchantCouponView, error)
	ListAvailableCoupons(ctx context.Context, categoryID string) ([]CouponView, error)
	ListMemberReservations(ctx context.Context, memberID, filter string) ([]ReservationView, error)
}

// Directory provides read access to the account and category
// collaborators. Lookups return nil (not an error) for unknown ids so the
// read paths can skip dangling references.
type Directory interface {
	Merchant(ctx context.Context, cnpj string) (*MerchantInfo, error)
	Category(ctx context.Context, id string) (*CategoryInfo, error)
}

// CouponView is a coupon joined with merchant and category display names.
// The enrichment exists only in responses.
type CouponView struct {
	Coupon
	MerchantName string `json:"nom_fantasia_comercio,omitempty"`
	CategoryName string `json:"nom_categoria,omitempty"`
}

// MerchantCouponView is the merchant-facing listing row. The redemption
// fields are populated only under the "utilizados" filter.
type MerchantCouponView struct {
	Coupon
	RedeemedBy string `json:"cpf_associado,omitempty"`
	RedeemedAt string `json:"dta_uso,omitempty"`
}

// ReservationView is a ledger entry with its enriched coupon attached.
type ReservationView struct {
	Reservation
	Coupon CouponView `json:"cupom_info"`
}
