// internal/coupon/domain.go
package coupon

import (
	"errors"

	"github.com/google/uuid"
)

// Dates are fixed-width strings so lexicographic comparison matches
// chronological order. Timestamps follow the same rule.
const (
	DateLayout      = "2006-01-02"
	TimestampLayout = "2006-01-02 15:04:05"
)

// Listing filters, as the frontend sends them.
const (
	FilterActive   = "ativos"
	FilterRedeemed = "utilizados"
	FilterExpired  = "vencidos"
)

var (
	ErrCouponNotFound   = errors.New("coupon not found")
	ErrMerchantNotFound = errors.New("merchant not found")
	ErrOutsideValidity  = errors.New("coupon outside its validity window")
	ErrAlreadyReserved  = errors.New("coupon already reserved")
	ErrNotReserved      = errors.New("coupon has not been reserved")
	ErrAlreadyRedeemed  = errors.New("coupon already redeemed")
	ErrInvalidDate      = errors.New("invalid date")
	ErrInvalidPeriod    = errors.New("end date must be after start date")
	ErrInvalidQuantity  = errors.New("quantity must be positive")
	ErrInvalidFilter    = errors.New("unknown filter value")
)

// Coupon is one unit of a discount offer. Immutable after issuance; the
// merchant/category display names seen in API responses are query-time
// enrichment, never part of this record.
type Coupon struct {
	Code        string  `json:"num_cupom"`
	MerchantID  string  `json:"cnpj_comercio"`
	Title       string  `json:"tit_cupom"`
	IssuedOn    string  `json:"dta_emissao_cupom"`
	StartsOn    string  `json:"dta_inicio_cupom"`
	EndsOn      string  `json:"dta_termino_cupom"`
	DiscountPct float64 `json:"per_desc_cupom"`
}

// Reservation is the ledger entry recording that a member claimed a
// coupon. At most one exists per coupon code, ever. RedeemedAt is empty
// until the owning merchant registers the coupon's use.
type Reservation struct {
	ID         uuid.UUID `json:"id_cupom_associado"`
	CouponCode string    `json:"num_cupom"`
	MemberID   string    `json:"cpf_associado"`
	ReservedAt string    `json:"dta_cupom_associado"`
	RedeemedAt string    `json:"dta_uso_cupom_associado,omitempty"`
}

// Redeemed reports whether the reservation reached its terminal state.
func (r Reservation) Redeemed() bool { return r.RedeemedAt != "" }

// State is the derived lifecycle position of a coupon. It is computed
// fresh from the coupon, its ledger entry and "today" on every read;
// nothing stores it.
type State string

const (
	UnreservedActive  State = "unreserved-active"
	UnreservedExpired State = "unreserved-expired"
	ReservedActive    State = "reserved-active"
	ReservedExpired   State = "reserved-expired"
	Redeemed          State = "redeemed"
)

// Classify derives the lifecycle state of a coupon. res is nil when no
// ledger entry exists. Once redeemed the end date no longer matters.
func Classify(c Coupon, res *Reservation, today string) State {
	if res == nil {
		if today > c.EndsOn {
			return UnreservedExpired
		}
		return UnreservedActive
	}
	if res.Redeemed() {
		return Redeemed
	}
	if today > c.EndsOn {
		return ReservedExpired
	}
	return ReservedActive
}

// ReservableOn reports whether the coupon may be reserved on the given
// day. Unlike Classify, this also gates on the start date: a coupon whose
// window has not opened yet counts as active for its merchant but cannot
// be reserved or listed as available.
func ReservableOn(c Coupon, today string) bool {
	return c.StartsOn <= today && today <= c.EndsOn
}

// MerchantInfo is the slice of the account directory the coupon core
// needs: existence, display name and category for enrichment.
type MerchantInfo struct {
	CNPJ       string
	TradeName  string
	CategoryID string
}

// CategoryInfo is the category table entry used for enrichment.
type CategoryInfo struct {
	ID   string
	Name string
}
