// internal/accounts/domain.go
package accounts

import "errors"

var (
	ErrAlreadyRegistered  = errors.New("document already registered")
	ErrInvalidDocument    = errors.New("invalid document number")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUnknownRole        = errors.New("unknown account role")
	ErrRateLimited        = errors.New("too many attempts, slow down")
)

// Account roles as the login endpoint receives them.
const (
	RoleMember   = "associado"
	RoleMerchant = "comercio"
)

// Member is an "associado": a person identified by CPF who reserves
// coupons. The JSON field names are the wire format the frontend expects.
type Member struct {
	CPF       string `json:"cpf_associado"`
	Name      string `json:"nom_associado"`
	BirthDate string `json:"dtn_associado"`
	Address   string `json:"end_associado"`
	District  string `json:"bairro_associado"`
	ZipCode   string `json:"cep_associado"`
	City      string `json:"cid_associado"`
	State     string `json:"uf_associado"`
	Phone     string `json:"cel_associado"`
	Email     string `json:"email_associado"`

	PasswordHash string `json:"-"`
	Salt         string `json:"-"`
}

// Merchant is a "comércio": a business identified by CNPJ that issues and
// redeems coupons, and belongs to one category.
type Merchant struct {
	CNPJ       string `json:"cnpj_comercio"`
	CategoryID string `json:"id_categoria"`
	LegalName  string `json:"raz_social_comercio"`
	TradeName  string `json:"nom_fantasia_comercio"`
	Address    string `json:"end_comercio"`
	District   string `json:"bairro_comercio"`
	ZipCode    string `json:"cep_comercio"`
	City       string `json:"cid_comercio"`
	State      string `json:"uf_comercio"`
	Contact    string `json:"con_comercio"`
	Email      string `json:"email_comercio"`

	PasswordHash string `json:"-"`
	Salt         string `json:"-"`
}
