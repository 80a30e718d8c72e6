// internal/accounts/service.go
package accounts

import "context"

// Service defines the interface for the account directory. Lookups return
// (nil, nil) for unknown ids so read paths can treat dangling references
// permissively.
type Service interface {
	RegisterMember(ctx context.Context, m Member, password string) error
	RegisterMerchant(ctx context.Context, m Merchant, password string) error
	AuthenticateMember(ctx context.Context, cpf, password string) (*Member, error)
	AuthenticateMerchant(ctx context.Context, cnpj, password string) (*Merchant, error)
	GetMember(ctx context.Context, cpf string) (*Member, error)
	GetMerchant(ctx context.Context, cnpj string) (*Merchant, error)
}
