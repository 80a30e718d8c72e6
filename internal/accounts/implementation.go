// internal/accounts/implementation.go
package accounts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
	"golang.org/x/time/rate"

	"github.com/EduaroLourenco/pratica-extensionista/internal/identity"
)

const uniqueViolation = "23505"

// service implements the Service interface over Postgres. Registration
// uniqueness rides on the primary keys (cpf / cnpj); a concurrent
// duplicate registration surfaces as a unique violation, never as a
// read-then-write race.
type service struct {
	db          *sql.DB
	rateLimiter *rate.Limiter
}

// NewService creates a new account directory instance.
func NewService(db *sql.DB) Service {
	return &service{
		db:          db,
		rateLimiter: rate.NewLimiter(rate.Every(time.Second), 10),
	}
}

// RegisterMember validates the CPF checksum and creates the member.
func (s *service) RegisterMember(ctx context.Context, m Member, password string) error {
	if !s.rateLimiter.Allow() {
		return ErrRateLimited
	}
	if !identity.ValidCPF(m.CPF) {
		return fmt.Errorf("%w: cpf", ErrInvalidDocument)
	}

	hash, salt, err := hashPassword(password)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO members (cpf, name, birth_date, address, district, zip_code, city, state, phone, email, password_hash, salt)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`, m.CPF, m.Name, m.BirthDate, m.Address, m.District, m.ZipCode, m.City, m.State, m.Phone, m.Email, hash, salt)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == uniqueViolation {
			return ErrAlreadyRegistered
		}
		return fmt.Errorf("insert member: %w", err)
	}
	return nil
}

// RegisterMerchant validates the CNPJ checksum and creates the merchant.
func (s *service) RegisterMerchant(ctx context.Context, m Merchant, password string) error {
	if !s.rateLimiter.Allow() {
		return ErrRateLimited
	}
	if !identity.ValidCNPJ(m.CNPJ) {
		return fmt.Errorf("%w: cnpj", ErrInvalidDocument)
	}

	hash, salt, err := hashPassword(password)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO merchants (cnpj, category_id, legal_name, trade_name, address, district, zip_code, city, state, contact, email, password_hash, salt)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`, m.CNPJ, m.CategoryID, m.LegalName, m.TradeName, m.Address, m.District, m.ZipCode, m.City, m.State, m.Contact, m.Email, hash, salt)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == uniqueViolation {
			return ErrAlreadyRegistered
		}
		return fmt.Errorf("insert merchant: %w", err)
	}
	return nil
}

// AuthenticateMember verifies a member's credentials. Unknown CPF and
// wrong password are indistinguishable to the caller.
func (s *service) AuthenticateMember(ctx context.Context, cpf, password string) (*Member, error) {
	if !s.rateLimiter.Allow() {
		return nil, ErrRateLimited
	}

	m, err := s.GetMember(ctx, cpf)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, ErrInvalidCredentials
	}

	ok, err := verifyPassword(password, m.Salt, m.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("verify password: %w", err)
	}
	if !ok {
		return nil, ErrInvalidCredentials
	}
	return m, nil
}

// AuthenticateMerchant verifies a merchant's credentials.
func (s *service) AuthenticateMerchant(ctx context.Context, cnpj, password string) (*Merchant, error) {
	if !s.rateLimiter.Allow() {
		return nil, ErrRateLimited
	}

	m, err := s.GetMerchant(ctx, cnpj)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, ErrInvalidCredentials
	}

	ok, err := verifyPassword(password, m.Salt, m.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("verify password: %w", err)
	}
	if !ok {
		return nil, ErrInvalidCredentials
	}
	return m, nil
}

// GetMember retrieves a member by CPF, or nil when absent.
func (s *service) GetMember(ctx context.Context, cpf string) (*Member, error) {
	m := &Member{}
	err := s.db.QueryRowContext(ctx, `
		SELECT cpf, name, birth_date, address, district, zip_code, city, state, phone, email, password_hash, salt
		FROM members
		WHERE cpf = $1
	`, cpf).Scan(&m.CPF, &m.Name, &m.BirthDate, &m.Address, &m.District, &m.ZipCode, &m.City, &m.State, &m.Phone, &m.Email, &m.PasswordHash, &m.Salt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get member: %w", err)
	}
	return m, nil
}

// GetMerchant retrieves a merchant by CNPJ, or nil when absent.
func (s *service) GetMerchant(ctx context.Context, cnpj string) (*Merchant, error) {
	m := &Merchant{}
	err := s.db.QueryRowContext(ctx, `
		SELECT cnpj, category_id, legal_name, trade_name, address, district, zip_code, city, state, contact, email, password_hash, salt
		FROM merchants
		WHERE cnpj = $1
	`, cnpj).Scan(&m.CNPJ, &m.CategoryID, &m.LegalName, &m.TradeName, &m.Address, &m.District, &m.ZipCode, &m.City, &m.State, &m.Contact, &m.Email, &m.PasswordHash, &m.Salt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get merchant: %w", err)
	}
	return m, nil
}
