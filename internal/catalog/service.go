// internal/catalog/service.go
package catalog

import "context"

// Service defines the interface for the category table.
type Service interface {
	List(ctx context.Context) ([]Category, error)
	Get(ctx context.Context, id string) (*Category, error)
	EnsureDefaults(ctx context.Context) error
}
