package cache

import (
	"context"
	"errors"

	"oeo-pos/internal/domain"
)

// CatalogCache holds the product list of each tenant. Every Delete bumps a
// per-tenant generation; Set only stores a list loaded under the current one.
type CatalogCache interface {
	Get(ctx context.Context, tenant domain.TenantID) ([]*domain.Product, error)
	// Generation must be read before the store read whose result is passed to Set.
	Generation(ctx context.Context, tenant domain.TenantID) (int64, error)
	Set(ctx context.Context, tenant domain.TenantID, generation int64, products []*domain.Product) error
	Delete(ctx context.Context, tenant domain.TenantID) error
}

var (
	ErrCacheMiss = errors.New("cache miss")
	// ErrStaleGeneration reports a Set skipped because the catalog was invalidated meanwhile
	ErrStaleGeneration = errors.New("catalog invalidated since load")
)

// NoopCache always misses. It is used when Redis is not configured.
type NoopCache struct{}

func (NoopCache) Get(context.Context, domain.TenantID) ([]*domain.Product, error) {
	return nil, ErrCacheMiss
}

func (NoopCache) Generation(context.Context, domain.TenantID) (int64, error) {
	return 0, nil
}

func (NoopCache) Set(context.Context, domain.TenantID, int64, []*domain.Product) error {
	return nil
}

func (NoopCache) Delete(context.Context, domain.TenantID) error {
	return nil
}
