package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"oeo-pos/internal/cache"
	"oeo-pos/internal/domain"
	"oeo-pos/internal/metrics"
	"oeo-pos/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// catalogLoadTimeout bounds a shared catalog load, which outlives any single caller
const catalogLoadTimeout = 10 * time.Second

// CatalogService reads the tenant product catalog
type CatalogService interface {
	ListProducts(ctx context.Context, tenant domain.TenantID) ([]*domain.Product, error)
	FindByBarcode(ctx context.Context, tenant domain.TenantID, barcode string) (*domain.Product, error)
	// ImportProducts stores products in one transaction and drops the cached catalog.
	ImportProducts(ctx context.Context, tenant domain.TenantID, products []*domain.Product) (int, error)
	Invalidate(ctx context.Context, tenant domain.TenantID)
}

type catalogService struct {
	products repository.ProductRepository
	tx       repository.TxManager
	cache    cache.CatalogCache
	metrics  *metrics.Metrics
	logger   *zap.Logger
	now      Clock
	loads    singleflight.Group
}

// NewCatalogService creates a CatalogService. Concurrent cache misses for the
// same tenant share a single store read.
func NewCatalogService(
	products repository.ProductRepository,
	tx repository.TxManager,
	catalogCache cache.CatalogCache,
	m *metrics.Metrics,
	logger *zap.Logger,
) CatalogService {
	if catalogCache == nil {
		catalogCache = cache.NoopCache{}
	}
	return &catalogService{
		products: products,
		tx:       tx,
		cache:    catalogCache,
		metrics:  m,
		logger:   logger,
		now:      utcNow,
	}
}

func (s *catalogService) ListProducts(ctx context.Context, tenant domain.TenantID) ([]*domain.Product, error) {
	if !tenant.Valid() {
		return nil, domain.Invalid("unknown tenant %q", tenant)
	}

	products, err := s.cache.Get(ctx, tenant)
	if err == nil {
		s.metrics.ObserveCatalogCache(true)
		return products, nil
	}
	if !errors.Is(err, cache.ErrCacheMiss) {
		s.logger.Warn("Catalog cache read failed", zap.String("tenant", tenant.String()), zap.Error(err))
	}
	s.metrics.ObserveCatalogCache(false)

	generation, err := s.cache.Generation(ctx, tenant)
	cacheable := err == nil
	if err != nil {
		s.logger.Warn("Catalog cache generation read failed", zap.String("tenant", tenant.String()), zap.Error(err))
	}

	// Loads started before an invalidation are not shared with later callers.
	flight := fmt.Sprintf("%s:%d:%t", tenant, generation, cacheable)
	ch := s.loads.DoChan(flight, func() (interface{}, error) {
		loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), catalogLoadTimeout)
		defer cancel()

		products, err := s.products.ListByTenant(loadCtx, tenant)
		if err != nil {
			return nil, err
		}
		if !cacheable {
			return products, nil
		}

		err = s.cache.Set(loadCtx, tenant, generation, products)
		switch {
		case errors.Is(err, cache.ErrStaleGeneration):
			s.logger.Debug("Catalog changed during load, not caching", zap.String("tenant", tenant.String()))
		case err != nil:
			s.logger.Warn("Catalog cache write failed", zap.String("tenant", tenant.String()), zap.Error(err))
		}
		return products, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]*domain.Product), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (s *catalogService) FindByBarcode(ctx context.Context, tenant domain.TenantID, barcode string) (*domain.Product, error) {
	if !tenant.Valid() {
		return nil, domain.Invalid("unknown tenant %q", tenant)
	}
	barcode = strings.TrimSpace(barcode)
	if barcode == "" {
		return nil, domain.Invalid("barcode is required")
	}
	return s.products.FindByBarcode(ctx, tenant, barcode)
}

func (s *catalogService) ImportProducts(ctx context.Context, tenant domain.TenantID, products []*domain.Product) (int, error) {
	if !tenant.Valid() {
		return 0, domain.Invalid("unknown tenant %q", tenant)
	}

	now := s.now()
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		for i, product := range products {
			if product.ID == uuid.Nil {
				product.ID = uuid.New()
			}
			product.TenantID = tenant
			if product.CreatedAt.IsZero() {
				product.CreatedAt = now
			}
			product.UpdatedAt = now
			if err := s.products.Create(ctx, product); err != nil {
				return fmt.Errorf("failed to import product %d (%s): %w", i, product.Name, err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	s.Invalidate(ctx, tenant)
	s.logger.Info("Products imported", zap.String("tenant", tenant.String()), zap.Int("count", len(products)))
	return len(products), nil
}

func (s *catalogService) Invalidate(ctx context.Context, tenant domain.TenantID) {
	if err := s.cache.Delete(ctx, tenant); err != nil {
		s.logger.Warn("Catalog cache invalidation failed", zap.String("tenant", tenant.String()), zap.Error(err))
	}
}
