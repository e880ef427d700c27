package service

import (
	"context"
	"errors"
	"fmt"

	"oeo-pos/internal/domain"
	"oeo-pos/internal/metrics"
	"oeo-pos/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CartService accumulates items into the single open cart of a tenant
type CartService interface {
	AddItem(ctx context.Context, tenant domain.TenantID, productID uuid.UUID, qty int) (*domain.Cart, error)
	GetCart(ctx context.Context, tenant domain.TenantID) (*domain.Cart, error)
}

type cartService struct {
	products repository.ProductRepository
	carts    repository.CartRepository
	tx       repository.TxManager
	metrics  *metrics.Metrics
	logger   *zap.Logger
	now      Clock
}

// NewCartService creates a new instance of CartService
func NewCartService(
	products repository.ProductRepository,
	carts repository.CartRepository,
	tx repository.TxManager,
	m *metrics.Metrics,
	logger *zap.Logger,
) CartService {
	return &cartService{
		products: products,
		carts:    carts,
		tx:       tx,
		metrics:  m,
		logger:   logger,
		now:      utcNow,
	}
}

// AddItem checks qty against the current stock without reserving it. Stock
// is only taken at checkout.
func (s *cartService) AddItem(ctx context.Context, tenant domain.TenantID, productID uuid.UUID, qty int) (*domain.Cart, error) {
	if !tenant.Valid() {
		return nil, domain.Invalid("unknown tenant %q", tenant)
	}
	if qty < 1 || qty > domain.MaxQuantity {
		return nil, domain.Invalid("quantity must be between 1 and %d", domain.MaxQuantity)
	}

	var cart *domain.Cart
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		product, err := s.products.FindByID(ctx, tenant, productID)
		if err != nil {
			return err
		}
		if !product.HasStock(qty) {
			return fmt.Errorf("%w: %s has %d left", domain.ErrOutOfStock, product.Name, product.Stock)
		}

		now := s.now()
		current, err := s.carts.LoadOrCreate(ctx, tenant, now)
		if err != nil {
			return err
		}

		if current.Quantity(product.ID) > domain.MaxQuantity-qty {
			return domain.Invalid("cart cannot hold more than %d of %s", domain.MaxQuantity, product.Name)
		}
		current.Add(product, qty, now)
		if err := s.carts.Save(ctx, current); err != nil {
			return err
		}

		cart = current
		return nil
	})

	s.metrics.ObserveCartAdd(tenant.String(), string(domain.KindOf(err)))
	if err != nil {
		s.logger.Debug("Add to cart rejected",
			zap.String("tenant", tenant.String()),
			zap.String("product_id", productID.String()),
			zap.Int("qty", qty),
			zap.Error(err),
		)
		return nil, err
	}

	return cart, nil
}

// GetCart returns the open cart, or an empty one when the tenant has none
func (s *cartService) GetCart(ctx context.Context, tenant domain.TenantID) (*domain.Cart, error) {
	if !tenant.Valid() {
		return nil, domain.Invalid("unknown tenant %q", tenant)
	}

	cart, err := s.carts.Find(ctx, tenant)
	if errors.Is(err, repository.ErrCartNotFound) {
		return domain.NewCart(tenant, s.now()), nil
	}
	if err != nil {
		return nil, err
	}
	return cart, nil
}
