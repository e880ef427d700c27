package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"oeo-pos/internal/domain"

	"github.com/google/uuid"
)

var (
	ErrProductNotFound   = fmt.Errorf("product %w", domain.ErrNotFound)
	ErrCartNotFound      = fmt.Errorf("cart %w", domain.ErrNotFound)
	ErrReceiptNotFound   = fmt.Errorf("receipt %w", domain.ErrNotFound)
	ErrInsufficientStock = fmt.Errorf("insufficient stock: %w", domain.ErrOutOfStock)
	ErrDuplicateBarcode  = fmt.Errorf("barcode already registered: %w", domain.ErrInvalid)
	ErrDuplicateReceipt  = errors.New("receipt id already exists")
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// ProductRepository defines tenant scoped access to the catalog
type ProductRepository interface {
	Create(ctx context.Context, product *domain.Product) error
	FindByID(ctx context.Context, tenant domain.TenantID, id uuid.UUID) (*domain.Product, error)
	FindByBarcode(ctx context.Context, tenant domain.TenantID, barcode string) (*domain.Product, error)
	ListByTenant(ctx context.Context, tenant domain.TenantID) ([]*domain.Product, error)
	// DecrementStock takes qty units only when at least qty are available.
	DecrementStock(ctx context.Context, tenant domain.TenantID, id uuid.UUID, qty int) error
}

// CartRepository stores the single open cart of each tenant
type CartRepository interface {
	// LoadOrCreate returns the tenant cart, creating an empty one first if
	// needed. Inside a transaction the cart stays locked until commit.
	LoadOrCreate(ctx context.Context, tenant domain.TenantID, now time.Time) (*domain.Cart, error)
	// FindForUpdate is LoadOrCreate without the create.
	FindForUpdate(ctx context.Context, tenant domain.TenantID) (*domain.Cart, error)
	Find(ctx context.Context, tenant domain.TenantID) (*domain.Cart, error)
	Save(ctx context.Context, cart *domain.Cart) error
	Delete(ctx context.Context, tenant domain.TenantID) error
}

// ReceiptRepository stores issued receipts. Receipts are never updated.
type ReceiptRepository interface {
	Create(ctx context.Context, receipt *domain.Receipt) error
	FindByReceiptID(ctx context.Context, tenant domain.TenantID, receiptID string) (*domain.Receipt, error)
	List(ctx context.Context, tenant domain.TenantID, page, pageSize int) ([]*domain.Receipt, int, error)
}

// TxManager runs fn inside a store transaction. Repositories called with the
// context passed to fn take part in that transaction. Nested calls join the
// outer transaction.
type TxManager interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// Store bundles the repositories of one backing store
type Store struct {
	Products ProductRepository
	Carts    CartRepository
	Receipts ReceiptRepository
	Tx       TxManager

	ping  func(ctx context.Context) error
	close func(ctx context.Context) error
}

func (s *Store) Ping(ctx context.Context) error {
	if s.ping == nil {
		return nil
	}
	return s.ping(ctx)
}

func (s *Store) Close(ctx context.Context) error {
	if s.close == nil {
		return nil
	}
	return s.close(ctx)
}

// NormalizePage clamps pagination parameters and returns the row offset
func NormalizePage(page, pageSize int) (int, int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}
	return page, pageSize, (page - 1) * pageSize
}
