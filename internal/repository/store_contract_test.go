package repository

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"oeo-pos/internal/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newProduct(tenant domain.TenantID, name string, price int64, stock int) *domain.Product {
	now := time.Now().UTC().Truncate(time.Millisecond)
	return &domain.Product{
		ID:        uuid.New(),
		TenantID:  tenant,
		Name:      name,
		Price:     decimal.NewFromInt(price),
		Stock:     stock,
		Category:  "general",
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func newReceipt(tenant domain.TenantID, id string, issuedAt time.Time) *domain.Receipt {
	cart := domain.NewCart(tenant, issuedAt)
	cart.Add(newProduct(tenant, "Rice 5kg", 100, 10), 3, issuedAt)
	return domain.NewReceipt(id, cart, domain.Sale{
		PaymentMethod: domain.PaymentCash,
		CustomerName:  "Ada",
		Cashier:       "Cashier",
	}, issuedAt)
}

// runStoreContract exercises the behavior every Store implementation must share
func runStoreContract(t *testing.T, store *Store, reset func(t *testing.T)) {
	ctx := context.Background()

	t.Run("products are scoped by tenant", func(t *testing.T) {
		reset(t)
		barcode := "5901234123457"
		p := newProduct(domain.TenantOEO, "Milk", 100, 5)
		p.Barcode = &barcode
		require.NoError(t, store.Products.Create(ctx, p))

		found, err := store.Products.FindByID(ctx, domain.TenantOEO, p.ID)
		require.NoError(t, err)
		assert.Equal(t, p.Name, found.Name)
		assert.True(t, p.Price.Equal(found.Price))
		assert.Equal(t, 5, found.Stock)

		byBarcode, err := store.Products.FindByBarcode(ctx, domain.TenantOEO, barcode)
		require.NoError(t, err)
		assert.Equal(t, p.ID, byBarcode.ID)

		_, err = store.Products.FindByID(ctx, domain.TenantSupermart, p.ID)
		assert.ErrorIs(t, err, ErrProductNotFound)
		_, err = store.Products.FindByBarcode(ctx, domain.TenantSupermart, barcode)
		assert.ErrorIs(t, err, ErrProductNotFound)

		others, err := store.Products.ListByTenant(ctx, domain.TenantSupermart)
		require.NoError(t, err)
		assert.Empty(t, others)
	})

	t.Run("barcode is unique per tenant", func(t *testing.T) {
		reset(t)
		barcode := "4006381333931"
		first := newProduct(domain.TenantOEO, "Pen", 50, 1)
		first.Barcode = &barcode
		require.NoError(t, store.Products.Create(ctx, first))

		dup := newProduct(domain.TenantOEO, "Pencil", 40, 1)
		dup.Barcode = &barcode
		err := store.Products.Create(ctx, dup)
		assert.ErrorIs(t, err, ErrDuplicateBarcode)
		assert.Equal(t, domain.KindInvalid, domain.KindOf(err))

		elsewhere := newProduct(domain.TenantSupermart, "Pen", 50, 1)
		elsewhere.Barcode = &barcode
		assert.NoError(t, store.Products.Create(ctx, elsewhere))
	})

	t.Run("list orders products by name", func(t *testing.T) {
		reset(t)
		for _, name := range []string{"Sugar", "Beans", "Oil"} {
			require.NoError(t, store.Products.Create(ctx, newProduct(domain.TenantEquiplease, name, 10, 1)))
		}

		products, err := store.Products.ListByTenant(ctx, domain.TenantEquiplease)
		require.NoError(t, err)
		require.Len(t, products, 3)
		assert.Equal(t, "Beans", products[0].Name)
		assert.Equal(t, "Oil", products[1].Name)
		assert.Equal(t, "Sugar", products[2].Name)
	})

	t.Run("decrement stock is conditional", func(t *testing.T) {
		reset(t)
		p := newProduct(domain.TenantOEO, "Bread", 80, 5)
		require.NoError(t, store.Products.Create(ctx, p))

		require.NoError(t, store.Products.DecrementStock(ctx, domain.TenantOEO, p.ID, 2))
		assert.ErrorIs(t, store.Products.DecrementStock(ctx, domain.TenantOEO, p.ID, 4), ErrInsufficientStock)
		assert.ErrorIs(t, store.Products.DecrementStock(ctx, domain.TenantSupermart, p.ID, 1), ErrProductNotFound)
		assert.ErrorIs(t, store.Products.DecrementStock(ctx, domain.TenantOEO, uuid.New(), 1), ErrProductNotFound)

		found, err := store.Products.FindByID(ctx, domain.TenantOEO, p.ID)
		require.NoError(t, err)
		assert.Equal(t, 3, found.Stock)
	})

	t.Run("cart is keyed by tenant", func(t *testing.T) {
		reset(t)
		now := time.Now().UTC().Truncate(time.Millisecond)

		_, err := store.Carts.Find(ctx, domain.TenantOEO)
		assert.ErrorIs(t, err, ErrCartNotFound)

		cart, err := store.Carts.LoadOrCreate(ctx, domain.TenantOEO, now)
		require.NoError(t, err)
		assert.True(t, cart.IsEmpty())

		cart.Add(newProduct(domain.TenantOEO, "Eggs", 100, 5), 2, now)
		require.NoError(t, store.Carts.Save(ctx, cart))

		again, err := store.Carts.LoadOrCreate(ctx, domain.TenantOEO, now.Add(time.Minute))
		require.NoError(t, err)
		require.Len(t, again.Items, 1)
		assert.Equal(t, 2, again.Items[0].Quantity)
		assert.True(t, decimal.NewFromInt(200).Equal(again.Total))
		assert.True(t, decimal.NewFromInt(200).Equal(again.Items[0].Subtotal))

		_, err = store.Carts.Find(ctx, domain.TenantSupermart)
		assert.ErrorIs(t, err, ErrCartNotFound)

		require.NoError(t, store.Carts.Delete(ctx, domain.TenantOEO))
		assert.ErrorIs(t, store.Carts.Delete(ctx, domain.TenantOEO), ErrCartNotFound)
		_, err = store.Carts.FindForUpdate(ctx, domain.TenantOEO)
		assert.ErrorIs(t, err, ErrCartNotFound)
	})

	t.Run("transaction rolls back every write on error", func(t *testing.T) {
		reset(t)
		p := newProduct(domain.TenantOEO, "Tea", 30, 4)
		require.NoError(t, store.Products.Create(ctx, p))

		boom := errors.New("boom")
		err := store.Tx.WithinTransaction(ctx, func(ctx context.Context) error {
			if err := store.Products.DecrementStock(ctx, domain.TenantOEO, p.ID, 3); err != nil {
				return err
			}
			cart, err := store.Carts.LoadOrCreate(ctx, domain.TenantOEO, time.Now().UTC())
			if err != nil {
				return err
			}
			cart.Add(p, 1, time.Now().UTC())
			if err := store.Carts.Save(ctx, cart); err != nil {
				return err
			}
			return boom
		})
		assert.ErrorIs(t, err, boom)

		found, err := store.Products.FindByID(ctx, domain.TenantOEO, p.ID)
		require.NoError(t, err)
		assert.Equal(t, 4, found.Stock)
		_, err = store.Carts.Find(ctx, domain.TenantOEO)
		assert.ErrorIs(t, err, ErrCartNotFound)
	})

	t.Run("transaction commits on success", func(t *testing.T) {
		reset(t)
		p := newProduct(domain.TenantOEO, "Coffee", 30, 4)
		require.NoError(t, store.Products.Create(ctx, p))

		err := store.Tx.WithinTransaction(ctx, func(ctx context.Context) error {
			return store.Products.DecrementStock(ctx, domain.TenantOEO, p.ID, 4)
		})
		require.NoError(t, err)

		found, err := store.Products.FindByID(ctx, domain.TenantOEO, p.ID)
		require.NoError(t, err)
		assert.Equal(t, 0, found.Stock)
	})

	t.Run("receipts are unique and listed newest first", func(t *testing.T) {
		reset(t)
		base := time.Now().UTC().Truncate(time.Millisecond)
		for i := 0; i < 3; i++ {
			r := newReceipt(domain.TenantSupermart, fmt.Sprintf("REC-%d", i), base.Add(time.Duration(i)*time.Minute))
			require.NoError(t, store.Receipts.Create(ctx, r))
		}

		err := store.Receipts.Create(ctx, newReceipt(domain.TenantSupermart, "REC-1", base))
		assert.ErrorIs(t, err, ErrDuplicateReceipt)
		assert.Equal(t, domain.KindPersistence, domain.KindOf(err))

		found, err := store.Receipts.FindByReceiptID(ctx, domain.TenantSupermart, "REC-2")
		require.NoError(t, err)
		assert.Equal(t, domain.PaymentCash, found.PaymentMethod)
		assert.Equal(t, "Ada", found.CustomerName)
		require.Len(t, found.Items, 1)
		assert.Equal(t, 3, found.Items[0].Quantity)
		assert.True(t, decimal.NewFromInt(300).Equal(found.Total))
		assert.WithinDuration(t, base.Add(2*time.Minute), found.IssuedAt, time.Millisecond)

		_, err = store.Receipts.FindByReceiptID(ctx, domain.TenantOEO, "REC-2")
		assert.ErrorIs(t, err, ErrReceiptNotFound)

		page, total, err := store.Receipts.List(ctx, domain.TenantSupermart, 1, 2)
		require.NoError(t, err)
		assert.Equal(t, 3, total)
		require.Len(t, page, 2)
		assert.Equal(t, "REC-2", page[0].ReceiptID)
		assert.Equal(t, "REC-1", page[1].ReceiptID)

		page, _, err = store.Receipts.List(ctx, domain.TenantSupermart, 2, 2)
		require.NoError(t, err)
		require.Len(t, page, 1)
		assert.Equal(t, "REC-0", page[0].ReceiptID)

		none, total, err := store.Receipts.List(ctx, domain.TenantOEO, 1, 10)
		require.NoError(t, err)
		assert.Zero(t, total)
		assert.Empty(t, none)
	})
}
