package service

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"oeo-pos/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func checkedOut(t *testing.T, f *fixture, tenant domain.TenantID) *domain.Receipt {
	t.Helper()
	ctx := context.Background()
	p := f.store.seed(tenant, "Item", 100, 10)
	_, err := f.carts.AddItem(ctx, tenant, p.ID, 1)
	require.NoError(t, err)
	receipt, err := f.checkout.Checkout(ctx, tenant, CheckoutRequest{PaymentMethod: "cash"})
	require.NoError(t, err)
	return receipt
}

func TestReceiptService_GetAndList(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	first := checkedOut(t, f, domain.TenantOEO)
	second := checkedOut(t, f, domain.TenantOEO)
	second.IssuedAt = first.IssuedAt.Add(time.Minute)

	got, err := f.receipts.Get(ctx, domain.TenantOEO, first.ReceiptID)
	require.NoError(t, err)
	assert.Equal(t, first.ReceiptID, got.ReceiptID)

	_, err = f.receipts.Get(ctx, domain.TenantOEO, "")
	assert.Equal(t, domain.KindNotFound, domain.KindOf(err))

	list, total, err := f.receipts.List(ctx, domain.TenantOEO, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	require.Len(t, list, 1)
	assert.Equal(t, second.ReceiptID, list[0].ReceiptID)
}

func TestReceiptService_RenderPDF(t *testing.T) {
	f := newFixture()
	receipt := checkedOut(t, f, domain.TenantSupermart)

	got, pdf, err := f.receipts.RenderPDF(context.Background(), domain.TenantSupermart, receipt.ReceiptID)
	require.NoError(t, err)
	assert.Equal(t, receipt.ReceiptID, got.ReceiptID)
	assert.True(t, bytes.HasPrefix(pdf, []byte("%PDF-")))

	_, _, err = f.receipts.RenderPDF(context.Background(), domain.TenantOEO, receipt.ReceiptID)
	assert.Equal(t, domain.KindNotFound, domain.KindOf(err))
}

type failingRenderer struct{}

func (failingRenderer) Render(*domain.Receipt) ([]byte, error) {
	return nil, errors.Join(domain.ErrRenderFailure, errors.New("font missing"))
}

func TestReceiptService_RenderFailure(t *testing.T) {
	f := newFixture()
	receipt := checkedOut(t, f, domain.TenantOEO)
	svc := NewReceiptService(&mockReceiptRepository{store: f.store}, failingRenderer{})

	_, pdf, err := svc.RenderPDF(context.Background(), domain.TenantOEO, receipt.ReceiptID)
	assert.Nil(t, pdf)
	assert.Equal(t, domain.KindRenderFailure, domain.KindOf(err))
}

func TestReceiptIDs_AreUnique(t *testing.T) {
	gen := NewReceiptIDGenerator()
	seen := make(map[string]bool, 1000)

	for i := 0; i < 1000; i++ {
		id := gen.NewReceiptID(fixedNow)
		require.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	}
}

func TestReceiptIDs_AreUniqueAcrossGoroutines(t *testing.T) {
	gen := NewReceiptIDGenerator()
	var (
		mu   sync.Mutex
		seen = make(map[string]bool)
		wg   sync.WaitGroup
	)

	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 250; i++ {
				id := gen.NewReceiptID(time.Now())
				mu.Lock()
				seen[id] = true
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Len(t, seen, 2000)
}

func TestReceiptIDs_Format(t *testing.T) {
	id := NewReceiptIDGenerator().NewReceiptID(time.UnixMilli(1717243200000))
	assert.Regexp(t, `^REC-1717243200000-1-[0-9A-F]{8}$`, id)
}
