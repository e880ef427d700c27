package service

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"oeo-pos/internal/cache"
	"oeo-pos/internal/domain"
	"oeo-pos/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var zapNop = zap.NewNop()

// memStore is an in-memory backing store shared by the mock repositories.
// mockTxManager snapshots it so failed transactions leave no trace.
type memStore struct {
	mu       sync.Mutex
	txMu     sync.Mutex
	products map[uuid.UUID]domain.Product
	carts    map[domain.TenantID]*domain.Cart
	receipts []*domain.Receipt

	failReceiptCreate error
	listCalls         atomic.Int32
	listGate          chan struct{}
	afterList         func()
}

type memSnapshot struct {
	products map[uuid.UUID]domain.Product
	carts    map[domain.TenantID]*domain.Cart
	receipts []*domain.Receipt
}

func newMemStore() *memStore {
	return &memStore{
		products: make(map[uuid.UUID]domain.Product),
		carts:    make(map[domain.TenantID]*domain.Cart),
	}
}

func (s *memStore) snapshot() memSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := memSnapshot{
		products: make(map[uuid.UUID]domain.Product, len(s.products)),
		carts:    make(map[domain.TenantID]*domain.Cart, len(s.carts)),
		receipts: append([]*domain.Receipt(nil), s.receipts...),
	}
	for id, p := range s.products {
		snap.products[id] = p
	}
	for tenant, c := range s.carts {
		snap.carts[tenant] = c.Clone()
	}
	return snap
}

func (s *memStore) restore(snap memSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products = snap.products
	s.carts = snap.carts
	s.receipts = snap.receipts
}

// seed stores a product directly, bypassing validation
func (s *memStore) seed(tenant domain.TenantID, name string, price int64, stock int) *domain.Product {
	p := domain.Product{
		ID:       uuid.New(),
		TenantID: tenant,
		Name:     name,
		Price:    decimal.NewFromInt(price),
		Stock:    stock,
	}
	s.mu.Lock()
	s.products[p.ID] = p
	s.mu.Unlock()
	return &p
}

func (s *memStore) stock(id uuid.UUID) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.products[id].Stock
}

func (s *memStore) setStock(id uuid.UUID, stock int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.products[id]
	p.Stock = stock
	s.products[id] = p
}

func (s *memStore) receiptCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.receipts)
}

type mockTxManager struct {
	store *memStore
}

func (m *mockTxManager) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	m.store.txMu.Lock()
	defer m.store.txMu.Unlock()

	snap := m.store.snapshot()
	if err := fn(ctx); err != nil {
		m.store.restore(snap)
		return err
	}
	return nil
}

type mockProductRepository struct {
	store *memStore
}

func (m *mockProductRepository) Create(ctx context.Context, product *domain.Product) error {
	if err := product.Validate(); err != nil {
		return err
	}
	m.store.mu.Lock()
	defer m.store.mu.Unlock()

	if product.Barcode != nil {
		for _, p := range m.store.products {
			if p.TenantID == product.TenantID && p.Barcode != nil && *p.Barcode == *product.Barcode {
				return repository.ErrDuplicateBarcode
			}
		}
	}
	m.store.products[product.ID] = *product
	return nil
}

func (m *mockProductRepository) FindByID(ctx context.Context, tenant domain.TenantID, id uuid.UUID) (*domain.Product, error) {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()

	p, ok := m.store.products[id]
	if !ok || p.TenantID != tenant {
		return nil, repository.ErrProductNotFound
	}
	return &p, nil
}

func (m *mockProductRepository) FindByBarcode(ctx context.Context, tenant domain.TenantID, barcode string) (*domain.Product, error) {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()

	for _, p := range m.store.products {
		if p.TenantID == tenant && p.Barcode != nil && *p.Barcode == barcode {
			found := p
			return &found, nil
		}
	}
	return nil, repository.ErrProductNotFound
}

func (m *mockProductRepository) ListByTenant(ctx context.Context, tenant domain.TenantID) ([]*domain.Product, error) {
	m.store.listCalls.Add(1)
	if m.store.listGate != nil {
		<-m.store.listGate
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.store.mu.Lock()
	products := []*domain.Product{}
	for _, p := range m.store.products {
		if p.TenantID == tenant {
			found := p
			products = append(products, &found)
		}
	}
	afterList := m.store.afterList
	m.store.mu.Unlock()

	sort.Slice(products, func(i, j int) bool { return products[i].Name < products[j].Name })
	if afterList != nil {
		afterList()
	}
	return products, nil
}

func (m *mockProductRepository) DecrementStock(ctx context.Context, tenant domain.TenantID, id uuid.UUID, qty int) error {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()

	p, ok := m.store.products[id]
	if !ok || p.TenantID != tenant {
		return repository.ErrProductNotFound
	}
	if p.Stock < qty {
		return repository.ErrInsufficientStock
	}
	p.Stock -= qty
	m.store.products[id] = p
	return nil
}

type mockCartRepository struct {
	store *memStore
}

func (m *mockCartRepository) LoadOrCreate(ctx context.Context, tenant domain.TenantID, now time.Time) (*domain.Cart, error) {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()

	cart, ok := m.store.carts[tenant]
	if !ok {
		cart = domain.NewCart(tenant, now)
		m.store.carts[tenant] = cart
	}
	return cart.Clone(), nil
}

func (m *mockCartRepository) FindForUpdate(ctx context.Context, tenant domain.TenantID) (*domain.Cart, error) {
	return m.Find(ctx, tenant)
}

func (m *mockCartRepository) Find(ctx context.Context, tenant domain.TenantID) (*domain.Cart, error) {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()

	cart, ok := m.store.carts[tenant]
	if !ok {
		return nil, repository.ErrCartNotFound
	}
	return cart.Clone(), nil
}

func (m *mockCartRepository) Save(ctx context.Context, cart *domain.Cart) error {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	m.store.carts[cart.TenantID] = cart.Clone()
	return nil
}

func (m *mockCartRepository) Delete(ctx context.Context, tenant domain.TenantID) error {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()

	if _, ok := m.store.carts[tenant]; !ok {
		return repository.ErrCartNotFound
	}
	delete(m.store.carts, tenant)
	return nil
}

type mockReceiptRepository struct {
	store *memStore
}

func (m *mockReceiptRepository) Create(ctx context.Context, receipt *domain.Receipt) error {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()

	if m.store.failReceiptCreate != nil {
		return domain.Persistence("create receipt", m.store.failReceiptCreate)
	}
	for _, r := range m.store.receipts {
		if r.ReceiptID == receipt.ReceiptID {
			return domain.Persistence("create receipt", repository.ErrDuplicateReceipt)
		}
	}
	m.store.receipts = append(m.store.receipts, receipt)
	return nil
}

func (m *mockReceiptRepository) FindByReceiptID(ctx context.Context, tenant domain.TenantID, receiptID string) (*domain.Receipt, error) {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()

	for _, r := range m.store.receipts {
		if r.TenantID == tenant && r.ReceiptID == receiptID {
			return r, nil
		}
	}
	return nil, repository.ErrReceiptNotFound
}

func (m *mockReceiptRepository) List(ctx context.Context, tenant domain.TenantID, page, pageSize int) ([]*domain.Receipt, int, error) {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()

	var matched []*domain.Receipt
	for _, r := range m.store.receipts {
		if r.TenantID == tenant {
			matched = append(matched, r)
		}
	}
	sort.SliceStable(matched, func(i, j int) bool { return matched[i].IssuedAt.After(matched[j].IssuedAt) })

	_, pageSize, offset := repository.NormalizePage(page, pageSize)
	if offset >= len(matched) {
		return []*domain.Receipt{}, len(matched), nil
	}
	end := offset + pageSize
	if end > len(matched) {
		end = len(matched)
	}
	return matched[offset:end], len(matched), nil
}

type memCache struct {
	mu      sync.Mutex
	entries map[domain.TenantID][]*domain.Product
	gens    map[domain.TenantID]int64
	deletes int
}

func newMemCache() *memCache {
	return &memCache{
		entries: make(map[domain.TenantID][]*domain.Product),
		gens:    make(map[domain.TenantID]int64),
	}
}

func (c *memCache) Get(ctx context.Context, tenant domain.TenantID) ([]*domain.Product, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	products, ok := c.entries[tenant]
	if !ok {
		return nil, cache.ErrCacheMiss
	}
	return products, nil
}

func (c *memCache) Generation(ctx context.Context, tenant domain.TenantID) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gens[tenant], nil
}

func (c *memCache) Set(ctx context.Context, tenant domain.TenantID, generation int64, products []*domain.Product) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gens[tenant] != generation {
		return cache.ErrStaleGeneration
	}
	c.entries[tenant] = products
	return nil
}

func (c *memCache) Delete(ctx context.Context, tenant domain.TenantID) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, tenant)
	c.gens[tenant]++
	c.deletes++
	return nil
}

type recordingPublisher struct {
	mu        sync.Mutex
	published []*domain.Receipt
	err       error
}

func (p *recordingPublisher) PublishReceiptIssued(ctx context.Context, receipt *domain.Receipt) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.published = append(p.published, receipt)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

var fixedNow = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return fixedNow }

// fixture wires every service around one memStore
type fixture struct {
	store     *memStore
	cache     *memCache
	publisher *recordingPublisher
	catalog   CatalogService
	carts     CartService
	checkout  CheckoutService
	receipts  ReceiptService
}

func newFixture() *fixture {
	store := newMemStore()
	products := &mockProductRepository{store: store}
	carts := &mockCartRepository{store: store}
	receipts := &mockReceiptRepository{store: store}
	tx := &mockTxManager{store: store}
	memCache := newMemCache()
	publisher := &recordingPublisher{}

	catalog := NewCatalogService(products, tx, memCache, nil, zapNop)
	cartSvc := NewCartService(products, carts, tx, nil, zapNop)
	cartSvc.(*cartService).now = fixedClock
	checkout := NewCheckoutService(CheckoutDeps{
		Products:  products,
		Carts:     carts,
		Receipts:  receipts,
		Tx:        tx,
		Catalog:   catalog,
		Publisher: publisher,
		Logger:    zapNop,
		Cashier:   "Cashier",
	})
	checkout.(*checkoutService).now = fixedClock

	return &fixture{
		store:     store,
		cache:     memCache,
		publisher: publisher,
		catalog:   catalog,
		carts:     cartSvc,
		checkout:  checkout,
		receipts:  NewReceiptService(receipts, nil),
	}
}
