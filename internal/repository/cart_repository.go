package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"oeo-pos/internal/domain"
)

type cartRepository struct {
	db *sql.DB
}

// NewCartRepository creates a Postgres backed CartRepository. Carts are keyed
// by tenant_id, so a tenant can never hold two open carts.
func NewCartRepository(db *sql.DB) CartRepository {
	return &cartRepository{db: db}
}

// LoadOrCreate upserts so the row is created or locked in one statement. A
// separate insert and select would miss a cart deleted by a checkout between them.
func (r *cartRepository) LoadOrCreate(ctx context.Context, tenant domain.TenantID, now time.Time) (*domain.Cart, error) {
	row := conn(ctx, r.db).QueryRowContext(ctx, `
		INSERT INTO carts (tenant_id, items, total, created_at, updated_at)
		VALUES ($1, '[]'::jsonb, 0, $2, $2)
		ON CONFLICT (tenant_id) DO UPDATE SET tenant_id = EXCLUDED.tenant_id
		RETURNING `+cartColumns,
		string(tenant), now)

	return scanCart(row)
}

func (r *cartRepository) FindForUpdate(ctx context.Context, tenant domain.TenantID) (*domain.Cart, error) {
	return r.find(ctx, tenant, ` FOR UPDATE`)
}

func (r *cartRepository) Find(ctx context.Context, tenant domain.TenantID) (*domain.Cart, error) {
	return r.find(ctx, tenant, "")
}

const cartColumns = `tenant_id, items, total, created_at, updated_at`

func (r *cartRepository) find(ctx context.Context, tenant domain.TenantID, lock string) (*domain.Cart, error) {
	query := `SELECT ` + cartColumns + ` FROM carts WHERE tenant_id = $1` + lock
	return scanCart(conn(ctx, r.db).QueryRowContext(ctx, query, string(tenant)))
}

func scanCart(row *sql.Row) (*domain.Cart, error) {
	var (
		cart      domain.Cart
		tenantID  string
		itemsJSON []byte
	)
	err := row.Scan(
		&tenantID,
		&itemsJSON,
		&cart.Total,
		&cart.CreatedAt,
		&cart.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrCartNotFound
	}
	if err != nil {
		return nil, domain.Persistence("find cart", err)
	}

	cart.TenantID = domain.TenantID(tenantID)
	if err := json.Unmarshal(itemsJSON, &cart.Items); err != nil {
		return nil, domain.Persistence("decode cart items", err)
	}
	if cart.Items == nil {
		cart.Items = []domain.CartItem{}
	}
	return &cart, nil
}

func (r *cartRepository) Save(ctx context.Context, cart *domain.Cart) error {
	items := cart.Items
	if items == nil {
		items = []domain.CartItem{}
	}
	itemsJSON, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("failed to marshal cart items: %w", err)
	}

	_, err = conn(ctx, r.db).ExecContext(ctx, `
		INSERT INTO carts (tenant_id, items, total, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (tenant_id) DO UPDATE
		SET items = EXCLUDED.items, total = EXCLUDED.total, updated_at = EXCLUDED.updated_at
	`, string(cart.TenantID), string(itemsJSON), cart.Total, cart.CreatedAt, cart.UpdatedAt)
	if err != nil {
		return domain.Persistence("save cart", err)
	}

	return nil
}

func (r *cartRepository) Delete(ctx context.Context, tenant domain.TenantID) error {
	result, err := conn(ctx, r.db).ExecContext(ctx, `DELETE FROM carts WHERE tenant_id = $1`, string(tenant))
	if err != nil {
		return domain.Persistence("delete cart", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return domain.Persistence("delete cart", err)
	}
	if affected == 0 {
		return ErrCartNotFound
	}

	return nil
}
