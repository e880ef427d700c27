package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"oeo-pos/internal/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
)

const uniqueViolation = "23505"

const productColumns = `id, tenant_id, name, barcode, price, stock, category, expiry_date, image_url, created_at, updated_at`

type productRepository struct {
	db *sql.DB
}

// NewProductRepository creates a Postgres backed ProductRepository
func NewProductRepository(db *sql.DB) ProductRepository {
	return &productRepository{db: db}
}

// Create inserts a new product using parameterized queries
func (r *productRepository) Create(ctx context.Context, product *domain.Product) error {
	if err := product.Validate(); err != nil {
		return err
	}

	query := `
		INSERT INTO products (` + productColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err := conn(ctx, r.db).ExecContext(
		ctx,
		query,
		product.ID,
		string(product.TenantID),
		product.Name,
		nullString(product.Barcode),
		product.Price,
		product.Stock,
		product.Category,
		nullTime(product.ExpiryDate),
		product.ImageURL,
		product.CreatedAt,
		product.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateBarcode
		}
		return domain.Persistence("create product", err)
	}

	return nil
}

// FindByID retrieves a product owned by tenant
func (r *productRepository) FindByID(ctx context.Context, tenant domain.TenantID, id uuid.UUID) (*domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE tenant_id = $1 AND id = $2`

	product, err := scanProduct(conn(ctx, r.db).QueryRowContext(ctx, query, string(tenant), id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrProductNotFound
	}
	if err != nil {
		return nil, domain.Persistence("find product", err)
	}
	return product, nil
}

// FindByBarcode retrieves a product by its per-tenant barcode
func (r *productRepository) FindByBarcode(ctx context.Context, tenant domain.TenantID, barcode string) (*domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE tenant_id = $1 AND barcode = $2`

	product, err := scanProduct(conn(ctx, r.db).QueryRowContext(ctx, query, string(tenant), barcode))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrProductNotFound
	}
	if err != nil {
		return nil, domain.Persistence("find product by barcode", err)
	}
	return product, nil
}

// ListByTenant returns every product of tenant ordered by name
func (r *productRepository) ListByTenant(ctx context.Context, tenant domain.TenantID) ([]*domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE tenant_id = $1 ORDER BY name, id`

	rows, err := conn(ctx, r.db).QueryContext(ctx, query, string(tenant))
	if err != nil {
		return nil, domain.Persistence("list products", err)
	}
	defer rows.Close()

	products := []*domain.Product{}
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, domain.Persistence("scan product", err)
		}
		products = append(products, product)
	}

	if err := rows.Err(); err != nil {
		return nil, domain.Persistence("iterate products", err)
	}

	return products, nil
}

// DecrementStock subtracts qty only when the row still holds at least qty units
func (r *productRepository) DecrementStock(ctx context.Context, tenant domain.TenantID, id uuid.UUID, qty int) error {
	if qty < 1 {
		return domain.Invalid("quantity must be at least 1")
	}

	db := conn(ctx, r.db)
	result, err := db.ExecContext(ctx, `
		UPDATE products
		SET stock = stock - $3, updated_at = NOW()
		WHERE tenant_id = $1 AND id = $2 AND stock >= $3
	`, string(tenant), id, qty)
	if err != nil {
		return domain.Persistence("decrement stock", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return domain.Persistence("decrement stock", err)
	}
	if affected == 1 {
		return nil
	}

	var exists bool
	err = db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM products WHERE tenant_id = $1 AND id = $2)`,
		string(tenant), id,
	).Scan(&exists)
	if err != nil {
		return domain.Persistence("check product", err)
	}
	if !exists {
		return ErrProductNotFound
	}
	return ErrInsufficientStock
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner) (*domain.Product, error) {
	var (
		product  domain.Product
		tenant   string
		barcode  sql.NullString
		expiryAt sql.NullTime
	)

	err := row.Scan(
		&product.ID,
		&tenant,
		&product.Name,
		&barcode,
		&product.Price,
		&product.Stock,
		&product.Category,
		&expiryAt,
		&product.ImageURL,
		&product.CreatedAt,
		&product.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	product.TenantID = domain.TenantID(tenant)
	if barcode.Valid {
		product.Barcode = &barcode.String
	}
	if expiryAt.Valid {
		product.ExpiryDate = &expiryAt.Time
	}
	return &product, nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
