package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"oeo-pos/internal/domain"
)

const receiptColumns = `receipt_id, tenant_id, items, total, payment_method, customer_name, customer_phone, cashier, issued_at`

type receiptRepository struct {
	db *sql.DB
}

// NewReceiptRepository creates a Postgres backed ReceiptRepository
func NewReceiptRepository(db *sql.DB) ReceiptRepository {
	return &receiptRepository{db: db}
}

func (r *receiptRepository) Create(ctx context.Context, receipt *domain.Receipt) error {
	itemsJSON, err := json.Marshal(receipt.Items)
	if err != nil {
		return fmt.Errorf("failed to marshal receipt items: %w", err)
	}

	_, err = conn(ctx, r.db).ExecContext(ctx, `
		INSERT INTO receipts (`+receiptColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`,
		receipt.ReceiptID,
		string(receipt.TenantID),
		string(itemsJSON),
		receipt.Total,
		string(receipt.PaymentMethod),
		receipt.CustomerName,
		receipt.CustomerPhone,
		receipt.Cashier,
		receipt.IssuedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.Persistence("create receipt", ErrDuplicateReceipt)
		}
		return domain.Persistence("create receipt", err)
	}

	return nil
}

func (r *receiptRepository) FindByReceiptID(ctx context.Context, tenant domain.TenantID, receiptID string) (*domain.Receipt, error) {
	query := `SELECT ` + receiptColumns + ` FROM receipts WHERE tenant_id = $1 AND receipt_id = $2`

	receipt, err := scanReceipt(conn(ctx, r.db).QueryRowContext(ctx, query, string(tenant), receiptID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrReceiptNotFound
	}
	if err != nil {
		return nil, domain.Persistence("find receipt", err)
	}
	return receipt, nil
}

// List returns a page of tenant receipts, newest first, and the total count
func (r *receiptRepository) List(ctx context.Context, tenant domain.TenantID, page, pageSize int) ([]*domain.Receipt, int, error) {
	_, pageSize, offset := NormalizePage(page, pageSize)
	db := conn(ctx, r.db)

	var total int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM receipts WHERE tenant_id = $1`, string(tenant)).Scan(&total); err != nil {
		return nil, 0, domain.Persistence("count receipts", err)
	}

	rows, err := db.QueryContext(ctx, `
		SELECT `+receiptColumns+`
		FROM receipts
		WHERE tenant_id = $1
		ORDER BY issued_at DESC, receipt_id DESC
		LIMIT $2 OFFSET $3
	`, string(tenant), pageSize, offset)
	if err != nil {
		return nil, 0, domain.Persistence("list receipts", err)
	}
	defer rows.Close()

	receipts := []*domain.Receipt{}
	for rows.Next() {
		receipt, err := scanReceipt(rows)
		if err != nil {
			return nil, 0, domain.Persistence("scan receipt", err)
		}
		receipts = append(receipts, receipt)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, domain.Persistence("iterate receipts", err)
	}

	return receipts, total, nil
}

func scanReceipt(row rowScanner) (*domain.Receipt, error) {
	var (
		receipt   domain.Receipt
		tenant    string
		method    string
		itemsJSON []byte
	)

	err := row.Scan(
		&receipt.ReceiptID,
		&tenant,
		&itemsJSON,
		&receipt.Total,
		&method,
		&receipt.CustomerName,
		&receipt.CustomerPhone,
		&receipt.Cashier,
		&receipt.IssuedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(itemsJSON, &receipt.Items); err != nil {
		return nil, fmt.Errorf("failed to decode receipt items: %w", err)
	}
	receipt.TenantID = domain.TenantID(tenant)
	receipt.PaymentMethod = domain.PaymentMethod(method)
	return &receipt, nil
}
