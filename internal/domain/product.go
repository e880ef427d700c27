package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Product represents a sellable catalog entry owned by a tenant
type Product struct {
	ID         uuid.UUID       `json:"id" db:"id"`
	TenantID   TenantID        `json:"tenant_id" db:"tenant_id"`
	Name       string          `json:"name" db:"name"`
	Barcode    *string         `json:"barcode,omitempty" db:"barcode"`
	Price      decimal.Decimal `json:"price" db:"price"`
	Stock      int             `json:"stock" db:"stock"`
	Category   string          `json:"category,omitempty" db:"category"`
	ExpiryDate *time.Time      `json:"expiry_date,omitempty" db:"expiry_date"`
	ImageURL   string          `json:"image_url,omitempty" db:"image_url"`
	CreatedAt  time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at" db:"updated_at"`
}

// Validate checks the catalog invariants enforced before a product is stored.
func (p *Product) Validate() error {
	if !p.TenantID.Valid() {
		return Invalid("unknown tenant %q", p.TenantID)
	}
	if p.Name == "" {
		return Invalid("product name is required")
	}
	if p.Price.IsNegative() {
		return Invalid("price must not be negative")
	}
	if p.Stock < 0 {
		return Invalid("stock must not be negative")
	}
	if p.Barcode != nil && *p.Barcode == "" {
		p.Barcode = nil
	}
	return nil
}

// HasStock reports whether qty units can be taken from the current stock.
func (p *Product) HasStock(qty int) bool {
	return qty <= p.Stock
}
