package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"oeo-pos/internal/domain"

	"github.com/shopspring/decimal"
)

// catalogEntry is one product in a seed file
type catalogEntry struct {
	Name       string          `json:"name"`
	Barcode    string          `json:"barcode,omitempty"`
	Price      decimal.Decimal `json:"price"`
	Stock      int             `json:"stock"`
	Category   string          `json:"category,omitempty"`
	ExpiryDate string          `json:"expiryDate,omitempty"`
	ImageURL   string          `json:"imageUrl,omitempty"`
}

// parseCatalog reads a JSON array of products and validates every entry for tenant
func parseCatalog(r io.Reader, tenant domain.TenantID) ([]*domain.Product, error) {
	var entries []catalogEntry
	if err := json.NewDecoder(r).Decode(&entries); err != nil {
		return nil, fmt.Errorf("failed to decode catalog: %w", err)
	}

	products := make([]*domain.Product, 0, len(entries))
	for i, entry := range entries {
		product := &domain.Product{
			TenantID: tenant,
			Name:     strings.TrimSpace(entry.Name),
			Price:    entry.Price,
			Stock:    entry.Stock,
			Category: entry.Category,
			ImageURL: entry.ImageURL,
		}
		if barcode := strings.TrimSpace(entry.Barcode); barcode != "" {
			product.Barcode = &barcode
		}
		if entry.ExpiryDate != "" {
			expiry, err := time.Parse(time.DateOnly, entry.ExpiryDate)
			if err != nil {
				return nil, fmt.Errorf("entry %d: invalid expiryDate %q", i, entry.ExpiryDate)
			}
			product.ExpiryDate = &expiry
		}
		if err := product.Validate(); err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, err)
		}
		products = append(products, product)
	}

	return products, nil
}
