package domain

import (
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MaxQuantity is the largest line quantity a cart holds. Stock columns are 32 bit.
const MaxQuantity = math.MaxInt32

// Cart is the single open cart of a tenant. It is keyed by tenant, so there
// is never more than one per tenant.
type Cart struct {
	TenantID  TenantID        `json:"tenant_id"`
	Items     []CartItem      `json:"items"`
	Total     decimal.Decimal `json:"total"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// CartItem snapshots the product name and price at the time it was added.
type CartItem struct {
	ProductID uuid.UUID       `json:"product_id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"qty"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

// NewCart returns an empty cart for tenant.
func NewCart(tenant TenantID, now time.Time) *Cart {
	return &Cart{
		TenantID:  tenant,
		Items:     []CartItem{},
		Total:     decimal.Zero,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// IsEmpty reports whether the cart has no line items.
func (c *Cart) IsEmpty() bool {
	return c == nil || len(c.Items) == 0
}

// Quantity returns how many units of productID the cart holds.
func (c *Cart) Quantity(productID uuid.UUID) int {
	for _, item := range c.Items {
		if item.ProductID == productID {
			return item.Quantity
		}
	}
	return 0
}

// Add merges qty units of product into the cart. An existing line for the
// same product keeps its snapshot and grows; otherwise a new line is appended.
func (c *Cart) Add(product *Product, qty int, now time.Time) {
	merged := false
	for i := range c.Items {
		if c.Items[i].ProductID == product.ID {
			c.Items[i].Quantity += qty
			merged = true
			break
		}
	}
	if !merged {
		c.Items = append(c.Items, CartItem{
			ProductID: product.ID,
			Name:      product.Name,
			Price:     product.Price,
			Quantity:  qty,
		})
	}
	c.UpdatedAt = now
	c.Recalculate()
}

// Recalculate recomputes every subtotal and the total from scratch.
func (c *Cart) Recalculate() {
	total := decimal.Zero
	for i := range c.Items {
		item := &c.Items[i]
		item.Subtotal = item.Price.Mul(decimal.NewFromInt(int64(item.Quantity)))
		total = total.Add(item.Subtotal)
	}
	c.Total = total
}

// Clone returns a deep copy so callers can mutate without touching the original.
func (c *Cart) Clone() *Cart {
	if c == nil {
		return nil
	}
	out := *c
	out.Items = append([]CartItem(nil), c.Items...)
	return &out
}
