package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentMethod is the closed set of tenders accepted at checkout.
type PaymentMethod string

const (
	PaymentCash   PaymentMethod = "cash"
	PaymentCard   PaymentMethod = "card"
	PaymentMobile PaymentMethod = "mobile"
)

// ParsePaymentMethod normalises s and rejects anything outside the closed set.
func ParsePaymentMethod(s string) (PaymentMethod, error) {
	switch m := PaymentMethod(strings.ToLower(strings.TrimSpace(s))); m {
	case PaymentCash, PaymentCard, PaymentMobile:
		return m, nil
	default:
		return "", Invalid("unsupported payment method %q", s)
	}
}

// Receipt is the immutable record of a completed sale.
type Receipt struct {
	ReceiptID     string          `json:"receipt_id"`
	TenantID      TenantID        `json:"tenant_id"`
	Items         []ReceiptItem   `json:"items"`
	Total         decimal.Decimal `json:"total"`
	PaymentMethod PaymentMethod   `json:"payment_method"`
	CustomerName  string          `json:"customer_name,omitempty"`
	CustomerPhone string          `json:"customer_phone,omitempty"`
	Cashier       string          `json:"cashier"`
	IssuedAt      time.Time       `json:"date"`
}

// ReceiptItem is a value copy of a cart line; it never references the live product.
type ReceiptItem struct {
	ProductID uuid.UUID       `json:"product_id"`
	Name      string          `json:"name"`
	Quantity  int             `json:"qty"`
	Price     decimal.Decimal `json:"price"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

// Sale carries the checkout inputs that end up on the receipt.
type Sale struct {
	PaymentMethod PaymentMethod
	CustomerName  string
	CustomerPhone string
	Cashier       string
}

// NewReceipt copies the cart lines by value into a receipt.
func NewReceipt(id string, cart *Cart, sale Sale, issuedAt time.Time) *Receipt {
	items := make([]ReceiptItem, 0, len(cart.Items))
	for _, item := range cart.Items {
		items = append(items, ReceiptItem{
			ProductID: item.ProductID,
			Name:      item.Name,
			Quantity:  item.Quantity,
			Price:     item.Price,
			Subtotal:  item.Subtotal,
		})
	}

	return &Receipt{
		ReceiptID:     id,
		TenantID:      cart.TenantID,
		Items:         items,
		Total:         cart.Total,
		PaymentMethod: sale.PaymentMethod,
		CustomerName:  strings.TrimSpace(sale.CustomerName),
		CustomerPhone: strings.TrimSpace(sale.CustomerPhone),
		Cashier:       sale.Cashier,
		IssuedAt:      issuedAt,
	}
}
