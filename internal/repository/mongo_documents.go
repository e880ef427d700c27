package repository

import (
	"fmt"
	"time"

	"oeo-pos/internal/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type productDocument struct {
	ID         string               `bson:"_id"`
	TenantID   string               `bson:"tenant_id"`
	Name       string               `bson:"name"`
	Barcode    *string              `bson:"barcode,omitempty"`
	Price      primitive.Decimal128 `bson:"price"`
	Stock      int                  `bson:"stock"`
	Category   string               `bson:"category"`
	ExpiryDate *time.Time           `bson:"expiry_date,omitempty"`
	ImageURL   string               `bson:"image_url"`
	CreatedAt  time.Time            `bson:"created_at"`
	UpdatedAt  time.Time            `bson:"updated_at"`
}

type cartDocument struct {
	TenantID  string               `bson:"tenant_id"`
	Items     []lineDocument       `bson:"items"`
	Total     primitive.Decimal128 `bson:"total"`
	Version   int64                `bson:"version"`
	CreatedAt time.Time            `bson:"created_at"`
	UpdatedAt time.Time            `bson:"updated_at"`
}

// lineDocument stores both cart lines and receipt lines
type lineDocument struct {
	ProductID string               `bson:"product_id"`
	Name      string               `bson:"name"`
	Quantity  int                  `bson:"qty"`
	Price     primitive.Decimal128 `bson:"price"`
	Subtotal  primitive.Decimal128 `bson:"subtotal"`
}

type receiptDocument struct {
	ReceiptID     string               `bson:"receipt_id"`
	TenantID      string               `bson:"tenant_id"`
	Items         []lineDocument       `bson:"items"`
	Total         primitive.Decimal128 `bson:"total"`
	PaymentMethod string               `bson:"payment_method"`
	CustomerName  string               `bson:"customer_name,omitempty"`
	CustomerPhone string               `bson:"customer_phone,omitempty"`
	Cashier       string               `bson:"cashier"`
	IssuedAt      time.Time            `bson:"issued_at"`
}

func toDecimal128(d decimal.Decimal) (primitive.Decimal128, error) {
	out, err := primitive.ParseDecimal128(d.String())
	if err != nil {
		return primitive.Decimal128{}, fmt.Errorf("failed to encode decimal %s: %w", d, err)
	}
	return out, nil
}

func fromDecimal128(d primitive.Decimal128) (decimal.Decimal, error) {
	out, err := decimal.NewFromString(d.String())
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to decode decimal %s: %w", d, err)
	}
	return out, nil
}

func newProductDocument(p *domain.Product) (*productDocument, error) {
	price, err := toDecimal128(p.Price)
	if err != nil {
		return nil, err
	}
	return &productDocument{
		ID:         p.ID.String(),
		TenantID:   string(p.TenantID),
		Name:       p.Name,
		Barcode:    p.Barcode,
		Price:      price,
		Stock:      p.Stock,
		Category:   p.Category,
		ExpiryDate: p.ExpiryDate,
		ImageURL:   p.ImageURL,
		CreatedAt:  p.CreatedAt,
		UpdatedAt:  p.UpdatedAt,
	}, nil
}

func (d *productDocument) toDomain() (*domain.Product, error) {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to parse product id: %w", err)
	}
	price, err := fromDecimal128(d.Price)
	if err != nil {
		return nil, err
	}
	return &domain.Product{
		ID:         id,
		TenantID:   domain.TenantID(d.TenantID),
		Name:       d.Name,
		Barcode:    d.Barcode,
		Price:      price,
		Stock:      d.Stock,
		Category:   d.Category,
		ExpiryDate: d.ExpiryDate,
		ImageURL:   d.ImageURL,
		CreatedAt:  d.CreatedAt,
		UpdatedAt:  d.UpdatedAt,
	}, nil
}

func newLineDocument(productID uuid.UUID, name string, qty int, price, subtotal decimal.Decimal) (lineDocument, error) {
	p, err := toDecimal128(price)
	if err != nil {
		return lineDocument{}, err
	}
	s, err := toDecimal128(subtotal)
	if err != nil {
		return lineDocument{}, err
	}
	return lineDocument{
		ProductID: productID.String(),
		Name:      name,
		Quantity:  qty,
		Price:     p,
		Subtotal:  s,
	}, nil
}

func (l lineDocument) decode() (uuid.UUID, decimal.Decimal, decimal.Decimal, error) {
	id, err := uuid.Parse(l.ProductID)
	if err != nil {
		return uuid.Nil, decimal.Zero, decimal.Zero, fmt.Errorf("failed to parse line product id: %w", err)
	}
	price, err := fromDecimal128(l.Price)
	if err != nil {
		return uuid.Nil, decimal.Zero, decimal.Zero, err
	}
	subtotal, err := fromDecimal128(l.Subtotal)
	if err != nil {
		return uuid.Nil, decimal.Zero, decimal.Zero, err
	}
	return id, price, subtotal, nil
}

func encodeCartLines(items []domain.CartItem) ([]lineDocument, error) {
	lines := make([]lineDocument, 0, len(items))
	for _, item := range items {
		line, err := newLineDocument(item.ProductID, item.Name, item.Quantity, item.Price, item.Subtotal)
		if err != nil {
			return nil, err
		}
		lines = append(lines, line)
	}
	return lines, nil
}

func (d *cartDocument) toDomain() (*domain.Cart, error) {
	total, err := fromDecimal128(d.Total)
	if err != nil {
		return nil, err
	}
	items := make([]domain.CartItem, 0, len(d.Items))
	for _, line := range d.Items {
		id, price, subtotal, err := line.decode()
		if err != nil {
			return nil, err
		}
		items = append(items, domain.CartItem{
			ProductID: id,
			Name:      line.Name,
			Price:     price,
			Quantity:  line.Quantity,
			Subtotal:  subtotal,
		})
	}
	return &domain.Cart{
		TenantID:  domain.TenantID(d.TenantID),
		Items:     items,
		Total:     total,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}, nil
}

func newReceiptDocument(r *domain.Receipt) (*receiptDocument, error) {
	total, err := toDecimal128(r.Total)
	if err != nil {
		return nil, err
	}
	lines := make([]lineDocument, 0, len(r.Items))
	for _, item := range r.Items {
		line, err := newLineDocument(item.ProductID, item.Name, item.Quantity, item.Price, item.Subtotal)
		if err != nil {
			return nil, err
		}
		lines = append(lines, line)
	}
	return &receiptDocument{
		ReceiptID:     r.ReceiptID,
		TenantID:      string(r.TenantID),
		Items:         lines,
		Total:         total,
		PaymentMethod: string(r.PaymentMethod),
		CustomerName:  r.CustomerName,
		CustomerPhone: r.CustomerPhone,
		Cashier:       r.Cashier,
		IssuedAt:      r.IssuedAt,
	}, nil
}

func (d *receiptDocument) toDomain() (*domain.Receipt, error) {
	total, err := fromDecimal128(d.Total)
	if err != nil {
		return nil, err
	}
	items := make([]domain.ReceiptItem, 0, len(d.Items))
	for _, line := range d.Items {
		id, price, subtotal, err := line.decode()
		if err != nil {
			return nil, err
		}
		items = append(items, domain.ReceiptItem{
			ProductID: id,
			Name:      line.Name,
			Quantity:  line.Quantity,
			Price:     price,
			Subtotal:  subtotal,
		})
	}
	return &domain.Receipt{
		ReceiptID:     d.ReceiptID,
		TenantID:      domain.TenantID(d.TenantID),
		Items:         items,
		Total:         total,
		PaymentMethod: domain.PaymentMethod(d.PaymentMethod),
		CustomerName:  d.CustomerName,
		CustomerPhone: d.CustomerPhone,
		Cashier:       d.Cashier,
		IssuedAt:      d.IssuedAt,
	}, nil
}
