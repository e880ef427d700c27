package service

import (
	"context"
	"strings"

	"oeo-pos/internal/domain"
	"oeo-pos/internal/render"
	"oeo-pos/internal/repository"
)

// ReceiptService reads issued receipts and renders them
type ReceiptService interface {
	Get(ctx context.Context, tenant domain.TenantID, receiptID string) (*domain.Receipt, error)
	List(ctx context.Context, tenant domain.TenantID, page, pageSize int) ([]*domain.Receipt, int, error)
	RenderPDF(ctx context.Context, tenant domain.TenantID, receiptID string) (*domain.Receipt, []byte, error)
}

type receiptService struct {
	receipts repository.ReceiptRepository
	renderer render.Renderer
}

// NewReceiptService creates a new instance of ReceiptService
func NewReceiptService(receipts repository.ReceiptRepository, renderer render.Renderer) ReceiptService {
	if renderer == nil {
		renderer = render.PDF{}
	}
	return &receiptService{receipts: receipts, renderer: renderer}
}

func (s *receiptService) Get(ctx context.Context, tenant domain.TenantID, receiptID string) (*domain.Receipt, error) {
	if !tenant.Valid() {
		return nil, domain.Invalid("unknown tenant %q", tenant)
	}
	receiptID = strings.TrimSpace(receiptID)
	if receiptID == "" {
		return nil, repository.ErrReceiptNotFound
	}
	return s.receipts.FindByReceiptID(ctx, tenant, receiptID)
}

func (s *receiptService) List(ctx context.Context, tenant domain.TenantID, page, pageSize int) ([]*domain.Receipt, int, error) {
	if !tenant.Valid() {
		return nil, 0, domain.Invalid("unknown tenant %q", tenant)
	}
	return s.receipts.List(ctx, tenant, page, pageSize)
}

// RenderPDF only renders receipts that belong to tenant
func (s *receiptService) RenderPDF(ctx context.Context, tenant domain.TenantID, receiptID string) (*domain.Receipt, []byte, error) {
	receipt, err := s.Get(ctx, tenant, receiptID)
	if err != nil {
		return nil, nil, err
	}

	pdf, err := s.renderer.Render(receipt)
	if err != nil {
		return nil, nil, err
	}
	return receipt, pdf, nil
}
