package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"oeo-pos/internal/domain"
	"oeo-pos/internal/events"
	"oeo-pos/internal/metrics"
	"oeo-pos/internal/repository"
	"oeo-pos/internal/telemetry"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
)

const publishTimeout = 2 * time.Second

// CheckoutRequest carries the customer facing checkout inputs
type CheckoutRequest struct {
	PaymentMethod string
	CustomerName  string
	CustomerPhone string
}

// CheckoutService turns the open cart of a tenant into a receipt
type CheckoutService interface {
	Checkout(ctx context.Context, tenant domain.TenantID, req CheckoutRequest) (*domain.Receipt, error)
}

// CheckoutDeps groups the collaborators of the checkout service
type CheckoutDeps struct {
	Products  repository.ProductRepository
	Carts     repository.CartRepository
	Receipts  repository.ReceiptRepository
	Tx        repository.TxManager
	IDs       IDGenerator
	Catalog   CatalogService
	Publisher events.Publisher
	Metrics   *metrics.Metrics
	Logger    *zap.Logger
	Cashier   string
}

type checkoutService struct {
	CheckoutDeps
	now Clock
}

// NewCheckoutService creates a new instance of CheckoutService
func NewCheckoutService(deps CheckoutDeps) CheckoutService {
	if deps.IDs == nil {
		deps.IDs = NewReceiptIDGenerator()
	}
	if deps.Publisher == nil {
		deps.Publisher = events.NoopPublisher{}
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	return &checkoutService{CheckoutDeps: deps, now: utcNow}
}

// Checkout decrements stock for every line, stores the receipt and removes
// the cart in one transaction. Any failing line rolls back the whole sale.
func (s *checkoutService) Checkout(ctx context.Context, tenant domain.TenantID, req CheckoutRequest) (*domain.Receipt, error) {
	ctx, span := telemetry.StartSpan(ctx, "pos.checkout")
	defer span.End()
	span.SetAttributes(attribute.String("tenant", tenant.String()))

	receipt, err := s.checkout(ctx, tenant, req)

	kind := domain.KindOf(err)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, string(kind))
		s.Metrics.ObserveCheckout(tenant.String(), string(kind), req.PaymentMethod, 0)
		return nil, err
	}

	span.SetAttributes(attribute.String("receipt_id", receipt.ReceiptID))
	total, _ := receipt.Total.Float64()
	s.Metrics.ObserveCheckout(tenant.String(), "", string(receipt.PaymentMethod), total)

	if s.Catalog != nil {
		s.Catalog.Invalidate(ctx, tenant)
	}
	s.publish(ctx, receipt)

	s.Logger.Info("Checkout completed",
		zap.String("tenant", tenant.String()),
		zap.String("receipt_id", receipt.ReceiptID),
		zap.String("total", receipt.Total.StringFixed(2)),
		zap.String("payment_method", string(receipt.PaymentMethod)),
		zap.Int("lines", len(receipt.Items)),
	)
	return receipt, nil
}

func (s *checkoutService) checkout(ctx context.Context, tenant domain.TenantID, req CheckoutRequest) (*domain.Receipt, error) {
	if !tenant.Valid() {
		return nil, domain.Invalid("unknown tenant %q", tenant)
	}
	method, err := domain.ParsePaymentMethod(req.PaymentMethod)
	if err != nil {
		return nil, err
	}

	var receipt *domain.Receipt
	err = s.Tx.WithinTransaction(ctx, func(ctx context.Context) error {
		cart, err := s.Carts.FindForUpdate(ctx, tenant)
		if errors.Is(err, repository.ErrCartNotFound) {
			return domain.ErrEmptyCart
		}
		if err != nil {
			return err
		}
		if cart.IsEmpty() {
			return domain.ErrEmptyCart
		}

		for _, item := range cart.Items {
			if err := s.Products.DecrementStock(ctx, tenant, item.ProductID, item.Quantity); err != nil {
				return fmt.Errorf("failed to take %d of %s: %w", item.Quantity, item.Name, err)
			}
		}

		now := s.now()
		issued := domain.NewReceipt(s.IDs.NewReceiptID(now), cart, domain.Sale{
			PaymentMethod: method,
			CustomerName:  req.CustomerName,
			CustomerPhone: req.CustomerPhone,
			Cashier:       s.Cashier,
		}, now)

		if err := s.Receipts.Create(ctx, issued); err != nil {
			return err
		}
		if err := s.Carts.Delete(ctx, tenant); err != nil {
			return err
		}

		receipt = issued
		return nil
	})
	if err != nil {
		return nil, err
	}
	return receipt, nil
}

// publish is best effort: the sale has already committed
func (s *checkoutService) publish(ctx context.Context, receipt *domain.Receipt) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	if err := s.Publisher.PublishReceiptIssued(ctx, receipt); err != nil {
		s.Logger.Warn("Failed to publish receipt event",
			zap.String("tenant", receipt.TenantID.String()),
			zap.String("receipt_id", receipt.ReceiptID),
			zap.Error(err),
		)
	}
}
