package transport

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"oeo-pos/internal/domain"
	"oeo-pos/internal/logger"
	"oeo-pos/internal/middleware"
	"oeo-pos/internal/repository"
	"oeo-pos/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AddToCartRequest represents the cart add payload
type AddToCartRequest struct {
	ProductID string `json:"productId" validate:"required,uuid"`
	Qty       int    `json:"qty" validate:"required,gte=1,lte=2147483647"`
}

// CheckoutRequest represents the checkout payload
type CheckoutRequest struct {
	PaymentMethod string `json:"paymentMethod" validate:"required"`
	CustomerName  string `json:"customerName,omitempty" validate:"max=120"`
	CustomerPhone string `json:"customerPhone,omitempty" validate:"max=32"`
}

// CheckoutResponse is returned after a successful sale
type CheckoutResponse struct {
	Msg     string          `json:"msg"`
	Receipt *domain.Receipt `json:"receipt"`
}

// ReceiptPage is one page of a tenant's receipt history
type ReceiptPage struct {
	Receipts []*domain.Receipt `json:"receipts"`
	Page     int               `json:"page"`
	PageSize int               `json:"page_size"`
	Total    int               `json:"total"`
}

var errTenantUnresolved = errors.New("tenant not resolved for request")

// POSHandler handles the point-of-sale HTTP API
type POSHandler struct {
	catalog  service.CatalogService
	carts    service.CartService
	checkout service.CheckoutService
	receipts service.ReceiptService
	logger   *zap.Logger
}

// NewPOSHandler creates a new POSHandler
func NewPOSHandler(
	catalog service.CatalogService,
	carts service.CartService,
	checkout service.CheckoutService,
	receipts service.ReceiptService,
	logger *zap.Logger,
) *POSHandler {
	return &POSHandler{
		catalog:  catalog,
		carts:    carts,
		checkout: checkout,
		receipts: receipts,
		logger:   logger,
	}
}

// RegisterRoutes registers all POS routes
func (h *POSHandler) RegisterRoutes(r chi.Router) {
	r.Route("/api/pos", func(r chi.Router) {
		r.Get("/products", h.ListProducts)
		r.Get("/products/barcode/{barcode}", h.GetProductByBarcode)

		r.Get("/cart", h.GetCart)
		r.Post("/cart/add", h.AddToCart)

		r.Post("/checkout", h.Checkout)

		r.Get("/receipts", h.ListReceipts)
		r.Get("/receipt/{id}", h.GetReceipt)
		r.Get("/receipt/{id}/pdf", h.GetReceiptPDF)
	})
}

// ListProducts returns the tenant catalog
func (h *POSHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	tenant, ok := h.tenant(w, r)
	if !ok {
		return
	}

	products, err := h.catalog.ListProducts(r.Context(), tenant)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if products == nil {
		products = []*domain.Product{}
	}

	middleware.RespondWithJSON(w, http.StatusOK, products)
}

// GetProductByBarcode resolves a scanned barcode
func (h *POSHandler) GetProductByBarcode(w http.ResponseWriter, r *http.Request) {
	tenant, ok := h.tenant(w, r)
	if !ok {
		return
	}

	product, err := h.catalog.FindByBarcode(r.Context(), tenant, chi.URLParam(r, "barcode"))
	if err != nil {
		h.fail(w, r, err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, product)
}

// GetCart returns the open cart, empty when none exists
func (h *POSHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	tenant, ok := h.tenant(w, r)
	if !ok {
		return
	}

	cart, err := h.carts.GetCart(r.Context(), tenant)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, cart)
}

// AddToCart adds qty units of a product to the open cart
func (h *POSHandler) AddToCart(w http.ResponseWriter, r *http.Request) {
	tenant, ok := h.tenant(w, r)
	if !ok {
		return
	}

	var req AddToCartRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		h.log(r).Debug("Cart add validation failed", zap.Error(err))
		middleware.RespondWithDecodeError(w, err)
		return
	}

	productID, err := uuid.Parse(req.ProductID)
	if err != nil {
		h.fail(w, r, domain.Invalid("invalid product id"))
		return
	}

	cart, err := h.carts.AddItem(r.Context(), tenant, productID, req.Qty)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, cart)
}

// Checkout converts the open cart into a receipt
func (h *POSHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	tenant, ok := h.tenant(w, r)
	if !ok {
		return
	}

	var req CheckoutRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		h.log(r).Debug("Checkout validation failed", zap.Error(err))
		middleware.RespondWithDecodeError(w, err)
		return
	}

	receipt, err := h.checkout.Checkout(r.Context(), tenant, service.CheckoutRequest{
		PaymentMethod: req.PaymentMethod,
		CustomerName:  req.CustomerName,
		CustomerPhone: req.CustomerPhone,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}

	h.log(r).Info("Payment successful",
		zap.String("receipt_id", receipt.ReceiptID),
		zap.String("total", receipt.Total.StringFixed(2)),
	)
	middleware.RespondWithJSON(w, http.StatusOK, CheckoutResponse{
		Msg:     "Payment successful",
		Receipt: receipt,
	})
}

// ListReceipts returns the tenant's receipts, newest first
func (h *POSHandler) ListReceipts(w http.ResponseWriter, r *http.Request) {
	tenant, ok := h.tenant(w, r)
	if !ok {
		return
	}

	page, err := queryInt(r, "page")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	pageSize, err := queryInt(r, "page_size")
	if err != nil {
		h.fail(w, r, err)
		return
	}

	receipts, total, err := h.receipts.List(r.Context(), tenant, page, pageSize)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if receipts == nil {
		receipts = []*domain.Receipt{}
	}

	page, pageSize, _ = repository.NormalizePage(page, pageSize)
	middleware.RespondWithJSON(w, http.StatusOK, ReceiptPage{
		Receipts: receipts,
		Page:     page,
		PageSize: pageSize,
		Total:    total,
	})
}

// GetReceipt returns one receipt of the tenant
func (h *POSHandler) GetReceipt(w http.ResponseWriter, r *http.Request) {
	tenant, ok := h.tenant(w, r)
	if !ok {
		return
	}

	receipt, err := h.receipts.Get(r.Context(), tenant, chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, receipt)
}

// GetReceiptPDF streams the printable receipt as an attachment
func (h *POSHandler) GetReceiptPDF(w http.ResponseWriter, r *http.Request) {
	tenant, ok := h.tenant(w, r)
	if !ok {
		return
	}

	receipt, pdf, err := h.receipts.RenderPDF(r.Context(), tenant, chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=receipt-%s.pdf", receipt.ReceiptID))
	w.Header().Set("Content-Length", strconv.Itoa(len(pdf)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(pdf); err != nil {
		h.log(r).Warn("Failed to write receipt PDF", zap.String("receipt_id", receipt.ReceiptID), zap.Error(err))
	}
}

func (h *POSHandler) tenant(w http.ResponseWriter, r *http.Request) (domain.TenantID, bool) {
	tenant, ok := middleware.GetTenant(r.Context())
	if !ok {
		h.log(r).Error("Request reached handler without tenant", zap.String("path", r.URL.Path))
		middleware.RespondWithDomainError(w, r, h.logger, errTenantUnresolved)
		return "", false
	}
	return tenant, true
}

func (h *POSHandler) fail(w http.ResponseWriter, r *http.Request, err error) {
	middleware.RespondWithDomainError(w, r, h.log(r), err)
}

func (h *POSHandler) log(r *http.Request) *zap.Logger {
	return logger.FromContext(r.Context(), h.logger)
}

func queryInt(r *http.Request, key string) (int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, domain.Invalid("%s must be an integer", key)
	}
	return n, nil
}
