package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/walletshop/walletshop/internal/handler/dto"
	"github.com/walletshop/walletshop/internal/model"
	"github.com/walletshop/walletshop/internal/pricing"
	"github.com/walletshop/walletshop/internal/service"
)

// DiscountService is the discount surface used by the HTTP layer.
type DiscountService interface {
	CreateDiscount(ctx context.Context, input service.CreateDiscountInput) (*model.Discount, error)
	ListDiscounts(ctx context.Context, productID string) ([]model.Discount, error)
	ActiveDiscount(ctx context.Context, productID string, at time.Time) (*model.Discount, error)
	Quote(ctx context.Context, productID string, basePrice decimal.Decimal, at time.Time) (*pricing.Quote, error)
}

// DiscountHandler handles the public pricing endpoints.
type DiscountHandler struct {
	svc    DiscountService
	logger *slog.Logger
	now    func() time.Time
}

// NewDiscountHandler creates a new DiscountHandler.
func NewDiscountHandler(svc DiscountService, logger *slog.Logger) *DiscountHandler {
	return &DiscountHandler{
		svc:    svc,
		logger: logger.With("component", "handler.discount"),
		now:    time.Now,
	}
}

// Price handles GET /api/products/{productId}/price?basePrice=&at=.
func (h *DiscountHandler) Price(w http.ResponseWriter, r *http.Request) {
	productID := chi.URLParam(r, "productId")
	query := r.URL.Query()

	raw := query.Get("basePrice")
	if raw == "" {
		writeError(w, http.StatusBadRequest, "MISSING_BASE_PRICE", "query parameter 'basePrice' is required")
		return
	}
	basePrice, err := decimal.NewFromString(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BASE_PRICE", "basePrice must be a decimal amount")
		return
	}

	at, ok := h.instant(w, query.Get("at"))
	if !ok {
		return
	}

	quote, err := h.svc.Quote(r.Context(), productID, basePrice, at)
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.ToQuoteResponse(quote))
}

// Active handles GET /api/products/{productId}/discount?at=.
// No applicable discount is a 200 with a null discount.
func (h *DiscountHandler) Active(w http.ResponseWriter, r *http.Request) {
	productID := chi.URLParam(r, "productId")

	at, ok := h.instant(w, r.URL.Query().Get("at"))
	if !ok {
		return
	}

	d, err := h.svc.ActiveDiscount(r.Context(), productID, at)
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.ActiveDiscountResponse{
		ProductID: productID,
		At:        at,
		Discount:  dto.ToDiscountResponse(d),
	})
}

// List handles GET /api/discounts?productId=.
func (h *DiscountHandler) List(w http.ResponseWriter, r *http.Request) {
	productID := r.URL.Query().Get("productId")
	if productID == "" {
		writeError(w, http.StatusBadRequest, "MISSING_PRODUCT_ID", "query parameter 'productId' is required")
		return
	}

	discounts, err := h.svc.ListDiscounts(r.Context(), productID)
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.ToDiscountListResponse(discounts))
}

// instant resolves the optional at parameter, writing a 400 on failure.
func (h *DiscountHandler) instant(w http.ResponseWriter, raw string) (time.Time, bool) {
	at, err := parseInstant(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_AT", err.Error())
		return time.Time{}, false
	}
	if at.IsZero() {
		at = h.now()
	}
	return at.UTC(), true
}

// handleServiceError maps service errors to HTTP responses.
func handleServiceError(w http.ResponseWriter, logger *slog.Logger, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidProductID):
		writeError(w, http.StatusBadRequest, "INVALID_PRODUCT_ID", err.Error())
	case errors.Is(err, service.ErrInvalidBasePrice):
		writeError(w, http.StatusBadRequest, "INVALID_BASE_PRICE", err.Error())
	case errors.Is(err, service.ErrInvalidPercentage):
		writeError(w, http.StatusBadRequest, "INVALID_PERCENTAGE", err.Error())
	case errors.Is(err, service.ErrMissingWindow), errors.Is(err, service.ErrInvalidWindow):
		writeError(w, http.StatusBadRequest, "INVALID_WINDOW", err.Error())
	case errors.Is(err, service.ErrDiscountExists):
		writeError(w, http.StatusConflict, "DISCOUNT_EXISTS", err.Error())
	case errors.Is(err, service.ErrInvalidFirebaseUID):
		writeError(w, http.StatusBadRequest, "INVALID_FIREBASE_UID", err.Error())
	case errors.Is(err, service.ErrInvalidEmail):
		writeError(w, http.StatusBadRequest, "INVALID_EMAIL", err.Error())
	case errors.Is(err, service.ErrInvalidUserID):
		writeError(w, http.StatusBadRequest, "INVALID_USER_ID", err.Error())
	case errors.Is(err, service.ErrInvalidRole):
		writeError(w, http.StatusBadRequest, "INVALID_ROLE", err.Error())
	case errors.Is(err, service.ErrUserNotFound):
		writeError(w, http.StatusNotFound, "USER_NOT_FOUND", err.Error())
	case errors.Is(err, service.ErrEmailTaken):
		writeError(w, http.StatusConflict, "EMAIL_TAKEN", err.Error())
	default:
		logger.Error("internal error", "error", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "an internal error occurred")
	}
}
