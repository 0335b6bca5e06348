package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/shopspring/decimal"

	"github.com/walletshop/walletshop/internal/cache"
	"github.com/walletshop/walletshop/internal/metrics"
	"github.com/walletshop/walletshop/internal/model"
	"github.com/walletshop/walletshop/internal/pricing"
	"github.com/walletshop/walletshop/internal/repository"
)

// DiscountStore persists discounts.
type DiscountStore interface {
	CreateDiscount(ctx context.Context, d *model.Discount) error
	ListDiscountsByProduct(ctx context.Context, productID string) ([]model.Discount, error)
}

// DiscountCache caches candidate discounts per product.
type DiscountCache interface {
	GetDiscounts(ctx context.Context, productID string) ([]model.Discount, error)
	SetDiscounts(ctx context.Context, productID string, discounts []model.Discount, maxTTL time.Duration) error
	DeleteDiscounts(ctx context.Context, productID string) error
}

// DiscountService loads candidate discounts and prices products with them.
type DiscountService struct {
	store    DiscountStore
	cache    DiscountCache
	cacheTTL time.Duration
	logger   *slog.Logger
	metrics  metrics.Recorder
	now      func() time.Time
}

// NewDiscountService creates a new DiscountService. A nil cache reads through to the store.
func NewDiscountService(store DiscountStore, c DiscountCache, cacheTTL time.Duration, logger *slog.Logger, recorder metrics.Recorder) *DiscountService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &DiscountService{
		store:    store,
		cache:    c,
		cacheTTL: cacheTTL,
		logger:   logger.With("component", "service.discount"),
		metrics:  recorder,
		now:      time.Now,
	}
}

// CreateDiscountInput defines input for creating a discount.
type CreateDiscountInput struct {
	ProductID  string
	Percentage decimal.Decimal
	StartDate  time.Time
	EndDate    time.Time
}

// CreateDiscount validates and stores a new discount, then invalidates the product's cache entry.
func (s *DiscountService) CreateDiscount(ctx context.Context, input CreateDiscountInput) (*model.Discount, error) {
	if err := ValidateProductID(input.ProductID); err != nil {
		return nil, err
	}
	if input.StartDate.IsZero() || input.EndDate.IsZero() {
		return nil, ErrMissingWindow
	}
	if !input.EndDate.After(input.StartDate) {
		return nil, ErrInvalidWindow
	}

	d := &model.Discount{
		ID:                 ulid.Make().String(),
		ProductID:          input.ProductID,
		DiscountPercentage: input.Percentage.Round(2),
		StartDate:          input.StartDate.UTC(),
		EndDate:            input.EndDate.UTC(),
	}
	if !d.HasValidPercentage() {
		return nil, ErrInvalidPercentage
	}

	if err := s.store.CreateDiscount(ctx, d); err != nil {
		if errors.Is(err, repository.ErrDiscountExists) {
			return nil, ErrDiscountExists
		}
		return nil, fmt.Errorf("failed to create discount: %w", err)
	}

	s.metrics.IncDiscountCreated()
	s.invalidate(ctx, d.ProductID)

	s.logger.Info("discount created",
		"discount_id", d.ID,
		"product_id", d.ProductID,
		"percentage", d.DiscountPercentage.String(),
	)
	return d, nil
}

// ListDiscounts returns every candidate discount for productID.
func (s *DiscountService) ListDiscounts(ctx context.Context, productID string) ([]model.Discount, error) {
	if err := ValidateProductID(productID); err != nil {
		return nil, err
	}
	return s.candidates(ctx, productID)
}

// ActiveDiscount returns the discount applying to productID at at, or nil.
// A zero at means now.
func (s *DiscountService) ActiveDiscount(ctx context.Context, productID string, at time.Time) (*model.Discount, error) {
	if err := ValidateProductID(productID); err != nil {
		return nil, err
	}

	discounts, err := s.candidates(ctx, productID)
	if err != nil {
		return nil, err
	}

	d, _ := pricing.ActiveDiscount(productID, discounts, s.instant(at))
	return d, nil
}

// Quote prices productID at at using the active discount, if any.
func (s *DiscountService) Quote(ctx context.Context, productID string, basePrice decimal.Decimal, at time.Time) (*pricing.Quote, error) {
	start := time.Now()
	defer func() {
		s.metrics.ObserveQuoteDuration(time.Since(start))
	}()

	if err := ValidateProductID(productID); err != nil {
		return nil, err
	}
	if basePrice.IsNegative() {
		return nil, ErrInvalidBasePrice
	}

	discounts, err := s.candidates(ctx, productID)
	if err != nil {
		return nil, err
	}

	q := pricing.Evaluate(productID, basePrice, discounts, s.instant(at))
	return &q, nil
}

func (s *DiscountService) instant(at time.Time) time.Time {
	if at.IsZero() {
		return s.now()
	}
	return at
}

// candidates loads the product's discounts cache-first.
// Windows are always re-checked by the evaluator, so cached sets never decide on their own.
func (s *DiscountService) candidates(ctx context.Context, productID string) ([]model.Discount, error) {
	if s.cache != nil {
		discounts, err := s.cache.GetDiscounts(ctx, productID)
		if err == nil {
			s.metrics.IncDiscountCacheHit()
			return discounts, nil
		}
		if errors.Is(err, cache.ErrCacheMiss) {
			s.metrics.IncDiscountCacheMiss()
		} else {
			s.logger.Warn("discount cache read failed", "product_id", productID, "error", err)
		}
	}

	discounts, err := s.store.ListDiscountsByProduct(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to load discounts: %w", err)
	}

	if s.cache != nil {
		if err := s.cache.SetDiscounts(ctx, productID, discounts, s.cacheTTL); err != nil {
			s.logger.Warn("discount cache backfill failed", "product_id", productID, "error", err)
		}
	}

	return discounts, nil
}

func (s *DiscountService) invalidate(ctx context.Context, productID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeleteDiscounts(ctx, productID); err != nil {
		s.logger.Warn("discount cache invalidation failed", "product_id", productID, "error", err)
	}
}
