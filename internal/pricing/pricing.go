// Package pricing evaluates discount validity windows and computes discounted prices.
// It has no dependencies on storage or transport; callers pass candidate discounts in.
package pricing

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/walletshop/walletshop/internal/model"
)

var (
	hundred = decimal.NewFromInt(100)
	zero    = decimal.Zero
)

// Quote is the effective price of a product at an instant.
type Quote struct {
	ProductID  string          `json:"product_id"`
	BasePrice  decimal.Decimal `json:"base_price"`
	FinalPrice decimal.Decimal `json:"final_price"`
	Discount   *model.Discount `json:"discount"`
	At         time.Time       `json:"at"`
}

// HasDiscount returns true if an active discount was applied.
func (q Quote) HasDiscount() bool {
	return q.Discount != nil
}

// ActiveDiscount returns the discount from discounts that applies to productID at now.
//
// When several windows overlap, the one with the latest start wins. Equal starts
// fall back to the larger percentage, then to the earliest position in discounts.
// A zero now means the current instant.
func ActiveDiscount(productID string, discounts []model.Discount, now time.Time) (*model.Discount, bool) {
	if productID == "" {
		return nil, false
	}
	if now.IsZero() {
		now = time.Now()
	}

	best := -1
	for i := range discounts {
		d := &discounts[i]
		if !d.IsActiveFor(productID, now) {
			continue
		}
		if best < 0 || outranks(d, &discounts[best]) {
			best = i
		}
	}
	if best < 0 {
		return nil, false
	}

	found := discounts[best]
	return &found, true
}

// outranks reports whether a beats b. Strict comparisons keep the earlier index on full ties.
func outranks(a, b *model.Discount) bool {
	if !a.StartDate.Equal(b.StartDate) {
		return a.StartDate.After(b.StartDate)
	}
	return a.DiscountPercentage.GreaterThan(b.DiscountPercentage)
}

// DiscountedPrice returns basePrice reduced by percentage, rounded half-up to cents.
// The percentage is clamped to [0, 100] and the result is never negative.
func DiscountedPrice(basePrice, percentage decimal.Decimal) decimal.Decimal {
	p := clampPercentage(percentage)
	factor := hundred.Sub(p).Div(hundred)
	price := basePrice.Mul(factor)
	if price.IsNegative() {
		price = zero
	}
	return price.Round(2)
}

func clampPercentage(p decimal.Decimal) decimal.Decimal {
	if p.IsNegative() {
		return zero
	}
	if p.GreaterThan(hundred) {
		return hundred
	}
	return p
}

// Evaluate selects the active discount and prices productID with it.
func Evaluate(productID string, basePrice decimal.Decimal, discounts []model.Discount, now time.Time) Quote {
	if now.IsZero() {
		now = time.Now()
	}

	q := Quote{
		ProductID:  productID,
		BasePrice:  basePrice,
		FinalPrice: DiscountedPrice(basePrice, zero),
		At:         now,
	}

	if d, ok := ActiveDiscount(productID, discounts, now); ok {
		q.Discount = d
		q.FinalPrice = DiscountedPrice(basePrice, d.DiscountPercentage)
	}
	return q
}
