// Package model defines domain entities for the application.
package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// MaxDiscountPercentage is the upper bound of a sane discount percentage.
var MaxDiscountPercentage = decimal.NewFromInt(100)

// Discount is a percentage reduction for one product during a time window.
type Discount struct {
	ID                 string          `json:"id"`
	ProductID          string          `json:"product_id"`
	DiscountPercentage decimal.Decimal `json:"discount_percentage"`
	StartDate          time.Time       `json:"start_date"`
	EndDate            time.Time       `json:"end_date"`
	CreatedAt          time.Time       `json:"created_at"`
}

// Contains reports whether t lies within the validity window.
// Both bounds are inclusive.
func (d *Discount) Contains(t time.Time) bool {
	return !t.Before(d.StartDate) && !t.After(d.EndDate)
}

// IsActiveFor reports whether the discount applies to productID at t.
func (d *Discount) IsActiveFor(productID string, t time.Time) bool {
	return d.ProductID == productID && d.Contains(t)
}

// HasValidPercentage reports whether the percentage lies in [0, 100].
func (d *Discount) HasValidPercentage() bool {
	return !d.DiscountPercentage.IsNegative() && d.DiscountPercentage.LessThanOrEqual(MaxDiscountPercentage)
}
