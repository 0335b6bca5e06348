package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/walletshop/walletshop/internal/model"
	"github.com/walletshop/walletshop/internal/pricing"
)

// CreateDiscountRequest is the body of POST /api/admin/discounts.
type CreateDiscountRequest struct {
	ProductID          string           `json:"productId"`
	DiscountPercentage *decimal.Decimal `json:"discountPercentage"`
	StartDate          *time.Time       `json:"startDate"`
	EndDate            *time.Time       `json:"endDate"`
}

// DiscountResponse represents a discount in API responses.
// Decimal amounts are encoded as strings to keep their exact value.
type DiscountResponse struct {
	ID                 string          `json:"id"`
	ProductID          string          `json:"productId"`
	DiscountPercentage decimal.Decimal `json:"discountPercentage"`
	StartDate          time.Time       `json:"startDate"`
	EndDate            time.Time       `json:"endDate"`
	CreatedAt          time.Time       `json:"createdAt"`
}

// ActiveDiscountResponse wraps a possibly absent discount.
type ActiveDiscountResponse struct {
	ProductID string            `json:"productId"`
	At        time.Time         `json:"at"`
	Discount  *DiscountResponse `json:"discount"`
}

// DiscountListResponse lists a product's discounts.
type DiscountListResponse struct {
	Data  []DiscountResponse `json:"data"`
	Total int                `json:"total"`
}

// QuoteResponse is the price of a product at an instant.
type QuoteResponse struct {
	ProductID  string            `json:"productId"`
	BasePrice  decimal.Decimal   `json:"basePrice"`
	FinalPrice decimal.Decimal   `json:"finalPrice"`
	Discount   *DiscountResponse `json:"discount"`
	At         time.Time         `json:"at"`
}

// ToDiscountResponse converts a Discount model to its DTO.
func ToDiscountResponse(d *model.Discount) *DiscountResponse {
	if d == nil {
		return nil
	}
	return &DiscountResponse{
		ID:                 d.ID,
		ProductID:          d.ProductID,
		DiscountPercentage: d.DiscountPercentage,
		StartDate:          d.StartDate,
		EndDate:            d.EndDate,
		CreatedAt:          d.CreatedAt,
	}
}

// ToDiscountListResponse converts a slice of discounts.
func ToDiscountListResponse(discounts []model.Discount) *DiscountListResponse {
	data := make([]DiscountResponse, len(discounts))
	for i := range discounts {
		data[i] = *ToDiscountResponse(&discounts[i])
	}
	return &DiscountListResponse{Data: data, Total: len(data)}
}

// ToQuoteResponse converts a pricing quote.
func ToQuoteResponse(q *pricing.Quote) *QuoteResponse {
	return &QuoteResponse{
		ProductID:  q.ProductID,
		BasePrice:  q.BasePrice,
		FinalPrice: q.FinalPrice,
		Discount:   ToDiscountResponse(q.Discount),
		At:         q.At,
	}
}
