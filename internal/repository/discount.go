package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/walletshop/walletshop/internal/model"
)

// Common errors for discount repository operations.
var (
	ErrDiscountNotFound = errors.New("discount not found")
	ErrDiscountExists   = errors.New("discount already exists")
)

// discount_percentage is read as text so shopspring/decimal keeps full precision.
const discountColumns = `id, product_id, discount_percentage::text, start_date, end_date, created_at`

// CreateDiscount inserts a new discount. CreatedAt is filled from the row.
func (r *Repository) CreateDiscount(ctx context.Context, d *model.Discount) error {
	query := `
		INSERT INTO discounts (id, product_id, discount_percentage, start_date, end_date)
		VALUES ($1, $2, $3::numeric, $4, $5)
		RETURNING created_at
	`

	err := r.pool.QueryRow(ctx, query,
		d.ID,
		d.ProductID,
		d.DiscountPercentage.String(),
		d.StartDate,
		d.EndDate,
	).Scan(&d.CreatedAt)

	if err != nil {
		if _, ok := uniqueViolationOn(err); ok {
			return ErrDiscountExists
		}
		return fmt.Errorf("failed to create discount: %w", err)
	}

	return nil
}

// GetDiscountByID retrieves a discount by its ID.
func (r *Repository) GetDiscountByID(ctx context.Context, id string) (*model.Discount, error) {
	query := `SELECT ` + discountColumns + ` FROM discounts WHERE id = $1`

	var d model.Discount
	if err := scanDiscount(r.pool.QueryRow(ctx, query, id), &d); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrDiscountNotFound
		}
		return nil, fmt.Errorf("failed to get discount: %w", err)
	}
	return &d, nil
}

// ListDiscountsByProduct returns every discount for productID in insertion order.
// The order feeds the evaluator's final tie-break.
func (r *Repository) ListDiscountsByProduct(ctx context.Context, productID string) ([]model.Discount, error) {
	query := `SELECT ` + discountColumns + ` FROM discounts WHERE product_id = $1 ORDER BY created_at, id`

	rows, err := r.pool.Query(ctx, query, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to list discounts: %w", err)
	}
	defer rows.Close()

	discounts := make([]model.Discount, 0)
	for rows.Next() {
		var d model.Discount
		if err := scanDiscount(rows, &d); err != nil {
			return nil, fmt.Errorf("failed to scan discount: %w", err)
		}
		discounts = append(discounts, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate discounts: %w", err)
	}

	return discounts, nil
}

func scanDiscount(row pgx.Row, d *model.Discount) error {
	var percentage string
	if err := row.Scan(
		&d.ID,
		&d.ProductID,
		&percentage,
		&d.StartDate,
		&d.EndDate,
		&d.CreatedAt,
	); err != nil {
		return err
	}

	p, err := decimal.NewFromString(percentage)
	if err != nil {
		return fmt.Errorf("parse discount percentage %q: %w", percentage, err)
	}
	d.DiscountPercentage = p
	return nil
}
