// Package product holds the catalog: products, categories and the search and
// stock views over them.
package product

import (
	"context"
	"strings"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a requested product does not exist.
var ErrNotFound = errors.New("product not found")

// Product is a catalog item sold at the register. Prices are whole currency
// units; Discount is a percentage in [0, 100].
type Product struct {
	ID         string
	Name       string
	CategoryID string
	Price      decimal.Decimal
	CostPrice  decimal.Decimal
	Stock      int
	MinStock   int
	Discount   decimal.Decimal
	SKU        string
	Image      string
}

// IsLowStock reports whether on-hand stock is at or below the reorder threshold.
func (p Product) IsLowStock() bool {
	return p.Stock <= p.MinStock
}

// Matches reports whether query is a case-insensitive substring of the
// product name or SKU. An empty query matches everything.
func (p Product) Matches(query string) bool {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return true
	}
	return strings.Contains(strings.ToLower(p.Name), q) ||
		strings.Contains(strings.ToLower(p.SKU), q)
}

// Repository defines read operations for the product catalog.
type Repository interface {
	List(ctx context.Context) ([]Product, error)
	GetByID(ctx context.Context, id string) (*Product, error)
	GetByIDs(ctx context.Context, ids []string) ([]Product, error)
}

// Search returns the products from repo matching query, in catalog order.
func Search(ctx context.Context, repo Repository, query string) ([]Product, error) {
	all, err := repo.List(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "list products")
	}
	out := make([]Product, 0, len(all))
	for _, p := range all {
		if p.Matches(query) {
			out = append(out, p)
		}
	}
	return out, nil
}

// LowStock returns the products that need reordering.
func LowStock(ctx context.Context, repo Repository) ([]Product, error) {
	all, err := repo.List(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "list products")
	}
	var out []Product
	for _, p := range all {
		if p.IsLowStock() {
			out = append(out, p)
		}
	}
	return out, nil
}
