package product

import (
	"context"

	"github.com/go-faster/errors"
)

// UncategorizedName labels products whose category id is unknown.
const UncategorizedName = "Tanpa Kategori"

// Category groups products in the catalog.
type Category struct {
	ID   string
	Name string
}

// CategoryRepository lists the catalog's categories.
type CategoryRepository interface {
	List(ctx context.Context) ([]Category, error)
}

// CategoryNames maps category ids to display names. The zero value resolves
// every id to UncategorizedName.
type CategoryNames map[string]string

// NewCategoryNames indexes cats by id.
func NewCategoryNames(cats []Category) CategoryNames {
	names := make(CategoryNames, len(cats))
	for _, c := range cats {
		names[c.ID] = c.Name
	}
	return names
}

// Name returns the name of category id, or UncategorizedName.
func (n CategoryNames) Name(id string) string {
	if name, ok := n[id]; ok && name != "" {
		return name
	}
	return UncategorizedName
}

// CategoryCount is a category with the number of products filed under it.
type CategoryCount struct {
	Category
	Products int
}

// CountByCategory returns every category from cats, in repository order, with
// its product count. Products with unknown category ids are not counted.
func CountByCategory(ctx context.Context, cats CategoryRepository, products Repository) ([]CategoryCount, error) {
	all, err := cats.List(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "list categories")
	}
	ps, err := products.List(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "list products")
	}

	counts := make(map[string]int, len(all))
	for _, p := range ps {
		counts[p.CategoryID]++
	}
	out := make([]CategoryCount, len(all))
	for i, c := range all {
		out[i] = CategoryCount{Category: c, Products: counts[c.ID]}
	}
	return out, nil
}
