package postgres

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/kasir/internal/domain/product"
)

const (
	productColumns = `id, name, category_id, price, cost_price, stock, min_stock, discount, sku, image`

	listProductsSQL = `SELECT ` + productColumns + ` FROM products ORDER BY id`

	getProductByIDSQL = `SELECT ` + productColumns + ` FROM products WHERE id = $1`

	getProductsByIDsSQL = `SELECT ` + productColumns + ` FROM products WHERE id = ANY($1)`

	upsertProductSQL = `INSERT INTO products (` + productColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			category_id = EXCLUDED.category_id,
			price = EXCLUDED.price,
			cost_price = EXCLUDED.cost_price,
			stock = EXCLUDED.stock,
			min_stock = EXCLUDED.min_stock,
			discount = EXCLUDED.discount,
			sku = EXCLUDED.sku,
			image = EXCLUDED.image`

	listSKUsSQL = `SELECT sku FROM products`
)

var _ product.Repository = (*ProductRepository)(nil)

// ProductRepository implements product.Repository backed by PostgreSQL.
type ProductRepository struct {
	pool *pgxpool.Pool
}

// NewProductRepository returns a ProductRepository that uses the given pool.
func NewProductRepository(pool *pgxpool.Pool) *ProductRepository {
	return &ProductRepository{pool: pool}
}

// List returns all products from the catalog ordered by ID.
func (r *ProductRepository) List(ctx context.Context) ([]product.Product, error) {
	rows, err := r.pool.Query(ctx, listProductsSQL)
	if err != nil {
		return nil, fmt.Errorf("listing products: %w", err)
	}
	return pgx.CollectRows(rows, scanProduct)
}

// GetByID returns a single product by its identifier.
func (r *ProductRepository) GetByID(ctx context.Context, id string) (*product.Product, error) {
	rows, err := r.pool.Query(ctx, getProductByIDSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting product %q: %w", id, err)
	}

	p, err := pgx.CollectExactlyOneRow(rows, scanProduct)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, product.ErrNotFound
		}
		return nil, fmt.Errorf("getting product %q: %w", id, err)
	}
	return &p, nil
}

// GetByIDs returns products matching any of the given IDs.
func (r *ProductRepository) GetByIDs(ctx context.Context, ids []string) ([]product.Product, error) {
	rows, err := r.pool.Query(ctx, getProductsByIDsSQL, ids)
	if err != nil {
		return nil, fmt.Errorf("getting products by ids: %w", err)
	}
	return pgx.CollectRows(rows, scanProduct)
}

// Upsert inserts or replaces products in a single batch.
func (r *ProductRepository) Upsert(ctx context.Context, products []product.Product) error {
	if len(products) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, p := range products {
		batch.Queue(upsertProductSQL,
			p.ID, p.Name, p.CategoryID, p.Price, p.CostPrice,
			p.Stock, p.MinStock, p.Discount, p.SKU, p.Image,
		)
	}
	if err := r.pool.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("upserting %d products: %w", len(products), err)
	}
	return nil
}

// SKUs returns every SKU currently stored.
func (r *ProductRepository) SKUs(ctx context.Context) ([]string, error) {
	rows, err := r.pool.Query(ctx, listSKUsSQL)
	if err != nil {
		return nil, fmt.Errorf("listing skus: %w", err)
	}
	return pgx.CollectRows(rows, pgx.RowTo[string])
}

func scanProduct(row pgx.CollectableRow) (product.Product, error) {
	var p product.Product
	err := row.Scan(
		&p.ID, &p.Name, &p.CategoryID, &p.Price, &p.CostPrice,
		&p.Stock, &p.MinStock, &p.Discount, &p.SKU, &p.Image,
	)
	return p, err
}

const ownersBySKUSQL = `SELECT sku, id FROM products WHERE sku = ANY($1)`

// OwnersBySKU maps each stored SKU among skus to the id of its product.
func (r *ProductRepository) OwnersBySKU(ctx context.Context, skus []string) (map[string]string, error) {
	rows, err := r.pool.Query(ctx, ownersBySKUSQL, skus)
	if err != nil {
		return nil, fmt.Errorf("looking up skus: %w", err)
	}
	defer rows.Close()

	owners := make(map[string]string, len(skus))
	for rows.Next() {
		var sku, id string
		if err := rows.Scan(&sku, &id); err != nil {
			return nil, fmt.Errorf("scanning sku owner: %w", err)
		}
		owners[sku] = id
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("looking up skus: %w", err)
	}
	return owners, nil
}
