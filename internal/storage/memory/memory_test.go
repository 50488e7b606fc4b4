package memory

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/kasir/internal/domain/cashflow"
	"github.com/xenking/kasir/internal/domain/member"
	"github.com/xenking/kasir/internal/domain/product"
	"github.com/xenking/kasir/internal/domain/transaction"
)

func TestProductRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewProductRepository(SeedProducts())

	p, err := repo.GetByID(ctx, "p3")
	require.NoError(t, err)
	assert.Equal(t, "Kopi Susu Gula Aren", p.Name)

	_, err = repo.GetByID(ctx, "nope")
	require.ErrorIs(t, err, product.ErrNotFound)

	got, err := repo.GetByIDs(ctx, []string{"p2", "nope", "p1"})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "p2", got[0].ID)

	// Returned values are copies.
	p.Name = "changed"
	again, err := repo.GetByID(ctx, "p3")
	require.NoError(t, err)
	assert.Equal(t, "Kopi Susu Gula Aren", again.Name)
}

func TestProductSearchAndLowStock(t *testing.T) {
	ctx := context.Background()
	repo := NewProductRepository(SeedProducts())

	found, err := product.Search(ctx, repo, "kopi")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "p3", found[0].ID)

	found, err = product.Search(ctx, repo, "sku00")
	require.NoError(t, err)
	assert.Len(t, found, 4)

	low, err := product.LowStock(ctx, repo)
	require.NoError(t, err)
	require.Len(t, low, 0)

	repo = NewProductRepository(append(SeedProducts(), product.Product{ID: "p5", Stock: 2, MinStock: 5}))
	low, err = product.LowStock(ctx, repo)
	require.NoError(t, err)
	require.Len(t, low, 1)
	assert.Equal(t, "p5", low[0].ID)
}

func TestCategoryRepository(t *testing.T) {
	ctx := context.Background()
	cats := NewCategoryRepository(SeedCategories())

	all, err := cats.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 4)
	assert.Equal(t, "Makanan", all[0].Name)

	names := product.NewCategoryNames(all)
	for _, p := range SeedProducts() {
		assert.NotEqual(t, product.UncategorizedName, names.Name(p.CategoryID), p.ID)
	}

	counts, err := product.CountByCategory(ctx, cats, NewProductRepository(SeedProducts()))
	require.NoError(t, err)
	got := make(map[string]int, len(counts))
	for _, c := range counts {
		got[c.Name] = c.Products
	}
	assert.Equal(t, map[string]int{"Makanan": 1, "Minuman": 2, "Snack": 1, "Alat Tulis": 0}, got)
}

func TestMemberRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewMemberRepository(SeedMembers())

	n, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	m, err := repo.GetByID(ctx, "m2")
	require.NoError(t, err)
	assert.Equal(t, "Siti Aminah", m.Name)

	_, err = repo.GetByID(ctx, "m9")
	require.ErrorIs(t, err, member.ErrNotFound)
}

func TestTransactionRepository_ListSince(t *testing.T) {
	ctx := context.Background()
	repo := NewTransactionRepository()
	base := time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)

	for _, offset := range []time.Duration{2 * time.Hour, -time.Hour, 0} {
		require.NoError(t, repo.Create(ctx, &transaction.Transaction{
			ID:         offset.String(),
			CreatedAt:  base.Add(offset),
			GrandTotal: decimal.NewFromInt(1000),
		}))
	}

	got, err := repo.List(ctx, base)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "0s", got[0].ID)
	assert.Equal(t, "2h0m0s", got[1].ID)
}

func TestCashFlowRepository_NewestFirst(t *testing.T) {
	ctx := context.Background()
	repo := NewCashFlowRepository(SeedCashFlow())

	require.NoError(t, repo.Create(ctx, &cashflow.Record{
		ID:   "new",
		Date: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		Type: cashflow.TypeIn,
	}))

	got, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, got, 5)
	assert.Equal(t, "new", got[0].ID)
	assert.Equal(t, "cf4", got[4].ID)
}
