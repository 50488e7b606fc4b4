// Package memory provides in-process repositories used when no database is
// configured. All repositories are safe for concurrent use.
package memory

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/xenking/kasir/internal/domain/cashflow"
	"github.com/xenking/kasir/internal/domain/member"
	"github.com/xenking/kasir/internal/domain/product"
	"github.com/xenking/kasir/internal/domain/transaction"
)

var (
	_ product.Repository         = (*ProductRepository)(nil)
	_ product.CategoryRepository = (*CategoryRepository)(nil)
	_ member.Repository          = (*MemberRepository)(nil)
	_ transaction.Repository     = (*TransactionRepository)(nil)
	_ cashflow.Repository        = (*CashFlowRepository)(nil)
)

// ProductRepository is a read-only catalog kept in insertion order.
type ProductRepository struct {
	products []product.Product
	byID     map[string]int
}

// NewProductRepository returns a catalog holding products.
func NewProductRepository(products []product.Product) *ProductRepository {
	r := &ProductRepository{
		products: slices.Clone(products),
		byID:     make(map[string]int, len(products)),
	}
	for i, p := range r.products {
		r.byID[p.ID] = i
	}
	return r
}

// List returns all products.
func (r *ProductRepository) List(_ context.Context) ([]product.Product, error) {
	return slices.Clone(r.products), nil
}

// GetByID returns product.ErrNotFound for unknown ids.
func (r *ProductRepository) GetByID(_ context.Context, id string) (*product.Product, error) {
	i, ok := r.byID[id]
	if !ok {
		return nil, product.ErrNotFound
	}
	p := r.products[i]
	return &p, nil
}

// GetByIDs returns the known products among ids; unknown ids are skipped.
func (r *ProductRepository) GetByIDs(_ context.Context, ids []string) ([]product.Product, error) {
	out := make([]product.Product, 0, len(ids))
	for _, id := range ids {
		if i, ok := r.byID[id]; ok {
			out = append(out, r.products[i])
		}
	}
	return out, nil
}

// CategoryRepository is a read-only category list.
type CategoryRepository struct {
	categories []product.Category
}

// NewCategoryRepository returns a repository holding categories.
func NewCategoryRepository(categories []product.Category) *CategoryRepository {
	return &CategoryRepository{categories: slices.Clone(categories)}
}

// List returns all categories in insertion order.
func (r *CategoryRepository) List(_ context.Context) ([]product.Category, error) {
	return slices.Clone(r.categories), nil
}

// MemberRepository is a read-only member list.
type MemberRepository struct {
	members []member.Member
}

// NewMemberRepository returns a repository holding members.
func NewMemberRepository(members []member.Member) *MemberRepository {
	return &MemberRepository{members: slices.Clone(members)}
}

// List returns all members.
func (r *MemberRepository) List(_ context.Context) ([]member.Member, error) {
	return slices.Clone(r.members), nil
}

// GetByID returns member.ErrNotFound for unknown ids.
func (r *MemberRepository) GetByID(_ context.Context, id string) (*member.Member, error) {
	for _, m := range r.members {
		if m.ID == id {
			return &m, nil
		}
	}
	return nil, member.ErrNotFound
}

// Count returns the number of members.
func (r *MemberRepository) Count(_ context.Context) (int, error) {
	return len(r.members), nil
}

// TransactionRepository is an append-only journal.
type TransactionRepository struct {
	mu  sync.RWMutex
	txs []transaction.Transaction
}

// NewTransactionRepository returns an empty journal.
func NewTransactionRepository() *TransactionRepository {
	return &TransactionRepository{}
}

// Create appends tx.
func (r *TransactionRepository) Create(_ context.Context, tx *transaction.Transaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	t := *tx
	t.Lines = slices.Clone(tx.Lines)
	r.txs = append(r.txs, t)
	return nil
}

// List returns transactions created at or after since, oldest first.
func (r *TransactionRepository) List(_ context.Context, since time.Time) ([]transaction.Transaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []transaction.Transaction
	for _, tx := range r.txs {
		if !tx.CreatedAt.Before(since) {
			out = append(out, tx)
		}
	}
	slices.SortStableFunc(out, func(a, b transaction.Transaction) int {
		return a.CreatedAt.Compare(b.CreatedAt)
	})
	return out, nil
}

// CashFlowRepository keeps cash movements newest first.
type CashFlowRepository struct {
	mu      sync.RWMutex
	records []cashflow.Record
}

// NewCashFlowRepository returns a ledger holding records.
func NewCashFlowRepository(records []cashflow.Record) *CashFlowRepository {
	return &CashFlowRepository{records: slices.Clone(records)}
}

// Create prepends r.
func (c *CashFlowRepository) Create(_ context.Context, r *cashflow.Record) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.records = slices.Insert(c.records, 0, *r)
	return nil
}

// List returns all records, newest first.
func (c *CashFlowRepository) List(_ context.Context) ([]cashflow.Record, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := slices.Clone(c.records)
	slices.SortStableFunc(out, func(a, b cashflow.Record) int {
		return b.Date.Compare(a.Date)
	})
	return out, nil
}
