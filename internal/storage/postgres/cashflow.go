package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/kasir/internal/domain/cashflow"
)

const (
	createCashFlowSQL = `INSERT INTO cash_flow (id, date, type, amount, description, category)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO NOTHING`

	listCashFlowSQL = `SELECT id, date, type, amount, description, category
		FROM cash_flow ORDER BY date DESC, id`
)

var _ cashflow.Repository = (*CashFlowRepository)(nil)

// CashFlowRepository implements cashflow.Repository backed by PostgreSQL.
type CashFlowRepository struct {
	pool *pgxpool.Pool
}

// NewCashFlowRepository returns a CashFlowRepository that uses the given pool.
func NewCashFlowRepository(pool *pgxpool.Pool) *CashFlowRepository {
	return &CashFlowRepository{pool: pool}
}

// Create stores a record. Re-inserting an existing id is a no-op.
func (r *CashFlowRepository) Create(ctx context.Context, rec *cashflow.Record) error {
	_, err := r.pool.Exec(ctx, createCashFlowSQL,
		rec.ID, rec.Date, string(rec.Type), rec.Amount, rec.Description, rec.Category,
	)
	if err != nil {
		return fmt.Errorf("creating cash flow record %q: %w", rec.ID, err)
	}
	return nil
}

// List returns all records, newest first.
func (r *CashFlowRepository) List(ctx context.Context) ([]cashflow.Record, error) {
	rows, err := r.pool.Query(ctx, listCashFlowSQL)
	if err != nil {
		return nil, fmt.Errorf("listing cash flow: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (cashflow.Record, error) {
		var (
			rec cashflow.Record
			typ string
		)
		err := row.Scan(&rec.ID, &rec.Date, &typ, &rec.Amount, &rec.Description, &rec.Category)
		rec.Type = cashflow.Type(typ)
		return rec, err
	})
}
