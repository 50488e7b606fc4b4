package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/kasir/internal/domain/cart"
	"github.com/xenking/kasir/internal/domain/transaction"
)

const (
	createTransactionSQL = `INSERT INTO transactions
		(id, created_at, lines, subtotal, discount, tax, grand_total, payment_method, member_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	listTransactionsSQL = `SELECT id, created_at, lines, subtotal, discount, tax, grand_total, payment_method, member_id
		FROM transactions WHERE created_at >= $1 ORDER BY created_at, id`
)

var _ transaction.Repository = (*TransactionRepository)(nil)

// TransactionRepository implements transaction.Repository backed by PostgreSQL.
type TransactionRepository struct {
	pool *pgxpool.Pool
}

// NewTransactionRepository returns a TransactionRepository that uses the given pool.
func NewTransactionRepository(pool *pgxpool.Pool) *TransactionRepository {
	return &TransactionRepository{pool: pool}
}

// Create persists a completed transaction. The lines are serialized to JSON
// for storage in the JSONB column.
func (r *TransactionRepository) Create(ctx context.Context, tx *transaction.Transaction) error {
	linesJSON, err := json.Marshal(tx.Lines)
	if err != nil {
		return fmt.Errorf("marshaling transaction lines: %w", err)
	}

	_, err = r.pool.Exec(ctx, createTransactionSQL,
		tx.ID, tx.CreatedAt, linesJSON, tx.Subtotal, tx.Discount, tx.Tax,
		tx.GrandTotal, string(tx.PaymentMethod), tx.MemberID,
	)
	if err != nil {
		return fmt.Errorf("creating transaction %q: %w", tx.ID, err)
	}

	return nil
}

// List returns transactions created at or after since, oldest first.
func (r *TransactionRepository) List(ctx context.Context, since time.Time) ([]transaction.Transaction, error) {
	rows, err := r.pool.Query(ctx, listTransactionsSQL, since)
	if err != nil {
		return nil, fmt.Errorf("listing transactions: %w", err)
	}
	return pgx.CollectRows(rows, scanTransaction)
}

func scanTransaction(row pgx.CollectableRow) (transaction.Transaction, error) {
	var (
		tx        transaction.Transaction
		linesJSON []byte
		method    string
	)
	if err := row.Scan(
		&tx.ID, &tx.CreatedAt, &linesJSON, &tx.Subtotal, &tx.Discount,
		&tx.Tax, &tx.GrandTotal, &method, &tx.MemberID,
	); err != nil {
		return tx, err
	}
	if err := json.Unmarshal(linesJSON, &tx.Lines); err != nil {
		return tx, fmt.Errorf("unmarshaling lines of transaction %q: %w", tx.ID, err)
	}
	tx.PaymentMethod = cart.PaymentMethod(method)
	return tx, nil
}
