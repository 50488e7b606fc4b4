// Package transaction defines the journal of completed sales: the record
// written when a checkout is confirmed and the repository that stores it.
package transaction

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/xenking/kasir/internal/domain/cart"
)

// Transaction is a completed sale recorded in the journal.
type Transaction struct {
	ID            string
	CreatedAt     time.Time
	Lines         []Line
	Subtotal      decimal.Decimal
	Discount      decimal.Decimal
	Tax           decimal.Decimal
	GrandTotal    decimal.Decimal
	PaymentMethod cart.PaymentMethod
	MemberID      string
}

// Line is a sold product snapshot. Prices are copied so later catalog
// changes do not rewrite history.
type Line struct {
	ProductID string          `json:"product_id"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Discount  decimal.Decimal `json:"discount"`
	Quantity  int             `json:"quantity"`
}

// Revenue is the line total after its item discount, before tax.
func (l Line) Revenue() decimal.Decimal {
	gross := l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
	return gross.Sub(gross.Mul(l.Discount).Shift(-2))
}

// FromReceipt builds the journal entry for a confirmed checkout.
func FromReceipt(id string, at time.Time, r *cart.Receipt) *Transaction {
	lines := make([]Line, len(r.Lines))
	for i, l := range r.Lines {
		lines[i] = Line{
			ProductID: l.Product.ID,
			Name:      l.Product.Name,
			UnitPrice: l.Product.Price,
			Discount:  l.Product.Discount,
			Quantity:  l.Quantity,
		}
	}
	tx := &Transaction{
		ID:            id,
		CreatedAt:     at,
		Lines:         lines,
		Subtotal:      r.Totals.Subtotal,
		Discount:      r.Totals.Discount,
		Tax:           r.Totals.Tax,
		GrandTotal:    r.Totals.GrandTotal,
		PaymentMethod: r.PaymentMethod,
	}
	if r.Member != nil {
		tx.MemberID = r.Member.ID
	}
	return tx
}

// Repository defines persistence operations for the journal.
type Repository interface {
	Create(ctx context.Context, tx *Transaction) error
	// List returns transactions created at or after since, oldest first.
	List(ctx context.Context, since time.Time) ([]Transaction, error)
}
