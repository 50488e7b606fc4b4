package cart

import "github.com/shopspring/decimal"

// Totals is the derived pricing of a cart. It is never stored.
type Totals struct {
	Subtotal   decimal.Decimal
	Discount   decimal.Decimal
	Tax        decimal.Decimal
	GrandTotal decimal.Decimal
}

// ComputeTotals prices lines with taxRate given in percent.
//
// Tax is charged on the undiscounted subtotal:
//
//	grand = subtotal - discount + subtotal*taxRate/100
func ComputeTotals(lines []Line, taxRate decimal.Decimal) Totals {
	subtotal := decimal.Zero
	discount := decimal.Zero
	for _, l := range lines {
		subtotal = subtotal.Add(l.Subtotal())
		discount = discount.Add(l.Discount())
	}
	tax := subtotal.Mul(taxRate).Shift(-2)

	return Totals{
		Subtotal:   subtotal,
		Discount:   discount,
		Tax:        tax,
		GrandTotal: subtotal.Sub(discount).Add(tax),
	}
}
