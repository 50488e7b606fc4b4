package cart

import (
	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/xenking/kasir/internal/domain/member"
)

// PaymentMethod is the tender chosen at confirmation.
type PaymentMethod string

const (
	PaymentCash         PaymentMethod = "CASH"
	PaymentDebit        PaymentMethod = "DEBIT"
	PaymentQRIS         PaymentMethod = "QRIS"
	PaymentMemberPoints PaymentMethod = "MEMBER_POINTS"
)

var (
	// ErrInvalidPaymentMethod is returned for an unsupported tender.
	ErrInvalidPaymentMethod = errors.New("invalid payment method")
	// ErrMemberRequired is returned when paying with points and no member is attached.
	ErrMemberRequired = errors.New("member required for points payment")
)

// Valid reports whether m is a supported payment method.
func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentCash, PaymentDebit, PaymentQRIS, PaymentMemberPoints:
		return true
	default:
		return false
	}
}

// Receipt is emitted when a checkout is confirmed. It captures the cart as
// it was priced at confirmation.
type Receipt struct {
	Lines         []Line
	Member        *member.Member
	Totals        Totals
	TaxRate       decimal.Decimal
	PaymentMethod PaymentMethod
}

// BeginCheckout moves an open, non-empty cart to payment selection. An empty
// cart is rejected and stays open.
func (c *Cart) BeginCheckout() error {
	if c.state == StateConfirming {
		return ErrCheckoutInProgress
	}
	if c.IsEmpty() {
		return ErrEmptyCart
	}
	c.state = StateConfirming
	return nil
}

// CancelCheckout returns to the open cart with lines and member untouched.
func (c *Cart) CancelCheckout() error {
	if c.state != StateConfirming {
		return ErrNotConfirming
	}
	c.state = StateOpen
	return nil
}

// ConfirmCheckout completes the sale with method, returns its receipt and
// resets the cart to its initial empty state. Payment always succeeds.
//
// Lines may change while confirming; the receipt prices the cart as it is
// now. If every line was removed in the meantime the cart reopens and
// ErrEmptyCart is returned.
func (c *Cart) ConfirmCheckout(method PaymentMethod) (*Receipt, error) {
	if c.state != StateConfirming {
		return nil, ErrNotConfirming
	}
	if !method.Valid() {
		return nil, errors.Wrapf(ErrInvalidPaymentMethod, "%q", method)
	}
	if method == PaymentMemberPoints && c.member == nil {
		return nil, ErrMemberRequired
	}
	if c.IsEmpty() {
		c.state = StateOpen
		return nil, ErrEmptyCart
	}

	r := &Receipt{
		Lines:         c.Lines(),
		Member:        c.Member(),
		Totals:        c.Totals(),
		TaxRate:       c.taxRate,
		PaymentMethod: method,
	}
	c.Clear()
	return r, nil
}
