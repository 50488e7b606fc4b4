// Package cart implements the register's shopping cart: line items, quantity
// changes, member attachment, derived totals and the checkout state machine.
//
// A Cart is owned by a single POS session and is not safe for concurrent use.
package cart

import (
	"math"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/xenking/kasir/internal/domain/member"
	"github.com/xenking/kasir/internal/domain/product"
)

var (
	// DefaultTaxRate is the flat tax rate in percent.
	DefaultTaxRate = decimal.NewFromInt(11)
	// DefaultPromoThreshold is the grand total at which the add-on offer unlocks.
	DefaultPromoThreshold = decimal.NewFromInt(50000)
)

var (
	// ErrEmptyCart is returned when checkout is attempted on a cart with no lines.
	ErrEmptyCart = errors.New("cart is empty")
	// ErrCheckoutInProgress is returned when checkout is started twice.
	ErrCheckoutInProgress = errors.New("checkout already in progress")
	// ErrNotConfirming is returned when confirm or cancel is called while the
	// cart is open for editing.
	ErrNotConfirming = errors.New("checkout not in progress")
	// ErrPromoNotEligible is returned when the add-on offer is taken before
	// the grand total reaches the promo threshold.
	ErrPromoNotEligible = errors.New("cart not eligible for promo")
)

// State is the checkout state of a cart.
type State int

const (
	// StateOpen means the cart is editable and no payment is pending.
	StateOpen State = iota
	// StateConfirming means the cashier is choosing a payment method.
	StateConfirming
)

func (s State) String() string {
	switch s {
	case StateOpen:
		return "OPEN"
	case StateConfirming:
		return "CONFIRMING"
	default:
		return "UNKNOWN"
	}
}

// Config holds the pricing settings of a cart. Values are used as given: a
// zero TaxRate charges no tax and a zero PromoThreshold makes every cart
// eligible for the add-on offer.
type Config struct {
	// TaxRate in percent, e.g. 11 for 11%.
	TaxRate        decimal.Decimal
	PromoThreshold decimal.Decimal
}

// DefaultConfig returns DefaultTaxRate and DefaultPromoThreshold.
func DefaultConfig() Config {
	return Config{TaxRate: DefaultTaxRate, PromoThreshold: DefaultPromoThreshold}
}

// Line is one product in the cart with its quantity. Quantity is always >= 1.
type Line struct {
	Product  product.Product
	Quantity int
}

// Subtotal is the undiscounted price of the line.
func (l Line) Subtotal() decimal.Decimal {
	return l.Product.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Discount is the per-item discount of the line times its quantity.
func (l Line) Discount() decimal.Decimal {
	return l.Subtotal().Mul(l.Product.Discount).Shift(-2)
}

// Cart is the editable collection of lines for one checkout.
type Cart struct {
	taxRate        decimal.Decimal
	promoThreshold decimal.Decimal

	lines  []Line
	member *member.Member
	state  State
}

// New returns an empty, open cart priced with cfg.
func New(cfg Config) *Cart {
	return &Cart{
		taxRate:        cfg.TaxRate,
		promoThreshold: cfg.PromoThreshold,
	}
}

// AddItem adds one unit of p, appending a new line when p is not in the cart.
// Stock is not checked.
func (c *Cart) AddItem(p product.Product) {
	if i := c.index(p.ID); i >= 0 {
		c.lines[i].Quantity++
		return
	}
	c.lines = append(c.lines, Line{Product: p, Quantity: 1})
}

// ChangeQuantity adds delta to the quantity of the line for productID,
// flooring at zero and saturating at math.MaxInt. A line that reaches zero
// is removed. Unknown product ids are ignored.
func (c *Cart) ChangeQuantity(productID string, delta int) {
	i := c.index(productID)
	if i < 0 {
		return
	}
	qty := addQuantity(c.lines[i].Quantity, delta)
	if qty == 0 {
		c.lines = append(c.lines[:i], c.lines[i+1:]...)
		return
	}
	c.lines[i].Quantity = qty
}

// Clear removes every line, detaches the member and reopens the cart.
func (c *Cart) Clear() {
	c.lines = nil
	c.member = nil
	c.state = StateOpen
}

// AttachMember links m to the cart, replacing any attached member.
func (c *Cart) AttachMember(m member.Member) {
	c.member = &m
}

// DetachMember unlinks the attached member, if any.
func (c *Cart) DetachMember() {
	c.member = nil
}

// Member returns the attached member or nil.
func (c *Cart) Member() *member.Member {
	if c.member == nil {
		return nil
	}
	m := *c.member
	return &m
}

// Lines returns a copy of the lines in insertion order.
func (c *Cart) Lines() []Line {
	out := make([]Line, len(c.lines))
	copy(out, c.lines)
	return out
}

// Len returns the number of distinct products in the cart.
func (c *Cart) Len() int { return len(c.lines) }

// IsEmpty reports whether the cart has no lines.
func (c *Cart) IsEmpty() bool { return len(c.lines) == 0 }

// State returns the checkout state.
func (c *Cart) State() State { return c.state }

// TaxRate returns the configured tax rate in percent.
func (c *Cart) TaxRate() decimal.Decimal { return c.taxRate }

// Totals prices the current lines with the configured tax rate.
func (c *Cart) Totals() Totals {
	return ComputeTotals(c.lines, c.taxRate)
}

// PromoEligible reports whether the grand total unlocks the add-on offer.
func (c *Cart) PromoEligible() bool {
	return c.Totals().GrandTotal.GreaterThanOrEqual(c.promoThreshold)
}

// AddPromo adds the add-on product p when the cart is eligible for it.
func (c *Cart) AddPromo(p product.Product) error {
	if !c.PromoEligible() {
		return ErrPromoNotEligible
	}
	c.AddItem(p)
	return nil
}

// addQuantity returns max(0, qty+delta) without wrapping. qty is >= 1.
func addQuantity(qty, delta int) int {
	if delta > 0 && qty > math.MaxInt-delta {
		return math.MaxInt
	}
	return max(0, qty+delta)
}

func (c *Cart) index(productID string) int {
	for i := range c.lines {
		if c.lines[i].Product.ID == productID {
			return i
		}
	}
	return -1
}
