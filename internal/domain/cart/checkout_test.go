package cart

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBeginCheckout_EmptyCartRejected(t *testing.T) {
	c := New(DefaultConfig())

	err := c.BeginCheckout()

	require.ErrorIs(t, err, ErrEmptyCart)
	assert.Equal(t, StateOpen, c.State())
	assert.True(t, c.IsEmpty())
}

func TestBeginCheckout_Twice(t *testing.T) {
	c := New(DefaultConfig())
	c.AddItem(newTestProduct("p1", 1000, 0))

	require.NoError(t, c.BeginCheckout())
	require.ErrorIs(t, c.BeginCheckout(), ErrCheckoutInProgress)
	assert.Equal(t, StateConfirming, c.State())
}

func TestConfirmCheckout_ResetsCart(t *testing.T) {
	c := New(DefaultConfig())
	c.AddItem(newTestProduct("p1", 25000, 0))
	c.AddItem(newTestProduct("p2", 5000, 10))
	c.AttachMember(testMember())
	require.NoError(t, c.BeginCheckout())

	r, err := c.ConfirmCheckout(PaymentQRIS)
	require.NoError(t, err)

	assert.True(t, c.IsEmpty())
	assert.Nil(t, c.Member())
	assert.Equal(t, StateOpen, c.State())

	require.Len(t, r.Lines, 2)
	require.NotNil(t, r.Member)
	assert.Equal(t, "m1", r.Member.ID)
	assert.Equal(t, PaymentQRIS, r.PaymentMethod)
	assert.True(t, decimal.NewFromInt(32800).Equal(r.Totals.GrandTotal), "grand total %s", r.Totals.GrandTotal)
}

func TestCancelCheckout_KeepsCart(t *testing.T) {
	c := New(DefaultConfig())
	c.AddItem(newTestProduct("p1", 1000, 0))
	c.AttachMember(testMember())
	require.NoError(t, c.BeginCheckout())

	require.NoError(t, c.CancelCheckout())

	assert.Equal(t, StateOpen, c.State())
	assert.Equal(t, 1, c.Len())
	assert.NotNil(t, c.Member())
}

func TestConfirmCheckout_Errors(t *testing.T) {
	tests := []struct {
		name      string
		prepare   func(c *Cart)
		method    PaymentMethod
		wantErr   error
		wantState State
	}{
		{
			name:      "not confirming",
			prepare:   func(c *Cart) { c.AddItem(newTestProduct("p1", 1000, 0)) },
			method:    PaymentCash,
			wantErr:   ErrNotConfirming,
			wantState: StateOpen,
		},
		{
			name: "unknown payment method",
			prepare: func(c *Cart) {
				c.AddItem(newTestProduct("p1", 1000, 0))
				_ = c.BeginCheckout()
			},
			method:    PaymentMethod("CHEQUE"),
			wantErr:   ErrInvalidPaymentMethod,
			wantState: StateConfirming,
		},
		{
			name: "points without member",
			prepare: func(c *Cart) {
				c.AddItem(newTestProduct("p1", 1000, 0))
				_ = c.BeginCheckout()
			},
			method:    PaymentMemberPoints,
			wantErr:   ErrMemberRequired,
			wantState: StateConfirming,
		},
		{
			name: "lines removed while confirming",
			prepare: func(c *Cart) {
				c.AddItem(newTestProduct("p1", 1000, 0))
				_ = c.BeginCheckout()
				c.ChangeQuantity("p1", -1)
			},
			method:    PaymentCash,
			wantErr:   ErrEmptyCart,
			wantState: StateOpen,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New(DefaultConfig())
			tt.prepare(c)

			r, err := c.ConfirmCheckout(tt.method)

			require.ErrorIs(t, err, tt.wantErr)
			assert.Nil(t, r)
			assert.Equal(t, tt.wantState, c.State())
		})
	}
}

func TestCancelCheckout_NotConfirming(t *testing.T) {
	c := New(DefaultConfig())
	require.ErrorIs(t, c.CancelCheckout(), ErrNotConfirming)
}

func TestConfirmCheckout_PricesEditsMadeWhileConfirming(t *testing.T) {
	c := New(DefaultConfig())
	c.AddItem(newTestProduct("p1", 1000, 0))
	require.NoError(t, c.BeginCheckout())
	c.AddItem(newTestProduct("p1", 1000, 0))

	r, err := c.ConfirmCheckout(PaymentCash)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(2000).Equal(r.Totals.Subtotal))
}
