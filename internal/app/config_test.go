package app

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/kasir/internal/domain/cart"
	"github.com/xenking/kasir/internal/domain/product"
)

func TestConfig_Cart(t *testing.T) {
	tests := []struct {
		name      string
		tax       string
		threshold string
		wantErr   bool
	}{
		{name: "defaults", tax: "11", threshold: "50000"},
		{name: "fractional tax", tax: "7.5", threshold: "0"},
		{name: "tax free", tax: "0", threshold: "50000"},
		{name: "not a number", tax: "eleven", threshold: "50000", wantErr: true},
		{name: "negative tax", tax: "-1", threshold: "50000", wantErr: true},
		{name: "tax above 100", tax: "101", threshold: "50000", wantErr: true},
		{name: "negative threshold", tax: "11", threshold: "-5", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Config{Store: StoreConfig{TaxRate: tt.tax, PromoThreshold: tt.threshold}}
			rules, err := cfg.Cart()
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, decimal.RequireFromString(tt.tax).Equal(rules.TaxRate))
			assert.True(t, decimal.RequireFromString(tt.threshold).Equal(rules.PromoThreshold))
		})
	}
}

func TestConfig_PlatformDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/kasir")
	t.Setenv("GEMINI_API_KEY", "secret")
	t.Setenv("PORT", "9090")

	cfg := Config{Addr: defaultAddr}
	cfg.applyPlatformDefaults()

	assert.Equal(t, "postgres://localhost/kasir", cfg.DatabaseURL)
	assert.Equal(t, "secret", cfg.Gemini.APIKey)
	assert.Equal(t, "0.0.0.0:9090", cfg.Addr)

	cfg = Config{Addr: "127.0.0.1:7000", DatabaseURL: "postgres://explicit"}
	cfg.applyPlatformDefaults()
	assert.Equal(t, "127.0.0.1:7000", cfg.Addr)
	assert.Equal(t, "postgres://explicit", cfg.DatabaseURL)
}

func TestConfig_Handler(t *testing.T) {
	cfg := Config{
		ImageBaseURL: "https://cdn.example.com",
		Store:        StoreConfig{Name: "Toko", Currency: "IDR", TaxRate: "11", PromoThreshold: "50000"},
	}
	rules, err := cfg.Cart()
	require.NoError(t, err)

	hc := cfg.Handler(rules)
	assert.Equal(t, "Toko", hc.Store.Name)
	assert.Equal(t, "https://cdn.example.com", hc.ImageBaseURL)
	assert.True(t, rules.TaxRate.Equal(hc.Store.TaxRate))
}

func TestConfig_CartZeroTaxReachesReceipts(t *testing.T) {
	cfg := Config{Store: StoreConfig{TaxRate: "0", PromoThreshold: "50000"}}
	rules, err := cfg.Cart()
	require.NoError(t, err)

	c := cart.New(rules)
	c.AddItem(product.Product{ID: "p1", Price: decimal.NewFromInt(1000), Discount: decimal.Zero})
	c.AddItem(product.Product{ID: "p1", Price: decimal.NewFromInt(1000), Discount: decimal.Zero})
	require.NoError(t, c.BeginCheckout())

	receipt, err := c.ConfirmCheckout(cart.PaymentCash)
	require.NoError(t, err)
	assert.True(t, receipt.Totals.Tax.IsZero(), "tax %s", receipt.Totals.Tax)
	assert.True(t, decimal.NewFromInt(2000).Equal(receipt.Totals.GrandTotal))
}
