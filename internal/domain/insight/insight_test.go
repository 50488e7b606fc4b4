package insight

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/kasir/internal/domain/member"
	"github.com/xenking/kasir/internal/domain/product"
	"github.com/xenking/kasir/internal/domain/transaction"
)

// --- Mock implementations ---

type mockProductRepo struct {
	products []product.Product
	err      error
}

func (m *mockProductRepo) List(_ context.Context) ([]product.Product, error) {
	return m.products, m.err
}

func (m *mockProductRepo) GetByID(_ context.Context, _ string) (*product.Product, error) {
	return nil, product.ErrNotFound
}

func (m *mockProductRepo) GetByIDs(_ context.Context, _ []string) ([]product.Product, error) {
	return nil, nil
}

type mockMemberRepo struct{ count int }

func (m *mockMemberRepo) List(_ context.Context) ([]member.Member, error) { return nil, nil }

func (m *mockMemberRepo) GetByID(_ context.Context, _ string) (*member.Member, error) {
	return nil, member.ErrNotFound
}

func (m *mockMemberRepo) Count(_ context.Context) (int, error) { return m.count, nil }

type mockJournal struct {
	txs       []transaction.Transaction
	lastSince time.Time
}

func (m *mockJournal) Create(_ context.Context, _ *transaction.Transaction) error { return nil }

func (m *mockJournal) List(_ context.Context, since time.Time) ([]transaction.Transaction, error) {
	m.lastSince = since
	return m.txs, nil
}

type mockGenerator struct {
	text   string
	err    error
	prompt string
}

func (m *mockGenerator) Generate(_ context.Context, prompt string) (string, error) {
	m.prompt = prompt
	return m.text, m.err
}

// --- Helpers ---

var fixedNow = time.Date(2025, 6, 15, 14, 30, 0, 0, time.UTC) // Sunday

func sale(at time.Time, grand int64, lines ...transaction.Line) transaction.Transaction {
	return transaction.Transaction{ID: at.String(), CreatedAt: at, GrandTotal: decimal.NewFromInt(grand), Lines: lines}
}

func line(id, name string, price int64, qty int) transaction.Line {
	return transaction.Line{ProductID: id, Name: name, UnitPrice: decimal.NewFromInt(price), Discount: decimal.Zero, Quantity: qty}
}

func newTestService(journal *mockJournal, gen Generator) *Service {
	products := &mockProductRepo{products: []product.Product{
		{ID: "p1", Stock: 50, MinStock: 5},
		{ID: "p4", Stock: 10, MinStock: 10},
		{ID: "p5", Stock: 0, MinStock: 3},
	}}
	svc := NewService(products, &mockMemberRepo{count: 2}, journal, gen)
	svc.now = func() time.Time { return fixedNow }
	return svc
}

// --- Tests ---

func TestParsePeriod(t *testing.T) {
	p, err := ParsePeriod("weekly")
	require.NoError(t, err)
	assert.Equal(t, PeriodWeekly, p)

	_, err = ParsePeriod("YEARLY")
	require.ErrorIs(t, err, ErrInvalidPeriod)
}

func TestBuildSummary_Weekly(t *testing.T) {
	journal := &mockJournal{txs: []transaction.Transaction{
		sale(fixedNow.AddDate(0, 0, -6).Add(time.Hour), 1000, line("p1", "Nasi Goreng", 1000, 1)),
		sale(fixedNow.Add(-time.Hour), 5000, line("p2", "Es Teh", 1000, 5)),
		sale(fixedNow.Add(-2*time.Hour), 2500, line("p1", "Nasi Goreng", 1000, 2), line("p2", "Es Teh", 500, 1)),
	}}
	svc := newTestService(journal, &mockGenerator{})

	s, err := svc.BuildSummary(context.Background(), PeriodWeekly)
	require.NoError(t, err)

	assert.Equal(t, time.Date(2025, 6, 9, 0, 0, 0, 0, time.UTC), journal.lastSince)
	require.Len(t, s.SalesData, 7)
	assert.Equal(t, "Sen", s.SalesData[0].Name)
	assert.Equal(t, "Min", s.SalesData[6].Name)
	assert.True(t, decimal.NewFromInt(1000).Equal(s.SalesData[0].Sales))
	assert.True(t, decimal.NewFromInt(7500).Equal(s.SalesData[6].Sales))

	require.Len(t, s.TopItems, 2)
	assert.Equal(t, "Es Teh", s.TopItems[0].Name)
	assert.Equal(t, 6, s.TopItems[0].Quantity)
	assert.True(t, decimal.NewFromInt(5500).Equal(s.TopItems[0].Revenue))
	assert.Equal(t, "Nasi Goreng", s.TopItems[1].Name)
	assert.Equal(t, 3, s.TopItems[1].Quantity)

	assert.Equal(t, 2, s.LowStock)
	assert.Equal(t, 2, s.TotalMembers)
}

func TestBuildSummary_DailyAndMonthlyBuckets(t *testing.T) {
	svc := newTestService(&mockJournal{}, &mockGenerator{})

	daily, err := svc.BuildSummary(context.Background(), PeriodDaily)
	require.NoError(t, err)
	require.Len(t, daily.SalesData, 24)
	assert.Equal(t, "00:00", daily.SalesData[0].Name)
	assert.Equal(t, "23:00", daily.SalesData[23].Name)

	monthly, err := svc.BuildSummary(context.Background(), PeriodMonthly)
	require.NoError(t, err)
	require.Len(t, monthly.SalesData, 6)
	assert.Equal(t, "Jan", monthly.SalesData[0].Name)
	assert.Equal(t, "Jun", monthly.SalesData[5].Name)
}

func TestBuildSummary_InvalidPeriod(t *testing.T) {
	svc := newTestService(&mockJournal{}, &mockGenerator{})

	_, err := svc.BuildSummary(context.Background(), Period("HOURLY"))
	require.ErrorIs(t, err, ErrInvalidPeriod)
}

func TestTopItems_Limit(t *testing.T) {
	var txs []transaction.Transaction
	for i, id := range []string{"a", "b", "c", "d", "e", "f", "g"} {
		txs = append(txs, sale(fixedNow, 0, line(id, id, 100, i+1)))
	}

	got := topItems(txs, 5)
	require.Len(t, got, 5)
	assert.Equal(t, "g", got[0].Name)
	assert.Equal(t, "c", got[4].Name)
}

func TestSummary_JSON(t *testing.T) {
	s := Summary{
		Period:       PeriodDaily,
		SalesData:    []SalesPoint{{Name: "08:00", Sales: decimal.NewFromInt(1200)}},
		TopItems:     []TopItem{{Name: "Es Teh \"Manis\"", Quantity: 98, Revenue: decimal.NewFromInt(490000)}},
		LowStock:     7,
		TotalMembers: 2,
	}

	var got map[string]any
	require.NoError(t, json.Unmarshal(s.JSON(), &got))

	assert.Equal(t, "DAILY", got["period"])
	assert.EqualValues(t, 7, got["lowStock"])
	assert.EqualValues(t, 2, got["totalMembers"])
	items := got["topItems"].([]any)
	require.Len(t, items, 1)
	assert.Equal(t, "Es Teh \"Manis\"", items[0].(map[string]any)["name"])
}

func TestInsight(t *testing.T) {
	tests := []struct {
		name string
		gen  *mockGenerator
		want string
	}{
		{name: "success", gen: &mockGenerator{text: "1. Naikkan harga kopi."}, want: "1. Naikkan harga kopi."},
		{name: "generator error", gen: &mockGenerator{err: errors.New("quota exceeded")}, want: FallbackMessage},
		{name: "empty answer", gen: &mockGenerator{text: "  "}, want: NoDataMessage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newTestService(&mockJournal{}, tt.gen)

			got := svc.Insight(context.Background(), PeriodWeekly)

			assert.Equal(t, tt.want, got)
			assert.Contains(t, tt.gen.prompt, `"period":"WEEKLY"`)
			assert.Contains(t, tt.gen.prompt, "Bahasa Indonesia")
		})
	}
}

func TestInsight_SummaryFailureFallsBack(t *testing.T) {
	gen := &mockGenerator{text: "unused"}
	svc := NewService(&mockProductRepo{err: errors.New("db down")}, &mockMemberRepo{}, &mockJournal{}, gen)

	assert.Equal(t, FallbackMessage, svc.Insight(context.Background(), PeriodDaily))
	assert.Empty(t, gen.prompt)
}
