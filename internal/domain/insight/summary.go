package insight

import (
	"cmp"
	"context"
	"slices"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/xenking/kasir/internal/domain/product"
	"github.com/xenking/kasir/internal/domain/transaction"
)

// Period selects the sales window of a summary.
type Period string

const (
	PeriodDaily   Period = "DAILY"
	PeriodWeekly  Period = "WEEKLY"
	PeriodMonthly Period = "MONTHLY"
)

// ErrInvalidPeriod is returned for an unknown period name.
var ErrInvalidPeriod = errors.New("period must be DAILY, WEEKLY or MONTHLY")

// ParsePeriod parses a case-insensitive period name.
func ParsePeriod(s string) (Period, error) {
	switch p := Period(strings.ToUpper(strings.TrimSpace(s))); p {
	case PeriodDaily, PeriodWeekly, PeriodMonthly:
		return p, nil
	default:
		return "", ErrInvalidPeriod
	}
}

// SalesPoint is the revenue of one bucket of the period.
type SalesPoint struct {
	Name  string
	Sales decimal.Decimal
}

// TopItem is a best-selling product within the period.
type TopItem struct {
	Name     string
	Quantity int
	Revenue  decimal.Decimal
}

// Summary is the business snapshot sent to the text generator.
type Summary struct {
	Period       Period
	SalesData    []SalesPoint
	TopItems     []TopItem
	LowStock     int
	TotalMembers int
}

// Encode writes the summary as a JSON object.
func (s Summary) Encode(e *jx.Encoder) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("period", func(e *jx.Encoder) { e.Str(string(s.Period)) })
		e.Field("salesData", func(e *jx.Encoder) {
			e.Arr(func(e *jx.Encoder) {
				for _, p := range s.SalesData {
					e.Obj(func(e *jx.Encoder) {
						e.Field("name", func(e *jx.Encoder) { e.Str(p.Name) })
						e.Field("sales", func(e *jx.Encoder) { e.Num(jx.Num(p.Sales.String())) })
					})
				}
			})
		})
		e.Field("topItems", func(e *jx.Encoder) {
			e.Arr(func(e *jx.Encoder) {
				for _, it := range s.TopItems {
					e.Obj(func(e *jx.Encoder) {
						e.Field("name", func(e *jx.Encoder) { e.Str(it.Name) })
						e.Field("sales", func(e *jx.Encoder) { e.Int(it.Quantity) })
						e.Field("revenue", func(e *jx.Encoder) { e.Num(jx.Num(it.Revenue.String())) })
					})
				}
			})
		})
		e.Field("lowStock", func(e *jx.Encoder) { e.Int(s.LowStock) })
		e.Field("totalMembers", func(e *jx.Encoder) { e.Int(s.TotalMembers) })
	})
}

// JSON returns the encoded summary.
func (s Summary) JSON() []byte {
	var e jx.Encoder
	s.Encode(&e)
	return e.Bytes()
}

var (
	weekdayNames = [...]string{"Min", "Sen", "Sel", "Rab", "Kam", "Jum", "Sab"}
	monthNames   = [...]string{"Jan", "Feb", "Mar", "Apr", "Mei", "Jun", "Jul", "Agu", "Sep", "Okt", "Nov", "Des"}
)

type bucket struct {
	name  string
	start time.Time
}

// buckets returns the consecutive windows of p ending at now, oldest first.
// Each bucket ends where the next one starts; the last ends at now.
func buckets(p Period, now time.Time) []bucket {
	y, m, d := now.Date()
	loc := now.Location()
	today := time.Date(y, m, d, 0, 0, 0, 0, loc)

	var out []bucket
	switch p {
	case PeriodDaily:
		for h := range 24 {
			start := today.Add(time.Duration(h) * time.Hour)
			out = append(out, bucket{name: start.Format("15:04"), start: start})
		}
	case PeriodWeekly:
		for i := 6; i >= 0; i-- {
			start := today.AddDate(0, 0, -i)
			out = append(out, bucket{name: weekdayNames[start.Weekday()], start: start})
		}
	case PeriodMonthly:
		first := time.Date(y, m, 1, 0, 0, 0, 0, loc)
		for i := 5; i >= 0; i-- {
			start := first.AddDate(0, -i, 0)
			out = append(out, bucket{name: monthNames[start.Month()-1], start: start})
		}
	}
	return out
}

// salesData sums grand totals of txs into the buckets of p.
func salesData(p Period, now time.Time, txs []transaction.Transaction) []SalesPoint {
	bs := buckets(p, now)
	points := make([]SalesPoint, len(bs))
	for i, b := range bs {
		points[i] = SalesPoint{Name: b.name, Sales: decimal.Zero}
	}
	for _, tx := range txs {
		if len(bs) == 0 || tx.CreatedAt.Before(bs[0].start) || tx.CreatedAt.After(now) {
			continue
		}
		i := len(bs) - 1
		for i > 0 && tx.CreatedAt.Before(bs[i].start) {
			i--
		}
		points[i].Sales = points[i].Sales.Add(tx.GrandTotal)
	}
	return points
}

// topItems ranks products sold in txs by quantity, then revenue.
func topItems(txs []transaction.Transaction, limit int) []TopItem {
	byID := make(map[string]*TopItem)
	var order []string
	for _, tx := range txs {
		for _, l := range tx.Lines {
			it, ok := byID[l.ProductID]
			if !ok {
				it = &TopItem{Name: l.Name, Revenue: decimal.Zero}
				byID[l.ProductID] = it
				order = append(order, l.ProductID)
			}
			it.Quantity += l.Quantity
			it.Revenue = it.Revenue.Add(l.Revenue())
		}
	}

	items := make([]TopItem, 0, len(order))
	for _, id := range order {
		items = append(items, *byID[id])
	}
	slices.SortStableFunc(items, func(a, b TopItem) int {
		if c := cmp.Compare(b.Quantity, a.Quantity); c != 0 {
			return c
		}
		return b.Revenue.Cmp(a.Revenue)
	})
	if len(items) > limit {
		items = items[:limit]
	}
	return items
}

// BuildSummary collects the catalog, member and journal figures for p.
func (s *Service) BuildSummary(ctx context.Context, p Period) (Summary, error) {
	now := s.now()
	bs := buckets(p, now)
	if len(bs) == 0 {
		return Summary{}, ErrInvalidPeriod
	}

	var (
		txs      []transaction.Transaction
		lowStock []product.Product
		members  int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		if txs, err = s.journal.List(gctx, bs[0].start); err != nil {
			return errors.Wrap(err, "list transactions")
		}
		return nil
	})
	g.Go(func() error {
		var err error
		lowStock, err = product.LowStock(gctx, s.products)
		return err
	})
	g.Go(func() error {
		var err error
		if members, err = s.members.Count(gctx); err != nil {
			return errors.Wrap(err, "count members")
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return Summary{}, err
	}

	return Summary{
		Period:       p,
		SalesData:    salesData(p, now, txs),
		TopItems:     topItems(txs, s.topN),
		LowStock:     len(lowStock),
		TotalMembers: members,
	}, nil
}
