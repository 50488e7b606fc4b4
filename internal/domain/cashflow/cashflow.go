// Package cashflow records money moving in and out of the till outside of
// sales: capital deposits, rent, utilities and the like.
package cashflow

import (
	"context"
	"slices"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Type is the direction of a cash movement.
type Type string

const (
	TypeIn  Type = "IN"
	TypeOut Type = "OUT"
)

// Categories lists the accepted record categories.
var Categories = []string{"Operasional", "Modal", "Sewa", "Gaji", "Kebutuhan Kantor", "Lainnya"}

// Sentinel validation errors.
var (
	ErrInvalidType      = errors.New("type must be IN or OUT")
	ErrInvalidAmount    = errors.New("amount must be greater than 0")
	ErrEmptyDescription = errors.New("description required")
	ErrUnknownCategory  = errors.New("unknown category")
)

// Record is a single cash movement.
type Record struct {
	ID          string
	Date        time.Time
	Type        Type
	Amount      decimal.Decimal
	Description string
	Category    string
}

// Summary aggregates all records.
type Summary struct {
	In      decimal.Decimal
	Out     decimal.Decimal
	Balance decimal.Decimal
}

// Filter selects records. An empty Type matches both directions.
type Filter struct {
	Query string
	Type  Type
}

func (f Filter) match(r Record) bool {
	if f.Type != "" && r.Type != f.Type {
		return false
	}
	q := strings.ToLower(strings.TrimSpace(f.Query))
	if q == "" {
		return true
	}
	return strings.Contains(strings.ToLower(r.Description), q) ||
		strings.Contains(strings.ToLower(r.Category), q)
}

// Repository defines persistence operations for cash movements.
type Repository interface {
	Create(ctx context.Context, r *Record) error
	// List returns every record, newest first.
	List(ctx context.Context) ([]Record, error)
}

// Service validates and aggregates cash movements.
type Service struct {
	repo  Repository
	now   func() time.Time
	newID func() string
}

// NewService creates a Service backed by repo.
func NewService(repo Repository) *Service {
	return &Service{
		repo:  repo,
		now:   time.Now,
		newID: func() string { return uuid.New().String() },
	}
}

// Record validates r, assigns an id and a date when missing, and stores it.
func (s *Service) Record(ctx context.Context, r Record) (*Record, error) {
	if r.Type != TypeIn && r.Type != TypeOut {
		return nil, ErrInvalidType
	}
	if !r.Amount.IsPositive() {
		return nil, ErrInvalidAmount
	}
	r.Description = strings.TrimSpace(r.Description)
	if r.Description == "" {
		return nil, ErrEmptyDescription
	}
	if !slices.Contains(Categories, r.Category) {
		return nil, errors.Wrapf(ErrUnknownCategory, "%q", r.Category)
	}

	r.ID = s.newID()
	if r.Date.IsZero() {
		r.Date = s.now()
	}
	if err := s.repo.Create(ctx, &r); err != nil {
		return nil, errors.Wrap(err, "create cash flow record")
	}
	return &r, nil
}

// List returns the records matching f.
func (s *Service) List(ctx context.Context, f Filter) ([]Record, error) {
	all, err := s.repo.List(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "list cash flow")
	}
	out := make([]Record, 0, len(all))
	for _, r := range all {
		if f.match(r) {
			out = append(out, r)
		}
	}
	return out, nil
}

// Summary totals every record; the balance is in minus out.
func (s *Service) Summary(ctx context.Context) (Summary, error) {
	all, err := s.repo.List(ctx)
	if err != nil {
		return Summary{}, errors.Wrap(err, "list cash flow")
	}
	sum := Summary{In: decimal.Zero, Out: decimal.Zero}
	for _, r := range all {
		switch r.Type {
		case TypeIn:
			sum.In = sum.In.Add(r.Amount)
		case TypeOut:
			sum.Out = sum.Out.Add(r.Amount)
		}
	}
	sum.Balance = sum.In.Sub(sum.Out)
	return sum, nil
}
