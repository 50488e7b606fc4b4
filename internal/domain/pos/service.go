// Package pos keeps the open register sessions. Every session owns exactly
// one cart; operations on a session are serialized, different sessions run
// independently.
package pos

import (
	"context"
	"sync"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	"github.com/xenking/kasir/internal/domain/cart"
	"github.com/xenking/kasir/internal/domain/member"
	"github.com/xenking/kasir/internal/domain/product"
	"github.com/xenking/kasir/internal/domain/transaction"
)

// ErrSessionNotFound is returned for an unknown or closed session id.
var ErrSessionNotFound = errors.New("session not found")

// Snapshot is a read-only view of a session's cart with its derived totals.
type Snapshot struct {
	SessionID     string
	OpenedAt      time.Time
	State         cart.State
	Lines         []cart.Line
	Member        *member.Member
	Totals        cart.Totals
	TaxRate       decimal.Decimal
	PromoEligible bool
}

type session struct {
	mu       sync.Mutex
	id       string
	openedAt time.Time
	cart     *cart.Cart
}

func (s *session) snapshot() Snapshot {
	return Snapshot{
		SessionID:     s.id,
		OpenedAt:      s.openedAt,
		State:         s.cart.State(),
		Lines:         s.cart.Lines(),
		Member:        s.cart.Member(),
		Totals:        s.cart.Totals(),
		TaxRate:       s.cart.TaxRate(),
		PromoEligible: s.cart.PromoEligible(),
	}
}

// Service encapsulates the register sessions and checkout journaling.
type Service struct {
	cfg      cart.Config
	products product.Repository
	members  member.Repository
	journal  transaction.Repository

	now       func() time.Time
	newID     func() string
	checkouts metric.Int64Counter

	mu       sync.Mutex
	sessions map[string]*session
}

// NewService creates a session Service. Carts are created with cfg.
func NewService(
	cfg cart.Config,
	products product.Repository,
	members member.Repository,
	journal transaction.Repository,
	mp metric.MeterProvider,
) (*Service, error) {
	checkouts, err := mp.Meter("kasir/pos").Int64Counter("pos.checkouts",
		metric.WithDescription("Confirmed checkouts by payment method"),
	)
	if err != nil {
		return nil, errors.Wrap(err, "create checkout counter")
	}
	return &Service{
		cfg:       cfg,
		products:  products,
		members:   members,
		journal:   journal,
		now:       time.Now,
		newID:     func() string { return uuid.New().String() },
		checkouts: checkouts,
		sessions:  make(map[string]*session),
	}, nil
}

// Open starts a new session with an empty cart.
func (s *Service) Open(ctx context.Context) Snapshot {
	sess := &session{
		id:       s.newID(),
		openedAt: s.now(),
		cart:     cart.New(s.cfg),
	}

	s.mu.Lock()
	s.sessions[sess.id] = sess
	s.mu.Unlock()

	zctx.From(ctx).Debug("Session opened", zap.String("session_id", sess.id))
	return sess.snapshot()
}

// Close discards the session and its cart.
func (s *Service) Close(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	_, ok := s.sessions[sessionID]
	delete(s.sessions, sessionID)
	s.mu.Unlock()

	if !ok {
		return ErrSessionNotFound
	}
	zctx.From(ctx).Debug("Session closed", zap.String("session_id", sessionID))
	return nil
}

// Get returns the current snapshot of a session.
func (s *Service) Get(_ context.Context, sessionID string) (Snapshot, error) {
	return s.do(sessionID, func(*cart.Cart) error { return nil })
}

// AddItem adds one unit of the product to the session's cart.
func (s *Service) AddItem(ctx context.Context, sessionID, productID string) (Snapshot, error) {
	p, err := s.products.GetByID(ctx, productID)
	if err != nil {
		return Snapshot{}, errors.Wrapf(err, "get product %s", productID)
	}
	return s.do(sessionID, func(c *cart.Cart) error {
		c.AddItem(*p)
		return nil
	})
}

// AddPromo adds the add-on product when the cart's grand total unlocks it.
func (s *Service) AddPromo(ctx context.Context, sessionID, productID string) (Snapshot, error) {
	p, err := s.products.GetByID(ctx, productID)
	if err != nil {
		return Snapshot{}, errors.Wrapf(err, "get product %s", productID)
	}
	return s.do(sessionID, func(c *cart.Cart) error {
		return c.AddPromo(*p)
	})
}

// ChangeQuantity applies delta to a line. Unknown products are ignored.
func (s *Service) ChangeQuantity(_ context.Context, sessionID, productID string, delta int) (Snapshot, error) {
	return s.do(sessionID, func(c *cart.Cart) error {
		c.ChangeQuantity(productID, delta)
		return nil
	})
}

// Clear empties the cart and detaches the member.
func (s *Service) Clear(_ context.Context, sessionID string) (Snapshot, error) {
	return s.do(sessionID, func(c *cart.Cart) error {
		c.Clear()
		return nil
	})
}

// AttachMember links a loyalty member to the cart.
func (s *Service) AttachMember(ctx context.Context, sessionID, memberID string) (Snapshot, error) {
	m, err := s.members.GetByID(ctx, memberID)
	if err != nil {
		return Snapshot{}, errors.Wrapf(err, "get member %s", memberID)
	}
	return s.do(sessionID, func(c *cart.Cart) error {
		c.AttachMember(*m)
		return nil
	})
}

// DetachMember unlinks the member from the cart.
func (s *Service) DetachMember(_ context.Context, sessionID string) (Snapshot, error) {
	return s.do(sessionID, func(c *cart.Cart) error {
		c.DetachMember()
		return nil
	})
}

// BeginCheckout moves the cart to payment selection.
func (s *Service) BeginCheckout(_ context.Context, sessionID string) (Snapshot, error) {
	return s.do(sessionID, (*cart.Cart).BeginCheckout)
}

// CancelCheckout returns to the open cart unchanged.
func (s *Service) CancelCheckout(_ context.Context, sessionID string) (Snapshot, error) {
	return s.do(sessionID, (*cart.Cart).CancelCheckout)
}

// ConfirmCheckout completes the sale, records it in the journal and leaves
// the session with an empty cart.
//
// The sale is final once the cart confirms it; a journal failure is
// reported but does not restore the cart.
func (s *Service) ConfirmCheckout(ctx context.Context, sessionID string, method cart.PaymentMethod) (*transaction.Transaction, error) {
	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}

	sess.mu.Lock()
	receipt, err := sess.cart.ConfirmCheckout(method)
	sess.mu.Unlock()
	if err != nil {
		return nil, err
	}

	tx := transaction.FromReceipt(s.newID(), s.now(), receipt)
	if err := s.journal.Create(ctx, tx); err != nil {
		return nil, errors.Wrap(err, "record transaction")
	}

	s.checkouts.Add(ctx, 1, metric.WithAttributes(
		attribute.String("payment_method", string(method)),
	))
	zctx.From(ctx).Info("Checkout confirmed",
		zap.String("session_id", sessionID),
		zap.String("transaction_id", tx.ID),
		zap.String("payment_method", string(method)),
		zap.Stringer("grand_total", tx.GrandTotal),
		zap.Int("lines", len(tx.Lines)),
	)
	return tx, nil
}

func (s *Service) session(id string) (*session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return sess, nil
}

// do runs fn against the session's cart under the session lock and returns
// the resulting snapshot. On error the snapshot is still returned so callers
// can show the unchanged cart.
func (s *Service) do(sessionID string, fn func(*cart.Cart) error) (Snapshot, error) {
	sess, err := s.session(sessionID)
	if err != nil {
		return Snapshot{}, err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	err = fn(sess.cart)
	return sess.snapshot(), err
}
