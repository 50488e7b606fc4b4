// Package handler exposes the POS over a JSON HTTP API.
package handler

import (
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/xenking/kasir/internal/domain/cashflow"
	"github.com/xenking/kasir/internal/domain/insight"
	"github.com/xenking/kasir/internal/domain/member"
	"github.com/xenking/kasir/internal/domain/pos"
	"github.com/xenking/kasir/internal/domain/product"
	"github.com/xenking/kasir/internal/domain/transaction"
)

// Store describes the shop printed on receipts and shown in the settings
// screen.
type Store struct {
	Name           string
	Address        string
	Phone          string
	Currency       string
	TaxRate        decimal.Decimal
	PromoThreshold decimal.Decimal
}

// Config holds non-dependency configuration for the Handler.
type Config struct {
	Store Store
	// ImageBaseURL is prepended to relative product image paths. When empty,
	// image paths are returned as stored.
	ImageBaseURL string
}

// Handler serves the /api routes.
type Handler struct {
	products     product.Repository
	categories   product.CategoryRepository
	members      member.Repository
	journal      transaction.Repository
	sessions     *pos.Service
	cashflow     *cashflow.Service
	insights     *insight.Service
	store        Store
	imageBaseURL string
}

// NewHandler constructs a Handler with the required domain dependencies.
func NewHandler(
	cfg Config,
	products product.Repository,
	categories product.CategoryRepository,
	members member.Repository,
	journal transaction.Repository,
	sessions *pos.Service,
	cashflowService *cashflow.Service,
	insights *insight.Service,
) *Handler {
	return &Handler{
		products:     products,
		categories:   categories,
		members:      members,
		journal:      journal,
		sessions:     sessions,
		cashflow:     cashflowService,
		insights:     insights,
		store:        cfg.Store,
		imageBaseURL: strings.TrimSuffix(cfg.ImageBaseURL, "/"),
	}
}

// Register adds every API route to mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/settings", h.getSettings)

	mux.HandleFunc("GET /api/products", h.listProducts)
	mux.HandleFunc("GET /api/products/low-stock", h.lowStockProducts)
	mux.HandleFunc("GET /api/products/{id}", h.getProduct)
	mux.HandleFunc("GET /api/categories", h.listCategories)
	mux.HandleFunc("GET /api/members", h.listMembers)
	mux.HandleFunc("GET /api/members/{id}", h.getMember)

	mux.HandleFunc("POST /api/sessions", h.openSession)
	mux.HandleFunc("GET /api/sessions/{id}", h.getSession)
	mux.HandleFunc("DELETE /api/sessions/{id}", h.closeSession)
	mux.HandleFunc("POST /api/sessions/{id}/items", h.addItem)
	mux.HandleFunc("PATCH /api/sessions/{id}/items/{productId}", h.changeQuantity)
	mux.HandleFunc("DELETE /api/sessions/{id}/items", h.clearCart)
	mux.HandleFunc("PUT /api/sessions/{id}/member", h.attachMember)
	mux.HandleFunc("DELETE /api/sessions/{id}/member", h.detachMember)
	mux.HandleFunc("POST /api/sessions/{id}/promo", h.addPromo)
	mux.HandleFunc("POST /api/sessions/{id}/checkout", h.beginCheckout)
	mux.HandleFunc("POST /api/sessions/{id}/checkout/cancel", h.cancelCheckout)
	mux.HandleFunc("POST /api/sessions/{id}/checkout/confirm", h.confirmCheckout)

	mux.HandleFunc("GET /api/transactions", h.listTransactions)
	mux.HandleFunc("GET /api/cashflow", h.listCashFlow)
	mux.HandleFunc("POST /api/cashflow", h.recordCashFlow)
	mux.HandleFunc("GET /api/cashflow/summary", h.cashFlowSummary)

	mux.HandleFunc("GET /api/dashboard", h.dashboard)
	mux.HandleFunc("POST /api/insights", h.generateInsight)
}

// Routes returns a mux serving only the API routes.
func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()
	h.Register(mux)
	return mux
}
