// Package app wires configuration, storage, domain services and the HTTP
// server together.
package app

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/kasir/internal/domain/cashflow"
	"github.com/xenking/kasir/internal/domain/insight"
	"github.com/xenking/kasir/internal/domain/member"
	"github.com/xenking/kasir/internal/domain/pos"
	"github.com/xenking/kasir/internal/domain/product"
	"github.com/xenking/kasir/internal/domain/transaction"
	"github.com/xenking/kasir/internal/gemini"
	"github.com/xenking/kasir/internal/handler"
	"github.com/xenking/kasir/internal/storage/memory"
	"github.com/xenking/kasir/internal/storage/postgres"
	"github.com/xenking/kasir/pkg/health"
	"github.com/xenking/kasir/pkg/httpmiddleware"
)

// repositories is the storage backend selected by configuration.
type repositories struct {
	products   product.Repository
	categories product.CategoryRepository
	members    member.Repository
	journal    transaction.Repository
	cashflow   cashflow.Repository
	// db is nil for the in-memory store.
	db    health.Pinger
	close func()
}

// openRepositories connects to PostgreSQL and applies migrations, or falls
// back to the seeded in-memory store when no database URL is configured.
func openRepositories(ctx context.Context, lg *zap.Logger, databaseURL string) (*repositories, error) {
	if databaseURL == "" {
		lg.Warn("No database configured, using seeded in-memory store")
		return &repositories{
			products:   memory.NewProductRepository(memory.SeedProducts()),
			categories: memory.NewCategoryRepository(memory.SeedCategories()),
			members:    memory.NewMemberRepository(memory.SeedMembers()),
			journal:    memory.NewTransactionRepository(),
			cashflow:   memory.NewCashFlowRepository(memory.SeedCashFlow()),
			close:      func() {},
		}, nil
	}

	pool, err := postgres.NewPool(ctx, databaseURL)
	if err != nil {
		return nil, errors.Wrap(err, "create db pool")
	}
	if err := postgres.RunMigrations(ctx, pool); err != nil {
		pool.Close()
		return nil, errors.Wrap(err, "run migrations")
	}
	return &repositories{
		products:   postgres.NewProductRepository(pool),
		categories: postgres.NewCategoryRepository(pool),
		members:    postgres.NewMemberRepository(pool),
		journal:    postgres.NewTransactionRepository(pool),
		cashflow:   postgres.NewCashFlowRepository(pool),
		db:         pool,
		close:      pool.Close,
	}, nil
}

// Run creates all dependencies, starts the HTTP server, and handles graceful
// shutdown. It is the single wiring point for the application.
func Run(ctx context.Context, lg *zap.Logger, m *app.Telemetry, cfg *Config) error {
	lg.Info("Initializing", zap.String("addr", cfg.Addr))

	rules, err := cfg.Cart()
	if err != nil {
		return errors.Wrap(err, "cart rules")
	}

	repos, err := openRepositories(ctx, lg, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer repos.close()

	// Health check service.
	healthSvc := health.New()
	if repos.db != nil {
		healthSvc.AddReadinessCheck("postgres", 5*time.Second, health.PingCheck(repos.db))
	}
	healthSvc.AddLivenessCheck("goroutines", time.Second, health.GoroutineCountCheck(10000))
	healthSvc.AddLivenessCheck("gc", time.Second, health.GCMaxPauseCheck(time.Second))
	healthSvc.Start(ctx, 10*time.Second)
	healthSvc.SetReady(true)

	// Domain services.
	sessions, err := pos.NewService(rules, repos.products, repos.members, repos.journal, m.MeterProvider())
	if err != nil {
		return errors.Wrap(err, "create pos service")
	}
	if cfg.Gemini.APIKey == "" {
		lg.Warn("Gemini API key not set, insights will return the fallback message")
	}
	geminiClient := gemini.NewClient(cfg.GeminiClient(), m.TracerProvider(), m.MeterProvider())
	insights := insight.NewService(repos.products, repos.members, repos.journal, geminiClient)

	// HTTP handlers.
	h := handler.NewHandler(
		cfg.Handler(rules),
		repos.products,
		repos.categories,
		repos.members,
		repos.journal,
		sessions,
		cashflow.NewService(repos.cashflow),
		insights,
	)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /livez", healthSvc.LiveEndpoint)
	mux.HandleFunc("GET /readyz", healthSvc.ReadyEndpoint)
	h.Register(mux)

	baseCtx := context.WithoutCancel(zctx.Base(ctx, lg))
	server := &http.Server{
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       5 * time.Second,
		// Insight generation waits on the model.
		WriteTimeout:   60 * time.Second,
		IdleTimeout:    120 * time.Second,
		MaxHeaderBytes: 1 << 20,
		Addr:           cfg.Addr,
		BaseContext:    func(net.Listener) context.Context { return baseCtx },
		Handler: httpmiddleware.Wrap(mux,
			httpmiddleware.Recovery(),
			httpmiddleware.CORS(httpmiddleware.CORSConfig{
				AllowOrigins:     cfg.CORS.Origins,
				AllowHeaders:     []string{"Content-Type", "X-Request-ID"},
				ExposeHeaders:    []string{"X-Request-ID"},
				AllowCredentials: cfg.CORS.AllowCredentials,
				MaxAge:           86400,
			}),
			httpmiddleware.RateLimitWithCleanup(ctx, httpmiddleware.RateLimitConfig{
				Max:    cfg.RateLimit.Max,
				Window: cfg.RateLimit.Window,
			}),
			httpmiddleware.RequestID(),
			httpmiddleware.InjectLogger(lg),
			httpmiddleware.Instrument("kasir-api", m.TracerProvider(), m.MeterProvider()),
			httpmiddleware.LogRequests(),
			httpmiddleware.Labeler(),
		),
	}

	// Graceful shutdown: wait for context cancellation, drain, then stop.
	shutdownDone := make(chan struct{})
	go func() {
		<-ctx.Done()
		healthSvc.SetReady(false)
		lg.Info("Readiness set to false, draining", zap.Duration("delay", cfg.Graceful.ReadinessDelay))
		time.Sleep(cfg.Graceful.ReadinessDelay)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Graceful.ShutdownTimeout)
		defer cancel()

		lg.Info("Shutting down server", zap.Duration("timeout", cfg.Graceful.ShutdownTimeout))
		if err := server.Shutdown(shutdownCtx); err != nil {
			lg.Error("Server shutdown error", zap.Error(err))
		}
		healthSvc.Stop()
		close(shutdownDone)
	}()

	lg.Info("Server listening", zap.String("addr", cfg.Addr))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "server")
	}
	<-shutdownDone
	return nil
}
