// Command seed-db loads the demo categories, catalog, members and cash ledger into
// PostgreSQL.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"

	"github.com/go-faster/errors"

	"github.com/xenking/kasir/internal/storage/memory"
	"github.com/xenking/kasir/internal/storage/postgres"
)

func main() {
	var (
		databaseURL string
		skipLedger  bool
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.BoolVar(&skipLedger, "skip-cashflow", false, "do not seed the demo cash flow records")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, databaseURL, skipLedger); err != nil {
		slog.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("seed completed successfully")
}

func run(ctx context.Context, databaseURL string, skipLedger bool) error {
	slog.Info("connecting to database")

	pool, err := postgres.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	slog.Info("running migrations")

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	categories := memory.SeedCategories()
	if err := postgres.NewCategoryRepository(pool).Upsert(ctx, categories); err != nil {
		return errors.Wrap(err, "seed categories")
	}
	slog.Info("upserted categories", slog.Int("count", len(categories)))

	products := memory.SeedProducts()
	if err := postgres.NewProductRepository(pool).Upsert(ctx, products); err != nil {
		return errors.Wrap(err, "seed products")
	}
	slog.Info("upserted products", slog.Int("count", len(products)))

	members := memory.SeedMembers()
	if err := postgres.NewMemberRepository(pool).Upsert(ctx, members); err != nil {
		return errors.Wrap(err, "seed members")
	}
	slog.Info("upserted members", slog.Int("count", len(members)))

	if skipLedger {
		return nil
	}

	ledger := postgres.NewCashFlowRepository(pool)
	for _, rec := range memory.SeedCashFlow() {
		if err := ledger.Create(ctx, &rec); err != nil {
			return errors.Wrapf(err, "seed cash flow %s", rec.ID)
		}
		slog.Info("inserted cash flow record", slog.String("id", rec.ID), slog.String("description", rec.Description))
	}

	return nil
}
