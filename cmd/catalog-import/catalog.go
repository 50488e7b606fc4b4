package main

import (
	"bufio"
	"context"
	"log/slog"
	"os"
	"runtime"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	pgzip "github.com/klauspost/pgzip"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/xenking/kasir/internal/domain/product"
)

const (
	bloomFPR      = 0.001
	minBloomSize  = 10_000
	maxLineSize   = 1 << 20
	progressEvery = 100_000
)

// catalogStore is the part of the product repository the import needs.
type catalogStore interface {
	SKUs(ctx context.Context) ([]string, error)
	OwnersBySKU(ctx context.Context, skus []string) (map[string]string, error)
	Upsert(ctx context.Context, products []product.Product) error
}

// decodeFiles decodes every file concurrently and returns the products in
// file order. Invalid lines are logged and skipped.
func decodeFiles(ctx context.Context, files []string) ([]product.Product, error) {
	results := make([][]product.Product, len(files))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, path := range files {
		g.Go(func() error {
			var (
				lineNo  int
				skipped int
			)
			err := streamGzFile(ctx, path, func(line []byte) {
				lineNo++
				if len(line) == 0 {
					return
				}
				p, err := decodeProduct(line)
				if err != nil {
					skipped++
					slog.Warn("skipping invalid line",
						slog.String("file", path),
						slog.Int("line", lineNo),
						slog.String("error", err.Error()),
					)
					return
				}
				results[i] = append(results[i], p)
				if len(results[i])%progressEvery == 0 {
					slog.Info("decode progress", slog.String("file", path), slog.Int("products", len(results[i])))
				}
			})
			if err != nil {
				return errors.Wrapf(err, "decode %s", path)
			}

			slog.Info("file decoded",
				slog.String("file", path),
				slog.Int("products", len(results[i])),
				slog.Int("skipped", skipped),
			)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var all []product.Product
	for _, r := range results {
		all = append(all, r...)
	}
	return all, nil
}

// streamGzFile opens a gzip-compressed file and calls fn for each line.
func streamGzFile(ctx context.Context, path string, fn func(line []byte)) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrapf(err, "open %s", path)
	}
	defer func() { _ = f.Close() }()

	gz, err := pgzip.NewReader(f)
	if err != nil {
		return errors.Wrapf(err, "create gzip reader for %s", path)
	}
	defer func() { _ = gz.Close() }()

	scanner := bufio.NewScanner(gz)
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		fn(scanner.Bytes())
	}
	if err := scanner.Err(); err != nil {
		return errors.Wrapf(err, "scan %s", path)
	}
	return nil
}

// decodeProduct parses one catalog line and validates it.
func decodeProduct(line []byte) (product.Product, error) {
	p := product.Product{CostPrice: decimal.Zero, Discount: decimal.Zero}
	money := func(d *jx.Decoder) (decimal.Decimal, error) {
		n, err := d.Num()
		if err != nil {
			return decimal.Decimal{}, err
		}
		return decimal.NewFromString(n.String())
	}

	err := jx.DecodeBytes(line).ObjBytes(func(d *jx.Decoder, key []byte) error {
		var err error
		switch string(key) {
		case "id":
			p.ID, err = d.Str()
		case "name":
			p.Name, err = d.Str()
		case "categoryId":
			p.CategoryID, err = d.Str()
		case "price":
			p.Price, err = money(d)
		case "costPrice":
			p.CostPrice, err = money(d)
		case "stock":
			p.Stock, err = d.Int()
		case "minStock":
			p.MinStock, err = d.Int()
		case "discount":
			p.Discount, err = money(d)
		case "sku":
			p.SKU, err = d.Str()
		case "image":
			p.Image, err = d.Str()
		default:
			err = d.Skip()
		}
		if err != nil {
			return errors.Wrapf(err, "field %q", key)
		}
		return nil
	})
	if err != nil {
		return product.Product{}, err
	}

	switch {
	case p.ID == "":
		return product.Product{}, errors.New("id required")
	case p.Name == "":
		return product.Product{}, errors.New("name required")
	case p.SKU == "":
		return product.Product{}, errors.New("sku required")
	case p.Price.IsNegative():
		return product.Product{}, errors.New("price is negative")
	case p.Stock < 0:
		return product.Product{}, errors.New("stock is negative")
	case p.Discount.IsNegative() || p.Discount.GreaterThan(decimal.NewFromInt(100)):
		return product.Product{}, errors.New("discount outside [0, 100]")
	}
	return p, nil
}

// dedupe drops products whose SKU belongs to a different product, either
// earlier in the import or already in the store. Stored SKUs are loaded into
// a bloom filter so only probable collisions are confirmed against the
// store. A later line for the same product id replaces an earlier one.
func dedupe(ctx context.Context, store catalogStore, products []product.Product) ([]product.Product, int, error) {
	existing, err := store.SKUs(ctx)
	if err != nil {
		return nil, 0, errors.Wrap(err, "load skus")
	}
	filter := bloom.NewWithEstimates(uint(max(len(existing), minBloomSize)), bloomFPR)
	for _, sku := range existing {
		filter.AddString(sku)
	}

	var (
		kept    []product.Product
		index   = make(map[string]int)    // product id -> position in kept
		owners  = make(map[string]string) // sku -> product id within this import
		suspect []string
		dropped int
	)
	for _, p := range products {
		if owner, ok := owners[p.SKU]; ok && owner != p.ID {
			dropped++
			slog.Warn("duplicate sku in import", slog.String("sku", p.SKU), slog.String("id", p.ID), slog.String("owner", owner))
			continue
		}
		if i, ok := index[p.ID]; ok {
			delete(owners, kept[i].SKU)
			kept[i] = p
		} else {
			index[p.ID] = len(kept)
			kept = append(kept, p)
		}
		owners[p.SKU] = p.ID
	}
	for _, p := range kept {
		if filter.TestString(p.SKU) {
			suspect = append(suspect, p.SKU)
		}
	}
	if len(suspect) == 0 {
		return kept, dropped, nil
	}

	stored, err := store.OwnersBySKU(ctx, suspect)
	if err != nil {
		return nil, 0, errors.Wrap(err, "confirm skus")
	}
	out := kept[:0]
	for _, p := range kept {
		if owner, ok := stored[p.SKU]; ok && owner != p.ID {
			dropped++
			slog.Warn("sku already taken", slog.String("sku", p.SKU), slog.String("id", p.ID), slog.String("owner", owner))
			continue
		}
		out = append(out, p)
	}
	return out, dropped, nil
}

// importProducts dedupes products and upserts them in batches.
func importProducts(ctx context.Context, store catalogStore, products []product.Product, batchSize int) error {
	kept, dropped, err := dedupe(ctx, store, products)
	if err != nil {
		return err
	}
	slog.Info("writing products",
		slog.Int("count", len(kept)),
		slog.Int("dropped", dropped),
	)

	batchSize = max(batchSize, 1)
	for start := 0; start < len(kept); start += batchSize {
		end := min(start+batchSize, len(kept))
		if err := store.Upsert(ctx, kept[start:end]); err != nil {
			return errors.Wrapf(err, "upsert products %d-%d", start, end)
		}
		slog.Info("write progress", slog.Int("written", end), slog.Int("total", len(kept)))
	}
	return nil
}
