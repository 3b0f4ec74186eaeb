// Command catalog-ingest imports gzipped JSON-lines product dumps into the
// catalog. Files are streamed concurrently; a bloom filter drops duplicate
// slugs across dumps so only the first occurrence of a product is written.
package main

import (
	"bufio"
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	pgzip "github.com/klauspost/pgzip"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/kartverse/shopfront/internal/repository"
)

const (
	bloomCapacity = 10_000_000
	bloomFPR      = 0.001
	progressEvery = 100_000
)

const (
	ensureCategorySQL = `INSERT INTO categories (slug, name) VALUES ($1, $1)
		ON CONFLICT (slug) DO NOTHING`

	upsertProductSQL = `INSERT INTO products (slug, name, price, description, image, category_slug, available)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (slug) DO UPDATE SET
			name = EXCLUDED.name,
			price = EXCLUDED.price,
			description = EXCLUDED.description,
			image = EXCLUDED.image,
			category_slug = EXCLUDED.category_slug,
			available = EXCLUDED.available`
)

// productRow is one parsed line of a dump file.
type productRow struct {
	Slug        string
	Name        string
	Price       decimal.NullDecimal
	Description string
	Image       string
	Category    string
	Available   bool
}

func main() {
	var databaseURL string

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}

	files := flag.Args()
	if len(files) == 0 {
		slog.Error("usage: catalog-ingest [flags] dump1.gz [dump2.gz ...]")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, databaseURL, files); err != nil {
		slog.Error("catalog ingest failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("catalog ingest completed successfully")
}

func run(ctx context.Context, databaseURL string, files []string) error {
	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			return errors.Wrapf(err, "check file %s", f)
		}
	}

	slog.Info("connecting to database")

	pool, err := repository.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	rows := make(chan productRow, 1024)

	parsers, parseCtx := errgroup.WithContext(ctx)
	for _, f := range files {
		parsers.Go(parseFile(parseCtx, f, rows))
	}
	go func() {
		_ = parsers.Wait()
		close(rows)
	}()

	// Single writer: the bloom filter is not safe for concurrent use, and
	// serializing writes keeps upsert ordering deterministic per slug.
	seen := bloom.NewWithEstimates(bloomCapacity, bloomFPR)
	var written, skipped uint64
	for row := range rows {
		if seen.TestAndAddString(row.Slug) {
			skipped++
			continue
		}

		if row.Category != "" {
			if _, err := pool.Exec(ctx, ensureCategorySQL, row.Category); err != nil {
				return errors.Wrapf(err, "ensure category %s", row.Category)
			}
		}
		var category any
		if row.Category != "" {
			category = row.Category
		}

		_, err := pool.Exec(ctx, upsertProductSQL,
			row.Slug, row.Name, row.Price, row.Description, row.Image, category, row.Available,
		)
		if err != nil {
			return errors.Wrapf(err, "upsert product %s", row.Slug)
		}

		written++
		if written%progressEvery == 0 {
			slog.Info("write progress", slog.Uint64("written", written), slog.Uint64("skipped", skipped))
		}
	}

	if err := parsers.Wait(); err != nil {
		return errors.Wrap(err, "parse dumps")
	}

	slog.Info("ingest finished", slog.Uint64("written", written), slog.Uint64("skipped", skipped))
	return nil
}

// parseFile streams one gzip-compressed dump and sends a productRow per line.
func parseFile(ctx context.Context, path string, out chan<- productRow) func() error {
	return func() error {
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
		scanner.Buffer(make([]byte, 0, 1<<20), 1<<20)

		var line uint64
		for scanner.Scan() {
			line++
			if len(scanner.Bytes()) == 0 {
				continue
			}

			row, err := parseProduct(scanner.Bytes())
			if err != nil {
				return errors.Wrapf(err, "parse %s line %d", path, line)
			}
			if row.Slug == "" || row.Name == "" {
				return errors.Errorf("parse %s line %d: slug and name are required", path, line)
			}

			select {
			case out <- row:
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		if err := scanner.Err(); err != nil {
			return errors.Wrapf(err, "scan %s", path)
		}
		return nil
	}
}

// parseProduct decodes a single JSON object in the dump format.
func parseProduct(data []byte) (productRow, error) {
	row := productRow{Available: true}

	d := jx.DecodeBytes(data)
	err := d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "slug":
			row.Slug, err = d.Str()
		case "name":
			row.Name, err = d.Str()
		case "price":
			if d.Next() == jx.Null {
				return d.Null()
			}
			var num jx.Num
			if num, err = d.Num(); err != nil {
				return err
			}
			// Num keeps string-form numbers quoted.
			var dec decimal.Decimal
			if dec, err = decimal.NewFromString(strings.Trim(num.String(), `"`)); err != nil {
				return err
			}
			row.Price = decimal.NewNullDecimal(dec)
		case "description":
			row.Description, err = d.Str()
		case "image":
			row.Image, err = d.Str()
		case "category":
			row.Category, err = d.Str()
		case "available":
			row.Available, err = d.Bool()
		default:
			return d.Skip()
		}
		return err
	})
	return row, err
}
