// Command seed-db loads categories and products from a JSON file into the
// catalog. Existing rows are updated in place, so the seed is idempotent.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log/slog"
	"os"
	"os/signal"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/kartverse/shopfront/internal/repository"
)

type seedFile struct {
	Categories []categoryJSON `json:"categories"`
	Products   []productJSON  `json:"products"`
}

type categoryJSON struct {
	Slug string `json:"slug"`
	Name string `json:"name"`
}

type productJSON struct {
	Slug        string           `json:"slug"`
	Name        string           `json:"name"`
	Price       *decimal.Decimal `json:"price"`
	Description string           `json:"description"`
	Image       string           `json:"image"`
	Category    string           `json:"category"`
	Available   *bool            `json:"available"`
}

const (
	upsertCategorySQL = `INSERT INTO categories (slug, name) VALUES ($1, $2)
		ON CONFLICT (slug) DO UPDATE SET name = EXCLUDED.name`

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

func main() {
	var (
		databaseURL string
		seedPath    string
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&seedPath, "seed-file", "db/seed/products.json", "path to seed JSON file")
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

	if err := run(ctx, databaseURL, seedPath); err != nil {
		slog.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("seed completed successfully")
}

func run(ctx context.Context, databaseURL, seedPath string) error {
	data, err := os.ReadFile(seedPath)
	if err != nil {
		return errors.Wrapf(err, "read %s", seedPath)
	}

	var seed seedFile
	if err := json.Unmarshal(data, &seed); err != nil {
		return errors.Wrapf(err, "parse %s", seedPath)
	}

	slog.Info("connecting to database")

	pool, err := repository.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	if err := repository.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	if err := write(ctx, pool, seed); err != nil {
		return err
	}

	slog.Info("seeded catalog",
		slog.Int("categories", len(seed.Categories)),
		slog.Int("products", len(seed.Products)),
	)
	return nil
}

func write(ctx context.Context, pool *pgxpool.Pool, seed seedFile) error {
	for _, c := range seed.Categories {
		if _, err := pool.Exec(ctx, upsertCategorySQL, c.Slug, c.Name); err != nil {
			return errors.Wrapf(err, "upsert category %s", c.Slug)
		}
	}

	for _, p := range seed.Products {
		available := true
		if p.Available != nil {
			available = *p.Available
		}
		var category any
		if p.Category != "" {
			category = p.Category
		}

		_, err := pool.Exec(ctx, upsertProductSQL,
			p.Slug, p.Name, p.Price, p.Description, p.Image, category, available,
		)
		if err != nil {
			return errors.Wrapf(err, "upsert product %s", p.Slug)
		}
	}
	return nil
}
