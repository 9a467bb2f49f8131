// Command seed-db loads the product catalog and the launch promo codes into
// PostgreSQL. It is idempotent: rerunning it updates rows in place.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log/slog"
	"os"
	"os/signal"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/greenbasket/storefront/internal/domain/product"
	"github.com/greenbasket/storefront/internal/domain/promo"
	"github.com/greenbasket/storefront/internal/repository"
)

type productJSON struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	Price         decimal.Decimal `json:"price"`
	OriginalPrice decimal.Decimal `json:"originalPrice"`
	Image         string          `json:"image"`
	Category      string          `json:"category"`
	InStock       *bool           `json:"inStock"`
}

func main() {
	var (
		databaseURL  string
		productsFile string
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&productsFile, "products-file", "db/seed/products.json", "path to products JSON file")
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

	if err := run(ctx, databaseURL, productsFile); err != nil {
		slog.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("seed completed successfully")
}

func run(ctx context.Context, databaseURL, productsFile string) error {
	slog.Info("connecting to database")

	pool, err := repository.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	slog.Info("running migrations")

	if err := repository.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	if err := seedProducts(ctx, repository.NewProductRepository(pool), productsFile); err != nil {
		return errors.Wrap(err, "seed products")
	}

	if err := seedPromoCodes(ctx, repository.NewPromoRepository(pool)); err != nil {
		return errors.Wrap(err, "seed promo codes")
	}

	return nil
}

func seedProducts(ctx context.Context, repo *repository.ProductRepository, productsFile string) error {
	slog.Info("reading products file", slog.String("path", productsFile))

	data, err := os.ReadFile(productsFile)
	if err != nil {
		return errors.Wrap(err, "read products file")
	}

	var products []productJSON
	if err := json.Unmarshal(data, &products); err != nil {
		return errors.Wrap(err, "parse products JSON")
	}

	slog.Info("upserting products", slog.Int("count", len(products)))

	for _, p := range products {
		inStock := true
		if p.InStock != nil {
			inStock = *p.InStock
		}
		if err := repo.Upsert(ctx, product.Product{
			ID:            p.ID,
			Name:          p.Name,
			Price:         p.Price,
			OriginalPrice: p.OriginalPrice,
			Image:         p.Image,
			Category:      p.Category,
			InStock:       inStock,
		}); err != nil {
			return errors.Wrapf(err, "upsert product %s", p.ID)
		}

		slog.Info("upserted product", slog.String("id", p.ID), slog.String("name", p.Name))
	}

	return nil
}

func seedPromoCodes(ctx context.Context, repo *repository.PromoRepository) error {
	slog.Info("seeding launch promo codes")

	rules := []promo.Rule{
		{
			Code:        "SAVE10",
			Rate:        decimal.NewFromFloat(0.10),
			Description: "10% off entire order",
		},
		{
			Code:        "WELCOME15",
			Rate:        decimal.NewFromFloat(0.15),
			Description: "Welcome: 15% off first order",
		},
		{
			Code:        "ORGANIC20",
			Rate:        decimal.NewFromFloat(0.20),
			Description: "20% off organic range",
		},
	}

	for _, rule := range rules {
		if err := repo.Upsert(ctx, rule, true); err != nil {
			return errors.Wrapf(err, "upsert promo code %s", rule.Code)
		}

		slog.Info("upserted promo code", slog.String("code", rule.Code), slog.String("description", rule.Description))
	}

	return nil
}
