// Command seed-menu loads menu items from a JSON file (optionally gzipped)
// into the database, creating the schema when missing. Existing items are
// updated in place, so it doubles as the tool for flipping availability in
// bulk.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"github.com/go-faster/errors"
	pgzip "github.com/klauspost/pgzip"
	"github.com/shopspring/decimal"

	"github.com/xenking/bistro/internal/storage/postgres"
)

const upsertMenuItemSQL = `INSERT INTO menu_items (id, name, description, price, image_url, available, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, now())
	ON CONFLICT (id) DO UPDATE SET
		name = EXCLUDED.name,
		description = EXCLUDED.description,
		price = EXCLUDED.price,
		image_url = EXCLUDED.image_url,
		available = EXCLUDED.available,
		updated_at = now()`

type menuItemJSON struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	ImageURL    string          `json:"image_url"`
	Available   bool            `json:"available"`
}

func main() {
	var (
		databaseURL string
		menuFile    string
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&menuFile, "menu-file", "db/seed/menu.json", "path to menu JSON file (.gz supported)")
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

	if err := run(ctx, databaseURL, menuFile); err != nil {
		slog.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("seed completed successfully")
}

func run(ctx context.Context, databaseURL, menuFile string) error {
	items, err := readMenuFile(menuFile)
	if err != nil {
		return errors.Wrap(err, "read menu file")
	}
	if len(items) == 0 {
		return errors.New("menu file contains no items")
	}

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

	for _, it := range items {
		if it.ID == "" || it.Name == "" {
			return errors.Errorf("menu item missing id or name: %+v", it)
		}
		if it.Price.IsNegative() {
			return errors.Errorf("menu item %s has negative price", it.ID)
		}

		_, err := pool.Exec(ctx, upsertMenuItemSQL,
			it.ID, it.Name, it.Description, it.Price, it.ImageURL, it.Available,
		)
		if err != nil {
			return errors.Wrapf(err, "upsert menu item %s", it.ID)
		}
	}

	slog.Info("menu seeded", slog.Int("items", len(items)))
	return nil
}

// readMenuFile decodes the item list from a plain or gzipped JSON file.
func readMenuFile(path string) ([]menuItemJSON, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", path)
	}
	defer f.Close()

	var r io.Reader = f
	if strings.HasSuffix(path, ".gz") {
		gz, err := pgzip.NewReader(f)
		if err != nil {
			return nil, errors.Wrap(err, "open gzip reader")
		}
		defer gz.Close()
		r = gz
	}

	var items []menuItemJSON
	if err := json.NewDecoder(r).Decode(&items); err != nil {
		return nil, errors.Wrap(err, "decode menu JSON")
	}
	return items, nil
}
