package postgres

import (
	"context"
	"sync"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/xenking/bistro/internal/domain/menu"
)

const (
	listMenuItemsSQL = `SELECT id, name, description, price, image_url, available
		FROM menu_items ORDER BY name`

	// menuChannel is NOTIFYed by a trigger on every menu_items change.
	menuChannel = "menu_changed"
)

var _ menu.Catalog = (*Catalog)(nil)

// Catalog implements menu.Catalog backed by PostgreSQL. Change notification
// rides on LISTEN/NOTIFY: a statement-level trigger announces every mutation
// of menu_items, and each announcement triggers one full snapshot re-query.
type Catalog struct {
	pool *pgxpool.Pool
}

// NewCatalog returns a Catalog that uses the given pool.
func NewCatalog(pool *pgxpool.Pool) *Catalog {
	return &Catalog{pool: pool}
}

// List returns the full menu ordered by name.
func (c *Catalog) List(ctx context.Context) ([]menu.Item, error) {
	rows, err := c.pool.Query(ctx, listMenuItemsSQL)
	if err != nil {
		return nil, errors.Wrap(err, "list menu items")
	}
	return pgx.CollectRows(rows, scanMenuItem)
}

// Subscribe LISTENs on the menu change channel using a dedicated connection
// and delivers one full snapshot per notification. Failures are reported to
// onError once and end the subscription; no internal retry is attempted.
func (c *Catalog) Subscribe(ctx context.Context, onChange func([]menu.Item), onError func(error)) (menu.Unsubscribe, error) {
	conn, err := c.pool.Acquire(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "acquire listen connection")
	}

	if _, err := conn.Exec(ctx, "LISTEN "+menuChannel); err != nil {
		conn.Release()
		return nil, errors.Wrap(err, "listen on menu channel")
	}

	subCtx, cancel := context.WithCancel(ctx)

	go func() {
		defer conn.Release()
		for {
			if _, err := conn.Conn().WaitForNotification(subCtx); err != nil {
				if subCtx.Err() == nil {
					onError(errors.Wrap(err, "wait for menu notification"))
				}
				return
			}

			items, err := c.List(subCtx)
			if err != nil {
				if subCtx.Err() == nil {
					onError(err)
				}
				return
			}
			onChange(items)
		}
	}()

	var once sync.Once
	return func() { once.Do(cancel) }, nil
}

func scanMenuItem(row pgx.CollectableRow) (menu.Item, error) {
	var (
		it    menu.Item
		price decimal.Decimal
	)
	err := row.Scan(&it.ID, &it.Name, &it.Description, &price, &it.ImageURL, &it.Available)
	it.Price = price
	return it, err
}
