package menu

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a requested menu item does not exist.
var ErrNotFound = errors.New("menu item not found")

// Item represents a dish in the remote catalog. The client treats it as
// read-only; only the Available flag changes between catalog updates.
type Item struct {
	ID          string
	Name        string
	Description string
	Price       decimal.Decimal
	ImageURL    string
	Available   bool
}

// Unsubscribe cancels a catalog subscription and releases its resources.
// It is safe to call more than once.
type Unsubscribe func()

// Catalog defines read access to the remote menu catalog.
//
// Subscribe delivers the full current item set to onChange after every
// catalog change. Subscription-level failures are reported to onError exactly
// once, after which no further snapshots arrive; retrying is the caller's
// concern.
type Catalog interface {
	List(ctx context.Context) ([]Item, error)
	Subscribe(ctx context.Context, onChange func([]Item), onError func(error)) (Unsubscribe, error)
}

// Visible filters out items that cannot currently be ordered. It must be
// re-applied on every catalog snapshot, since availability can flip between
// updates.
func Visible(items []Item) []Item {
	out := make([]Item, 0, len(items))
	for _, it := range items {
		if it.Available {
			out = append(out, it)
		}
	}
	return out
}
