// Package menufeed bridges the push-based catalog subscription into stable,
// name-sorted menu snapshots for in-process consumers.
package menufeed

import (
	"context"
	"sort"
	"sync"

	"github.com/go-faster/errors"
	"go.uber.org/zap"

	"github.com/xenking/bistro/internal/domain/menu"
)

// Feed subscribes to a menu catalog and fans full snapshots out to
// registered consumers. All deliveries, including the initial snapshot a
// new subscriber receives, are serialized: consumer callbacks never run
// concurrently with each other and arrive in the order the catalog emitted
// them.
//
// On a subscription-level failure the feed reports the error to its sink and
// keeps the last known-good snapshot; it does not retry internally.
type Feed struct {
	catalog menu.Catalog
	lg      *zap.Logger

	// deliverMu serializes all consumer callbacks: fan-out of catalog
	// changes and the initial snapshot handed to a new subscriber. It is
	// never held while mu is wanted by readers, so callbacks may call
	// Current and Lookup freely.
	deliverMu sync.Mutex

	mu        sync.Mutex
	current   []menu.Item
	consumers map[int]func([]menu.Item)
	nextID    int
}

// New creates a Feed reading from the given catalog. Errors are reported to
// lg; pass zap.NewNop() to discard them.
func New(catalog menu.Catalog, lg *zap.Logger) *Feed {
	return &Feed{
		catalog:   catalog,
		lg:        lg,
		consumers: make(map[int]func([]menu.Item)),
	}
}

// Run loads the initial snapshot, subscribes to catalog changes, and blocks
// until ctx is cancelled or the subscription fails. Each catalog change
// produces exactly one delivery of the full sorted snapshot.
func (f *Feed) Run(ctx context.Context) error {
	items, err := f.catalog.List(ctx)
	if err != nil {
		return errors.Wrap(err, "initial menu snapshot")
	}
	f.deliver(items)

	// Changes funnel through one channel so deliveries stay serialized even
	// if the catalog invokes callbacks from its own goroutine.
	changes := make(chan []menu.Item, 1)
	errc := make(chan error, 1)

	unsub, err := f.catalog.Subscribe(ctx,
		func(items []menu.Item) {
			select {
			case changes <- items:
			case <-ctx.Done():
			}
		},
		func(err error) {
			select {
			case errc <- err:
			default:
			}
		},
	)
	if err != nil {
		return errors.Wrap(err, "subscribe to menu")
	}
	defer unsub()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-errc:
			f.lg.Error("menu feed failed, keeping last snapshot", zap.Error(err))
			return errors.Wrap(err, "menu subscription")
		case items := <-changes:
			f.deliver(items)
		}
	}
}

// Current returns the last delivered snapshot. The returned slice must not
// be mutated.
func (f *Feed) Current() []menu.Item {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.current
}

// Lookup finds an item in the current snapshot by id, reflecting the
// availability flag as of the latest catalog change.
func (f *Feed) Lookup(id string) (menu.Item, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, it := range f.current {
		if it.ID == id {
			return it, true
		}
	}
	return menu.Item{}, false
}

// Subscribe registers a consumer that receives every snapshot delivered
// after registration, plus the current one immediately when present.
// The returned Unsubscribe must be called to release the consumer.
func (f *Feed) Subscribe(onChange func([]menu.Item)) menu.Unsubscribe {
	// Registration and the initial delivery happen under the delivery lock,
	// so a concurrent fan-out cannot invoke the new consumer at the same
	// time or hand it a newer snapshot before the initial one.
	f.deliverMu.Lock()

	f.mu.Lock()
	id := f.nextID
	f.nextID++
	f.consumers[id] = onChange
	current := f.current
	f.mu.Unlock()

	if current != nil {
		onChange(current)
	}
	f.deliverMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			f.mu.Lock()
			delete(f.consumers, id)
			f.mu.Unlock()
		})
	}
}

// deliver sorts the snapshot by name, stores it, and fans it out.
func (f *Feed) deliver(items []menu.Item) {
	sorted := make([]menu.Item, len(items))
	copy(sorted, items)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })

	f.deliverMu.Lock()
	defer f.deliverMu.Unlock()

	f.mu.Lock()
	f.current = sorted
	consumers := make([]func([]menu.Item), 0, len(f.consumers))
	for _, c := range f.consumers {
		consumers = append(consumers, c)
	}
	f.mu.Unlock()

	for _, c := range consumers {
		c(sorted)
	}
}
