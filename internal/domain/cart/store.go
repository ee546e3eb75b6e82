package cart

import (
	"sync"

	"github.com/xenking/bistro/internal/domain/menu"
)

// Store serializes cart mutations so each operation is atomic with respect
// to concurrent callers within the process. Feed-driven reads and
// user-driven writes funnel through the same mutex, so a snapshot never
// interleaves with a half-applied mutation.
type Store struct {
	mu    sync.Mutex
	state State
}

// NewStore returns a Store holding an empty cart.
func NewStore() *Store {
	return &Store{state: Empty()}
}

// Snapshot returns the current cart state. The returned slice must not be
// mutated by the caller.
func (s *Store) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Add merges quantity of the item into the cart, checking the item's
// availability flag as passed at the moment of the call.
func (s *Store) Add(item menu.Item, quantity int) error {
	return s.apply(Add{Item: item, Quantity: quantity})
}

// Remove deletes the line with the given item id; absent ids are a no-op.
func (s *Store) Remove(id string) {
	_ = s.apply(Remove{ID: id})
}

// SetQuantity sets a line's quantity to an absolute value; zero or negative
// removes the line. It reports whether a line with the given id existed,
// checked atomically with the mutation.
func (s *Store) SetQuantity(id string, quantity int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.state.Line(id); !ok {
		return false
	}

	next, err := Apply(s.state, SetQuantity{ID: id, Quantity: quantity})
	if err != nil {
		return false
	}
	s.state = next
	return true
}

// Clear resets the cart to empty.
func (s *Store) Clear() {
	_ = s.apply(Clear{})
}

func (s *Store) apply(a Action) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, err := Apply(s.state, a)
	if err != nil {
		return err
	}
	s.state = next
	return nil
}
