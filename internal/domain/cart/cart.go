// Package cart holds the in-memory cart state machine: an ordered set of
// line items with a derived total, mutated only through tagged actions fed
// to a pure reducer.
package cart

import (
	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/xenking/bistro/internal/domain/menu"
)

// ErrUnavailable is returned when adding an item whose Available flag is
// false. The cart is left unchanged.
var ErrUnavailable = errors.New("item is unavailable")

// LineItem is one menu item plus the quantity of it in the cart.
// Cart identity is the underlying menu item id; quantity is always >= 1.
type LineItem struct {
	Item     menu.Item `json:"item"`
	Quantity int       `json:"quantity"`
}

// State is an immutable cart snapshot. Total is always the exact sum of
// price * quantity over Items; it is re-summed on every mutation rather than
// adjusted incrementally.
type State struct {
	Items []LineItem
	Total decimal.Decimal
}

// Empty returns the initial cart state.
func Empty() State {
	return State{Total: decimal.Zero}
}

// IsEmpty reports whether the cart has no line items.
func (s State) IsEmpty() bool {
	return len(s.Items) == 0
}

// Line returns the line item carrying the given menu item id.
func (s State) Line(id string) (LineItem, bool) {
	for _, li := range s.Items {
		if li.Item.ID == id {
			return li, true
		}
	}
	return LineItem{}, false
}

// Action is a cart mutation. The variants are Add, Remove, SetQuantity and
// Clear; Apply is exhaustive over them.
type Action interface {
	isAction()
}

// Add merges quantity into an existing line for the same item id, or appends
// a new line. Rejected when the item is unavailable.
type Add struct {
	Item     menu.Item
	Quantity int
}

// Remove deletes the line with the given item id. Absent ids are a no-op.
type Remove struct {
	ID string
}

// SetQuantity sets a line's quantity to an absolute value. A quantity of
// zero or less removes the line entirely; quantity 0 never persists.
type SetQuantity struct {
	ID       string
	Quantity int
}

// Clear resets the cart to empty.
type Clear struct{}

func (Add) isAction()         {}
func (Remove) isAction()      {}
func (SetQuantity) isAction() {}
func (Clear) isAction()       {}

// Apply is a pure reducer: given the same state and action it produces the
// same result, and the returned state's Total is re-summed from its lines.
// On error the input state is returned unchanged.
func Apply(s State, a Action) (State, error) {
	switch act := a.(type) {
	case Add:
		if !act.Item.Available {
			return s, ErrUnavailable
		}
		qty := act.Quantity
		if qty < 1 {
			qty = 1
		}
		items := make([]LineItem, len(s.Items))
		copy(items, s.Items)
		merged := false
		for i := range items {
			if items[i].Item.ID == act.Item.ID {
				items[i].Quantity += qty
				merged = true
				break
			}
		}
		if !merged {
			items = append(items, LineItem{Item: act.Item, Quantity: qty})
		}
		return reduced(items), nil

	case Remove:
		items := make([]LineItem, 0, len(s.Items))
		for _, li := range s.Items {
			if li.Item.ID != act.ID {
				items = append(items, li)
			}
		}
		return reduced(items), nil

	case SetQuantity:
		if act.Quantity <= 0 {
			return Apply(s, Remove{ID: act.ID})
		}
		items := make([]LineItem, len(s.Items))
		copy(items, s.Items)
		for i := range items {
			if items[i].Item.ID == act.ID {
				items[i].Quantity = act.Quantity
			}
		}
		return reduced(items), nil

	case Clear:
		return Empty(), nil

	default:
		return s, errors.Errorf("unknown cart action %T", a)
	}
}

func reduced(items []LineItem) State {
	total := decimal.Zero
	for _, li := range items {
		total = total.Add(li.Item.Price.Mul(decimal.NewFromInt(int64(li.Quantity))))
	}
	return State{Items: items, Total: total}
}
