package handler

import (
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"

	"github.com/xenking/bistro/internal/domain/cart"
)

// createCart starts a new cart session.
func (h *Handler) createCart(w http.ResponseWriter, _ *http.Request) {
	s := h.sessions.Create()

	writeJSON(w, http.StatusCreated, func(e *jx.Encoder) {
		e.ObjStart()
		e.FieldStart("cart_id")
		e.Str(s.ID)
		e.ObjEnd()
	})
}

// getCart returns the cart snapshot: lines plus derived total.
func (h *Handler) getCart(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	writeCart(w, s.ID, s.Cart.Snapshot())
}

// addItem adds quantity of a menu item to the cart. The item is resolved
// from the feed's current snapshot, so availability is re-checked at the
// moment of the call.
func (h *Handler) addItem(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	var (
		itemID   string
		quantity = 1
	)
	err := decodeBody(r, func(d *jx.Decoder) error {
		return d.Obj(func(d *jx.Decoder, key string) error {
			switch key {
			case "item_id":
				v, err := d.Str()
				itemID = v
				return err
			case "quantity":
				v, err := d.Int()
				quantity = v
				return err
			default:
				return d.Skip()
			}
		})
	})
	if err != nil || itemID == "" {
		writeError(w, http.StatusBadRequest, "item_id is required")
		return
	}

	item, found := h.feed.Lookup(itemID)
	if !found {
		writeError(w, http.StatusNotFound, "menu item not found")
		return
	}

	if err := s.Cart.Add(item, quantity); err != nil {
		if errors.Is(err, cart.ErrUnavailable) {
			writeError(w, http.StatusConflict, "item is unavailable")
			return
		}
		writeError(w, http.StatusInternalServerError, "add item")
		return
	}

	writeCart(w, s.ID, s.Cart.Snapshot())
}

// setQuantity sets a line's quantity to an absolute value; zero or negative
// removes the line. Patching an item that is not in the cart is 404, unlike
// DELETE where absence is a no-op.
func (h *Handler) setQuantity(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	var (
		quantity     int
		seenQuantity bool
	)
	err := decodeBody(r, func(d *jx.Decoder) error {
		return d.Obj(func(d *jx.Decoder, key string) error {
			if key != "quantity" {
				return d.Skip()
			}
			v, err := d.Int()
			quantity = v
			seenQuantity = err == nil
			return err
		})
	})
	if err != nil || !seenQuantity {
		writeError(w, http.StatusBadRequest, "quantity is required")
		return
	}

	if !s.Cart.SetQuantity(r.PathValue("itemID"), quantity) {
		writeError(w, http.StatusNotFound, "item not in cart")
		return
	}
	writeCart(w, s.ID, s.Cart.Snapshot())
}

// removeItem deletes a line; removing an absent line is not an error.
func (h *Handler) removeItem(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	s.Cart.Remove(r.PathValue("itemID"))
	writeCart(w, s.ID, s.Cart.Snapshot())
}

// clearCart unconditionally resets the cart to empty.
func (h *Handler) clearCart(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	s.Cart.Clear()
	writeCart(w, s.ID, s.Cart.Snapshot())
}

func writeCart(w http.ResponseWriter, id string, state cart.State) {
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.ObjStart()
		e.FieldStart("cart_id")
		e.Str(id)
		e.FieldStart("items")
		e.ArrStart()
		for _, li := range state.Items {
			e.ObjStart()
			e.FieldStart("item_id")
			e.Str(li.Item.ID)
			e.FieldStart("name")
			e.Str(li.Item.Name)
			e.FieldStart("price")
			e.Float64(li.Item.Price.InexactFloat64())
			e.FieldStart("quantity")
			e.Int(li.Quantity)
			e.ObjEnd()
		}
		e.ArrEnd()
		e.FieldStart("total")
		e.Float64(state.Total.InexactFloat64())
		e.ObjEnd()
	})
}
