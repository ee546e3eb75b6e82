package handler

import (
	"net/http"

	"github.com/go-faster/jx"

	"github.com/xenking/bistro/internal/domain/menu"
)

// listMenu returns the currently orderable menu: the feed's latest snapshot
// with unavailable items filtered out.
func (h *Handler) listMenu(w http.ResponseWriter, _ *http.Request) {
	items := menu.Visible(h.feed.Current())

	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.ArrStart()
		for _, it := range items {
			encodeMenuItem(e, it)
		}
		e.ArrEnd()
	})
}

// getMenuItem returns a single menu item by id, including unavailable ones
// so clients can explain a greyed-out line.
func (h *Handler) getMenuItem(w http.ResponseWriter, r *http.Request) {
	item, ok := h.feed.Lookup(r.PathValue("itemID"))
	if !ok {
		writeError(w, http.StatusNotFound, menu.ErrNotFound.Error())
		return
	}

	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		encodeMenuItem(e, item)
	})
}

func encodeMenuItem(e *jx.Encoder, it menu.Item) {
	e.ObjStart()
	e.FieldStart("id")
	e.Str(it.ID)
	e.FieldStart("name")
	e.Str(it.Name)
	e.FieldStart("description")
	e.Str(it.Description)
	e.FieldStart("price")
	e.Float64(it.Price.InexactFloat64())
	e.FieldStart("image_url")
	e.Str(it.ImageURL)
	e.FieldStart("available")
	e.Bool(it.Available)
	e.ObjEnd()
}
