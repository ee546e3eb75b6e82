// Package handler implements the HTTP surface: menu listing, cart
// operations, and checkout.
package handler

import (
	"io"
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"

	"github.com/xenking/bistro/internal/cartsession"
	"github.com/xenking/bistro/internal/domain/menu"
)

// maxBodyBytes bounds request bodies; cart and checkout payloads are tiny.
const maxBodyBytes = 64 << 10

// MenuSource is the feed view the handler reads: the current name-sorted
// snapshot plus per-item lookup reflecting availability at call time.
type MenuSource interface {
	Current() []menu.Item
	Lookup(id string) (menu.Item, bool)
}

// Handler serves the API routes, delegating to the menu feed and the
// per-session cart and checkout machinery.
type Handler struct {
	feed     MenuSource
	sessions *cartsession.Registry
}

// NewHandler constructs a Handler with the required dependencies.
func NewHandler(feed MenuSource, sessions *cartsession.Registry) *Handler {
	return &Handler{feed: feed, sessions: sessions}
}

// Register attaches all API routes to mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/menu", h.listMenu)
	mux.HandleFunc("GET /api/menu/{itemID}", h.getMenuItem)
	mux.HandleFunc("POST /api/carts", h.createCart)
	mux.HandleFunc("GET /api/carts/{cartID}", h.getCart)
	mux.HandleFunc("DELETE /api/carts/{cartID}", h.clearCart)
	mux.HandleFunc("POST /api/carts/{cartID}/items", h.addItem)
	mux.HandleFunc("PATCH /api/carts/{cartID}/items/{itemID}", h.setQuantity)
	mux.HandleFunc("DELETE /api/carts/{cartID}/items/{itemID}", h.removeItem)
	mux.HandleFunc("POST /api/carts/{cartID}/checkout", h.checkout)
}

// session resolves the cart session from the request path, writing 404 when
// it does not exist.
func (h *Handler) session(w http.ResponseWriter, r *http.Request) (*cartsession.Session, bool) {
	s, ok := h.sessions.Get(r.PathValue("cartID"))
	if !ok {
		writeError(w, http.StatusNotFound, "cart not found")
		return nil, false
	}
	return s, true
}

// decodeBody reads and decodes a JSON request body with f.
func decodeBody(r *http.Request, f func(d *jx.Decoder) error) error {
	data, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return errors.Wrap(err, "read body")
	}
	return f(jx.DecodeBytes(data))
}

// writeJSON encodes a response body with f and writes it with the given
// status code.
func writeJSON(w http.ResponseWriter, status int, f func(e *jx.Encoder)) {
	e := &jx.Encoder{}
	f(e)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(e.Bytes())
}

// writeError writes the standard {code, message} error body.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, func(e *jx.Encoder) {
		e.ObjStart()
		e.FieldStart("code")
		e.Int(status)
		e.FieldStart("message")
		e.Str(message)
		e.ObjEnd()
	})
}
