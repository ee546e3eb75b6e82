package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/bistro/internal/cartsession"
	"github.com/xenking/bistro/internal/domain/menu"
	"github.com/xenking/bistro/internal/domain/order"
)

// --- Fakes ---

type fakeFeed struct {
	items []menu.Item
}

func (f *fakeFeed) Current() []menu.Item { return f.items }

func (f *fakeFeed) Lookup(id string) (menu.Item, bool) {
	for _, it := range f.items {
		if it.ID == id {
			return it, true
		}
	}
	return menu.Item{}, false
}

type fakeOrderStore struct {
	id        string
	err       error
	lastOrder *order.Order
	calls     int
}

func (f *fakeOrderStore) Submit(_ context.Context, o *order.Order) (string, error) {
	f.calls++
	f.lastOrder = o
	if f.err != nil {
		return "", f.err
	}
	return f.id, nil
}

// --- Helpers ---

type cartBody struct {
	CartID string `json:"cart_id"`
	Items  []struct {
		ItemID   string  `json:"item_id"`
		Name     string  `json:"name"`
		Price    float64 `json:"price"`
		Quantity int     `json:"quantity"`
	} `json:"items"`
	Total float64 `json:"total"`
}

type testServer struct {
	t     *testing.T
	mux   *http.ServeMux
	store *fakeOrderStore
}

func newTestServer(t *testing.T, items ...menu.Item) *testServer {
	t.Helper()
	store := &fakeOrderStore{id: "ord_123"}
	sessions := cartsession.NewRegistry(store, time.Minute)
	h := NewHandler(&fakeFeed{items: items}, sessions)

	mux := http.NewServeMux()
	h.Register(mux)
	return &testServer{t: t, mux: mux, store: store}
}

func (s *testServer) do(method, path, body string) *httptest.ResponseRecorder {
	s.t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	rec := httptest.NewRecorder()
	s.mux.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) createCart() string {
	s.t.Helper()
	rec := s.do(http.MethodPost, "/api/carts", "")
	require.Equal(s.t, http.StatusCreated, rec.Code)

	var body struct {
		CartID string `json:"cart_id"`
	}
	require.NoError(s.t, json.NewDecoder(rec.Body).Decode(&body))
	require.NotEmpty(s.t, body.CartID)
	return body.CartID
}

func decodeCart(t *testing.T, rec *httptest.ResponseRecorder) cartBody {
	t.Helper()
	var body cartBody
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return body
}

func burger() menu.Item {
	return menu.Item{
		ID:        "m1",
		Name:      "Burger",
		Price:     decimal.RequireFromString("10.00"),
		Available: true,
	}
}

func salad() menu.Item {
	return menu.Item{
		ID:        "m2",
		Name:      "Salad",
		Price:     decimal.RequireFromString("5.50"),
		Available: true,
	}
}

// --- Tests ---

func TestListMenu_FiltersUnavailable(t *testing.T) {
	offMenu := menu.Item{ID: "m3", Name: "Special", Price: decimal.NewFromInt(20)}
	srv := newTestServer(t, burger(), offMenu, salad())

	rec := srv.do(http.MethodGet, "/api/menu", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var items []struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&items))
	require.Len(t, items, 2)
	assert.Equal(t, "m1", items[0].ID)
	assert.Equal(t, "m2", items[1].ID)
}

func TestGetMenuItem(t *testing.T) {
	offMenu := menu.Item{ID: "m3", Name: "Special", Price: decimal.NewFromInt(20)}
	srv := newTestServer(t, burger(), offMenu)

	rec := srv.do(http.MethodGet, "/api/menu/m1", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var item struct {
		ID        string  `json:"id"`
		Name      string  `json:"name"`
		Price     float64 `json:"price"`
		Available bool    `json:"available"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&item))
	assert.Equal(t, "m1", item.ID)
	assert.Equal(t, "Burger", item.Name)
	assert.Equal(t, 10.0, item.Price)
	assert.True(t, item.Available)

	// Unavailable items are still retrievable by id, unlike the listing.
	rec = srv.do(http.MethodGet, "/api/menu/m3", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&item))
	assert.False(t, item.Available)

	rec = srv.do(http.MethodGet, "/api/menu/nope", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCartFlow(t *testing.T) {
	srv := newTestServer(t, burger(), salad())
	cartID := srv.createCart()

	rec := srv.do(http.MethodPost, "/api/carts/"+cartID+"/items", `{"item_id":"m1","quantity":2}`)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = srv.do(http.MethodPost, "/api/carts/"+cartID+"/items", `{"item_id":"m2","quantity":1}`)
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeCart(t, rec)
	require.Len(t, body.Items, 2)
	assert.InDelta(t, 25.50, body.Total, 0.001)

	// Same item again merges into one line.
	rec = srv.do(http.MethodPost, "/api/carts/"+cartID+"/items", `{"item_id":"m1","quantity":1}`)
	body = decodeCart(t, rec)
	require.Len(t, body.Items, 2)
	assert.Equal(t, 3, body.Items[0].Quantity)

	rec = srv.do(http.MethodPatch, "/api/carts/"+cartID+"/items/m1", `{"quantity":1}`)
	body = decodeCart(t, rec)
	assert.Equal(t, 1, body.Items[0].Quantity)

	rec = srv.do(http.MethodPatch, "/api/carts/"+cartID+"/items/m2", `{"quantity":0}`)
	body = decodeCart(t, rec)
	require.Len(t, body.Items, 1)

	rec = srv.do(http.MethodDelete, "/api/carts/"+cartID+"/items/m1", "")
	body = decodeCart(t, rec)
	assert.Empty(t, body.Items)
	assert.Zero(t, body.Total)
}

func TestSetQuantity_ItemNotInCart(t *testing.T) {
	srv := newTestServer(t, burger(), salad())
	cartID := srv.createCart()

	rec := srv.do(http.MethodPost, "/api/carts/"+cartID+"/items", `{"item_id":"m1","quantity":1}`)
	require.Equal(t, http.StatusOK, rec.Code)

	// m2 is on the menu but was never added to this cart.
	rec = srv.do(http.MethodPatch, "/api/carts/"+cartID+"/items/m2", `{"quantity":3}`)
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = srv.do(http.MethodGet, "/api/carts/"+cartID, "")
	body := decodeCart(t, rec)
	require.Len(t, body.Items, 1)
	assert.Equal(t, 1, body.Items[0].Quantity)
}

func TestAddItem_Unavailable(t *testing.T) {
	sold := burger()
	sold.Available = false
	srv := newTestServer(t, sold)
	cartID := srv.createCart()

	rec := srv.do(http.MethodPost, "/api/carts/"+cartID+"/items", `{"item_id":"m1"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = srv.do(http.MethodGet, "/api/carts/"+cartID, "")
	assert.Empty(t, decodeCart(t, rec).Items)
}

func TestAddItem_UnknownItem(t *testing.T) {
	srv := newTestServer(t, burger())
	cartID := srv.createCart()

	rec := srv.do(http.MethodPost, "/api/carts/"+cartID+"/items", `{"item_id":"nope"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCart_UnknownSession(t *testing.T) {
	srv := newTestServer(t, burger())

	rec := srv.do(http.MethodGet, "/api/carts/unknown", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCheckout_Success(t *testing.T) {
	srv := newTestServer(t, burger())
	cartID := srv.createCart()
	srv.do(http.MethodPost, "/api/carts/"+cartID+"/items", `{"item_id":"m1","quantity":2}`)

	rec := srv.do(http.MethodPost, "/api/carts/"+cartID+"/checkout",
		`{"name":"Ada","phone":"555-0101","address":"1 Main St"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		OrderID string  `json:"order_id"`
		Total   float64 `json:"total"`
		Status  string  `json:"status"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "ord_123", body.OrderID)
	assert.InDelta(t, 20.0, body.Total, 0.001)
	assert.Equal(t, "pending", body.Status)

	require.NotNil(t, srv.store.lastOrder)
	assert.Equal(t, "Ada", srv.store.lastOrder.Customer.Name)

	// Checkout clears the cart on success.
	rec = srv.do(http.MethodGet, "/api/carts/"+cartID, "")
	assert.Empty(t, decodeCart(t, rec).Items)
}

func TestCheckout_EmptyCart(t *testing.T) {
	srv := newTestServer(t, burger())
	cartID := srv.createCart()

	rec := srv.do(http.MethodPost, "/api/carts/"+cartID+"/checkout",
		`{"name":"Ada","phone":"555-0101","address":"1 Main St"}`)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, 0, srv.store.calls, "no store call for an empty cart")
}

func TestCheckout_MissingCustomerField(t *testing.T) {
	srv := newTestServer(t, burger())
	cartID := srv.createCart()
	srv.do(http.MethodPost, "/api/carts/"+cartID+"/items", `{"item_id":"m1"}`)

	rec := srv.do(http.MethodPost, "/api/carts/"+cartID+"/checkout",
		`{"name":"Ada","phone":"555-0101"}`)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestCheckout_StoreFailureKeepsCart(t *testing.T) {
	srv := newTestServer(t, burger())
	srv.store.err = errors.New("store down")
	cartID := srv.createCart()
	srv.do(http.MethodPost, "/api/carts/"+cartID+"/items", `{"item_id":"m1","quantity":2}`)

	rec := srv.do(http.MethodPost, "/api/carts/"+cartID+"/checkout",
		`{"name":"Ada","phone":"555-0101","address":"1 Main St"}`)
	assert.Equal(t, http.StatusBadGateway, rec.Code)

	// Cart untouched, ready for a retry without re-entering anything.
	rec = srv.do(http.MethodGet, "/api/carts/"+cartID, "")
	body := decodeCart(t, rec)
	require.Len(t, body.Items, 1)
	assert.Equal(t, 2, body.Items[0].Quantity)
}
