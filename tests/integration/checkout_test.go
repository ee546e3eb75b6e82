//go:build integration

package integration

import (
	"net/http"
	"testing"
)

var testCustomer = checkoutRequest{
	Name:    "Ada Lovelace",
	Phone:   "+1-555-0100",
	Address: "12 Analytical Way",
}

func TestCheckout(t *testing.T) {
	cartID := createCart(t)

	resp := doPost(t, "/api/carts/"+cartID+"/items", addItemRequest{ItemID: "spaghetti-carbonara", Quantity: 2})
	resp.Body.Close()

	resp = doPost(t, "/api/carts/"+cartID+"/checkout", testCustomer)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	order := decodeJSON[checkoutResponse](t, resp)
	if !uuidPattern.MatchString(order.OrderID) {
		t.Errorf("order ID %q is not a valid UUID", order.OrderID)
	}
	// 2 x 13.25
	if order.Total != 26.5 {
		t.Errorf("total: got %v, want 26.5", order.Total)
	}
	if order.Status != "pending" {
		t.Errorf("status: got %q, want %q", order.Status, "pending")
	}
}

func TestCheckout_ClearsCart(t *testing.T) {
	cartID := createCart(t)

	resp := doPost(t, "/api/carts/"+cartID+"/items", addItemRequest{ItemID: "lemonade", Quantity: 1})
	resp.Body.Close()

	resp = doPost(t, "/api/carts/"+cartID+"/checkout", testCustomer)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("checkout: expected 200, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	getResp := doGet(t, "/api/carts/"+cartID)
	defer getResp.Body.Close()

	c := decodeJSON[cartResponse](t, getResp)
	if len(c.Items) != 0 || c.Total != 0 {
		t.Errorf("cart not cleared after checkout: %d items total %v", len(c.Items), c.Total)
	}
}

func TestCheckout_EmptyCart(t *testing.T) {
	cartID := createCart(t)

	resp := doPost(t, "/api/carts/"+cartID+"/checkout", testCustomer)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", resp.StatusCode)
	}
}

func TestCheckout_MissingCustomerFields(t *testing.T) {
	cartID := createCart(t)

	resp := doPost(t, "/api/carts/"+cartID+"/items", addItemRequest{ItemID: "lemonade", Quantity: 1})
	resp.Body.Close()

	resp = doPost(t, "/api/carts/"+cartID+"/checkout", checkoutRequest{Name: "Ada Lovelace"})
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", resp.StatusCode)
	}

	// Validation failure must not consume the cart.
	getResp := doGet(t, "/api/carts/"+cartID)
	defer getResp.Body.Close()

	c := decodeJSON[cartResponse](t, getResp)
	if len(c.Items) != 1 {
		t.Errorf("cart changed by failed checkout: %d items", len(c.Items))
	}
}

func TestCheckout_SecondOrderAfterSuccess(t *testing.T) {
	cartID := createCart(t)

	resp := doPost(t, "/api/carts/"+cartID+"/items", addItemRequest{ItemID: "tiramisu", Quantity: 1})
	resp.Body.Close()

	resp = doPost(t, "/api/carts/"+cartID+"/checkout", testCustomer)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("first checkout: expected 200, got %d", resp.StatusCode)
	}
	first := decodeJSON[checkoutResponse](t, resp)
	resp.Body.Close()

	resp = doPost(t, "/api/carts/"+cartID+"/items", addItemRequest{ItemID: "tiramisu", Quantity: 1})
	resp.Body.Close()

	resp = doPost(t, "/api/carts/"+cartID+"/checkout", testCustomer)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("second checkout: expected 200, got %d", resp.StatusCode)
	}

	second := decodeJSON[checkoutResponse](t, resp)
	if second.OrderID == first.OrderID {
		t.Errorf("second order reused ID %q", first.OrderID)
	}
}
