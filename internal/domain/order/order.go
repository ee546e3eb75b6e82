package order

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/xenking/bistro/internal/domain/cart"
)

// Status is the fulfillment state of a persisted order. The client only ever
// writes StatusPending; later transitions belong to the store side.
type Status string

// StatusPending is the initial status of every submitted order.
const StatusPending Status = "pending"

// CustomerInfo holds the delivery details captured at checkout. All three
// fields are required non-blank for submission; no format validation is done
// beyond presence.
type CustomerInfo struct {
	Name    string
	Phone   string
	Address string
}

// Order is an immutable record of a cart captured at submission time. It is
// never mutated by the client after Submit; the store owns it from then on.
//
// SubmissionKey identifies one submission attempt: a store receiving the same
// key twice must persist at most one order for it.
type Order struct {
	ID            string
	Items         []cart.LineItem
	Total         decimal.Decimal
	Customer      CustomerInfo
	PlacedAt      time.Time
	Status        Status
	SubmissionKey string
}

// Store defines persistence for orders. Submit persists the record exactly
// once and returns the store-assigned order identifier.
type Store interface {
	Submit(ctx context.Context, o *Order) (string, error)
}
