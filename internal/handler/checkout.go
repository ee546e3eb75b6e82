package handler

import (
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"

	"github.com/xenking/bistro/internal/domain/order"
)

// checkout validates the cart and customer details and submits the order.
// On success the cart is cleared here, in the caller — the workflow itself
// never mutates it, so a failed submission leaves everything in place for a
// retry.
func (h *Handler) checkout(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	var info order.CustomerInfo
	err := decodeBody(r, func(d *jx.Decoder) error {
		return d.Obj(func(d *jx.Decoder, key string) error {
			var err error
			switch key {
			case "name":
				info.Name, err = d.Str()
			case "phone":
				info.Phone, err = d.Str()
			case "address":
				info.Address, err = d.Str()
			default:
				return d.Skip()
			}
			return err
		})
	})
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	snapshot := s.Cart.Snapshot()
	orderID, err := s.Checkout.Submit(r.Context(), snapshot, info)
	if err != nil {
		status, message := mapCheckoutError(err)
		writeError(w, status, message)
		return
	}

	s.Cart.Clear()

	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.ObjStart()
		e.FieldStart("order_id")
		e.Str(orderID)
		e.FieldStart("total")
		e.Float64(snapshot.Total.InexactFloat64())
		e.FieldStart("status")
		e.Str(string(order.StatusPending))
		e.ObjEnd()
	})
}

// mapCheckoutError converts workflow errors to HTTP responses. Validation
// problems are the user's to fix; an in-flight submission is rejected rather
// than queued; store failures keep the cart intact and invite a retry.
func mapCheckoutError(err error) (int, string) {
	var vErr *order.ValidationError
	if errors.As(err, &vErr) {
		return http.StatusUnprocessableEntity, vErr.Error()
	}

	if errors.Is(err, order.ErrSubmitInFlight) {
		return http.StatusConflict, "submission already in flight"
	}

	var sErr *order.SubmissionError
	if errors.As(err, &sErr) {
		return http.StatusBadGateway, "order could not be submitted, please retry"
	}

	return http.StatusInternalServerError, "checkout failed"
}
