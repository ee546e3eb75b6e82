package order

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/xenking/bistro/internal/domain/cart"
)

// State is the submission workflow state. A submission attempt moves
// Idle -> Validating -> Submitting -> Succeeded | Failed; the terminal states
// are per-attempt, and a fresh Submit starts over from a quiescent state.
type State int32

const (
	StateIdle State = iota
	StateValidating
	StateSubmitting
	StateSucceeded
	StateFailed
)

// String implements fmt.Stringer.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateValidating:
		return "validating"
	case StateSubmitting:
		return "submitting"
	case StateSucceeded:
		return "succeeded"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// ErrSubmitInFlight is returned when Submit is called while a previous
// submission is still validating or waiting on the store. The second request
// is rejected, not queued.
var ErrSubmitInFlight = fmt.Errorf("submission already in flight")

// ValidationError reports a missing precondition for submission. No store
// call is made when validation fails.
type ValidationError struct {
	Field string
}

func (e *ValidationError) Error() string {
	if e.Field == "items" {
		return "cart is empty"
	}
	return fmt.Sprintf("%s is required", e.Field)
}

// SubmissionError wraps a transport or store-side failure. The cart is left
// untouched so the user can retry without re-entering anything.
type SubmissionError struct {
	Err error
}

func (e *SubmissionError) Error() string {
	return fmt.Sprintf("submit order: %v", e.Err)
}

func (e *SubmissionError) Unwrap() error {
	return e.Err
}

// Workflow runs the order submission state machine against an injected Store.
// One Workflow belongs to one cart session; it never mutates the cart itself,
// so "order recorded" stays separate from "cart reset".
type Workflow struct {
	store Store
	state atomic.Int32

	now    func() time.Time
	newKey func() string
}

// NewWorkflow creates a Workflow submitting to the given store.
func NewWorkflow(store Store) *Workflow {
	return &Workflow{
		store:  store,
		now:    time.Now,
		newKey: func() string { return uuid.New().String() },
	}
}

// State returns the current workflow state. Presentation layers use it to
// disable the submit trigger while a submission is in flight.
func (w *Workflow) State() State {
	return State(w.state.Load())
}

// Submit validates the cart and customer info, builds the immutable order
// record, and persists it exactly once, returning the store-assigned id.
//
// A Submit arriving while another is in flight fails with ErrSubmitInFlight.
// Validation failures return a *ValidationError before any store call; store
// failures return a *SubmissionError wrapping the cause.
func (w *Workflow) Submit(ctx context.Context, c cart.State, info CustomerInfo) (string, error) {
	if !w.begin() {
		return "", ErrSubmitInFlight
	}

	if err := validate(c, info); err != nil {
		w.state.Store(int32(StateFailed))
		return "", err
	}

	w.state.Store(int32(StateSubmitting))

	o := &Order{
		Items:         c.Items,
		Total:         c.Total,
		Customer:      info,
		PlacedAt:      w.now(),
		Status:        StatusPending,
		SubmissionKey: w.newKey(),
	}

	id, err := w.store.Submit(ctx, o)
	if err != nil {
		w.state.Store(int32(StateFailed))
		return "", &SubmissionError{Err: err}
	}

	w.state.Store(int32(StateSucceeded))
	return id, nil
}

// begin moves the workflow into Validating, but only from a quiescent state.
// Validating and Submitting reject a second attempt.
func (w *Workflow) begin() bool {
	for _, from := range []State{StateIdle, StateSucceeded, StateFailed} {
		if w.state.CompareAndSwap(int32(from), int32(StateValidating)) {
			return true
		}
	}
	return false
}

func validate(c cart.State, info CustomerInfo) error {
	if c.IsEmpty() {
		return &ValidationError{Field: "items"}
	}
	for _, f := range []struct {
		name  string
		value string
	}{
		{"name", info.Name},
		{"phone", info.Phone},
		{"address", info.Address},
	} {
		if strings.TrimSpace(f.value) == "" {
			return &ValidationError{Field: f.name}
		}
	}
	return nil
}
