// Package order implements the matching core's order record: an immutable
// identity plus mutable execution state, constructed in the two-step
// new-then-initialize form the teacher's pooled order types use so that a
// caller may recycle the struct via Reset instead of allocating fresh.
package order

import (
	"time"

	"github.com/abdoElHodaky/clob-core/internal/clob/clobdecimal"
	"github.com/abdoElHodaky/clob-core/internal/clob/errs"
)

// Side is the side of an order.
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// Type is the order type.
type Type string

const (
	TypeMarket Type = "MARKET"
	TypeLimit  Type = "LIMIT"
	TypeIOC    Type = "IOC"
	TypeFOK    Type = "FOK"
)

// RequiresPrice reports whether orders of this type must carry a price.
func (t Type) RequiresPrice() bool {
	return t != TypeMarket
}

// Status is the lifecycle state of an order.
type Status string

const (
	StatusPending                Status = "PENDING"
	StatusOpen                   Status = "OPEN"
	StatusPartial                Status = "PARTIAL"
	StatusFilled                 Status = "FILLED"
	StatusCancelled               Status = "CANCELLED"
	StatusRejected               Status = "REJECTED"
	StatusPartialFillCancelled   Status = "PARTIAL_FILL_CANCELLED"
)

// IsTerminal reports whether an order in this status can never transition
// again: spec.md §3's FILLED, CANCELLED, REJECTED, PARTIAL_FILL_CANCELLED.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusFilled, StatusCancelled, StatusRejected, StatusPartialFillCancelled:
		return true
	default:
		return false
	}
}

// IsResting reports whether an order in this status may be sitting in a
// book level (spec.md §8 invariants: OPEN or PARTIAL).
func (s Status) IsResting() bool {
	return s == StatusOpen || s == StatusPartial
}

// Order is a single order's identity plus mutable execution state.
type Order struct {
	ID       string
	Symbol   string
	Side     Side
	Type     Type
	HasPrice bool
	Price    clobdecimal.Decimal

	OriginalQuantity  clobdecimal.Decimal
	FilledQuantity    clobdecimal.Decimal
	RemainingQuantity clobdecimal.Decimal
	CancelledQuantity clobdecimal.Decimal

	Status Status

	ClientID string

	CreatedAt time.Time
	UpdatedAt time.Time

	// ArrivalSeq is the strictly increasing per-process sequence number
	// that price-time priority, the WAL, and replay all order by.
	ArrivalSeq uint64
}

// New allocates an order shell bearing only its identity, ready for
// Initialize. Constructing in two steps (rather than one big constructor)
// permits pooling: a caller may Reset and reuse the same *Order value.
func New(id string) *Order {
	return &Order{ID: id, Status: StatusPending}
}

// Initialize sets an order's full parameters exactly once. Quantities must
// be strictly positive; a price is required unless typ is TypeMarket, in
// which case hasPrice must be false.
func (o *Order) Initialize(symbol string, side Side, typ Type, hasPrice bool, price, quantity clobdecimal.Decimal, clientID string, arrivalSeq uint64, now time.Time) error {
	if symbol == "" {
		return errs.New(errs.ErrValidation, "symbol is required")
	}
	if side != SideBuy && side != SideSell {
		return errs.Newf(errs.ErrValidation, "invalid side %q", side)
	}
	if !clobdecimal.IsPositive(quantity) {
		return errs.New(errs.ErrInvalidQuantity, "quantity must be positive")
	}
	if typ.RequiresPrice() {
		if !hasPrice {
			return errs.Newf(errs.ErrValidation, "order type %s requires a price", typ)
		}
		if !clobdecimal.IsPositive(price) {
			return errs.New(errs.ErrInvalidPrice, "price must be positive")
		}
	} else if hasPrice {
		return errs.New(errs.ErrValidation, "market orders must not carry a price")
	}

	o.Symbol = symbol
	o.Side = side
	o.Type = typ
	o.HasPrice = hasPrice
	o.Price = price
	o.OriginalQuantity = quantity
	o.FilledQuantity = clobdecimal.Zero
	o.RemainingQuantity = quantity
	o.CancelledQuantity = clobdecimal.Zero
	o.Status = StatusPending
	o.ClientID = clientID
	o.ArrivalSeq = arrivalSeq
	o.CreatedAt = now
	o.UpdatedAt = now
	return nil
}

// Fill records a partial or complete execution of qty. qty must
// not exceed RemainingQuantity. Status becomes FILLED iff the order has
// nothing left, else PARTIAL.
func (o *Order) Fill(qty clobdecimal.Decimal, now time.Time) error {
	if qty.GreaterThan(o.RemainingQuantity) {
		return errs.Newf(errs.ErrInvariantViolation, "fill %s exceeds remaining %s for order %s", qty, o.RemainingQuantity, o.ID)
	}
	o.FilledQuantity = o.FilledQuantity.Add(qty)
	o.RemainingQuantity = o.RemainingQuantity.Sub(qty)
	if o.RemainingQuantity.IsZero() {
		o.Status = StatusFilled
	} else {
		o.Status = StatusPartial
	}
	o.UpdatedAt = now
	return nil
}

// Cancel transitions a resting order to CANCELLED. Forbidden once an
// order has reached a terminal state.
func (o *Order) Cancel(now time.Time) error {
	if o.Status.IsTerminal() {
		return errs.Newf(errs.ErrNotCancelable, "order %s is in terminal status %s", o.ID, o.Status)
	}
	o.CancelledQuantity = o.CancelledQuantity.Add(o.RemainingQuantity)
	o.RemainingQuantity = clobdecimal.Zero
	o.Status = StatusCancelled
	o.UpdatedAt = now
	return nil
}

// CancelRemainder marks an IOC order's unfilled remainder as cancelled in
// place, the PARTIAL_FILL_CANCELLED terminal status of spec.md §4.5.4.
func (o *Order) CancelRemainder(now time.Time) {
	o.CancelledQuantity = o.CancelledQuantity.Add(o.RemainingQuantity)
	o.RemainingQuantity = clobdecimal.Zero
	o.Status = StatusPartialFillCancelled
	o.UpdatedAt = now
}

// Reject transitions a non-terminal order to REJECTED. Always legal from
// a non-terminal state.
func (o *Order) Reject(now time.Time) error {
	if o.Status.IsTerminal() {
		return errs.Newf(errs.ErrInvariantViolation, "order %s is already terminal (%s), cannot reject", o.ID, o.Status)
	}
	o.Status = StatusRejected
	o.UpdatedAt = now
	return nil
}

// Conserved reports whether original = filled + remaining + cancelled,
// the conservation invariant of spec.md §8.
func (o *Order) Conserved() bool {
	sum := o.FilledQuantity.Add(o.RemainingQuantity).Add(o.CancelledQuantity)
	return sum.Equal(o.OriginalQuantity)
}

// Reset clears an order so it may be returned to a pool and reused by
// Initialize for a different identity. Mirrors the teacher's pooled
// Order.Reset contract.
func (o *Order) Reset() {
	*o = Order{}
}
