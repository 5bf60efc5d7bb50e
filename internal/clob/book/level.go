package book

import (
	"github.com/abdoElHodaky/clob-core/internal/clob/clobdecimal"
	"github.com/abdoElHodaky/clob-core/internal/clob/order"
)

// node is one resting order's slot in a price level's FIFO queue. The
// book's id index keeps a pointer to each resting order's node, so
// Book.Remove unlinks by id in O(1) instead of scanning the queue
// (spec.md §9 redesign note 1).
type node struct {
	order      *order.Order
	prev, next *node
}

// Level is the FIFO queue of resting orders at one price on one side of
// one symbol. Sequence order is strictly by arrival (spec.md §3).
type Level struct {
	Price clobdecimal.Decimal
	head  *node
	tail  *node
	count int
}

func newLevel(price clobdecimal.Decimal) *Level {
	return &Level{Price: price}
}

// Empty reports whether the level has no resting orders left.
func (l *Level) Empty() bool {
	return l.count == 0
}

// Count returns the number of resting orders at this level.
func (l *Level) Count() int {
	return l.count
}

// Front returns the head order — the oldest by arrival — without
// removing it.
func (l *Level) Front() (*order.Order, bool) {
	if l.head == nil {
		return nil, false
	}
	return l.head.order, true
}

// pushBack appends o to the tail of the queue and returns its node, the
// handle a caller keeps for O(1) later removal.
func (l *Level) pushBack(o *order.Order) *node {
	n := &node{order: o}
	if l.tail == nil {
		l.head, l.tail = n, n
	} else {
		l.tail.next = n
		n.prev = l.tail
		l.tail = n
	}
	l.count++
	return n
}

// remove unlinks n from the queue in O(1).
func (l *Level) remove(n *node) {
	if n.prev != nil {
		n.prev.next = n.next
	} else {
		l.head = n.next
	}
	if n.next != nil {
		n.next.prev = n.prev
	} else {
		l.tail = n.prev
	}
	n.prev, n.next = nil, nil
	l.count--
}

// popFront removes and returns the head order. Used once the matching
// walk has fully consumed it.
func (l *Level) popFront() (*order.Order, bool) {
	if l.head == nil {
		return nil, false
	}
	n := l.head
	l.remove(n)
	return n.order, true
}

// AggregateRemaining sums RemainingQuantity across every order currently
// resting at this level (spec.md §4.3 BBO cache definition).
func (l *Level) AggregateRemaining() clobdecimal.Decimal {
	sum := clobdecimal.Zero
	for n := l.head; n != nil; n = n.next {
		sum = sum.Add(n.order.RemainingQuantity)
	}
	return sum
}

// Orders returns the level's resting orders in strict arrival order.
// Intended for snapshotting; callers must not mutate the returned slice
// elements' identity (only their execution state, via the matching
// engine).
func (l *Level) Orders() []*order.Order {
	out := make([]*order.Order, 0, l.count)
	for n := l.head; n != nil; n = n.next {
		out = append(out, n.order)
	}
	return out
}
