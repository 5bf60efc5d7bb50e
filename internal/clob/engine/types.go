package engine

import (
	"time"

	"github.com/abdoElHodaky/clob-core/internal/clob/book"
	"github.com/abdoElHodaky/clob-core/internal/clob/clobdecimal"
	"github.com/abdoElHodaky/clob-core/internal/clob/order"
	"github.com/abdoElHodaky/clob-core/internal/clob/trade"
)

// SubmitRequest is the inbound order submission document (spec.md §6).
type SubmitRequest struct {
	OrderID  string
	Symbol   string
	Type     order.Type
	Side     order.Side
	Quantity clobdecimal.Decimal
	HasPrice bool
	Price    clobdecimal.Decimal
	ClientID string
}

// SubmitResponse is the outcome of a submission (spec.md §6).
type SubmitResponse struct {
	OrderID           string
	Status            order.Status
	Symbol            string
	Type              order.Type
	Side              order.Side
	OriginalQuantity  clobdecimal.Decimal
	FilledQuantity    clobdecimal.Decimal
	RemainingQuantity clobdecimal.Decimal
	HasAvgFillPrice   bool
	AvgFillPrice      clobdecimal.Decimal
	Timestamp         time.Time
	Trades            []trade.Trade
	Error             string
}

// CancelResponse is the outcome of a cancel request (spec.md §6).
type CancelResponse struct {
	OrderID           string
	Status            order.Status
	FilledQuantity    clobdecimal.Decimal
	CancelledQuantity clobdecimal.Decimal
	Timestamp         time.Time
	Error             string
}

// BookSnapshotView is the read-only depth + BBO view of one symbol's book
// (spec.md §6 "Order book snapshot").
type BookSnapshotView struct {
	Symbol    string
	Timestamp time.Time
	Bids      []book.LevelView
	Asks      []book.LevelView
	BBO       book.BBO
}

// HealthView reports engine-wide liveness and counters (spec.md §6).
type HealthView struct {
	Status          string
	UptimeSeconds   float64
	OrdersProcessed uint64
	TradesExecuted  uint64
	TotalVolume     clobdecimal.Decimal
	ActiveSymbols   int
	ActiveOrders    int
	Timestamp       time.Time
}

// WAL is the durability collaborator the engine appends to. Defined here,
// consumer-side, so internal/clob/wal need not know about the engine;
// *wal.Writer satisfies it.
type WAL interface {
	AppendOrderSubmit(req SubmitRequest, orderID string, arrivalSeq uint64) error
	AppendTradeExecute(t trade.Trade) error
	AppendOrderCancel(orderID string) error
	AppendConditionalRegister(c ConditionalOrder) error
	AppendConditionalTrigger(c ConditionalOrder) error
}

// Metrics is the counters collaborator the engine updates on every
// submission and fill. *metrics.Registry satisfies it.
type Metrics interface {
	OrderProcessed()
	TradeExecuted(volume clobdecimal.Decimal)
}

// Broadcaster is the push-transport hook (spec.md §6 "Push feeds"); kept
// as a plain interface since the transport itself is out of scope (§1).
type Broadcaster interface {
	PublishTrade(t trade.Trade)
	PublishOrderBook(symbol string, snap BookSnapshotView)
	PublishBBO(symbol string, bbo book.BBO)
}
