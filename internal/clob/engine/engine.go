// Package engine implements the matching core: order-type dispatch, the
// price-time walk, the FOK dry-run, remainder-policy application, and
// conditional-order trigger promotion (spec.md §4.5).
package engine

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/abdoElHodaky/clob-core/internal/clob/book"
	"github.com/abdoElHodaky/clob-core/internal/clob/clobdecimal"
	"github.com/abdoElHodaky/clob-core/internal/clob/clobid"
	"github.com/abdoElHodaky/clob-core/internal/clob/errs"
	"github.com/abdoElHodaky/clob-core/internal/clob/fees"
	"github.com/abdoElHodaky/clob-core/internal/clob/order"
	"github.com/abdoElHodaky/clob-core/internal/clob/trade"
)

// Config carries the engine's tunables from spec.md §6.
type Config struct {
	MaxOrderQuantity      clobdecimal.Decimal
	MaxPrice              clobdecimal.Decimal
	ConditionalCascadeCap int
	Symbols               []string
}

// DefaultConfig mirrors spec.md §6's defaults.
func DefaultConfig() Config {
	return Config{
		MaxOrderQuantity:      clobdecimal.MustParse("1000000"),
		MaxPrice:              clobdecimal.MustParse("1000000"),
		ConditionalCascadeCap: 1024,
	}
}

// Engine is the single-process matching core: one logical matching thread
// per spec.md §5, modeled here as a mutex serializing Submit/Cancel calls
// rather than an actual dedicated goroutine, since nothing inside the
// critical section may suspend on I/O besides the WAL append.
type Engine struct {
	mu sync.Mutex

	logger *zap.Logger
	config Config
	fees   *fees.Calculator
	ids    *clobid.Generator
	wal    WAL
	metric Metrics
	bcast  Broadcaster

	books          map[string]*book.Book
	lastTradePrice map[string]clobdecimal.Decimal
	conditionals   *conditionalRegistry
	pool           *order.Pool

	// tradeHistory owns every trade ever executed, independent of the
	// books and orders that produced it (spec.md §3 ownership: "the trade
	// history owns trade records; orders do not reference trades").
	// Unbounded; rotation is out of scope (spec.md §9 item 7).
	tradeHistory []trade.Trade

	suppressWAL bool

	ordersProcessed uint64
	tradesExecuted  uint64
	totalVolume     clobdecimal.Decimal

	startedAt time.Time
}

// New constructs an Engine. wal, metric, and bcast may be nil (no-ops).
func New(cfg Config, logger *zap.Logger, feeCalc *fees.Calculator, ids *clobid.Generator, wal WAL, metric Metrics, bcast Broadcaster) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	e := &Engine{
		logger:         logger,
		config:         cfg,
		fees:           feeCalc,
		ids:            ids,
		wal:            wal,
		metric:         metric,
		bcast:          bcast,
		books:          make(map[string]*book.Book),
		lastTradePrice: make(map[string]clobdecimal.Decimal),
		conditionals:   newConditionalRegistry(),
		pool:           order.NewPool(),
		totalVolume:    clobdecimal.Zero,
		startedAt:      time.Now(),
	}
	for _, sym := range cfg.Symbols {
		e.books[sym] = book.New(sym)
	}
	return e
}

// SetReplayMode toggles WAL-write suppression; used by the replay driver
// so re-applying submissions through the normal path does not re-log them
// (spec.md §9 redesign note 5, §4.6). While it is on, triggered
// conditional orders are cleared from the registry without being
// submitted, since the WAL holds their promoted submissions.
func (e *Engine) SetReplayMode(suppress bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.suppressWAL = suppress
}

func (e *Engine) bookFor(symbol string) *book.Book {
	b, ok := e.books[symbol]
	if !ok {
		b = book.New(symbol)
		e.books[symbol] = b
		e.logger.Info("created order book", zap.String("symbol", symbol))
	}
	return b
}

func opposite(side order.Side) order.Side {
	if side == order.SideBuy {
		return order.SideSell
	}
	return order.SideBuy
}

func (e *Engine) validate(req SubmitRequest) error {
	if req.Symbol == "" {
		return errs.New(errs.ErrValidation, "symbol is required")
	}
	if req.Side != order.SideBuy && req.Side != order.SideSell {
		return errs.Newf(errs.ErrValidation, "invalid side %q", req.Side)
	}
	switch req.Type {
	case order.TypeMarket, order.TypeLimit, order.TypeIOC, order.TypeFOK:
	default:
		return errs.Newf(errs.ErrValidation, "invalid order type %q", req.Type)
	}
	if !clobdecimal.IsPositive(req.Quantity) {
		return errs.New(errs.ErrInvalidQuantity, "quantity must be positive")
	}
	if req.Quantity.GreaterThan(e.config.MaxOrderQuantity) {
		return errs.Newf(errs.ErrInvalidQuantity, "quantity %s exceeds max_order_quantity %s", req.Quantity, e.config.MaxOrderQuantity)
	}
	if req.Type.RequiresPrice() {
		if !req.HasPrice {
			return errs.Newf(errs.ErrValidation, "order type %s requires a price", req.Type)
		}
		if !clobdecimal.IsPositive(req.Price) {
			return errs.New(errs.ErrInvalidPrice, "price must be positive")
		}
		if req.Price.GreaterThan(e.config.MaxPrice) {
			return errs.Newf(errs.ErrInvalidPrice, "price %s exceeds max_price %s", req.Price, e.config.MaxPrice)
		}
	} else if req.HasPrice {
		return errs.New(errs.ErrValidation, "market orders must not carry a price")
	}
	return nil
}

// Submit processes one order-request through to a terminal or resting
// status (spec.md §4.5.1).
func (e *Engine) Submit(req SubmitRequest) SubmitResponse {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.submitLocked(req, time.Now())
}

func (e *Engine) submitLocked(req SubmitRequest, now time.Time) SubmitResponse {
	if err := e.validate(req); err != nil {
		return e.rejectResponse(req, now, err)
	}

	orderID := req.OrderID
	var err error
	if orderID == "" {
		orderID, err = e.ids.NewOrderID()
		if err != nil {
			return e.rejectResponse(req, now, err)
		}
	}

	b := e.bookFor(req.Symbol)
	arrivalSeq := e.ids.NextArrivalSeq()

	if e.wal != nil && !e.suppressWAL {
		if err := e.wal.AppendOrderSubmit(req, orderID, arrivalSeq); err != nil {
			e.logger.Error("wal append order_submit failed", zap.Error(err), zap.String("order_id", orderID))
		}
	}

	o := e.pool.Get()
	o.ID = orderID
	o.Status = order.StatusPending
	if err := o.Initialize(req.Symbol, req.Side, req.Type, req.HasPrice, req.Price, req.Quantity, req.ClientID, arrivalSeq, now); err != nil {
		e.pool.Put(o)
		return e.rejectResponse(req, now, err)
	}

	trades, err := e.matchAndApplyPolicy(b, o, now)
	if err != nil {
		o.Reject(now)
		e.logger.Error("submit failed during matching", zap.Error(err), zap.String("order_id", orderID))
	}

	e.ordersProcessed++
	if e.metric != nil {
		e.metric.OrderProcessed()
	}

	resp := e.buildSubmitResponse(o, trades, now)
	if e.bcast != nil {
		for _, t := range trades {
			e.bcast.PublishTrade(t)
		}
	}
	if o.Status.IsTerminal() {
		// Terminal and, by construction above, never added to a book:
		// only TypeLimit rests, and only while !remainingZero (non-terminal).
		e.pool.Put(o)
	}

	// The cascade runs after the response is built: a promoted order may
	// fill o if it rests, and the walk then returns o to the pool.
	if len(trades) > 0 {
		e.triggerCascade(req.Symbol, now)
	}
	return resp
}

// matchAndApplyPolicy runs the FOK dry-run (if applicable), the
// price-time walk, and the remainder policy, in that order (spec.md
// §4.5.3–§4.5.4).
func (e *Engine) matchAndApplyPolicy(b *book.Book, o *order.Order, now time.Time) ([]trade.Trade, error) {
	if o.Type == order.TypeFOK {
		if !e.fokFillable(b, o) {
			o.Reject(now)
			return nil, nil
		}
	}

	trades := e.walk(b, o, now)

	hasTrades := len(trades) > 0
	remainingZero := o.RemainingQuantity.IsZero()

	switch o.Type {
	case order.TypeMarket:
		if !remainingZero && !hasTrades {
			o.Reject(now)
		}
		// remainingZero => Filled already set by Fill(); remaining>0 &&
		// hasTrades => Partial already set by Fill(); market orders never
		// rest on the book.
	case order.TypeLimit:
		if !remainingZero {
			if err := b.Add(o); err != nil {
				return trades, err
			}
		}
	case order.TypeIOC:
		if !remainingZero {
			if hasTrades {
				o.CancelRemainder(now)
			} else {
				o.Reject(now)
			}
		}
	case order.TypeFOK:
		// Dry-run guarantees remainingZero here; nothing further to do.
	}
	return trades, nil
}

// fokFillable runs the FOK dry-run pre-check: a non-mutating traversal of
// the opposing side summing crossable quantity (spec.md §4.5.5, §9
// redesign note 3 — never a deep copy of the book).
func (e *Engine) fokFillable(b *book.Book, taker *order.Order) bool {
	restingSide := opposite(taker.Side)
	cross := crossFunc(taker)
	total := b.CrossableQuantity(restingSide, false, cross, taker.RemainingQuantity)
	return total.GreaterThanOrEqual(taker.RemainingQuantity)
}

func crossFunc(taker *order.Order) func(clobdecimal.Decimal) bool {
	if taker.Side == order.SideBuy {
		return func(restingPrice clobdecimal.Decimal) bool { return taker.Price.GreaterThanOrEqual(restingPrice) }
	}
	return func(restingPrice clobdecimal.Decimal) bool { return taker.Price.LessThanOrEqual(restingPrice) }
}

// walk executes the price-time priority matching loop of spec.md §4.5.3,
// mutating both sides' orders and the book, and emitting Trade records as
// it goes.
func (e *Engine) walk(b *book.Book, taker *order.Order, now time.Time) []trade.Trade {
	restingSide := opposite(taker.Side)
	unconstrained := taker.Type == order.TypeMarket
	cross := crossFunc(taker)

	var trades []trade.Trade
	for clobdecimal.IsPositive(taker.RemainingQuantity) && !b.Empty(restingSide) {
		bestPrice, ok := b.BestPrice(restingSide)
		if !ok {
			break
		}
		if !unconstrained && !cross(bestPrice) {
			break
		}
		maker, ok := b.BestOrder(restingSide)
		if !ok {
			break
		}

		fillQty := taker.RemainingQuantity
		if maker.RemainingQuantity.LessThan(fillQty) {
			fillQty = maker.RemainingQuantity
		}

		maker.Fill(fillQty, now)
		taker.Fill(fillQty, now)

		tradeID := e.ids.NextTradeID()
		_, makerFeeAmt, feeCurrency := e.fees.Compute(bestPrice, fillQty, true, fees.DefaultTier)
		_, takerFeeAmt, _ := e.fees.Compute(bestPrice, fillQty, false, fees.DefaultTier)
		t := trade.New(tradeID, now, b.Symbol, bestPrice, fillQty, taker.Side, maker.ID, taker.ID, trade.Fees{
			MakerFee:    makerFeeAmt,
			TakerFee:    takerFeeAmt,
			FeeCurrency: feeCurrency,
		})
		trades = append(trades, t)

		if maker.Status.IsTerminal() {
			b.RemoveHead(restingSide)
			e.pool.Put(maker)
		} else {
			b.TouchBest()
		}

		e.lastTradePrice[b.Symbol] = bestPrice
		e.tradesExecuted++
		e.totalVolume = e.totalVolume.Add(t.Value())
		e.tradeHistory = append(e.tradeHistory, t)
		if e.metric != nil {
			e.metric.TradeExecuted(t.Value())
		}
		if e.wal != nil && !e.suppressWAL {
			if err := e.wal.AppendTradeExecute(t); err != nil {
				e.logger.Error("wal append trade_execute failed", zap.Error(err), zap.String("trade_id", t.ID))
			}
		}
	}
	return trades
}

func (e *Engine) buildSubmitResponse(o *order.Order, trades []trade.Trade, now time.Time) SubmitResponse {
	resp := SubmitResponse{
		OrderID:           o.ID,
		Status:            o.Status,
		Symbol:            o.Symbol,
		Type:              o.Type,
		Side:              o.Side,
		OriginalQuantity:  o.OriginalQuantity,
		FilledQuantity:    o.FilledQuantity,
		RemainingQuantity: o.RemainingQuantity,
		Timestamp:         now,
		Trades:            trades,
	}
	if len(trades) > 0 {
		num := clobdecimal.Zero
		den := clobdecimal.Zero
		for _, t := range trades {
			num = num.Add(t.Price.Mul(t.Quantity))
			den = den.Add(t.Quantity)
		}
		resp.HasAvgFillPrice = true
		resp.AvgFillPrice = clobdecimal.DivBank(num, den, 8)
	}
	return resp
}

func (e *Engine) rejectResponse(req SubmitRequest, now time.Time, err error) SubmitResponse {
	return SubmitResponse{
		OrderID:           req.OrderID,
		Status:            order.StatusRejected,
		Symbol:            req.Symbol,
		Type:              req.Type,
		Side:              req.Side,
		OriginalQuantity:  req.Quantity,
		RemainingQuantity: req.Quantity,
		Timestamp:         now,
		Error:             err.Error(),
	}
}

// Cancel finds a resting order by scanning the small number of per-symbol
// id-indices and cancels it (spec.md §4.5.6). An id that rests on no book
// but appears in the trade history belongs to an order that has already
// left the book after trading, and is refused as not_cancelable; any
// other unknown id is not_found.
func (e *Engine) Cancel(orderID string) CancelResponse {
	e.mu.Lock()
	defer e.mu.Unlock()
	now := time.Now()

	for _, b := range e.books {
		o, ok := b.Get(orderID)
		if !ok {
			continue
		}
		if !o.Status.IsResting() {
			return CancelResponse{OrderID: orderID, Status: o.Status, Timestamp: now, Error: "not_cancelable"}
		}
		b.Remove(orderID)
		o.Cancel(now)
		if e.wal != nil && !e.suppressWAL {
			if err := e.wal.AppendOrderCancel(orderID); err != nil {
				e.logger.Error("wal append order_cancel failed", zap.Error(err), zap.String("order_id", orderID))
			}
		}
		resp := CancelResponse{
			OrderID:           orderID,
			Status:            o.Status,
			FilledQuantity:    o.FilledQuantity,
			CancelledQuantity: o.CancelledQuantity,
			Timestamp:         now,
		}
		e.pool.Put(o)
		return resp
	}
	for _, t := range e.tradeHistory {
		if t.MakerOrderID == orderID || t.TakerOrderID == orderID {
			return CancelResponse{OrderID: orderID, Timestamp: now, Error: "not_cancelable"}
		}
	}
	return CancelResponse{OrderID: orderID, Timestamp: now, Error: "not_found"}
}

// Lookup returns a resting order by id, if found on any book.
func (e *Engine) Lookup(orderID string) (*order.Order, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, b := range e.books {
		if o, ok := b.Get(orderID); ok {
			return o, true
		}
	}
	return nil, false
}

// RegisterConditional files a conditional order (spec.md §4.5.2). It is
// not matched immediately; it waits in the registry for TriggerScan.
func (e *Engine) RegisterConditional(c ConditionalOrder) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.conditionals.Register(c)
	if e.wal != nil && !e.suppressWAL {
		if err := e.wal.AppendConditionalRegister(c); err != nil {
			e.logger.Error("wal append conditional_register failed", zap.Error(err), zap.String("order_id", c.OrderID))
		}
	}
}

// triggerCascade evaluates conditional triggers against symbol's latest
// trade price, promoting matched entries to submissions (spec.md §4.5.7).
// The cap bounds the promotions made by this call; a promoted submission
// that trades runs its own nested triggerCascade, whose promotions are
// counted against a fresh cap. Entries past the cap are removed from the
// registry, logged, and not submitted.
//
// In replay mode the triggered entries are only removed from the
// registry: each promotion's own ORDER_SUBMIT record follows in the WAL
// and re-submits it.
func (e *Engine) triggerCascade(symbol string, now time.Time) {
	lastPrice, ok := e.lastTradePrice[symbol]
	if !ok {
		return
	}
	promoted := 0
	queue := e.conditionals.TriggerScan(symbol, lastPrice)
	if e.suppressWAL {
		return
	}
	for len(queue) > 0 {
		c := queue[0]
		queue = queue[1:]

		if promoted >= e.config.ConditionalCascadeCap {
			e.logger.Warn("conditional cascade cap exceeded, dropping promotion",
				zap.String("symbol", symbol), zap.String("order_id", c.OrderID), zap.Int("cap", e.config.ConditionalCascadeCap))
			continue
		}
		promoted++

		if e.wal != nil && !e.suppressWAL {
			if err := e.wal.AppendConditionalTrigger(c); err != nil {
				e.logger.Error("wal append conditional_trigger failed", zap.Error(err), zap.String("order_id", c.OrderID))
			}
		}

		req := SubmitRequest{
			OrderID:  c.OrderID,
			Symbol:   c.Symbol,
			Side:     c.Side,
			Quantity: c.Quantity,
			ClientID: c.ClientID,
		}
		if c.Kind == ConditionalStopLimit {
			req.Type = order.TypeLimit
			req.HasPrice = true
			req.Price = c.LimitPrice
		} else {
			req.Type = order.TypeMarket
		}

		resp := e.submitLocked(req, now)
		if len(resp.Trades) > 0 {
			queue = append(queue, e.conditionals.TriggerScan(symbol, e.lastTradePrice[symbol])...)
		}
	}
}

// BookSnapshot returns the top n levels per side and BBO for symbol.
func (e *Engine) BookSnapshot(symbol string, depth int) (BookSnapshotView, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	b, ok := e.books[symbol]
	if !ok {
		return BookSnapshotView{}, false
	}
	bids, asks := b.Depth(depth)
	return BookSnapshotView{
		Symbol:    symbol,
		Timestamp: time.Now(),
		Bids:      bids,
		Asks:      asks,
		BBO:       b.BBO(),
	}, true
}

// TradeHistory returns a copy of every trade executed by the engine since
// startup, in execution order (spec.md §3 ownership model). The slice
// grows unboundedly; no rotation policy is applied (spec.md §9 item 7).
func (e *Engine) TradeHistory() []trade.Trade {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]trade.Trade, len(e.tradeHistory))
	copy(out, e.tradeHistory)
	return out
}

// Health reports engine-wide liveness and counters (spec.md §6).
func (e *Engine) Health() HealthView {
	e.mu.Lock()
	defer e.mu.Unlock()
	activeOrders := 0
	for _, b := range e.books {
		activeOrders += b.OrderCount()
	}
	return HealthView{
		Status:          "ok",
		UptimeSeconds:   time.Since(e.startedAt).Seconds(),
		OrdersProcessed: e.ordersProcessed,
		TradesExecuted:  e.tradesExecuted,
		TotalVolume:     e.totalVolume,
		ActiveSymbols:   len(e.books),
		ActiveOrders:    activeOrders,
		Timestamp:       time.Now(),
	}
}

// Symbols returns the list of symbols with a book (for snapshot export).
func (e *Engine) Symbols() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]string, 0, len(e.books))
	for sym := range e.books {
		out = append(out, sym)
	}
	return out
}

// Book exposes the raw book for a symbol, for snapshot export. Callers
// must not mutate it outside the engine's own lock.
func (e *Engine) Book(symbol string) (*book.Book, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	b, ok := e.books[symbol]
	return b, ok
}

// RestoreBook installs a book directly, bypassing matching — used by
// snapshot restore before the engine starts serving submissions.
func (e *Engine) RestoreBook(symbol string, b *book.Book) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.books[symbol] = b
}
