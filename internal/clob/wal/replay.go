package wal

import (
	"bufio"
	"encoding/json"
	"io"
	"os"

	"github.com/abdoElHodaky/clob-core/internal/clob/clobdecimal"
	"github.com/abdoElHodaky/clob-core/internal/clob/engine"
	"github.com/abdoElHodaky/clob-core/internal/clob/errs"
	"github.com/abdoElHodaky/clob-core/internal/clob/order"
	"github.com/abdoElHodaky/clob-core/internal/clob/trade"
)

// scannerBufferSize accommodates WAL lines up to 1MiB, far larger than
// bufio's 64KiB default.
const scannerBufferSize = 1 << 20

// Replay reconstructs eng's state by re-applying every record at path in
// file order, with WAL writes suppressed so replay does not re-log itself
// (spec.md §9 item 5). TRADE_EXECUTE records are reconciled against the
// trades replay actually produces, by count and by each trade's price,
// quantity, and maker/taker ids; trade ids are not compared, since they
// carry the wall-clock second they were minted in. Any divergence is
// fatal (spec.md §9 item 6, §7 "replay divergence: fatal").
//
// A missing file is a fresh start, not an error.
func Replay(path string, eng *engine.Engine) error {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	defer f.Close()

	eng.SetReplayMode(true)
	defer eng.SetReplayMode(false)

	var expected []TradeExecutePayload
	var produced []trade.Trade

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), scannerBufferSize)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var rec Record
		if err := json.Unmarshal(line, &rec); err != nil {
			return errs.Wrap(err, errs.ErrReplayDivergence, "malformed wal record")
		}

		switch rec.Type {
		case RecordOrderSubmit:
			if rec.OrderSubmit == nil {
				return errs.New(errs.ErrReplayDivergence, "order_submit record missing payload")
			}
			req, err := toSubmitRequest(*rec.OrderSubmit)
			if err != nil {
				return errs.Wrap(err, errs.ErrReplayDivergence, "bad order_submit payload")
			}
			resp := eng.Submit(req)
			produced = append(produced, resp.Trades...)

		case RecordOrderCancel:
			if rec.OrderCancel == nil {
				return errs.New(errs.ErrReplayDivergence, "order_cancel record missing payload")
			}
			eng.Cancel(rec.OrderCancel.OrderID)

		case RecordConditionalRegister:
			if rec.ConditionalRegister == nil {
				return errs.New(errs.ErrReplayDivergence, "conditional_register record missing payload")
			}
			c, err := toConditionalOrder(*rec.ConditionalRegister)
			if err != nil {
				return errs.Wrap(err, errs.ErrReplayDivergence, "bad conditional_register payload")
			}
			eng.RegisterConditional(c)

		case RecordConditionalTrigger:
			// Informational: the promoted order's own ORDER_SUBMIT record
			// follows and replays it.

		case RecordTradeExecute:
			if rec.TradeExecute == nil {
				return errs.New(errs.ErrReplayDivergence, "trade_execute record missing payload")
			}
			expected = append(expected, *rec.TradeExecute)

		default:
			return errs.Newf(errs.ErrReplayDivergence, "unknown wal record type %q", rec.Type)
		}
	}
	if err := scanner.Err(); err != nil && err != io.EOF {
		return errs.Wrap(err, errs.ErrReplayDivergence, "reading wal")
	}

	return reconcile(expected, produced)
}

func reconcile(expected []TradeExecutePayload, produced []trade.Trade) error {
	if len(expected) != len(produced) {
		return errs.Newf(errs.ErrReplayDivergence, "trade count mismatch: wal recorded %d, replay produced %d", len(expected), len(produced))
	}
	for i, exp := range expected {
		got := produced[i]
		expPrice, err := clobdecimal.Parse(exp.Price)
		if err != nil || !expPrice.Equal(got.Price) {
			return errs.Newf(errs.ErrReplayDivergence, "trade %s price mismatch: wal %s, replay %s", exp.TradeID, exp.Price, got.Price)
		}
		expQty, err := clobdecimal.Parse(exp.Quantity)
		if err != nil || !expQty.Equal(got.Quantity) {
			return errs.Newf(errs.ErrReplayDivergence, "trade %s quantity mismatch: wal %s, replay %s", exp.TradeID, exp.Quantity, got.Quantity)
		}
		if exp.MakerOrderID != got.MakerOrderID || exp.TakerOrderID != got.TakerOrderID {
			return errs.Newf(errs.ErrReplayDivergence, "trade %s maker/taker mismatch", exp.TradeID)
		}
	}
	return nil
}

func toSubmitRequest(p OrderSubmitPayload) (engine.SubmitRequest, error) {
	qty, err := clobdecimal.Parse(p.Quantity)
	if err != nil {
		return engine.SubmitRequest{}, err
	}
	req := engine.SubmitRequest{
		OrderID:  p.OrderID,
		Symbol:   p.Symbol,
		Type:     order.Type(p.Type),
		Side:     order.Side(p.Side),
		Quantity: qty,
		HasPrice: p.HasPrice,
		ClientID: p.ClientID,
	}
	if p.HasPrice {
		price, err := clobdecimal.Parse(p.Price)
		if err != nil {
			return engine.SubmitRequest{}, err
		}
		req.Price = price
	}
	return req, nil
}

func toConditionalOrder(p ConditionalPayload) (engine.ConditionalOrder, error) {
	qty, err := clobdecimal.Parse(p.Quantity)
	if err != nil {
		return engine.ConditionalOrder{}, err
	}
	trigger, err := clobdecimal.Parse(p.TriggerPrice)
	if err != nil {
		return engine.ConditionalOrder{}, err
	}
	c := engine.ConditionalOrder{
		OrderID:       p.OrderID,
		Symbol:        p.Symbol,
		Side:          order.Side(p.Side),
		Quantity:      qty,
		Kind:          engine.ConditionalKind(p.Kind),
		TriggerPrice:  trigger,
		HasLimitPrice: p.HasLimitPrice,
		ClientID:      p.ClientID,
	}
	if p.HasLimitPrice {
		limit, err := clobdecimal.Parse(p.LimitPrice)
		if err != nil {
			return engine.ConditionalOrder{}, err
		}
		c.LimitPrice = limit
	}
	return c, nil
}
