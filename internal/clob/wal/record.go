package wal

import "time"

// RecordType tags a WAL line with its payload kind (spec.md §4.6).
type RecordType string

const (
	RecordOrderSubmit         RecordType = "ORDER_SUBMIT"
	RecordTradeExecute        RecordType = "TRADE_EXECUTE"
	RecordOrderCancel         RecordType = "ORDER_CANCEL"
	RecordConditionalRegister RecordType = "CONDITIONAL_REGISTER"
	RecordConditionalTrigger  RecordType = "CONDITIONAL_TRIGGER"
)

// Record is one line of the append-only log: UTF-8 JSON, LF-terminated,
// exactly one of the payload fields populated per Type.
type Record struct {
	Type      RecordType `json:"type"`
	Timestamp time.Time  `json:"timestamp"`

	OrderSubmit         *OrderSubmitPayload `json:"order_submit,omitempty"`
	TradeExecute        *TradeExecutePayload `json:"trade_execute,omitempty"`
	OrderCancel         *OrderCancelPayload `json:"order_cancel,omitempty"`
	ConditionalRegister *ConditionalPayload `json:"conditional_register,omitempty"`
	ConditionalTrigger  *ConditionalPayload `json:"conditional_trigger,omitempty"`
}

// OrderSubmitPayload is a full order request plus the identity and
// arrival sequence the engine assigned it.
type OrderSubmitPayload struct {
	OrderID    string `json:"order_id"`
	ArrivalSeq uint64 `json:"arrival_seq"`
	Symbol     string `json:"symbol"`
	Type       string `json:"order_type"`
	Side       string `json:"side"`
	Quantity   string `json:"quantity"`
	HasPrice   bool   `json:"has_price"`
	Price      string `json:"price,omitempty"`
	ClientID   string `json:"client_id,omitempty"`
}

// TradeExecutePayload records trade identity and economics for recovery
// reconciliation (spec.md §9 item 6).
type TradeExecutePayload struct {
	TradeID      string `json:"trade_id"`
	Symbol       string `json:"symbol"`
	Price        string `json:"price"`
	Quantity     string `json:"quantity"`
	AggressorSide string `json:"aggressor_side"`
	MakerOrderID string `json:"maker_order_id"`
	TakerOrderID string `json:"taker_order_id"`
	MakerFee     string `json:"maker_fee"`
	TakerFee     string `json:"taker_fee"`
	FeeCurrency  string `json:"fee_currency"`
}

// OrderCancelPayload identifies the cancelled order.
type OrderCancelPayload struct {
	OrderID string `json:"order_id"`
}

// ConditionalPayload carries a conditional order's full definition, used
// by both CONDITIONAL_REGISTER and CONDITIONAL_TRIGGER records.
type ConditionalPayload struct {
	OrderID       string `json:"order_id"`
	Symbol        string `json:"symbol"`
	Side          string `json:"side"`
	Quantity      string `json:"quantity"`
	Kind          string `json:"kind"`
	TriggerPrice  string `json:"trigger_price"`
	HasLimitPrice bool   `json:"has_limit_price"`
	LimitPrice    string `json:"limit_price,omitempty"`
	ClientID      string `json:"client_id,omitempty"`
}
