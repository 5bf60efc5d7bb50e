package snapshot

import (
	"time"

	"github.com/abdoElHodaky/clob-core/internal/clob/order"
)

// Document is the on-disk format of one point-in-time snapshot (spec.md
// §4.7): `{timestamp, order_books: {symbol: {bids: {price: [order...]},
// asks: ...}}}`.
type Document struct {
	Timestamp  time.Time             `json:"timestamp"`
	OrderBooks map[string]SymbolBook `json:"order_books"`
}

// SymbolBook is one symbol's resting orders, keyed by price as a decimal
// string so JSON object keys stay exact.
type SymbolBook struct {
	Bids map[string][]OrderView `json:"bids"`
	Asks map[string][]OrderView `json:"asks"`
}

// OrderView is the serializable form of a resting order.
type OrderView struct {
	OrderID           string    `json:"order_id"`
	ClientID          string    `json:"client_id,omitempty"`
	Symbol            string    `json:"symbol"`
	Side              string    `json:"side"`
	Type              string    `json:"order_type"`
	HasPrice          bool      `json:"has_price"`
	Price             string    `json:"price,omitempty"`
	OriginalQuantity  string    `json:"original_quantity"`
	FilledQuantity    string    `json:"filled_quantity"`
	RemainingQuantity string    `json:"remaining_quantity"`
	CancelledQuantity string    `json:"cancelled_quantity"`
	Status            string    `json:"status"`
	ArrivalSeq        uint64    `json:"arrival_seq"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

func viewFromOrder(o *order.Order) OrderView {
	v := OrderView{
		OrderID:           o.ID,
		ClientID:          o.ClientID,
		Symbol:            o.Symbol,
		Side:              string(o.Side),
		Type:              string(o.Type),
		HasPrice:          o.HasPrice,
		OriginalQuantity:  o.OriginalQuantity.String(),
		FilledQuantity:    o.FilledQuantity.String(),
		RemainingQuantity: o.RemainingQuantity.String(),
		CancelledQuantity: o.CancelledQuantity.String(),
		Status:            string(o.Status),
		ArrivalSeq:        o.ArrivalSeq,
		CreatedAt:         o.CreatedAt,
		UpdatedAt:         o.UpdatedAt,
	}
	if o.HasPrice {
		v.Price = o.Price.String()
	}
	return v
}
