package lobby

import (
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// BookLog represents an event in the order book. SequenceID is a per-book
// increasing ID for every event, used for ordering, deduplication, and
// rebuild synchronization in downstream systems.
// Use LogType to determine if the event affects book state:
// - Open, Match, Cancel, Replenish: affect book state
// - Reject: does not affect book state
type BookLog struct {
	SequenceID   uint64          `json:"seq_id"`
	TradeID      uint64          `json:"trade_id,omitempty"` // sequential trade ID, only set for Match events
	Type         LogType         `json:"type"`
	Symbol       string          `json:"symbol"`
	Side         Side            `json:"side"`
	Tick         int64           `json:"tick"`
	Price        decimal.Decimal `json:"price"`
	Qty          int64           `json:"qty"`
	OrderID      uint64          `json:"order_id"`
	Owner        string          `json:"owner"`
	MakerOrderID uint64          `json:"maker_order_id,omitempty"`
	MakerOwner   string          `json:"maker_owner,omitempty"`

	// ReplacesOrderID is only set for Replenish events: the fully consumed
	// visible id the new order supersedes. Callers tracking their own order
	// ids must reconcile the old id against OrderID.
	ReplacesOrderID uint64 `json:"replaces_order_id,omitempty"`

	RejectReason RejectReason `json:"reject_reason,omitempty"` // only set for Reject events
	CreatedAt    time.Time    `json:"created_at"`
}

var bookLogPool = sync.Pool{
	New: func() any {
		return new(BookLog)
	},
}

func acquireBookLog() *BookLog {
	return bookLogPool.Get().(*BookLog)
}

func releaseBookLog(log *BookLog) {
	// Reset structure to zero values.
	// For decimal.Decimal, the zero value (nil internal pointer) represents 0, which is valid.
	*log = BookLog{}
	bookLogPool.Put(log)
}

func newOpenLog(seqID uint64, symbol string, side Side, o *Order, price decimal.Decimal) *BookLog {
	log := acquireBookLog()
	log.SequenceID = seqID
	log.Type = LogTypeOpen
	log.Symbol = symbol
	log.Side = side
	log.Tick = o.Tick
	log.Price = price
	log.Qty = o.Qty
	log.OrderID = o.ID
	log.Owner = o.Owner
	log.CreatedAt = time.Now().UTC()
	return log
}

func newMatchLog(seqID, tradeID uint64, symbol string, takerSide Side, takerID uint64, takerOwner string, maker *Order, tick, qty int64, price decimal.Decimal) *BookLog {
	log := acquireBookLog()
	log.SequenceID = seqID
	log.TradeID = tradeID
	log.Type = LogTypeMatch
	log.Symbol = symbol
	log.Side = takerSide
	log.Tick = tick
	log.Price = price
	log.Qty = qty
	log.OrderID = takerID
	log.Owner = takerOwner
	log.MakerOrderID = maker.ID
	log.MakerOwner = maker.Owner
	log.CreatedAt = time.Now().UTC()
	return log
}

func newCancelLog(seqID uint64, symbol string, side Side, o *Order, price decimal.Decimal) *BookLog {
	log := acquireBookLog()
	log.SequenceID = seqID
	log.Type = LogTypeCancel
	log.Symbol = symbol
	log.Side = side
	log.Tick = o.Tick
	log.Price = price
	log.Qty = o.Qty
	log.OrderID = o.ID
	log.Owner = o.Owner
	log.CreatedAt = time.Now().UTC()
	return log
}

func newReplenishLog(seqID uint64, symbol string, side Side, o *Order, oldID uint64, price decimal.Decimal) *BookLog {
	log := acquireBookLog()
	log.SequenceID = seqID
	log.Type = LogTypeReplenish
	log.Symbol = symbol
	log.Side = side
	log.Tick = o.Tick
	log.Price = price
	log.Qty = o.Qty
	log.OrderID = o.ID
	log.Owner = o.Owner
	log.ReplacesOrderID = oldID
	log.CreatedAt = time.Now().UTC()
	return log
}

func newRejectLog(seqID uint64, symbol string, side Side, orderID uint64, owner string, qty int64, reason RejectReason) *BookLog {
	log := acquireBookLog()
	log.SequenceID = seqID
	log.Type = LogTypeReject
	log.Symbol = symbol
	log.Side = side
	log.Qty = qty
	log.OrderID = orderID
	log.Owner = owner
	log.RejectReason = reason
	log.CreatedAt = time.Now().UTC()
	return log
}
