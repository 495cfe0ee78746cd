package lobby

import "github.com/shopspring/decimal"

// Trade is one execution. Immutable once appended to the tape.
type Trade struct {
	TradeID    uint64          `json:"trade_id"`
	Qty        int64           `json:"qty"`
	Tick       int64           `json:"tick"`
	Price      decimal.Decimal `json:"price"`
	TakerOwner string          `json:"taker_owner"`
	MakerOwner string          `json:"maker_owner"`
}

// TradeTape is the append-only ordered log of executed trades. Nothing is
// ever removed or mutated; a trade's position on the tape is its sequence.
type TradeTape struct {
	trades []Trade
}

func NewTradeTape() *TradeTape {
	return &TradeTape{trades: make([]Trade, 0, 64)}
}

func (t *TradeTape) Append(trade Trade) {
	t.trades = append(t.trades, trade)
}

func (t *TradeTape) Len() int {
	return len(t.trades)
}

func (t *TradeTape) At(i int) Trade {
	return t.trades[i]
}

// All returns a copy of the tape contents in append order.
func (t *TradeTape) All() []Trade {
	out := make([]Trade, len(t.trades))
	copy(out, t.trades)
	return out
}
