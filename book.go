package lobby

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// BookOption configures a Book.
type BookOption func(*Book)

// WithPriceDigits sets the number of decimal digits used for tick
// conversion.
func WithPriceDigits(digits int32) BookOption {
	return func(b *Book) {
		b.conv = NewTickConverter(digits)
	}
}

// WithPublishLog sets the destination for book event logs.
func WithPublishLog(p PublishLog) BookOption {
	return func(b *Book) {
		b.publish = p
	}
}

// Book is the matching core for one instrument: it accepts incoming orders,
// matches them against resting liquidity under price-time priority, and
// maintains the resting book state.
//
// Book is NOT safe for concurrent use. The entire per-order pipeline
// (validate, policy checks, crossing loop, rest/discard) executes as one
// uninterruptible unit; callers submitting from multiple goroutines must
// serialize entry, e.g. through OrderBook.
type Book struct {
	symbol   string
	conv     TickConverter
	bids     *bookSide
	asks     *bookSide
	icebergs icebergRegistry
	tape     *TradeTape
	publish  PublishLog

	// Counters are instance state: books for different instruments never
	// share a clock or id space.
	clock   uint64 // arrival sequence, also the default timestamp
	nextID  uint64
	seqID   uint64 // book log sequence
	tradeID uint64
}

// NewBook creates an empty book for the given instrument symbol.
func NewBook(symbol string, opts ...BookOption) *Book {
	b := &Book{
		symbol:   symbol,
		conv:     NewTickConverter(DefaultPriceDigits),
		bids:     newBidSide(),
		asks:     newAskSide(),
		icebergs: make(icebergRegistry),
		tape:     NewTradeTape(),
		publish:  NewDiscardPublishLog(),
		nextID:   1,
	}

	for _, opt := range opts {
		opt(b)
	}

	return b
}

// Submit processes one order request and returns the executed trades plus
// the resting descriptor when the order rests. Policy rejections (FOK depth,
// Post-Only crossing) are NOT errors: the result carries an empty trade
// list, no resting descriptor and a Reject reason, and the book is left
// untouched. ErrInvalidRequest is returned before any state mutation.
func (b *Book) Submit(req *OrderRequest) (*SubmitResult, error) {
	if err := b.validate(req); err != nil {
		return nil, err
	}

	b.clock++
	seq := req.Seq
	if seq == 0 {
		seq = b.clock
	}

	id := req.ID
	if id == 0 {
		id = b.nextID
		b.nextID++
	}

	ts := req.Timestamp
	if ts == 0 {
		ts = int64(seq)
	}

	if req.Type == Market {
		return b.processMarket(req, id), nil
	}
	return b.processLimit(req, id, seq, ts), nil
}

// validate enforces the InvalidRequest taxonomy. No state is touched here.
func (b *Book) validate(req *OrderRequest) error {
	if req.Qty <= 0 {
		return fmt.Errorf("%w: quantity must be positive", ErrInvalidRequest)
	}

	if req.Side != Bid && req.Side != Ask {
		return fmt.Errorf("%w: unknown side", ErrInvalidRequest)
	}

	switch req.Type {
	case Market:
	case Limit, "":
		if req.Price.Sign() <= 0 {
			return fmt.Errorf("%w: limit order requires a positive price", ErrInvalidRequest)
		}
	default:
		return fmt.Errorf("%w: unknown order type %q", ErrInvalidRequest, req.Type)
	}

	switch req.TimeInForce {
	case "", GTC, IOC, FOK:
	default:
		return fmt.Errorf("%w: unknown time in force %q", ErrInvalidRequest, req.TimeInForce)
	}

	switch req.PostOnlyMode {
	case "", PostOnlyReject, PostOnlyReprice:
	default:
		return fmt.Errorf("%w: unknown post-only mode %q", ErrInvalidRequest, req.PostOnlyMode)
	}

	if req.IcebergTotal != 0 || req.IcebergDisplay != 0 {
		if req.IcebergTotal <= 0 || req.IcebergDisplay <= 0 || req.IcebergDisplay > req.IcebergTotal {
			return fmt.Errorf("%w: iceberg display must be in (0, total]", ErrInvalidRequest)
		}
	}

	return nil
}

// processMarket matches against the best opposite levels until filled or
// the opposite side is exhausted. Market orders never rest; the unfilled
// residual is discarded.
func (b *Book) processMarket(req *OrderRequest, id uint64) *SubmitResult {
	opp := b.asks
	if req.Side == Ask {
		opp = b.bids
	}

	logs := make([]*BookLog, 0, 8)
	remaining, trades := b.cross(req.Side, id, req.Owner, req.Qty, opp, 0, false, &logs)

	if remaining > 0 {
		b.seqID++
		logs = append(logs, newRejectLog(b.seqID, b.symbol, req.Side, id, req.Owner, remaining, RejectReasonNoLiquidity))
	}
	b.flushLogs(logs)

	res := &SubmitResult{Trades: trades}
	if len(trades) == 0 {
		res.Reject = RejectReasonNoLiquidity
	}
	return res
}

// processLimit applies the FOK and Post-Only policies, crosses against the
// opposite side, then rests or discards the residual.
func (b *Book) processLimit(req *OrderRequest, id uint64, seq uint64, ts int64) *SubmitResult {
	var own, opp *bookSide
	if req.Side == Bid {
		own, opp = b.bids, b.asks
	} else {
		own, opp = b.asks, b.bids
	}

	tick := b.conv.ToTick(req.Price)
	tif := req.TimeInForce
	if tif == "" {
		tif = GTC
	}

	logs := make([]*BookLog, 0, 8)

	// FOK is all-or-nothing and atomic: the depth check happens before any
	// matching, so a rejection leaves the book byte-for-byte unchanged.
	if tif == FOK && opp.depthWithin(tick, req.Qty) < req.Qty {
		return b.rejected(req.Side, id, req.Owner, req.Qty, RejectReasonInsufficientSize, logs)
	}

	if req.PostOnly && b.marketable(req.Side, tick) {
		mode := req.PostOnlyMode
		if mode == "" {
			mode = PostOnlyReject
		}
		if mode == PostOnlyReject {
			return b.rejected(req.Side, id, req.Owner, req.Qty, RejectReasonWouldCross, logs)
		}

		// Reprice to the best price on the own side. When the own side is
		// empty the original crossing price is kept and the re-check below
		// rejects; this exact fallback is deliberate.
		if best, ok := own.bestTick(); ok {
			tick = best
		}
		if b.marketable(req.Side, tick) {
			return b.rejected(req.Side, id, req.Owner, req.Qty, RejectReasonWouldCross, logs)
		}
	}

	remaining, trades := b.cross(req.Side, id, req.Owner, req.Qty, opp, tick, true, &logs)

	if tif == IOC {
		// IOC residual never rests.
		if remaining > 0 {
			b.seqID++
			logs = append(logs, newRejectLog(b.seqID, b.symbol, req.Side, id, req.Owner, remaining, RejectReasonNoLiquidity))
		}
		b.flushLogs(logs)
		res := &SubmitResult{Trades: trades}
		if len(trades) == 0 {
			res.Reject = RejectReasonNoLiquidity
		}
		return res
	}

	if remaining == 0 {
		b.flushLogs(logs)
		return &SubmitResult{Trades: trades}
	}

	// Rest the residual. An iceberg only shows its first clip; the rest of
	// the declared total goes into the registry keyed by the visible id.
	qty := remaining
	var hidden int64
	if req.IcebergTotal > 0 {
		clip := min(req.IcebergDisplay, req.IcebergTotal, remaining)
		hidden = req.IcebergTotal - clip
		qty = clip
	}

	o := &Order{
		ID:        id,
		Owner:     req.Owner,
		Tick:      tick,
		Qty:       qty,
		Seq:       seq,
		Timestamp: ts,
	}
	own.insert(o)

	if hidden > 0 {
		b.icebergs.register(id, tick, req.IcebergDisplay, hidden, req.Owner)
	}

	price := b.conv.ToPrice(tick)
	b.seqID++
	logs = append(logs, newOpenLog(b.seqID, b.symbol, req.Side, o, price))
	b.flushLogs(logs)

	return &SubmitResult{
		Trades: trades,
		Resting: &RestingOrder{
			ID:    id,
			Owner: req.Owner,
			Tick:  tick,
			Price: price,
			Qty:   qty,
			Seq:   seq,
		},
	}
}

// cross is the crossing loop: repeatedly consume from the best opposite
// level while the crossing condition holds, appending to the trade tape and
// driving iceberg replenishment when a maker is fully consumed.
func (b *Book) cross(takerSide Side, takerID uint64, takerOwner string, qty int64, opp *bookSide, limit int64, hasLimit bool, logs *[]*BookLog) (int64, []Trade) {
	remaining := qty
	trades := make([]Trade, 0, 4)

	for remaining > 0 {
		tick, ok := opp.bestTick()
		if !ok {
			break
		}

		if hasLimit &&
			(takerSide == Bid && tick > limit || takerSide == Ask && tick < limit) {
			break
		}

		take, maker, removed := opp.consumeBest(remaining)
		if take == 0 {
			break
		}
		remaining -= take

		price := b.conv.ToPrice(tick)
		b.tradeID++
		trade := Trade{
			TradeID:    b.tradeID,
			Qty:        take,
			Tick:       tick,
			Price:      price,
			TakerOwner: takerOwner,
			MakerOwner: maker.Owner,
		}
		b.tape.Append(trade)
		trades = append(trades, trade)

		b.seqID++
		*logs = append(*logs, newMatchLog(b.seqID, b.tradeID, b.symbol, takerSide, takerID, takerOwner, maker, tick, take, price))

		if removed != nil {
			b.replenish(opp, removed, logs)
		}
	}

	return remaining, trades
}

// replenish runs the iceberg protocol after a resting order is fully
// consumed: pop the registry entry, mint a brand-new id and sequence for the
// next clip, and append it at the tail of the same level. The reserve loses
// its time priority on every replenishment.
func (b *Book) replenish(side *bookSide, removed *Order, logs *[]*BookLog) {
	res, ok := b.icebergs.take(removed.ID)
	if !ok || res.remaining <= 0 {
		return
	}

	clip := min(res.display, res.remaining)

	id := b.nextID
	b.nextID++
	b.clock++
	seq := b.clock

	o := &Order{
		ID:        id,
		Owner:     res.owner,
		Tick:      res.tick,
		Qty:       clip,
		Seq:       seq,
		Timestamp: int64(seq),
	}
	side.insert(o)

	res.remaining -= clip
	if res.remaining > 0 {
		b.icebergs[id] = res
	}

	b.seqID++
	*logs = append(*logs, newReplenishLog(b.seqID, b.symbol, side.side, o, removed.ID, b.conv.ToPrice(o.Tick)))
}

// marketable reports whether a limit order at tick would cross immediately.
func (b *Book) marketable(side Side, tick int64) bool {
	if side == Bid {
		best, ok := b.asks.bestTick()
		return ok && tick >= best
	}

	best, ok := b.bids.bestTick()
	return ok && tick <= best
}

// rejected publishes a reject log and returns the policy-rejection result.
// The book is untouched by construction: nothing was mutated before this.
func (b *Book) rejected(side Side, id uint64, owner string, qty int64, reason RejectReason, logs []*BookLog) *SubmitResult {
	b.seqID++
	logs = append(logs, newRejectLog(b.seqID, b.symbol, side, id, owner, qty, reason))
	b.flushLogs(logs)
	return &SubmitResult{Trades: []Trade{}, Reject: reason}
}

func (b *Book) flushLogs(logs []*BookLog) {
	if len(logs) == 0 {
		return
	}
	b.publish.Publish(logs...)
	for _, log := range logs {
		releaseBookLog(log)
	}
}

// Cancel removes a resting order by id as one atomic step, clearing any
// iceberg registry entry keyed by the cancelled id. Returns ErrNotFound if
// the id is not currently resting.
func (b *Book) Cancel(id uint64) (*RestingOrder, error) {
	side := b.asks
	o, err := b.asks.removeByID(id)
	if err != nil {
		side = b.bids
		o, err = b.bids.removeByID(id)
		if err != nil {
			return nil, err
		}
	}

	delete(b.icebergs, id)

	price := b.conv.ToPrice(o.Tick)
	b.seqID++
	b.flushLogs([]*BookLog{newCancelLog(b.seqID, b.symbol, side.side, o, price)})

	return &RestingOrder{
		ID:    o.ID,
		Owner: o.Owner,
		Tick:  o.Tick,
		Price: price,
		Qty:   o.Qty,
		Seq:   o.Seq,
	}, nil
}

// BestBidTick returns the highest resting bid tick.
func (b *Book) BestBidTick() (int64, bool) {
	return b.bids.bestTick()
}

// BestAskTick returns the lowest resting ask tick.
func (b *Book) BestAskTick() (int64, bool) {
	return b.asks.bestTick()
}

// BestBid returns the highest resting bid as a decimal price.
func (b *Book) BestBid() (decimal.Decimal, bool) {
	tick, ok := b.bids.bestTick()
	if !ok {
		return decimal.Zero, false
	}
	return b.conv.ToPrice(tick), true
}

// BestAsk returns the lowest resting ask as a decimal price.
func (b *Book) BestAsk() (decimal.Decimal, bool) {
	tick, ok := b.asks.bestTick()
	if !ok {
		return decimal.Zero, false
	}
	return b.conv.ToPrice(tick), true
}

// VolumeAtTick returns the aggregate resting volume at (side, tick).
func (b *Book) VolumeAtTick(side Side, tick int64) int64 {
	if side == Bid {
		return b.bids.volumeAt(tick)
	}
	return b.asks.volumeAt(tick)
}

// VolumeAt returns the aggregate resting volume at (side, price).
func (b *Book) VolumeAt(side Side, price decimal.Decimal) int64 {
	return b.VolumeAtTick(side, b.conv.ToTick(price))
}

// Depth returns the aggregated book depth up to limit levels per side.
func (b *Book) Depth(limit uint32) *Depth {
	return &Depth{
		UpdateID: b.seqID,
		Asks:     b.asks.depth(limit, b.conv),
		Bids:     b.bids.depth(limit, b.conv),
	}
}

// Stats returns usage statistics for both sides.
func (b *Book) Stats() *BookStats {
	return &BookStats{
		AskDepthCount: b.asks.depthCount(),
		AskOrderCount: b.asks.orderCount(),
		BidDepthCount: b.bids.depthCount(),
		BidOrderCount: b.bids.orderCount(),
	}
}

// Tape returns the trade tape.
func (b *Book) Tape() *TradeTape {
	return b.tape
}

// Converter returns the book's tick converter.
func (b *Book) Converter() TickConverter {
	return b.conv
}

// Symbol returns the instrument symbol.
func (b *Book) Symbol() string {
	return b.symbol
}
