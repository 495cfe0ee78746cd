package lobby

import (
	"errors"
	"sync"

	"github.com/igrmk/treemap/v2"
)

// ErrSequenceGap is returned when an event log arrives out of order.
var ErrSequenceGap = errors.New("depth view: sequence gap detected")

// DepthChange represents a change in the book depth.
type DepthChange struct {
	Side       Side
	Tick       int64
	VolumeDiff int64
}

// CalculateDepthChange calculates the depth change caused by a book log.
// It returns which side and tick should be updated and by how much.
// Note: for LogTypeMatch, the side returned is the MAKER's side (opposite of
// the log's taker side).
func CalculateDepthChange(log *BookLog) DepthChange {
	switch log.Type {
	case LogTypeOpen, LogTypeReplenish:
		return DepthChange{
			Side:       log.Side,
			Tick:       log.Tick,
			VolumeDiff: log.Qty,
		}
	case LogTypeCancel:
		return DepthChange{
			Side:       log.Side,
			Tick:       log.Tick,
			VolumeDiff: -log.Qty,
		}
	case LogTypeMatch:
		// A match reduces liquidity on the maker side; log.Side is the
		// taker's side.
		makerSide := Bid
		if log.Side == Bid {
			makerSide = Ask
		}
		return DepthChange{
			Side:       makerSide,
			Tick:       log.Tick,
			VolumeDiff: -log.Qty,
		}
	case LogTypeReject:
		// Rejected orders never entered the book, so no depth change.
		return DepthChange{}
	}

	return DepthChange{}
}

// DepthView maintains a simplified view of the book, tracking only price
// levels and their aggregated volumes. It is designed for downstream
// consumers that rebuild book state from BookLog events, e.g. behind a
// RingPublishLog.
type DepthView struct {
	mu    sync.RWMutex
	seqID uint64
	ask   *treemap.TreeMap[int64, int64]
	bid   *treemap.TreeMap[int64, int64]
}

// NewDepthView creates an empty DepthView.
func NewDepthView() *DepthView {
	return &DepthView{
		ask: treemap.NewWithKeyCompare[int64, int64](func(a, b int64) bool {
			return a < b
		}),
		bid: treemap.NewWithKeyCompare[int64, int64](func(a, b int64) bool {
			return a < b
		}),
	}
}

// SequenceID returns the last applied sequence ID, used for synchronization
// and gap detection during rebuild.
func (v *DepthView) SequenceID() uint64 {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.seqID
}

// Apply updates the view with one book log. Duplicate events (sequence at or
// below the last applied one) are ignored; a gap returns ErrSequenceGap
// without applying the event.
func (v *DepthView) Apply(log *BookLog) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if log.SequenceID <= v.seqID {
		// Duplicate delivery, already applied.
		return nil
	}
	if v.seqID != 0 && log.SequenceID != v.seqID+1 {
		return ErrSequenceGap
	}
	v.seqID = log.SequenceID

	change := CalculateDepthChange(log)
	if change.VolumeDiff == 0 {
		return nil
	}

	tree := v.ask
	if change.Side == Bid {
		tree = v.bid
	}

	vol, _ := tree.Get(change.Tick)
	vol += change.VolumeDiff
	if vol > 0 {
		tree.Set(change.Tick, vol)
	} else {
		tree.Del(change.Tick)
	}

	return nil
}

// OnEvent implements EventHandler so a DepthView can sit directly behind a
// RingPublishLog. Gaps are logged and skipped rather than propagated.
func (v *DepthView) OnEvent(log *BookLog) {
	if err := v.Apply(log); err != nil {
		logger.Error("depth view apply failed",
			"symbol", log.Symbol, "seq_id", log.SequenceID, "error", err)
	}
}

// VolumeAt returns the aggregated volume at a tick, 0 when the level does
// not exist in the view.
func (v *DepthView) VolumeAt(side Side, tick int64) int64 {
	v.mu.RLock()
	defer v.mu.RUnlock()

	tree := v.ask
	if side == Bid {
		tree = v.bid
	}

	vol, _ := tree.Get(tick)
	return vol
}

// BestBidTick returns the highest bid tick in the view.
func (v *DepthView) BestBidTick() (int64, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()

	it := v.bid.Reverse()
	if !it.Valid() {
		return 0, false
	}
	return it.Key(), true
}

// BestAskTick returns the lowest ask tick in the view.
func (v *DepthView) BestAskTick() (int64, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()

	it := v.ask.Iterator()
	if !it.Valid() {
		return 0, false
	}
	return it.Key(), true
}

// Levels returns the number of tracked price levels per side.
func (v *DepthView) Levels() (bids int, asks int) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.bid.Len(), v.ask.Len()
}
