package lobby

import (
	"github.com/huandu/skiplist"
)

// bookSide holds all resting orders of one side. Price levels live in a
// skiplist sorted best-tick-first (ascending for asks, descending for bids),
// with a tick index for O(1) level lookup and an id index for direct
// cancellation. Every order referenced by the id index resides in exactly
// one level of this side.
type bookSide struct {
	side        Side
	totalOrders int64
	depths      int64
	depthList   *skiplist.SkipList
	levels      map[int64]*skiplist.Element
	orders      map[uint64]*Order
}

// newBidSide creates the bid side. Levels are sorted by tick in descending
// order so the highest bid is at the front.
func newBidSide() *bookSide {
	return &bookSide{
		side: Bid,
		depthList: skiplist.New(skiplist.GreaterThanFunc(func(lhs, rhs any) int {
			t1, _ := lhs.(int64)
			t2, _ := rhs.(int64)

			if t1 < t2 {
				return 1
			} else if t1 > t2 {
				return -1
			}

			return 0
		})),
		levels: make(map[int64]*skiplist.Element),
		orders: make(map[uint64]*Order),
	}
}

// newAskSide creates the ask side. Levels are sorted by tick in ascending
// order so the lowest ask is at the front.
func newAskSide() *bookSide {
	return &bookSide{
		side: Ask,
		depthList: skiplist.New(skiplist.GreaterThanFunc(func(lhs, rhs any) int {
			t1, _ := lhs.(int64)
			t2, _ := rhs.(int64)

			if t1 > t2 {
				return 1
			} else if t1 < t2 {
				return -1
			}

			return 0
		})),
		levels: make(map[int64]*skiplist.Element),
		orders: make(map[uint64]*Order),
	}
}

// order finds a resting order by its ID.
func (s *bookSide) order(id uint64) *Order {
	return s.orders[id]
}

// insert appends an order to the FIFO tail of the level at its tick,
// creating the level if needed.
func (s *bookSide) insert(o *Order) {
	el, ok := s.levels[o.Tick]
	if ok {
		lvl, _ := el.Value.(*priceLevel)
		lvl.append(o)
	} else {
		lvl := &priceLevel{tick: o.Tick}
		lvl.append(o)
		el := s.depthList.Set(o.Tick, lvl)
		s.levels[o.Tick] = el
		s.depths++
	}

	s.orders[o.ID] = o
	s.totalOrders++
}

// removeByID removes a resting order, pruning its level if it becomes
// empty. Returns ErrNotFound if the id is not resting on this side.
func (s *bookSide) removeByID(id uint64) (*Order, error) {
	o, ok := s.orders[id]
	if !ok {
		return nil, ErrNotFound
	}

	el, ok := s.levels[o.Tick]
	if !ok {
		return nil, ErrNotFound
	}
	lvl, _ := el.Value.(*priceLevel)

	lvl.remove(o)
	delete(s.orders, id)
	s.totalOrders--

	if lvl.isEmpty() {
		s.depthList.RemoveElement(el)
		delete(s.levels, o.Tick)
		s.depths--
	}

	return o, nil
}

// bestTick returns the best tick of this side: the minimum for asks, the
// maximum for bids. ok is false when the side is empty.
func (s *bookSide) bestTick() (int64, bool) {
	el := s.depthList.Front()
	if el == nil {
		return 0, false
	}

	lvl, _ := el.Value.(*priceLevel)
	return lvl.tick, true
}

// consumeBest consumes up to need from the head order of the best level.
// It returns the quantity taken, the maker order the quantity came from, and
// the maker if it was fully removed. Index and level pruning is handled
// here so the caller only drives the crossing loop.
func (s *bookSide) consumeBest(need int64) (int64, *Order, *Order) {
	el := s.depthList.Front()
	if el == nil {
		return 0, nil, nil
	}
	lvl, _ := el.Value.(*priceLevel)

	maker := lvl.head
	take, removed := lvl.consumeHead(need)
	if take == 0 {
		return 0, nil, nil
	}

	if removed != nil {
		delete(s.orders, removed.ID)
		s.totalOrders--
		if lvl.isEmpty() {
			s.depthList.RemoveElement(el)
			delete(s.levels, lvl.tick)
			s.depths--
		}
	}

	return take, maker, removed
}

// headOwnerAt returns the owner at the FIFO head of the level at tick, ""
// when no such level exists.
func (s *bookSide) headOwnerAt(tick int64) string {
	el, ok := s.levels[tick]
	if !ok {
		return ""
	}

	lvl, _ := el.Value.(*priceLevel)
	return lvl.headOwner()
}

// volumeAt returns the aggregate resting volume at a tick, 0 if no level
// exists there.
func (s *bookSide) volumeAt(tick int64) int64 {
	el, ok := s.levels[tick]
	if !ok {
		return 0
	}

	lvl, _ := el.Value.(*priceLevel)
	return lvl.volume
}

// depthWithin sums level volumes at-or-better than the limit tick, walking
// from the best level. It stops early once need is covered. Used by the FOK
// precheck.
func (s *bookSide) depthWithin(limit int64, need int64) int64 {
	var total int64

	el := s.depthList.Front()
	for el != nil {
		lvl, _ := el.Value.(*priceLevel)

		if s.side == Ask && lvl.tick > limit ||
			s.side == Bid && lvl.tick < limit {
			break
		}

		total += lvl.volume
		if total >= need {
			break
		}

		el = el.Next()
	}

	return total
}

// orderCount returns the total number of orders on this side.
func (s *bookSide) orderCount() int64 {
	return s.totalOrders
}

// depthCount returns the number of price levels on this side.
func (s *bookSide) depthCount() int64 {
	return s.depths
}

// depth returns the aggregated levels up to the specified limit, best first.
func (s *bookSide) depth(limit uint32, conv TickConverter) []*DepthItem {
	result := make([]*DepthItem, 0, limit)

	el := s.depthList.Front()

	var i uint32
	for i < limit && el != nil {
		lvl, _ := el.Value.(*priceLevel)
		result = append(result, &DepthItem{
			Tick:   lvl.tick,
			Price:  conv.ToPrice(lvl.tick),
			Volume: lvl.volume,
			Count:  lvl.count,
		})

		el = el.Next()
		i++
	}

	return result
}
