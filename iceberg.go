package lobby

// icebergReserve is the hidden remainder behind a currently visible order.
// The registry entry is keyed by the visible order's id and exists iff
// remaining > 0; it is re-keyed to the freshly minted id on every
// replenishment and deleted the instant the reserve is exhausted or the
// visible order is cancelled.
type icebergReserve struct {
	tick      int64
	display   int64
	remaining int64
	owner     string
}

// icebergRegistry maps the id of a resting visible order to its reserve.
type icebergRegistry map[uint64]*icebergReserve

// register records the reserve behind a visible order.
func (r icebergRegistry) register(visibleID uint64, tick, display, remaining int64, owner string) {
	r[visibleID] = &icebergReserve{
		tick:      tick,
		display:   display,
		remaining: remaining,
		owner:     owner,
	}
}

// take pops the reserve keyed by id, if present.
func (r icebergRegistry) take(id uint64) (*icebergReserve, bool) {
	res, ok := r[id]
	if ok {
		delete(r, id)
	}
	return res, ok
}
