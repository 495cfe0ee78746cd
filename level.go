package lobby

// priceLevel is a FIFO sequence of resting orders at one tick, kept as an
// intrusive doubly-linked list so removal by node is O(1). volume is the sum
// of the contained orders' remaining quantity and is maintained
// incrementally on every insert/consume/remove.
type priceLevel struct {
	tick   int64
	head   *Order
	tail   *Order
	volume int64
	count  int64
}

func (l *priceLevel) isEmpty() bool {
	return l.head == nil
}

func (l *priceLevel) headOwner() string {
	if l.head == nil {
		return ""
	}
	return l.head.Owner
}

// append adds an order to the FIFO tail.
func (l *priceLevel) append(o *Order) {
	o.prev = l.tail
	o.next = nil
	if l.tail != nil {
		l.tail.next = o
	}
	l.tail = o
	if l.head == nil {
		l.head = o
	}
	l.volume += o.Qty
	l.count++
}

// consumeHead reduces the head order by min(need, head.Qty) and unlinks it
// when it reaches zero. Returns the quantity actually taken and the removed
// order, if any. Empty level or need <= 0 is a silent no-op.
func (l *priceLevel) consumeHead(need int64) (int64, *Order) {
	if l.head == nil || need <= 0 {
		return 0, nil
	}

	head := l.head
	take := need
	if head.Qty < take {
		take = head.Qty
	}
	head.Qty -= take
	l.volume -= take

	if head.Qty > 0 {
		return take, nil
	}

	l.head = head.next
	if l.head != nil {
		l.head.prev = nil
	} else {
		l.tail = nil
	}
	head.next = nil
	head.prev = nil
	l.count--

	return take, head
}

// remove unlinks an order from the level, preserving the relative order of
// the remaining entries. The order must belong to this level.
func (l *priceLevel) remove(o *Order) {
	if o.prev != nil {
		o.prev.next = o.next
	} else {
		l.head = o.next
	}

	if o.next != nil {
		o.next.prev = o.prev
	} else {
		l.tail = o.prev
	}

	o.next = nil
	o.prev = nil

	l.volume -= o.Qty
	l.count--
}
