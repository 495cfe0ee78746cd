package lobby

import (
	"context"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/PeiGuoQuan/lobby/protocol"
	"github.com/shopspring/decimal"
)

// cmdType represents the type of command sent to the order book actor.
type cmdType int

const (
	cmdSubmit cmdType = iota
	cmdCancel
	cmdDepth
	cmdStats
	cmdProto
)

// response is the synchronous reply to a command.
type response struct {
	Error error
	Data  any
}

// command is the unified carrier sent to the actor loop. A single channel
// keeps ordering deterministic across submissions and cancellations.
type command struct {
	seqID   uint64
	typ     cmdType
	payload any
	resp    chan *response
}

// OrderBook is the single-writer shell around one Book: all state mutations
// are applied by one goroutine fed from one command channel, so price-time
// priority and FOK/Post-Only atomicity hold under concurrent submission.
// There is no locking inside the book; serialization happens at the channel.
type OrderBook struct {
	symbol           string
	book             *Book
	isShutdown       atomic.Bool
	lastCmdSeqID     atomic.Uint64 // last external sequence ID processed, for resume positioning
	cmdChan          chan command
	done             chan struct{}
	shutdownComplete chan struct{}
	serializer       protocol.Serializer
}

// NewOrderBook creates a new order book actor for the given instrument.
func NewOrderBook(symbol string, opts ...BookOption) *OrderBook {
	return &OrderBook{
		symbol:           symbol,
		book:             NewBook(symbol, opts...),
		cmdChan:          make(chan command, 32768),
		done:             make(chan struct{}),
		shutdownComplete: make(chan struct{}),
		serializer:       &protocol.DefaultJSONSerializer{},
	}
}

// PlaceOrder submits an order and waits for its result. Safe for concurrent
// use; total order across callers is determined by channel receipt.
func (ob *OrderBook) PlaceOrder(ctx context.Context, req *OrderRequest) (*SubmitResult, error) {
	if ob.isShutdown.Load() {
		return nil, ErrShutdown
	}

	respChan := make(chan *response, 1)

	select {
	case ob.cmdChan <- command{typ: cmdSubmit, payload: req, resp: respChan}:
	case <-ctx.Done():
		return nil, ErrTimeout
	}

	select {
	case res := <-respChan:
		if res.Error != nil {
			return nil, res.Error
		}
		result, _ := res.Data.(*SubmitResult)
		return result, nil
	case <-ctx.Done():
		return nil, ErrTimeout
	}
}

// CancelOrder removes a resting order by id and waits for the outcome.
// Returns ErrNotFound if the id is not currently resting.
func (ob *OrderBook) CancelOrder(ctx context.Context, id uint64) (*RestingOrder, error) {
	if ob.isShutdown.Load() {
		return nil, ErrShutdown
	}

	respChan := make(chan *response, 1)

	select {
	case ob.cmdChan <- command{typ: cmdCancel, payload: id, resp: respChan}:
	case <-ctx.Done():
		return nil, ErrTimeout
	}

	select {
	case res := <-respChan:
		if res.Error != nil {
			return nil, res.Error
		}
		removed, _ := res.Data.(*RestingOrder)
		return removed, nil
	case <-ctx.Done():
		return nil, ErrTimeout
	}
}

// EnqueueCommand ingests a serialized command envelope asynchronously.
// Outcomes are observable through the book's published logs.
func (ob *OrderBook) EnqueueCommand(cmd *protocol.Command) error {
	if ob.isShutdown.Load() {
		return ErrShutdown
	}

	switch cmd.Type {
	case protocol.CmdPlaceOrder, protocol.CmdCancelOrder:
	default:
		return ErrInvalidRequest
	}

	ob.cmdChan <- command{seqID: cmd.SeqID, typ: cmdProto, payload: cmd}
	return nil
}

// Depth returns the current depth of the book up to the specified limit.
func (ob *OrderBook) Depth(limit uint32) (*Depth, error) {
	if limit == 0 {
		return nil, ErrInvalidRequest
	}

	respChan := make(chan *response, 1)

	select {
	case ob.cmdChan <- command{typ: cmdDepth, payload: limit, resp: respChan}:
	case <-time.After(time.Second):
		return nil, ErrTimeout
	}

	select {
	case res := <-respChan:
		depth, _ := res.Data.(*Depth)
		return depth, nil
	case <-time.After(time.Second):
		return nil, ErrTimeout
	}
}

// Stats returns usage statistics for the book.
func (ob *OrderBook) Stats() (*BookStats, error) {
	respChan := make(chan *response, 1)

	select {
	case ob.cmdChan <- command{typ: cmdStats, resp: respChan}:
	case <-time.After(time.Second):
		return nil, ErrTimeout
	}

	select {
	case res := <-respChan:
		stats, _ := res.Data.(*BookStats)
		return stats, nil
	case <-time.After(time.Second):
		return nil, ErrTimeout
	}
}

// LastCmdSeqID returns the external sequence ID of the last processed
// command, used to know where to resume consuming from an upstream queue.
func (ob *OrderBook) LastCmdSeqID() uint64 {
	return ob.lastCmdSeqID.Load()
}

// Start runs the actor loop. Returns nil once Shutdown() is called and all
// pending commands are drained.
func (ob *OrderBook) Start() error {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	for {
		select {
		case <-ob.done:
			return ob.drain()
		case cmd := <-ob.cmdChan:
			ob.handle(cmd)
			if cmd.seqID > 0 {
				ob.lastCmdSeqID.Store(cmd.seqID)
			}
		}
	}
}

// handle applies one command against the book.
func (ob *OrderBook) handle(cmd command) {
	switch cmd.typ {
	case cmdSubmit:
		req, ok := cmd.payload.(*OrderRequest)
		if !ok {
			ob.reply(cmd, &response{Error: ErrInvalidRequest})
			return
		}
		result, err := ob.book.Submit(req)
		ob.reply(cmd, &response{Error: err, Data: result})

	case cmdCancel:
		id, ok := cmd.payload.(uint64)
		if !ok {
			ob.reply(cmd, &response{Error: ErrInvalidRequest})
			return
		}
		removed, err := ob.book.Cancel(id)
		ob.reply(cmd, &response{Error: err, Data: removed})

	case cmdDepth:
		limit, ok := cmd.payload.(uint32)
		if !ok {
			ob.reply(cmd, &response{Error: ErrInvalidRequest})
			return
		}
		ob.reply(cmd, &response{Data: ob.book.Depth(limit)})

	case cmdStats:
		ob.reply(cmd, &response{Data: ob.book.Stats()})

	case cmdProto:
		if proto, ok := cmd.payload.(*protocol.Command); ok {
			ob.applyProto(proto)
		}
	}
}

// reply answers a synchronous command. Non-blocking: if nobody is listening
// the response is dropped.
func (ob *OrderBook) reply(cmd command, res *response) {
	if cmd.resp == nil {
		return
	}
	select {
	case cmd.resp <- res:
	default:
	}
}

// applyProto decodes and applies a serialized command envelope. Payloads
// that cannot be decoded are logged and skipped; they never reach the book.
func (ob *OrderBook) applyProto(cmd *protocol.Command) {
	switch cmd.Type {
	case protocol.CmdPlaceOrder:
		payload := &protocol.PlaceOrderCommand{}
		if err := ob.serializer.Unmarshal(cmd.Payload, payload); err != nil {
			logger.Warn("failed to unmarshal PlaceOrder command",
				"symbol", ob.symbol, "seq_id", cmd.SeqID, "error", err)
			return
		}

		req, err := ob.toOrderRequest(payload)
		if err != nil {
			logger.Warn("invalid PlaceOrder payload",
				"symbol", ob.symbol, "seq_id", cmd.SeqID, "error", err)
			return
		}

		if _, err := ob.book.Submit(req); err != nil {
			logger.Warn("order rejected",
				"symbol", ob.symbol, "order_id", req.ID, "error", err)
		}

	case protocol.CmdCancelOrder:
		payload := &protocol.CancelOrderCommand{}
		if err := ob.serializer.Unmarshal(cmd.Payload, payload); err != nil {
			logger.Warn("failed to unmarshal CancelOrder command",
				"symbol", ob.symbol, "seq_id", cmd.SeqID, "error", err)
			return
		}

		if _, err := ob.book.Cancel(payload.OrderID); err != nil {
			logger.Warn("cancel failed",
				"symbol", ob.symbol, "order_id", payload.OrderID, "error", err)
		}
	}
}

// toOrderRequest converts a wire payload into the book's native request.
func (ob *OrderBook) toOrderRequest(p *protocol.PlaceOrderCommand) (*OrderRequest, error) {
	req := &OrderRequest{
		ID:             p.OrderID,
		Seq:            p.Seq,
		Type:           p.Type,
		Side:           p.Side,
		Qty:            p.Qty,
		Owner:          p.Owner,
		TimeInForce:    p.TimeInForce,
		PostOnly:       p.PostOnly,
		PostOnlyMode:   p.PostOnlyMode,
		IcebergTotal:   p.IcebergTotal,
		IcebergDisplay: p.IcebergDisplay,
		Timestamp:      p.Timestamp,
	}

	if p.Type != Market {
		price, err := decimal.NewFromString(p.Price)
		if err != nil {
			return nil, ErrInvalidRequest
		}
		req.Price = price
	}

	return req, nil
}

// Shutdown signals the actor to stop accepting new commands and waits until
// all pending commands are processed. Returns ctx.Err() if the context is
// cancelled first.
func (ob *OrderBook) Shutdown(ctx context.Context) error {
	if ob.isShutdown.CompareAndSwap(false, true) {
		close(ob.done)
	}

	select {
	case <-ob.shutdownComplete:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// drain processes all remaining commands in the channel before returning.
// Read-only queries are answered so callers don't hang on drained channels.
func (ob *OrderBook) drain() error {
	defer close(ob.shutdownComplete)

	for {
		select {
		case cmd := <-ob.cmdChan:
			ob.handle(cmd)
			if cmd.seqID > 0 {
				ob.lastCmdSeqID.Store(cmd.seqID)
			}
		default:
			return nil
		}
	}
}
