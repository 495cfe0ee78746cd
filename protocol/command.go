package protocol

// CommandType identifies the payload type for fast routing (uint8 for compactness).
type CommandType uint8

const (
	CmdUnknown     CommandType = 0
	CmdPlaceOrder  CommandType = 51
	CmdCancelOrder CommandType = 52
)

// Command is the standard carrier for commands entering the order book.
// The payload is kept as bytes so the hot path can route without decoding.
type Command struct {
	// Version is the protocol version for backward compatibility.
	Version uint8 `json:"version"`

	// Symbol is the target instrument for this command (routing header).
	Symbol string `json:"symbol"`

	// SeqID is used for external ordering and deduplication.
	SeqID uint64 `json:"seq_id"`

	// Type identifies the payload type.
	Type CommandType `json:"type"`

	// Payload contains the serialized business data
	// (e.g., JSON bytes of PlaceOrderCommand).
	Payload []byte `json:"payload"`

	// Metadata stores non-business context (e.g., tracing ID, source IP).
	Metadata map[string]string `json:"metadata,omitempty"`
}

// PlaceOrderCommand is the payload for submitting a new order.
// Prices are carried as strings to prevent precision loss in JSON.
type PlaceOrderCommand struct {
	OrderID        uint64       `json:"order_id,omitempty"` // engine-assigned when zero
	Seq            uint64       `json:"seq,omitempty"`      // engine-assigned when zero
	Type           OrderType    `json:"type"`
	Side           Side         `json:"side"`
	Qty            int64        `json:"qty"`
	Price          string       `json:"price,omitempty"` // required for limit, ignored for market
	Owner          string       `json:"owner"`
	TimeInForce    TimeInForce  `json:"time_in_force,omitempty"` // default GTC
	PostOnly       bool         `json:"post_only,omitempty"`
	PostOnlyMode   PostOnlyMode `json:"post_only_mode,omitempty"` // default reject
	IcebergTotal   int64        `json:"iceberg_total,omitempty"`
	IcebergDisplay int64        `json:"iceberg_display,omitempty"`
	Timestamp      int64        `json:"timestamp,omitempty"`
}

// CancelOrderCommand is the payload for cancelling a resting order.
type CancelOrderCommand struct {
	OrderID   uint64 `json:"order_id"`
	Owner     string `json:"owner,omitempty"`
	Timestamp int64  `json:"timestamp,omitempty"`
}
