package protocol

// Side represents the order side (bid/ask).
type Side int8

const (
	SideBid Side = 1
	SideAsk Side = 2
)

// OrderType represents the kind of order.
type OrderType string

const (
	OrderTypeLimit  OrderType = "limit"
	OrderTypeMarket OrderType = "market"
)

// TimeInForce controls how long a limit order may stay active.
type TimeInForce string

const (
	TimeInForceGTC TimeInForce = "GTC" // Good Till Cancelled, rests indefinitely
	TimeInForceIOC TimeInForce = "IOC" // Immediate Or Cancel, residual is discarded
	TimeInForceFOK TimeInForce = "FOK" // Fill Or Kill, full fill or full rejection
)

// PostOnlyMode selects what happens when a post-only order would cross.
type PostOnlyMode string

const (
	PostOnlyReject  PostOnlyMode = "reject"
	PostOnlyReprice PostOnlyMode = "reprice"
)

// LogType represents the type of book event log.
type LogType string

const (
	LogTypeOpen      LogType = "open"
	LogTypeMatch     LogType = "match"
	LogTypeCancel    LogType = "cancel"
	LogTypeReject    LogType = "reject"
	LogTypeReplenish LogType = "replenish"
)

// RejectReason represents the reason why an order was rejected.
// Rejections are normal outcomes, not faults; they never change book state.
type RejectReason string

const (
	RejectReasonNone             RejectReason = ""
	RejectReasonNoLiquidity      RejectReason = "no_liquidity"      // Market/IOC: opposite side exhausted
	RejectReasonInsufficientSize RejectReason = "insufficient_size" // FOK: cannot be fully filled within the limit
	RejectReasonWouldCross       RejectReason = "would_cross"       // PostOnly: marketable under reject mode, or still marketable after reprice
	RejectReasonInvalidPayload   RejectReason = "invalid_payload"
)
