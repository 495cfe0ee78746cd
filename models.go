package lobby

import (
	"github.com/PeiGuoQuan/lobby/protocol"
	"github.com/shopspring/decimal"
)

type Side = protocol.Side

const (
	Bid Side = protocol.SideBid
	Ask Side = protocol.SideAsk
)

type OrderType = protocol.OrderType

const (
	Limit  OrderType = protocol.OrderTypeLimit
	Market OrderType = protocol.OrderTypeMarket
)

type TimeInForce = protocol.TimeInForce

const (
	GTC TimeInForce = protocol.TimeInForceGTC
	IOC TimeInForce = protocol.TimeInForceIOC
	FOK TimeInForce = protocol.TimeInForceFOK
)

type PostOnlyMode = protocol.PostOnlyMode

const (
	PostOnlyReject  PostOnlyMode = protocol.PostOnlyReject
	PostOnlyReprice PostOnlyMode = protocol.PostOnlyReprice
)

type LogType = protocol.LogType

const (
	LogTypeOpen      LogType = protocol.LogTypeOpen
	LogTypeMatch     LogType = protocol.LogTypeMatch
	LogTypeCancel    LogType = protocol.LogTypeCancel
	LogTypeReject    LogType = protocol.LogTypeReject
	LogTypeReplenish LogType = protocol.LogTypeReplenish
)

type RejectReason = protocol.RejectReason

const (
	RejectReasonNone             RejectReason = protocol.RejectReasonNone
	RejectReasonNoLiquidity      RejectReason = protocol.RejectReasonNoLiquidity
	RejectReasonInsufficientSize RejectReason = protocol.RejectReasonInsufficientSize
	RejectReasonWouldCross       RejectReason = protocol.RejectReasonWouldCross
)

// Order is a resting order inside a price level. It is exclusively owned by
// exactly one price level while resting and is destroyed once Qty reaches
// zero.
type Order struct {
	ID        uint64 `json:"id"`
	Owner     string `json:"owner"`
	Tick      int64  `json:"tick"`
	Qty       int64  `json:"qty"` // remaining quantity, strictly positive while resting
	Seq       uint64 `json:"seq"` // arrival sequence, FIFO tie-break within a level
	Timestamp int64  `json:"timestamp"`

	// Intrusive linked list pointers (ignored by JSON)
	next *Order
	prev *Order
}

// OrderRequest is the submission contract consumed by Book.Submit.
// ID and Seq are assigned by the book when zero.
type OrderRequest struct {
	ID             uint64
	Seq            uint64
	Type           OrderType
	Side           Side
	Qty            int64
	Price          decimal.Decimal // required for limit, ignored for market
	Owner          string
	TimeInForce    TimeInForce // default GTC
	PostOnly       bool
	PostOnlyMode   PostOnlyMode // default reject
	IcebergTotal   int64        // both iceberg fields required together
	IcebergDisplay int64
	Timestamp      int64
}

// RestingOrder describes the portion of a submission left in the book.
type RestingOrder struct {
	ID    uint64          `json:"id"`
	Owner string          `json:"owner"`
	Tick  int64           `json:"tick"`
	Price decimal.Decimal `json:"price"`
	Qty   int64           `json:"qty"`
	Seq   uint64          `json:"seq"`
}

// SubmitResult is what every submission yields: the executed trades in
// order, and the resting descriptor when the order rests. A policy
// rejection is observable as empty trades, nil Resting and a Reject reason;
// the book is left untouched.
type SubmitResult struct {
	Trades  []Trade
	Resting *RestingOrder
	Reject  RejectReason
}

// DepthItem is one aggregated price level of a depth snapshot.
type DepthItem struct {
	Tick   int64           `json:"tick"`
	Price  decimal.Decimal `json:"price"`
	Volume int64           `json:"volume"`
	Count  int64           `json:"count"`
}

// Depth is a top-of-book aggregate snapshot.
type Depth struct {
	UpdateID uint64       `json:"update_id"`
	Asks     []*DepthItem `json:"asks"`
	Bids     []*DepthItem `json:"bids"`
}

// BookStats contains usage statistics about the two book sides.
type BookStats struct {
	AskDepthCount int64
	AskOrderCount int64
	BidDepthCount int64
	BidOrderCount int64
}
