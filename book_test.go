package lobby

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func limitReq(side Side, qty int64, price string, owner string) *OrderRequest {
	return &OrderRequest{
		Type:  Limit,
		Side:  side,
		Qty:   qty,
		Price: decimal.RequireFromString(price),
		Owner: owner,
	}
}

func marketReq(side Side, qty int64, owner string) *OrderRequest {
	return &OrderRequest{
		Type:  Market,
		Side:  side,
		Qty:   qty,
		Owner: owner,
	}
}

// seedBook rests asks 3x5@101 and 5@103, bids 5@99, 5@98, 5@97.
func seedBook(t *testing.T, b *Book) {
	t.Helper()

	for i := 0; i < 3; i++ {
		res, err := b.Submit(limitReq(Ask, 5, "101", "maker-ask"))
		require.NoError(t, err)
		require.NotNil(t, res.Resting)
	}
	_, err := b.Submit(limitReq(Ask, 5, "103", "maker-ask-far"))
	require.NoError(t, err)

	for _, px := range []string{"99", "98", "97"} {
		_, err := b.Submit(limitReq(Bid, 5, px, "maker-bid"))
		require.NoError(t, err)
	}
}

func price(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestBook_LimitRests(t *testing.T) {
	b := NewBook("BTC-USDT")

	res, err := b.Submit(limitReq(Bid, 5, "99.5", "alice"))
	assert.NoError(t, err)
	assert.Empty(t, res.Trades)
	assert.NotNil(t, res.Resting)
	assert.Equal(t, int64(5), res.Resting.Qty)
	assert.True(t, res.Resting.Price.Equal(price("99.5")))

	best, ok := b.BestBid()
	assert.True(t, ok)
	assert.True(t, best.Equal(price("99.5")))
	assert.Equal(t, int64(5), b.VolumeAt(Bid, price("99.5")))
}

func TestBook_AssignsIncreasingIDsAndSequences(t *testing.T) {
	b := NewBook("BTC-USDT")

	r1, err := b.Submit(limitReq(Bid, 1, "99", "a"))
	require.NoError(t, err)
	r2, err := b.Submit(limitReq(Bid, 1, "98", "b"))
	require.NoError(t, err)

	assert.Greater(t, r2.Resting.ID, r1.Resting.ID)
	assert.Greater(t, r2.Resting.Seq, r1.Resting.Seq)
}

func TestBook_PricePriority(t *testing.T) {
	b := NewBook("BTC-USDT")
	for _, px := range []string{"103", "101", "102"} {
		_, err := b.Submit(limitReq(Ask, 5, px, "maker-"+px))
		require.NoError(t, err)
	}

	res, err := b.Submit(marketReq(Bid, 15, "taker"))
	assert.NoError(t, err)
	require.Len(t, res.Trades, 3)
	assert.True(t, res.Trades[0].Price.Equal(price("101")))
	assert.True(t, res.Trades[1].Price.Equal(price("102")))
	assert.True(t, res.Trades[2].Price.Equal(price("103")))
}

func TestBook_TimePriority(t *testing.T) {
	b := NewBook("BTC-USDT")
	for _, owner := range []string{"first", "second", "third"} {
		_, err := b.Submit(limitReq(Ask, 5, "101", owner))
		require.NoError(t, err)
	}

	res, err := b.Submit(marketReq(Bid, 12, "taker"))
	assert.NoError(t, err)
	require.Len(t, res.Trades, 3)
	assert.Equal(t, "first", res.Trades[0].MakerOwner)
	assert.Equal(t, "second", res.Trades[1].MakerOwner)
	assert.Equal(t, "third", res.Trades[2].MakerOwner)
	assert.Equal(t, int64(2), res.Trades[2].Qty)

	// The partially consumed third order keeps the level.
	assert.Equal(t, int64(3), b.VolumeAt(Ask, price("101")))
}

func TestBook_QuantityConservation(t *testing.T) {
	b := NewBook("BTC-USDT")
	seedBook(t, b)

	res, err := b.Submit(limitReq(Bid, 30, "102", "taker"))
	assert.NoError(t, err)

	var total int64
	for _, tr := range res.Trades {
		total += tr.Qty
	}
	assert.Equal(t, int64(15), total)
	require.NotNil(t, res.Resting)
	assert.Equal(t, int64(15), res.Resting.Qty)
}

// Scenario: resting asks 5@101 x3 and 5@103; IOC bid 17@102 takes the three
// 101 orders in arrival order and discards the residual.
func TestBook_IOCPartialDoesNotRest(t *testing.T) {
	b := NewBook("BTC-USDT")
	seedBook(t, b)

	req := limitReq(Bid, 17, "102", "taker")
	req.TimeInForce = IOC
	res, err := b.Submit(req)
	assert.NoError(t, err)

	var total int64
	for _, tr := range res.Trades {
		total += tr.Qty
	}
	assert.Equal(t, int64(15), total)
	assert.Nil(t, res.Resting)

	bestAsk, ok := b.BestAskTick()
	assert.True(t, ok)
	assert.Equal(t, int64(103000), bestAsk)
	assert.Equal(t, int64(0), b.VolumeAt(Bid, price("102")))
}

func TestBook_IOCNoMatchNoRest(t *testing.T) {
	b := NewBook("BTC-USDT")
	seedBook(t, b)

	req := limitReq(Bid, 5, "100", "taker")
	req.TimeInForce = IOC
	res, err := b.Submit(req)
	assert.NoError(t, err)
	assert.Empty(t, res.Trades)
	assert.Nil(t, res.Resting)
	assert.Equal(t, int64(0), b.VolumeAt(Bid, price("100")))
}

// Scenario: FOK bid 20@101 with only 15 of depth within the limit is
// rejected in full, leaving the book byte-for-byte unchanged.
func TestBook_FOKRejectWhenDepthInsufficient(t *testing.T) {
	b := NewBook("BTC-USDT")
	seedBook(t, b)

	before := b.Depth(100)

	req := limitReq(Bid, 20, "101", "taker")
	req.TimeInForce = FOK
	res, err := b.Submit(req)
	assert.NoError(t, err)
	assert.Empty(t, res.Trades)
	assert.Nil(t, res.Resting)
	assert.Equal(t, RejectReasonInsufficientSize, res.Reject)

	after := b.Depth(100)
	assert.Equal(t, before.Asks, after.Asks)
	assert.Equal(t, before.Bids, after.Bids)
	assert.Equal(t, int64(15), b.VolumeAt(Ask, price("101")))
	assert.Equal(t, 0, b.Tape().Len())
}

func TestBook_FOKFullFill(t *testing.T) {
	b := NewBook("BTC-USDT")
	seedBook(t, b)

	req := limitReq(Bid, 15, "101", "taker")
	req.TimeInForce = FOK
	res, err := b.Submit(req)
	assert.NoError(t, err)
	require.Len(t, res.Trades, 3)
	assert.Nil(t, res.Resting)
	assert.Equal(t, RejectReasonNone, res.Reject)
	assert.Equal(t, int64(0), b.VolumeAt(Ask, price("101")))
}

// FOK counts depth only at-or-better than the limit: liquidity at 103 must
// not make a 101-limited FOK pass.
func TestBook_FOKIgnoresDepthBeyondLimit(t *testing.T) {
	b := NewBook("BTC-USDT")
	seedBook(t, b)

	req := limitReq(Bid, 16, "101", "taker")
	req.TimeInForce = FOK
	res, err := b.Submit(req)
	assert.NoError(t, err)
	assert.Empty(t, res.Trades)
	assert.Equal(t, int64(15), b.VolumeAt(Ask, price("101")))
}

// Scenario: marketable Post-Only bid in reject mode leaves the book
// unchanged.
func TestBook_PostOnlyRejectIfMarketable(t *testing.T) {
	b := NewBook("BTC-USDT")
	seedBook(t, b)

	req := limitReq(Bid, 3, "102", "po")
	req.PostOnly = true
	res, err := b.Submit(req)
	assert.NoError(t, err)
	assert.Empty(t, res.Trades)
	assert.Nil(t, res.Resting)
	assert.Equal(t, RejectReasonWouldCross, res.Reject)

	assert.Equal(t, int64(0), b.VolumeAt(Bid, price("102")))
	bestAsk, _ := b.BestAsk()
	assert.True(t, bestAsk.Equal(price("101")))
	bestBid, _ := b.BestBid()
	assert.True(t, bestBid.Equal(price("99")))
}

func TestBook_PostOnlyNotMarketableRests(t *testing.T) {
	b := NewBook("BTC-USDT")
	seedBook(t, b)

	req := limitReq(Bid, 3, "100", "po")
	req.PostOnly = true
	res, err := b.Submit(req)
	assert.NoError(t, err)
	assert.Empty(t, res.Trades)
	require.NotNil(t, res.Resting)
	assert.True(t, res.Resting.Price.Equal(price("100")))
}

// Scenario: marketable Post-Only bid in reprice mode rests at the
// pre-submission best bid, never at its original crossing price.
func TestBook_PostOnlyRepriceToPassive(t *testing.T) {
	b := NewBook("BTC-USDT")
	seedBook(t, b)

	volBefore := b.VolumeAt(Bid, price("99"))

	req := limitReq(Bid, 3, "102", "po")
	req.PostOnly = true
	req.PostOnlyMode = PostOnlyReprice
	res, err := b.Submit(req)
	assert.NoError(t, err)
	assert.Empty(t, res.Trades)
	require.NotNil(t, res.Resting)
	assert.True(t, res.Resting.Price.Equal(price("99")))

	assert.Equal(t, volBefore+3, b.VolumeAt(Bid, price("99")))
	assert.Equal(t, int64(0), b.VolumeAt(Bid, price("102")))
}

// With an empty own side there is no passive price to fall back to; the
// original crossing price is kept and the re-check rejects.
func TestBook_PostOnlyRepriceEmptyOwnSideRejects(t *testing.T) {
	b := NewBook("BTC-USDT")
	_, err := b.Submit(limitReq(Ask, 5, "101", "maker"))
	require.NoError(t, err)

	req := limitReq(Bid, 3, "102", "po")
	req.PostOnly = true
	req.PostOnlyMode = PostOnlyReprice
	res, err := b.Submit(req)
	assert.NoError(t, err)
	assert.Empty(t, res.Trades)
	assert.Nil(t, res.Resting)
	assert.Equal(t, RejectReasonWouldCross, res.Reject)
	assert.Equal(t, int64(5), b.VolumeAt(Ask, price("101")))
}

func TestBook_MarketNeverRests(t *testing.T) {
	b := NewBook("BTC-USDT")
	seedBook(t, b)

	res, err := b.Submit(marketReq(Bid, 100, "taker"))
	assert.NoError(t, err)
	assert.Nil(t, res.Resting)

	var total int64
	for _, tr := range res.Trades {
		total += tr.Qty
	}
	assert.Equal(t, int64(20), total)

	_, ok := b.BestAskTick()
	assert.False(t, ok)
}

func TestBook_MarketEmptyBook(t *testing.T) {
	b := NewBook("BTC-USDT")

	res, err := b.Submit(marketReq(Ask, 5, "taker"))
	assert.NoError(t, err)
	assert.Empty(t, res.Trades)
	assert.Nil(t, res.Resting)
	assert.Equal(t, RejectReasonNoLiquidity, res.Reject)
}

func TestBook_TradeOwners(t *testing.T) {
	b := NewBook("BTC-USDT")
	_, err := b.Submit(limitReq(Ask, 5, "101", "maker"))
	require.NoError(t, err)

	res, err := b.Submit(limitReq(Bid, 5, "101", "taker"))
	assert.NoError(t, err)
	require.Len(t, res.Trades, 1)
	assert.Equal(t, "taker", res.Trades[0].TakerOwner)
	assert.Equal(t, "maker", res.Trades[0].MakerOwner)
	assert.True(t, res.Trades[0].Price.Equal(price("101")))

	// The tape holds the same trade in append order.
	assert.Equal(t, 1, b.Tape().Len())
	assert.Equal(t, res.Trades[0], b.Tape().At(0))
}

func TestBook_InvalidRequests(t *testing.T) {
	b := NewBook("BTC-USDT")

	_, err := b.Submit(limitReq(Bid, 0, "99", "a"))
	assert.ErrorIs(t, err, ErrInvalidRequest)

	_, err = b.Submit(&OrderRequest{Type: Limit, Side: Bid, Qty: 5, Owner: "a"})
	assert.ErrorIs(t, err, ErrInvalidRequest)

	_, err = b.Submit(&OrderRequest{Type: Limit, Side: 0, Qty: 5, Price: price("99"), Owner: "a"})
	assert.ErrorIs(t, err, ErrInvalidRequest)

	req := limitReq(Bid, 5, "99", "a")
	req.IcebergTotal = 10
	req.IcebergDisplay = 0
	_, err = b.Submit(req)
	assert.ErrorIs(t, err, ErrInvalidRequest)

	req = limitReq(Bid, 5, "99", "a")
	req.IcebergTotal = 10
	req.IcebergDisplay = 11
	_, err = b.Submit(req)
	assert.ErrorIs(t, err, ErrInvalidRequest)

	req = limitReq(Bid, 5, "99", "a")
	req.TimeInForce = "GTD"
	_, err = b.Submit(req)
	assert.ErrorIs(t, err, ErrInvalidRequest)

	// No state was mutated by any of the rejected requests.
	stats := b.Stats()
	assert.Equal(t, int64(0), stats.BidOrderCount)
	assert.Equal(t, int64(0), stats.AskOrderCount)
}

func TestBook_Cancel(t *testing.T) {
	b := NewBook("BTC-USDT")
	res, err := b.Submit(limitReq(Bid, 5, "99", "alice"))
	require.NoError(t, err)

	removed, err := b.Cancel(res.Resting.ID)
	assert.NoError(t, err)
	assert.Equal(t, "alice", removed.Owner)
	assert.Equal(t, int64(5), removed.Qty)
	assert.Equal(t, int64(0), b.VolumeAt(Bid, price("99")))

	_, err = b.Cancel(res.Resting.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = b.Cancel(424242)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestBook_CancelPreservesFIFOOfRemaining(t *testing.T) {
	b := NewBook("BTC-USDT")
	_, err := b.Submit(limitReq(Ask, 5, "101", "first"))
	require.NoError(t, err)
	mid, err := b.Submit(limitReq(Ask, 5, "101", "second"))
	require.NoError(t, err)
	_, err = b.Submit(limitReq(Ask, 5, "101", "third"))
	require.NoError(t, err)

	_, err = b.Cancel(mid.Resting.ID)
	require.NoError(t, err)

	res, err := b.Submit(marketReq(Bid, 10, "taker"))
	assert.NoError(t, err)
	require.Len(t, res.Trades, 2)
	assert.Equal(t, "first", res.Trades[0].MakerOwner)
	assert.Equal(t, "third", res.Trades[1].MakerOwner)
}

func TestBook_Stats(t *testing.T) {
	b := NewBook("BTC-USDT")
	seedBook(t, b)

	stats := b.Stats()
	assert.Equal(t, int64(2), stats.AskDepthCount)
	assert.Equal(t, int64(4), stats.AskOrderCount)
	assert.Equal(t, int64(3), stats.BidDepthCount)
	assert.Equal(t, int64(3), stats.BidOrderCount)
}
