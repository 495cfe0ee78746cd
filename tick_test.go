package lobby

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestTickConverter_RoundTrip(t *testing.T) {
	conv := NewTickConverter(3)

	price := decimal.RequireFromString("101.25")
	tick := conv.ToTick(price)
	assert.Equal(t, int64(101250), tick)
	assert.True(t, conv.ToPrice(tick).Equal(price))
}

func TestTickConverter_RoundsToNearest(t *testing.T) {
	conv := NewTickConverter(2)

	assert.Equal(t, int64(10013), conv.ToTick(decimal.RequireFromString("100.125")))
	assert.Equal(t, int64(10012), conv.ToTick(decimal.RequireFromString("100.1249")))
	assert.Equal(t, int64(0), conv.ToTick(decimal.Zero))
}

func TestTickConverter_Digits(t *testing.T) {
	conv := NewTickConverter(0)

	assert.Equal(t, int64(101), conv.ToTick(decimal.RequireFromString("101")))
	assert.Equal(t, "101", conv.ToPrice(101).String())
}
