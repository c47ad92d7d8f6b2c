package config

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/howlrs/board4go/internal/board"
	"github.com/howlrs/board4go/internal/order"
)

func TestFileToControllerDefaults(t *testing.T) {
	f := File{}
	f.Order.Symbol = "BTCUSDT"
	f.Order.Size = "2.5"
	f.Order.Side = "sell"
	f.Board.Side = "bid"
	f.Board.High = 100
	f.Board.SizeMin = 1

	c, err := f.toController()
	require.NoError(t, err)

	assert.Equal(t, order.Sell, c.Order.Side)
	assert.True(t, c.Order.Size.Equal(decimal.RequireFromString("2.5")))
	assert.Equal(t, board.Bid, c.Board.Side)
	assert.Equal(t, int64(5), c.Order.IntervalSec, "falls back to NewConfig's default interval")
}

func TestFileToControllerRejectsBadSize(t *testing.T) {
	f := File{}
	f.Order.Size = "not-a-number"

	_, err := f.toController()
	assert.Error(t, err)
}

func TestParseOrderSideDefaultsToBuy(t *testing.T) {
	assert.Equal(t, order.Buy, parseOrderSide(""))
	assert.Equal(t, order.Buy, parseOrderSide("buy"))
	assert.Equal(t, order.Sell, parseOrderSide("SELL"))
}

func TestParseBoardSideDefaultsToAsk(t *testing.T) {
	assert.Equal(t, board.Ask, parseBoardSide(""))
	assert.Equal(t, board.Bid, parseBoardSide("BID"))
}
