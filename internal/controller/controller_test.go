package controller

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/howlrs/board4go/internal/board"
	"github.com/howlrs/board4go/internal/exchange"
	"github.com/howlrs/board4go/internal/order"
)

func validController() Controller {
	return Controller{
		Exchange: exchange.Config{Name: exchange.Bybit, Key: "k", Secret: "s"},
		Board:    board.FilterConfig{Side: board.Ask, High: 100, Low: 0, SizeMin: 1},
		Order:    order.NewConfig("BTCUSDT", decimal.NewFromFloat(1.0), order.Buy),
	}
}

func TestControllerOkAcceptsValidConfig(t *testing.T) {
	assert.NoError(t, validController().Ok())
}

func TestControllerOkChecksAlreadyRunningFirst(t *testing.T) {
	c := Controller{} // every sub-config is also invalid
	c.IsRunning = true
	assert.ErrorIs(t, c.Ok(), ErrAlreadyRunning)
}

func TestControllerOkChecksExchangeBeforeBoardAndOrder(t *testing.T) {
	c := validController()
	c.Exchange = exchange.Config{}
	c.Board = board.FilterConfig{}
	c.Order = order.Config{}
	assert.ErrorIs(t, c.Ok(), ErrExchangeSettingBad)
}

func TestControllerOkChecksBoardBeforeOrder(t *testing.T) {
	c := validController()
	c.Board = board.FilterConfig{}
	c.Order = order.Config{}
	assert.ErrorIs(t, c.Ok(), ErrBoardSettingBad)
}

func TestControllerOkChecksOrder(t *testing.T) {
	c := validController()
	c.Order = order.Config{}
	assert.ErrorIs(t, c.Ok(), ErrOrderSettingBad)
}

func TestLoggerAddAndDrainEmptiesBuffer(t *testing.T) {
	l := NewLogger()
	l.Add(LevelInfo, "first")
	l.Add(LevelError, "second")

	entries := l.Drain()
	assert.Len(t, entries, 2)
	assert.Equal(t, "first", entries[0].Message)
	assert.Equal(t, LevelError, entries[1].Level)

	assert.Empty(t, l.Drain(), "drain empties the buffer")
}

func TestLoggerClearDiscardsWithoutReturning(t *testing.T) {
	l := NewLogger()
	l.Add(LevelSuccess, "done")
	l.Clear()
	assert.Empty(t, l.Drain())
}
