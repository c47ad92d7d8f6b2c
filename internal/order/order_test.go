package order

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigIsOk(t *testing.T) {
	c := NewConfig("BTCUSDT", decimal.NewFromInt(1), Buy)
	assert.True(t, c.IsOk())

	empty := NewConfig("", decimal.NewFromInt(1), Buy)
	assert.False(t, empty.IsOk())

	zeroSize := NewConfig("BTCUSDT", decimal.Zero, Buy)
	assert.False(t, zeroSize.IsOk())
}

func TestAddTickSize(t *testing.T) {
	buy := NewConfig("BTCUSDT", decimal.NewFromInt(1), Buy)
	buy.TickSize = decimal.NewFromFloat(0.5)
	assert.True(t, decimal.NewFromFloat(100.5).Equal(buy.AddTickSize(decimal.NewFromInt(100))))

	sell := NewConfig("BTCUSDT", decimal.NewFromInt(1), Sell)
	sell.TickSize = decimal.NewFromFloat(0.5)
	assert.True(t, decimal.NewFromFloat(99.5).Equal(sell.AddTickSize(decimal.NewFromInt(100))))
}

func TestIsAllowedTransitionsAndResets(t *testing.T) {
	cfg := NewConfig("BTCUSDT", decimal.NewFromInt(1), Buy)
	cfg.IntervalSec = 0
	state := cfg.ToState()

	// First call: no prior action, always allowed.
	require.True(t, state.IsAllowed())

	state.RecordPlaced("order-1", decimal.NewFromInt(100))
	// interval_sec == 0 so the boundary (elapsed >= 0) is satisfied
	// immediately; a nonzero interval is exercised below.
	assert.True(t, state.IsAllowed())
}

func TestIsAllowedRespectsInterval(t *testing.T) {
	cfg := NewConfig("BTCUSDT", decimal.NewFromInt(1), Buy)
	cfg.IntervalSec = 5
	state := cfg.ToState()
	state.RecordPlaced("order-1", decimal.NewFromInt(100))
	assert.False(t, state.IsAllowed())

	// Simulate elapsed time by directly backdating lastActionAt.
	past := time.Now().Add(-6 * time.Second)
	state.mu.Lock()
	state.lastActionAt = &past
	state.mu.Unlock()
	assert.True(t, state.IsAllowed())
}

func TestRecordErrorResetsClockNotID(t *testing.T) {
	cfg := NewConfig("BTCUSDT", decimal.NewFromInt(1), Buy)
	cfg.IntervalSec = 5
	state := cfg.ToState()
	state.RecordPlaced("order-1", decimal.NewFromInt(100))

	snap := state.Snapshot()
	require.NotNil(t, snap.OrderID)
	assert.Equal(t, "order-1", *snap.OrderID)

	state.RecordError()
	snap2 := state.Snapshot()
	require.NotNil(t, snap2.OrderID)
	assert.Equal(t, "order-1", *snap2.OrderID)
	assert.False(t, state.IsAllowed())
}
