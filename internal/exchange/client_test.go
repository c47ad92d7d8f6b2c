package exchange

import (
	"context"
	"log/slog"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newDryRunBybitClient() *BybitClient {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	return NewBybitClientWithOptions(Config{Key: "key1", Secret: "secret1"}, "BTCUSDT", true, logger)
}

func TestDryRunPlaceOrderReturnsSyntheticID(t *testing.T) {
	t.Parallel()
	c := newDryRunBybitClient()

	id, err := c.PlaceOrder(context.Background(), OrderParams{Side: SideBuy, Price: 100, Qty: 1, IsPostOnly: true})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(id, "dry-run-"))
}

func TestDryRunCancelOrderIsNoOp(t *testing.T) {
	t.Parallel()
	c := newDryRunBybitClient()

	err := c.CancelOrder(context.Background(), "some-order-link-id")
	assert.NoError(t, err)
}

func TestParseFloatOrZero(t *testing.T) {
	t.Parallel()
	assert.Equal(t, 1.5, parseFloatOrZero("1.5"))
	assert.Equal(t, 0.0, parseFloatOrZero("not-a-number"))
	assert.Equal(t, 0.0, parseFloatOrZero(""))
}
