// store.go holds the small shared-state cells the ticker and position
// ingest stages write into; the order-manager reads the position cell.
// Each is a thin sync.RWMutex wrapper, matching the teacher's own
// read-heavy-state pattern (internal/market/book.go's RWMutex use) rather
// than routing single in-process values through a channel.
package pipeline

import (
	"sync"

	"github.com/howlrs/board4go/internal/exchange"
	"github.com/howlrs/board4go/internal/position"
)

// TickerCell is the ticker stage's shared cell: last observed Ticker.
type TickerCell struct {
	mu     sync.RWMutex
	latest exchange.Ticker
	set    bool
}

func (c *TickerCell) store(t exchange.Ticker) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.latest = t
	c.set = true
}

// Snapshot returns the last observed ticker and whether one has arrived yet.
func (c *TickerCell) Snapshot() (exchange.Ticker, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.latest, c.set
}

// PositionCell is the position stage's shared cell: the latest full
// position list. It implements position.Store.
type PositionCell struct {
	mu   sync.RWMutex
	rows []position.Row
}

func (c *PositionCell) store(rows []position.Row) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rows = rows
}

// Snapshot implements position.Store.
func (c *PositionCell) Snapshot() []position.Row {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]position.Row, len(c.rows))
	copy(out, c.rows)
	return out
}

// Broadcaster is a minimal fan-out of position rows to the subscriber
// currently waiting in GetPositions. It implements position.Broadcast.
// Only one subscriber is expected at a time (one order-manager stage),
// but Subscribe always hands back a fresh channel so a late subscriber
// never reads a response sent before it subscribed, matching the
// resubscribe-before-await ordering in position.GetPositions.
type Broadcaster struct {
	mu   sync.Mutex
	subs []chan []position.Row
}

// Subscribe implements position.Broadcast.
func (b *Broadcaster) Subscribe() <-chan []position.Row {
	ch := make(chan []position.Row, 1)
	b.mu.Lock()
	b.subs = append(b.subs, ch)
	b.mu.Unlock()
	return ch
}

// publish fans a REST-fetched position list out to every current
// subscriber and clears the subscriber list, mirroring a broadcast
// channel's one-shot-per-receiver semantics closely enough for this
// single-consumer use.
func (b *Broadcaster) publish(rows []position.Row) {
	b.mu.Lock()
	subs := b.subs
	b.subs = nil
	b.mu.Unlock()

	for _, ch := range subs {
		select {
		case ch <- rows:
		default:
		}
		close(ch)
	}
}

func exchangePositionsToRows(ps []exchange.Position) []position.Row {
	out := make([]position.Row, 0, len(ps))
	for _, p := range ps {
		out = append(out, position.Row{
			Symbol:  p.Symbol,
			OrderID: p.OrderID,
			Side:    p.Side,
			Qty:     p.Qty,
			Price:   p.Price,
			Pnl:     p.Pnl,
		})
	}
	return out
}
