// Package position implements the position row aggregator (C4): a fetch
// helper that prefers an already-populated store over a REST round trip,
// and the qty/price summation over rows matching a given order id.
package position

import "context"

// Row is a single position row as reported by the exchange.
type Row struct {
	Symbol  string
	OrderID string
	Side    string
	Qty     float64
	Price   float64
	Pnl     float64
}

// Aggregated is the zero-initialised accumulator returned by Aggregate.
type Aggregated struct {
	Qty   float64
	Price float64
}

// Store is the read side of the shared positions list the position-ingest
// stage maintains; GetPositions treats a non-empty read as authoritative
// and only falls back to the REST request/response pair when it's empty.
type Store interface {
	Snapshot() []Row
}

// RequestFetch is a one-shot REST-fallback request channel; Broadcast is
// the corresponding fan-out response channel used when the WebSocket feed
// for positions is silent (e.g. the venue has no private WebSocket).
type RequestFetch chan<- struct{}

// Broadcast mirrors Rust's tokio::sync::broadcast::Receiver: each
// Subscribe call returns a fresh receiver so a subscriber that arrives
// after the request was sent doesn't miss the one response already in
// flight — callers must Subscribe immediately before sending on
// RequestFetch, exactly as funcs::task::get_positions resubscribes before
// awaiting.
type Broadcast interface {
	Subscribe() <-chan []Row
}

// GetPositions returns the store's contents if non-empty; otherwise it
// subscribes to the broadcast channel, sends a fetch request, and awaits
// either a response or a REST-receive error (treated as empty) or ctx
// cancellation.
func GetPositions(ctx context.Context, store Store, req RequestFetch, bcast Broadcast) ([]Row, error) {
	if rows := store.Snapshot(); len(rows) > 0 {
		return rows, nil
	}

	ch := bcast.Subscribe()

	select {
	case req <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	select {
	case rows, ok := <-ch:
		if !ok {
			return []Row{}, nil
		}
		return rows, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Aggregate sums qty and price across every row whose OrderID matches
// orderID. The price summation is retained verbatim from the source even
// though it has no obvious financial meaning (a weighted average would);
// this is a deliberate open question (see design notes), not a bug to be
// fixed by this package.
func Aggregate(orderID string, rows []Row) Aggregated {
	var out Aggregated
	for _, r := range rows {
		if r.OrderID != orderID {
			continue
		}
		out.Qty += r.Qty
		out.Price += r.Price
	}
	return out
}
