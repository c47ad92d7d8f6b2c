// ws.go implements the three WebSocket stream methods of the C6 Adapter
// contract for Bybit's V5 API: public ticker/orderbook topics and the
// private position topic. The reconnect-with-backoff, ping-keepalive,
// and typed-dispatch-with-drop-on-full-channel shape is carried over
// from the teacher's market/user WSFeed almost unchanged; only the
// topic names, envelope shape, and event types are Bybit's.
package exchange

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gorilla/websocket"

	"github.com/howlrs/board4go/internal/board"
)

const (
	bybitPublicWSURL  = "wss://stream.bybit.com/v5/public/linear"
	bybitPrivateWSURL = "wss://stream.bybit.com/v5/private"

	pingInterval     = 20 * time.Second // Bybit disconnects silent clients after ~60s
	readTimeout      = 60 * time.Second // ~3 missed pings triggers reconnect
	maxReconnectWait = 30 * time.Second // cap on exponential backoff
	writeTimeout     = 10 * time.Second // deadline for outgoing messages
)

// bybitWSEnvelope is the shape shared by every public/private topic push:
// a topic name, a snapshot/delta type tag, and the topic-specific payload.
type bybitWSEnvelope struct {
	Topic string          `json:"topic"`
	Type  string          `json:"type"` // "snapshot" or "delta"
	Data  json.RawMessage `json:"data"`
	TS    int64           `json:"ts"`
}

type bybitTickerData struct {
	Symbol    string `json:"symbol"`
	LastPrice string `json:"lastPrice"`
	Volume24h string `json:"volume24h"`
	Bid1Price string `json:"bid1Price"`
	Ask1Price string `json:"ask1Price"`
}

type bybitOrderbookData struct {
	Symbol string     `json:"s"`
	Asks   [][]string `json:"a"`
	Bids   [][]string `json:"b"`
}

type bybitPositionData struct {
	Symbol      string `json:"symbol"`
	OrderLinkID string `json:"orderLinkId"`
	Side        string `json:"side"`
	Size        string `json:"size"`
	AvgPrice    string `json:"avgPrice"`
	UnrealPnl   string `json:"unrealisedPnl"`
}

// runPublicStream holds the reconnect-with-backoff loop shared by every
// public topic: dial, subscribe, ping-loop, read-dispatch-reconnect.
// handle is invoked with each decoded top-level envelope carrying a
// non-empty topic.
func runPublicStream(ctx context.Context, topic string, handle func(bybitWSEnvelope)) error {
	backoff := time.Second

	for {
		err := connectSubscribeAndRead(ctx, bybitPublicWSURL, []string{topic}, nil, handle)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		_ = err // the dial/read error is dropped; the loop reconnects after the backoff

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}

		backoff *= 2
		if backoff > maxReconnectWait {
			backoff = maxReconnectWait
		}
	}
}

// connectSubscribeAndRead dials once, sends an auth frame when authFrame is
// non-nil, subscribes to args, then reads until the connection drops or ctx
// is cancelled.
func connectSubscribeAndRead(ctx context.Context, url string, args []string, authFrame map[string]any, handle func(bybitWSEnvelope)) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.Close()

	if authFrame != nil {
		conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := conn.WriteJSON(authFrame); err != nil {
			return fmt.Errorf("auth: %w", err)
		}
	}

	sub := map[string]any{"op": "subscribe", "args": args}
	conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	if err := conn.WriteJSON(sub); err != nil {
		return fmt.Errorf("subscribe: %w", err)
	}

	pingCtx, pingCancel := context.WithCancel(ctx)
	defer pingCancel()
	go pingLoop(pingCtx, conn)

	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		conn.SetReadDeadline(time.Now().Add(readTimeout))
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("read: %w", err)
		}

		var env bybitWSEnvelope
		if err := json.Unmarshal(msg, &env); err != nil {
			continue // op acks ("pong", "subscribe" confirmations) aren't envelopes
		}
		if env.Topic == "" {
			continue
		}
		handle(env)
	}
}

func pingLoop(ctx context.Context, conn *websocket.Conn) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := conn.WriteJSON(map[string]string{"op": "ping"}); err != nil {
				return
			}
		}
	}
}

// restFallbackLoop answers each REST-fallback request until ctx is
// cancelled or rxRESTReq is closed — the escape hatch the order-manager
// stage uses when a WS feed has gone quiet for longer than it can wait.
func restFallbackLoop(ctx context.Context, rxRESTReq <-chan struct{}, onRequest func()) {
	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-rxRESTReq:
			if !ok {
				return
			}
			onRequest()
		}
	}
}

// StreamTicker subscribes to Bybit's tickers.{symbol} public topic and
// forwards parsed updates to txWS. REST-fallback requests on rxRESTReq are
// answered via a one-shot TickerInfo call.
func (c *BybitClient) StreamTicker(ctx context.Context, symbol string, txWS chan<- Ticker, rxRESTReq <-chan struct{}, publish func(Ticker)) error {
	go restFallbackLoop(ctx, rxRESTReq, func() {
		t, err := c.TickerInfo(ctx, symbol)
		if err == nil {
			publish(t)
		}
	})

	topic := fmt.Sprintf("tickers.%s", symbol)
	return runPublicStream(ctx, topic, func(env bybitWSEnvelope) {
		if env.Topic != topic {
			return
		}
		var d bybitTickerData
		if err := json.Unmarshal(env.Data, &d); err != nil {
			return
		}
		t := Ticker{
			Symbol:    d.Symbol,
			LTP:       parseFloatOrZero(d.LastPrice),
			Volume24h: parseFloatOrZero(d.Volume24h),
			BestAsk:   parseFloatOrZero(d.Ask1Price),
			BestBid:   parseFloatOrZero(d.Bid1Price),
		}
		select {
		case txWS <- t:
		default:
		}
	})
}

// StreamOrderboard subscribes to orderbook.{depth}.{symbol} and forwards
// snapshot/delta events as a BookEvent. Bybit's order book feed has no
// REST equivalent wired into this adapter, so the REST-fallback loop is a
// no-op placeholder kept to satisfy the contract uniformly across venues.
func (c *BybitClient) StreamOrderboard(ctx context.Context, symbol string, depth int, txWS chan<- BookEvent, rxRESTReq <-chan struct{}, publish func(BookEvent)) error {
	go restFallbackLoop(ctx, rxRESTReq, func() {})

	topic := fmt.Sprintf("orderbook.%d.%s", depth, symbol)
	return runPublicStream(ctx, topic, func(env bybitWSEnvelope) {
		if env.Topic != topic {
			return
		}
		var d bybitOrderbookData
		if err := json.Unmarshal(env.Data, &d); err != nil {
			return
		}
		evt := BookEvent{
			Symbol: d.Symbol,
			Kind:   kindFromType(env.Type),
			Ask:    toLevels(d.Asks),
			Bid:    toLevels(d.Bids),
		}
		select {
		case txWS <- evt:
		default:
		}
	})
}

func kindFromType(t string) BookEventKind {
	if t == "snapshot" {
		return Snapshot
	}
	return Delta
}

func toLevels(rows [][]string) []board.Level {
	out := make([]board.Level, 0, len(rows))
	for _, row := range rows {
		if len(row) != 2 {
			continue
		}
		out = append(out, board.Level{
			Price: parseFloatOrZero(row[0]),
			Size:  parseFloatOrZero(row[1]),
		})
	}
	return out
}

// StreamPosition subscribes to the private "position" topic, which
// requires the WS auth handshake (op "auth" with an HMAC signature over
// "GET/realtime"+expiry, per Bybit's V5 scheme), and forwards the
// position rows matching the client's symbol.
func (c *BybitClient) StreamPosition(ctx context.Context, symbol string, txWS chan<- []Position, rxRESTReq <-chan struct{}, publish func([]Position)) error {
	go restFallbackLoop(ctx, rxRESTReq, func() {})

	backoff := time.Second
	for {
		err := c.connectPrivateAndRead(ctx, symbol, txWS)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		_ = err

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
		if backoff > maxReconnectWait {
			backoff = maxReconnectWait
		}
	}
}

func (c *BybitClient) connectPrivateAndRead(ctx context.Context, symbol string, txWS chan<- []Position) error {
	expires := time.Now().Add(10 * time.Second).UnixMilli()
	authFrame := map[string]any{"op": "auth", "args": []any{c.key, expires, c.wsAuthSignature(expires)}}

	return connectSubscribeAndRead(ctx, bybitPrivateWSURL, []string{"position"}, authFrame, func(env bybitWSEnvelope) {
		if env.Topic != "position" {
			return
		}
		var rows []bybitPositionData
		if err := json.Unmarshal(env.Data, &rows); err != nil {
			return
		}
		positions := make([]Position, 0, len(rows))
		for _, r := range rows {
			if r.Symbol != symbol {
				continue
			}
			positions = append(positions, Position{
				Symbol:  r.Symbol,
				OrderID: r.OrderLinkID,
				Side:    r.Side,
				Qty:     parseFloatOrZero(r.Size),
				Price:   parseFloatOrZero(r.AvgPrice),
				Pnl:     parseFloatOrZero(r.UnrealPnl),
			})
		}
		select {
		case txWS <- positions:
		default:
		}
	})
}
