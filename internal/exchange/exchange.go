// Package exchange implements the Exchange Adapter Contract (C6): the
// trait-like boundary the pipeline runner consumes for streaming
// ticker/book/position data and for placing/cancelling the engine's
// single managed order.
//
// Bybit's V5 API is the only fully implemented venue; Bitbank and
// Bitflyer are tagged-variant stubs whose every method returns a
// not-implemented error (see NotImplementedAdapter).
package exchange

import (
	"context"
	"log/slog"
	"strings"

	"github.com/howlrs/board4go/internal/board"
)

// Name is the tagged variant selecting which concrete Adapter backs a
// Config. A sum type over named exchanges, matched exhaustively by
// NewAdapter, rather than a wide abstract base class — see design notes
// ("Trait-object-per-exchange → tagged variant").
type Name string

const (
	Bybit     Name = "bybit"
	Bitbank   Name = "bitbank"
	Bitflyer  Name = "bitflyer"
)

// ParseName maps a free-form exchange name to a Name, defaulting to Bybit
// for anything unrecognised, matching the original source's
// `From<String> for ExchangeName` fallback.
func ParseName(s string) Name {
	switch strings.ToLower(s) {
	case string(Bitbank):
		return Bitbank
	case string(Bitflyer):
		return Bitflyer
	default:
		return Bybit
	}
}

// Config is the exchange-facing half of the Controller (C7): which venue,
// which credentials, which product category.
type Config struct {
	Name       Name    `json:"name" mapstructure:"name"`
	Key        string  `json:"key" mapstructure:"key"`
	Secret     string  `json:"secret" mapstructure:"secret"`
	Passphrase *string `json:"passphrase,omitempty" mapstructure:"passphrase"`
	Category   *string `json:"category,omitempty" mapstructure:"category"`
}

// IsOk reports whether the config carries the credentials every currently
// supported venue requires: a non-empty key and secret.
func (c Config) IsOk() bool {
	return c.Key != "" && c.Secret != ""
}

// CategoryOrDefault returns Category if set, else "linear" — the product
// category used for the public ticker/orderboard streams, matching the
// original source's exchange.rs call sites.
func (c Config) CategoryOrDefault() string {
	if c.Category != nil && *c.Category != "" {
		return *c.Category
	}
	return "linear"
}

// OrderSide mirrors board.Side/order.Side at the wire boundary.
type OrderSide string

const (
	SideBuy  OrderSide = "buy"
	SideSell OrderSide = "sell"
)

// OrderParams is what the order-manager stage hands to PlaceOrder.
type OrderParams struct {
	OrderLinkID *string
	Side        OrderSide
	Price       float64
	Qty         float64
	IsPostOnly  bool
}

// Instrument is an exchange-reported tradeable product.
type Instrument struct {
	Symbol    string  `json:"symbol"`
	LTP       float64 `json:"ltp"`
	Volume24h float64 `json:"volume24h"`
	PriceTick float64 `json:"price_tick"`
	SizeTick  float64 `json:"size_tick"`
	SizeMin   float64 `json:"size_min"`
}

// Ticker is the exchange-reported best bid/ask and last traded price.
type Ticker struct {
	Symbol    string  `json:"symbol"`
	LTP       float64 `json:"ltp"`
	Volume24h float64 `json:"volume24h"`
	BestAsk   float64 `json:"best_ask"`
	BestBid   float64 `json:"best_bid"`
}

// BookEventKind distinguishes a full-side replace from an incremental
// delta on the wire.
type BookEventKind int

const (
	Snapshot BookEventKind = iota
	Delta
)

// BookEvent is one order-book message off the wire: per-side level lists
// plus which update kind they carry.
type BookEvent struct {
	Symbol string
	Kind   BookEventKind
	Ask    []board.Level
	Bid    []board.Level
}

// Position mirrors position.Row at the wire boundary (kept as a distinct
// type so the exchange package doesn't import the position package back).
type Position struct {
	Symbol  string
	OrderID string
	Side    string
	Qty     float64
	Price   float64
	Pnl     float64
}

// Adapter is the C6 contract. Each stream method owns its own WebSocket
// connection (or REST-polling loop, for venues without a private feed)
// and blocks until ctx is cancelled.
type Adapter interface {
	CancelOrder(ctx context.Context, orderLinkID string) error
	PlaceOrder(ctx context.Context, params OrderParams) (string, error)

	StreamTicker(ctx context.Context, symbol string, txWS chan<- Ticker, rxRESTReq <-chan struct{}, publish func(Ticker)) error
	StreamOrderboard(ctx context.Context, symbol string, depth int, txWS chan<- BookEvent, rxRESTReq <-chan struct{}, publish func(BookEvent)) error
	StreamPosition(ctx context.Context, symbol string, txWS chan<- []Position, rxRESTReq <-chan struct{}, publish func([]Position)) error

	Instruments(ctx context.Context) ([]Instrument, error)
	TickerInfo(ctx context.Context, symbol string) (Ticker, error)
}

// NewAdapter is the static factory the Command API (C9) and Pipeline
// Runner call, dispatching on cfg.Name. Bitbank and Bitflyer are
// deliberate stubs: they construct the same NotImplementedAdapter rather
// than silently reusing Bybit's wire format, so a caller gets a clear
// error instead of garbage data.
//
// dryRun and logger are threaded in rather than read from the
// environment here, keeping this package free of direct env reads (IS_TEST
// is read once by the caller, same as the original source's lib.rs/
// Controller separation — see AMBIENT STACK).
func NewAdapter(cfg Config, symbol string, dryRun bool, logger *slog.Logger) Adapter {
	switch cfg.Name {
	case Bybit:
		return NewBybitClientWithOptions(cfg, symbol, dryRun, logger)
	default:
		return NotImplementedAdapter{Name: cfg.Name}
	}
}
