// Package pipeline implements the Pipeline Runner (C5): the four
// long-running stages (ticker, position, book+scan, order-manager) wired
// over bounded channels, and the order-manager's wall-chasing decision
// loop (the algorithm in SPEC_FULL.md §4.5, grounded on the original
// source's funcs/task.rs::runner).
package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"gopkg.in/tomb.v2"

	"github.com/howlrs/board4go/internal/board"
	"github.com/howlrs/board4go/internal/controller"
	"github.com/howlrs/board4go/internal/exchange"
	"github.com/howlrs/board4go/internal/order"
)

const channelCapacity = 32

// ErrCompleted is the sentinel t.Kill(err) is called with when the
// order-manager stage satisfies the configured size and ends the run.
// tomb.Tomb.Err() returning this (rather than nil) after Wait is a clean
// exit, not a failure — callers should treat it the same as nil.
var ErrCompleted = fmt.Errorf("order completed")

// Runner owns one pipeline run: the shared state cells, the channels
// wiring the four stages together, and the tomb.Tomb every stage's
// goroutine is spawned under.
type Runner struct {
	t   *tomb.Tomb
	ctx context.Context

	symbol       string
	exchangeName exchange.Name
	depth        int
	filter       board.FilterConfig
	orderCfg     order.Config
	adapter      exchange.Adapter
	logger       *controller.Logger
	slogger      *slog.Logger

	book         *board.Book
	orderState   *order.State
	tickerCell   *TickerCell
	positionCell *PositionCell
	broadcaster  *Broadcaster

	bookWS          chan exchange.BookEvent
	tickerWS        chan exchange.Ticker
	positionWS      chan []exchange.Position
	targetPrice     chan float64
	positionRESTReq chan struct{}
}

// New constructs a Runner. depth is the order-book subscription depth
// handed to the adapter's StreamOrderboard call. exchangeName feeds the
// fixed order_link_id format (SPEC_FULL.md §9/§6).
func New(symbol string, exchangeName exchange.Name, depth int, filter board.FilterConfig, orderCfg order.Config, adapter exchange.Adapter, logger *controller.Logger, slogger *slog.Logger) *Runner {
	return &Runner{
		symbol:       symbol,
		exchangeName: exchangeName,
		depth:        depth,
		filter:       filter,
		orderCfg:     orderCfg,
		adapter:      adapter,
		logger:       logger,
		slogger:      slogger.With("component", "pipeline"),
		book:         board.New(),
		orderState:   orderCfg.ToState(),
		tickerCell:   &TickerCell{},
		positionCell: &PositionCell{},
		broadcaster:  &Broadcaster{},

		bookWS:          make(chan exchange.BookEvent, channelCapacity),
		tickerWS:        make(chan exchange.Ticker, channelCapacity),
		positionWS:      make(chan []exchange.Position, channelCapacity),
		targetPrice:     make(chan float64, channelCapacity),
		positionRESTReq: make(chan struct{}, channelCapacity),
	}
}

// Start spawns the three adapter streams and the four stages under a
// fresh tomb.Tomb and returns it. Kill(nil) on the returned tomb ends the
// run; its Wait() blocks until every stage has exited.
func (r *Runner) Start(ctx context.Context) *tomb.Tomb {
	var tombCtx context.Context
	r.t, tombCtx = tomb.WithContext(ctx)
	r.ctx = tombCtx

	r.t.Go(func() error {
		err := r.adapter.StreamTicker(tombCtx, r.symbol, r.tickerWS, nil, func(t exchange.Ticker) {
			select {
			case r.tickerWS <- t:
			default:
			}
		})
		return ignoreDying(r.t, err)
	})
	r.t.Go(func() error {
		err := r.adapter.StreamOrderboard(tombCtx, r.symbol, r.depth, r.bookWS, nil, func(evt exchange.BookEvent) {
			select {
			case r.bookWS <- evt:
			default:
			}
		})
		return ignoreDying(r.t, err)
	})
	r.t.Go(func() error {
		err := r.adapter.StreamPosition(tombCtx, r.symbol, r.positionWS, r.positionRESTReq, func(ps []exchange.Position) {
			r.broadcaster.publish(exchangePositionsToRows(ps))
		})
		return ignoreDying(r.t, err)
	})

	r.t.Go(r.runTickerStage)
	r.t.Go(r.runPositionStage)
	r.t.Go(r.runBookScanStage)
	r.t.Go(r.runOrderManagerStage)

	return r.t
}

// ignoreDying treats an adapter stream's error as a normal exit once the
// tomb is already dying (the reconnect loop returns ctx.Err() in that
// case), matching the original source's Workers.abort_all treating a
// "this was cancelled" join error as success.
func ignoreDying(t *tomb.Tomb, err error) error {
	select {
	case <-t.Dying():
		return nil
	default:
		return err
	}
}

func (r *Runner) runTickerStage() error {
	for {
		select {
		case <-r.t.Dying():
			return nil
		case t := <-r.tickerWS:
			r.tickerCell.store(t)
		}
	}
}

func (r *Runner) runPositionStage() error {
	for {
		select {
		case <-r.t.Dying():
			return nil
		case ps := <-r.positionWS:
			r.positionCell.store(exchangePositionsToRows(ps))
		}
	}
}

// runBookScanStage is the Book + Scan stage: applies incoming book events
// and, on every update, scans for a wall excluding the engine's own
// resting price, forwarding a non-blocking send to targetPrice on a hit.
func (r *Runner) runBookScanStage() error {
	for {
		select {
		case <-r.t.Dying():
			return nil
		case evt := <-r.bookWS:
			switch evt.Kind {
			case exchange.Snapshot:
				r.book.Replace(board.Ask, evt.Ask)
				r.book.Replace(board.Bid, evt.Bid)
			case exchange.Delta:
				r.book.ApplyDelta(board.Ask, evt.Ask)
				r.book.ApplyDelta(board.Bid, evt.Bid)
			}

			snap := r.orderState.Snapshot()
			price, found := r.book.Scan(r.filter, snap.Price)
			if !found {
				continue
			}

			select {
			case r.targetPrice <- price:
			default:
				r.logger.Add(controller.LevelError, "target price channel full, dropping scan result")
			}
		}
	}
}
