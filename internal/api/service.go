// Package api implements the Command API (C9): the ten HTTP/JSON routes
// documented in SPEC_FULL.md §6, thin wrappers around the same
// Controller/Logger/Runner types C5/C7/C8 already define — grounded on
// the teacher's own internal/api/server.go ServeMux + typed-handler
// pattern, with the dashboard-push (WS hub, DashboardEvent, market
// snapshot) machinery dropped: see DESIGN.md for why none of it survives
// the move from a Polymarket multi-market dashboard to this single-order
// wall-chasing engine.
package api

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"strings"
	"sync"

	"gopkg.in/tomb.v2"

	"github.com/howlrs/board4go/internal/controller"
	"github.com/howlrs/board4go/internal/exchange"
	"github.com/howlrs/board4go/internal/pipeline"
)

// defaultOrderbookDepth is the subscription depth handed to every
// StreamOrderboard call. The original source fixes this at 500
// (target/exchange.rs, exchanges/bybit.rs) rather than exposing it as a
// tunable; C9 keeps that fixed value.
const defaultOrderbookDepth = 500

var ErrWorkersNotFound = errors.New("workers is not found")

// Service owns the one Controller this process runs and the Runner
// started against it, matching the original source's Workers: a single
// optional running instance, not a registry of many.
type Service struct {
	mu         sync.Mutex
	controller controller.Controller
	logger     *controller.Logger
	runner     *pipeline.Runner
	tomb       *tomb.Tomb
	slogger    *slog.Logger
}

// NewService starts with cfg as the initial (not-yet-running) controller
// state, matching C8 loading a file before any start_controller call.
func NewService(cfg controller.Controller, slogger *slog.Logger) *Service {
	return &Service{
		controller: cfg,
		logger:     controller.NewLogger(),
		slogger:    slogger.With("component", "command-api"),
	}
}

// Start validates the stored controller, aborts any previous run, and
// spawns a fresh pipeline.Runner — mirroring the source's start_controller:
// controller.ok() first, then Workers::abort_all, then a new log buffer.
func (s *Service) Start(ctx context.Context) (controller.Controller, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.controller.Ok(); err != nil {
		return controller.Controller{}, err
	}

	s.abortLocked()
	s.logger = controller.NewLogger()

	adapter := exchange.NewAdapter(s.controller.Exchange, s.controller.Order.Symbol, isTestMode(), s.slogger)
	r := pipeline.New(
		s.controller.Order.Symbol,
		s.controller.Exchange.Name,
		defaultOrderbookDepth,
		s.controller.Board,
		s.controller.Order,
		adapter,
		s.logger,
		s.slogger,
	)

	s.runner = r
	s.tomb = r.Start(ctx)
	s.controller.IsRunning = true
	return s.controller, nil
}

// Stop aborts the running instance, matching stop_controller's "workers
// is not found" failure when nothing is running.
func (s *Service) Stop() (controller.Controller, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.runner == nil {
		return controller.Controller{}, ErrWorkersNotFound
	}

	s.abortLocked()
	s.controller.IsRunning = false
	return s.controller, nil
}

// abortLocked kills and waits on any existing tomb, treating
// pipeline.ErrCompleted the same as a clean exit (Workers.abort_all's
// cancellation-as-success rule). Callers must hold s.mu.
func (s *Service) abortLocked() {
	if s.tomb == nil {
		return
	}
	s.tomb.Kill(nil)
	if err := s.tomb.Wait(); err != nil && !errors.Is(err, pipeline.ErrCompleted) && !errors.Is(err, context.Canceled) {
		s.logger.Add(controller.LevelError, "previous run exited with error: "+err.Error())
	}
	s.tomb = nil
	s.runner = nil
}

// Get returns the current controller state.
func (s *Service) Get() controller.Controller {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.controller
}

// Post validates next via Ok() before storing it, matching post_controller.
func (s *Service) Post(next controller.Controller) (controller.Controller, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := next.Ok(); err != nil {
		return controller.Controller{}, err
	}
	s.controller = next
	return s.controller, nil
}

// Put overwrites unconditionally, matching put_controller.
func (s *Service) Put(next controller.Controller) controller.Controller {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.controller = next
	return s.controller
}

// Delete resets to the zero-value Controller, matching delete_controller.
func (s *Service) Delete() controller.Controller {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.abortLocked()
	s.controller = controller.Controller{}
	return s.controller
}

func (s *Service) Instruments(ctx context.Context, exchangeName string) ([]exchange.Instrument, error) {
	cfg := exchange.Config{Name: exchange.ParseName(exchangeName)}
	adapter := exchange.NewAdapter(cfg, "", false, s.slogger)
	return adapter.Instruments(ctx)
}

func (s *Service) Ticker(ctx context.Context, exchangeName, symbol string) (exchange.Ticker, error) {
	cfg := exchange.Config{Name: exchange.ParseName(exchangeName)}
	adapter := exchange.NewAdapter(cfg, symbol, false, s.slogger)
	return adapter.TickerInfo(ctx, symbol)
}

// isTestMode mirrors the original source's own direct `env::var("IS_TEST")`
// read: a process-level switch, not a Controller field (see AMBIENT STACK).
func isTestMode() bool {
	return strings.EqualFold(os.Getenv("IS_TEST"), "true")
}

// DrainLogger empties the log buffer into the returned slice, matching
// get_logger's "drains buffer on read" semantics.
func (s *Service) DrainLogger() []controller.LogEntry {
	s.mu.Lock()
	l := s.logger
	s.mu.Unlock()
	return l.Drain()
}

func (s *Service) ClearLogger() {
	s.mu.Lock()
	l := s.logger
	s.mu.Unlock()
	l.Clear()
}
