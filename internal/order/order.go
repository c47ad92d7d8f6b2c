// Package order implements the order configuration and the concurrency
// protected outstanding-order state (C3) that enforces minimum spacing
// between consecutive place attempts.
package order

import (
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// Side is the direction of the engine's single managed order.
type Side int

const (
	Buy Side = iota
	Sell
)

// Config is the static configuration for the order the engine manages.
// Defaults mirror the original source's target::order::Config::new:
// post-only on, a conservative tick size, and a five second spacing
// interval.
type Config struct {
	Symbol      string
	Side        Side
	Size        decimal.Decimal
	IsPostOnly  bool
	TickSize    decimal.Decimal
	IntervalSec int64
}

// NewConfig builds a Config with the original source's defaults for the
// fields it doesn't take as arguments.
func NewConfig(symbol string, size decimal.Decimal, side Side) Config {
	return Config{
		Symbol:      symbol,
		Side:        side,
		Size:        size,
		IsPostOnly:  true,
		TickSize:    decimal.NewFromFloat(0.01),
		IntervalSec: 5,
	}
}

// IsOk reports whether the config is usable: a non-empty symbol and a
// strictly positive size.
func (c Config) IsOk() bool {
	return c.Symbol != "" && c.Size.IsPositive()
}

// AddTickSize nudges price one tick in the direction that makes the quote
// strictly more aggressive than the wall it was derived from: up for a
// Buy, down for a Sell.
func (c Config) AddTickSize(price decimal.Decimal) decimal.Decimal {
	if c.Side == Buy {
		return price.Add(c.TickSize)
	}
	return price.Sub(c.TickSize)
}

// ToState derives the initial outstanding-order state: no order placed
// yet, remaining quantity equal to the configured size.
func (c Config) ToState() *State {
	return &State{
		qtyRemaining: c.Size,
		intervalSec:  c.IntervalSec,
	}
}

// Snapshot is an immutable read of State at a point in time.
type Snapshot struct {
	OrderID      *string
	Price        *float64
	QtyRemaining decimal.Decimal
	IntervalSec  int64
	LastActionAt *time.Time
}

// State is the concurrency-protected outstanding-order record. Every
// access goes through the mutex: the ingest stage reads it (for the
// self-price exclusion) and the order-manager stage is its only writer.
type State struct {
	mu           sync.Mutex
	orderID      *string
	price        *float64
	qtyRemaining decimal.Decimal
	intervalSec  int64
	lastActionAt *time.Time
}

// Snapshot returns a copy of the current state, safe to read after the
// lock is released.
func (s *State) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		OrderID:      s.orderID,
		Price:        s.price,
		QtyRemaining: s.qtyRemaining,
		IntervalSec:  s.intervalSec,
		LastActionAt: s.lastActionAt,
	}
}

// IsAllowed reports whether enough time has elapsed since the last place
// attempt. The boundary is inclusive: exactly interval_sec elapsed is
// allowed.
func (s *State) IsAllowed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isAllowedLocked()
}

func (s *State) isAllowedLocked() bool {
	if s.lastActionAt == nil {
		return true
	}
	elapsed := time.Since(*s.lastActionAt)
	return elapsed >= time.Duration(s.intervalSec)*time.Second
}

// RecordPlaced marks a successful place: stores the returned order id and
// resets the spacing clock.
func (s *State) RecordPlaced(id string, price decimal.Decimal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	s.orderID = &id
	p, _ := price.Float64()
	s.price = &p
	s.lastActionAt = &now
}

// RecordError resets the spacing clock without touching the order id, so
// a rejected place still counts against interval_sec.
func (s *State) RecordError() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	s.lastActionAt = &now
}
