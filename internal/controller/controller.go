// Package controller holds the two pieces external to the pipeline core:
// the validated run configuration (Controller) and the in-memory log
// buffer (Logger) a UI or the command API (C9) reads from. The buffer
// has no size cap: entries accumulate until drained or cleared.
package controller

import (
	"errors"
	"sync"
	"time"

	"github.com/howlrs/board4go/internal/board"
	"github.com/howlrs/board4go/internal/exchange"
	"github.com/howlrs/board4go/internal/order"
)

// Controller is the full, validated configuration for one pipeline run:
// which exchange, which board filter, which order to manage.
type Controller struct {
	IsRunning bool                `json:"is_running" mapstructure:"is_running"`
	Exchange  exchange.Config     `json:"exchange" mapstructure:"exchange"`
	Board     board.FilterConfig  `json:"board" mapstructure:"board"`
	Order     order.Config        `json:"order" mapstructure:"order"`
}

var (
	ErrAlreadyRunning     = errors.New("already running")
	ErrExchangeSettingBad = errors.New("exchange setting is empty")
	ErrBoardSettingBad    = errors.New("board setting is empty")
	ErrOrderSettingBad    = errors.New("order setting is empty")
)

// Ok validates the controller exactly as the original source's
// Controller::ok does: already-running first, then each sub-config's own
// validity check, in this fixed order so the error string returned
// matches the command surface's documented set.
func (c Controller) Ok() error {
	switch {
	case c.IsRunning:
		return ErrAlreadyRunning
	case !c.Exchange.IsOk():
		return ErrExchangeSettingBad
	case !c.Board.IsOk():
		return ErrBoardSettingBad
	case !c.Order.IsOk():
		return ErrOrderSettingBad
	default:
		return nil
	}
}

// LogLevel is the severity of a LogEntry. "success" is a distinct level
// from the source. Entries stay in the Logger's buffer; they are not
// forwarded to the process's slog logger.
type LogLevel string

const (
	LevelInfo    LogLevel = "info"
	LevelError   LogLevel = "error"
	LevelSuccess LogLevel = "success"
)

// LogEntry is one entry in the Logger's buffer.
type LogEntry struct {
	Level     LogLevel  `json:"level"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// Logger is the mutual-exclusion in-memory log buffer: many stages write,
// one reader (the command API, on a Drain call) consumes.
type Logger struct {
	mu  sync.Mutex
	log []LogEntry
}

// NewLogger returns an empty logger.
func NewLogger() *Logger {
	return &Logger{}
}

// Add appends an entry with the current local time.
func (l *Logger) Add(level LogLevel, message string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.log = append(l.log, LogEntry{Level: level, Message: message, Timestamp: time.Now()})
}

// Drain returns every entry currently buffered and empties the buffer,
// matching the command surface's "drains buffer on read" semantics for
// get_logger.
func (l *Logger) Drain() []LogEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := l.log
	l.log = nil
	return out
}

// Clear discards every buffered entry without returning them.
func (l *Logger) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.log = nil
}
