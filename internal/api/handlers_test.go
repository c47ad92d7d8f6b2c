package api

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/howlrs/board4go/internal/board"
	"github.com/howlrs/board4go/internal/controller"
	"github.com/howlrs/board4go/internal/exchange"
	"github.com/howlrs/board4go/internal/order"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func validController() controller.Controller {
	return controller.Controller{
		Exchange: exchange.Config{Name: exchange.Bybit, Key: "k", Secret: "s"},
		Board:    board.FilterConfig{Side: board.Ask, High: 100, Low: 0, SizeMin: 1},
		Order:    order.NewConfig("BTCUSDT", decimal.NewFromFloat(1.0), order.Buy),
	}
}

func TestHandleGetController(t *testing.T) {
	h := NewHandlers(NewService(validController(), testLogger()), testLogger())

	req := httptest.NewRequest(http.MethodGet, "/controller", nil)
	rec := httptest.NewRecorder()
	h.HandleGetController(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var got controller.Controller
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "BTCUSDT", got.Order.Symbol)
}

func TestHandlePostControllerRejectsInvalid(t *testing.T) {
	h := NewHandlers(NewService(controller.Controller{}, testLogger()), testLogger())

	body, _ := json.Marshal(controller.Controller{})
	req := httptest.NewRequest(http.MethodPost, "/controller", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	h.HandlePostController(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	var env errorEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.Equal(t, controller.ErrExchangeSettingBad.Error(), env.Cause)
}

func TestHandlePutControllerOverwritesUnconditionally(t *testing.T) {
	h := NewHandlers(NewService(controller.Controller{}, testLogger()), testLogger())

	// Put accepts even an invalid payload (no Ok() check), per §6.
	invalid := validController()
	invalid.Exchange = exchange.Config{}
	body, _ := json.Marshal(invalid)
	req := httptest.NewRequest(http.MethodPut, "/controller", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	h.HandlePutController(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "BTCUSDT", h.svc.Get().Order.Symbol)
}

func TestHandleDeleteControllerResets(t *testing.T) {
	h := NewHandlers(NewService(validController(), testLogger()), testLogger())

	req := httptest.NewRequest(http.MethodDelete, "/controller", nil)
	rec := httptest.NewRecorder()
	h.HandleDeleteController(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, controller.Controller{}, h.svc.Get())
}

func TestHandleStopControllerNotFound(t *testing.T) {
	h := NewHandlers(NewService(validController(), testLogger()), testLogger())

	req := httptest.NewRequest(http.MethodPost, "/controller/stop", nil)
	rec := httptest.NewRecorder()
	h.HandleStopController(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleGetInstrumentsUnimplementedExchange(t *testing.T) {
	h := NewHandlers(NewService(validController(), testLogger()), testLogger())

	req := httptest.NewRequest(http.MethodGet, "/instruments?exchange=bitbank", nil)
	rec := httptest.NewRecorder()
	h.HandleGetInstruments(rec, req)

	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestHandleLoggerDrainAndClear(t *testing.T) {
	svc := NewService(validController(), testLogger())
	svc.logger.Add(controller.LevelInfo, "hello")
	h := NewHandlers(svc, testLogger())

	req := httptest.NewRequest(http.MethodGet, "/logger", nil)
	rec := httptest.NewRecorder()
	h.HandleGetLogger(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var entries []controller.LogEntry
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &entries))
	require.Len(t, entries, 1)
	assert.Equal(t, "hello", entries[0].Message)

	// A second drain is empty: get_logger drains on read.
	rec2 := httptest.NewRecorder()
	h.HandleGetLogger(rec2, req)
	var entries2 []controller.LogEntry
	require.NoError(t, json.Unmarshal(rec2.Body.Bytes(), &entries2))
	assert.Empty(t, entries2)

	// clear_logger discards buffered entries without returning them.
	svc.logger.Add(controller.LevelInfo, "discarded")
	rec3 := httptest.NewRecorder()
	h.HandleClearLogger(rec3, httptest.NewRequest(http.MethodPost, "/logger/clear", nil))
	assert.Equal(t, http.StatusNoContent, rec3.Code)
	assert.Empty(t, svc.DrainLogger())
}

func TestServiceStartRejectsInvalidController(t *testing.T) {
	svc := NewService(controller.Controller{}, testLogger())
	_, err := svc.Start(t.Context())
	assert.ErrorIs(t, err, controller.ErrExchangeSettingBad)
}
