package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/howlrs/board4go/internal/controller"
)

// Handlers wraps the Service with the ten HTTP handlers of C9, one per
// row of SPEC_FULL.md §6's command table.
type Handlers struct {
	svc    *Service
	logger *slog.Logger
}

func NewHandlers(svc *Service, logger *slog.Logger) *Handlers {
	return &Handlers{svc: svc, logger: logger.With("component", "command-api")}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (h *Handlers) writeError(w http.ResponseWriter, status int, msg string, cause error) {
	h.logger.Error(msg, "cause", cause)
	writeJSON(w, status, newErrorEnvelope(msg, cause))
}

// HandleStartController implements POST /controller/start.
func (h *Handlers) HandleStartController(w http.ResponseWriter, r *http.Request) {
	c, err := h.svc.Start(backgroundRequestContext(r))
	if err != nil {
		h.writeError(w, http.StatusConflict, "failed to start controller", err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// HandleStopController implements POST /controller/stop.
func (h *Handlers) HandleStopController(w http.ResponseWriter, r *http.Request) {
	c, err := h.svc.Stop()
	if err != nil {
		status := http.StatusConflict
		if errors.Is(err, ErrWorkersNotFound) {
			status = http.StatusNotFound
		}
		h.writeError(w, status, "failed to stop controller", err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// HandleGetController implements GET /controller.
func (h *Handlers) HandleGetController(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.Get())
}

// HandlePostController implements POST /controller.
func (h *Handlers) HandlePostController(w http.ResponseWriter, r *http.Request) {
	var next controller.Controller
	if err := json.NewDecoder(r.Body).Decode(&next); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid controller payload", err)
		return
	}
	c, err := h.svc.Post(next)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "controller rejected", err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// HandlePutController implements PUT /controller.
func (h *Handlers) HandlePutController(w http.ResponseWriter, r *http.Request) {
	var next controller.Controller
	if err := json.NewDecoder(r.Body).Decode(&next); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid controller payload", err)
		return
	}
	writeJSON(w, http.StatusOK, h.svc.Put(next))
}

// HandleDeleteController implements DELETE /controller.
func (h *Handlers) HandleDeleteController(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.Delete())
}

// HandleGetInstruments implements GET /instruments?exchange=.
func (h *Handlers) HandleGetInstruments(w http.ResponseWriter, r *http.Request) {
	list, err := h.svc.Instruments(r.Context(), r.URL.Query().Get("exchange"))
	if err != nil {
		h.writeError(w, http.StatusBadGateway, "failed to fetch instruments", err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// HandleGetTicker implements GET /ticker?exchange=&symbol=.
func (h *Handlers) HandleGetTicker(w http.ResponseWriter, r *http.Request) {
	t, err := h.svc.Ticker(r.Context(), r.URL.Query().Get("exchange"), r.URL.Query().Get("symbol"))
	if err != nil {
		h.writeError(w, http.StatusBadGateway, "failed to fetch ticker", err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

// HandleGetLogger implements GET /logger: drains the buffer on read.
func (h *Handlers) HandleGetLogger(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.DrainLogger())
}

// HandleClearLogger implements POST /logger/clear.
func (h *Handlers) HandleClearLogger(w http.ResponseWriter, r *http.Request) {
	h.svc.ClearLogger()
	w.WriteHeader(http.StatusNoContent)
}

// backgroundRequestContext detaches the run from the inbound request's
// context: a pipeline run must outlive the HTTP handler that started it.
func backgroundRequestContext(r *http.Request) context.Context {
	return context.Background()
}
