package handler

import (
	"net/http"

	"github.com/marcelohmariano/blade/internal/domain"
	"github.com/marcelohmariano/blade/internal/observe"
)

// StatusSource is the live bot state, implemented by *observe.Tracker.
type StatusSource interface {
	Status() observe.Status
	Recent(limit int) []domain.RoundResult
}

// StatusHandler serves the running bot's status and its recent rounds.
type StatusHandler struct {
	source StatusSource
	store  domain.RoundStore
}

// NewStatusHandler creates a StatusHandler. store may be nil, in which case
// the history endpoint answers 501.
func NewStatusHandler(source StatusSource, store domain.RoundStore) *StatusHandler {
	return &StatusHandler{source: source, store: store}
}

// GetStatus returns mode, strategy and running counters.
// GET /api/status
func (h *StatusHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.source.Status())
}

// RecentRounds returns settled rounds from memory, newest first.
// GET /api/rounds/recent?limit=N
func (h *StatusHandler) RecentRounds(w http.ResponseWriter, r *http.Request) {
	rounds := h.source.Recent(parseLimit(r))
	writeJSON(w, http.StatusOK, map[string]any{"rounds": rounds, "count": len(rounds)})
}

// History returns stored rounds in time order.
// GET /api/rounds/history?since=&until=&limit=&offset=
func (h *StatusHandler) History(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		writeError(w, http.StatusNotImplemented, "round store not configured")
		return
	}
	rounds, err := h.store.ListRange(r.Context(), parseListOpts(r))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list rounds")
		return
	}
	if rounds == nil {
		rounds = []domain.Round{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"rounds": rounds, "count": len(rounds)})
}
