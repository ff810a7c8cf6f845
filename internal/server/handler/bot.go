package handler

import (
	"log/slog"
	"net/http"
)

// Stopper ends the running bot gracefully.
type Stopper interface {
	Stop()
}

// BotHandler controls the bot and lists what it can run.
type BotHandler struct {
	stopper    Stopper
	strategies []string
	logger     *slog.Logger
}

// NewBotHandler creates a BotHandler.
func NewBotHandler(stopper Stopper, strategies []string, logger *slog.Logger) *BotHandler {
	return &BotHandler{
		stopper:    stopper,
		strategies: strategies,
		logger:     logger.With(slog.String("handler", "bot")),
	}
}

// Stop asks the bot to finish queued events and exit.
// POST /api/bot/stop
func (h *BotHandler) Stop(w http.ResponseWriter, r *http.Request) {
	h.logger.InfoContext(r.Context(), "stop requested", slog.String("remote_addr", r.RemoteAddr))
	h.stopper.Stop()
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "stopping"})
}

// Strategies lists the registered strategy names.
// GET /api/strategies
func (h *BotHandler) Strategies(w http.ResponseWriter, r *http.Request) {
	names := h.strategies
	if names == nil {
		names = []string{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"strategies": names})
}
