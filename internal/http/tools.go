package http

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	gwerrors "github.com/agentgate/agentgate/internal/errors"
	"github.com/agentgate/agentgate/internal/metrics"
	"github.com/agentgate/agentgate/internal/tools"
)

// ToolsHandler exposes tool discovery and invocation. Both sit behind the
// access gate.
type ToolsHandler struct {
	dispatcher *tools.Dispatcher
	logger     *slog.Logger
}

// NewToolsHandler creates the tools handler.
func NewToolsHandler(dispatcher *tools.Dispatcher, logger *slog.Logger) *ToolsHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ToolsHandler{dispatcher: dispatcher, logger: logger}
}

// List handles GET /tools.
func (h *ToolsHandler) List(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"tools": h.dispatcher.ListTools(),
	})
}

// Execute handles POST /tools/{tool}. An empty body means no parameters.
func (h *ToolsHandler) Execute(w http.ResponseWriter, r *http.Request) {
	toolName := chi.URLParam(r, "tool")

	params := map[string]any{}
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, gwerrors.InvalidRequest("request body must be a JSON object"))
		return
	}

	result, err := h.dispatcher.Dispatch(r.Context(), toolName, params)
	if err != nil {
		metrics.RecordToolExecution(toolName, "error")
		writeError(w, err)
		return
	}

	metrics.RecordToolExecution(toolName, "success")
	writeJSON(w, http.StatusOK, result)
}
