package http

import (
	"net/http"

	"github.com/agentgate/agentgate/internal/manifest"
	"github.com/agentgate/agentgate/internal/ratelimit"
	"github.com/agentgate/agentgate/internal/tools"
)

// ManifestHandler serves the public discovery document and the service status.
type ManifestHandler struct {
	builder    *manifest.Builder
	dispatcher *tools.Dispatcher
	limiter    *ratelimit.Limiter
	version    string
}

// NewManifestHandler creates the manifest handler.
func NewManifestHandler(builder *manifest.Builder, dispatcher *tools.Dispatcher, limiter *ratelimit.Limiter, version string) *ManifestHandler {
	return &ManifestHandler{
		builder:    builder,
		dispatcher: dispatcher,
		limiter:    limiter,
		version:    version,
	}
}

// Manifest handles GET /manifest and GET /.well-known/ai-plugin.json. The
// document is public: it describes how to authenticate, not who may.
func (h *ManifestHandler) Manifest(w http.ResponseWriter, r *http.Request) {
	doc := h.builder.Generate(h.dispatcher.ListTools())
	writeJSON(w, http.StatusOK, doc)
}

// Status handles GET /status.
func (h *ManifestHandler) Status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":           "ok",
		"version":          h.version,
		"tools":            len(h.dispatcher.ListTools()),
		"using_fast_store": h.limiter.UsingFastStore(),
	})
}
