package http

import (
	"encoding/json"
	"net/http"
	"strconv"

	gwerrors "github.com/agentgate/agentgate/internal/errors"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`

	// Rate limit details, present only on 429 responses.
	RetryAfter int    `json:"retry_after,omitempty"`
	Limit      int    `json:"limit,omitempty"`
	Current    int    `json:"current,omitempty"`
	Reason     string `json:"reason,omitempty"`
}

// writeError renders a structured error response. Rate limit errors also
// carry a Retry-After header so well-behaved clients can back off.
func writeError(w http.ResponseWriter, err error) {
	gwErr := gwerrors.AsError(err)
	body := errorBody{
		Code:    gwErr.Code,
		Message: gwErr.Message,
	}
	if gwErr.Code == gwerrors.CodeRateLimitExceeded {
		if v, ok := gwErr.Details["retry_after"].(int); ok {
			body.RetryAfter = v
			w.Header().Set("Retry-After", strconv.Itoa(v))
		}
		if v, ok := gwErr.Details["limit"].(int); ok {
			body.Limit = v
		}
		if v, ok := gwErr.Details["current"].(int); ok {
			body.Current = v
		}
		if v, ok := gwErr.Details["reason"].(string); ok {
			body.Reason = v
		}
	}
	writeJSON(w, gwerrors.HTTPStatus(gwErr), body)
}
