package server

import (
	"encoding/json"
	"net/http"

	tberrors "ticketbridge.dev/ticketbridge/internal/errors"
)

// ErrorResponse is the body of every non-2xx response
type ErrorResponse struct {
	Kind   string `json:"kind"`
	Detail string `json:"detail"`
}

// StatusFor maps an error kind to an HTTP status
func StatusFor(kind tberrors.Kind) int {
	switch kind {
	case tberrors.KindNotFound, tberrors.KindRepositoryNotFound:
		return http.StatusNotFound
	case tberrors.KindServiceUnavailable, tberrors.KindUnavailable, tberrors.KindUpstreamFailed:
		return http.StatusInternalServerError
	default:
		return http.StatusBadRequest
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(value); err != nil {
		h.splog.Debug("writing JSON response: %v", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	kind := tberrors.KindOf(err)
	status := StatusFor(kind)
	if status >= http.StatusInternalServerError {
		h.splog.Error("%v", err)
	} else {
		h.splog.Debug("%s: %v", kind, err)
	}
	h.writeJSON(w, status, ErrorResponse{Kind: string(kind), Detail: err.Error()})
}

func (h *Handler) badRequest(w http.ResponseWriter, format string, args ...any) {
	h.writeError(w, tberrors.Newf(tberrors.KindBadRequest, format, args...))
}
