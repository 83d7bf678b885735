package server

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/user/storeops/internal/workflow"
)

func (s *Server) handleWorkflowStart(w http.ResponseWriter, r *http.Request) {
	var in triggerInput
	if err := decodeBody(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	params := in.params()
	handle, err := s.engine.Start(r.Context(), params)
	if err != nil {
		slog.Warn("workflow start failed", "error", err)
		writeError(w, http.StatusServiceUnavailable, "Could not start workflow. Is the state machine deployed?")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"execution_arn": handle, "input": params})
}

func (s *Server) handleWorkflowStatus(w http.ResponseWriter, r *http.Request) {
	handle := r.URL.Query().Get("execution_arn")
	if handle == "" {
		writeError(w, http.StatusBadRequest, "execution_arn is required")
		return
	}
	exec, err := s.engine.Describe(r.Context(), handle)
	switch {
	case errors.Is(err, workflow.ErrExecutionNotFound):
		writeError(w, http.StatusNotFound, "execution not found")
	case err != nil:
		slog.Warn("workflow describe failed", "execution_arn", handle, "error", err)
		writeError(w, http.StatusServiceUnavailable, "workflow engine unavailable")
	default:
		writeJSON(w, http.StatusOK, exec)
	}
}
