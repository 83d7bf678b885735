package server

import (
	"encoding/json"
	"io"
	"net/http"
)

type toolInfo struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Parameters  json.RawMessage `json:"parameters"`
}

func (s *Server) handleListTools(w http.ResponseWriter, r *http.Request) {
	all := s.tools.All()
	out := make([]toolInfo, 0, len(all))
	for _, t := range all {
		out = append(out, toolInfo{Name: t.Name(), Description: t.Description(), Parameters: t.Parameters()})
	}
	writeJSON(w, http.StatusOK, items(out))
}

// handleCallTool passes the raw body to the tool's input normalizer, so
// callers may send an object, a JSON-encoded string or nothing at all.
func (s *Server) handleCallTool(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	if _, ok := s.tools.Get(name); !ok {
		writeError(w, http.StatusNotFound, "unknown tool: "+name)
		return
	}
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		writeError(w, http.StatusBadRequest, "read body failed")
		return
	}
	var raw any
	if len(body) > 0 {
		if err := json.Unmarshal(body, &raw); err != nil {
			raw = string(body)
		}
	}

	text, err := s.tools.Call(r.Context(), name, raw)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"tool": name, "output": text})
}
