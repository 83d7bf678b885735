package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/user/storeops/internal/gateway"
	"github.com/user/storeops/internal/stream"
	"github.com/user/storeops/internal/types"
)

// triggerInput is the body of run-starting requests.
type triggerInput struct {
	StoreID    string `json:"store_id"`
	Trigger    string `json:"trigger"`
	SKU        string `json:"sku"`
	CustomerID string `json:"customer_id"`
}

// params builds the run input. sku and customer_id are only set when given
// so steps fall back to their store-wide reports.
func (t triggerInput) params() map[string]string {
	in := map[string]string{"store_id": t.StoreID, "trigger": t.Trigger}
	if t.SKU != "" {
		in["sku"] = t.SKU
	}
	if t.CustomerID != "" {
		in["customer_id"] = t.CustomerID
	}
	return types.RunInput(in)
}

func queryInput(r *http.Request) map[string]string {
	q := r.URL.Query()
	return triggerInput{
		StoreID:    q.Get("store_id"),
		Trigger:    q.Get("trigger"),
		SKU:        q.Get("sku"),
		CustomerID: q.Get("customer_id"),
	}.params()
}

type runResult struct {
	RunID   string  `json:"run_id"`
	Success bool    `json:"success"`
	Message string  `json:"message"`
	Output  *string `json:"output"`
}

// handleRunCrew runs the pipeline and answers when it finishes. A client
// that gives up early does not stop the run.
func (s *Server) handleRunCrew(w http.ResponseWriter, r *http.Request) {
	var in triggerInput
	if err := decodeBody(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	sub, err := s.sup.Start(in.params())
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}

	result, err := stream.AwaitResult(r.Context(), sub)
	if err != nil {
		slog.Info("run-crew client gone", "run_id", string(sub.RunID), "error", err)
		writeError(w, http.StatusGatewayTimeout, err.Error())
		return
	}

	resp := runResult{RunID: string(sub.RunID), Success: result.Success}
	if result.Success {
		resp.Message = "Store operations run completed"
		resp.Output = &result.Output
	} else {
		resp.Message = result.Error
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleStreamCrew starts a run and streams its events as server-sent
// events until the done frame.
func (s *Server) handleStreamCrew(w http.ResponseWriter, r *http.Request) {
	sub, err := s.sup.Start(queryInput(r))
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}

	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	h.Set("X-Run-ID", string(sub.RunID))
	w.WriteHeader(http.StatusOK)

	err = s.encoder().Encode(r.Context(), sub, s.countingSink(stream.NewSSEWriter(w)))
	if err != nil {
		slog.Info("stream subscriber gone", "run_id", string(sub.RunID), "error", err)
	}
}

const wsWriteWait = 10 * time.Second

// handleStreamWS streams the same events as JSON text messages over a
// websocket.
func (s *Server) handleStreamWS(w http.ResponseWriter, r *http.Request) {
	sub, err := s.sup.Start(queryInput(r))
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		sub.Detach()
		slog.Warn("websocket upgrade failed", "run_id", string(sub.RunID), "error", err)
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	sink := stream.SinkFunc(func(ev stream.Event) error {
		data, err := ev.JSONMessage()
		if err != nil {
			return err
		}
		conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
		return conn.WriteMessage(websocket.TextMessage, data)
	})
	if err := s.encoder().Encode(ctx, sub, s.countingSink(sink)); err != nil {
		slog.Info("websocket subscriber gone", "run_id", string(sub.RunID), "error", err)
		return
	}
	conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
	_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "run finished"))
}

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, items(s.sup.List()))
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	run, ok := s.sup.Get(types.RunID(r.PathValue("id")))
	if !ok {
		writeError(w, http.StatusNotFound, "run not found")
		return
	}
	writeJSON(w, http.StatusOK, runView(run))
}

type runResponse struct {
	gateway.Run
	DurationMS int64 `json:"duration_ms,omitempty"`
}

func runView(run gateway.Run) runResponse {
	return runResponse{Run: run, DurationMS: run.Duration().Milliseconds()}
}
