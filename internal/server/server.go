// Package server is the HTTP surface of storeops: run streaming, store
// queries, workflow control, telemetry ingestion and metrics.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/user/storeops/internal/gateway"
	"github.com/user/storeops/internal/metrics"
	"github.com/user/storeops/internal/state"
	"github.com/user/storeops/internal/stream"
	"github.com/user/storeops/internal/tools"
	"github.com/user/storeops/internal/workflow"
)

// Deps are the collaborators the server fronts.
type Deps struct {
	Supervisor *gateway.Supervisor
	Repo       *state.Repository
	Tools      *tools.Registry
	Engine     workflow.Engine
	Metrics    *metrics.Collector
}

// Options tunes transport behaviour.
type Options struct {
	Heartbeat      time.Duration
	CORSOrigins    []string
	RateLimitRPS   float64
	RateLimitBurst int
}

// Server routes HTTP requests to the run supervisor and the store.
type Server struct {
	sup      *gateway.Supervisor
	repo     *state.Repository
	tools    *tools.Registry
	engine   workflow.Engine
	metrics  *metrics.Collector
	opts     Options
	limiter  *rateLimiter
	upgrader websocket.Upgrader
	mux      *http.ServeMux
	handler  http.Handler
}

// New creates a Server. ctx bounds background housekeeping.
func New(ctx context.Context, deps Deps, opts Options) *Server {
	if deps.Metrics == nil {
		deps.Metrics = metrics.NewCollector("storeops")
	}
	if deps.Engine == nil {
		deps.Engine = workflow.Disabled{}
	}
	if deps.Tools == nil {
		deps.Tools = tools.NewRegistry()
	}
	s := &Server{
		sup:     deps.Supervisor,
		repo:    deps.Repo,
		tools:   deps.Tools,
		engine:  deps.Engine,
		metrics: deps.Metrics,
		opts:    opts,
		limiter: newRateLimiter(ctx, opts.RateLimitRPS, opts.RateLimitBurst),
		mux:     http.NewServeMux(),
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     s.checkOrigin,
	}

	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("POST /run-crew", s.limiter.limit(s.handleRunCrew))
	s.mux.HandleFunc("GET /stream-crew", s.limiter.limit(s.handleStreamCrew))
	s.mux.HandleFunc("GET /stream-crew/ws", s.limiter.limit(s.handleStreamWS))
	s.mux.HandleFunc("GET /runs", s.handleListRuns)
	s.mux.HandleFunc("GET /runs/{id}", s.handleGetRun)

	s.mux.HandleFunc("GET /inventory/low-stock", s.handleLowStock)
	s.mux.HandleFunc("GET /inventory/all", s.handleAllInventory)
	s.mux.HandleFunc("GET /equipment/all", s.handleAllEquipment)
	s.mux.HandleFunc("GET /orders/all", s.handleAllOrders)
	s.mux.HandleFunc("GET /orders/pending", s.handlePendingOrders)
	s.mux.HandleFunc("GET /customers/{id}", s.handleGetCustomer)

	s.mux.HandleFunc("GET /tools", s.handleListTools)
	s.mux.HandleFunc("POST /tools/{name}", s.handleCallTool)

	s.mux.HandleFunc("POST /workflow/start", s.limiter.limit(s.handleWorkflowStart))
	s.mux.HandleFunc("GET /workflow/status", s.handleWorkflowStatus)

	s.mux.HandleFunc("POST /telemetry/inventory", s.handleInventoryTelemetry)
	s.mux.HandleFunc("POST /telemetry/equipment", s.handleEquipmentTelemetry)

	s.mux.Handle("GET /metrics", s.metrics.Handler())

	s.handler = Chain(s.mux, Recovery(), RequestLogger(s.metrics), CORS(opts.CORSOrigins))
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// checkOrigin accepts same-origin requests, requests without an Origin
// header and the configured CORS origins.
func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || origin == "http://"+r.Host || origin == "https://"+r.Host {
		return true
	}
	for _, o := range s.opts.CORSOrigins {
		if o == origin {
			return true
		}
	}
	return false
}

type itemsResponse[T any] struct {
	Items []T `json:"items"`
}

func items[T any](list []T) itemsResponse[T] {
	if list == nil {
		list = []T{}
	}
	return itemsResponse[T]{Items: list}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("write response failed", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// decodeBody decodes an optional JSON body into v. An empty body is not an
// error.
func decodeBody(r *http.Request, v any) error {
	err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

// countingSink records every delivered event in the collector.
func (s *Server) countingSink(sink stream.FrameSink) stream.FrameSink {
	return stream.SinkFunc(func(ev stream.Event) error {
		if err := sink.Send(ev); err != nil {
			return err
		}
		s.metrics.EventSent(ev.Kind)
		return nil
	})
}

func (s *Server) encoder() *stream.Encoder {
	enc := stream.NewEncoder(s.opts.Heartbeat)
	enc.OnHeartbeat = s.metrics.HeartbeatSent
	return enc
}
