package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/aretw0/facilitator"
	"github.com/aretw0/facilitator/internal/logging"
	"github.com/aretw0/facilitator/pkg/domain"
	"github.com/aretw0/facilitator/pkg/ports"
	"github.com/go-chi/chi/v5"
)

// Engine is what the inspection API needs from the orchestration engine.
type Engine interface {
	Store() ports.NodeExecutionStore
	ErrorOutActiveNodes(ctx context.Context, planExecutionID string) (int, error)
}

// Server serves node execution records and their history.
type Server struct {
	Engine  Engine
	Streams *StreamManager

	metrics http.Handler
	logger  *slog.Logger
}

// Option configures the Server.
type Option func(*Server)

// WithMetricsHandler mounts h on /metrics.
func WithMetricsHandler(h http.Handler) Option {
	return func(s *Server) {
		s.metrics = h
	}
}

// WithLogger sets the request logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithStreams shares a StreamManager, typically one whose Hooks are
// registered on the engine.
func WithStreams(streams *StreamManager) Option {
	return func(s *Server) {
		if streams != nil {
			s.Streams = streams
		}
	}
}

// NewHandler creates the HTTP handler for the engine.
func NewHandler(engine Engine, opts ...Option) http.Handler {
	server := &Server{
		Engine:  engine,
		Streams: NewStreamManager(),
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(server)
	}

	r := chi.NewRouter()
	r.Get("/health", server.GetHealth)
	r.Get("/info", server.GetInfo)
	if server.metrics != nil {
		r.Handle("/metrics", server.metrics)
	}
	r.Get("/events", server.SubscribeEvents)
	r.Route("/plan-executions/{planExecutionID}", func(r chi.Router) {
		r.Get("/nodes", server.ListNodes)
		r.Post("/error-out", server.ErrorOut)
	})
	r.Route("/nodes/{nodeExecutionID}", func(r chi.Router) {
		r.Get("/", server.GetNode)
		r.Get("/history", server.GetHistory)
	})
	return enableCORS(r)
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// GetHealth handles GET /health.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles GET /info.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"app":     "facilitator-http",
		"version": strings.TrimSpace(facilitator.Version),
	})
}

// ListNodes handles GET /plan-executions/{planExecutionID}/nodes.
func (s *Server) ListNodes(w http.ResponseWriter, r *http.Request) {
	planExecutionID := chi.URLParam(r, "planExecutionID")
	execs, err := s.Engine.Store().ListByPlanExecution(r.Context(), planExecutionID)
	if err != nil {
		s.fail(w, "ListNodes", err)
		return
	}
	if execs == nil {
		execs = []*domain.NodeExecution{}
	}
	s.writeJSON(w, http.StatusOK, execs)
}

// ErrorOut handles POST /plan-executions/{planExecutionID}/error-out.
func (s *Server) ErrorOut(w http.ResponseWriter, r *http.Request) {
	planExecutionID := chi.URLParam(r, "planExecutionID")
	changed, err := s.Engine.ErrorOutActiveNodes(r.Context(), planExecutionID)
	if err != nil {
		s.fail(w, "ErrorOut", err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]int{"errored_out": changed})
}

// GetNode handles GET /nodes/{nodeExecutionID}.
func (s *Server) GetNode(w http.ResponseWriter, r *http.Request) {
	exec, err := s.Engine.Store().Get(r.Context(), chi.URLParam(r, "nodeExecutionID"))
	if err != nil {
		s.fail(w, "GetNode", err)
		return
	}
	s.writeJSON(w, http.StatusOK, exec)
}

// HistoryResponse carries the snapshots of a node execution and what changed
// between them.
type HistoryResponse struct {
	Snapshots []*domain.NodeExecution `json:"snapshots"`
	Changes   []*domain.SnapshotDiff  `json:"changes"`
}

// GetHistory handles GET /nodes/{nodeExecutionID}/history.
func (s *Server) GetHistory(w http.ResponseWriter, r *http.Request) {
	snapshots, err := s.Engine.Store().History(r.Context(), chi.URLParam(r, "nodeExecutionID"))
	if err != nil {
		s.fail(w, "GetHistory", err)
		return
	}
	changes := domain.DiffHistory(snapshots)
	if changes == nil {
		changes = []*domain.SnapshotDiff{}
	}
	s.writeJSON(w, http.StatusOK, HistoryResponse{Snapshots: snapshots, Changes: changes})
}

func (s *Server) fail(w http.ResponseWriter, op string, err error) {
	if errors.Is(err, domain.ErrNodeExecutionNotFound) {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	http.Error(w, fmt.Sprintf("%s error: %v", op, err), http.StatusInternalServerError)
	s.logger.Error(op+" failed", "err", err)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("response encode failed", "err", err)
	}
}

// SubscribeEvents handles GET /events (SSE). With a plan_execution_id query
// parameter only that plan execution is streamed. The optional watch
// parameter filters by event type, e.g. watch=node_finish,error.
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	topic := r.URL.Query().Get("plan_execution_id")
	watch := map[domain.EventType]bool{}
	if raw := r.URL.Query().Get("watch"); raw != "" {
		for _, t := range strings.Split(raw, ",") {
			watch[domain.EventType(strings.TrimSpace(t))] = true
		}
	}

	s.logger.Info("SSE: subscribing", "plan_execution_id", topic)
	ch, cancel := s.Streams.Subscribe(topic)
	defer cancel()

	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			if len(watch) > 0 && !watch[msg.Type] {
				continue
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", msg.Type, msg.Data)
			flusher.Flush()
		}
	}
}
