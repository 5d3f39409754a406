// Package http serves an editor over HTTP: actions and host messages come
// in as JSON requests, outbound messages and state diffs go out as
// server-sent events. An execution host can instead hold one WebSocket on
// /host carrying messages both ways.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/aretw0/folio"
	"github.com/aretw0/folio/internal/logging"
	"github.com/aretw0/folio/pkg/bridge"
	"github.com/aretw0/folio/pkg/domain"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Editor is the part of folio.Editor the server drives.
type Editor interface {
	Dispatch(action domain.Action) error
	State() domain.State
	HandleMessage(ctx context.Context, msg domain.Message) error
	Subscribe(buffer int) (<-chan domain.Message, func())
}

var _ Editor = (*folio.Editor)(nil)

// ActionRequest is the body of POST /actions.
type ActionRequest struct {
	Type    domain.ActionKind `json:"type"`
	Payload map[string]any    `json:"payload,omitempty"`
}

// Server exposes one editor.
type Server struct {
	Editor  Editor
	Streams *StreamManager

	documentID string
	gatherer   prometheus.Gatherer
	logger     *slog.Logger

	// mu makes the before/after pair of a request atomic with respect to
	// other requests, so every state diff is computed against its own base.
	mu     sync.Mutex
	cancel func()
	done   chan struct{}
}

// Option configures a Server.
type Option func(*Server)

// WithDocumentID names the document in state diffs.
func WithDocumentID(id string) Option {
	return func(s *Server) {
		s.documentID = id
	}
}

// WithGatherer serves metrics from g instead of the default registry.
func WithGatherer(g prometheus.Gatherer) Option {
	return func(s *Server) {
		s.gatherer = g
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewServer creates a server and starts forwarding the editor's outbound
// messages to SSE clients. Call Close to stop.
func NewServer(editor Editor, opts ...Option) *Server {
	s := &Server{
		Editor:     editor,
		documentID: "default",
		gatherer:   prometheus.DefaultGatherer,
		logger:     logging.NewNop(),
		done:       make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.Streams = NewStreamManager(s.logger)

	messages, cancel := editor.Subscribe(64)
	s.cancel = cancel
	go s.forward(messages)
	return s
}

func (s *Server) forward(messages <-chan domain.Message) {
	defer close(s.done)
	for msg := range messages {
		data, err := json.Marshal(msg)
		if err != nil {
			s.logger.Error("failed to encode message", "kind", msg.Kind, "err", err)
			continue
		}
		s.Streams.Broadcast(Event{Name: "message", Data: string(data)})
	}
}

// Close stops forwarding and disconnects SSE clients.
func (s *Server) Close() {
	s.cancel()
	<-s.done
	s.Streams.Close()
}

// Handler returns the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(enableCORS)

	r.Post("/actions", s.DispatchAction)
	r.Post("/messages", s.PostMessage)
	r.Get("/state", s.GetState)
	r.Get("/events", s.SubscribeEvents)
	r.Get("/health", s.GetHealth)
	r.Get("/info", s.GetInfo)
	r.Get("/host", s.HostChannel)
	r.Get("/openapi.yaml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/yaml")
		_, _ = w.Write(rawSpec)
	})
	r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	return r
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// DispatchAction handles POST /actions.
func (s *Server) DispatchAction(w http.ResponseWriter, r *http.Request) {
	var body ActionRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		s.logger.Warn("DispatchAction: invalid request body", "err", err)
		return
	}

	var payload any
	if body.Payload != nil {
		payload = body.Payload
	}
	action, err := bridge.Decode(body.Type, payload)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	s.apply(w, func() error { return s.Editor.Dispatch(action) })
}

// PostMessage handles POST /messages.
func (s *Server) PostMessage(w http.ResponseWriter, r *http.Request) {
	var msg domain.Message
	if err := json.NewDecoder(r.Body).Decode(&msg); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		s.logger.Warn("PostMessage: invalid request body", "err", err)
		return
	}
	if msg.Kind == "" {
		http.Error(w, "missing kind", http.StatusBadRequest)
		return
	}

	s.apply(w, func() error { return s.Editor.HandleMessage(r.Context(), msg) })
}

// apply runs fn, broadcasts the resulting diff and answers with the state.
func (s *Server) apply(w http.ResponseWriter, fn func() error) {
	after, err := s.commit(fn)
	if err != nil {
		http.Error(w, err.Error(), statusFor(err))
		s.logger.Warn("request failed", "err", err)
		return
	}
	writeJSON(w, s.logger, after)
}

// commit runs fn and broadcasts the state diff it caused.
func (s *Server) commit(fn func() error) (domain.State, error) {
	s.mu.Lock()
	before := s.Editor.State()
	err := fn()
	after := s.Editor.State()
	s.mu.Unlock()

	if diff := domain.Diff(s.documentID, &before, &after); diff != nil {
		if data, merr := json.Marshal(diff); merr == nil {
			s.Streams.Broadcast(Event{Name: "state", Data: string(data)})
		}
	}
	return after, err
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidPayload):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrGatherUnavailable), errors.Is(err, domain.ErrClosed):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// GetState handles GET /state.
func (s *Server) GetState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.logger, s.Editor.State())
}

// GetHealth handles GET /health.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.logger, map[string]string{"status": "ok"})
}

// GetInfo handles GET /info.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	apiVersion := "unknown"
	if spec, err := LoadSpec(r.Context()); err == nil && spec.Info != nil {
		apiVersion = spec.Info.Version
	}
	writeJSON(w, s.logger, map[string]string{
		"app":         "folio-http",
		"version":     strings.TrimSpace(folio.Version),
		"api_version": apiVersion,
	})
}

// SubscribeEvents handles GET /events (SSE). The optional watch query
// keeps only the named events.
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}

	watch := map[string]bool{}
	if q := r.URL.Query().Get("watch"); q != "" {
		for _, name := range strings.Split(q, ",") {
			watch[strings.TrimSpace(name)] = true
		}
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	events, cancel := s.Streams.Subscribe()
	defer cancel()

	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			s.logger.Debug("SSE client disconnected")
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			if len(watch) > 0 && !watch[ev.Name] {
				continue
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Name, ev.Data)
			flusher.Flush()
		}
	}
}

func writeJSON(w http.ResponseWriter, logger *slog.Logger, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("response encode failed", "err", err)
	}
}
