// Package live serves a template over HTTP and re-renders it for websocket
// clients as they push new data.
//
// Protocol: a client sends {"data": ...}; the server renders the data into
// the connection's own clone of the template and replies with
// {"html": "...", "updates": n} or {"error": "..."}.
package live

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"log"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/livefir/replate"
	"github.com/livefir/replate/internal/metrics"
)

const (
	// WebSocketPath is the route clients connect to.
	WebSocketPath = "/ws"

	defaultTracerName = "replate/live"
	maxMessageSize    = 1 << 20
)

// ErrMissingData is reported to clients whose message has no data field.
var ErrMissingData = errors.New("message has no data")

// Config configures a Server.
type Config struct {
	Data       any                // Data rendered for new pages and connections
	Metrics    *metrics.Collector // Collector exported on /metrics
	Upgrader   *websocket.Upgrader
	TracerName string
}

// Option is a functional option for configuring a Server
type Option func(*Config)

// WithData sets the data rendered before a client sends any
func WithData(data any) Option {
	return func(c *Config) {
		c.Data = data
	}
}

// WithMetrics sets the collector exposed on /metrics. It should be the one
// the template was created with.
func WithMetrics(collector *metrics.Collector) Option {
	return func(c *Config) {
		c.Metrics = collector
	}
}

// WithUpgrader replaces the websocket upgrader
func WithUpgrader(upgrader *websocket.Upgrader) Option {
	return func(c *Config) {
		c.Upgrader = upgrader
	}
}

// WithTracerName sets the OpenTelemetry tracer name
func WithTracerName(name string) Option {
	return func(c *Config) {
		c.TracerName = name
	}
}

// Server serves one template to many clients.
type Server struct {
	template    *replate.Template
	config      Config
	connections *Registry
	registry    *prometheus.Registry
	tracer      trace.Tracer
	router      chi.Router
}

type message struct {
	Data json.RawMessage `json:"data"`
}

type reply struct {
	HTML    string `json:"html,omitempty"`
	Updates int    `json:"updates"`
	Error   string `json:"error,omitempty"`
}

// New creates a server for tmpl. The template is built immediately so
// connection clones share its replacement tree; a build error is returned.
func New(tmpl *replate.Template, opts ...Option) (*Server, error) {
	config := Config{
		Upgrader: &websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		TracerName: defaultTracerName,
	}
	for _, opt := range opts {
		opt(&config)
	}
	if config.Metrics == nil {
		config.Metrics = metrics.NewCollector()
	}

	if err := tmpl.Build(); err != nil {
		return nil, fmt.Errorf("failed to build template: %w", err)
	}

	s := &Server{
		template:    tmpl,
		config:      config,
		connections: NewRegistry(),
		registry:    newMetricsRegistry(config.Metrics),
		tracer:      otel.Tracer(config.TracerName),
	}
	s.router = s.routes()
	return s, nil
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/", s.handlePage)
	r.Get(WebSocketPath, s.handleWebSocket)
	r.Method(http.MethodGet, "/metrics", metricsHandler(s.registry))
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok"))
	})
	return r
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Connections returns the registry of open websocket connections.
func (s *Server) Connections() *Registry {
	return s.connections
}

// Broadcast renders data for every open connection and pushes the result.
// It returns the number of connections that were updated.
func (s *Server) Broadcast(ctx context.Context, data any) int {
	sent := 0
	for _, conn := range s.connections.All() {
		out := s.renderTraced(ctx, conn, data)
		if err := conn.Send(out); err != nil {
			log.Printf("Broadcast to %s failed: %v", conn.ID, err)
			continue
		}
		sent++
	}
	return sent
}

func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	tmpl := s.template.Clone()

	var body strings.Builder
	if err := tmpl.RenderTo(&body, s.config.Data); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprintf(w, pageShell, html.EscapeString(tmpl.Name()), body.String(), WebSocketPath)
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	ws, err := s.config.Upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade failed: %v", err)
		return
	}
	defer ws.Close()
	ws.SetReadLimit(maxMessageSize)

	conn := &Connection{
		ID:       uuid.NewString(),
		Conn:     ws,
		Template: s.template.Clone(),
	}
	s.connections.Register(conn)
	s.config.Metrics.IncrementConnectionOpened()
	defer func() {
		s.connections.Unregister(conn)
		s.config.Metrics.IncrementConnectionClosed()
		log.Printf("Client %s disconnected", conn.ID)
	}()

	log.Printf("Client %s connected from %s", conn.ID, ws.RemoteAddr())

	// Send initial render
	if err := conn.Send(s.renderTraced(r.Context(), conn, s.config.Data)); err != nil {
		log.Printf("Failed to send initial render: %v", err)
		return
	}

	for {
		_, payload, err := ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("WebSocket error: %v", err)
			}
			return
		}

		data, err := decodeMessage(payload)
		if err != nil {
			if err := conn.Send(reply{Error: err.Error()}); err != nil {
				log.Printf("WebSocket write failed: %v", err)
				return
			}
			continue
		}

		if err := conn.Send(s.renderTraced(r.Context(), conn, data)); err != nil {
			log.Printf("WebSocket write failed: %v", err)
			return
		}
	}
}

// renderTraced renders data for conn inside a span and converts any render
// error into an error reply.
func (s *Server) renderTraced(ctx context.Context, conn *Connection, data any) reply {
	_, span := s.tracer.Start(ctx, "replate.render",
		trace.WithSpanKind(trace.SpanKindServer),
		trace.WithAttributes(
			attribute.String("replate.template", s.template.Name()),
			attribute.String("replate.connection_id", conn.ID),
		),
	)
	defer span.End()

	out, err := conn.render(data)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return reply{Error: err.Error()}
	}

	span.SetAttributes(attribute.Int("replate.updates", out.Updates))
	span.SetStatus(codes.Ok, "")
	return out
}

func decodeMessage(payload []byte) (any, error) {
	var msg message
	if err := json.Unmarshal(payload, &msg); err != nil {
		return nil, fmt.Errorf("invalid message: %w", err)
	}
	if len(msg.Data) == 0 {
		return nil, ErrMissingData
	}

	var data any
	if err := json.Unmarshal(msg.Data, &data); err != nil {
		return nil, fmt.Errorf("invalid data: %w", err)
	}
	return data, nil
}
