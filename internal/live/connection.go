package live

import (
	"sort"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/livefir/replate"
)

// Connection is one websocket client with its own clone of the template.
//
// The template clone is per-connection because rendering rewrites the node
// tree in place; two clients must never share one.
type Connection struct {
	ID       string
	Conn     *websocket.Conn
	Template *replate.Template
	mu       sync.Mutex // Protects writes to Conn and renders of Template
}

// Send writes a JSON message to this connection.
// Thread-safe: multiple goroutines can call Send concurrently.
func (c *Connection) Send(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.Conn.WriteJSON(v)
}

// render renders data into the connection's template and returns the reply
// for the client.
func (c *Connection) render(data any) (reply, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, err := c.Template.Render(data); err != nil {
		return reply{}, err
	}
	return reply{
		HTML:    c.Template.HTML(),
		Updates: c.Template.Replacements().Stats().Locations(),
	}, nil
}

// Registry tracks the active websocket connections by ID.
//
// Thread-safe: safe for concurrent access from multiple goroutines.
type Registry struct {
	conns map[string]*Connection
	mu    sync.RWMutex
}

// NewRegistry creates an empty connection registry.
func NewRegistry() *Registry {
	return &Registry{conns: make(map[string]*Connection)}
}

// Register adds a connection. A connection with the same ID is replaced.
func (r *Registry) Register(conn *Connection) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.conns[conn.ID] = conn
}

// Unregister removes a connection. Unknown connections are ignored.
func (r *Registry) Unregister(conn *Connection) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if current, ok := r.conns[conn.ID]; ok && current == conn {
		delete(r.conns, conn.ID)
	}
}

// Get returns the connection with the given ID, or nil.
func (r *Registry) Get(id string) *Connection {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.conns[id]
}

// All returns a snapshot of the registered connections ordered by ID.
func (r *Registry) All() []*Connection {
	r.mu.RLock()
	defer r.mu.RUnlock()

	conns := make([]*Connection, 0, len(r.conns))
	for _, conn := range r.conns {
		conns = append(conns, conn)
	}
	sort.Slice(conns, func(i, j int) bool { return conns[i].ID < conns[j].ID })
	return conns
}

// Count returns the number of registered connections.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}
