package socketio

import (
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/gosio09/sio09/debug"
)

// Registry is the process-wide origin -> connections mapping
// described in spec.md §4.9, guarded by its own monitor distinct from
// any single Connection's. A default, package-level Registry backs
// the package-level Register/Unregister helpers; tests and multi-
// tenant hosts can construct their own with NewRegistry.
type Registry struct {
	mu    sync.Mutex
	byOrigin map[string][]*Connection

	// creating collapses concurrent first-registration races for the
	// same origin into a single handshake attempt (SPEC_FULL.md
	// "concurrent connection-creation dedup").
	creating singleflight.Group
}

func NewRegistry() *Registry {
	return &Registry{byOrigin: make(map[string][]*Connection)}
}

var defaultRegistry = NewRegistry()

// Register resolves or creates the Connection for origin and joins
// socket to it, per spec.md §4.9: try every existing connection for
// the origin in order; the first that accepts the namespace wins;
// otherwise a new Connection is constructed and appended.
func Register(origin string, socket *Socket, opts ...ConnectionOption) (*Connection, error) {
	return defaultRegistry.Register(origin, socket, opts...)
}

func Unregister(socket *Socket) error {
	return socket.Close()
}

func (r *Registry) Register(origin string, socket *Socket, opts ...ConnectionOption) (*Connection, error) {
	for {
		r.mu.Lock()
		conns := r.byOrigin[origin]
		r.mu.Unlock()

		for _, conn := range conns {
			if conn.register(socket) {
				return conn, nil
			}
		}

		created, err, _ := r.creating.Do(origin+"\x00new", func() (interface{}, error) {
			r.mu.Lock()
			// re-check under the singleflight key: another goroutine may
			// have appended a usable connection while we queued.
			for _, conn := range r.byOrigin[origin] {
				if !conn.hasNamespace(socket.Namespace) {
					r.mu.Unlock()
					return conn, nil
				}
			}
			conn := newConnection(origin, r, opts...)
			r.byOrigin[origin] = append(r.byOrigin[origin], conn)
			r.mu.Unlock()
			conn.start()
			return conn, nil
		})
		if err != nil {
			return nil, err
		}
		conn := created.(*Connection)
		if conn.register(socket) {
			return conn, nil
		}
		// the winner of the singleflight call already had the namespace
		// taken by the time we got here; loop and try again against the
		// now-updated connection list.
	}
}

func (c *Connection) hasNamespace(namespace string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.namespaces[namespace]
	return ok
}

// remove drops conn from origin's list, deleting the whole origin
// entry once the list becomes empty (spec.md §9 open question,
// resolved as stated: remove the origin entry when the list is empty).
func (r *Registry) remove(origin string, conn *Connection) {
	r.mu.Lock()
	defer r.mu.Unlock()

	conns := r.byOrigin[origin]
	for i, c := range conns {
		if c == conn {
			conns = append(conns[:i], conns[i+1:]...)
			break
		}
	}
	if len(conns) == 0 {
		delete(r.byOrigin, origin)
		debug.Printf("registry: origin %s has no live connections, removing entry", origin)
	} else {
		r.byOrigin[origin] = conns
	}
}

// Connections returns a snapshot of the live connections for origin.
func (r *Registry) Connections(origin string) []*Connection {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*Connection, len(r.byOrigin[origin]))
	copy(out, r.byOrigin[origin])
	return out
}
