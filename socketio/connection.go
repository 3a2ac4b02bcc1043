package socketio

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gosio09/sio09/debug"
)

// JSONCodec is the pluggable JSON encoder/decoder collaborator
// spec.md §1 calls out as external. Defaults to encoding/json.
type JSONCodec interface {
	Marshal(v interface{}) ([]byte, error)
	Unmarshal(data []byte, v interface{}) error
}

type stdJSONCodec struct{}

func (stdJSONCodec) Marshal(v interface{}) ([]byte, error)      { return json.Marshal(v) }
func (stdJSONCodec) Unmarshal(data []byte, v interface{}) error { return json.Unmarshal(data, v) }

// Config carries the tunables spec.md §6 names as defaults: handshake
// connect/read timeout, reconnect delay, and the pluggable JSON codec.
// Built with functional options in the teacher's ClientOption style.
type Config struct {
	HandshakeTimeout time.Duration
	ReconnectDelay   time.Duration
	JSONCodec        JSONCodec
	HTTPClient       *http.Client
}

func defaultConfig() Config {
	return Config{
		HandshakeTimeout: 10 * time.Second,
		ReconnectDelay:   1 * time.Second,
		JSONCodec:        stdJSONCodec{},
		HTTPClient:       &http.Client{},
	}
}

// ConnectionOption configures a Connection at construction time.
type ConnectionOption func(*Config)

func WithHandshakeTimeout(d time.Duration) ConnectionOption {
	return func(c *Config) { c.HandshakeTimeout = d }
}

func WithReconnectDelay(d time.Duration) ConnectionOption {
	return func(c *Config) { c.ReconnectDelay = d }
}

func WithJSONCodec(codec JSONCodec) ConnectionOption {
	return func(c *Config) { c.JSONCodec = codec }
}

func WithHTTPClient(client *http.Client) ConnectionOption {
	return func(c *Config) { c.HTTPClient = client }
}

// Connection is a single long-lived Socket.IO 0.9 session: the
// handshake driver, transport owner, message multiplexer, heartbeat
// watchdog, and send buffer described in spec.md §3-§5. All exported
// methods and every transport upcall serialize on mu, the connection's
// monitor (spec.md §5).
type Connection struct {
	origin string
	config Config

	registry *Registry

	mu               sync.Mutex
	state            State
	sessionID        string
	heartbeatTimeout time.Duration
	closingTimeout   time.Duration
	serverTransports []string
	transport        Transport
	lastTransportErr error

	namespaces map[string]*Socket
	acks       *ackTable

	heartbeatTimer *time.Timer
	reconnectTimer *time.Timer

	firstSocket      *Socket
	keepaliveQueued  bool
	invalidated      bool
	failing          bool

	headers http.Header

	buffer sendBuffer
}

func newConnection(origin string, registry *Registry, opts ...ConnectionOption) *Connection {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	c := &Connection{
		origin:     origin,
		config:     cfg,
		registry:   registry,
		state:      Init,
		namespaces: make(map[string]*Socket),
		acks:       newAckTable(),
		headers:    make(http.Header),
	}
	return c
}

// Origin returns the immutable origin URL this connection was created for.
func (c *Connection) Origin() string { return c.origin }

func (c *Connection) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// start spawns the one-shot connect worker that drives
// INIT -> HANDSHAKE -> CONNECTING -> READY (spec.md §3 Lifecycle).
func (c *Connection) start() {
	go c.connectWorker()
}

func (c *Connection) connectWorker() {
	c.setState(Handshake)

	hs, err := c.doHandshake()
	if err != nil {
		cause := err
		if errors.Is(err, context.DeadlineExceeded) {
			cause = ErrTimeout
		}
		c.fail(newFault("handshake failed", cause))
		return
	}

	c.mu.Lock()
	c.sessionID = hs.sessionID
	c.heartbeatTimeout = hs.heartbeatTimeout
	c.closingTimeout = hs.closingTimeout
	c.serverTransports = hs.transports
	c.headers.Set("sessionId", hs.sessionID)
	c.mu.Unlock()

	for _, ns := range c.snapshotNamespaces() {
		ns.Callbacks.OnSessionID(hs.sessionID)
	}

	c.setState(Connecting)

	if err := c.selectAndConnectTransport(); err != nil {
		c.fail(newFault("transport connect failed", err))
		return
	}
}

func (c *Connection) snapshotNamespaces() []*Socket {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]*Socket, 0, len(c.namespaces))
	for _, s := range c.namespaces {
		out = append(out, s)
	}
	return out
}

// selectAndConnectTransport implements spec.md §4.3: prefer
// "websocket" if advertised, else "xhr-polling", else fail.
func (c *Connection) selectAndConnectTransport() error {
	c.mu.Lock()
	advertised := c.serverTransports
	origin := c.origin
	headers := cloneHeaders(c.headers)
	c.mu.Unlock()

	name := ""
	for _, want := range []string{"websocket", "xhr-polling"} {
		for _, have := range advertised {
			if have == want {
				name = want
				break
			}
		}
		if name != "" {
			break
		}
	}
	if name == "" {
		return newFault("server supports no available transports", nil)
	}

	factory, ok := transportFactories[name]
	if !ok {
		return newFault("no transport factory registered for "+name, nil)
	}

	debug.Printf("connection: selecting transport %s for %s", name, origin)
	t := factory(origin, headers, c)

	c.mu.Lock()
	c.transport = t
	c.mu.Unlock()

	return t.Connect()
}

func cloneHeaders(h http.Header) http.Header {
	out := make(http.Header, len(h))
	for k, v := range h {
		cp := make([]string, len(v))
		copy(cp, v)
		out[k] = cp
	}
	return out
}

// fail raises a fault on every namespace and cleans up the connection.
// Re-entrant calls (a panic inside the OnError fan-out below routes
// back here through safeInvoke) are dropped once the first call is
// under way, so a callback that always panics can't recurse forever.
func (c *Connection) fail(fault *Fault) {
	c.mu.Lock()
	if c.failing {
		c.mu.Unlock()
		return
	}
	c.failing = true
	c.mu.Unlock()

	debug.Printf("connection %s: fault: %v", c.origin, fault)
	for _, ns := range c.snapshotNamespaces() {
		c.safeInvoke(func() { ns.Callbacks.OnError(fault) })
	}
	c.cleanup()
}

// safeInvoke runs a user callback and turns a panic into a fault on
// this connection, per spec.md §4.7 ("callback exceptions never
// propagate: they are caught and raised as faults on the connection").
func (c *Connection) safeInvoke(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			debug.Printf("connection %s: recovered panic in user callback: %v", c.origin, r)
			c.fail(newFault(fmt.Sprintf("panic in callback: %v", r), nil))
		}
	}()
	fn()
}
