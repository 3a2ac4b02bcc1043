package socketio

import "net/http"

// Transport is the contract the connection consumes from a concrete
// transport (WebSocket, XHR long-poll, or a third party's own). The
// core owns the transport instance it creates; the transport holds a
// non-owning back-reference to the core via the Upcalls interface it
// is handed at construction time.
type Transport interface {
	Connect() error
	Disconnect() error

	// Invalidate closes the transport without a graceful disconnect
	// handshake, used when the core abandons it on reconnect. Cleanup
	// closes the transport through Disconnect instead.
	Invalidate()

	Send(frame string) error

	// CanSendBulk reports whether SendBulk is meaningful for this
	// transport. When false, the core sends frames one at a time.
	CanSendBulk() bool

	// SendBulk sends every frame in order in one operation. Only
	// called when CanSendBulk reports true.
	SendBulk(frames []string) error
}

// Upcalls is what a Transport calls back into as it makes progress.
// A transport must call these in this lifecycle order: Connected()
// once, then any number of Data()/Frame() calls, terminated by
// exactly one of Disconnected() or TransportError(err).
type Upcalls interface {
	// Connected signals the transport finished connecting.
	Connected()

	// Data delivers raw text that may itself be a framed-datagram
	// wrapper (§4.1) containing zero or more frames. Used by
	// transports that cannot preserve message boundaries.
	Data(text string)

	// Frame delivers exactly one already-unwrapped decoded frame.
	// Used by transports (WebSocket) that preserve message boundaries.
	Frame(text string)

	// Disconnected signals a graceful or ungraceful transport close
	// with no further upcalls to follow.
	Disconnected()

	// TransportError signals a fatal transport I/O fault.
	TransportError(err error)
}

// TransportFactory builds a Transport bound to origin and upcalls.
// Concrete transports register a factory under a name (e.g.
// "websocket", "xhr-polling") from their own package's init(), the
// way database/sql drivers register themselves, so the core package
// never imports a concrete transport package and no import cycle
// forms between socketio and socketio/transport/*.
type TransportFactory func(origin string, headers http.Header, upcalls Upcalls) Transport

var transportFactories = map[string]TransportFactory{}

// RegisterTransport makes a named transport factory available to
// every Connection. Intended to be called from a transport package's
// init().
func RegisterTransport(name string, factory TransportFactory) {
	transportFactories[name] = factory
}
