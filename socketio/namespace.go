package socketio

import "net/http"

// Callbacks is the sink a namespace socket (or the connection's own
// aggregating callback) delivers events to. Implemented by user code
// for a Socket, and by *Connection itself to act as the aggregator
// that fans out endpoint-less inbound frames to every namespace
// (spec.md §9's "callback fan-out without inheritance").
type Callbacks interface {
	OnConnect()
	OnDisconnect()
	OnMessage(text string, ack *RemoteAck)
	OnJSON(value interface{}, ack *RemoteAck)
	On(event string, ack *RemoteAck, args []interface{})
	OnError(fault *Fault)
	OnSessionID(id string)
	OnState(state State)
}

// NoopCallbacks embeds into a user's callback struct so only the
// methods that matter need to be implemented, mirroring the
// teacher's habit (socket/socket_impl.go) of firing every registered
// handler even when most callers only care about a couple of events.
type NoopCallbacks struct{}

func (NoopCallbacks) OnConnect()                                {}
func (NoopCallbacks) OnDisconnect()                              {}
func (NoopCallbacks) OnMessage(text string, ack *RemoteAck)      {}
func (NoopCallbacks) OnJSON(value interface{}, ack *RemoteAck)   {}
func (NoopCallbacks) On(event string, ack *RemoteAck, args []interface{}) {}
func (NoopCallbacks) OnError(fault *Fault)                       {}
func (NoopCallbacks) OnSessionID(id string)                      {}
func (NoopCallbacks) OnState(state State)                        {}

// Socket is the user-facing namespace handle: a namespace string
// (empty denotes the default namespace) plus a callback sink. Created
// by user code and handed to Registry.Register, which resolves or
// creates the underlying Connection for the socket's origin.
type Socket struct {
	Namespace string
	Callbacks Callbacks

	// Headers is a copy of the owning Connection's headers taken when the
	// socket is registered; it carries the session id (spec.md §6
	// "reserved headers") only if the handshake had finished by then, and
	// it is not updated afterwards.
	Headers http.Header

	conn *Connection
}

// NewSocket constructs a namespace handle. Pass "" for the default namespace.
func NewSocket(namespace string, callbacks Callbacks) *Socket {
	return &Socket{Namespace: namespace, Callbacks: callbacks, Headers: make(http.Header)}
}

// Send emits a MESSAGE frame on this socket's namespace. If ack is
// non-nil, an id is reserved and the server is asked to reply.
func (s *Socket) Send(text string, ack AckFunc) error {
	return s.conn.sendMessage(s.Namespace, text, ack)
}

// SendJSON emits a JSON_MESSAGE frame.
func (s *Socket) SendJSON(value interface{}, ack AckFunc) error {
	return s.conn.sendJSON(s.Namespace, value, ack)
}

// Emit emits an EVENT frame carrying name and args.
func (s *Socket) Emit(name string, ack AckFunc, args ...interface{}) error {
	return s.conn.sendEvent(s.Namespace, name, args, ack)
}

// Close unregisters this socket from its connection (spec.md §4.9 unregister).
func (s *Socket) Close() error {
	if s.conn == nil {
		return nil
	}
	return s.conn.unregister(s)
}

// Reconnect requests the owning connection reconnect (spec.md §4.6);
// a no-op if the socket was never registered.
func (s *Socket) Reconnect() {
	if s.conn != nil {
		s.conn.Reconnect()
	}
}
