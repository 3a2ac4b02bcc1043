package socketio

import (
	"github.com/gosio09/sio09/debug"
)

// sendPlain is the single internal send primitive (spec.md §4.5). If
// READY, hand the frame to the transport; on transport error, append
// it to the buffer instead (the transport marks itself interrupted
// via its own error upcall). Otherwise, buffer it directly, unless
// the connection is already INVALID: spec.md §8 S6 requires sends
// after invalidation to be dropped, not queued forever.
func (c *Connection) sendPlain(frame string) {
	c.mu.Lock()
	state := c.state
	t := c.transport
	invalid := c.invalidated
	c.mu.Unlock()

	if invalid {
		debug.Printf("connection %s: dropping frame, connection is invalid", c.origin)
		return
	}

	if state != Ready || t == nil {
		c.buffer.append(frame)
		return
	}

	if err := t.Send(frame); err != nil {
		debug.Printf("connection %s: send failed, buffering: %v", c.origin, err)
		c.buffer.append(frame)
	}
}

// flush drains the send buffer on transition into READY, per spec.md §4.5.
func (c *Connection) flush() {
	c.mu.Lock()
	state := c.state
	t := c.transport
	c.mu.Unlock()

	if state != Ready || t == nil {
		return
	}

	if t.CanSendBulk() {
		snapshot := c.buffer.swap()
		if len(snapshot) == 0 {
			return
		}
		if err := t.SendBulk(snapshot); err != nil {
			debug.Printf("connection %s: bulk flush failed, restoring buffer: %v", c.origin, err)
			c.buffer.restore(snapshot)
		}
		return
	}

	for {
		frame, ok := c.buffer.popFront()
		if !ok {
			return
		}
		if err := t.Send(frame); err != nil {
			debug.Printf("connection %s: flush send failed, re-buffering: %v", c.origin, err)
			c.buffer.append(frame)
			return
		}
	}
}

// sendMessage emits a MESSAGE frame for namespace, requesting an ack
// if ack is non-nil (spec.md §4.8 outbound ack request).
func (c *Connection) sendMessage(namespace, text string, ack AckFunc) error {
	if c.isInvalidated() {
		return ErrConnectionClosed
	}
	id := c.reserveAckIfNeeded(ack)
	c.sendPlain(Encode(Msg{Type: Message, ID: id, Endpoint: namespace, Data: text}))
	return nil
}

func (c *Connection) sendJSON(namespace string, value interface{}, ack AckFunc) error {
	if c.isInvalidated() {
		return ErrConnectionClosed
	}
	payload, err := c.config.JSONCodec.Marshal(value)
	if err != nil {
		return err
	}
	id := c.reserveAckIfNeeded(ack)
	c.sendPlain(Encode(Msg{Type: JSONMessage, ID: id, Endpoint: namespace, Data: string(payload)}))
	return nil
}

type eventPayload struct {
	Name string        `json:"name"`
	Args []interface{} `json:"args,omitempty"`
}

func (c *Connection) sendEvent(namespace, name string, args []interface{}, ack AckFunc) error {
	if c.isInvalidated() {
		return ErrConnectionClosed
	}
	payload, err := c.config.JSONCodec.Marshal(eventPayload{Name: name, Args: args})
	if err != nil {
		return err
	}
	id := c.reserveAckIfNeeded(ack)
	c.sendPlain(Encode(Msg{Type: Event, ID: id, Endpoint: namespace, Data: string(payload)}))
	return nil
}

func (c *Connection) isInvalidated() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.invalidated
}

func (c *Connection) reserveAckIfNeeded(ack AckFunc) string {
	if ack == nil {
		return ""
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.acks.reserve(ack)
}

// register implements spec.md §4.9 Connection.register(socket):
// refuses if the namespace is already taken, otherwise stores the
// socket and inherits headers. The very first socket on a brand-new
// connection sends no explicit CONNECT frame: it occupies the
// first-socket slot and waits for the server's implicit initial
// CONNECT reply (dispatchConnect, spec.md §4.7/§8 S2/S3). Every
// subsequent registration transmits its own CONNECT frame (buffered
// if not yet READY).
func (c *Connection) register(socket *Socket) bool {
	c.mu.Lock()
	if _, taken := c.namespaces[socket.Namespace]; taken {
		c.mu.Unlock()
		return false
	}
	if c.invalidated {
		c.mu.Unlock()
		return false
	}
	first := len(c.namespaces) == 0
	c.namespaces[socket.Namespace] = socket
	socket.Headers = cloneHeaders(c.headers)
	if first {
		c.firstSocket = socket
	}
	c.mu.Unlock()

	socket.conn = c

	debug.Printf("connection %s: registered namespace %q (first=%v)", c.origin, socket.Namespace, first)
	if !first {
		c.sendPlain(Encode(Msg{Type: Connect, Endpoint: socket.Namespace}))
	}
	return true
}

// unregister implements spec.md §4.9/§4.10: emits a DISCONNECT for
// the namespace, removes it, fires OnDisconnect, and cleans up the
// whole connection once no namespace remains.
func (c *Connection) unregister(socket *Socket) error {
	c.mu.Lock()
	_, ok := c.namespaces[socket.Namespace]
	if ok {
		delete(c.namespaces, socket.Namespace)
	}
	remaining := len(c.namespaces)
	c.mu.Unlock()

	if !ok {
		return nil
	}

	c.sendPlain(Encode(Msg{Type: Disconnect, Endpoint: socket.Namespace}))
	c.safeInvoke(socket.Callbacks.OnDisconnect)

	if remaining == 0 {
		c.cleanup()
	}
	return nil
}
