package socketio

import (
	"strconv"
	"strings"

	"github.com/gosio09/sio09/debug"
)

// dispatch implements spec.md §4.7: find the target callback by
// endpoint, then act according to message type. Panics from user
// callbacks never propagate; they are recovered and raised as faults
// via safeInvoke at each call site.
func (c *Connection) dispatch(msg Msg) {
	debug.Printf("connection %s: dispatch %s id=%q endpoint=%q", c.origin, msg.Type, msg.ID, msg.Endpoint)

	switch msg.Type {
	case Heartbeat:
		c.sendPlain(Encode(Msg{Type: Heartbeat}))
		return
	case Noop:
		return
	case Connect:
		c.dispatchConnect(msg)
		return
	}

	target := c.lookupTarget(msg.Endpoint)
	if target == nil {
		c.fail(newFault("no such namespace registered", nil))
		return
	}

	switch msg.Type {
	case Disconnect:
		c.safeInvoke(target.OnDisconnect)
		if strings.HasSuffix(msg.Data, "+0") {
			c.cleanup()
		}
	case Message:
		ack := NewRemoteAck(msg.Endpoint, msg.ID, c.sendPlain)
		c.safeInvoke(func() { target.OnMessage(msg.Data, ack) })
	case JSONMessage:
		var value interface{}
		if msg.Data != "" && msg.Data != "null" {
			if err := c.config.JSONCodec.Unmarshal([]byte(msg.Data), &value); err != nil {
				c.fail(newFault("garbage from server: malformed json message", err))
				return
			}
		}
		ack := NewRemoteAck(msg.Endpoint, msg.ID, c.sendPlain)
		c.safeInvoke(func() { target.OnJSON(value, ack) })
	case Event:
		var payload eventPayload
		if err := c.config.JSONCodec.Unmarshal([]byte(msg.Data), &payload); err != nil {
			c.fail(newFault("garbage from server: malformed event", err))
			return
		}
		ack := NewRemoteAck(msg.Endpoint, msg.ID, c.sendPlain)
		c.safeInvoke(func() { target.On(payload.Name, ack, payload.Args) })
	case Ack:
		c.dispatchAck(msg)
	case Error:
		fault := &Fault{Message: "error from server", Frame: msg.Data}
		c.safeInvoke(func() { target.OnError(fault) })
		if strings.HasSuffix(msg.Data, "+0") {
			c.cleanup()
		}
	default:
		debug.Printf("connection %s: unknown message type %v, ignoring", c.origin, msg.Type)
	}
}

func (c *Connection) dispatchConnect(msg Msg) {
	c.mu.Lock()
	fs := c.firstSocket
	c.mu.Unlock()

	if fs != nil {
		if msg.Endpoint == fs.Namespace {
			c.mu.Lock()
			c.firstSocket = nil
			c.mu.Unlock()
			c.safeInvoke(fs.Callbacks.OnConnect)
			return
		}
		if msg.Endpoint == "" && fs.Namespace != "" {
			c.sendPlain(Encode(Msg{Type: Connect, Endpoint: fs.Namespace}))
			return
		}
	}

	target := c.lookupTarget(msg.Endpoint)
	if target == nil {
		c.fail(newFault("no such namespace registered", nil))
		return
	}
	c.safeInvoke(target.OnConnect)
}

func (c *Connection) dispatchAck(msg Msg) {
	id, args, hasPayload, err := parseAckData(msg.Data)
	if err != nil {
		debug.Printf("connection %s: malformed ack data %q: %v", c.origin, msg.Data, err)
		return
	}
	if !hasPayload {
		c.sendPlain(Encode(Msg{Type: Ack, Data: strconv.Itoa(id)}))
		return
	}

	c.mu.Lock()
	fn, ok := c.acks.resolve(id, args)
	c.mu.Unlock()

	if !ok {
		debug.Printf("connection %s: unknown ack id %d, discarding", c.origin, id)
		return
	}
	c.safeInvoke(func() { fn(args) })
}

// lookupTarget resolves the Callbacks sink for endpoint: the
// connection's own aggregator for the empty endpoint, otherwise the
// socket registered under that namespace, or nil if unregistered.
func (c *Connection) lookupTarget(endpoint string) Callbacks {
	if endpoint == "" {
		return c
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	socket, ok := c.namespaces[endpoint]
	if !ok {
		return nil
	}
	return socket.Callbacks
}
