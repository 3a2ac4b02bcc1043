package socketio

import (
	"time"

	"github.com/gosio09/sio09/debug"
)

// setState is a no-op once the connection is INVALID (terminal
// absorption, spec.md §3/§4.4) and otherwise notifies every namespace
// via OnState.
func (c *Connection) setState(s State) {
	c.mu.Lock()
	if c.state == Invalid {
		c.mu.Unlock()
		return
	}
	c.state = s
	c.mu.Unlock()

	debug.Printf("connection %s: state -> %s", c.origin, s)
	for _, ns := range c.snapshotNamespaces() {
		c.safeInvoke(func() { ns.Callbacks.OnState(s) })
	}
}

// --- Upcalls implementation, called by the owned Transport ---

func (c *Connection) Connected() {
	c.mu.Lock()
	if c.reconnectTimer != nil {
		c.reconnectTimer.Stop()
		c.reconnectTimer = nil
	}
	c.keepaliveQueued = false
	c.mu.Unlock()

	c.setState(Ready)
	c.resetHeartbeat()
	c.flush()
}

func (c *Connection) Data(text string) {
	frames, err := Unwrap(text)
	if err != nil {
		c.fail(err.(*Fault))
		return
	}
	for _, f := range frames {
		c.Frame(f)
	}
}

func (c *Connection) Frame(text string) {
	c.resetHeartbeat()

	msg, err := Decode(text)
	if err != nil {
		c.fail(err.(*Fault))
		return
	}
	c.dispatch(msg)
}

func (c *Connection) Disconnected() {
	c.mu.Lock()
	c.lastTransportErr = nil
	c.mu.Unlock()
	c.setState(Interrupted)
}

func (c *Connection) TransportError(err error) {
	c.mu.Lock()
	c.lastTransportErr = err
	c.mu.Unlock()
	c.setState(Interrupted)
}

// --- heartbeat watchdog, spec.md §4.4 ---

func (c *Connection) resetHeartbeat() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == Invalid {
		return
	}
	if c.heartbeatTimer != nil {
		c.heartbeatTimer.Stop()
	}
	timeout := c.closingTimeout + c.heartbeatTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	c.heartbeatTimer = time.AfterFunc(timeout, c.onHeartbeatTimeout)
}

func (c *Connection) onHeartbeatTimeout() {
	c.mu.Lock()
	if c.state == Invalid {
		c.mu.Unlock()
		return
	}
	c.mu.Unlock()
	c.fail(newFault("no heartbeat within lifetime", nil))
}

// --- reconnect, spec.md §4.6 ---

// Reconnect invalidates the current transport and schedules a fresh
// transport-selection attempt after the configured reconnect delay.
// Automatic reconnect on transport loss is deliberately not performed
// by the connection itself (spec.md §4.6); callers invoke this.
func (c *Connection) Reconnect() {
	c.mu.Lock()
	if c.state == Invalid {
		c.mu.Unlock()
		return
	}
	t := c.transport
	c.transport = nil
	if c.reconnectTimer != nil {
		c.reconnectTimer.Stop()
	}
	delay := c.config.ReconnectDelay
	c.mu.Unlock()

	if t != nil {
		t.Invalidate()
	}
	c.setState(Interrupted)

	c.mu.Lock()
	c.reconnectTimer = time.AfterFunc(delay, c.runReconnect)
	c.mu.Unlock()
}

func (c *Connection) runReconnect() {
	c.mu.Lock()
	if c.state == Invalid {
		c.mu.Unlock()
		return
	}
	already := c.keepaliveQueued
	c.keepaliveQueued = true
	c.mu.Unlock()

	if !already {
		c.sendPlain(Encode(Msg{Type: Heartbeat}))
	}

	if err := c.selectAndConnectTransport(); err != nil {
		c.fail(newFault("reconnect failed", err))
	}
}

// --- cleanup, spec.md §4.10 ---

// cleanup is idempotent: -> INVALID, disconnect the transport, clear
// the namespace table, remove this connection from the registry, and
// cancel background timers. After cleanup all further mutation is a no-op.
func (c *Connection) cleanup() {
	c.mu.Lock()
	if c.invalidated {
		c.mu.Unlock()
		return
	}
	c.invalidated = true
	t := c.transport
	c.transport = nil
	if c.heartbeatTimer != nil {
		c.heartbeatTimer.Stop()
		c.heartbeatTimer = nil
	}
	if c.reconnectTimer != nil {
		c.reconnectTimer.Stop()
		c.reconnectTimer = nil
	}
	c.mu.Unlock()

	// setState delivers OnState(Invalid) to every namespace while they're
	// still registered; only then is the namespace table cleared.
	c.setState(Invalid)

	c.mu.Lock()
	c.namespaces = make(map[string]*Socket)
	c.mu.Unlock()

	if t != nil {
		t.Disconnect()
	}
	if c.registry != nil {
		c.registry.remove(c.origin, c)
	}
	debug.Printf("connection %s: cleaned up", c.origin)
}
