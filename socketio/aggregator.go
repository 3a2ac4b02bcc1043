package socketio

// Connection implements Callbacks itself to act as the aggregating
// sink for endpoint-less inbound frames, fanning out to every
// registered namespace unconditionally (spec.md §9 open question,
// resolved: yes). This mirrors the teacher's habit
// (socket/socket_impl.go's triggerEvent) of firing every matching
// handler rather than picking one, generalized from "every handler for
// one event" to "every namespace for one connection-wide frame".
var _ Callbacks = (*Connection)(nil)

func (c *Connection) OnConnect() {
	for _, ns := range c.snapshotNamespaces() {
		c.safeInvoke(ns.Callbacks.OnConnect)
	}
}

func (c *Connection) OnDisconnect() {
	for _, ns := range c.snapshotNamespaces() {
		c.safeInvoke(ns.Callbacks.OnDisconnect)
	}
}

func (c *Connection) OnMessage(text string, ack *RemoteAck) {
	for _, ns := range c.snapshotNamespaces() {
		ns := ns
		c.safeInvoke(func() { ns.Callbacks.OnMessage(text, ack) })
	}
}

func (c *Connection) OnJSON(value interface{}, ack *RemoteAck) {
	for _, ns := range c.snapshotNamespaces() {
		ns := ns
		c.safeInvoke(func() { ns.Callbacks.OnJSON(value, ack) })
	}
}

func (c *Connection) On(event string, ack *RemoteAck, args []interface{}) {
	for _, ns := range c.snapshotNamespaces() {
		ns := ns
		c.safeInvoke(func() { ns.Callbacks.On(event, ack, args) })
	}
}

func (c *Connection) OnError(fault *Fault) {
	for _, ns := range c.snapshotNamespaces() {
		ns := ns
		c.safeInvoke(func() { ns.Callbacks.OnError(fault) })
	}
}

func (c *Connection) OnSessionID(id string) {
	for _, ns := range c.snapshotNamespaces() {
		ns := ns
		c.safeInvoke(func() { ns.Callbacks.OnSessionID(id) })
	}
}

func (c *Connection) OnState(state State) {
	for _, ns := range c.snapshotNamespaces() {
		ns := ns
		c.safeInvoke(func() { ns.Callbacks.OnState(state) })
	}
}
