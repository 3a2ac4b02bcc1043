// Package socketio implements the client side of the Socket.IO
// 0.9-era protocol: handshake, transport selection, the wire codec,
// namespace multiplexing, acknowledgements, heartbeat/timeout, send
// buffering, and reconnection. Concrete transports live under
// socketio/transport and register themselves by name; import one for
// its side effect (e.g. blank-import socketio/transport/websocket or
// socketio/transport/longpoll) before calling Register.
package socketio
