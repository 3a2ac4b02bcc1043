// Package websocket is the WebSocket half of the transport plugin
// pair (spec.md §4.3/§4.12): blank-import it to register "websocket"
// with the core's transport factory, independently of the long-poll
// transport in package longpoll.
package websocket

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/gosio09/sio09/debug"
	"github.com/gosio09/sio09/socketio"
)

func init() {
	socketio.RegisterTransport("websocket", newWebSocketTransport)
}

// WebSocketTransport is reworked from the teacher's pull-based
// Receive() loop (kleeedolinux-socket.go/socket/transport/websocket.go)
// into a push-based loop that drives the core's upcalls directly,
// preserving that file's write-deadline handling and EnableCompression
// support.
type WebSocketTransport struct {
	mu           sync.Mutex
	conn         *websocket.Conn
	url          string
	headers      http.Header
	upcalls      socketio.Upcalls
	connected    bool
	writeTimeout time.Duration
	compression  bool
}

func newWebSocketTransport(origin string, headers http.Header, upcalls socketio.Upcalls) socketio.Transport {
	return &WebSocketTransport{
		url:          toWebSocketURL(origin),
		headers:      headers,
		upcalls:      upcalls,
		writeTimeout: 10 * time.Second,
	}
}

func toWebSocketURL(origin string) string {
	url := origin
	switch {
	case strings.HasPrefix(url, "https://"):
		url = "wss://" + strings.TrimPrefix(url, "https://")
	case strings.HasPrefix(url, "http://"):
		url = "ws://" + strings.TrimPrefix(url, "http://")
	}
	return strings.TrimRight(url, "/") + "/socket.io/1/websocket/"
}

func (t *WebSocketTransport) Connect() error {
	t.mu.Lock()
	if t.connected {
		t.mu.Unlock()
		return nil
	}

	dialer := *websocket.DefaultDialer
	dialer.HandshakeTimeout = 10 * time.Second
	if tlsCfg := socketio.TLSConfig(); tlsCfg != nil {
		dialer.TLSClientConfig = tlsCfg
	}
	if t.compression {
		dialer.EnableCompression = true
	}
	headers := t.headers
	url := t.url
	t.mu.Unlock()

	debug.Printf("websocket: dialing %s", url)
	conn, _, err := dialer.Dial(url, headers)
	if err != nil {
		debug.Printf("websocket: dial failed: %v", err)
		return err
	}

	t.mu.Lock()
	t.conn = conn
	t.connected = true
	t.mu.Unlock()

	t.upcalls.Connected()
	go t.readLoop()
	return nil
}

func (t *WebSocketTransport) readLoop() {
	for {
		t.mu.Lock()
		conn := t.conn
		t.mu.Unlock()
		if conn == nil {
			return
		}

		_, message, err := conn.ReadMessage()
		if err != nil {
			t.mu.Lock()
			wasConnected := t.connected
			t.connected = false
			t.mu.Unlock()
			if !wasConnected {
				return
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				t.upcalls.Disconnected()
			} else {
				t.upcalls.TransportError(err)
			}
			return
		}

		t.upcalls.Frame(string(message))
	}
}

func (t *WebSocketTransport) Send(frame string) error {
	t.mu.Lock()
	conn := t.conn
	connected := t.connected
	timeout := t.writeTimeout
	t.mu.Unlock()

	if !connected || conn == nil {
		return errNotConnected
	}
	if timeout > 0 {
		if err := conn.SetWriteDeadline(time.Now().Add(timeout)); err != nil {
			return err
		}
	}
	return conn.WriteMessage(websocket.TextMessage, []byte(frame))
}

func (t *WebSocketTransport) CanSendBulk() bool { return true }

func (t *WebSocketTransport) SendBulk(frames []string) error {
	for _, f := range frames {
		if err := t.Send(f); err != nil {
			return err
		}
	}
	return nil
}

func (t *WebSocketTransport) Disconnect() error {
	t.mu.Lock()
	conn := t.conn
	connected := t.connected
	t.connected = false
	t.conn = nil
	t.mu.Unlock()

	if !connected || conn == nil {
		return nil
	}
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	return conn.Close()
}

func (t *WebSocketTransport) Invalidate() {
	t.mu.Lock()
	conn := t.conn
	t.connected = false
	t.conn = nil
	t.mu.Unlock()
	if conn != nil {
		_ = conn.Close()
	}
}

// EnableCompression toggles permessage-deflate for future writes and,
// if already connected, the current WebSocket connection, mirroring
// the teacher's WebSocketTransport.EnableCompression.
func (t *WebSocketTransport) EnableCompression(enabled bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.compression = enabled
	if t.conn != nil {
		t.conn.EnableWriteCompression(enabled)
	}
}
