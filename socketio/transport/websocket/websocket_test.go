package websocket

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gosio09/sio09/socketio"
)

// recordingUpcalls captures every Upcalls invocation for assertions.
type recordingUpcalls struct {
	mu            sync.Mutex
	connected     int
	frames        []string
	disconnected  int
	transportErrs []error
}

func (u *recordingUpcalls) Connected() {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.connected++
}

func (u *recordingUpcalls) Data(text string) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.frames = append(u.frames, text)
}

func (u *recordingUpcalls) Frame(text string) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.frames = append(u.frames, text)
}

func (u *recordingUpcalls) Disconnected() {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.disconnected++
}

func (u *recordingUpcalls) TransportError(err error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.transportErrs = append(u.transportErrs, err)
}

func (u *recordingUpcalls) framesSnapshot() []string {
	u.mu.Lock()
	defer u.mu.Unlock()
	out := make([]string, len(u.frames))
	copy(out, u.frames)
	return out
}

func newEchoWebSocketServer(t *testing.T) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for {
			mt, msg, err := conn.ReadMessage()
			if err != nil {
				return
			}
			if err := conn.WriteMessage(mt, msg); err != nil {
				return
			}
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestWebSocketTransportRoundTrip(t *testing.T) {
	srv := newEchoWebSocketServer(t)
	origin := srv.URL

	up := &recordingUpcalls{}
	tr := newWebSocketTransport(origin, http.Header{}, up)

	require.NoError(t, tr.Connect())
	defer tr.Invalidate()

	require.Eventually(t, func() bool {
		up.mu.Lock()
		defer up.mu.Unlock()
		return up.connected == 1
	}, time.Second, 5*time.Millisecond)

	require.NoError(t, tr.Send("3:::hello"))

	require.Eventually(t, func() bool {
		return len(up.framesSnapshot()) == 1
	}, time.Second, 5*time.Millisecond)

	assert.Equal(t, []string{"3:::hello"}, up.framesSnapshot())
}

func TestWebSocketTransportCanSendBulk(t *testing.T) {
	srv := newEchoWebSocketServer(t)
	origin := srv.URL

	up := &recordingUpcalls{}
	tr := newWebSocketTransport(origin, http.Header{}, up)
	require.NoError(t, tr.Connect())
	defer tr.Invalidate()

	assert.True(t, tr.CanSendBulk())
	require.NoError(t, tr.SendBulk([]string{"3:::a", "3:::b"}))

	require.Eventually(t, func() bool {
		return len(up.framesSnapshot()) == 2
	}, time.Second, 5*time.Millisecond)
}

func TestToWebSocketURL(t *testing.T) {
	assert.Equal(t, "ws://example.test/socket.io/1/websocket/", toWebSocketURL("http://example.test"))
	assert.Equal(t, "wss://example.test/socket.io/1/websocket/", toWebSocketURL("https://example.test/"))
}

var _ socketio.Transport = (*WebSocketTransport)(nil)
