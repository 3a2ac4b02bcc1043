package socketio

import (
	"net/http"
	"sync"
)

// chattyTransport is a Transport stub that connects instantly and
// records every frame it is asked to send, used by tests that need a
// working transport without touching the network.
type chattyTransport struct {
	mu   sync.Mutex
	up   Upcalls
	sent []string
}

func init() {
	RegisterTransport("websocket", func(origin string, headers http.Header, upcalls Upcalls) Transport {
		return &chattyTransport{up: upcalls}
	})
}

func (t *chattyTransport) Connect() error {
	t.up.Connected()
	return nil
}

func (t *chattyTransport) Disconnect() error { return nil }
func (t *chattyTransport) Invalidate()       {}
func (t *chattyTransport) CanSendBulk() bool { return false }

func (t *chattyTransport) Send(frame string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.sent = append(t.sent, frame)
	return nil
}

func (t *chattyTransport) SendBulk(frames []string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.sent = append(t.sent, frames...)
	return nil
}

func (t *chattyTransport) sentSnapshot() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]string, len(t.sent))
	copy(out, t.sent)
	return out
}
