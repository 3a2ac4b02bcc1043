// Package longpoll is the XHR long-poll half of the transport plugin
// pair (spec.md §4.3/§4.12): blank-import it to register "xhr-polling"
// with the core's transport factory, independently of the WebSocket
// transport in package websocket.
package longpoll

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"sync"

	"golang.org/x/net/publicsuffix"

	"github.com/gosio09/sio09/debug"
	"github.com/gosio09/sio09/socketio"
)

func init() {
	socketio.RegisterTransport("xhr-polling", newLongPollTransport)
}

// LongPollTransport is reworked from the teacher's poll-into-a-channel
// design (kleeedolinux-socket.go/socket/transport/longpolling.go) into
// a push-based loop that hands each poll response straight to the
// core's Data upcall, which applies the framed-datagram unwrap
// (message.go) since this transport cannot preserve message boundaries
// on its own. Carries a cookie jar so a load balancer's sticky-session
// cookie survives across the repeated poll requests that make up one
// logical session.
type LongPollTransport struct {
	mu        sync.Mutex
	client    *http.Client
	url       string
	headers   http.Header
	upcalls   socketio.Upcalls
	connected bool

	ctx    context.Context
	cancel context.CancelFunc
}

func newLongPollTransport(origin string, headers http.Header, upcalls socketio.Upcalls) socketio.Transport {
	jar, _ := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	return &LongPollTransport{
		client:  &http.Client{Jar: jar},
		url:     toPollURL(origin),
		headers: headers,
		upcalls: upcalls,
	}
}

func toPollURL(origin string) string {
	url := origin
	switch {
	case strings.HasPrefix(url, "wss://"):
		url = "https://" + strings.TrimPrefix(url, "wss://")
	case strings.HasPrefix(url, "ws://"):
		url = "http://" + strings.TrimPrefix(url, "ws://")
	}
	return strings.TrimRight(url, "/") + "/socket.io/1/xhr-polling/"
}

func (t *LongPollTransport) sessionURL() string {
	return t.url + t.headers.Get("sessionId")
}

func (t *LongPollTransport) Connect() error {
	t.mu.Lock()
	if t.connected {
		t.mu.Unlock()
		return nil
	}
	if tlsCfg := socketio.TLSConfig(); tlsCfg != nil && strings.HasPrefix(t.url, "https://") {
		t.client.Transport = &http.Transport{TLSClientConfig: tlsCfg}
	}
	ctx, cancel := context.WithCancel(context.Background())
	t.ctx = ctx
	t.cancel = cancel
	t.connected = true
	t.mu.Unlock()

	debug.Printf("longpoll: opening %s", t.sessionURL())

	t.upcalls.Connected()
	go t.pollLoop()
	return nil
}

func (t *LongPollTransport) pollLoop() {
	for {
		t.mu.Lock()
		ctx := t.ctx
		connected := t.connected
		t.mu.Unlock()
		if !connected {
			return
		}

		body, err := t.pollOnce(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return // Disconnect/Invalidate canceled us; no further upcalls
			}
			t.mu.Lock()
			t.connected = false
			t.mu.Unlock()
			t.upcalls.TransportError(err)
			return
		}
		if body == "" {
			continue
		}
		t.upcalls.Data(body)
	}
}

func (t *LongPollTransport) pollOnce(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.sessionURL(), nil)
	if err != nil {
		return "", err
	}
	t.applyHeaders(req)

	resp, err := t.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("long-poll returned status %s", resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func (t *LongPollTransport) applyHeaders(req *http.Request) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for k, values := range t.headers {
		for _, v := range values {
			req.Header.Add(k, v)
		}
	}
}

func (t *LongPollTransport) Send(frame string) error {
	t.mu.Lock()
	connected := t.connected
	ctx := t.ctx
	t.mu.Unlock()
	if !connected {
		return errNotConnected
	}

	payload := socketio.Wrap([]string{frame})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.sessionURL(), bytes.NewReader([]byte(payload)))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	t.applyHeaders(req)

	resp, err := t.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("long-poll send returned status %s", resp.Status)
	}
	return nil
}

// CanSendBulk is false: unlike the WebSocket transport, the teacher's
// own LongPollingTransport never implemented BatchTransport either —
// one HTTP POST per frame is the honest cost model for this transport.
func (t *LongPollTransport) CanSendBulk() bool { return false }

func (t *LongPollTransport) SendBulk(frames []string) error {
	return errors.New("longpoll: SendBulk unsupported, CanSendBulk is always false")
}

func (t *LongPollTransport) Disconnect() error {
	t.mu.Lock()
	connected := t.connected
	cancel := t.cancel
	t.connected = false
	t.mu.Unlock()
	if !connected {
		return nil
	}
	if cancel != nil {
		cancel()
	}
	return nil
}

func (t *LongPollTransport) Invalidate() {
	t.mu.Lock()
	cancel := t.cancel
	t.connected = false
	t.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}
