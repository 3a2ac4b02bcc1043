package longpoll

import (
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

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

// newSingleShotPollServer replies once with body, then blocks every
// further poll until the request context is canceled, mimicking a
// long-poll server that has nothing further to say.
func newSingleShotPollServer(t *testing.T, body string) *httptest.Server {
	t.Helper()
	var served int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			io.Copy(io.Discard, r.Body)
			w.WriteHeader(http.StatusOK)
			return
		}
		if atomic.CompareAndSwapInt32(&served, 0, 1) {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte(body))
			return
		}
		<-r.Context().Done()
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestLongPollTransportDeliversFirstPollThenBlocks(t *testing.T) {
	srv := newSingleShotPollServer(t, "3:::hello")

	up := &recordingUpcalls{}
	tr := newLongPollTransport(srv.URL, http.Header{}, up)

	require.NoError(t, tr.Connect())
	defer tr.Invalidate()

	require.Eventually(t, func() bool {
		return len(up.framesSnapshot()) == 1
	}, time.Second, 5*time.Millisecond)

	assert.Equal(t, []string{"3:::hello"}, up.framesSnapshot())
}

func TestLongPollTransportSendPostsFrame(t *testing.T) {
	srv := newSingleShotPollServer(t, "")

	up := &recordingUpcalls{}
	tr := newLongPollTransport(srv.URL, http.Header{}, up)
	require.NoError(t, tr.Connect())
	defer tr.Invalidate()

	require.NoError(t, tr.Send("3:::hi"))
}

func TestLongPollTransportCannotSendBulk(t *testing.T) {
	up := &recordingUpcalls{}
	tr := newLongPollTransport("http://example.test", http.Header{}, up)

	assert.False(t, tr.CanSendBulk())
	err := tr.SendBulk([]string{"a", "b"})
	require.Error(t, err)
}

func TestToPollURL(t *testing.T) {
	assert.Equal(t, "http://example.test/socket.io/1/xhr-polling/", toPollURL("http://example.test"))
	assert.Equal(t, "https://example.test/socket.io/1/xhr-polling/", toPollURL("wss://example.test/"))
}

var _ socketio.Transport = (*LongPollTransport)(nil)
