package socketio

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendPlainBuffersUntilReadyThenFlushesInOrder(t *testing.T) {
	c := newConnection("http://example.test", nil)

	c.sendPlain("f1")
	c.sendPlain("f2")
	assert.Equal(t, 2, c.buffer.len())

	ft := &chattyTransport{up: c}
	c.mu.Lock()
	c.transport = ft
	c.mu.Unlock()

	c.Connected()

	assert.Equal(t, []string{"f1", "f2"}, ft.sentSnapshot())
	assert.Equal(t, 0, c.buffer.len())
}

func TestSetStateNoOpAfterInvalid(t *testing.T) {
	c := newConnection("http://example.test", nil)
	c.mu.Lock()
	c.state = Invalid
	c.mu.Unlock()

	c.setState(Ready)

	c.mu.Lock()
	defer c.mu.Unlock()
	assert.Equal(t, Invalid, c.state)
}

func TestCleanupIsIdempotent(t *testing.T) {
	c := newConnection("http://example.test", nil)
	sock := NewSocket("/ns", &recordingCallbacks{})
	require.True(t, c.register(sock))

	c.cleanup()
	c.cleanup()

	c.mu.Lock()
	defer c.mu.Unlock()
	assert.Equal(t, Invalid, c.state)
	assert.Empty(t, c.namespaces)
}

func TestHeartbeatWatchdogFiresOnSilence(t *testing.T) {
	c := newConnection("http://example.test", nil)
	cb := &recordingCallbacks{}
	sock := NewSocket("/ns", cb)
	require.True(t, c.register(sock))

	c.mu.Lock()
	c.heartbeatTimeout = 5 * time.Millisecond
	c.closingTimeout = 5 * time.Millisecond
	c.mu.Unlock()

	c.resetHeartbeat()
	time.Sleep(100 * time.Millisecond)

	cb.mu.Lock()
	require.Len(t, cb.errors, 1)
	assert.Contains(t, cb.errors[0].Message, "heartbeat")
	require.NotEmpty(t, cb.states, "cleanup must deliver OnState(Invalid), not just OnError")
	assert.Equal(t, Invalid, cb.states[len(cb.states)-1])
	cb.mu.Unlock()

	c.mu.Lock()
	defer c.mu.Unlock()
	assert.Equal(t, Invalid, c.state)
}

func TestResetHeartbeatIsNoOpOnceInvalid(t *testing.T) {
	c := newConnection("http://example.test", nil)
	c.mu.Lock()
	c.state = Invalid
	c.mu.Unlock()

	c.resetHeartbeat()

	c.mu.Lock()
	defer c.mu.Unlock()
	assert.Nil(t, c.heartbeatTimer)
}

func TestRegisterRefusesTakenNamespace(t *testing.T) {
	c := newConnection("http://example.test", nil)
	require.True(t, c.register(NewSocket("/chat", &recordingCallbacks{})))
	assert.False(t, c.register(NewSocket("/chat", &recordingCallbacks{})))
}

func TestRegisterSecondNamespaceSendsExplicitConnect(t *testing.T) {
	c, ft := readyConnection(t)
	require.True(t, c.register(NewSocket("/a", &recordingCallbacks{})))
	assert.Empty(t, ft.frames())

	require.True(t, c.register(NewSocket("/b", &recordingCallbacks{})))
	assert.Equal(t, []string{Encode(Msg{Type: Connect, Endpoint: "/b"})}, ft.frames())
}

func TestSendAfterInvalidationIsDropped(t *testing.T) {
	c, _ := readyConnection(t)
	sock := NewSocket("/chat", &recordingCallbacks{})
	require.True(t, c.register(sock))
	sock.conn = c

	c.cleanup()

	err := sock.Send("too late", nil)
	assert.ErrorIs(t, err, ErrConnectionClosed)

	c.sendPlain("also too late")
	assert.Equal(t, 0, c.buffer.len(), "frames submitted after INVALID must be dropped, not queued forever")
}

func TestUnregisterLastNamespaceCleansUpConnection(t *testing.T) {
	c, _ := readyConnection(t)
	sock := NewSocket("/only", &recordingCallbacks{})
	require.True(t, c.register(sock))
	sock.conn = c

	require.NoError(t, c.unregister(sock))

	c.mu.Lock()
	defer c.mu.Unlock()
	assert.Equal(t, Invalid, c.state)
}

func TestPanicInUserCallbackFaultsAllNamespacesAndInvalidates(t *testing.T) {
	c, _ := readyConnection(t)
	watcher := &recordingCallbacks{}
	require.True(t, c.register(NewSocket("/watch", watcher)))

	c.safeInvoke(func() { panic("kaboom") })

	watcher.mu.Lock()
	defer watcher.mu.Unlock()
	require.Len(t, watcher.errors, 1)
	assert.Contains(t, watcher.errors[0].Message, "kaboom")

	c.mu.Lock()
	defer c.mu.Unlock()
	assert.Equal(t, Invalid, c.state)
}
