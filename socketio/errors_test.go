package socketio

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFaultErrorWithFrame(t *testing.T) {
	f := &Fault{Message: "garbage from server", Frame: "9:::x"}
	assert.Equal(t, `garbage from server: "9:::x"`, f.Error())
}

func TestFaultErrorWithCause(t *testing.T) {
	cause := errors.New("boom")
	f := &Fault{Message: "handshake failed", Cause: cause}
	assert.Equal(t, "handshake failed: boom", f.Error())
	assert.Same(t, cause, errors.Unwrap(f))
}

func TestFaultErrorMessageOnly(t *testing.T) {
	f := newFault("no heartbeat within lifetime", nil)
	assert.Equal(t, "no heartbeat within lifetime", f.Error())
}
