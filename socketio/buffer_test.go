package socketio

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSendBufferAppendPreservesOrder(t *testing.T) {
	var b sendBuffer
	b.append("a")
	b.append("b")
	b.append("c")
	assert.Equal(t, 3, b.len())

	f, ok := b.popFront()
	assert.True(t, ok)
	assert.Equal(t, "a", f)
	f, ok = b.popFront()
	assert.True(t, ok)
	assert.Equal(t, "b", f)
}

func TestSendBufferSwapEmptiesBuffer(t *testing.T) {
	var b sendBuffer
	b.append("a")
	b.append("b")

	snap := b.swap()
	assert.Equal(t, []string{"a", "b"}, snap)
	assert.Equal(t, 0, b.len())
}

func TestSendBufferRestorePrependsOldAheadOfNewArrivals(t *testing.T) {
	var b sendBuffer
	b.append("a")
	b.append("b")

	snap := b.swap()
	b.append("c") // arrives concurrently with the (failed) flush attempt

	b.restore(snap)

	got := []string{}
	for {
		f, ok := b.popFront()
		if !ok {
			break
		}
		got = append(got, f)
	}
	assert.Equal(t, []string{"a", "b", "c"}, got)
}

func TestSendBufferRestoreNoOpOnEmptySnapshot(t *testing.T) {
	var b sendBuffer
	b.append("only")
	b.restore(nil)
	assert.Equal(t, 1, b.len())
}

func TestSendBufferPopFrontOnEmpty(t *testing.T) {
	var b sendBuffer
	_, ok := b.popFront()
	assert.False(t, ok)
}
