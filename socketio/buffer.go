package socketio

import "sync"

// sendBuffer is the connection's pending-send queue. It carries its
// own mutex, separate from the connection's main monitor, so a frame
// submitted concurrently with a bulk flush can always be appended
// without waiting on whatever the flush is currently blocked on
// (spec.md §5: "additionally safe for lock-free append so that
// transient appends during a bulk flush do not deadlock").
type sendBuffer struct {
	mu     sync.Mutex
	frames []string
}

func (b *sendBuffer) append(frame string) {
	b.mu.Lock()
	b.frames = append(b.frames, frame)
	b.mu.Unlock()
}

// swap atomically replaces the buffer with an empty one and returns
// the snapshot that was in it.
func (b *sendBuffer) swap() []string {
	b.mu.Lock()
	old := b.frames
	b.frames = nil
	b.mu.Unlock()
	return old
}

// restore prepends old ahead of whatever was appended since swap.
// Order within old is preserved; frames appended during the flush
// attempt land at the tail rather than being interleaved by arrival
// time — spec.md §9's documented "bulk-flush restore race" behavior.
func (b *sendBuffer) restore(old []string) {
	if len(old) == 0 {
		return
	}
	b.mu.Lock()
	b.frames = append(old, b.frames...)
	b.mu.Unlock()
}

// popFront removes and returns the first frame, if any.
func (b *sendBuffer) popFront() (string, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.frames) == 0 {
		return "", false
	}
	f := b.frames[0]
	b.frames = b.frames[1:]
	return f, true
}

func (b *sendBuffer) len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.frames)
}
