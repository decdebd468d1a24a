package executor

import (
	"bytes"
	"sync"
)

// boundedBuffer captures one output stream up to limit bytes. The first
// write that would exceed the limit is dropped whole and triggers
// onOverflow; later writes are discarded. Writes never fail so the copy
// goroutine keeps draining the pipe until the process dies.
type boundedBuffer struct {
	mu         sync.Mutex
	buf        bytes.Buffer
	limit      int64
	overflowed bool
	onOverflow func()
}

func newBoundedBuffer(limit int64, onOverflow func()) *boundedBuffer {
	return &boundedBuffer{limit: limit, onOverflow: onOverflow}
}

func (b *boundedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	if b.overflowed {
		b.mu.Unlock()
		return len(p), nil
	}
	if int64(b.buf.Len())+int64(len(p)) > b.limit {
		b.overflowed = true
		b.mu.Unlock()
		if b.onOverflow != nil {
			b.onOverflow()
		}
		return len(p), nil
	}
	b.buf.Write(p)
	b.mu.Unlock()
	return len(p), nil
}

func (b *boundedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func (b *boundedBuffer) Overflowed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.overflowed
}
