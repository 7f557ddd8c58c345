// Package progress implements the fixed-size shared state a search worker
// and its cooperating requester use to exchange advisory progress text and
// a one-shot cancellation signal, per spec.md §5.
//
// The source shares raw process memory between a host and a worker
// process; here both sides live in one address space, so the "shared
// buffer" is a fixed-size byte array behind an atomic pointer (the worker
// publishes a fresh snapshot, the requester loads the latest one) and the
// cancellation byte is an atomic bool. Neither uses a mutex: the buffer is
// last-writer-wins and purely advisory, and the cancellation flag is
// written at most once per search.
package progress

import (
	"sync/atomic"
)

// BufferSize is the fixed size of the advisory progress line, matching the
// ≤64-byte budget spec.md §5 sets for the shared buffer.
const BufferSize = 64

// Channel is the shared state for one search: a progress line the worker
// publishes and the requester polls, plus the cancellation flag the
// requester sets and the worker polls at the start of every recursion frame.
type Channel struct {
	line      atomic.Pointer[[BufferSize]byte]
	cancelled atomic.Bool
}

// New returns a Channel with an empty progress line and no cancellation
// requested.
func New() *Channel {
	c := &Channel{}
	var empty [BufferSize]byte
	c.line.Store(&empty)
	return c
}

// Publish overwrites the progress line with text, truncated to BufferSize.
// Called only by the search worker.
func (c *Channel) Publish(text string) {
	var buf [BufferSize]byte
	copy(buf[:], text)
	c.line.Store(&buf)
}

// Read returns the current progress line with trailing NUL bytes trimmed.
// Called only by the requester.
func (c *Channel) Read() string {
	buf := c.line.Load()
	end := len(buf)
	for end > 0 && buf[end-1] == 0 {
		end--
	}
	return string(buf[:end])
}

// RequestCancel sets the cancellation flag. Idempotent; called at most
// once per search by the requester.
func (c *Channel) RequestCancel() { c.cancelled.Store(true) }

// Cancelled reports whether cancellation has been requested. Polled by the
// worker at the start of every recursion frame.
func (c *Channel) Cancelled() bool { return c.cancelled.Load() }
