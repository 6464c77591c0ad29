// Package rowbuffer implements the bounded FIFO that carries rows from one
// producing step to one consuming step.
package rowbuffer

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/vk/streamgridgo/internal/row"
)

// DefaultSize is the capacity used when none is configured.
const DefaultSize = 10000

// ErrStopped is returned by Put and Get once the buffer has been aborted.
var ErrStopped = errors.New("row buffer stopped")

// ErrClosed is returned by Put after the producer closed the buffer.
var ErrClosed = errors.New("row buffer closed")

// Buffer is a bounded row queue between exactly one producer and one
// consumer. Put blocks while the buffer is full and Get blocks while it is
// empty; Abort wakes both.
type Buffer struct {
	Name string

	rows   chan row.Row
	done   chan struct{}
	abort  sync.Once
	closed atomic.Bool
	failed atomic.Bool
	meta   *row.Meta
}

// New creates a buffer holding at most size rows. Non-positive sizes use
// DefaultSize.
func New(name string, size int) *Buffer {
	if size <= 0 {
		size = DefaultSize
	}
	return &Buffer{
		Name: name,
		rows: make(chan row.Row, size),
		done: make(chan struct{}),
	}
}

// Cap returns the buffer capacity.
func (b *Buffer) Cap() int { return cap(b.rows) }

// Len returns the number of rows currently queued.
func (b *Buffer) Len() int { return len(b.rows) }

// SetMeta records the row layout flowing through the buffer.
func (b *Buffer) SetMeta(m *row.Meta) { b.meta = m }

// Meta returns the row layout flowing through the buffer, if known.
func (b *Buffer) Meta() *row.Meta { return b.meta }

// Put enqueues r, blocking while the buffer is full.
func (b *Buffer) Put(ctx context.Context, r row.Row) error {
	if b.closed.Load() {
		return ErrClosed
	}
	select {
	case <-b.done:
		return ErrStopped
	default:
	}
	select {
	case b.rows <- r:
		return nil
	case <-b.done:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Get dequeues the next row. It returns ok=false once the producer closed the
// buffer and every queued row has been read.
func (b *Buffer) Get(ctx context.Context) (row.Row, bool, error) {
	select {
	case <-b.done:
		return nil, false, ErrStopped
	default:
	}
	select {
	case r, ok := <-b.rows:
		return r, ok, nil
	case <-b.done:
		return nil, false, ErrStopped
	case <-ctx.Done():
		return nil, false, ctx.Err()
	}
}

// Close marks end-of-stream. Only the producer calls it; failed flags the
// stream as ending with an error. Rows already queued remain readable.
func (b *Buffer) Close(failed bool) {
	if b.closed.Swap(true) {
		return
	}
	b.failed.Store(failed)
	close(b.rows)
}

// Failed reports whether the producer closed the stream with an error.
func (b *Buffer) Failed() bool { return b.failed.Load() }

// Closed reports whether the producer closed the stream.
func (b *Buffer) Closed() bool { return b.closed.Load() }

// Abort stops the buffer, waking any blocked Put or Get. It is safe to call
// from any goroutine, any number of times.
func (b *Buffer) Abort() {
	b.abort.Do(func() { close(b.done) })
}

// Done is closed when the buffer is aborted.
func (b *Buffer) Done() <-chan struct{} { return b.done }
