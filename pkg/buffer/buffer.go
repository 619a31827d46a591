// Package buffer implements a growing byte buffer with a small inline
// allocation that promotes to the heap on demand, used by the wire-level
// readers (SECS-I block reassembly, HSMS frame reads) to avoid a heap
// allocation per message on the common, small-message path.
package buffer

import "github.com/nexosec/gosecs/pkg/secserr"

var bufferOverflowError = secserr.New(secserr.CategoryCore, secserr.CodeBufferOverflow, "buffer exceeded max capacity")

const (
	// DefaultInlineCapacity is the size of the buffer's inline storage.
	// Most SECS-II messages (status requests, simple acks) fit comfortably
	// within this, so the common path never touches the heap.
	DefaultInlineCapacity = 8 * 1024

	// DefaultMaxCapacity bounds how large a single buffer may grow; it
	// mirrors the HSMS default max payload size (§6.6).
	DefaultMaxCapacity = 16 * 1024 * 1024
)

// Buffer is a read/write-cursor byte buffer. The zero value is not usable;
// construct with New. It is not safe for concurrent use.
type Buffer struct {
	inline      [DefaultInlineCapacity]byte
	heap        []byte
	maxCapacity int
	readPos     int
	writePos    int
}

// New creates a Buffer with the given max capacity. A maxCapacity of 0 uses
// DefaultMaxCapacity.
func New(maxCapacity int) *Buffer {
	if maxCapacity <= 0 {
		maxCapacity = DefaultMaxCapacity
	}
	return &Buffer{maxCapacity: maxCapacity}
}

func (b *Buffer) storage() []byte {
	if b.heap != nil {
		return b.heap
	}
	return b.inline[:]
}

// Len returns the number of unread bytes.
func (b *Buffer) Len() int {
	return b.writePos - b.readPos
}

// Cap returns the current storage capacity (inline or heap).
func (b *Buffer) Cap() int {
	return len(b.storage())
}

// Reset discards all buffered data without releasing heap storage.
func (b *Buffer) Reset() {
	b.readPos = 0
	b.writePos = 0
}

// Readable returns the unread region. The returned slice is only valid until
// the next mutating call.
func (b *Buffer) Readable() []byte {
	return b.storage()[b.readPos:b.writePos]
}

// Consume advances the read cursor by n bytes; it panics if n exceeds Len(),
// since that indicates a caller bug rather than a recoverable I/O condition.
func (b *Buffer) Consume(n int) {
	if n < 0 || n > b.Len() {
		panic("buffer: consume out of range")
	}
	b.readPos += n
	if b.readPos == b.writePos {
		b.readPos, b.writePos = 0, 0
	}
}

// compact moves the unread region to the start of storage, reclaiming space
// freed by prior Consume calls without growing.
func (b *Buffer) compact() {
	if b.readPos == 0 {
		return
	}
	n := copy(b.storage(), b.Readable())
	b.readPos = 0
	b.writePos = n
}

// Writable returns a slice with at least n bytes of free capacity at its
// write cursor, growing the buffer (promoting to heap if necessary) as
// needed. It returns ErrBufferOverflow if n would exceed the configured max
// capacity.
func (b *Buffer) Writable(n int) ([]byte, error) {
	if err := b.ensureWritable(n); err != nil {
		return nil, err
	}
	s := b.storage()
	return s[b.writePos : b.writePos+n], nil
}

// Commit advances the write cursor by n bytes, after the caller has filled
// the slice previously returned by Writable.
func (b *Buffer) Commit(n int) {
	if n < 0 || b.writePos+n > len(b.storage()) {
		panic("buffer: commit out of range")
	}
	b.writePos += n
}

// Append copies data into the buffer, growing as needed.
func (b *Buffer) Append(data []byte) error {
	dst, err := b.Writable(len(data))
	if err != nil {
		return err
	}
	copy(dst, data)
	b.Commit(len(data))
	return nil
}

func (b *Buffer) ensureWritable(n int) error {
	if b.writePos+n <= len(b.storage()) {
		return nil
	}

	b.compact()
	if b.writePos+n <= len(b.storage()) {
		return nil
	}

	return b.grow(b.writePos + n)
}

func (b *Buffer) grow(minCapacity int) error {
	if minCapacity > b.maxCapacity {
		return bufferOverflowError
	}

	newCap := len(b.storage()) * 2
	if newCap < minCapacity {
		newCap = minCapacity
	}
	if newCap > b.maxCapacity {
		newCap = b.maxCapacity
	}

	grown := make([]byte, newCap)
	copy(grown, b.storage()[:b.writePos])
	b.heap = grown
	return nil
}
