// Package systembytes implements the 32-bit correlation identifier allocator
// used to pair primary and secondary SECS messages.
package systembytes

import (
	"sync"

	"github.com/golang-collections/collections/queue"
	"github.com/golang-collections/collections/set"
	"github.com/nexosec/gosecs/pkg/secserr"
)

// Allocator hands out non-zero uint32 SystemBytes values, reusing released
// values before minting new ones, and wraps past 0xFFFFFFFF back to 1. It is
// safe for concurrent use.
type Allocator struct {
	mu     sync.Mutex
	next   uint32
	free   *queue.Queue
	inUse  *set.Set
}

// New returns an Allocator with its counter starting at 1.
func New() *Allocator {
	return &Allocator{
		next:  1,
		free:  queue.New(),
		inUse: set.New(),
	}
}

// Allocate returns a fresh, currently-unused SystemBytes value. It never
// returns 0. If the free list and counter space are both exhausted (every
// value in [1, 2^32) is in use) it returns a buffer_overflow error.
func (a *Allocator) Allocate() (uint32, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.free.Len() > 0 {
		sb := a.free.Dequeue().(uint32)
		a.inUse.Insert(sb)
		return sb, nil
	}

	attempts := a.inUse.Len() + 2
	for i := 0; i < attempts; i++ {
		candidate := a.next
		a.advance()
		if candidate == 0 {
			continue
		}
		if !a.inUse.Has(candidate) {
			a.inUse.Insert(candidate)
			return candidate, nil
		}
	}
	return 0, secserr.New(secserr.CategoryCore, secserr.CodeBufferOverflow, "system bytes space exhausted")
}

// advance increments next, wrapping past 0xFFFFFFFF back to 1 (0 is never a
// valid allocation).
func (a *Allocator) advance() {
	if a.next == 0xFFFFFFFF {
		a.next = 1
		return
	}
	a.next++
}

// Release returns sb to the free list. Releasing 0 or a value not currently
// in use is a no-op.
func (a *Allocator) Release(sb uint32) {
	if sb == 0 {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.inUse.Has(sb) {
		return
	}
	a.inUse.Remove(sb)
	a.free.Enqueue(sb)
}

// IsInUse reports whether sb is currently allocated.
func (a *Allocator) IsInUse(sb uint32) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.inUse.Has(sb)
}

// InUseCount returns the number of currently outstanding allocations.
func (a *Allocator) InUseCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.inUse.Len()
}
