package gc

import (
	"sync"

	scriptrt "github.com/wippyai/script-runtime"
	"github.com/wippyai/script-runtime/errors"
)

// Faulty wraps an allocator and fails a chosen future request with
// out_of_memory. Free is always passed through.
type Faulty struct {
	scriptrt.Allocator
	remaining int
	mu        sync.Mutex
}

// NewFaulty wraps inner, initially disarmed.
func NewFaulty(inner scriptrt.Allocator) *Faulty {
	return &Faulty{Allocator: inner, remaining: -1}
}

// FailNext makes the next Allocate or Reallocate fail.
func (f *Faulty) FailNext() {
	f.FailAfter(0)
}

// FailAfter lets n requests through and fails the one after. It fires once.
func (f *Faulty) FailAfter(n int) {
	f.mu.Lock()
	f.remaining = n
	f.mu.Unlock()
}

// Disarm cancels a pending failure.
func (f *Faulty) Disarm() {
	f.FailAfter(-1)
}

func (f *Faulty) trip() bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	switch {
	case f.remaining < 0:
		return false
	case f.remaining == 0:
		f.remaining = -1
		return true
	default:
		f.remaining--
		return false
	}
}

func (f *Faulty) Allocate(size uint32) (uint32, error) {
	if f.trip() {
		return 0, errors.OutOfMemory(errors.PhaseAlloc, size)
	}
	return f.Allocator.Allocate(size)
}

func (f *Faulty) Reallocate(ptr, size uint32) (uint32, error) {
	if f.trip() {
		return 0, errors.OutOfMemory(errors.PhaseAlloc, size)
	}
	return f.Allocator.Reallocate(ptr, size)
}
