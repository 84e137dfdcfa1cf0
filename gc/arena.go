package gc

import (
	"math"
	"slices"
	"sort"
	"sync"

	"go.uber.org/zap"

	scriptrt "github.com/wippyai/script-runtime"
	"github.com/wippyai/script-runtime/errors"
)

// Align is the alignment of every block.
const Align = 8

// Config controls where an arena lives in memory.
type Config struct {
	Logger *zap.Logger
	// Base is the lowest offset the arena may hand out. Values below Align
	// are raised to Align so that 0 stays null.
	Base uint32
	// Limit caps the bytes the arena may span above Base. 0 means the arena
	// is bounded only by how far the memory can grow.
	Limit uint32
}

type block struct {
	size uint32 // requested
	cap  uint32 // reserved
}

type span struct {
	off uint32
	len uint32
}

// Arena is an exact-size block allocator over linear memory.
// It is safe for concurrent use.
type Arena struct {
	mem    scriptrt.LinearMemory
	log    *zap.Logger
	blocks map[uint32]block
	free   []span
	stats  Stats
	end    uint64
	base   uint32
	top    uint32
	mu     sync.Mutex
}

var _ scriptrt.Allocator = (*Arena)(nil)

// NewArena creates an arena over mem.
func NewArena(mem scriptrt.LinearMemory, cfg Config) *Arena {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	base := alignUp(uint64(max(cfg.Base, Align)))
	end := uint64(math.MaxUint32)
	if cfg.Limit > 0 {
		end = min(end, base+uint64(cfg.Limit))
	}
	if base > math.MaxUint32 {
		// No aligned offset left above the base: every request fails.
		base, end = math.MaxUint32&^(Align-1), 0
	}

	return &Arena{
		mem:    mem,
		log:    log,
		blocks: make(map[uint32]block),
		end:    end,
		base:   uint32(base),
		top:    uint32(base),
	}
}

func alignUp(n uint64) uint64 {
	return (n + Align - 1) &^ (Align - 1)
}

// capacity is the reservation for a request of size bytes.
func capacity(size uint32) uint64 {
	return alignUp(uint64(max(size, 1)))
}

// Allocate reserves a block of exactly size bytes.
func (a *Arena) Allocate(size uint32) (uint32, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	ptr, c, err := a.reserve(size)
	if err != nil {
		a.stats.Failures++
		a.log.Warn("allocation failed", zap.Uint32("size", size), zap.Error(err))
		return 0, err
	}

	a.blocks[ptr] = block{size: size, cap: c}
	a.stats.Allocs++
	a.addLive(1, uint64(size))
	return ptr, nil
}

// Reallocate resizes the block at ptr to size bytes, preserving the first
// min(old, size) bytes. The block moves when it cannot be resized in place.
// On failure the original block is untouched. A ptr of 0 allocates.
func (a *Arena) Reallocate(ptr, size uint32) (uint32, error) {
	if ptr == 0 {
		return a.Allocate(size)
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	b, ok := a.blocks[ptr]
	if !ok {
		return 0, errors.InvalidPointer(errors.PhaseAlloc, ptr)
	}

	want := capacity(size)
	if want <= uint64(b.cap) {
		a.resized(ptr, b, block{size: size, cap: b.cap})
		return ptr, nil
	}

	if ptr+b.cap == a.top {
		newTop := uint64(ptr) + want
		if newTop <= a.end && a.ensure(newTop) == nil {
			a.top = uint32(newTop)
			a.resized(ptr, b, block{size: size, cap: uint32(want)})
			return ptr, nil
		}
	}

	nptr, c, err := a.reserve(size)
	if err != nil {
		a.stats.Failures++
		a.log.Warn("reallocation failed",
			zap.Uint32("ptr", ptr), zap.Uint32("size", size), zap.Error(err))
		return 0, err
	}

	// reserve may have grown memory, so read only now.
	data, err := a.mem.Read(ptr, min(b.size, size))
	if err == nil {
		err = a.mem.Write(nptr, data)
	}
	if err != nil {
		a.release(nptr, c)
		return 0, errors.Wrap(errors.PhaseAlloc, errors.KindOutOfBounds, err, "move block")
	}

	delete(a.blocks, ptr)
	a.release(ptr, b.cap)
	a.blocks[nptr] = block{size: size, cap: c}
	a.stats.Reallocs++
	a.stats.LiveBytes = a.stats.LiveBytes - uint64(b.size) + uint64(size)
	a.stats.PeakBytes = max(a.stats.PeakBytes, a.stats.LiveBytes)
	return nptr, nil
}

func (a *Arena) resized(ptr uint32, old, b block) {
	a.blocks[ptr] = b
	a.stats.Reallocs++
	a.stats.LiveBytes = a.stats.LiveBytes - uint64(old.size) + uint64(b.size)
	a.stats.PeakBytes = max(a.stats.PeakBytes, a.stats.LiveBytes)
}

// Free releases the block at ptr.
func (a *Arena) Free(ptr uint32) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	b, ok := a.blocks[ptr]
	if !ok {
		return errors.InvalidPointer(errors.PhaseAlloc, ptr)
	}

	delete(a.blocks, ptr)
	a.release(ptr, b.cap)
	a.stats.Frees++
	a.stats.LiveBlocks--
	a.stats.LiveBytes -= uint64(b.size)
	return nil
}

// Reset releases every block at once. Offsets handed out before Reset
// must not be used afterwards. Memory is kept for reuse.
func (a *Arena) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()

	released := len(a.blocks)
	clear(a.blocks)
	a.free = a.free[:0]
	a.top = a.base
	a.stats.Resets++
	a.stats.LiveBlocks = 0
	a.stats.LiveBytes = 0

	a.log.Debug("arena reset", zap.Int("blocks", released))
}

// SizeOf returns the requested size of the live block at ptr.
func (a *Arena) SizeOf(ptr uint32) (uint32, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	b, ok := a.blocks[ptr]
	return b.size, ok
}

// Stats returns a snapshot of the arena counters.
func (a *Arena) Stats() Stats {
	a.mu.Lock()
	defer a.mu.Unlock()

	s := a.stats
	s.HeapBytes = uint64(a.top - a.base)
	for _, f := range a.free {
		s.FreeBytes += uint64(f.len)
	}
	return s
}

func (a *Arena) addLive(blocks, bytes uint64) {
	a.stats.LiveBlocks += blocks
	a.stats.LiveBytes += bytes
	a.stats.PeakBytes = max(a.stats.PeakBytes, a.stats.LiveBytes)
}

// reserve finds room for size bytes: first fit from the free list, else the
// bump pointer.
func (a *Arena) reserve(size uint32) (uint32, uint32, error) {
	want := capacity(size)

	for i, s := range a.free {
		if uint64(s.len) < want {
			continue
		}
		if rest := uint64(s.len) - want; rest >= Align {
			a.free[i] = span{off: s.off + uint32(want), len: uint32(rest)}
			return s.off, uint32(want), nil
		}
		a.free = slices.Delete(a.free, i, i+1)
		return s.off, s.len, nil
	}

	newTop := uint64(a.top) + want
	if newTop > a.end {
		return 0, 0, errors.OutOfMemory(errors.PhaseAlloc, size)
	}
	if err := a.ensure(newTop); err != nil {
		return 0, 0, err
	}

	ptr := a.top
	a.top = uint32(newTop)
	return ptr, uint32(want), nil
}

// ensure grows memory so that offsets below end are addressable.
func (a *Arena) ensure(end uint64) error {
	size := uint64(a.mem.Size())
	if end <= size {
		return nil
	}

	pages := (end - size + scriptrt.PageSize - 1) / scriptrt.PageSize
	if pages > math.MaxUint32 {
		return errors.OutOfMemory(errors.PhaseAlloc, uint32(min(end-size, math.MaxUint32)))
	}
	prev, ok := a.mem.Grow(uint32(pages))
	if !ok {
		return errors.New(errors.PhaseAlloc, errors.KindOutOfMemory).
			Value(end).
			Detail("memory cannot grow by %d pages from %d", pages, prev).
			Build()
	}

	a.log.Debug("memory grown", zap.Uint32("from_pages", prev), zap.Uint64("added_pages", pages))
	return nil
}

// release returns [off, off+n) to the arena.
func (a *Arena) release(off, n uint32) {
	if off+n == a.top {
		a.top = off
		for len(a.free) > 0 {
			last := a.free[len(a.free)-1]
			if last.off+last.len != a.top {
				break
			}
			a.top = last.off
			a.free = a.free[:len(a.free)-1]
		}
		return
	}

	i := sort.Search(len(a.free), func(i int) bool { return a.free[i].off > off })
	s := span{off: off, len: n}

	if i < len(a.free) && s.off+s.len == a.free[i].off {
		s.len += a.free[i].len
		a.free = slices.Delete(a.free, i, i+1)
	}
	if i > 0 && a.free[i-1].off+a.free[i-1].len == s.off {
		a.free[i-1].len += s.len
		return
	}
	a.free = slices.Insert(a.free, i, s)
}
