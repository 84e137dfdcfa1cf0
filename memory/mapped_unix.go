//go:build unix

package memory

import (
	"fmt"

	"golang.org/x/sys/unix"

	scriptrt "github.com/wippyai/script-runtime"
)

// Mapped is linear memory backed by an anonymous private mapping reserved
// up front at its maximum size. Growing only extends the visible length, so
// views stay valid across Grow.
type Mapped struct {
	region
	mapping []byte
}

var _ scriptrt.LinearMemory = (*Mapped)(nil)

// NewMapped reserves maxPages pages and exposes initialPages of them.
// A maxPages of 0 reserves MaxPages, nearly 4 GiB of address space.
func NewMapped(initialPages, maxPages uint32) (*Mapped, error) {
	if maxPages == 0 || maxPages > MaxPages {
		maxPages = MaxPages
	}
	if initialPages > maxPages {
		initialPages = maxPages
	}

	mapping, err := unix.Mmap(-1, 0, int(maxPages)*scriptrt.PageSize,
		unix.PROT_READ|unix.PROT_WRITE, unix.MAP_PRIVATE|unix.MAP_ANON)
	if err != nil {
		return nil, fmt.Errorf("mmap %d pages: %w", maxPages, err)
	}

	return &Mapped{
		region:  region{data: mapping[:int(initialPages)*scriptrt.PageSize]},
		mapping: mapping,
	}, nil
}

// Grow exposes more of the reservation.
func (m *Mapped) Grow(deltaPages uint32) (uint32, bool) {
	prev := uint32(len(m.data) / scriptrt.PageSize)
	next := uint64(prev) + uint64(deltaPages)
	if m.mapping == nil || next*scriptrt.PageSize > uint64(len(m.mapping)) {
		return prev, false
	}
	m.data = m.mapping[:next*scriptrt.PageSize]
	return prev, true
}

// Close unmaps the reservation. The memory is unusable afterwards.
func (m *Mapped) Close() error {
	if m.mapping == nil {
		return nil
	}
	err := unix.Munmap(m.mapping)
	m.mapping = nil
	m.data = nil
	return err
}
