//go:build !unix

package memory

import (
	"github.com/wippyai/script-runtime/errors"
)

// Mapped is unavailable on this platform.
type Mapped struct {
	region
}

// NewMapped always fails on platforms without mmap.
func NewMapped(initialPages, maxPages uint32) (*Mapped, error) {
	return nil, errors.Unsupported(errors.PhaseMemory, "mapped memory")
}

func (m *Mapped) Grow(deltaPages uint32) (uint32, bool) {
	return 0, false
}

func (m *Mapped) Close() error {
	return nil
}
