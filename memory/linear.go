package memory

import (
	"encoding/binary"

	scriptrt "github.com/wippyai/script-runtime"
	"github.com/wippyai/script-runtime/errors"
)

// MaxPages is the largest page count whose byte size fits a uint32.
const MaxPages = 1<<16 - 1

// region implements bounds-checked access over a byte slice whose length is
// the current memory size.
type region struct {
	data []byte
}

func (r *region) span(offset, length uint32) ([]byte, error) {
	end := uint64(offset) + uint64(length)
	if end > uint64(len(r.data)) {
		return nil, errors.OutOfBounds(errors.PhaseMemory, offset, length)
	}
	return r.data[offset:end:end], nil
}

// Size returns the current memory size in bytes.
func (r *region) Size() uint32 {
	return uint32(len(r.data))
}

// Read returns a view of length bytes at offset.
func (r *region) Read(offset uint32, length uint32) ([]byte, error) {
	return r.span(offset, length)
}

// Write copies data to offset.
func (r *region) Write(offset uint32, data []byte) error {
	b, err := r.span(offset, uint32(len(data)))
	if err != nil {
		return err
	}
	copy(b, data)
	return nil
}

func (r *region) ReadU8(offset uint32) (uint8, error) {
	b, err := r.span(offset, 1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (r *region) ReadU16(offset uint32) (uint16, error) {
	b, err := r.span(offset, 2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

func (r *region) ReadU32(offset uint32) (uint32, error) {
	b, err := r.span(offset, 4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

func (r *region) ReadU64(offset uint32) (uint64, error) {
	b, err := r.span(offset, 8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

func (r *region) WriteU8(offset uint32, value uint8) error {
	b, err := r.span(offset, 1)
	if err != nil {
		return err
	}
	b[0] = value
	return nil
}

func (r *region) WriteU16(offset uint32, value uint16) error {
	b, err := r.span(offset, 2)
	if err != nil {
		return err
	}
	binary.LittleEndian.PutUint16(b, value)
	return nil
}

func (r *region) WriteU32(offset uint32, value uint32) error {
	b, err := r.span(offset, 4)
	if err != nil {
		return err
	}
	binary.LittleEndian.PutUint32(b, value)
	return nil
}

func (r *region) WriteU64(offset uint32, value uint64) error {
	b, err := r.span(offset, 8)
	if err != nil {
		return err
	}
	binary.LittleEndian.PutUint64(b, value)
	return nil
}

// Linear is linear memory backed by a Go byte slice.
type Linear struct {
	region
	maxPages uint32
}

var _ scriptrt.LinearMemory = (*Linear)(nil)

// NewLinear creates memory of initialPages pages that can grow to maxPages.
// maxPages of 0 or above MaxPages means MaxPages.
func NewLinear(initialPages, maxPages uint32) *Linear {
	if maxPages == 0 || maxPages > MaxPages {
		maxPages = MaxPages
	}
	if initialPages > maxPages {
		initialPages = maxPages
	}
	return &Linear{
		region:   region{data: make([]byte, int(initialPages)*scriptrt.PageSize)},
		maxPages: maxPages,
	}
}

// Grow appends zeroed pages. Views returned by Read before Grow may no
// longer alias the memory.
func (l *Linear) Grow(deltaPages uint32) (uint32, bool) {
	prev := uint32(len(l.data) / scriptrt.PageSize)
	if uint64(prev)+uint64(deltaPages) > uint64(l.maxPages) {
		return prev, false
	}
	if deltaPages > 0 {
		l.data = append(l.data, make([]byte, int(deltaPages)*scriptrt.PageSize)...)
	}
	return prev, true
}

// MaxPages returns the growth limit in pages.
func (l *Linear) MaxPages() uint32 {
	return l.maxPages
}
