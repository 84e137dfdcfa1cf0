package memory

import (
	"bytes"

	scriptrt "github.com/wippyai/script-runtime"
	"github.com/wippyai/script-runtime/errors"
)

const scanChunk = 256

// Sized is memory that knows its current size.
type Sized interface {
	scriptrt.Memory
	scriptrt.MemorySizer
}

// CStringLen returns the number of bytes at ptr before the first 0 byte.
// The scan stops at the end of memory; a missing terminator is an
// out-of-bounds error.
func CStringLen(mem Sized, ptr uint32) (uint32, error) {
	size := mem.Size()
	if ptr >= size {
		return 0, errors.OutOfBounds(errors.PhaseMemory, ptr, 1)
	}

	var n uint32
	for off := ptr; off < size; {
		chunk := uint32(scanChunk)
		if size-off < chunk {
			chunk = size - off
		}
		data, err := mem.Read(off, chunk)
		if err != nil {
			return 0, err
		}
		if i := bytes.IndexByte(data, 0); i >= 0 {
			return n + uint32(i), nil
		}
		n += chunk
		off += chunk
	}

	return 0, errors.New(errors.PhaseMemory, errors.KindOutOfBounds).
		Value(ptr).
		Detail("no terminator after offset %d", ptr).
		Build()
}

// ReadCString returns a copy of the terminated bytes at ptr, terminator excluded.
func ReadCString(mem Sized, ptr uint32) ([]byte, error) {
	n, err := CStringLen(mem, ptr)
	if err != nil {
		return nil, err
	}
	data, err := mem.Read(ptr, n)
	if err != nil {
		return nil, err
	}
	return bytes.Clone(data), nil
}
