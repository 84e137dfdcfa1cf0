package scriptrt

// PageSize is the unit linear memory grows by.
const PageSize = 65536

// Memory represents 32-bit addressed linear memory
type Memory interface {
	Read(offset uint32, length uint32) ([]byte, error)
	Write(offset uint32, data []byte) error
	ReadU8(offset uint32) (uint8, error)
	ReadU16(offset uint32) (uint16, error)
	ReadU32(offset uint32) (uint32, error)
	ReadU64(offset uint32) (uint64, error)
	WriteU8(offset uint32, value uint8) error
	WriteU16(offset uint32, value uint16) error
	WriteU32(offset uint32, value uint32) error
	WriteU64(offset uint32, value uint64) error
}

// MemorySizer provides the current size of linear memory in bytes.
type MemorySizer interface {
	Size() uint32
}

// LinearMemory is memory an allocator can carve blocks from.
// Grow adds deltaPages pages and reports the previous page count;
// ok is false when the memory cannot grow that far.
type LinearMemory interface {
	Memory
	MemorySizer
	Grow(deltaPages uint32) (previousPages uint32, ok bool)
}

// Allocator hands out exact-size blocks of linear memory.
// Offset 0 is never a valid block.
type Allocator interface {
	Allocate(size uint32) (uint32, error)
	Reallocate(ptr, size uint32) (uint32, error)
	Free(ptr uint32) error
}
