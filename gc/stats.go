package gc

// Stats are allocator counters. Byte counts are requested sizes unless noted.
type Stats struct {
	Allocs     uint64
	Frees      uint64
	Reallocs   uint64
	Failures   uint64
	Resets     uint64
	LiveBlocks uint64
	LiveBytes  uint64
	PeakBytes  uint64
	HeapBytes  uint64 // reserved span between base and the bump pointer
	FreeBytes  uint64 // reserved bytes sitting on the free list
}
