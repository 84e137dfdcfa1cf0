// Package gc provides the allocator behind gc__allocate and gc__reallocate.
//
// Despite the name there is no collector. An Arena carves exact-size blocks
// out of a scriptrt.LinearMemory and owns every block it hands out. Blocks
// can be freed one at a time, and the whole arena can be Reset at the end of a
// unit of work, which releases everything in bulk.
//
// # Layout
//
// Blocks are 8-byte aligned and start at or above the configured base; offset
// 0 is never returned so that it can mean null. A zero-size request still
// reserves a distinct block. Freed blocks go to a coalescing free list that is
// searched first-fit before the bump pointer advances; freeing the topmost
// block lowers the bump pointer instead. When the bump pointer passes the end
// of memory the arena grows the memory by whole pages.
//
// Reused blocks are not zeroed.
//
// # Failure
//
// Requests beyond the arena limit, or that the memory cannot grow to satisfy,
// fail with an out_of_memory error and leave the arena unchanged. Faulty wraps
// any allocator to inject that failure on demand.
package gc
