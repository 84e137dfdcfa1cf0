// Package memory provides linear memory backings for the script runtime.
//
// Every backing implements scriptrt.LinearMemory: bounds-checked reads and
// writes at 32-bit offsets plus page-granular growth, which is what the gc
// arena needs to carve blocks.
//
// # Backings
//
//	mem := memory.WrapMemory(instance.Memory()) // guest memory owned by wazero
//	mem := memory.NewLinear(1, 256)             // Go slice, 1 page, grows to 256
//	mem, err := memory.NewMapped(1, 256)        // anonymous mmap reservation (unix)
//
// Read returns a view into the backing, not a copy. A view is valid until the
// next Grow; callers that allocate between reading and writing must read again.
//
// # Terminated strings
//
// CStringLen and ReadCString scan for the 0 terminator used by string
// literals in generated code, bounded by the current memory size.
package memory
