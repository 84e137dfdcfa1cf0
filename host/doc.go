// Package host implements the runtime symbols imported by generated code.
//
// A Session is one guest's heap: its linear memory, the arena that owns every
// buffer in it, string operations over both, and the console. The wazero host
// module built by Module exports the symbols under the import module "env"
// and routes each call to the caller's Session by module name.
//
// # ABI
//
// Generated code follows the wasm32 C ABI. A String is the 8-byte struct
// { u32 length; u32 data }; functions returning one take a result pointer as
// their first argument, and String arguments are passed by pointer.
//
//	gc__allocate(size i32) -> i32
//	gc__reallocate(ptr i32, size i32) -> i32
//	gc__free(ptr i32)
//	string__constructor(ret i32, literal i32)
//	string__concat(ret i32, a i32, b i32)
//	console__log(ptr i32)
//	console__error(ptr i32)
//
// # Errors
//
// A failed call traps the guest. The error, with its kind preserved
// (out_of_memory, length_overflow, invalid_pointer, out_of_bounds), is
// returned from the host-side call that entered the guest.
package host
