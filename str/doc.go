// Package str implements the runtime string value and its operations.
//
// A String is a length and the offset of a buffer holding exactly that many
// bytes. Buffers come from a scriptrt.Allocator and belong to exactly one
// String: Construct, FromBytes and Concat always allocate a fresh buffer and
// copy into it, and never write to their inputs.
//
//	ops := str.New(mem, arena, nil)
//	a, _ := ops.FromBytes([]byte("foo"))
//	b, _ := ops.FromBytes([]byte("bar"))
//	c, _ := ops.Concat(a, b)
//	data, _ := ops.Bytes(c) // "foobar"
//
// Generated wasm32 code sees a String as the 8-byte struct
// { u32 length; u32 data } at some address; Load and Store convert.
//
// Bytes are opaque: no encoding is assumed or checked.
package str
