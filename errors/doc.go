// Package errors provides structured error types for the script runtime.
//
// Errors are categorized by Phase (where the error occurred) and Kind (error category).
// The Error type carries a detail message, the offending value and a cause chain.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseConcat, errors.KindLengthOverflow).
//		Value(total).
//		Detail("combined length %d does not fit u32", total).
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.OutOfMemory(errors.PhaseAlloc, 1024)
//	err := errors.InvalidPointer(errors.PhaseAlloc, ptr)
//
// All errors implement the standard error interface and support errors.Is/As.
// IsKind checks for a kind anywhere in the chain, which is how callers detect
// an out-of-memory condition raised by the allocator beneath a string operation.
package errors
