// Package scriptrt is the runtime support layer for programs produced by the
// script compiler.
//
// Generated wasm32 code links against a handful of runtime symbols: heap
// allocation (gc__allocate, gc__reallocate), an immutable string value
// (string__constructor, string__concat) and console output (console__log,
// console__error). This module implements those symbols in Go, both as a
// library and as a wazero host module that guest programs import as "env".
//
// # Architecture Overview
//
//	scriptrt/           Root package with core Memory and Allocator interfaces
//	├── memory/         Linear memory backings: Go slice, mmap, wazero
//	├── gc/             Arena allocator with bulk reset and fault injection
//	├── str/            String value type and string operations
//	├── console/        Console output collaborator
//	├── host/           Heap sessions and the "env" host module
//	├── runtime/        High-level API for loading and running guest programs
//	├── config/         YAML configuration
//	├── errors/         Structured error types
//	└── cmd/run/        CLI runner and interactive string playground
//
// # Quick Start
//
// Run a compiled program:
//
//	rt, err := runtime.New(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer rt.Close(ctx)
//
//	mod, err := rt.Load(ctx, wasmBytes)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	inst, err := mod.Instantiate(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer inst.Close(ctx)
//
//	if err := inst.Run(ctx); err != nil {
//	    log.Fatal(err)
//	}
//
// Use strings without a guest:
//
//	sess, err := host.NewStandaloneSession(config.Default(), console.Std(), nil)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer sess.Close()
//
//	a, _ := sess.Strings.FromBytes([]byte("foo"))
//	b, _ := sess.Strings.FromBytes([]byte("bar"))
//	c, _ := sess.Strings.Concat(a, b) // "foobar", its own buffer
//
// # String Values
//
// A string value is a (length, data) pair where data is the offset of a
// buffer of exactly length bytes. Every operation that produces a string
// allocates a fresh buffer and copies into it; inputs are never modified and
// no two values share a buffer.
//
// # Memory Model
//
// Buffers live in linear memory owned by an arena. Individual strings can be
// released, and the whole arena can be reset at the end of a unit of work.
// Linear memory itself only grows; an instance releases it when closed.
//
// # Thread Safety
//
// Runtime and Module are safe for concurrent use. Instance is NOT thread-safe
// and should be used by a single goroutine. The arena allocator locks
// internally.
package scriptrt
