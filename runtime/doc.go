// Package runtime provides the high-level API for running compiled programs.
//
// # Quick Start
//
//	ctx := context.Background()
//	rt, err := runtime.New(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer rt.Close(ctx)
//
//	// Compile and check imports
//	mod, err := rt.Load(ctx, wasmBytes)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// Create an instance with its own heap
//	inst, err := mod.Instantiate(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer inst.Close(ctx)
//
//	// Run _start or main
//	if err := inst.Run(ctx); err != nil {
//	    log.Fatal(err)
//	}
//
// # Configuration
//
// Options override the defaults from the config package:
//
//	cfg, err := config.Load("runtime.yaml")
//	rt, err := runtime.New(ctx,
//	    runtime.WithConfig(cfg),
//	    runtime.WithLogger(logger),
//	    runtime.WithConsole(console.New(&out, &errOut)),
//	)
//
// # Imports
//
// Load rejects modules importing anything the runtime does not provide. The
// "env" module is always available; wasi_snapshot_preview1 is available when
// engine.wasi is enabled. The returned *errors.MissingImportsError lists every
// unresolved import grouped by module.
//
// # Heap
//
// Each instance gets a heap session over its exported "memory". The arena
// starts at the exported __heap_base global, or above the initial memory when
// the module does not export one. Strings built by the guest can be read back
// with Instance.ReadString or through Instance.Strings.
//
// # Errors
//
// A runtime call that fails traps the guest. Call and Run return the error
// with its kind preserved, so callers can test it with errors.IsKind:
//
//	if errors.IsKind(err, errors.KindOutOfMemory) {
//	    // heap limit reached
//	}
//
// # Thread Safety
//
// Runtime and Module are safe for concurrent use. Instance is NOT thread-safe
// and should be used by a single goroutine.
package runtime
