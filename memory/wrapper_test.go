package memory

import (
	"context"
	"testing"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"

	"github.com/wippyai/script-runtime/errors"
)

// memoryWASM is a minimal WASM module with 1 page of memory exported as "memory"
var memoryWASM = []byte{
	0x00, 0x61, 0x73, 0x6d, // magic
	0x01, 0x00, 0x00, 0x00, // version
	0x05, 0x03, 0x01, 0x00, 0x01, // memory section: 1 page, no max
	0x07, 0x0a, 0x01, // export section: 10 bytes, 1 export
	0x06, 0x6d, 0x65, 0x6d, 0x6f, 0x72, 0x79, // name: "memory" (6 bytes + string)
	0x02, 0x00, // kind: memory, index 0
}

func instantiateMemory(t *testing.T, limitPages uint32) api.Module {
	t.Helper()
	ctx := context.Background()

	cfg := wazero.NewRuntimeConfig()
	if limitPages > 0 {
		cfg = cfg.WithMemoryLimitPages(limitPages)
	}
	rt := wazero.NewRuntimeWithConfig(ctx, cfg)
	t.Cleanup(func() { rt.Close(ctx) })

	compiled, err := rt.CompileModule(ctx, memoryWASM)
	if err != nil {
		t.Fatalf("failed to compile: %v", err)
	}

	mod, err := rt.InstantiateModule(ctx, compiled, wazero.NewModuleConfig())
	if err != nil {
		t.Fatalf("failed to instantiate: %v", err)
	}
	return mod
}

func TestWrapMemory_Nil(t *testing.T) {
	mem := WrapMemory(nil)
	if mem != nil {
		t.Error("expected nil for nil memory")
	}
}

func TestWrapper_ReadWrite(t *testing.T) {
	mod := instantiateMemory(t, 0)
	mem := WrapMemory(mod.ExportedMemory("memory"))
	if mem == nil {
		t.Fatal("expected non-nil wrapped memory")
	}

	data := []byte{1, 2, 3, 4}
	if err := mem.Write(0, data); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	read, err := mem.Read(0, 4)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	for i, b := range read {
		if b != data[i] {
			t.Errorf("byte %d: expected %d, got %d", i, data[i], b)
		}
	}
}

func TestWrapper_OutOfBounds(t *testing.T) {
	mod := instantiateMemory(t, 0)
	mem := WrapMemory(mod.ExportedMemory("memory"))

	if _, err := mem.Read(65536, 1); !errors.IsKind(err, errors.KindOutOfBounds) {
		t.Errorf("Read past end: expected out_of_bounds, got %v", err)
	}
	if err := mem.Write(65536, []byte{1}); !errors.IsKind(err, errors.KindOutOfBounds) {
		t.Errorf("Write past end: expected out_of_bounds, got %v", err)
	}
	if _, err := mem.ReadU32(65534); err == nil {
		t.Error("expected error for straddling read")
	}
}

func TestWrapper_Grow(t *testing.T) {
	mod := instantiateMemory(t, 2)
	mem := WrapMemory(mod.ExportedMemory("memory"))

	if mem.Size() != 65536 {
		t.Fatalf("Size = %d, want 65536", mem.Size())
	}

	prev, ok := mem.Grow(1)
	if !ok || prev != 1 {
		t.Fatalf("Grow(1) = %d, %v; want 1, true", prev, ok)
	}
	if mem.Size() != 2*65536 {
		t.Errorf("Size after grow = %d, want %d", mem.Size(), 2*65536)
	}

	if _, ok := mem.Grow(1); ok {
		t.Error("Grow past memory limit should fail")
	}
}

func TestWrapper_IntegerReadWrite(t *testing.T) {
	mod := instantiateMemory(t, 0)
	mem := WrapMemory(mod.ExportedMemory("memory"))

	if err := mem.WriteU8(0, 42); err != nil {
		t.Fatalf("WriteU8 failed: %v", err)
	}
	v8, err := mem.ReadU8(0)
	if err != nil {
		t.Fatalf("ReadU8 failed: %v", err)
	}
	if v8 != 42 {
		t.Errorf("ReadU8: expected 42, got %d", v8)
	}

	if err := mem.WriteU16(0, 0x1234); err != nil {
		t.Fatalf("WriteU16 failed: %v", err)
	}
	v16, err := mem.ReadU16(0)
	if err != nil {
		t.Fatalf("ReadU16 failed: %v", err)
	}
	if v16 != 0x1234 {
		t.Errorf("ReadU16: expected 0x1234, got 0x%x", v16)
	}

	if err := mem.WriteU32(0, 0x12345678); err != nil {
		t.Fatalf("WriteU32 failed: %v", err)
	}
	v32, err := mem.ReadU32(0)
	if err != nil {
		t.Fatalf("ReadU32 failed: %v", err)
	}
	if v32 != 0x12345678 {
		t.Errorf("ReadU32: expected 0x12345678, got 0x%x", v32)
	}

	if err := mem.WriteU64(0, 0x123456789ABCDEF0); err != nil {
		t.Fatalf("WriteU64 failed: %v", err)
	}
	v64, err := mem.ReadU64(0)
	if err != nil {
		t.Fatalf("ReadU64 failed: %v", err)
	}
	if v64 != 0x123456789ABCDEF0 {
		t.Errorf("ReadU64: expected 0x123456789ABCDEF0, got 0x%x", v64)
	}
}
