package memory

import (
	"testing"

	scriptrt "github.com/wippyai/script-runtime"
	"github.com/wippyai/script-runtime/errors"
)

func TestLinear_Sizes(t *testing.T) {
	tests := []struct {
		name        string
		initial     uint32
		max         uint32
		wantSize    uint32
		wantMaxPage uint32
	}{
		{"empty", 0, 4, 0, 4},
		{"one page", 1, 4, scriptrt.PageSize, 4},
		{"initial clamped", 8, 2, 2 * scriptrt.PageSize, 2},
		{"unbounded", 1, 0, scriptrt.PageSize, MaxPages},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := NewLinear(tt.initial, tt.max)
			if l.Size() != tt.wantSize {
				t.Errorf("Size = %d, want %d", l.Size(), tt.wantSize)
			}
			if l.MaxPages() != tt.wantMaxPage {
				t.Errorf("MaxPages = %d, want %d", l.MaxPages(), tt.wantMaxPage)
			}
		})
	}
}

func TestLinear_Grow(t *testing.T) {
	l := NewLinear(1, 3)
	if err := l.Write(10, []byte("keep")); err != nil {
		t.Fatal(err)
	}

	prev, ok := l.Grow(2)
	if !ok || prev != 1 {
		t.Fatalf("Grow(2) = %d, %v; want 1, true", prev, ok)
	}
	if l.Size() != 3*scriptrt.PageSize {
		t.Errorf("Size = %d, want %d", l.Size(), 3*scriptrt.PageSize)
	}

	got, err := l.Read(10, 4)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "keep" {
		t.Errorf("contents after grow = %q, want %q", got, "keep")
	}

	if prev, ok := l.Grow(1); ok || prev != 3 {
		t.Errorf("Grow past max = %d, %v; want 3, false", prev, ok)
	}
	if prev, ok := l.Grow(0); !ok || prev != 3 {
		t.Errorf("Grow(0) = %d, %v; want 3, true", prev, ok)
	}
}

func TestLinear_Bounds(t *testing.T) {
	l := NewLinear(1, 1)
	end := l.Size()

	if _, err := l.Read(end, 0); err != nil {
		t.Errorf("zero-length read at end: %v", err)
	}
	if _, err := l.Read(end, 1); !errors.IsKind(err, errors.KindOutOfBounds) {
		t.Errorf("Read past end: got %v", err)
	}
	if _, err := l.Read(0xFFFFFFFF, 2); !errors.IsKind(err, errors.KindOutOfBounds) {
		t.Errorf("wrapping read: got %v", err)
	}
	if err := l.WriteU64(end-4, 1); !errors.IsKind(err, errors.KindOutOfBounds) {
		t.Errorf("straddling write: got %v", err)
	}
}

func TestLinear_ReadIsView(t *testing.T) {
	l := NewLinear(1, 1)
	view, err := l.Read(0, 2)
	if err != nil {
		t.Fatal(err)
	}
	if err := l.WriteU8(1, 7); err != nil {
		t.Fatal(err)
	}
	if view[1] != 7 {
		t.Errorf("view[1] = %d, want 7", view[1])
	}
	if cap(view) != 2 {
		t.Errorf("view cap = %d, want 2", cap(view))
	}
}

func TestLinear_Integers(t *testing.T) {
	l := NewLinear(1, 1)
	if err := l.WriteU32(8, 0xCAFEBABE); err != nil {
		t.Fatal(err)
	}
	b, _ := l.Read(8, 4)
	if b[0] != 0xBE || b[3] != 0xCA {
		t.Errorf("WriteU32 not little-endian: % x", b)
	}
	v, err := l.ReadU16(8)
	if err != nil || v != 0xBABE {
		t.Errorf("ReadU16 = 0x%x, %v", v, err)
	}
	if err := l.WriteU64(16, 1<<40); err != nil {
		t.Fatal(err)
	}
	v64, err := l.ReadU64(16)
	if err != nil || v64 != 1<<40 {
		t.Errorf("ReadU64 = %d, %v", v64, err)
	}
}
