package str

import (
	"fmt"
	"math"

	scriptrt "github.com/wippyai/script-runtime"
)

// MaxLength is the largest representable string length.
const MaxLength = math.MaxUint32

// Size is the in-memory size of a String.
const Size = 8

// String is an immutable byte string in linear memory.
type String struct {
	Length uint32
	Data   uint32
}

// Empty reports whether s has no bytes.
func (s String) Empty() bool {
	return s.Length == 0
}

func (s String) String() string {
	return fmt.Sprintf("str{len=%d, data=0x%x}", s.Length, s.Data)
}

// Store writes s to mem at addr using the wasm32 layout.
func (s String) Store(mem scriptrt.Memory, addr uint32) error {
	if err := mem.WriteU32(addr, s.Length); err != nil {
		return err
	}
	return mem.WriteU32(addr+4, s.Data)
}

// Load reads a String stored at addr.
func Load(mem scriptrt.Memory, addr uint32) (String, error) {
	length, err := mem.ReadU32(addr)
	if err != nil {
		return String{}, err
	}
	data, err := mem.ReadU32(addr + 4)
	if err != nil {
		return String{}, err
	}
	return String{Length: length, Data: data}, nil
}
