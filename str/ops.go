package str

import (
	"bytes"

	"go.uber.org/zap"

	scriptrt "github.com/wippyai/script-runtime"
	"github.com/wippyai/script-runtime/errors"
	"github.com/wippyai/script-runtime/memory"
)

// Ops builds and reads Strings in one linear memory with one allocator.
type Ops struct {
	mem   memory.Sized
	alloc scriptrt.Allocator
	log   *zap.Logger
}

// New creates string operations over mem. A nil logger disables logging.
func New(mem memory.Sized, alloc scriptrt.Allocator, log *zap.Logger) *Ops {
	if log == nil {
		log = zap.NewNop()
	}
	return &Ops{mem: mem, alloc: alloc, log: log}
}

// Construct builds a String from the 0-terminated literal at ptr.
// The result shares nothing with the literal.
func (o *Ops) Construct(ptr uint32) (String, error) {
	n, err := memory.CStringLen(o.mem, ptr)
	if err != nil {
		return String{}, errors.Propagate(errors.PhaseConstruct, err, "scan literal")
	}

	s, err := o.allocate(errors.PhaseConstruct, n)
	if err != nil {
		return String{}, err
	}

	if err := o.copy(s.Data, ptr, n); err != nil {
		return String{}, o.abort(errors.PhaseConstruct, s, err)
	}

	o.log.Debug("string constructed", zap.Uint32("literal", ptr), zap.Stringer("result", s))
	return s, nil
}

// FromBytes builds a String from a host literal: the bytes of src up to its
// first 0 byte, or all of src when it has none.
func (o *Ops) FromBytes(src []byte) (String, error) {
	if i := bytes.IndexByte(src, 0); i >= 0 {
		src = src[:i]
	}
	if uint64(len(src)) > MaxLength {
		return String{}, errors.New(errors.PhaseConstruct, errors.KindLengthOverflow).
			Value(len(src)).
			Detail("literal of %d bytes", len(src)).
			Build()
	}

	s, err := o.allocate(errors.PhaseConstruct, uint32(len(src)))
	if err != nil {
		return String{}, err
	}

	if err := o.mem.Write(s.Data, src); err != nil {
		return String{}, o.abort(errors.PhaseConstruct, s, err)
	}
	return s, nil
}

// Concat returns a new String holding a's bytes followed by b's.
// a and b keep their own buffers.
func (o *Ops) Concat(a, b String) (String, error) {
	total := uint64(a.Length) + uint64(b.Length)
	if total > MaxLength {
		return String{}, errors.LengthOverflow(errors.PhaseConcat, a.Length, b.Length)
	}

	s, err := o.allocate(errors.PhaseConcat, uint32(total))
	if err != nil {
		return String{}, err
	}

	if err := o.copy(s.Data, a.Data, a.Length); err != nil {
		return String{}, o.abort(errors.PhaseConcat, s, err)
	}
	if err := o.copy(s.Data+a.Length, b.Data, b.Length); err != nil {
		return String{}, o.abort(errors.PhaseConcat, s, err)
	}

	o.log.Debug("strings concatenated",
		zap.Stringer("a", a), zap.Stringer("b", b), zap.Stringer("result", s))
	return s, nil
}

// Bytes returns a copy of the bytes of s.
func (o *Ops) Bytes(s String) ([]byte, error) {
	data, err := o.mem.Read(s.Data, s.Length)
	if err != nil {
		return nil, err
	}
	return bytes.Clone(data), nil
}

// Equal reports whether a and b hold the same bytes.
func (o *Ops) Equal(a, b String) (bool, error) {
	if a.Length != b.Length {
		return false, nil
	}
	x, err := o.mem.Read(a.Data, a.Length)
	if err != nil {
		return false, err
	}
	y, err := o.mem.Read(b.Data, b.Length)
	if err != nil {
		return false, err
	}
	return bytes.Equal(x, y), nil
}

// Release frees the buffer of s. s must not be used afterwards.
func (o *Ops) Release(s String) error {
	return o.alloc.Free(s.Data)
}

func (o *Ops) allocate(phase errors.Phase, n uint32) (String, error) {
	ptr, err := o.alloc.Allocate(n)
	if err != nil {
		return String{}, errors.Propagate(phase, err, "allocate string buffer")
	}
	return String{Length: n, Data: ptr}, nil
}

// copy moves n bytes from src to dst. Read happens after allocation since
// growing memory can invalidate earlier views.
func (o *Ops) copy(dst, src, n uint32) error {
	if n == 0 {
		return nil
	}
	data, err := o.mem.Read(src, n)
	if err != nil {
		return err
	}
	return o.mem.Write(dst, data)
}

// abort frees a partially built string and wraps cause.
func (o *Ops) abort(phase errors.Phase, s String, cause error) error {
	if err := o.alloc.Free(s.Data); err != nil {
		o.log.Warn("release after failed copy", zap.Stringer("string", s), zap.Error(err))
	}
	return errors.Propagate(phase, cause, "copy string bytes")
}
