package host

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"

	"github.com/wippyai/script-runtime/console"
	"github.com/wippyai/script-runtime/errors"
	"github.com/wippyai/script-runtime/gc"
	"github.com/wippyai/script-runtime/memory"
	"github.com/wippyai/script-runtime/str"
)

const guestName = "guest"

func uleb(v uint32) []byte {
	var out []byte
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if v == 0 {
			return append(out, b)
		}
		out = append(out, b|0x80)
	}
}

func vec(items ...[]byte) []byte {
	out := uleb(uint32(len(items)))
	for _, it := range items {
		out = append(out, it...)
	}
	return out
}

func section(id byte, body []byte) []byte {
	return append(append([]byte{id}, uleb(uint32(len(body)))...), body...)
}

func wasmName(s string) []byte {
	return append(uleb(uint32(len(s))), s...)
}

func valTypes(ts []api.ValueType) []byte {
	return append(uleb(uint32(len(ts))), ts...)
}

// guestWASM builds a module that imports every env symbol (function i) and
// exports "call_<symbol>" (function len(exports)+i) forwarding its
// parameters to the import, plus one page of memory exported as "memory".
func guestWASM() []byte {
	n := uint32(len(exports))

	var types, imports, funcs, code, exps [][]byte
	for i, e := range exports {
		types = append(types, append(append([]byte{0x60}, valTypes(e.params)...), valTypes(e.results)...))
		imports = append(imports, append(append(wasmName(ModuleName), wasmName(e.name)...), 0x00, byte(i)))
		funcs = append(funcs, uleb(uint32(i)))

		body := []byte{0x00} // no locals
		for p := range e.params {
			body = append(body, 0x20, byte(p)) // local.get p
		}
		body = append(body, 0x10, byte(i), 0x0b) // call i; end
		code = append(code, append(uleb(uint32(len(body))), body...))

		exps = append(exps, append(append(wasmName("call_"+e.name), 0x00), uleb(n+uint32(i))...))
	}
	exps = append(exps, append(wasmName("memory"), 0x02, 0x00))

	out := []byte{0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00}
	out = append(out, section(1, vec(types...))...)
	out = append(out, section(2, vec(imports...))...)
	out = append(out, section(3, vec(funcs...))...)
	out = append(out, section(5, vec([]byte{0x00, 0x01}))...)
	out = append(out, section(7, vec(exps...))...)
	out = append(out, section(10, vec(code...))...)
	return out
}

type guest struct {
	mod    api.Module
	sess   *Session
	stdout *bytes.Buffer
	stderr *bytes.Buffer
}

func (g *guest) call(t *testing.T, symbol string, args ...uint64) ([]uint64, error) {
	t.Helper()
	fn := g.mod.ExportedFunction("call_" + symbol)
	require.NotNil(t, fn, symbol)
	return fn.Call(context.Background(), args...)
}

// newGuest links a guest against env. The session is attached only when
// attach is set.
func newGuest(t *testing.T, attach bool) *guest {
	t.Helper()
	ctx := context.Background()

	r := wazero.NewRuntime(ctx)
	t.Cleanup(func() { r.Close(ctx) })

	m := NewModule(nil)
	_, err := m.Instantiate(ctx, r)
	require.NoError(t, err)

	mod, err := r.InstantiateWithConfig(ctx, guestWASM(), wazero.NewModuleConfig().WithName(guestName))
	require.NoError(t, err, "guest must link against every env symbol")

	var stdout, stderr bytes.Buffer
	sess := NewSession(memory.WrapMemory(mod.ExportedMemory("memory")),
		gc.Config{Base: 1024, Limit: 1 << 16}, console.New(&stdout, &stderr), nil)
	if attach {
		m.Attach(mod.Name(), sess)
	}
	return &guest{mod: mod, sess: sess, stdout: &stdout, stderr: &stderr}
}

func TestModule_Links(t *testing.T) {
	g := newGuest(t, true)

	for _, name := range []string{
		FuncAllocate, FuncReallocate, FuncFree,
		FuncConstruct, FuncConcat, FuncLog, FuncError,
	} {
		assert.True(t, Provides(name), name)
		assert.NotNil(t, g.mod.ExportedFunction("call_"+name), name)
	}
	assert.False(t, Provides("string__split"))
}

func TestModule_StringCalls(t *testing.T) {
	g := newGuest(t, true)
	require.NoError(t, g.sess.Memory.Write(16, []byte("foo\x00bar\x00")))

	_, err := g.call(t, FuncConstruct, 64, 16)
	require.NoError(t, err)
	_, err = g.call(t, FuncConstruct, 72, 20)
	require.NoError(t, err)
	_, err = g.call(t, FuncConcat, 80, 64, 72)
	require.NoError(t, err)

	v, err := str.Load(g.sess.Memory, 80)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, v.Data, uint32(1024))
	got, err := g.sess.Strings.Bytes(v)
	require.NoError(t, err)
	assert.Equal(t, "foobar", string(got))

	_, err = g.call(t, FuncLog, 16)
	require.NoError(t, err)
	_, err = g.call(t, FuncError, 20)
	require.NoError(t, err)
	assert.Equal(t, "foo\n", g.stdout.String())
	assert.Contains(t, g.stderr.String(), "bar")
}

func TestModule_AllocatorCalls(t *testing.T) {
	g := newGuest(t, true)

	res, err := g.call(t, FuncAllocate, 24)
	require.NoError(t, err)
	ptr := api.DecodeU32(res[0])
	assert.GreaterOrEqual(t, ptr, uint32(1024))

	res, err = g.call(t, FuncReallocate, api.EncodeU32(ptr), 48)
	require.NoError(t, err)
	ptr = api.DecodeU32(res[0])
	size, ok := g.sess.Arena.SizeOf(ptr)
	require.True(t, ok)
	assert.Equal(t, uint32(48), size)

	_, err = g.call(t, FuncFree, api.EncodeU32(ptr))
	require.NoError(t, err)
	assert.Zero(t, g.sess.Arena.Stats().LiveBlocks)
}

func TestModule_ErrorsTrap(t *testing.T) {
	g := newGuest(t, true)

	_, err := g.call(t, FuncFree, 0x40)
	require.Error(t, err)
	assert.True(t, errors.IsKind(err, errors.KindInvalidPointer), "%v", err)

	_, err = g.call(t, FuncAllocate, api.EncodeU32(1<<31))
	require.Error(t, err)
	assert.True(t, errors.IsKind(err, errors.KindOutOfMemory), "%v", err)

	require.NoError(t, str.String{Length: str.MaxLength, Data: 1024}.Store(g.sess.Memory, 64))
	require.NoError(t, str.String{Length: 1, Data: 1024}.Store(g.sess.Memory, 72))
	_, err = g.call(t, FuncConcat, 80, 64, 72)
	require.Error(t, err)
	assert.True(t, errors.IsKind(err, errors.KindLengthOverflow), "%v", err)

	_, err = g.call(t, FuncLog, 1<<16)
	require.Error(t, err)
	assert.True(t, errors.IsKind(err, errors.KindOutOfBounds), "%v", err)

	var e *errors.Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, errors.PhaseHost, e.Phase)
	assert.Equal(t, []string{ModuleName, FuncLog}, e.Path)
}

func TestModule_NoSession(t *testing.T) {
	g := newGuest(t, false)

	_, err := g.call(t, FuncAllocate, 8)
	require.Error(t, err)
	assert.True(t, errors.IsKind(err, errors.KindNotInitialized), "%v", err)
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		err  error
		want errors.Kind
	}{
		{errors.OutOfMemory(errors.PhaseAlloc, 8), errors.KindOutOfMemory},
		{errors.Propagate(errors.PhaseConcat, errors.LengthOverflow(errors.PhaseConcat, 1, 2), "x"), errors.KindLengthOverflow},
		{errors.InvalidPointer(errors.PhaseAlloc, 4), errors.KindInvalidPointer},
		{errors.OutOfBounds(errors.PhaseMemory, 0, 1), errors.KindOutOfBounds},
		{errors.NotFound(errors.PhaseRuntime, "export", "x"), errors.KindInvalidData},
	}
	for _, tt := range tests {
		t.Run(string(tt.want), func(t *testing.T) {
			assert.Equal(t, tt.want, kindOf(tt.err))
		})
	}
}

func TestModule_AttachDetach(t *testing.T) {
	m := NewModule(nil)
	sess := NewSession(memory.NewLinear(1, 1), gc.Config{}, nil, nil)

	m.Attach("guest-1", sess)
	got, ok := m.Session("guest-1")
	require.True(t, ok)
	assert.Same(t, sess, got)

	assert.Same(t, sess, m.Detach("guest-1"))
	_, ok = m.Session("guest-1")
	assert.False(t, ok)
	assert.Nil(t, m.Detach("guest-1"))

	m.Attach("guest-2", sess)
	m.Attach("guest-3", sess)
	assert.Len(t, m.DetachAll(), 2)
	assert.Empty(t, m.DetachAll())
}
