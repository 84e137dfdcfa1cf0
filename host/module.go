package host

import (
	"context"
	"sync"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"go.uber.org/zap"

	"github.com/wippyai/script-runtime/errors"
)

// ModuleName is the import module generated code uses for runtime symbols.
const ModuleName = "env"

const (
	FuncAllocate   = "gc__allocate"
	FuncReallocate = "gc__reallocate"
	FuncFree       = "gc__free"
	FuncConstruct  = "string__constructor"
	FuncConcat     = "string__concat"
	FuncLog        = "console__log"
	FuncError      = "console__error"
)

var i32 = api.ValueTypeI32

type export struct {
	name    string
	params  []api.ValueType
	results []api.ValueType
	names   []string
	call    func(s *Session, stack []uint64) error
}

var exports = []export{
	{
		name: FuncAllocate, params: []api.ValueType{i32}, results: []api.ValueType{i32},
		names: []string{"size"},
		call: func(s *Session, stack []uint64) error {
			ptr, err := s.Allocate(api.DecodeU32(stack[0]))
			stack[0] = api.EncodeU32(ptr)
			return err
		},
	},
	{
		name: FuncReallocate, params: []api.ValueType{i32, i32}, results: []api.ValueType{i32},
		names: []string{"ptr", "size"},
		call: func(s *Session, stack []uint64) error {
			ptr, err := s.Reallocate(api.DecodeU32(stack[0]), api.DecodeU32(stack[1]))
			stack[0] = api.EncodeU32(ptr)
			return err
		},
	},
	{
		name: FuncFree, params: []api.ValueType{i32},
		names: []string{"ptr"},
		call: func(s *Session, stack []uint64) error {
			return s.Free(api.DecodeU32(stack[0]))
		},
	},
	{
		name: FuncConstruct, params: []api.ValueType{i32, i32},
		names: []string{"ret", "literal"},
		call: func(s *Session, stack []uint64) error {
			return s.Construct(api.DecodeU32(stack[0]), api.DecodeU32(stack[1]))
		},
	},
	{
		name: FuncConcat, params: []api.ValueType{i32, i32, i32},
		names: []string{"ret", "a", "b"},
		call: func(s *Session, stack []uint64) error {
			return s.Concat(api.DecodeU32(stack[0]), api.DecodeU32(stack[1]), api.DecodeU32(stack[2]))
		},
	},
	{
		name: FuncLog, params: []api.ValueType{i32},
		names: []string{"ptr"},
		call: func(s *Session, stack []uint64) error {
			return s.Log(api.DecodeU32(stack[0]))
		},
	},
	{
		name: FuncError, params: []api.ValueType{i32},
		names: []string{"ptr"},
		call: func(s *Session, stack []uint64) error {
			return s.Error(api.DecodeU32(stack[0]))
		},
	},
}

// Provides reports whether the env module exports name.
func Provides(name string) bool {
	for _, e := range exports {
		if e.name == name {
			return true
		}
	}
	return false
}

// Module routes env calls to per-instance sessions.
// It is safe for concurrent use.
type Module struct {
	sessions map[string]*Session
	log      *zap.Logger
	mu       sync.RWMutex
}

// NewModule creates an empty session router.
func NewModule(log *zap.Logger) *Module {
	if log == nil {
		log = zap.NewNop()
	}
	return &Module{
		sessions: make(map[string]*Session),
		log:      log,
	}
}

// Attach routes calls from the guest module named name to s.
func (m *Module) Attach(name string, s *Session) {
	m.mu.Lock()
	m.sessions[name] = s
	m.mu.Unlock()
}

// Detach stops routing calls for name and returns its session, if any.
func (m *Module) Detach(name string) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := m.sessions[name]
	delete(m.sessions, name)
	return s
}

// DetachAll stops routing every call and returns the detached sessions.
func (m *Module) DetachAll() []*Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]*Session, 0, len(m.sessions))
	for name, s := range m.sessions {
		out = append(out, s)
		delete(m.sessions, name)
	}
	return out
}

// Session returns the session attached for name.
func (m *Module) Session(name string) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.sessions[name]
	return s, ok
}

// Instantiate registers the env host module in r.
func (m *Module) Instantiate(ctx context.Context, r wazero.Runtime) (api.Module, error) {
	b := r.NewHostModuleBuilder(ModuleName)
	for _, e := range exports {
		b = b.NewFunctionBuilder().
			WithGoModuleFunction(m.wrap(e), e.params, e.results).
			WithParameterNames(e.names...).
			Export(e.name)
	}
	return b.Instantiate(ctx)
}

// wrap turns a session call into a host function. Errors trap the guest.
func (m *Module) wrap(e export) api.GoModuleFunc {
	return func(_ context.Context, caller api.Module, stack []uint64) {
		s, ok := m.Session(caller.Name())
		if !ok {
			panic(errors.NotInitialized(errors.PhaseHost, "heap session for "+caller.Name()))
		}

		if err := e.call(s, stack); err != nil {
			m.log.Debug("host call failed",
				zap.String("module", caller.Name()),
				zap.String("func", e.name),
				zap.Error(err))
			panic(errors.New(errors.PhaseHost, kindOf(err)).
				Path(ModuleName, e.name).
				Cause(err).
				Build())
		}
	}
}

func kindOf(err error) errors.Kind {
	for _, k := range []errors.Kind{
		errors.KindOutOfMemory,
		errors.KindLengthOverflow,
		errors.KindInvalidPointer,
		errors.KindOutOfBounds,
	} {
		if errors.IsKind(err, k) {
			return k
		}
	}
	return errors.KindInvalidData
}
