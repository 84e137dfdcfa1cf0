package host

import (
	"io"

	"go.uber.org/zap"

	scriptrt "github.com/wippyai/script-runtime"
	"github.com/wippyai/script-runtime/config"
	"github.com/wippyai/script-runtime/console"
	"github.com/wippyai/script-runtime/errors"
	"github.com/wippyai/script-runtime/gc"
	"github.com/wippyai/script-runtime/memory"
	"github.com/wippyai/script-runtime/str"
)

// Session is the runtime state behind one guest heap.
type Session struct {
	Memory  scriptrt.LinearMemory
	Arena   *gc.Arena
	Strings *str.Ops
	Console *console.Console
	log     *zap.Logger
	closer  io.Closer
}

// NewSession creates a session over mem. A nil console discards output.
func NewSession(mem scriptrt.LinearMemory, arena gc.Config, con *console.Console, log *zap.Logger) *Session {
	if log == nil {
		log = zap.NewNop()
	}
	if con == nil {
		con = console.New(nil, nil)
	}
	if arena.Logger == nil {
		arena.Logger = log
	}

	a := gc.NewArena(mem, arena)
	return &Session{
		Memory:  mem,
		Arena:   a,
		Strings: str.New(mem, a, log),
		Console: con,
		log:     log,
	}
}

// NewStandaloneSession creates a session over host-owned memory described by
// the heap section of cfg.
func NewStandaloneSession(cfg *config.Config, con *console.Console, log *zap.Logger) (*Session, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	initial, maxPages := cfg.Heap.Initial.Pages(), cfg.Heap.Max.Pages()
	arena := gc.Config{Limit: uint32(cfg.Heap.Limit), Logger: log}

	switch cfg.Heap.Backing {
	case config.BackingMapped:
		mem, err := memory.NewMapped(initial, maxPages)
		if err != nil {
			return nil, errors.Propagate(errors.PhaseMemory, err, "reserve mapped heap")
		}
		s := NewSession(mem, arena, con, log)
		s.closer = mem
		return s, nil
	case config.BackingLinear, "":
		return NewSession(memory.NewLinear(initial, maxPages), arena, con, log), nil
	default:
		return nil, errors.InvalidInput(errors.PhaseConfig, "unknown heap backing "+string(cfg.Heap.Backing))
	}
}

// Allocate implements gc__allocate.
func (s *Session) Allocate(size uint32) (uint32, error) {
	return s.Arena.Allocate(size)
}

// Reallocate implements gc__reallocate.
func (s *Session) Reallocate(ptr, size uint32) (uint32, error) {
	return s.Arena.Reallocate(ptr, size)
}

// Free implements gc__free.
func (s *Session) Free(ptr uint32) error {
	return s.Arena.Free(ptr)
}

// Construct implements string__constructor: it builds a String from the
// literal at literal and stores it at ret.
func (s *Session) Construct(ret, literal uint32) error {
	v, err := s.Strings.Construct(literal)
	if err != nil {
		return err
	}
	return s.store(errors.PhaseConstruct, ret, v)
}

// Concat implements string__concat with both operands passed by pointer.
func (s *Session) Concat(ret, a, b uint32) error {
	x, err := str.Load(s.Memory, a)
	if err != nil {
		return errors.Propagate(errors.PhaseConcat, err, "load left operand")
	}
	y, err := str.Load(s.Memory, b)
	if err != nil {
		return errors.Propagate(errors.PhaseConcat, err, "load right operand")
	}

	v, err := s.Strings.Concat(x, y)
	if err != nil {
		return err
	}
	return s.store(errors.PhaseConcat, ret, v)
}

func (s *Session) store(phase errors.Phase, ret uint32, v str.String) error {
	if err := v.Store(s.Memory, ret); err != nil {
		if rerr := s.Strings.Release(v); rerr != nil {
			s.log.Warn("release unstored string", zap.Stringer("string", v), zap.Error(rerr))
		}
		return errors.Propagate(phase, err, "store result")
	}
	return nil
}

// Log implements console__log.
func (s *Session) Log(ptr uint32) error {
	line, err := memory.ReadCString(s.Memory, ptr)
	if err != nil {
		return errors.Propagate(errors.PhaseConsole, err, "read log line")
	}
	s.Console.Log(line)
	return nil
}

// Error implements console__error.
func (s *Session) Error(ptr uint32) error {
	line, err := memory.ReadCString(s.Memory, ptr)
	if err != nil {
		return errors.Propagate(errors.PhaseConsole, err, "read error line")
	}
	s.Console.Error(line)
	return nil
}

// Close releases every buffer and any memory the session owns.
func (s *Session) Close() error {
	s.Arena.Reset()
	if s.closer != nil {
		err := s.closer.Close()
		s.closer = nil
		return err
	}
	return nil
}
