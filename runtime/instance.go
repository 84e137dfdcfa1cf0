package runtime

import (
	"context"
	stderrors "errors"

	"github.com/tetratelabs/wazero/api"
	"github.com/tetratelabs/wazero/sys"
	"go.uber.org/multierr"

	scriptrt "github.com/wippyai/script-runtime"
	"github.com/wippyai/script-runtime/errors"
	"github.com/wippyai/script-runtime/gc"
	"github.com/wippyai/script-runtime/host"
	"github.com/wippyai/script-runtime/str"
)

// entryPoints are tried in order by Run.
var entryPoints = []string{"_start", "main"}

// Instance is a running guest with its own heap.
type Instance struct {
	module  *Module
	mod     api.Module
	session *host.Session
	name    string
}

// Name returns the unique module name the instance was registered under.
func (i *Instance) Name() string {
	return i.name
}

// Call invokes an exported function with raw wasm values.
func (i *Instance) Call(ctx context.Context, name string, args ...uint64) ([]uint64, error) {
	fn := i.mod.ExportedFunction(name)
	if fn == nil {
		return nil, errors.NotFound(errors.PhaseRuntime, "export", name)
	}

	res, err := fn.Call(ctx, args...)
	if err != nil {
		return nil, errors.Propagate(errors.PhaseRuntime, err, "call "+name)
	}
	return res, nil
}

// Run calls the program entry point. Parameters of main are passed as zero.
// A WASI exit with code 0 is success.
func (i *Instance) Run(ctx context.Context) error {
	for _, name := range entryPoints {
		fn := i.mod.ExportedFunction(name)
		if fn == nil {
			continue
		}

		args := make([]uint64, len(fn.Definition().ParamTypes()))
		_, err := i.Call(ctx, name, args...)

		var exit *sys.ExitError
		if stderrors.As(err, &exit) && exit.ExitCode() == 0 {
			return nil
		}
		return err
	}
	return errors.NotFound(errors.PhaseRuntime, "entry point", "_start")
}

// Session returns the heap session, or nil when the module has no memory.
func (i *Instance) Session() *host.Session {
	return i.session
}

// Memory returns the instance memory, or nil when it has none.
func (i *Instance) Memory() scriptrt.LinearMemory {
	if i.session == nil {
		return nil
	}
	return i.session.Memory
}

// Strings returns string operations over the instance heap.
func (i *Instance) Strings() *str.Ops {
	if i.session == nil {
		return nil
	}
	return i.session.Strings
}

// ReadString returns a copy of the bytes of the String stored at addr.
func (i *Instance) ReadString(addr uint32) (string, error) {
	if i.session == nil {
		return "", errors.NotInitialized(errors.PhaseRuntime, "memory")
	}
	v, err := str.Load(i.session.Memory, addr)
	if err != nil {
		return "", err
	}
	b, err := i.session.Strings.Bytes(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Stats returns heap statistics.
func (i *Instance) Stats() gc.Stats {
	if i.session == nil {
		return gc.Stats{}
	}
	return i.session.Arena.Stats()
}

// Reset releases every heap buffer at once. Strings held by the guest become
// invalid.
func (i *Instance) Reset() {
	if i.session != nil {
		i.session.Arena.Reset()
	}
}

// Close detaches and releases the heap, then closes the guest module.
func (i *Instance) Close(ctx context.Context) error {
	var err error
	if i.session != nil {
		i.module.runtime.env.Detach(i.name)
		err = multierr.Append(err, i.session.Close())
	}
	return multierr.Append(err, i.mod.Close(ctx))
}
