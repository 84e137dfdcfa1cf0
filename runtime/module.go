package runtime

import (
	"context"
	"fmt"
	"os"
	"sort"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"go.uber.org/zap"

	"github.com/wippyai/script-runtime/errors"
	"github.com/wippyai/script-runtime/gc"
	"github.com/wippyai/script-runtime/host"
	"github.com/wippyai/script-runtime/memory"
)

const (
	memoryExport   = "memory"
	heapBaseExport = "__heap_base"
)

// Module is a compiled guest whose imports have been checked.
type Module struct {
	runtime  *Runtime
	compiled wazero.CompiledModule
	usesEnv  bool
}

// Export describes an exported function.
type Export struct {
	Name    string
	Params  []api.ValueType
	Results []api.ValueType
}

// Exports lists exported functions sorted by name.
func (m *Module) Exports() []Export {
	defs := m.compiled.ExportedFunctions()
	exports := make([]Export, 0, len(defs))
	for name, def := range defs {
		exports = append(exports, Export{
			Name:    name,
			Params:  def.ParamTypes(),
			Results: def.ResultTypes(),
		})
	}
	sort.Slice(exports, func(i, j int) bool { return exports[i].Name < exports[j].Name })
	return exports
}

// Instantiate creates an instance with its own heap. Start functions are not
// run; use Instance.Run.
func (m *Module) Instantiate(ctx context.Context) (*Instance, error) {
	r := m.runtime
	name := fmt.Sprintf("guest-%d", r.seq.Add(1))

	cfg := wazero.NewModuleConfig().
		WithName(name).
		WithStartFunctions()
	if r.cfg.Engine.WASI {
		cfg = cfg.WithStdout(os.Stdout).WithStderr(os.Stderr).WithStdin(os.Stdin)
	}

	mod, err := r.wazero.InstantiateModule(ctx, m.compiled, cfg)
	if err != nil {
		return nil, errors.Instantiation(err)
	}

	inst := &Instance{module: m, mod: mod, name: name}

	mem := mod.ExportedMemory(memoryExport)
	if mem == nil {
		if m.usesEnv {
			_ = mod.Close(ctx)
			return nil, errors.Instantiation(errors.NotFound(errors.PhaseRuntime, "export", memoryExport))
		}
		return inst, nil
	}

	base := mem.Size()
	if g := mod.ExportedGlobal(heapBaseExport); g != nil {
		base = api.DecodeU32(g.Get())
	}

	log := r.log.With(zap.String("module", name))
	inst.session = host.NewSession(memory.WrapMemory(mem), gc.Config{
		Logger: log,
		Base:   base,
		Limit:  uint32(r.cfg.Heap.Limit),
	}, r.console, log)
	r.env.Attach(name, inst.session)

	log.Debug("instance ready", zap.Uint32("heap_base", base))
	return inst, nil
}

// Close releases the compiled module. Instances created from it keep working.
func (m *Module) Close(ctx context.Context) error {
	return m.compiled.Close(ctx)
}
