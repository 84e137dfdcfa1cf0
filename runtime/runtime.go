package runtime

import (
	"context"
	"sync/atomic"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/imports/wasi_snapshot_preview1"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/wippyai/script-runtime/config"
	"github.com/wippyai/script-runtime/console"
	"github.com/wippyai/script-runtime/errors"
	"github.com/wippyai/script-runtime/host"
)

// Option configures a Runtime.
type Option func(*options)

type options struct {
	cfg     *config.Config
	log     *zap.Logger
	console *console.Console
}

// WithConfig sets the runtime configuration. It is validated by New.
func WithConfig(cfg *config.Config) Option {
	return func(o *options) { o.cfg = cfg }
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(log *zap.Logger) Option {
	return func(o *options) { o.log = log }
}

// WithConsole sets where console__log and console__error write. The default
// is the process stdout and stderr.
func WithConsole(c *console.Console) Option {
	return func(o *options) { o.console = c }
}

// Runtime loads guest programs and links them against the env host module.
type Runtime struct {
	wazero  wazero.Runtime
	env     *host.Module
	cfg     *config.Config
	log     *zap.Logger
	console *console.Console
	seq     atomic.Uint64
}

// New creates a runtime from the given options.
func New(ctx context.Context, opts ...Option) (*Runtime, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if o.cfg == nil {
		o.cfg = config.Default()
	}
	if err := o.cfg.Validate(); err != nil {
		return nil, err
	}
	if o.log == nil {
		o.log = zap.NewNop()
	}
	if o.console == nil {
		o.console = console.Std()
		o.console.SetColor(o.cfg.Console.Color)
	}

	rcfg := wazero.NewRuntimeConfig()
	if pages := o.cfg.Engine.MemoryLimit.Pages(); pages > 0 {
		rcfg = rcfg.WithMemoryLimitPages(pages)
	}
	wr := wazero.NewRuntimeWithConfig(ctx, rcfg)

	env := host.NewModule(o.log)
	if _, err := env.Instantiate(ctx, wr); err != nil {
		_ = wr.Close(ctx)
		return nil, errors.Wrap(errors.PhaseHost, errors.KindInstantiation, err, "instantiate env module")
	}
	if o.cfg.Engine.WASI {
		if _, err := wasi_snapshot_preview1.Instantiate(ctx, wr); err != nil {
			_ = wr.Close(ctx)
			return nil, errors.Wrap(errors.PhaseHost, errors.KindInstantiation, err, "instantiate wasi")
		}
	}

	o.log.Debug("runtime ready",
		zap.Bool("wasi", o.cfg.Engine.WASI),
		zap.Stringer("memory_limit", o.cfg.Engine.MemoryLimit))

	return &Runtime{
		wazero:  wr,
		env:     env,
		cfg:     o.cfg,
		log:     o.log,
		console: o.console,
	}, nil
}

// Close releases all runtime resources, including the heaps of instances
// that were not closed.
func (r *Runtime) Close(ctx context.Context) error {
	var err error
	for _, s := range r.env.DetachAll() {
		err = multierr.Append(err, s.Close())
	}
	return multierr.Append(err, r.wazero.Close(ctx))
}

// Config returns the configuration the runtime was created with.
func (r *Runtime) Config() *config.Config {
	return r.cfg
}

// Load compiles a core WebAssembly module and checks that every import it
// declares can be satisfied.
func (r *Runtime) Load(ctx context.Context, wasm []byte) (*Module, error) {
	compiled, err := r.wazero.CompileModule(ctx, wasm)
	if err != nil {
		return nil, errors.Load("compile module", err)
	}

	usesEnv, err := r.checkImports(compiled)
	if err != nil {
		_ = compiled.Close(ctx)
		return nil, err
	}

	r.log.Debug("module loaded",
		zap.Int("size", len(wasm)),
		zap.Int("imports", len(compiled.ImportedFunctions())),
		zap.Bool("uses_env", usesEnv))

	return &Module{
		runtime:  r,
		compiled: compiled,
		usesEnv:  usesEnv,
	}, nil
}

func (r *Runtime) checkImports(compiled wazero.CompiledModule) (usesEnv bool, err error) {
	var missing []string
	for _, fn := range compiled.ImportedFunctions() {
		ns, name, _ := fn.Import()
		switch {
		case ns == host.ModuleName && host.Provides(name):
			usesEnv = true
		case ns == wasi_snapshot_preview1.ModuleName && r.cfg.Engine.WASI:
		default:
			missing = append(missing, ns+"#"+name)
		}
	}
	// Guests own their memory; nothing exports one for them to import.
	for _, mem := range compiled.ImportedMemories() {
		ns, name, _ := mem.Import()
		missing = append(missing, ns+"#"+name)
	}

	if len(missing) > 0 {
		return usesEnv, errors.NewMissingImportsError(missing)
	}
	return usesEnv, nil
}
