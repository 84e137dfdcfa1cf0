// Package config holds runtime settings loaded from YAML.
//
//	heap:
//	  limit: 16MiB      # bytes an arena may span, 0 = no limit
//	  initial: 64KiB    # standalone heaps: initial memory
//	  max: 64MiB        # standalone heaps: growth limit
//	  backing: linear   # standalone heaps: linear | mapped
//	engine:
//	  memory_limit: 64MiB
//	  wasi: true
//	console:
//	  color: auto       # auto | always | never
//	log:
//	  level: info
//	  development: false
package config

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/dustin/go-humanize"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	scriptrt "github.com/wippyai/script-runtime"
	"github.com/wippyai/script-runtime/console"
	"github.com/wippyai/script-runtime/errors"
)

// Backing selects the memory behind a standalone heap.
type Backing string

const (
	BackingLinear Backing = "linear"
	BackingMapped Backing = "mapped"
)

// ByteSize is a byte count written as "16MiB", "64 KB" or a plain number.
type ByteSize uint64

// UnmarshalYAML implements yaml.Unmarshaler.
func (b *ByteSize) UnmarshalYAML(node *yaml.Node) error {
	var raw string
	if err := node.Decode(&raw); err != nil {
		return err
	}
	n, err := humanize.ParseBytes(raw)
	if err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}
	*b = ByteSize(n)
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (b ByteSize) MarshalYAML() (any, error) {
	return b.String(), nil
}

func (b ByteSize) String() string {
	return humanize.IBytes(uint64(b))
}

// Pages returns the number of whole pages needed to hold b.
func (b ByteSize) Pages() uint32 {
	pages := (uint64(b) + scriptrt.PageSize - 1) / scriptrt.PageSize
	if pages > 1<<16 {
		return 1 << 16
	}
	return uint32(pages)
}

type Heap struct {
	Limit   ByteSize `yaml:"limit"`
	Initial ByteSize `yaml:"initial"`
	Max     ByteSize `yaml:"max"`
	Backing Backing  `yaml:"backing"`
}

type Engine struct {
	MemoryLimit ByteSize `yaml:"memory_limit"`
	WASI        bool     `yaml:"wasi"`
}

type Console struct {
	Color console.ColorMode `yaml:"color"`
}

type Log struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
}

// Config is the full runtime configuration.
type Config struct {
	Heap    Heap    `yaml:"heap"`
	Engine  Engine  `yaml:"engine"`
	Console Console `yaml:"console"`
	Log     Log     `yaml:"log"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Heap: Heap{
			Initial: scriptrt.PageSize,
			Max:     64 << 20,
			Backing: BackingLinear,
		},
		Engine: Engine{
			MemoryLimit: 64 << 20,
			WASI:        true,
		},
		Console: Console{Color: console.ColorAuto},
		Log:     Log{Level: "info"},
	}
}

// Load reads and validates the YAML file at path on top of Default.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.PhaseConfig, errors.KindNotFound, err, "read "+path)
	}
	return Parse(data)
}

// Parse decodes YAML on top of Default and validates the result.
// Unknown keys are rejected.
func Parse(data []byte) (*Config, error) {
	cfg := Default()

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && err != io.EOF {
		return nil, errors.Wrap(errors.PhaseConfig, errors.KindInvalidData, err, "decode yaml")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks value ranges and enumerations.
func (c *Config) Validate() error {
	switch c.Heap.Backing {
	case BackingLinear, BackingMapped:
	default:
		return invalid("heap.backing", "unknown backing %q", c.Heap.Backing)
	}
	if c.Heap.Backing == BackingMapped && c.Heap.Max == 0 {
		return invalid("heap.max", "mapped backing reserves max up front and needs a bound")
	}
	if c.Heap.Max > 0 && c.Heap.Initial > c.Heap.Max {
		return invalid("heap.initial", "initial %s exceeds max %s", c.Heap.Initial, c.Heap.Max)
	}
	if c.Heap.Limit > 1<<32-1 {
		return invalid("heap.limit", "%s exceeds the 32-bit address space", c.Heap.Limit)
	}
	if c.Engine.MemoryLimit > 1<<32 {
		return invalid("engine.memory_limit", "%s exceeds the 32-bit address space", c.Engine.MemoryLimit)
	}

	switch c.Console.Color {
	case console.ColorAuto, console.ColorAlways, console.ColorNever:
	default:
		return invalid("console.color", "unknown mode %q", c.Console.Color)
	}

	if _, err := zapcore.ParseLevel(c.Log.Level); err != nil {
		return invalid("log.level", "%v", err)
	}
	return nil
}

func invalid(field, format string, args ...any) error {
	return errors.New(errors.PhaseConfig, errors.KindInvalidInput).
		Path(field).
		Detail(format, args...).
		Build()
}

// Logger builds the logger described by the log section.
func (c *Config) Logger() (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(c.Log.Level)
	if err != nil {
		return nil, invalid("log.level", "%v", err)
	}

	zc := zap.NewProductionConfig()
	if c.Log.Development {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	zc.OutputPaths = []string{"stderr"}
	return zc.Build()
}
