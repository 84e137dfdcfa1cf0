package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/tetratelabs/wazero/api"
	"go.uber.org/zap"

	"github.com/wippyai/script-runtime/config"
	"github.com/wippyai/script-runtime/runtime"
)

func main() {
	var (
		wasmFile    = flag.String("wasm", "", "Path to compiled program")
		funcName    = flag.String("func", "", "Function to call (default: _start or main)")
		argList     = flag.String("args", "", "Integer arguments (comma-separated)")
		showList    = flag.String("show", "", "Print the String values at these addresses after the call (comma-separated)")
		configFile  = flag.String("config", "", "Path to YAML configuration")
		list        = flag.Bool("list", false, "List exported functions and exit")
		interactive = flag.Bool("i", false, "Interactive string playground")
		verbose     = flag.Bool("v", false, "Debug logging")
	)
	flag.Parse()

	cfg, err := loadConfig(*configFile, *verbose)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if *interactive {
		if err := runInteractive(cfg); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if *wasmFile == "" {
		fmt.Fprintln(os.Stderr, "Usage: run -wasm <file.wasm> [-func name] [-args 1,2] [-show 80,88] [-config runtime.yaml]")
		fmt.Fprintln(os.Stderr, "       run -wasm <file.wasm> -list")
		fmt.Fprintln(os.Stderr, "       run -i  (interactive string playground)")
		os.Exit(1)
	}

	if err := run(cfg, *wasmFile, *funcName, *argList, *showList, *list); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func loadConfig(path string, verbose bool) (*config.Config, error) {
	cfg := config.Default()
	if path != "" {
		var err error
		if cfg, err = config.Load(path); err != nil {
			return nil, err
		}
	}
	if verbose {
		cfg.Log.Level = "debug"
	}
	return cfg, cfg.Validate()
}

func run(cfg *config.Config, wasmFile, funcName, argStr, showStr string, listOnly bool) error {
	ctx := context.Background()

	data, err := os.ReadFile(wasmFile)
	if err != nil {
		return fmt.Errorf("read file: %w", err)
	}

	args, err := parseList(argStr, 64)
	if err != nil {
		return fmt.Errorf("parse -args: %w", err)
	}
	show, err := parseList(showStr, 32)
	if err != nil {
		return fmt.Errorf("parse -show: %w", err)
	}

	logger, err := cfg.Logger()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	rt, err := runtime.New(ctx, runtime.WithConfig(cfg), runtime.WithLogger(logger))
	if err != nil {
		return fmt.Errorf("create runtime: %w", err)
	}
	defer rt.Close(ctx)

	module, err := rt.Load(ctx, data)
	if err != nil {
		return fmt.Errorf("load: %w", err)
	}

	fmt.Printf("Module: %s (%s)\n", wasmFile, humanize.IBytes(uint64(len(data))))
	fmt.Printf("\nExported functions:\n")
	for _, e := range module.Exports() {
		params := make([]string, len(e.Params))
		for i, p := range e.Params {
			params[i] = api.ValueTypeName(p)
		}
		result := ""
		if len(e.Results) > 0 {
			results := make([]string, len(e.Results))
			for i, r := range e.Results {
				results[i] = api.ValueTypeName(r)
			}
			result = " -> " + strings.Join(results, ", ")
		}
		fmt.Printf("  %s(%s)%s\n", e.Name, strings.Join(params, ", "), result)
	}

	if listOnly {
		return nil
	}

	instance, err := module.Instantiate(ctx)
	if err != nil {
		return fmt.Errorf("instantiate: %w", err)
	}
	defer instance.Close(ctx)

	fmt.Println()
	if funcName == "" {
		err = instance.Run(ctx)
	} else {
		var results []uint64
		results, err = instance.Call(ctx, funcName, args...)
		if err == nil {
			fmt.Printf("\nResult: %v\n", results)
		}
	}
	if err != nil {
		logger.Debug("guest failed", zap.Error(err))
		return err
	}

	for _, addr := range show {
		s, err := instance.ReadString(uint32(addr))
		if err != nil {
			return fmt.Errorf("show 0x%x: %w", addr, err)
		}
		fmt.Printf("str@0x%x = %q\n", addr, s)
	}

	st := instance.Stats()
	fmt.Printf("\nHeap: %d live blocks, %s live, %s peak, %d allocations, %d failures\n",
		st.LiveBlocks, humanize.IBytes(st.LiveBytes), humanize.IBytes(st.PeakBytes),
		st.Allocs, st.Failures)

	return nil
}

func parseList(s string, bits int) ([]uint64, error) {
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	out := make([]uint64, len(parts))
	for i, p := range parts {
		v, err := strconv.ParseUint(strings.TrimSpace(p), 0, bits)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}
