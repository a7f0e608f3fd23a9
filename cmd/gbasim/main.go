// Package main provides the entry point for gbasim.
// gbasim is a functional ARM7TDMI emulator for Game Boy Advance program
// images.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"runtime/pprof"

	"github.com/go-logr/logr"
	"github.com/go-logr/logr/funcr"

	"github.com/sarchlab/gbasim/config"
	"github.com/sarchlab/gbasim/emu"
	"github.com/sarchlab/gbasim/loader"
	"github.com/sarchlab/gbasim/memory"
)

var (
	configPath = flag.String("config", "", "Path to run configuration JSON file")
	region     = flag.String("region", "", "Load region for raw images: bios or rom")
	maxInsts   = flag.Uint64("max", 0, "Stop after this many instructions (0 keeps the config value)")
	trace      = flag.Bool("trace", false, "Log every executed instruction")
	traceMem   = flag.Bool("trace-mem", false, "Also log data loads and stores")
	trap       = flag.Bool("trap-undefined", false, "Enter the Undefined exception instead of halting")
	thumb      = flag.Bool("thumb", false, "Start in Thumb state")
	dump       = flag.Bool("dump", false, "Print the CPU state when the run ends")
	verbose    = flag.Bool("v", false, "Verbose output")
	cpuProfile = flag.String("cpuprofile", "", "Write a CPU profile to file")
	memProfile = flag.String("memprofile", "", "Write a memory profile to file")
)

func main() {
	flag.Parse()

	if flag.NArg() < 1 {
		fmt.Fprintf(os.Stderr, "Usage: gbasim [options] <image>\n")
		fmt.Fprintf(os.Stderr, "\nOptions:\n")
		flag.PrintDefaults()
		os.Exit(1)
	}

	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	stopProfile, err := startCPUProfile(*cpuProfile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error starting CPU profile: %v\n", err)
		os.Exit(1)
	}

	code := run(flag.Arg(0), runOptions{
		cfg:     cfg,
		dump:    *dump,
		verbose: *verbose,
		stdout:  os.Stdout,
		stderr:  os.Stderr,
	})

	stopProfile()
	if err := writeMemProfile(*memProfile); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing memory profile: %v\n", err)
	}

	os.Exit(code)
}

// startCPUProfile starts CPU profiling into path. The returned function stops
// it. An empty path disables profiling.
func startCPUProfile(path string) (func(), error) {
	if path == "" {
		return func() {}, nil
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	if err := pprof.StartCPUProfile(f); err != nil {
		_ = f.Close()
		return nil, err
	}

	return func() {
		pprof.StopCPUProfile()
		_ = f.Close()
	}, nil
}

// writeMemProfile writes a heap profile to path. An empty path does nothing.
func writeMemProfile(path string) error {
	if path == "" {
		return nil
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	return pprof.WriteHeapProfile(f)
}

// loadConfig reads the config file, if any, and applies flag overrides.
func loadConfig() (*config.Config, error) {
	cfg := config.Default()
	if *configPath != "" {
		var err error
		cfg, err = config.Load(*configPath)
		if err != nil {
			return nil, err
		}
	}

	if *region != "" {
		cfg.LoadRegion = *region
	}
	if *maxInsts != 0 {
		cfg.MaxInstructions = *maxInsts
	}
	if *trace || *traceMem {
		cfg.Trace = true
	}
	if *traceMem {
		cfg.TraceMemory = true
	}
	if *trap {
		cfg.UndefinedPolicy = config.PolicyTrap
	}
	if *thumb {
		cfg.ThumbEntry = true
	}

	return cfg, nil
}

type runOptions struct {
	cfg     *config.Config
	dump    bool
	verbose bool
	stdout  io.Writer
	stderr  io.Writer
}

// newLogger writes logr records to w, one per line.
func newLogger(w io.Writer, verbosity int) logr.Logger {
	return funcr.New(func(prefix, args string) {
		if prefix != "" {
			fmt.Fprintf(w, "%s: %s\n", prefix, args)
			return
		}
		fmt.Fprintln(w, args)
	}, funcr.Options{Verbosity: verbosity})
}

// run loads the image at programPath, runs it and returns the exit status.
func run(programPath string, opts runOptions) int {
	cfg := opts.cfg
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(opts.stderr, "Invalid config: %v\n", err)
		return 1
	}

	log := newLogger(opts.stderr, cfg.TraceVerbosity()).WithName("gbasim")

	prog, err := loader.Load(programPath, cfg.LoadBase())
	if err != nil {
		fmt.Fprintf(opts.stderr, "Error loading program: %v\n", err)
		return 1
	}

	var memOpts []memory.Option
	if cfg.ReadOnlyBIOS {
		memOpts = append(memOpts, memory.WithReadOnlyBIOS())
	}
	mem := memory.New(memOpts...)
	if err := prog.Install(mem); err != nil {
		fmt.Fprintf(opts.stderr, "Error loading program: %v\n", err)
		return 1
	}

	entry := prog.EntryPoint
	if cfg.EntryPoint != 0 {
		entry = cfg.EntryPoint
	}

	if opts.verbose {
		log.Info("loaded",
			"path", programPath,
			"entry", fmt.Sprintf("0x%08X", entry),
			"segments", len(prog.Segments))
	}

	cpuOpts := []emu.CPUOption{emu.WithUndefinedTrap(cfg.TrapUndefined())}
	if cfg.Trace {
		cpuOpts = append(cpuOpts, emu.WithTracer(emu.NewLogTracer(log.WithName("trace"))))
	}

	emulator := emu.NewEmulator(
		emu.WithMemory(mem),
		emu.WithEntryPoint(entry, prog.Thumb || cfg.ThumbEntry),
		emu.WithMaxInstructions(cfg.MaxInstructions),
		emu.WithCPUOptions(cpuOpts...),
	)

	runErr := emulator.Run()

	if opts.verbose {
		log.Info("finished",
			"instructions", emulator.InstructionCount(),
			"steps", emulator.StepCount())
	}

	if opts.dump {
		if err := emulator.CPU().Snapshot().Dump(opts.stdout); err != nil {
			fmt.Fprintf(opts.stderr, "Error dumping state: %v\n", err)
		}
	}

	if runErr != nil {
		fmt.Fprintf(opts.stderr, "Error: %v\n", runErr)
		return 1
	}

	return 0
}
