// Package main provides the entry point for rv32sim, a cycle-level RV32IM
// core simulator.
package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"maps"
	"os"
	"slices"

	"github.com/sirupsen/logrus"
	"golang.org/x/term"

	"github.com/sarchlab/rv32sim/benchmarks"
	"github.com/sarchlab/rv32sim/config"
	"github.com/sarchlab/rv32sim/emu"
	"github.com/sarchlab/rv32sim/insts"
	"github.com/sarchlab/rv32sim/loader"
	"github.com/sarchlab/rv32sim/timing/core"
)

// Exit statuses other than the program's own a0.
const (
	exitUsage = 64
	exitFault = 70
)

type options struct {
	configPath string
	dumpConfig string
	binPath    string
	binAddr    uint64
	maxCycles  uint64
	trace      bool
	verbose    bool
	statsJSON  bool
	noTraps    bool
	caches     bool
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func parseFlags(args []string, stderr io.Writer) (*options, *flag.FlagSet, error) {
	opts := &options{}

	fs := flag.NewFlagSet("rv32sim", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&opts.configPath, "config", "", "Path to core configuration (JSON or YAML)")
	fs.StringVar(&opts.dumpConfig, "dump-config", "", "Write the effective configuration to this path")
	fs.StringVar(&opts.binPath, "bin", "", "Load a flat binary instead of an ELF file")
	fs.Uint64Var(&opts.binAddr, "addr", 0, "Load address of -bin (default: reset vector)")
	fs.Uint64Var(&opts.maxCycles, "cycles", 10_000_000, "Maximum number of cycles to simulate")
	fs.BoolVar(&opts.trace, "trace", false, "Trace every executed instruction")
	fs.BoolVar(&opts.verbose, "v", false, "Verbose output")
	fs.BoolVar(&opts.statsJSON, "json", false, "Print statistics as JSON")
	fs.BoolVar(&opts.noTraps, "no-traps", false, "Ignore illegal instructions instead of trapping")
	fs.BoolVar(&opts.caches, "caches", false, "Attach the default L1 cache models")
	fs.Usage = func() {
		_, _ = fmt.Fprintf(stderr, "Usage: rv32sim [options] <program.elf>\n")
		_, _ = fmt.Fprintf(stderr, "       rv32sim [options] -bin <program.bin>\n")
		_, _ = fmt.Fprintf(stderr, "\nOptions:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return nil, fs, err
	}

	if (opts.binPath == "") == (fs.NArg() < 1) {
		fs.Usage()
		return nil, fs, errors.New("exactly one of -bin or an ELF path is required")
	}

	return opts, fs, nil
}

func newLogger(opts *options, stderr io.Writer) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(stderr)

	colors := false
	if f, ok := stderr.(*os.File); ok {
		colors = term.IsTerminal(int(f.Fd()))
	}
	logger.SetFormatter(&logrus.TextFormatter{
		ForceColors:      colors,
		DisableColors:    !colors,
		DisableTimestamp: true,
	})

	switch {
	case opts.trace:
		logger.SetLevel(logrus.TraceLevel)
	case opts.verbose:
		logger.SetLevel(logrus.DebugLevel)
	default:
		logger.SetLevel(logrus.WarnLevel)
	}

	return logger
}

func loadConfig(opts *options) (*config.CoreConfig, error) {
	cfg := config.Default()
	if opts.configPath != "" {
		var err error
		cfg, err = config.Load(opts.configPath)
		if err != nil {
			return nil, err
		}
	}

	if opts.noTraps {
		cfg.SoftwareTraps = false
	}

	return cfg, nil
}

func loadProgram(opts *options, fs *flag.FlagSet, cfg *config.CoreConfig) (*loader.Program, error) {
	if opts.binPath != "" {
		addr := cfg.ResetVector
		if opts.binAddr != 0 {
			addr = uint32(opts.binAddr)
		}
		return loader.LoadFlat(opts.binPath, addr)
	}
	return loader.Load(fs.Arg(0))
}

func run(args []string, stdout, stderr io.Writer) int {
	opts, fs, err := parseFlags(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return exitUsage
	}

	logger := newLogger(opts, stderr)

	cfg, err := loadConfig(opts)
	if err != nil {
		logger.WithError(err).Error("loading configuration")
		return exitUsage
	}

	prog, err := loadProgram(opts, fs, cfg)
	if err != nil {
		logger.WithError(err).Error("loading program")
		return exitUsage
	}

	// The program's entry point replaces the configured reset vector.
	cfg.ResetVector = prog.EntryPoint

	if opts.dumpConfig != "" {
		if err := cfg.Save(opts.dumpConfig); err != nil {
			logger.WithError(err).Error("writing configuration")
			return exitUsage
		}
	}

	coreOpts := []core.Option{core.WithLogger(logger)}
	if opts.caches {
		coreOpts = append(coreOpts, core.WithDefaultCaches())
	}

	c, err := cfg.NewCore(coreOpts...)
	if err != nil {
		logger.WithError(err).Error("creating core")
		return exitUsage
	}

	memory := emu.NewMemory()
	prog.LoadInto(memory)

	logger.WithFields(logrus.Fields{
		"entry":    fmt.Sprintf("0x%08x", prog.EntryPoint),
		"segments": len(prog.Segments),
		"bytes":    prog.Size(),
	}).Debug("program loaded")

	runErr := benchmarks.RunUntilHalt(c, memory, nil, opts.maxCycles)
	if runErr != nil {
		logger.WithError(runErr).Warn("simulation stopped")
	}

	if opts.verbose {
		dumpRegisters(stdout, c)
	}

	if err := printStats(stdout, c.Stats(), opts.statsJSON); err != nil {
		logger.WithError(err).Error("printing statistics")
	}

	if runErr != nil {
		return exitFault
	}
	return int(c.Reg(10) & 0xFF)
}

// dumpRegisters prints the register file four registers to a line.
func dumpRegisters(w io.Writer, c *core.Core) {
	_, _ = fmt.Fprintf(w, "pc   %08x  phase %s  trap %s\n", c.PC(), c.Phase(), c.TrapMode())
	for i := uint8(0); i < 32; i++ {
		_, _ = fmt.Fprintf(w, "%-4s %08x", insts.RegName(i), c.Reg(i))
		if i%4 == 3 {
			_, _ = fmt.Fprintln(w)
		} else {
			_, _ = fmt.Fprint(w, "  ")
		}
	}
}

func printStats(w io.Writer, stats core.Stats, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(stats)
	}

	_, _ = fmt.Fprintf(w, "Cycles:       %d\n", stats.Cycles)
	_, _ = fmt.Fprintf(w, "Instructions: %d\n", stats.Instructions)
	_, _ = fmt.Fprintf(w, "CPI:          %.2f\n", stats.CPI())
	_, _ = fmt.Fprintf(w, "Wall clock:   %d\n", stats.WallClock)
	for _, name := range slices.Sorted(maps.Keys(stats.Traps)) {
		_, _ = fmt.Fprintf(w, "Trap %-12s %d\n", name+":", stats.Traps[name])
	}
	if stats.ICache != nil {
		_, _ = fmt.Fprintf(w, "I$ hit rate:  %.2f%%\n", 100*stats.ICache.HitRate())
	}
	if stats.DCache != nil {
		_, _ = fmt.Fprintf(w, "D$ hit rate:  %.2f%%\n", 100*stats.DCache.HitRate())
	}
	return nil
}
