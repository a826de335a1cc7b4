// Package main provides a profiling wrapper for rv32sim to identify
// simulator performance bottlenecks.
package main

import (
	"flag"
	"fmt"
	"os"
	"runtime/pprof"
	"time"

	"github.com/sarchlab/rv32sim/benchmarks"
	"github.com/sarchlab/rv32sim/emu"
	"github.com/sarchlab/rv32sim/loader"
	"github.com/sarchlab/rv32sim/timing/core"
)

var (
	cpuProfile = flag.String("cpuprofile", "", "write cpu profile to file")
	memProfile = flag.String("memprofile", "", "write memory profile to file")
	duration   = flag.Duration("duration", 30*time.Second, "max duration to run (for profiling)")
	maxCycles  = flag.Uint64("max-cycles", 10_000_000, "max cycles to simulate")
	caches     = flag.Bool("caches", false, "attach the default L1 cache models")
	binAddr    = flag.Uint64("bin", 0, "treat the program as a flat binary loaded at this address")
)

func main() {
	flag.Parse()

	if flag.NArg() < 1 {
		fmt.Fprintf(os.Stderr, "Usage: profile [options] <program>\n")
		fmt.Fprintf(os.Stderr, "\nOptions:\n")
		flag.PrintDefaults()
		os.Exit(1)
	}

	if *cpuProfile != "" {
		f, err := os.Create(*cpuProfile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error creating CPU profile: %v\n", err)
			os.Exit(1)
		}
		defer func() { _ = f.Close() }()

		if err := pprof.StartCPUProfile(f); err != nil {
			fmt.Fprintf(os.Stderr, "Error starting CPU profile: %v\n", err)
			os.Exit(1)
		}
		defer pprof.StopCPUProfile()
	}

	programPath := flag.Arg(0)

	var (
		prog *loader.Program
		err  error
	)
	if *binAddr != 0 {
		prog, err = loader.LoadFlat(programPath, uint32(*binAddr))
	} else {
		prog, err = loader.Load(programPath)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading program: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Loaded: %s\n", programPath)
	fmt.Printf("Entry point: 0x%X\n", prog.EntryPoint)

	start := time.Now()

	go func() {
		time.Sleep(*duration)
		fmt.Printf("\nTimeout reached after %v - stopping execution\n", *duration)
		os.Exit(2)
	}()

	stats, runErr := runProfile(prog)

	elapsed := time.Since(start)

	if *memProfile != "" {
		f, err := os.Create(*memProfile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error creating memory profile: %v\n", err)
			os.Exit(1)
		}
		defer func() { _ = f.Close() }()

		if err := pprof.WriteHeapProfile(f); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing memory profile: %v\n", err)
		}
	}

	fmt.Printf("\nProfiling Results:\n")
	if runErr != nil {
		fmt.Printf("Stopped: %v\n", runErr)
	}
	fmt.Printf("Cycles simulated: %d\n", stats.Cycles)
	fmt.Printf("Instructions retired: %d\n", stats.Instructions)
	fmt.Printf("Elapsed time: %v\n", elapsed)
	if stats.Cycles > 0 {
		fmt.Printf("Cycles/second: %.0f\n", float64(stats.Cycles)/elapsed.Seconds())
	}
}

// runProfile runs the program until it halts or the cycle budget is spent.
func runProfile(prog *loader.Program) (core.Stats, error) {
	memory := emu.NewMemory()
	prog.LoadInto(memory)

	opts := []core.Option{core.WithResetVector(prog.EntryPoint)}
	if *caches {
		opts = append(opts, core.WithDefaultCaches())
	}

	c, err := core.NewCore(opts...)
	if err != nil {
		return core.Stats{}, err
	}

	err = benchmarks.RunUntilHalt(c, memory, nil, *maxCycles)
	return c.Stats(), err
}
