// Package benchmarks provides an RV32 program suite and a harness that runs
// it on the core and reports cycle counts.
package benchmarks

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/sarchlab/rv32sim/emu"
	"github.com/sarchlab/rv32sim/insts"
	"github.com/sarchlab/rv32sim/timing/cache"
	"github.com/sarchlab/rv32sim/timing/core"
)

// ProgramBase is where every benchmark program is loaded and where the core
// starts fetching.
const ProgramBase = 0x1000

// DefaultMaxCycles bounds a benchmark run that never reaches its halt loop.
const DefaultMaxCycles = 1_000_000

// haltWord is "jal zero, 0", the self-loop every benchmark ends in.
var haltWord = insts.EncodeJAL(0, 0)

// BenchmarkResult holds the results for a single benchmark run.
type BenchmarkResult struct {
	// Name identifies the benchmark
	Name string `json:"name"`

	// Description explains what the benchmark measures
	Description string `json:"description"`

	// SimulatedCycles is the total tick count
	SimulatedCycles uint64 `json:"simulated_cycles"`

	// InstructionsRetired counts program and trap microcode instructions
	InstructionsRetired uint64 `json:"instructions_retired"`

	// CPI is cycles per instruction
	CPI float64 `json:"cpi"`

	// TrapsEntered is the number of trap entry sequences
	TrapsEntered uint64 `json:"traps_entered"`

	// TrapExits is the number of mret exit sequences
	TrapExits uint64 `json:"trap_exits"`

	// ICacheHits/Misses (if cache enabled)
	ICacheHits   uint64 `json:"icache_hits,omitempty"`
	ICacheMisses uint64 `json:"icache_misses,omitempty"`

	// DCacheHits/Misses (if cache enabled)
	DCacheHits   uint64 `json:"dcache_hits,omitempty"`
	DCacheMisses uint64 `json:"dcache_misses,omitempty"`

	// ExitCode is a0 when the program reached its halt loop
	ExitCode uint32 `json:"exit_code"`

	// Halted is false when the run hit the cycle limit or stopped on an
	// illegal instruction
	Halted bool `json:"halted"`

	// Error describes why a run did not halt
	Error string `json:"error,omitempty"`

	// WallTime is the actual time taken to run the simulation
	WallTime time.Duration `json:"wall_time_ns"`
}

// IRQSource drives the interrupt lines. It is sampled once per execute
// tick with the cycle count and the memory, so it can model a device.
type IRQSource func(cycle uint64, memory *emu.Memory) uint32

// Benchmark defines a single benchmark program.
type Benchmark struct {
	// Name identifies the benchmark
	Name string

	// Description explains what the benchmark measures
	Description string

	// Setup prepares memory (data, CSR values) before the first tick
	Setup func(memory *emu.Memory)

	// Program is the RV32 machine code, loaded at ProgramBase
	Program []byte

	// IRQ drives the interrupt lines; nil keeps them low
	IRQ IRQSource

	// ExpectedExit is the expected a0 at halt (for validation)
	ExpectedExit uint32
}

// HarnessConfig configures the benchmark harness.
type HarnessConfig struct {
	// EnableICache enables instruction cache statistics
	EnableICache bool

	// EnableDCache enables data cache statistics
	EnableDCache bool

	// MaxCycles bounds each run
	MaxCycles uint64

	// Output is where to write results (default: os.Stdout)
	Output io.Writer

	// Logger receives core tracing; nil keeps the core silent
	Logger logrus.FieldLogger

	// Verbose enables detailed output
	Verbose bool
}

// DefaultConfig returns a default harness configuration.
func DefaultConfig() HarnessConfig {
	return HarnessConfig{
		EnableICache: true,
		EnableDCache: true,
		MaxCycles:    DefaultMaxCycles,
		Output:       os.Stdout,
		Verbose:      false,
	}
}

// Harness runs benchmarks and reports results.
type Harness struct {
	config     HarnessConfig
	benchmarks []Benchmark
}

// NewHarness creates a new benchmark harness.
func NewHarness(config HarnessConfig) *Harness {
	if config.Output == nil {
		config.Output = os.Stdout
	}
	if config.MaxCycles == 0 {
		config.MaxCycles = DefaultMaxCycles
	}
	return &Harness{
		config:     config,
		benchmarks: []Benchmark{},
	}
}

// AddBenchmark adds a benchmark to the harness.
func (h *Harness) AddBenchmark(b Benchmark) {
	h.benchmarks = append(h.benchmarks, b)
}

// AddBenchmarks adds multiple benchmarks to the harness.
func (h *Harness) AddBenchmarks(benchmarks []Benchmark) {
	h.benchmarks = append(h.benchmarks, benchmarks...)
}

// RunAll executes all benchmarks and returns results.
func (h *Harness) RunAll() []BenchmarkResult {
	results := make([]BenchmarkResult, 0, len(h.benchmarks))

	for _, bench := range h.benchmarks {
		results = append(results, h.runBenchmark(bench))
	}

	return results
}

func (h *Harness) coreOptions() []core.Option {
	opts := []core.Option{core.WithResetVector(ProgramBase)}
	if h.config.EnableICache {
		opts = append(opts, core.WithICache(cache.DefaultL1IConfig()))
	}
	if h.config.EnableDCache {
		opts = append(opts, core.WithDCache(cache.DefaultL1DConfig()))
	}
	if h.config.Logger != nil {
		opts = append(opts, core.WithLogger(h.config.Logger))
	}
	return opts
}

// runBenchmark executes a single benchmark until it reaches its halt loop.
func (h *Harness) runBenchmark(bench Benchmark) BenchmarkResult {
	result := BenchmarkResult{
		Name:        bench.Name,
		Description: bench.Description,
	}

	memory := emu.NewMemory()
	if bench.Setup != nil {
		bench.Setup(memory)
	}
	memory.LoadProgram(ProgramBase, bench.Program)

	c, err := core.NewCore(h.coreOptions()...)
	if err != nil {
		result.Error = err.Error()
		return result
	}

	start := time.Now()
	err = RunUntilHalt(c, memory, bench.IRQ, h.config.MaxCycles)
	result.WallTime = time.Since(start)
	if err != nil {
		result.Error = err.Error()
	} else {
		result.Halted = true
	}

	stats := c.Stats()
	result.SimulatedCycles = stats.Cycles
	result.InstructionsRetired = stats.Instructions
	result.CPI = stats.CPI()
	result.TrapsEntered = stats.TrapsEntered()
	result.TrapExits = stats.TrapExits
	result.ExitCode = c.Reg(10)

	if stats.ICache != nil {
		result.ICacheHits = stats.ICache.Hits
		result.ICacheMisses = stats.ICache.Misses
	}
	if stats.DCache != nil {
		result.DCacheHits = stats.DCache.Hits
		result.DCacheMisses = stats.DCache.Misses
	}

	if h.config.Verbose {
		_, _ = fmt.Fprintf(h.config.Output, "%s: halted=%v cycles=%d a0=%d\n",
			bench.Name, result.Halted, result.SimulatedCycles, result.ExitCode)
	}

	return result
}

// Run errors.
var (
	ErrNoHalt  = errors.New("no halt within cycle limit")
	ErrIllegal = errors.New("illegal instruction")
)

// RunUntilHalt ticks c until it retires the "jal zero, 0" halt loop outside
// of any trap sequence. irqSource may be nil; it is sampled on execute ticks
// only. The returned error wraps ErrNoHalt or ErrIllegal.
func RunUntilHalt(c *core.Core, memory *emu.Memory, irqSource IRQSource, maxCycles uint64) error {
	for c.State().Cycles < maxCycles {
		before := c.State()

		var irq uint32
		if irqSource != nil && before.Phase == core.PhaseExecute {
			irq = irqSource(before.Cycles, memory)
		}

		if !c.Tick(memory, irq) {
			return fmt.Errorf("%w at 0x%08x", ErrIllegal, before.PC)
		}

		after := c.State()
		if after.Retired != before.Retired &&
			!after.Trap.Active() &&
			after.PC == before.PC &&
			after.Latch.Instruction == haltWord {
			return nil
		}
	}

	return fmt.Errorf("%w (%d)", ErrNoHalt, maxCycles)
}

// PrintResults outputs benchmark results in a human-readable format.
// Counts are printed with digit grouping.
func (h *Harness) PrintResults(results []BenchmarkResult) {
	w := h.config.Output
	p := message.NewPrinter(language.English)

	_, _ = p.Fprintln(w, "=== RV32 Benchmark Results ===")
	_, _ = p.Fprintln(w, "")

	for _, r := range results {
		_, _ = p.Fprintf(w, "Benchmark: %s\n", r.Name)
		_, _ = p.Fprintf(w, "  Description: %s\n", r.Description)
		_, _ = p.Fprintf(w, "  Exit Code: %d\n", r.ExitCode)
		if !r.Halted {
			_, _ = p.Fprintf(w, "  Error: %s\n", r.Error)
		}
		_, _ = p.Fprintln(w, "  --- Timing ---")
		_, _ = p.Fprintf(w, "  Simulated Cycles:     %d\n", r.SimulatedCycles)
		_, _ = p.Fprintf(w, "  Instructions Retired: %d\n", r.InstructionsRetired)
		_, _ = p.Fprintf(w, "  CPI:                  %.3f\n", r.CPI)
		if r.TrapsEntered > 0 {
			_, _ = p.Fprintf(w, "  Traps Entered:        %d\n", r.TrapsEntered)
			_, _ = p.Fprintf(w, "  Trap Exits:           %d\n", r.TrapExits)
		}

		if r.ICacheHits > 0 || r.ICacheMisses > 0 {
			_, _ = p.Fprintln(w, "  --- I-Cache ---")
			_, _ = p.Fprintf(w, "  Hits:   %d\n", r.ICacheHits)
			_, _ = p.Fprintf(w, "  Misses: %d\n", r.ICacheMisses)
		}

		if r.DCacheHits > 0 || r.DCacheMisses > 0 {
			_, _ = p.Fprintln(w, "  --- D-Cache ---")
			_, _ = p.Fprintf(w, "  Hits:   %d\n", r.DCacheHits)
			_, _ = p.Fprintf(w, "  Misses: %d\n", r.DCacheMisses)
		}

		_, _ = p.Fprintf(w, "  Wall Time: %v\n", r.WallTime)
		_, _ = p.Fprintln(w, "")
	}
}

// PrintCSV outputs benchmark results in CSV format for easy comparison.
func (h *Harness) PrintCSV(results []BenchmarkResult) {
	_, _ = fmt.Fprintln(h.config.Output,
		"name,cycles,instructions,cpi,traps,icache_hits,icache_misses,dcache_hits,dcache_misses,halted,exit_code")

	for _, r := range results {
		_, _ = fmt.Fprintf(h.config.Output, "%s,%d,%d,%.3f,%d,%d,%d,%d,%d,%t,%d\n",
			r.Name,
			r.SimulatedCycles,
			r.InstructionsRetired,
			r.CPI,
			r.TrapsEntered,
			r.ICacheHits,
			r.ICacheMisses,
			r.DCacheHits,
			r.DCacheMisses,
			r.Halted,
			r.ExitCode,
		)
	}
}

// PrintJSON outputs benchmark results as an indented JSON array.
func (h *Harness) PrintJSON(results []BenchmarkResult) error {
	enc := json.NewEncoder(h.config.Output)
	enc.SetIndent("", "  ")
	if err := enc.Encode(results); err != nil {
		return fmt.Errorf("failed to encode results: %w", err)
	}
	return nil
}

// BuildProgram assembles instruction words into a little-endian byte slice.
func BuildProgram(instrs ...uint32) []byte {
	program := make([]byte, len(instrs)*4)
	for i, inst := range instrs {
		binary.LittleEndian.PutUint32(program[i*4:], inst)
	}
	return program
}
