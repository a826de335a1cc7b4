// Package core provides the cycle-level RV32 CPU core model.
//
// A Core owns its latched State and nothing else. Memory and devices are
// reached through an emu.Bus handed to every Tick, and the interrupt lines
// are sampled from the irq argument of the same call.
package core

import (
	"errors"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"

	"github.com/sarchlab/rv32sim/emu"
	"github.com/sarchlab/rv32sim/insts"
	"github.com/sarchlab/rv32sim/timing/cache"
)

// Construction errors.
var (
	ErrInvalidHart      = errors.New("hart index must not be negative")
	ErrWallClockDivider = errors.New("wall clock divider must be positive")
)

// Core represents a cycle-level RV32 CPU core.
type Core struct {
	hart             int
	resetVector      uint32
	csrMap           emu.CSRMap
	wallClockDivider uint64
	softwareTraps    bool

	decoder *insts.Decoder
	state   State

	icacheConfig *cache.Config
	dcacheConfig *cache.Config
	icache       *cache.Cache
	dcache       *cache.Cache

	logger  logrus.FieldLogger
	tracing bool

}

// NewCore creates a core in the reset state.
func NewCore(opts ...Option) (*Core, error) {
	c := &Core{
		resetVector:      DefaultResetVector,
		csrMap:           emu.DefaultCSRMap(),
		wallClockDivider: DefaultWallClockDivider,
		softwareTraps:    true,
		decoder:          insts.NewDecoder(),
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.hart < 0 {
		return nil, fmt.Errorf("hart %d: %w", c.hart, ErrInvalidHart)
	}
	if c.wallClockDivider == 0 {
		return nil, ErrWallClockDivider
	}
	if err := c.csrMap.Validate(); err != nil {
		return nil, fmt.Errorf("csr map: %w", err)
	}

	if c.icacheConfig != nil {
		icache, err := cache.New(*c.icacheConfig)
		if err != nil {
			return nil, fmt.Errorf("icache: %w", err)
		}
		c.icache = icache
	}
	if c.dcacheConfig != nil {
		dcache, err := cache.New(*c.dcacheConfig)
		if err != nil {
			return nil, fmt.Errorf("dcache: %w", err)
		}
		c.dcache = dcache
	}

	if c.logger == nil {
		silent := logrus.New()
		silent.SetOutput(io.Discard)
		silent.SetLevel(logrus.PanicLevel)
		c.logger = silent
	}
	c.logger = c.logger.WithField("hart", c.hart)
	c.tracing = levelEnabled(c.logger, logrus.TraceLevel)

	return c, nil
}

// MustNewCore is NewCore that panics on error.
func MustNewCore(opts ...Option) *Core {
	c, err := NewCore(opts...)
	if err != nil {
		panic(err)
	}
	return c
}

func levelEnabled(logger logrus.FieldLogger, level logrus.Level) bool {
	switch l := logger.(type) {
	case *logrus.Entry:
		return l.Logger.IsLevelEnabled(level)
	case *logrus.Logger:
		return l.IsLevelEnabled(level)
	default:
		return true
	}
}

// Hart returns the hart index.
func (c *Core) Hart() int {
	return c.hart
}

// State returns a copy of the latched state.
func (c *Core) State() State {
	return c.state
}

// SetState replaces the latched state, for snapshot restore. Event
// counters travel with the state; the cache models do not and keep their
// contents and statistics.
func (c *Core) SetState(s State) {
	c.state = s
}

// PC returns the address of the instruction in flight.
func (c *Core) PC() uint32 {
	return c.state.PC
}

// Reg reads general-purpose register i.
func (c *Core) Reg(i uint8) uint32 {
	return c.state.Regs.ReadReg(i)
}

// SetReg writes general-purpose register i. Writes to x0 are ignored.
func (c *Core) SetReg(i uint8, value uint32) {
	c.state.Regs.WriteReg(i, value)
}

// Phase returns the control state the next tick will run.
func (c *Core) Phase() Phase {
	return c.state.Phase
}

// TrapMode returns the trap sequence being injected, if any.
func (c *Core) TrapMode() emu.TrapMode {
	return c.state.Trap.Mode
}

// RequestReset asks for a reset. It takes effect at the end of the next
// tick.
func (c *Core) RequestReset() {
	c.state.ResetPending = true
}

// Reset puts the core straight into the reset state. Registers and the PC
// are reinitialized by the next tick.
func (c *Core) Reset() {
	c.state.Phase = PhaseReset
	c.state.ResetPending = false
}

// ICache returns the instruction cache model, or nil.
func (c *Core) ICache() *cache.Cache {
	return c.icache
}

// DCache returns the data cache model, or nil.
func (c *Core) DCache() *cache.Cache {
	return c.dcache
}

// Stats returns performance statistics for the core.
func (c *Core) Stats() Stats {
	s := Stats{
		Cycles:         c.state.Cycles,
		Instructions:   c.state.Retired,
		WallClock:      c.state.WallClock,
		Traps:          make(map[string]uint64),
		TrapExits:      c.state.counters.trapExits,
		IllegalIgnored: c.state.counters.illegalIgnored,
		WFI:            c.state.counters.wfi,
	}

	for mode, n := range c.state.counters.traps {
		if n != 0 {
			s.Traps[emu.TrapMode(mode).String()] = n
		}
	}

	if c.icache != nil {
		st := c.icache.Stats()
		s.ICache = &st
	}
	if c.dcache != nil {
		st := c.dcache.Stats()
		s.DCache = &st
	}

	return s
}

// Tick advances the core by one clock.
//
// It returns false only when an illegal instruction executed while
// software traps are disabled; the instruction is then skipped.
func (c *Core) Tick(bus emu.Bus, irq uint32) bool {
	next, ok := c.advance(c.state, bus, irq)
	c.state = next
	return ok
}

// Step ticks until one more instruction retires or a tick reports false.
// At most three ticks are needed, one of them for a reset.
func (c *Core) Step(bus emu.Bus, irq uint32) bool {
	retired := c.state.Retired
	for c.state.Retired == retired {
		if !c.Tick(bus, irq) {
			return false
		}
	}
	return true
}

// RunCycles ticks n times with the given interrupt lines. It stops early
// and returns false if a tick reports false.
func (c *Core) RunCycles(bus emu.Bus, irq uint32, n uint64) bool {
	for i := uint64(0); i < n; i++ {
		if !c.Tick(bus, irq) {
			return false
		}
	}
	return true
}

// advance computes the state after one tick from cur. It writes to bus but
// never mutates cur.
func (c *Core) advance(cur State, bus emu.Bus, irq uint32) (State, bool) {
	next := cur
	ok := true

	c.publishCounters(bus, &cur)

	if cur.Cycles%c.wallClockDivider == 0 {
		next.WallClock++
	}
	next.Cycles++

	switch cur.Phase {
	case PhaseReset:
		c.reset(&next)
	case PhaseFetchDecode:
		c.fetchDecode(bus, &cur, &next)
	case PhaseExecute:
		ok = c.execute(bus, irq, &cur, &next)
	}

	if next.ResetPending {
		next.ResetPending = false
		next.Phase = PhaseReset
	}

	// The PC stays frozen on the trapping instruction while microcode
	// is injected.
	if !next.Trap.Active() {
		next.PC = next.PCNext
	}

	return next, ok
}

// publishCounters mirrors the pre-tick counters and PC into the CSR bank.
func (c *Core) publishCounters(bus emu.Bus, s *State) {
	m := c.csrMap
	csr := func(offset uint16, value uint32) {
		bus.Write(m.Addr(c.hart, offset), value, emu.StrobeWord)
	}

	csr(m.CycleLo, uint32(s.Cycles))
	csr(m.CycleHi, uint32(s.Cycles>>32))
	csr(m.RetiredLo, uint32(s.Retired))
	csr(m.RetiredHi, uint32(s.Retired>>32))
	csr(m.TimeLo, uint32(s.WallClock))
	csr(m.TimeHi, uint32(s.WallClock>>32))
	csr(m.ProgramCounter, s.PC)
}

func (c *Core) reset(next *State) {
	next.PCNext = c.resetVector
	next.Regs.Clear()
	next.Trap.Clear()
	next.Latch = DecodeLatch{}
	next.Phase = PhaseFetchDecode

	c.logger.WithField("pc", fmt.Sprintf("0x%08x", c.resetVector)).Debug("reset")
}

func (c *Core) fetchDecode(bus emu.Bus, cur, next *State) {
	var word uint32
	if next.Trap.Active() {
		word = next.Trap.Next()
	} else {
		word = bus.Read(cur.PC)
		if c.icache != nil {
			c.icache.Read(cur.PC)
		}
	}

	d := c.decoder.Decode(word)
	rval1 := cur.Regs.ReadReg(d.Rs1)
	rval2 := cur.Regs.ReadReg(d.Rs2)

	operandB := rval2
	if d.SelectImm {
		operandB = uint32(d.Imm)
	}

	next.Latch = DecodeLatch{
		Instruction: word,
		Decoded:     d,
		RVal1:       rval1,
		RVal2:       rval2,
		ALUOut:      emu.ALU(d.ALUOp, d.Funct3, rval1, operandB),
		BranchOut:   emu.EvaluateBranch(d.BranchOp, rval1, rval2),
	}
	next.Phase = PhaseExecute
}
