package core

import (
	"github.com/sarchlab/rv32sim/emu"
	"github.com/sarchlab/rv32sim/insts"
)

// Phase is the state of the core's control state machine.
type Phase uint8

// Control states. Every instruction takes one FetchDecode and one Execute
// tick.
const (
	PhaseReset Phase = iota
	PhaseFetchDecode
	PhaseExecute
)

func (p Phase) String() string {
	switch p {
	case PhaseReset:
		return "reset"
	case PhaseFetchDecode:
		return "fetch-decode"
	case PhaseExecute:
		return "execute"
	default:
		return "unknown"
	}
}

// DecodeLatch holds what FetchDecode produced for Execute to consume.
type DecodeLatch struct {
	// Instruction is the raw word, from memory or from trap microcode.
	Instruction uint32
	Decoded     insts.Instruction

	// Register operands read at decode time.
	RVal1 uint32
	RVal2 uint32

	// ALUOut and BranchOut are the precomputed ALU and branch unit
	// outputs for the latched operands.
	ALUOut    uint32
	BranchOut bool
}

// State is the complete latched state of one core, event counters
// included. A tick reads the current State and produces the next one;
// only the optional cache models live outside it.
type State struct {
	Phase Phase

	// PC is the address of the instruction in flight. PCNext is the PC
	// register input, committed at the end of every tick unless trap
	// microcode is being injected.
	PC     uint32
	PCNext uint32

	Latch DecodeLatch
	Regs  emu.RegFile
	Trap  emu.TrapSequencer

	Cycles    uint64
	Retired   uint64
	WallClock uint64

	// ResetPending forces the next state to PhaseReset.
	ResetPending bool

	counters counters
}
