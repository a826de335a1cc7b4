// Package emu provides the combinational units of the RV32 core.
package emu

import "fmt"

// TrapMode identifies a trap sequence. The low bits carry the trap class;
// TrapExit marks the exit sequence of that class. Zero means no sequence
// is being injected.
type TrapMode uint32

// Trap classes and the exit marker.
const (
	TrapNone       TrapMode = 0
	TrapSoftware   TrapMode = 1 // illegal instruction
	TrapHardware   TrapMode = 2 // external interrupt, irq bit 0
	TrapTimer      TrapMode = 3 // timer interrupt, irq bit 1
	TrapBreakpoint TrapMode = 4 // ebreak
	TrapECall      TrapMode = 5 // ecall

	TrapExit TrapMode = 0x80000000
)

// IRQ line bits sampled by the core once per tick.
const (
	IRQHardware uint32 = 1 << 0
	IRQTimer    uint32 = 1 << 1
)

// IsExit reports whether m is an exit sequence.
func (m TrapMode) IsExit() bool {
	return m&TrapExit != 0
}

// Class strips the exit marker.
func (m TrapMode) Class() TrapMode {
	return m &^ TrapExit
}

func (m TrapMode) String() string {
	var name string
	switch m.Class() {
	case TrapNone:
		return "none"
	case TrapSoftware:
		name = "software"
	case TrapHardware:
		name = "hardware"
	case TrapTimer:
		name = "timer"
	case TrapBreakpoint:
		name = "ebreak"
	case TrapECall:
		name = "ecall"
	default:
		name = fmt.Sprintf("mode(0x%x)", uint32(m.Class()))
	}
	if m.IsExit() {
		return name + "-exit"
	}
	return name + "-entry"
}

// TrapROMSize is the number of words in the trap microcode ROM.
const TrapROMSize = 101

// trapROM is the trap microcode: real instruction words that the core
// executes in place of fetched code to enter and leave a trap. Each
// sequence parks a5 in CSR 0xfd0, updates mepc/mie/mstatus/mcause through
// a5 and restores it.
var trapROM = [TrapROMSize]uint32{
	0xfd079073, 0x00000797, 0x34179073, 0x08000793, 0x3047b7f3, 0x3007a7f3, 0x800007b7, 0x00778793,
	0x34279073, 0x00800793, 0x3007b7f3, 0xfd0027f3, 0xfd079073, 0x08000793, 0x3007b7f3, 0x3047a7f3,
	0x00800793, 0x3007a7f3, 0xfd0027f3, 0xfd079073, 0x00000797, 0x34179073, 0x000017b7, 0x80078793,
	0x3047b7f3, 0x0047d793, 0x3007a7f3, 0x800007b7, 0x00b78793, 0x34279073, 0x00800793, 0x3007b7f3,
	0xfd0027f3, 0xfd079073, 0x08000793, 0x3007b7f3, 0x00479793, 0x3047a7f3, 0x00800793, 0x3007a7f3,
	0xfd0027f3, 0xfd079073, 0x00000797, 0x34179073, 0x00800793, 0x3047b7f3, 0x00479793, 0x3007a7f3,
	0x00b00793, 0x34279073, 0x00800793, 0x3007b7f3, 0xfd0027f3, 0xfd079073, 0x08000793, 0x3007b7f3,
	0x0047d793, 0x3047a7f3, 0x00800793, 0x3007a7f3, 0xfd0027f3, 0xfd079073, 0x00000797, 0x34179073,
	0x00800793, 0x3047b7f3, 0x00479793, 0x3007a7f3, 0x00300793, 0x34279073, 0x00800793, 0x3007b7f3,
	0xfd0027f3, 0xfd079073, 0x08000793, 0x3007b7f3, 0x0047d793, 0x3047a7f3, 0x00800793, 0x3007a7f3,
	0xfd0027f3, 0xfd079073, 0x00000797, 0x34179073, 0x00800793, 0x3047b7f3, 0x00479793, 0x3007a7f3,
	0x00200793, 0x34279073, 0x00800793, 0x3007b7f3, 0xfd0027f3, 0xfd079073, 0x08000793, 0x3007b7f3,
	0x0047d793, 0x3047a7f3, 0x00800793, 0x3007a7f3, 0xfd0027f3,
}

// TrapROM returns a copy of the trap microcode.
func TrapROM() [TrapROMSize]uint32 {
	return trapROM
}

// TrapROMWord returns microcode word i, or zero outside the ROM.
func TrapROMWord(i uint32) uint32 {
	if i >= TrapROMSize {
		return 0
	}
	return trapROM[i]
}

// HandlerRange maps a trap mode to its inclusive [start, end] microcode
// range. Unknown modes map to [0, 0].
func HandlerRange(mode TrapMode) (start, end uint32) {
	switch mode {
	case TrapSoftware:
		return 81, 92
	case TrapSoftware | TrapExit:
		return 93, 100
	case TrapHardware:
		return 19, 32
	case TrapHardware | TrapExit:
		return 33, 40
	case TrapTimer:
		return 0, 11
	case TrapTimer | TrapExit:
		return 12, 18
	case TrapBreakpoint:
		return 61, 72
	case TrapBreakpoint | TrapExit:
		return 73, 80
	case TrapECall:
		return 41, 52
	case TrapECall | TrapExit:
		return 53, 60
	default:
		return 0, 0
	}
}

// TrapSequencer injects trap microcode in place of instruction fetch.
type TrapSequencer struct {
	// Mode is the sequence being injected, TrapNone when idle.
	Mode TrapMode
	// Start is the next microcode index; End is the last one.
	Start uint32
	End   uint32
	// LastTrap is the mode of the most recently completed sequence. mret
	// uses it to pick the matching exit sequence.
	LastTrap TrapMode

	// PendingMretResume is set when an exit sequence completes; the next
	// execute resumes at MEPC.
	PendingMretResume bool
	// PendingEOIBranch is set when an entry sequence completes; the next
	// execute branches to MTVEC.
	PendingEOIBranch bool
}

// Active reports whether microcode is being injected.
func (s *TrapSequencer) Active() bool {
	return s.Mode != TrapNone
}

// Begin starts injecting the sequence for mode.
func (s *TrapSequencer) Begin(mode TrapMode) {
	s.Mode = mode
	s.Start, s.End = HandlerRange(mode)
}

// BeginExit starts the exit sequence matching the last completed trap.
func (s *TrapSequencer) BeginExit() {
	s.Begin(TrapExit | s.LastTrap)
}

// Next returns the microcode word to inject and advances. When the range
// is exhausted it records LastTrap, arms the matching pending flag and
// goes idle.
func (s *TrapSequencer) Next() uint32 {
	word := TrapROMWord(s.Start)

	if s.Start == s.End {
		s.LastTrap = s.Mode
		if s.Mode.IsExit() {
			s.PendingMretResume = true
		} else {
			s.PendingEOIBranch = true
		}
		s.Mode = TrapNone
	}
	s.Start++

	return word
}

// Clear returns the sequencer to idle and drops pending flags.
func (s *TrapSequencer) Clear() {
	*s = TrapSequencer{}
}

// SelectTrap applies the trap priority: illegal instruction, ebreak,
// ecall, hardware IRQ, timer IRQ. It returns TrapNone when nothing is
// raised.
func SelectTrap(illegal, ebreak, ecall bool, irq uint32) TrapMode {
	switch {
	case illegal:
		return TrapSoftware
	case ebreak:
		return TrapBreakpoint
	case ecall:
		return TrapECall
	case irq&IRQHardware != 0:
		return TrapHardware
	case irq&IRQTimer != 0:
		return TrapTimer
	default:
		return TrapNone
	}
}
