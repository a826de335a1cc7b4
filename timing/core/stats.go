package core

import (
	"github.com/sarchlab/rv32sim/emu"
	"github.com/sarchlab/rv32sim/timing/cache"
)

// Stats holds performance statistics for the core.
type Stats struct {
	// Cycles is the total number of ticks simulated.
	Cycles uint64 `json:"cycles"`
	// Instructions is the number of instructions retired, trap microcode
	// included.
	Instructions uint64 `json:"instructions"`
	// WallClock is the number of wall-clock ticks.
	WallClock uint64 `json:"wall_clock"`

	// Traps counts entry sequences by trap class.
	Traps map[string]uint64 `json:"traps"`
	// TrapExits counts mret-initiated exit sequences.
	TrapExits uint64 `json:"trap_exits"`
	// IllegalIgnored counts illegal instructions skipped while software
	// traps were disabled.
	IllegalIgnored uint64 `json:"illegal_ignored"`
	// WFI counts wait-for-interrupt instructions, all of which complete
	// immediately.
	WFI uint64 `json:"wfi"`

	ICache *cache.Statistics `json:"icache,omitempty"`
	DCache *cache.Statistics `json:"dcache,omitempty"`
}

// CPI returns the cycles per instruction.
func (s Stats) CPI() float64 {
	if s.Instructions == 0 {
		return 0
	}
	return float64(s.Cycles) / float64(s.Instructions)
}

// TrapsEntered returns the total number of entry sequences started.
func (s Stats) TrapsEntered() uint64 {
	var n uint64
	for _, v := range s.Traps {
		n += v
	}
	return n
}

type counters struct {
	traps          [emu.TrapECall + 1]uint64
	trapExits      uint64
	illegalIgnored uint64
	wfi            uint64
}
