package core

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/sarchlab/rv32sim/emu"
	"github.com/sarchlab/rv32sim/insts"
)

// busWrite is the single store an execute tick may issue.
type busWrite struct {
	addr   uint32
	data   uint32
	strobe uint8
}

// execute retires the latched instruction.
func (c *Core) execute(bus emu.Bus, irq uint32, cur, next *State) bool {
	l := &cur.Latch
	d := l.Decoded
	ok := true

	adjacentPC := cur.PC + 4
	offsetPC := cur.PC + uint32(d.Imm)
	rwAddr := l.RVal1 + uint32(d.Imm)

	var (
		rdValue uint32
		rdWrite bool
		store   busWrite

		illegal, ebreak, ecall bool
	)

	switch d.Opcode {
	case insts.OpcodeBranch, insts.OpcodeJAL, insts.OpcodeJALR:
	default:
		next.PCNext = adjacentPC
	}

	switch d.Opcode {
	case insts.OpcodeOp, insts.OpcodeOpImm:
		rdValue, rdWrite = l.ALUOut, true

	case insts.OpcodeAUIPC:
		rdValue, rdWrite = offsetPC, true

	case insts.OpcodeLUI:
		rdValue, rdWrite = uint32(d.Imm), true

	case insts.OpcodeStore:
		store.addr = rwAddr
		store.data, store.strobe = emu.StoreLanes(d.Funct3, rwAddr, l.RVal2)
		if c.dcache != nil {
			c.dcache.Write(rwAddr)
		}

	case insts.OpcodeLoad:
		word := bus.Read(rwAddr)
		if c.dcache != nil {
			c.dcache.Read(rwAddr)
		}
		rdValue, rdWrite = emu.LoadExtract(d.Funct3, rwAddr, word), true

	case insts.OpcodeJAL:
		rdValue, rdWrite = adjacentPC, true
		next.PCNext = offsetPC

	case insts.OpcodeJALR:
		// The target's low bit is not cleared.
		rdValue, rdWrite = adjacentPC, true
		next.PCNext = rwAddr

	case insts.OpcodeBranch:
		if l.BranchOut {
			next.PCNext = offsetPC
		} else {
			next.PCNext = adjacentPC
		}

	case insts.OpcodeFence:

	case insts.OpcodeSystem:
		switch d.Funct12 {
		case insts.F12CDISCARD:
			if c.dcache != nil {
				c.dcache.Discard()
			}
		case insts.F12CFLUSH:
			if c.dcache != nil {
				c.dcache.Flush()
			}
		case insts.F12MRET:
			next.Trap.BeginExit()
			next.counters.trapExits++
			c.traceTrap(next, "trap exit")
		case insts.F12WFI:
			next.counters.wfi++
		case insts.F12EBREAK:
			ebreak = true
		case insts.F12ECALL:
			ecall = true
		default:
			rdValue, rdWrite, store = c.csrAccess(bus, d, l.RVal1)
		}

	default:
		if c.softwareTraps {
			illegal = true
		} else {
			next.counters.illegalIgnored++
			ok = false
		}
		c.logger.WithFields(logrus.Fields{
			"pc":   fmt.Sprintf("0x%08x", cur.PC),
			"insn": fmt.Sprintf("0x%08x", l.Instruction),
		}).Warn("illegal instruction")
	}

	if !next.Trap.Active() {
		if mode := emu.SelectTrap(illegal, ebreak, ecall, irq); mode != emu.TrapNone {
			next.Trap.Begin(mode)
			next.counters.traps[mode]++
			c.traceTrap(next, "trap entry")
		}
	}

	if store.strobe != emu.StrobeNone {
		bus.Write(store.addr, store.data, store.strobe)
	}

	if rdWrite {
		next.Regs.WriteReg(d.Rd, rdValue)
	}

	if next.Trap.PendingMretResume {
		next.Trap.PendingMretResume = false
		next.PCNext = bus.Read(c.csrMap.Addr(c.hart, c.csrMap.MEPC))
	} else if next.Trap.PendingEOIBranch {
		next.Trap.PendingEOIBranch = false
		next.PCNext = bus.Read(c.csrMap.Addr(c.hart, c.csrMap.MTVEC))
	}

	next.Retired++
	next.Phase = PhaseFetchDecode

	if c.tracing {
		c.logger.WithFields(logrus.Fields{
			"pc":   fmt.Sprintf("0x%08x", cur.PC),
			"insn": fmt.Sprintf("0x%08x", l.Instruction),
			"asm":  d.String(),
		}).Trace("execute")
	}

	return ok
}

// csrAccess performs the CSR read-modify-write of a SYSTEM instruction. The
// previous value goes to rd; the new value is written with a full strobe.
func (c *Core) csrAccess(bus emu.Bus, d insts.Instruction, rval1 uint32) (uint32, bool, busWrite) {
	addr := c.csrMap.Addr(c.hart, d.CSROffset)
	prev := bus.Read(addr)
	imm := uint32(d.Imm)

	var value uint32
	switch d.Funct3 {
	case 0b001: // csrrw
		value = rval1
	case 0b101: // csrrwi
		value = imm
	case 0b010: // csrrs
		value = prev | rval1
	case 0b110: // csrrsi
		value = prev | imm
	case 0b011: // csrrc
		value = prev &^ rval1
	case 0b111: // csrrci
		value = prev &^ imm
	default:
		value = prev
	}

	return prev, true, busWrite{addr: addr, data: value, strobe: emu.StrobeWord}
}

func (c *Core) traceTrap(s *State, msg string) {
	c.logger.WithFields(logrus.Fields{
		"mode":      s.Trap.Mode.String(),
		"start":     s.Trap.Start,
		"end":       s.Trap.End,
		"last_trap": s.Trap.LastTrap.String(),
	}).Debug(msg)
}
