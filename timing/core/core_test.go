package core_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/rv32sim/emu"
	"github.com/sarchlab/rv32sim/insts"
	"github.com/sarchlab/rv32sim/timing/cache"
	"github.com/sarchlab/rv32sim/timing/core"
)

const resetVector = 0x1000

var csrMap = emu.DefaultCSRMap()

func csrAddr(offset uint16) uint32 {
	return csrMap.Addr(0, offset)
}

var _ = Describe("Core", func() {
	var (
		memory *emu.Memory
		c      *core.Core
	)

	// boot runs the reset tick so that registers can be preset.
	boot := func(program ...uint32) {
		memory.LoadWords(resetVector, program...)
		Expect(c.Tick(memory, 0)).To(BeTrue())
		Expect(c.PC()).To(Equal(uint32(resetVector)))
		Expect(c.Phase()).To(Equal(core.PhaseFetchDecode))
	}

	step := func(n int) {
		for i := 0; i < n; i++ {
			c.Step(memory, 0)
		}
	}

	BeforeEach(func() {
		memory = emu.NewMemory()
		c = core.MustNewCore(core.WithResetVector(resetVector))
	})

	It("should start in the reset phase", func() {
		Expect(c.Phase()).To(Equal(core.PhaseReset))
		Expect(c.Stats().Cycles).To(Equal(uint64(0)))
	})

	It("should take two ticks per instruction", func() {
		boot(insts.EncodeADDI(1, 0, 5))

		Expect(c.Tick(memory, 0)).To(BeTrue())
		Expect(c.Phase()).To(Equal(core.PhaseExecute))
		Expect(c.Reg(1)).To(Equal(uint32(0)))

		Expect(c.Tick(memory, 0)).To(BeTrue())
		Expect(c.Reg(1)).To(Equal(uint32(5)))
		Expect(c.PC()).To(Equal(uint32(resetVector + 4)))

		stats := c.Stats()
		Expect(stats.Cycles).To(Equal(uint64(3)))
		Expect(stats.Instructions).To(Equal(uint64(1)))
	})

	It("should retire the first instruction from reset with Step", func() {
		memory.LoadWords(resetVector, insts.EncodeADDI(1, 0, 5))
		Expect(c.Step(memory, 0)).To(BeTrue())
		Expect(c.Reg(1)).To(Equal(uint32(5)))
		Expect(c.Stats().Cycles).To(Equal(uint64(3)))
	})

	It("should discard writes to x0", func() {
		boot(insts.EncodeADDI(0, 0, 5))
		step(1)
		Expect(c.Reg(0)).To(Equal(uint32(0)))
	})

	It("should read operands latched at decode", func() {
		boot(
			insts.EncodeADDI(1, 0, 7),
			insts.EncodeADD(2, 1, 1),
			insts.EncodeSUB(3, 0, 2),
		)
		step(3)
		Expect(c.Reg(2)).To(Equal(uint32(14)))
		Expect(c.Reg(3)).To(Equal(uint32(0xFFFFFFF2)))
	})

	Describe("Control flow", func() {
		It("should take a branch to PC+imm", func() {
			boot(insts.EncodeBEQ(0, 0, 8))
			step(1)
			Expect(c.PC()).To(Equal(uint32(resetVector + 8)))
		})

		It("should fall through an untaken branch", func() {
			boot(insts.EncodeBNE(0, 0, 8))
			step(1)
			Expect(c.PC()).To(Equal(uint32(resetVector + 4)))
		})

		It("should branch backwards", func() {
			boot(insts.EncodeNOP(), insts.EncodeBEQ(0, 0, -4))
			step(2)
			Expect(c.PC()).To(Equal(uint32(resetVector)))
		})

		It("should link and jump with JAL", func() {
			boot(insts.EncodeJAL(1, 16))
			step(1)
			Expect(c.Reg(1)).To(Equal(uint32(resetVector + 4)))
			Expect(c.PC()).To(Equal(uint32(resetVector + 16)))
		})

		It("should jump to rs1+imm with JALR without clearing bit 0", func() {
			boot(insts.EncodeJALR(1, 5, 1))
			c.SetReg(5, 0x2000)
			step(1)
			Expect(c.Reg(1)).To(Equal(uint32(resetVector + 4)))
			Expect(c.PC()).To(Equal(uint32(0x2001)))
		})

		It("should build addresses with LUI and AUIPC", func() {
			boot(insts.EncodeLUI(1, 0x80000), insts.EncodeAUIPC(2, 1))
			step(2)
			Expect(c.Reg(1)).To(Equal(uint32(0x80000000)))
			Expect(c.Reg(2)).To(Equal(uint32(resetVector + 4 + 0x1000)))
		})
	})

	Describe("Memory access", func() {
		It("should store a byte with a replicated lane pattern", func() {
			bus := emu.NewRecordingBus(memory)
			boot(insts.EncodeSB(1, 2, 2))
			c.SetReg(1, 0x2000)
			c.SetReg(2, 0x1234ABCD)
			memory.Write32(0x2000, 0x11223344)

			c.Step(bus, 0)

			Expect(bus.WritesTo(0x2000, 0x2004)).To(Equal([]emu.BusWrite{
				{Addr: 0x2002, Data: 0xCDCDCDCD, Strobe: 0b0100},
			}))
			Expect(memory.Read32(0x2000)).To(Equal(uint32(0x11CD3344)))
		})

		It("should sign- and zero-extend loads", func() {
			boot(
				insts.EncodeLoad(0b000, 3, 1, 1),
				insts.EncodeLoad(0b100, 4, 1, 1),
				insts.EncodeLoad(0b001, 5, 1, 2),
				insts.EncodeLW(6, 1, 0),
			)
			c.SetReg(1, 0x2000)
			memory.Write32(0x2000, 0x8001FF00)

			step(4)

			Expect(c.Reg(3)).To(Equal(uint32(0xFFFFFFFF)))
			Expect(c.Reg(4)).To(Equal(uint32(0xFF)))
			Expect(c.Reg(5)).To(Equal(uint32(0xFFFF8001)))
			Expect(c.Reg(6)).To(Equal(uint32(0x8001FF00)))
		})

		It("should round-trip a word through memory", func() {
			boot(insts.EncodeSW(1, 2, 4), insts.EncodeLW(3, 1, 4))
			c.SetReg(1, 0x2000)
			c.SetReg(2, 0xCAFEF00D)
			step(2)
			Expect(c.Reg(3)).To(Equal(uint32(0xCAFEF00D)))
		})
	})

	Describe("Multiply and divide", func() {
		It("should compute the unsigned high word", func() {
			boot(insts.EncodeMulDiv(0b011, 3, 1, 2))
			c.SetReg(1, 0xFFFFFFFF)
			c.SetReg(2, 0xFFFFFFFF)
			step(1)
			Expect(c.Reg(3)).To(Equal(uint32(0xFFFFFFFE)))
		})

		It("should follow the divide-by-zero convention", func() {
			boot(insts.EncodeDIV(3, 1, 0), insts.EncodeREM(4, 1, 0))
			c.SetReg(1, 17)
			step(2)
			Expect(c.Reg(3)).To(Equal(uint32(0xFFFFFFFF)))
			Expect(c.Reg(4)).To(Equal(uint32(17)))
		})
	})

	It("should treat FENCE as a no-op", func() {
		boot(insts.EncodeFENCE(), insts.EncodeFENCE(), insts.EncodeFENCE(), insts.EncodeFENCE())
		c.SetReg(7, 99)
		regs := c.State().Regs

		for i := uint32(1); i <= 4; i++ {
			step(1)
			Expect(c.PC()).To(Equal(resetVector + 4*i))
			Expect(c.State().Regs).To(Equal(regs))
			Expect(c.TrapMode()).To(Equal(emu.TrapNone))
		}
	})

	It("should complete WFI immediately", func() {
		boot(insts.EncodeWFI())
		step(1)
		Expect(c.PC()).To(Equal(uint32(resetVector + 4)))
		Expect(c.Stats().WFI).To(Equal(uint64(1)))
	})

	Describe("CSR access", func() {
		const scratch = 0x340

		DescribeTable("read-modify-write",
			func(word uint32, rs1, old, expected uint32) {
				boot(word)
				c.SetReg(1, rs1)
				memory.Write32(csrAddr(scratch), old)

				step(1)

				Expect(c.Reg(3)).To(Equal(old))
				Expect(memory.Read32(csrAddr(scratch))).To(Equal(expected))
			},
			Entry("csrrw", insts.EncodeCSRRW(3, scratch, 1), uint32(0x22), uint32(0x11), uint32(0x22)),
			Entry("csrrs", insts.EncodeCSRRS(3, scratch, 1), uint32(0x22), uint32(0x11), uint32(0x33)),
			Entry("csrrc", insts.EncodeCSRRC(3, scratch, 1), uint32(0x01), uint32(0x11), uint32(0x10)),
			Entry("csrrwi", insts.EncodeCSRRWI(3, scratch, 7), uint32(0), uint32(0x11), uint32(7)),
			Entry("csrrsi", insts.EncodeCSR(0b110, 3, scratch, 4), uint32(0), uint32(0x11), uint32(0x15)),
			Entry("csrrci", insts.EncodeCSR(0b111, 3, scratch, 1), uint32(0), uint32(0x11), uint32(0x10)),
			Entry("unknown funct3 keeps the value", insts.EncodeCSR(0b100, 3, scratch, 1), uint32(0xFF), uint32(0x11), uint32(0x11)),
		)

		It("should mirror the pre-tick counters and PC every tick", func() {
			boot(insts.EncodeNOP(), insts.EncodeNOP())
			step(1)

			// Three ticks so far; the last one published the values it
			// started with.
			Expect(memory.Read32(csrAddr(emu.CSRCycleLo))).To(Equal(uint32(2)))
			Expect(memory.Read32(csrAddr(emu.CSRCycleHi))).To(Equal(uint32(0)))
			Expect(memory.Read32(csrAddr(emu.CSRRetiredLo))).To(Equal(uint32(0)))
			Expect(memory.Read32(csrAddr(emu.CSRTimeLo))).To(Equal(uint32(1)))
			Expect(memory.Read32(csrAddr(emu.CSRProgramCounter))).To(Equal(uint32(resetVector)))

			c.Tick(memory, 0)
			Expect(memory.Read32(csrAddr(emu.CSRRetiredLo))).To(Equal(uint32(1)))
			Expect(memory.Read32(csrAddr(emu.CSRProgramCounter))).To(Equal(uint32(resetVector + 4)))
		})

		It("should advance the wall clock once every 15 cycles", func() {
			for i := uint32(0); i < 16; i++ {
				memory.Write32(resetVector+i*4, insts.EncodeNOP())
			}

			Expect(c.RunCycles(memory, 0, 15)).To(BeTrue())
			Expect(c.Stats().WallClock).To(Equal(uint64(1)))

			c.Tick(memory, 0)
			Expect(c.Stats().WallClock).To(Equal(uint64(2)))

			Expect(c.RunCycles(memory, 0, 14)).To(BeTrue())
			Expect(c.Stats().WallClock).To(Equal(uint64(2)))
		})

		It("should publish into the second bank for other harts", func() {
			c = core.MustNewCore(core.WithResetVector(resetVector), core.WithHart(1))
			c.Tick(memory, 0)
			c.Tick(memory, 0)
			Expect(memory.Read32(csrMap.Addr(1, emu.CSRCycleLo))).To(Equal(uint32(1)))
			Expect(memory.Read32(csrAddr(emu.CSRCycleLo))).To(Equal(uint32(0)))
		})
	})

	Describe("Reset", func() {
		It("should restart from the reset vector with cleared registers", func() {
			boot(insts.EncodeADDI(1, 0, 5), insts.EncodeADDI(2, 0, 6))
			step(2)

			c.RequestReset()
			c.Tick(memory, 0)
			Expect(c.Phase()).To(Equal(core.PhaseReset))

			c.Tick(memory, 0)
			Expect(c.PC()).To(Equal(uint32(resetVector)))
			Expect(c.Reg(1)).To(Equal(uint32(0)))
			Expect(c.Reg(2)).To(Equal(uint32(0)))
		})

		It("should abandon a trap sequence", func() {
			boot(insts.EncodeECALL())
			step(1)
			Expect(c.TrapMode()).To(Equal(emu.TrapECall))

			c.RequestReset()
			c.Tick(memory, 0)
			c.Tick(memory, 0)

			Expect(c.TrapMode()).To(Equal(emu.TrapNone))
			Expect(c.PC()).To(Equal(uint32(resetVector)))
		})

		It("should reset immediately with Reset", func() {
			boot(insts.EncodeNOP())
			c.Tick(memory, 0)
			c.Reset()
			Expect(c.Phase()).To(Equal(core.PhaseReset))
		})
	})

	It("should restore a snapshot", func() {
		boot(insts.EncodeADDI(1, 1, 1))
		snapshot := c.State()
		step(1)
		Expect(c.Reg(1)).To(Equal(uint32(1)))

		c.SetState(snapshot)
		step(1)
		Expect(c.Reg(1)).To(Equal(uint32(1)))
		Expect(c.PC()).To(Equal(uint32(resetVector + 4)))
	})

	It("should roll event counters back with a snapshot", func() {
		boot(insts.EncodeECALL())
		snapshot := c.State()

		step(1)
		Expect(c.Stats().Traps).To(Equal(map[string]uint64{"ecall-entry": 1}))

		c.SetState(snapshot)
		Expect(c.Stats().Traps).To(BeEmpty())

		step(1)
		stats := c.Stats()
		Expect(stats.Cycles).To(Equal(uint64(3)))
		Expect(stats.Instructions).To(Equal(uint64(1)))
		Expect(stats.Traps).To(Equal(map[string]uint64{"ecall-entry": 1}))
		Expect(stats.TrapsEntered()).To(Equal(uint64(1)))
	})

	Describe("Data cache model", func() {
		It("should observe loads and stores and react to cache operations", func() {
			config := cache.Config{Size: 1024, Associativity: 2, BlockSize: 64, HitLatency: 1, MissLatency: 8}
			c = core.MustNewCore(core.WithResetVector(resetVector), core.WithDCache(config))
			boot(
				insts.EncodeSW(1, 0, 0),
				insts.EncodeLW(2, 1, 4),
				insts.EncodeSystem(insts.F12CFLUSH),
				insts.EncodeSW(1, 0, 0),
				insts.EncodeSystem(insts.F12CDISCARD),
			)
			c.SetReg(1, 0x2000)

			step(5)

			stats := c.Stats().DCache
			Expect(stats).NotTo(BeNil())
			Expect(stats.Writes).To(Equal(uint64(2)))
			Expect(stats.Hits).To(Equal(uint64(1)))
			Expect(stats.Writebacks).To(Equal(uint64(1)))
			Expect(stats.DiscardedDirty).To(Equal(uint64(1)))
			Expect(c.PC()).To(Equal(uint32(resetVector + 20)))
		})

		It("should observe fetches in the instruction cache", func() {
			c = core.MustNewCore(core.WithResetVector(resetVector), core.WithDefaultCaches())
			boot(insts.EncodeNOP(), insts.EncodeNOP())
			step(2)
			stats := c.Stats().ICache
			Expect(stats.Misses).To(Equal(uint64(1)))
			Expect(stats.Hits).To(Equal(uint64(1)))
		})
	})
})

var _ = Describe("NewCore", func() {
	It("should reject a zero wall clock divider", func() {
		_, err := core.NewCore(core.WithWallClockDivider(0))
		Expect(err).To(MatchError(core.ErrWallClockDivider))
	})

	It("should reject a negative hart", func() {
		_, err := core.NewCore(core.WithHart(-1))
		Expect(err).To(MatchError(core.ErrInvalidHart))
	})

	It("should reject an invalid CSR map", func() {
		m := emu.DefaultCSRMap()
		m.Base0 = 0x80040001
		_, err := core.NewCore(core.WithCSRMap(m))
		Expect(err).To(MatchError(emu.ErrCSRBaseAlign))
	})

	It("should reject an invalid cache geometry", func() {
		_, err := core.NewCore(core.WithICache(cache.Config{Size: 100, Associativity: 3, BlockSize: 64}))
		Expect(err).To(MatchError(cache.ErrGeometry))
	})

	It("should panic from MustNewCore on error", func() {
		Expect(func() { core.MustNewCore(core.WithWallClockDivider(0)) }).To(Panic())
	})
})
