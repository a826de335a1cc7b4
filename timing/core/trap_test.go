package core_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/rv32sim/emu"
	"github.com/sarchlab/rv32sim/insts"
	"github.com/sarchlab/rv32sim/timing/core"
)

const handlerAddr = 0x3000

var _ = Describe("Trap delivery", func() {
	var (
		memory *emu.Memory
		c      *core.Core
	)

	boot := func(program ...uint32) {
		memory.LoadWords(resetVector, program...)
		c.Tick(memory, 0)
	}

	step := func(n int) {
		for i := 0; i < n; i++ {
			c.Step(memory, 0)
		}
	}

	BeforeEach(func() {
		memory = emu.NewMemory()
		c = core.MustNewCore(core.WithResetVector(resetVector))

		memory.Write32(csrAddr(emu.CSRMTVEC), handlerAddr)
		memory.LoadWords(handlerAddr,
			insts.EncodeCSRRS(5, emu.CSRMEPC, 0),
			insts.EncodeADDI(5, 5, 4),
			insts.EncodeCSRRW(0, emu.CSRMEPC, 5),
			insts.EncodeMRET(),
		)
	})

	It("should run an ecall through entry microcode, handler and exit", func() {
		boot(insts.EncodeECALL(), insts.EncodeADDI(10, 0, 1))
		c.SetReg(15, 0x77)

		step(1)
		trap := c.State().Trap
		Expect(trap.Mode).To(Equal(emu.TrapECall))
		Expect(trap.Start).To(Equal(uint32(41)))
		Expect(trap.End).To(Equal(uint32(52)))
		Expect(c.PC()).To(Equal(uint32(resetVector)))

		step(11)
		Expect(c.TrapMode()).To(Equal(emu.TrapECall))

		// Fetching the last microcode word ends the sequence; its execute
		// branches to MTVEC.
		c.Tick(memory, 0)
		Expect(c.TrapMode()).To(Equal(emu.TrapNone))
		c.Tick(memory, 0)
		Expect(c.PC()).To(Equal(uint32(handlerAddr)))
		Expect(memory.Read32(csrAddr(emu.CSRMEPC))).To(Equal(uint32(resetVector)))
		Expect(c.Reg(15)).To(Equal(uint32(0x77)))

		step(4)
		trap = c.State().Trap
		Expect(trap.Mode).To(Equal(emu.TrapECall | emu.TrapExit))
		Expect(trap.Start).To(Equal(uint32(53)))
		Expect(trap.End).To(Equal(uint32(60)))
		Expect(c.PC()).To(Equal(uint32(handlerAddr + 12)))

		step(8)
		Expect(c.TrapMode()).To(Equal(emu.TrapNone))
		Expect(c.PC()).To(Equal(uint32(resetVector + 4)))
		Expect(c.Reg(15)).To(Equal(uint32(0x77)))

		step(1)
		Expect(c.Reg(10)).To(Equal(uint32(1)))

		stats := c.Stats()
		Expect(stats.Traps).To(Equal(map[string]uint64{"ecall-entry": 1}))
		Expect(stats.TrapExits).To(Equal(uint64(1)))
		Expect(stats.Instructions).To(Equal(uint64(26)))
	})

	It("should freeze the PC while microcode is injected", func() {
		boot(insts.EncodeEBREAK())
		step(1)
		Expect(c.TrapMode()).To(Equal(emu.TrapBreakpoint))
		Expect(c.State().Trap.Start).To(Equal(uint32(61)))

		for i := 0; i < 10; i++ {
			c.Tick(memory, 0)
			Expect(c.PC()).To(Equal(uint32(resetVector)))
		}
	})

	Describe("Interrupts", func() {
		It("should only sample the IRQ lines in execute", func() {
			boot(insts.EncodeNOP())
			c.Tick(memory, emu.IRQHardware)
			Expect(c.TrapMode()).To(Equal(emu.TrapNone))
		})

		DescribeTable("priority",
			func(word uint32, irq uint32, mode emu.TrapMode, start uint32) {
				boot(word)
				c.Tick(memory, 0)
				c.Tick(memory, irq)

				Expect(c.TrapMode()).To(Equal(mode))
				Expect(c.State().Trap.Start).To(Equal(start))
			},
			Entry("hardware", insts.EncodeNOP(), emu.IRQHardware, emu.TrapHardware, uint32(19)),
			Entry("timer", insts.EncodeNOP(), emu.IRQTimer, emu.TrapTimer, uint32(0)),
			Entry("hardware over timer", insts.EncodeNOP(), emu.IRQHardware|emu.IRQTimer, emu.TrapHardware, uint32(19)),
			Entry("ecall over irq", insts.EncodeECALL(), emu.IRQHardware, emu.TrapECall, uint32(41)),
			Entry("ebreak over irq", insts.EncodeEBREAK(), emu.IRQTimer, emu.TrapBreakpoint, uint32(61)),
			Entry("illegal over irq", uint32(0xFFFFFFFF), emu.IRQTimer, emu.TrapSoftware, uint32(81)),
		)

		It("should ignore interrupts while a sequence runs", func() {
			boot(insts.EncodeNOP())
			c.Tick(memory, 0)
			c.Tick(memory, emu.IRQTimer)
			Expect(c.TrapMode()).To(Equal(emu.TrapTimer))

			c.Tick(memory, emu.IRQHardware)
			c.Tick(memory, emu.IRQHardware)
			Expect(c.TrapMode()).To(Equal(emu.TrapTimer))
			Expect(c.State().Trap.Start).To(Equal(uint32(1)))
		})
	})

	Describe("Illegal instructions", func() {
		It("should raise a software trap by default", func() {
			boot(0x00000000)
			Expect(c.Step(memory, 0)).To(BeTrue())
			Expect(c.TrapMode()).To(Equal(emu.TrapSoftware))
		})

		It("should skip the instruction and report false when traps are off", func() {
			c = core.MustNewCore(core.WithResetVector(resetVector), core.WithSoftwareTraps(false))
			boot(0xFFFFFFFF, insts.EncodeADDI(1, 0, 1))

			Expect(c.Tick(memory, 0)).To(BeTrue())
			Expect(c.Tick(memory, 0)).To(BeFalse())
			Expect(c.TrapMode()).To(Equal(emu.TrapNone))
			Expect(c.PC()).To(Equal(uint32(resetVector + 4)))
			Expect(c.Stats().IllegalIgnored).To(Equal(uint64(1)))

			Expect(c.Step(memory, 0)).To(BeTrue())
			Expect(c.Reg(1)).To(Equal(uint32(1)))
		})

		It("should stop RunCycles at the illegal instruction", func() {
			c = core.MustNewCore(core.WithResetVector(resetVector), core.WithSoftwareTraps(false))
			memory.LoadWords(resetVector, insts.EncodeNOP(), 0xFFFFFFFF)

			Expect(c.RunCycles(memory, 0, 100)).To(BeFalse())
			Expect(c.Stats().Cycles).To(Equal(uint64(5)))
		})
	})
})
