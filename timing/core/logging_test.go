package core_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"

	"github.com/sarchlab/rv32sim/emu"
	"github.com/sarchlab/rv32sim/insts"
	"github.com/sarchlab/rv32sim/timing/core"
)

var _ = Describe("Tracing", func() {
	var (
		memory *emu.Memory
		hook   *test.Hook
		logger *logrus.Logger
	)

	BeforeEach(func() {
		memory = emu.NewMemory()
		logger, hook = test.NewNullLogger()
	})

	messages := func() []string {
		var out []string
		for _, e := range hook.AllEntries() {
			out = append(out, e.Message)
		}
		return out
	}

	It("should trace every executed instruction at trace level", func() {
		logger.SetLevel(logrus.TraceLevel)
		c := core.MustNewCore(core.WithResetVector(resetVector), core.WithLogger(logger))
		memory.LoadWords(resetVector, insts.EncodeADDI(1, 0, 5))

		c.Step(memory, 0)

		entry := hook.LastEntry()
		Expect(entry.Message).To(Equal("execute"))
		Expect(entry.Level).To(Equal(logrus.TraceLevel))
		Expect(entry.Data).To(HaveKeyWithValue("hart", 0))
		Expect(entry.Data).To(HaveKeyWithValue("pc", "0x00001000"))
		Expect(entry.Data).To(HaveKeyWithValue("insn", "0x00500093"))
		Expect(entry.Data).To(HaveKeyWithValue("asm", "addi ra, zero, 5"))
	})

	It("should log trap entry and exit at debug level", func() {
		logger.SetLevel(logrus.DebugLevel)
		c := core.MustNewCore(core.WithResetVector(resetVector), core.WithLogger(logger))
		memory.LoadWords(resetVector, insts.EncodeECALL())

		c.Step(memory, 0)

		Expect(messages()).To(Equal([]string{"reset", "trap entry"}))
		Expect(hook.LastEntry().Data).To(HaveKeyWithValue("mode", "ecall-entry"))
	})

	It("should warn about illegal instructions", func() {
		logger.SetLevel(logrus.WarnLevel)
		c := core.MustNewCore(core.WithResetVector(resetVector), core.WithLogger(logger))

		c.Step(memory, 0)

		Expect(messages()).To(Equal([]string{"illegal instruction"}))
		Expect(hook.LastEntry().Level).To(Equal(logrus.WarnLevel))
	})

	It("should stay silent without a logger", func() {
		c := core.MustNewCore(core.WithResetVector(resetVector))
		Expect(c.Step(memory, 0)).To(BeTrue())
		Expect(hook.AllEntries()).To(BeEmpty())
	})
})
