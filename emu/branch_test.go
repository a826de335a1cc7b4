package emu_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/rv32sim/emu"
	"github.com/sarchlab/rv32sim/insts"
)

var _ = Describe("EvaluateBranch", func() {
	DescribeTable("comparisons",
		func(op insts.BranchOp, a, b uint32, taken bool) {
			Expect(emu.EvaluateBranch(op, a, b)).To(Equal(taken))
		},
		Entry("beq equal", insts.BranchEQ, uint32(3), uint32(3), true),
		Entry("beq different", insts.BranchEQ, uint32(3), uint32(4), false),
		Entry("bne", insts.BranchNE, uint32(3), uint32(4), true),
		Entry("blt signed", insts.BranchLT, uint32(0xFFFFFFFF), uint32(0), true),
		Entry("bge signed", insts.BranchGE, uint32(0), uint32(0xFFFFFFFF), true),
		Entry("bge equal", insts.BranchGE, uint32(7), uint32(7), true),
		Entry("bltu unsigned", insts.BranchLTU, uint32(0xFFFFFFFF), uint32(0), false),
		Entry("bgeu unsigned", insts.BranchGEU, uint32(0xFFFFFFFF), uint32(0), true),
		Entry("none is never taken", insts.BranchNone, uint32(0), uint32(0), false),
	)
})
