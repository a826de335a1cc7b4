// Package emu provides the combinational units of the RV32 core.
package emu

import "github.com/sarchlab/rv32sim/insts"

// EvaluateBranch is the branch logic unit: it compares rs1's and rs2's
// values for the given branch operation. BranchNone is never taken.
func EvaluateBranch(op insts.BranchOp, a, b uint32) bool {
	switch op {
	case insts.BranchEQ:
		return a == b
	case insts.BranchNE:
		return a != b
	case insts.BranchLT:
		return int32(a) < int32(b)
	case insts.BranchGE:
		return int32(a) >= int32(b)
	case insts.BranchLTU:
		return a < b
	case insts.BranchGEU:
		return a >= b
	default:
		return false
	}
}
