// Package emu provides the combinational units of the RV32 core.
package emu

import "github.com/sarchlab/rv32sim/insts"

// ALU computes one 32-bit result from two operands and an operation
// selector. It is a pure function of its inputs.
//
// a is always rs1's value. b is rs2's value or the decoded immediate,
// depending on the instruction's SelectImm flag. funct3 picks the variant
// inside the MUL, DIV and REM families.
func ALU(op insts.ALUOp, funct3 uint8, a, b uint32) uint32 {
	switch op {
	case insts.ALUAdd:
		return a + b
	case insts.ALUSub:
		return a - b
	case insts.ALUSll:
		return a << (b & 0x1F)
	case insts.ALUSlt:
		if int32(a) < int32(b) {
			return 1
		}
		return 0
	case insts.ALUSltu:
		if a < b {
			return 1
		}
		return 0
	case insts.ALUXor:
		return a ^ b
	case insts.ALUSrl:
		return a >> (b & 0x1F)
	case insts.ALUSra:
		return uint32(int32(a) >> (b & 0x1F))
	case insts.ALUOr:
		return a | b
	case insts.ALUAnd:
		return a & b
	case insts.ALUMul:
		return multiply(funct3, a, b)
	case insts.ALUDiv, insts.ALURem:
		return divide(funct3, a, b)
	default:
		return 0
	}
}

// multiply widens both operands to 64 bits per funct3 and returns the low
// word for mul, the high word otherwise.
func multiply(funct3 uint8, a, b uint32) uint32 {
	var wa, wb uint64

	switch funct3 {
	case 0b000, 0b001: // mul, mulh
		wa, wb = uint64(int64(int32(a))), uint64(int64(int32(b)))
	case 0b010: // mulhsu
		wa, wb = uint64(int64(int32(a))), uint64(b)
	case 0b011: // mulhu
		wa, wb = uint64(a), uint64(b)
	default:
		return 0
	}

	product := wa * wb
	if funct3 == 0b000 {
		return uint32(product)
	}
	return uint32(product >> 32)
}

// divide implements div/divu/rem/remu with RISC-V edge semantics:
// division by zero yields all ones (quotient) or the dividend (remainder),
// and MinInt32 / -1 yields MinInt32 with a zero remainder.
func divide(funct3 uint8, a, b uint32) uint32 {
	switch funct3 {
	case 0b100: // div
		if b == 0 {
			return 0xFFFFFFFF
		}
		return uint32(int32(int64(int32(a)) / int64(int32(b))))
	case 0b101: // divu
		if b == 0 {
			return 0xFFFFFFFF
		}
		return a / b
	case 0b110: // rem
		if b == 0 {
			return a
		}
		return uint32(int32(int64(int32(a)) % int64(int32(b))))
	case 0b111: // remu
		if b == 0 {
			return a
		}
		return a % b
	default:
		return 0
	}
}
