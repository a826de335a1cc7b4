package insts

// Opcode is the major opcode class of an instruction, bits [6:0].
type Opcode uint8

// RV32 major opcodes. Anything not listed here decodes as OpcodeIllegal.
const (
	OpcodeIllegal Opcode = 0b0000000
	OpcodeOp      Opcode = 0b0110011
	OpcodeOpImm   Opcode = 0b0010011
	OpcodeAUIPC   Opcode = 0b0010111
	OpcodeLUI     Opcode = 0b0110111
	OpcodeStore   Opcode = 0b0100011
	OpcodeLoad    Opcode = 0b0000011
	OpcodeJAL     Opcode = 0b1101111
	OpcodeJALR    Opcode = 0b1100111
	OpcodeBranch  Opcode = 0b1100011
	OpcodeFence   Opcode = 0b0001111
	OpcodeSystem  Opcode = 0b1110011
)

// ALUOp selects the ALU operation.
type ALUOp uint8

// ALU operations. MUL, DIV and REM are families; the exact variant is
// chosen by funct3 inside the ALU.
const (
	ALUNone ALUOp = iota
	ALUAdd
	ALUSub
	ALUSll
	ALUSlt
	ALUSltu
	ALUXor
	ALUSrl
	ALUSra
	ALUOr
	ALUAnd
	ALUMul
	ALUDiv
	ALURem
)

// BranchOp selects the branch comparison.
type BranchOp uint8

// Branch comparisons.
const (
	BranchNone BranchOp = iota
	BranchEQ
	BranchNE
	BranchLT
	BranchGE
	BranchLTU
	BranchGEU
)

// Funct12 values that select special SYSTEM instructions. Any other
// SYSTEM encoding is a CSR read-modify-write.
const (
	F12ECALL    = 0x000
	F12EBREAK   = 0x001
	F12WFI      = 0x105
	F12MRET     = 0x302
	F12CDISCARD = 0xFC0
	F12CFLUSH   = 0xFC2
)

// Instruction is a decoded RV32 instruction.
type Instruction struct {
	Opcode Opcode // Major opcode class
	Funct3 uint8  // bits [14:12]
	Rs1    uint8  // bits [19:15]
	Rs2    uint8  // bits [24:20]
	Rd     uint8  // bits [11:7]

	Funct12   uint16 // bits [31:20]
	CSROffset uint16 // bits [31:25] << 5 | rs2

	// Imm is the format-specific immediate, sign-extended where the
	// format calls for it.
	Imm int32

	ALUOp    ALUOp
	BranchOp BranchOp

	// SelectImm routes Imm instead of rs2's value into ALU operand B.
	SelectImm bool
}

// Decoder decodes RV32 machine code into instructions.
type Decoder struct{}

// NewDecoder creates a new RV32 instruction decoder.
func NewDecoder() *Decoder {
	return &Decoder{}
}

// bits extracts the inclusive bit range [hi:lo] of word.
func bits(word uint32, hi, lo uint) uint32 {
	return (word >> lo) & ((1 << (hi - lo + 1)) - 1)
}

// signFill returns bit 31 of word smeared down by shift positions, the
// sign portion of every signed immediate format.
func signFill(word uint32, shift uint) uint32 {
	return uint32(int32(word&0x80000000) >> shift)
}

// Decode decodes a 32-bit RV32 instruction word.
func (d *Decoder) Decode(word uint32) Instruction {
	inst := Instruction{
		Funct3:  uint8(bits(word, 14, 12)),
		Rs1:     uint8(bits(word, 19, 15)),
		Rs2:     uint8(bits(word, 24, 20)),
		Rd:      uint8(bits(word, 11, 7)),
		Funct12: uint16(bits(word, 31, 20)),
	}
	inst.CSROffset = uint16(bits(word, 31, 25)<<5) | uint16(inst.Rs2)

	inst.Opcode = d.opcode(word)
	inst.Imm = d.immediate(word, inst.Opcode)
	inst.ALUOp = d.aluOp(word, inst.Opcode, inst.Funct3)
	inst.BranchOp = d.branchOp(inst.Opcode, inst.Funct3)

	switch inst.Opcode {
	case OpcodeJALR, OpcodeOpImm, OpcodeLoad, OpcodeStore:
		inst.SelectImm = true
	}

	return inst
}

// opcode classifies bits [6:0].
func (d *Decoder) opcode(word uint32) Opcode {
	op := Opcode(bits(word, 6, 0))
	switch op {
	case OpcodeOp, OpcodeOpImm, OpcodeAUIPC, OpcodeLUI, OpcodeStore,
		OpcodeLoad, OpcodeJAL, OpcodeJALR, OpcodeBranch, OpcodeFence,
		OpcodeSystem:
		return op
	default:
		return OpcodeIllegal
	}
}

// immediate builds the immediate for the encoding format of op.
func (d *Decoder) immediate(word uint32, op Opcode) int32 {
	switch op {
	case OpcodeLUI, OpcodeAUIPC:
		// U-imm
		return int32(bits(word, 31, 12) << 12)

	case OpcodeStore:
		// S-imm
		return int32(signFill(word, 20) | bits(word, 30, 25)<<5 | bits(word, 11, 7))

	case OpcodeJAL:
		// J-imm
		return int32(signFill(word, 11) |
			bits(word, 19, 12)<<12 |
			bits(word, 20, 20)<<11 |
			bits(word, 30, 21)<<1)

	case OpcodeBranch:
		// B-imm
		return int32(signFill(word, 19) |
			bits(word, 7, 7)<<11 |
			bits(word, 30, 25)<<5 |
			bits(word, 11, 8)<<1)

	case OpcodeSystem:
		// CSR immediate (zimm), ignored by the register forms
		return int32(bits(word, 19, 15))

	case OpcodeOpImm, OpcodeLoad, OpcodeJALR:
		// I-imm
		return int32(signFill(word, 20) | bits(word, 30, 20))

	default:
		// FENCE and illegal encodings
		return 0
	}
}

// aluOp selects the ALU operation for OP and OP-IMM.
// Bit 30 picks SUB/SRA; bit 25 (register form only) redirects to the
// multiply/divide families.
func (d *Decoder) aluOp(word uint32, op Opcode, funct3 uint8) ALUOp {
	alt := bits(word, 30, 30) == 1
	mulDiv := bits(word, 25, 25) == 1

	switch op {
	case OpcodeOp:
		if mulDiv {
			switch funct3 {
			case 0b000, 0b001, 0b010, 0b011:
				return ALUMul
			case 0b100, 0b101:
				return ALUDiv
			default:
				return ALURem
			}
		}
		return baseALUOp(funct3, alt, true)
	case OpcodeOpImm:
		return baseALUOp(funct3, alt, false)
	default:
		return ALUNone
	}
}

// baseALUOp maps funct3 to an RV32I operation. SUB only exists in the
// register form.
func baseALUOp(funct3 uint8, alt, register bool) ALUOp {
	switch funct3 {
	case 0b000:
		if alt && register {
			return ALUSub
		}
		return ALUAdd
	case 0b001:
		return ALUSll
	case 0b010:
		return ALUSlt
	case 0b011:
		return ALUSltu
	case 0b100:
		return ALUXor
	case 0b101:
		if alt {
			return ALUSra
		}
		return ALUSrl
	case 0b110:
		return ALUOr
	default:
		return ALUAnd
	}
}

// branchOp selects the comparison for BRANCH. funct3 010 and 011 are
// unused and compare as never-taken.
func (d *Decoder) branchOp(op Opcode, funct3 uint8) BranchOp {
	if op != OpcodeBranch {
		return BranchNone
	}

	switch funct3 {
	case 0b000:
		return BranchEQ
	case 0b001:
		return BranchNE
	case 0b100:
		return BranchLT
	case 0b101:
		return BranchGE
	case 0b110:
		return BranchLTU
	case 0b111:
		return BranchGEU
	default:
		return BranchNone
	}
}
