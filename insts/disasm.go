package insts

import "fmt"

var regNames = [32]string{
	"zero",
	"ra", "sp",
	"gp", "tp",
	"t0", "t1", "t2",
	"s0", "s1",
	"a0", "a1", "a2", "a3", "a4", "a5", "a6", "a7",
	"s2", "s3", "s4", "s5", "s6", "s7", "s8", "s9", "s10", "s11",
	"t3", "t4", "t5", "t6",
}

// RegName returns the ABI name of general-purpose register i.
func RegName(i uint8) string {
	if int(i) >= len(regNames) {
		return fmt.Sprintf("x%d", i)
	}
	return regNames[i]
}

// String returns the lower-case opcode class name.
func (o Opcode) String() string {
	switch o {
	case OpcodeOp:
		return "op"
	case OpcodeOpImm:
		return "op-imm"
	case OpcodeAUIPC:
		return "auipc"
	case OpcodeLUI:
		return "lui"
	case OpcodeStore:
		return "store"
	case OpcodeLoad:
		return "load"
	case OpcodeJAL:
		return "jal"
	case OpcodeJALR:
		return "jalr"
	case OpcodeBranch:
		return "branch"
	case OpcodeFence:
		return "fence"
	case OpcodeSystem:
		return "system"
	default:
		return "illegal"
	}
}

var aluNames = [...]string{
	ALUNone: "",
	ALUAdd:  "add",
	ALUSub:  "sub",
	ALUSll:  "sll",
	ALUSlt:  "slt",
	ALUSltu: "sltu",
	ALUXor:  "xor",
	ALUSrl:  "srl",
	ALUSra:  "sra",
	ALUOr:   "or",
	ALUAnd:  "and",
	ALUMul:  "mul",
	ALUDiv:  "div",
	ALURem:  "rem",
}

// String returns the ALU operation mnemonic.
func (op ALUOp) String() string {
	if int(op) >= len(aluNames) {
		return fmt.Sprintf("alu(%d)", uint8(op))
	}
	return aluNames[op]
}

var branchNames = [...]string{
	BranchNone: "",
	BranchEQ:   "beq",
	BranchNE:   "bne",
	BranchLT:   "blt",
	BranchGE:   "bge",
	BranchLTU:  "bltu",
	BranchGEU:  "bgeu",
}

// String returns the branch mnemonic.
func (op BranchOp) String() string {
	if int(op) >= len(branchNames) {
		return fmt.Sprintf("branch(%d)", uint8(op))
	}
	return branchNames[op]
}

var mulDivNames = [8]string{"mul", "mulh", "mulhsu", "mulhu", "div", "divu", "rem", "remu"}

var loadNames = map[uint8]string{0b000: "lb", 0b001: "lh", 0b010: "lw", 0b100: "lbu", 0b101: "lhu"}

var storeNames = map[uint8]string{0b000: "sb", 0b001: "sh", 0b010: "sw"}

var csrNames = map[uint8]string{
	0b001: "csrrw", 0b010: "csrrs", 0b011: "csrrc",
	0b101: "csrrwi", 0b110: "csrrsi", 0b111: "csrrci",
}

// String disassembles the instruction into assembler-like text.
// Branch and jump targets are printed as signed offsets.
func (i Instruction) String() string {
	rd, rs1, rs2 := RegName(i.Rd), RegName(i.Rs1), RegName(i.Rs2)

	switch i.Opcode {
	case OpcodeOp:
		name := i.ALUOp.String()
		if i.ALUOp == ALUMul || i.ALUOp == ALUDiv || i.ALUOp == ALURem {
			name = mulDivNames[i.Funct3&7]
		}
		return fmt.Sprintf("%s %s, %s, %s", name, rd, rs1, rs2)
	case OpcodeOpImm:
		imm := i.Imm
		if i.ALUOp == ALUSll || i.ALUOp == ALUSrl || i.ALUOp == ALUSra {
			imm &= 0x1F
		}
		return fmt.Sprintf("%si %s, %s, %d", i.ALUOp, rd, rs1, imm)
	case OpcodeLUI, OpcodeAUIPC:
		return fmt.Sprintf("%s %s, 0x%x", i.Opcode, rd, uint32(i.Imm)>>12)
	case OpcodeJAL:
		return fmt.Sprintf("jal %s, %+d", rd, i.Imm)
	case OpcodeJALR:
		return fmt.Sprintf("jalr %s, %d(%s)", rd, i.Imm, rs1)
	case OpcodeBranch:
		if i.BranchOp == BranchNone {
			return fmt.Sprintf("branch.%d %s, %s, %+d", i.Funct3, rs1, rs2, i.Imm)
		}
		return fmt.Sprintf("%s %s, %s, %+d", i.BranchOp, rs1, rs2, i.Imm)
	case OpcodeLoad:
		name, ok := loadNames[i.Funct3]
		if !ok {
			name = "lw"
		}
		return fmt.Sprintf("%s %s, %d(%s)", name, rd, i.Imm, rs1)
	case OpcodeStore:
		name, ok := storeNames[i.Funct3]
		if !ok {
			name = "sw"
		}
		return fmt.Sprintf("%s %s, %d(%s)", name, rs2, i.Imm, rs1)
	case OpcodeFence:
		return "fence"
	case OpcodeSystem:
		return i.systemString(rd, rs1)
	default:
		return "illegal"
	}
}

func (i Instruction) systemString(rd, rs1 string) string {
	switch i.Funct12 {
	case F12ECALL:
		return "ecall"
	case F12EBREAK:
		return "ebreak"
	case F12WFI:
		return "wfi"
	case F12MRET:
		return "mret"
	case F12CDISCARD:
		return "cdiscard"
	case F12CFLUSH:
		return "cflush"
	}

	name, ok := csrNames[i.Funct3]
	if !ok {
		return fmt.Sprintf("csr.%d %s, 0x%03x", i.Funct3, rd, i.CSROffset)
	}
	if i.Funct3&0b100 != 0 {
		return fmt.Sprintf("%s %s, 0x%03x, %d", name, rd, i.CSROffset, i.Imm)
	}
	return fmt.Sprintf("%s %s, 0x%03x, %s", name, rd, i.CSROffset, rs1)
}
