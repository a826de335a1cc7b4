package insts

// Format encoders. Register fields are masked to five bits and
// immediates to their encodable width.

// EncodeR encodes an R-type instruction.
func EncodeR(op Opcode, rd, funct3, rs1, rs2, funct7 uint8) uint32 {
	return uint32(funct7&0x7F)<<25 | uint32(rs2&0x1F)<<20 | uint32(rs1&0x1F)<<15 |
		uint32(funct3&7)<<12 | uint32(rd&0x1F)<<7 | uint32(op)
}

// EncodeI encodes an I-type instruction with a 12-bit signed immediate.
func EncodeI(op Opcode, rd, funct3, rs1 uint8, imm int32) uint32 {
	return (uint32(imm)&0xFFF)<<20 | uint32(rs1&0x1F)<<15 | uint32(funct3&7)<<12 |
		uint32(rd&0x1F)<<7 | uint32(op)
}

// EncodeS encodes an S-type instruction with a 12-bit signed immediate.
func EncodeS(op Opcode, funct3, rs1, rs2 uint8, imm int32) uint32 {
	u := uint32(imm) & 0xFFF
	return (u>>5)<<25 | uint32(rs2&0x1F)<<20 | uint32(rs1&0x1F)<<15 |
		uint32(funct3&7)<<12 | (u&0x1F)<<7 | uint32(op)
}

// EncodeB encodes a B-type instruction. imm is a 13-bit signed byte offset.
func EncodeB(op Opcode, funct3, rs1, rs2 uint8, imm int32) uint32 {
	u := uint32(imm)
	return ((u>>12)&1)<<31 | ((u>>5)&0x3F)<<25 | uint32(rs2&0x1F)<<20 |
		uint32(rs1&0x1F)<<15 | uint32(funct3&7)<<12 | ((u>>1)&0xF)<<8 |
		((u>>11)&1)<<7 | uint32(op)
}

// EncodeU encodes a U-type instruction. imm20 is the upper 20 bits.
func EncodeU(op Opcode, rd uint8, imm20 uint32) uint32 {
	return (imm20&0xFFFFF)<<12 | uint32(rd&0x1F)<<7 | uint32(op)
}

// EncodeJ encodes a J-type instruction. imm is a 21-bit signed byte offset.
func EncodeJ(op Opcode, rd uint8, imm int32) uint32 {
	u := uint32(imm)
	return ((u>>20)&1)<<31 | ((u>>1)&0x3FF)<<21 | ((u>>11)&1)<<20 |
		((u>>12)&0xFF)<<12 | uint32(rd&0x1F)<<7 | uint32(op)
}

// Arithmetic.

// EncodeADDI encodes addi rd, rs1, imm.
func EncodeADDI(rd, rs1 uint8, imm int32) uint32 { return EncodeI(OpcodeOpImm, rd, 0b000, rs1, imm) }

// EncodeSLTI encodes slti rd, rs1, imm.
func EncodeSLTI(rd, rs1 uint8, imm int32) uint32 { return EncodeI(OpcodeOpImm, rd, 0b010, rs1, imm) }

// EncodeXORI encodes xori rd, rs1, imm.
func EncodeXORI(rd, rs1 uint8, imm int32) uint32 { return EncodeI(OpcodeOpImm, rd, 0b100, rs1, imm) }

// EncodeORI encodes ori rd, rs1, imm.
func EncodeORI(rd, rs1 uint8, imm int32) uint32 { return EncodeI(OpcodeOpImm, rd, 0b110, rs1, imm) }

// EncodeANDI encodes andi rd, rs1, imm.
func EncodeANDI(rd, rs1 uint8, imm int32) uint32 { return EncodeI(OpcodeOpImm, rd, 0b111, rs1, imm) }

// EncodeSLLI encodes slli rd, rs1, shamt.
func EncodeSLLI(rd, rs1, shamt uint8) uint32 {
	return EncodeI(OpcodeOpImm, rd, 0b001, rs1, int32(shamt&0x1F))
}

// EncodeSRLI encodes srli rd, rs1, shamt.
func EncodeSRLI(rd, rs1, shamt uint8) uint32 {
	return EncodeI(OpcodeOpImm, rd, 0b101, rs1, int32(shamt&0x1F))
}

// EncodeSRAI encodes srai rd, rs1, shamt.
func EncodeSRAI(rd, rs1, shamt uint8) uint32 {
	return EncodeI(OpcodeOpImm, rd, 0b101, rs1, 0x400|int32(shamt&0x1F))
}

// EncodeADD encodes add rd, rs1, rs2.
func EncodeADD(rd, rs1, rs2 uint8) uint32 { return EncodeR(OpcodeOp, rd, 0b000, rs1, rs2, 0) }

// EncodeSUB encodes sub rd, rs1, rs2.
func EncodeSUB(rd, rs1, rs2 uint8) uint32 { return EncodeR(OpcodeOp, rd, 0b000, rs1, rs2, 0x20) }

// EncodeSLL encodes sll rd, rs1, rs2.
func EncodeSLL(rd, rs1, rs2 uint8) uint32 { return EncodeR(OpcodeOp, rd, 0b001, rs1, rs2, 0) }

// EncodeSLT encodes slt rd, rs1, rs2.
func EncodeSLT(rd, rs1, rs2 uint8) uint32 { return EncodeR(OpcodeOp, rd, 0b010, rs1, rs2, 0) }

// EncodeSLTU encodes sltu rd, rs1, rs2.
func EncodeSLTU(rd, rs1, rs2 uint8) uint32 { return EncodeR(OpcodeOp, rd, 0b011, rs1, rs2, 0) }

// EncodeXOR encodes xor rd, rs1, rs2.
func EncodeXOR(rd, rs1, rs2 uint8) uint32 { return EncodeR(OpcodeOp, rd, 0b100, rs1, rs2, 0) }

// EncodeSRL encodes srl rd, rs1, rs2.
func EncodeSRL(rd, rs1, rs2 uint8) uint32 { return EncodeR(OpcodeOp, rd, 0b101, rs1, rs2, 0) }

// EncodeSRA encodes sra rd, rs1, rs2.
func EncodeSRA(rd, rs1, rs2 uint8) uint32 { return EncodeR(OpcodeOp, rd, 0b101, rs1, rs2, 0x20) }

// EncodeOR encodes or rd, rs1, rs2.
func EncodeOR(rd, rs1, rs2 uint8) uint32 { return EncodeR(OpcodeOp, rd, 0b110, rs1, rs2, 0) }

// EncodeAND encodes and rd, rs1, rs2.
func EncodeAND(rd, rs1, rs2 uint8) uint32 { return EncodeR(OpcodeOp, rd, 0b111, rs1, rs2, 0) }

// EncodeMulDiv encodes an M-extension instruction; funct3 picks
// mul/mulh/mulhsu/mulhu/div/divu/rem/remu.
func EncodeMulDiv(funct3, rd, rs1, rs2 uint8) uint32 {
	return EncodeR(OpcodeOp, rd, funct3, rs1, rs2, 0x01)
}

// EncodeMUL encodes mul rd, rs1, rs2.
func EncodeMUL(rd, rs1, rs2 uint8) uint32 { return EncodeMulDiv(0b000, rd, rs1, rs2) }

// EncodeDIV encodes div rd, rs1, rs2.
func EncodeDIV(rd, rs1, rs2 uint8) uint32 { return EncodeMulDiv(0b100, rd, rs1, rs2) }

// EncodeREM encodes rem rd, rs1, rs2.
func EncodeREM(rd, rs1, rs2 uint8) uint32 { return EncodeMulDiv(0b110, rd, rs1, rs2) }

// Upper immediates and control flow.

// EncodeLUI encodes lui rd, imm20.
func EncodeLUI(rd uint8, imm20 uint32) uint32 { return EncodeU(OpcodeLUI, rd, imm20) }

// EncodeAUIPC encodes auipc rd, imm20.
func EncodeAUIPC(rd uint8, imm20 uint32) uint32 { return EncodeU(OpcodeAUIPC, rd, imm20) }

// EncodeJAL encodes jal rd, offset.
func EncodeJAL(rd uint8, offset int32) uint32 { return EncodeJ(OpcodeJAL, rd, offset) }

// EncodeJALR encodes jalr rd, imm(rs1).
func EncodeJALR(rd, rs1 uint8, imm int32) uint32 { return EncodeI(OpcodeJALR, rd, 0b000, rs1, imm) }

// EncodeBEQ encodes beq rs1, rs2, offset.
func EncodeBEQ(rs1, rs2 uint8, offset int32) uint32 {
	return EncodeB(OpcodeBranch, 0b000, rs1, rs2, offset)
}

// EncodeBNE encodes bne rs1, rs2, offset.
func EncodeBNE(rs1, rs2 uint8, offset int32) uint32 {
	return EncodeB(OpcodeBranch, 0b001, rs1, rs2, offset)
}

// EncodeBLT encodes blt rs1, rs2, offset.
func EncodeBLT(rs1, rs2 uint8, offset int32) uint32 {
	return EncodeB(OpcodeBranch, 0b100, rs1, rs2, offset)
}

// EncodeBGE encodes bge rs1, rs2, offset.
func EncodeBGE(rs1, rs2 uint8, offset int32) uint32 {
	return EncodeB(OpcodeBranch, 0b101, rs1, rs2, offset)
}

// EncodeBLTU encodes bltu rs1, rs2, offset.
func EncodeBLTU(rs1, rs2 uint8, offset int32) uint32 {
	return EncodeB(OpcodeBranch, 0b110, rs1, rs2, offset)
}

// EncodeBGEU encodes bgeu rs1, rs2, offset.
func EncodeBGEU(rs1, rs2 uint8, offset int32) uint32 {
	return EncodeB(OpcodeBranch, 0b111, rs1, rs2, offset)
}

// Memory.

// EncodeLoad encodes a load; funct3 picks lb/lh/lw/lbu/lhu.
func EncodeLoad(funct3, rd, rs1 uint8, imm int32) uint32 {
	return EncodeI(OpcodeLoad, rd, funct3, rs1, imm)
}

// EncodeLW encodes lw rd, imm(rs1).
func EncodeLW(rd, rs1 uint8, imm int32) uint32 { return EncodeLoad(0b010, rd, rs1, imm) }

// EncodeStore encodes a store; funct3 picks sb/sh/sw.
func EncodeStore(funct3, rs1, rs2 uint8, imm int32) uint32 {
	return EncodeS(OpcodeStore, funct3, rs1, rs2, imm)
}

// EncodeSB encodes sb rs2, imm(rs1).
func EncodeSB(rs1, rs2 uint8, imm int32) uint32 { return EncodeStore(0b000, rs1, rs2, imm) }

// EncodeSH encodes sh rs2, imm(rs1).
func EncodeSH(rs1, rs2 uint8, imm int32) uint32 { return EncodeStore(0b001, rs1, rs2, imm) }

// EncodeSW encodes sw rs2, imm(rs1).
func EncodeSW(rs1, rs2 uint8, imm int32) uint32 { return EncodeStore(0b010, rs1, rs2, imm) }

// EncodeFENCE encodes fence.
func EncodeFENCE() uint32 { return 0x0FF0000F }

// EncodeNOP encodes addi zero, zero, 0.
func EncodeNOP() uint32 { return EncodeADDI(0, 0, 0) }

// System.

// EncodeCSR encodes a CSR instruction. For the immediate forms
// (funct3 bit 2 set) src is the 5-bit zimm, otherwise it is rs1.
func EncodeCSR(funct3, rd uint8, csr uint16, src uint8) uint32 {
	return EncodeI(OpcodeSystem, rd, funct3, src, int32(csr&0xFFF))
}

// EncodeCSRRW encodes csrrw rd, csr, rs1.
func EncodeCSRRW(rd uint8, csr uint16, rs1 uint8) uint32 { return EncodeCSR(0b001, rd, csr, rs1) }

// EncodeCSRRS encodes csrrs rd, csr, rs1.
func EncodeCSRRS(rd uint8, csr uint16, rs1 uint8) uint32 { return EncodeCSR(0b010, rd, csr, rs1) }

// EncodeCSRRC encodes csrrc rd, csr, rs1.
func EncodeCSRRC(rd uint8, csr uint16, rs1 uint8) uint32 { return EncodeCSR(0b011, rd, csr, rs1) }

// EncodeCSRRWI encodes csrrwi rd, csr, zimm.
func EncodeCSRRWI(rd uint8, csr uint16, zimm uint8) uint32 {
	return EncodeCSR(0b101, rd, csr, zimm)
}

// EncodeSystem encodes a funct12-selected SYSTEM instruction such as
// ecall, ebreak, mret, wfi, cdiscard or cflush.
func EncodeSystem(funct12 uint16) uint32 {
	return uint32(funct12&0xFFF)<<20 | uint32(OpcodeSystem)
}

// EncodeECALL encodes ecall.
func EncodeECALL() uint32 { return EncodeSystem(F12ECALL) }

// EncodeEBREAK encodes ebreak.
func EncodeEBREAK() uint32 { return EncodeSystem(F12EBREAK) }

// EncodeMRET encodes mret.
func EncodeMRET() uint32 { return EncodeSystem(F12MRET) }

// EncodeWFI encodes wfi.
func EncodeWFI() uint32 { return EncodeSystem(F12WFI) }
