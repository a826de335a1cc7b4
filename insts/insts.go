// Package insts provides RV32I+M instruction definitions, decoding and
// encoding for the RV32 core.
//
// This package turns raw 32-bit instruction words into the decoded record
// consumed by the core's ALU, branch unit and execute stage. It supports:
//   - Register and immediate arithmetic (OP, OP-IMM), including the M
//     extension multiply/divide family
//   - Upper immediates (LUI, AUIPC), jumps (JAL, JALR) and branches
//   - Loads, stores, FENCE and the SYSTEM group (CSR access, ECALL, EBREAK,
//     MRET, WFI and the custom cache operations)
//
// Decoding never fails. Unknown opcodes decode to OpcodeIllegal and are
// dealt with by the core at execute time.
//
// Usage:
//
//	decoder := insts.NewDecoder()
//	inst := decoder.Decode(0x00500093) // addi ra, zero, 5
//	fmt.Printf("%v rd=%d imm=%d\n", inst.Opcode, inst.Rd, inst.Imm)
package insts
