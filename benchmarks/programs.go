package benchmarks

import (
	"github.com/sarchlab/rv32sim/emu"
	"github.com/sarchlab/rv32sim/insts"
)

// Addresses shared by the suite. DataBase is plain RAM; HandlerBase holds
// trap handlers, installed through MTVEC.
const (
	DataBase    = 0x8000
	HandlerBase = 0x3000
)

const (
	ra = 1
	t0 = 5
	t1 = 6
	t2 = 7
	a0 = 10
)

// GetMicrobenchmarks returns the full program suite. Each program ends in
// the "jal zero, 0" halt loop with its result in a0.
func GetMicrobenchmarks() []Benchmark {
	return []Benchmark{
		arithmeticSequential(),
		dependencyChain(),
		loopSimulation(),
		mulDiv(),
		memorySequential(),
		byteLanes(),
		functionCalls(),
		ecallRoundTrip(),
		timerInterrupt(),
	}
}

// GetCoreBenchmarks returns a minimal set covering straight-line code, a
// loop and a trap round trip.
func GetCoreBenchmarks() []Benchmark {
	return []Benchmark{
		arithmeticSequential(),
		loopSimulation(),
		ecallRoundTrip(),
	}
}

func halt() uint32 {
	return insts.EncodeJAL(0, 0)
}

// csrAddr is the hart 0 bus address of CSR number csr.
func csrAddr(csr uint16) uint32 {
	return emu.DefaultCSRMap().Addr(0, csr)
}

// installHandler points MTVEC at HandlerBase and places the handler there.
func installHandler(memory *emu.Memory, handler ...uint32) {
	memory.Write32(csrAddr(emu.CSRMTVEC), HandlerBase)
	memory.LoadWords(HandlerBase, handler...)
}

// 1. Arithmetic Sequential - independent ADDIs, then a reduction
func arithmeticSequential() Benchmark {
	return Benchmark{
		Name:        "arithmetic_sequential",
		Description: "4 independent ADDIs and a 3-deep ADD reduction",
		Program: BuildProgram(
			insts.EncodeADDI(1, 0, 1),
			insts.EncodeADDI(2, 0, 1),
			insts.EncodeADDI(3, 0, 1),
			insts.EncodeADDI(4, 0, 1),
			insts.EncodeADD(a0, 1, 2),
			insts.EncodeADD(a0, a0, 3),
			insts.EncodeADD(a0, a0, 4),
			halt(),
		),
		ExpectedExit: 4,
	}
}

// 2. Dependency Chain - every instruction reads the previous result
func dependencyChain() Benchmark {
	return Benchmark{
		Name:         "dependency_chain",
		Description:  "20 dependent ADDIs (a0 = a0 + 1)",
		Program:      buildDependencyChain(20),
		ExpectedExit: 20,
	}
}

func buildDependencyChain(n int) []byte {
	instrs := make([]uint32, 0, n+2)
	instrs = append(instrs, insts.EncodeADDI(a0, 0, 0))
	for i := 0; i < n; i++ {
		instrs = append(instrs, insts.EncodeADDI(a0, a0, 1))
	}
	instrs = append(instrs, halt())
	return BuildProgram(instrs...)
}

// 3. Loop - a counted backward branch
func loopSimulation() Benchmark {
	return Benchmark{
		Name:        "loop_simulation",
		Description: "100 iterations of a 3-instruction loop closed by BNE",
		Program: BuildProgram(
			insts.EncodeADDI(t0, 0, 100),
			insts.EncodeADDI(a0, 0, 0),
			// loop:
			insts.EncodeADDI(a0, a0, 2),
			insts.EncodeADDI(t0, t0, -1),
			insts.EncodeBNE(t0, 0, -8),
			halt(),
		),
		ExpectedExit: 200,
	}
}

// 4. MulDiv - the M extension
func mulDiv() Benchmark {
	return Benchmark{
		Name:        "mul_div",
		Description: "MUL, DIV and REM feeding one ADD",
		Program: BuildProgram(
			insts.EncodeADDI(1, 0, 223),
			insts.EncodeADDI(2, 0, 12),
			insts.EncodeADDI(3, 0, 2),
			insts.EncodeADDI(4, 0, 7),
			insts.EncodeMUL(5, 1, 2), // 2676
			insts.EncodeDIV(6, 5, 3), // 1338
			insts.EncodeREM(7, 5, 4), // 2
			insts.EncodeADD(a0, 6, 7),
			halt(),
		),
		ExpectedExit: 1340,
	}
}

// 5. Memory Sequential - word stores then loads over one cache block
func memorySequential() Benchmark {
	return Benchmark{
		Name:        "memory_sequential",
		Description: "store 1..8 to consecutive words, then load and sum them",
		Program: BuildProgram(
			insts.EncodeLUI(1, DataBase>>12),
			insts.EncodeADDI(2, 0, 1),
			insts.EncodeADDI(3, 0, 9),
			// store loop:
			insts.EncodeSW(1, 2, 0),
			insts.EncodeADDI(1, 1, 4),
			insts.EncodeADDI(2, 2, 1),
			insts.EncodeBNE(2, 3, -12),

			insts.EncodeLUI(1, DataBase>>12),
			insts.EncodeADDI(a0, 0, 0),
			insts.EncodeADDI(2, 0, 8),
			// load loop:
			insts.EncodeLW(4, 1, 0),
			insts.EncodeADD(a0, a0, 4),
			insts.EncodeADDI(1, 1, 4),
			insts.EncodeADDI(2, 2, -1),
			insts.EncodeBNE(2, 0, -16),
			halt(),
		),
		ExpectedExit: 36,
	}
}

// 6. Byte Lanes - SB into each lane of one word, read back with LW
func byteLanes() Benchmark {
	return Benchmark{
		Name:        "byte_lanes",
		Description: "four SBs assemble a word that one LW reads back",
		Program: BuildProgram(
			insts.EncodeLUI(1, DataBase>>12),
			insts.EncodeADDI(2, 0, 0x11),
			insts.EncodeSB(1, 2, 0),
			insts.EncodeADDI(2, 0, 0x22),
			insts.EncodeSB(1, 2, 1),
			insts.EncodeADDI(2, 0, 0x33),
			insts.EncodeSB(1, 2, 2),
			insts.EncodeADDI(2, 0, 0x44),
			insts.EncodeSB(1, 2, 3),
			insts.EncodeLW(a0, 1, 0),
			halt(),
		),
		ExpectedExit: 0x44332211,
	}
}

// 7. Function Calls - JAL/JALR call and return
func functionCalls() Benchmark {
	return Benchmark{
		Name:        "function_calls",
		Description: "3 calls to a leaf that adds 4 to a0",
		Program: BuildProgram(
			insts.EncodeADDI(a0, 0, 0),
			insts.EncodeJAL(ra, 16),
			insts.EncodeJAL(ra, 12),
			insts.EncodeJAL(ra, 8),
			halt(),
			// leaf:
			insts.EncodeADDI(a0, a0, 4),
			insts.EncodeJALR(0, ra, 0),
		),
		ExpectedExit: 12,
	}
}

// 8. ECALL Round Trip - entry microcode, handler, mret, exit microcode
func ecallRoundTrip() Benchmark {
	return Benchmark{
		Name:        "ecall_round_trip",
		Description: "4 ECALLs to a handler that adds 4 to a0 and skips the ECALL",
		Setup: func(memory *emu.Memory) {
			installHandler(memory,
				insts.EncodeADDI(a0, a0, 4),
				insts.EncodeCSRRS(t0, emu.CSRMEPC, 0),
				insts.EncodeADDI(t0, t0, 4),
				insts.EncodeCSRRW(0, emu.CSRMEPC, t0),
				insts.EncodeMRET(),
			)
		},
		Program: BuildProgram(
			insts.EncodeADDI(a0, 0, 0),
			insts.EncodeECALL(),
			insts.EncodeECALL(),
			insts.EncodeECALL(),
			insts.EncodeECALL(),
			halt(),
		),
		ExpectedExit: 16,
	}
}

// TimerFireCycle is when the timer benchmark raises its interrupt.
const TimerFireCycle = 40

// 9. Timer Interrupt - a one-shot timer IRQ interrupts a polling loop
func timerInterrupt() Benchmark {
	const fired = DataBase + 4

	return Benchmark{
		Name:        "timer_interrupt",
		Description: "a polling loop waits for a flag that the timer handler sets",
		Setup: func(memory *emu.Memory) {
			// MEPC is the interrupted instruction, so the handler returns
			// without adjusting it and the poll re-executes.
			installHandler(memory,
				insts.EncodeADDI(t1, 0, 7),
				insts.EncodeLUI(t2, DataBase>>12),
				insts.EncodeSW(t2, t1, 0),
				insts.EncodeMRET(),
			)
		},
		Program: BuildProgram(
			insts.EncodeLUI(1, DataBase>>12),
			// poll:
			insts.EncodeLW(2, 1, 0),
			insts.EncodeBEQ(2, 0, -4),
			insts.EncodeADDI(a0, 2, 0),
			halt(),
		),
		IRQ: func(cycle uint64, memory *emu.Memory) uint32 {
			if cycle < TimerFireCycle || memory.Read32(fired) != 0 {
				return 0
			}
			memory.Write32(fired, 1)
			return emu.IRQTimer
		},
		ExpectedExit: 7,
	}
}
