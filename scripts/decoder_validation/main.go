// Validate decoder allocation behaviour - the core decodes once per
// instruction, so Decode should not allocate.
package main

import (
	"fmt"
	"runtime"
	"time"

	"github.com/sarchlab/rv32sim/emu"
	"github.com/sarchlab/rv32sim/insts"
)

func main() {
	decoder := insts.NewDecoder()

	words := []uint32{
		insts.EncodeADDI(1, 0, 42),
		insts.EncodeMUL(2, 3, 4),
		insts.EncodeBNE(5, 0, -8),
		insts.EncodeLW(10, 2, 16),
	}

	// Include the trap microcode, which the core decodes on every trap.
	rom := emu.TrapROM()
	words = append(words, rom[:]...)

	// Warm up
	for i := 0; i < 1000; i++ {
		decoder.Decode(words[i%len(words)])
	}

	runtime.GC()
	var m1, m2 runtime.MemStats
	runtime.ReadMemStats(&m1)

	start := time.Now()
	iterations := 100000

	var sink insts.Instruction
	for i := 0; i < iterations; i++ {
		for _, w := range words {
			sink = decoder.Decode(w)
		}
	}
	_ = sink

	elapsed := time.Since(start)
	runtime.ReadMemStats(&m2)

	totalDecodes := iterations * len(words)
	allocations := m2.Mallocs - m1.Mallocs
	allocatedBytes := m2.TotalAlloc - m1.TotalAlloc

	fmt.Printf("Decoder Validation Results:\n")
	fmt.Printf("===========================\n")
	fmt.Printf("Total decode operations: %d\n", totalDecodes)
	fmt.Printf("Time elapsed: %v\n", elapsed)
	fmt.Printf("Decodes per second: %.0f\n", float64(totalDecodes)/elapsed.Seconds())
	fmt.Printf("Allocations: %d\n", allocations)
	fmt.Printf("Allocated bytes: %d\n", allocatedBytes)
	fmt.Printf("Allocations per decode: %.3f\n", float64(allocations)/float64(totalDecodes))

	if float64(allocations)/float64(totalDecodes) < 0.001 {
		fmt.Printf("\n✅ SUCCESS: decode does not allocate\n")
	} else {
		fmt.Printf("\n⚠️  WARNING: decode allocates\n")
	}
}
