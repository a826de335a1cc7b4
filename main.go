// Package main provides the entry point for rv32sim.
// rv32sim is a cycle-level RV32IM core simulator.
//
// For the full CLI, use: go run ./cmd/rv32sim
package main

import (
	"fmt"
	"os"
)

func main() {
	fmt.Println("rv32sim - RV32IM core simulator")
	fmt.Println("")
	fmt.Println("Usage: rv32sim [options] <program.elf>")
	fmt.Println("       rv32sim [options] -bin <program.bin>")
	fmt.Println("")
	fmt.Println("Options:")
	fmt.Println("  -config    Path to core configuration (JSON or YAML)")
	fmt.Println("  -cycles    Maximum number of cycles to simulate")
	fmt.Println("  -trace     Trace every executed instruction")
	fmt.Println("  -v         Verbose output")
	fmt.Println("")
	fmt.Println("Run 'go run ./cmd/rv32sim' for the full CLI.")

	if len(os.Args) > 1 {
		fmt.Println("\nNote: You provided arguments. Use 'go run ./cmd/rv32sim' instead.")
	}
}
