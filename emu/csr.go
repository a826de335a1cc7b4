// Package emu provides the combinational units of the RV32 core.
package emu

import (
	"errors"
	"fmt"
)

// CSR map errors.
var (
	ErrCSROffsetRange     = errors.New("csr offset out of range")
	ErrCSROffsetDuplicate = errors.New("csr offset duplicated")
	ErrCSRBaseAlign       = errors.New("csr bank base not aligned")
	ErrCSRBankOverlap     = errors.New("csr banks overlap")
)

// CSRBankSize is the byte span of one hart's CSR bank: 4096 word-sized
// registers.
const CSRBankSize = 0x1000 << 2

// Default CSR numbers. PROGRAMCOUNTER mirrors the PC of the instruction
// currently latched for execution.
const (
	CSRMEPC           = 0x341
	CSRMTVEC          = 0x305
	CSRCycleLo        = 0xC00
	CSRTimeLo         = 0xC01
	CSRRetiredLo      = 0xC02
	CSRCycleHi        = 0xC80
	CSRTimeHi         = 0xC81
	CSRRetiredHi      = 0xC82
	CSRProgramCounter = 0x7B1
)

// Default bus addresses of the per-hart CSR banks.
const (
	DefaultCSR0Base = 0x80040000
	DefaultCSR1Base = 0x80044000
)

// CSRMap is the bus placement of the CSR banks and the numbers of the
// registers the core touches on its own. A register lives at
// base + (number << 2).
type CSRMap struct {
	Base0 uint32 `json:"base0" yaml:"base0"`
	Base1 uint32 `json:"base1" yaml:"base1"`

	CycleLo        uint16 `json:"cycle_lo" yaml:"cycle_lo"`
	CycleHi        uint16 `json:"cycle_hi" yaml:"cycle_hi"`
	RetiredLo      uint16 `json:"retired_lo" yaml:"retired_lo"`
	RetiredHi      uint16 `json:"retired_hi" yaml:"retired_hi"`
	TimeLo         uint16 `json:"time_lo" yaml:"time_lo"`
	TimeHi         uint16 `json:"time_hi" yaml:"time_hi"`
	ProgramCounter uint16 `json:"program_counter" yaml:"program_counter"`
	MEPC           uint16 `json:"mepc" yaml:"mepc"`
	MTVEC          uint16 `json:"mtvec" yaml:"mtvec"`
}

// DefaultCSRMap returns the standard two-hart CSR layout.
func DefaultCSRMap() CSRMap {
	return CSRMap{
		Base0:          DefaultCSR0Base,
		Base1:          DefaultCSR1Base,
		CycleLo:        CSRCycleLo,
		CycleHi:        CSRCycleHi,
		RetiredLo:      CSRRetiredLo,
		RetiredHi:      CSRRetiredHi,
		TimeLo:         CSRTimeLo,
		TimeHi:         CSRTimeHi,
		ProgramCounter: CSRProgramCounter,
		MEPC:           CSRMEPC,
		MTVEC:          CSRMTVEC,
	}
}

// Base returns the bank base for hart. Hart 0 uses Base0, every other
// hart Base1.
func (m CSRMap) Base(hart int) uint32 {
	if hart == 0 {
		return m.Base0
	}
	return m.Base1
}

// Addr returns the bus address of CSR number offset in hart's bank.
func (m CSRMap) Addr(hart int, offset uint16) uint32 {
	return m.Base(hart) + uint32(offset)<<2
}

// Validate checks the map for the mistakes that would otherwise surface
// as silent bus corruption at tick time.
func (m CSRMap) Validate() error {
	if m.Base0&3 != 0 {
		return fmt.Errorf("base0 0x%08x: %w", m.Base0, ErrCSRBaseAlign)
	}
	if m.Base1&3 != 0 {
		return fmt.Errorf("base1 0x%08x: %w", m.Base1, ErrCSRBaseAlign)
	}
	if m.Base0 != m.Base1 && rangesOverlap(m.Base0, m.Base1, CSRBankSize) {
		return fmt.Errorf("base0 0x%08x, base1 0x%08x: %w", m.Base0, m.Base1, ErrCSRBankOverlap)
	}

	named := []struct {
		name   string
		offset uint16
	}{
		{"cycle_lo", m.CycleLo},
		{"cycle_hi", m.CycleHi},
		{"retired_lo", m.RetiredLo},
		{"retired_hi", m.RetiredHi},
		{"time_lo", m.TimeLo},
		{"time_hi", m.TimeHi},
		{"program_counter", m.ProgramCounter},
		{"mepc", m.MEPC},
		{"mtvec", m.MTVEC},
	}

	seen := make(map[uint16]string, len(named))
	for _, n := range named {
		if n.offset > 0xFFF {
			return fmt.Errorf("%s 0x%x: %w", n.name, n.offset, ErrCSROffsetRange)
		}
		if prev, ok := seen[n.offset]; ok {
			return fmt.Errorf("%s and %s at 0x%03x: %w", prev, n.name, n.offset, ErrCSROffsetDuplicate)
		}
		seen[n.offset] = n.name
	}

	return nil
}

func rangesOverlap(a, b, size uint32) bool {
	if a > b {
		a, b = b, a
	}
	return uint64(b) < uint64(a)+uint64(size)
}
