// Package emu provides the combinational units of the RV32 core.
package emu

// RegFile represents the RV32 general-purpose register file.
type RegFile struct {
	// X holds registers x0-x31.
	// X[0] stays zero because writes to it are discarded; reads are not
	// masked.
	X [32]uint32
}

// ReadReg reads a register value.
func (r *RegFile) ReadReg(reg uint8) uint32 {
	return r.X[reg&0x1F]
}

// WriteReg writes a value to a register. Writes to x0 are ignored.
func (r *RegFile) WriteReg(reg uint8, value uint32) {
	reg &= 0x1F
	if reg == 0 {
		return
	}
	r.X[reg] = value
}

// Clear zeroes all registers.
func (r *RegFile) Clear() {
	r.X = [32]uint32{}
}
