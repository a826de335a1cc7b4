// Package emu provides the combinational units of the RV32 core.
package emu

// Byte-enable strobes.
const (
	StrobeNone uint8 = 0b0000
	StrobeWord uint8 = 0b1111
)

// StoreLanes computes the bus write data and byte-enable strobe for a
// store of value to addr.
//
// Bytes are replicated into all four lanes and halves into both halves;
// the strobe alone selects which lanes memory keeps. Devices on the bus
// depend on the replicated pattern, so the data is never shifted into its
// natural lane.
func StoreLanes(funct3 uint8, addr, value uint32) (data uint32, strobe uint8) {
	b := value & 0xFF
	h := value & 0xFFFF

	ah := uint8((addr >> 1) & 1)
	ab := uint8(addr & 1)
	hiMask := ah<<3 | ah<<2 | (1-ah)<<1 | (1 - ah)
	loMask := ab<<3 | (1-ab)<<2 | ab<<1 | (1 - ab)

	switch funct3 {
	case 0b000: // sb
		return b<<24 | b<<16 | b<<8 | b, hiMask & loMask
	case 0b001: // sh
		return h<<16 | h, hiMask
	default: // sw
		return value, StrobeWord
	}
}

// LoadExtract picks the addressed byte or half out of a bus word and
// sign- or zero-extends it per funct3. Word loads return the word as is.
func LoadExtract(funct3 uint8, addr, word uint32) uint32 {
	byteShift := (addr & 3) * 8
	halfShift := (addr & 2) * 8

	switch funct3 {
	case 0b000: // lb
		return uint32(int32(int8(word >> byteShift)))
	case 0b001: // lh
		return uint32(int32(int16(word >> halfShift)))
	case 0b100: // lbu
		return (word >> byteShift) & 0xFF
	case 0b101: // lhu
		return (word >> halfShift) & 0xFFFF
	default: // lw
		return word
	}
}
