// Package emu provides the combinational units of the RV32 core.
package emu

import "encoding/binary"

// Bus is the memory-mapped read/write port the core drives.
//
// Read returns the 32-bit word containing addr. Write applies only the
// bytes of data selected by strobe (bit i enables byte lane i). There is no
// error channel: unmapped addresses are the bus implementation's concern.
type Bus interface {
	Read(addr uint32) uint32
	Write(addr uint32, data uint32, strobe uint8)
}

const (
	pageShift = 12
	pageWords = 1 << (pageShift - 2)
)

type page [pageWords]uint32

// Memory is a sparse, word-organized RAM implementing Bus. Unwritten
// locations read as zero.
type Memory struct {
	pages map[uint32]*page
}

// NewMemory creates an empty memory.
func NewMemory() *Memory {
	return &Memory{pages: make(map[uint32]*page)}
}

func (m *Memory) lookup(addr uint32, create bool) (*page, uint32) {
	key := addr >> pageShift
	p, ok := m.pages[key]
	if !ok && create {
		p = &page{}
		m.pages[key] = p
	}
	return p, (addr >> 2) & (pageWords - 1)
}

// Read returns the aligned word containing addr.
func (m *Memory) Read(addr uint32) uint32 {
	p, idx := m.lookup(addr, false)
	if p == nil {
		return 0
	}
	return p[idx]
}

// Write merges the strobed byte lanes of data into the aligned word
// containing addr.
func (m *Memory) Write(addr uint32, data uint32, strobe uint8) {
	if strobe&StrobeWord == 0 {
		return
	}

	var mask uint32
	for lane := 0; lane < 4; lane++ {
		if strobe&(1<<lane) != 0 {
			mask |= 0xFF << (lane * 8)
		}
	}

	p, idx := m.lookup(addr, true)
	p[idx] = (p[idx] &^ mask) | (data & mask)
}

// Read8 reads a single byte.
func (m *Memory) Read8(addr uint32) uint8 {
	return uint8(m.Read(addr) >> ((addr & 3) * 8))
}

// Write8 writes a single byte.
func (m *Memory) Write8(addr uint32, value uint8) {
	m.Write(addr, uint32(value)<<((addr&3)*8), 1<<(addr&3))
}

// Read32 reads an aligned word.
func (m *Memory) Read32(addr uint32) uint32 {
	return m.Read(addr)
}

// Write32 writes an aligned word.
func (m *Memory) Write32(addr uint32, value uint32) {
	m.Write(addr, value, StrobeWord)
}

// LoadWords stores consecutive words starting at addr.
func (m *Memory) LoadWords(addr uint32, words ...uint32) {
	for i, w := range words {
		m.Write32(addr+uint32(i)*4, w)
	}
}

// LoadProgram copies little-endian program bytes into memory at addr.
func (m *Memory) LoadProgram(addr uint32, program []byte) {
	i := 0
	for ; (addr+uint32(i))&3 != 0 && i < len(program); i++ {
		m.Write8(addr+uint32(i), program[i])
	}
	for ; i+4 <= len(program); i += 4 {
		m.Write32(addr+uint32(i), binary.LittleEndian.Uint32(program[i:]))
	}
	for ; i < len(program); i++ {
		m.Write8(addr+uint32(i), program[i])
	}
}

// Fill writes n zero bytes starting at addr, the BSS part of a segment.
func (m *Memory) Fill(addr uint32, n uint32) {
	for i := uint32(0); i < n; i++ {
		m.Write8(addr+i, 0)
	}
}

// BusWrite is one write observed by a RecordingBus.
type BusWrite struct {
	Addr   uint32
	Data   uint32
	Strobe uint8
}

// RecordingBus forwards to an inner bus and records every access, for
// checking bus traffic in tests.
type RecordingBus struct {
	Bus    Bus
	Writes []BusWrite
	Reads  []uint32
}

// NewRecordingBus wraps bus.
func NewRecordingBus(bus Bus) *RecordingBus {
	return &RecordingBus{Bus: bus}
}

// Read forwards a read and records its address.
func (r *RecordingBus) Read(addr uint32) uint32 {
	r.Reads = append(r.Reads, addr)
	return r.Bus.Read(addr)
}

// Write records the write and forwards it.
func (r *RecordingBus) Write(addr uint32, data uint32, strobe uint8) {
	r.Writes = append(r.Writes, BusWrite{Addr: addr, Data: data, Strobe: strobe})
	r.Bus.Write(addr, data, strobe)
}

// WritesTo returns the recorded writes whose address falls in
// [lo, hi).
func (r *RecordingBus) WritesTo(lo, hi uint32) []BusWrite {
	var out []BusWrite
	for _, w := range r.Writes {
		if w.Addr >= lo && w.Addr < hi {
			out = append(out, w)
		}
	}
	return out
}

// Reset clears the recorded history.
func (r *RecordingBus) Reset() {
	r.Writes = nil
	r.Reads = nil
}
