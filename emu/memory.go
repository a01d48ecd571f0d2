// Package emu provides functional LEGv8 emulation.
package emu

const pageSize = 4096

// Memory is a byte-addressable, little-endian memory with lazy allocation.
// Pages are created on first write; reads of untouched addresses return
// zero. Multi-byte accesses may be unaligned and may span pages.
type Memory struct {
	pages map[uint64]*[pageSize]byte
}

// NewMemory creates an empty memory.
func NewMemory() *Memory {
	return &Memory{
		pages: make(map[uint64]*[pageSize]byte),
	}
}

// Clear discards every allocated page.
func (m *Memory) Clear() {
	m.pages = make(map[uint64]*[pageSize]byte)
}

// Read8 reads a byte.
func (m *Memory) Read8(addr uint64) uint8 {
	page, ok := m.pages[addr/pageSize]
	if !ok {
		return 0
	}
	return page[addr%pageSize]
}

// Write8 writes a byte, allocating the containing page if needed.
func (m *Memory) Write8(addr uint64, value uint8) {
	pageNum := addr / pageSize
	page, ok := m.pages[pageNum]
	if !ok {
		page = &[pageSize]byte{}
		m.pages[pageNum] = page
	}
	page[addr%pageSize] = value
}

// Read16 reads a 16-bit value (little-endian).
func (m *Memory) Read16(addr uint64) uint16 {
	return uint16(m.Read8(addr)) | uint16(m.Read8(addr+1))<<8
}

// Write16 writes a 16-bit value (little-endian).
func (m *Memory) Write16(addr uint64, value uint16) {
	m.Write8(addr, uint8(value))
	m.Write8(addr+1, uint8(value>>8))
}

// Read32 reads a 32-bit value (little-endian).
func (m *Memory) Read32(addr uint64) uint32 {
	var value uint32
	for i := uint64(0); i < 4; i++ {
		value |= uint32(m.Read8(addr+i)) << (8 * i)
	}
	return value
}

// Write32 writes a 32-bit value (little-endian).
func (m *Memory) Write32(addr uint64, value uint32) {
	for i := uint64(0); i < 4; i++ {
		m.Write8(addr+i, uint8(value>>(8*i)))
	}
}

// Read64 reads a 64-bit value (little-endian).
func (m *Memory) Read64(addr uint64) uint64 {
	var value uint64
	for i := uint64(0); i < 8; i++ {
		value |= uint64(m.Read8(addr+i)) << (8 * i)
	}
	return value
}

// Write64 writes a 64-bit value (little-endian).
func (m *Memory) Write64(addr uint64, value uint64) {
	for i := uint64(0); i < 8; i++ {
		m.Write8(addr+i, uint8(value>>(8*i)))
	}
}

// ReadBytes copies n bytes starting at addr into a fresh slice.
func (m *Memory) ReadBytes(addr uint64, n int) []byte {
	buf := make([]byte, n)
	for i := range buf {
		buf[i] = m.Read8(addr + uint64(i))
	}
	return buf
}
