// Package emu provides functional LEGv8 emulation.
package emu

// LoadStoreUnit implements LEGv8 load and store operations. The effective
// address is Rn plus a signed byte offset fixed at assembly time; loads
// zero-extend into the full 64-bit register, stores truncate to the access
// width.
type LoadStoreUnit struct {
	regFile *RegFile
	memory  *Memory
}

// NewLoadStoreUnit creates a new LoadStoreUnit connected to the given
// register file and memory.
func NewLoadStoreUnit(regFile *RegFile, memory *Memory) *LoadStoreUnit {
	return &LoadStoreUnit{
		regFile: regFile,
		memory:  memory,
	}
}

func (lsu *LoadStoreUnit) address(rn uint8, offset int64) uint64 {
	return lsu.regFile.ReadReg(rn) + uint64(offset)
}

// LDUR performs a doubleword load: Xt = mem[Xn + offset]
func (lsu *LoadStoreUnit) LDUR(rt, rn uint8, offset int64) {
	value := lsu.memory.Read64(lsu.address(rn, offset))
	lsu.regFile.WriteReg(rt, value)
}

// STUR performs a doubleword store: mem[Xn + offset] = Xt
func (lsu *LoadStoreUnit) STUR(rt, rn uint8, offset int64) {
	lsu.memory.Write64(lsu.address(rn, offset), lsu.regFile.ReadReg(rt))
}

// LDURW performs a word load with zero extension: Xt = zero_extend(mem[Xn + offset])
func (lsu *LoadStoreUnit) LDURW(rt, rn uint8, offset int64) {
	value := lsu.memory.Read32(lsu.address(rn, offset))
	lsu.regFile.WriteReg(rt, uint64(value))
}

// STURW performs a word store: mem[Xn + offset] = Xt[31:0]
func (lsu *LoadStoreUnit) STURW(rt, rn uint8, offset int64) {
	lsu.memory.Write32(lsu.address(rn, offset), uint32(lsu.regFile.ReadReg(rt)))
}

// LDURB performs a byte load with zero extension: Xt = zero_extend(mem[Xn + offset])
func (lsu *LoadStoreUnit) LDURB(rt, rn uint8, offset int64) {
	value := lsu.memory.Read8(lsu.address(rn, offset))
	lsu.regFile.WriteReg(rt, uint64(value))
}

// STURB performs a byte store: mem[Xn + offset] = Xt[7:0]
func (lsu *LoadStoreUnit) STURB(rt, rn uint8, offset int64) {
	lsu.memory.Write8(lsu.address(rn, offset), uint8(lsu.regFile.ReadReg(rt)))
}
