// Package emu provides functional LEGv8 emulation.
package emu

// Architectural register aliases. The aliases are naming only: SP, FP, and
// LR are ordinary slots, and the assembler resolves the names to indices.
const (
	RegSP  = 28 // stack pointer
	RegFP  = 29 // frame pointer
	RegLR  = 30 // link register
	RegXZR = 31 // zero register
)

// RegFile represents the LEGv8 register file.
// It contains 32 general-purpose 64-bit registers and the condition flags.
type RegFile struct {
	// X holds general-purpose registers X0-X31.
	// X[31] is the zero register (XZR) which always reads as 0.
	X [32]uint64

	// PSTATE holds the processor state flags.
	PSTATE PSTATE
}

// PSTATE represents the processor state flags.
type PSTATE struct {
	// N is the negative flag.
	N bool
	// Z is the zero flag.
	Z bool
	// C is the carry flag.
	C bool
	// V is the overflow flag.
	V bool
}

// ReadReg reads a register value. Register 31 returns 0 (XZR).
func (r *RegFile) ReadReg(reg uint8) uint64 {
	if reg >= 31 {
		return 0
	}
	return r.X[reg]
}

// WriteReg writes a value to a register. Writes to register 31 (XZR) are
// discarded. The zero-register rule lives here, once, rather than in every
// instruction that names XZR.
func (r *RegFile) WriteReg(reg uint8, value uint64) {
	if reg >= 31 {
		return
	}
	r.X[reg] = value
}

// Reset zeroes all registers and flags.
func (r *RegFile) Reset() {
	*r = RegFile{}
}
