// Package emu provides functional LEGv8 emulation.
package emu

import "math/bits"

// ALU implements LEGv8 arithmetic and logic operations. All operations are
// 64-bit two's-complement with wraparound; flag-setting variants update the
// NZCV flags in the attached register file.
type ALU struct {
	regFile *RegFile
}

// NewALU creates a new ALU connected to the given register file.
func NewALU(regFile *RegFile) *ALU {
	return &ALU{regFile: regFile}
}

// ADD64 performs 64-bit addition: Xd = Xn + Xm
func (a *ALU) ADD64(rd, rn, rm uint8, setFlags bool) {
	op1 := a.regFile.ReadReg(rn)
	op2 := a.regFile.ReadReg(rm)
	result := op1 + op2

	a.regFile.WriteReg(rd, result)

	if setFlags {
		a.setAddFlags64(op1, op2, result)
	}
}

// ADD64Imm performs 64-bit addition with a signed immediate: Xd = Xn + imm
func (a *ALU) ADD64Imm(rd, rn uint8, imm int64, setFlags bool) {
	op1 := a.regFile.ReadReg(rn)
	op2 := uint64(imm)
	result := op1 + op2

	a.regFile.WriteReg(rd, result)

	if setFlags {
		a.setAddFlags64(op1, op2, result)
	}
}

// SUB64 performs 64-bit subtraction: Xd = Xn - Xm
func (a *ALU) SUB64(rd, rn, rm uint8, setFlags bool) {
	op1 := a.regFile.ReadReg(rn)
	op2 := a.regFile.ReadReg(rm)
	result := op1 - op2

	a.regFile.WriteReg(rd, result)

	if setFlags {
		a.setSubFlags64(op1, op2, result)
	}
}

// SUB64Imm performs 64-bit subtraction with a signed immediate: Xd = Xn - imm
func (a *ALU) SUB64Imm(rd, rn uint8, imm int64, setFlags bool) {
	op1 := a.regFile.ReadReg(rn)
	op2 := uint64(imm)
	result := op1 - op2

	a.regFile.WriteReg(rd, result)

	if setFlags {
		a.setSubFlags64(op1, op2, result)
	}
}

// AND64 performs 64-bit bitwise AND: Xd = Xn & Xm. Logical operations never
// touch the flags.
func (a *ALU) AND64(rd, rn, rm uint8) {
	a.regFile.WriteReg(rd, a.regFile.ReadReg(rn)&a.regFile.ReadReg(rm))
}

// ORR64 performs 64-bit bitwise OR: Xd = Xn | Xm
func (a *ALU) ORR64(rd, rn, rm uint8) {
	a.regFile.WriteReg(rd, a.regFile.ReadReg(rn)|a.regFile.ReadReg(rm))
}

// EOR64 performs 64-bit bitwise XOR: Xd = Xn ^ Xm
func (a *ALU) EOR64(rd, rn, rm uint8) {
	a.regFile.WriteReg(rd, a.regFile.ReadReg(rn)^a.regFile.ReadReg(rm))
}

// AND64Imm performs 64-bit bitwise AND with immediate: Xd = Xn & imm
func (a *ALU) AND64Imm(rd, rn uint8, imm int64) {
	a.regFile.WriteReg(rd, a.regFile.ReadReg(rn)&uint64(imm))
}

// ORR64Imm performs 64-bit bitwise OR with immediate: Xd = Xn | imm
func (a *ALU) ORR64Imm(rd, rn uint8, imm int64) {
	a.regFile.WriteReg(rd, a.regFile.ReadReg(rn)|uint64(imm))
}

// EOR64Imm performs 64-bit bitwise XOR with immediate: Xd = Xn ^ imm
func (a *ALU) EOR64Imm(rd, rn uint8, imm int64) {
	a.regFile.WriteReg(rd, a.regFile.ReadReg(rn)^uint64(imm))
}

// LSL64 performs a logical shift left: Xd = Xn << (Xm & 0x3F)
func (a *ALU) LSL64(rd, rn, rm uint8) {
	shift := a.regFile.ReadReg(rm) & 0x3F
	a.regFile.WriteReg(rd, a.regFile.ReadReg(rn)<<shift)
}

// LSR64 performs a logical shift right: Xd = Xn >> (Xm & 0x3F)
func (a *ALU) LSR64(rd, rn, rm uint8) {
	shift := a.regFile.ReadReg(rm) & 0x3F
	a.regFile.WriteReg(rd, a.regFile.ReadReg(rn)>>shift)
}

// MUL64 performs 64-bit multiplication keeping the low half of the product.
// Two's-complement wraparound makes the low 64 bits identical for signed and
// unsigned operands.
func (a *ALU) MUL64(rd, rn, rm uint8) {
	a.regFile.WriteReg(rd, a.regFile.ReadReg(rn)*a.regFile.ReadReg(rm))
}

// UMULH64 computes the high 64 bits of the unsigned 128-bit product.
func (a *ALU) UMULH64(rd, rn, rm uint8) {
	hi, _ := bits.Mul64(a.regFile.ReadReg(rn), a.regFile.ReadReg(rm))
	a.regFile.WriteReg(rd, hi)
}

// SMULH64 computes the high 64 bits of the signed 128-bit product.
// The unsigned high half is corrected by subtracting each operand where the
// other is negative.
func (a *ALU) SMULH64(rd, rn, rm uint8) {
	op1 := a.regFile.ReadReg(rn)
	op2 := a.regFile.ReadReg(rm)
	hi, _ := bits.Mul64(op1, op2)
	if int64(op1) < 0 {
		hi -= op2
	}
	if int64(op2) < 0 {
		hi -= op1
	}
	a.regFile.WriteReg(rd, hi)
}

// SDIV64 performs signed division truncated toward zero: Xd = Xn / Xm.
// It reports false, writing nothing, when the divisor is zero.
func (a *ALU) SDIV64(rd, rn, rm uint8) bool {
	divisor := int64(a.regFile.ReadReg(rm))
	if divisor == 0 {
		return false
	}
	dividend := int64(a.regFile.ReadReg(rn))
	a.regFile.WriteReg(rd, uint64(dividend/divisor))
	return true
}

// UDIV64 performs unsigned division: Xd = Xn / Xm.
// It reports false, writing nothing, when the divisor is zero.
func (a *ALU) UDIV64(rd, rn, rm uint8) bool {
	divisor := a.regFile.ReadReg(rm)
	if divisor == 0 {
		return false
	}
	a.regFile.WriteReg(rd, a.regFile.ReadReg(rn)/divisor)
	return true
}

// setAddFlags64 sets NZCV flags for 64-bit addition.
func (a *ALU) setAddFlags64(op1, op2, result uint64) {
	// N: Set if result is negative (MSB is 1)
	a.regFile.PSTATE.N = (result >> 63) == 1

	// Z: Set if result is zero
	a.regFile.PSTATE.Z = result == 0

	// C: Set if unsigned overflow (carry out)
	a.regFile.PSTATE.C = result < op1

	// V: Set if signed overflow
	// Overflow occurs when adding two positives gives negative,
	// or adding two negatives gives positive
	op1Sign := op1 >> 63
	op2Sign := op2 >> 63
	resultSign := result >> 63
	a.regFile.PSTATE.V = (op1Sign == op2Sign) && (op1Sign != resultSign)
}

// setSubFlags64 sets NZCV flags for 64-bit subtraction.
func (a *ALU) setSubFlags64(op1, op2, result uint64) {
	// N: Set if result is negative
	a.regFile.PSTATE.N = (result >> 63) == 1

	// Z: Set if result is zero
	a.regFile.PSTATE.Z = result == 0

	// C: Set if NO borrow occurred (op1 >= op2)
	a.regFile.PSTATE.C = op1 >= op2

	// V: Set if signed overflow
	// Overflow occurs when subtracting negative from positive gives negative,
	// or subtracting positive from negative gives positive
	op1Sign := op1 >> 63
	op2Sign := op2 >> 63
	resultSign := result >> 63
	a.regFile.PSTATE.V = (op1Sign != op2Sign) && (op2Sign == resultSign)
}
