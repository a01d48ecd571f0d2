// Package emu provides functional LEGv8 emulation.
package emu

import "github.com/sarchlab/legsim/insts"

// BranchUnit evaluates branch conditions against the register file's flags.
// Branch targets are instruction indices resolved at assembly time, so the
// program-counter update itself happens in the emulator's dispatch.
type BranchUnit struct {
	regFile *RegFile
}

// NewBranchUnit creates a new BranchUnit connected to the given register file.
func NewBranchUnit(regFile *RegFile) *BranchUnit {
	return &BranchUnit{regFile: regFile}
}

// CheckCondition evaluates a condition code against the current flags.
func (b *BranchUnit) CheckCondition(cond insts.Cond) bool {
	pstate := &b.regFile.PSTATE

	switch cond {
	case insts.CondEQ:
		// Equal: Z == 1
		return pstate.Z
	case insts.CondNE:
		// Not equal: Z == 0
		return !pstate.Z
	case insts.CondLT:
		// Signed less than: N != V
		return pstate.N != pstate.V
	case insts.CondLE:
		// Signed less than or equal: Z == 1 || N != V
		return pstate.Z || (pstate.N != pstate.V)
	case insts.CondGT:
		// Signed greater than: Z == 0 && N == V
		return !pstate.Z && (pstate.N == pstate.V)
	case insts.CondGE:
		// Signed greater than or equal: N == V
		return pstate.N == pstate.V
	case insts.CondLO:
		// Unsigned lower: C == 0
		return !pstate.C
	case insts.CondLS:
		// Unsigned lower or same: C == 0 || Z == 1
		return !pstate.C || pstate.Z
	case insts.CondHI:
		// Unsigned higher: C == 1 && Z == 0
		return pstate.C && !pstate.Z
	case insts.CondHS:
		// Unsigned higher or same: C == 1
		return pstate.C
	default:
		return false
	}
}
