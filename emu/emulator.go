// Package emu provides functional LEGv8 emulation.
package emu

import (
	"fmt"
	"io"
	"os"

	"github.com/sarchlab/legsim/asm"
	"github.com/sarchlab/legsim/insts"
)

// Status describes the execution state of the emulator.
type Status uint8

// Emulator statuses.
const (
	// StatusReady means a program is loaded and the next Step will execute
	// an instruction.
	StatusReady Status = iota
	// StatusHalted means the program counter moved past the last
	// instruction; the program completed normally.
	StatusHalted
	// StatusError means an instruction faulted; Err holds the detail and
	// only Reset recovers.
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusReady:
		return "ready"
	case StatusHalted:
		return "halted"
	case StatusError:
		return "error"
	default:
		return "unknown"
	}
}

// ErrKind classifies runtime faults.
type ErrKind uint8

// Runtime fault kinds.
const (
	// ErrDivisionByZero is raised by DIV/SDIV/UDIV with a zero divisor.
	ErrDivisionByZero ErrKind = iota
	// ErrInvalidBranchTarget is raised by BR when the register value is
	// outside the program's instruction range.
	ErrInvalidBranchTarget
	// ErrStepLimit is raised by Run when the step bound is exhausted.
	ErrStepLimit
)

func (k ErrKind) String() string {
	switch k {
	case ErrDivisionByZero:
		return "division by zero"
	case ErrInvalidBranchTarget:
		return "invalid branch target"
	case ErrStepLimit:
		return "step limit exceeded"
	default:
		return "unknown fault"
	}
}

// ExecError describes a runtime fault. Registers and memory are frozen as of
// just before the faulting instruction.
type ExecError struct {
	Kind    ErrKind
	Message string
	// Index is the instruction index that faulted.
	Index int
}

func (e *ExecError) Error() string {
	return fmt.Sprintf("%s at instruction %d: %s", e.Kind, e.Index, e.Message)
}

// DefaultMaxSteps is the run bound used when none is configured.
const DefaultMaxSteps = 1_000_000

// Emulator executes LEGv8 programs instruction by instruction.
//
// The emulator owns its register file and memory for its lifetime and is
// strictly single-threaded: Step and Run never suspend, and callers that
// drive it from a background task must serialize their calls. Multiple
// independent emulators may coexist.
type Emulator struct {
	regFile *RegFile
	memory  *Memory

	// Execution units
	alu        *ALU
	lsu        *LoadStoreUnit
	branchUnit *BranchUnit

	program *asm.Program
	pc      int
	status  Status
	execErr *ExecError

	stderr io.Writer

	instructionCount uint64
	maxSteps         uint64
}

// EmulatorOption is a functional option for configuring the Emulator.
type EmulatorOption func(*Emulator)

// WithStderr sets a custom writer for fault reports from Run.
func WithStderr(w io.Writer) EmulatorOption {
	return func(e *Emulator) {
		e.stderr = w
	}
}

// WithMaxSteps sets the default run bound used by Run(0).
func WithMaxSteps(n uint64) EmulatorOption {
	return func(e *Emulator) {
		e.maxSteps = n
	}
}

// NewEmulator creates a new LEGv8 emulator with no program loaded.
func NewEmulator(opts ...EmulatorOption) *Emulator {
	regFile := &RegFile{}
	memory := NewMemory()

	e := &Emulator{
		regFile:  regFile,
		memory:   memory,
		status:   StatusHalted,
		stderr:   os.Stderr,
		maxSteps: DefaultMaxSteps,
	}

	for _, opt := range opts {
		opt(e)
	}

	e.alu = NewALU(regFile)
	e.lsu = NewLoadStoreUnit(regFile, memory)
	e.branchUnit = NewBranchUnit(regFile)

	return e
}

// Reset loads a program and restores the initial state: registers, flags,
// and memory zeroed, PC at 0, status ready.
func (e *Emulator) Reset(program *asm.Program) {
	e.regFile.Reset()
	e.memory.Clear()
	e.program = program
	e.pc = 0
	e.status = StatusReady
	e.execErr = nil
	e.instructionCount = 0
}

// RegFile returns the emulator's register file.
func (e *Emulator) RegFile() *RegFile {
	return e.regFile
}

// Memory returns the emulator's memory.
func (e *Emulator) Memory() *Memory {
	return e.memory
}

// PC returns the current program counter as an instruction index.
func (e *Emulator) PC() int {
	return e.pc
}

// Status returns the current execution status.
func (e *Emulator) Status() Status {
	return e.status
}

// Err returns the fault detail when the status is StatusError, nil otherwise.
func (e *Emulator) Err() *ExecError {
	return e.execErr
}

// InstructionCount returns the number of instructions executed since the
// last Reset.
func (e *Emulator) InstructionCount() uint64 {
	return e.instructionCount
}

// Reg returns a single register value. Register 31 reads as 0.
func (e *Emulator) Reg(reg uint8) uint64 {
	return e.regFile.ReadReg(reg)
}

// Registers returns a snapshot of all 32 register values.
func (e *Emulator) Registers() [32]uint64 {
	return e.regFile.X
}

// Flags returns a snapshot of the condition flags.
func (e *Emulator) Flags() PSTATE {
	return e.regFile.PSTATE
}

// ReadMemory copies n bytes of memory starting at addr.
func (e *Emulator) ReadMemory(addr uint64, n int) []byte {
	return e.memory.ReadBytes(addr, n)
}

// Step executes exactly one instruction if the status is ready and returns
// the new status. Running past the last instruction halts without error.
func (e *Emulator) Step() Status {
	if e.status != StatusReady {
		return e.status
	}
	if e.program == nil || e.pc >= len(e.program.Insts) {
		e.status = StatusHalted
		return e.status
	}

	inst := e.program.Insts[e.pc]
	if e.execute(inst) {
		e.instructionCount++
	}

	return e.status
}

// Run steps until the program halts or faults. A maxSteps of 0 uses the
// configured default bound; exhausting the bound is reported as a step-limit
// fault rather than spinning forever.
func (e *Emulator) Run(maxSteps uint64) Status {
	limit := maxSteps
	if limit == 0 {
		limit = e.maxSteps
	}

	for i := uint64(0); i < limit; i++ {
		if e.Step() != StatusReady {
			break
		}
	}

	// A program that finishes on the last budgeted step leaves the engine
	// ready with the PC past the end; the halt transition executes nothing
	// and is not charged against the bound.
	if e.status == StatusReady && (e.program == nil || e.pc >= len(e.program.Insts)) {
		e.Step()
	}

	if e.status == StatusReady {
		e.fault(ErrStepLimit, "no termination within %d steps", limit)
	}
	if e.status == StatusError {
		_, _ = fmt.Fprintf(e.stderr, "emulation error: %v\n", e.execErr)
	}

	return e.status
}

// fault records a runtime error at the current instruction and freezes
// execution. It always returns false so execute can fault in one statement.
func (e *Emulator) fault(kind ErrKind, format string, args ...interface{}) bool {
	e.execErr = &ExecError{
		Kind:    kind,
		Message: fmt.Sprintf(format, args...),
		Index:   e.pc,
	}
	e.status = StatusError
	return false
}

// execute dispatches one decoded instruction. It reports whether the
// instruction completed; on success the PC has been advanced (or redirected
// by a branch).
func (e *Emulator) execute(inst *insts.Instruction) bool {
	switch inst.Op {
	case insts.OpADD:
		e.alu.ADD64(inst.Rd, inst.Rn, inst.Rm, false)
	case insts.OpADDS:
		e.alu.ADD64(inst.Rd, inst.Rn, inst.Rm, true)
	case insts.OpSUB:
		e.alu.SUB64(inst.Rd, inst.Rn, inst.Rm, false)
	case insts.OpSUBS:
		e.alu.SUB64(inst.Rd, inst.Rn, inst.Rm, true)
	case insts.OpAND:
		e.alu.AND64(inst.Rd, inst.Rn, inst.Rm)
	case insts.OpORR:
		e.alu.ORR64(inst.Rd, inst.Rn, inst.Rm)
	case insts.OpEOR:
		e.alu.EOR64(inst.Rd, inst.Rn, inst.Rm)
	case insts.OpLSL:
		e.alu.LSL64(inst.Rd, inst.Rn, inst.Rm)
	case insts.OpLSR:
		e.alu.LSR64(inst.Rd, inst.Rn, inst.Rm)
	case insts.OpMUL:
		e.alu.MUL64(inst.Rd, inst.Rn, inst.Rm)
	case insts.OpUMULH:
		e.alu.UMULH64(inst.Rd, inst.Rn, inst.Rm)
	case insts.OpSMULH:
		e.alu.SMULH64(inst.Rd, inst.Rn, inst.Rm)
	case insts.OpSDIV:
		if !e.alu.SDIV64(inst.Rd, inst.Rn, inst.Rm) {
			return e.fault(ErrDivisionByZero, "%s with zero divisor X%d", inst.Mnemonic, inst.Rm)
		}
	case insts.OpUDIV:
		if !e.alu.UDIV64(inst.Rd, inst.Rn, inst.Rm) {
			return e.fault(ErrDivisionByZero, "%s with zero divisor X%d", inst.Mnemonic, inst.Rm)
		}

	case insts.OpADDI:
		e.alu.ADD64Imm(inst.Rd, inst.Rn, inst.Imm, false)
	case insts.OpADDIS:
		e.alu.ADD64Imm(inst.Rd, inst.Rn, inst.Imm, true)
	case insts.OpSUBI:
		e.alu.SUB64Imm(inst.Rd, inst.Rn, inst.Imm, false)
	case insts.OpSUBIS:
		e.alu.SUB64Imm(inst.Rd, inst.Rn, inst.Imm, true)
	case insts.OpANDI:
		e.alu.AND64Imm(inst.Rd, inst.Rn, inst.Imm)
	case insts.OpORRI:
		e.alu.ORR64Imm(inst.Rd, inst.Rn, inst.Imm)
	case insts.OpEORI:
		e.alu.EOR64Imm(inst.Rd, inst.Rn, inst.Imm)

	case insts.OpMOVZ:
		// Rd = imm16 << shift, zero other bits
		e.regFile.WriteReg(inst.Rd, uint64(inst.Imm)<<inst.Shift)
	case insts.OpMOVK:
		// Keep other bits, replace the 16-bit field at the shift position
		current := e.regFile.ReadReg(inst.Rd)
		mask := ^(uint64(0xFFFF) << inst.Shift)
		e.regFile.WriteReg(inst.Rd, (current&mask)|uint64(inst.Imm)<<inst.Shift)

	case insts.OpLDUR:
		e.lsu.LDUR(inst.Rd, inst.Rn, inst.Imm)
	case insts.OpSTUR:
		e.lsu.STUR(inst.Rd, inst.Rn, inst.Imm)
	case insts.OpLDURW:
		e.lsu.LDURW(inst.Rd, inst.Rn, inst.Imm)
	case insts.OpSTURW:
		e.lsu.STURW(inst.Rd, inst.Rn, inst.Imm)
	case insts.OpLDURB:
		e.lsu.LDURB(inst.Rd, inst.Rn, inst.Imm)
	case insts.OpSTURB:
		e.lsu.STURB(inst.Rd, inst.Rn, inst.Imm)

	case insts.OpB:
		e.pc = inst.Target
		return true
	case insts.OpBL:
		// Return address is the next sequential instruction index.
		e.regFile.WriteReg(RegLR, uint64(e.pc+1))
		e.pc = inst.Target
		return true
	case insts.OpBR:
		// The register holds an instruction index, typically saved by BL.
		// An index equal to the instruction count halts on the next step.
		target := e.regFile.ReadReg(inst.Rn)
		if target > uint64(len(e.program.Insts)) {
			return e.fault(ErrInvalidBranchTarget,
				"BR X%d: index %d outside program of %d instructions",
				inst.Rn, target, len(e.program.Insts))
		}
		e.pc = int(target)
		return true
	case insts.OpCBZ:
		if e.regFile.ReadReg(inst.Rd) == 0 {
			e.pc = inst.Target
			return true
		}
	case insts.OpCBNZ:
		if e.regFile.ReadReg(inst.Rd) != 0 {
			e.pc = inst.Target
			return true
		}
	case insts.OpBCond:
		if e.branchUnit.CheckCondition(inst.Cond) {
			e.pc = inst.Target
			return true
		}
	}

	// Advance PC for non-branch instructions and untaken branches.
	e.pc++
	return true
}
