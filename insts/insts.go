// Package insts provides LEGv8 instruction definitions.
//
// This package defines the decoded instruction representation produced by the
// assembler and consumed by the emulator. It covers:
//   - Register-register ALU: ADD, ADDS, SUB, SUBS, AND, ORR, EOR, LSL, LSR,
//     MUL, UMULH, SMULH, DIV, SDIV, UDIV, CMP
//   - Register-immediate ALU: ADDI, ADDIS, SUBI, SUBIS, ANDI, ORRI, EORI, CMPI
//   - Wide moves: MOVZ, MOVK
//   - Loads and stores: LDUR, STUR, LDURW, STURW, LDURB, STURB
//   - Branches: B, BL, BR, CBZ, CBNZ, B.cond
//
// Instructions are pure data: construction has no side effects, and the
// emulator executes them with an exhaustive switch over Op.
package insts

// Op represents a LEGv8 operation.
type Op uint16

// LEGv8 operations.
const (
	OpUnknown Op = iota

	// Register-register ALU
	OpADD
	OpADDS
	OpSUB
	OpSUBS
	OpAND
	OpORR
	OpEOR
	OpLSL
	OpLSR
	OpMUL
	OpUMULH
	OpSMULH
	OpSDIV
	OpUDIV

	// Register-immediate ALU
	OpADDI
	OpADDIS
	OpSUBI
	OpSUBIS
	OpANDI
	OpORRI
	OpEORI

	// Wide moves
	OpMOVZ
	OpMOVK

	// Loads and stores
	OpLDUR
	OpSTUR
	OpLDURW
	OpSTURW
	OpLDURB
	OpSTURB

	// Branches
	OpB
	OpBL
	OpBR
	OpCBZ
	OpCBNZ
	OpBCond
)

var opNames = map[Op]string{
	OpUnknown: "UNKNOWN",
	OpADD:     "ADD",
	OpADDS:    "ADDS",
	OpSUB:     "SUB",
	OpSUBS:    "SUBS",
	OpAND:     "AND",
	OpORR:     "ORR",
	OpEOR:     "EOR",
	OpLSL:     "LSL",
	OpLSR:     "LSR",
	OpMUL:     "MUL",
	OpUMULH:   "UMULH",
	OpSMULH:   "SMULH",
	OpSDIV:    "SDIV",
	OpUDIV:    "UDIV",
	OpADDI:    "ADDI",
	OpADDIS:   "ADDIS",
	OpSUBI:    "SUBI",
	OpSUBIS:   "SUBIS",
	OpANDI:    "ANDI",
	OpORRI:    "ORRI",
	OpEORI:    "EORI",
	OpMOVZ:    "MOVZ",
	OpMOVK:    "MOVK",
	OpLDUR:    "LDUR",
	OpSTUR:    "STUR",
	OpLDURW:   "LDURW",
	OpSTURW:   "STURW",
	OpLDURB:   "LDURB",
	OpSTURB:   "STURB",
	OpB:       "B",
	OpBL:      "BL",
	OpBR:      "BR",
	OpCBZ:     "CBZ",
	OpCBNZ:    "CBNZ",
	OpBCond:   "B.cond",
}

func (op Op) String() string {
	if name, ok := opNames[op]; ok {
		return name
	}
	return "UNKNOWN"
}

// Format represents an instruction operand shape.
type Format uint8

// Instruction formats.
const (
	FormatUnknown       Format = iota
	FormatRegReg               // Rd, Rn, Rm
	FormatRegImm               // Rd, Rn, #imm
	FormatCompare              // Rn, Rm (no destination)
	FormatCompareImm           // Rn, #imm (no destination)
	FormatMoveWide             // Rd, #imm16 [, LSL #shift]
	FormatLoadStore            // Rt, [Rn, #offset]
	FormatBranch               // label
	FormatBranchReg            // Rn
	FormatCompareBranch        // Rt, label
	FormatBranchCond           // label (condition in mnemonic suffix)
)

// Cond represents a condition code for B.cond.
type Cond uint8

// Condition codes, consumed against the NZCV flags.
const (
	CondEQ Cond = iota // Equal (Z == 1)
	CondNE             // Not equal (Z == 0)
	CondLT             // Signed less than (N != V)
	CondLE             // Signed less than or equal (Z == 1 || N != V)
	CondGT             // Signed greater than (Z == 0 && N == V)
	CondGE             // Signed greater than or equal (N == V)
	CondLO             // Unsigned lower (C == 0)
	CondLS             // Unsigned lower or same (C == 0 || Z == 1)
	CondHI             // Unsigned higher (C == 1 && Z == 0)
	CondHS             // Unsigned higher or same (C == 1)
)

var condNames = map[Cond]string{
	CondEQ: "EQ",
	CondNE: "NE",
	CondLT: "LT",
	CondLE: "LE",
	CondGT: "GT",
	CondGE: "GE",
	CondLO: "LO",
	CondLS: "LS",
	CondHI: "HI",
	CondHS: "HS",
}

func (c Cond) String() string {
	if name, ok := condNames[c]; ok {
		return name
	}
	return "??"
}

// CondFromSuffix maps a B.cond mnemonic suffix (e.g. "EQ") to its condition
// code. The suffix must already be upper-cased.
func CondFromSuffix(suffix string) (Cond, bool) {
	for c, name := range condNames {
		if name == suffix {
			return c, true
		}
	}
	return 0, false
}

// Instruction represents a decoded LEGv8 instruction.
//
// The assembler produces one Instruction per source instruction line;
// instructions are addressed by their position in the program, and the
// program counter advances by one position per instruction.
type Instruction struct {
	Op     Op     // Operation
	Format Format // Operand shape

	// Mnemonic is the source spelling, upper-cased. Alias forms keep their
	// own spelling (CMP rather than SUBS, DIV rather than SDIV).
	Mnemonic string

	// Text is the source line with comments and labels stripped.
	Text string

	// Register operands. Rd doubles as Rt for loads, stores, and CBZ/CBNZ.
	Rd uint8
	Rn uint8
	Rm uint8

	// Imm is the signed immediate operand: the ALU immediate for
	// register-immediate forms, the byte offset for loads and stores, and
	// the unsigned 16-bit field for MOVZ/MOVK.
	Imm int64

	// Shift is the MOVZ/MOVK left-shift amount in bits (0, 16, 32, or 48).
	Shift uint8

	// SetFlags is true for instructions that update the NZCV flags.
	SetFlags bool

	// Cond is the condition for B.cond instructions.
	Cond Cond

	// Label is the branch target name; Target is the instruction index it
	// resolved to.
	Label  string
	Target int

	// Line is the 1-based source line the instruction came from.
	Line int
}

// Spec describes the fixed shape of a mnemonic: its operation tag, operand
// format, and whether it updates the flags.
type Spec struct {
	Op       Op
	Format   Format
	SetFlags bool
}

var mnemonics = map[string]Spec{
	"ADD":   {OpADD, FormatRegReg, false},
	"ADDS":  {OpADDS, FormatRegReg, true},
	"SUB":   {OpSUB, FormatRegReg, false},
	"SUBS":  {OpSUBS, FormatRegReg, true},
	"AND":   {OpAND, FormatRegReg, false},
	"ORR":   {OpORR, FormatRegReg, false},
	"EOR":   {OpEOR, FormatRegReg, false},
	"LSL":   {OpLSL, FormatRegReg, false},
	"LSR":   {OpLSR, FormatRegReg, false},
	"MUL":   {OpMUL, FormatRegReg, false},
	"UMULH": {OpUMULH, FormatRegReg, false},
	"SMULH": {OpSMULH, FormatRegReg, false},
	"DIV":   {OpSDIV, FormatRegReg, false},
	"SDIV":  {OpSDIV, FormatRegReg, false},
	"UDIV":  {OpUDIV, FormatRegReg, false},
	"CMP":   {OpSUBS, FormatCompare, true},

	"ADDI":  {OpADDI, FormatRegImm, false},
	"ADDIS": {OpADDIS, FormatRegImm, true},
	"SUBI":  {OpSUBI, FormatRegImm, false},
	"SUBIS": {OpSUBIS, FormatRegImm, true},
	"ANDI":  {OpANDI, FormatRegImm, false},
	"ORRI":  {OpORRI, FormatRegImm, false},
	"EORI":  {OpEORI, FormatRegImm, false},
	"CMPI":  {OpSUBIS, FormatCompareImm, true},

	"MOVZ": {OpMOVZ, FormatMoveWide, false},
	"MOVK": {OpMOVK, FormatMoveWide, false},

	"LDUR":  {OpLDUR, FormatLoadStore, false},
	"STUR":  {OpSTUR, FormatLoadStore, false},
	"LDURW": {OpLDURW, FormatLoadStore, false},
	"STURW": {OpSTURW, FormatLoadStore, false},
	"LDURB": {OpLDURB, FormatLoadStore, false},
	"STURB": {OpSTURB, FormatLoadStore, false},

	"B":    {OpB, FormatBranch, false},
	"BL":   {OpBL, FormatBranch, false},
	"BR":   {OpBR, FormatBranchReg, false},
	"CBZ":  {OpCBZ, FormatCompareBranch, false},
	"CBNZ": {OpCBNZ, FormatCompareBranch, false},
}

// Lookup returns the Spec for an upper-cased mnemonic. Conditional branch
// mnemonics (B.EQ, B.NE, ...) are not in the table; callers split the suffix
// and use CondFromSuffix.
func Lookup(mnemonic string) (Spec, bool) {
	spec, ok := mnemonics[mnemonic]
	return spec, ok
}

// MemWidth returns the access width in bytes for load/store operations,
// or 0 for everything else.
func (op Op) MemWidth() int {
	switch op {
	case OpLDUR, OpSTUR:
		return 8
	case OpLDURW, OpSTURW:
		return 4
	case OpLDURB, OpSTURB:
		return 1
	}
	return 0
}

// IsLoad reports whether op reads from memory into a register.
func (op Op) IsLoad() bool {
	return op == OpLDUR || op == OpLDURW || op == OpLDURB
}

// IsStore reports whether op writes a register to memory.
func (op Op) IsStore() bool {
	return op == OpSTUR || op == OpSTURW || op == OpSTURB
}
