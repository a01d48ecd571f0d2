// Package asm provides the LEGv8 assembly front end.
//
// The assembler turns source text into a Program: an ordered sequence of
// decoded instructions plus a label table. Parsing is two-pass so branches
// may reference labels defined later in the source. Errors are collected
// across the whole text and reported together, each attributed to its
// source line; a Program is only returned when the text is fully valid.
package asm

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/sarchlab/legsim/insts"
)

// Immediate ranges accepted by the assembler.
const (
	immMin = -2048 // 12-bit signed ALU immediate
	immMax = 2047
	offMin = -256 // 9-bit signed load/store offset
	offMax = 255
	movMax = 65535 // 16-bit unsigned move immediate
)

// Program is the immutable output of the assembler: the decoded instruction
// sequence and the label table mapping each label to the index of the
// instruction that follows it.
type Program struct {
	Insts  []*insts.Instruction
	Labels map[string]int
}

var (
	labelDefPattern = regexp.MustCompile(`^([A-Za-z_][A-Za-z0-9_]*):(.*)$`)
	labelRefPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
	regNumPattern   = regexp.MustCompile(`^(0|[1-9][0-9]?)$`)
)

// pendingLine is an instruction line awaiting decode, recorded in pass 1.
type pendingLine struct {
	num  int
	text string
}

// Parse assembles source text into a Program.
//
// Pass 1 strips comments, collects label definitions, and assigns each
// instruction line its sequential index. Pass 2 decodes every instruction
// line against the mnemonic table and resolves label operands. On failure
// the returned error is an ErrorList holding every offending line.
func Parse(source string) (*Program, error) {
	var errs ErrorList
	labels := make(map[string]int)
	var pending []pendingLine

	for i, raw := range strings.Split(source, "\n") {
		num := i + 1

		text := raw
		if idx := strings.Index(text, "//"); idx >= 0 {
			text = text[:idx]
		}
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}

		if m := labelDefPattern.FindStringSubmatch(text); m != nil {
			name := m[1]
			if _, dup := labels[name]; dup {
				errs = errs.add(num, "duplicate label: %s", name)
			} else {
				labels[name] = len(pending)
			}
			text = strings.TrimSpace(m[2])
			if text == "" {
				continue
			}
		}

		pending = append(pending, pendingLine{num: num, text: text})
	}

	prog := &Program{
		Insts:  make([]*insts.Instruction, 0, len(pending)),
		Labels: labels,
	}

	for _, ln := range pending {
		inst, err := decodeLine(ln.text, ln.num, labels)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		prog.Insts = append(prog.Insts, inst)
	}

	if err := errs.err(); err != nil {
		return nil, err
	}
	return prog, nil
}

// decodeLine decodes a single instruction line (comments and labels already
// stripped) into an Instruction.
func decodeLine(text string, num int, labels map[string]int) (*insts.Instruction, *ParseError) {
	mnemonic := text
	operandStr := ""
	if sp := strings.IndexAny(text, " \t"); sp >= 0 {
		mnemonic = text[:sp]
		operandStr = strings.TrimSpace(text[sp+1:])
	}
	mnemonic = strings.ToUpper(mnemonic)
	operands := splitOperands(operandStr)

	inst := &insts.Instruction{Mnemonic: mnemonic, Text: text, Line: num}

	// Conditional branches carry the condition in the mnemonic suffix.
	if base, suffix, found := strings.Cut(mnemonic, "."); found {
		cond, ok := insts.CondFromSuffix(suffix)
		if base != "B" || !ok {
			return nil, &ParseError{num, fmt.Sprintf("unknown instruction: %s", mnemonic)}
		}
		inst.Op = insts.OpBCond
		inst.Format = insts.FormatBranchCond
		inst.Cond = cond
		if err := decodeOperands(inst, operands, num, labels); err != nil {
			return nil, err
		}
		return inst, nil
	}

	spec, ok := insts.Lookup(mnemonic)
	if !ok {
		return nil, &ParseError{num, fmt.Sprintf("unknown instruction: %s", mnemonic)}
	}
	inst.Op = spec.Op
	inst.Format = spec.Format
	inst.SetFlags = spec.SetFlags

	if err := decodeOperands(inst, operands, num, labels); err != nil {
		return nil, err
	}
	return inst, nil
}

// decodeOperands validates operand count and kind for the instruction's
// format and fills in the operand fields.
func decodeOperands(inst *insts.Instruction, operands []string, num int, labels map[string]int) *ParseError {
	switch inst.Format {
	case insts.FormatRegReg:
		if len(operands) != 3 {
			return operandCountError(inst, 3, len(operands), num)
		}
		var err *ParseError
		if inst.Rd, err = parseRegister(operands[0], num); err != nil {
			return err
		}
		if inst.Rn, err = parseRegister(operands[1], num); err != nil {
			return err
		}
		inst.Rm, err = parseRegister(operands[2], num)
		return err

	case insts.FormatCompare:
		// CMP Rn, Rm: SUBS with the destination pinned to XZR.
		if len(operands) != 2 {
			return operandCountError(inst, 2, len(operands), num)
		}
		inst.Rd = 31
		var err *ParseError
		if inst.Rn, err = parseRegister(operands[0], num); err != nil {
			return err
		}
		inst.Rm, err = parseRegister(operands[1], num)
		return err

	case insts.FormatRegImm:
		if len(operands) != 3 {
			return operandCountError(inst, 3, len(operands), num)
		}
		var err *ParseError
		if inst.Rd, err = parseRegister(operands[0], num); err != nil {
			return err
		}
		if inst.Rn, err = parseRegister(operands[1], num); err != nil {
			return err
		}
		inst.Imm, err = parseImmediate(operands[2], immMin, immMax, num)
		return err

	case insts.FormatCompareImm:
		// CMPI Rn, #imm: SUBIS with the destination pinned to XZR.
		if len(operands) != 2 {
			return operandCountError(inst, 2, len(operands), num)
		}
		inst.Rd = 31
		var err *ParseError
		if inst.Rn, err = parseRegister(operands[0], num); err != nil {
			return err
		}
		inst.Imm, err = parseImmediate(operands[1], immMin, immMax, num)
		return err

	case insts.FormatMoveWide:
		if len(operands) != 2 && len(operands) != 3 {
			return &ParseError{num, fmt.Sprintf(
				"%s requires 2 operands and an optional shift, got %d", inst.Mnemonic, len(operands))}
		}
		var err *ParseError
		if inst.Rd, err = parseRegister(operands[0], num); err != nil {
			return err
		}
		if inst.Imm, err = parseImmediate(operands[1], 0, movMax, num); err != nil {
			return err
		}
		if len(operands) == 3 {
			inst.Shift, err = parseMoveShift(operands[2], num)
		}
		return err

	case insts.FormatLoadStore:
		if len(operands) != 2 {
			return operandCountError(inst, 2, len(operands), num)
		}
		var err *ParseError
		if inst.Rd, err = parseRegister(operands[0], num); err != nil {
			return err
		}
		inst.Rn, inst.Imm, err = parseMemOperand(operands[1], num)
		return err

	case insts.FormatBranch, insts.FormatBranchCond:
		if len(operands) != 1 {
			return operandCountError(inst, 1, len(operands), num)
		}
		return resolveLabel(inst, operands[0], num, labels)

	case insts.FormatBranchReg:
		if len(operands) != 1 {
			return operandCountError(inst, 1, len(operands), num)
		}
		var err *ParseError
		inst.Rn, err = parseRegister(operands[0], num)
		return err

	case insts.FormatCompareBranch:
		if len(operands) != 2 {
			return operandCountError(inst, 2, len(operands), num)
		}
		var err *ParseError
		if inst.Rd, err = parseRegister(operands[0], num); err != nil {
			return err
		}
		return resolveLabel(inst, operands[1], num, labels)
	}

	return &ParseError{num, fmt.Sprintf("unknown instruction: %s", inst.Mnemonic)}
}

func operandCountError(inst *insts.Instruction, want, got, num int) *ParseError {
	return &ParseError{num, fmt.Sprintf("%s requires %d operands, got %d", inst.Mnemonic, want, got)}
}

// splitOperands splits a comma-separated operand list, keeping bracketed
// memory operands like [X1, #8] intact.
func splitOperands(s string) []string {
	var operands []string
	var current strings.Builder
	depth := 0

	for _, ch := range s {
		switch {
		case ch == '[':
			depth++
			current.WriteRune(ch)
		case ch == ']':
			depth--
			current.WriteRune(ch)
		case ch == ',' && depth == 0:
			if tok := strings.TrimSpace(current.String()); tok != "" {
				operands = append(operands, tok)
			}
			current.Reset()
		default:
			current.WriteRune(ch)
		}
	}
	if tok := strings.TrimSpace(current.String()); tok != "" {
		operands = append(operands, tok)
	}
	return operands
}

var regAliases = map[string]uint8{
	"XZR": 31,
	"SP":  28,
	"FP":  29,
	"LR":  30,
}

// parseRegister parses X0-X31 or one of the architectural aliases.
// Alias resolution maps to ordinary register indices; XZR's semantics live
// in the register file, not here. The numeric form is strict: one or two
// digits, no sign, no leading zero.
func parseRegister(tok string, num int) (uint8, *ParseError) {
	name := strings.ToUpper(strings.TrimSpace(tok))
	if reg, ok := regAliases[name]; ok {
		return reg, nil
	}
	if strings.HasPrefix(name, "X") && regNumPattern.MatchString(name[1:]) {
		n, _ := strconv.Atoi(name[1:])
		if n <= 31 {
			return uint8(n), nil
		}
	}
	return 0, &ParseError{num, fmt.Sprintf("invalid register: %s", tok)}
}

// parseImmediate parses a decimal immediate with an optional # prefix and
// range-checks it.
func parseImmediate(tok string, min, max int64, num int) (int64, *ParseError) {
	s := strings.TrimPrefix(strings.TrimSpace(tok), "#")
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, &ParseError{num, fmt.Sprintf("invalid immediate: %s", tok)}
	}
	if v < min || v > max {
		return 0, &ParseError{num, fmt.Sprintf(
			"immediate %d out of range [%d, %d]", v, min, max)}
	}
	return v, nil
}

// parseMoveShift parses the optional MOVZ/MOVK shift operand, e.g. "LSL #16".
func parseMoveShift(tok string, num int) (uint8, *ParseError) {
	fields := strings.Fields(tok)
	if len(fields) != 2 || strings.ToUpper(fields[0]) != "LSL" {
		return 0, &ParseError{num, fmt.Sprintf("invalid shift operand: %s", tok)}
	}
	v, err := parseImmediate(fields[1], 0, 48, num)
	if err != nil {
		return 0, err
	}
	if v%16 != 0 {
		return 0, &ParseError{num, fmt.Sprintf("shift must be 0, 16, 32, or 48, got %d", v)}
	}
	return uint8(v), nil
}

// parseMemOperand parses a bracketed memory operand: [Rn, #offset] or [Rn].
func parseMemOperand(tok string, num int) (uint8, int64, *ParseError) {
	s := strings.TrimSpace(tok)
	if !strings.HasPrefix(s, "[") || !strings.HasSuffix(s, "]") {
		return 0, 0, &ParseError{num, fmt.Sprintf("invalid memory operand: %s", tok)}
	}
	parts := strings.Split(s[1:len(s)-1], ",")
	if len(parts) < 1 || len(parts) > 2 {
		return 0, 0, &ParseError{num, fmt.Sprintf("invalid memory operand: %s", tok)}
	}

	rn, err := parseRegister(parts[0], num)
	if err != nil {
		return 0, 0, err
	}

	var offset int64
	if len(parts) == 2 {
		if offset, err = parseImmediate(parts[1], offMin, offMax, num); err != nil {
			return 0, 0, err
		}
	}
	return rn, offset, nil
}

// resolveLabel validates a label reference and resolves it against the
// pass-1 label table.
func resolveLabel(inst *insts.Instruction, tok string, num int, labels map[string]int) *ParseError {
	name := strings.TrimSpace(tok)
	if !labelRefPattern.MatchString(name) {
		return &ParseError{num, fmt.Sprintf("invalid label reference: %s", tok)}
	}
	target, ok := labels[name]
	if !ok {
		return &ParseError{num, fmt.Sprintf("undefined label: %s", name)}
	}
	inst.Label = name
	inst.Target = target
	return nil
}
