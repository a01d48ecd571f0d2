// Package asm provides the LEGv8 assembly front end.
package asm

import (
	"fmt"
	"strings"
)

// ParseError describes a single problem in the assembly source, attributed
// to its 1-based line number.
type ParseError struct {
	Line    int
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Message)
}

// ErrorList collects every parse error found in a source text. The list is
// ordered by line number; the first entry is the first error encountered.
type ErrorList []*ParseError

func (l ErrorList) Error() string {
	msgs := make([]string, len(l))
	for i, e := range l {
		msgs[i] = e.Error()
	}
	return strings.Join(msgs, "\n")
}

func (l ErrorList) add(line int, format string, args ...interface{}) ErrorList {
	return append(l, &ParseError{Line: line, Message: fmt.Sprintf(format, args...)})
}

// err returns the list as an error, or nil if it is empty.
func (l ErrorList) err() error {
	if len(l) == 0 {
		return nil
	}
	return l
}
