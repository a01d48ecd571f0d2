package main

import (
	"fmt"
	"os"

	"golang.org/x/term"

	"github.com/sarchlab/legsim/asm"
	"github.com/sarchlab/legsim/emu"
)

// runInteractive executes the program one instruction per keypress.
// Space or enter steps, r prints the register file, q quits early.
func runInteractive(e *emu.Emulator, prog *asm.Program) (emu.Status, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return emu.StatusError, fmt.Errorf("-step requires a terminal on stdin")
	}

	// Raw mode so single keypresses arrive without line buffering.
	oldState, err := term.MakeRaw(fd)
	if err != nil {
		return emu.StatusError, fmt.Errorf("failed to set raw mode: %v", err)
	}
	defer func() {
		_ = term.Restore(fd, oldState)
	}()

	fmt.Printf("space/enter: step  r: registers  q: quit\r\n")

	buf := make([]byte, 1)
	for e.Status() == emu.StatusReady {
		// Past the last instruction the engine is still Ready; the next
		// Step takes the halt transition without executing anything.
		if e.PC() >= len(prog.Insts) {
			e.Step()
			continue
		}
		inst := prog.Insts[e.PC()]
		fmt.Printf("[%4d] %s\r\n", e.PC(), inst.Text)

		for {
			if _, err := os.Stdin.Read(buf); err != nil {
				return e.Status(), fmt.Errorf("failed to read stdin: %v", err)
			}
			key := buf[0]
			if key == ' ' || key == '\r' || key == '\n' {
				break
			}
			switch key {
			case 'r':
				regs := e.Registers()
				for i := 0; i < len(regs); i += 4 {
					for j := i; j < i+4; j++ {
						fmt.Printf("X%-2d = %016X  ", j, regs[j])
					}
					fmt.Printf("\r\n")
				}
			case 'q', 3: // q or ctrl-C
				return e.Status(), nil
			}
		}

		e.Step()
	}

	if execErr := e.Err(); execErr != nil {
		fmt.Printf("emulation error: %v\r\n", execErr)
	}
	return e.Status(), nil
}
