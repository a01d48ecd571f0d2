// Package main provides the entry point for legsim.
// Legsim is a LEGv8 assembly emulator.
package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/sarchlab/legsim/asm"
	"github.com/sarchlab/legsim/emu"
)

var (
	maxSteps    = flag.Uint64("steps", emu.DefaultMaxSteps, "Maximum number of instructions to execute")
	verbose     = flag.Bool("v", false, "Verbose output")
	memDump     = flag.String("mem", "", "Memory region to dump after the run, as addr:len (addr in hex)")
	interactive = flag.Bool("step", false, "Run interactively, one instruction per keypress")
)

func main() {
	flag.Parse()

	if flag.NArg() < 1 {
		fmt.Fprintf(os.Stderr, "Usage: legsim [options] <program.s>\n")
		fmt.Fprintf(os.Stderr, "\nOptions:\n")
		flag.PrintDefaults()
		os.Exit(1)
	}

	programPath := flag.Arg(0)

	source, err := os.ReadFile(programPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading program: %v\n", err)
		os.Exit(1)
	}

	prog, parseErr := asm.Parse(string(source))
	if parseErr != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", programPath, parseErr)
		os.Exit(1)
	}

	if *verbose {
		fmt.Printf("Loaded: %s\n", programPath)
		fmt.Printf("Instructions: %d\n", len(prog.Insts))
		fmt.Printf("Labels: %d\n", len(prog.Labels))
	}

	emulator := emu.NewEmulator(emu.WithMaxSteps(*maxSteps))
	emulator.Reset(prog)

	var status emu.Status
	if *interactive {
		status, err = runInteractive(emulator, prog)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	} else {
		status = emulator.Run(*maxSteps)
	}

	printRegisters(emulator)
	printFlags(emulator)
	if *memDump != "" {
		if err := printMemory(emulator, *memDump); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	}

	if *verbose {
		fmt.Printf("\nProgram: %s\n", programPath)
		fmt.Printf("Instructions executed: %d\n", emulator.InstructionCount())
	}

	if status == emu.StatusError {
		os.Exit(1)
	}
}

// printRegisters prints the full register file, four registers per row.
func printRegisters(e *emu.Emulator) {
	regs := e.Registers()
	for i := 0; i < len(regs); i += 4 {
		for j := i; j < i+4; j++ {
			fmt.Printf("X%-2d = %016X  ", j, regs[j])
		}
		fmt.Printf("\n")
	}
}

func printFlags(e *emu.Emulator) {
	flags := e.Flags()
	fmt.Printf("N=%d Z=%d C=%d V=%d  PC=%d\n",
		b2i(flags.N), b2i(flags.Z), b2i(flags.C), b2i(flags.V), e.PC())
}

// printMemory dumps a memory region given as addr:len, addr in hex.
func printMemory(e *emu.Emulator, spec string) error {
	addrStr, lenStr, ok := strings.Cut(spec, ":")
	if !ok {
		return fmt.Errorf("invalid -mem value %q, want addr:len", spec)
	}
	addr, err := strconv.ParseUint(strings.TrimPrefix(addrStr, "0x"), 16, 64)
	if err != nil {
		return fmt.Errorf("invalid -mem address %q: %v", addrStr, err)
	}
	length, err := strconv.ParseUint(lenStr, 10, 32)
	if err != nil {
		return fmt.Errorf("invalid -mem length %q: %v", lenStr, err)
	}

	data := e.ReadMemory(addr, int(length))
	for i := 0; i < len(data); i += 16 {
		fmt.Printf("%08X:", addr+uint64(i))
		for j := i; j < i+16 && j < len(data); j++ {
			fmt.Printf(" %02X", data[j])
		}
		fmt.Printf("\n")
	}
	return nil
}

func b2i(b bool) int {
	if b {
		return 1
	}
	return 0
}
