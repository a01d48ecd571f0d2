package emu_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/legsim/emu"
)

var _ = Describe("Programs", func() {
	var e *emu.Emulator

	BeforeEach(func() {
		e = emu.NewEmulator()
	})

	run := func(source string) {
		GinkgoHelper()
		load(e, source)
		Expect(e.Run(0)).To(Equal(emu.StatusHalted))
	}

	It("should compute a three-instruction sum", func() {
		run(`
			ADDI X1, XZR, #15
			ADDI X2, XZR, #20
			ADD X3, X1, X2
		`)

		Expect(e.Reg(3)).To(Equal(uint64(35)))
		Expect(e.PC()).To(Equal(3))
	})

	It("should call and return through BL and BR", func() {
		run(`
			ADDI X1, XZR, #1
			ADDI X2, XZR, #2
			BL func
			B end
			func: ADD X3, X1, X2
			BR LR
			end: ADDI X4, XZR, #9
		`)

		Expect(e.Reg(30)).To(Equal(uint64(3)))
		Expect(e.Reg(3)).To(Equal(uint64(3)))
		Expect(e.Reg(4)).To(Equal(uint64(9)))
	})

	It("should take a signed conditional branch", func() {
		run(`
			ADDI X1, XZR, #15
			ADDI X2, XZR, #20
			SUBS X0, X1, X2
			B.LT less
			ADDI X3, XZR, #0
			B end
			less: ADDI X3, XZR, #1
			end: SUB X4, X4, X4
		`)

		Expect(e.Reg(3)).To(Equal(uint64(1)))
	})

	It("should fall through an untaken conditional branch", func() {
		run(`
			ADDI X1, XZR, #20
			SUBIS X0, X1, #15
			B.LT less
			ADDI X3, XZR, #0
			B end
			less: ADDI X3, XZR, #1
			end: SUB X4, X4, X4
		`)

		Expect(e.Reg(3)).To(Equal(uint64(0)))
	})

	It("should count down with CBNZ", func() {
		run(`
			ADDI X1, XZR, #5
			loop: ADD X2, X2, X1
			SUBI X1, X1, #1
			CBNZ X1, loop
		`)

		Expect(e.Reg(2)).To(Equal(uint64(15)))
		Expect(e.Reg(1)).To(Equal(uint64(0)))
	})

	It("should skip a block with CBZ", func() {
		run(`
			CBZ X1, skip
			ADDI X2, XZR, #1
			skip: ADDI X3, XZR, #1
		`)

		Expect(e.Reg(2)).To(Equal(uint64(0)))
		Expect(e.Reg(3)).To(Equal(uint64(1)))
	})

	It("should branch on unsigned comparisons", func() {
		run(`
			SUBI X1, XZR, #1
			CMPI X1, #1
			B.HI big
			ADDI X2, XZR, #0
			B end
			big: ADDI X2, XZR, #1
			end: SUB X0, X0, X0
		`)

		Expect(e.Reg(2)).To(Equal(uint64(1)))
	})

	It("should round-trip memory at every access width", func() {
		run(`
			ADDI X1, XZR, #1000
			MOVZ X2, #513, LSL #16
			STUR X2, [X1, #0]
			LDUR X3, [X1, #0]
			STURW X2, [X1, #8]
			LDURW X4, [X1, #8]
			STURB X2, [X1, #16]
			LDURB X5, [X1, #16]
		`)

		Expect(e.Reg(3)).To(Equal(uint64(513) << 16))
		Expect(e.Reg(4)).To(Equal(uint64(513) << 16))
		Expect(e.Reg(5)).To(Equal(uint64(0)))
	})

	It("should build a constant with MOVZ and MOVK", func() {
		run(`
			MOVZ X1, #4660, LSL #48
			MOVK X1, #22136, LSL #32
			MOVK X1, #39612, LSL #16
			MOVK X1, #57072
		`)

		Expect(e.Reg(1)).To(Equal(uint64(0x123456789ABCDEF0)))
	})

	It("should clear unaffected halfwords on MOVZ", func() {
		run(`
			MOVZ X1, #65535
			MOVK X1, #65535, LSL #16
			MOVZ X1, #1, LSL #16
		`)

		Expect(e.Reg(1)).To(Equal(uint64(1) << 16))
	})

	It("should run a stack frame through SP", func() {
		run(`
			ADDI SP, XZR, #2047
			SUBI SP, SP, #16
			ADDI X1, XZR, #42
			STUR X1, [SP, #0]
			STUR X1, [SP, #8]
			LDUR X2, [SP, #8]
			ADDI SP, SP, #16
		`)

		Expect(e.Reg(2)).To(Equal(uint64(42)))
		Expect(e.Reg(emu.RegSP)).To(Equal(uint64(2047)))
	})

	It("should multiply and divide", func() {
		run(`
			ADDI X1, XZR, #7
			SUBI X2, XZR, #3
			MUL X3, X1, X2
			DIV X4, X3, X2
			UDIV X5, X1, X2
		`)

		Expect(int64(e.Reg(3))).To(Equal(int64(-21)))
		Expect(e.Reg(4)).To(Equal(uint64(7)))
		Expect(e.Reg(5)).To(Equal(uint64(0)))
	})

	It("should compute high halves of wide products", func() {
		run(`
			SUBI X1, XZR, #1
			ADDI X2, XZR, #2
			UMULH X3, X1, X2
			SMULH X4, X1, X2
		`)

		Expect(e.Reg(3)).To(Equal(uint64(1)))
		Expect(int64(e.Reg(4))).To(Equal(int64(-1)))
	})

	It("should mask and shift", func() {
		run(`
			ADDI X1, XZR, #255
			ANDI X2, X1, #15
			ORRI X3, X2, #240
			EORI X4, X3, #255
			ADDI X5, XZR, #4
			LSL X6, X3, X5
			LSR X7, X6, X5
		`)

		Expect(e.Reg(2)).To(Equal(uint64(0x0F)))
		Expect(e.Reg(3)).To(Equal(uint64(0xFF)))
		Expect(e.Reg(4)).To(Equal(uint64(0)))
		Expect(e.Reg(6)).To(Equal(uint64(0xFF0)))
		Expect(e.Reg(7)).To(Equal(uint64(0xFF)))
	})

	It("should leave registers untouched on CMP", func() {
		run(`
			ADDI X1, XZR, #9
			ADDI X2, XZR, #9
			CMP X1, X2
		`)

		Expect(e.Reg(1)).To(Equal(uint64(9)))
		Expect(e.Reg(2)).To(Equal(uint64(9)))
		Expect(e.Flags().Z).To(BeTrue())
		Expect(e.Flags().C).To(BeTrue())
	})

	It("should discard writes to XZR while keeping flags", func() {
		run(`
			ADDI X1, XZR, #1
			ADDS XZR, X1, X1
			ADD X2, XZR, X1
		`)

		Expect(e.Reg(31)).To(Equal(uint64(0)))
		Expect(e.Reg(2)).To(Equal(uint64(1)))
		Expect(e.Flags().Z).To(BeFalse())
	})

	It("should sum an in-memory array", func() {
		run(`
			ADDI X1, XZR, #512
			ADDI X2, XZR, #10
			STUR X2, [X1, #0]
			ADDI X2, XZR, #20
			STUR X2, [X1, #8]
			ADDI X2, XZR, #30
			STUR X2, [X1, #16]
			ADDI X3, XZR, #3
			loop: LDUR X4, [X1, #0]
			ADD X5, X5, X4
			ADDI X1, X1, #8
			SUBI X3, X3, #1
			CBNZ X3, loop
		`)

		Expect(e.Reg(5)).To(Equal(uint64(60)))
	})
})
