package asm_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/legsim/asm"
	"github.com/sarchlab/legsim/insts"
)

var _ = Describe("Assembler", func() {
	Describe("basic decoding", func() {
		It("should decode a register-register instruction", func() {
			prog, err := asm.Parse("ADD X3, X1, X2")

			Expect(err).NotTo(HaveOccurred())
			Expect(prog.Insts).To(HaveLen(1))
			inst := prog.Insts[0]
			Expect(inst.Op).To(Equal(insts.OpADD))
			Expect(inst.Rd).To(Equal(uint8(3)))
			Expect(inst.Rn).To(Equal(uint8(1)))
			Expect(inst.Rm).To(Equal(uint8(2)))
			Expect(inst.Line).To(Equal(1))
		})

		It("should decode a register-immediate instruction", func() {
			prog, err := asm.Parse("ADDI X1, XZR, #15")

			Expect(err).NotTo(HaveOccurred())
			inst := prog.Insts[0]
			Expect(inst.Op).To(Equal(insts.OpADDI))
			Expect(inst.Rn).To(Equal(uint8(31)))
			Expect(inst.Imm).To(Equal(int64(15)))
		})

		It("should accept negative immediates without a # prefix", func() {
			prog, err := asm.Parse("SUBI X1, X2, -42")

			Expect(err).NotTo(HaveOccurred())
			Expect(prog.Insts[0].Imm).To(Equal(int64(-42)))
		})

		It("should be case-insensitive on mnemonics and registers", func() {
			prog, err := asm.Parse("addi x1, xzr, #1")

			Expect(err).NotTo(HaveOccurred())
			Expect(prog.Insts[0].Op).To(Equal(insts.OpADDI))
			Expect(prog.Insts[0].Rn).To(Equal(uint8(31)))
		})

		It("should strip comments and skip blank lines", func() {
			source := `
// leading comment
ADDI X1, XZR, #1 // trailing comment

ADDI X2, XZR, #2
`
			prog, err := asm.Parse(source)

			Expect(err).NotTo(HaveOccurred())
			Expect(prog.Insts).To(HaveLen(2))
			Expect(prog.Insts[0].Line).To(Equal(3))
			Expect(prog.Insts[1].Line).To(Equal(5))
		})
	})

	Describe("register aliases", func() {
		It("should resolve SP, FP, LR, and XZR to their indices", func() {
			prog, err := asm.Parse("ADD SP, FP, LR\nADD X0, XZR, X1")

			Expect(err).NotTo(HaveOccurred())
			Expect(prog.Insts[0].Rd).To(Equal(uint8(28)))
			Expect(prog.Insts[0].Rn).To(Equal(uint8(29)))
			Expect(prog.Insts[0].Rm).To(Equal(uint8(30)))
			Expect(prog.Insts[1].Rn).To(Equal(uint8(31)))
		})
	})

	Describe("compare aliases", func() {
		It("should rewrite CMP as SUBS with an XZR destination", func() {
			prog, err := asm.Parse("CMP X1, X2")

			Expect(err).NotTo(HaveOccurred())
			inst := prog.Insts[0]
			Expect(inst.Op).To(Equal(insts.OpSUBS))
			Expect(inst.Rd).To(Equal(uint8(31)))
			Expect(inst.Rn).To(Equal(uint8(1)))
			Expect(inst.Rm).To(Equal(uint8(2)))
			Expect(inst.SetFlags).To(BeTrue())
			Expect(inst.Mnemonic).To(Equal("CMP"))
		})

		It("should rewrite CMPI as SUBIS with an XZR destination", func() {
			prog, err := asm.Parse("CMPI X1, #20")

			Expect(err).NotTo(HaveOccurred())
			inst := prog.Insts[0]
			Expect(inst.Op).To(Equal(insts.OpSUBIS))
			Expect(inst.Rd).To(Equal(uint8(31)))
			Expect(inst.Imm).To(Equal(int64(20)))
		})
	})

	Describe("wide moves", func() {
		It("should default the shift to zero", func() {
			prog, err := asm.Parse("MOVZ X1, #100")

			Expect(err).NotTo(HaveOccurred())
			Expect(prog.Insts[0].Op).To(Equal(insts.OpMOVZ))
			Expect(prog.Insts[0].Imm).To(Equal(int64(100)))
			Expect(prog.Insts[0].Shift).To(Equal(uint8(0)))
		})

		It("should accept an LSL shift operand", func() {
			prog, err := asm.Parse("MOVK X1, #255, LSL #48")

			Expect(err).NotTo(HaveOccurred())
			Expect(prog.Insts[0].Op).To(Equal(insts.OpMOVK))
			Expect(prog.Insts[0].Shift).To(Equal(uint8(48)))
		})

		It("should reject shifts that are not multiples of 16", func() {
			_, err := asm.Parse("MOVZ X1, #1, LSL #8")

			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("shift must be"))
		})
	})

	Describe("memory operands", func() {
		It("should decode a bracketed base and offset", func() {
			prog, err := asm.Parse("LDUR X1, [X2, #16]")

			Expect(err).NotTo(HaveOccurred())
			inst := prog.Insts[0]
			Expect(inst.Op).To(Equal(insts.OpLDUR))
			Expect(inst.Rd).To(Equal(uint8(1)))
			Expect(inst.Rn).To(Equal(uint8(2)))
			Expect(inst.Imm).To(Equal(int64(16)))
		})

		It("should default a missing offset to zero", func() {
			prog, err := asm.Parse("STUR X1, [SP]")

			Expect(err).NotTo(HaveOccurred())
			Expect(prog.Insts[0].Rn).To(Equal(uint8(28)))
			Expect(prog.Insts[0].Imm).To(Equal(int64(0)))
		})

		It("should accept negative offsets", func() {
			prog, err := asm.Parse("STURB X1, [X2, #-8]")

			Expect(err).NotTo(HaveOccurred())
			Expect(prog.Insts[0].Imm).To(Equal(int64(-8)))
		})

		It("should reject offsets outside the 9-bit signed range", func() {
			_, err := asm.Parse("LDUR X1, [X2, #300]")

			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("out of range"))
		})

		It("should reject unbracketed memory operands", func() {
			_, err := asm.Parse("LDUR X1, X2")

			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("invalid memory operand"))
		})
	})

	Describe("labels and branches", func() {
		It("should resolve forward references", func() {
			source := `
B end
ADDI X1, XZR, #1
end:
ADDI X2, XZR, #2
`
			prog, err := asm.Parse(source)

			Expect(err).NotTo(HaveOccurred())
			Expect(prog.Labels).To(HaveKeyWithValue("end", 2))
			Expect(prog.Insts[0].Op).To(Equal(insts.OpB))
			Expect(prog.Insts[0].Target).To(Equal(2))
		})

		It("should accept a label followed by an instruction on the same line", func() {
			prog, err := asm.Parse("loop: SUBI X1, X1, #1\nCBNZ X1, loop")

			Expect(err).NotTo(HaveOccurred())
			Expect(prog.Labels).To(HaveKeyWithValue("loop", 0))
			Expect(prog.Insts).To(HaveLen(2))
			Expect(prog.Insts[1].Op).To(Equal(insts.OpCBNZ))
			Expect(prog.Insts[1].Rd).To(Equal(uint8(1)))
			Expect(prog.Insts[1].Target).To(Equal(0))
		})

		It("should decode conditional branch mnemonics", func() {
			source := "target: B.LT target"
			prog, err := asm.Parse(source)

			Expect(err).NotTo(HaveOccurred())
			inst := prog.Insts[0]
			Expect(inst.Op).To(Equal(insts.OpBCond))
			Expect(inst.Cond).To(Equal(insts.CondLT))
			Expect(inst.Target).To(Equal(0))
		})

		It("should allow a label bound past the last instruction", func() {
			prog, err := asm.Parse("B done\ndone:")

			Expect(err).NotTo(HaveOccurred())
			Expect(prog.Insts).To(HaveLen(1))
			Expect(prog.Insts[0].Target).To(Equal(1))
		})

		It("should report duplicate labels", func() {
			_, err := asm.Parse("x:\nADD X1, X1, X1\nx:")

			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("duplicate label: x"))
		})

		It("should report undefined labels with the referencing line", func() {
			_, err := asm.Parse("ADD X1, X1, X1\nB nowhere")

			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("line 2: undefined label: nowhere"))
		})
	})

	Describe("error reporting", func() {
		It("should attribute errors to their source lines", func() {
			_, err := asm.Parse("ADD X1, X1, X1\nFOO X1, X2")

			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("line 2: unknown instruction: FOO"))
		})

		It("should collect errors from multiple lines", func() {
			_, err := asm.Parse("FOO\nBAR\nADD X1, X1, X1")

			Expect(err).To(HaveOccurred())
			errList, ok := err.(asm.ErrorList)
			Expect(ok).To(BeTrue())
			Expect(errList).To(HaveLen(2))
			Expect(errList[0].Line).To(Equal(1))
			Expect(errList[1].Line).To(Equal(2))
		})

		It("should reject wrong operand counts", func() {
			_, err := asm.Parse("ADD X1, X2")

			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("requires 3 operands"))
		})

		It("should reject malformed registers", func() {
			_, err := asm.Parse("ADD X1, X2, X99")

			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("invalid register: X99"))
		})

		It("should reject register numbers with leading zeros or signs", func() {
			for _, bad := range []string{"X031", "X+1", "X-1", "X01"} {
				_, err := asm.Parse("ADD X1, X2, " + bad)

				Expect(err).To(HaveOccurred(), "register %s", bad)
				Expect(err.Error()).To(ContainSubstring("invalid register: "+bad), "register %s", bad)
			}
		})

		It("should reject out-of-range ALU immediates", func() {
			_, err := asm.Parse("ADDI X1, X2, #4096")

			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("out of range"))
		})

		It("should reject malformed immediates", func() {
			_, err := asm.Parse("ADDI X1, X2, #abc")

			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("invalid immediate"))
		})

		It("should not return a program when any line fails", func() {
			prog, err := asm.Parse("ADD X1, X1, X1\nFOO")

			Expect(err).To(HaveOccurred())
			Expect(prog).To(BeNil())
		})
	})
})
