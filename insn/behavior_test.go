package insn_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/pouchvm/cpu"
	"github.com/sarchlab/pouchvm/insn"
)

var _ = Describe("Machine.Step", func() {
	var (
		c *cpu.Cpu0
		m *insn.Machine
	)

	BeforeEach(func() {
		c = &cpu.Cpu0{}
		m = &insn.Machine{Cpu: c}
	})

	It("computes adrp relative to the page-aligned pc", func() {
		c.SetPC(0x4050)
		inst := insn.Instruction{Mnemonic: insn.ADRP, Rd: 0, Rn: -1, Rm: -1, Imm: 0x1000}
		Expect(m.Step(inst)).To(Succeed())
		v, err := cpu.Read[uint64](c, cpu.X(0))
		Expect(err).NotTo(HaveOccurred())
		Expect(v).To(Equal(uint64(0x5000)))
	})

	It("executes bl: sets pc, sets LR to the fallthrough address, and pushes a frame", func() {
		c.SetPC(0x1000)
		Expect(cpu.Write[uint64](c, cpu.X(cpu.LR), 5)).To(Succeed())

		inst := insn.Instruction{Mnemonic: insn.BL, Rd: -1, Rn: -1, Rm: -1, Imm: 0x50}
		Expect(m.Step(inst)).To(Succeed())

		Expect(c.PC()).To(Equal(uint64(0x1050)))
		lr, err := cpu.Read[uint64](c, cpu.X(cpu.LR))
		Expect(err).NotTo(HaveOccurred())
		Expect(lr).To(Equal(uint64(0x1004)))
		Expect(m.Frames.Depth()).To(Equal(1))

		frames := m.Frames.Frames()
		Expect(frames[0].JumpTarget).To(Equal(uint64(0x1050)))
		Expect(frames[0].SourcePC).To(Equal(uint64(0x1000)))
	})

	It("executes csneg, selecting Rn when the condition holds", func() {
		c.SetFlags(cpu.Flags{Z: true})
		Expect(cpu.Write[int64](c, cpu.X(2), 10)).To(Succeed())
		Expect(cpu.Write[int64](c, cpu.X(3), 12)).To(Succeed())

		inst := insn.Instruction{
			Mnemonic: insn.CSNEG, Is64: true,
			Rd: 1, Rn: 2, Rm: 3, Cond: cpu.EQ,
		}
		Expect(m.Step(inst)).To(Succeed())

		v, err := cpu.Read[int64](c, cpu.X(1))
		Expect(err).NotTo(HaveOccurred())
		Expect(v).To(Equal(int64(10)))
	})

	It("executes csneg, negating Rm when the condition fails", func() {
		c.SetFlags(cpu.Flags{Z: false})
		Expect(cpu.Write[int64](c, cpu.X(2), 10)).To(Succeed())
		Expect(cpu.Write[int64](c, cpu.X(3), 12)).To(Succeed())

		inst := insn.Instruction{
			Mnemonic: insn.CSNEG, Is64: true,
			Rd: 1, Rn: 2, Rm: 3, Cond: cpu.EQ,
		}
		Expect(m.Step(inst)).To(Succeed())

		v, err := cpu.Read[int64](c, cpu.X(1))
		Expect(err).NotTo(HaveOccurred())
		Expect(v).To(Equal(int64(-12)))
	})

	It("executes fsub on doubles exactly", func() {
		Expect(cpu.Write[float64](c, cpu.D(1), 5.5)).To(Succeed())
		Expect(cpu.Write[float64](c, cpu.D(2), 2.0)).To(Succeed())

		inst := insn.Instruction{Mnemonic: insn.FSUB, Is64: true, Rd: 0, Rn: 1, Rm: 2}
		Expect(m.Step(inst)).To(Succeed())

		v, err := cpu.Read[float64](c, cpu.D(0))
		Expect(err).NotTo(HaveOccurred())
		Expect(v).To(Equal(3.5))
	})

	It("always advances pc by 4 for non-branching forms", func() {
		c.SetPC(0x2000)
		inst := insn.Instruction{Mnemonic: insn.MOV, Rd: 0, Rn: -1, Rm: -1, Imm: 0}
		Expect(m.Step(inst)).To(Succeed())
		Expect(c.PC()).To(Equal(uint64(0x2004)))
	})

	It("treats opcodes sourced from the zero register and a zero immediate as a no-op besides the pc", func() {
		c.SetPC(0x3000)
		inst := insn.Instruction{Mnemonic: insn.ADD, Is64: true, Rd: int(cpu.ZR), Rn: int(cpu.ZR), Rm: -1, Imm: 0}
		before := *c
		Expect(m.Step(inst)).To(Succeed())
		after := *c
		before.SetPC(after.PC())
		Expect(after).To(Equal(before))
	})
})
