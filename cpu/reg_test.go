package cpu_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/pouchvm/cpu"
)

var _ = Describe("Cpu0 registers", func() {
	var c cpu.Cpu0

	BeforeEach(func() { c = cpu.Cpu0{} })

	It("round-trips an X register", func() {
		Expect(cpu.Write[int64](&c, cpu.X(3), -5)).To(Succeed())
		v, err := cpu.Read[int64](&c, cpu.X(3))
		Expect(err).NotTo(HaveOccurred())
		Expect(v).To(Equal(int64(-5)))
	})

	It("zero-extends a W write into its owning X register", func() {
		Expect(cpu.Write[uint64](&c, cpu.X(5), 0xffffffffffffffff)).To(Succeed())
		Expect(cpu.Write[uint32](&c, cpu.W(5), 1)).To(Succeed())
		v, err := cpu.Read[uint64](&c, cpu.X(5))
		Expect(err).NotTo(HaveOccurred())
		Expect(v).To(Equal(uint64(1)))
	})

	It("reads XZR/WZR as zero and discards writes", func() {
		Expect(cpu.Write[uint64](&c, cpu.X(cpu.ZR), 0xff)).To(Succeed())
		v, err := cpu.Read[uint64](&c, cpu.X(cpu.ZR))
		Expect(err).NotTo(HaveOccurred())
		Expect(v).To(BeZero())
	})

	It("rejects reading a float register as an integer", func() {
		Expect(cpu.Write[float64](&c, cpu.D(0), 1.5)).To(Succeed())
		_, err := cpu.Read[int64](&c, cpu.D(0))
		Expect(err).To(HaveOccurred())
	})

	It("round-trips a double through a D register", func() {
		Expect(cpu.Write[float64](&c, cpu.D(2), 3.25)).To(Succeed())
		got, err := cpu.Read[float64](&c, cpu.D(2))
		Expect(err).NotTo(HaveOccurred())
		Expect(got).To(Equal(3.25))
	})
})

var _ = Describe("Flags", func() {
	It("evaluates a sample of condition codes against a fixed NZCV", func() {
		f := cpu.Flags{N: true, Z: false, C: true, V: false}
		Expect(f.Eval(cpu.MI)).To(BeTrue())
		Expect(f.Eval(cpu.PL)).To(BeFalse())
		Expect(f.Eval(cpu.CS)).To(BeTrue())
		Expect(f.Eval(cpu.HI)).To(BeTrue())
		Expect(f.Eval(cpu.LT)).To(BeTrue())
		Expect(f.Eval(cpu.GE)).To(BeFalse())
		Expect(f.Eval(cpu.AL)).To(BeTrue())
	})

	It("computes NZCV for a signed add per ARMv8 adds semantics", func() {
		sum, flags := cpu.AddWithFlags64(^uint64(0), 1, false)
		Expect(sum).To(BeZero())
		Expect(flags.Z).To(BeTrue())
		Expect(flags.C).To(BeTrue())
	})
})
