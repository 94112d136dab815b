package vm_test

//go:generate mockgen -write_package_comment=false -package=$GOPACKAGE -destination=mock_fetcher_test.go github.com/sarchlab/pouchvm/vm Fetcher

import (
	"errors"

	gomock "github.com/golang/mock/gomock"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/pouchvm/cpu"
	"github.com/sarchlab/pouchvm/insn"
	"github.com/sarchlab/pouchvm/memory"
	"github.com/sarchlab/pouchvm/vm"
)

var errFetchOutOfRange = errors.New("fetch: pc out of range")

// wordFetcher serves instruction words from a flat, pc-indexed program.
type wordFetcher struct {
	base  uint64
	words []uint32
}

func (f *wordFetcher) FetchWord(pc uint64) (uint32, error) {
	idx := (pc - f.base) / 4
	if int(idx) >= len(f.words) {
		return 0, errFetchOutOfRange
	}
	return f.words[idx], nil
}

func movz(rd int, imm uint32) uint32 {
	return 0xD2800000 | (imm << 5) | uint32(rd)
}

var _ = Describe("VirtualMachine", func() {
	It("runs movz;ret to completion via v_execute_to_complete", func() {
		c := &cpu.Cpu0{}
		m := memory.New(0x1000, 0x200000, 0x10000, 0x300000, 0x10000,
			memory.Config{StrictRegion: false, Permission: false, HeapCheckAllocated: false})

		fetch := &wordFetcher{base: 0x5000, words: []uint32{
			movz(0, 7),
			0xD65F03C0, // ret
		}}

		mach := &insn.Machine{Cpu: c, Mem: m, Allow: memory.AnyRegion}
		machine := &vm.VirtualMachine{Cpu: c, Machine: mach, Fetch: fetch}

		machine.VEnter(0x5000)
		Expect(machine.VExecuteToComplete()).To(Succeed())

		v, err := cpu.Read[uint64](c, cpu.X(0))
		Expect(err).NotTo(HaveOccurred())
		Expect(v).To(Equal(uint64(7)))
	})

	It("reports BlockIterationLimit once the step budget is exhausted", func() {
		c := &cpu.Cpu0{}
		c.SetPC(0x5000)
		// an infinite loop: b . (branch to self)
		selfBranch := uint32(0x14000000)
		fetch := &wordFetcher{base: 0x5000, words: []uint32{selfBranch}}
		mach := &insn.Machine{Cpu: c, Allow: memory.AnyRegion}
		machine := &vm.VirtualMachine{
			Cpu: c, Machine: mach, Fetch: fetch,
			Limits: vm.Limits{LimitBlockIteration: true, MaxIterations: 3},
		}

		err := machine.VExecuteUntil(0xdead)
		Expect(err).To(HaveOccurred())
	})

	It("drives VEnter/VExecuteToComplete against a mocked Fetcher", func() {
		mockCtrl := gomock.NewController(GinkgoT())
		fetch := NewMockFetcher(mockCtrl)
		fetch.EXPECT().FetchWord(uint64(0x5000)).Return(movz(0, 9), nil)
		fetch.EXPECT().FetchWord(uint64(0x5004)).Return(uint32(0xD65F03C0), nil) // ret

		c := &cpu.Cpu0{}
		m := memory.New(0x1000, 0x200000, 0x10000, 0x300000, 0x10000,
			memory.Config{StrictRegion: false, Permission: false, HeapCheckAllocated: false})
		mach := &insn.Machine{Cpu: c, Mem: m, Allow: memory.AnyRegion}
		machine := &vm.VirtualMachine{Cpu: c, Machine: mach, Fetch: fetch}

		machine.VEnter(0x5000)
		Expect(machine.VExecuteToComplete()).To(Succeed())

		v, err := cpu.Read[uint64](c, cpu.X(0))
		Expect(err).NotTo(HaveOccurred())
		Expect(v).To(Equal(uint64(9)))
	})
})
