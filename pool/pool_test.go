package pool_test

import (
	"sync/atomic"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/pouchvm/handle"
	"github.com/sarchlab/pouchvm/pool"
)

var _ = Describe("Pool", func() {
	It("runs a closure on a worker and returns its result", func() {
		p := pool.New(2, 4)
		defer p.Close()

		result, err := pool.RunOnCore(p, func(cpu *pool.Cpu1) int {
			return 42
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(result).To(Equal(42))
	})

	It("runs concurrent jobs across distinct workers without data races", func() {
		p := pool.New(4, 4)
		defer p.Close()

		var counter int64
		done := make(chan struct{}, 8)
		for i := 0; i < 8; i++ {
			go func() {
				_, err := pool.RunOnCore(p, func(cpu *pool.Cpu1) struct{} {
					atomic.AddInt64(&counter, 1)
					return struct{}{}
				})
				Expect(err).NotTo(HaveOccurred())
				done <- struct{}{}
			}()
		}
		for i := 0; i < 8; i++ {
			<-done
		}
		Expect(atomic.LoadInt64(&counter)).To(Equal(int64(8)))
	})

	It("rejects new work after Close", func() {
		p := pool.New(1, 1)
		Expect(p.Close()).To(Succeed())

		_, err := pool.RunOnCore(p, func(cpu *pool.Cpu1) int { return 1 })
		Expect(err).To(HaveOccurred())
	})

	It("Close is idempotent", func() {
		p := pool.New(1, 1)
		Expect(p.Close()).To(Succeed())
		Expect(p.Close()).To(Succeed())
	})
})

var _ = Describe("Cpu1 process handle", func() {
	It("attaches, reports, and detaches a process handle", func() {
		cpu := &pool.Cpu1{}
		_, ok := cpu.Process()
		Expect(ok).To(BeFalse())

		h := handle.Leak[any]("process-tuple")
		cpu.AttachProcess(h)

		got, ok := cpu.Process()
		Expect(ok).To(BeTrue())
		Expect(got.Get()).To(Equal(any("process-tuple")))

		cpu.DetachProcess()
		_, ok = cpu.Process()
		Expect(ok).To(BeFalse())

		h.Free()
	})
})
