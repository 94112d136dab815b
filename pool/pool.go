// Package pool implements the bounded executor pool that owns the guest
// CPUs: each worker runs closures handed to it through a queue, one job at
// a time, and the pool's Run helper turns that into a Future-shaped
// blocking call for the dispatcher.
//
// Grounded on samples/*/main.go's atexit.Register(cleanup) shutdown idiom
// (github.com/tebeka/atexit), generalized from "one driver, register
// cleanup, run to completion" to "N workers, each registered for cleanup,
// joined on Close".
package pool

import (
	"errors"
	"fmt"
	"sync"

	"github.com/tebeka/atexit"

	"github.com/sarchlab/pouchvm/handle"
)

// job is a unit of work a worker executes against its owned Cpu1. It is not
// generic: RunOnCore[T] captures the typed result inside run.
type job struct {
	run  func()
	done chan struct{}
}

// Worker is one pool thread owning a Cpu1 (see Cpu1 below): it drains jobs
// from its bounded queue one at a time.
type Worker struct {
	id      int
	cpu     *Cpu1
	queue   chan job
	quit    chan struct{}
	wg      sync.WaitGroup
	mu      sync.Mutex
	busy    bool
	lastUse int64 // monotonic counter, not wall time — see Pool.seq
}

func newWorker(id int, queueDepth int, cpu *Cpu1) *Worker {
	w := &Worker{id: id, cpu: cpu, queue: make(chan job, queueDepth), quit: make(chan struct{})}
	w.wg.Add(1)
	go w.loop()
	return w
}

func (w *Worker) loop() {
	defer w.wg.Done()
	for {
		select {
		case j := <-w.queue:
			w.mu.Lock()
			w.busy = true
			w.mu.Unlock()
			j.run()
			close(j.done)
			w.mu.Lock()
			w.busy = false
			w.mu.Unlock()
		case <-w.quit:
			return
		}
	}
}

func (w *Worker) idle() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return !w.busy
}

func (w *Worker) stop() {
	close(w.quit)
	w.wg.Wait()
}

// Cpu1 is a worker's owned register file + processor core, per spec.md
// §4.7 ("Each worker owns a Cpu1"). The simulator's actual AArch64 register
// file (package cpu) and execution driver (package vm) are embedded here
// rather than reimplemented; Cpu1 is the pool's handle to them.
type Cpu1 struct {
	mu sync.Mutex
	// VM is nil until a caller attaches one (boot.Load + vm.New); pool
	// itself is VM-agnostic so it can be unit tested without a guest
	// image.
	VM any

	// process holds the (env, memory, proxies) tuple's reference-counted
	// handle, per spec.md §5: "writes go through an exclusive handle
	// produced by the dispatcher before dispatching work." A worker only
	// ever holds the handle while it owns the Cpu1's lock, so the
	// dispatcher can safely treat AttachProcess/DetachProcess as handing
	// off exclusive access for the duration of one RunOnCore call.
	process *handle.Handle[any]
}

// Lock/Unlock let a scheduled closure safely use the Cpu1's VM field; the
// pool guarantees at most one job runs per worker at a time, but a VM may
// be shared across a save/reload boundary so the explicit lock stays
// cheap insurance.
func (c *Cpu1) Lock()   { c.mu.Lock() }
func (c *Cpu1) Unlock() { c.mu.Unlock() }

// AttachProcess installs the process-tuple handle a dispatched job should
// use for the duration of its run. Callers must hold the Cpu1 lock (i.e.
// call this from inside the closure passed to RunOnCore).
func (c *Cpu1) AttachProcess(h handle.Handle[any]) {
	c.process = &h
}

// Process returns the currently attached process handle, or false if none
// is attached.
func (c *Cpu1) Process() (handle.Handle[any], bool) {
	if c.process == nil {
		return handle.Handle[any]{}, false
	}
	return *c.process, true
}

// DetachProcess clears the attached handle without freeing it; the caller
// remains responsible for the matching Free, per the leak/add_ref/free
// contract in package handle.
func (c *Cpu1) DetachProcess() {
	c.process = nil
}

// ErrJoin wraps one or more worker join failures, using errors.Join so all
// of them surface together.
var ErrJoin = errors.New("pool: one or more workers failed to join")

// Pool is the fixed-size worker pool spec.md §4.7 describes: "There is
// exactly one active job per worker; the scheduler picks the
// least-recently-used idle worker."
type Pool struct {
	workers []*Worker
	mu      sync.Mutex
	seq     int64
	closed  bool
}

// New starts n workers, each with its own Cpu1 and a queue of the given
// depth, and registers the pool for atexit cleanup.
func New(n int, queueDepth int) *Pool {
	if n <= 0 {
		n = 1
	}
	p := &Pool{}
	for i := 0; i < n; i++ {
		p.workers = append(p.workers, newWorker(i, queueDepth, &Cpu1{}))
	}
	atexit.Register(func() { _ = p.Close() })
	return p
}

// pickWorker returns the least-recently-used idle worker, or the first
// worker if none are currently idle (the job then queues behind whatever
// it's running).
func (p *Pool) pickWorker() *Worker {
	var best *Worker
	for _, w := range p.workers {
		if !w.idle() {
			continue
		}
		if best == nil || w.lastUse < best.lastUse {
			best = w
		}
	}
	if best == nil {
		best = p.workers[0]
	}
	return best
}

// RunOnCore schedules fn on the least-recently-used idle worker and blocks
// until it completes, returning fn's result. This is run_on_core[T] from
// spec.md §4.7, expressed as a blocking call since Go's goroutines make a
// separate Future type unnecessary — callers that want concurrency launch
// their own goroutine around RunOnCore.
func RunOnCore[T any](p *Pool, fn func(cpu *Cpu1) T) (T, error) {
	var zero T
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return zero, fmt.Errorf("pool: closed")
	}
	w := p.pickWorker()
	p.seq++
	w.lastUse = p.seq
	p.mu.Unlock()

	var result T
	done := make(chan struct{})
	w.queue <- job{run: func() {
		w.cpu.Lock()
		defer w.cpu.Unlock()
		result = fn(w.cpu)
	}, done: done}
	<-done
	return result, nil
}

// Close stops every worker, joining them all and returning ErrJoin (wrapped
// with errors.Join over each failure) if stopping any worker panicked.
// Safe to call more than once.
func (p *Pool) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	workers := p.workers
	p.mu.Unlock()

	var errs []error
	for _, w := range workers {
		if err := stopWorker(w); err != nil {
			errs = append(errs, fmt.Errorf("worker %d: %w", w.id, err))
		}
	}
	if len(errs) > 0 {
		return errors.Join(append([]error{ErrJoin}, errs...)...)
	}
	return nil
}

func stopWorker(w *Worker) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	w.stop()
	return nil
}
