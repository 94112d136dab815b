// Command pouchvm is the CLI front door: a cobra root command with a batch
// `run` subcommand, an interactive `repl` subcommand, and an `inspect`
// snapshot dumper.
//
// Grounded on golang-debug/cmd/viewcore's cobra-subcommand shape
// (runObjref(cmd *cobra.Command, args []string)) for the subcommand
// handler style, and ogle/program/client's proxy-RPC REPL loop for the
// overall "build one session object, drive it from a command loop" shape,
// both from the retrieved pack (golang-debug carries both
// github.com/spf13/cobra and github.com/chzyer/readline in its go.mod).
package main

import (
	"log/slog"
	"os"

	"github.com/sarchlab/pouchvm/dispatch"
	"github.com/sarchlab/pouchvm/gamestruct"
	"github.com/sarchlab/pouchvm/history"
	"github.com/sarchlab/pouchvm/memory"
	"github.com/sarchlab/pouchvm/pool"
	"github.com/sarchlab/pouchvm/proxy"
	"github.com/sarchlab/pouchvm/resolver"
	"github.com/sarchlab/pouchvm/simstate"
)

// session is the CLI's single in-process runtime: one pouch, one simulator
// state, one proxy store, one recorder, and one executor pool. Every
// script line is still parsed and dispatched from the calling goroutine —
// spec.md §5's "executor-pool parallelism is not observable to scripts"
// still holds — but the Dispatcher itself now hands each memory-touching
// command off to a worker via pool.RunOnCore, so the CLI is a real,
// single-caller client of package pool rather than a bypass of it.
type session struct {
	dispatcher *dispatch.Dispatcher
	pool       *pool.Pool
	mem        *memory.Memory
	proxyStore *proxy.Store
	gdt        *proxy.Gdt
	gdtID      proxy.ID
	recorder   *history.Recorder
	resolver   *resolver.Table
	log        *slog.Logger
}

const (
	sessionProgramStart = 0x2000000
	sessionStackStart   = 0x7fff0000
	sessionStackSize    = 0x100000
	sessionHeapStart    = 0x10000000
	sessionHeapFree     = 0x200000

	sessionPoolWorkers    = 2
	sessionPoolQueueDepth = 8
)

// newSession builds a fresh, booted runtime: an empty pouch (both item
// lists terminated by gamestruct.NullSlot) at a freshly allocated PMDM
// instance, a GDT proxy registered in the store, and simstate already
// transitioned to Running.
func newSession() (*session, error) {
	mem := memory.New(sessionProgramStart, sessionStackStart, sessionStackSize,
		sessionHeapStart, sessionHeapFree,
		memory.Config{Permission: true, HeapCheckAllocated: true})

	if _, err := mem.Heap().AllocAt(0, 0xd300); err != nil {
		return nil, err
	}

	pmdm := gamestruct.PMDMLayout{Instance: mem.Heap().RegionStart()}
	empty := gamestruct.ItemList{Head: gamestruct.NullSlot, Tail: gamestruct.NullSlot}
	if err := pmdm.List1().Store(mem, empty, memory.AnyRegion); err != nil {
		return nil, err
	}
	if err := pmdm.List2().Store(mem, empty, memory.AnyRegion); err != nil {
		return nil, err
	}

	pouch := &dispatch.PouchRuntime{Mem: mem, PMDM: pmdm, Allow: memory.AnyRegion}

	store := proxy.NewStore()
	gdt := proxy.NewGdt()
	gdtID := store.Alloc(gdt)

	state := simstate.New()
	state.Boot()

	aborted := false
	p := pool.New(sessionPoolWorkers, sessionPoolQueueDepth)
	d := &dispatch.Dispatcher{Pouch: pouch, State: state, Proxy: store, Aborted: &aborted, Pool: p}

	log := slog.New(slog.NewTextHandler(os.Stderr, nil))
	rec := history.NewRecorder(log)
	table := resolver.NewTable(nil, resolver.DefaultAliases)

	return &session{dispatcher: d, pool: p, mem: mem, proxyStore: store, gdt: gdt, gdtID: gdtID, recorder: rec, resolver: table, log: log}, nil
}

// Close frees the process handle the session's dispatcher leaked, then
// stops the session's executor pool.
func (s *session) Close() error {
	s.dispatcher.Close()
	return s.pool.Close()
}

// internName writes actor's bytes (NUL-terminated) past the PMDM instance
// on the heap's bump allocator and returns a SafeString pointing at them,
// so items the CLI constructs carry a real, readable name instead of a
// null StrTop.
func (s *session) internName(actor string) (gamestruct.SafeString, error) {
	if actor == "" {
		return gamestruct.SafeString{}, nil
	}
	bytes := append([]byte(actor), 0)
	addr, err := s.mem.Heap().Alloc(uint64(len(bytes)))
	if err != nil {
		return gamestruct.SafeString{}, err
	}
	if err := s.mem.Write(addr, bytes, memory.AnyRegion); err != nil {
		return gamestruct.SafeString{}, err
	}
	return gamestruct.SafeString{StrTop: addr}, nil
}
