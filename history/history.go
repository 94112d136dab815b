// Package history captures one immutable snapshot per executed CIR step
// and lets a caller replay or diff them afterwards.
//
// Grounded on core/util.go's CycleAccumulator: that type collects a tick's
// worth of activity into one struct, flushes it as a single log record, and
// starts fresh next cycle. Step records here play the same role one layer
// up — one accumulated, flushed record per dispatcher step instead of per
// CPU tick.
package history

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sarchlab/pouchvm/view"
)

// LevelStep is the custom slog level step records are emitted at, in the
// same family as core/util.go's LevelTrace/LevelWaveform (both
// slog.LevelInfo + N).
const LevelStep slog.Level = slog.LevelInfo + 1

// Step is one immutable, per-command snapshot of externally visible state.
type Step struct {
	Index     int               `json:"index"`
	Command   string            `json:"command"`
	Warning   string            `json:"warning,omitempty"`
	Err       string            `json:"error,omitempty"`
	Pouch     view.PouchList    `json:"pouch"`
	Overworld view.OverworldView `json:"overworld"`
}

// Recorder accumulates Step entries in execution order. It is not
// concurrency-safe; spec.md §5's ordering guarantee means the dispatcher
// only ever appends from the single thread driving the script, same as
// CycleAccumulator is owned by a single PE goroutine.
type Recorder struct {
	steps []Step
	log   *slog.Logger
}

// NewRecorder returns an empty Recorder. A nil logger disables emission of
// the per-step slog record but still keeps the in-memory history.
func NewRecorder(log *slog.Logger) *Recorder {
	return &Recorder{log: log}
}

// Record appends a new Step built from the current pouch/overworld view
// plus the command's outcome, and — if a logger was supplied — emits it as
// a single structured log line at LevelStep, mirroring
// core/util.go's LogPEState "one flush, one log line" shape.
func (r *Recorder) Record(command string, pouch view.PouchList, overworld view.OverworldView, warning string, stepErr error) Step {
	s := Step{
		Index:     len(r.steps),
		Command:   command,
		Warning:   warning,
		Pouch:     pouch,
		Overworld: overworld,
	}
	if stepErr != nil {
		s.Err = stepErr.Error()
	}
	r.steps = append(r.steps, s)
	if r.log != nil {
		r.log.Log(context.Background(), LevelStep, "step", slog.Any("state", s))
	}
	return s
}

// Len reports how many steps have been recorded.
func (r *Recorder) Len() int {
	return len(r.steps)
}

// At returns the snapshot for a given step index.
func (r *Recorder) At(index int) (Step, error) {
	if index < 0 || index >= len(r.steps) {
		return Step{}, fmt.Errorf("history: step index %d out of range [0,%d)", index, len(r.steps))
	}
	return r.steps[index], nil
}

// All returns every recorded step, in order. The returned slice is a copy;
// callers mutating it cannot corrupt the Recorder's own history.
func (r *Recorder) All() []Step {
	out := make([]Step, len(r.steps))
	copy(out, r.steps)
	return out
}

// Last returns the most recently recorded step.
func (r *Recorder) Last() (Step, bool) {
	if len(r.steps) == 0 {
		return Step{}, false
	}
	return r.steps[len(r.steps)-1], true
}

// Diff reports the pouch slots present in b but not a, and vice versa, by
// slot index — used by the CLI to show what one script step changed.
func Diff(a, b view.PouchList) (added, removed []int32) {
	inA := make(map[int32]bool, len(a.Items))
	for _, it := range a.Items {
		inA[it.Slot] = true
	}
	inB := make(map[int32]bool, len(b.Items))
	for _, it := range b.Items {
		inB[it.Slot] = true
	}
	for _, it := range b.Items {
		if !inA[it.Slot] {
			added = append(added, it.Slot)
		}
	}
	for _, it := range a.Items {
		if !inB[it.Slot] {
			removed = append(removed, it.Slot)
		}
	}
	return added, removed
}
