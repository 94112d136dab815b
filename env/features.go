package env

import "sync"

// Feature is a boot-time boolean toggle altering emulator strictness or
// tracing. Features are immutable once the FeatureSet is initialized.
type Feature int

const (
	FeatureMemStrictRegion Feature = iota
	FeatureMemPermission
	FeatureMemHeapCheckAllocated
	FeatureAllowPrivileged
	FeatureMemoryAlignment
	FeatureMemoryFaults
	FeatureDivideByZero
	FeatureIntegerBounds
	FeatureMemoryDump
	FeatureCheckStackFrames
	FeatureCheckReturnAddress
	FeatureProcStrictReplaceHook
	FeatureLimitedBlockCount
	FeatureLimitedBlockIteration
	FeatureTraceRegister
	FeatureTraceMemory
	FeatureTraceCall

	featureCount
)

var featureNames = [...]string{
	FeatureMemStrictRegion:       "mem-strict-region",
	FeatureMemPermission:         "mem-permission",
	FeatureMemHeapCheckAllocated: "mem-heap-check-allocated",
	FeatureAllowPrivileged:       "allow-privileged",
	FeatureMemoryAlignment:       "memory-alignment",
	FeatureMemoryFaults:          "memory-faults",
	FeatureDivideByZero:          "divide-by-zero",
	FeatureIntegerBounds:         "integer-bounds",
	FeatureMemoryDump:            "memory-dump",
	FeatureCheckStackFrames:      "check-stack-frames",
	FeatureCheckReturnAddress:    "check-return-address",
	FeatureProcStrictReplaceHook: "proc-strict-replace-hook",
	FeatureLimitedBlockCount:     "limited-block-count",
	FeatureLimitedBlockIteration: "limited-block-iteration",
	FeatureTraceRegister:         "trace-register",
	FeatureTraceMemory:           "trace-memory",
	FeatureTraceCall:             "trace-call",
}

func (f Feature) String() string {
	if int(f) >= 0 && int(f) < len(featureNames) {
		return featureNames[f]
	}
	return "feature(?)"
}

// defaultOn lists the features that are enabled unless the caller overrides
// them explicitly. Matches spec.md §6.
var defaultOn = map[Feature]bool{
	FeatureMemStrictRegion:       true,
	FeatureMemPermission:         true,
	FeatureMemHeapCheckAllocated: true,
	FeatureDivideByZero:          true,
}

// FeatureSet is a boot-time-initialized, thereafter read-only bitset. Reads
// are lock-free; InitFeatures is expected to run once before any other
// goroutine observes the set.
type FeatureSet struct {
	once sync.Once
	bits uint64
}

// InitFeatures initializes the set from an explicit on/off overlay on top of
// the defaults. Calling it more than once is a programmer error and panics,
// matching the teacher's builder pattern of "configure once, then use".
func (fs *FeatureSet) InitFeatures(overrides map[Feature]bool) {
	initialized := false
	fs.once.Do(func() {
		initialized = true
		var bits uint64
		for f, on := range defaultOn {
			if on {
				bits |= 1 << uint(f)
			}
		}
		for f, on := range overrides {
			if on {
				bits |= 1 << uint(f)
			} else {
				bits &^= 1 << uint(f)
			}
		}
		fs.bits = bits
	})
	if !initialized {
		panic("env: FeatureSet already initialized")
	}
}

// IsFeatureEnabled reports whether f is set. Safe for concurrent use once
// InitFeatures has returned; the bitset itself never changes afterward.
func (fs *FeatureSet) IsFeatureEnabled(f Feature) bool {
	return fs.bits&(1<<uint(f)) != 0
}
