package memory_test

import (
	"testing"

	"github.com/sarchlab/pouchvm/memory"
)

// Literal scenario 1 from spec.md §8.
func TestAlignLiteralScenario(t *testing.T) {
	if got := memory.AlignDown(0x1456, 0x1000); got != 0x1000 {
		t.Fatalf("AlignDown(0x1456, 0x1000) = 0x%x, want 0x1000", got)
	}
	if got := memory.AlignUp(0x1456, 0x1000); got != 0x2000 {
		t.Fatalf("AlignUp(0x1456, 0x1000) = 0x%x, want 0x2000", got)
	}
	if got := memory.AlignUp(0x2000, 0x1000); got != 0x2000 {
		t.Fatalf("AlignUp(0x2000, 0x1000) = 0x%x, want 0x2000", got)
	}
}

func TestAlignRoundTrip(t *testing.T) {
	cases := []uint64{0, 1, 7, 8, 9, 4095, 4096, 4097, 1 << 20}
	for _, x := range cases {
		for _, a := range []uint64{8, 16, 4096} {
			if got, want := memory.AlignUp(memory.AlignDown(x, a), a), memory.AlignDown(x, a); got != want {
				t.Errorf("AlignUp(AlignDown(%d,%d),%d) = %d, want %d", x, a, a, got, want)
			}
			if got, want := memory.AlignDown(memory.AlignUp(x, a), a), memory.AlignUp(x, a); got != want {
				t.Errorf("AlignDown(AlignUp(%d,%d),%d) = %d, want %d", x, a, a, got, want)
			}
		}
	}
}
