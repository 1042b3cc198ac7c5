package timing

import (
	"math"
	"testing"
	"time"
)

func TestElapsedMonotonic(t *testing.T) {
	tm := Start()
	time.Sleep(2 * time.Millisecond)
	first := tm.Elapsed()
	second := tm.Elapsed()

	if first <= 0 || math.IsInf(first, 0) || math.IsNaN(first) {
		t.Fatalf("Elapsed = %v, want positive finite", first)
	}
	if second < first {
		t.Fatalf("Elapsed went backwards: %v then %v", first, second)
	}
	if tm.Duration() < 2*time.Millisecond {
		t.Errorf("Duration = %v, want >= 2ms", tm.Duration())
	}
}
