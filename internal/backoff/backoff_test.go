package backoff

import (
	"testing"
	"time"
)

func TestExponential_Doubles(t *testing.T) {
	e := Exponential{InitialDelay: 10 * time.Millisecond, MaxDelay: time.Second}

	want := []time.Duration{10, 20, 40, 80}
	for i, w := range want {
		if got := e.NextDelay(i); got != w*time.Millisecond {
			t.Errorf("NextDelay(%d) = %v, want %v", i, got, w*time.Millisecond)
		}
	}
}

func TestExponential_CapsAtMaxDelay(t *testing.T) {
	e := Exponential{InitialDelay: time.Second, MaxDelay: 5 * time.Second}
	if got := e.NextDelay(10); got != 5*time.Second {
		t.Errorf("expected delay capped at 5s, got %v", got)
	}
}

func TestJittered_StaysWithinBounds(t *testing.T) {
	j := &Jittered{InitialDelay: 10 * time.Millisecond, MaxDelay: time.Second, JitterFactor: 0.5}
	for attempt := 0; attempt < 10; attempt++ {
		d := j.NextDelay(attempt)
		if d < 0 || d > time.Second {
			t.Fatalf("NextDelay(%d) = %v, out of bounds", attempt, d)
		}
	}
}

func TestDecorrelatedJitter_FirstAttemptIsInitialDelay(t *testing.T) {
	d := &DecorrelatedJitter{InitialDelay: 20 * time.Millisecond, MaxDelay: time.Second}
	if got := d.NextDelay(0); got != 20*time.Millisecond {
		t.Errorf("expected first delay to equal initial delay, got %v", got)
	}
}

func TestDecorrelatedJitter_StaysWithinMaxDelay(t *testing.T) {
	d := &DecorrelatedJitter{InitialDelay: 10 * time.Millisecond, MaxDelay: 100 * time.Millisecond}
	d.NextDelay(0)
	for attempt := 1; attempt < 20; attempt++ {
		delay := d.NextDelay(attempt)
		if delay > 100*time.Millisecond {
			t.Fatalf("NextDelay(%d) = %v, exceeds MaxDelay", attempt, delay)
		}
	}
}

func TestDecorrelatedJitter_ResetReturnsToInitialDelay(t *testing.T) {
	d := &DecorrelatedJitter{InitialDelay: 10 * time.Millisecond, MaxDelay: time.Second}
	d.NextDelay(0)
	d.NextDelay(1)
	d.NextDelay(2)

	d.Reset()
	if got := d.NextDelay(0); got != 10*time.Millisecond {
		t.Errorf("expected delay to reset to initial delay, got %v", got)
	}
}
