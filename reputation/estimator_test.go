package reputation

import (
	"testing"
	"time"
)

func TestNeutralPriors(t *testing.T) {
	e := New()
	if got := e.SuccessRate(); got != NeutralSuccessRate {
		t.Errorf("SuccessRate() = %v, want %v", got, NeutralSuccessRate)
	}
	if got := e.LatencyMs(); got != NeutralLatencyMs {
		t.Errorf("LatencyMs() = %v, want %v", got, NeutralLatencyMs)
	}
}

func TestObserveSuccessSetsFirstSample(t *testing.T) {
	e := New()
	now := time.Now()
	e.ObserveSuccess(100*time.Millisecond, now)
	if got := e.SuccessRate(); got != 1.0 {
		t.Errorf("SuccessRate() after first success = %v, want 1.0", got)
	}
	if got := e.LatencyMs(); got != 100 {
		t.Errorf("LatencyMs() after first success = %v, want 100", got)
	}
}

func TestDecayApproachesHalfAtHalfLife(t *testing.T) {
	e := New()
	t0 := time.Now()
	e.ObserveSuccess(0, t0)
	e.ObserveFailure(t0.Add(HalfLife))
	got := e.SuccessRate()
	if got < 0.45 || got > 0.55 {
		t.Errorf("SuccessRate() after one half-life of failure = %v, want ~0.5", got)
	}
}

func TestFailureDoesNotTouchLatency(t *testing.T) {
	e := New()
	now := time.Now()
	e.ObserveSuccess(50*time.Millisecond, now)
	e.ObserveFailure(now.Add(time.Minute))
	if got := e.LatencyMs(); got != 50 {
		t.Errorf("LatencyMs() after failure = %v, want unchanged 50", got)
	}
}
