// Package reputation implements the exponentially-decayed success-rate and
// latency estimators the observation actor keeps per Indexing.
package reputation

import (
	"math"
	"time"
)

// HalfLife is the decay half-life for both estimators: an observation's
// influence on the running estimate halves every 15 minutes.
const HalfLife = 15 * time.Minute

// NeutralSuccessRate and NeutralLatencyMs are the priors the selection
// engine uses for an Indexing with no reputation history yet.
const (
	NeutralSuccessRate = 0.5
	NeutralLatencyMs   = 0.0
)

// Estimator holds the decayed success-rate and latency-ms estimates for a
// single Indexing. It is not safe for concurrent use; callers (the
// observation actor) must serialize access, same as every other piece of
// actor-owned state.
type Estimator struct {
	successRate float64
	latencyMs   float64
	lastUpdate  time.Time
	seen        bool
}

// New returns an estimator with no observation history yet.
func New() *Estimator {
	return &Estimator{}
}

// SuccessRate returns the current decayed success rate, or the neutral
// prior if no observation has been recorded.
func (e *Estimator) SuccessRate() float64 {
	if e == nil || !e.seen {
		return NeutralSuccessRate
	}
	return e.successRate
}

// LatencyMs returns the current decayed latency estimate in milliseconds,
// or the neutral prior if no observation has been recorded.
func (e *Estimator) LatencyMs() float64 {
	if e == nil || !e.seen {
		return NeutralLatencyMs
	}
	return e.latencyMs
}

// decayWeight is the fraction of the prior estimate retained after dt has
// elapsed, given the half-life decay constant.
func decayWeight(dt time.Duration) float64 {
	if dt <= 0 {
		return 1
	}
	return math.Exp(-math.Ln2 * dt.Seconds() / HalfLife.Seconds())
}

func (e *Estimator) decayToward(successSample float64, latencySample float64, now time.Time, weightLatency bool) {
	if !e.seen {
		e.successRate = successSample
		if weightLatency {
			e.latencyMs = latencySample
		}
		e.lastUpdate = now
		e.seen = true
		return
	}
	w := decayWeight(now.Sub(e.lastUpdate))
	e.successRate = e.successRate*w + successSample*(1-w)
	if weightLatency {
		e.latencyMs = e.latencyMs*w + latencySample*(1-w)
	}
	e.lastUpdate = now
}

// ObserveSuccess folds a successful query of the given duration into the
// estimator.
func (e *Estimator) ObserveSuccess(duration time.Duration, now time.Time) {
	e.decayToward(1.0, float64(duration.Milliseconds()), now, true)
}

// ObserveFailure folds a failed query attempt into the estimator. Latency
// is left untouched since a failure carries no meaningful response time.
func (e *Estimator) ObserveFailure(now time.Time) {
	e.decayToward(0.0, 0, now, false)
}
