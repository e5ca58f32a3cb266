package selection

import (
	"math"

	"github.com/indexnet/gateway/decimal"
)

// economicSecurityRate is the decay constant a in f(u) = 1 - exp(-a*u),
// chosen so that $500,000 of slashable value maps to a utility of
// approximately 0.9: 1 - exp(-a*500000) = 0.9  =>  a = ln(10) / 500000.
var economicSecurityRate = math.Log(10) / 500000.0

// dataFreshnessHorizon is the number of blocks behind at which the
// data_freshness utility bottoms out at zero.
const dataFreshnessHorizon = 50000.0

// performanceScale is the latency, in milliseconds, at which the
// performance utility has decayed to 1/e.
const performanceScale = 200.0

// neutralPerformance is the performance-axis prior for an indexing with no
// latency observation yet. It is a flat 0.5, not performance(0), since
// running a never-observed indexer through the decay curve at latencyMs=0
// would score it as if it had the best possible latency.
const neutralPerformance = 0.5

func economicSecurity(stake, slashingPPM, usdPerGRT decimal.Decimal) float64 {
	slashingFraction := slashingPPM.Float64() / 1e6
	slashableUSD := stake.Float64() * slashingFraction * usdPerGRT.Float64()
	return 1 - math.Exp(-economicSecurityRate*slashableUSD)
}

func priceEfficiency(fee, budget decimal.Decimal) float64 {
	if fee.IsZero() {
		return 1
	}
	if budget.IsZero() {
		return 0
	}
	v := 1 - fee.Float64()/budget.Float64()
	return clamp01(v)
}

func dataFreshness(hasLatestRequired bool, blocksBehind uint64) float64 {
	if hasLatestRequired && blocksBehind > 0 {
		return 0
	}
	v := 1 - float64(blocksBehind)/dataFreshnessHorizon
	return clamp01(v)
}

func performance(latencyMs float64) float64 {
	return math.Exp(-latencyMs / performanceScale)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// weightedGeometricMean combines the five per-axis utilities using the
// request's per-axis weights. A zero-weighted axis is excluded entirely; an
// axis scoring exactly zero drives the whole combination to zero, the same
// way a standard geometric mean treats a zero factor.
func weightedGeometricMean(w UtilityWeights, es, pe, df, perf, rep float64) float64 {
	scores := [5]float64{es, pe, df, perf, rep}
	weights := [5]float64{w.EconomicSecurity, w.PriceEfficiency, w.DataFreshness, w.Performance, w.Reputation}

	var weightedLogSum, weightSum float64
	for i, weight := range weights {
		if weight <= 0 {
			continue
		}
		if scores[i] <= 0 {
			return 0
		}
		weightedLogSum += weight * math.Log(scores[i])
		weightSum += weight
	}
	if weightSum == 0 {
		return 0
	}
	return math.Exp(weightedLogSum / weightSum)
}
