package selection

import (
	"fmt"
	"sort"

	"github.com/indexnet/gateway/costmodel"
	"github.com/indexnet/gateway/decimal"
	"github.com/indexnet/gateway/gtypes"
)

// operatorKey groups indexings for the sybil penalty: same operator, same
// deployment.
type operatorKey struct {
	operator   gtypes.Address
	deployment gtypes.DeploymentId
}

type survivor struct {
	candidate Candidate
	info      IndexerInfo
	status    IndexingStatus
	fee       decimal.Decimal
}

// SelectIndexers scores candidates against view, disqualifying any that
// fail a hard precondition, then greedily selects up to selectionLimit of
// the remainder by descending utility while the cumulative fee stays within
// params.Budget. It is a pure function of its arguments: the same
// candidates, params, queryCtx contents, and view snapshot always produce
// the same result.
func SelectIndexers(
	candidates []Candidate,
	params UtilityParameters,
	queryCtx *costmodel.Context,
	view View,
	selectionLimit int,
) ([]Selection, IndexerErrors, error) {
	if queryCtx == nil {
		return nil, nil, &InputError{Message: "no query context"}
	}
	if selectionLimit < 1 || selectionLimit > SelectionLimit {
		return nil, nil, &InputError{Message: fmt.Sprintf("selection limit %d out of range 1..%d", selectionLimit, SelectionLimit)}
	}

	errs := make(IndexerErrors)
	survivors := make([]survivor, 0, len(candidates))

	for _, c := range candidates {
		status, hasStatus := view.IndexingStatus(c.Indexing)
		if hasStatus && blockRequirementUnmet(status.Block, params) {
			errs.add(MissingRequiredBlock, c.Indexing.Indexer)
			continue
		}
		if !hasStatus {
			errs.add(NoStatus, c.Indexing.Indexer)
			continue
		}
		info, hasInfo := view.Indexer(c.Indexing.Indexer)
		if !hasInfo || info.Stake.IsZero() {
			errs.add(NoStake, c.Indexing.Indexer)
			continue
		}
		if totalAllocation(status.Allocations).IsZero() {
			errs.add(NoAllocation, c.Indexing.Indexer)
			continue
		}
		fee, err := evaluateCostModel(status.CostModel, queryCtx)
		if err != nil {
			errs.add(NaN, c.Indexing.Indexer)
			continue
		}
		if fee.Cmp(params.Budget) > 0 {
			errs.add(FeeTooHigh, c.Indexing.Indexer)
			continue
		}
		survivors = append(survivors, survivor{candidate: c, info: info, status: status, fee: fee})
	}

	if len(survivors) == 0 {
		return nil, errs, nil
	}

	sybilCounts := make(map[operatorKey]int)
	for _, s := range survivors {
		key := operatorKey{operator: operatorFor(s.info, s.candidate.Indexing.Indexer), deployment: s.candidate.Indexing.Deployment}
		sybilCounts[key]++
	}

	netParams := view.NetworkParameters()

	type scored struct {
		survivor
		utility   float64
		breakdown ScoreBreakdown
	}
	scoredList := make([]scored, 0, len(survivors))
	for _, s := range survivors {
		successRate, latencyMs, hasHistory := view.Reputation(s.candidate.Indexing)

		es := economicSecurity(s.info.Stake, netParams.SlashingPercentage, netParams.USDToGRTConversion)
		pe := priceEfficiency(s.fee, params.Budget)
		var blocksBehind uint64
		if s.status.Block != nil {
			blocksBehind = s.status.Block.BlocksBehind
		}
		df := dataFreshness(params.BlockRequirements.HasLatest, blocksBehind)
		perf := neutralPerformance
		if hasHistory {
			perf = performance(latencyMs)
		}
		rep := successRate

		geo := weightedGeometricMean(params.Weights, es, pe, df, perf, rep)
		key := operatorKey{operator: operatorFor(s.info, s.candidate.Indexing.Indexer), deployment: s.candidate.Indexing.Deployment}
		sybil := 1.0 / float64(sybilCounts[key])
		utility := geo * sybil

		scoredList = append(scoredList, scored{
			survivor: s,
			utility:  utility,
			breakdown: ScoreBreakdown{
				EconomicSecurity: es,
				PriceEfficiency:  pe,
				DataFreshness:    df,
				Performance:      perf,
				Reputation:       rep,
				Sybil:            sybil,
			},
		})
	}

	sort.SliceStable(scoredList, func(i, j int) bool {
		a, b := scoredList[i], scoredList[j]
		if a.utility != b.utility {
			return a.utility > b.utility
		}
		if cmp := a.fee.Cmp(b.fee); cmp != 0 {
			return cmp < 0
		}
		return a.candidate.Indexing.Indexer.Less(b.candidate.Indexing.Indexer)
	})

	selections := make([]Selection, 0, selectionLimit)
	remaining := params.Budget
	for _, s := range scoredList {
		if len(selections) >= selectionLimit {
			break
		}
		if s.fee.Cmp(remaining) > 0 {
			continue
		}
		left, err := remaining.Sub(s.fee)
		if err != nil {
			// Cannot happen given the Cmp check above, but skip rather than
			// panic if precision mismatches ever made this fallible.
			continue
		}
		remaining = left

		var blocksBehind uint64
		if s.status.Block != nil {
			blocksBehind = s.status.Block.BlocksBehind
		}
		selections = append(selections, Selection{
			Indexing:       s.candidate.Indexing,
			URL:            s.info.URL,
			Fee:            s.fee,
			Utility:        s.utility,
			BlocksBehind:   blocksBehind,
			ScoreBreakdown: s.breakdown,
		})
	}

	return selections, errs, nil
}

func blockRequirementUnmet(status *gtypes.BlockStatus, params UtilityParameters) bool {
	var required uint64
	hasRequirement := false
	if params.BlockRequirements.Range != nil {
		required = params.BlockRequirements.Range[0]
		hasRequirement = true
	} else if params.BlockRequirements.HasLatest {
		required = params.LatestBlock
		hasRequirement = true
	}
	if !hasRequirement {
		return false
	}
	if status == nil {
		return true
	}
	if status.MinBlock != nil && *status.MinBlock > required {
		return true
	}
	return status.ReportedNumber < required
}

func totalAllocation(allocations map[gtypes.Address]decimal.Decimal) decimal.Decimal {
	precision := uint8(18)
	for _, v := range allocations {
		precision = v.Precision()
		break
	}
	total := decimal.Zero(precision)
	for _, v := range allocations {
		if sum, err := total.Add(v); err == nil {
			total = sum
		}
	}
	return total
}

func evaluateCostModel(cm *costmodel.CostModel, ctx *costmodel.Context) (decimal.Decimal, error) {
	if cm == nil {
		return decimal.Zero(costmodel.FeePrecision), nil
	}
	return cm.Evaluate(ctx)
}

func operatorFor(info IndexerInfo, addr gtypes.Address) gtypes.Address {
	var zero gtypes.Address
	if info.Operator != zero {
		return info.Operator
	}
	return addr
}
