package selection

import (
	"math/rand"
	"testing"

	"github.com/davecgh/go-spew/spew"

	"github.com/indexnet/gateway/costmodel"
	"github.com/indexnet/gateway/decimal"
	"github.com/indexnet/gateway/gtypes"
)

// topology is one randomized world: a handful of indexers, each optionally
// indexing a handful of deployments, with randomized stake, allocation,
// reported block, and price.
type topology struct {
	deployments []gtypes.DeploymentId
	indexers    []gtypes.Address
	view        *fakeView
	// present[d][i] is the IndexingStatus the world gives indexer i on
	// deployment d, or nil if that indexer does not index that deployment.
	present map[gtypes.DeploymentId]map[gtypes.Address]IndexingStatus
}

func randomTopology(rng *rand.Rand) topology {
	numDeployments := rng.Intn(4) // 0-3
	numIndexers := rng.Intn(4)    // 0-3

	top := topology{
		view:    newFakeView(),
		present: make(map[gtypes.DeploymentId]map[gtypes.Address]IndexingStatus),
	}
	for d := 0; d < numDeployments; d++ {
		top.deployments = append(top.deployments, deployment(byte(d+1)))
	}
	for i := 0; i < numIndexers; i++ {
		top.indexers = append(top.indexers, addr(byte(i+1)))
	}

	for _, ix := range top.indexers {
		stake := decimal.Zero(18)
		if rng.Intn(5) != 0 { // 4/5 chance of nonzero stake
			stake = decimal.MustParse("100", 18)
		}
		top.view.infos[ix] = IndexerInfo{URL: "http://" + ix.String(), Stake: stake}
	}

	// 0-5 total indexings across the (indexer, deployment) grid.
	maxIndexings := 5
	count := 0
	for _, dep := range top.deployments {
		top.present[dep] = make(map[gtypes.Address]IndexingStatus)
		for _, ix := range top.indexers {
			if count >= maxIndexings || rng.Intn(2) == 0 {
				continue
			}
			count++
			allocations := map[gtypes.Address]decimal.Decimal{}
			if rng.Intn(5) != 0 {
				allocations[addr(0xAA)] = decimal.MustParse("1", 18)
			}
			var block *gtypes.BlockStatus
			if rng.Intn(2) == 0 {
				reported := uint64(rng.Intn(6)) // 0-5
				block = &gtypes.BlockStatus{ReportedNumber: reported}
			}
			priceOptions := []string{"0.00005", "0.0001", "0.0005", "0.01"}
			status := IndexingStatus{
				Allocations: allocations,
				CostModel:   &costmodel.CostModel{Default: decimal.MustParse(priceOptions[rng.Intn(len(priceOptions))], costmodel.FeePrecision)},
				Block:       block,
			}
			top.present[dep][ix] = status
			top.view.statuses[Indexing{Indexer: ix, Deployment: dep}] = status
			top.view.reputations[Indexing{Indexer: ix, Deployment: dep}] = [2]float64{0.5 + rng.Float64()/2, rng.Float64() * 200}
		}
	}
	return top
}

// oracle independently computes the expected disqualification for one
// candidate, applying the fixed predicate precedence
// MissingRequiredBlock -> NoStatus -> NoStake -> NoAllocation -> FeeTooHigh
// directly against the topology, without calling any of select.go's
// helpers.
func oracleError(top topology, dep gtypes.DeploymentId, ix gtypes.Address, params UtilityParameters) (IndexerError, bool) {
	status, hasStatus := top.present[dep][ix]

	if hasStatus && params.BlockRequirements.Range != nil {
		required := params.BlockRequirements.Range[0]
		reported := uint64(0)
		if status.Block != nil {
			reported = status.Block.ReportedNumber
		} else {
			return MissingRequiredBlock, true
		}
		if reported < required {
			return MissingRequiredBlock, true
		}
	}
	if !hasStatus {
		return NoStatus, true
	}

	info, hasInfo := top.view.infos[ix]
	if !hasInfo || info.Stake.IsZero() {
		return NoStake, true
	}

	sum := decimal.Zero(18)
	for _, v := range status.Allocations {
		sum, _ = sum.Add(v)
	}
	if sum.IsZero() {
		return NoAllocation, true
	}

	fee := status.CostModel.Default
	if fee.Cmp(params.Budget) > 0 {
		return FeeTooHigh, true
	}
	return 0, false
}

func TestFuzzSelectionMatchesOracle(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	ctx, err := costmodel.NewContext("{ entities { id } }")
	if err != nil {
		t.Fatalf("NewContext: %v", err)
	}

	const trials = 150
	for trial := 0; trial < trials; trial++ {
		top := randomTopology(rng)
		if len(top.deployments) == 0 {
			continue
		}
		dep := top.deployments[rng.Intn(len(top.deployments))]

		params := defaultParams("0.0002")
		if rng.Intn(2) == 0 {
			hi := uint64(rng.Intn(6))
			params.BlockRequirements.Range = &[2]uint64{hi, hi}
		}

		var candidates []Candidate
		for _, ix := range top.indexers {
			candidates = append(candidates, Candidate{Indexing: Indexing{Indexer: ix, Deployment: dep}})
		}

		sel, errs, err := SelectIndexers(candidates, params, ctx, top.view, SelectionLimit)
		if err != nil {
			t.Fatalf("trial %d: SelectIndexers: %v", trial, err)
		}

		anyErrorFree := false
		for _, ix := range top.indexers {
			wantErr, wantDisqualified := oracleError(top, dep, ix, params)
			gotDisqualified := false
			var gotErr IndexerError
			for kind := NoStatus; kind <= NaN; kind++ {
				if errs.Has(kind, ix) {
					gotDisqualified = true
					gotErr = kind
					break
				}
			}

			if !wantDisqualified {
				anyErrorFree = true
				if gotDisqualified {
					t.Errorf("trial %d indexer %v: oracle says no disqualification, got %v\ntopology: %s", trial, ix, gotErr, spew.Sdump(top))
				}
				continue
			}
			if !gotDisqualified {
				// The implementation may still have filtered this indexer
				// silently if fee evaluation failed in a way the oracle
				// (which reads the flat Default price directly) cannot
				// see; with the fixed price lists used here that never
				// happens, so treat this as a genuine mismatch.
				t.Errorf("trial %d indexer %v: oracle expected %v, implementation disqualified it for nothing\ntopology: %s", trial, ix, wantErr, spew.Sdump(top))
				continue
			}
			if gotErr != wantErr {
				t.Errorf("trial %d indexer %v: oracle expected %v, got %v\ntopology: %s", trial, ix, wantErr, gotErr, spew.Sdump(top))
			}
		}

		if anyErrorFree && len(sel) == 0 {
			t.Errorf("trial %d: an error-free indexer exists but selection is empty", trial)
		}
		if len(sel) > SelectionLimit {
			t.Errorf("trial %d: len(sel) = %d exceeds SelectionLimit %d", trial, len(sel), SelectionLimit)
		}
		total := decimal.Zero(costmodel.FeePrecision)
		for _, s := range sel {
			total, _ = total.Add(s.Fee)
		}
		if total.Cmp(params.Budget) > 0 {
			t.Errorf("trial %d: total selected fee %s exceeds budget %s", trial, total, params.Budget)
		}
	}
}
