// Package selection scores candidate indexers on several utility axes and
// greedily picks the best set under a fee budget. SelectIndexers is a pure
// function of its arguments: given the same snapshot, candidates, and
// parameters, it always returns the same result.
package selection

import (
	"fmt"

	"github.com/indexnet/gateway/costmodel"
	"github.com/indexnet/gateway/decimal"
	"github.com/indexnet/gateway/gtypes"
)

// SelectionLimit is the hard ceiling on how many indexers a single call to
// SelectIndexers may return, regardless of the caller-supplied limit.
const SelectionLimit = 5

// Indexing identifies one indexer's service of one deployment.
type Indexing struct {
	Indexer    gtypes.Address
	Deployment gtypes.DeploymentId
}

// IndexerInfo is the shared, immutable-once-published information about an
// indexer address.
type IndexerInfo struct {
	URL   string
	Stake decimal.Decimal
	// Operator identifies the entity controlling this indexer address, for
	// sybil-penalty grouping. The zero value means "unknown", in which case
	// the indexer's own address stands in for its operator - an
	// approximation, since a real deployment may run several indexer
	// addresses under one operator, but the gateway has no independent
	// operator registry in scope.
	Operator gtypes.Address
}

// IndexingStatus is the per-Indexing state the observation actor tracks.
type IndexingStatus struct {
	Allocations map[gtypes.Address]decimal.Decimal
	CostModel   *costmodel.CostModel
	Block       *gtypes.BlockStatus
}

// NetworkParameters are the global inputs to the economic-security axis.
type NetworkParameters struct {
	USDToGRTConversion  decimal.Decimal
	SlashingPercentage  decimal.Decimal // parts-per-million
}

// Candidate is one indexing the selection engine should consider.
type Candidate struct {
	Indexing       Indexing
	VersionsBehind uint8
}

// BlockRequirements describes what block range, if any, a request's
// indexers must have reached.
type BlockRequirements struct {
	// Range, when non-nil, holds [lowest, highest] required block numbers.
	// Only the lowest bound is currently load-bearing for disqualification.
	Range      *[2]uint64
	HasLatest bool
}

// UtilityWeights are the per-axis weights a weighted geometric mean
// combines utilities with. A zero weight excludes that axis from the
// combination entirely.
type UtilityWeights struct {
	EconomicSecurity float64
	PriceEfficiency  float64
	DataFreshness    float64
	Performance      float64
	Reputation       float64
}

// UtilityParameters are the per-request knobs the selection engine scores
// candidates against.
type UtilityParameters struct {
	Budget            decimal.Decimal
	BlockRequirements BlockRequirements
	LatestBlock       uint64
	Weights           UtilityWeights
}

// ScoreBreakdown records the five per-axis utilities and the sybil factor
// that combined to produce a Selection's Utility, for telemetry.
type ScoreBreakdown struct {
	EconomicSecurity float64
	PriceEfficiency  float64
	DataFreshness    float64
	Performance      float64
	Reputation       float64
	Sybil            float64
}

// Selection is one chosen indexer for a query.
type Selection struct {
	Indexing       Indexing
	URL            string
	Fee            decimal.Decimal
	Utility        float64
	BlocksBehind   uint64
	ScoreBreakdown ScoreBreakdown
}

// IndexerError enumerates the reasons a candidate can be disqualified from
// selection. The zero value is not a valid error - always compare against
// the named constants.
type IndexerError int

const (
	// NoStatus means the observation actor has no IndexingStatus for this
	// indexing at all.
	NoStatus IndexerError = iota + 1
	// NoStake means the indexer's IndexerInfo is missing or reports zero
	// stake.
	NoStake
	// NoAllocation means the indexing's total allocation size is zero.
	NoAllocation
	// MissingRequiredBlock means the indexer has not reported reaching the
	// block number the request requires.
	MissingRequiredBlock
	// FeeTooHigh means the indexer's cost model priced the query above the
	// request's budget.
	FeeTooHigh
	// NaN means the cost model could not be evaluated to a sane
	// non-negative number (the Go analogue of the source's NaN/overflow
	// guard - Decimal has no representable NaN or negative value, so any
	// arithmetic error while evaluating the cost model lands here).
	NaN
)

func (e IndexerError) String() string {
	switch e {
	case NoStatus:
		return "NoStatus"
	case NoStake:
		return "NoStake"
	case NoAllocation:
		return "NoAllocation"
	case MissingRequiredBlock:
		return "MissingRequiredBlock"
	case FeeTooHigh:
		return "FeeTooHigh"
	case NaN:
		return "NaN"
	default:
		return fmt.Sprintf("IndexerError(%d)", int(e))
	}
}

// IndexerErrors maps each disqualification reason to the set of indexer
// addresses rejected for it. An address appears under exactly one reason.
type IndexerErrors map[IndexerError]map[gtypes.Address]struct{}

func (e IndexerErrors) add(kind IndexerError, addr gtypes.Address) {
	if e[kind] == nil {
		e[kind] = make(map[gtypes.Address]struct{})
	}
	e[kind][addr] = struct{}{}
}

// Has reports whether addr was rejected for the given reason.
func (e IndexerErrors) Has(kind IndexerError, addr gtypes.Address) bool {
	_, ok := e[kind][addr]
	return ok
}

// Count returns how many addresses were rejected for the given reason.
func (e IndexerErrors) Count(kind IndexerError) int {
	return len(e[kind])
}

// Addresses returns every address rejected for the given reason, in no
// particular order.
func (e IndexerErrors) Addresses(kind IndexerError) []gtypes.Address {
	out := make([]gtypes.Address, 0, len(e[kind]))
	for a := range e[kind] {
		out = append(out, a)
	}
	return out
}

// InputError is returned by SelectIndexers when the call itself cannot be
// serviced - malformed query context or an out-of-range selection limit -
// as distinct from a per-indexer disqualification.
type InputError struct {
	Message string
}

func (e *InputError) Error() string { return "selection: " + e.Message }

// View is the read-only snapshot the selection engine scores candidates
// against. The observation actor's published snapshot satisfies this
// interface; tests can supply a hand-built fake.
type View interface {
	Indexer(addr gtypes.Address) (IndexerInfo, bool)
	IndexingStatus(idx Indexing) (IndexingStatus, bool)
	NetworkParameters() NetworkParameters
	// Reputation returns the decayed success rate and latency-ms estimate
	// for the given indexing, using the neutral success-rate prior if none
	// has been observed yet. hasHistory reports whether an observation has
	// ever been recorded; callers must not run latencyMs through the
	// performance decay curve when it is false, since latencyMs is 0 in
	// that case and decaying it would give a brand-new indexer the best
	// possible performance score instead of a neutral one.
	Reputation(idx Indexing) (successRate float64, latencyMs float64, hasHistory bool)
}
