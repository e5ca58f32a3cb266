package costmodel

import (
	"fmt"

	"github.com/indexnet/gateway/decimal"
)

// FeePrecision is the fixed precision, in decimal digits, a CostModel's
// evaluated fee is expressed at. GRT has 18 on-chain decimals; rather than
// evaluate to a raw integer scaled by 10^18 and divide by a float (the
// lossy path the source took), a Rule's prices are Decimals already
// carrying precision 18, so Evaluate's arithmetic never leaves the typed
// Decimal domain.
const FeePrecision uint8 = 18

// Rule is a single priced pattern in a cost model: if Operation is
// non-empty it must match the query's top-level field name; if
// RequireField is non-empty the query must select that field somewhere
// (top-level or nested). A matching rule's price is BasePrice plus
// PerArgPrice times the top-level field's argument count.
type Rule struct {
	Operation    string
	RequireField string
	BasePrice    decimal.Decimal
	PerArgPrice  decimal.Decimal
}

func (r Rule) matches(ctx *Context) bool {
	if r.Operation != "" && r.Operation != ctx.Field() {
		return false
	}
	if r.RequireField != "" && !ctx.HasField(r.RequireField) {
		return false
	}
	return true
}

// CostModel is an ordered list of priced rules plus a fallback price for
// queries no rule matches, mirroring an indexer's declared per-deployment
// pricing policy.
type CostModel struct {
	Rules   []Rule
	Default decimal.Decimal
}

// Evaluate returns the fee, in GRT at FeePrecision, a CostModel charges for
// the query context describes. It resets the context's scratch state
// first, so a CostModel's rules never observe state left behind by a
// previous candidate's evaluation.
//
// An evaluation that would overflow or underflow the fixed-precision
// arithmetic - the nearest Go equivalent of the source's NaN/overflow
// guard, since Decimal has no representable NaN or negative value -
// returns an error; callers treat that the same as the disqualifying NaN
// error the selection engine reports for a candidate.
func (m *CostModel) Evaluate(ctx *Context) (decimal.Decimal, error) {
	ctx.Reset()

	for _, rule := range m.Rules {
		if !rule.matches(ctx) {
			continue
		}
		argCount, err := decimal.FromUint64(uint64(ctx.ArgCount()), FeePrecision)
		if err != nil {
			return decimal.Decimal{}, fmt.Errorf("costmodel: encoding argument count: %w", err)
		}
		perArgTotal, err := rule.PerArgPrice.Mul(argCount)
		if err != nil {
			return decimal.Decimal{}, fmt.Errorf("costmodel: evaluating per-argument price: %w", err)
		}
		total, err := rule.BasePrice.Add(perArgTotal)
		if err != nil {
			return decimal.Decimal{}, fmt.Errorf("costmodel: evaluating total price: %w", err)
		}
		return total, nil
	}
	return m.Default, nil
}
