package costmodel

import (
	"testing"

	"github.com/holiman/uint256"

	"github.com/indexnet/gateway/decimal"
)

func mustContext(t *testing.T, query string) *Context {
	t.Helper()
	ctx, err := NewContext(query)
	if err != nil {
		t.Fatalf("NewContext(%q): %v", query, err)
	}
	return ctx
}

func TestEvaluateDefault(t *testing.T) {
	m := &CostModel{Default: decimal.MustParse("0.0001", FeePrecision)}
	ctx := mustContext(t, "{ entities { id } }")

	fee, err := m.Evaluate(ctx)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if fee.String() != "0.0001" {
		t.Errorf("fee = %s, want 0.0001", fee)
	}
}

func TestEvaluateMatchingRuleWithPerArgPrice(t *testing.T) {
	m := &CostModel{
		Rules: []Rule{
			{
				Operation:   "transactions",
				BasePrice:   decimal.MustParse("0.01", FeePrecision),
				PerArgPrice: decimal.MustParse("0.001", FeePrecision),
			},
		},
		Default: decimal.MustParse("0.0001", FeePrecision),
	}
	ctx := mustContext(t, "{ transactions(first: 10, skip: 5) { id } }")

	fee, err := m.Evaluate(ctx)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	// 0.01 + 2*0.001 = 0.012
	if fee.String() != "0.012" {
		t.Errorf("fee = %s, want 0.012", fee)
	}
}

func TestEvaluateRequireFieldRule(t *testing.T) {
	m := &CostModel{
		Rules: []Rule{
			{RequireField: "attestations", BasePrice: decimal.MustParse("1", FeePrecision)},
		},
		Default: decimal.MustParse("0.01", FeePrecision),
	}

	withField := mustContext(t, "{ entities { id attestations } }")
	fee, err := m.Evaluate(withField)
	if err != nil || fee.String() != "1" {
		t.Fatalf("fee = %s, err = %v, want 1", fee, err)
	}

	withoutField := mustContext(t, "{ entities { id } }")
	fee, err = m.Evaluate(withoutField)
	if err != nil || fee.String() != "0.01" {
		t.Fatalf("fee = %s, err = %v, want 0.01 (fallback)", fee, err)
	}
}

func TestEvaluateOverflowDisqualifies(t *testing.T) {
	max := decimal.FromRaw(new(uint256.Int).Not(uint256.NewInt(0)), FeePrecision)
	m := &CostModel{
		Rules: []Rule{
			{Operation: "entities", BasePrice: max, PerArgPrice: max},
		},
	}
	ctx := mustContext(t, "{ entities(first: 1) { id } }")

	if _, err := m.Evaluate(ctx); err == nil {
		t.Error("Evaluate() with an overflowing rule expected an error, got none")
	}
}

func TestEvaluateResetsScratchBetweenCandidates(t *testing.T) {
	m := &CostModel{Default: decimal.MustParse("0.01", FeePrecision)}
	ctx := mustContext(t, "{ entities { id } }")
	ctx.SetScratch("left over", "from a previous candidate")

	if _, err := m.Evaluate(ctx); err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if _, ok := ctx.Scratch("left over"); ok {
		t.Error("Evaluate did not reset scratch state before running")
	}
}
