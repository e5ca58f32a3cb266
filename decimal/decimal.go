// Package decimal implements positive fixed-precision decimal arithmetic
// over a 256-bit unsigned integer, used throughout the gateway for fees,
// stakes, and scores. A Decimal's value is internal * 10^-precision.
//
// Rust's source used a const generic parameter (UDecimal<const P: u8>) to
// carry the precision at the type level; Go has no equivalent of const
// generics, so precision is carried as a runtime field instead, the same
// way shopspring/decimal and most Go decimal libraries do it. Callers that
// need a fixed precision (e.g. "GRT has 18 decimals") should construct
// values through a helper that names the precision, rather than relying on
// the type system to enforce it.
package decimal

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/holiman/uint256"
)

// Decimal is an arbitrary-precision non-negative fixed-point number:
// value = internal * 10^-precision.
type Decimal struct {
	internal  *uint256.Int
	precision uint8
}

// FromRaw builds a Decimal directly from its internal integer
// representation (value = internal * 10^-precision). It is exported for
// callers that hold a raw scaled integer (such as the cost-model tests'
// maximum representable value) and need to wrap it without a string
// round-trip.
func FromRaw(internal *uint256.Int, precision uint8) Decimal {
	return Decimal{internal: new(uint256.Int).Set(internal), precision: precision}
}

// Zero returns the zero value at the given precision.
func Zero(precision uint8) Decimal {
	return Decimal{internal: uint256.NewInt(0), precision: precision}
}

// FromUint64 builds a Decimal representing the integer n at the given
// precision (e.g. FromUint64(5, 6) == "5.000000").
func FromUint64(n uint64, precision uint8) (Decimal, error) {
	scale := new(uint256.Int).Exp(uint256.NewInt(10), uint256.NewInt(uint64(precision)))
	internal, overflow := new(uint256.Int).MulOverflow(uint256.NewInt(n), scale)
	if overflow {
		return Decimal{}, fmt.Errorf("decimal: overflow converting %d to precision %d", n, precision)
	}
	return Decimal{internal: internal, precision: precision}, nil
}

// Parse parses an ASCII decimal string (e.g. "123456789.123456789") into a
// Decimal at the given precision, truncating any fractional digits beyond
// precision (it does not round).
func Parse(s string, precision uint8) (Decimal, error) {
	if !strings.ContainsAny(s, "0123456789") {
		return Decimal{}, fmt.Errorf("decimal: invalid input %q", s)
	}
	if strings.Count(s, ".") > 1 {
		return Decimal{}, fmt.Errorf("decimal: invalid input %q", s)
	}

	intPart, fracPart, hasDot := strings.Cut(s, ".")
	if !hasDot {
		fracPart = ""
	}
	for _, r := range intPart {
		if r < '0' || r > '9' {
			return Decimal{}, fmt.Errorf("decimal: invalid input %q", s)
		}
	}
	for _, r := range fracPart {
		if r < '0' || r > '9' {
			return Decimal{}, fmt.Errorf("decimal: invalid input %q", s)
		}
	}
	if intPart == "" {
		intPart = "0"
	}

	p := int(precision)
	if len(fracPart) > p {
		fracPart = fracPart[:p]
	} else {
		fracPart += strings.Repeat("0", p-len(fracPart))
	}

	digits := intPart + fracPart
	digits = strings.TrimLeft(digits, "0")
	if digits == "" {
		digits = "0"
	}

	internal := new(uint256.Int)
	if err := internal.SetFromDecimal(digits); err != nil {
		return Decimal{}, fmt.Errorf("decimal: invalid input %q: %w", s, err)
	}
	return Decimal{internal: internal, precision: precision}, nil
}

// MustParse is like Parse but panics on error; intended for constants.
func MustParse(s string, precision uint8) Decimal {
	d, err := Parse(s, precision)
	if err != nil {
		panic(err)
	}
	return d
}

// Precision returns the number of fractional digits this value carries.
func (d Decimal) Precision() uint8 { return d.precision }

// IsZero reports whether the value is exactly zero.
func (d Decimal) IsZero() bool {
	return d.internal == nil || d.internal.IsZero()
}

func (d Decimal) scale() *uint256.Int {
	return new(uint256.Int).Exp(uint256.NewInt(10), uint256.NewInt(uint64(d.precision)))
}

func (d Decimal) val() *uint256.Int {
	if d.internal == nil {
		return uint256.NewInt(0)
	}
	return d.internal
}

// Add returns d + other. Both operands must share the same precision.
func (d Decimal) Add(other Decimal) (Decimal, error) {
	if d.precision != other.precision {
		return Decimal{}, fmt.Errorf("decimal: precision mismatch in add: %d != %d", d.precision, other.precision)
	}
	sum, overflow := new(uint256.Int).AddOverflow(d.val(), other.val())
	if overflow {
		return Decimal{}, fmt.Errorf("decimal: overflow in add")
	}
	return Decimal{internal: sum, precision: d.precision}, nil
}

// Sub returns d - other, erroring if the result would be negative.
func (d Decimal) Sub(other Decimal) (Decimal, error) {
	if d.precision != other.precision {
		return Decimal{}, fmt.Errorf("decimal: precision mismatch in sub: %d != %d", d.precision, other.precision)
	}
	if d.val().Cmp(other.val()) < 0 {
		return Decimal{}, fmt.Errorf("decimal: subtraction underflow")
	}
	return Decimal{internal: new(uint256.Int).Sub(d.val(), other.val()), precision: d.precision}, nil
}

// SaturatingAdd returns d + other, saturating at the maximum representable
// value instead of erroring on overflow.
func (d Decimal) SaturatingAdd(other Decimal) Decimal {
	sum, overflow := new(uint256.Int).AddOverflow(d.val(), other.val())
	if overflow {
		return Decimal{internal: new(uint256.Int).Not(uint256.NewInt(0)), precision: d.precision}
	}
	return Decimal{internal: sum, precision: d.precision}
}

// SaturatingSub returns d - other, saturating at zero instead of
// underflowing.
func (d Decimal) SaturatingSub(other Decimal) Decimal {
	if d.val().Cmp(other.val()) < 0 {
		return Zero(d.precision)
	}
	return Decimal{internal: new(uint256.Int).Sub(d.val(), other.val()), precision: d.precision}
}

// Mul returns d * other, preserving d's precision (both operands must share
// it).
func (d Decimal) Mul(other Decimal) (Decimal, error) {
	if d.precision != other.precision {
		return Decimal{}, fmt.Errorf("decimal: precision mismatch in mul: %d != %d", d.precision, other.precision)
	}
	product, overflow := new(uint256.Int).MulOverflow(d.val(), other.val())
	if overflow {
		return Decimal{}, fmt.Errorf("decimal: overflow in mul")
	}
	return Decimal{internal: new(uint256.Int).Div(product, d.scale()), precision: d.precision}, nil
}

// Div returns d / other, preserving precision (both operands must share
// it). Division by zero is an error.
func (d Decimal) Div(other Decimal) (Decimal, error) {
	if d.precision != other.precision {
		return Decimal{}, fmt.Errorf("decimal: precision mismatch in div: %d != %d", d.precision, other.precision)
	}
	if other.IsZero() {
		return Decimal{}, fmt.Errorf("decimal: division by zero")
	}
	scaled, overflow := new(uint256.Int).MulOverflow(d.val(), d.scale())
	if overflow {
		return Decimal{}, fmt.Errorf("decimal: overflow in div")
	}
	return Decimal{internal: new(uint256.Int).Div(scaled, other.val()), precision: d.precision}, nil
}

// Cmp compares d and other numerically. Operands of different precision
// are compared at the higher of the two precisions.
func (d Decimal) Cmp(other Decimal) int {
	if d.precision == other.precision {
		return d.val().Cmp(other.val())
	}
	// Compare via the higher of the two precisions so mismatched-precision
	// comparisons (e.g. a budget at precision 18 vs a running sum at
	// precision 6) are still well-defined.
	a, b := d, other
	if a.precision < b.precision {
		a = a.WithPrecision(b.precision)
	} else {
		b = b.WithPrecision(a.precision)
	}
	return a.val().Cmp(b.val())
}

// WithPrecision returns d re-expressed at the given precision, truncating
// extra fractional digits if the new precision is smaller.
func (d Decimal) WithPrecision(precision uint8) Decimal {
	if precision == d.precision {
		return d
	}
	if precision > d.precision {
		shift := new(uint256.Int).Exp(uint256.NewInt(10), uint256.NewInt(uint64(precision-d.precision)))
		return Decimal{internal: new(uint256.Int).Mul(d.val(), shift), precision: precision}
	}
	shift := new(uint256.Int).Exp(uint256.NewInt(10), uint256.NewInt(uint64(d.precision-precision)))
	return Decimal{internal: new(uint256.Int).Div(d.val(), shift), precision: precision}
}

// Float64 converts d to a lossy float64 approximation, for callers that
// need ordinary arithmetic rather than exact precision (scoring, metrics).
// uint256.Int gives no float conversion, so this goes through math/big,
// the standard library's answer to converting an arbitrary-precision
// integer to a float safely.
func (d Decimal) Float64() float64 {
	f := new(big.Float).SetInt(d.val().ToBig())
	scale := new(big.Float).SetInt(d.scale().ToBig())
	f.Quo(f, scale)
	out, _ := f.Float64()
	return out
}

// String renders d in the minimal form that round-trips through Parse,
// e.g. Parse("123456789.123456789", 6) renders as "123456789.123456".
func (d Decimal) String() string {
	if d.IsZero() {
		return "0"
	}
	digits := d.val().String()
	p := int(d.precision)
	if len(digits) <= p {
		frac := strings.Repeat("0", p-len(digits)) + digits
		frac = strings.TrimRight(frac, "0")
		if frac == "" {
			return "0"
		}
		return "0." + frac
	}
	intPart := digits[:len(digits)-p]
	frac := strings.TrimRight(digits[len(digits)-p:], "0")
	if frac == "" {
		return intPart
	}
	return intPart + "." + frac
}
