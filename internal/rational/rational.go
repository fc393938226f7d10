// Package rational provides the exact number type used for every monetary
// quantity in this repository. Amounts on the ledger are decimal strings and
// price ratios are quotients of those, so all arithmetic is done on
// arbitrary-precision rationals (math/big) and never on floats.
package rational

import (
	"fmt"
	"math/big"
	"strings"
)

// Rational is an immutable arbitrary-precision rational number. The zero
// value is usable and equal to 0. All operations return new values.
type Rational struct {
	rat *big.Rat
}

// Zero is the rational 0.
var Zero = FromInt64(0)

// One is the rational 1.
var One = FromInt64(1)

// FromInt64 returns the rational n/1.
func FromInt64(n int64) Rational {
	return Rational{rat: new(big.Rat).SetInt64(n)}
}

// New returns the rational num/den. It panics if den is zero.
func New(num, den int64) Rational {
	return Rational{rat: big.NewRat(num, den)}
}

// Parse converts a decimal string ("12.5", "-0.000001", "3e-7") or a
// fraction ("5/2") into a Rational.
func Parse(s string) (Rational, error) {
	r, ok := new(big.Rat).SetString(strings.TrimSpace(s))
	if !ok {
		return Rational{}, fmt.Errorf("rational: cannot parse %q", s)
	}
	return Rational{rat: r}, nil
}

// MustParse is Parse for trusted inputs. It panics on malformed input.
func MustParse(s string) Rational {
	r, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return r
}

func (a Rational) val() *big.Rat {
	if a.rat == nil {
		return new(big.Rat)
	}
	return a.rat
}

// Add returns a + b.
func (a Rational) Add(b Rational) Rational {
	return Rational{rat: new(big.Rat).Add(a.val(), b.val())}
}

// Sub returns a - b.
func (a Rational) Sub(b Rational) Rational {
	return Rational{rat: new(big.Rat).Sub(a.val(), b.val())}
}

// Mul returns a * b.
func (a Rational) Mul(b Rational) Rational {
	return Rational{rat: new(big.Rat).Mul(a.val(), b.val())}
}

// Div returns a / b. It panics if b is zero, like integer division.
func (a Rational) Div(b Rational) Rational {
	return Rational{rat: new(big.Rat).Quo(a.val(), b.val())}
}

// Neg returns -a.
func (a Rational) Neg() Rational {
	return Rational{rat: new(big.Rat).Neg(a.val())}
}

// Abs returns |a|.
func (a Rational) Abs() Rational {
	return Rational{rat: new(big.Rat).Abs(a.val())}
}

// Inv returns 1/a. It panics if a is zero.
func (a Rational) Inv() Rational {
	return Rational{rat: new(big.Rat).Inv(a.val())}
}

// Cmp returns -1, 0, or +1 depending on whether a < b, a == b, or a > b.
func (a Rational) Cmp(b Rational) int { return a.val().Cmp(b.val()) }

// Eq reports whether a and b denote the same value, regardless of how
// either was constructed.
func (a Rational) Eq(b Rational) bool { return a.Cmp(b) == 0 }

// Lt reports a < b.
func (a Rational) Lt(b Rational) bool { return a.Cmp(b) < 0 }

// Leq reports a <= b.
func (a Rational) Leq(b Rational) bool { return a.Cmp(b) <= 0 }

// Gt reports a > b.
func (a Rational) Gt(b Rational) bool { return a.Cmp(b) > 0 }

// Geq reports a >= b.
func (a Rational) Geq(b Rational) bool { return a.Cmp(b) >= 0 }

// Sign returns -1, 0, or +1 according to the sign of a.
func (a Rational) Sign() int { return a.val().Sign() }

// IsZero reports whether a == 0.
func (a Rational) IsZero() bool { return a.Sign() == 0 }

// Round returns a rounded to the nearest integer, ties away from zero.
func (a Rational) Round() Rational {
	v := a.val()
	num := new(big.Int).Abs(v.Num())
	den := v.Denom() // always positive
	q, rem := new(big.Int).QuoRem(num, den, new(big.Int))
	// round up when the fractional part is >= 1/2
	rem.Lsh(rem, 1)
	if rem.Cmp(den) >= 0 {
		q.Add(q, big.NewInt(1))
	}
	if v.Sign() < 0 {
		q.Neg(q)
	}
	return Rational{rat: new(big.Rat).SetInt(q)}
}

// Decimal renders a as a decimal string with exactly digits fractional
// digits, rounding the last digit. There is no representation error: the
// rendering is computed from the exact rational.
func (a Rational) Decimal(digits int) string {
	return a.val().FloatString(digits)
}

// String returns the canonical form of a, "num/den" when the denominator is
// not 1, otherwise just the integer.
func (a Rational) String() string { return a.val().RatString() }

// Float64 returns the nearest float64. For display only; never feed the
// result back into ledger arithmetic.
func (a Rational) Float64() float64 {
	f, _ := a.val().Float64()
	return f
}

// MarshalText renders a in canonical form, so Rational fields serialize as
// exact strings in JSON and as map keys.
func (a Rational) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalText parses any form Parse accepts.
func (a *Rational) UnmarshalText(text []byte) error {
	v, err := Parse(string(text))
	if err != nil {
		return err
	}
	*a = v
	return nil
}

// Min returns the smallest of the given values. It panics if called with
// no arguments.
func Min(vals ...Rational) Rational {
	m := vals[0]
	for _, v := range vals[1:] {
		if v.Lt(m) {
			m = v
		}
	}
	return m
}

// Max returns the largest of the given values. It panics if called with
// no arguments.
func Max(vals ...Rational) Rational {
	m := vals[0]
	for _, v := range vals[1:] {
		if v.Gt(m) {
			m = v
		}
	}
	return m
}
