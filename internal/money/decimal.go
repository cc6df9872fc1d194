/**
 * Copyright 2025-present Coinbase Global, Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package money provides an exact, arbitrary-precision signed decimal for
// price, size, and monetary quantities.
//
// Decimal wraps shopspring/decimal rather than float64 so that addition is
// exact and associative within the representable range: the dataflow
// engine's consolidate step sums many per-trade weights into running totals,
// and float drift there would silently corrupt value_sum/volume_sum.
package money

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Decimal is an exact signed decimal value. Zero value is a valid zero.
type Decimal struct {
	d decimal.Decimal
}

// Zero is the additive identity.
func Zero() Decimal { return Decimal{} }

// New builds a Decimal from an integer value and exponent, following
// shopspring/decimal.New: value * 10^exp.
func New(value int64, exp int32) Decimal {
	return Decimal{d: decimal.New(value, exp)}
}

// NewFromFloat constructs a Decimal from a float64. Reserved for test
// fixtures and config parsing; trade prices off the wire should go through
// Parse instead so we never round-trip through binary floating point.
func NewFromFloat(f float64) Decimal {
	return Decimal{d: decimal.NewFromFloat(f)}
}

// Parse parses a decimal string exactly, as it arrives on the wire.
func Parse(s string) (Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Decimal{}, fmt.Errorf("money: parse %q: %w", s, err)
	}
	return Decimal{d: d}, nil
}

// MustParse is Parse but fatal on error; used for compile-time-known
// literals in tests and constants.
func MustParse(s string) Decimal {
	d, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return d
}

// Add returns a + b. Exact; never rounds.
func (a Decimal) Add(b Decimal) Decimal { return Decimal{d: a.d.Add(b.d)} }

// Sub returns a - b.
func (a Decimal) Sub(b Decimal) Decimal { return Decimal{d: a.d.Sub(b.d)} }

// Neg returns -a.
func (a Decimal) Neg() Decimal { return Decimal{d: a.d.Neg()} }

// Mul returns a * b.
func (a Decimal) Mul(b Decimal) Decimal { return Decimal{d: a.d.Mul(b.d)} }

// Div returns a / b. Fatal on division by zero: a caller dividing by a
// volume_sum must have already checked IsZero (see bars.Bar's suppression
// rule), so reaching zero here indicates an engine invariant violation.
func (a Decimal) Div(b Decimal) Decimal {
	if b.IsZero() {
		panic("money: division by zero")
	}
	return Decimal{d: a.d.Div(b.d)}
}

// Cmp returns -1, 0, or 1 per the total order over Decimal.
func (a Decimal) Cmp(b Decimal) int { return a.d.Cmp(b.d) }

// LessThan reports whether a < b.
func (a Decimal) LessThan(b Decimal) bool { return a.Cmp(b) < 0 }

// GreaterThan reports whether a > b.
func (a Decimal) GreaterThan(b Decimal) bool { return a.Cmp(b) > 0 }

// Equal reports structural equality.
func (a Decimal) Equal(b Decimal) bool { return a.d.Equal(b.d) }

// IsZero reports whether a is exactly zero.
func (a Decimal) IsZero() bool { return a.d.IsZero() }

// IsNegative reports whether a is strictly less than zero.
func (a Decimal) IsNegative() bool { return a.d.IsNegative() }

// IsPositive reports whether a is strictly greater than zero.
func (a Decimal) IsPositive() bool { return a.d.IsPositive() && !a.d.IsZero() }

// String renders the decimal in plain (non-scientific) notation.
func (a Decimal) String() string { return a.d.String() }

// Float64 converts to float64; lossy, for display/metrics only — never feed
// the result back into an aggregation.
func (a Decimal) Float64() float64 {
	f, _ := a.d.Float64()
	return f
}

// Sum folds a slice of Decimals with Add, starting from Zero. Associative
// regardless of order, per the kernel's monoid contract.
func Sum(ds []Decimal) Decimal {
	total := Zero()
	for _, d := range ds {
		total = total.Add(d)
	}
	return total
}

// Semigroup is the operation the dataflow engine needs from any type used
// as (part of) a diff weight: a way to detect the additive identity after
// combining updates. Monoid adds Add and Neg; the identity itself is the
// package-level Zero function.
type Semigroup interface {
	IsZero() bool
}

// Monoid is a Semigroup with an explicit zero element, matching
// differential-dataflow's Semigroup/Monoid split (core.rs/ws.rs's Decimal
// implements exactly this pair over rust_decimal::Decimal). Decimal
// satisfies it via the package-level Zero function plus the IsZero method.
type Monoid interface {
	Semigroup
	Add(Decimal) Decimal
	Neg() Decimal
}

var (
	_ Semigroup = Decimal{}
	_ Monoid    = Decimal{}
)
