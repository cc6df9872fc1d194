package money

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddIdentity(t *testing.T) {
	a := MustParse("12.345")
	assert.True(t, a.Add(Zero()).Equal(a))
}

func TestAddCommutative(t *testing.T) {
	a := MustParse("1.1")
	b := MustParse("2.2")
	assert.True(t, a.Add(b).Equal(b.Add(a)))
}

func TestAddAssociative(t *testing.T) {
	a := MustParse("0.1")
	b := MustParse("0.2")
	c := MustParse("0.3")
	left := a.Add(b).Add(c)
	right := a.Add(b.Add(c))
	assert.True(t, left.Equal(right))
}

func TestSubIsZero(t *testing.T) {
	a := MustParse("99.9")
	assert.True(t, a.Sub(a).IsZero())
}

func TestMulAssociative(t *testing.T) {
	a := MustParse("2")
	b := MustParse("3")
	c := MustParse("5")
	left := a.Mul(b).Mul(c)
	right := a.Mul(b.Mul(c))
	assert.True(t, left.Equal(right))
}

func TestDivByZeroPanics(t *testing.T) {
	assert.Panics(t, func() {
		MustParse("1").Div(Zero())
	})
}

func TestParseRejectsGarbage(t *testing.T) {
	_, err := Parse("not-a-number")
	require.Error(t, err)
}

func TestSumAssociativeRegardlessOfOrder(t *testing.T) {
	values := []Decimal{MustParse("1.5"), MustParse("2.25"), MustParse("0.25")}
	reversed := []Decimal{values[2], values[1], values[0]}
	assert.True(t, Sum(values).Equal(Sum(reversed)))
}

func TestNegation(t *testing.T) {
	a := MustParse("7.5")
	assert.True(t, a.Add(a.Neg()).IsZero())
}

func TestOrdering(t *testing.T) {
	low := MustParse("1")
	high := MustParse("2")
	assert.True(t, low.LessThan(high))
	assert.True(t, high.GreaterThan(low))
	assert.Equal(t, 0, low.Cmp(MustParse("1.0")))
}
