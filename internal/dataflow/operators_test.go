package dataflow

import (
	"testing"
	"time"

	"github.com/gurre/barengine/internal/money"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ints(vs ...int) Collection[int, IntDiff] {
	out := make([]Update[int, IntDiff], len(vs))
	for i, v := range vs {
		out[i] = Update[int, IntDiff]{Value: v, Diff: 1}
	}
	return Collection[int, IntDiff]{Updates: out}
}

func TestMapPreservesDiff(t *testing.T) {
	c := ints(1, 2, 3)
	doubled := Map(c, func(x int) int { return x * 2 })
	require.Len(t, doubled.Updates, 3)
	assert.Equal(t, 2, doubled.Updates[0].Value)
	assert.Equal(t, IntDiff(1), doubled.Updates[0].Diff)
}

func TestFilterDrops(t *testing.T) {
	c := ints(1, 2, 3, 4)
	even := Filter(c, func(x int) bool { return x%2 == 0 })
	require.Len(t, even.Updates, 2)
	assert.Equal(t, 2, even.Updates[0].Value)
	assert.Equal(t, 4, even.Updates[1].Value)
}

func TestConcatUnion(t *testing.T) {
	a := ints(1, 2)
	b := ints(3)
	out := Concat(a, b)
	assert.Len(t, out.Updates, 3)
}

func TestNegateFlipsSign(t *testing.T) {
	c := ints(1)
	n := Negate(c)
	assert.Equal(t, IntDiff(-1), n.Updates[0].Diff)
}

func TestConsolidateDropsZero(t *testing.T) {
	c := Concat(ints(1), Negate(ints(1)))
	out := Consolidate(c)
	assert.Empty(t, out.Updates)
}

func TestConsolidateSumsDuplicates(t *testing.T) {
	c := ints(1, 1, 1)
	out := Consolidate(c)
	require.Len(t, out.Updates, 1)
	assert.Equal(t, IntDiff(3), out.Updates[0].Diff)
}

func TestInsertRetractSymmetry(t *testing.T) {
	inserted := ints(1, 2, 3)
	retracted := Negate(inserted)
	out := Consolidate(Concat(inserted, retracted))
	assert.Empty(t, out.Updates, "insert then retract must yield empty state")
}

func TestReduceGroupsByKey(t *testing.T) {
	type row = KV[string, int]
	c := Collection[row, IntDiff]{Updates: []Update[row, IntDiff]{
		{Value: row{Key: "a", Value: 1}, Diff: 1},
		{Value: row{Key: "a", Value: 2}, Diff: 1},
		{Value: row{Key: "b", Value: 5}, Diff: 1},
	}}
	sums := Reduce(c, func(_ string, vs []Update[int, IntDiff]) []Update[int, IntDiff] {
		total := 0
		for _, v := range vs {
			total += v.Value * int(v.Diff)
		}
		return []Update[int, IntDiff]{{Value: total, Diff: 1}}
	})
	got := map[string]int{}
	for _, u := range sums.Updates {
		got[u.Value.Key] = u.Value.Value
	}
	assert.Equal(t, map[string]int{"a": 3, "b": 5}, got)
}

func TestCount(t *testing.T) {
	type row = KV[string, int]
	c := Collection[row, IntDiff]{Updates: []Update[row, IntDiff]{
		{Value: row{Key: "a", Value: 1}, Diff: 1},
		{Value: row{Key: "a", Value: 2}, Diff: 1},
		{Value: row{Key: "a", Value: 3}, Diff: -1}, // retraction
	}}
	out := Count(c)
	require.Len(t, out.Updates, 1)
	assert.Equal(t, int64(1), out.Updates[0].Value.Value)
}

func TestJoinMultipliesAndFiltersNonPositive(t *testing.T) {
	type row = KV[string, string]
	left := Collection[row, IntDiff]{Updates: []Update[row, IntDiff]{
		{Value: row{Key: "k", Value: "L"}, Diff: 1},
	}}
	right := Collection[row, IntDiff]{Updates: []Update[row, IntDiff]{
		{Value: row{Key: "k", Value: "R"}, Diff: 1},
		{Value: row{Key: "k", Value: "X"}, Diff: -1},
	}}
	out := Join(left, right)
	require.Len(t, out.Updates, 1)
	assert.Equal(t, "L", out.Updates[0].Value.Value.Left)
	assert.Equal(t, "R", out.Updates[0].Value.Value.Right)
}

func TestDistinctCollapsesToOne(t *testing.T) {
	c := ints(1, 1, 1)
	out := Distinct(c)
	require.Len(t, out.Updates, 1)
	assert.Equal(t, IntDiff(1), out.Updates[0].Diff)
}

func TestDistinctDropsNonPositive(t *testing.T) {
	c := Consolidate(ints(1))
	c = Concat(c, Negate(c))
	out := Distinct(c)
	assert.Empty(t, out.Updates)
}

func TestAntiJoinRetainsAbsentKeys(t *testing.T) {
	type row = KV[string, int]
	left := Collection[row, IntDiff]{Updates: []Update[row, IntDiff]{
		{Value: row{Key: "present", Value: 1}, Diff: 1},
		{Value: row{Key: "absent", Value: 2}, Diff: 1},
	}}
	right := Collection[string, IntDiff]{Updates: []Update[string, IntDiff]{
		{Value: "present", Diff: 1},
	}}
	out := AntiJoin(left, right)
	require.Len(t, out.Updates, 1)
	assert.Equal(t, "absent", out.Updates[0].Value.Key)
}

func TestExplodeScalesWeightByDiff(t *testing.T) {
	c := Collection[int, IntDiff]{Updates: []Update[int, IntDiff]{
		{Value: 1, Diff: 2},
		{Value: 2, Diff: -1},
	}}
	out := Explode(c, func(x int) WeightedDiff {
		return WeightedDiff{ValueSum: money.New(int64(x), 0), VolumeSum: money.New(1, 0)}
	})
	require.Len(t, out.Updates, 2)
	assert.True(t, out.Updates[0].Diff.ValueSum.Equal(money.New(2, 0)))
	assert.True(t, out.Updates[0].Diff.VolumeSum.Equal(money.New(2, 0)))
	assert.True(t, out.Updates[1].Diff.ValueSum.Equal(money.New(-2, 0)))
	assert.True(t, out.Updates[1].Diff.VolumeSum.Equal(money.New(-1, 0)))
}

func TestFeedbackDelaysVisibility(t *testing.T) {
	fb := NewFeedback[int, IntDiff](5 * time.Millisecond)
	fb.Set(Collection[int, IntDiff]{Time: 10 * time.Millisecond, Updates: []Update[int, IntDiff]{{Value: 1, Diff: 1}}})

	empty := fb.Collect(12 * time.Millisecond)
	assert.Empty(t, empty.Updates, "update must not be visible before time+summary")

	ready := fb.Collect(15 * time.Millisecond)
	require.Len(t, ready.Updates, 1)

	againEmpty := fb.Collect(20 * time.Millisecond)
	assert.Empty(t, againEmpty.Updates, "collected updates must not repeat")
}

func TestFeedbackRejectsZeroSummary(t *testing.T) {
	assert.Panics(t, func() {
		NewFeedback[int, IntDiff](0)
	})
}

func TestProbeMonotone(t *testing.T) {
	var p Probe
	p.Advance(10 * time.Millisecond)
	p.Advance(5 * time.Millisecond) // must not regress
	assert.Equal(t, 10*time.Millisecond, p.Frontier())
	assert.True(t, p.LessThan(11*time.Millisecond))
	assert.False(t, p.LessThan(10*time.Millisecond))
}
