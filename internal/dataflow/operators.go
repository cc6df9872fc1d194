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

package dataflow

// Map applies f pointwise to every element, preserving each update's diff.
func Map[T1, T2 any, D Diff[D]](c Collection[T1, D], f func(T1) T2) Collection[T2, D] {
	out := make([]Update[T2, D], len(c.Updates))
	for i, u := range c.Updates {
		out[i] = Update[T2, D]{Value: f(u.Value), Diff: u.Diff}
	}
	return Collection[T2, D]{Time: c.Time, Updates: out}
}

// Filter keeps only updates whose value satisfies pred.
func Filter[T any, D Diff[D]](c Collection[T, D], pred func(T) bool) Collection[T, D] {
	out := make([]Update[T, D], 0, len(c.Updates))
	for _, u := range c.Updates {
		if pred(u.Value) {
			out = append(out, u)
		}
	}
	return Collection[T, D]{Time: c.Time, Updates: out}
}

// Concat unions two collections' updates. The result's Time is the later
// of the two inputs', since a union is not valid before both sides exist.
func Concat[T any, D Diff[D]](a, b Collection[T, D]) Collection[T, D] {
	out := make([]Update[T, D], 0, len(a.Updates)+len(b.Updates))
	out = append(out, a.Updates...)
	out = append(out, b.Updates...)
	t := a.Time
	if b.Time > t {
		t = b.Time
	}
	return Collection[T, D]{Time: t, Updates: out}
}

// Negate flips the sign of every update's diff, turning insertions into
// retractions and vice versa.
func Negate[T any, D Diff[D]](c Collection[T, D]) Collection[T, D] {
	out := make([]Update[T, D], len(c.Updates))
	for i, u := range c.Updates {
		out[i] = Update[T, D]{Value: u.Value, Diff: u.Diff.Negate()}
	}
	return Collection[T, D]{Time: c.Time, Updates: out}
}

// Consolidate combines all updates for identical elements, summing their
// diffs; elements whose accumulated diff is zero vanish. Iteration order of
// the result follows first-seen order of the input, so downstream
// first/last-by-arrival-order tiebreaks (see internal/bars) stay
// deterministic for a given input order.
func Consolidate[T comparable, D Diff[D]](c Collection[T, D]) Collection[T, D] {
	sums := make(map[T]D, len(c.Updates))
	order := make([]T, 0, len(c.Updates))
	for _, u := range c.Updates {
		if existing, ok := sums[u.Value]; ok {
			sums[u.Value] = existing.Add(u.Diff)
		} else {
			sums[u.Value] = u.Diff
			order = append(order, u.Value)
		}
	}
	out := make([]Update[T, D], 0, len(order))
	for _, v := range order {
		d := sums[v]
		if !d.IsZero() {
			out = append(out, Update[T, D]{Value: v, Diff: d})
		}
	}
	return Collection[T, D]{Time: c.Time, Updates: out}
}

// Reduce groups c by Key, consolidates each group, and calls reduceFn with
// the consolidated (value, diff) pairs seen for that key. reduceFn must be
// a deterministic function of that consolidated multiset: it may not
// depend on history or arrival order beyond whatever tiebreak it chooses to
// apply itself (see internal/bars' open/close tiebreak).
func Reduce[K comparable, V any, D Diff[D], V2 any](
	c Collection[KV[K, V], D],
	reduceFn func(key K, values []Update[V, D]) []Update[V2, D],
) Collection[KV[K, V2], D] {
	consolidated := Consolidate(c)

	groups := make(map[K][]Update[V, D])
	order := make([]K, 0)
	for _, u := range consolidated.Updates {
		k := u.Value.Key
		if _, ok := groups[k]; !ok {
			order = append(order, k)
		}
		groups[k] = append(groups[k], Update[V, D]{Value: u.Value.Value, Diff: u.Diff})
	}

	out := make([]Update[KV[K, V2], D], 0, len(order))
	for _, k := range order {
		for _, res := range reduceFn(k, groups[k]) {
			out = append(out, Update[KV[K, V2], D]{
				Value: KV[K, V2]{Key: k, Value: res.Value},
				Diff:  res.Diff,
			})
		}
	}
	return Collection[KV[K, V2], D]{Time: consolidated.Time, Updates: out}
}

// Count specializes Reduce to produce (key, count) pairs; counts are
// signed, carrying the net positive presence of values under that key.
func Count[K comparable, V any](c Collection[KV[K, V], IntDiff]) Collection[KV[K, int64], IntDiff] {
	return Reduce(c, func(_ K, values []Update[V, IntDiff]) []Update[int64, IntDiff] {
		var total int64
		for _, v := range values {
			total += int64(v.Diff)
		}
		if total == 0 {
			return nil
		}
		return []Update[int64, IntDiff]{{Value: total, Diff: IntDiff(1)}}
	})
}

// Join is an inner equijoin on Key: it produces (key, (left, right)) with
// diff equal to the product of the two input diffs, and only emits rows
// whose product is strictly positive.
func Join[K comparable, VL, VR any](
	left Collection[KV[K, VL], IntDiff],
	right Collection[KV[K, VR], IntDiff],
) Collection[KV[K, Joined[VL, VR]], IntDiff] {
	l := Consolidate(left)
	r := Consolidate(right)

	rGroups := make(map[K][]Update[VR, IntDiff])
	for _, u := range r.Updates {
		rGroups[u.Value.Key] = append(rGroups[u.Value.Key], Update[VR, IntDiff]{Value: u.Value.Value, Diff: u.Diff})
	}

	out := make([]Update[KV[K, Joined[VL, VR]], IntDiff], 0)
	for _, lu := range l.Updates {
		for _, ru := range rGroups[lu.Value.Key] {
			product := lu.Diff * ru.Diff
			if product <= 0 {
				continue
			}
			out = append(out, Update[KV[K, Joined[VL, VR]], IntDiff]{
				Value: KV[K, Joined[VL, VR]]{
					Key:   lu.Value.Key,
					Value: Joined[VL, VR]{Left: lu.Value.Value, Right: ru.Value},
				},
				Diff: product,
			})
		}
	}
	t := l.Time
	if r.Time > t {
		t = r.Time
	}
	return Collection[KV[K, Joined[VL, VR]], IntDiff]{Time: t, Updates: out}
}

// Distinct maps any positive accumulated diff to exactly 1; elements with a
// zero or negative accumulated diff disappear.
func Distinct[T comparable](c Collection[T, IntDiff]) Collection[T, IntDiff] {
	consolidated := Consolidate(c)
	out := make([]Update[T, IntDiff], 0, len(consolidated.Updates))
	for _, u := range consolidated.Updates {
		if u.Diff > 0 {
			out = append(out, Update[T, IntDiff]{Value: u.Value, Diff: IntDiff(1)})
		}
	}
	return Collection[T, IntDiff]{Time: consolidated.Time, Updates: out}
}

// AntiJoin retains (key, value) pairs from left whose key has no positive
// presence in right (typically right is the Distinct'd key set of some
// other collection, e.g. the grace-period feedback in internal/bars' gate).
func AntiJoin[K comparable, V any, D Diff[D]](
	left Collection[KV[K, V], D],
	right Collection[K, IntDiff],
) Collection[KV[K, V], D] {
	r := Consolidate(right)
	present := make(map[K]bool, len(r.Updates))
	for _, u := range r.Updates {
		if u.Diff > 0 {
			present[u.Value] = true
		}
	}

	l := Consolidate(left)
	out := make([]Update[KV[K, V], D], 0, len(l.Updates))
	for _, u := range l.Updates {
		if !present[u.Value.Key] {
			out = append(out, u)
		}
	}
	return Collection[KV[K, V], D]{Time: l.Time, Updates: out}
}

// Explode turns each element's plain presence diff into a weight drawn
// from an additive commutative group via weightFn, scaling the weight by
// the original diff's magnitude and sign: a retraction contributes the
// negation of the insert's weight, so Consolidate downstream sums weights
// per key in O(1) per change rather than re-deriving them from scratch.
func Explode[T any, W Diff[W]](c Collection[T, IntDiff], weightFn func(T) W) Collection[T, W] {
	out := make([]Update[T, W], len(c.Updates))
	for i, u := range c.Updates {
		out[i] = Update[T, W]{Value: u.Value, Diff: scale(weightFn(u.Value), int64(u.Diff))}
	}
	return Collection[T, W]{Time: c.Time, Updates: out}
}

// scale adds w to itself |n| times, negating first when n is negative.
// Trade updates in this engine always carry |diff| == 1 (one trade
// inserted or retracted at a time), so this is O(1) in practice; the loop
// exists to keep Explode correct for any batched multiplicity.
func scale[W Diff[W]](w W, n int64) W {
	if n == 0 {
		var zero W
		return zero
	}
	neg := n < 0
	if neg {
		n = -n
		w = w.Negate()
	}
	total := w
	for i := int64(1); i < n; i++ {
		total = total.Add(w)
	}
	return total
}
