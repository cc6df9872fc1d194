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

import "github.com/gurre/barengine/internal/money"

// WeightedDiff is the "difference pair" spec.md §4.4 requires for
// maintaining value_sum and volume_sum by change-of-weight rather than by
// re-reducing the underlying trades on every update: an insert of a trade
// contributes (price*volume, volume) at its key, a retraction the
// negation, and Consolidate sums these per key in O(1) per change.
type WeightedDiff struct {
	ValueSum  money.Decimal
	VolumeSum money.Decimal
}

func (w WeightedDiff) IsZero() bool {
	return w.ValueSum.IsZero() && w.VolumeSum.IsZero()
}

func (w WeightedDiff) Add(o WeightedDiff) WeightedDiff {
	return WeightedDiff{
		ValueSum:  w.ValueSum.Add(o.ValueSum),
		VolumeSum: w.VolumeSum.Add(o.VolumeSum),
	}
}

func (w WeightedDiff) Negate() WeightedDiff {
	return WeightedDiff{ValueSum: w.ValueSum.Neg(), VolumeSum: w.VolumeSum.Neg()}
}

var (
	_ Diff[IntDiff]      = IntDiff(0)
	_ Diff[WeightedDiff] = WeightedDiff{}
)
