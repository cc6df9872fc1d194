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

// Package trade defines the immutable Trade record consumed by the
// dataflow engine, and the bounded ingress queue that feeds it.
package trade

import (
	"time"

	"github.com/gurre/barengine/internal/money"
)

// MaxConditions bounds the trade-condition flags carried inline on Trade,
// matching the original's ArrayVec<[u32; 6]>. A real feed never reports
// more than a handful of conditions per trade; overflow is truncated by
// the feed package's wire-to-Trade conversion.
const MaxConditions = 6

// Trade is an immutable, self-identifying market trade. Fields are ordered
// for memory alignment, following the teacher's tradestore.go convention:
// wider fixed-size fields first, small integers last. Conditions is a fixed
// array rather than a slice so Trade stays comparable: the dataflow engine
// keys consolidation maps on Trade itself (map[Trade]IntDiff) and its
// feedback variables require a comparable T, both of which need T == T to
// be a valid Go expression.
type Trade struct {
	EventTime      time.Duration // since epoch, millisecond resolution
	Price          money.Decimal
	Volume         money.Decimal
	Symbol         string // <= 12 bytes
	Exchange       uint32
	Conditions     [MaxConditions]uint32 // trade-condition flags, small
	ConditionCount uint8                 // number of entries in Conditions that are valid
}

// WindowStart truncates EventTime down to the start of the bar_length
// window it falls in, using integer millisecond division as spec.md §3
// prescribes.
func (t Trade) WindowStart(barLength time.Duration) time.Duration {
	ms := t.EventTime.Milliseconds()
	barMs := barLength.Milliseconds()
	if barMs <= 0 {
		panic("trade: bar length must be positive")
	}
	return time.Duration(ms/barMs*barMs) * time.Millisecond
}

// Equal reports structural equality between two trades.
func (t Trade) Equal(o Trade) bool {
	if t.EventTime != o.EventTime || t.Symbol != o.Symbol || t.Exchange != o.Exchange {
		return false
	}
	if !t.Price.Equal(o.Price) || !t.Volume.Equal(o.Volume) {
		return false
	}
	if t.ConditionCount != o.ConditionCount {
		return false
	}
	for i := 0; i < int(t.ConditionCount); i++ {
		if t.Conditions[i] != o.Conditions[i] {
			return false
		}
	}
	return true
}

// WindowKey identifies one (symbol, window) bucket.
type WindowKey struct {
	Symbol      string
	WindowStart time.Duration
}
