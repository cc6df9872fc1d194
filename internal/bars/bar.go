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

// Package bars assembles the incremental dataflow operators in
// internal/dataflow into the concrete windowed-bar pipeline, and implements
// the emission gate that turns engine-level change churn into one-shot
// finalized bars for a sink.
package bars

import (
	"time"

	"github.com/gurre/barengine/internal/money"
	"github.com/gurre/barengine/internal/trade"
)

// Bar is the derived per-(symbol, window) summary. VWAP is a view, never
// stored: see VWAP().
type Bar struct {
	Open, High, Low, Close     money.Decimal
	ValueSum, VolumeSum        money.Decimal
	TradeCount                 int64
	LastUpdateTime             time.Duration // frontier at the time this snapshot was computed
}

// VWAP derives the volume-weighted average price. Callers must check
// VolumeSum before calling; a zero-volume bar is suppressed upstream (see
// Pipeline.Step) precisely so this is never called with a zero divisor in
// practice, but it still panics rather than silently returning garbage.
func (b Bar) VWAP() money.Decimal {
	return b.ValueSum.Div(b.VolumeSum)
}

// Valid reports whether b satisfies the invariants spec.md §3 requires
// whenever TradeCount >= 1: low <= open <= high, low <= close <= high,
// volume_sum > 0, value_sum > 0.
func (b Bar) Valid() bool {
	if b.TradeCount < 1 {
		return true // vacuously valid; no invariant applies to an empty bar
	}
	return !b.Low.GreaterThan(b.Open) && !b.Open.GreaterThan(b.High) &&
		!b.Low.GreaterThan(b.Close) && !b.Close.GreaterThan(b.High) &&
		b.VolumeSum.IsPositive() && b.ValueSum.IsPositive()
}

// Config holds the tunables spec.md §4.3 enumerates for this pipeline.
type Config struct {
	BarLength   time.Duration
	Retention   time.Duration
	GracePeriod time.Duration
}

// StatsUpdate is one change the pipeline hands to the emission gate:
// the key, the freshly computed bar, the logical time it was computed at,
// and its diff (only diff > 0 rows are ever constructed by Pipeline.Step,
// per spec.md §4.4's edge-case policy that stats_ready is filtered to
// positive diffs at the emission boundary).
type StatsUpdate struct {
	Key         trade.WindowKey
	Bar         Bar
	LogicalTime time.Duration
	Diff        int64
}
