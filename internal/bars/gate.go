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

package bars

import (
	"time"

	"github.com/gurre/barengine/internal/trade"
)

// Sink receives a finalized bar: the window it summarizes and the bar
// itself. Called from Gate.TickInto; implementations must not block for
// long, since TickInto runs on the engine's flush loop (see
// internal/timecontroller).
type Sink func(key trade.WindowKey, bar Bar)

// Gate turns the dataflow engine's change churn into one-shot, externally
// visible bar emissions. It holds the latest bar per window in memory and
// delivers a window exactly once wall-clock time has passed
// window_start + bar_length, per spec.md §4.6's gate description — the
// grace_period holdback itself is already applied upstream, by Pipeline's
// recentlyOpen antijoin withholding a window's stats until bar_length +
// grace_period has elapsed since it was last touched, so the gate's own
// scan does not add a
// second grace_period delay on top of that.
//
// Pipeline.Step recomputes every window's full current state on every call
// (it is not a true incremental diff), so the same window keeps arriving via
// OnUpdate after it has already been delivered, for as long as its trades
// remain in the retention window. Gate tracks delivered keys so a window is
// handed to the sink exactly once, not once per remaining flush until
// retention eviction.
//
// Gate is not safe for concurrent use.
type Gate struct {
	barLength   time.Duration
	gracePeriod time.Duration
	retention   time.Duration

	latest    map[trade.WindowKey]Bar
	delivered map[trade.WindowKey]struct{}
}

// NewGate constructs a Gate for the given windowing configuration.
func NewGate(cfg Config) *Gate {
	return &Gate{
		barLength:   cfg.BarLength,
		gracePeriod: cfg.GracePeriod,
		retention:   cfg.Retention,
		latest:      make(map[trade.WindowKey]Bar),
		delivered:   make(map[trade.WindowKey]struct{}),
	}
}

// OnUpdate records su as the latest known bar for its window. Updates with
// diff <= 0 are ignored: they are strictly withdrawals of prior-emitted
// engine-level state and carry no new externally visible fact (spec.md
// §4.6). Updates whose window has already aged past retention relative to
// su.LogicalTime are also ignored, since such a window can no longer
// legitimately gain new trades and any closure decision has already been
// made. A window already delivered is ignored too, so the upstream engine's
// repeated re-emission of unchanged state never produces a duplicate sink
// call.
func (g *Gate) OnUpdate(su StatsUpdate) {
	if su.Diff <= 0 {
		return
	}
	if su.Key.WindowStart+g.retention <= su.LogicalTime {
		return
	}
	if _, ok := g.delivered[su.Key]; ok {
		return
	}
	g.latest[su.Key] = su.Bar
}

// Tick is TickInto with a nil sink: every window whose window_start +
// bar_length has passed wallClockNow is removed from the gate's held state
// and recorded as delivered without being handed to any sink.
func (g *Gate) Tick(wallClockNow time.Duration) {
	g.TickInto(wallClockNow, nil)
}

// TickInto scans the held bars and passes to sink every window whose
// window_start + bar_length has passed wallClockNow, removing it from the
// gate's held state and recording it as delivered so OnUpdate never
// reopens it; sink may be nil to just purge. Delivered keys are themselves
// forgotten once their window ages past retention, since OnUpdate would
// reject any further update for that key anyway from that point on.
func (g *Gate) TickInto(wallClockNow time.Duration, sink Sink) {
	for key, bar := range g.latest {
		if key.WindowStart+g.barLength >= wallClockNow {
			continue
		}
		if sink != nil {
			sink(key, bar)
		}
		delete(g.latest, key)
		g.delivered[key] = struct{}{}
	}
	for key := range g.delivered {
		if key.WindowStart+g.retention <= wallClockNow {
			delete(g.delivered, key)
		}
	}
}

// Pending reports how many windows are currently held, awaiting closure.
func (g *Gate) Pending() int {
	return len(g.latest)
}

// Peek returns the currently held bar for key, if any, without affecting
// gate state. Useful for tests and for an operator console's "show me the
// still-open bar" command.
func (g *Gate) Peek(key trade.WindowKey) (Bar, bool) {
	b, ok := g.latest[key]
	return b, ok
}
