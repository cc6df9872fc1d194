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
	"sort"
	"time"

	"github.com/gurre/barengine/internal/dataflow"
	"github.com/gurre/barengine/internal/money"
	"github.com/gurre/barengine/internal/trade"
)

// tradeSample is one trade's contribution to the open/close tiebreak: the
// event time it claims to have happened at, its price, and its position
// within liveTrades.Updates at consolidation time, which this engine uses
// as an arrival-order proxy (Consolidate preserves first-seen order; see
// DESIGN.md).
type tradeSample struct {
	eventTime   time.Duration
	price       money.Decimal
	arrivalSeq  int
}

// Pipeline assembles the dataflow graph spec.md §4.4 describes: a bounded
// retention-aware live-trade set, per-window OHLC/volume/count statistics,
// and a grace-period holdback feeding StatsUpdate rows to a Gate.
//
// Pipeline is not safe for concurrent use; callers shard by symbol (see
// internal/shard) and run one Pipeline per shard.
type Pipeline struct {
	cfg Config

	liveTrades      dataflow.Collection[trade.Trade, dataflow.IntDiff]
	retentionFb     *dataflow.Feedback[trade.Trade, dataflow.IntDiff]
	recentlyOpen    dataflow.Collection[trade.WindowKey, dataflow.IntDiff]
	openWindowsFb   *dataflow.Feedback[trade.WindowKey, dataflow.IntDiff]
	probe           dataflow.Probe
}

// NewPipeline constructs a Pipeline. Panics unless bar length and retention
// are strictly positive and grace period is non-negative, which keeps both
// feedback summaries strictly positive, as the feedback variables require.
func NewPipeline(cfg Config) *Pipeline {
	if cfg.BarLength <= 0 || cfg.Retention <= 0 || cfg.GracePeriod < 0 {
		panic("bars: bar length and retention must be positive, grace period non-negative")
	}
	// grace_period=0 is a legal configuration (spec.md §9): it degrades the
	// holdback to "one bar_length of silence" rather than removing it, since
	// bar length alone already keeps this summary strictly positive.
	return &Pipeline{
		cfg:           cfg,
		retentionFb:   dataflow.NewFeedback[trade.Trade, dataflow.IntDiff](cfg.Retention + cfg.BarLength),
		openWindowsFb: dataflow.NewFeedback[trade.WindowKey, dataflow.IntDiff](cfg.BarLength + cfg.GracePeriod),
	}
}

// Step ingests a batch of newly arrived trades at logical time now and
// returns the bar updates ready for emission. Trades whose window has
// already aged past retention are silently dropped (spec.md §8 scenario 6);
// Step never panics on such input.
func (p *Pipeline) Step(now time.Duration, newTrades []trade.Trade) []StatsUpdate {
	p.probe.Advance(now)

	admitted := make([]trade.Trade, 0, len(newTrades))
	for _, t := range newTrades {
		if t.WindowStart(p.cfg.BarLength)+p.cfg.Retention > now {
			admitted = append(admitted, t)
		}
	}

	insertBatch := dataflow.Collection[trade.Trade, dataflow.IntDiff]{Time: now, Updates: make([]dataflow.Update[trade.Trade, dataflow.IntDiff], len(admitted))}
	for i, t := range admitted {
		insertBatch.Updates[i] = dataflow.Update[trade.Trade, dataflow.IntDiff]{Value: t, Diff: 1}
	}

	expired := p.retentionFb.Collect(now)
	p.liveTrades = dataflow.Consolidate(dataflow.Concat(dataflow.Concat(p.liveTrades, insertBatch), dataflow.Negate(expired)))
	p.retentionFb.Set(insertBatch)

	keyed := dataflow.Map(p.liveTrades, func(t trade.Trade) dataflow.KV[trade.WindowKey, trade.Trade] {
		return dataflow.KV[trade.WindowKey, trade.Trade]{Key: trade.WindowKey{Symbol: t.Symbol, WindowStart: t.WindowStart(p.cfg.BarLength)}, Value: t}
	})

	ohlc := p.reduceOHLC(keyed)
	vv := p.reduceValueVolume(keyed)
	count := countByKey(dataflow.Map(keyed, func(kv dataflow.KV[trade.WindowKey, trade.Trade]) trade.WindowKey { return kv.Key }))

	touchedKeys := dataflow.Distinct(dataflow.Map(insertBatch, func(t trade.Trade) trade.WindowKey {
		return trade.WindowKey{Symbol: t.Symbol, WindowStart: t.WindowStart(p.cfg.BarLength)}
	}))
	expiredTouches := p.openWindowsFb.Collect(now)
	p.recentlyOpen = dataflow.Consolidate(dataflow.Concat(dataflow.Concat(p.recentlyOpen, touchedKeys), dataflow.Negate(expiredTouches)))
	p.openWindowsFb.Set(touchedKeys)

	stats := p.combineStats(ohlc, vv, count)
	ready := dataflow.AntiJoin(stats, p.recentlyOpen)

	out := make([]StatsUpdate, 0, len(ready.Updates))
	for _, u := range ready.Updates {
		if u.Diff <= 0 {
			continue
		}
		out = append(out, StatsUpdate{Key: u.Value.Key, Bar: u.Value.Value, LogicalTime: now, Diff: int64(u.Diff)})
	}
	return out
}

// Probe exposes the pipeline's output frontier.
func (p *Pipeline) Probe() *dataflow.Probe { return &p.probe }

// LiveTradeCount reports the size of the currently retained live set, for
// tests and metrics asserting the retention bound.
func (p *Pipeline) LiveTradeCount() int { return len(p.liveTrades.Updates) }

type openClose struct {
	open, close money.Decimal
}

type lowHigh struct {
	low, high money.Decimal
}

// reduceOHLC computes, for every window with at least one live trade, the
// open (earliest event time, ties broken by arrival order), close (latest
// event time, ties broken by arrival order), low and high price.
func (p *Pipeline) reduceOHLC(keyed dataflow.Collection[dataflow.KV[trade.WindowKey, trade.Trade], dataflow.IntDiff]) dataflow.Collection[dataflow.KV[trade.WindowKey, ohlcRow], dataflow.IntDiff] {
	samples := dataflow.Map(keyed, func(kv dataflow.KV[trade.WindowKey, trade.Trade]) dataflow.KV[trade.WindowKey, trade.Trade] { return kv })

	withSeq := make([]dataflow.Update[dataflow.KV[trade.WindowKey, tradeSample], dataflow.IntDiff], len(samples.Updates))
	for i, u := range samples.Updates {
		withSeq[i] = dataflow.Update[dataflow.KV[trade.WindowKey, tradeSample], dataflow.IntDiff]{
			Value: dataflow.KV[trade.WindowKey, tradeSample]{
				Key:   u.Value.Key,
				Value: tradeSample{eventTime: u.Value.Value.EventTime, price: u.Value.Value.Price, arrivalSeq: i},
			},
			Diff: u.Diff,
		}
	}
	tagged := dataflow.Collection[dataflow.KV[trade.WindowKey, tradeSample], dataflow.IntDiff]{Time: samples.Time, Updates: withSeq}

	openCloseByKey := dataflow.Reduce(tagged, func(_ trade.WindowKey, values []dataflow.Update[tradeSample, dataflow.IntDiff]) []dataflow.Update[openClose, dataflow.IntDiff] {
		if len(values) == 0 {
			return nil
		}
		sorted := make([]tradeSample, len(values))
		for i, v := range values {
			sorted[i] = v.Value
		}
		sort.Slice(sorted, func(i, j int) bool {
			if sorted[i].eventTime != sorted[j].eventTime {
				return sorted[i].eventTime < sorted[j].eventTime
			}
			return sorted[i].arrivalSeq < sorted[j].arrivalSeq
		})
		return []dataflow.Update[openClose, dataflow.IntDiff]{{
			Value: openClose{open: sorted[0].price, close: sorted[len(sorted)-1].price},
			Diff:  1,
		}}
	})

	lowHighByKey := dataflow.Reduce(tagged, func(_ trade.WindowKey, values []dataflow.Update[tradeSample, dataflow.IntDiff]) []dataflow.Update[lowHigh, dataflow.IntDiff] {
		if len(values) == 0 {
			return nil
		}
		low, high := values[0].Value.price, values[0].Value.price
		for _, v := range values[1:] {
			if v.Value.price.LessThan(low) {
				low = v.Value.price
			}
			if v.Value.price.GreaterThan(high) {
				high = v.Value.price
			}
		}
		return []dataflow.Update[lowHigh, dataflow.IntDiff]{{Value: lowHigh{low: low, high: high}, Diff: 1}}
	})

	joined := dataflow.Join(openCloseByKey, lowHighByKey)
	return dataflow.Map(joined, func(kv dataflow.KV[trade.WindowKey, dataflow.Joined[openClose, lowHigh]]) dataflow.KV[trade.WindowKey, ohlcRow] {
		return dataflow.KV[trade.WindowKey, ohlcRow]{
			Key: kv.Key,
			Value: ohlcRow{
				open:  kv.Value.Left.open,
				close: kv.Value.Left.close,
				low:   kv.Value.Right.low,
				high:  kv.Value.Right.high,
			},
		}
	})
}

type ohlcRow struct {
	open, high, low, close money.Decimal
}

// reduceValueVolume explodes each live trade into its (price*volume, volume)
// contribution and consolidates by window key.
func (p *Pipeline) reduceValueVolume(keyed dataflow.Collection[dataflow.KV[trade.WindowKey, trade.Trade], dataflow.IntDiff]) dataflow.Collection[trade.WindowKey, dataflow.WeightedDiff] {
	exploded := dataflow.Explode(keyed, func(kv dataflow.KV[trade.WindowKey, trade.Trade]) dataflow.WeightedDiff {
		return dataflow.WeightedDiff{ValueSum: kv.Value.Price.Mul(kv.Value.Volume), VolumeSum: kv.Value.Volume}
	})
	return dataflow.Consolidate(dataflow.Map(exploded, func(kv dataflow.KV[trade.WindowKey, trade.Trade]) trade.WindowKey { return kv.Key }))
}

// countByKey specializes Consolidate to plain keys, paralleling Count's
// (key, count) shape for a collection that was never wrapped in KV.
func countByKey(c dataflow.Collection[trade.WindowKey, dataflow.IntDiff]) dataflow.Collection[dataflow.KV[trade.WindowKey, int64], dataflow.IntDiff] {
	consolidated := dataflow.Consolidate(c)
	out := make([]dataflow.Update[dataflow.KV[trade.WindowKey, int64], dataflow.IntDiff], 0, len(consolidated.Updates))
	for _, u := range consolidated.Updates {
		if u.Diff <= 0 {
			continue
		}
		out = append(out, dataflow.Update[dataflow.KV[trade.WindowKey, int64], dataflow.IntDiff]{
			Value: dataflow.KV[trade.WindowKey, int64]{Key: u.Value, Value: int64(u.Diff)},
			Diff:  1,
		})
	}
	return dataflow.Collection[dataflow.KV[trade.WindowKey, int64], dataflow.IntDiff]{Time: consolidated.Time, Updates: out}
}

// combineStats merges the three independently-derived per-key aggregates
// into a Bar. Each input carries a different diff algebra (WeightedDiff for
// vv, IntDiff for count and ohlc), so this is a dedicated typed merge
// rather than dataflow.Join: a true product-of-diffs join does not make
// sense across differing diff types. Only keys present in all three, with a
// positive count and a non-zero volume sum, produce a row (spec.md §4.4
// edge-case policy: zero-volume windows are suppressed).
func (p *Pipeline) combineStats(
	ohlc dataflow.Collection[dataflow.KV[trade.WindowKey, ohlcRow], dataflow.IntDiff],
	vv dataflow.Collection[trade.WindowKey, dataflow.WeightedDiff],
	count dataflow.Collection[dataflow.KV[trade.WindowKey, int64], dataflow.IntDiff],
) dataflow.Collection[dataflow.KV[trade.WindowKey, Bar], dataflow.IntDiff] {
	vvByKey := make(map[trade.WindowKey]dataflow.WeightedDiff, len(vv.Updates))
	for _, u := range vv.Updates {
		vvByKey[u.Value] = u.Diff
	}
	countByKeyMap := make(map[trade.WindowKey]int64, len(count.Updates))
	for _, u := range count.Updates {
		countByKeyMap[u.Value.Key] = u.Value.Value
	}

	var t time.Duration
	if ohlc.Time > t {
		t = ohlc.Time
	}

	out := make([]dataflow.Update[dataflow.KV[trade.WindowKey, Bar], dataflow.IntDiff], 0, len(ohlc.Updates))
	for _, u := range ohlc.Updates {
		key := u.Value.Key
		n, ok := countByKeyMap[key]
		if !ok || n < 1 {
			continue
		}
		w, ok := vvByKey[key]
		if !ok || w.VolumeSum.IsZero() {
			continue
		}
		row := u.Value.Value
		out = append(out, dataflow.Update[dataflow.KV[trade.WindowKey, Bar], dataflow.IntDiff]{
			Value: dataflow.KV[trade.WindowKey, Bar]{
				Key: key,
				Value: Bar{
					Open: row.open, High: row.high, Low: row.low, Close: row.close,
					ValueSum: w.ValueSum, VolumeSum: w.VolumeSum,
					TradeCount:     n,
					LastUpdateTime: t,
				},
			},
			Diff: 1,
		})
	}
	return dataflow.Collection[dataflow.KV[trade.WindowKey, Bar], dataflow.IntDiff]{Time: t, Updates: out}
}
