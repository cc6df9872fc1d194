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

// Package feed connects to a trade websocket feed, decodes it into
// internal/trade.Trade records, and keeps a small ring-buffer cache of
// recently-seen trades for the operator console (see repl.go) to inspect
// independently of the aggregation pipeline.
package feed

import (
	"sync"

	"github.com/gurre/barengine/internal/trade"
)

// RecentTradeCache is a fixed-capacity ring buffer of the most recently
// observed trades, read-mostly and safe for concurrent use. It exists
// purely for operator visibility (the "recent" REPL command); it is not on
// the aggregation hot path and the pipeline never reads from it.
//
// Ring buffer layout mirrors a circular queue: head is the oldest element's
// index, count tracks how many slots hold valid data, and inserting past
// capacity overwrites the oldest entry with zero allocations.
type RecentTradeCache struct {
	mu      sync.RWMutex
	trades  []trade.Trade
	head    int
	count   int
	maxSize int
	total   int64
}

// NewRecentTradeCache allocates a cache holding up to maxSize trades.
func NewRecentTradeCache(maxSize int) *RecentTradeCache {
	if maxSize <= 0 {
		maxSize = 1000
	}
	return &RecentTradeCache{
		trades:  make([]trade.Trade, maxSize),
		maxSize: maxSize,
	}
}

// Add inserts t, evicting the oldest entry if the cache is full. O(1),
// zero allocations.
func (c *RecentTradeCache) Add(t trade.Trade) {
	c.mu.Lock()
	defer c.mu.Unlock()

	writeIdx := (c.head + c.count) % c.maxSize
	c.trades[writeIdx] = t
	if c.count < c.maxSize {
		c.count++
	} else {
		c.head = (c.head + 1) % c.maxSize
	}
	c.total++
}

// Recent returns up to limit trades matching symbol, oldest first, using a
// two-pass scan so the result is allocated exactly once regardless of how
// much of the ring buffer must be scanned.
func (c *RecentTradeCache) Recent(symbol string, limit int) []trade.Trade {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.count == 0 || limit <= 0 {
		return nil
	}

	matchCount := 0
	for i := 0; i < c.count && matchCount < limit; i++ {
		idx := (c.head + c.count - 1 - i) % c.maxSize
		if c.trades[idx].Symbol == symbol {
			matchCount++
		}
	}
	if matchCount == 0 {
		return nil
	}

	out := make([]trade.Trade, matchCount)
	resultIdx := matchCount - 1
	for i := 0; i < c.count && resultIdx >= 0; i++ {
		idx := (c.head + c.count - 1 - i) % c.maxSize
		if c.trades[idx].Symbol == symbol {
			out[resultIdx] = c.trades[idx]
			resultIdx--
		}
	}
	return out
}

// Total reports the number of trades ever added, including evicted ones.
func (c *RecentTradeCache) Total() int64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.total
}

// Len reports how many trades currently occupy the buffer.
func (c *RecentTradeCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.count
}
