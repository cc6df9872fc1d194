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

// Package timecontroller owns the engine's logical input time and the
// flush/step loop that drives internal/bars.Pipeline forward, following the
// same watermark-driven shape as a reorder-buffer flush loop: accumulate
// arrivals for FlushFrequency, then advance the frontier and step once.
package timecontroller

import (
	"time"

	"github.com/gurre/barengine/internal/bars"
	"github.com/gurre/barengine/internal/trade"
)

// Clock returns the current wall-clock time. Production code uses
// time.Now; tests inject a deterministic fake so the pipeline's output is
// reproducible without sleeping.
type Clock func() time.Time

// Controller drives Pipeline.Step on a fixed cadence and forwards every
// ready StatsUpdate to Gate.OnUpdate, then ticks the gate so closed windows
// reach the sink.
type Controller struct {
	clock          Clock
	flushFrequency time.Duration
	pipeline       *bars.Pipeline
	gate           *bars.Gate
	sink           bars.Sink

	inputTime time.Duration
	buffered  []trade.Trade
}

// New constructs a Controller. clock defaults to time.Now if nil.
func New(clock Clock, flushFrequency time.Duration, pipeline *bars.Pipeline, gate *bars.Gate, sink bars.Sink) *Controller {
	if clock == nil {
		clock = time.Now
	}
	if flushFrequency <= 0 {
		panic("timecontroller: flush frequency must be positive")
	}
	return &Controller{
		clock:          clock,
		flushFrequency: flushFrequency,
		pipeline:       pipeline,
		gate:           gate,
		sink:           sink,
	}
}

// Ingest buffers a single trade for the next flush; it never blocks and
// never steps the engine directly, so a burst of trades between flushes
// costs one allocation of slice growth, not one engine step each.
func (c *Controller) Ingest(t trade.Trade) {
	c.buffered = append(c.buffered, t)
}

// now returns the current logical time as milliseconds-resolution
// time.Duration since the Unix epoch, matching internal/trade.Trade's
// EventTime convention.
func (c *Controller) now() time.Duration {
	return time.Duration(c.clock().UnixMilli()) * time.Millisecond
}

// Flush advances input_time to the current clock reading, steps the
// pipeline with whatever trades were buffered since the last flush,
// forwards ready stats to the gate, and ticks the gate so closed windows
// reach the sink. Returns the number of buffered trades handed to the
// pipeline this flush, including any the pipeline drops as too late.
func (c *Controller) Flush() int {
	wall := c.now()
	if wall > c.inputTime {
		c.inputTime = wall
	}

	batch := c.buffered
	c.buffered = nil

	ready := c.pipeline.Step(c.inputTime, batch)
	for _, su := range ready {
		c.gate.OnUpdate(su)
	}
	c.gate.TickInto(c.inputTime, c.sink)

	return len(batch)
}

// Run blocks, calling Flush every FlushFrequency, until stop is closed.
// Run is the production entry point (see cmd/barengine); tests call Flush
// directly against a fake clock instead, to avoid depending on wall-clock
// sleeps.
func (c *Controller) Run(stop <-chan struct{}) {
	ticker := time.NewTicker(c.flushFrequency)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			c.Flush()
		}
	}
}

// InputTime reports the controller's current logical input time.
func (c *Controller) InputTime() time.Duration {
	return c.inputTime
}

// Pending reports how many trades are buffered, awaiting the next flush.
func (c *Controller) Pending() int {
	return len(c.buffered)
}

// Gate returns the emission gate this controller drives, for callers (the
// operator console) that need read-only visibility into held-back windows.
func (c *Controller) Gate() *bars.Gate {
	return c.gate
}
