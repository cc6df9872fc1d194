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

import "time"

// Probe tracks the engine's output frontier: the minimum logical time of
// any update the engine has not yet finalized. The time controller steps
// the engine forward until Probe.LessThan(inputTime) is false.
type Probe struct {
	frontier time.Duration
}

// Advance moves the frontier forward to t if t is later than the current
// frontier. The frontier never decreases.
func (p *Probe) Advance(t time.Duration) {
	if t > p.frontier {
		p.frontier = t
	}
}

// LessThan reports whether the probe's frontier is still behind t, i.e.
// whether the engine has more catching up to do before t is considered
// settled.
func (p *Probe) LessThan(t time.Duration) bool {
	return p.frontier < t
}

// Frontier returns the current frontier value.
func (p *Probe) Frontier() time.Duration {
	return p.frontier
}
