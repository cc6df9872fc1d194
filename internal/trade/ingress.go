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

package trade

// Ingress is a bounded single-producer/single-consumer queue of Trade
// values. The producer (the feed client) calls Send, which blocks when the
// queue is full rather than dropping: per spec.md §4.2, backpressure must
// propagate to the producer, never surface as data loss to the core.
//
// HOT PATH: Send and a receive on C() happen once per trade; both are a single
// unbuffered-free channel operation.
type Ingress struct {
	ch chan Trade
}

// DefaultCapacity is the minimum bound spec.md §4.2 requires.
const DefaultCapacity = 10_000

// NewIngress allocates a bounded channel of the given capacity. Capacity
// below DefaultCapacity is still honored (callers may have a reason to run
// smaller in tests) but production wiring should not go below it.
func NewIngress(capacity int) *Ingress {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Ingress{ch: make(chan Trade, capacity)}
}

// Send enqueues a trade, blocking if the queue is full. Never drops.
func (ing *Ingress) Send(t Trade) {
	ing.ch <- t
}

// TrySend enqueues a trade without blocking, reporting whether it was
// accepted. Used by callers that prefer to apply their own backpressure
// policy above the adapter (e.g. to update an OnDroppedTick-style metric)
// instead of blocking the read loop.
func (ing *Ingress) TrySend(t Trade) bool {
	select {
	case ing.ch <- t:
		return true
	default:
		return false
	}
}

// Close signals end-of-stream to the consumer. Must only be called by the
// producer, once, after it has stopped sending.
func (ing *Ingress) Close() {
	close(ing.ch)
}

// C exposes the receive side for the single consumer (the time
// controller's flush loop).
func (ing *Ingress) C() <-chan Trade {
	return ing.ch
}

// Len reports the number of trades currently queued, for observability.
func (ing *Ingress) Len() int {
	return len(ing.ch)
}
