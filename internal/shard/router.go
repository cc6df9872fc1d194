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

// Package shard assigns each symbol to one of N worker pipelines using
// rendezvous (highest random weight) hashing, so that adding or removing a
// worker reshuffles the minimum possible number of symbol assignments
// rather than the full keyspace a simple modulo hash would churn.
package shard

import (
	"strconv"

	"github.com/dgryski/go-rendezvous"
)

// Router assigns symbols to worker indices [0, N).
type Router struct {
	rdv *rendezvous.Rendezvous
	n   int
}

// NewRouter constructs a Router over n workers. Panics if n < 1.
func NewRouter(n int) *Router {
	if n < 1 {
		panic("shard: worker count must be >= 1")
	}
	nodes := make([]string, n)
	for i := range nodes {
		nodes[i] = strconv.Itoa(i)
	}
	return &Router{
		rdv: rendezvous.New(nodes, hash),
		n:   n,
	}
}

// WorkerFor returns the worker index responsible for symbol.
func (r *Router) WorkerFor(symbol string) int {
	node := r.rdv.Lookup(symbol)
	idx, err := strconv.Atoi(node)
	if err != nil {
		// rendezvous.Lookup only ever returns one of the node names we
		// registered, so this can't happen; fall back to shard 0 rather
		// than propagating an error from a function with no error return.
		return 0
	}
	return idx
}

// WorkerCount reports N.
func (r *Router) WorkerCount() int { return r.n }

func hash(s string) uint64 {
	var h uint64 = 14695981039346656037 // FNV-1a offset basis
	for i := 0; i < len(s); i++ {
		h ^= uint64(s[i])
		h *= 1099511628211 // FNV-1a prime
	}
	return h
}
