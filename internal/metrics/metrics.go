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

// Package metrics exposes the engine's Prometheus counters and gauges:
// global-only series, no per-symbol label cardinality, following the
// churn telemetry package's posture of cheap hot-path observability.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	TradesIngestedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "barengine_trades_ingested_total",
		Help: "Total trades accepted from the feed into the ingress queue",
	})
	TradesRejectedLateTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "barengine_trades_rejected_late_total",
		Help: "Total trades dropped at insertion because their window had already aged past retention",
	})
	BarsEmittedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "barengine_bars_emitted_total",
		Help: "Total bars delivered to the sink by the emission gate",
	})
	RetentionEvictionsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "barengine_retention_evictions_total",
		Help: "Total trades retracted from the live set by the retention feedback loop",
	})
	FrontierLagSeconds = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "barengine_frontier_lag_seconds",
		Help: "Wall-clock seconds between input_time and the engine's output frontier",
	})
	GatePendingWindows = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "barengine_gate_pending_windows",
		Help: "Number of windows currently held in the emission gate awaiting closure",
	})
	IngressQueueDepth = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "barengine_ingress_queue_depth",
		Help: "Current number of trades buffered in the ingress channel",
	})
)

func init() {
	prometheus.MustRegister(
		TradesIngestedTotal,
		TradesRejectedLateTotal,
		BarsEmittedTotal,
		RetentionEvictionsTotal,
		FrontierLagSeconds,
		GatePendingWindows,
		IngressQueueDepth,
	)
}

// ExposeHTTP starts a background HTTP server serving /metrics on addr. It
// does not block; a failed listener is logged by the returned error channel
// rather than crashing the process, since metrics are observability, not a
// load-bearing dependency of the aggregation pipeline.
func ExposeHTTP(addr string) <-chan error {
	errCh := make(chan error, 1)
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	server := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		errCh <- server.ListenAndServe()
	}()
	return errCh
}
