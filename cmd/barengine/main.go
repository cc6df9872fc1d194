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

package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gurre/barengine/internal/bars"
	"github.com/gurre/barengine/internal/config"
	"github.com/gurre/barengine/internal/feed"
	"github.com/gurre/barengine/internal/metrics"
	"github.com/gurre/barengine/internal/shard"
	"github.com/gurre/barengine/internal/store"
	"github.com/gurre/barengine/internal/timecontroller"
	"github.com/gurre/barengine/internal/trade"
)

// worker owns one shard's pipeline, gate, controller, and the subset of the
// ingress feeding it.
type worker struct {
	ingress    *trade.Ingress
	controller *timecontroller.Controller
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	barCfg := bars.Config{BarLength: cfg.BarLength, Retention: cfg.Retention, GracePeriod: cfg.GracePeriod}

	db, err := store.Open(cfg.SqlitePath)
	if err != nil {
		log.Fatalf("store: %v", err)
	}
	defer db.Close()

	router := shard.NewRouter(cfg.WorkerCount)
	workers := make([]*worker, cfg.WorkerCount)
	for i := range workers {
		ingress := trade.NewIngress(cfg.InputQueueCapacity)
		sink := db.Sink(func() int64 { return time.Now().UnixMilli() })
		gate := bars.NewGate(barCfg)
		ctrl := timecontroller.New(time.Now, cfg.FlushFrequency, bars.NewPipeline(barCfg), gate, func(key trade.WindowKey, bar bars.Bar) {
			metrics.BarsEmittedTotal.Inc()
			sink(key, bar)
		})
		workers[i] = &worker{ingress: ingress, controller: ctrl}
	}

	cache := feed.NewRecentTradeCache(cfg.RecentTradeCapacity)
	fanIn := trade.NewIngress(cfg.InputQueueCapacity)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go routeToShards(ctx, fanIn, router, workers)
	go runFlushLoops(ctx, workers)

	client := feed.NewClient(feed.Config{
		URL:      cfg.FeedURL,
		ApiKey:   cfg.ApiKey,
		Channels: cfg.Symbols,
	}, fanIn, cache)

	go func() {
		if err := client.Run(ctx); err != nil && ctx.Err() == nil {
			log.Printf("feed: connection ended: %v", err)
			cancel()
		}
	}()

	if errCh := metrics.ExposeHTTP(cfg.MetricsAddr); errCh != nil {
		go func() {
			if err := <-errCh; err != nil {
				log.Printf("metrics: http server: %v", err)
			}
		}()
	}

	// The console only inspects shard 0's gate and controller; with
	// WORKER_COUNT=1 (the default) this is the whole picture. Other shards
	// are not visible here, and /metrics only reports process-wide totals.
	console := &feed.Console{
		Cache:      cache,
		Ingress:    fanIn,
		Gate:       workers[0].controller.Gate(),
		Controller: workers[0].controller,
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-stop
		log.Println("barengine: shutting down")
		cancel()
	}()

	console.Run()
	cancel()
}

// routeToShards drains the fan-in ingress and redistributes each trade to
// its assigned shard's ingress by symbol, via rendezvous hashing.
func routeToShards(ctx context.Context, fanIn *trade.Ingress, router *shard.Router, workers []*worker) {
	for {
		select {
		case <-ctx.Done():
			return
		case t, ok := <-fanIn.C():
			if !ok {
				return
			}
			metrics.TradesIngestedTotal.Inc()
			metrics.IngressQueueDepth.Set(float64(fanIn.Len()))
			w := workers[router.WorkerFor(t.Symbol)]
			w.ingress.Send(t)
		}
	}
}

// runFlushLoops feeds every buffered trade on each shard's ingress into its
// controller, then lets the controller's own ticker drive Flush.
func runFlushLoops(ctx context.Context, workers []*worker) {
	stop := make(chan struct{})
	go func() {
		<-ctx.Done()
		close(stop)
	}()

	for _, w := range workers {
		w := w
		go func() {
			for {
				select {
				case <-stop:
					return
				case t, ok := <-w.ingress.C():
					if !ok {
						return
					}
					w.controller.Ingest(t)
				}
			}
		}()
		go w.controller.Run(stop)
	}
}
