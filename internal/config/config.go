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

// Package config loads the engine's runtime configuration from a .env file
// (if present) and the process environment, following the teacher's plain
// Config-struct-plus-constructor convention rather than a flag/viper
// hierarchy.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds every tunable the engine needs at startup.
type Config struct {
	FeedURL            string
	ApiKey             string
	Symbols            []string
	BarLength          time.Duration
	Retention          time.Duration
	GracePeriod        time.Duration
	FlushFrequency     time.Duration
	InputQueueCapacity int
	WorkerCount        int
	RecentTradeCapacity int
	SqlitePath         string
	MetricsAddr        string
}

// Load reads .env (if it exists; a missing file is not an error) then
// resolves every field from the environment, applying the defaults a
// development run needs when a variable is unset.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return Config{}, fmt.Errorf("config: load .env: %w", err)
	}

	cfg := Config{
		FeedURL:             getString("BARENGINE_FEED_URL", "wss://socket.polygon.io/crypto"),
		ApiKey:              getString("BARENGINE_API_KEY", ""),
		Symbols:             getStringSlice("BARENGINE_SYMBOLS", []string{"XT.BTC-USD"}),
		SqlitePath:          getString("BARENGINE_SQLITE_PATH", "barengine.db"),
		MetricsAddr:         getString("BARENGINE_METRICS_ADDR", ":9090"),
		InputQueueCapacity:  getInt("BARENGINE_INPUT_QUEUE_CAPACITY", 10_000),
		WorkerCount:         getInt("BARENGINE_WORKER_COUNT", 1),
		RecentTradeCapacity: getInt("BARENGINE_RECENT_TRADE_CAPACITY", 10_000),
	}

	var err error
	if cfg.BarLength, err = getDuration("BARENGINE_BAR_LENGTH", time.Minute); err != nil {
		return Config{}, err
	}
	if cfg.Retention, err = getDuration("BARENGINE_RETENTION", 15*time.Minute); err != nil {
		return Config{}, err
	}
	if cfg.GracePeriod, err = getDuration("BARENGINE_GRACE_PERIOD", 5*time.Second); err != nil {
		return Config{}, err
	}
	if cfg.FlushFrequency, err = getDuration("BARENGINE_FLUSH_FREQUENCY", 250*time.Millisecond); err != nil {
		return Config{}, err
	}

	if cfg.WorkerCount < 1 {
		return Config{}, fmt.Errorf("config: BARENGINE_WORKER_COUNT must be >= 1, got %d", cfg.WorkerCount)
	}
	return cfg, nil
}

func getString(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getStringSlice(key string, def []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func getInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func getDuration(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("config: %s=%q: %w", key, v, err)
	}
	return d, nil
}
