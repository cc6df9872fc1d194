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

// Package store provides SQLite persistence for finalized bars, with
// prepared statements initialized once and reused for every insert to
// avoid repeated SQL parsing.
package store

import (
	"database/sql"
	"fmt"
	"log"

	_ "github.com/mattn/go-sqlite3"

	"github.com/gurre/barengine/internal/bars"
	"github.com/gurre/barengine/internal/trade"
)

const schema = `
CREATE TABLE IF NOT EXISTS bars (
	symbol       TEXT    NOT NULL,
	window_start INTEGER NOT NULL,
	open         TEXT    NOT NULL,
	high         TEXT    NOT NULL,
	low          TEXT    NOT NULL,
	close        TEXT    NOT NULL,
	value_sum    TEXT    NOT NULL,
	volume_sum   TEXT    NOT NULL,
	trade_count  INTEGER NOT NULL,
	emitted_at   INTEGER NOT NULL,
	PRIMARY KEY (symbol, window_start)
);
`

const insertBarQuery = `
INSERT INTO bars (symbol, window_start, open, high, low, close, value_sum, volume_sum, trade_count, emitted_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(symbol, window_start) DO UPDATE SET
	open = excluded.open, high = excluded.high, low = excluded.low, close = excluded.close,
	value_sum = excluded.value_sum, volume_sum = excluded.volume_sum,
	trade_count = excluded.trade_count, emitted_at = excluded.emitted_at;
`

// BarStore provides SQLite storage for finalized bars, keyed by
// (symbol, window_start) the same way the gate keys its in-memory map.
type BarStore struct {
	db      *sql.DB
	stmtBar *sql.Stmt
}

// Open opens (creating if necessary) a SQLite database at dbPath and
// prepares the bar-insert statement.
func Open(dbPath string) (*BarStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_synchronous=NORMAL&_cache_size=1000")
	if err != nil {
		return nil, fmt.Errorf("store: open database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("store: init schema: %w", err)
	}
	stmt, err := db.Prepare(insertBarQuery)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("store: prepare insert: %w", err)
	}
	log.Printf("store: sqlite bar sink initialized at %s", dbPath)
	return &BarStore{db: db, stmtBar: stmt}, nil
}

// Close releases the prepared statement and the database handle.
func (s *BarStore) Close() error {
	if s.stmtBar != nil {
		_ = s.stmtBar.Close()
	}
	return s.db.Close()
}

// Save persists one finalized bar. It is safe to call from Gate.TickInto as
// a bars.Sink (see Sink below): idempotent re-emission upserts the same
// row rather than producing duplicate rows.
func (s *BarStore) Save(key trade.WindowKey, bar bars.Bar, emittedAtUnixMs int64) error {
	_, err := s.stmtBar.Exec(
		key.Symbol, key.WindowStart.Milliseconds(),
		bar.Open.String(), bar.High.String(), bar.Low.String(), bar.Close.String(),
		bar.ValueSum.String(), bar.VolumeSum.String(),
		bar.TradeCount, emittedAtUnixMs,
	)
	if err != nil {
		return fmt.Errorf("store: save bar %s@%d: %w", key.Symbol, key.WindowStart.Milliseconds(), err)
	}
	return nil
}

// Sink adapts Save to the bars.Sink signature Gate.TickInto expects,
// stamping the emission time from the given clock.
func (s *BarStore) Sink(nowUnixMs func() int64) bars.Sink {
	return func(key trade.WindowKey, bar bars.Bar) {
		if err := s.Save(key, bar, nowUnixMs()); err != nil {
			log.Printf("store: %v", err)
		}
	}
}
