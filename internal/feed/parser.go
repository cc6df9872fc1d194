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

package feed

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/gurre/barengine/internal/money"
	"github.com/gurre/barengine/internal/trade"
)

// envelope peeks at the "ev" discriminator shared by every message shape on
// the wire, without paying to decode the rest of the payload twice.
type envelope struct {
	Ev EventType `json:"ev"`
}

// ParseFrame decodes one websocket text frame, which the feed always
// delivers as a JSON array of heterogeneous messages. It returns the
// decoded trades (normalized to internal/trade.Trade) and any status
// updates found in the same frame; a malformed individual message is
// skipped rather than failing the whole frame, since one bad entry in a
// batch must not drop every other trade in it.
func ParseFrame(raw []byte) ([]trade.Trade, []StatusUpdate, error) {
	var entries []json.RawMessage
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, nil, fmt.Errorf("feed: decode frame: %w", err)
	}

	trades := make([]trade.Trade, 0, len(entries))
	var statuses []StatusUpdate

	for _, entry := range entries {
		var env envelope
		if err := json.Unmarshal(entry, &env); err != nil {
			continue
		}
		switch env.Ev {
		case EventTypeStockTrade:
			var st StockTrade
			if err := json.Unmarshal(entry, &st); err != nil {
				continue
			}
			t, err := stockTradeToTrade(st)
			if err != nil {
				continue
			}
			trades = append(trades, t)
		case EventTypeCryptoTrade:
			var ct CryptoTrade
			if err := json.Unmarshal(entry, &ct); err != nil {
				continue
			}
			t, err := cryptoTradeToTrade(ct)
			if err != nil {
				continue
			}
			trades = append(trades, t)
		default:
			var su StatusUpdate
			if err := json.Unmarshal(entry, &su); err == nil && su.Status != "" {
				statuses = append(statuses, su)
			}
		}
	}
	return trades, statuses, nil
}

func stockTradeToTrade(st StockTrade) (trade.Trade, error) {
	price, err := money.Parse(st.Price)
	if err != nil {
		return trade.Trade{}, fmt.Errorf("feed: stock trade price %q: %w", st.Price, err)
	}
	conditions, count := toConditions(st.Conditions)
	return trade.Trade{
		EventTime:      time.Duration(st.TimestampNs/1_000_000) * time.Millisecond,
		Price:          price,
		Volume:         money.New(int64(st.Size), 0),
		Symbol:         st.Symbol,
		Exchange:       st.ExchangeID,
		Conditions:     conditions,
		ConditionCount: count,
	}, nil
}

func cryptoTradeToTrade(ct CryptoTrade) (trade.Trade, error) {
	price, err := money.Parse(ct.Price)
	if err != nil {
		return trade.Trade{}, fmt.Errorf("feed: crypto trade price %q: %w", ct.Price, err)
	}
	volume, err := money.Parse(ct.Size)
	if err != nil {
		return trade.Trade{}, fmt.Errorf("feed: crypto trade size %q: %w", ct.Size, err)
	}
	conditions, count := toConditions(ct.Conditions)
	return trade.Trade{
		EventTime:      time.Duration(ct.TimestampMs) * time.Millisecond,
		Price:          price,
		Volume:         volume,
		Symbol:         ct.Pair,
		Exchange:       ct.ExchangeID,
		Conditions:     conditions,
		ConditionCount: count,
	}, nil
}

// toConditions copies the wire's variable-length condition slice into
// Trade's fixed-size array, truncating anything beyond trade.MaxConditions
// rather than failing the whole trade over it.
func toConditions(raw []uint32) (conditions [trade.MaxConditions]uint32, count uint8) {
	n := len(raw)
	if n > trade.MaxConditions {
		n = trade.MaxConditions
	}
	copy(conditions[:], raw[:n])
	return conditions, uint8(n)
}
