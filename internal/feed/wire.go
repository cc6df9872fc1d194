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

// EventType discriminates the "ev" field every message on the wire carries.
type EventType string

const (
	EventTypeStockTrade  EventType = "T"
	EventTypeCryptoTrade EventType = "XT"
	EventTypeStatus      EventType = "status"
)

// StatusUpdate reports session-level events (connection, auth, subscribe
// acknowledgement) rather than trade data.
type StatusUpdate struct {
	Ev      EventType `json:"ev"`
	Status  string    `json:"status"`
	Message string    `json:"message"`
}

// StockTrade is one equity trade as delivered on the wire. Fields and their
// single-letter names follow the upstream feed's convention; see
// stockTradeToTrade for how these get normalized into trade.Trade.
type StockTrade struct {
	Ev         EventType `json:"ev"`
	Symbol     string    `json:"sym"`
	ExchangeID uint32    `json:"x"`
	Tape       uint32    `json:"z"`
	Price      string    `json:"p"`
	Size       uint32    `json:"s"`
	Conditions []uint32  `json:"c"`
	TimestampNs int64    `json:"t"` // nanoseconds since epoch
}

// CryptoTrade is one crypto trade as delivered on the wire. The feed uses
// millisecond timestamps for crypto pairs, unlike the nanosecond stock feed.
type CryptoTrade struct {
	Ev          EventType `json:"ev"`
	Pair        string    `json:"pair"`
	Price       string    `json:"p"`
	Size        string    `json:"s"`
	Conditions  []uint32  `json:"c"`
	ExchangeID  uint32    `json:"x"`
	ReceivedNs  int64     `json:"r"`
	TimestampMs int64     `json:"t"` // milliseconds since epoch
}

// ActionType names the outbound control messages this client sends.
type ActionType string

const (
	ActionAuth      ActionType = "auth"
	ActionSubscribe ActionType = "subscribe"
)

// Action is an outbound control frame: authenticate, or subscribe to one or
// more channels.
type Action struct {
	Action ActionType `json:"action"`
	Params string     `json:"params"`
}
