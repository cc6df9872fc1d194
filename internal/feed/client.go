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
	"context"
	"fmt"
	"log"
	"time"

	"github.com/gorilla/websocket"
	"github.com/gurre/barengine/internal/trade"
)

// Config holds the connection parameters for one feed client.
type Config struct {
	URL        string
	ApiKey     string
	Channels   []string // e.g. "XT.BTC-USD", "T.AAPL"
	DialTimeout time.Duration
}

// Client owns one websocket connection to the trade feed. It authenticates,
// subscribes to the configured channels, and pushes every decoded trade
// into the ingress queue and the recent-trade cache.
//
// Client is not safe for concurrent use beyond the single Run goroutine;
// OnStatus is invoked synchronously from that goroutine.
type Client struct {
	cfg     Config
	ingress *trade.Ingress
	cache   *RecentTradeCache

	// OnStatus, if set, is called for every status frame the feed sends
	// (connection acknowledged, auth success, subscribe success). Defaults
	// to logging via the standard logger.
	OnStatus func(StatusUpdate)
}

// NewClient constructs a Client. ingress must be non-nil; cache may be nil
// to skip recent-trade tracking.
func NewClient(cfg Config, ingress *trade.Ingress, cache *RecentTradeCache) *Client {
	if cfg.DialTimeout <= 0 {
		cfg.DialTimeout = 10 * time.Second
	}
	return &Client{cfg: cfg, ingress: ingress, cache: cache}
}

// Run dials the feed, authenticates, subscribes, and reads frames until ctx
// is canceled or the connection drops. It does not reconnect; cmd/barengine
// does not retry either, but cancels the whole process when Run returns an
// error, following the teacher's OnLogout-triggered-exit posture rather
// than a silent retry loop that could mask a persistent auth failure.
func (c *Client) Run(ctx context.Context) error {
	dialer := websocket.Dialer{HandshakeTimeout: c.cfg.DialTimeout}
	conn, _, err := dialer.DialContext(ctx, c.cfg.URL, nil)
	if err != nil {
		return fmt.Errorf("feed: dial %s: %w", c.cfg.URL, err)
	}
	defer conn.Close()

	log.Printf("feed: connected to %s", c.cfg.URL)

	if err := c.authenticate(conn); err != nil {
		return err
	}
	if err := c.subscribe(conn); err != nil {
		return err
	}

	go func() {
		<-ctx.Done()
		conn.Close()
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("feed: read: %w", err)
		}
		c.handleFrame(data)
	}
}

func (c *Client) authenticate(conn *websocket.Conn) error {
	return conn.WriteJSON(Action{Action: ActionAuth, Params: c.cfg.ApiKey})
}

func (c *Client) subscribe(conn *websocket.Conn) error {
	for _, ch := range c.cfg.Channels {
		if err := conn.WriteJSON(Action{Action: ActionSubscribe, Params: ch}); err != nil {
			return fmt.Errorf("feed: subscribe %s: %w", ch, err)
		}
	}
	return nil
}

func (c *Client) handleFrame(data []byte) {
	trades, statuses, err := ParseFrame(data)
	if err != nil {
		log.Printf("feed: dropping unparseable frame: %v", err)
		return
	}
	for _, t := range trades {
		c.ingress.Send(t)
		if c.cache != nil {
			c.cache.Add(t)
		}
	}
	for _, su := range statuses {
		if c.OnStatus != nil {
			c.OnStatus(su)
		} else {
			log.Printf("feed: status %s: %s", su.Status, su.Message)
		}
	}
}
