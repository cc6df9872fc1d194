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
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/chzyer/readline"
	"github.com/gurre/barengine/internal/bars"
	"github.com/gurre/barengine/internal/timecontroller"
	"github.com/gurre/barengine/internal/trade"
)

// Console is the interactive operator REPL: it shows engine state (pending
// gate windows, recent trades, ingress depth) but never originates trades
// or mutates the pipeline, since this system is a read path over a live
// feed, not an order-entry terminal.
type Console struct {
	Cache      *RecentTradeCache
	Ingress    *trade.Ingress
	Gate       *bars.Gate
	Controller *timecontroller.Controller
}

// Run blocks serving the REPL on stdin until the user exits or EOF.
func (c *Console) Run() {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "barengine> ",
		HistoryFile:     "/tmp/barengine_history",
		AutoComplete: readline.NewPrefixCompleter(
			readline.PcItem("recent"),
			readline.PcItem("bar"),
			readline.PcItem("status"),
			readline.PcItem("help"),
			readline.PcItem("exit"),
		),
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		log.Printf("repl: failed to start readline: %v", err)
		return
	}
	defer rl.Close()

	c.displayHelp()
	for {
		line, err := rl.Readline()
		if err != nil {
			return
		}
		parts := strings.Fields(strings.TrimSpace(line))
		if len(parts) == 0 {
			continue
		}
		switch strings.ToLower(parts[0]) {
		case "recent":
			c.handleRecent(parts)
		case "bar":
			c.handleBar(parts)
		case "status":
			c.handleStatus()
		case "help":
			c.displayHelp()
		case "exit", "quit":
			return
		default:
			fmt.Println("unknown command, type 'help' for available commands")
		}
	}
}

func (c *Console) handleRecent(parts []string) {
	if len(parts) < 2 {
		fmt.Println("usage: recent <symbol> [limit]")
		return
	}
	limit := 20
	if len(parts) >= 3 {
		if n, err := strconv.Atoi(parts[2]); err == nil {
			limit = n
		}
	}
	trades := c.Cache.Recent(parts[1], limit)
	if len(trades) == 0 {
		fmt.Println("no recent trades for", parts[1])
		return
	}
	for _, t := range trades {
		fmt.Printf("%-10s  %-20s  price=%-12s volume=%-12s\n", t.Symbol, t.EventTime, t.Price, t.Volume)
	}
}

func (c *Console) handleBar(parts []string) {
	if len(parts) < 3 {
		fmt.Println("usage: bar <symbol> <window_start_unix_ms>")
		return
	}
	ms, err := strconv.ParseInt(parts[2], 10, 64)
	if err != nil {
		fmt.Println("invalid window_start:", parts[2])
		return
	}
	key := trade.WindowKey{Symbol: parts[1], WindowStart: time.Duration(ms) * time.Millisecond}
	bar, ok := c.Gate.Peek(key)
	if !ok {
		fmt.Println("no open bar for that window")
		return
	}
	fmt.Printf("open=%s high=%s low=%s close=%s volume=%s trades=%d\n",
		bar.Open, bar.High, bar.Low, bar.Close, bar.VolumeSum, bar.TradeCount)
}

func (c *Console) handleStatus() {
	fmt.Printf("ingress pending=%d  recent-cache size=%d total=%d  gate pending windows=%d  input time=%s\n",
		c.Ingress.Len(), c.Cache.Len(), c.Cache.Total(), c.Gate.Pending(), c.Controller.InputTime())
}

func (c *Console) displayHelp() {
	fmt.Println(`Commands:
  recent <symbol> [limit]            show recent trades for a symbol (default limit 20)
  bar <symbol> <window_start_ms>     show the in-memory bar for a still-open window
  status                              show ingress, cache, and gate counters
  help                                show this message
  exit                                quit`)
}
