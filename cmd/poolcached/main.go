// Copyright 2025 Esteban Alvarez. All Rights Reserved.
//
// Created: October 2025
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Command poolcached is a tiny HTTP harness over the pool-state manager and
// its cold-storage pool cache, for manually exercising sequenced event
// application, token/pair indices, and discovery coordination without a
// live chain feed.
//
// Usage:
//
//	go run ./cmd/poolcached -cache_dir ./data -chain_id 1 -http :9191
//
//	POST /sync?pool=HEX&token0=HEX&token1=HEX&reserve0=N&reserve1=N&fee=N&seq=N&source=0
//	GET  /pool?addr=HEX         -> live pool state from the Manager
//	POST /discover?addr=HEX     -> GetOrDiscover against the cold cache (demo lookup)
//	GET  /stats                 -> Manager + Cache aggregate counters
//	GET  /metrics                -> Prometheus metrics
//	GET  /healthz                -> liveness probe
package main

import (
	"encoding/hex"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math/big"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"protov2/internal/poolcache"
	"protov2/internal/poolstate"
)

func parseAddr(s string) (poolstate.Addr, error) {
	var a poolstate.Addr
	b, err := hex.DecodeString(s)
	if err != nil {
		return a, fmt.Errorf("invalid hex address %q: %w", s, err)
	}
	if len(b) != len(a) {
		return a, fmt.Errorf("address %q: want %d bytes, got %d", s, len(a), len(b))
	}
	copy(a[:], b)
	return a, nil
}

func parseBigInt(s string) *big.Int {
	n := new(big.Int)
	if s == "" {
		return n
	}
	n.SetString(s, 10)
	return n
}

func main() {
	cacheDir := flag.String("cache_dir", "./poolcache-data", "directory for the pool cache snapshot and journal")
	chainID := flag.Uint64("chain_id", 1, "chain id this process caches pools for")
	addr := flag.String("http", ":9191", "HTTP listen address")
	journalThresh := flag.Int("journal_threshold", 1000, "pool cache: entries before a forced snapshot")
	snapshotEvery := flag.Duration("snapshot_interval", 5*time.Minute, "pool cache: time-based snapshot interval")
	discoverTimeout := flag.Duration("discover_timeout", 5*time.Second, "timeout for a waiting discovery caller")
	flag.Parse()

	// Apply sane defaults if flags are explicitly set empty/zero.
	if *cacheDir == "" {
		*cacheDir = "./poolcache-data"
	}
	if *addr == "" {
		*addr = ":9191"
	}
	if *journalThresh <= 0 {
		*journalThresh = 1000
	}
	if *snapshotEvery <= 0 {
		*snapshotEvery = 5 * time.Minute
	}
	if *discoverTimeout <= 0 {
		*discoverTimeout = 5 * time.Second
	}

	reg := prometheus.DefaultRegisterer

	cache, err := poolcache.NewCache(poolcache.Config{
		CacheDir:         *cacheDir,
		ChainID:          *chainID,
		JournalThreshold: *journalThresh,
		SnapshotInterval: *snapshotEvery,
	}, reg)
	if err != nil {
		log.Fatalf("poolcached: new cache: %v", err)
	}
	n, err := cache.Load()
	if err != nil {
		log.Fatalf("poolcached: load cache: %v", err)
	}
	log.Printf("poolcached: warmed up %d pools from %s", n, *cacheDir)
	cache.Start()
	defer cache.Stop()

	mgr := poolstate.NewManager(func(gap poolstate.GapInfo) {
		log.Printf("poolcached: sequence gap on source %d: %+v", gap.Source, gap)
	})

	http.Handle("/metrics", promhttp.Handler())
	http.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]any{"ok": true, "time": time.Now().UTC()})
	})

	http.HandleFunc("/sync", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		pool, err := parseAddr(q.Get("pool"))
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		token0, err := parseAddr(q.Get("token0"))
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		token1, err := parseAddr(q.Get("token1"))
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		fee, _ := strconv.ParseUint(q.Get("fee"), 10, 32)
		seq, _ := strconv.ParseUint(q.Get("seq"), 10, 64)
		source, _ := strconv.ParseUint(q.Get("source"), 10, 8)

		ev := poolstate.SyncEvent{
			PoolAddr:    pool,
			Token0Addr:  token0,
			Token1Addr:  token1,
			FeeTier:     uint32(fee),
			Reserve0:    parseBigInt(q.Get("reserve0")),
			Reserve1:    parseBigInt(q.Get("reserve1")),
			TimestampNs: uint64(time.Now().UnixNano()),
		}
		if err := mgr.ApplySequenced(uint8(source), seq, ev); err != nil {
			http.Error(w, err.Error(), http.StatusConflict)
			return
		}

		rec := poolcache.PoolRecord{
			PoolAddr:     [20]byte(pool),
			Token0Addr:   [20]byte(token0),
			Token1Addr:   [20]byte(token1),
			FeeTier:      uint32(fee),
			DiscoveredAt: ev.TimestampNs,
			LastSeen:     ev.TimestampNs,
		}
		_, existed := cache.Get([20]byte(pool))
		cache.Upsert(rec, !existed)

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"accepted": true, "seq": seq})
	})

	http.HandleFunc("/pool", func(w http.ResponseWriter, r *http.Request) {
		addr, err := parseAddr(r.URL.Query().Get("addr"))
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		state, ok := mgr.GetPool(addr)
		if !ok {
			http.Error(w, "pool not found", http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(state)
	})

	http.HandleFunc("/discover", func(w http.ResponseWriter, r *http.Request) {
		addr, err := parseAddr(r.URL.Query().Get("addr"))
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		// Demo lookup: manufactures a record rather than calling out to a
		// real chain RPC, just to exercise the single-flight coordination
		// path when multiple callers race on the same unseen address.
		rec, err := cache.GetOrDiscover([20]byte(addr), func(a [20]byte) (poolcache.PoolRecord, error) {
			time.Sleep(20 * time.Millisecond)
			return poolcache.PoolRecord{PoolAddr: a, DiscoveredAt: uint64(time.Now().UnixNano())}, nil
		}, *discoverTimeout)
		if err != nil {
			http.Error(w, err.Error(), http.StatusGatewayTimeout)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(rec)
	})

	http.HandleFunc("/stats", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"manager": mgr.Stats(),
			"cache":   cache.Stats(),
		})
	})

	go func() {
		log.Printf("poolcached: listening on %s", *addr)
		if err := http.ListenAndServe(*addr, nil); err != nil {
			log.Fatalf("poolcached: http: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh
}
