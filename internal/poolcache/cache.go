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

package poolcache

import (
	"bufio"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Config configures one chain's pool cache.
type Config struct {
	CacheDir string
	ChainID  uint64

	// UpdateBuffer sizes the writer's inbound channel; sends beyond this
	// depth are dropped (spec doesn't mandate backpressure here, and the
	// teacher's relay/sink code consistently prefers drop-on-full over
	// blocking a hot path on a background writer).
	UpdateBuffer int
	// JournalThreshold triggers a snapshot once this many journal entries
	// have accumulated (spec §4.4: "e.g., 1 000").
	JournalThreshold int
	// SnapshotInterval triggers a snapshot after this much time has
	// elapsed since the last one, regardless of journal size (spec §4.4:
	// "5 min").
	SnapshotInterval time.Duration
}

func (c Config) withDefaults() Config {
	if c.UpdateBuffer <= 0 {
		c.UpdateBuffer = 10_000
	}
	if c.JournalThreshold <= 0 {
		c.JournalThreshold = 1000
	}
	if c.SnapshotInterval <= 0 {
		c.SnapshotInterval = 5 * time.Minute
	}
	return c
}

type cacheUpdate struct {
	op        JournalOp
	record    PoolRecord
	flushDone chan struct{}
}

// Cache is the in-memory hot path plus cold-storage persistence for
// discovered pools (spec §4.4). Reads never touch disk; writes update the
// in-memory map synchronously and are persisted asynchronously by a single
// background writer goroutine.
type Cache struct {
	cfg     Config
	metrics *Metrics

	pools sync.Map // [20]byte -> PoolRecord

	discoveryInProgress sync.Map // [20]byte -> struct{}
	discoveryWaiters    sync.Map // [20]byte -> chan struct{}

	updates chan cacheUpdate
	stopCh  chan struct{}
	wg      sync.WaitGroup
	stopped atomic.Bool

	cacheHits   atomic.Uint64
	cacheMisses atomic.Uint64
}

// NewCache builds a Cache; it does not start the background writer, which
// Start launches. Call Load before Start in a cold-restart path to warm up
// from an existing snapshot+journal.
func NewCache(cfg Config, reg prometheus.Registerer) (*Cache, error) {
	cfg = cfg.withDefaults()
	if err := os.MkdirAll(cfg.CacheDir, 0o755); err != nil {
		return nil, fmt.Errorf("poolcache: mkdir %s: %w", cfg.CacheDir, err)
	}
	c := &Cache{
		cfg:     cfg,
		metrics: NewMetrics(reg, cfg.ChainID),
		updates: make(chan cacheUpdate, cfg.UpdateBuffer),
		stopCh:  make(chan struct{}),
	}
	return c, nil
}

func (c *Cache) snapshotPath() string {
	return filepath.Join(c.cfg.CacheDir, fmt.Sprintf("chain_%d_pool_cache.tlv", c.cfg.ChainID))
}

func (c *Cache) journalPath() string {
	return filepath.Join(c.cfg.CacheDir, fmt.Sprintf("chain_%d_pool_cache.journal", c.cfg.ChainID))
}

// Load reads the snapshot file (if any), validates its header, and replays
// the journal atop it into the in-memory map. A missing or invalid
// snapshot is treated as an empty cache (spec §4.4 "never crash").
func (c *Cache) Load() (int, error) {
	pools := make(map[[20]byte]PoolRecord)

	if data, err := os.ReadFile(c.snapshotPath()); err == nil {
		if n, loadErr := loadSnapshot(data, pools); loadErr != nil {
			log.Printf("poolcache: invalid snapshot, starting empty: %v", loadErr)
		} else {
			_ = n
		}
	} else if !os.IsNotExist(err) {
		return 0, fmt.Errorf("poolcache: read snapshot: %w", err)
	}

	if f, err := os.Open(c.journalPath()); err == nil {
		entries, jErr := ReadJournal(f)
		_ = f.Close()
		if jErr != nil {
			log.Printf("poolcache: journal replay stopped early: %v", jErr)
		}
		ApplyJournal(pools, entries)
	} else if !os.IsNotExist(err) {
		return 0, fmt.Errorf("poolcache: open journal: %w", err)
	}

	for addr, rec := range pools {
		c.pools.Store(addr, rec)
	}
	return len(pools), nil
}

func loadSnapshot(data []byte, out map[[20]byte]PoolRecord) (int, error) {
	if len(data) < FileHeaderSize {
		return 0, fmt.Errorf("snapshot too small for header")
	}
	header, err := FileHeaderFromBytes(data)
	if err != nil {
		return 0, err
	}
	if err := header.Validate(); err != nil {
		return 0, err
	}

	loaded := 0
	offset := FileHeaderSize
	for i := uint32(0); i < header.PoolCount; i++ {
		if offset+RecordSize > len(data) {
			break
		}
		rec, err := PoolRecordFromBytes(data[offset : offset+RecordSize])
		if err != nil {
			return loaded, err
		}
		out[rec.PoolAddr] = rec
		offset += RecordSize
		loaded++
	}
	return loaded, nil
}

// Start launches the background writer goroutine.
func (c *Cache) Start() {
	c.wg.Add(1)
	go c.writerLoop()
}

// Stop drains pending updates, writes a final snapshot, and joins the
// writer goroutine (spec §4.4 "On shutdown: drains the channel, writes a
// final snapshot, joins").
func (c *Cache) Stop() {
	if !c.stopped.CompareAndSwap(false, true) {
		return
	}
	close(c.stopCh)
	c.wg.Wait()
}

// Get returns a pool's cached record without triggering discovery.
func (c *Cache) Get(addr [20]byte) (PoolRecord, bool) {
	actual, ok := c.pools.Load(addr)
	if !ok {
		c.cacheMisses.Add(1)
		return PoolRecord{}, false
	}
	c.cacheHits.Add(1)
	return actual.(PoolRecord), true
}

// Upsert records rec in the hot map immediately and queues it for journal
// persistence. isNew distinguishes an Add from an Update journal entry;
// callers that don't track this themselves can always pass false — both
// ops replay identically.
func (c *Cache) Upsert(rec PoolRecord, isNew bool) {
	c.pools.Store(rec.PoolAddr, rec)
	op := JournalUpdate
	if isNew {
		op = JournalAdd
	}
	c.enqueue(cacheUpdate{op: op, record: rec})
}

// Delete removes a pool from the hot map and queues a tombstone entry.
func (c *Cache) Delete(addr [20]byte) {
	c.pools.Delete(addr)
	c.enqueue(cacheUpdate{op: JournalDelete, record: PoolRecord{PoolAddr: addr}})
}

func (c *Cache) enqueue(u cacheUpdate) {
	select {
	case c.updates <- u:
	default:
		c.metrics.JournalDropped.Inc()
	}
}

// ForceSnapshot requests an out-of-band flush and blocks until it
// completes or ctx-less timeout elapses.
func (c *Cache) ForceSnapshot(timeout time.Duration) error {
	done := make(chan struct{})
	select {
	case c.updates <- cacheUpdate{flushDone: done}:
	case <-time.After(timeout):
		return fmt.Errorf("poolcache: force snapshot: writer channel full")
	}
	select {
	case <-done:
		return nil
	case <-time.After(timeout):
		return fmt.Errorf("poolcache: force snapshot: timed out waiting for writer")
	}
}

// Stats mirrors the original's PoolCacheStats.
type Stats struct {
	CachedPools         int
	DiscoveriesInFlight int
	CacheHits           uint64
	CacheMisses         uint64
}

func (c *Cache) Stats() Stats {
	count := 0
	c.pools.Range(func(_, _ any) bool { count++; return true })
	inFlight := 0
	c.discoveryInProgress.Range(func(_, _ any) bool { inFlight++; return true })
	return Stats{
		CachedPools:         count,
		DiscoveriesInFlight: inFlight,
		CacheHits:           c.cacheHits.Load(),
		CacheMisses:         c.cacheMisses.Load(),
	}
}

// writerLoop is the single background goroutine that owns the journal
// file, grounded on the teacher's Worker.commitLoop shape (ticker-driven,
// select against a stop channel, final flush on stop).
func (c *Cache) writerLoop() {
	defer c.wg.Done()

	var journal *bufio.Writer
	var journalFile *os.File
	journalCount := 0
	lastSnapshot := time.Now()

	closeJournal := func() {
		if journal != nil {
			_ = journal.Flush()
		}
		if journalFile != nil {
			_ = journalFile.Close()
		}
		journal, journalFile = nil, nil
	}

	openJournal := func() error {
		if journal != nil {
			return nil
		}
		f, err := os.OpenFile(c.journalPath(), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return err
		}
		journalFile = f
		journal = bufio.NewWriter(f)
		return nil
	}

	flush := func() {
		closeJournal()
		if err := c.writeSnapshot(); err != nil {
			log.Printf("poolcache: snapshot write failed: %v", err)
			return
		}
		c.metrics.Snapshots.Inc()
		_ = os.Remove(c.journalPath())
		journalCount = 0
		lastSnapshot = time.Now()
	}

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case u := <-c.updates:
			if u.flushDone != nil {
				flush()
				close(u.flushDone)
				continue
			}
			if err := openJournal(); err != nil {
				log.Printf("poolcache: open journal: %v", err)
				continue
			}
			if err := WriteJournalEntry(journal, u.op, u.record); err != nil {
				log.Printf("poolcache: journal write: %v", err)
				continue
			}
			_ = journal.Flush()
			journalCount++
			c.metrics.JournalEntries.Inc()
			if journalCount >= c.cfg.JournalThreshold {
				flush()
			}

		case <-ticker.C:
			if time.Since(lastSnapshot) >= c.cfg.SnapshotInterval && journalCount > 0 {
				flush()
			}

		case <-c.stopCh:
			c.drainAndFlush()
			flush()
			return
		}
	}
}

// drainAndFlush pulls any updates queued before shutdown was requested so
// they land in the final snapshot instead of being silently lost.
func (c *Cache) drainAndFlush() {
	for {
		select {
		case u := <-c.updates:
			if u.flushDone != nil {
				close(u.flushDone)
			}
			// record already applied to c.pools synchronously by
			// Upsert/Delete; nothing further to do before the final
			// snapshot picks up the current map contents.
		default:
			return
		}
	}
}

// writeSnapshot writes the entire current pool set to a temp file in the
// same directory, fsyncs it, then atomically renames it onto the canonical
// snapshot path (spec §4.4 "Atomicity": readers never observe a partial
// snapshot because of the rename).
func (c *Cache) writeSnapshot() error {
	var addrs [][20]byte
	c.pools.Range(func(key, _ any) bool {
		addrs = append(addrs, key.([20]byte))
		return true
	})
	sort.Slice(addrs, func(i, j int) bool {
		for k := range addrs[i] {
			if addrs[i][k] != addrs[j][k] {
				return addrs[i][k] < addrs[j][k]
			}
		}
		return false
	})

	records := make([][]byte, 0, len(addrs))
	for _, a := range addrs {
		actual, _ := c.pools.Load(a)
		records = append(records, actual.(PoolRecord).AsBytes())
	}

	header := FileHeader{
		Magic:     fileMagic,
		Version:   fileVersion,
		ChainID:   c.cfg.ChainID,
		PoolCount: uint32(len(records)),
		CreatedAt: uint64(time.Now().UnixNano()),
		Checksum:  checksumRecords(records),
	}

	tmpPath := c.snapshotPath() + ".tmp"
	f, err := os.OpenFile(tmpPath, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("create temp snapshot: %w", err)
	}
	w := bufio.NewWriter(f)
	if _, err := w.Write(header.AsBytes()); err != nil {
		_ = f.Close()
		return err
	}
	for _, rec := range records {
		if _, err := w.Write(rec); err != nil {
			_ = f.Close()
			return err
		}
	}
	if err := w.Flush(); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return fmt.Errorf("fsync temp snapshot: %w", err)
	}
	if err := f.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmpPath, c.snapshotPath()); err != nil {
		return fmt.Errorf("rename temp snapshot: %w", err)
	}
	return nil
}
