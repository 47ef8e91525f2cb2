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

package poolstate

import (
	"sync"
	"time"
)

// poolHandle is the map's single source of truth for one pool: the outer
// map owns it, every index stores only its address, and readers materialize
// a PoolState copy through the handle's RWMutex (spec §9 "Arenas vs. shared
// ownership": indices never hold the pool itself).
type poolHandle struct {
	mu    sync.RWMutex
	state PoolState
}

func (h *poolHandle) get() PoolState {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.state.clone()
}

// ManagerStats mirrors the original pool-state manager's aggregate counters,
// useful for a health endpoint without walking the whole map.
type ManagerStats struct {
	TotalPools       int
	V2Pools          int
	V3Pools          int
	InitializedPools int
	TotalEvents      uint64
	LastUpdateNs     uint64
}

// GapHandler is invoked whenever ApplySequenced observes a sequence
// mismatch. It never blocks event application beyond returning the error.
type GapHandler func(GapInfo)

// Manager is the concurrent pool-state store described by spec §4.3: a
// lock-free outer map (sync.Map, sharded by Go's own internal bucketing)
// keyed by pool address, a per-pool RWMutex, and two append-mostly indices.
type Manager struct {
	pools sync.Map // Addr -> *poolHandle

	tokenIndex index[Addr]
	pairIndex  index[pairKey]

	statsMu sync.Mutex
	stats   ManagerStats

	seq        *sequenceTracker
	gapHandler GapHandler
}

// NewManager builds an empty Manager. gapHandler may be nil.
func NewManager(gapHandler GapHandler) *Manager {
	if gapHandler == nil {
		gapHandler = func(GapInfo) {}
	}
	return &Manager{
		seq:        newSequenceTracker(),
		gapHandler: gapHandler,
	}
}

// getOrCreatePool follows the teacher's GetOrCreate idiom: a plain Load on
// the hot path, falling back to an allocate-then-LoadOrStore only on a miss,
// so that the overwhelmingly common "pool already seen" case allocates
// nothing.
func (m *Manager) getOrCreatePool(addr Addr) (h *poolHandle, created bool) {
	if actual, ok := m.pools.Load(addr); ok {
		return actual.(*poolHandle), false
	}
	fresh := &poolHandle{state: PoolState{PoolAddr: addr}}
	actual, loaded := m.pools.LoadOrStore(addr, fresh)
	return actual.(*poolHandle), !loaded
}

// GetPool returns a snapshot of the pool's current state.
func (m *Manager) GetPool(addr Addr) (PoolState, bool) {
	actual, ok := m.pools.Load(addr)
	if !ok {
		return PoolState{}, false
	}
	return actual.(*poolHandle).get(), true
}

// FindPoolsWithToken returns every pool that references token, in no
// particular order.
func (m *Manager) FindPoolsWithToken(token Addr) []PoolState {
	addrs := m.tokenIndex.get(token)
	out := make([]PoolState, 0, len(addrs))
	for _, a := range addrs {
		if s, ok := m.GetPool(a); ok {
			out = append(out, s)
		}
	}
	return out
}

// FindPoolsForTokenPair returns every pool trading token a against token b,
// regardless of the order they're passed in (the index key is sorted).
func (m *Manager) FindPoolsForTokenPair(a, b Addr) []PoolState {
	lo, hi := sortPair(a, b)
	addrs := m.pairIndex.get(pairKey{lo, hi})
	out := make([]PoolState, 0, len(addrs))
	for _, addr := range addrs {
		if s, ok := m.GetPool(addr); ok {
			out = append(out, s)
		}
	}
	return out
}

// Stats returns a copy of the manager's running aggregate counters.
func (m *Manager) Stats() ManagerStats {
	m.statsMu.Lock()
	defer m.statsMu.Unlock()
	return m.stats
}

// StalePools returns the addresses of every pool whose LastUpdateNs is
// older than olderThan relative to now. This is a read-only convenience
// carried over from the original health check (spec §9 supplemented
// features); nothing in the core invariants depends on it.
func (m *Manager) StalePools(olderThan time.Duration, now time.Time) []Addr {
	cutoff := uint64(now.Add(-olderThan).UnixNano())
	var out []Addr
	m.pools.Range(func(key, value any) bool {
		h := value.(*poolHandle)
		h.mu.RLock()
		stale := h.state.LastUpdateNs < cutoff
		addr := h.state.PoolAddr
		h.mu.RUnlock()
		if stale {
			out = append(out, addr)
		}
		return true
	})
	return out
}

// markAllUninitialized flags every pool as needing a full resync (spec
// §4.3 gap classification, >50 branch).
func (m *Manager) markAllUninitialized() {
	m.pools.Range(func(_, value any) bool {
		h := value.(*poolHandle)
		h.mu.Lock()
		h.state.Initialized = false
		h.mu.Unlock()
		return true
	})
}

func (m *Manager) recordEvent(timestampNs uint64) {
	m.statsMu.Lock()
	m.stats.TotalEvents++
	m.stats.LastUpdateNs = timestampNs
	m.statsMu.Unlock()
}

func (m *Manager) recordNewPool(protocol Protocol) {
	m.statsMu.Lock()
	m.stats.TotalPools++
	switch protocol {
	case ProtocolV2:
		m.stats.V2Pools++
	case ProtocolV3:
		m.stats.V3Pools++
	}
	m.statsMu.Unlock()
}

func (m *Manager) recordInitialized() {
	m.statsMu.Lock()
	m.stats.InitializedPools++
	m.statsMu.Unlock()
}
