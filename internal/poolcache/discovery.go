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
	"fmt"
	"time"
)

// DiscoverFunc performs the actual (presumably RPC-backed) lookup for a
// pool the cache has never seen. It is supplied by the caller so this
// package stays transport-agnostic.
type DiscoverFunc func(addr [20]byte) (PoolRecord, error)

// GetOrDiscover returns the cached record for addr, or runs discover if
// it's never been seen. Concurrent callers for the same address never run
// discover twice: the first caller marks the address in-progress and the
// rest wait on a shared completion notification, bounded by timeout (spec
// §4.4 "Discovery coordination").
func (c *Cache) GetOrDiscover(addr [20]byte, discover DiscoverFunc, timeout time.Duration) (PoolRecord, error) {
	if rec, ok := c.Get(addr); ok {
		return rec, nil
	}

	notify := make(chan struct{})
	if _, inProgress := c.discoveryWaiters.LoadOrStore(addr, notify); inProgress {
		c.metrics.DiscoveriesDeduped.Inc()
		return c.waitForDiscovery(addr, timeout)
	}
	c.discoveryInProgress.Store(addr, struct{}{})
	c.metrics.DiscoveriesStarted.Inc()

	rec, err := discover(addr)
	if err == nil {
		c.Upsert(rec, true)
	}
	c.discoveryInProgress.Delete(addr)
	c.discoveryWaiters.Delete(addr)
	close(notify)

	if err != nil {
		return PoolRecord{}, fmt.Errorf("poolcache: discovery failed for %x: %w", addr, err)
	}
	return rec, nil
}

func (c *Cache) waitForDiscovery(addr [20]byte, timeout time.Duration) (PoolRecord, error) {
	actual, ok := c.discoveryWaiters.Load(addr)
	if !ok {
		// The in-flight discovery finished between our LoadOrStore and
		// here; re-check the cache directly.
		if rec, ok := c.Get(addr); ok {
			return rec, nil
		}
		return PoolRecord{}, fmt.Errorf("poolcache: discovery for %x vanished without a result", addr)
	}
	notify := actual.(chan struct{})

	select {
	case <-notify:
		if rec, ok := c.Get(addr); ok {
			return rec, nil
		}
		return PoolRecord{}, fmt.Errorf("poolcache: discovery for %x failed", addr)
	case <-time.After(timeout):
		c.metrics.DiscoveriesTimedOut.Inc()
		return PoolRecord{}, fmt.Errorf("poolcache: discovery for %x timed out after %s", addr, timeout)
	}
}
