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

import "sync"

// addrList is an append-mostly slice of addresses guarded by its own mutex.
// Duplicates are tolerated (spec §4.3: "duplicates are tolerated, dedup on
// read if needed") since a pool is only ever added once in practice (the
// GetOrCreate fast path on the outer map prevents a second insert), but a
// list is simpler and cheaper to maintain than a set for the expected
// fan-out of a handful of pools per token.
type addrList struct {
	mu    sync.Mutex
	addrs []Addr
}

func (l *addrList) append(a Addr) {
	l.mu.Lock()
	l.addrs = append(l.addrs, a)
	l.mu.Unlock()
}

// snapshot returns a copy of the current address list, deduplicated.
func (l *addrList) snapshot() []Addr {
	l.mu.Lock()
	defer l.mu.Unlock()
	seen := make(map[Addr]struct{}, len(l.addrs))
	out := make([]Addr, 0, len(l.addrs))
	for _, a := range l.addrs {
		if _, ok := seen[a]; ok {
			continue
		}
		seen[a] = struct{}{}
		out = append(out, a)
	}
	return out
}

// index is a concurrent map from key K to an append-only addrList, built on
// sync.Map in the same spirit as store.go's outer pool map: the common case
// (key already present) never takes a lock beyond the one inside addrList.
type index[K comparable] struct {
	m sync.Map // K -> *addrList
}

func (ix *index[K]) add(key K, a Addr) {
	actual, ok := ix.m.Load(key)
	if !ok {
		actual, _ = ix.m.LoadOrStore(key, &addrList{})
	}
	actual.(*addrList).append(a)
}

func (ix *index[K]) get(key K) []Addr {
	actual, ok := ix.m.Load(key)
	if !ok {
		return nil
	}
	return actual.(*addrList).snapshot()
}

func (ix *index[K]) clear() {
	ix.m.Range(func(k, _ any) bool {
		ix.m.Delete(k)
		return true
	})
}

type pairKey struct {
	a, b Addr
}
